// Package watcher polls a repository for new commits and fires a trigger
// (normally the pipeline driver) once per newly observed commit.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"smellfix/internal/checkpoint"
)

// DefaultInterval is the wait between polls.
const DefaultInterval = 100 * time.Second

// CommitSource reports the newest commit of the watched repository.
type CommitSource interface {
	LatestCommit(ctx context.Context) (string, error)
}

// Trigger reacts to a new commit. Fire blocks until the reaction is done.
type Trigger interface {
	Fire(ctx context.Context) error
}

// TriggerFunc adapts a function to Trigger.
type TriggerFunc func(ctx context.Context) error

func (f TriggerFunc) Fire(ctx context.Context) error { return f(ctx) }

// Watcher ties a commit source, a trigger and a checkpoint store together.
type Watcher struct {
	Repo     string
	Source   CommitSource
	Trigger  Trigger
	Store    checkpoint.Store
	Interval time.Duration

	now func() time.Time
}

// Poll fetches the latest commit and compares it with cp.
//
// With no baseline yet the commit becomes the baseline and nothing fires.
// A different commit replaces the checkpoint and fires the trigger once; a
// trigger failure is logged and the checkpoint still advances. The same
// commit does nothing. On a fetch error cp is returned unchanged.
func (w *Watcher) Poll(ctx context.Context, cp checkpoint.Checkpoint) (checkpoint.Checkpoint, bool, error) {
	sha, err := w.Source.LatestCommit(ctx)
	if err != nil {
		return cp, false, fmt.Errorf("watcher: latest commit: %w", err)
	}
	if cp.Repo == "" {
		cp.Repo = w.Repo
	}
	if !cp.Initialized() {
		log.Printf("[watcher] baseline commit for %s: %s", cp.Repo, sha)
		cp.SHA = sha
		cp.UpdatedAt = w.clock()
		return cp, false, nil
	}
	if sha == cp.SHA {
		return cp, false, nil
	}
	log.Printf("[watcher] new commit detected on %s: %s (was %s)", cp.Repo, sha, cp.SHA)
	cp.SHA = sha
	cp.UpdatedAt = w.clock()
	if w.Trigger != nil {
		if err := w.Trigger.Fire(ctx); err != nil {
			log.Printf("[watcher] warn: trigger failed: %v", err)
		}
	}
	return cp, true, nil
}

// Run loads the checkpoint and polls until ctx is done. Poll errors are
// logged and the loop keeps going.
func (w *Watcher) Run(ctx context.Context) error {
	if w.Source == nil {
		return errors.New("watcher: no commit source")
	}
	if w.Store == nil {
		w.Store = checkpoint.NewMemory()
	}
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	cp, err := w.Store.Load(ctx, w.Repo)
	switch {
	case errors.Is(err, checkpoint.ErrNotFound):
		cp = checkpoint.Checkpoint{Repo: w.Repo}
	case err != nil:
		return err
	default:
		log.Printf("[watcher] resuming %s from %s", w.Repo, cp.SHA)
	}

	log.Printf("[watcher] polling %s every %s", w.Repo, interval)
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("[watcher] stopped")
			return nil
		case <-timer.C:
		}

		prev := cp.SHA
		next, fired, err := w.Poll(ctx, cp)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Printf("[watcher] warn: %v", err)
		}
		cp = next
		if cp.SHA != prev {
			if err := w.Store.Save(ctx, cp); err != nil {
				log.Printf("[watcher] warn: save checkpoint: %v", err)
			}
		}
		if !fired {
			log.Printf("[watcher] no new commits")
		}
		timer.Reset(interval)
	}
}

func (w *Watcher) clock() time.Time {
	if w.now != nil {
		return w.now()
	}
	return time.Now().UTC()
}
