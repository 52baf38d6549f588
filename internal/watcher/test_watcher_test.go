package watcher

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smellfix/internal/checkpoint"
	"smellfix/internal/forge"
	"smellfix/internal/procexec"
)

type scriptedSource struct {
	mu   sync.Mutex
	shas []string
	err  error
	// onDrain runs once the script is exhausted.
	onDrain func()
}

func (s *scriptedSource) LatestCommit(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	sha := s.shas[0]
	if len(s.shas) > 1 {
		s.shas = s.shas[1:]
	} else if s.onDrain != nil {
		s.onDrain()
		s.onDrain = nil
	}
	return sha, nil
}

type countingTrigger struct {
	mu    sync.Mutex
	fired int
	err   error
}

func (c *countingTrigger) Fire(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fired++
	return c.err
}

func (c *countingTrigger) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fired
}

func TestPoll_BaselineThenChange(t *testing.T) {
	src := &scriptedSource{shas: []string{"A", "A", "B"}}
	trig := &countingTrigger{}
	w := &Watcher{Repo: "o/r", Source: src, Trigger: trig}
	ctx := context.Background()

	cp, fired, err := w.Poll(ctx, checkpoint.Checkpoint{})
	require.NoError(t, err)
	assert.False(t, fired)
	assert.Equal(t, "A", cp.SHA)
	assert.Equal(t, "o/r", cp.Repo)
	assert.Equal(t, 0, trig.count())

	cp, fired, err = w.Poll(ctx, cp)
	require.NoError(t, err)
	assert.False(t, fired)
	assert.Equal(t, "A", cp.SHA)
	assert.Equal(t, 0, trig.count())

	cp, fired, err = w.Poll(ctx, cp)
	require.NoError(t, err)
	assert.True(t, fired)
	assert.Equal(t, "B", cp.SHA)
	assert.Equal(t, 1, trig.count())
}

func TestPoll_TriggerFailureStillAdvances(t *testing.T) {
	trig := &countingTrigger{err: errors.New("driver crashed")}
	w := &Watcher{Source: &scriptedSource{shas: []string{"B"}}, Trigger: trig}

	cp, fired, err := w.Poll(context.Background(), checkpoint.Checkpoint{Repo: "o/r", SHA: "A"})
	require.NoError(t, err)
	assert.True(t, fired)
	assert.Equal(t, "B", cp.SHA)
}

func TestPoll_FetchErrorKeepsCheckpoint(t *testing.T) {
	w := &Watcher{Source: &scriptedSource{err: errors.New("rate limited")}, Trigger: &countingTrigger{}}
	in := checkpoint.Checkpoint{Repo: "o/r", SHA: "A"}
	cp, fired, err := w.Poll(context.Background(), in)
	require.Error(t, err)
	assert.False(t, fired)
	assert.Equal(t, in, cp)
}

func TestRun_PersistsAndStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := &scriptedSource{shas: []string{"A", "A", "B"}, onDrain: cancel}
	trig := &countingTrigger{}
	store := checkpoint.NewFile(filepath.Join(t.TempDir(), "cp.json"))
	w := &Watcher{Repo: "o/r", Source: src, Trigger: trig, Store: store, Interval: time.Millisecond}

	require.NoError(t, w.Run(ctx))
	assert.Equal(t, 1, trig.count())

	cp, err := store.Load(context.Background(), "o/r")
	require.NoError(t, err)
	assert.Equal(t, "B", cp.SHA)
}

// A commit that landed while the watcher was down fires on the first poll
// when the checkpoint was persisted.
func TestRun_ResumesFromStore(t *testing.T) {
	store := checkpoint.NewMemory()
	require.NoError(t, store.Save(context.Background(), checkpoint.Checkpoint{Repo: "o/r", SHA: "A"}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	trig := &countingTrigger{}
	w := &Watcher{Repo: "o/r", Source: &scriptedSource{shas: []string{"C"}, onDrain: cancel}, Trigger: trig, Store: store, Interval: time.Millisecond}
	require.NoError(t, w.Run(ctx))
	assert.Equal(t, 1, trig.count())
}

type sourceFunc func(ctx context.Context) (string, error)

func (f sourceFunc) LatestCommit(ctx context.Context) (string, error) { return f(ctx) }

func TestRun_WithForgeSource(t *testing.T) {
	srv := forge.NewFakeServer()
	defer srv.Close()
	repo := forge.Repo{Owner: "mananchichra", Name: "distributed_ddes"}
	srv.PushCommit(repo, "A")
	client, err := forge.NewClient(forge.Options{BaseURL: srv.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	src := sourceFunc(func(ctx context.Context) (string, error) {
		calls++
		if calls == 3 {
			srv.PushCommit(repo, "B")
		}
		return client.Commits(repo).LatestCommit(ctx)
	})
	trig := &countingTrigger{}
	w := &Watcher{
		Repo:   repo.String(),
		Source: src,
		Trigger: TriggerFunc(func(ctx context.Context) error {
			defer cancel()
			return trig.Fire(ctx)
		}),
		Interval: time.Millisecond,
	}
	require.NoError(t, w.Run(ctx))
	assert.Equal(t, 1, trig.count())
	assert.GreaterOrEqual(t, calls, 3)
}

func TestRun_NoSource(t *testing.T) {
	assert.Error(t, (&Watcher{}).Run(context.Background()))
}

func TestCommandTrigger(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	fake := &procexec.Fake{Responses: map[string]procexec.FakeResponse{
		"smellfix": {Result: procexec.Result{Stdout: []byte("scanning A.java\ndone")}},
		"false":    {Result: procexec.Result{ExitCode: 1}},
	}}
	trig := &CommandTrigger{Argv: []string{"smellfix", "run"}, Dir: "/work", Exec: fake.Exec}
	require.NoError(t, trig.Fire(context.Background()))
	assert.Equal(t, []string{"smellfix run"}, fake.Commands())
	assert.Equal(t, "/work", fake.Calls[0].Dir)
	assert.Contains(t, buf.String(), "[driver] scanning A.java\n")
	assert.Contains(t, buf.String(), "[driver] done\n")

	assert.Error(t, (&CommandTrigger{Argv: []string{"false"}, Exec: fake.Exec}).Fire(context.Background()))
	assert.Error(t, (&CommandTrigger{}).Fire(context.Background()))
}
