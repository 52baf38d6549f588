// Package publish commits the refactored checkout, pushes it and opens a
// pull request.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"smellfix/internal/forge"
	"smellfix/internal/procexec"
)

const (
	DefaultRepoDir       = "./check_repo"
	DefaultBranch        = "refactor-branch3"
	DefaultPullHead      = "refactor-branch"
	DefaultBase          = "main"
	DefaultCommitMessage = "Automated refactoring: Fixed design smells"
	DefaultTitle         = "Automated Refactoring: Fixed Design Smells"
	DefaultBody          = "This PR contains automated refactoring based on detected design smells."
)

// PullAPI is the part of the hosting API the publisher needs.
type PullAPI interface {
	OpenPulls(ctx context.Context, r forge.Repo, head string) ([]forge.PullRequest, error)
	CreatePull(ctx context.Context, r forge.Repo, p forge.NewPull) (forge.PullRequest, error)
}

// Config holds the publisher settings. Zero values take the defaults above;
// GuardHead defaults to Branch.
type Config struct {
	RepoDir       string
	Remote        string
	Branch        string
	CommitMessage string

	Repo      forge.Repo
	GuardHead string
	Head      string
	Base      string
	Title     string
	Body      string
}

func (c Config) withDefaults() Config {
	def := func(v *string, d string) {
		if strings.TrimSpace(*v) == "" {
			*v = d
		}
	}
	def(&c.RepoDir, DefaultRepoDir)
	def(&c.Remote, "origin")
	def(&c.Branch, DefaultBranch)
	def(&c.CommitMessage, DefaultCommitMessage)
	def(&c.GuardHead, c.Branch)
	def(&c.Head, DefaultPullHead)
	def(&c.Base, DefaultBase)
	def(&c.Title, DefaultTitle)
	def(&c.Body, DefaultBody)
	return c
}

// Publisher runs the git sequence and the guarded pull-request creation.
type Publisher struct {
	cfg  Config
	api  PullAPI
	exec procexec.Executor
}

// New builds a Publisher. A nil exec runs real git.
func New(cfg Config, api PullAPI, exec procexec.Executor) *Publisher {
	return &Publisher{cfg: cfg.withDefaults(), api: api, exec: procexec.Or(exec)}
}

// Config returns the effective settings.
func (p *Publisher) Config() Config { return p.cfg }

// Result reports what a publish did.
type Result struct {
	// GitErrors collects failures of the commit/push steps; the sequence
	// keeps going past them.
	GitErrors []error
	// Existing is set when the guard found an open pull request.
	Existing bool
	Pull     *forge.PullRequest
}

// Publish commits and pushes, then opens the pull request. The returned
// error covers only the pull-request step.
func (p *Publisher) Publish(ctx context.Context) (Result, error) {
	res := Result{GitErrors: p.CommitAndPush(ctx)}
	pr, existing, err := p.OpenPullRequest(ctx)
	res.Existing = existing
	res.Pull = pr
	return res, err
}

// CommitAndPush recreates the branch, stages everything, commits and
// pushes. Failing to delete a missing branch is expected and ignored.
func (p *Publisher) CommitAndPush(ctx context.Context) []error {
	c := p.cfg
	if err := p.git(ctx, "branch", "-D", c.Branch); err != nil {
		log.Printf("[publish] branch %s not deleted (ignored): %v", c.Branch, err)
	}
	var errs []error
	steps := [][]string{
		{"checkout", "-b", c.Branch},
		{"add", "."},
		{"commit", "-m", c.CommitMessage},
		{"push", c.Remote, c.Branch},
	}
	for _, args := range steps {
		if err := p.git(ctx, args...); err != nil {
			log.Printf("[publish] warn: %v", err)
			errs = append(errs, err)
		}
	}
	return errs
}

// OpenPullRequest checks for an open pull request whose head is GuardHead
// and otherwise opens one from Head into Base. With the default settings the
// guard and the created request use different branch names, so the guard
// never matches what it creates.
func (p *Publisher) OpenPullRequest(ctx context.Context) (*forge.PullRequest, bool, error) {
	if p.api == nil {
		return nil, false, errors.New("publish: no hosting API configured")
	}
	c := p.cfg
	open, err := p.api.OpenPulls(ctx, c.Repo, c.GuardHead)
	if err != nil {
		return nil, false, err
	}
	if len(open) > 0 {
		log.Printf("[publish] pull request already exists: %s", open[0].HTMLURL)
		return &open[0], true, nil
	}
	pr, err := p.api.CreatePull(ctx, c.Repo, forge.NewPull{
		Title: c.Title,
		Body:  c.Body,
		Head:  c.Head,
		Base:  c.Base,
	})
	if err != nil {
		return nil, false, err
	}
	log.Printf("[publish] pull request created: %s", pr.HTMLURL)
	return &pr, false, nil
}

func (p *Publisher) git(ctx context.Context, args ...string) error {
	cmd := procexec.Cmd{Dir: p.cfg.RepoDir, Name: "git", Args: args}
	res, err := p.exec(ctx, cmd)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		out := strings.TrimSpace(string(res.Stderr) + string(res.Stdout))
		return fmt.Errorf("%s: exit %d: %s", cmd, res.ExitCode, out)
	}
	return nil
}
