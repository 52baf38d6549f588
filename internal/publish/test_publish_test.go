package publish

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smellfix/internal/forge"
	"smellfix/internal/procexec"
)

var target = forge.Repo{Owner: "mananchichra", Name: "osa-shell"}

func newPublisher(t *testing.T, git *procexec.Fake) (*Publisher, *forge.FakeServer) {
	t.Helper()
	srv := forge.NewFakeServer()
	t.Cleanup(srv.Close)
	api, err := forge.NewClient(forge.Options{BaseURL: srv.URL})
	require.NoError(t, err)
	return New(Config{Repo: target}, api, git.Exec), srv
}

func TestDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	assert.Equal(t, "./check_repo", c.RepoDir)
	assert.Equal(t, "refactor-branch3", c.Branch)
	assert.Equal(t, "refactor-branch3", c.GuardHead)
	assert.Equal(t, "refactor-branch", c.Head)
	assert.Equal(t, "main", c.Base)

	c = Config{Branch: "b", Head: "h"}.withDefaults()
	assert.Equal(t, "b", c.GuardHead)
}

func TestCommitAndPush_Sequence(t *testing.T) {
	git := &procexec.Fake{}
	p, _ := newPublisher(t, git)

	errs := p.CommitAndPush(context.Background())
	assert.Empty(t, errs)
	assert.Equal(t, []string{
		"git branch -D refactor-branch3",
		"git checkout -b refactor-branch3",
		"git add .",
		"git commit -m Automated refactoring: Fixed design smells",
		"git push origin refactor-branch3",
	}, git.Commands())
	for _, c := range git.Calls {
		assert.Equal(t, "./check_repo", c.Dir)
	}
}

func TestCommitAndPush_ContinuesPastFailures(t *testing.T) {
	calls := 0
	exec := func(ctx context.Context, c procexec.Cmd) (procexec.Result, error) {
		calls++
		switch c.Args[0] {
		case "branch":
			return procexec.Result{ExitCode: 1, Stderr: []byte("error: branch 'refactor-branch3' not found.")}, nil
		case "commit":
			return procexec.Result{ExitCode: 1, Stdout: []byte("nothing to commit, working tree clean")}, nil
		case "push":
			return procexec.Result{ExitCode: -1}, errors.New("network down")
		}
		return procexec.Result{}, nil
	}
	p := New(Config{}, nil, exec)

	errs := p.CommitAndPush(context.Background())
	assert.Equal(t, 5, calls)
	require.Len(t, errs, 2, "branch -D failure is ignored")
	assert.Contains(t, errs[0].Error(), "nothing to commit")
	assert.Contains(t, errs[1].Error(), "network down")
}

func TestOpenPullRequest_Creates(t *testing.T) {
	p, srv := newPublisher(t, &procexec.Fake{})

	pr, existing, err := p.OpenPullRequest(context.Background())
	require.NoError(t, err)
	assert.False(t, existing)
	require.NotNil(t, pr)
	require.Len(t, srv.Created, 1)
	assert.Equal(t, forge.NewPull{
		Title: "Automated Refactoring: Fixed Design Smells",
		Body:  "This PR contains automated refactoring based on detected design smells.",
		Head:  "refactor-branch",
		Base:  "main",
	}, srv.Created[0])
}

func TestOpenPullRequest_GuardMatchesItsOwnHead(t *testing.T) {
	p, srv := newPublisher(t, &procexec.Fake{})
	srv.AddOpenPull(target, "refactor-branch3")

	pr, existing, err := p.OpenPullRequest(context.Background())
	require.NoError(t, err)
	assert.True(t, existing)
	assert.Equal(t, "refactor-branch3", pr.Head)
	assert.Empty(t, srv.Created)
}

// An open pull request from refactor-branch is invisible to the guard, which
// looks for refactor-branch3, so a duplicate creation is still attempted.
func TestOpenPullRequest_GuardMissesMismatchedHead(t *testing.T) {
	p, srv := newPublisher(t, &procexec.Fake{})
	srv.AddOpenPull(target, "refactor-branch")

	pr, existing, err := p.OpenPullRequest(context.Background())
	assert.False(t, existing)
	assert.Nil(t, pr)
	require.Error(t, err, "the host rejects the duplicate the guard let through")
	assert.Equal(t, []string{"refactor-branch3"}, srv.Queries)
	assert.Empty(t, srv.Created)
}

func TestPublish_ReportsBothStages(t *testing.T) {
	git := &procexec.Fake{Responses: map[string]procexec.FakeResponse{
		"git": {Result: procexec.Result{ExitCode: 128}},
	}}
	p, srv := newPublisher(t, git)

	res, err := p.Publish(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.GitErrors, 4)
	require.NotNil(t, res.Pull)
	assert.Len(t, srv.Created, 1)
}

func TestOpenPullRequest_NoAPI(t *testing.T) {
	_, _, err := New(Config{}, nil, (&procexec.Fake{}).Exec).OpenPullRequest(context.Background())
	assert.Error(t, err)
}
