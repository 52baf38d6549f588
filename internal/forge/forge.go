// Package forge talks to the source hosting API (GitHub): commit polling
// and pull-request listing/creation.
package forge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v68/github"
)

// ErrNoCommits is returned when a repository has no commits yet.
var ErrNoCommits = errors.New("forge: repository has no commits")

// Repo identifies a hosted repository.
type Repo struct {
	Owner string
	Name  string
}

func (r Repo) String() string { return r.Owner + "/" + r.Name }

// ParseRepo accepts "owner/repo", with optional surrounding slashes or a
// github.com URL prefix.
func ParseRepo(s string) (Repo, error) {
	p := strings.TrimSpace(s)
	p = strings.TrimSuffix(p, ".git")
	for _, prefix := range []string{"https://github.com/", "http://github.com/", "github.com/"} {
		p = strings.TrimPrefix(p, prefix)
	}
	owner, repo, ok := splitOwnerRepo(p)
	if !ok {
		return Repo{}, fmt.Errorf("forge: invalid repository %q (want owner/repo)", s)
	}
	return Repo{Owner: owner, Name: repo}, nil
}

func splitOwnerRepo(repoPath string) (owner, repo string, ok bool) {
	repoPath = strings.Trim(repoPath, "/")
	parts := strings.Split(repoPath, "/")
	if len(parts) != 2 {
		return "", "", false
	}
	owner = strings.TrimSpace(parts[0])
	repo = strings.TrimSpace(parts[1])
	if owner == "" || repo == "" {
		return "", "", false
	}
	return owner, repo, true
}

// PullRequest is the subset of a hosted pull request the pipeline uses.
type PullRequest struct {
	Number  int
	Title   string
	Head    string
	Base    string
	HTMLURL string
}

// NewPull describes a pull request to open.
type NewPull struct {
	Title string
	Body  string
	Head  string
	Base  string
}

// Options configures a Client.
type Options struct {
	Token string
	// BaseURL overrides the API endpoint (GitHub Enterprise, tests).
	BaseURL    string
	HTTPClient *http.Client
}

// Client wraps a go-github client.
type Client struct {
	gh *github.Client
}

func NewClient(opts Options) (*Client, error) {
	gh := github.NewClient(opts.HTTPClient)
	if tok := strings.TrimSpace(opts.Token); tok != "" {
		gh = gh.WithAuthToken(tok)
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("forge: base url: %w", err)
		}
		gh.BaseURL = u
	}
	return &Client{gh: gh}, nil
}

// LatestCommit returns the SHA of the newest commit on the default branch.
func (c *Client) LatestCommit(ctx context.Context, r Repo) (string, error) {
	commits, _, err := c.gh.Repositories.ListCommits(ctx, r.Owner, r.Name, &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return "", fmt.Errorf("forge: list commits %s: %w", r, err)
	}
	if len(commits) == 0 {
		return "", ErrNoCommits
	}
	return commits[0].GetSHA(), nil
}

// OpenPulls lists open pull requests filtered by head branch.
func (c *Client) OpenPulls(ctx context.Context, r Repo, head string) ([]PullRequest, error) {
	prs, _, err := c.gh.PullRequests.List(ctx, r.Owner, r.Name, &github.PullRequestListOptions{
		State: "open",
		Head:  head,
	})
	if err != nil {
		return nil, fmt.Errorf("forge: list pulls %s: %w", r, err)
	}
	out := make([]PullRequest, 0, len(prs))
	for _, pr := range prs {
		out = append(out, fromGitHub(pr))
	}
	return out, nil
}

// CreatePull opens a pull request.
func (c *Client) CreatePull(ctx context.Context, r Repo, p NewPull) (PullRequest, error) {
	pr, _, err := c.gh.PullRequests.Create(ctx, r.Owner, r.Name, &github.NewPullRequest{
		Title: github.Ptr(p.Title),
		Body:  github.Ptr(p.Body),
		Head:  github.Ptr(p.Head),
		Base:  github.Ptr(p.Base),
	})
	if err != nil {
		return PullRequest{}, fmt.Errorf("forge: create pull %s: %w", r, err)
	}
	return fromGitHub(pr), nil
}

// Commits binds the client to one repository for commit polling.
func (c *Client) Commits(r Repo) *RepoCommits {
	return &RepoCommits{c: c, repo: r}
}

// RepoCommits is a commit source for a single repository.
type RepoCommits struct {
	c    *Client
	repo Repo
}

func (rc *RepoCommits) LatestCommit(ctx context.Context) (string, error) {
	return rc.c.LatestCommit(ctx, rc.repo)
}

func (rc *RepoCommits) Repo() Repo { return rc.repo }

func fromGitHub(pr *github.PullRequest) PullRequest {
	return PullRequest{
		Number:  pr.GetNumber(),
		Title:   pr.GetTitle(),
		Head:    pr.GetHead().GetRef(),
		Base:    pr.GetBase().GetRef(),
		HTMLURL: pr.GetHTMLURL(),
	}
}
