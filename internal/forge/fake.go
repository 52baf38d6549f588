package forge

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// FakeServer is an in-memory GitHub API subset served over httptest. It
// backs forge, publish and watcher tests.
type FakeServer struct {
	*httptest.Server

	mu      sync.Mutex
	commits map[string][]string // "owner/repo" -> SHAs, newest first
	pulls   map[string][]fakePull
	// Created records every successful create request.
	Created []NewPull
	// Queries records the head filter of each pull listing.
	Queries []string
	// FailCommits makes commit listing return 500.
	FailCommits bool
}

type fakePull struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
	URL    string `json:"html_url"`
	Head   struct {
		Ref string `json:"ref"`
	} `json:"head"`
	Base struct {
		Ref string `json:"ref"`
	} `json:"base"`
}

func NewFakeServer() *FakeServer {
	f := &FakeServer{commits: map[string][]string{}, pulls: map[string][]fakePull{}}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	return f
}

// PushCommit makes sha the newest commit of repo.
func (f *FakeServer) PushCommit(r Repo, sha string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits[r.String()] = append([]string{sha}, f.commits[r.String()]...)
}

// AddOpenPull seeds an open pull request with the given head branch.
func (f *FakeServer) AddOpenPull(r Repo, head string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addPull(r, NewPull{Title: "seeded", Head: head, Base: "main"})
}

func (f *FakeServer) addPull(r Repo, p NewPull) fakePull {
	list := f.pulls[r.String()]
	fp := fakePull{Number: len(list) + 1, Title: p.Title, State: "open"}
	fp.URL = fmt.Sprintf("https://github.com/%s/pull/%d", r, fp.Number)
	fp.Head.Ref = p.Head
	fp.Base.Ref = p.Base
	f.pulls[r.String()] = append(list, fp)
	return fp
}

func (f *FakeServer) serve(w http.ResponseWriter, req *http.Request) {
	parts := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
	if len(parts) != 4 || parts[0] != "repos" {
		http.NotFound(w, req)
		return
	}
	r := Repo{Owner: parts[1], Name: parts[2]}
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case parts[3] == "commits" && req.Method == http.MethodGet:
		if f.FailCommits {
			http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
			return
		}
		shas := f.commits[r.String()]
		out := []map[string]string{}
		if len(shas) > 0 {
			out = append(out, map[string]string{"sha": shas[0]})
		}
		writeJSON(w, http.StatusOK, out)
	case parts[3] == "pulls" && req.Method == http.MethodGet:
		head := req.URL.Query().Get("head")
		f.Queries = append(f.Queries, head)
		out := []fakePull{}
		for _, p := range f.pulls[r.String()] {
			if p.State == "open" && (head == "" || p.Head.Ref == head) {
				out = append(out, p)
			}
		}
		writeJSON(w, http.StatusOK, out)
	case parts[3] == "pulls" && req.Method == http.MethodPost:
		var body struct {
			Title string `json:"title"`
			Body  string `json:"body"`
			Head  string `json:"head"`
			Base  string `json:"base"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		np := NewPull{Title: body.Title, Body: body.Body, Head: body.Head, Base: body.Base}
		for _, p := range f.pulls[r.String()] {
			if p.State == "open" && p.Head.Ref == np.Head {
				writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
					"message": "Validation Failed: A pull request already exists for " + np.Head,
				})
				return
			}
		}
		f.Created = append(f.Created, np)
		writeJSON(w, http.StatusCreated, f.addPull(r, np))
	default:
		http.NotFound(w, req)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
