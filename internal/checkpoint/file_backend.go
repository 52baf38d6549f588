package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// DefaultFilePath is where the file store keeps checkpoints.
const DefaultFilePath = ".smellfix/checkpoint.json"

// File stores every repository's checkpoint in one JSON document.
type File struct {
	path string

	mu     sync.Mutex
	loaded bool
	byRepo map[string]Checkpoint
}

func NewFile(path string) *File {
	return &File{path: path, byRepo: make(map[string]Checkpoint)}
}

func (f *File) Path() string { return f.path }

func (f *File) Load(_ context.Context, repo string) (Checkpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ensureLoaded(); err != nil {
		return Checkpoint{Repo: repo}, err
	}
	cp, ok := f.byRepo[strings.TrimSpace(repo)]
	if !ok {
		return Checkpoint{Repo: repo}, ErrNotFound
	}
	return cp, nil
}

func (f *File) Save(_ context.Context, cp Checkpoint) error {
	cp = normalize(cp)
	if cp.Repo == "" {
		return errors.New("checkpoint: empty repo")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ensureLoaded(); err != nil {
		return err
	}
	f.byRepo[cp.Repo] = cp
	return f.write()
}

func (f *File) Close() error { return nil }

func (f *File) ensureLoaded() error {
	if f.loaded {
		return nil
	}
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		f.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("checkpoint: read %s: %w", f.path, err)
	}
	var rows []Checkpoint
	if err := json.Unmarshal(b, &rows); err != nil {
		return fmt.Errorf("checkpoint: decode %s: %w", f.path, err)
	}
	for _, row := range rows {
		row = normalize(row)
		if row.Repo == "" {
			continue
		}
		f.byRepo[row.Repo] = row
	}
	f.loaded = true
	return nil
}

// write replaces the file through a temp file so a crash never leaves a
// truncated document.
func (f *File) write() error {
	rows := make([]Checkpoint, 0, len(f.byRepo))
	for _, cp := range f.byRepo {
		rows = append(rows, cp)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Repo < rows[j].Repo })
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("checkpoint: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}
