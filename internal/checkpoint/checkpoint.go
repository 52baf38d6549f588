// Package checkpoint persists the watcher's last seen commit per repository.
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by Load when no checkpoint exists for a repo.
var ErrNotFound = errors.New("checkpoint: not found")

// Checkpoint is the remembered commit for one repository. An empty SHA
// means the watcher has not seen the repository yet.
type Checkpoint struct {
	Repo      string    `json:"repo"`
	SHA       string    `json:"sha"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Initialized reports whether a baseline commit has been recorded.
func (c Checkpoint) Initialized() bool { return c.SHA != "" }

// Store loads and saves checkpoints.
type Store interface {
	Load(ctx context.Context, repo string) (Checkpoint, error)
	Save(ctx context.Context, cp Checkpoint) error
	Close() error
}

// Open returns the backend named by kind: "memory", "file" (path),
// "sqlite" (dsn is the database file) or "postgres" (dsn).
func Open(kind, path, dsn string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "memory", "mem":
		return NewMemory(), nil
	case "", "file":
		if strings.TrimSpace(path) == "" {
			path = DefaultFilePath
		}
		return NewFile(path), nil
	case "sqlite", "sqlite3":
		return NewSQLite(dsn)
	case "postgres", "pg":
		return NewPostgres(dsn)
	default:
		return nil, fmt.Errorf("checkpoint: unknown store %q", kind)
	}
}

func normalize(cp Checkpoint) Checkpoint {
	cp.Repo = strings.TrimSpace(cp.Repo)
	cp.SHA = strings.TrimSpace(cp.SHA)
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = time.Now().UTC()
	}
	return cp
}
