package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultSQLitePath is used by the sqlite store when no DSN is given.
const DefaultSQLitePath = ".smellfix/checkpoint.db"

// dialect holds the statements that differ between SQL engines.
type dialect struct {
	driver string
	schema string
	load   string
	save   string
}

var postgresDialect = dialect{
	driver: "pgx",
	schema: `
CREATE TABLE IF NOT EXISTS watcher_checkpoints (
  repo TEXT PRIMARY KEY,
  sha TEXT NOT NULL DEFAULT '',
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);`,
	load: `SELECT repo, sha, updated_at FROM watcher_checkpoints WHERE repo = $1`,
	save: `
INSERT INTO watcher_checkpoints (repo, sha, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (repo)
DO UPDATE SET sha = EXCLUDED.sha, updated_at = EXCLUDED.updated_at`,
}

var sqliteDialect = dialect{
	driver: "sqlite3",
	schema: `
CREATE TABLE IF NOT EXISTS watcher_checkpoints (
  repo TEXT PRIMARY KEY,
  sha TEXT NOT NULL DEFAULT '',
  updated_at TIMESTAMP NOT NULL
);`,
	load: `SELECT repo, sha, updated_at FROM watcher_checkpoints WHERE repo = ?`,
	save: `
INSERT INTO watcher_checkpoints (repo, sha, updated_at)
VALUES (?, ?, ?)
ON CONFLICT (repo)
DO UPDATE SET sha = excluded.sha, updated_at = excluded.updated_at`,
}

// SQLStore keeps checkpoints in a single table, one row per repository.
type SQLStore struct {
	db      *sql.DB
	dialect dialect

	schemaOnce sync.Once
	schemaErr  error
}

// NewPostgres connects to dsn with the pgx driver.
func NewPostgres(dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("checkpoint: postgres dsn is empty")
	}
	return openSQL(postgresDialect, dsn)
}

// NewSQLite opens (or creates) the database file at path.
func NewSQLite(path string) (*SQLStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultSQLitePath
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("checkpoint: %w", err)
		}
	}
	s, err := openSQL(sqliteDialect, path)
	if err != nil {
		return nil, err
	}
	// One connection so ":memory:" databases are shared across calls.
	s.db.SetMaxOpenConns(1)
	return s, nil
}

func openSQL(d dialect, dsn string) (*SQLStore, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("checkpoint: ping: %w", err)
	}
	return &SQLStore{db: db, dialect: d}, nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, s.dialect.schema)
	})
	return s.schemaErr
}

func (s *SQLStore) Load(ctx context.Context, repo string) (Checkpoint, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Checkpoint{Repo: repo}, err
	}
	var cp Checkpoint
	err := s.db.QueryRowContext(ctx, s.dialect.load, strings.TrimSpace(repo)).
		Scan(&cp.Repo, &cp.SHA, &cp.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Checkpoint{Repo: repo}, ErrNotFound
	}
	if err != nil {
		return Checkpoint{Repo: repo}, fmt.Errorf("checkpoint: load %s: %w", repo, err)
	}
	return cp, nil
}

func (s *SQLStore) Save(ctx context.Context, cp Checkpoint) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	cp = normalize(cp)
	if cp.Repo == "" {
		return errors.New("checkpoint: empty repo")
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.save, cp.Repo, cp.SHA, cp.UpdatedAt.UTC()); err != nil {
		return fmt.Errorf("checkpoint: save %s: %w", cp.Repo, err)
	}
	return nil
}

func (s *SQLStore) Close() error { return s.db.Close() }
