// Package archive uploads run artifacts (summaries, spreadsheets) to an
// S3-compatible object store.
package archive

import (
	"context"
	"errors"
	"mime"
	"path"
	"strings"
	"time"
)

var ErrNotFound = errors.New("archive: object not found")

// Store persists artifacts grouped by run.
type Store interface {
	Put(ctx context.Context, runID, path string, content []byte) error
	Get(ctx context.Context, runID, path string) ([]byte, error)
	List(ctx context.Context, runID string) ([]string, error)
}

// NewRunID names a run after its start time.
func NewRunID(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

func contentType(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".json":
		return "application/json"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func objectKey(prefix, runID, p string) string {
	normalized := strings.TrimLeft(strings.TrimSpace(p), "/")
	key := strings.TrimSpace(runID) + "/" + normalized
	if prefix = strings.Trim(strings.TrimSpace(prefix), "/"); prefix != "" {
		key = prefix + "/" + key
	}
	return key
}

func validate(runID, p string) error {
	if strings.TrimSpace(runID) == "" {
		return errors.New("archive: run_id is required")
	}
	if strings.TrimSpace(p) == "" {
		return errors.New("archive: path is required")
	}
	return nil
}
