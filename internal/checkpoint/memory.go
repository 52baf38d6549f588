package checkpoint

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Memory keeps checkpoints for the life of the process only; a restart
// starts from scratch and re-baselines.
type Memory struct {
	mu     sync.RWMutex
	byRepo map[string]Checkpoint
}

func NewMemory() *Memory {
	return &Memory{byRepo: make(map[string]Checkpoint)}
}

func (m *Memory) Load(_ context.Context, repo string) (Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp, ok := m.byRepo[strings.TrimSpace(repo)]
	if !ok {
		return Checkpoint{Repo: repo}, ErrNotFound
	}
	return cp, nil
}

func (m *Memory) Save(_ context.Context, cp Checkpoint) error {
	cp = normalize(cp)
	if cp.Repo == "" {
		return errors.New("checkpoint: empty repo")
	}
	m.mu.Lock()
	m.byRepo[cp.Repo] = cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
