package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/xxh3"
)

// CacheOptions configures the reply cache.
type CacheOptions struct {
	// Size is the number of replies kept in process; <= 0 disables the LRU.
	Size int
	// Dir keeps one file per reply so later processes (each run spawned by
	// the watcher) reuse replies for prompts that did not change. Empty
	// disables the on-disk tier.
	Dir string
	// Accept decides whether a reply may be stored or served. Nil accepts
	// every successful reply.
	Accept func(phase string, raw json.RawMessage) bool
}

// Cache memoizes replies keyed by an xxh3 hash of (phase, prompt, input).
// Lookups try the LRU first, then Dir. Errors and rejected replies are never
// stored.
func Cache(opts CacheOptions) Middleware {
	return func(next LLMClient) LLMClient {
		c := &cached{next: next, dir: opts.Dir, accept: opts.Accept}
		if opts.Size > 0 {
			if l, err := lru.New[uint64, json.RawMessage](opts.Size); err == nil {
				c.lru = l
			}
		}
		if c.lru == nil && c.dir == "" {
			return next
		}
		return c
	}
}

type cached struct {
	next   LLMClient
	lru    *lru.Cache[uint64, json.RawMessage]
	dir    string
	accept func(phase string, raw json.RawMessage) bool
}

func (c *cached) Name() string { return c.next.Name() }
func (c *cached) Close() error {
	if c.lru != nil {
		c.lru.Purge()
	}
	return c.next.Close()
}

func (c *cached) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	phase := PhaseFrom(ctx)
	key := cacheKey(phase, prompt, input)
	if raw, ok := c.lookup(phase, key); ok {
		return raw, nil
	}
	raw, err := c.next.GenerateJSON(ctx, prompt, input)
	if err != nil {
		return nil, err
	}
	if c.ok(phase, raw) {
		c.store(phase, key, raw)
	}
	return raw, nil
}

func (c *cached) ok(phase string, raw json.RawMessage) bool {
	return c.accept == nil || c.accept(phase, raw)
}

func (c *cached) lookup(phase string, key uint64) (json.RawMessage, bool) {
	if c.lru != nil {
		if raw, ok := c.lru.Get(key); ok {
			return raw, true
		}
	}
	if c.dir == "" {
		return nil, false
	}
	b, err := os.ReadFile(c.path(phase, key))
	if err != nil {
		return nil, false
	}
	raw := json.RawMessage(b)
	if !c.ok(phase, raw) {
		return nil, false
	}
	if c.lru != nil {
		c.lru.Add(key, raw)
	}
	return raw, true
}

func (c *cached) store(phase string, key uint64, raw json.RawMessage) {
	if c.lru != nil {
		c.lru.Add(key, raw)
	}
	if c.dir == "" {
		return
	}
	p := c.path(phase, key)
	if err := writeAtomic(p, raw); err != nil {
		log.Printf("[llm] warn: cache write %s: %v", p, err)
	}
}

func (c *cached) path(phase string, key uint64) string {
	if phase == "" {
		phase = "default"
	}
	return filepath.Join(c.dir, phase, fmt.Sprintf("%016x.json", key))
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".reply-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func cacheKey(phase, prompt string, input any) uint64 {
	h := xxh3.New()
	_, _ = h.WriteString(phase)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(prompt)
	if input != nil {
		b, _ := json.Marshal(input)
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(strconv.Itoa(len(b)))
		_, _ = h.Write(b)
	}
	return h.Sum64()
}
