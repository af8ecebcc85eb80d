// Package cache provides the persistent download cache: a seen-set of source
// keys plus a content-hash index used to deduplicate files across runs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// state is the on-disk document. The field names and shape are shared with
// caches written by earlier runs and must not change: unknown fields are
// ignored on load, missing fields are treated as empty.
type state struct {
	URLs   []string          `json:"urls"`
	Hashes map[string]string `json:"hashes"`
}

// Cache records which source keys have been processed and which content
// hashes already exist in the corpus. All methods are safe for concurrent
// use; a single mutex guards both tables.
type Cache struct {
	mu sync.Mutex
	// persistMu serializes snapshot-to-disk writes; concurrent checkpoints
	// from the worker pool must not interleave on the backing file.
	persistMu sync.Mutex
	path      string
	urls      map[string]struct{}
	// order preserves first-seen insertion order for the persisted list
	order  []string
	hashes map[string]string
}

// HashError reports a failure to hash a candidate file. It is the only error
// the cache surfaces; cache state is never mutated when it occurs.
type HashError struct {
	Path  string
	Cause error
}

func (e *HashError) Error() string {
	return fmt.Sprintf("hash error for %s: %v", e.Path, e.Cause)
}

func (e *HashError) Unwrap() error {
	return e.Cause
}

// Load reads the cache document at path. A missing or unparseable file
// yields an empty but functional cache; Load never fails the run.
func Load(path string) *Cache {
	c := &Cache{
		path:   path,
		urls:   make(map[string]struct{}),
		hashes: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}

	var s state
	if err := json.Unmarshal(data, &s); err != nil {
		return c
	}

	for _, u := range s.URLs {
		if _, ok := c.urls[u]; !ok {
			c.urls[u] = struct{}{}
			c.order = append(c.order, u)
		}
	}
	if s.Hashes != nil {
		c.hashes = s.Hashes
	}

	return c
}

// HasSeen reports whether key was previously marked.
func (c *Cache) HasSeen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.urls[key]
	return ok
}

// MarkSeen records key. Marking an already-seen key is a no-op; keys are
// never removed within a run.
func (c *Cache) MarkSeen(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.urls[key]; ok {
		return
	}
	c.urls[key] = struct{}{}
	c.order = append(c.order, key)
}

// IsDuplicateContent hashes the full file at path with SHA-256 and reports
// whether identical content was already indexed. The first path observed for
// a digest keeps the index entry; a duplicate hit does not update it.
func (c *Cache) IsDuplicateContent(path string) (bool, error) {
	digest, err := hashFile(path)
	if err != nil {
		return false, &HashError{Path: path, Cause: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.hashes[digest]; ok {
		return true, nil
	}
	c.hashes[digest] = path
	return false, nil
}

// Len returns the number of seen keys and indexed hashes.
func (c *Cache) Len() (keys, hashes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order), len(c.hashes)
}

// Persist writes the cache document to its backing file. The write goes to
// a temp file first and is renamed into place, so a reader never observes a
// torn document. Persistence is best-effort at call sites: an unwritable
// cache must not abort a run.
func (c *Cache) Persist() error {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	s := state{
		URLs:   append([]string(nil), c.order...),
		Hashes: make(map[string]string, len(c.hashes)),
	}
	for k, v := range c.hashes {
		s.Hashes[k] = v
	}
	c.mu.Unlock()

	if s.URLs == nil {
		s.URLs = []string{}
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
