// Package cache persists source→translated text pairs beside the executable
// so the same string is never translated twice, within a run or across runs.
package cache

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/Rangesa/Game-Translator/internal/config"
	"github.com/Rangesa/Game-Translator/internal/errors"
)

// FileName is the cache file kept in the executable's directory.
const FileName = "translation_cache.json"

// Cache is a string-to-string translation store. Lookups and inserts are
// safe for concurrent use; Save writes the whole map back when anything was
// added since the last save.
type Cache struct {
	mu      sync.RWMutex
	path    string
	entries map[string]string
	dirty   bool
}

// Open loads the cache file at the standard location. A missing or corrupt
// file yields an empty cache, never an error.
func Open() *Cache {
	return OpenPath(filepath.Join(config.Dir(), FileName))
}

// OpenPath loads a cache from an explicit file path.
func OpenPath(path string) *Cache {
	c := &Cache{path: path, entries: make(map[string]string)}
	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		slog.Warn("translation cache unreadable, starting empty", "path", path, "error", err)
		c.entries = make(map[string]string)
		return c
	}
	return c
}

// Contains reports whether text already has a translation. Keys are exact:
// case- and whitespace-sensitive.
func (c *Cache) Contains(text string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[text]
	return ok
}

// Get returns the cached translation for text.
func (c *Cache) Get(text string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[text]
	return v, ok
}

// Insert records a translation and marks the cache dirty.
func (c *Cache) Insert(text, translation string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[text] = translation
	c.dirty = true
}

// Len returns the number of cached pairs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Save writes the cache to disk if any entry was added since the last save.
// Cache-hit-only cycles skip the write entirely.
func (c *Cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}
	data, err := json.Marshal(c.entries)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "encode cache")
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "write cache")
	}
	c.dirty = false
	return nil
}
