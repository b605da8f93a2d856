// File path: internal/cache/cache.go
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/activitylens/lens/internal/common"
)

// Cache is the durable fingerprint -> summary map consulted before every
// summarization call. Entries never expire; an empty-string value means the
// content was deliberately skipped as too short to summarize.
//
// Get and Put each run a full load-mutate-store cycle against the backing
// file under a dedicated lock, because multiple summarization workers can
// race to populate the same fingerprint. Last writer wins; values for equal
// fingerprints converge to equivalent summaries.
type Cache struct {
	path string
	mu   sync.Mutex
}

func New(path string) (*Cache, error) {
	if path == "" {
		return nil, errors.New("cache path required")
	}
	return &Cache{path: path}, nil
}

// Get returns the cached summary for the text's fingerprint, if present.
func (c *Cache) Get(text string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := c.load()
	summary, ok := entries[Fingerprint(text)]
	return summary, ok
}

// Put stores the summary under the text's fingerprint.
func (c *Cache) Put(text, summary string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := c.load()
	entries[Fingerprint(text)] = summary
	return c.save(entries)
}

// Size returns the number of cached entries.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.load())
}

// load never fails the pipeline: an absent file yields an empty map and a
// malformed file is renamed aside as a backup first.
func (c *Cache) load() map[string]string {
	logger := common.Logger()
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("cache: could not read summary cache", "path", c.path, "error", err)
		}
		return map[string]string{}
	}
	entries := map[string]string{}
	if err := json.Unmarshal(data, &entries); err != nil {
		backup := c.path + ".backup"
		if renameErr := os.Rename(c.path, backup); renameErr != nil {
			logger.Warn("cache: could not back up corrupted summary cache", "error", renameErr)
		} else {
			logger.Warn("cache: corrupted summary cache backed up, starting fresh", "backup", backup, "error", err)
		}
		return map[string]string{}
	}
	return entries
}

func (c *Cache) save(entries map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary cache: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("write summary cache: %w", err)
	}
	return nil
}
