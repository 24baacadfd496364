// Package cache provides file-based caching for repository analysis
// results. Entries are keyed by repository path and validated against
// the HEAD commit hash, so a cache hit is only served for an unchanged
// repository.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
)

// Cache stores analysis results on disk.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

// Entry is a single cached result.
type Entry struct {
	Head      string    `json:"head"`
	Timestamp time.Time `json:"timestamp"`
	Data      []byte    `json:"data"`
}

// New creates a cache rooted at dir. A disabled cache is a no-op on
// every operation.
func New(dir string, ttlHours int, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return &Cache{
		dir:     dir,
		ttl:     time.Duration(ttlHours) * time.Hour,
		enabled: true,
	}, nil
}

// HashBytes computes a BLAKE3 hash of bytes and returns it as a hex string.
func HashBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Get returns the cached data for repoPath if the entry exists, was
// produced at the same HEAD commit, and has not expired.
func (c *Cache) Get(repoPath, head string) ([]byte, bool) {
	if !c.enabled {
		return nil, false
	}

	data, err := os.ReadFile(c.keyPath(repoPath))
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}

	if entry.Head != head {
		return nil, false
	}

	if time.Since(entry.Timestamp) > c.ttl {
		os.Remove(c.keyPath(repoPath))
		return nil, false
	}

	return entry.Data, true
}

// Set stores data for repoPath at the given HEAD commit.
func (c *Cache) Set(repoPath, head string, data []byte) error {
	if !c.enabled {
		return nil
	}

	entry := Entry{
		Head:      head,
		Timestamp: time.Now(),
		Data:      data,
	}

	entryData, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return os.WriteFile(c.keyPath(repoPath), entryData, 0600)
}

// Invalidate removes the entry for repoPath.
func (c *Cache) Invalidate(repoPath string) error {
	if !c.enabled {
		return nil
	}
	return os.Remove(c.keyPath(repoPath))
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	return os.RemoveAll(c.dir)
}

// keyPath hashes the repository path so keys never escape the cache dir.
func (c *Cache) keyPath(repoPath string) string {
	hash := blake3.Sum256([]byte(repoPath))
	return filepath.Join(c.dir, hex.EncodeToString(hash[:])+".json")
}
