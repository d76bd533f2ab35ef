// Package cache provides element set cache backends: a timestamped-JSON file
// cache for standalone runs and a Redis cache for deployments that share
// element sets between instances.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/signalsfoundry/leo-orbit-sim/core"
)

const filePattern = "elements_*.json"

// FileCache persists fleet element set snapshots as timestamped JSON files
// in a directory. The newest non-expired file wins; older files are pruned
// on every store.
type FileCache struct {
	dir  string
	ttl  time.Duration
	keep int
}

// NewFileCache builds a cache rooted at dir. Snapshots older than ttl are
// ignored; a zero ttl disables expiry. The directory is created on demand.
func NewFileCache(dir string, ttl time.Duration) *FileCache {
	return &FileCache{dir: dir, ttl: ttl, keep: 3}
}

// Load returns the newest usable snapshot, or core.ErrCacheMiss.
func (c *FileCache) Load(_ context.Context) (*core.CachedElements, error) {
	files, err := c.snapshotFiles()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, core.ErrCacheMiss
	}

	newest := files[len(files)-1]
	raw, err := os.ReadFile(newest)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", newest, err)
	}
	var elems core.CachedElements
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("decode %s: %w", newest, err)
	}
	if c.ttl > 0 && time.Since(elems.GeneratedAt) > c.ttl {
		return nil, core.ErrCacheMiss
	}
	return &elems, nil
}

// Store writes a new snapshot file and prunes old ones.
func (c *FileCache) Store(_ context.Context, elems *core.CachedElements) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	name := fmt.Sprintf("elements_%s.json", elems.GeneratedAt.UTC().Format("20060102_150405"))
	path := filepath.Join(c.dir, name)
	raw, err := json.MarshalIndent(elems, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	c.prune()
	return nil
}

// prune removes all but the newest keep snapshots. Best effort: a snapshot
// that cannot be removed is left behind.
func (c *FileCache) prune() {
	files, err := c.snapshotFiles()
	if err != nil || len(files) <= c.keep {
		return
	}
	for _, path := range files[:len(files)-c.keep] {
		os.Remove(path)
	}
}

// snapshotFiles lists snapshot paths sorted oldest first. The timestamped
// naming makes lexical order chronological.
func (c *FileCache) snapshotFiles() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(c.dir, filePattern))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
