// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

// Package imagecache caches fetched images in memory and on disk, keyed by
// the exact request URL string.
package imagecache

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// defaultMaxMemory bounds the memory tier. The disk tier has no bound and
// grows until external cleanup.
const defaultMaxMemory = 32 << 20

// NewCache returns a cache persisting to dir, creating it if needed.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("imagecache: creating cache directory: %w", err)
	}
	return &Cache{
		dir:       dir,
		maxMemory: defaultMaxMemory,
		entries:   map[string][]byte{},
	}, nil
}

// Cache is a two-tier image cache. Lookups check a bounded in-memory table
// first, then the disk directory; disk hits are promoted back into memory.
// Writes hit memory synchronously and disk asynchronously, best effort.
// Safe for concurrent use. Returned byte slices must be treated as
// read-only.
type Cache struct {
	dir       string
	maxMemory int

	mu      sync.Mutex
	entries map[string][]byte
	order   []string
	size    int

	pending sync.WaitGroup
}

// Get returns the cached image for key, reporting whether it was found.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	data, ok := c.entries[key]
	c.mu.Unlock()
	if ok {
		return data, true
	}

	data, err := os.ReadFile(filepath.Join(c.dir, fileName(key)))
	if err != nil {
		return nil, false
	}
	// Promote so repeated lookups in this process no longer touch disk.
	c.store(key, data)
	return data, true
}

// Set caches the image for key. The memory table is updated before Set
// returns, so an immediately following Get hits memory; the disk write
// happens in the background and its failure is logged, not surfaced, since
// memory stays authoritative for the process lifetime.
func (c *Cache) Set(key string, data []byte) {
	c.store(key, data)

	path := filepath.Join(c.dir, fileName(key))
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		if err := os.WriteFile(path, data, 0o644); err != nil {
			slog.Warn("imagecache: best-effort disk write failed", "key", key, "error", err)
		}
	}()
}

// Sync waits for outstanding disk writes. Persistence stays best effort;
// Sync only makes the background writes observable, e.g. before shutdown.
func (c *Cache) Sync() {
	c.pending.Wait()
}

func (c *Cache) store(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.entries[key]; ok {
		c.size -= len(old)
		c.order = slices.DeleteFunc(c.order, func(k string) bool { return k == key })
	}
	c.entries[key] = data
	c.order = append(c.order, key)
	c.size += len(data)

	// Evict oldest entries once over budget, keeping the newest insert.
	for c.size > c.maxMemory && len(c.order) > 1 {
		oldest := c.order[0]
		c.order = c.order[1:]
		if oldest == key {
			c.order = append(c.order, oldest)
			continue
		}
		if old, ok := c.entries[oldest]; ok {
			c.size -= len(old)
			delete(c.entries, oldest)
		}
	}
}

// fileName maps a cache key to a filesystem-safe name. Percent-style query
// escaping is injective over all URL characters, so distinct keys never
// collide on disk.
func fileName(key string) string {
	return url.QueryEscape(key)
}
