// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"fmt"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of records kept by NewCache when size <= 0.
const DefaultCacheSize = 256

type (
	// Source produces the Record for a file.
	Source interface {
		Extract(path string) (*Record, error)
	}

	// Cache memoizes a Source. Entries are keyed by path, modification time
	// and size, so an edited file is parsed again. Cached records are shared
	// between callers and must be treated as read-only.
	Cache struct {
		src     Source
		records *lru.Cache[cacheKey, *Record]
	}

	cacheKey struct {
		path    string
		modTime int64
		size    int64
	}
)

// NewCache wraps src with a bounded LRU cache.
func NewCache(src Source, size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	records, err := lru.New[cacheKey, *Record](size)
	if err != nil {
		return nil, fmt.Errorf("create manifest cache: %w", err)
	}
	return &Cache{src: src, records: records}, nil
}

// Extract returns the cached record for path or extracts and caches it.
func (c *Cache) Extract(path string) (*Record, error) {
	info, err := os.Stat(path)
	if err != nil {
		return c.src.Extract(path)
	}

	key := cacheKey{path: path, modTime: info.ModTime().UnixNano(), size: info.Size()}
	if rec, ok := c.records.Get(key); ok {
		return rec, nil
	}

	rec, err := c.src.Extract(path)
	if err != nil {
		return nil, err
	}
	c.records.Add(key, rec)
	return rec, nil
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	return c.records.Len()
}
