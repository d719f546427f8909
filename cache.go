package sqlcheck

import (
	"os"
	"sync"

	"github.com/coreyja-studio/sql-check/pkg/catalog"
)

// catalogCacheKey is the memoization key: a schema file is assumed
// unchanged as long as its path, modification time, and size are
// unchanged. This is a performance optimization, never a correctness
// mechanism — any cache miss rebuilds the Catalog from scratch.
type catalogCacheKey struct {
	path    string
	modTime int64
	size    int64
}

// catalogCache memoizes Build results across repeated AnalyzeFile calls
// within one build-time process: a single package-level cache guarded by a
// mutex, holding just parsed values to avoid recomputing. Entries are never
// evicted; a changed file is stored under a new key.
type catalogCache struct {
	mu      sync.RWMutex
	entries map[catalogCacheKey]*catalog.Catalog
}

var globalCatalogCache = &catalogCache{entries: map[catalogCacheKey]*catalog.Catalog{}}

func (c *catalogCache) get(key catalogCacheKey) (*catalog.Catalog, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cat, ok := c.entries[key]
	return cat, ok
}

func (c *catalogCache) put(key catalogCacheKey, cat *catalog.Catalog) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cat
}

// loadCatalog reads and builds the Catalog at path, serving a memoized
// result when the file's (path, mtime, size) key hasn't changed since the
// last build.
func loadCatalog(path string) (*catalog.Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &SchemaReadError{Path: path, Cause: err}
	}
	key := catalogCacheKey{path: path, modTime: info.ModTime().UnixNano(), size: info.Size()}

	if cat, ok := globalCatalogCache.get(key); ok {
		return cat, nil
	}

	schemaText, err := ReadSchemaFile(path)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Build(schemaText)
	if err != nil {
		return nil, err
	}
	globalCatalogCache.put(key, cat)
	return cat, nil
}
