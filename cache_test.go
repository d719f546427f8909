package sqlcheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalog_CachesByPathModTimeAndSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.sql")
	require.NoError(t, os.WriteFile(path, []byte("CREATE TABLE t (id integer);"), 0o644))

	first, err := loadCatalog(path)
	require.NoError(t, err)

	_, ok := globalCatalogCache.get(catalogCacheKeyFor(t, path))
	require.True(t, ok)

	second, err := loadCatalog(path)
	require.NoError(t, err)
	assert.Same(t, first, second, "unchanged file should serve the memoized Catalog")
}

func TestLoadCatalog_InvalidatesOnContentChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.sql")
	require.NoError(t, os.WriteFile(path, []byte("CREATE TABLE t (id integer);"), 0o644))

	first, err := loadCatalog(path)
	require.NoError(t, err)
	_, ok := first.Table("t")
	require.True(t, ok)

	// A size change is always enough to change the cache key even on
	// filesystems with coarse modification-time resolution.
	require.NoError(t, os.WriteFile(path, []byte("CREATE TABLE t2 (id integer, extra text);"), 0o644))

	second, err := loadCatalog(path)
	require.NoError(t, err)
	_, ok = second.Table("t2")
	require.True(t, ok)
}

func TestLoadCatalog_MissingFileIsSchemaReadError(t *testing.T) {
	dir := t.TempDir()
	_, err := loadCatalog(filepath.Join(dir, "missing.sql"))
	require.Error(t, err)
	var readErr *SchemaReadError
	require.ErrorAs(t, err, &readErr)
}

func catalogCacheKeyFor(t *testing.T, path string) catalogCacheKey {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return catalogCacheKey{path: path, modTime: info.ModTime().UnixNano(), size: info.Size()}
}
