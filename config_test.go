package sqlcheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSchemaPath_DefaultsToSchemaSQLUnderRoot(t *testing.T) {
	t.Setenv(schemaEnvVar, "")
	path, err := ResolveSchemaPath("/project")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/project", "schema.sql"), path)
}

func TestResolveSchemaPath_EnvOverrideRelativeToRoot(t *testing.T) {
	t.Setenv(schemaEnvVar, "db/layout.sql")
	path, err := ResolveSchemaPath("/project")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/project", "db/layout.sql"), path)
}

func TestResolveSchemaPath_EnvOverrideAbsoluteIsUnchanged(t *testing.T) {
	t.Setenv(schemaEnvVar, "/etc/sqlcheck/schema.sql")
	path, err := ResolveSchemaPath("/project")
	require.NoError(t, err)
	assert.Equal(t, "/etc/sqlcheck/schema.sql", path)
}

func TestReadSchemaFile_MissingFileNamesThePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nope.sql")

	_, err := ReadSchemaFile(path)
	require.Error(t, err)
	var readErr *SchemaReadError
	require.ErrorAs(t, err, &readErr)
	assert.Equal(t, path, readErr.Path)
}

func TestReadSchemaFile_ReadsContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.sql")
	require.NoError(t, os.WriteFile(path, []byte("CREATE TABLE t (id int);"), 0o644))

	text, err := ReadSchemaFile(path)
	require.NoError(t, err)
	assert.Contains(t, text, "CREATE TABLE t")
}
