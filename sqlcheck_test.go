package sqlcheck

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreyja-studio/sql-check/pkg/analyzer"
)

const testSchema = `
CREATE TABLE users (
	id uuid PRIMARY KEY,
	name text NOT NULL,
	bio text
);
`

func TestAnalyze_ValidQueryProducesTaggedDescriptor(t *testing.T) {
	desc, err := Analyze(testSchema, "SELECT id, name, bio FROM users", 0)
	require.NoError(t, err)
	require.Len(t, desc.Fields, 3)
	assert.Equal(t, Field{Name: "id", SQLTypeTag: "uuid", Nullable: false}, desc.Fields[0])
	assert.Equal(t, Field{Name: "name", SQLTypeTag: "text", Nullable: false}, desc.Fields[1])
	assert.Equal(t, Field{Name: "bio", SQLTypeTag: "text", Nullable: true}, desc.Fields[2])
}

func TestAnalyze_MalformedSchemaIsSchemaParseError(t *testing.T) {
	_, err := Analyze("CREATE TABLE (( broken", "SELECT 1", 0)
	require.Error(t, err)
	var ae *analyzer.AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, analyzer.ErrSchemaParse, ae.Type)
}

func TestAnalyze_MalformedQueryIsQueryParseError(t *testing.T) {
	_, err := Analyze(testSchema, "SELEC id FROM users", 0)
	require.Error(t, err)
	var ae *analyzer.AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, analyzer.ErrQueryParse, ae.Type)
}

func TestAnalyze_UnsupportedConstructNamesIt(t *testing.T) {
	_, err := Analyze(testSchema, "SELECT id FROM users UNION SELECT id FROM users", 0)
	require.Error(t, err)
	var ae *analyzer.AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, analyzer.ErrUnsupportedConstruct, ae.Type)
	assert.NotEmpty(t, ae.Construct)
}

func TestAnalyzeFile_ResolvesSchemaFromEnvAndCaches(t *testing.T) {
	dir := t.TempDir()
	schemaPath := dir + "/schema.sql"
	require.NoError(t, os.WriteFile(schemaPath, []byte(testSchema), 0o644))
	t.Setenv(schemaEnvVar, "schema.sql")

	desc, err := AnalyzeFile(dir, "SELECT id FROM users", 0)
	require.NoError(t, err)
	require.Len(t, desc.Fields, 1)
	assert.Equal(t, "uuid", desc.Fields[0].SQLTypeTag)

	_, cached := globalCatalogCache.get(catalogCacheKeyFor(t, schemaPath))
	assert.True(t, cached, "AnalyzeFile should memoize the parsed Catalog")
}
