package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreyja-studio/sql-check/pkg/sqltype"
)

const testSchema = `
CREATE TABLE users (
	id uuid PRIMARY KEY,
	name text NOT NULL,
	bio text,
	age integer NOT NULL DEFAULT 0,
	created_at timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX idx_users_name ON users (name);

CREATE TABLE profiles (
	user_id uuid NOT NULL,
	tags text[],
	score numeric(10,2),
	PRIMARY KEY (user_id)
);
`

func TestBuild_ParsesTables(t *testing.T) {
	cat, err := Build(testSchema)
	require.NoError(t, err)

	users, ok := cat.Table("users")
	require.True(t, ok)
	assert.Len(t, users.Columns, 5)

	id, ok := users.Column("id")
	require.True(t, ok)
	assert.Equal(t, sqltype.Uuid, id.Type.Tag)
	assert.True(t, id.PrimaryKey)
	assert.False(t, id.Nullable)

	bio, ok := users.Column("bio")
	require.True(t, ok)
	assert.True(t, bio.Nullable)

	name, ok := users.Column("name")
	require.True(t, ok)
	assert.False(t, name.Nullable)

	age, ok := users.Column("age")
	require.True(t, ok)
	assert.True(t, age.HasDefault)
}

func TestBuild_IgnoresNonTableStatements(t *testing.T) {
	cat, err := Build(testSchema)
	require.NoError(t, err)
	assert.Len(t, cat.Tables(), 2)
}

func TestBuild_TableLevelPrimaryKeyMarksNotNull(t *testing.T) {
	cat, err := Build(testSchema)
	require.NoError(t, err)

	profiles, ok := cat.Table("profiles")
	require.True(t, ok)

	userID, ok := profiles.Column("user_id")
	require.True(t, ok)
	assert.True(t, userID.PrimaryKey)
	assert.False(t, userID.Nullable)

	tags, ok := profiles.Column("tags")
	require.True(t, ok)
	assert.True(t, tags.Type.IsArray())
	assert.Equal(t, sqltype.Text, tags.Type.Elem)
	assert.True(t, tags.Nullable)
}

func TestBuild_TableLookupIsCaseInsensitive(t *testing.T) {
	cat, err := Build(testSchema)
	require.NoError(t, err)

	_, ok := cat.Table("USERS")
	assert.True(t, ok)
	_, ok = cat.Table("Users")
	assert.True(t, ok)
}

func TestBuild_DuplicateTableIsAnError(t *testing.T) {
	_, err := Build(`
		CREATE TABLE users (id uuid PRIMARY KEY);
		CREATE TABLE users (id uuid PRIMARY KEY);
	`)
	require.Error(t, err)
	var spe *SchemaParseError
	require.ErrorAs(t, err, &spe)
}

func TestBuild_IfNotExistsToleratesRedefinition(t *testing.T) {
	_, err := Build(`
		CREATE TABLE users (id uuid PRIMARY KEY);
		CREATE TABLE IF NOT EXISTS users (id uuid PRIMARY KEY);
	`)
	require.NoError(t, err)
}

func TestBuild_MalformedDDLIsSchemaParseError(t *testing.T) {
	_, err := Build(`CREATE TABLE users (id uuid NOT NULL PRIMARY KEY NOT A VALID CLAUSE HERE `)
	require.Error(t, err)
	var spe *SchemaParseError
	require.ErrorAs(t, err, &spe)
}

func TestBuild_OverflowingNumericDefaultIsAnError(t *testing.T) {
	_, err := Build(`CREATE TABLE widgets (price numeric DEFAULT 1e400000)`)
	require.Error(t, err)
	var spe *SchemaParseError
	require.ErrorAs(t, err, &spe)
}
