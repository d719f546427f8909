package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreyja-studio/sql-check/pkg/catalog"
	"github.com/coreyja-studio/sql-check/pkg/sqlparse"
	"github.com/coreyja-studio/sql-check/pkg/sqltype"
)

const testSchema = `
CREATE TABLE users (
	id uuid PRIMARY KEY,
	name text NOT NULL,
	email text NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE profiles (
	user_id uuid NOT NULL,
	bio text,
	PRIMARY KEY (user_id)
);
`

func mustAnalyze(t *testing.T, query string, declaredParams int) (*ResultDescriptor, error) {
	t.Helper()
	cat, err := catalog.Build(testSchema)
	require.NoError(t, err)
	stmt, err := sqlparse.ParseQuery(query)
	require.NoError(t, err)
	return New(cat).Analyze(stmt, declaredParams)
}

func TestAnalyze_SimpleProjection(t *testing.T) {
	desc, err := mustAnalyze(t, "SELECT id, name FROM users", 0)
	require.NoError(t, err)
	require.Len(t, desc.Fields, 2)
	assert.Equal(t, Field{Name: "id", SQLType: sqltype.Of(sqltype.Uuid), Nullable: false}, desc.Fields[0])
	assert.Equal(t, Field{Name: "name", SQLType: sqltype.Of(sqltype.Text), Nullable: false}, desc.Fields[1])
}

func TestAnalyze_LeftJoinForcesNullable(t *testing.T) {
	desc, err := mustAnalyze(t,
		"SELECT u.name, p.bio FROM users u LEFT JOIN profiles p ON p.user_id = u.id", 0)
	require.NoError(t, err)
	require.Len(t, desc.Fields, 2)
	assert.Equal(t, Field{Name: "name", SQLType: sqltype.Of(sqltype.Text), Nullable: false}, desc.Fields[0])
	assert.Equal(t, Field{Name: "bio", SQLType: sqltype.Of(sqltype.Text), Nullable: true}, desc.Fields[1])
}

func TestAnalyze_CountStarIsNonNullBigintWithSynthesizedName(t *testing.T) {
	desc, err := mustAnalyze(t, "SELECT COUNT(*) FROM users", 0)
	require.NoError(t, err)
	require.Len(t, desc.Fields, 1)
	assert.Equal(t, "column_1", desc.Fields[0].Name)
	assert.Equal(t, sqltype.Of(sqltype.BigInt), desc.Fields[0].SQLType)
	assert.False(t, desc.Fields[0].Nullable)
}

func TestAnalyze_InsertWithReturning(t *testing.T) {
	desc, err := mustAnalyze(t,
		"INSERT INTO users (id, name, email) VALUES ($1, $2, $3) RETURNING id, created_at", 3)
	require.NoError(t, err)
	require.Len(t, desc.Fields, 2)
	assert.Equal(t, Field{Name: "id", SQLType: sqltype.Of(sqltype.Uuid), Nullable: false}, desc.Fields[0])
	assert.Equal(t, Field{Name: "created_at", SQLType: sqltype.Of(sqltype.Timestamptz), Nullable: false}, desc.Fields[1])
}

func TestAnalyze_InsertOmittingNotNullNoDefaultColumnFails(t *testing.T) {
	_, err := mustAnalyze(t, "INSERT INTO users (id, email) VALUES ($1, $2)", 2)
	require.Error(t, err)
	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, ErrInvalidInsert, ae.Type)
}

func TestAnalyze_UnknownColumn(t *testing.T) {
	_, err := mustAnalyze(t, "SELECT fake_col FROM users", 0)
	require.Error(t, err)
	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, ErrUnknownColumn, ae.Type)
	assert.Equal(t, "fake_col", ae.ColumnRef)
	assert.Equal(t, "users", ae.Table)
}

func TestAnalyze_UnknownTable(t *testing.T) {
	_, err := mustAnalyze(t, "SELECT * FROM nonexistent", 0)
	require.Error(t, err)
	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, ErrUnknownTable, ae.Type)
	assert.Equal(t, "nonexistent", ae.Table)
}

func TestAnalyze_ParameterArityMismatch(t *testing.T) {
	_, err := mustAnalyze(t, "SELECT * FROM users WHERE id = $1", 0)
	require.Error(t, err)
	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, ErrParameterArityMismatch, ae.Type)
	assert.Equal(t, 1, ae.ExpectedParams)
	assert.Equal(t, 0, ae.GotParams)
}

func TestAnalyze_CTEBindingOrder(t *testing.T) {
	desc, err := mustAnalyze(t,
		"WITH active AS (SELECT id, name FROM users WHERE id = $1) SELECT name FROM active", 1)
	require.NoError(t, err)
	require.Len(t, desc.Fields, 1)
	assert.Equal(t, Field{Name: "name", SQLType: sqltype.Of(sqltype.Text), Nullable: false}, desc.Fields[0])
}

func TestAnalyze_CoalesceStripsNullability(t *testing.T) {
	desc, err := mustAnalyze(t, "SELECT COALESCE(bio, 'n/a') AS bio FROM profiles", 0)
	require.NoError(t, err)
	require.Len(t, desc.Fields, 1)
	assert.Equal(t, Field{Name: "bio", SQLType: sqltype.Of(sqltype.Text), Nullable: false}, desc.Fields[0])
}

func TestAnalyze_Idempotent(t *testing.T) {
	const q = "SELECT u.name, p.bio FROM users u LEFT JOIN profiles p ON p.user_id = u.id"
	first, err := mustAnalyze(t, q, 0)
	require.NoError(t, err)
	second, err := mustAnalyze(t, q, 0)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAnalyze_StarExpansionInFromOrder(t *testing.T) {
	desc, err := mustAnalyze(t, "SELECT * FROM profiles", 0)
	require.NoError(t, err)
	require.Len(t, desc.Fields, 2)
	assert.Equal(t, "user_id", desc.Fields[0].Name)
	assert.Equal(t, "bio", desc.Fields[1].Name)
}

func TestAnalyze_ThreeWayJoinKeepsMiddleTable(t *testing.T) {
	desc, err := mustAnalyze(t, `
		SELECT u.id, p.bio, u2.id
		FROM users u
		JOIN profiles p ON p.user_id = u.id
		JOIN users u2 ON u2.id = p.user_id
	`, 0)
	require.NoError(t, err)
	require.Len(t, desc.Fields, 3)
}
