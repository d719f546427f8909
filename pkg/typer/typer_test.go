package typer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreyja-studio/sql-check/pkg/ast"
	"github.com/coreyja-studio/sql-check/pkg/catalog"
	"github.com/coreyja-studio/sql-check/pkg/scope"
	"github.com/coreyja-studio/sql-check/pkg/sqltype"
)

type noSubqueries struct{}

func (noSubqueries) ResolveSubquery(parent *scope.Scope, sel *ast.SelectStmt) (Info, error) {
	panic("not expected in this test")
}

func testScope(t *testing.T) *scope.Scope {
	t.Helper()
	cat, err := catalog.Build(`
		CREATE TABLE users (
			id uuid PRIMARY KEY,
			name text NOT NULL,
			bio text,
			age integer NOT NULL
		);
	`)
	require.NoError(t, err)
	users, _ := cat.Table("users")

	s := scope.New(nil)
	s.AddTable(scope.TableFromCatalog(users, "u", false))
	return s
}

func col(table, name string) *ast.ColumnRef { return &ast.ColumnRef{Table: table, Column: name} }

func TestType_Literal(t *testing.T) {
	ty := New(noSubqueries{})
	s := testScope(t)

	cases := []struct {
		lit  *ast.LiteralExpr
		want sqltype.Type
		null bool
	}{
		{&ast.LiteralExpr{Kind: ast.LitNull}, sqltype.Unknown, true},
		{&ast.LiteralExpr{Kind: ast.LitInteger, Value: "42"}, sqltype.Integer, false},
		{&ast.LiteralExpr{Kind: ast.LitNumeric, Value: "3.14"}, sqltype.Numeric, false},
		{&ast.LiteralExpr{Kind: ast.LitString, Value: "hi"}, sqltype.Text, false},
		{&ast.LiteralExpr{Kind: ast.LitBoolean, Value: "true"}, sqltype.Boolean, false},
	}
	for _, c := range cases {
		info, err := ty.Type(s, c.lit)
		require.NoError(t, err)
		assert.Equal(t, c.want, info.Type.Tag)
		assert.Equal(t, c.null, info.Nullable)
	}
}

func TestType_ColumnRef(t *testing.T) {
	ty := New(noSubqueries{})
	s := testScope(t)

	info, err := ty.Type(s, col("u", "bio"))
	require.NoError(t, err)
	assert.Equal(t, sqltype.Text, info.Type.Tag)
	assert.True(t, info.Nullable)

	info, err = ty.Type(s, col("u", "name"))
	require.NoError(t, err)
	assert.False(t, info.Nullable)
}

func TestType_ColumnRef_Unknown(t *testing.T) {
	ty := New(noSubqueries{})
	s := testScope(t)

	_, err := ty.Type(s, col("u", "nope"))
	require.Error(t, err)
	var uce *UnknownColumnError
	assert.ErrorAs(t, err, &uce)
}

func TestType_ArithmeticPromotesToHigherPrecision(t *testing.T) {
	ty := New(noSubqueries{})
	s := testScope(t)

	expr := &ast.BinaryExpr{
		Left:  col("u", "age"),                                    // integer
		Op:    ast.OpAdd,
		Right: &ast.LiteralExpr{Kind: ast.LitNumeric, Value: "1.5"}, // numeric
	}
	info, err := ty.Type(s, expr)
	require.NoError(t, err)
	assert.Equal(t, sqltype.Numeric, info.Type.Tag)
}

func TestType_CountStarIsNonNullBigint(t *testing.T) {
	ty := New(noSubqueries{})
	s := testScope(t)

	info, err := ty.Type(s, &ast.FunctionCall{Name: "count", Star: true})
	require.NoError(t, err)
	assert.Equal(t, sqltype.BigInt, info.Type.Tag)
	assert.False(t, info.Nullable)
	assert.True(t, info.IsAggregate)
}

func TestType_MinMaxIsNullableEvenOnNotNullColumn(t *testing.T) {
	ty := New(noSubqueries{})
	s := testScope(t)

	info, err := ty.Type(s, &ast.FunctionCall{Name: "max", Args: []ast.Expr{col("u", "age")}})
	require.NoError(t, err)
	assert.Equal(t, sqltype.Integer, info.Type.Tag)
	assert.True(t, info.Nullable)
}

func TestType_SumAvgAlwaysNumeric(t *testing.T) {
	ty := New(noSubqueries{})
	s := testScope(t)

	for _, name := range []string{"sum", "avg"} {
		info, err := ty.Type(s, &ast.FunctionCall{Name: name, Args: []ast.Expr{col("u", "age")}})
		require.NoError(t, err)
		assert.Equal(t, sqltype.Numeric, info.Type.Tag)
		assert.True(t, info.Nullable)
	}
}

func TestType_CoalesceStripsNullabilityIffNonNullableOperandExists(t *testing.T) {
	ty := New(noSubqueries{})
	s := testScope(t)

	info, err := ty.Type(s, &ast.CoalesceExpr{Args: []ast.Expr{
		col("u", "bio"),
		&ast.LiteralExpr{Kind: ast.LitString, Value: "n/a"},
	}})
	require.NoError(t, err)
	assert.Equal(t, sqltype.Text, info.Type.Tag)
	assert.False(t, info.Nullable)

	info, err = ty.Type(s, &ast.CoalesceExpr{Args: []ast.Expr{col("u", "bio")}})
	require.NoError(t, err)
	assert.True(t, info.Nullable)
}

func TestType_CoalesceTypeMismatch(t *testing.T) {
	ty := New(noSubqueries{})
	s := testScope(t)

	_, err := ty.Type(s, &ast.CoalesceExpr{Args: []ast.Expr{
		col("u", "name"),
		col("u", "age"),
	}})
	require.Error(t, err)
	var tme *TypeMismatchError
	assert.ErrorAs(t, err, &tme)
}

func TestType_CaseWithoutElseIsNullable(t *testing.T) {
	ty := New(noSubqueries{})
	s := testScope(t)

	info, err := ty.Type(s, &ast.CaseExpr{
		Whens: []ast.WhenClause{
			{Condition: &ast.LiteralExpr{Kind: ast.LitBoolean, Value: "true"}, Result: col("u", "name")},
		},
	})
	require.NoError(t, err)
	assert.True(t, info.Nullable)
}

func TestType_IsNullAlwaysNonNullable(t *testing.T) {
	ty := New(noSubqueries{})
	s := testScope(t)

	info, err := ty.Type(s, &ast.IsNullExpr{Left: col("u", "bio")})
	require.NoError(t, err)
	assert.False(t, info.Nullable)
}

func TestType_CastUsesTargetTypeKeepsNullability(t *testing.T) {
	ty := New(noSubqueries{})
	s := testScope(t)

	info, err := ty.Type(s, &ast.CastExpr{Expr: col("u", "age"), TypeName: "text"})
	require.NoError(t, err)
	assert.Equal(t, sqltype.Text, info.Type.Tag)
	assert.False(t, info.Nullable)
}
