package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreyja-studio/sql-check/pkg/ast"
	"github.com/coreyja-studio/sql-check/pkg/catalog"
	"github.com/coreyja-studio/sql-check/pkg/sqltype"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Build(`
		CREATE TABLE users (
			id uuid PRIMARY KEY,
			name text NOT NULL,
			bio text
		);
		CREATE TABLE profiles (
			user_id uuid NOT NULL,
			bio text
		);
	`)
	require.NoError(t, err)
	return cat
}

func TestLookupQualified(t *testing.T) {
	cat := testCatalog(t)
	users, _ := cat.Table("users")

	s := New(nil)
	s.AddTable(TableFromCatalog(users, "u", false))

	col, errCode := s.LookupQualified("u", "name")
	require.Equal(t, LookupOK, errCode)
	assert.Equal(t, sqltype.Text, col.Type.Tag)
	assert.False(t, col.Nullable)
}

func TestLookupQualified_UnknownTable(t *testing.T) {
	s := New(nil)
	_, errCode := s.LookupQualified("missing", "name")
	assert.Equal(t, LookupUnknownTable, errCode)
}

func TestLookupUnqualified_Ambiguous(t *testing.T) {
	cat := testCatalog(t)
	users, _ := cat.Table("users")
	profiles, _ := cat.Table("profiles")

	s := New(nil)
	s.AddTable(TableFromCatalog(users, "u", false))
	s.AddTable(TableFromCatalog(profiles, "p", false))

	_, errCode := s.LookupUnqualified("bio")
	assert.Equal(t, LookupAmbiguousColumn, errCode)
}

func TestLookupUnqualified_FallsBackToParent(t *testing.T) {
	cat := testCatalog(t)
	users, _ := cat.Table("users")

	parent := New(nil)
	parent.AddTable(TableFromCatalog(users, "u", false))

	child := New(parent)
	col, errCode := child.LookupUnqualified("name")
	require.Equal(t, LookupOK, errCode)
	assert.Equal(t, "name", col.Name)
}

func TestJoinNullableForcesColumnsNullable(t *testing.T) {
	cat := testCatalog(t)
	profiles, _ := cat.Table("profiles")

	s := New(nil)
	s.AddTable(TableFromCatalog(profiles, "p", true))

	col, errCode := s.LookupQualified("p", "user_id")
	require.Equal(t, LookupOK, errCode)
	assert.True(t, col.Nullable, "user_id is NOT NULL in the catalog but outer-join-nullable here")
}

func TestJoinNullability(t *testing.T) {
	cases := []struct {
		jt                         ast.JoinType
		leftIn                     bool
		wantLeft, wantRight        bool
	}{
		{ast.JoinInner, false, false, false},
		{ast.JoinCross, true, true, false},
		{ast.JoinLeft, false, false, true},
		{ast.JoinRight, false, true, false},
		{ast.JoinFull, false, true, true},
	}
	for _, c := range cases {
		left, right := JoinNullability(c.jt, c.leftIn)
		assert.Equal(t, c.wantLeft, left)
		assert.Equal(t, c.wantRight, right)
	}
}
