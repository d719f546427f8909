// Package catalog parses a PostgreSQL DDL file into an in-memory Catalog of
// tables and columns that the rest of the analysis pipeline resolves names
// against. Building the catalog never touches a live database connection.
package catalog

import (
	"fmt"
	"strings"

	"github.com/coreyja-studio/sql-check/pkg/ast"
	"github.com/coreyja-studio/sql-check/pkg/sqltype"
)

// Column describes one column of a table as declared in the DDL.
type Column struct {
	Name       string
	Type       sqltype.Value
	Nullable   bool
	PrimaryKey bool
	HasDefault bool // omission from an INSERT column list is legal iff Nullable || HasDefault
}

// Table describes one CREATE TABLE as declared in the DDL.
type Table struct {
	Name    string
	Columns []Column
}

// Column returns the named column, case-insensitively, or false if the
// table has no such column.
func (t *Table) Column(name string) (*Column, bool) {
	upper := strings.ToUpper(name)
	for i := range t.Columns {
		if strings.ToUpper(t.Columns[i].Name) == upper {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// Catalog is the parsed schema: every table known to exist by the time the
// host program's queries are analyzed. A Catalog is built once and never
// mutated after Build returns, so lookups are a plain read of an immutable
// map rather than needing a guarding mutex.
type Catalog struct {
	tables map[string]*Table
}

// Table returns the named table, case-insensitively.
func (c *Catalog) Table(name string) (*Table, bool) {
	t, ok := c.tables[strings.ToUpper(name)]
	return t, ok
}

// Tables returns every table in the catalog, in no particular order.
func (c *Catalog) Tables() []*Table {
	out := make([]*Table, 0, len(c.tables))
	for _, t := range c.tables {
		out = append(out, t)
	}
	return out
}

// SchemaParseError reports that the DDL file itself could not be parsed
// into a Catalog.
type SchemaParseError struct {
	Statement string
	Cause     error
}

func (e *SchemaParseError) Error() string {
	return fmt.Sprintf("schema parse error in statement %q: %v", near(e.Statement), e.Cause)
}

func (e *SchemaParseError) Unwrap() error { return e.Cause }

func normalizeTableName(name string) string { return strings.ToUpper(name) }

func near(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		s = s[:60] + "..."
	}
	return s
}

func newTableFromDDL(ct *ast.CreateTableStmt) (*Table, error) {
	t := &Table{Name: ct.Name}

	pkCols := make(map[string]bool)
	for _, tc := range ct.Constraints {
		if tc.Kind == ast.ConstraintPrimaryKey {
			for _, col := range tc.Columns {
				pkCols[strings.ToUpper(col)] = true
			}
		}
	}

	for _, cd := range ct.Columns {
		col := Column{
			Name: cd.Name,
			Type: sqltype.FromDDLName(cd.TypeName),
		}

		notNull := false
		inlinePK := false
		for _, cc := range cd.Constraints {
			switch cc.Kind {
			case ast.ConstraintNotNull:
				notNull = true
			case ast.ConstraintPrimaryKey:
				inlinePK = true
			case ast.ConstraintDefault:
				col.HasDefault = true
				// Postgres's numeric literal grammar has no magnitude
				// limit, but decimal128 does; a DEFAULT the catalog can
				// parse syntactically can still overflow the fixed-width
				// representation the type mapper promises callers.
				if lit, ok := cc.Default.(*ast.LiteralExpr); ok && lit.Kind == ast.LitNumeric &&
					(col.Type.Tag == sqltype.Numeric || col.Type.Tag == sqltype.Real || col.Type.Tag == sqltype.Double) {
					if !sqltype.IsWellFormedDecimal(lit.Value) {
						return nil, fmt.Errorf("column %s: default literal %q does not fit a decimal128", cd.Name, lit.Value)
					}
				}
			}
		}
		if pkCols[strings.ToUpper(cd.Name)] {
			inlinePK = true
		}

		col.PrimaryKey = inlinePK
		// Nullable unless NOT NULL or PRIMARY KEY is present, inline or as a
		// table-level constraint naming this column.
		col.Nullable = !notNull && !inlinePK

		t.Columns = append(t.Columns, col)
	}

	return t, nil
}
