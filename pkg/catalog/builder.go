package catalog

import (
	"github.com/coreyja-studio/sql-check/pkg/ast"
	"github.com/coreyja-studio/sql-check/pkg/sqlparse"
)

// Build parses a PostgreSQL DDL file's text into a Catalog. Only CREATE
// TABLE statements contribute tables; every other statement kind (CREATE
// INDEX, CREATE TYPE, COMMENT ON, ALTER TABLE, ...) is recognized and
// skipped rather than rejected, since a real schema file routinely
// contains statements with no bearing on query-level analysis.
//
// A statement the grammar itself can't parse is a hard SchemaParseError:
// the catalog builder has no tolerance for genuinely malformed SQL, only
// for SQL it chooses not to model.
func Build(schemaText string) (*Catalog, error) {
	stmts, err := sqlparse.SplitDDL(schemaText)
	if err != nil {
		return nil, &SchemaParseError{Statement: schemaText, Cause: err}
	}

	cat := &Catalog{tables: make(map[string]*Table)}

	for _, s := range stmts {
		if isBlank(s.Text) {
			continue
		}

		parsed, err := sqlparse.ParseDDLStatement(s.Text)
		if err != nil {
			if _, ok := err.(*sqlparse.UnsupportedError); ok {
				// A statement kind the grammar parses fine but this
				// converter doesn't model (e.g. CREATE INDEX, COMMENT ON)
				// is tolerated, not an error.
				continue
			}
			return nil, &SchemaParseError{Statement: s.Text, Cause: err}
		}

		ct, ok := parsed.(*ast.CreateTableStmt)
		if !ok {
			continue
		}

		table, err := newTableFromDDL(ct)
		if err != nil {
			return nil, &SchemaParseError{Statement: s.Text, Cause: err}
		}

		key := normalizeTableName(table.Name)
		if existing, exists := cat.tables[key]; exists && !ct.IfNotExists {
			return nil, &SchemaParseError{
				Statement: s.Text,
				Cause:     duplicateTableError{name: existing.Name},
			}
		}
		cat.tables[key] = table
	}

	return cat, nil
}

type duplicateTableError struct{ name string }

func (e duplicateTableError) Error() string { return "table already defined: " + e.name }

func isBlank(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', ';':
			continue
		default:
			return false
		}
	}
	return true
}
