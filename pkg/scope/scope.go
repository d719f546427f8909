// Package scope resolves a query block's FROM/join tree against an
// enclosing Catalog (plus any CTEs already bound in this WITH) into the
// per-block table of visible aliases, their columns, and outer-join
// nullability, and resolves column references against that table.
package scope

import (
	"strings"

	"github.com/coreyja-studio/sql-check/pkg/catalog"
	"github.com/coreyja-studio/sql-check/pkg/sqltype"
)

// Column is one column visible in a Scope, already folded with its
// source's join-nullability: when a table's join_nullable flag is set,
// every column drawn from it in this block is reported as nullable
// regardless of the underlying declaration.
type Column struct {
	Name     string
	Type     sqltype.Value
	Nullable bool
}

// Table is one FROM-clause entry visible by alias in a Scope: either a
// Catalog table, a bound CTE, or a derived table — all three reduce to
// the same (alias, ordered columns, join_nullable) shape once resolved.
type Table struct {
	Alias        string
	SourceName   string // the catalog/CTE name this alias refers to, for error messages
	Columns      []Column
	JoinNullable bool
}

// Column returns the named column of this table, case-insensitively.
func (t *Table) Column(name string) (*Column, bool) {
	upper := strings.ToUpper(name)
	for i := range t.Columns {
		if strings.ToUpper(t.Columns[i].Name) == upper {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// Scope is an immutable-once-built lexical frame, chained to its parent so
// a subquery sees every ancestor's aliases; chaining is lexical, not
// shadowed unless the subquery re-aliases a name its parent already uses.
type Scope struct {
	parent *Scope
	tables []*Table // ordered: matches FROM order, needed for "*" expansion
}

// New creates an empty scope, optionally chained under parent.
func New(parent *Scope) *Scope {
	return &Scope{parent: parent}
}

// AddTable appends a resolved table to this scope under its alias.
func (s *Scope) AddTable(t *Table) {
	s.tables = append(s.tables, t)
}

// Tables returns this scope's own tables in FROM order (does not include
// ancestor scopes).
func (s *Scope) Tables() []*Table {
	return s.tables
}

// Table looks up a table by alias in this scope, then ancestor scopes.
func (s *Scope) Table(alias string) (*Table, bool) {
	upper := strings.ToUpper(alias)
	for _, t := range s.tables {
		if strings.ToUpper(t.Alias) == upper {
			return t, true
		}
	}
	if s.parent != nil {
		return s.parent.Table(alias)
	}
	return nil, false
}

// ColumnLookupError is the result code a lookup returns on failure, so a
// caller can build the matching AnalysisError{UnknownColumn}/
// AnalysisError{AmbiguousColumn}/AnalysisError{UnknownTable} without the
// scope package needing to know about the analyzer's error types.
type ColumnLookupError int

const (
	// LookupOK means the column was found unambiguously.
	LookupOK ColumnLookupError = iota
	LookupUnknownTable
	LookupUnknownColumn
	LookupAmbiguousColumn
)

// LookupQualified resolves "alias.column" against the first table with
// that alias, searching this scope and then ancestor scopes. A second
// table with the same alias is not reported; it is never reached.
func (s *Scope) LookupQualified(alias, column string) (*Column, ColumnLookupError) {
	t, ok := s.Table(alias)
	if !ok {
		return nil, LookupUnknownTable
	}
	col, ok := t.Column(column)
	if !ok {
		return nil, LookupUnknownColumn
	}
	return col, LookupOK
}

// LookupUnqualified resolves a bare column name across every table in
// this scope first; only when none of them has the column does it fall
// back to the parent scope (an unqualified reference inside a subquery
// binds to the subquery's own FROM first — see DESIGN.md).
func (s *Scope) LookupUnqualified(column string) (*Column, ColumnLookupError) {
	var found *Column
	matches := 0
	for _, t := range s.tables {
		if col, ok := t.Column(column); ok {
			found = col
			matches++
		}
	}
	switch {
	case matches == 0:
		if s.parent != nil {
			return s.parent.LookupUnqualified(column)
		}
		return nil, LookupUnknownColumn
	case matches > 1:
		return nil, LookupAmbiguousColumn
	default:
		return found, LookupOK
	}
}

// AllColumns returns every column visible in this scope's own tables, in
// FROM order, for "*" expansion.
func (s *Scope) AllColumns() []Column {
	var out []Column
	for _, t := range s.tables {
		out = append(out, t.Columns...)
	}
	return out
}

// TableFromCatalog builds a Table from a resolved catalog.Table under the
// given alias (defaulting to the table's own name), carrying the catalog's
// per-column nullability forward unless joinNullable forces every column
// nullable regardless.
func TableFromCatalog(ct *catalog.Table, alias string, joinNullable bool) *Table {
	if alias == "" {
		alias = ct.Name
	}
	t := &Table{Alias: alias, SourceName: ct.Name, JoinNullable: joinNullable}
	for _, c := range ct.Columns {
		t.Columns = append(t.Columns, Column{
			Name:     c.Name,
			Type:     c.Type,
			Nullable: c.Nullable || joinNullable,
		})
	}
	return t
}

// TableFromDescriptor builds a Table from a bound CTE's or derived table's
// ResultDescriptor-shaped column list (name/type/nullable already
// resolved), used when a FROM item is a WITH name or a subquery rather
// than a base table.
func TableFromDescriptor(name, alias string, cols []Column, joinNullable bool) *Table {
	if alias == "" {
		alias = name
	}
	t := &Table{Alias: alias, SourceName: name, JoinNullable: joinNullable}
	for _, c := range cols {
		t.Columns = append(t.Columns, Column{
			Name:     c.Name,
			Type:     c.Type,
			Nullable: c.Nullable || joinNullable,
		})
	}
	return t
}
