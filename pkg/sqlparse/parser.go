// Package sqlparse wraps github.com/pganalyze/pg_query_go, the real
// PostgreSQL grammar, and converts its protobuf parse tree into this
// repository's own pkg/ast node shapes. It backs both the query parser and
// the schema catalog builder's DDL reader, reusing an off-the-shelf
// grammar rather than hand-rolling one.
package sqlparse

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/coreyja-studio/sql-check/pkg/ast"
)

// ParseQuery parses a single SQL statement string into a pkg/ast.Stmt.
// It fails if the text contains more than one statement: a host program
// embeds exactly one query per call site.
func ParseQuery(src string) (ast.Stmt, error) {
	result, err := pg_query.Parse(src)
	if err != nil {
		return nil, parseErrFromLibError(src, err)
	}
	if len(result.Stmts) == 0 {
		return nil, &ParseError{Message: "empty query"}
	}
	if len(result.Stmts) > 1 {
		return nil, &ParseError{Message: "expected exactly one statement, found multiple"}
	}

	c := &converter{src: src}
	return c.convertStmt(result.Stmts[0].Stmt)
}

// DDLStatement is one top-level statement recovered from a schema file,
// alongside its byte offset for SchemaParse error reporting.
type DDLStatement struct {
	Text   string
	Offset int
}

// SplitDDL splits a DDL file into individual top-level statements using
// pg_query_go's statement scanner, which understands dollar-quoting and
// comments without fully parsing each statement (mirrors how a real
// `psql -f schema.sql` driven tool would iterate statements). The whole
// file is parsed once first, so a syntax error anywhere in it is reported
// here even when the scanner does not return the broken statement.
func SplitDDL(src string) ([]DDLStatement, error) {
	if _, err := pg_query.Parse(src); err != nil {
		return nil, parseErrFromLibError(src, err)
	}
	raw, err := pg_query.SplitWithScanner(src, false)
	if err != nil {
		return nil, fmt.Errorf("split schema file: %w", err)
	}

	stmts := make([]DDLStatement, 0, len(raw))
	offset := 0
	for _, s := range raw {
		idx := indexFrom(src, s, offset)
		stmts = append(stmts, DDLStatement{Text: s, Offset: idx})
		if idx >= 0 {
			offset = idx + len(s)
		}
	}
	return stmts, nil
}

func indexFrom(src, needle string, from int) int {
	if from > len(src) {
		from = len(src)
	}
	i := indexOf(src[from:], needle)
	if i < 0 {
		return -1
	}
	return from + i
}

func indexOf(s, sub string) int {
	n := len(sub)
	if n == 0 {
		return 0
	}
	for i := 0; i+n <= len(s); i++ {
		if s[i:i+n] == sub {
			return i
		}
	}
	return -1
}

// ParseDDLStatement parses one already-split DDL statement into a
// pkg/ast.Stmt. Non-CREATE-TABLE statements this converter doesn't model
// are the catalog builder's concern to tolerate; this function simply
// reports what it can't parse.
func ParseDDLStatement(src string) (ast.Stmt, error) {
	result, err := pg_query.Parse(src)
	if err != nil {
		return nil, parseErrFromLibError(src, err)
	}
	if len(result.Stmts) == 0 {
		return nil, &ParseError{Message: "empty statement"}
	}
	c := &converter{src: src}
	return c.convertStmt(result.Stmts[0].Stmt)
}

func parseErrFromLibError(src string, err error) *ParseError {
	return &ParseError{Message: err.Error(), Line: 1, Column: 1, Near: near(src, 0)}
}

// converter carries the source text (for position -> line/col conversion)
// across the recursive descent that threads through convertSelect/
// convertInsert/...
type converter struct {
	src string
}

func (c *converter) posAt(offset int) ast.Pos { return ast.Pos(offset) }

func (c *converter) unsupported(construct string, offset int) error {
	line, col := lineCol(c.src, offset)
	return &UnsupportedError{Construct: construct, Line: line, Column: col}
}

func (c *converter) errAt(msg string, offset int) error {
	line, col := lineCol(c.src, offset)
	return &ParseError{Message: msg, Line: line, Column: col, Near: near(c.src, offset)}
}

func (c *converter) convertStmt(n *pg_query.Node) (ast.Stmt, error) {
	if n == nil {
		return nil, &ParseError{Message: "empty statement"}
	}
	switch s := n.Node.(type) {
	case *pg_query.Node_SelectStmt:
		return c.convertSelectWrapper(s.SelectStmt)
	case *pg_query.Node_InsertStmt:
		return c.convertInsert(s.InsertStmt)
	case *pg_query.Node_UpdateStmt:
		return c.convertUpdate(s.UpdateStmt)
	case *pg_query.Node_DeleteStmt:
		return c.convertDelete(s.DeleteStmt)
	case *pg_query.Node_CreateStmt:
		return c.convertCreateTable(s.CreateStmt)
	default:
		return nil, c.unsupported(fmt.Sprintf("statement type %T", n.Node), 0)
	}
}

// convertSelectWrapper handles a top-level SELECT, peeling off an attached
// WithClause into a WithStmt that wraps the main query as its own
// statement.
func (c *converter) convertSelectWrapper(sel *pg_query.SelectStmt) (ast.Stmt, error) {
	if sel == nil {
		return nil, &ParseError{Message: "empty SELECT"}
	}
	if sel.WithClause != nil {
		return c.convertWith(sel.WithClause, sel)
	}
	return c.convertSelect(sel)
}
