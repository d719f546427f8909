// Package analyzer implements the Statement Analyzer: given a Catalog and
// a parsed query AST, it orchestrates the Scope Resolver and Expression
// Typer per statement kind, binds CTEs in WITH order, validates INSERT
// column lists, checks parameter arity, and produces either a
// ResultDescriptor or an AnalysisError.
package analyzer

import (
	"fmt"

	"github.com/coreyja-studio/sql-check/pkg/ast"
	"github.com/coreyja-studio/sql-check/pkg/catalog"
	"github.com/coreyja-studio/sql-check/pkg/scope"
	"github.com/coreyja-studio/sql-check/pkg/typer"
)

// Analyzer ties a fixed Catalog to a Typer that calls back into the
// Analyzer itself to resolve nested SELECT blocks (typer.SubqueryResolver),
// closing the loop described in pkg/typer's doc comment without an import
// cycle.
type Analyzer struct {
	catalog *catalog.Catalog
	typer   *typer.Typer

	// env holds the CTE bindings in effect for whichever top-level
	// Analyze call is currently in progress; ResolveSubquery reads it to
	// resolve a nested SELECT's own CTE-less FROM against the same
	// catalog/CTE environment as everything else in this statement. An
	// Analyzer processes one statement at a time, so this is never
	// accessed concurrently.
	env *blockEnv
}

// New creates an Analyzer that resolves names against cat.
func New(cat *catalog.Catalog) *Analyzer {
	a := &Analyzer{catalog: cat}
	a.typer = typer.New(a)
	return a
}

// ResolveSubquery implements typer.SubqueryResolver: it resolves sel as a
// full SELECT block (FROM/join resolution and projection typing) and
// reports the type of its sole output column, as required of a scalar or
// IN (subquery) operand.
func (a *Analyzer) ResolveSubquery(parent *scope.Scope, sel *ast.SelectStmt) (typer.Info, error) {
	_, fields, err := a.resolveSelectBlock(a.env, parent, sel)
	if err != nil {
		return typer.Info{}, err
	}
	if len(fields) != 1 {
		return typer.Info{}, unsupported("subquery used as a value must project exactly one column")
	}
	return typer.Info{Type: fields[0].SQLType, Nullable: fields[0].Nullable}, nil
}

// Analyze type-checks stmt against a's catalog and validates that every
// placeholder index 1..declaredParams appears at least once and none above,
// returning the statement's ResultDescriptor or the first AnalysisError
// encountered.
func (a *Analyzer) Analyze(stmt ast.Stmt, declaredParams int) (*ResultDescriptor, error) {
	if err := checkParamArity(collectPlaceholders(stmt), declaredParams); err != nil {
		return nil, err
	}

	env := &blockEnv{catalog: a.catalog, ctes: map[string]cteBinding{}}
	a.env = env
	defer func() { a.env = nil }()

	return a.analyzeStmt(env, stmt)
}

func (a *Analyzer) analyzeStmt(env *blockEnv, stmt ast.Stmt) (*ResultDescriptor, error) {
	switch n := stmt.(type) {
	case *ast.WithStmt:
		if err := a.bindCTEs(env, n.CTEs); err != nil {
			return nil, err
		}
		return a.analyzeStmt(env, n.Main)

	case *ast.SelectStmt:
		_, fields, err := a.resolveSelectBlock(env, nil, n)
		if err != nil {
			return nil, err
		}
		desc := &ResultDescriptor{Fields: fields}
		desc.checkDuplicateNames()
		desc.checkUnknownResidues()
		return desc, nil

	case *ast.InsertStmt:
		return a.analyzeInsert(env, n)
	case *ast.UpdateStmt:
		return a.analyzeUpdate(env, n)
	case *ast.DeleteStmt:
		return a.analyzeDelete(env, n)

	default:
		return nil, unsupported(fmt.Sprintf("statement type %T", stmt))
	}
}
