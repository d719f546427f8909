package analyzer

import (
	"fmt"
	"strings"

	"github.com/coreyja-studio/sql-check/pkg/ast"
	"github.com/coreyja-studio/sql-check/pkg/catalog"
	"github.com/coreyja-studio/sql-check/pkg/scope"
	"github.com/coreyja-studio/sql-check/pkg/sqltype"
	"github.com/coreyja-studio/sql-check/pkg/typer"
)

// blockEnv threads the catalog and already-bound CTEs through the
// recursive descent over nested SELECT blocks (top-level query, each CTE
// body, each subquery) — the enclosing context every scope resolution
// step needs.
type blockEnv struct {
	catalog *catalog.Catalog
	ctes    map[string]cteBinding
}

// resolveSelectBlock builds a fresh Scope for sel chained under parent,
// resolving its FROM/joins and typing the projection, and returns the
// block's output fields in projection order.
func (a *Analyzer) resolveSelectBlock(env *blockEnv, parent *scope.Scope, sel *ast.SelectStmt) (*scope.Scope, []Field, error) {
	if sel == nil {
		return nil, nil, &AnalysisError{Type: ErrUnknown, Message: "empty SELECT"}
	}

	s := scope.New(parent)
	if err := a.resolveFromClause(env, parent, s, sel.From); err != nil {
		return nil, nil, err
	}

	fields, err := a.projectColumns(env, s, sel.Columns)
	if err != nil {
		return nil, nil, err
	}

	if sel.Where != nil {
		if _, err := a.typer.Type(s, sel.Where); err != nil {
			return nil, nil, translateTyperErr(err)
		}
	}
	for _, g := range sel.GroupBy {
		if _, err := a.typer.Type(s, g); err != nil {
			return nil, nil, translateTyperErr(err)
		}
	}
	if sel.Having != nil {
		info, err := a.typer.Type(s, sel.Having)
		if err != nil {
			return nil, nil, translateTyperErr(err)
		}
		if info.Type.Tag != sqltype.Boolean && info.Type.Tag != sqltype.Unknown {
			return nil, nil, typeMismatch("HAVING must be boolean")
		}
	}
	for _, o := range sel.OrderBy {
		if _, err := a.typer.Type(s, o.Expr); err != nil {
			return nil, nil, translateTyperErr(err)
		}
	}
	if sel.Limit != nil {
		if _, err := a.typer.Type(s, sel.Limit); err != nil {
			return nil, nil, translateTyperErr(err)
		}
	}
	if sel.Offset != nil {
		if _, err := a.typer.Type(s, sel.Offset); err != nil {
			return nil, nil, translateTyperErr(err)
		}
	}

	return s, fields, nil
}

// resolveFromClause resolves every top-level FROM item (each possibly the
// head of its own left-deep join chain) and adds the resulting tables to
// s in FROM order.
func (a *Analyzer) resolveFromClause(env *blockEnv, parent *scope.Scope, s *scope.Scope, from []ast.TableRef) error {
	for i := range from {
		if err := a.resolveJoinChain(env, parent, s, &from[i]); err != nil {
			return err
		}
	}
	return nil
}

// resolveJoinChain flattens head's left-deep Join chain, computes each
// table's join_nullable flag with a forward pass that retroactively
// forces earlier tables nullable on RIGHT/FULL so the flag only ever
// grows more permissive across the chain, then resolves and adds every
// table to s, and finally types each join's ON condition once both sides
// are in scope.
func (a *Analyzer) resolveJoinChain(env *blockEnv, parent *scope.Scope, s *scope.Scope, head *ast.TableRef) error {
	// Walk the chain collecting (table, incomingJoinType).
	var tables []*ast.TableRef
	var joinTypes []ast.JoinType   // joinTypes[i] connects tables[i-1] accumulated-left to tables[i]
	var conditions []ast.Expr
	var usings [][]string
	cur := head
	tables = append(tables, cur)
	for cur.Join != nil {
		joinTypes = append(joinTypes, cur.Join.Type)
		conditions = append(conditions, cur.Join.Condition)
		usings = append(usings, cur.Join.Using)
		tables = append(tables, cur.Join.Table)
		cur = cur.Join.Table
	}

	flags := make([]bool, len(tables))
	for i, jt := range joinTypes {
		for k := 0; k <= i; k++ {
			leftOut, _ := scope.JoinNullability(jt, flags[k])
			flags[k] = flags[k] || leftOut
		}
		_, flags[i+1] = scope.JoinNullability(jt, false)
	}

	resolved := make([]*scope.Table, len(tables))
	for i, t := range tables {
		rt, err := a.resolveTableRef(env, parent, t, flags[i])
		if err != nil {
			return err
		}
		resolved[i] = rt
		s.AddTable(rt)
	}

	for i, cond := range conditions {
		if cond != nil {
			if _, err := a.typer.Type(s, cond); err != nil {
				return translateTyperErr(err)
			}
		}
		for _, col := range usings[i] {
			if _, ok := resolved[i].Column(col); !ok {
				return unknownColumn(resolved[i].Alias, col)
			}
			if _, ok := resolved[i+1].Column(col); !ok {
				return unknownColumn(resolved[i+1].Alias, col)
			}
		}
	}

	return nil
}

// resolveTableRef resolves a single FROM item (base table, CTE reference,
// or derived table) into a scope.Table under the given join-nullable flag.
// parent is the scope that existed before this FROM clause started; a
// derived table's body is analyzed against it, not against sibling FROM
// items being built in the same clause.
func (a *Analyzer) resolveTableRef(env *blockEnv, parent *scope.Scope, t *ast.TableRef, joinNullable bool) (*scope.Table, error) {
	if t.Subquery != nil {
		_, fields, err := a.resolveSelectBlock(env, parent, t.Subquery)
		if err != nil {
			return nil, err
		}
		cols := fieldsToColumns(fields)
		return scope.TableFromDescriptor(t.Alias, t.Alias, cols, joinNullable), nil
	}

	if cte, ok := env.ctes[strings.ToUpper(t.Name)]; ok {
		return scope.TableFromDescriptor(t.Name, aliasOrName(t), cte.columns, joinNullable), nil
	}

	ct, ok := env.catalog.Table(t.Name)
	if !ok {
		return nil, unknownTable(t.Name)
	}
	return scope.TableFromCatalog(ct, aliasOrName(t), joinNullable), nil
}

func aliasOrName(t *ast.TableRef) string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

func fieldsToColumns(fields []Field) []scope.Column {
	cols := make([]scope.Column, len(fields))
	for i, f := range fields {
		cols[i] = scope.Column{Name: f.Name, Type: f.SQLType, Nullable: f.Nullable}
	}
	return cols
}

// projectColumns expands "*"/"t.*" and types every explicit projection
// item, assigning output names.
func (a *Analyzer) projectColumns(env *blockEnv, s *scope.Scope, cols []ast.SelectColumn) ([]Field, error) {
	var fields []Field
	anonCount := 0

	for _, c := range cols {
		if c.Star {
			expanded, err := expandStar(s, c.Table)
			if err != nil {
				return nil, err
			}
			for _, sc := range expanded {
				fields = append(fields, Field{Name: sc.Name, SQLType: sc.Type, Nullable: sc.Nullable})
			}
			continue
		}

		info, err := a.typer.Type(s, c.Expr)
		if err != nil {
			return nil, translateTyperErr(err)
		}

		name := c.Alias
		if name == "" {
			name = derivedColumnName(c.Expr)
		}
		if name == "" {
			anonCount++
			name = fmt.Sprintf("column_%d", anonCount)
		}

		fields = append(fields, Field{Name: name, SQLType: info.Type, Nullable: info.Nullable})
	}

	return fields, nil
}

// expandStar expands "*" (qualifier == "") to every table's columns in
// FROM order, or "t.*" to just alias t's columns.
func expandStar(s *scope.Scope, qualifier string) ([]scope.Column, error) {
	if qualifier == "" {
		return s.AllColumns(), nil
	}
	t, ok := s.Table(qualifier)
	if !ok {
		return nil, unknownTable(qualifier)
	}
	return t.Columns, nil
}

// derivedColumnName returns the output name a bare column reference
// contributes when it has no explicit alias; any other expression kind
// has no derivable name and gets a synthesized column_<n>.
func derivedColumnName(e ast.Expr) string {
	if cr, ok := e.(*ast.ColumnRef); ok {
		return cr.Column
	}
	return ""
}

func translateTyperErr(err error) error {
	switch e := err.(type) {
	case *typer.UnknownColumnError:
		return unknownColumn(e.Table, e.Column)
	case *typer.UnknownTableError:
		return unknownTable(e.Table)
	case *typer.AmbiguousColumnError:
		return ambiguousColumn(e.Column)
	case *typer.TypeMismatchError:
		return typeMismatch(e.Error())
	case *typer.UnsupportedError:
		return unsupported(e.Construct)
	default:
		return err
	}
}
