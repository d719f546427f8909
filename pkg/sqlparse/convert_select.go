package sqlparse

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/coreyja-studio/sql-check/pkg/ast"
)

func (c *converter) convertWith(w *pg_query.WithClause, main *pg_query.SelectStmt) (ast.Stmt, error) {
	if w.Recursive {
		return nil, c.unsupported("recursive CTE", 0)
	}

	ws := &ast.WithStmt{}
	for _, cteNode := range w.Ctes {
		cte, ok := cteNode.Node.(*pg_query.Node_CommonTableExpr)
		if !ok {
			continue
		}
		body, err := c.cteBody(cte.CommonTableExpr)
		if err != nil {
			return nil, err
		}
		colNames := make([]string, 0, len(cte.CommonTableExpr.Aliascolnames))
		for _, cn := range cte.CommonTableExpr.Aliascolnames {
			if s, ok := cn.Node.(*pg_query.Node_String_); ok {
				colNames = append(colNames, s.String_.Sval)
			}
		}
		ws.CTEs = append(ws.CTEs, ast.CTE{
			Name:    cte.CommonTableExpr.Ctename,
			Columns: colNames,
			Body:    body,
			Pos:     c.posAt(int(cte.CommonTableExpr.Location)),
		})
	}

	// The WITH clause is fully captured in ws.CTEs; clear it so the main
	// query is not itself rejected as a nested WITH.
	main.WithClause = nil
	mainStmt, err := c.convertSelect(main)
	if err != nil {
		return nil, err
	}
	ws.Main = mainStmt
	return ws, nil
}

func (c *converter) cteBody(cte *pg_query.CommonTableExpr) (*ast.SelectStmt, error) {
	if cte.Ctequery == nil {
		return nil, c.errAt("CTE body missing query", int(cte.Location))
	}
	sel, ok := cte.Ctequery.Node.(*pg_query.Node_SelectStmt)
	if !ok {
		return nil, c.unsupported("non-SELECT CTE body", int(cte.Location))
	}
	return c.convertSelect(sel.SelectStmt)
}

func (c *converter) convertSelect(sel *pg_query.SelectStmt) (*ast.SelectStmt, error) {
	if sel == nil {
		return nil, &ParseError{Message: "empty SELECT"}
	}
	if sel.Op != pg_query.SetOperation_SETOP_NONE {
		return nil, c.unsupported("UNION/INTERSECT/EXCEPT", 0)
	}
	if sel.WithClause != nil {
		return nil, c.unsupported("nested WITH", 0)
	}

	out := &ast.SelectStmt{Distinct: len(sel.DistinctClause) > 0}

	for _, t := range sel.TargetList {
		rt, ok := t.Node.(*pg_query.Node_ResTarget)
		if !ok {
			continue
		}
		col, err := c.convertSelectColumn(rt.ResTarget)
		if err != nil {
			return nil, err
		}
		out.Columns = append(out.Columns, col)
	}

	tables, err := c.convertFromClause(sel.FromClause)
	if err != nil {
		return nil, err
	}
	out.From = tables

	if sel.WhereClause != nil {
		w, err := c.convertExpr(sel.WhereClause)
		if err != nil {
			return nil, err
		}
		out.Where = w
	}

	for _, g := range sel.GroupClause {
		e, err := c.convertExpr(g)
		if err != nil {
			return nil, err
		}
		out.GroupBy = append(out.GroupBy, e)
	}

	if sel.HavingClause != nil {
		h, err := c.convertExpr(sel.HavingClause)
		if err != nil {
			return nil, err
		}
		out.Having = h
	}

	for _, s := range sel.SortClause {
		sb, ok := s.Node.(*pg_query.Node_SortBy)
		if !ok {
			continue
		}
		e, err := c.convertExpr(sb.SortBy.Node)
		if err != nil {
			return nil, err
		}
		out.OrderBy = append(out.OrderBy, ast.OrderByItem{
			Expr: e,
			Desc: sb.SortBy.SortbyDir == pg_query.SortByDir_SORTBY_DESC,
		})
	}

	if sel.LimitCount != nil {
		e, err := c.convertExpr(sel.LimitCount)
		if err != nil {
			return nil, err
		}
		out.Limit = e
	}
	if sel.LimitOffset != nil {
		e, err := c.convertExpr(sel.LimitOffset)
		if err != nil {
			return nil, err
		}
		out.Offset = e
	}

	return out, nil
}

func (c *converter) convertSelectColumn(rt *pg_query.ResTarget) (ast.SelectColumn, error) {
	if rt.Val == nil {
		return ast.SelectColumn{}, c.errAt("empty projection item", int(rt.Location))
	}
	if cr, ok := rt.Val.Node.(*pg_query.Node_ColumnRef); ok {
		if qualifier, isStar := starFields(cr.ColumnRef.Fields); isStar {
			return ast.SelectColumn{Star: true, Table: qualifier}, nil
		}
	}
	e, err := c.convertExpr(rt.Val)
	if err != nil {
		return ast.SelectColumn{}, err
	}
	return ast.SelectColumn{Expr: e, Alias: rt.Name}, nil
}

// starFields reports whether a ColumnRef's Fields list is "*" or
// "qualifier.*", returning the qualifier (empty for bare "*").
func starFields(fields []*pg_query.Node) (qualifier string, isStar bool) {
	if len(fields) == 0 {
		return "", false
	}
	last := fields[len(fields)-1]
	if _, ok := last.Node.(*pg_query.Node_AStar); !ok {
		return "", false
	}
	if len(fields) > 1 {
		if s, ok := fields[0].Node.(*pg_query.Node_String_); ok {
			qualifier = s.String_.Sval
		}
	}
	return qualifier, true
}

func (c *converter) convertFromClause(nodes []*pg_query.Node) ([]ast.TableRef, error) {
	var refs []ast.TableRef
	for _, n := range nodes {
		ref, err := c.convertFromItem(n)
		if err != nil {
			return nil, err
		}
		refs = append(refs, *ref)
	}
	return refs, nil
}

func (c *converter) convertFromItem(n *pg_query.Node) (*ast.TableRef, error) {
	switch item := n.Node.(type) {
	case *pg_query.Node_RangeVar:
		return c.convertRangeVar(item.RangeVar)
	case *pg_query.Node_RangeSubselect:
		return c.convertRangeSubselect(item.RangeSubselect)
	case *pg_query.Node_JoinExpr:
		return c.convertJoinExpr(item.JoinExpr)
	default:
		return nil, c.unsupported(fmt.Sprintf("FROM item %T", n.Node), 0)
	}
}

func (c *converter) convertRangeVar(rv *pg_query.RangeVar) (*ast.TableRef, error) {
	alias := ""
	if rv.Alias != nil {
		alias = rv.Alias.Aliasname
	}
	return &ast.TableRef{
		Name:  rv.Relname,
		Alias: alias,
		Pos:   c.posAt(int(rv.Location)),
	}, nil
}

func (c *converter) convertRangeSubselect(rs *pg_query.RangeSubselect) (*ast.TableRef, error) {
	if rs.Subquery == nil {
		return nil, c.errAt("empty derived table", 0)
	}
	sel, ok := rs.Subquery.Node.(*pg_query.Node_SelectStmt)
	if !ok {
		return nil, c.unsupported("non-SELECT derived table", 0)
	}
	body, err := c.convertSelectWrapperAsSelect(sel.SelectStmt)
	if err != nil {
		return nil, err
	}
	alias := ""
	if rs.Alias != nil {
		alias = rs.Alias.Aliasname
	} else {
		return nil, c.errAt("derived table requires an alias", 0)
	}
	return &ast.TableRef{Alias: alias, Subquery: body}, nil
}

// convertSelectWrapperAsSelect is like convertSelectWrapper but a derived
// table or CTE body can't itself introduce a further top-level WithStmt
// wrapper in this repository's AST, so a WITH inside a subquery is
// rejected rather than silently flattened.
func (c *converter) convertSelectWrapperAsSelect(sel *pg_query.SelectStmt) (*ast.SelectStmt, error) {
	if sel.WithClause != nil {
		return nil, c.unsupported("WITH inside a subquery", 0)
	}
	return c.convertSelect(sel)
}

func (c *converter) convertJoinExpr(j *pg_query.JoinExpr) (*ast.TableRef, error) {
	if j.IsNatural {
		return nil, c.unsupported("NATURAL JOIN", 0)
	}

	left, err := c.convertFromItem(j.Larg)
	if err != nil {
		return nil, err
	}
	right, err := c.convertFromItem(j.Rarg)
	if err != nil {
		return nil, err
	}

	// pg_query_go represents "CROSS JOIN" as JOIN_INNER with no ON/USING
	// clause and IsNatural false; a plain comma join in FROM never reaches
	// here at all (each item is its own TableRef with no JoinClause).
	var jt ast.JoinType
	if j.Jointype == pg_query.JoinType_JOIN_INNER && j.Quals == nil && len(j.UsingClause) == 0 {
		jt = ast.JoinCross
	} else {
		jt, err = convertJoinType(j.Jointype)
		if err != nil {
			return nil, err
		}
	}

	var cond ast.Expr
	if j.Quals != nil {
		cond, err = c.convertExpr(j.Quals)
		if err != nil {
			return nil, err
		}
	}

	var using []string
	for _, u := range j.UsingClause {
		if s, ok := u.Node.(*pg_query.Node_String_); ok {
			using = append(using, s.String_.Sval)
		}
	}

	// left may already be the head of its own join chain (e.g. "a JOIN b
	// JOIN c" parses as (a JOIN b) JOIN c: the recursive convertFromItem
	// call above already built "a" with a.Join pointing at "b"). The new
	// link belongs at the END of that chain, not overwriting it, or the
	// middle table drops out of the FROM list entirely.
	tail := left
	for tail.Join != nil {
		tail = tail.Join.Table
	}
	tail.Join = &ast.JoinClause{
		Type:      jt,
		Table:     right,
		Condition: cond,
		Using:     using,
	}
	return left, nil
}

func convertJoinType(jt pg_query.JoinType) (ast.JoinType, error) {
	switch jt {
	case pg_query.JoinType_JOIN_INNER:
		return ast.JoinInner, nil
	case pg_query.JoinType_JOIN_LEFT:
		return ast.JoinLeft, nil
	case pg_query.JoinType_JOIN_RIGHT:
		return ast.JoinRight, nil
	case pg_query.JoinType_JOIN_FULL:
		return ast.JoinFull, nil
	default:
		return 0, &UnsupportedError{Construct: "join type " + jt.String()}
	}
}
