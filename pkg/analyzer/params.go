package analyzer

import "github.com/coreyja-studio/sql-check/pkg/ast"

// collectPlaceholders walks every expression reachable from stmt and
// returns the set of placeholder indices seen, for the parameter arity
// check.
func collectPlaceholders(stmt ast.Stmt) map[int]bool {
	seen := make(map[int]bool)
	walkStmt(stmt, seen)
	return seen
}

func walkStmt(s ast.Stmt, seen map[int]bool) {
	switch n := s.(type) {
	case *ast.WithStmt:
		for _, cte := range n.CTEs {
			walkSelect(cte.Body, seen)
		}
		walkStmt(n.Main, seen)
	case *ast.SelectStmt:
		walkSelect(n, seen)
	case *ast.InsertStmt:
		walkTableRef(n.Table, seen)
		for _, row := range n.Values {
			for _, e := range row {
				walkExpr(e, seen)
			}
		}
		if n.Select != nil {
			walkSelect(n.Select, seen)
		}
		for _, c := range n.Returning {
			walkSelectColumn(c, seen)
		}
	case *ast.UpdateStmt:
		walkTableRef(n.Table, seen)
		for _, a := range n.Set {
			walkExpr(a.Value, seen)
		}
		for i := range n.From {
			walkTableRef(&n.From[i], seen)
		}
		if n.Where != nil {
			walkExpr(n.Where, seen)
		}
		for _, c := range n.Returning {
			walkSelectColumn(c, seen)
		}
	case *ast.DeleteStmt:
		walkTableRef(n.Table, seen)
		if n.Where != nil {
			walkExpr(n.Where, seen)
		}
		for _, c := range n.Returning {
			walkSelectColumn(c, seen)
		}
	}
}

func walkSelect(sel *ast.SelectStmt, seen map[int]bool) {
	if sel == nil {
		return
	}
	for _, c := range sel.Columns {
		walkSelectColumn(c, seen)
	}
	for i := range sel.From {
		walkTableRef(&sel.From[i], seen)
	}
	if sel.Where != nil {
		walkExpr(sel.Where, seen)
	}
	for _, g := range sel.GroupBy {
		walkExpr(g, seen)
	}
	if sel.Having != nil {
		walkExpr(sel.Having, seen)
	}
	for _, o := range sel.OrderBy {
		walkExpr(o.Expr, seen)
	}
	if sel.Limit != nil {
		walkExpr(sel.Limit, seen)
	}
	if sel.Offset != nil {
		walkExpr(sel.Offset, seen)
	}
}

func walkSelectColumn(c ast.SelectColumn, seen map[int]bool) {
	if c.Expr != nil {
		walkExpr(c.Expr, seen)
	}
}

func walkTableRef(t *ast.TableRef, seen map[int]bool) {
	if t == nil {
		return
	}
	if t.Subquery != nil {
		walkSelect(t.Subquery, seen)
	}
	if t.Join != nil {
		if t.Join.Condition != nil {
			walkExpr(t.Join.Condition, seen)
		}
		walkTableRef(t.Join.Table, seen)
	}
}

func walkExpr(e ast.Expr, seen map[int]bool) {
	switch n := e.(type) {
	case *ast.Placeholder:
		seen[n.Index] = true
	case *ast.BinaryExpr:
		walkExpr(n.Left, seen)
		walkExpr(n.Right, seen)
	case *ast.UnaryExpr:
		walkExpr(n.Operand, seen)
	case *ast.FunctionCall:
		for _, a := range n.Args {
			walkExpr(a, seen)
		}
	case *ast.CoalesceExpr:
		for _, a := range n.Args {
			walkExpr(a, seen)
		}
	case *ast.CaseExpr:
		if n.Operand != nil {
			walkExpr(n.Operand, seen)
		}
		for _, w := range n.Whens {
			walkExpr(w.Condition, seen)
			walkExpr(w.Result, seen)
		}
		if n.Else != nil {
			walkExpr(n.Else, seen)
		}
	case *ast.CastExpr:
		walkExpr(n.Expr, seen)
	case *ast.InExpr:
		walkExpr(n.Left, seen)
		for _, v := range n.Values {
			walkExpr(v, seen)
		}
		if n.Subquery != nil {
			walkSelect(n.Subquery, seen)
		}
	case *ast.BetweenExpr:
		walkExpr(n.Left, seen)
		walkExpr(n.Low, seen)
		walkExpr(n.High, seen)
	case *ast.LikeExpr:
		walkExpr(n.Left, seen)
		walkExpr(n.Pattern, seen)
	case *ast.IsNullExpr:
		walkExpr(n.Left, seen)
	case *ast.ExistsExpr:
		if n.Subquery != nil {
			walkSelect(n.Subquery, seen)
		}
	case *ast.SubqueryExpr:
		walkSelect(n.Query, seen)
	case *ast.ParenExpr:
		walkExpr(n.Expr, seen)
	case *ast.SelectStmt:
		walkSelect(n, seen)
	}
}

// checkParamArity validates the placeholder set against the caller's
// declared parameter count: every index in 1..=declared must appear, and
// the maximum observed placeholder index must equal declared exactly.
func checkParamArity(seen map[int]bool, declared int) error {
	maxSeen := 0
	for idx := range seen {
		if idx > maxSeen {
			maxSeen = idx
		}
	}
	if maxSeen != declared {
		return parameterArityMismatch(maxSeen, declared)
	}
	for i := 1; i <= declared; i++ {
		if !seen[i] {
			return parameterArityMismatch(maxSeen, declared)
		}
	}
	return nil
}
