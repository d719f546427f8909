package sqlparse

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/coreyja-studio/sql-check/pkg/ast"
)

// convertExpr dispatches every pg_query expression node this repository
// supports into a pkg/ast.Expr. Anything else is reported through
// UnsupportedError so the analyzer can surface AnalysisError{Type:
// UnsupportedConstruct} instead of failing silently.
func (c *converter) convertExpr(n *pg_query.Node) (ast.Expr, error) {
	if n == nil {
		return nil, &ParseError{Message: "missing expression"}
	}
	switch e := n.Node.(type) {
	case *pg_query.Node_AConst:
		return c.convertAConst(e.AConst)
	case *pg_query.Node_ColumnRef:
		return c.convertColumnRef(e.ColumnRef)
	case *pg_query.Node_ParamRef:
		return &ast.Placeholder{Index: int(e.ParamRef.Number), Pos: c.posAt(int(e.ParamRef.Location))}, nil
	case *pg_query.Node_AExpr:
		return c.convertAExpr(e.AExpr)
	case *pg_query.Node_BoolExpr:
		return c.convertBoolExpr(e.BoolExpr)
	case *pg_query.Node_FuncCall:
		return c.convertFuncCall(e.FuncCall)
	case *pg_query.Node_CaseExpr:
		return c.convertCaseExpr(e.CaseExpr)
	case *pg_query.Node_TypeCast:
		return c.convertTypeCast(e.TypeCast)
	case *pg_query.Node_CoalesceExpr:
		return c.convertCoalesceExpr(e.CoalesceExpr)
	case *pg_query.Node_SubLink:
		return c.convertSubLink(e.SubLink)
	case *pg_query.Node_NullTest:
		return c.convertNullTest(e.NullTest)
	case *pg_query.Node_AArrayExpr:
		return nil, c.unsupported("array literal", 0)
	case *pg_query.Node_SelectStmt:
		body, err := c.convertSelectWrapperAsSelect(e.SelectStmt)
		if err != nil {
			return nil, err
		}
		return &ast.SubqueryExpr{Query: body}, nil
	default:
		return nil, c.unsupported(fmt.Sprintf("expression %T", n.Node), 0)
	}
}

func (c *converter) convertAConst(ac *pg_query.A_Const) (ast.Expr, error) {
	pos := c.posAt(int(ac.Location))
	if ac.Isnull {
		return &ast.LiteralExpr{Kind: ast.LitNull, Pos: pos}, nil
	}
	switch v := ac.Val.(type) {
	case *pg_query.A_Const_Ival:
		return &ast.LiteralExpr{Kind: ast.LitInteger, Value: itoa(int(v.Ival.Ival)), Pos: pos}, nil
	case *pg_query.A_Const_Fval:
		// The grammar also hands back integer literals too large for int32
		// as Fval; only a lexeme with "." or an exponent is numeric.
		if !strings.ContainsAny(v.Fval.Fval, ".eE") {
			return &ast.LiteralExpr{Kind: ast.LitInteger, Value: v.Fval.Fval, Pos: pos}, nil
		}
		return &ast.LiteralExpr{Kind: ast.LitNumeric, Value: v.Fval.Fval, Pos: pos}, nil
	case *pg_query.A_Const_Boolval:
		val := "false"
		if v.Boolval.Boolval {
			val = "true"
		}
		return &ast.LiteralExpr{Kind: ast.LitBoolean, Value: val, Pos: pos}, nil
	case *pg_query.A_Const_Sval:
		return &ast.LiteralExpr{Kind: ast.LitString, Value: v.Sval.Sval, Pos: pos}, nil
	case *pg_query.A_Const_Bsval:
		return &ast.LiteralExpr{Kind: ast.LitString, Value: v.Bsval.Bsval, Pos: pos}, nil
	default:
		return nil, c.unsupported("literal kind", int(ac.Location))
	}
}

func (c *converter) convertColumnRef(cr *pg_query.ColumnRef) (ast.Expr, error) {
	pos := c.posAt(int(cr.Location))
	if _, isStar := starFields(cr.Fields); isStar {
		return nil, c.unsupported("* outside projection list", int(cr.Location))
	}
	var parts []string
	for _, f := range cr.Fields {
		s, ok := f.Node.(*pg_query.Node_String_)
		if !ok {
			return nil, c.unsupported("column reference field", int(cr.Location))
		}
		parts = append(parts, s.String_.Sval)
	}
	switch len(parts) {
	case 1:
		return &ast.ColumnRef{Column: parts[0], Pos: pos}, nil
	case 2:
		return &ast.ColumnRef{Table: parts[0], Column: parts[1], Pos: pos}, nil
	default:
		return nil, c.unsupported("multi-part column reference", int(cr.Location))
	}
}

// convertAExpr handles every operator the grammar folds into A_Expr rather
// than its own node type: plain binary/unary operators, BETWEEN, LIKE/ILIKE,
// and IN.
func (c *converter) convertAExpr(a *pg_query.A_Expr) (ast.Expr, error) {
	pos := c.posAt(int(a.Location))

	opName := ""
	if len(a.Name) > 0 {
		if s, ok := a.Name[0].Node.(*pg_query.Node_String_); ok {
			opName = s.String_.Sval
		}
	}

	switch a.Kind {
	case pg_query.A_Expr_Kind_AEXPR_OP:
		return c.convertBinaryOrUnary(opName, a, pos)
	case pg_query.A_Expr_Kind_AEXPR_LIKE, pg_query.A_Expr_Kind_AEXPR_ILIKE:
		// Postgres's grammar folds "NOT LIKE"/"NOT ILIKE" into these same
		// kinds, distinguished only by the negated operator spelling
		// ("!~~"/"!~~*" vs "~~"/"~~*").
		left, err := c.convertExpr(a.Lexpr)
		if err != nil {
			return nil, err
		}
		pattern, err := c.convertExpr(a.Rexpr)
		if err != nil {
			return nil, err
		}
		return &ast.LikeExpr{Left: left, Not: strings.HasPrefix(opName, "!"), Pattern: pattern, Pos: pos}, nil
	case pg_query.A_Expr_Kind_AEXPR_BETWEEN, pg_query.A_Expr_Kind_AEXPR_NOT_BETWEEN:
		left, err := c.convertExpr(a.Lexpr)
		if err != nil {
			return nil, err
		}
		list, ok := a.Rexpr.Node.(*pg_query.Node_List)
		if !ok || len(list.List.Items) != 2 {
			return nil, c.errAt("malformed BETWEEN bounds", int(a.Location))
		}
		low, err := c.convertExpr(list.List.Items[0])
		if err != nil {
			return nil, err
		}
		high, err := c.convertExpr(list.List.Items[1])
		if err != nil {
			return nil, err
		}
		return &ast.BetweenExpr{
			Left: left,
			Not:  a.Kind == pg_query.A_Expr_Kind_AEXPR_NOT_BETWEEN,
			Low:  low,
			High: high,
			Pos:  pos,
		}, nil
	case pg_query.A_Expr_Kind_AEXPR_IN:
		return c.convertInList(a, opName == "<>", pos)
	default:
		return nil, c.unsupported("operator expression kind", int(a.Location))
	}
}

func (c *converter) convertInList(a *pg_query.A_Expr, not bool, pos ast.Pos) (ast.Expr, error) {
	left, err := c.convertExpr(a.Lexpr)
	if err != nil {
		return nil, err
	}
	list, ok := a.Rexpr.Node.(*pg_query.Node_List)
	if !ok {
		return nil, c.errAt("malformed IN list", int(a.Location))
	}
	var values []ast.Expr
	for _, v := range list.List.Items {
		ve, err := c.convertExpr(v)
		if err != nil {
			return nil, err
		}
		values = append(values, ve)
	}
	return &ast.InExpr{Left: left, Not: not, Values: values, Pos: pos}, nil
}

var binaryOps = map[string]ast.BinaryOp{
	"+": ast.OpAdd, "-": ast.OpSub, "*": ast.OpMul, "/": ast.OpDiv, "%": ast.OpMod,
	"=": ast.OpEq, "<>": ast.OpNeq, "!=": ast.OpNeq,
	"<": ast.OpLt, "<=": ast.OpLte, ">": ast.OpGt, ">=": ast.OpGte,
	"||": ast.OpConcat,
}

func (c *converter) convertBinaryOrUnary(opName string, a *pg_query.A_Expr, pos ast.Pos) (ast.Expr, error) {
	if a.Lexpr == nil {
		// Unary prefix operator, e.g. "-x".
		operand, err := c.convertExpr(a.Rexpr)
		if err != nil {
			return nil, err
		}
		if opName == "-" {
			return &ast.UnaryExpr{Op: ast.OpNeg, Operand: operand, Pos: pos}, nil
		}
		return nil, c.unsupported("unary operator "+opName, int(a.Location))
	}

	op, ok := binaryOps[opName]
	if !ok {
		return nil, c.unsupported("operator "+opName, int(a.Location))
	}
	left, err := c.convertExpr(a.Lexpr)
	if err != nil {
		return nil, err
	}
	right, err := c.convertExpr(a.Rexpr)
	if err != nil {
		return nil, err
	}
	return &ast.BinaryExpr{Left: left, Op: op, Right: right, Pos: pos}, nil
}

func (c *converter) convertBoolExpr(b *pg_query.BoolExpr) (ast.Expr, error) {
	pos := c.posAt(int(b.Location))
	switch b.Boolop {
	case pg_query.BoolExprType_NOT_EXPR:
		if len(b.Args) != 1 {
			return nil, c.errAt("malformed NOT", int(b.Location))
		}
		operand, err := c.convertExpr(b.Args[0])
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: ast.OpNot, Operand: operand, Pos: pos}, nil
	case pg_query.BoolExprType_AND_EXPR, pg_query.BoolExprType_OR_EXPR:
		if len(b.Args) < 2 {
			return nil, c.errAt("malformed boolean expression", int(b.Location))
		}
		op := ast.OpAnd
		if b.Boolop == pg_query.BoolExprType_OR_EXPR {
			op = ast.OpOr
		}
		expr, err := c.convertExpr(b.Args[0])
		if err != nil {
			return nil, err
		}
		for _, a := range b.Args[1:] {
			right, err := c.convertExpr(a)
			if err != nil {
				return nil, err
			}
			expr = &ast.BinaryExpr{Left: expr, Op: op, Right: right, Pos: pos}
		}
		return expr, nil
	default:
		return nil, c.unsupported("boolean expression", int(b.Location))
	}
}

func (c *converter) convertFuncCall(fc *pg_query.FuncCall) (ast.Expr, error) {
	pos := c.posAt(int(fc.Location))
	if fc.Over != nil {
		return nil, c.unsupported("window function", int(fc.Location))
	}
	if fc.AggFilter != nil {
		return nil, c.unsupported("aggregate FILTER clause", int(fc.Location))
	}

	name := funcNameString(fc.Funcname)

	if fc.AggStar {
		if strings.ToLower(name) != "count" {
			return nil, c.unsupported(name+"(*)", int(fc.Location))
		}
		return &ast.FunctionCall{Name: name, Star: true, Pos: pos}, nil
	}

	var args []ast.Expr
	for _, a := range fc.Args {
		e, err := c.convertExpr(a)
		if err != nil {
			return nil, err
		}
		args = append(args, e)
	}

	return &ast.FunctionCall{
		Name:     name,
		Args:     args,
		Distinct: fc.AggDistinct,
		Pos:      pos,
	}, nil
}

func funcNameString(names []*pg_query.Node) string {
	var parts []string
	for _, n := range names {
		if s, ok := n.Node.(*pg_query.Node_String_); ok {
			parts = append(parts, s.String_.Sval)
		}
	}
	return strings.Join(parts, ".")
}

func (c *converter) convertCaseExpr(ce *pg_query.CaseExpr) (ast.Expr, error) {
	pos := c.posAt(int(ce.Location))
	out := &ast.CaseExpr{Pos: pos}

	if ce.Arg != nil {
		operand, err := c.convertExpr(ce.Arg)
		if err != nil {
			return nil, err
		}
		out.Operand = operand
	}

	for _, w := range ce.Args {
		cw, ok := w.Node.(*pg_query.Node_CaseWhen)
		if !ok {
			continue
		}
		cond, err := c.convertExpr(cw.CaseWhen.Expr)
		if err != nil {
			return nil, err
		}
		result, err := c.convertExpr(cw.CaseWhen.Result)
		if err != nil {
			return nil, err
		}
		out.Whens = append(out.Whens, ast.WhenClause{Condition: cond, Result: result})
	}

	if ce.Defresult != nil {
		elseExpr, err := c.convertExpr(ce.Defresult)
		if err != nil {
			return nil, err
		}
		out.Else = elseExpr
	}

	return out, nil
}

func (c *converter) convertTypeCast(tc *pg_query.TypeCast) (ast.Expr, error) {
	pos := c.posAt(int(tc.Location))
	inner, err := c.convertExpr(tc.Arg)
	if err != nil {
		return nil, err
	}
	typeName, err := typeNameString(tc.TypeName)
	if err != nil {
		return nil, err
	}
	return &ast.CastExpr{Expr: inner, TypeName: typeName, Pos: pos}, nil
}

func (c *converter) convertCoalesceExpr(ce *pg_query.CoalesceExpr) (ast.Expr, error) {
	pos := c.posAt(int(ce.Location))
	out := &ast.CoalesceExpr{Pos: pos}
	for _, a := range ce.Args {
		e, err := c.convertExpr(a)
		if err != nil {
			return nil, err
		}
		out.Args = append(out.Args, e)
	}
	return out, nil
}

func (c *converter) convertNullTest(nt *pg_query.NullTest) (ast.Expr, error) {
	pos := c.posAt(int(nt.Location))
	left, err := c.convertExpr(nt.Arg)
	if err != nil {
		return nil, err
	}
	return &ast.IsNullExpr{Left: left, Not: nt.Nulltesttype == pg_query.NullTestType_IS_NOT_NULL, Pos: pos}, nil
}

func (c *converter) convertSubLink(sl *pg_query.SubLink) (ast.Expr, error) {
	pos := c.posAt(int(sl.Location))
	if sl.Subselect == nil {
		return nil, c.errAt("empty subquery", int(sl.Location))
	}
	sel, ok := sl.Subselect.Node.(*pg_query.Node_SelectStmt)
	if !ok {
		return nil, c.unsupported("non-SELECT subquery", int(sl.Location))
	}
	body, err := c.convertSelectWrapperAsSelect(sel.SelectStmt)
	if err != nil {
		return nil, err
	}

	switch sl.SubLinkType {
	case pg_query.SubLinkType_EXISTS_SUBLINK:
		return &ast.ExistsExpr{Subquery: body, Pos: pos}, nil
	case pg_query.SubLinkType_ANY_SUBLINK, pg_query.SubLinkType_ALL_SUBLINK:
		if sl.Testexpr == nil {
			return nil, c.unsupported("ANY/ALL without left operand", int(sl.Location))
		}
		left, err := c.convertExpr(sl.Testexpr)
		if err != nil {
			return nil, err
		}
		if sl.SubLinkType == pg_query.SubLinkType_ALL_SUBLINK {
			return nil, c.unsupported("ALL (subquery)", int(sl.Location))
		}
		return &ast.InExpr{Left: left, Subquery: body, Pos: pos}, nil
	case pg_query.SubLinkType_EXPR_SUBLINK:
		return &ast.SubqueryExpr{Query: body, Pos: pos}, nil
	default:
		return nil, c.unsupported("subquery form", int(sl.Location))
	}
}
