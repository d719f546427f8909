// Package typer assigns a (sql_type, nullable) pair to every expression
// node, given the Scope the expression is evaluated in.
package typer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/coreyja-studio/sql-check/pkg/ast"
	"github.com/coreyja-studio/sql-check/pkg/scope"
	"github.com/coreyja-studio/sql-check/pkg/sqltype"
)

// Info is the (sql_type, nullable) pair an expression types to, plus
// whether it is an aggregate call.
type Info struct {
	Type        sqltype.Value
	Nullable    bool
	IsAggregate bool
}

// SubqueryResolver analyzes a nested SELECT block used as a value-context
// subquery (scalar subquery, IN (subquery)) and reports the type of its
// sole projected output column. An EXISTS (subquery) is typed Boolean
// without being resolved. Resolving a full SELECT block — seeding scope
// from FROM, handling joins, typing the projection — belongs one layer up
// in pkg/analyzer, which imports pkg/typer; this interface is the seam
// that lets the typer call back into pkg/analyzer without importing it.
type SubqueryResolver interface {
	ResolveSubquery(parent *scope.Scope, sel *ast.SelectStmt) (Info, error)
}

// Typer types expressions against a Scope, delegating nested SELECT blocks
// to a SubqueryResolver.
type Typer struct {
	Subqueries SubqueryResolver
}

// New creates a Typer that resolves nested SELECT blocks via sub.
func New(sub SubqueryResolver) *Typer {
	return &Typer{Subqueries: sub}
}

// TypeMismatchError reports that two or more branches of a COALESCE/CASE
// could not be unified to a common type.
type TypeMismatchError struct {
	Context string
	Left    sqltype.Type
	Right   sqltype.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch in %s: %s vs %s", e.Context, e.Left, e.Right)
}

// UnknownColumnError, UnknownTableError, and AmbiguousColumnError mirror
// scope.ColumnLookupError as proper errors so a caller can translate them
// into the matching AnalysisError.
type UnknownColumnError struct {
	Table  string
	Column string
}

func (e *UnknownColumnError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("unknown column %q on table %q", e.Column, e.Table)
	}
	return fmt.Sprintf("unknown column %q", e.Column)
}

type UnknownTableError struct{ Table string }

func (e *UnknownTableError) Error() string { return fmt.Sprintf("unknown table alias %q", e.Table) }

type AmbiguousColumnError struct{ Column string }

func (e *AmbiguousColumnError) Error() string {
	return fmt.Sprintf("ambiguous column reference %q", e.Column)
}

// UnsupportedError names a construct the typer recognizes but does not
// support (e.g. a function outside the fixed builtin set), matching
// sqlparse.UnsupportedError's role one layer up.
type UnsupportedError struct{ Construct string }

func (e *UnsupportedError) Error() string { return "unsupported construct: " + e.Construct }

// Type computes the (sql_type, nullable) pair for an expression evaluated
// in scope s.
func (t *Typer) Type(s *scope.Scope, e ast.Expr) (Info, error) {
	switch n := e.(type) {
	case *ast.LiteralExpr:
		return typeLiteral(n), nil
	case *ast.ColumnRef:
		return typeColumnRef(s, n)
	case *ast.Placeholder:
		return Info{Type: sqltype.Of(sqltype.Unknown), Nullable: true}, nil
	case *ast.BinaryExpr:
		return t.typeBinary(s, n)
	case *ast.UnaryExpr:
		return t.typeUnary(s, n)
	case *ast.FunctionCall:
		return t.typeFunctionCall(s, n)
	case *ast.CoalesceExpr:
		return t.typeCoalesce(s, n)
	case *ast.CaseExpr:
		return t.typeCase(s, n)
	case *ast.CastExpr:
		return t.typeCast(s, n)
	case *ast.InExpr:
		return t.typeIn(s, n)
	case *ast.BetweenExpr:
		return t.typeBetween(s, n)
	case *ast.LikeExpr:
		return t.typeLike(s, n)
	case *ast.IsNullExpr:
		return t.typeIsNull(s, n)
	case *ast.ExistsExpr:
		return Info{Type: sqltype.Of(sqltype.Boolean), Nullable: false}, nil
	case *ast.SubqueryExpr:
		return t.typeSubquery(s, n)
	case *ast.ParenExpr:
		return t.Type(s, n.Expr)
	case *ast.SelectStmt:
		// A SelectStmt reached directly as an Expr is a scalar subquery
		// operand that sqlparse didn't wrap (defensive: sqlparse always
		// wraps these in SubqueryExpr, but Expr's interface permits it).
		return t.resolveSubquery(s, n)
	default:
		return Info{}, &UnsupportedError{Construct: fmt.Sprintf("expression %T", e)}
	}
}

func (t *Typer) resolveSubquery(s *scope.Scope, sel *ast.SelectStmt) (Info, error) {
	if t.Subqueries == nil {
		return Info{}, &UnsupportedError{Construct: "subquery"}
	}
	return t.Subqueries.ResolveSubquery(s, sel)
}

func typeLiteral(n *ast.LiteralExpr) Info {
	switch n.Kind {
	case ast.LitNull:
		return Info{Type: sqltype.Of(sqltype.Unknown), Nullable: true}
	case ast.LitBoolean:
		return Info{Type: sqltype.Of(sqltype.Boolean), Nullable: false}
	case ast.LitString:
		return Info{Type: sqltype.Of(sqltype.Text), Nullable: false}
	case ast.LitInteger:
		if _, err := strconv.ParseInt(n.Value, 10, 32); err == nil {
			return Info{Type: sqltype.Of(sqltype.Integer), Nullable: false}
		}
		return Info{Type: sqltype.Of(sqltype.BigInt), Nullable: false}
	case ast.LitNumeric:
		return Info{Type: sqltype.Of(sqltype.Numeric), Nullable: false}
	default:
		return Info{Type: sqltype.Of(sqltype.Unknown), Nullable: true}
	}
}

func typeColumnRef(s *scope.Scope, n *ast.ColumnRef) (Info, error) {
	var col *scope.Column
	var errCode scope.ColumnLookupError

	if n.Table != "" {
		col, errCode = s.LookupQualified(n.Table, n.Column)
	} else {
		col, errCode = s.LookupUnqualified(n.Column)
	}

	switch errCode {
	case scope.LookupOK:
		return Info{Type: col.Type, Nullable: col.Nullable}, nil
	case scope.LookupUnknownTable:
		return Info{}, &UnknownTableError{Table: n.Table}
	case scope.LookupAmbiguousColumn:
		return Info{}, &AmbiguousColumnError{Column: n.Column}
	default:
		table := n.Table
		if table == "" && len(s.Tables()) == 1 {
			// An unqualified miss against a single-table FROM can still
			// name the table in the error without guessing, since there is
			// only one candidate; with more than one table in scope there is
			// no way to attribute the miss to either.
			table = s.Tables()[0].Alias
		}
		return Info{}, &UnknownColumnError{Table: table, Column: n.Column}
	}
}

func (t *Typer) typeUnary(s *scope.Scope, n *ast.UnaryExpr) (Info, error) {
	operand, err := t.Type(s, n.Operand)
	if err != nil {
		return Info{}, err
	}
	switch n.Op {
	case ast.OpNeg:
		return operand, nil
	case ast.OpNot:
		return Info{Type: sqltype.Of(sqltype.Boolean), Nullable: operand.Nullable}, nil
	default:
		return Info{}, &UnsupportedError{Construct: "unary operator"}
	}
}

var comparisonOps = map[ast.BinaryOp]bool{
	ast.OpEq: true, ast.OpNeq: true, ast.OpLt: true, ast.OpLte: true,
	ast.OpGt: true, ast.OpGte: true,
}

var booleanOps = map[ast.BinaryOp]bool{ast.OpAnd: true, ast.OpOr: true}

func (t *Typer) typeBinary(s *scope.Scope, n *ast.BinaryExpr) (Info, error) {
	left, err := t.Type(s, n.Left)
	if err != nil {
		return Info{}, err
	}
	right, err := t.Type(s, n.Right)
	if err != nil {
		return Info{}, err
	}
	nullable := left.Nullable || right.Nullable

	switch {
	case comparisonOps[n.Op] || booleanOps[n.Op]:
		return Info{Type: sqltype.Of(sqltype.Boolean), Nullable: nullable}, nil
	case n.Op == ast.OpConcat:
		return Info{Type: sqltype.Of(sqltype.Text), Nullable: nullable}, nil
	default:
		// Arithmetic: numeric-category operands, result is the
		// higher-precision operand. An Unknown operand (NULL literal,
		// placeholder) doesn't pin a category; the other side's type
		// wins.
		lt, rt := left.Type.Tag, right.Type.Tag
		if lt == sqltype.Unknown {
			return Info{Type: sqltype.Of(rt), Nullable: nullable}, nil
		}
		if rt == sqltype.Unknown {
			return Info{Type: sqltype.Of(lt), Nullable: nullable}, nil
		}
		if !lt.IsNumeric() || !rt.IsNumeric() {
			return Info{}, &TypeMismatchError{Context: "arithmetic expression", Left: lt, Right: rt}
		}
		return Info{Type: sqltype.Of(sqltype.CommonNumeric(lt, rt)), Nullable: nullable}, nil
	}
}

func (t *Typer) typeIsNull(s *scope.Scope, n *ast.IsNullExpr) (Info, error) {
	if _, err := t.Type(s, n.Left); err != nil {
		return Info{}, err
	}
	return Info{Type: sqltype.Of(sqltype.Boolean), Nullable: false}, nil
}

func (t *Typer) typeLike(s *scope.Scope, n *ast.LikeExpr) (Info, error) {
	left, err := t.Type(s, n.Left)
	if err != nil {
		return Info{}, err
	}
	pattern, err := t.Type(s, n.Pattern)
	if err != nil {
		return Info{}, err
	}
	return Info{Type: sqltype.Of(sqltype.Boolean), Nullable: left.Nullable || pattern.Nullable}, nil
}

func (t *Typer) typeBetween(s *scope.Scope, n *ast.BetweenExpr) (Info, error) {
	left, err := t.Type(s, n.Left)
	if err != nil {
		return Info{}, err
	}
	low, err := t.Type(s, n.Low)
	if err != nil {
		return Info{}, err
	}
	high, err := t.Type(s, n.High)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Type:     sqltype.Of(sqltype.Boolean),
		Nullable: left.Nullable || low.Nullable || high.Nullable,
	}, nil
}

func (t *Typer) typeIn(s *scope.Scope, n *ast.InExpr) (Info, error) {
	left, err := t.Type(s, n.Left)
	if err != nil {
		return Info{}, err
	}
	nullable := left.Nullable
	if n.Subquery != nil {
		if _, err := t.resolveSubquery(s, n.Subquery); err != nil {
			return Info{}, err
		}
	}
	for _, v := range n.Values {
		vi, err := t.Type(s, v)
		if err != nil {
			return Info{}, err
		}
		nullable = nullable || vi.Nullable
	}
	return Info{Type: sqltype.Of(sqltype.Boolean), Nullable: nullable}, nil
}

func (t *Typer) typeCast(s *scope.Scope, n *ast.CastExpr) (Info, error) {
	inner, err := t.Type(s, n.Expr)
	if err != nil {
		return Info{}, err
	}
	target := sqltype.FromDDLName(n.TypeName)
	return Info{Type: target, Nullable: inner.Nullable}, nil
}

func (t *Typer) typeCoalesce(s *scope.Scope, n *ast.CoalesceExpr) (Info, error) {
	if len(n.Args) == 0 {
		return Info{}, &TypeMismatchError{Context: "COALESCE with no arguments"}
	}
	result := sqltype.Of(sqltype.Unknown)
	allNullable := true
	for i, arg := range n.Args {
		ai, err := t.Type(s, arg)
		if err != nil {
			return Info{}, err
		}
		if !ai.Nullable {
			allNullable = false
		}
		if i == 0 {
			result = ai.Type
			continue
		}
		common, ok := sqltype.Common(result.Tag, ai.Type.Tag)
		if !ok {
			return Info{}, &TypeMismatchError{Context: "COALESCE", Left: result.Tag, Right: ai.Type.Tag}
		}
		result = sqltype.Of(common)
	}
	return Info{Type: result, Nullable: allNullable}, nil
}

func (t *Typer) typeCase(s *scope.Scope, n *ast.CaseExpr) (Info, error) {
	if n.Operand != nil {
		if _, err := t.Type(s, n.Operand); err != nil {
			return Info{}, err
		}
	}

	var result sqltype.Value
	haveResult := false
	anyNullable := n.Else == nil // implicit ELSE NULL

	for _, w := range n.Whens {
		if _, err := t.Type(s, w.Condition); err != nil {
			return Info{}, err
		}
		ri, err := t.Type(s, w.Result)
		if err != nil {
			return Info{}, err
		}
		if ri.Nullable {
			anyNullable = true
		}
		if !haveResult {
			result = ri.Type
			haveResult = true
			continue
		}
		common, ok := sqltype.Common(result.Tag, ri.Type.Tag)
		if !ok {
			return Info{}, &TypeMismatchError{Context: "CASE branches", Left: result.Tag, Right: ri.Type.Tag}
		}
		result = sqltype.Of(common)
	}

	if n.Else != nil {
		ei, err := t.Type(s, n.Else)
		if err != nil {
			return Info{}, err
		}
		if ei.Nullable {
			anyNullable = true
		}
		if !haveResult {
			result = ei.Type
			haveResult = true
		} else {
			common, ok := sqltype.Common(result.Tag, ei.Type.Tag)
			if !ok {
				return Info{}, &TypeMismatchError{Context: "CASE ELSE", Left: result.Tag, Right: ei.Type.Tag}
			}
			result = sqltype.Of(common)
		}
	}

	if !haveResult {
		result = sqltype.Of(sqltype.Unknown)
	}
	return Info{Type: result, Nullable: anyNullable}, nil
}

func (t *Typer) typeSubquery(s *scope.Scope, n *ast.SubqueryExpr) (Info, error) {
	info, err := t.resolveSubquery(s, n.Query)
	if err != nil {
		return Info{}, err
	}
	info.Nullable = true // a scalar subquery's result is always nullable
	return info, nil
}

// functionNameCanonical is the fixed table of aggregate/scalar functions
// this typer recognizes; anything else is unsupported.
var functionNameCanonical = map[string]string{
	"count": "count", "min": "min", "max": "max", "sum": "sum", "avg": "avg", "now": "now",
}

func (t *Typer) typeFunctionCall(s *scope.Scope, n *ast.FunctionCall) (Info, error) {
	name := strings.ToLower(n.Name)
	canonical, known := functionNameCanonical[name]
	if !known {
		return Info{}, &UnsupportedError{Construct: "function " + n.Name}
	}

	switch canonical {
	case "count":
		if n.Star {
			return Info{Type: sqltype.Of(sqltype.BigInt), Nullable: false, IsAggregate: true}, nil
		}
		if len(n.Args) != 1 {
			return Info{}, &UnsupportedError{Construct: "COUNT with more than one argument"}
		}
		if _, err := t.Type(s, n.Args[0]); err != nil {
			return Info{}, err
		}
		return Info{Type: sqltype.Of(sqltype.BigInt), Nullable: false, IsAggregate: true}, nil

	case "min", "max":
		if len(n.Args) != 1 {
			return Info{}, &UnsupportedError{Construct: canonical + " arity"}
		}
		arg, err := t.Type(s, n.Args[0])
		if err != nil {
			return Info{}, err
		}
		return Info{Type: arg.Type, Nullable: true, IsAggregate: true}, nil

	case "sum", "avg":
		if len(n.Args) != 1 {
			return Info{}, &UnsupportedError{Construct: canonical + " arity"}
		}
		if _, err := t.Type(s, n.Args[0]); err != nil {
			return Info{}, err
		}
		// Always Numeric regardless of input type family — a deliberate
		// simplification rather than modeling Postgres's per-type SUM/AVG
		// result promotion rules exactly.
		return Info{Type: sqltype.Of(sqltype.Numeric), Nullable: true, IsAggregate: true}, nil

	case "now":
		if len(n.Args) != 0 {
			return Info{}, &UnsupportedError{Construct: "NOW() with arguments"}
		}
		return Info{Type: sqltype.Of(sqltype.Timestamptz), Nullable: false}, nil

	default:
		return Info{}, &UnsupportedError{Construct: "function " + n.Name}
	}
}
