package scope

import "github.com/coreyja-studio/sql-check/pkg/ast"

// JoinNullability computes the pair of join_nullable flags a join
// contributes to its left and right sides, given the flags the left side
// already carries coming into this join. The right side of a
// freshly-seen table always starts from false.
//
// Nesting preserves monotonicity: a side already nullable from an earlier
// join in this left-deep chain stays nullable no matter what a later join
// says about it, so callers OR this function's result into the running
// flag rather than overwriting it.
func JoinNullability(jt ast.JoinType, leftWasNullable bool) (leftNullable, rightNullable bool) {
	switch jt {
	case ast.JoinInner, ast.JoinCross:
		return leftWasNullable, false
	case ast.JoinLeft:
		return leftWasNullable, true
	case ast.JoinRight:
		return true, false
	case ast.JoinFull:
		return true, true
	default:
		return leftWasNullable, false
	}
}
