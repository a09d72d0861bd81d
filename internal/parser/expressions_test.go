package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqlfront/sqlfront/internal/ast"
	"github.com/sqlfront/sqlfront/internal/lexer"
)

func parseExpr(t *testing.T, src string) ast.Expression {
	t.Helper()
	sel := parseSelect(t, "SELECT "+src)
	require.Len(t, sel.Columns, 1)
	ec, ok := sel.Columns[0].(*ast.ExpressionResultColumn)
	require.True(t, ok)
	return ec.Expr
}

func parseSelect(t *testing.T, src string) *ast.SelectStatement {
	t.Helper()
	tokens, err := lexer.Tokenize(src)
	require.NoError(t, err)
	p := New(src, tokens)
	stmts := p.ParseProgram()
	require.Empty(t, p.Errors())
	require.Len(t, stmts, 1)
	sel, ok := stmts[0].(*ast.SelectStatement)
	require.True(t, ok)
	return sel
}

func TestPrecedenceOrBindsLooserThanAnd(t *testing.T) {
	// a OR b AND c == a OR (b AND c)
	expr := parseExpr(t, "a OR b AND c")
	or, ok := expr.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.OpOr, or.Op)
	and, ok := or.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.OpAnd, and.Op)
}

func TestPrecedenceComparisonBindsTighterThanAnd(t *testing.T) {
	// a = 1 AND b = 2 == (a = 1) AND (b = 2)
	expr := parseExpr(t, "a = 1 AND b = 2")
	and, ok := expr.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.OpAnd, and.Op)
	_, ok = and.Left.(*ast.BinaryExpr)
	require.True(t, ok)
	_, ok = and.Right.(*ast.BinaryExpr)
	require.True(t, ok)
}

func TestPrecedenceConcatBindsTighterThanAdditive(t *testing.T) {
	// a || b + c == (a || b) + c
	expr := parseExpr(t, "a || b + c")
	add, ok := expr.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.OpAdd, add.Op)
	concat, ok := add.Left.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.OpConcat, concat.Op)
}

func TestPrecedenceMultiplicativeBindsTighterThanAdditive(t *testing.T) {
	expr := parseExpr(t, "a + b * c")
	add, ok := expr.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.OpAdd, add.Op)
	mul, ok := add.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.OpMul, mul.Op)
}

func TestPrecedenceUnaryMinusBindsTighterThanMultiplicative(t *testing.T) {
	expr := parseExpr(t, "-a * b")
	mul, ok := expr.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.OpMul, mul.Op)
	_, ok = mul.Left.(*ast.UnaryExpr)
	require.True(t, ok)
}

func TestBetweenInnerAndIsNotConjunction(t *testing.T) {
	// a BETWEEN 1 AND 2 must parse as one ternary node, not
	// `a BETWEEN 1` AND `2`.
	expr := parseExpr(t, "a BETWEEN 1 AND 2")
	b, ok := expr.(*ast.BetweenExpr)
	require.True(t, ok)
	require.False(t, b.Negated)
	lit, ok := b.Lower.(*ast.Literal)
	require.True(t, ok)
	require.EqualValues(t, 1, lit.Value)
	lit, ok = b.Upper.(*ast.Literal)
	require.True(t, ok)
	require.EqualValues(t, 2, lit.Value)
}

func TestBetweenCombinesWithOuterAnd(t *testing.T) {
	// x AND a BETWEEN 1 AND 2 AND y must still see the BETWEEN's own AND
	// as ternary punctuation, with the outer ANDs left intact.
	expr := parseExpr(t, "x AND a BETWEEN 1 AND 2 AND y")
	top, ok := expr.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.OpAnd, top.Op)
}

func TestNotBindsBetweenAndAndOr(t *testing.T) {
	// a OR NOT b = c AND d must parse as a OR ((NOT (b = c)) AND d):
	// NOT grabs only the equality immediately after it.
	expr := parseExpr(t, "a OR NOT b = c AND d")
	or, ok := expr.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.OpOr, or.Op)
	and, ok := or.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.OpAnd, and.Op)
	not, ok := and.Left.(*ast.UnaryExpr)
	require.True(t, ok)
	require.Equal(t, ast.OpNot, not.Op)
	_, ok = not.Operand.(*ast.BinaryExpr)
	require.True(t, ok)
}

func TestInListForm(t *testing.T) {
	expr := parseExpr(t, "a IN (1, 2, 3)")
	in, ok := expr.(*ast.InExpr)
	require.True(t, ok)
	require.False(t, in.Negated)
	require.Len(t, in.List, 3)
	require.Nil(t, in.Subquery)
	require.Nil(t, in.Variable)
}

func TestInArrayVariableForm(t *testing.T) {
	expr := parseExpr(t, "a IN ?")
	in, ok := expr.(*ast.InExpr)
	require.True(t, ok)
	require.NotNil(t, in.Variable)
	require.False(t, in.Parenthesized)
}

func TestInScalarParenthesizedVariableForm(t *testing.T) {
	expr := parseExpr(t, "a IN (?)")
	in, ok := expr.(*ast.InExpr)
	require.True(t, ok)
	require.NotNil(t, in.Variable)
	require.True(t, in.Parenthesized)
}

func TestInSubqueryForm(t *testing.T) {
	expr := parseExpr(t, "a IN (SELECT id FROM t)")
	in, ok := expr.(*ast.InExpr)
	require.True(t, ok)
	require.NotNil(t, in.Subquery)
}

func TestNotInIsNegated(t *testing.T) {
	expr := parseExpr(t, "a NOT IN (1, 2)")
	in, ok := expr.(*ast.InExpr)
	require.True(t, ok)
	require.True(t, in.Negated)
}

func TestLikeWithEscape(t *testing.T) {
	expr := parseExpr(t, "a LIKE '%x%' ESCAPE '\\'")
	like, ok := expr.(*ast.LikeExpr)
	require.True(t, ok)
	require.Equal(t, ast.OpLike, like.Op)
	require.NotNil(t, like.Escape)
}

func TestCaseSearchedForm(t *testing.T) {
	expr := parseExpr(t, "CASE WHEN a = 1 THEN 'one' WHEN a = 2 THEN 'two' ELSE 'other' END")
	c, ok := expr.(*ast.CaseExpr)
	require.True(t, ok)
	require.Nil(t, c.Subject)
	require.Len(t, c.Whens, 2)
	require.NotNil(t, c.Else)
}

func TestCaseSimpleForm(t *testing.T) {
	expr := parseExpr(t, "CASE a WHEN 1 THEN 'one' END")
	c, ok := expr.(*ast.CaseExpr)
	require.True(t, ok)
	require.NotNil(t, c.Subject)
}

func TestCastExpressionSynthesizesFunctionCall(t *testing.T) {
	expr := parseExpr(t, "CAST(a AS INTEGER)")
	fc, ok := expr.(*ast.FunctionCall)
	require.True(t, ok)
	require.Equal(t, "cast", fc.Name)
	require.Len(t, fc.Args, 2)
	lit, ok := fc.Args[1].(*ast.Literal)
	require.True(t, ok)
	require.Equal(t, "INTEGER", lit.Value)
}

func TestBindVariableStableIndexInvariant(t *testing.T) {
	src := "SELECT a FROM t WHERE x = ? AND y = ?2 AND z = :n AND w = :n"
	tokens, err := lexer.Tokenize(src)
	require.NoError(t, err)
	p := New(src, tokens)
	p.ParseProgram()
	vars := p.Variables()
	require.Len(t, vars, 4)
	require.Equal(t, 1, vars[0].Index)  // anonymous '?' takes the next index
	require.Equal(t, 2, vars[1].Index)  // '?2' pins its own index explicitly
	require.Equal(t, 3, vars[2].Index)  // first ':n' takes the next free index
	require.Equal(t, 3, vars[3].Index)  // second ':n' shares the first's index
}

func TestWindowFunctionFrameBound(t *testing.T) {
	expr := parseExpr(t, "row_number() OVER (ORDER BY a RANGE ? PRECEDING)")
	wf, ok := expr.(*ast.WindowFunction)
	require.True(t, ok)
	require.NotNil(t, wf.Window)
	require.Equal(t, "RANGE", wf.Window.FrameKind)
	require.NotNil(t, wf.Window.FrameStart)
	_, ok = wf.Window.FrameStart.Expr.(*ast.Variable)
	require.True(t, ok)
}

func TestCountStar(t *testing.T) {
	expr := parseExpr(t, "count(*)")
	fc, ok := expr.(*ast.FunctionCall)
	require.True(t, ok)
	require.True(t, fc.Star)
}

func TestQualifiedReference(t *testing.T) {
	expr := parseExpr(t, "t.c")
	ref, ok := expr.(*ast.Reference)
	require.True(t, ok)
	require.Equal(t, "t", ref.TableAlias)
	require.Equal(t, "c", ref.Column)
}
