package ast

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqlfront/sqlfront/internal/token"
)

func TestChildrenBinaryExpr(t *testing.T) {
	gen := &IDGen{}
	left := &Literal{Base: NewBase(gen.Next(), token.Span{}), Kind: LiteralInt, Value: int64(1)}
	right := &Reference{Base: NewBase(gen.Next(), token.Span{}), Column: "id"}
	bin := &BinaryExpr{Base: NewBase(gen.Next(), token.Span{}), Op: OpEq, Left: left, Right: right}

	cs := Children(bin)
	require.Equal(t, []Node{left, right}, cs)
	require.Empty(t, Children(left))
}

func TestIDGenMonotonic(t *testing.T) {
	gen := &IDGen{}
	a := gen.Next()
	b := gen.Next()
	require.NotEqual(t, a, b)
	require.Equal(t, NodeID(1), a)
	require.Equal(t, NodeID(2), b)
}

type countingVisitor struct {
	NopVisitor
	selects int
}

func (c *countingVisitor) VisitSelectStatement(n *SelectStatement) { c.selects++ }

func TestAcceptDispatchesToVisitor(t *testing.T) {
	gen := &IDGen{}
	sel := &SelectStatement{Base: NewBase(gen.Next(), token.Span{})}
	v := &countingVisitor{}
	sel.Accept(v)
	require.Equal(t, 1, v.selects)
}
