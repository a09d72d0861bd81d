// Package ast defines the tagged-variant AST produced by the parser and
// walked by the analyzer. Every node carries a stable NodeID and its
// source span; parent back-references are never stored on the node
// itself (that would need an owning cycle) but recorded externally by
// the set-parent pass as NodeID -> Node, the same way the analyzer's
// type and reference maps key on node identity.
package ast

import "github.com/sqlfront/sqlfront/internal/token"

// NodeID is the stable identity a node is created with. It never changes
// for the lifetime of the tree and is the key every analysis map (parent,
// type, resolved reference) is built on.
type NodeID int64

// IDGen hands out monotonically increasing NodeIDs. The parser owns one
// instance per parse; it is not safe for concurrent use, matching the
// engine's single-threaded execution model.
type IDGen struct{ next int64 }

func (g *IDGen) Next() NodeID {
	g.next++
	return NodeID(g.next)
}

// Node is implemented by every AST element: statements, clauses,
// expressions, result columns and table sources alike.
type Node interface {
	ID() NodeID
	Span() token.Span
	Accept(v Visitor)
}

// Base is embedded by every concrete node to provide ID() and Span()
// without repeating the bookkeeping in each type.
type Base struct {
	id   NodeID
	span token.Span
}

func (b Base) ID() NodeID      { return b.id }
func (b Base) Span() token.Span { return b.span }

// NewBase constructs the Base every concrete node embeds. Exported
// because Base's fields are not: callers outside this package build a
// node's identity through here, then set their own typed fields.
func NewBase(id NodeID, span token.Span) Base { return Base{id: id, span: span} }

// Statement is any top-level node producible by statement().
type Statement interface {
	Node
	statementNode()
}

// CrudStatement is the subset requiring column/type resolution: SELECT,
// INSERT, UPDATE, DELETE.
type CrudStatement interface {
	Statement
	crudStatementNode()
}

// Expression is any node appearing in value position.
type Expression interface {
	Node
	expressionNode()
}

// Typeable is any node the TypeResolver can assign a ResolveResult to:
// expressions, variables, and result columns.
type Typeable interface {
	Node
	typeableNode()
}

// ResultColumn is one projection in a SELECT's column list.
type ResultColumn interface {
	Node
	resultColumnNode()
}

// TableSource is anything that can appear in a FROM clause: a named
// table reference or a derived sub-select.
type TableSource interface {
	Node
	tableSourceNode()
}

// ErrorNode is a placeholder the parser inserts in place of a statement
// or expression it could not parse, so that panic-mode recovery still
// yields a walkable (if partial) tree.
type ErrorNode struct {
	Base
	Message string
}

func NewErrorNode(id NodeID, span token.Span, message string) *ErrorNode {
	return &ErrorNode{Base: Base{id: id, span: span}, Message: message}
}

func (n *ErrorNode) statementNode()  {}
func (n *ErrorNode) expressionNode() {}
func (n *ErrorNode) typeableNode()   {}
func (n *ErrorNode) Accept(v Visitor) { v.VisitErrorNode(n) }

// Children returns the immediate structural children of a node, in
// source order. It is the single place that knows the shape of every
// node kind, used by the set-parent pass and by any analyzer pass that
// wants generic recursion instead of a dedicated Visit method.
func Children(n Node) []Node {
	switch x := n.(type) {
	case *SelectStatement:
		return x.children()
	case *InsertStatement:
		return x.children()
	case *UpdateStatement:
		return x.children()
	case *DeleteStatement:
		return x.children()
	case *CreateTableStatement:
		return nil
	case *CreateTriggerStatement:
		return x.children()
	case *CreateIndexStatement:
		return nil
	case *FromClause:
		cs := make([]Node, 0, len(x.Sources))
		for _, s := range x.Sources {
			cs = append(cs, s)
		}
		return cs
	case *WhereClause:
		return nonNil(x.Condition)
	case *GroupByClause:
		cs := make([]Node, 0, len(x.Exprs))
		for _, e := range x.Exprs {
			cs = append(cs, e)
		}
		return cs
	case *OrderByClause:
		cs := make([]Node, 0, len(x.Terms))
		for _, t := range x.Terms {
			cs = append(cs, t.Expr)
		}
		return cs
	case *LimitClause:
		return append(nonNil(x.Count), nonNil(x.Offset)...)
	case *HavingClause:
		return nonNil(x.Condition)
	case *WindowClause:
		cs := make([]Node, 0, len(x.Partitions)+len(x.OrderBy)+2)
		for _, e := range x.Partitions {
			cs = append(cs, e)
		}
		for _, t := range x.OrderBy {
			cs = append(cs, t.Expr)
		}
		if x.FrameStart != nil {
			cs = append(cs, nonNil(x.FrameStart.Expr)...)
		}
		if x.FrameEnd != nil {
			cs = append(cs, nonNil(x.FrameEnd.Expr)...)
		}
		return cs
	case *JoinClause:
		cs := []Node{x.Left, x.Right}
		return append(cs, nonNil(x.On)...)
	case *Literal:
		return nil
	case *Reference:
		return nil
	case *Variable:
		return nil
	case *BinaryExpr:
		return []Node{x.Left, x.Right}
	case *UnaryExpr:
		return []Node{x.Operand}
	case *BetweenExpr:
		return []Node{x.Subject, x.Lower, x.Upper}
	case *InExpr:
		cs := []Node{x.Subject}
		for _, e := range x.List {
			cs = append(cs, e)
		}
		if x.Subquery != nil {
			cs = append(cs, x.Subquery)
		}
		if x.Variable != nil {
			cs = append(cs, x.Variable)
		}
		return cs
	case *LikeExpr:
		cs := []Node{x.Subject, x.Pattern}
		return append(cs, nonNil(x.Escape)...)
	case *CaseExpr:
		cs := nonNil(x.Subject)
		for _, w := range x.Whens {
			cs = append(cs, w.Condition, w.Result)
		}
		return append(cs, nonNil(x.Else)...)
	case *FunctionCall:
		cs := make([]Node, 0, len(x.Args))
		for _, a := range x.Args {
			cs = append(cs, a)
		}
		return cs
	case *WindowFunction:
		cs := []Node{x.Call}
		if x.Window != nil {
			cs = append(cs, x.Window)
		}
		return cs
	case *SubqueryExpr:
		return []Node{x.Select}
	case *StarResultColumn:
		return nil
	case *ExpressionResultColumn:
		return []Node{x.Expr}
	case *TableReference:
		return nil
	case *SelectStatementAsSource:
		return []Node{x.Select}
	case *ErrorNode:
		return nil
	default:
		return nil
	}
}

func nonNil(n Node) []Node {
	if n == nil || isNilExpr(n) {
		return nil
	}
	return []Node{n}
}

// isNilExpr guards against typed-nil interfaces (e.g. a *ast.Literal(nil)
// held in an ast.Expression) slipping through the n == nil check.
func isNilExpr(n Node) bool {
	switch v := n.(type) {
	case *Literal:
		return v == nil
	case *Reference:
		return v == nil
	case *Variable:
		return v == nil
	case *BinaryExpr:
		return v == nil
	case *UnaryExpr:
		return v == nil
	case *BetweenExpr:
		return v == nil
	case *InExpr:
		return v == nil
	case *LikeExpr:
		return v == nil
	case *CaseExpr:
		return v == nil
	case *FunctionCall:
		return v == nil
	case *WindowFunction:
		return v == nil
	case *SubqueryExpr:
		return v == nil
	case *ErrorNode:
		return v == nil
	default:
		return false
	}
}
