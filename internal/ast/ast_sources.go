package ast

// TableReference is a bare `name [AS alias]` FROM-clause entry, and is
// also reused as the target of INSERT/UPDATE/DELETE.
type TableReference struct {
	Base
	Name  string
	Alias string
}

func (n *TableReference) tableSourceNode() {}
func (n *TableReference) Accept(v Visitor) { v.VisitTableReference(n) }

// SelectStatementAsSource is a derived table: `(SELECT ...) [AS alias]`
// occurring in a FROM clause.
type SelectStatementAsSource struct {
	Base
	Select *SelectStatement
	Alias  string
}

func (n *SelectStatementAsSource) tableSourceNode() {}
func (n *SelectStatementAsSource) Accept(v Visitor)  { v.VisitSelectStatementAsSource(n) }

// StarResultColumn is `*` or `table.*` in a result column list.
type StarResultColumn struct {
	Base
	TableAlias string // empty for bare `*`
}

func (n *StarResultColumn) resultColumnNode() {}
func (n *StarResultColumn) Accept(v Visitor)  { v.VisitStarResultColumn(n) }

// ExpressionResultColumn is `expr [AS alias]` in a result column list.
type ExpressionResultColumn struct {
	Base
	Expr  Expression
	Alias string
}

func (n *ExpressionResultColumn) resultColumnNode() {}
func (n *ExpressionResultColumn) typeableNode()     {}
func (n *ExpressionResultColumn) Accept(v Visitor)  { v.VisitExpressionResultColumn(n) }
