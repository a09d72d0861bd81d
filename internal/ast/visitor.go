package ast

// Visitor is the tagged-variant dispatch protocol every node's Accept
// method forwards to. Accept never recurses by itself: a Visit method
// that wants to descend into children does so explicitly, usually via
// Children(n) or by reading its own typed fields. This keeps the
// traversal policy (pre-order, post-order, skip subtree, ...) entirely
// in the visitor, not baked into the tree.
type Visitor interface {
	VisitSelectStatement(n *SelectStatement)
	VisitInsertStatement(n *InsertStatement)
	VisitUpdateStatement(n *UpdateStatement)
	VisitDeleteStatement(n *DeleteStatement)
	VisitCreateTableStatement(n *CreateTableStatement)
	VisitCreateTriggerStatement(n *CreateTriggerStatement)
	VisitCreateIndexStatement(n *CreateIndexStatement)

	VisitFromClause(n *FromClause)
	VisitWhereClause(n *WhereClause)
	VisitGroupByClause(n *GroupByClause)
	VisitOrderByClause(n *OrderByClause)
	VisitLimitClause(n *LimitClause)
	VisitHavingClause(n *HavingClause)
	VisitWindowClause(n *WindowClause)
	VisitJoinClause(n *JoinClause)

	VisitLiteral(n *Literal)
	VisitReference(n *Reference)
	VisitVariable(n *Variable)
	VisitBinaryExpr(n *BinaryExpr)
	VisitUnaryExpr(n *UnaryExpr)
	VisitBetweenExpr(n *BetweenExpr)
	VisitInExpr(n *InExpr)
	VisitLikeExpr(n *LikeExpr)
	VisitCaseExpr(n *CaseExpr)
	VisitFunctionCall(n *FunctionCall)
	VisitWindowFunction(n *WindowFunction)
	VisitSubqueryExpr(n *SubqueryExpr)

	VisitStarResultColumn(n *StarResultColumn)
	VisitExpressionResultColumn(n *ExpressionResultColumn)

	VisitTableReference(n *TableReference)
	VisitSelectStatementAsSource(n *SelectStatementAsSource)

	VisitErrorNode(n *ErrorNode)
}

// NopVisitor implements Visitor with every method a no-op. Analyzer
// passes embed it and override only the handful of Visit methods their
// concern cares about, instead of reimplementing the whole interface.
type NopVisitor struct{}

func (NopVisitor) VisitSelectStatement(*SelectStatement)             {}
func (NopVisitor) VisitInsertStatement(*InsertStatement)             {}
func (NopVisitor) VisitUpdateStatement(*UpdateStatement)             {}
func (NopVisitor) VisitDeleteStatement(*DeleteStatement)             {}
func (NopVisitor) VisitCreateTableStatement(*CreateTableStatement)   {}
func (NopVisitor) VisitCreateTriggerStatement(*CreateTriggerStatement) {}
func (NopVisitor) VisitCreateIndexStatement(*CreateIndexStatement)   {}

func (NopVisitor) VisitFromClause(*FromClause)     {}
func (NopVisitor) VisitWhereClause(*WhereClause)   {}
func (NopVisitor) VisitGroupByClause(*GroupByClause) {}
func (NopVisitor) VisitOrderByClause(*OrderByClause) {}
func (NopVisitor) VisitLimitClause(*LimitClause)   {}
func (NopVisitor) VisitHavingClause(*HavingClause) {}
func (NopVisitor) VisitWindowClause(*WindowClause) {}
func (NopVisitor) VisitJoinClause(*JoinClause)     {}

func (NopVisitor) VisitLiteral(*Literal)           {}
func (NopVisitor) VisitReference(*Reference)       {}
func (NopVisitor) VisitVariable(*Variable)         {}
func (NopVisitor) VisitBinaryExpr(*BinaryExpr)     {}
func (NopVisitor) VisitUnaryExpr(*UnaryExpr)       {}
func (NopVisitor) VisitBetweenExpr(*BetweenExpr)   {}
func (NopVisitor) VisitInExpr(*InExpr)             {}
func (NopVisitor) VisitLikeExpr(*LikeExpr)         {}
func (NopVisitor) VisitCaseExpr(*CaseExpr)         {}
func (NopVisitor) VisitFunctionCall(*FunctionCall) {}
func (NopVisitor) VisitWindowFunction(*WindowFunction) {}
func (NopVisitor) VisitSubqueryExpr(*SubqueryExpr) {}

func (NopVisitor) VisitStarResultColumn(*StarResultColumn)             {}
func (NopVisitor) VisitExpressionResultColumn(*ExpressionResultColumn) {}

func (NopVisitor) VisitTableReference(*TableReference)             {}
func (NopVisitor) VisitSelectStatementAsSource(*SelectStatementAsSource) {}

func (NopVisitor) VisitErrorNode(*ErrorNode) {}
