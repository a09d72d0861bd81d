package analyzer

import "github.com/sqlfront/sqlfront/internal/ast"

// AssignParents performs the single pre-order traversal §4.3 requires:
// every node reachable from roots gets exactly one entry in the returned
// map, keyed by its stable NodeID, pointing at its immediate parent. Root
// statements themselves have no entry (they have no parent).
func AssignParents(roots []ast.Statement) map[ast.NodeID]ast.Node {
	parents := make(map[ast.NodeID]ast.Node)
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		for _, c := range ast.Children(n) {
			if c == nil || isNilNode(c) {
				continue
			}
			parents[c.ID()] = n
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return parents
}

// isNilNode guards the same typed-nil pitfall ast.Children's own helpers
// guard against: a concrete *T(nil) stored in an interface compares
// unequal to the untyped nil literal.
func isNilNode(n ast.Node) bool {
	switch v := n.(type) {
	case *ast.SelectStatement:
		return v == nil
	case *ast.InsertStatement:
		return v == nil
	case *ast.UpdateStatement:
		return v == nil
	case *ast.DeleteStatement:
		return v == nil
	case *ast.FromClause:
		return v == nil
	case *ast.WhereClause:
		return v == nil
	case *ast.GroupByClause:
		return v == nil
	case *ast.HavingClause:
		return v == nil
	case *ast.OrderByClause:
		return v == nil
	case *ast.LimitClause:
		return v == nil
	case *ast.WindowClause:
		return v == nil
	case *ast.JoinClause:
		return v == nil
	case *ast.Literal:
		return v == nil
	case *ast.Reference:
		return v == nil
	case *ast.Variable:
		return v == nil
	case *ast.BinaryExpr:
		return v == nil
	case *ast.UnaryExpr:
		return v == nil
	case *ast.BetweenExpr:
		return v == nil
	case *ast.InExpr:
		return v == nil
	case *ast.LikeExpr:
		return v == nil
	case *ast.CaseExpr:
		return v == nil
	case *ast.FunctionCall:
		return v == nil
	case *ast.WindowFunction:
		return v == nil
	case *ast.SubqueryExpr:
		return v == nil
	case *ast.StarResultColumn:
		return v == nil
	case *ast.ExpressionResultColumn:
		return v == nil
	case *ast.TableReference:
		return v == nil
	case *ast.SelectStatementAsSource:
		return v == nil
	case *ast.ErrorNode:
		return v == nil
	default:
		return false
	}
}
