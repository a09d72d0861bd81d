package analyzer

import (
	"github.com/sqlfront/sqlfront/internal/ast"
	"github.com/sqlfront/sqlfront/internal/diagnostics"
	"github.com/sqlfront/sqlfront/internal/scope"
)

// ColumnResolver is the §4.5 pass: it expands `*` and `table.*` result
// columns into explicit Reference expressions, in left-to-right FROM
// order and then table declaration order, against the scope
// ReferenceFinder already attached to each SelectStatement.
type ColumnResolver struct {
	ctx *AnalysisContext
}

func NewColumnResolver(ctx *AnalysisContext) *ColumnResolver {
	return &ColumnResolver{ctx: ctx}
}

// Run expands stars throughout stmt, including any SELECT nested in an
// INSERT ... SELECT and any subquery reachable from its clauses.
func (r *ColumnResolver) Run(stmt ast.CrudStatement) {
	switch s := stmt.(type) {
	case *ast.SelectStatement:
		r.resolveSelect(s)
	case *ast.InsertStatement:
		if s.Select != nil {
			r.resolveSelect(s.Select)
		}
		for _, row := range s.Values {
			for _, e := range row {
				r.descendExprSubqueries(e)
			}
		}
	case *ast.UpdateStatement:
		for _, a := range s.Assignments {
			r.descendExprSubqueries(a.Value)
		}
		if s.Where != nil {
			r.descendExprSubqueries(s.Where.Condition)
		}
	case *ast.DeleteStatement:
		if s.Where != nil {
			r.descendExprSubqueries(s.Where.Condition)
		}
	}
}

func (r *ColumnResolver) resolveSelect(n *ast.SelectStatement) {
	local := r.ctx.Scopes[n.ID()]

	for _, cte := range n.Ctes {
		r.resolveSelect(cte.Select)
	}

	order := r.sourceOrder(n.From)
	expanded := make([]ast.ResultColumn, 0, len(n.Columns))
	for _, c := range n.Columns {
		if star, ok := c.(*ast.StarResultColumn); ok {
			expanded = append(expanded, r.expandStar(star, local, order)...)
			continue
		}
		expanded = append(expanded, c)
	}
	n.Columns = expanded

	for _, c := range n.Columns {
		if ec, ok := c.(*ast.ExpressionResultColumn); ok {
			r.descendExprSubqueries(ec.Expr)
		}
	}
	if n.Where != nil {
		r.descendExprSubqueries(n.Where.Condition)
	}
	if n.Having != nil {
		r.descendExprSubqueries(n.Having.Condition)
	}
	if n.GroupBy != nil {
		for _, e := range n.GroupBy.Exprs {
			r.descendExprSubqueries(e)
		}
	}
	if n.OrderBy != nil {
		for _, t := range n.OrderBy.Terms {
			r.descendExprSubqueries(t.Expr)
		}
	}
	if n.From != nil {
		r.resolveFromSubqueries(n.From.Sources)
	}
	if n.Compound != nil {
		r.resolveSelect(n.Compound)
	}
}

// sourceOrder returns the FROM-clause aliases (or bare names, when
// unaliased) in left-to-right source order, flattening any join tree.
func (r *ColumnResolver) sourceOrder(from *ast.FromClause) []string {
	if from == nil {
		return nil
	}
	var order []string
	var walk func(src ast.TableSource)
	walk = func(src ast.TableSource) {
		switch s := src.(type) {
		case *ast.TableReference:
			name := s.Alias
			if name == "" {
				name = s.Name
			}
			order = append(order, name)
		case *ast.SelectStatementAsSource:
			if s.Alias != "" {
				order = append(order, s.Alias)
			}
		case *ast.JoinClause:
			walk(s.Left)
			walk(s.Right)
		}
	}
	for _, s := range from.Sources {
		walk(s)
	}
	return order
}

func (r *ColumnResolver) expandStar(star *ast.StarResultColumn, local *scope.Scope, order []string) []ast.ResultColumn {
	aliases := order
	if star.TableAlias != "" {
		aliases = []string{star.TableAlias}
	}
	var out []ast.ResultColumn
	for _, alias := range aliases {
		if local == nil {
			break
		}
		sym, ok := local.LookupLocal(alias)
		if !ok {
			r.ctx.errorf(diagnostics.ErrUnresolvedStar, diagnostics.SeverityCritical, star, "cannot expand '*': unknown source %q", alias)
			continue
		}
		for _, name := range columnNames(sym) {
			ref := &ast.Reference{
				Base:       ast.NewBase(r.ctx.nextID(), star.Span()),
				TableAlias: alias,
				Column:     name,
			}
			out = append(out, &ast.ExpressionResultColumn{
				Base: ast.NewBase(r.ctx.nextID(), star.Span()),
				Expr: ref,
			})
		}
	}
	return out
}

func columnNames(sym scope.Symbol) []string {
	switch s := sym.(type) {
	case scope.TableSymbol:
		names := make([]string, len(s.Table.Columns))
		for i, c := range s.Table.Columns {
			names[i] = c.Name
		}
		return names
	case scope.SubquerySymbol:
		return s.Columns()
	default:
		return nil
	}
}

func (r *ColumnResolver) resolveFromSubqueries(sources []ast.TableSource) {
	for _, s := range sources {
		switch src := s.(type) {
		case *ast.SelectStatementAsSource:
			r.resolveSelect(src.Select)
		case *ast.JoinClause:
			r.resolveFromSubqueries([]ast.TableSource{src.Left, src.Right})
			r.descendExprSubqueries(src.On)
		}
	}
}

func (r *ColumnResolver) descendExprSubqueries(e ast.Expression) {
	if e == nil {
		return
	}
	if sq, ok := e.(*ast.SubqueryExpr); ok {
		r.resolveSelect(sq.Select)
		return
	}
	for _, c := range ast.Children(e) {
		if expr, ok := c.(ast.Expression); ok {
			r.descendExprSubqueries(expr)
		}
	}
}
