package analyzer

import (
	"strings"

	"github.com/sqlfront/sqlfront/internal/ast"
	"github.com/sqlfront/sqlfront/internal/diagnostics"
	"github.com/sqlfront/sqlfront/internal/scope"
	"github.com/sqlfront/sqlfront/internal/sqlschema"
)

// ReferenceResolver is the §4.6 pass: it walks every Reference node and
// writes its chosen Symbol into AnalysisContext.Resolved, or records an
// AmbiguousReference/UnresolvedReference error. It runs after
// ColumnResolver so a `*` has already become concrete References with
// nothing left to resolve (but they still pass through here like any
// other Reference, which is harmless and keeps the pass uniform).
type ReferenceResolver struct {
	ctx *AnalysisContext
}

func NewReferenceResolver(ctx *AnalysisContext) *ReferenceResolver {
	return &ReferenceResolver{ctx: ctx}
}

func (r *ReferenceResolver) Run(stmt ast.CrudStatement) {
	switch s := stmt.(type) {
	case *ast.SelectStatement:
		r.resolveSelect(s)
	case *ast.InsertStatement:
		local := r.ctx.Scopes[s.ID()]
		for _, row := range s.Values {
			for _, e := range row {
				r.resolveExpr(e, local)
			}
		}
		if s.Select != nil {
			r.resolveSelect(s.Select)
		}
	case *ast.UpdateStatement:
		local := r.ctx.Scopes[s.ID()]
		for _, a := range s.Assignments {
			r.resolveExpr(a.Value, local)
		}
		if s.Where != nil {
			r.resolveExpr(s.Where.Condition, local)
		}
	case *ast.DeleteStatement:
		local := r.ctx.Scopes[s.ID()]
		if s.Where != nil {
			r.resolveExpr(s.Where.Condition, local)
		}
	}
}

func (r *ReferenceResolver) resolveSelect(n *ast.SelectStatement) {
	local := r.ctx.Scopes[n.ID()]

	for _, cte := range n.Ctes {
		r.resolveSelect(cte.Select)
	}
	if n.From != nil {
		r.resolveJoinTree(n.From.Sources, local)
	}
	for _, c := range n.Columns {
		if ec, ok := c.(*ast.ExpressionResultColumn); ok {
			r.resolveExpr(ec.Expr, local)
		}
	}
	if n.Where != nil {
		r.resolveExpr(n.Where.Condition, local)
	}
	if n.Having != nil {
		r.resolveExpr(n.Having.Condition, local)
	}
	if n.GroupBy != nil {
		for _, e := range n.GroupBy.Exprs {
			r.resolveExpr(e, local)
		}
	}
	if n.OrderBy != nil {
		for _, t := range n.OrderBy.Terms {
			r.resolveExpr(t.Expr, local)
		}
	}
	if n.Window != nil {
		r.resolveWindowClause(n.Window, local)
	}
	if n.Compound != nil {
		r.resolveSelect(n.Compound)
	}
}

func (r *ReferenceResolver) resolveJoinTree(sources []ast.TableSource, local *scope.Scope) {
	for _, s := range sources {
		switch src := s.(type) {
		case *ast.SelectStatementAsSource:
			r.resolveSelect(src.Select)
		case *ast.JoinClause:
			r.resolveJoinTree([]ast.TableSource{src.Left, src.Right}, local)
			if src.On != nil {
				r.resolveExpr(src.On, local)
			}
		}
	}
}

func (r *ReferenceResolver) resolveWindowClause(w *ast.WindowClause, local *scope.Scope) {
	for _, e := range w.Partitions {
		r.resolveExpr(e, local)
	}
	for _, t := range w.OrderBy {
		r.resolveExpr(t.Expr, local)
	}
	if w.FrameStart != nil {
		r.resolveExpr(w.FrameStart.Expr, local)
	}
	if w.FrameEnd != nil {
		r.resolveExpr(w.FrameEnd.Expr, local)
	}
}

func (r *ReferenceResolver) resolveExpr(e ast.Expression, local *scope.Scope) {
	if e == nil {
		return
	}
	switch x := e.(type) {
	case *ast.Reference:
		r.resolveReference(x, local)
		return
	case *ast.SubqueryExpr:
		r.resolveSelect(x.Select)
		return
	case *ast.WindowFunction:
		r.resolveExpr(x.Call, local)
		if x.Window != nil {
			r.resolveWindowClause(x.Window, local)
		}
		return
	}
	for _, c := range ast.Children(e) {
		if expr, ok := c.(ast.Expression); ok {
			r.resolveExpr(expr, local)
		}
	}
}

func (r *ReferenceResolver) resolveReference(ref *ast.Reference, local *scope.Scope) {
	if local == nil {
		r.ctx.errorf(diagnostics.ErrUnresolvedReference, diagnostics.SeverityCritical, ref, "unresolved column %q: no enclosing scope", ref.Column)
		return
	}

	if ref.TableAlias != "" {
		sym, ok := local.Lookup(ref.TableAlias)
		if !ok {
			r.ctx.errorf(diagnostics.ErrUnresolvedReference, diagnostics.SeverityCritical, ref, "unknown table alias %q", ref.TableAlias)
			return
		}
		col, ok := lookupColumn(sym, ref.Column)
		if !ok {
			r.ctx.errorf(diagnostics.ErrUnresolvedReference, diagnostics.SeverityCritical, ref, "no column %q on %q", ref.Column, ref.TableAlias)
			return
		}
		col.SourceAlias = ref.TableAlias
		r.ctx.Resolved[ref.ID()] = col
		return
	}

	// Unqualified: search each FROM source left to right (§4.6).
	var matches []scope.ColumnSymbol
	var matchedAlias []string
	for _, alias := range local.LocalNames() {
		sym, ok := local.LookupLocal(alias)
		if !ok {
			continue
		}
		if col, ok := lookupColumn(sym, ref.Column); ok {
			matches = append(matches, col)
			matchedAlias = append(matchedAlias, alias)
		}
	}
	switch len(matches) {
	case 0:
		r.ctx.errorf(diagnostics.ErrUnresolvedReference, diagnostics.SeverityCritical, ref, "unresolved column %q", ref.Column)
	case 1:
		matches[0].SourceAlias = matchedAlias[0]
		r.ctx.Resolved[ref.ID()] = matches[0]
	default:
		r.ctx.errorf(diagnostics.ErrAmbiguousReference, diagnostics.SeverityCritical, ref, "ambiguous column %q", ref.Column)
	}
}

func lookupColumn(sym scope.Symbol, name string) (scope.ColumnSymbol, bool) {
	switch s := sym.(type) {
	case scope.TableSymbol:
		col, ok := s.Table.Column(name)
		if !ok {
			return scope.ColumnSymbol{}, false
		}
		return scope.ColumnSymbol{Column: col}, true
	case scope.SubquerySymbol:
		for _, n := range s.Columns() {
			if strings.EqualFold(n, name) {
				return scope.ColumnSymbol{Column: sqlschema.Column{Name: n}}, true
			}
		}
		return scope.ColumnSymbol{}, false
	default:
		return scope.ColumnSymbol{}, false
	}
}
