package analyzer

import (
	"strings"

	"github.com/sqlfront/sqlfront/internal/ast"
	"github.com/sqlfront/sqlfront/internal/diagnostics"
	"github.com/sqlfront/sqlfront/internal/scope"
	"github.com/sqlfront/sqlfront/internal/sqlschema"
)

// ReferenceFinder is the §4.4 pass: it attaches a local Scope to every
// SelectStatement and CRUD statement (including ones nested as
// subqueries), registering the table, subquery and CTE symbols that
// statement's FROM/WITH makes visible. It does not resolve Reference
// nodes themselves — that is ReferenceResolver's job, run afterward once
// every scope in the tree exists.
type ReferenceFinder struct {
	ctx *AnalysisContext
}

func NewReferenceFinder(ctx *AnalysisContext) *ReferenceFinder {
	return &ReferenceFinder{ctx: ctx}
}

// Run attaches scopes to stmt and everything nested under it, given the
// scope it is directly enclosed by (the engine's root scope for a
// top-level statement).
func (f *ReferenceFinder) Run(stmt ast.Statement, parent *scope.Scope) {
	switch s := stmt.(type) {
	case *ast.SelectStatement:
		f.visitSelect(s, parent)
	case *ast.InsertStatement:
		f.visitInsert(s, parent)
	case *ast.UpdateStatement:
		f.visitUpdate(s, parent)
	case *ast.DeleteStatement:
		f.visitDelete(s, parent)
	case *ast.CreateTriggerStatement:
		for _, body := range s.Body {
			f.Run(body, parent)
		}
	}
}

func (f *ReferenceFinder) visitSelect(n *ast.SelectStatement, parent *scope.Scope) {
	local := scope.New(parent)
	f.ctx.Scopes[n.ID()] = local

	for _, cte := range n.Ctes {
		local.Define(cte.Name, scope.CteSymbol{Definition: cte})
		f.visitSelect(cte.Select, local)
	}

	if n.From != nil {
		for _, src := range n.From.Sources {
			f.registerSource(src, local)
		}
	}

	f.descendExpressions(n, local)

	if n.Compound != nil {
		// A compound SELECT's right-hand arm is its own statement with
		// its own FROM, sharing only the outer lexical parent scope.
		f.visitSelect(n.Compound, parent)
	}
}

func (f *ReferenceFinder) registerSource(src ast.TableSource, local *scope.Scope) {
	switch s := src.(type) {
	case *ast.TableReference:
		sym, ok := local.Lookup(s.Name)
		if !ok {
			f.ctx.errorf(diagnostics.ErrUnresolvedTable, diagnostics.SeverityCritical, s, "unknown table %q", s.Name)
			return
		}
		switch sy := sym.(type) {
		case scope.TableSymbol:
			f.defineAliased(local, s.Name, s.Alias, sy, s)
		case scope.CteSymbol:
			var cte scope.Symbol = scope.SubquerySymbol{Select: sy.Definition.Select}
			if len(sy.Definition.Columns) > 0 {
				t := sqlschema.Table{Name: sy.Definition.Name}
				for _, c := range sy.Definition.Columns {
					t.Columns = append(t.Columns, sqlschema.Column{Name: c})
				}
				cte = scope.TableSymbol{Table: t}
			}
			name := s.Name
			if own, _ := local.LookupLocal(s.Name); own == sym {
				local.Define(s.Name, cte) // replaces the WITH clause's own binding; not an alias conflict
				name = ""
			}
			f.defineAliased(local, name, s.Alias, cte, s)
		default:
			f.ctx.errorf(diagnostics.ErrUnresolvedTable, diagnostics.SeverityCritical, s, "%q does not name a table or CTE", s.Name)
		}
	case *ast.SelectStatementAsSource:
		f.visitSelect(s.Select, local)
		if s.Alias != "" {
			f.defineAliased(local, "", s.Alias, scope.SubquerySymbol{Select: s.Select}, s)
		}
	case *ast.JoinClause:
		f.registerSource(s.Left, local)
		f.registerSource(s.Right, local)
		if s.On != nil {
			f.descendExpr(s.On, local)
		}
	}
}

// defineAliased binds sym under name (if non-empty) and, if distinct,
// under alias too. A name already bound locally is a non-critical
// conflicting-alias error (§4.4), but the later binding still wins —
// analysis proceeds with best-effort scope information rather than
// refusing to continue.
func (f *ReferenceFinder) defineAliased(local *scope.Scope, name, alias string, sym scope.Symbol, n ast.Node) {
	bind := func(key string) {
		if key == "" {
			return
		}
		if _, exists := local.LookupLocal(key); exists {
			f.ctx.errorf(diagnostics.ErrDuplicateAlias, diagnostics.SeverityWarning, n, "alias %q is already bound in this scope", key)
		}
		local.Define(key, sym)
	}
	bind(name)
	if alias != "" && !strings.EqualFold(alias, name) {
		bind(alias)
	}
}

func (f *ReferenceFinder) visitInsert(n *ast.InsertStatement, parent *scope.Scope) {
	local := scope.New(parent)
	f.ctx.Scopes[n.ID()] = local
	f.registerTarget(n.Table, local)
	for _, row := range n.Values {
		for _, e := range row {
			f.descendExpr(e, local)
		}
	}
	if n.Select != nil {
		f.visitSelect(n.Select, local)
	}
}

func (f *ReferenceFinder) visitUpdate(n *ast.UpdateStatement, parent *scope.Scope) {
	local := scope.New(parent)
	f.ctx.Scopes[n.ID()] = local
	f.registerTarget(n.Table, local)
	for _, a := range n.Assignments {
		f.descendExpr(a.Value, local)
	}
	if n.Where != nil {
		f.descendExpr(n.Where.Condition, local)
	}
}

func (f *ReferenceFinder) visitDelete(n *ast.DeleteStatement, parent *scope.Scope) {
	local := scope.New(parent)
	f.ctx.Scopes[n.ID()] = local
	f.registerTarget(n.Table, local)
	if n.Where != nil {
		f.descendExpr(n.Where.Condition, local)
	}
}

func (f *ReferenceFinder) registerTarget(t *ast.TableReference, local *scope.Scope) {
	if t == nil {
		return
	}
	sym, ok := local.Lookup(t.Name)
	if !ok {
		f.ctx.errorf(diagnostics.ErrUnresolvedTable, diagnostics.SeverityCritical, t, "unknown table %q", t.Name)
		return
	}
	if ts, ok := sym.(scope.TableSymbol); ok {
		f.defineAliased(local, t.Name, t.Alias, ts, t)
	}
}

// descendExpressions walks every expression-bearing clause of a
// SelectStatement looking for subqueries, so each gets its own child
// scope chained off local.
func (f *ReferenceFinder) descendExpressions(n *ast.SelectStatement, local *scope.Scope) {
	for _, c := range n.Columns {
		if ec, ok := c.(*ast.ExpressionResultColumn); ok {
			f.descendExpr(ec.Expr, local)
		}
	}
	if n.Where != nil {
		f.descendExpr(n.Where.Condition, local)
	}
	if n.Having != nil {
		f.descendExpr(n.Having.Condition, local)
	}
	if n.GroupBy != nil {
		for _, e := range n.GroupBy.Exprs {
			f.descendExpr(e, local)
		}
	}
	if n.OrderBy != nil {
		for _, t := range n.OrderBy.Terms {
			f.descendExpr(t.Expr, local)
		}
	}
	if n.Window != nil {
		for _, e := range n.Window.Partitions {
			f.descendExpr(e, local)
		}
	}
}

// descendExpr walks an expression tree looking for SubqueryExpr nodes.
func (f *ReferenceFinder) descendExpr(e ast.Expression, local *scope.Scope) {
	if e == nil {
		return
	}
	if sq, ok := e.(*ast.SubqueryExpr); ok {
		f.visitSelect(sq.Select, local)
		return
	}
	for _, c := range ast.Children(e) {
		if expr, ok := c.(ast.Expression); ok {
			f.descendExpr(expr, local)
		}
	}
}
