package analyzer

import (
	"strings"

	"github.com/sqlfront/sqlfront/internal/ast"
	"github.com/sqlfront/sqlfront/internal/sqlschema"
	"github.com/sqlfront/sqlfront/internal/typesystem"
)

// TypeResolver is the §4.7 pass: bidirectional fixed-point inference.
// Every node's type is first synthesized from its children (literals are
// self-evident, operators combine operand types); bind Variables carry no
// synthetic type of their own, so a second, repeated pass pushes an
// expected type onto each still-unresolved Variable by ascending to its
// parent via AnalysisContext.Parents and pattern-matching the parent's
// shape. Both passes repeat until neither changes anything, which must
// terminate because ResolveResult only ever moves Unknown -> Resolved.
type TypeResolver struct {
	ctx *AnalysisContext
}

func NewTypeResolver(ctx *AnalysisContext) *TypeResolver {
	return &TypeResolver{ctx: ctx}
}

// Run resolves every Typeable node reachable from stmt, including nested
// subqueries (ast.Children follows SubqueryExpr.Select transparently).
func (r *TypeResolver) Run(stmt ast.Statement) {
	nodes := collectTypeable(stmt)
	for {
		changed := false
		for _, n := range nodes {
			if _, isVar := n.(*ast.Variable); isVar {
				continue
			}
			before := r.ctx.Types[n.ID()]
			after := r.synthesize(n)
			if after != before {
				r.ctx.Types[n.ID()] = after
				changed = true
			}
		}
		for _, n := range nodes {
			v, ok := n.(*ast.Variable)
			if !ok || r.ctx.TypeOf(v).IsResolved() {
				continue
			}
			if rt, ok := r.expectedFor(v); ok {
				r.ctx.Types[v.ID()] = typesystem.Resolved(rt)
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

func collectTypeable(root ast.Node) []ast.Typeable {
	var out []ast.Typeable
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		if n == nil {
			return
		}
		if t, ok := n.(ast.Typeable); ok {
			out = append(out, t)
		}
		for _, c := range ast.Children(n) {
			walk(c)
		}
	}
	walk(root)
	return out
}

// typeableOf narrows an Expression to Typeable, returning a genuine nil
// interface (safe to pass to AnalysisContext.TypeOf) when e is nil or not
// Typeable at all (every concrete Expression in this AST is Typeable, so
// the latter never actually happens; the check is defensive).
func typeableOf(e ast.Expression) ast.Typeable {
	if e == nil {
		return nil
	}
	t, ok := e.(ast.Typeable)
	if !ok {
		return nil
	}
	return t
}

// --- synthetic (downward) typing ---------------------------------------

func (r *TypeResolver) synthesize(n ast.Typeable) typesystem.ResolveResult {
	switch x := n.(type) {
	case *ast.Literal:
		return synthesizeLiteral(x)
	case *ast.Reference:
		return r.synthesizeReference(x)
	case *ast.BinaryExpr:
		return r.synthesizeBinary(x)
	case *ast.UnaryExpr:
		return r.synthesizeUnary(x)
	case *ast.BetweenExpr:
		return typesystem.Resolved(typesystem.ResolvedType{Base: typesystem.Boolean})
	case *ast.InExpr:
		return typesystem.Resolved(typesystem.ResolvedType{Base: typesystem.Boolean})
	case *ast.LikeExpr:
		return typesystem.Resolved(typesystem.ResolvedType{Base: typesystem.Boolean})
	case *ast.CaseExpr:
		return r.synthesizeCase(x)
	case *ast.FunctionCall:
		return r.synthesizeFunctionCall(x)
	case *ast.WindowFunction:
		return r.ctx.TypeOf(typeableOf(x.Call))
	case *ast.SubqueryExpr:
		return r.synthesizeSubquery(x)
	case *ast.ExpressionResultColumn:
		return r.ctx.TypeOf(typeableOf(x.Expr))
	default:
		return typesystem.Unknown()
	}
}

func synthesizeLiteral(l *ast.Literal) typesystem.ResolveResult {
	switch l.Kind {
	case ast.LiteralNull:
		return typesystem.Resolved(typesystem.ResolvedType{Base: typesystem.Null, Nullable: true})
	case ast.LiteralInt:
		return typesystem.Resolved(typesystem.ResolvedType{Base: typesystem.Int})
	case ast.LiteralReal:
		return typesystem.Resolved(typesystem.ResolvedType{Base: typesystem.Real})
	case ast.LiteralText:
		return typesystem.Resolved(typesystem.ResolvedType{Base: typesystem.Text})
	case ast.LiteralBool:
		return typesystem.Resolved(typesystem.ResolvedType{Base: typesystem.Boolean})
	default:
		return typesystem.Unknown()
	}
}

func (r *TypeResolver) synthesizeReference(ref *ast.Reference) typesystem.ResolveResult {
	sym, ok := r.ctx.Resolved[ref.ID()]
	if !ok {
		return typesystem.Unknown()
	}
	rt := typesystem.ResolvedType{Base: baseFromSQL(sym.Column.Type), Nullable: sym.Column.Nullable}
	if sym.Column.IsDateTime() {
		rt.Hint = typesystem.IsDateTime
	}
	return typesystem.Resolved(rt)
}

func baseFromSQL(t sqlschema.BaseType) typesystem.Base {
	switch t.StorageType() {
	case sqlschema.Integer:
		return typesystem.Int
	case sqlschema.Text:
		return typesystem.Text
	case sqlschema.Real:
		return typesystem.Real
	case sqlschema.Blob:
		return typesystem.Blob
	case sqlschema.Boolean:
		return typesystem.Boolean
	default:
		return typesystem.BaseUnset
	}
}

func (r *TypeResolver) synthesizeBinary(b *ast.BinaryExpr) typesystem.ResolveResult {
	switch b.Op {
	case ast.OpOr, ast.OpAnd,
		ast.OpEq, ast.OpNotEq, ast.OpIs, ast.OpIsNot,
		ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte:
		return typesystem.Resolved(typesystem.ResolvedType{Base: typesystem.Boolean})
	case ast.OpConcat:
		return typesystem.Resolved(typesystem.ResolvedType{Base: typesystem.Text})
	case ast.OpShl, ast.OpShr, ast.OpBitAnd, ast.OpBitOr, ast.OpMod:
		return typesystem.Resolved(typesystem.ResolvedType{Base: typesystem.Int})
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv:
		left := r.ctx.TypeOf(typeableOf(b.Left))
		right := r.ctx.TypeOf(typeableOf(b.Right))
		if b.Op == ast.OpDiv {
			return typesystem.Resolved(typesystem.ResolvedType{Base: typesystem.Real})
		}
		if left.IsResolved() && left.Type.Base == typesystem.Real || right.IsResolved() && right.Type.Base == typesystem.Real {
			return typesystem.Resolved(typesystem.ResolvedType{Base: typesystem.Real})
		}
		if left.IsResolved() && right.IsResolved() {
			return typesystem.Resolved(typesystem.ResolvedType{Base: typesystem.Int})
		}
		return typesystem.Unknown()
	default:
		return typesystem.Unknown()
	}
}

func (r *TypeResolver) synthesizeUnary(u *ast.UnaryExpr) typesystem.ResolveResult {
	if u.Op == ast.OpNot {
		return typesystem.Resolved(typesystem.ResolvedType{Base: typesystem.Boolean})
	}
	return r.ctx.TypeOf(typeableOf(u.Operand))
}

func (r *TypeResolver) synthesizeCase(c *ast.CaseExpr) typesystem.ResolveResult {
	if rr := r.ctx.TypeOf(typeableOf(c.Else)); rr.IsResolved() {
		return rr
	}
	for _, w := range c.Whens {
		if rr := r.ctx.TypeOf(typeableOf(w.Result)); rr.IsResolved() {
			return rr
		}
	}
	return typesystem.Unknown()
}

func (r *TypeResolver) synthesizeSubquery(sq *ast.SubqueryExpr) typesystem.ResolveResult {
	if sq.Exists {
		return typesystem.Resolved(typesystem.ResolvedType{Base: typesystem.Boolean})
	}
	if sq.Select == nil || len(sq.Select.Columns) != 1 {
		return typesystem.Unknown()
	}
	ec, ok := sq.Select.Columns[0].(*ast.ExpressionResultColumn)
	if !ok {
		return typesystem.Unknown()
	}
	return r.ctx.TypeOf(typeableOf(ec.Expr))
}

// functionSignature captures just enough of a built-in's shape to drive
// §4.7's examples: which parameter positions have a fixed expected type,
// and whether the call's own return type is fixed or copies an argument's
// (e.g. nth_value returns whatever type its first argument turned out to
// be). BaseUnset in params means "no fixed expectation for this position".
type functionSignature struct {
	params      []typesystem.Base
	returnsArg  int // -1 if the return type is fixed, not argument-derived
	fixedReturn typesystem.Base
}

var builtinFunctions = map[string]functionSignature{
	"nth_value":  {params: []typesystem.Base{typesystem.BaseUnset, typesystem.Int}, returnsArg: 0},
	"count":      {returnsArg: -1, fixedReturn: typesystem.Int},
	"sum":        {returnsArg: -1, fixedReturn: typesystem.Real},
	"avg":        {returnsArg: -1, fixedReturn: typesystem.Real},
	"min":        {returnsArg: 0},
	"max":        {returnsArg: 0},
	"row_number": {returnsArg: -1, fixedReturn: typesystem.Int},
	"rank":       {returnsArg: -1, fixedReturn: typesystem.Int},
	"length":     {returnsArg: -1, fixedReturn: typesystem.Int},
	"lower":      {returnsArg: -1, fixedReturn: typesystem.Text},
	"upper":      {returnsArg: -1, fixedReturn: typesystem.Text},
	"coalesce":   {returnsArg: 0},
}

func (r *TypeResolver) synthesizeFunctionCall(fc *ast.FunctionCall) typesystem.ResolveResult {
	name := strings.ToLower(fc.Name)
	if name == "cast" && len(fc.Args) == 2 {
		return r.synthesizeCast(fc)
	}
	sig, ok := builtinFunctions[name]
	if !ok {
		return typesystem.Unknown()
	}
	if sig.returnsArg < 0 {
		return typesystem.Resolved(typesystem.ResolvedType{Base: sig.fixedReturn})
	}
	if sig.returnsArg >= len(fc.Args) {
		return typesystem.Unknown()
	}
	return r.ctx.TypeOf(typeableOf(fc.Args[sig.returnsArg]))
}

func (r *TypeResolver) synthesizeCast(fc *ast.FunctionCall) typesystem.ResolveResult {
	lit, ok := fc.Args[1].(*ast.Literal)
	if !ok {
		return typesystem.Unknown()
	}
	name, _ := lit.Value.(string)
	base := baseFromTypeName(name)
	if base == typesystem.BaseUnset {
		return typesystem.Unknown()
	}
	return typesystem.Resolved(typesystem.ResolvedType{Base: base})
}

func baseFromTypeName(name string) typesystem.Base {
	switch strings.ToLower(name) {
	case "integer", "int":
		return typesystem.Int
	case "text", "varchar", "char", "clob":
		return typesystem.Text
	case "real", "double", "float", "numeric", "decimal":
		return typesystem.Real
	case "blob":
		return typesystem.Blob
	case "boolean", "bool":
		return typesystem.Boolean
	default:
		return typesystem.BaseUnset
	}
}

// --- expected (upward) typing for Variables ------------------------------

// expectedFor ascends v's parent (via the set-parent pass's map) and
// derives an expected type from the parent's shape and, where needed, the
// already-resolved type of a sibling operand.
func (r *TypeResolver) expectedFor(v *ast.Variable) (typesystem.ResolvedType, bool) {
	parent, ok := r.ctx.Parents[v.ID()]
	if !ok {
		return typesystem.ResolvedType{}, false
	}
	switch p := parent.(type) {
	case *ast.BinaryExpr:
		return r.expectedFromBinary(p, v)
	case *ast.UnaryExpr:
		if p.Op == ast.OpNot {
			return typesystem.ResolvedType{Base: typesystem.Boolean}, true
		}
	case *ast.BetweenExpr:
		return r.expectedFromBetween(p, v)
	case *ast.InExpr:
		return r.expectedFromIn(p, v)
	case *ast.LikeExpr:
		return typesystem.ResolvedType{Base: typesystem.Text}, true
	case *ast.FunctionCall:
		return r.expectedFromFunctionCall(p, v)
	case *ast.LimitClause:
		return typesystem.ResolvedType{Base: typesystem.Int}, true
	case *ast.WindowClause:
		// Only reachable today via a frame bound (`RANGE ? PRECEDING`),
		// since Partitions/OrderBy expressions are rarely bare variables.
		return typesystem.ResolvedType{Base: typesystem.Int}, true
	case *ast.WhereClause, *ast.HavingClause:
		return typesystem.ResolvedType{Base: typesystem.Boolean}, true
	}
	return typesystem.ResolvedType{}, false
}

func (r *TypeResolver) expectedFromBinary(b *ast.BinaryExpr, v *ast.Variable) (typesystem.ResolvedType, bool) {
	switch b.Op {
	case ast.OpOr, ast.OpAnd:
		return typesystem.ResolvedType{Base: typesystem.Boolean}, true
	case ast.OpConcat:
		return typesystem.ResolvedType{Base: typesystem.Text}, true
	case ast.OpEq, ast.OpNotEq, ast.OpIs, ast.OpIsNot,
		ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte,
		ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod,
		ast.OpShl, ast.OpShr, ast.OpBitAnd, ast.OpBitOr:
		other := otherOperand(b.Left, b.Right, v.ID())
		rr := r.ctx.TypeOf(typeableOf(other))
		if !rr.IsResolved() {
			return typesystem.ResolvedType{}, false
		}
		rt := rr.Type
		rt.IsArray = false
		return rt, true
	default:
		return typesystem.ResolvedType{}, false
	}
}

func otherOperand(left, right ast.Expression, id ast.NodeID) ast.Expression {
	if left != nil && left.ID() == id {
		return right
	}
	return left
}

func (r *TypeResolver) expectedFromBetween(b *ast.BetweenExpr, v *ast.Variable) (typesystem.ResolvedType, bool) {
	for _, c := range []ast.Expression{b.Subject, b.Lower, b.Upper} {
		if c == nil || c.ID() == v.ID() {
			continue
		}
		if rr := r.ctx.TypeOf(typeableOf(c)); rr.IsResolved() {
			return rr.Type, true
		}
	}
	return typesystem.ResolvedType{}, false
}

func (r *TypeResolver) expectedFromIn(in *ast.InExpr, v *ast.Variable) (typesystem.ResolvedType, bool) {
	if in.Variable != v {
		return typesystem.ResolvedType{}, false
	}
	rr := r.ctx.TypeOf(typeableOf(in.Subject))
	if !rr.IsResolved() {
		return typesystem.ResolvedType{}, false
	}
	rt := rr.Type
	rt.IsArray = !in.Parenthesized
	return rt, true
}

func (r *TypeResolver) expectedFromFunctionCall(fc *ast.FunctionCall, v *ast.Variable) (typesystem.ResolvedType, bool) {
	sig, ok := builtinFunctions[strings.ToLower(fc.Name)]
	if !ok {
		return typesystem.ResolvedType{}, false
	}
	for i, arg := range fc.Args {
		if arg == nil || arg.ID() != v.ID() {
			continue
		}
		if i >= len(sig.params) || sig.params[i] == typesystem.BaseUnset {
			return typesystem.ResolvedType{}, false
		}
		return typesystem.ResolvedType{Base: sig.params[i]}, true
	}
	return typesystem.ResolvedType{}, false
}
