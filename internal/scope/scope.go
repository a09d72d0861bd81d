// Package scope implements the naming environment the analyzer builds
// while walking a statement: nested scopes with ASCII-case-insensitive,
// parent-chain lookup and innermost-binding-wins shadowing.
package scope

import (
	"github.com/sqlfront/sqlfront/internal/ast"
	"github.com/sqlfront/sqlfront/internal/sqlschema"
)

// Symbol is anything a name can resolve to inside a Scope.
type Symbol interface {
	symbolNode()
}

// TableSymbol binds a name (the table's real name, or an alias) to a
// registered Table.
type TableSymbol struct {
	Table sqlschema.Table
}

func (TableSymbol) symbolNode() {}

// ColumnSymbol binds a name to one column of some table, qualified by
// the alias (or table name) it was reached through so
// `t.c` can re-derive `t`.
type ColumnSymbol struct {
	Column      sqlschema.Column
	SourceAlias string
}

func (ColumnSymbol) symbolNode() {}

// SubquerySymbol binds a FROM-clause alias to a derived table; its
// exposed columns are computed best-effort from the sub-select's result
// column list (see Columns).
type SubquerySymbol struct {
	Select *ast.SelectStatement
}

func (SubquerySymbol) symbolNode() {}

// Columns derives the column names a subquery exposes to its enclosing
// scope from its own result-column list. Star columns are not expanded
// here (that would require the subquery's own ColumnResolver pass to
// have already run); a `SELECT * FROM t` subquery therefore does not
// widen its outer visibility beyond its explicit, named columns.
func (s SubquerySymbol) Columns() []string {
	var names []string
	for _, col := range s.Select.Columns {
		switch c := col.(type) {
		case *ast.ExpressionResultColumn:
			if c.Alias != "" {
				names = append(names, c.Alias)
			} else if ref, ok := c.Expr.(*ast.Reference); ok {
				names = append(names, ref.Column)
			}
		}
	}
	return names
}

// CteSymbol binds a WITH-clause name to its definition. It is registered
// before the CTE body is visited so a RECURSIVE CTE can reference itself.
type CteSymbol struct {
	Definition *ast.CteDefinition
}

func (CteSymbol) symbolNode() {}

// Scope is a naming environment bound to a statement or sub-select.
// Lookups walk the parent chain; the nearest binding wins.
type Scope struct {
	parent   *Scope
	bindings map[string]Symbol
	order    []string // first-definition order, lower-cased; see LocalNames
}

// New creates a scope. parent may be nil for the engine's root scope.
func New(parent *Scope) *Scope {
	return &Scope{parent: parent, bindings: make(map[string]Symbol)}
}

// Define binds name to sym in this scope, normalizing to lower-case so
// lookup stays ASCII-case-insensitive. A later Define with the same name
// in the same scope replaces the earlier binding (last write wins within
// a scope; shadowing across scopes is what the parent chain is for).
func (s *Scope) Define(name string, sym Symbol) {
	key := normalize(name)
	if _, exists := s.bindings[key]; !exists {
		s.order = append(s.order, key)
	}
	s.bindings[key] = sym
}

// LocalNames returns the names defined directly in this scope, in the
// order they were first bound. The data model treats insertion order as
// irrelevant to lookup semantics, but ReferenceResolver's unqualified
// search still wants a deterministic left-to-right FROM order to walk.
func (s *Scope) LocalNames() []string {
	return append([]string(nil), s.order...)
}

// Lookup searches this scope, then its ancestors, returning the nearest
// binding.
func (s *Scope) Lookup(name string) (Symbol, bool) {
	key := normalize(name)
	for sc := s; sc != nil; sc = sc.parent {
		if sym, ok := sc.bindings[key]; ok {
			return sym, true
		}
	}
	return nil, false
}

// LookupLocal searches only this scope, not its ancestors. Used by
// ReferenceResolver's "search each table in the enclosing FROM"
// left-to-right walk, where ascending to an outer scope would change
// which name wins.
func (s *Scope) LookupLocal(name string) (Symbol, bool) {
	sym, ok := s.bindings[normalize(name)]
	return sym, ok
}

// Parent returns the enclosing scope, or nil at the root.
func (s *Scope) Parent() *Scope { return s.parent }

func normalize(name string) string {
	b := []byte(name)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
