package analyzer

import (
	"github.com/sqlfront/sqlfront/internal/scope"
	"github.com/sqlfront/sqlfront/internal/sqlschema"
)

// BuildRootScope constructs the engine's top-level scope from its
// registered-table snapshot (§2): one TableSymbol per table, bound under
// its declared name. Every statement's own local scope chains off this
// one, so an unqualified `FROM` reference to a registered table is always
// reachable regardless of how deeply nested the referencing subquery is.
func BuildRootScope(tables []sqlschema.Table) *scope.Scope {
	root := scope.New(nil)
	for _, t := range tables {
		root.Define(t.Name, scope.TableSymbol{Table: t})
	}
	return root
}
