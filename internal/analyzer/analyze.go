package analyzer

import (
	"github.com/sqlfront/sqlfront/internal/ast"
	"github.com/sqlfront/sqlfront/internal/sqlschema"
)

// Analyze runs the full §4.3-§4.7 pipeline over a parsed program:
// set-parent, then per top-level statement, scope construction, column
// expansion, reference resolution, and type inference, all recorded into
// a single AnalysisContext. tables is the engine's registered schema;
// ids must be the same generator the parser used to mint root's NodeIDs.
func Analyze(source string, root []ast.Statement, ids *ast.IDGen, tables []sqlschema.Table) *AnalysisContext {
	ctx := NewContext(source, root, ids)
	ctx.Parents = AssignParents(root)

	rootScope := BuildRootScope(tables)
	finder := NewReferenceFinder(ctx)
	columns := NewColumnResolver(ctx)
	refs := NewReferenceResolver(ctx)
	types := NewTypeResolver(ctx)

	for _, stmt := range root {
		finder.Run(stmt, rootScope)
	}
	for _, stmt := range root {
		walkCrud(stmt, func(crud ast.CrudStatement) {
			columns.Run(crud)
		})
	}
	// Reference resolution depends on every scope in the tree already
	// existing (a subquery's FROM must be registered before a sibling
	// clause referencing an outer column can be told it isn't local), so
	// it only starts once every ColumnResolver pass above has finished.
	for _, stmt := range root {
		walkCrud(stmt, func(crud ast.CrudStatement) {
			refs.Run(crud)
		})
	}
	for _, stmt := range root {
		types.Run(stmt)
	}
	return ctx
}

// walkCrud invokes fn for stmt itself (if it is a CrudStatement) and for
// every CrudStatement in a trigger body. An INSERT's nested SELECT is not
// passed to fn separately; the resolvers' own Run methods descend into
// it. Column/reference resolution both operate
// per-CrudStatement, so this is the shared traversal both use to find
// every one reachable from a top-level statement.
func walkCrud(stmt ast.Statement, fn func(ast.CrudStatement)) {
	switch s := stmt.(type) {
	case ast.CrudStatement:
		fn(s)
	case *ast.CreateTriggerStatement:
		for _, body := range s.Body {
			walkCrud(body, fn)
		}
	}
}
