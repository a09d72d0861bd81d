// Package analyzer implements the semantic-analysis stage (§4.3-§4.7):
// set-parent, reference finding, column resolution, reference resolution
// and bidirectional type inference, all threaded through a single mutable
// AnalysisContext the way the source engine's visitor pipeline does.
package analyzer

import (
	"github.com/sqlfront/sqlfront/internal/ast"
	"github.com/sqlfront/sqlfront/internal/diagnostics"
	"github.com/sqlfront/sqlfront/internal/scope"
	"github.com/sqlfront/sqlfront/internal/typesystem"
)

// AnalysisContext is the sole mutable state threaded through every
// analyzer pass (§3). It exclusively owns the statements it wraps;
// callers may read it but must not mutate nodes after Analyze returns.
type AnalysisContext struct {
	Root   []ast.Statement
	Source string

	Errors []diagnostics.AnalysisError

	Parents  map[ast.NodeID]ast.Node
	Scopes   map[ast.NodeID]*scope.Scope
	Types    map[ast.NodeID]typesystem.ResolveResult
	Resolved map[ast.NodeID]scope.Symbol

	ids *ast.IDGen
}

// NewContext constructs an empty AnalysisContext over the given
// statements. ids must be the same generator the parser used to mint
// their NodeIDs, so any node the analyzer itself synthesizes (expanded
// `*` columns) continues the same stable numbering instead of colliding
// with it.
func NewContext(source string, root []ast.Statement, ids *ast.IDGen) *AnalysisContext {
	return &AnalysisContext{
		Root:     root,
		Source:   source,
		Parents:  make(map[ast.NodeID]ast.Node),
		Scopes:   make(map[ast.NodeID]*scope.Scope),
		Types:    make(map[ast.NodeID]typesystem.ResolveResult),
		Resolved: make(map[ast.NodeID]scope.Symbol),
		ids:      ids,
	}
}

// TypeOf returns the node's resolution, Unknown if the TypeResolver
// never visited it.
func (c *AnalysisContext) TypeOf(n ast.Typeable) typesystem.ResolveResult {
	if n == nil {
		return typesystem.Unknown()
	}
	if r, ok := c.Types[n.ID()]; ok {
		return r
	}
	return typesystem.Unknown()
}

func (c *AnalysisContext) addError(err diagnostics.AnalysisError) {
	c.Errors = append(c.Errors, err)
}

func (c *AnalysisContext) errorf(code string, severity diagnostics.Severity, n ast.Node, format string, args ...any) {
	c.addError(diagnostics.NewAnalysisError(code, severity, n.Span(), int64(n.ID()), format, args...))
}

func (c *AnalysisContext) nextID() ast.NodeID { return c.ids.Next() }
