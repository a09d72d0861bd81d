package pipeline

import (
	"github.com/sqlfront/sqlfront/internal/ast"
	"github.com/sqlfront/sqlfront/internal/scope"
	"github.com/sqlfront/sqlfront/internal/sqlschema"
	"github.com/sqlfront/sqlfront/internal/token"
	"github.com/sqlfront/sqlfront/internal/typesystem"
)

// PipelineContext is the single mutable value threaded through every
// Processor: lexing fills in Tokens, parsing fills in Statements and IDs,
// analysis fills in the Parents/Scopes/Types/Resolved maps. These mirror
// AnalysisContext's own fields rather than embedding it directly, so this
// leaf-ish package never needs to import the analyzer package that in
// turn needs to import this one to implement Processor. A stage that
// finds nothing to work with (e.g. analysis running over a Statements
// slice left empty by a failed parse) is expected to no-op rather than
// panic, and every stage still returns ctx so diagnostics collected so
// far reach the caller even when a later stage can't usefully run.
type PipelineContext struct {
	// RunID identifies this particular lex/parse/analyze run, e.g. for
	// correlating a Logger's output with the PipelineContext it came
	// from when a host drives many runs concurrently.
	RunID string

	Source string
	Tables []sqlschema.Table

	Tokens []token.Token

	Statements []ast.Statement
	IDs        *ast.IDGen

	Parents  map[ast.NodeID]ast.Node
	Scopes   map[ast.NodeID]*scope.Scope
	Types    map[ast.NodeID]typesystem.ResolveResult
	Resolved map[ast.NodeID]scope.Symbol

	Errors []error
}

// Processor is one pipeline stage.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}
