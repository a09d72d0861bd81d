// Package sqlfront is the engine facade (§6): the external surface a
// host embeds to register its schema, tokenize, parse and semantically
// analyze SQLite-dialect SQL, without reaching into any internal
// package directly.
package sqlfront

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/sqlfront/sqlfront/internal/analyzer"
	"github.com/sqlfront/sqlfront/internal/ast"
	"github.com/sqlfront/sqlfront/internal/config"
	"github.com/sqlfront/sqlfront/internal/diagnostics"
	"github.com/sqlfront/sqlfront/internal/lexer"
	"github.com/sqlfront/sqlfront/internal/logging"
	"github.com/sqlfront/sqlfront/internal/parser"
	"github.com/sqlfront/sqlfront/internal/pipeline"
	"github.com/sqlfront/sqlfront/internal/sqlschema"
	"github.com/sqlfront/sqlfront/internal/token"
)

// Engine owns the table schema every Analyze call resolves references
// against. It is not safe for concurrent use (§5): build one per
// goroutine, or guard it with your own lock if you need to share it.
type Engine struct {
	tables []sqlschema.Table
}

// New constructs an Engine with no tables registered yet.
func New() *Engine {
	return &Engine{}
}

// RegisterTable adds t to the schema snapshot future Analyze/AnalyzeParsed
// calls resolve FROM sources and column references against. Registering a
// table under a name already present replaces the earlier definition.
func (e *Engine) RegisterTable(t sqlschema.Table) {
	for i, existing := range e.tables {
		if existing.Name == t.Name {
			e.tables[i] = t
			return
		}
	}
	e.tables = append(e.tables, t)
}

// Tables returns the engine's current schema snapshot, in registration
// order.
func (e *Engine) Tables() []sqlschema.Table {
	return append([]sqlschema.Table(nil), e.tables...)
}

// LoadSchema reads a sqlfront.yaml-shaped config from path and registers
// every table it declares. A host that would otherwise build
// sqlschema.Table values by hand can describe its schema declaratively
// instead and load it in one call.
func (e *Engine) LoadSchema(path string) error {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}
	for _, t := range cfg.SchemaTables() {
		e.RegisterTable(t)
	}
	return nil
}

// Tokenize scans source into a token stream, per §4.1. A lexer error is
// all-or-nothing: if any span was malformed the returned error is a
// *diagnostics.CumulatedTokenizerException and the token slice is nil.
func (e *Engine) Tokenize(source string) ([]token.Token, error) {
	return lexer.Tokenize(source)
}

// ParseResult is one top-level statement recovered from a program, paired
// with the verbatim source text it was parsed from and the ID generator
// that minted its node identities (an analyzer pass synthesizing new
// nodes over this statement must reuse it; see AnalyzeParsed).
type ParseResult struct {
	Source    string
	Statement ast.Statement
	IDs       *ast.IDGen
	Errors    []diagnostics.ParseError
}

// Parse scans and parses a single-statement source string. A source with
// more than one statement still succeeds; only the first is returned.
// Use ParseMultiple for a whole program.
func (e *Engine) Parse(sql string) (ParseResult, error) {
	results, err := e.ParseMultiple(sql)
	if err != nil {
		return ParseResult{}, err
	}
	if len(results) == 0 {
		return ParseResult{}, fmt.Errorf("sqlfront: %q contains no statements", sql)
	}
	return results[0], nil
}

// ParseMultiple scans and parses every statement in sql, in source order.
// Each ParseResult's Source field is sliced to exactly that statement's
// own span [start, end) rather than the whole program, so a caller that
// re-tokenizes a single result for diagnostics sees consistent offsets.
// Every statement shares the same *ast.IDGen (the one the parser used),
// since panic-mode recovery and the stable bind-variable-index invariant
// both depend on node identity and variable numbering being continuous
// across the whole program, not reset per statement.
func (e *Engine) ParseMultiple(sql string) ([]ParseResult, error) {
	tokens, err := lexer.Tokenize(sql)
	if err != nil {
		return nil, err
	}

	p := parser.New(sql, tokens)
	stmts := p.ParseProgram()
	ids := p.IDs()

	results := make([]ParseResult, 0, len(stmts))
	for _, stmt := range stmts {
		span := stmt.Span()
		text := sql
		if span.Offset >= 0 && span.End() <= len(sql) {
			text = sql[span.Offset:span.End()]
		}
		results = append(results, ParseResult{
			Source:    text,
			Statement: stmt,
			IDs:       ids,
			Errors:    p.Errors(),
		})
	}
	return results, nil
}

// Analyze tokenizes, parses and fully semantically analyzes sql as a
// single program, returning the shared AnalysisContext every statement's
// scopes, resolved references and inferred types are recorded into.
func (e *Engine) Analyze(sql string) (*analyzer.AnalysisContext, error) {
	tokens, err := lexer.Tokenize(sql)
	if err != nil {
		return nil, err
	}
	p := parser.New(sql, tokens)
	stmts := p.ParseProgram()
	return analyzer.Analyze(sql, stmts, p.IDs(), e.tables), nil
}

// RunPipeline drives the same work as Analyze through the explicit
// lex/parse/analyze Processor chain instead, collecting every stage's
// diagnostics into one PipelineContext. Prefer Analyze for normal use;
// this exists for callers (e.g. an editor integration) that want to
// insert their own Processor into the chain, or inspect intermediate
// stage output (the raw token stream, the pre-analysis AST) alongside
// the final result.
func (e *Engine) RunPipeline(sql string, extra ...pipeline.Processor) *pipeline.PipelineContext {
	ctx := &pipeline.PipelineContext{RunID: uuid.New().String(), Source: sql, Tables: e.tables}
	stages := append([]pipeline.Processor{
		&lexer.TokenizeProcessor{},
		&parser.ParseProcessor{},
		&analyzer.AnalyzeProcessor{},
	}, extra...)
	return pipeline.New(stages...).Run(ctx)
}

// LogResult writes every diagnostic RunPipeline collected into ctx to out,
// tagged with ctx.RunID so a caller running many pipelines concurrently
// can still tell which line belongs to which run.
func (e *Engine) LogResult(ctx *pipeline.PipelineContext, out io.Writer) {
	lg := &logging.Logger{Out: out, RunID: ctx.RunID}
	lg.Errors(ctx.Errors)
}

// AnalyzeParsed runs just the analysis stage (§4.3-§4.7) over a statement
// already produced by Parse/ParseMultiple, against the engine's current
// schema. Use this to re-analyze a single edited statement (e.g. an LSP
// incremental reparse) without re-tokenizing and re-parsing the whole
// program.
func (e *Engine) AnalyzeParsed(pr ParseResult) (*analyzer.AnalysisContext, error) {
	if pr.Statement == nil {
		return nil, fmt.Errorf("sqlfront: empty parse result")
	}
	return analyzer.Analyze(pr.Source, []ast.Statement{pr.Statement}, pr.IDs, e.tables), nil
}
