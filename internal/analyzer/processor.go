package analyzer

import (
	"github.com/sqlfront/sqlfront/internal/pipeline"
)

// AnalyzeProcessor is the pipeline's final stage: it runs the full
// set-parent/reference/column/type passes over ctx.Statements against
// ctx.Tables, copies the resulting Parents/Scopes/Types/Resolved maps
// onto ctx and appends the analysis errors to ctx.Errors. It still runs
// over whatever statements parsing managed to produce, since a single
// malformed statement earlier in the program shouldn't stop analysis of
// the ones that parsed cleanly.
type AnalyzeProcessor struct{}

func (ap *AnalyzeProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Statements == nil {
		return ctx
	}

	ac := Analyze(ctx.Source, ctx.Statements, ctx.IDs, ctx.Tables)
	ctx.Parents = ac.Parents
	ctx.Scopes = ac.Scopes
	ctx.Types = ac.Types
	ctx.Resolved = ac.Resolved
	for _, e := range ac.Errors {
		ctx.Errors = append(ctx.Errors, e)
	}
	return ctx
}
