package parser

import (
	"github.com/sqlfront/sqlfront/internal/pipeline"
)

// ParseProcessor turns ctx.Tokens into ctx.Statements. It always
// publishes whatever partial tree panic-mode recovery produced, even
// when ctx.Errors grows, so the pipeline's analysis stage still has
// something to walk.
type ParseProcessor struct{}

func (pp *ParseProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Tokens == nil {
		return ctx
	}

	p := New(ctx.Source, ctx.Tokens)
	ctx.Statements = p.ParseProgram()
	ctx.IDs = p.IDs()
	for _, e := range p.Errors() {
		ctx.Errors = append(ctx.Errors, e)
	}
	return ctx
}
