package lexer

import (
	"github.com/sqlfront/sqlfront/internal/pipeline"
)

// TokenizeProcessor is the pipeline's first stage: it scans ctx.Source
// into ctx.Tokens. A failed scan leaves Tokens nil, which every later
// stage treats as "nothing to do".
type TokenizeProcessor struct{}

func (tp *TokenizeProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	tokens, err := Tokenize(ctx.Source)
	if err != nil {
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}
	ctx.Tokens = tokens
	return ctx
}
