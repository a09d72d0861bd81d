// Package parser implements the engine's recursive-descent parser:
// hand-written, single-pass over a pre-scanned token slice, one-token
// lookahead, with panic-mode error recovery so a malformed statement
// never aborts the whole parse.
package parser

import (
	"github.com/sqlfront/sqlfront/internal/ast"
	"github.com/sqlfront/sqlfront/internal/diagnostics"
	"github.com/sqlfront/sqlfront/internal/token"
)

// Parser turns a token stream into an AST. It is not safe for concurrent
// use and is meant to be used once per parse, matching the engine's
// single-threaded execution model (§5).
type Parser struct {
	source string
	tokens []token.Token
	pos    int

	ids  ast.IDGen
	errs []diagnostics.ParseError

	// lastEnd is the byte offset just past the most recently consumed
	// token; spanFrom uses it to compute a node's full source span
	// without threading an explicit end position through every
	// production.
	lastEnd int

	// Bind-variable bookkeeping (§3 invariant / §4.2): anonymous '?'
	// variables take one plus the highest index assigned so far; named
	// variables (':name', '@name', '$name') share an index across all
	// their occurrences; '?N' explicitly pins an index.
	maxIndex  int
	namedIdx  map[string]int
	variables []*ast.Variable
}

// New constructs a Parser over an already-scanned token stream. Tokens
// must end in a single token.EOF, as lexer.Tokenize produces. source is
// the original text the tokens were scanned from, kept only to slice out
// verbatim substrings (table constraints) that the AST stores as raw
// text rather than re-parsing.
func New(source string, tokens []token.Token) *Parser {
	return &Parser{source: source, tokens: tokens, namedIdx: make(map[string]int)}
}

// textOf returns the verbatim source slice covered by span.
func (p *Parser) textOf(span token.Span) string {
	if span.Offset < 0 || span.End() > len(p.source) {
		return ""
	}
	return p.source[span.Offset:span.End()]
}

// peekAt returns the token n positions ahead of cur() (peekAt(0) == cur(),
// peekAt(1) == peek()), clamped to the trailing EOF.
func (p *Parser) peekAt(n int) token.Token {
	idx := p.pos + n
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

// Errors returns the parse errors accumulated so far.
func (p *Parser) Errors() []diagnostics.ParseError { return p.errs }

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek() token.Token {
	if p.pos+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+1]
}

func (p *Parser) advance() token.Token {
	tok := p.cur()
	if tok.Kind != token.EOF {
		p.pos++
	}
	p.lastEnd = tok.Span.End()
	return tok
}

func (p *Parser) at(kind token.Kind) bool { return p.cur().Kind == kind }

// expect advances past cur() if it has the given kind, else records an
// unexpected-token error and returns false without advancing, so the
// caller can decide how to recover.
func (p *Parser) expect(kind token.Kind) (token.Token, bool) {
	if p.at(kind) {
		return p.advance(), true
	}
	p.errorf(diagnostics.ErrUnexpectedToken, "expected %s, got %s", kind, p.cur().Kind)
	return token.Token{}, false
}

func (p *Parser) errorf(code, format string, args ...any) {
	p.errs = append(p.errs, diagnostics.NewParseError(code, p.cur(), format, args...))
}

func (p *Parser) nextID() ast.NodeID { return p.ids.Next() }

// IDs returns the generator this parser minted node IDs from. A caller
// analyzing the resulting tree must reuse it for any node it synthesizes
// (e.g. ColumnResolver's expanded `*` columns), so those IDs continue the
// same sequence instead of colliding with the parser's.
func (p *Parser) IDs() *ast.IDGen { return &p.ids }

// spanFrom builds the span covering [start, lastEnd), i.e. everything
// consumed since start was first observed as p.cur().
func (p *Parser) spanFrom(start token.Token) token.Span {
	return token.Span{Offset: start.Span.Offset, Length: p.lastEnd - start.Span.Offset}
}

// statementStartKeywords are the synchronization points panic-mode
// recovery resumes at, besides ';' and EOF (§4.2).
var statementStartKeywords = map[token.Kind]bool{
	token.SELECT: true, token.INSERT: true, token.UPDATE: true,
	token.DELETE: true, token.CREATE: true, token.WITH: true,
}

// synchronize skips tokens until a synchronization point: ';', a
// statement-start keyword, or EOF. It does not consume the ';' itself,
// leaving that to the caller so a single bad token doesn't also eat a
// following valid statement's leading semicolon.
func (p *Parser) synchronize() {
	for {
		switch p.cur().Kind {
		case token.SEMICOLON, token.EOF:
			return
		default:
			if statementStartKeywords[p.cur().Kind] {
				return
			}
			p.advance()
		}
	}
}

// assignVariableIndex implements the stable-index invariant from §3/§4.2.
func (p *Parser) assignVariableIndex(v *ast.Variable) {
	switch {
	case v.ExplicitIndex != nil:
		v.Index = int(*v.ExplicitIndex)
		if v.Index > p.maxIndex {
			p.maxIndex = v.Index
		}
	case v.Name != "":
		if idx, ok := p.namedIdx[v.Name]; ok {
			v.Index = idx
		} else {
			p.maxIndex++
			v.Index = p.maxIndex
			p.namedIdx[v.Name] = v.Index
		}
	default:
		p.maxIndex++
		v.Index = p.maxIndex
	}
	p.variables = append(p.variables, v)
}

// Variables returns every bind variable encountered so far, in document
// order, with their final resolved indices.
func (p *Parser) Variables() []*ast.Variable { return p.variables }
