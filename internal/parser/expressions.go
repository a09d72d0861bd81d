package parser

import (
	"github.com/sqlfront/sqlfront/internal/ast"
	"github.com/sqlfront/sqlfront/internal/diagnostics"
	"github.com/sqlfront/sqlfront/internal/token"
)

// ParseExpression is the public entry point for parsing a standalone
// expression (used by statement productions for WHERE/HAVING/ON/etc.).
func (p *Parser) ParseExpression() ast.Expression {
	return p.parseExpression(precLowest)
}

// parseExpression implements Pratt-style precedence climbing: parse a
// prefix (NUD), then repeatedly fold in infix/postfix operators (LED)
// whose binding power is at least minPrec.
func (p *Parser) parseExpression(minPrec int) ast.Expression {
	left := p.parsePrefix()

	for {
		kind := p.cur().Kind
		negated := false
		effective := kind

		if kind == token.NOT {
			switch p.peek().Kind {
			case token.IN, token.LIKE, token.GLOB, token.MATCH, token.REGEXP, token.BETWEEN:
				negated = true
				effective = p.peek().Kind
			default:
				return left
			}
		}

		if equalityGroupKinds[effective] {
			if precEquality < minPrec {
				return left
			}
			if negated {
				p.advance() // NOT
			}
			start := p.cur()
			p.advance() // the keyword itself
			switch effective {
			case token.BETWEEN:
				left = p.parseBetween(left, negated, start)
			case token.IN:
				left = p.parseIn(left, negated, start)
			case token.IS:
				left = p.parseIs(left, start)
			default: // LIKE, GLOB, MATCH, REGEXP
				left = p.parseLike(left, effective, negated, start)
			}
			continue
		}

		prec, ok := binaryPrecedence[kind]
		if !ok || prec < minPrec {
			return left
		}
		op, ok := simpleBinaryOp(kind)
		if !ok {
			return left
		}
		opTok := p.advance()
		right := p.parseExpression(prec + 1)
		left = &ast.BinaryExpr{
			Base:  ast.NewBase(p.nextID(), combineSpan(left.Span(), opTok.Span, right.Span())),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

func simpleBinaryOp(kind token.Kind) (ast.BinaryOp, bool) {
	switch kind {
	case token.OR:
		return ast.OpOr, true
	case token.AND:
		return ast.OpAnd, true
	case token.ASSIGN, token.EQ:
		return ast.OpEq, true
	case token.NEQ:
		return ast.OpNotEq, true
	case token.LT:
		return ast.OpLt, true
	case token.LTE:
		return ast.OpLte, true
	case token.GT:
		return ast.OpGt, true
	case token.GTE:
		return ast.OpGte, true
	case token.SHL:
		return ast.OpShl, true
	case token.SHR:
		return ast.OpShr, true
	case token.AMP:
		return ast.OpBitAnd, true
	case token.PIPE:
		return ast.OpBitOr, true
	case token.PLUS:
		return ast.OpAdd, true
	case token.MINUS:
		return ast.OpSub, true
	case token.STAR:
		return ast.OpMul, true
	case token.SLASH:
		return ast.OpDiv, true
	case token.PERCENT:
		return ast.OpMod, true
	case token.CONCAT:
		return ast.OpConcat, true
	default:
		return 0, false
	}
}

// parsePrefix handles unary NOT/-/+/~ and falls through to a primary
// expression. Operand precedence is fixed to the operator's own binding
// power (not minPrec) so tighter operators fold into the operand while
// looser ones are left for the caller's infix loop.
func (p *Parser) parsePrefix() ast.Expression {
	switch p.cur().Kind {
	case token.NOT:
		start := p.advance()
		operand := p.parseExpression(precNot)
		return &ast.UnaryExpr{
			Base:    ast.NewBase(p.nextID(), combineSpan2(start.Span, operand.Span())),
			Op:      ast.OpNot,
			Operand: operand,
		}
	case token.MINUS, token.PLUS, token.TILDE:
		start := p.advance()
		op := map[token.Kind]ast.UnaryOp{token.MINUS: ast.OpNeg, token.PLUS: ast.OpPos, token.TILDE: ast.OpBitNot}[start.Kind]
		operand := p.parseExpression(precUnary)
		return &ast.UnaryExpr{
			Base:    ast.NewBase(p.nextID(), combineSpan2(start.Span, operand.Span())),
			Op:      op,
			Operand: operand,
		}
	default:
		return p.parsePostfix(p.parsePrimary())
	}
}

// parsePostfix handles the collate/postfix level: `expr COLLATE name`.
// The collation name does not participate in type inference, so it is
// consumed and dropped rather than represented in the tree.
func (p *Parser) parsePostfix(expr ast.Expression) ast.Expression {
	for p.at(token.COLLATE) {
		p.advance()
		p.expect(token.IDENT)
	}
	return expr
}

func (p *Parser) parsePrimary() ast.Expression {
	tok := p.cur()
	switch tok.Kind {
	case token.NUMBER:
		p.advance()
		kind := ast.LiteralInt
		if _, isFloat := tok.Value.(float64); isFloat {
			kind = ast.LiteralReal
		}
		return &ast.Literal{Base: ast.NewBase(p.nextID(), tok.Span), Kind: kind, Value: tok.Value}
	case token.STRING:
		p.advance()
		return &ast.Literal{Base: ast.NewBase(p.nextID(), tok.Span), Kind: ast.LiteralText, Value: tok.Value}
	case token.NULL:
		p.advance()
		return &ast.Literal{Base: ast.NewBase(p.nextID(), tok.Span), Kind: ast.LiteralNull, Value: nil}
	case token.TRUE, token.FALSE:
		p.advance()
		return &ast.Literal{Base: ast.NewBase(p.nextID(), tok.Span), Kind: ast.LiteralBool, Value: tok.Kind == token.TRUE}
	case token.VARIABLE:
		return p.parseVariable()
	case token.CASE:
		return p.parseCase()
	case token.EXISTS:
		return p.parseExistsSubquery()
	case token.LPAREN:
		return p.parseParenthesized()
	case token.CAST:
		return p.parseCast()
	case token.IDENT:
		return p.parseIdentifierExpr()
	default:
		p.errorf(diagnostics.ErrExpectedExpression, "expected expression, got %s", tok.Kind)
		p.advance()
		return ast.NewErrorNode(p.nextID(), tok.Span, "expected expression")
	}
}

func (p *Parser) parseVariable() ast.Expression {
	tok := p.advance()
	v := &ast.Variable{Base: ast.NewBase(p.nextID(), tok.Span)}
	switch val := tok.Value.(type) {
	case int64:
		idx := val
		v.ExplicitIndex = &idx
	case string:
		v.Name = val
	}
	p.assignVariableIndex(v)
	return v
}

// parseParenthesized handles `(expr)` and the scalar-subquery form
// `(SELECT ...)`.
func (p *Parser) parseParenthesized() ast.Expression {
	start := p.advance() // '('
	if p.at(token.SELECT) || p.at(token.WITH) {
		sel := p.parseSelectStatement()
		end, _ := p.expect(token.RPAREN)
		return &ast.SubqueryExpr{Base: ast.NewBase(p.nextID(), combineSpan2(start.Span, endOrCurSpan(end, p))), Select: sel}
	}
	inner := p.parseExpression(precLowest)
	p.expect(token.RPAREN)
	return inner
}

func (p *Parser) parseExistsSubquery() ast.Expression {
	start := p.advance() // EXISTS
	p.expect(token.LPAREN)
	sel := p.parseSelectStatement()
	end, _ := p.expect(token.RPAREN)
	return &ast.SubqueryExpr{Base: ast.NewBase(p.nextID(), combineSpan2(start.Span, endOrCurSpan(end, p))), Exists: true, Select: sel}
}

// parseCast handles `CAST(expr AS typename)`, surfaced as a FunctionCall
// named "cast" with the type name folded into a trailing text-literal
// argument; the type resolver recognizes this shape directly.
func (p *Parser) parseCast() ast.Expression {
	start := p.advance() // CAST
	p.expect(token.LPAREN)
	inner := p.parseExpression(precLowest)
	p.expect(token.AS)
	typeName := ""
	if p.at(token.IDENT) {
		typeName = p.advance().Lexeme
	}
	end, _ := p.expect(token.RPAREN)
	typeLit := &ast.Literal{Base: ast.NewBase(p.nextID(), end.Span), Kind: ast.LiteralText, Value: typeName}
	return &ast.FunctionCall{
		Base: ast.NewBase(p.nextID(), combineSpan2(start.Span, endOrCurSpan(end, p))),
		Name: "cast",
		Args: []ast.Expression{inner, typeLit},
	}
}

// parseIdentifierExpr disambiguates a bare identifier into a qualified
// or unqualified Reference, or a FunctionCall when followed by '('.
func (p *Parser) parseIdentifierExpr() ast.Expression {
	start := p.advance()
	name := identLexeme(start)

	if p.at(token.DOT) {
		p.advance()
		if p.at(token.STAR) {
			// table.* only makes sense as a result column, handled by
			// the caller (parseResultColumn); here treat it as an
			// error so expression contexts don't silently accept it.
			star := p.advance()
			p.errorf(diagnostics.ErrUnexpectedToken, "unexpected '%s.*' in expression position", name)
			return ast.NewErrorNode(p.nextID(), combineSpan2(start.Span, star.Span), "qualified star in expression position")
		}
		colTok, _ := p.expect(token.IDENT)
		return &ast.Reference{
			Base:       ast.NewBase(p.nextID(), combineSpan2(start.Span, colTok.Span)),
			TableAlias: name,
			Column:     identLexeme(colTok),
		}
	}

	if p.at(token.LPAREN) {
		return p.parseFunctionCall(start, name)
	}

	return &ast.Reference{Base: ast.NewBase(p.nextID(), start.Span), Column: name}
}

func (p *Parser) parseFunctionCall(start token.Token, name string) ast.Expression {
	p.advance() // '('
	call := &ast.FunctionCall{Name: name}
	if p.at(token.DISTINCT) {
		p.advance()
		call.Distinct = true
	}
	if p.at(token.STAR) {
		p.advance()
		call.Star = true
	} else if !p.at(token.RPAREN) {
		call.Args = append(call.Args, p.parseExpression(precLowest))
		for p.at(token.COMMA) {
			p.advance()
			call.Args = append(call.Args, p.parseExpression(precLowest))
		}
	}
	end, _ := p.expect(token.RPAREN)
	call.Base = ast.NewBase(p.nextID(), combineSpan2(start.Span, endOrCurSpan(end, p)))

	if p.at(token.OVER) {
		return p.parseWindowFunction(start, call)
	}
	return call
}

func (p *Parser) parseWindowFunction(start token.Token, call *ast.FunctionCall) ast.Expression {
	p.advance() // OVER
	wf := &ast.WindowFunction{Call: call}
	if p.at(token.IDENT) {
		wf.WindowName = p.advance().Lexeme
	} else {
		wf.Window = p.parseWindowSpec()
	}
	wf.Base = ast.NewBase(p.nextID(), combineSpan2(start.Span, token.Span{Offset: p.lastEnd, Length: 0}))
	return wf
}

// parseWindowSpec parses `(PARTITION BY ... ORDER BY ... frame)`.
func (p *Parser) parseWindowSpec() *ast.WindowClause {
	start := p.cur()
	p.expect(token.LPAREN)
	wc := &ast.WindowClause{}
	if p.at(token.PARTITION) {
		p.advance()
		p.expect(token.BY)
		wc.Partitions = append(wc.Partitions, p.parseExpression(precLowest))
		for p.at(token.COMMA) {
			p.advance()
			wc.Partitions = append(wc.Partitions, p.parseExpression(precLowest))
		}
	}
	if p.at(token.ORDER) {
		p.advance()
		p.expect(token.BY)
		wc.OrderBy = append(wc.OrderBy, p.parseOrderingTerm())
		for p.at(token.COMMA) {
			p.advance()
			wc.OrderBy = append(wc.OrderBy, p.parseOrderingTerm())
		}
	}
	if p.at(token.RANGE) || p.at(token.ROWS) || p.at(token.GROUPS) {
		wc.FrameKind = p.advance().Lexeme
		wc.FrameStart = p.parseFrameBound()
		if p.at(token.AND) {
			p.advance()
			wc.FrameEnd = p.parseFrameBound()
		}
	}
	end, _ := p.expect(token.RPAREN)
	wc.Base = ast.NewBase(p.nextID(), combineSpan2(start.Span, endOrCurSpan(end, p)))
	return wc
}

func (p *Parser) parseFrameBound() *ast.FrameBound {
	if p.at(token.UNBOUNDED) {
		p.advance()
		if p.at(token.PRECEDING) {
			p.advance()
			return &ast.FrameBound{Kind: ast.BoundUnboundedPreceding}
		}
		p.expect(token.FOLLOWING)
		return &ast.FrameBound{Kind: ast.BoundUnboundedFollowing}
	}
	if p.at(token.CURRENT) {
		p.advance()
		p.expect(token.ROW)
		return &ast.FrameBound{Kind: ast.BoundCurrentRow}
	}
	expr := p.parseExpression(precComparison)
	if p.at(token.FOLLOWING) {
		p.advance()
		return &ast.FrameBound{Kind: ast.BoundFollowing, Expr: expr}
	}
	p.expect(token.PRECEDING)
	return &ast.FrameBound{Kind: ast.BoundPreceding, Expr: expr}
}

func (p *Parser) parseOrderingTerm() ast.OrderingTerm {
	expr := p.parseExpression(precLowest)
	term := ast.OrderingTerm{Expr: expr}
	if p.at(token.ASC) {
		p.advance()
	} else if p.at(token.DESC) {
		p.advance()
		term.Descending = true
	}
	return term
}

func (p *Parser) parseCase() ast.Expression {
	start := p.advance() // CASE
	ce := &ast.CaseExpr{}
	if !p.at(token.WHEN) {
		ce.Subject = p.parseExpression(precLowest)
	}
	for p.at(token.WHEN) {
		p.advance()
		cond := p.parseExpression(precLowest)
		p.expect(token.THEN)
		result := p.parseExpression(precLowest)
		ce.Whens = append(ce.Whens, ast.WhenClause{Condition: cond, Result: result})
	}
	if p.at(token.ELSE) {
		p.advance()
		ce.Else = p.parseExpression(precLowest)
	}
	end, _ := p.expect(token.END)
	ce.Base = ast.NewBase(p.nextID(), combineSpan2(start.Span, endOrCurSpan(end, p)))
	return ce
}

func (p *Parser) parseBetween(subject ast.Expression, negated bool, start token.Token) ast.Expression {
	lower := p.parseExpression(precComparison)
	p.expect(token.AND)
	upper := p.parseExpression(precComparison)
	return &ast.BetweenExpr{
		Base:    ast.NewBase(p.nextID(), combineSpan2(subject.Span(), upper.Span())),
		Negated: negated,
		Subject: subject,
		Lower:   lower,
		Upper:   upper,
	}
}

func (p *Parser) parseIn(subject ast.Expression, negated bool, start token.Token) ast.Expression {
	in := &ast.InExpr{Subject: subject, Negated: negated}
	if p.at(token.VARIABLE) {
		// `subject IN ?` — array form, no parens.
		v := p.parseVariable().(*ast.Variable)
		in.Variable = v
		in.Parenthesized = false
		in.Base = ast.NewBase(p.nextID(), combineSpan2(subject.Span(), v.Span()))
		return in
	}
	p.expect(token.LPAREN)
	switch {
	case p.at(token.VARIABLE) && p.peek().Kind == token.RPAREN:
		v := p.parseVariable().(*ast.Variable)
		in.Variable = v
		in.Parenthesized = true
	case p.at(token.SELECT) || p.at(token.WITH):
		sel := p.parseSelectStatement()
		in.Subquery = &ast.SubqueryExpr{Base: ast.NewBase(p.nextID(), sel.Span()), Select: sel}
	case p.at(token.RPAREN):
		// empty list: `IN ()`
	default:
		in.List = append(in.List, p.parseExpression(precLowest))
		for p.at(token.COMMA) {
			p.advance()
			in.List = append(in.List, p.parseExpression(precLowest))
		}
	}
	end, _ := p.expect(token.RPAREN)
	in.Base = ast.NewBase(p.nextID(), combineSpan2(subject.Span(), endOrCurSpan(end, p)))
	return in
}

func (p *Parser) parseLike(subject ast.Expression, kind token.Kind, negated bool, start token.Token) ast.Expression {
	op := map[token.Kind]ast.LikeOp{
		token.LIKE: ast.OpLike, token.GLOB: ast.OpLikeGlob,
		token.MATCH: ast.OpLikeMatch, token.REGEXP: ast.OpLikeRegexp,
	}[kind]
	pattern := p.parseExpression(precComparison)
	like := &ast.LikeExpr{Op: op, Negated: negated, Subject: subject, Pattern: pattern}
	endSpan := pattern.Span()
	if p.at(token.ESCAPE) {
		p.advance()
		like.Escape = p.parseExpression(precComparison)
		endSpan = like.Escape.Span()
	}
	like.Base = ast.NewBase(p.nextID(), combineSpan2(subject.Span(), endSpan))
	return like
}

func (p *Parser) parseIs(subject ast.Expression, start token.Token) ast.Expression {
	op := ast.OpIs
	if p.at(token.NOT) {
		p.advance()
		op = ast.OpIsNot
	}
	right := p.parseExpression(precComparison + 1)
	return &ast.BinaryExpr{
		Base:  ast.NewBase(p.nextID(), combineSpan2(subject.Span(), right.Span())),
		Op:    op,
		Left:  subject,
		Right: right,
	}
}

func identLexeme(tok token.Token) string {
	if s, ok := tok.Value.(string); ok {
		return s
	}
	return tok.Lexeme
}

func combineSpan(a, op, b token.Span) token.Span {
	return token.Span{Offset: a.Offset, Length: b.End() - a.Offset}
}

func combineSpan2(a, b token.Span) token.Span {
	return token.Span{Offset: a.Offset, Length: b.End() - a.Offset}
}

func endOrCurSpan(tok token.Token, p *Parser) token.Span {
	if tok.Span.Length == 0 && tok.Kind == token.ILLEGAL {
		return token.Span{Offset: p.lastEnd, Length: 0}
	}
	return tok.Span
}
