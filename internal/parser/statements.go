package parser

import (
	"github.com/sqlfront/sqlfront/internal/ast"
	"github.com/sqlfront/sqlfront/internal/diagnostics"
	"github.com/sqlfront/sqlfront/internal/token"
)

// ParseProgram parses a source string's worth of already-scanned tokens
// as a semicolon-separated sequence of statements. A statement that fails
// to parse is replaced by an *ast.ErrorNode and parsing resumes at the
// next synchronization point, so one bad statement never discards the
// rest of the program.
func (p *Parser) ParseProgram() []ast.Statement {
	var stmts []ast.Statement
	for !p.at(token.EOF) {
		if p.at(token.SEMICOLON) {
			p.advance()
			continue
		}
		stmts = append(stmts, p.parseStatement())
		if p.at(token.SEMICOLON) {
			p.advance()
		}
	}
	return stmts
}

func (p *Parser) parseStatement() ast.Statement {
	start := p.cur()
	var stmt ast.Statement
	switch p.cur().Kind {
	case token.SELECT, token.WITH:
		stmt = p.parseSelectStatement()
	case token.INSERT:
		stmt = p.parseInsertStatement()
	case token.UPDATE:
		stmt = p.parseUpdateStatement()
	case token.DELETE:
		stmt = p.parseDeleteStatement()
	case token.CREATE:
		stmt = p.parseCreateStatement()
	default:
		p.errorf(diagnostics.ErrUnknownStatement, "unrecognized statement starting with %s", p.cur().Kind)
		p.synchronize()
		stmt = ast.NewErrorNode(p.nextID(), p.spanFrom(start), "unrecognized statement")
	}
	return stmt
}

// --- SELECT -----------------------------------------------------------

func (p *Parser) parseSelectStatement() *ast.SelectStatement {
	start := p.cur()
	var ctes []*ast.CteDefinition
	if p.at(token.WITH) {
		ctes = p.parseWithClause()
	}
	if _, ok := p.expect(token.SELECT); !ok {
		p.synchronize()
		sel := &ast.SelectStatement{Ctes: ctes}
		sel.Base = ast.NewBase(p.nextID(), p.spanFrom(start))
		return sel
	}
	sel := &ast.SelectStatement{Ctes: ctes}
	if p.at(token.DISTINCT) {
		p.advance()
		sel.Distinct = true
	} else if p.at(token.ALL) {
		p.advance()
	}

	sel.Columns = append(sel.Columns, p.parseResultColumn())
	for p.at(token.COMMA) {
		p.advance()
		sel.Columns = append(sel.Columns, p.parseResultColumn())
	}

	if p.at(token.FROM) {
		sel.From = p.parseFromClause()
	}
	if p.at(token.WHERE) {
		sel.Where = p.parseWhereClause()
	}
	if p.at(token.GROUP) {
		sel.GroupBy = p.parseGroupByClause()
	}
	if p.at(token.HAVING) {
		sel.Having = p.parseHavingClause()
	}
	if p.at(token.WINDOW) {
		sel.Window = p.parseNamedWindowClause()
	}
	if op, ok := p.tryCompoundOp(); ok {
		sel.CompoundOp = op
		sel.Compound = p.parseSelectStatement()
	}
	if p.at(token.ORDER) {
		sel.OrderBy = p.parseOrderByClause()
	}
	if p.at(token.LIMIT) {
		sel.Limit = p.parseLimitClause()
	}

	sel.Base = ast.NewBase(p.nextID(), p.spanFrom(start))
	return sel
}

func (p *Parser) tryCompoundOp() (string, bool) {
	switch p.cur().Kind {
	case token.UNION:
		p.advance()
		if p.at(token.ALL) {
			p.advance()
			return "UNION ALL", true
		}
		return "UNION", true
	case token.INTERSECT:
		p.advance()
		return "INTERSECT", true
	case token.EXCEPT:
		p.advance()
		return "EXCEPT", true
	default:
		return "", false
	}
}

func (p *Parser) parseWithClause() []*ast.CteDefinition {
	p.advance() // WITH
	recursive := false
	if p.at(token.RECURSIVE) {
		p.advance()
		recursive = true
	}
	ctes := []*ast.CteDefinition{p.parseCteDefinition(recursive)}
	for p.at(token.COMMA) {
		p.advance()
		ctes = append(ctes, p.parseCteDefinition(recursive))
	}
	return ctes
}

func (p *Parser) parseCteDefinition(recursive bool) *ast.CteDefinition {
	start := p.cur()
	nameTok, _ := p.expect(token.IDENT)
	cte := &ast.CteDefinition{Name: identLexeme(nameTok), Recursive: recursive}
	if p.at(token.LPAREN) {
		p.advance()
		if p.at(token.IDENT) {
			cte.Columns = append(cte.Columns, identLexeme(p.advance()))
			for p.at(token.COMMA) {
				p.advance()
				cte.Columns = append(cte.Columns, identLexeme(p.advance()))
			}
		}
		p.expect(token.RPAREN)
	}
	p.expect(token.AS)
	p.expect(token.LPAREN)
	cte.Select = p.parseSelectStatement()
	p.expect(token.RPAREN)
	cte.Base = ast.NewBase(p.nextID(), p.spanFrom(start))
	return cte
}

// --- Result columns and FROM -------------------------------------------

func (p *Parser) parseResultColumn() ast.ResultColumn {
	if p.at(token.STAR) {
		tok := p.advance()
		return &ast.StarResultColumn{Base: ast.NewBase(p.nextID(), tok.Span)}
	}
	if p.at(token.IDENT) && p.peekAt(1).Kind == token.DOT && p.peekAt(2).Kind == token.STAR {
		start := p.cur()
		tableTok := p.advance()
		p.advance() // '.'
		p.advance() // '*'
		return &ast.StarResultColumn{Base: ast.NewBase(p.nextID(), p.spanFrom(start)), TableAlias: identLexeme(tableTok)}
	}
	start := p.cur()
	expr := p.parseExpression(precLowest)
	alias := p.parseOptionalAlias()
	return &ast.ExpressionResultColumn{Base: ast.NewBase(p.nextID(), p.spanFrom(start)), Expr: expr, Alias: alias}
}

// parseOptionalAlias consumes `[AS] ident`, the form shared by result
// columns and FROM-clause table/subquery sources.
func (p *Parser) parseOptionalAlias() string {
	if p.at(token.AS) {
		p.advance()
		tok, _ := p.expect(token.IDENT)
		return identLexeme(tok)
	}
	if p.at(token.IDENT) {
		return identLexeme(p.advance())
	}
	return ""
}

func (p *Parser) parseFromClause() *ast.FromClause {
	start := p.advance() // FROM
	combined := p.parseTableSource()
	for {
		if p.at(token.COMMA) {
			p.advance()
			right := p.parseTableSource()
			combined = &ast.JoinClause{
				Base: ast.NewBase(p.nextID(), token.Span{Offset: combined.Span().Offset, Length: right.Span().End() - combined.Span().Offset}),
				Kind: "CROSS", Left: combined, Right: right,
			}
			continue
		}
		if kind, ok := p.tryJoinKeyword(); ok {
			right := p.parseTableSource()
			var on ast.Expression
			if p.at(token.ON) {
				p.advance()
				on = p.parseExpression(precLowest)
			}
			combined = &ast.JoinClause{
				Base: ast.NewBase(p.nextID(), token.Span{Offset: combined.Span().Offset, Length: p.lastEnd - combined.Span().Offset}),
				Kind: kind, Left: combined, Right: right, On: on,
			}
			continue
		}
		break
	}
	return &ast.FromClause{Base: ast.NewBase(p.nextID(), p.spanFrom(start)), Sources: []ast.TableSource{combined}}
}

func (p *Parser) tryJoinKeyword() (string, bool) {
	switch p.cur().Kind {
	case token.JOIN:
		p.advance()
		return "INNER", true
	case token.INNER:
		p.advance()
		p.expect(token.JOIN)
		return "INNER", true
	case token.LEFT:
		p.advance()
		if p.at(token.OUTER) {
			p.advance()
		}
		p.expect(token.JOIN)
		return "LEFT", true
	case token.RIGHT:
		p.advance()
		if p.at(token.OUTER) {
			p.advance()
		}
		p.expect(token.JOIN)
		return "RIGHT", true
	case token.FULL:
		p.advance()
		if p.at(token.OUTER) {
			p.advance()
		}
		p.expect(token.JOIN)
		return "FULL", true
	case token.CROSS:
		p.advance()
		p.expect(token.JOIN)
		return "CROSS", true
	default:
		return "", false
	}
}

func (p *Parser) parseTableSource() ast.TableSource {
	if p.at(token.LPAREN) {
		start := p.advance()
		sel := p.parseSelectStatement()
		p.expect(token.RPAREN)
		alias := p.parseOptionalAlias()
		return &ast.SelectStatementAsSource{Base: ast.NewBase(p.nextID(), p.spanFrom(start)), Select: sel, Alias: alias}
	}
	start := p.cur()
	nameTok, _ := p.expect(token.IDENT)
	alias := p.parseOptionalAlias()
	return &ast.TableReference{Base: ast.NewBase(p.nextID(), p.spanFrom(start)), Name: identLexeme(nameTok), Alias: alias}
}

// --- WHERE / GROUP BY / HAVING / ORDER BY / LIMIT / WINDOW -------------

func (p *Parser) parseWhereClause() *ast.WhereClause {
	start := p.advance() // WHERE
	cond := p.parseExpression(precLowest)
	return &ast.WhereClause{Base: ast.NewBase(p.nextID(), p.spanFrom(start)), Condition: cond}
}

func (p *Parser) parseGroupByClause() *ast.GroupByClause {
	start := p.advance() // GROUP
	p.expect(token.BY)
	gb := &ast.GroupByClause{}
	gb.Exprs = append(gb.Exprs, p.parseExpression(precLowest))
	for p.at(token.COMMA) {
		p.advance()
		gb.Exprs = append(gb.Exprs, p.parseExpression(precLowest))
	}
	gb.Base = ast.NewBase(p.nextID(), p.spanFrom(start))
	return gb
}

func (p *Parser) parseHavingClause() *ast.HavingClause {
	start := p.advance() // HAVING
	cond := p.parseExpression(precLowest)
	return &ast.HavingClause{Base: ast.NewBase(p.nextID(), p.spanFrom(start)), Condition: cond}
}

func (p *Parser) parseOrderByClause() *ast.OrderByClause {
	start := p.advance() // ORDER
	p.expect(token.BY)
	ob := &ast.OrderByClause{}
	ob.Terms = append(ob.Terms, p.parseOrderingTerm())
	for p.at(token.COMMA) {
		p.advance()
		ob.Terms = append(ob.Terms, p.parseOrderingTerm())
	}
	ob.Base = ast.NewBase(p.nextID(), p.spanFrom(start))
	return ob
}

func (p *Parser) parseLimitClause() *ast.LimitClause {
	start := p.advance() // LIMIT
	count := p.parseExpression(precLowest)
	lc := &ast.LimitClause{Count: count}
	switch {
	case p.at(token.OFFSET):
		p.advance()
		lc.Offset = p.parseExpression(precLowest)
	case p.at(token.COMMA):
		// SQLite's `LIMIT offset, count` shorthand.
		p.advance()
		lc.Offset = count
		lc.Count = p.parseExpression(precLowest)
	}
	lc.Base = ast.NewBase(p.nextID(), p.spanFrom(start))
	return lc
}

// parseNamedWindowClause parses a top-level `WINDOW name AS (spec), ...`
// clause. Only the first named window is retained on SelectStatement;
// additional entries are parsed (so the token stream stays in sync) but
// dropped, a deliberate simplification since SelectStatement carries a
// single Window slot. A WindowFunction referencing a later name is not
// diagnosed: analysis does not check WindowName against this clause.
func (p *Parser) parseNamedWindowClause() *ast.WindowClause {
	p.advance() // WINDOW
	nameTok, _ := p.expect(token.IDENT)
	p.expect(token.AS)
	first := p.parseWindowSpec()
	first.Name = identLexeme(nameTok)
	for p.at(token.COMMA) {
		p.advance()
		p.expect(token.IDENT)
		p.expect(token.AS)
		p.parseWindowSpec()
	}
	return first
}

// --- INSERT / UPDATE / DELETE -------------------------------------------

func (p *Parser) parseInsertStatement() *ast.InsertStatement {
	start := p.advance() // INSERT
	p.expect(token.INTO)
	tableTok, _ := p.expect(token.IDENT)
	table := &ast.TableReference{Base: ast.NewBase(p.nextID(), tableTok.Span), Name: identLexeme(tableTok)}
	ins := &ast.InsertStatement{Table: table}

	if p.at(token.LPAREN) {
		p.advance()
		if p.at(token.IDENT) {
			ins.Columns = append(ins.Columns, identLexeme(p.advance()))
			for p.at(token.COMMA) {
				p.advance()
				ins.Columns = append(ins.Columns, identLexeme(p.advance()))
			}
		}
		p.expect(token.RPAREN)
	}

	switch {
	case p.at(token.VALUES):
		p.advance()
		ins.Values = append(ins.Values, p.parseValueRow())
		for p.at(token.COMMA) {
			p.advance()
			ins.Values = append(ins.Values, p.parseValueRow())
		}
	case p.at(token.SELECT) || p.at(token.WITH):
		ins.Select = p.parseSelectStatement()
	default:
		p.errorf(diagnostics.ErrUnexpectedToken, "expected VALUES or SELECT, got %s", p.cur().Kind)
	}

	ins.Base = ast.NewBase(p.nextID(), p.spanFrom(start))
	return ins
}

func (p *Parser) parseValueRow() []ast.Expression {
	p.expect(token.LPAREN)
	var row []ast.Expression
	if !p.at(token.RPAREN) {
		row = append(row, p.parseExpression(precLowest))
		for p.at(token.COMMA) {
			p.advance()
			row = append(row, p.parseExpression(precLowest))
		}
	}
	p.expect(token.RPAREN)
	return row
}

func (p *Parser) parseUpdateStatement() *ast.UpdateStatement {
	start := p.advance() // UPDATE
	tableTok, _ := p.expect(token.IDENT)
	table := &ast.TableReference{Base: ast.NewBase(p.nextID(), tableTok.Span), Name: identLexeme(tableTok)}
	upd := &ast.UpdateStatement{Table: table}

	p.expect(token.SET)
	upd.Assignments = append(upd.Assignments, p.parseAssignment())
	for p.at(token.COMMA) {
		p.advance()
		upd.Assignments = append(upd.Assignments, p.parseAssignment())
	}
	if p.at(token.WHERE) {
		upd.Where = p.parseWhereClause()
	}
	upd.Base = ast.NewBase(p.nextID(), p.spanFrom(start))
	return upd
}

func (p *Parser) parseAssignment() ast.Assignment {
	colTok, _ := p.expect(token.IDENT)
	p.expect(token.ASSIGN)
	value := p.parseExpression(precLowest)
	return ast.Assignment{Column: identLexeme(colTok), Value: value}
}

func (p *Parser) parseDeleteStatement() *ast.DeleteStatement {
	start := p.advance() // DELETE
	p.expect(token.FROM)
	tableTok, _ := p.expect(token.IDENT)
	table := &ast.TableReference{Base: ast.NewBase(p.nextID(), tableTok.Span), Name: identLexeme(tableTok)}
	del := &ast.DeleteStatement{Table: table}
	if p.at(token.WHERE) {
		del.Where = p.parseWhereClause()
	}
	del.Base = ast.NewBase(p.nextID(), p.spanFrom(start))
	return del
}

// --- CREATE TABLE / INDEX / TRIGGER -------------------------------------

func (p *Parser) parseCreateStatement() ast.Statement {
	start := p.advance() // CREATE
	unique := false
	if p.at(token.UNIQUE) {
		p.advance()
		unique = true
	}
	switch p.cur().Kind {
	case token.TABLE:
		return p.parseCreateTableStatement(start)
	case token.INDEX:
		return p.parseCreateIndexStatement(start, unique)
	case token.TRIGGER:
		return p.parseCreateTriggerStatement(start)
	default:
		p.errorf(diagnostics.ErrUnknownStatement, "expected TABLE, INDEX or TRIGGER after CREATE, got %s", p.cur().Kind)
		p.synchronize()
		return ast.NewErrorNode(p.nextID(), p.spanFrom(start), "unrecognized CREATE statement")
	}
}

func (p *Parser) parseIfNotExists() bool {
	if p.at(token.IF) {
		p.advance()
		p.expect(token.NOT)
		p.expect(token.EXISTS)
		return true
	}
	return false
}

func (p *Parser) parseCreateTableStatement(start token.Token) *ast.CreateTableStatement {
	p.advance() // TABLE
	ct := &ast.CreateTableStatement{IfNotExists: p.parseIfNotExists()}
	nameTok, _ := p.expect(token.IDENT)
	ct.Name = identLexeme(nameTok)

	p.expect(token.LPAREN)
	if !p.at(token.RPAREN) {
		p.parseTableDefEntry(ct)
		for p.at(token.COMMA) {
			p.advance()
			p.parseTableDefEntry(ct)
		}
	}
	p.expect(token.RPAREN)
	ct.Base = ast.NewBase(p.nextID(), p.spanFrom(start))
	return ct
}

// parseTableDefEntry parses one comma-separated entry inside a CREATE
// TABLE's parenthesized body: either a column definition or a table-level
// constraint (PRIMARY KEY/UNIQUE/FOREIGN KEY/CHECK). Constraints are kept
// as verbatim text rather than a structured shape (§9 leaves foreign-key
// resolution unimplemented).
func (p *Parser) parseTableDefEntry(ct *ast.CreateTableStatement) {
	switch p.cur().Kind {
	case token.PRIMARY, token.UNIQUE, token.FOREIGN, token.CHECK:
		start := p.cur()
		kind := p.advance().Lexeme
		p.skipBalancedUntilCommaOrClose()
		ct.Constraints = append(ct.Constraints, ast.TableConstraint{Kind: kind, Text: p.textOf(p.spanFrom(start))})
	default:
		ct.Columns = append(ct.Columns, p.parseColumnDef())
	}
}

// skipBalancedUntilCommaOrClose advances past tokens until a top-level
// comma or the matching close paren, tracking nested parens so a
// constraint's own `(...)` column list doesn't prematurely end it.
func (p *Parser) skipBalancedUntilCommaOrClose() {
	depth := 0
	for {
		switch p.cur().Kind {
		case token.EOF:
			return
		case token.LPAREN:
			depth++
			p.advance()
		case token.RPAREN:
			if depth == 0 {
				return
			}
			depth--
			p.advance()
		case token.COMMA:
			if depth == 0 {
				return
			}
			p.advance()
		default:
			p.advance()
		}
	}
}

func (p *Parser) parseColumnDef() ast.ColumnDef {
	nameTok, _ := p.expect(token.IDENT)
	col := ast.ColumnDef{Name: identLexeme(nameTok)}
	if p.at(token.IDENT) {
		col.TypeName = p.advance().Lexeme
	}
loop:
	for {
		switch p.cur().Kind {
		case token.NOT:
			p.advance()
			p.expect(token.NULL)
			col.NotNull = true
		case token.PRIMARY:
			p.advance()
			p.expect(token.KEY)
			col.PrimaryKey = true
			if p.at(token.AUTOINCREMENT) {
				p.advance()
				col.AutoIncrement = true
			}
		case token.UNIQUE:
			p.advance()
			col.Unique = true
		case token.DEFAULT:
			p.advance()
			col.Default = p.parseExpression(precComparison)
		default:
			break loop
		}
	}
	return col
}

func (p *Parser) parseCreateIndexStatement(start token.Token, unique bool) *ast.CreateIndexStatement {
	p.advance() // INDEX
	ci := &ast.CreateIndexStatement{Unique: unique, IfNotExists: p.parseIfNotExists()}
	nameTok, _ := p.expect(token.IDENT)
	ci.Name = identLexeme(nameTok)
	p.expect(token.ON)
	tableTok, _ := p.expect(token.IDENT)
	ci.Table = identLexeme(tableTok)
	p.expect(token.LPAREN)
	if !p.at(token.RPAREN) {
		ci.Columns = append(ci.Columns, identLexeme(p.advance()))
		for p.at(token.COMMA) {
			p.advance()
			ci.Columns = append(ci.Columns, identLexeme(p.advance()))
		}
	}
	p.expect(token.RPAREN)
	ci.Base = ast.NewBase(p.nextID(), p.spanFrom(start))
	return ci
}

func (p *Parser) parseCreateTriggerStatement(start token.Token) *ast.CreateTriggerStatement {
	p.advance() // TRIGGER
	ct := &ast.CreateTriggerStatement{}
	nameTok, _ := p.expect(token.IDENT)
	ct.Name = identLexeme(nameTok)

	switch p.cur().Kind {
	case token.BEFORE, token.AFTER:
		ct.Timing = p.advance().Kind
	case token.INSTEAD:
		p.advance()
		p.expect(token.OF)
		ct.Timing = token.INSTEAD
	}

	switch p.cur().Kind {
	case token.INSERT, token.UPDATE, token.DELETE:
		ct.Event = p.advance().Kind
	default:
		p.errorf(diagnostics.ErrUnexpectedToken, "expected INSERT, UPDATE or DELETE, got %s", p.cur().Kind)
	}

	p.expect(token.ON)
	tableTok, _ := p.expect(token.IDENT)
	ct.Table = identLexeme(tableTok)

	if p.at(token.FOR) {
		p.advance()
		p.expect(token.EACH)
		p.expect(token.ROW)
	}

	p.expect(token.BEGIN)
	for !p.at(token.END) && !p.at(token.EOF) {
		ct.Body = append(ct.Body, p.parseStatement())
		if p.at(token.SEMICOLON) {
			p.advance()
		}
	}
	p.expect(token.END)

	ct.Base = ast.NewBase(p.nextID(), p.spanFrom(start))
	return ct
}
