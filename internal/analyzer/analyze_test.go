package analyzer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqlfront/sqlfront/internal/analyzer"
	"github.com/sqlfront/sqlfront/internal/ast"
	"github.com/sqlfront/sqlfront/internal/diagnostics"
	"github.com/sqlfront/sqlfront/internal/lexer"
	"github.com/sqlfront/sqlfront/internal/parser"
	"github.com/sqlfront/sqlfront/internal/sqlschema"
	"github.com/sqlfront/sqlfront/internal/typesystem"
)

var usersTable = sqlschema.Table{
	Name: "users",
	Columns: []sqlschema.Column{
		{Name: "id", Type: sqlschema.Integer},
		{Name: "name", Type: sqlschema.Text},
		{Name: "created_at", Type: sqlschema.DateTime},
	},
}

var ordersTable = sqlschema.Table{
	Name: "orders",
	Columns: []sqlschema.Column{
		{Name: "id", Type: sqlschema.Integer},
		{Name: "user_id", Type: sqlschema.Integer},
		{Name: "total", Type: sqlschema.Real},
	},
}

// analyze tokenizes, parses and fully analyzes sql against the given
// tables in one step, returning the single top-level statement analyzed
// (tests in this file all use single-statement programs).
func analyze(t *testing.T, sql string, tables ...sqlschema.Table) (*analyzer.AnalysisContext, ast.Statement) {
	t.Helper()
	tokens, err := lexer.Tokenize(sql)
	require.NoError(t, err)
	p := parser.New(sql, tokens)
	stmts := p.ParseProgram()
	require.Empty(t, p.Errors())
	require.Len(t, stmts, 1)
	ctx := analyzer.Analyze(sql, stmts, p.IDs(), tables)
	return ctx, stmts[0]
}

func findCodes(errs []diagnostics.AnalysisError) []string {
	codes := make([]string, len(errs))
	for i, e := range errs {
		codes[i] = e.Code
	}
	return codes
}

func TestResolvesUnqualifiedColumnToItsSoleSource(t *testing.T) {
	ctx, stmt := analyze(t, "SELECT name FROM users", usersTable)
	require.Empty(t, ctx.Errors)
	sel := stmt.(*ast.SelectStatement)
	ref := sel.Columns[0].(*ast.ExpressionResultColumn).Expr.(*ast.Reference)
	sym, ok := ctx.Resolved[ref.ID()]
	require.True(t, ok)
	require.Equal(t, "name", sym.Column.Name)
	require.Equal(t, "users", sym.SourceAlias)
}

func TestResolvesQualifiedColumnThroughAlias(t *testing.T) {
	ctx, stmt := analyze(t, "SELECT u.name FROM users u", usersTable)
	require.Empty(t, ctx.Errors)
	sel := stmt.(*ast.SelectStatement)
	ref := sel.Columns[0].(*ast.ExpressionResultColumn).Expr.(*ast.Reference)
	sym, ok := ctx.Resolved[ref.ID()]
	require.True(t, ok)
	require.Equal(t, "name", sym.Column.Name)
}

func TestAmbiguousUnqualifiedColumnAcrossJoinIsReported(t *testing.T) {
	// Both tables have an "id" column; an unqualified reference to it
	// can't pick a side.
	ctx, _ := analyze(t, "SELECT id FROM users JOIN orders ON users.id = orders.user_id", usersTable, ordersTable)
	require.Contains(t, findCodes(ctx.Errors), diagnostics.ErrAmbiguousReference)
}

func TestUnresolvedColumnIsReported(t *testing.T) {
	ctx, _ := analyze(t, "SELECT nope FROM users", usersTable)
	require.Contains(t, findCodes(ctx.Errors), diagnostics.ErrUnresolvedReference)
}

func TestUnresolvedTableIsReported(t *testing.T) {
	ctx, _ := analyze(t, "SELECT a FROM ghost")
	require.Contains(t, findCodes(ctx.Errors), diagnostics.ErrUnresolvedTable)
}

func TestStarExpandsToEveryColumnInFromOrder(t *testing.T) {
	ctx, stmt := analyze(t, "SELECT * FROM users", usersTable)
	require.Empty(t, ctx.Errors)
	sel := stmt.(*ast.SelectStatement)
	require.Len(t, sel.Columns, len(usersTable.Columns))
	for i, c := range sel.Columns {
		ref := c.(*ast.ExpressionResultColumn).Expr.(*ast.Reference)
		require.Equal(t, usersTable.Columns[i].Name, ref.Column)
	}
}

func TestQualifiedStarExpandsOnlyThatSource(t *testing.T) {
	ctx, stmt := analyze(t, "SELECT o.* FROM users u JOIN orders o ON u.id = o.user_id", usersTable, ordersTable)
	require.Empty(t, ctx.Errors)
	sel := stmt.(*ast.SelectStatement)
	require.Len(t, sel.Columns, len(ordersTable.Columns))
}

func TestRecursiveCteSelfReferenceResolves(t *testing.T) {
	ctx, _ := analyze(t, `WITH RECURSIVE c(n) AS (
		SELECT 1
		UNION ALL
		SELECT n + 1 FROM c WHERE n < 5
	) SELECT n FROM c`)
	require.Empty(t, ctx.Errors)
}

func TestSubqueryAsSourceExposesSelectedColumns(t *testing.T) {
	ctx, _ := analyze(t, "SELECT s.total FROM (SELECT total FROM orders) s", ordersTable)
	require.Empty(t, ctx.Errors)
}

func TestTriggerBodyStatementsAreAnalyzed(t *testing.T) {
	ctx, _ := analyze(t, `CREATE TRIGGER trg AFTER INSERT ON orders BEGIN
		SELECT user_id FROM orders;
	END`, ordersTable)
	require.Empty(t, ctx.Errors)
}

// --- Type inference (§4.7) ---------------------------------------------

func resolvedTypeable(t *testing.T, ctx *analyzer.AnalysisContext, n ast.Typeable) typesystem.ResolveResult {
	t.Helper()
	r := ctx.TypeOf(n)
	require.True(t, r.IsResolved(), "expected resolved type, got state %v", r.State)
	return r
}

func TestComparisonAgainstColumnInfersBindVariableType(t *testing.T) {
	ctx, stmt := analyze(t, "SELECT id FROM users WHERE name = ?", usersTable)
	require.Empty(t, ctx.Errors)
	sel := stmt.(*ast.SelectStatement)
	bin := sel.Where.Condition.(*ast.BinaryExpr)
	v := bin.Right.(*ast.Variable)
	r := resolvedTypeable(t, ctx, v)
	require.Equal(t, typesystem.Text, r.Type.Base)
}

func TestDateTimeColumnHintPropagatesToVariable(t *testing.T) {
	ctx, stmt := analyze(t, "SELECT id FROM users WHERE created_at > ?", usersTable)
	require.Empty(t, ctx.Errors)
	sel := stmt.(*ast.SelectStatement)
	bin := sel.Where.Condition.(*ast.BinaryExpr)
	v := bin.Right.(*ast.Variable)
	r := resolvedTypeable(t, ctx, v)
	require.Equal(t, typesystem.Int, r.Type.Base)
	require.Equal(t, typesystem.IsDateTime, r.Type.Hint)
}

func TestBetweenUnifiesVariableWithColumnType(t *testing.T) {
	ctx, stmt := analyze(t, "SELECT id FROM orders WHERE total BETWEEN ? AND 100.0", ordersTable)
	require.Empty(t, ctx.Errors)
	sel := stmt.(*ast.SelectStatement)
	between := sel.Where.Condition.(*ast.BetweenExpr)
	v := between.Lower.(*ast.Variable)
	r := resolvedTypeable(t, ctx, v)
	require.Equal(t, typesystem.Real, r.Type.Base)
}

func TestInArrayVariableInfersElementTypeFromSubject(t *testing.T) {
	// The unparenthesized `IN ?` array form binds to InExpr.Variable
	// directly; expectedFromIn derives a type only for a variable in that
	// slot (`IN ?` or `IN (?)`); a bare element inside an explicit
	// `(v1, v2, ...)` list is not unified against its siblings.
	ctx, stmt := analyze(t, "SELECT id FROM users WHERE id IN ?", usersTable)
	require.Empty(t, ctx.Errors)
	sel := stmt.(*ast.SelectStatement)
	in := sel.Where.Condition.(*ast.InExpr)
	r := resolvedTypeable(t, ctx, in.Variable)
	require.Equal(t, typesystem.Int, r.Type.Base)
	require.True(t, r.Type.IsArray)
}

func TestWindowFrameBoundVariableInfersInt(t *testing.T) {
	ctx, stmt := analyze(t, "SELECT row_number() OVER (ORDER BY id RANGE ? PRECEDING) FROM users", usersTable)
	require.Empty(t, ctx.Errors)
	sel := stmt.(*ast.SelectStatement)
	wf := sel.Columns[0].(*ast.ExpressionResultColumn).Expr.(*ast.WindowFunction)
	v := wf.Window.FrameStart.Expr.(*ast.Variable)
	r := resolvedTypeable(t, ctx, v)
	require.Equal(t, typesystem.Int, r.Type.Base)
}

func TestCastFunctionCallSynthesizesDestinationType(t *testing.T) {
	ctx, stmt := analyze(t, "SELECT CAST(total AS TEXT) FROM orders", ordersTable)
	require.Empty(t, ctx.Errors)
	sel := stmt.(*ast.SelectStatement)
	fc := sel.Columns[0].(*ast.ExpressionResultColumn).Expr.(*ast.FunctionCall)
	r := resolvedTypeable(t, ctx, fc)
	require.Equal(t, typesystem.Text, r.Type.Base)
}

func TestCountStarSynthesizesInt(t *testing.T) {
	ctx, stmt := analyze(t, "SELECT count(*) FROM orders", ordersTable)
	require.Empty(t, ctx.Errors)
	sel := stmt.(*ast.SelectStatement)
	fc := sel.Columns[0].(*ast.ExpressionResultColumn).Expr.(*ast.FunctionCall)
	r := resolvedTypeable(t, ctx, fc)
	require.Equal(t, typesystem.Int, r.Type.Base)
}
