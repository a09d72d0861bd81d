package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqlfront/sqlfront/internal/ast"
	"github.com/sqlfront/sqlfront/internal/lexer"
	"github.com/sqlfront/sqlfront/internal/token"
)

func parseOne(t *testing.T, src string) (ast.Statement, *Parser) {
	t.Helper()
	tokens, err := lexer.Tokenize(src)
	require.NoError(t, err)
	p := New(src, tokens)
	stmts := p.ParseProgram()
	require.Len(t, stmts, 1)
	return stmts[0], p
}

func TestSelectPlain(t *testing.T) {
	stmt, p := parseOne(t, "SELECT a, b FROM t WHERE a = 1")
	require.Empty(t, p.Errors())
	sel, ok := stmt.(*ast.SelectStatement)
	require.True(t, ok)
	require.Len(t, sel.Columns, 2)
	require.NotNil(t, sel.From)
	require.NotNil(t, sel.Where)
}

func TestSelectDistinct(t *testing.T) {
	stmt, _ := parseOne(t, "SELECT DISTINCT a FROM t")
	sel := stmt.(*ast.SelectStatement)
	require.True(t, sel.Distinct)
}

func TestSelectStarAndQualifiedStar(t *testing.T) {
	stmt, _ := parseOne(t, "SELECT *, t.* FROM t")
	sel := stmt.(*ast.SelectStatement)
	require.Len(t, sel.Columns, 2)
	star, ok := sel.Columns[0].(*ast.StarResultColumn)
	require.True(t, ok)
	require.Empty(t, star.TableAlias)
	qstar, ok := sel.Columns[1].(*ast.StarResultColumn)
	require.True(t, ok)
	require.Equal(t, "t", qstar.TableAlias)
}

func TestSelectWithCte(t *testing.T) {
	stmt, p := parseOne(t, "WITH x AS (SELECT 1) SELECT * FROM x")
	require.Empty(t, p.Errors())
	sel := stmt.(*ast.SelectStatement)
	require.Len(t, sel.Ctes, 1)
	require.Equal(t, "x", sel.Ctes[0].Name)
	require.False(t, sel.Ctes[0].Recursive)
}

func TestSelectWithRecursiveCte(t *testing.T) {
	stmt, p := parseOne(t, `WITH RECURSIVE x(n) AS (SELECT 1 UNION ALL SELECT n + 1 FROM x WHERE n < 5) SELECT n FROM x`)
	require.Empty(t, p.Errors())
	sel := stmt.(*ast.SelectStatement)
	require.Len(t, sel.Ctes, 1)
	cte := sel.Ctes[0]
	require.True(t, cte.Recursive)
	require.Equal(t, []string{"n"}, cte.Columns)
	require.Equal(t, "UNION ALL", cte.Select.CompoundOp)
}

func TestSelectJoinKinds(t *testing.T) {
	cases := []struct {
		src  string
		kind string
	}{
		{"SELECT * FROM a JOIN b ON a.id = b.id", "INNER"},
		{"SELECT * FROM a INNER JOIN b ON a.id = b.id", "INNER"},
		{"SELECT * FROM a LEFT JOIN b ON a.id = b.id", "LEFT"},
		{"SELECT * FROM a LEFT OUTER JOIN b ON a.id = b.id", "LEFT"},
		{"SELECT * FROM a RIGHT JOIN b ON a.id = b.id", "RIGHT"},
		{"SELECT * FROM a FULL JOIN b ON a.id = b.id", "FULL"},
		{"SELECT * FROM a CROSS JOIN b", "CROSS"},
	}
	for _, c := range cases {
		stmt, p := parseOne(t, c.src)
		require.Empty(t, p.Errors(), c.src)
		sel := stmt.(*ast.SelectStatement)
		join, ok := sel.From.Sources[0].(*ast.JoinClause)
		require.True(t, ok, c.src)
		require.Equal(t, c.kind, join.Kind, c.src)
	}
}

func TestSelectCommaJoinIsCross(t *testing.T) {
	stmt, _ := parseOne(t, "SELECT * FROM a, b")
	sel := stmt.(*ast.SelectStatement)
	join, ok := sel.From.Sources[0].(*ast.JoinClause)
	require.True(t, ok)
	require.Equal(t, "CROSS", join.Kind)
	require.Nil(t, join.On)
}

func TestSelectSubqueryAsSource(t *testing.T) {
	stmt, p := parseOne(t, "SELECT * FROM (SELECT 1 AS a) s")
	require.Empty(t, p.Errors())
	sel := stmt.(*ast.SelectStatement)
	sub, ok := sel.From.Sources[0].(*ast.SelectStatementAsSource)
	require.True(t, ok)
	require.Equal(t, "s", sub.Alias)
}

func TestSelectCompoundUnionExceptIntersect(t *testing.T) {
	cases := []struct {
		src string
		op  string
	}{
		{"SELECT a FROM t UNION SELECT a FROM u", "UNION"},
		{"SELECT a FROM t UNION ALL SELECT a FROM u", "UNION ALL"},
		{"SELECT a FROM t INTERSECT SELECT a FROM u", "INTERSECT"},
		{"SELECT a FROM t EXCEPT SELECT a FROM u", "EXCEPT"},
	}
	for _, c := range cases {
		stmt, p := parseOne(t, c.src)
		require.Empty(t, p.Errors(), c.src)
		sel := stmt.(*ast.SelectStatement)
		require.Equal(t, c.op, sel.CompoundOp, c.src)
		require.NotNil(t, sel.Compound, c.src)
	}
}

func TestSelectGroupByHaving(t *testing.T) {
	stmt, p := parseOne(t, "SELECT a, count(*) FROM t GROUP BY a HAVING count(*) > 1")
	require.Empty(t, p.Errors())
	sel := stmt.(*ast.SelectStatement)
	require.Len(t, sel.GroupBy.Exprs, 1)
	require.NotNil(t, sel.Having)
}

func TestSelectNamedWindowClause(t *testing.T) {
	stmt, p := parseOne(t, "SELECT row_number() OVER w FROM t WINDOW w AS (ORDER BY a)")
	require.Empty(t, p.Errors())
	sel := stmt.(*ast.SelectStatement)
	require.NotNil(t, sel.Window)
	require.Equal(t, "w", sel.Window.Name)
}

func TestSelectOrderByAndLimit(t *testing.T) {
	stmt, p := parseOne(t, "SELECT a FROM t ORDER BY a DESC LIMIT 10 OFFSET 5")
	require.Empty(t, p.Errors())
	sel := stmt.(*ast.SelectStatement)
	require.Len(t, sel.OrderBy.Terms, 1)
	require.NotNil(t, sel.Limit)
	require.NotNil(t, sel.Limit.Offset)
}

func TestSelectLimitOffsetCommaShorthand(t *testing.T) {
	// SQLite's `LIMIT offset, count` form: the first number is the offset.
	stmt, p := parseOne(t, "SELECT a FROM t LIMIT 5, 10")
	require.Empty(t, p.Errors())
	sel := stmt.(*ast.SelectStatement)
	offset, ok := sel.Limit.Offset.(*ast.Literal)
	require.True(t, ok)
	require.EqualValues(t, 5, offset.Value)
	count, ok := sel.Limit.Count.(*ast.Literal)
	require.True(t, ok)
	require.EqualValues(t, 10, count.Value)
}

func TestInsertValuesMultiRow(t *testing.T) {
	stmt, p := parseOne(t, "INSERT INTO t (a, b) VALUES (1, 2), (3, 4)")
	require.Empty(t, p.Errors())
	ins := stmt.(*ast.InsertStatement)
	require.Equal(t, "t", ins.Table.Name)
	require.Equal(t, []string{"a", "b"}, ins.Columns)
	require.Len(t, ins.Values, 2)
	require.Len(t, ins.Values[0], 2)
	require.Nil(t, ins.Select)
}

func TestInsertSelect(t *testing.T) {
	stmt, p := parseOne(t, "INSERT INTO t (a) SELECT a FROM u")
	require.Empty(t, p.Errors())
	ins := stmt.(*ast.InsertStatement)
	require.NotNil(t, ins.Select)
	require.Nil(t, ins.Values)
}

func TestUpdateMultiAssignmentWhere(t *testing.T) {
	stmt, p := parseOne(t, "UPDATE t SET a = 1, b = a + 1 WHERE id = ?")
	require.Empty(t, p.Errors())
	upd := stmt.(*ast.UpdateStatement)
	require.Equal(t, "t", upd.Table.Name)
	require.Len(t, upd.Assignments, 2)
	require.Equal(t, "a", upd.Assignments[0].Column)
	require.NotNil(t, upd.Where)
}

func TestDeleteWithWhere(t *testing.T) {
	stmt, p := parseOne(t, "DELETE FROM t WHERE id = 1")
	require.Empty(t, p.Errors())
	del := stmt.(*ast.DeleteStatement)
	require.Equal(t, "t", del.Table.Name)
	require.NotNil(t, del.Where)
}

func TestDeleteWithoutWhere(t *testing.T) {
	stmt, p := parseOne(t, "DELETE FROM t")
	require.Empty(t, p.Errors())
	del := stmt.(*ast.DeleteStatement)
	require.Nil(t, del.Where)
}

func TestCreateTableColumnModifiers(t *testing.T) {
	stmt, p := parseOne(t, `CREATE TABLE IF NOT EXISTS t (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		status TEXT DEFAULT 'pending'
	)`)
	require.Empty(t, p.Errors())
	ct := stmt.(*ast.CreateTableStatement)
	require.True(t, ct.IfNotExists)
	require.Equal(t, "t", ct.Name)
	require.Len(t, ct.Columns, 3)

	id := ct.Columns[0]
	require.True(t, id.PrimaryKey)
	require.True(t, id.AutoIncrement)

	name := ct.Columns[1]
	require.True(t, name.NotNull)
	require.True(t, name.Unique)

	status := ct.Columns[2]
	require.NotNil(t, status.Default)
	lit, ok := status.Default.(*ast.Literal)
	require.True(t, ok)
	require.Equal(t, "pending", lit.Value)
}

func TestCreateTableConstraintsKeptVerbatim(t *testing.T) {
	stmt, p := parseOne(t, `CREATE TABLE t (
		a INTEGER,
		b INTEGER,
		PRIMARY KEY (a, b),
		UNIQUE (a)
	)`)
	require.Empty(t, p.Errors())
	ct := stmt.(*ast.CreateTableStatement)
	require.Len(t, ct.Columns, 2)
	require.Len(t, ct.Constraints, 2)
	require.Equal(t, "PRIMARY", ct.Constraints[0].Kind)
	require.Contains(t, ct.Constraints[0].Text, "(a, b)")
	require.Equal(t, "UNIQUE", ct.Constraints[1].Kind)
}

func TestCreateIndexUniqueIfNotExists(t *testing.T) {
	stmt, p := parseOne(t, "CREATE UNIQUE INDEX IF NOT EXISTS idx_t_a ON t (a, b)")
	require.Empty(t, p.Errors())
	ci := stmt.(*ast.CreateIndexStatement)
	require.True(t, ci.Unique)
	require.True(t, ci.IfNotExists)
	require.Equal(t, "t", ci.Table)
	require.Equal(t, []string{"a", "b"}, ci.Columns)
}

func TestCreateTriggerBeforeInsert(t *testing.T) {
	stmt, p := parseOne(t, `CREATE TRIGGER trg BEFORE INSERT ON t FOR EACH ROW BEGIN
		UPDATE u SET a = 1;
	END`)
	require.Empty(t, p.Errors())
	ct := stmt.(*ast.CreateTriggerStatement)
	require.Equal(t, "trg", ct.Name)
	require.Equal(t, token.BEFORE, ct.Timing)
	require.Equal(t, token.INSERT, ct.Event)
	require.Equal(t, "t", ct.Table)
	require.Len(t, ct.Body, 1)
	_, ok := ct.Body[0].(*ast.UpdateStatement)
	require.True(t, ok)
}

func TestCreateTriggerInsteadOfDelete(t *testing.T) {
	stmt, p := parseOne(t, `CREATE TRIGGER trg INSTEAD OF DELETE ON v BEGIN
		DELETE FROM backing WHERE id = 1;
		INSERT INTO audit (id) VALUES (1);
	END`)
	require.Empty(t, p.Errors())
	ct := stmt.(*ast.CreateTriggerStatement)
	require.Equal(t, token.INSTEAD, ct.Timing)
	require.Equal(t, token.DELETE, ct.Event)
	require.Len(t, ct.Body, 2)
}

func TestMalformedStatementRecoversAndContinues(t *testing.T) {
	src := "GARBAGE TOKENS HERE; SELECT 1"
	tokens, err := lexer.Tokenize(src)
	require.NoError(t, err)
	p := New(src, tokens)
	stmts := p.ParseProgram()
	require.Len(t, stmts, 2)
	require.NotEmpty(t, p.Errors())

	_, ok := stmts[0].(*ast.ErrorNode)
	require.True(t, ok)

	sel, ok := stmts[1].(*ast.SelectStatement)
	require.True(t, ok)
	require.Len(t, sel.Columns, 1)
}
