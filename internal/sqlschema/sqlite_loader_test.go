package sqlschema

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFromSQLite(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE demo (
		id INTEGER PRIMARY KEY,
		content TEXT NOT NULL,
		created_at DATETIME
	)`)
	require.NoError(t, err)

	table, err := LoadFromSQLite(db, "demo")
	require.NoError(t, err)
	require.Equal(t, "demo", table.Name)
	require.Len(t, table.Columns, 3)

	id, ok := table.Column("ID")
	require.True(t, ok)
	require.Equal(t, Integer, id.Type)
	require.True(t, id.HasFeature(PrimaryKey))

	content, ok := table.Column("content")
	require.True(t, ok)
	require.Equal(t, Text, content.Type)
	require.False(t, content.Nullable)

	createdAt, ok := table.Column("created_at")
	require.True(t, ok)
	require.True(t, createdAt.IsDateTime())
}
