package sqlschema

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// LoadFromSQLite inspects a live SQLite connection and builds a Table from
// its PRAGMA table_info output. It exists for callers that already have a
// schema expressed as executable DDL and want to register it with the
// engine without hand-writing a Table literal; the column-parser
// collaborator described in the package doc is the other, more common,
// path to the same Table shape.
func LoadFromSQLite(db *sql.DB, tableName string) (Table, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%q)", tableName))
	if err != nil {
		return Table{}, fmt.Errorf("sqlschema: inspecting %q: %w", tableName, err)
	}
	defer rows.Close()

	table := Table{Name: tableName}
	for rows.Next() {
		var (
			cid        int
			name       string
			declType   string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &declType, &notNull, &defaultVal, &pk); err != nil {
			return Table{}, fmt.Errorf("sqlschema: scanning column info for %q: %w", tableName, err)
		}
		col := Column{
			Name:     name,
			Type:     baseTypeFromDecl(declType),
			Nullable: notNull == 0,
		}
		if pk != 0 {
			col.Features = append(col.Features, Feature{Kind: PrimaryKey})
		}
		table.Columns = append(table.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return Table{}, fmt.Errorf("sqlschema: reading column info for %q: %w", tableName, err)
	}
	return table, nil
}

// baseTypeFromDecl maps a SQLite column-declared type affinity to one of
// the engine's base types. Columns declared DATE/DATETIME/TIMESTAMP keep
// their integer storage affinity but are flagged DateTime so the type
// resolver can carry the IsDateTime hint.
func baseTypeFromDecl(decl string) BaseType {
	switch normalizeDeclType(decl) {
	case "date", "datetime", "timestamp":
		return DateTime
	case "boolean", "bool":
		return Boolean
	case "text", "char", "varchar", "clob":
		return Text
	case "real", "double", "float", "numeric", "decimal":
		return Real
	case "blob":
		return Blob
	default:
		return Integer
	}
}

func normalizeDeclType(decl string) string {
	out := make([]byte, 0, len(decl))
	for i := 0; i < len(decl); i++ {
		c := decl[i]
		if c == '(' {
			break
		}
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != ' ' {
			out = append(out, c)
		}
	}
	return string(out)
}
