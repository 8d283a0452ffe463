package db

import (
	"context"
	"fmt"

	"github.com/tordrt/ddldump/internal/schema"
)

// DialectSQLite identifies SQLite descriptors and dumps
const DialectSQLite = "sqlite"

// SQLiteSchema describes one attached SQLite database ("main" by default).
// SQLite keeps the original CREATE statement of every object in
// sqlite_master, so each query just returns that text.
type SQLiteSchema struct {
	name string
}

// NewSQLiteSchema creates a descriptor for the attached database name
func NewSQLiteSchema(name string) SQLiteSchema {
	if name == "" {
		name = "main"
	}
	return SQLiteSchema{name: name}
}

func (s SQLiteSchema) Dialect() string   { return DialectSQLite }
func (s SQLiteSchema) Namespace() string { return s.name }

// Kinds returns the kinds stored in sqlite_master
func (s SQLiteSchema) Kinds() []schema.Kind {
	return []schema.Kind{schema.KindTables, schema.KindViews, schema.KindTriggers, schema.KindIndexes}
}

// Query returns the sqlite_master query for kind
func (s SQLiteSchema) Query(kind schema.Kind) (string, bool) {
	switch kind {
	case schema.KindTables:
		return s.master("table"), true
	case schema.KindViews:
		return s.master("view"), true
	case schema.KindTriggers:
		return s.master("trigger"), true
	case schema.KindIndexes:
		return s.master("index"), true
	default:
		return "", false
	}
}

// master selects stored DDL for one object type. Auto-indexes have a NULL
// sql column and sqlite_* objects are internal; both are skipped.
func (s SQLiteSchema) master(objType string) string {
	return fmt.Sprintf(`SELECT sql || ';' AS sql
FROM %s.sqlite_master
WHERE type = '%s'
  AND sql IS NOT NULL
  AND name NOT LIKE 'sqlite_%%'
ORDER BY tbl_name, name;`, quoteIdent(s.name), objType)
}

// Fetch runs the query for kind against q
func (s SQLiteSchema) Fetch(ctx context.Context, q Querier, kind schema.Kind) ([]string, error) {
	return fetchKind(ctx, q, s, kind)
}
