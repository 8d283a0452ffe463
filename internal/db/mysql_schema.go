package db

import (
	"context"
	"fmt"

	"github.com/tordrt/ddldump/internal/schema"
)

// DialectMySQL identifies MySQL descriptors and dumps
const DialectMySQL = "mysql"

// MySQLSchema describes one MySQL database (schema). Statements are
// assembled from information_schema with CONCAT / GROUP_CONCAT; MySQL has
// no standalone enum, composite type or materialized view objects.
type MySQLSchema struct {
	name string
}

// NewMySQLSchema creates a descriptor for the database name
func NewMySQLSchema(name string) MySQLSchema {
	return MySQLSchema{name: name}
}

func (s MySQLSchema) Dialect() string   { return DialectMySQL }
func (s MySQLSchema) Namespace() string { return s.name }

// Kinds returns the kinds MySQL can produce
func (s MySQLSchema) Kinds() []schema.Kind {
	return []schema.Kind{
		schema.KindTables,
		schema.KindViews,
		schema.KindFunctions,
		schema.KindTriggers,
		schema.KindIndexes,
	}
}

// Query returns the information_schema query for kind
func (s MySQLSchema) Query(kind schema.Kind) (string, bool) {
	switch kind {
	case schema.KindTables:
		return s.Tables(), true
	case schema.KindViews:
		return s.Views(), true
	case schema.KindFunctions:
		return s.Functions(), true
	case schema.KindTriggers:
		return s.Triggers(), true
	case schema.KindIndexes:
		return s.Indexes(), true
	default:
		return "", false
	}
}

func (s MySQLSchema) render(tmpl string) string {
	return fmt.Sprintf(tmpl, quoteLiteral(s.name))
}

// Tables emits one CREATE TABLE per base table. Each column carries the
// primary key, foreign key and unique constraints it takes part in, with the
// constraint's full column list.
func (s MySQLSchema) Tables() string {
	return s.render(`SELECT
  CONCAT('CREATE TABLE ', c.TABLE_SCHEMA, '.', c.TABLE_NAME, ' (',
    GROUP_CONCAT(
      CONCAT(c.COLUMN_NAME, ' ', c.COLUMN_TYPE,
        IF(c.IS_NULLABLE = 'NO', ' NOT NULL', ''),
        COALESCE(CONCAT(' ', cc.constraints), ''))
      ORDER BY c.ORDINAL_POSITION SEPARATOR ', '),
    ');') AS ` + "`sql`" + `
FROM
  information_schema.COLUMNS c
  JOIN information_schema.TABLES t
    ON t.TABLE_SCHEMA = c.TABLE_SCHEMA AND t.TABLE_NAME = c.TABLE_NAME
  LEFT JOIN (
    SELECT
      k.TABLE_SCHEMA,
      k.TABLE_NAME,
      k.COLUMN_NAME,
      GROUP_CONCAT(CONCAT(con.CONSTRAINT_TYPE, ' (', con.cols, ')')
        ORDER BY con.CONSTRAINT_TYPE, con.CONSTRAINT_NAME SEPARATOR ' ') AS constraints
    FROM
      information_schema.KEY_COLUMN_USAGE k
      JOIN (
        SELECT
          tc.TABLE_SCHEMA,
          tc.TABLE_NAME,
          tc.CONSTRAINT_NAME,
          tc.CONSTRAINT_TYPE,
          GROUP_CONCAT(kcu.COLUMN_NAME ORDER BY kcu.ORDINAL_POSITION SEPARATOR ', ') AS cols
        FROM
          information_schema.TABLE_CONSTRAINTS tc
          JOIN information_schema.KEY_COLUMN_USAGE kcu
            ON kcu.CONSTRAINT_SCHEMA = tc.CONSTRAINT_SCHEMA
            AND kcu.CONSTRAINT_NAME = tc.CONSTRAINT_NAME
            AND kcu.TABLE_NAME = tc.TABLE_NAME
        WHERE
          tc.TABLE_SCHEMA = %[1]s
          AND tc.CONSTRAINT_TYPE IN ('PRIMARY KEY', 'FOREIGN KEY', 'UNIQUE')
        GROUP BY
          tc.TABLE_SCHEMA, tc.TABLE_NAME, tc.CONSTRAINT_NAME, tc.CONSTRAINT_TYPE
      ) con
        ON con.TABLE_SCHEMA = k.TABLE_SCHEMA
        AND con.TABLE_NAME = k.TABLE_NAME
        AND con.CONSTRAINT_NAME = k.CONSTRAINT_NAME
    GROUP BY
      k.TABLE_SCHEMA, k.TABLE_NAME, k.COLUMN_NAME
  ) cc
    ON cc.TABLE_SCHEMA = c.TABLE_SCHEMA
    AND cc.TABLE_NAME = c.TABLE_NAME
    AND cc.COLUMN_NAME = c.COLUMN_NAME
WHERE
  c.TABLE_SCHEMA = %[1]s
  AND t.TABLE_TYPE = 'BASE TABLE'
GROUP BY
  c.TABLE_SCHEMA, c.TABLE_NAME
ORDER BY
  c.TABLE_NAME;`)
}

// Views emits one CREATE VIEW per view
func (s MySQLSchema) Views() string {
	return s.render(`SELECT
  CONCAT('CREATE VIEW ', v.TABLE_SCHEMA, '.', v.TABLE_NAME, ' AS ', v.VIEW_DEFINITION, ';') AS ` + "`sql`" + `
FROM
  information_schema.VIEWS v
WHERE
  v.TABLE_SCHEMA = %[1]s
ORDER BY
  v.TABLE_NAME;`)
}

// Functions emits one CREATE FUNCTION per stored function
func (s MySQLSchema) Functions() string {
	return s.render(`SELECT
  CONCAT('CREATE FUNCTION ', r.ROUTINE_SCHEMA, '.', r.ROUTINE_NAME, '(',
    COALESCE((
      SELECT GROUP_CONCAT(CONCAT(p.PARAMETER_NAME, ' ', p.DTD_IDENTIFIER) ORDER BY p.ORDINAL_POSITION SEPARATOR ', ')
      FROM information_schema.PARAMETERS p
      WHERE p.SPECIFIC_SCHEMA = r.ROUTINE_SCHEMA
        AND p.SPECIFIC_NAME = r.SPECIFIC_NAME
        AND p.ORDINAL_POSITION > 0
    ), ''),
    ') RETURNS ', r.DTD_IDENTIFIER, ' ', r.ROUTINE_DEFINITION, ';') AS ` + "`sql`" + `
FROM
  information_schema.ROUTINES r
WHERE
  r.ROUTINE_SCHEMA = %[1]s
  AND r.ROUTINE_TYPE = 'FUNCTION'
ORDER BY
  r.ROUTINE_NAME;`)
}

// Triggers emits one CREATE TRIGGER per trigger
func (s MySQLSchema) Triggers() string {
	return s.render(`SELECT
  CONCAT('CREATE TRIGGER ', t.TRIGGER_NAME, ' ', t.ACTION_TIMING, ' ', t.EVENT_MANIPULATION,
    ' ON ', t.EVENT_OBJECT_SCHEMA, '.', t.EVENT_OBJECT_TABLE,
    ' FOR EACH ', t.ACTION_ORIENTATION, ' ', t.ACTION_STATEMENT, ';') AS ` + "`sql`" + `
FROM
  information_schema.TRIGGERS t
WHERE
  t.TRIGGER_SCHEMA = %[1]s
ORDER BY
  t.EVENT_OBJECT_TABLE, t.TRIGGER_NAME;`)
}

// Indexes emits one CREATE INDEX per index, ordered by table then index
func (s MySQLSchema) Indexes() string {
	return s.render(`SELECT
  CONCAT(IF(MIN(st.NON_UNIQUE) = 0, 'CREATE UNIQUE INDEX ', 'CREATE INDEX '),
    st.INDEX_NAME, ' ON ', st.TABLE_SCHEMA, '.', st.TABLE_NAME,
    ' USING ', MAX(st.INDEX_TYPE), ' (',
    GROUP_CONCAT(st.COLUMN_NAME ORDER BY st.SEQ_IN_INDEX SEPARATOR ', '), ');') AS ` + "`sql`" + `
FROM
  information_schema.STATISTICS st
WHERE
  st.TABLE_SCHEMA = %[1]s
GROUP BY
  st.TABLE_SCHEMA, st.TABLE_NAME, st.INDEX_NAME
ORDER BY
  st.TABLE_NAME, st.INDEX_NAME;`)
}

// Fetch runs the query for kind against q
func (s MySQLSchema) Fetch(ctx context.Context, q Querier, kind schema.Kind) ([]string, error) {
	return fetchKind(ctx, q, s, kind)
}
