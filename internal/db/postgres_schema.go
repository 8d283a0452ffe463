package db

import (
	"context"
	"fmt"

	"github.com/tordrt/ddldump/internal/schema"
)

// DialectPostgres identifies PostgreSQL descriptors and dumps
const DialectPostgres = "postgres"

// PgSchema describes one PostgreSQL schema (namespace).
//
// The namespace is embedded in the query text as an escaped string literal,
// so every query is self-contained SQL. The name is not validated: it must
// come from a trusted source or be checked by the caller.
type PgSchema struct {
	namespace string
}

// NewPgSchema creates a descriptor for namespace
func NewPgSchema(namespace string) PgSchema {
	return PgSchema{namespace: namespace}
}

// Dialect implements Descriptor
func (s PgSchema) Dialect() string { return DialectPostgres }

// Namespace returns the schema name
func (s PgSchema) Namespace() string { return s.namespace }

// Kinds returns every kind, PostgreSQL supports them all
func (s PgSchema) Kinds() []schema.Kind {
	kinds := make([]schema.Kind, len(schema.AllKinds))
	copy(kinds, schema.AllKinds)
	return kinds
}

// Query returns the catalog query for kind
func (s PgSchema) Query(kind schema.Kind) (string, bool) {
	switch kind {
	case schema.KindEnums:
		return s.Enums(), true
	case schema.KindTypes:
		return s.Types(), true
	case schema.KindTables:
		return s.Tables(), true
	case schema.KindViews:
		return s.Views(), true
	case schema.KindMViews:
		return s.MViews(), true
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

func (s PgSchema) render(tmpl string) string {
	return fmt.Sprintf(tmpl, quoteLiteral(s.namespace))
}

// Enums emits one CREATE TYPE ... AS ENUM per enum type, labels in sort order
func (s PgSchema) Enums() string {
	return s.render(`SELECT
  'CREATE TYPE ' || n.nspname || '.' || t.typname || ' AS ENUM ('
    || string_agg(quote_literal(e.enumlabel), ', ' ORDER BY e.enumsortorder) || ');' AS sql
FROM
  pg_catalog.pg_type t
  JOIN pg_catalog.pg_namespace n ON t.typnamespace = n.oid
  JOIN pg_catalog.pg_enum e ON t.oid = e.enumtypid
WHERE
  n.nspname = %[1]s
  AND t.typtype = 'e'
GROUP BY
  n.nspname, t.typname
ORDER BY
  t.typname;`)
}

// Types emits one CREATE TYPE ... AS (...) per composite type
func (s PgSchema) Types() string {
	return s.render(`SELECT
  'CREATE TYPE ' || n.nspname || '.' || t.typname || ' AS ('
    || string_agg(a.attname || ' ' || pg_catalog.format_type(a.atttypid, a.atttypmod), ', ' ORDER BY a.attnum) || ');' AS sql
FROM
  pg_catalog.pg_type t
  JOIN pg_catalog.pg_namespace n ON t.typnamespace = n.oid
  JOIN pg_catalog.pg_class c ON t.typrelid = c.oid
  JOIN pg_catalog.pg_attribute a ON t.typrelid = a.attrelid
WHERE
  n.nspname = %[1]s
  AND t.typtype = 'c'
  AND c.relkind = 'c'
  AND a.attnum > 0
  AND NOT a.attisdropped
GROUP BY
  n.nspname, t.typname
ORDER BY
  t.typname;`)
}

// Tables emits one CREATE TABLE per base table. Each column carries its
// NOT NULL flag and, inline, every PRIMARY KEY / FOREIGN KEY / UNIQUE
// constraint it takes part in.
func (s PgSchema) Tables() string {
	return s.render(`WITH table_columns AS (
  SELECT
    n.nspname AS schema_name,
    c.relname AS table_name,
    a.attname AS column_name,
    pg_catalog.format_type(a.atttypid, a.atttypmod) AS column_type,
    a.attnotnull AS is_not_null,
    a.attnum AS column_position
  FROM
    pg_catalog.pg_attribute a
    JOIN pg_catalog.pg_class c ON a.attrelid = c.oid
    JOIN pg_catalog.pg_namespace n ON c.relnamespace = n.oid
  WHERE
    a.attnum > 0
    AND NOT a.attisdropped
    AND n.nspname = %[1]s
    AND c.relkind = 'r'
),
constraint_columns AS (
  SELECT
    tc.table_schema,
    tc.table_name,
    tc.constraint_name,
    tc.constraint_type,
    string_agg(kcu.column_name::text, ', ' ORDER BY kcu.ordinal_position) AS columns
  FROM
    information_schema.table_constraints tc
    JOIN information_schema.key_column_usage kcu
      ON tc.constraint_schema = kcu.constraint_schema
      AND tc.constraint_name = kcu.constraint_name
      AND tc.table_name = kcu.table_name
  WHERE
    tc.table_schema = %[1]s
    AND tc.constraint_type IN ('PRIMARY KEY', 'FOREIGN KEY', 'UNIQUE')
  GROUP BY
    tc.table_schema, tc.table_name, tc.constraint_name, tc.constraint_type
),
column_constraints AS (
  SELECT
    cc.table_schema,
    cc.table_name,
    kcu.column_name,
    string_agg(cc.constraint_type || ' (' || cc.columns || ')', ' ' ORDER BY cc.constraint_type, cc.constraint_name) AS constraints
  FROM
    constraint_columns cc
    JOIN information_schema.key_column_usage kcu
      ON kcu.table_schema = cc.table_schema
      AND kcu.table_name = cc.table_name
      AND kcu.constraint_name = cc.constraint_name
  GROUP BY
    cc.table_schema, cc.table_name, kcu.column_name
),
formatted_columns AS (
  SELECT
    tcol.schema_name,
    tcol.table_name,
    string_agg(
      tcol.column_name || ' ' || tcol.column_type
        || (CASE WHEN tcol.is_not_null THEN ' NOT NULL' ELSE '' END)
        || COALESCE(' ' || ccon.constraints, ''),
      ', ' ORDER BY tcol.column_position
    ) AS formatted_columns
  FROM
    table_columns tcol
    LEFT JOIN column_constraints ccon
      ON ccon.table_schema = tcol.schema_name
      AND ccon.table_name = tcol.table_name
      AND ccon.column_name = tcol.column_name
  GROUP BY
    tcol.schema_name, tcol.table_name
)
SELECT
  'CREATE TABLE ' || fc.schema_name || '.' || fc.table_name || ' (' || fc.formatted_columns || ');' AS sql
FROM
  formatted_columns fc
ORDER BY
  fc.table_name;`)
}

// Views emits one CREATE VIEW per view with the catalog's definition verbatim
func (s PgSchema) Views() string {
	return s.viewsOf("VIEW", "v")
}

// MViews emits one CREATE MATERIALIZED VIEW per materialized view
func (s PgSchema) MViews() string {
	return s.viewsOf("MATERIALIZED VIEW", "m")
}

func (s PgSchema) viewsOf(object, relkind string) string {
	return fmt.Sprintf(`SELECT
  'CREATE %[2]s ' || n.nspname || '.' || c.relname || ' AS ' || pg_catalog.pg_get_viewdef(c.oid) AS sql
FROM
  pg_catalog.pg_class c
  JOIN pg_catalog.pg_namespace n ON c.relnamespace = n.oid
WHERE
  c.relkind = '%[3]s'
  AND n.nspname = %[1]s
ORDER BY
  c.relname;`, quoteLiteral(s.namespace), object, relkind)
}

// Functions emits one CREATE OR REPLACE FUNCTION per plain function,
// embedding the catalog-reconstructed definition and its language
func (s PgSchema) Functions() string {
	return s.render(`SELECT
  'CREATE OR REPLACE FUNCTION ' || n.nspname || '.' || p.proname
    || '(' || pg_catalog.pg_get_function_arguments(p.oid) || ') RETURNS '
    || pg_catalog.pg_get_function_result(p.oid)
    || ' AS $function_body$ ' || pg_catalog.pg_get_functiondef(p.oid)
    || '$function_body$ LANGUAGE ' || l.lanname || ';' AS sql
FROM
  pg_catalog.pg_proc p
  JOIN pg_catalog.pg_namespace n ON p.pronamespace = n.oid
  JOIN pg_catalog.pg_language l ON p.prolang = l.oid
WHERE
  n.nspname = %[1]s
  AND p.prokind = 'f'
ORDER BY
  p.proname, p.oid;`)
}

// Triggers emits one CREATE TRIGGER per user trigger. Timing, events and
// granularity are decoded from tgtype (ROW=1, BEFORE=2, INSERT=4, DELETE=8,
// UPDATE=16, TRUNCATE=32, INSTEAD=64); several events are joined with OR.
// Column lists of UPDATE OF and WHEN conditions are not reconstructed.
func (s PgSchema) Triggers() string {
	return s.render(`SELECT
  'CREATE TRIGGER ' || t.tgname
  || ' ' || CASE
    WHEN t.tgtype::int & 2 > 0 THEN 'BEFORE'
    WHEN t.tgtype::int & 64 > 0 THEN 'INSTEAD OF'
    ELSE 'AFTER'
  END
  || ' ' || array_to_string(ARRAY[
    CASE WHEN t.tgtype::int & 4 > 0 THEN 'INSERT' END,
    CASE WHEN t.tgtype::int & 8 > 0 THEN 'DELETE' END,
    CASE WHEN t.tgtype::int & 16 > 0 THEN 'UPDATE' END,
    CASE WHEN t.tgtype::int & 32 > 0 THEN 'TRUNCATE' END
  ], ' OR ')
  || ' ON ' || n.nspname || '.' || c.relname
  || ' FOR EACH ' || CASE WHEN t.tgtype::int & 1 > 0 THEN 'ROW' ELSE 'STATEMENT' END
  || ' EXECUTE FUNCTION ' || np.nspname || '.' || p.proname || '();' AS sql
FROM
  pg_catalog.pg_trigger t
  JOIN pg_catalog.pg_class c ON t.tgrelid = c.oid
  JOIN pg_catalog.pg_namespace n ON c.relnamespace = n.oid
  JOIN pg_catalog.pg_proc p ON t.tgfoid = p.oid
  JOIN pg_catalog.pg_namespace np ON p.pronamespace = np.oid
WHERE
  n.nspname = %[1]s
  AND NOT t.tgisinternal
ORDER BY
  c.relname, t.tgname;`)
}

// Indexes emits the catalog's own index definitions, ordered by table then index
func (s PgSchema) Indexes() string {
	return s.render(`SELECT indexdef || ';' AS sql FROM pg_catalog.pg_indexes WHERE schemaname = %[1]s ORDER BY tablename, indexname;`)
}

// FetchEnums runs Enums against q
func (s PgSchema) FetchEnums(ctx context.Context, q Querier) ([]string, error) {
	return fetchStatements(ctx, q, schema.KindEnums, s.Enums())
}

// FetchTypes runs Types against q
func (s PgSchema) FetchTypes(ctx context.Context, q Querier) ([]string, error) {
	return fetchStatements(ctx, q, schema.KindTypes, s.Types())
}

// FetchTables runs Tables against q
func (s PgSchema) FetchTables(ctx context.Context, q Querier) ([]string, error) {
	return fetchStatements(ctx, q, schema.KindTables, s.Tables())
}

// FetchViews runs Views against q
func (s PgSchema) FetchViews(ctx context.Context, q Querier) ([]string, error) {
	return fetchStatements(ctx, q, schema.KindViews, s.Views())
}

// FetchMViews runs MViews against q
func (s PgSchema) FetchMViews(ctx context.Context, q Querier) ([]string, error) {
	return fetchStatements(ctx, q, schema.KindMViews, s.MViews())
}

// FetchFunctions runs Functions against q
func (s PgSchema) FetchFunctions(ctx context.Context, q Querier) ([]string, error) {
	return fetchStatements(ctx, q, schema.KindFunctions, s.Functions())
}

// FetchTriggers runs Triggers against q
func (s PgSchema) FetchTriggers(ctx context.Context, q Querier) ([]string, error) {
	return fetchStatements(ctx, q, schema.KindTriggers, s.Triggers())
}

// FetchIndexes runs Indexes against q
func (s PgSchema) FetchIndexes(ctx context.Context, q Querier) ([]string, error) {
	return fetchStatements(ctx, q, schema.KindIndexes, s.Indexes())
}

// Fetch runs the query for kind against q
func (s PgSchema) Fetch(ctx context.Context, q Querier, kind schema.Kind) ([]string, error) {
	return fetchKind(ctx, q, s, kind)
}
