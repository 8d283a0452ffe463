package ddldump

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/ddldump/internal/db"
	"github.com/tordrt/ddldump/internal/logger"
	"github.com/tordrt/ddldump/internal/schema"
)

// newSQLiteDB creates a small SQLite database and returns its sqlite:// URL
func newSQLiteDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.db")

	conn, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Exec(`
CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT NOT NULL);
CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER NOT NULL REFERENCES users(id));
CREATE INDEX idx_orders_user_id ON orders (user_id);
CREATE VIEW user_emails AS SELECT email FROM users;
`)
	require.NoError(t, err)
	return "sqlite://" + path
}

func quietContext() context.Context {
	return logger.Nop().WithContext(context.Background())
}

func TestParseDatabaseURL(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		wantDialect string
		wantConn    string
		wantErr     bool
	}{
		{name: "postgres", url: "postgres://u:p@localhost/db", wantDialect: db.DialectPostgres, wantConn: "postgres://u:p@localhost/db"},
		{name: "postgresql", url: "postgresql://localhost/db", wantDialect: db.DialectPostgres, wantConn: "postgresql://localhost/db"},
		{name: "mysql", url: "mysql://u:p@tcp(localhost:3306)/shop", wantDialect: db.DialectMySQL, wantConn: "u:p@tcp(localhost:3306)/shop"},
		{name: "sqlite", url: "sqlite://data/app.db", wantDialect: db.DialectSQLite, wantConn: "data/app.db"},
		{name: "empty", url: "", wantErr: true},
		{name: "unknown scheme", url: "oracle://localhost", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialect, conn, err := parseDatabaseURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDialect, dialect)
			assert.Equal(t, tt.wantConn, conn)
		})
	}
}

func TestExtractDump_SQLite(t *testing.T) {
	url := newSQLiteDB(t)

	d, err := ExtractDump(quietContext(), url, nil)
	require.NoError(t, err)

	assert.Equal(t, db.DialectSQLite, d.Dialect)
	assert.Equal(t, "main", d.Schema)
	tables, ok := d.Section(schema.KindTables)
	require.True(t, ok)
	assert.Len(t, tables.Statements, 2)
	assert.Equal(t, 4, d.Count())
}

func TestExtractDump_KindsAndSkipped(t *testing.T) {
	url := newSQLiteDB(t)

	d, err := ExtractDump(quietContext(), url, &Options{
		Kinds:       []schema.Kind{schema.KindEnums, schema.KindIndexes},
		Concurrency: 1,
	})
	require.NoError(t, err)
	require.Len(t, d.Sections, 1)
	assert.Equal(t, schema.KindIndexes, d.Sections[0].Kind)
	assert.Equal(t, []schema.Kind{schema.KindEnums}, d.Skipped)
}

func TestExtractDump_Errors(t *testing.T) {
	_, err := ExtractDump(quietContext(), "invalid://test.db", nil)
	assert.Error(t, err)

	_, err = ExtractDump(quietContext(), "", nil)
	assert.Error(t, err)

	// MySQL needs a database name before any connection is attempted
	_, err = ExtractDump(quietContext(), "mysql://u:p@tcp(localhost:3306)/", nil)
	assert.ErrorContains(t, err, "failed to determine database name")
}

func TestFormatDump(t *testing.T) {
	d := &schema.Dump{
		Dialect: db.DialectSQLite,
		Schema:  "main",
		Sections: []schema.Section{
			{Kind: schema.KindTables, Statements: []string{"CREATE TABLE users (id INTEGER PRIMARY KEY);"}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, FormatDump(d, &OutputOptions{Writer: &buf}))
	assert.True(t, strings.HasPrefix(buf.String(), "-- ddldump: sqlite schema main"))

	buf.Reset()
	require.NoError(t, FormatDump(d, &OutputOptions{Writer: &buf, Format: "markdown"}))
	assert.Contains(t, buf.String(), "## Tables (1)")

	assert.Error(t, FormatDump(d, &OutputOptions{Writer: &buf, Format: "text"}))

	dir := filepath.Join(t.TempDir(), "ddl")
	require.NoError(t, FormatDump(d, &OutputOptions{OutputDir: dir, Writer: &buf}))
	_, err := os.Stat(filepath.Join(dir, "03_tables.sql"))
	assert.NoError(t, err)
}

func TestExtractAndFormat(t *testing.T) {
	url := newSQLiteDB(t)

	var buf bytes.Buffer
	err := ExtractAndFormat(quietContext(), url, &Options{Kinds: []schema.Kind{schema.KindViews}}, &OutputOptions{Writer: &buf})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "CREATE VIEW user_emails AS SELECT email FROM users;")
}

func TestConnect(t *testing.T) {
	url := newSQLiteDB(t)

	conn, err := Connect(context.Background(), url, &Options{SchemaName: "main"})
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "main", conn.Schema)
	assert.Equal(t, db.DialectSQLite, conn.Dialect())
	require.NoError(t, conn.Ping(context.Background()))

	d, err := conn.Dump(quietContext(), []schema.Kind{schema.KindTables})
	require.NoError(t, err)
	assert.Equal(t, 2, d.Count())
}
