package db

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/ddldump/internal/errs"
	"github.com/tordrt/ddldump/internal/schema"
)

func TestParseDatabaseName(t *testing.T) {
	tests := []struct {
		name    string
		dsn     string
		want    string
		wantErr bool
	}{
		{name: "tcp", dsn: "user:pass@tcp(localhost:3306)/shop", want: "shop"},
		{name: "with params", dsn: "user:pass@tcp(db:3306)/shop?parseTime=true", want: "shop"},
		{name: "no database", dsn: "user:pass@tcp(localhost:3306)/", wantErr: true},
		{name: "garbage", dsn: "not a dsn", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDatabaseName(tt.dsn)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTuneMySQLDSN(t *testing.T) {
	dsn, err := tuneMySQLDSN("user:pass@tcp(localhost:3306)/shop")
	require.NoError(t, err)

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, groupConcatMaxLen, cfg.Params["group_concat_max_len"])
	assert.Equal(t, "shop", cfg.DBName)

	// an explicit value is kept
	dsn, err = tuneMySQLDSN("user:pass@tcp(localhost:3306)/shop?group_concat_max_len=4096")
	require.NoError(t, err)
	cfg, err = mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "4096", cfg.Params["group_concat_max_len"])

	_, err = tuneMySQLDSN("not a dsn")
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestMySQLSchema_Queries(t *testing.T) {
	s := NewMySQLSchema("shop")

	assert.Equal(t, DialectMySQL, s.Dialect())
	assert.Equal(t, []schema.Kind{schema.KindTables, schema.KindViews, schema.KindFunctions, schema.KindTriggers, schema.KindIndexes}, s.Kinds())

	for _, kind := range s.Kinds() {
		q, ok := s.Query(kind)
		require.True(t, ok, kind)
		assert.Contains(t, q, "= 'shop'", kind)
		assert.Contains(t, q, "AS `sql`", kind)
		assert.Contains(t, q, "ORDER BY", kind)
	}

	for _, kind := range []schema.Kind{schema.KindEnums, schema.KindTypes, schema.KindMViews} {
		_, ok := s.Query(kind)
		assert.False(t, ok, kind)
	}

	// constraint columns come from the key usage catalog, not COLUMN_KEY
	q, _ := s.Query(schema.KindTables)
	assert.Contains(t, q, "information_schema.KEY_COLUMN_USAGE")
	assert.Contains(t, q, "('PRIMARY KEY', 'FOREIGN KEY', 'UNIQUE')")
	assert.NotContains(t, q, "COLUMN_KEY")

	q, _ = NewMySQLSchema("o'brien").Query(schema.KindTables)
	assert.Contains(t, q, "'o''brien'")
}
