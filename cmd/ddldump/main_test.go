package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/ddldump/internal/config"
	"github.com/tordrt/ddldump/internal/schema"
)

func TestApplyFlags_NothingChanged(t *testing.T) {
	cfg := config.Default()
	cfg.Database.URL = "postgres://localhost/app"
	cfg.Schema = "gpt"

	applyFlags(&cobra.Command{}, cfg)

	assert.Equal(t, "postgres://localhost/app", cfg.Database.URL)
	assert.Equal(t, "gpt", cfg.Schema)
	assert.Equal(t, "sql", cfg.Output.Format)
}

func TestApplyFlags_ExplicitFlagsWin(t *testing.T) {
	require.NoError(t, rootCmd.ParseFlags([]string{
		"--sqlite", "app.db",
		"-s", "main",
		"-k", "tables,indexes",
		"-f", "markdown",
		"--concurrency", "2",
		"--upload-ssl",
	}))

	cfg := config.Default()
	cfg.Database.URL = "postgres://from-file/app"
	cfg.Schema = "from_file"
	cfg.Log.Level = "debug"

	applyFlags(rootCmd, cfg)

	assert.Equal(t, config.DatabaseConfig{SQLite: "app.db"}, cfg.Database, "a database flag replaces the file's source")
	assert.Equal(t, "main", cfg.Schema)
	assert.Equal(t, "markdown", cfg.Output.Format)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.True(t, cfg.Upload.UseSSL)
	assert.Equal(t, "debug", cfg.Log.Level, "unset flags keep the file value")

	kinds, err := cfg.ParsedKinds()
	require.NoError(t, err)
	assert.Equal(t, []schema.Kind{schema.KindTables, schema.KindIndexes}, kinds)
	assert.NoError(t, cfg.Validate())
}

func TestWriteDump(t *testing.T) {
	d := &schema.Dump{
		Dialect: "sqlite",
		Schema:  "main",
		Sections: []schema.Section{
			{Kind: schema.KindTables, Statements: []string{"CREATE TABLE t (id INTEGER);"}},
		},
	}

	t.Run("file", func(t *testing.T) {
		cfg := config.Default()
		cfg.Output.File = filepath.Join(t.TempDir(), "out.sql")
		require.NoError(t, writeDump(d, cfg))

		data, err := os.ReadFile(cfg.Output.File)
		require.NoError(t, err)
		assert.Contains(t, string(data), "CREATE TABLE t (id INTEGER);")
	})

	t.Run("directory", func(t *testing.T) {
		cfg := config.Default()
		cfg.Output.Dir = filepath.Join(t.TempDir(), "ddl")
		cfg.Output.Format = "markdown"
		require.NoError(t, writeDump(d, cfg))

		_, err := os.Stat(filepath.Join(cfg.Output.Dir, "03_tables.md"))
		assert.NoError(t, err)
	})

	t.Run("unwritable file", func(t *testing.T) {
		cfg := config.Default()
		cfg.Output.File = filepath.Join(t.TempDir(), "missing", "out.sql")
		assert.ErrorContains(t, writeDump(d, cfg), "failed to create output file")
	})
}

func TestServeCommandRegistered(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"serve"})
	require.NoError(t, err)
	assert.Equal(t, "serve", cmd.Name())
	assert.NotNil(t, cmd.Flags().Lookup("listen"))
}
