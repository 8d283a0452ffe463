package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tordrt/ddldump"
	"github.com/tordrt/ddldump/internal/config"
	"github.com/tordrt/ddldump/internal/logger"
	"github.com/tordrt/ddldump/internal/schema"
	"github.com/tordrt/ddldump/internal/server"
	"github.com/tordrt/ddldump/internal/upload"
)

var (
	configPath     string
	dbURL          string
	mysqlURL       string
	sqlitePath     string
	schemaName     string
	kinds          string
	outputFile     string
	outputDir      string
	format         string
	concurrency    int
	logLevel       string
	logFormat      string
	uploadEndpoint string
	uploadBucket   string
	uploadPrefix   string
	uploadAccess   string
	uploadSecret   string
	uploadSSL      bool
	listenAddr     string
)

var rootCmd = &cobra.Command{
	Use:   "ddldump",
	Short: "Dump database schema objects as DDL",
	Long: `ddldump reads the catalog of a PostgreSQL, MySQL, or SQLite database and prints
every enum, composite type, table, view, materialized view, function, trigger,
and index of one schema as a CREATE statement.`,
	SilenceUsage: true,
	RunE:         run,
}

var serveCmd = &cobra.Command{
	Use:          "serve",
	Short:        "Serve schema dumps over HTTP",
	SilenceUsage: true,
	RunE:         serve,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML config file")
	pf.StringVar(&dbURL, "db-url", "", "PostgreSQL connection string")
	pf.StringVar(&mysqlURL, "mysql-url", "", "MySQL connection string")
	pf.StringVar(&sqlitePath, "sqlite", "", "SQLite database file path")
	pf.IntVar(&concurrency, "concurrency", 4, "Number of object kinds fetched at once")
	pf.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "json", "Log format: json or console")

	f := rootCmd.Flags()
	f.StringVarP(&schemaName, "schema", "s", "", "Schema name (default: public for PostgreSQL, the database for MySQL, main for SQLite)")
	f.StringVarP(&kinds, "kinds", "k", "", "Object kinds to dump, comma-separated (default: all)")
	f.StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	f.StringVarP(&outputDir, "output-dir", "d", "", "Output directory, one file per object kind")
	f.StringVarP(&format, "format", "f", "sql", "Output format: sql or markdown")
	f.StringVar(&uploadEndpoint, "upload-endpoint", "", "S3-compatible endpoint to upload the dump to")
	f.StringVar(&uploadBucket, "upload-bucket", "", "Upload bucket")
	f.StringVar(&uploadPrefix, "upload-prefix", "", "Upload key prefix")
	f.StringVar(&uploadAccess, "upload-access-key", "", "Upload access key")
	f.StringVar(&uploadSecret, "upload-secret-key", "", "Upload secret key")
	f.BoolVar(&uploadSSL, "upload-ssl", false, "Use TLS for uploads")

	serveCmd.Flags().StringVar(&listenAddr, "listen", ":8080", "HTTP listen address")
	rootCmd.AddCommand(serveCmd)
}

// loadConfig reads the config file and environment, then applies every
// flag the user set explicitly
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed

	strs := []struct {
		flag string
		src  *string
		dst  *string
	}{
		{"db-url", &dbURL, &cfg.Database.URL},
		{"mysql-url", &mysqlURL, &cfg.Database.MySQLURL},
		{"sqlite", &sqlitePath, &cfg.Database.SQLite},
		{"schema", &schemaName, &cfg.Schema},
		{"output", &outputFile, &cfg.Output.File},
		{"output-dir", &outputDir, &cfg.Output.Dir},
		{"format", &format, &cfg.Output.Format},
		{"log-level", &logLevel, &cfg.Log.Level},
		{"log-format", &logFormat, &cfg.Log.Format},
		{"upload-endpoint", &uploadEndpoint, &cfg.Upload.Endpoint},
		{"upload-bucket", &uploadBucket, &cfg.Upload.Bucket},
		{"upload-prefix", &uploadPrefix, &cfg.Upload.Prefix},
		{"upload-access-key", &uploadAccess, &cfg.Upload.AccessKey},
		{"upload-secret-key", &uploadSecret, &cfg.Upload.SecretKey},
		{"listen", &listenAddr, &cfg.Server.Listen},
	}
	for _, s := range strs {
		if changed(s.flag) {
			*s.dst = *s.src
		}
	}

	// a database flag replaces whatever source the file named
	if changed("db-url") || changed("mysql-url") || changed("sqlite") {
		cfg.Database = config.DatabaseConfig{URL: dbURL, MySQLURL: mysqlURL, SQLite: sqlitePath}
	}
	if changed("kinds") {
		cfg.Kinds = []string{kinds}
	}
	if changed("concurrency") {
		cfg.Concurrency = concurrency
	}
	if changed("upload-ssl") {
		cfg.Upload.UseSSL = uploadSSL
	}
}

// setup builds the logger and a context cancelled on SIGINT / SIGTERM
func setup(cfg *config.Config) (context.Context, context.CancelFunc, *logger.Logger) {
	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	logger.SetGlobal(log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return log.WithContext(ctx), cancel, log
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel, log := setup(cfg)
	defer cancel()

	kindList, err := cfg.ParsedKinds()
	if err != nil {
		return err
	}

	d, err := ddldump.ExtractDump(ctx, cfg.DatabaseURL(), &ddldump.Options{
		SchemaName:  cfg.Schema,
		Kinds:       kindList,
		Concurrency: cfg.Concurrency,
	})
	if err != nil {
		return err
	}

	if err := writeDump(d, cfg); err != nil {
		return err
	}

	if cfg.Upload.Endpoint == "" {
		return nil
	}
	up, err := upload.New(ctx, &upload.Config{
		Endpoint:  cfg.Upload.Endpoint,
		AccessKey: cfg.Upload.AccessKey,
		SecretKey: cfg.Upload.SecretKey,
		Bucket:    cfg.Upload.Bucket,
		Prefix:    cfg.Upload.Prefix,
		UseSSL:    cfg.Upload.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to upload endpoint: %w", err)
	}
	key, err := up.Upload(ctx, d, cfg.Output.Format)
	if err != nil {
		return err
	}
	log.Infof("dump stored as %s/%s", cfg.Upload.Bucket, key)
	return nil
}

// writeDump writes to the output directory, the output file or stdout
func writeDump(d *schema.Dump, cfg *config.Config) error {
	opts := &ddldump.OutputOptions{
		OutputDir: cfg.Output.Dir,
		Format:    cfg.Output.Format,
	}

	if cfg.Output.File != "" {
		f, err := os.Create(cfg.Output.File)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to close output file: %v\n", err)
			}
		}()
		opts.Writer = f
	}

	if err := ddldump.FormatDump(d, opts); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	return nil
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel, log := setup(cfg)
	defer cancel()

	conn, err := ddldump.Connect(ctx, cfg.DatabaseURL(), &ddldump.Options{Concurrency: cfg.Concurrency})
	if err != nil {
		return err
	}
	defer conn.Close()

	return server.New(conn.Catalog, log).ListenAndServe(ctx, cfg.Server.Listen)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
