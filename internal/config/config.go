// Package config loads ddldump settings from a YAML file and DDLDUMP_*
// environment variables. Command-line flags are applied on top by the CLI.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tordrt/ddldump/internal/schema"
)

// Config is the full ddldump configuration
type Config struct {
	Database    DatabaseConfig `yaml:"database"`
	Schema      string         `yaml:"schema,omitempty"`
	Kinds       []string       `yaml:"kinds,omitempty"`
	Concurrency int            `yaml:"concurrency,omitempty"`
	Output      OutputConfig   `yaml:"output"`
	Log         LogConfig      `yaml:"log"`
	Upload      UploadConfig   `yaml:"upload"`
	Server      ServerConfig   `yaml:"server"`
}

// DatabaseConfig names exactly one database to read
type DatabaseConfig struct {
	URL      string `yaml:"url,omitempty"`       // postgres://, mysql:// or sqlite://
	MySQLURL string `yaml:"mysql-url,omitempty"` // go-sql-driver DSN
	SQLite   string `yaml:"sqlite,omitempty"`    // file path
}

// OutputConfig controls where and how the dump is written
type OutputConfig struct {
	Format string `yaml:"format,omitempty"`
	File   string `yaml:"file,omitempty"`
	Dir    string `yaml:"dir,omitempty"`
}

// LogConfig mirrors logger.Config
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// UploadConfig points at an S3-compatible bucket; empty Endpoint disables it
type UploadConfig struct {
	Endpoint  string `yaml:"endpoint,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	AccessKey string `yaml:"access-key,omitempty"`
	SecretKey string `yaml:"secret-key,omitempty"`
	UseSSL    bool   `yaml:"ssl,omitempty"`
}

// ServerConfig holds the HTTP server settings
type ServerConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Concurrency: 4,
		Output:      OutputConfig{Format: "sql"},
		Log:         LogConfig{Level: "info", Format: "json"},
		Server:      ServerConfig{Listen: ":8080"},
	}
}

// Load reads path on top of Default and then applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from DDLDUMP_* variables
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"DDLDUMP_DB_URL":            &c.Database.URL,
		"DDLDUMP_MYSQL_URL":         &c.Database.MySQLURL,
		"DDLDUMP_SQLITE":            &c.Database.SQLite,
		"DDLDUMP_SCHEMA":            &c.Schema,
		"DDLDUMP_FORMAT":            &c.Output.Format,
		"DDLDUMP_LOG_LEVEL":         &c.Log.Level,
		"DDLDUMP_LOG_FORMAT":        &c.Log.Format,
		"DDLDUMP_UPLOAD_ENDPOINT":   &c.Upload.Endpoint,
		"DDLDUMP_UPLOAD_BUCKET":     &c.Upload.Bucket,
		"DDLDUMP_UPLOAD_PREFIX":     &c.Upload.Prefix,
		"DDLDUMP_UPLOAD_ACCESS_KEY": &c.Upload.AccessKey,
		"DDLDUMP_UPLOAD_SECRET_KEY": &c.Upload.SecretKey,
		"DDLDUMP_LISTEN":            &c.Server.Listen,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}

	if v, ok := lookup("DDLDUMP_KINDS"); ok {
		c.Kinds = splitList(v)
	}
	if v, ok := lookup("DDLDUMP_CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DDLDUMP_CONCURRENCY %q: %w", v, err)
		}
		c.Concurrency = n
	}
	if v, ok := lookup("DDLDUMP_UPLOAD_SSL"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DDLDUMP_UPLOAD_SSL %q: %w", v, err)
		}
		c.Upload.UseSSL = b
	}
	return nil
}

// Validate checks the settings needed to run a dump
func (c *Config) Validate() error {
	sources := 0
	for _, s := range []string{c.Database.URL, c.Database.MySQLURL, c.Database.SQLite} {
		if s != "" {
			sources++
		}
	}
	if sources == 0 {
		return fmt.Errorf("one of --db-url, --mysql-url, or --sqlite must be specified")
	}
	if sources > 1 {
		return fmt.Errorf("only one of --db-url, --mysql-url, or --sqlite can be specified")
	}

	if c.Output.Format != "sql" && c.Output.Format != "markdown" {
		return fmt.Errorf("invalid format: %s (must be 'sql' or 'markdown')", c.Output.Format)
	}
	if c.Output.Dir != "" && c.Output.File != "" {
		return fmt.Errorf("cannot use both --output-dir and --output flags")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if _, err := c.ParsedKinds(); err != nil {
		return err
	}
	if c.Upload.Endpoint != "" && c.Upload.Bucket == "" {
		return fmt.Errorf("upload endpoint set without a bucket")
	}
	return nil
}

// ParsedKinds returns Kinds as schema kinds; nil means all
func (c *Config) ParsedKinds() ([]schema.Kind, error) {
	return schema.ParseKinds(strings.Join(c.Kinds, ","))
}

// DatabaseURL folds the configured source into one scheme-prefixed URL
func (c *Config) DatabaseURL() string {
	switch {
	case c.Database.SQLite != "":
		return "sqlite://" + c.Database.SQLite
	case c.Database.MySQLURL != "":
		return "mysql://" + strings.TrimPrefix(c.Database.MySQLURL, "mysql://")
	default:
		return c.Database.URL
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
