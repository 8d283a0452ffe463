package formatter

import (
	"bytes"
	"fmt"
	"io"

	"github.com/tordrt/ddldump/internal/schema"
)

// Output formats
const (
	FormatSQL      = "sql"
	FormatMarkdown = "markdown"
)

// Formatter renders a dump
type Formatter interface {
	Format(d *schema.Dump) error
}

// ValidFormat reports whether format is one of the supported output formats
func ValidFormat(format string) bool {
	return format == FormatSQL || format == FormatMarkdown
}

// Extension returns the file extension for format, including the dot
func Extension(format string) string {
	if format == FormatMarkdown {
		return ".md"
	}
	return ".sql"
}

// New returns the single-stream formatter for format
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case FormatSQL, "":
		return NewSQLFormatter(w), nil
	case FormatMarkdown:
		return NewMarkdownFormatter(w), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (must be 'sql' or 'markdown')", format)
	}
}

// Render formats d into memory
func Render(d *schema.Dump, format string) ([]byte, error) {
	var buf bytes.Buffer
	f, err := New(format, &buf)
	if err != nil {
		return nil, err
	}
	if err := f.Format(d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
