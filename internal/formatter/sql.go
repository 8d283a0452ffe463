package formatter

import (
	"fmt"
	"io"

	"github.com/tordrt/ddldump/internal/schema"
)

// SQLFormatter writes a dump as a plain SQL script
type SQLFormatter struct {
	writer io.Writer
}

// NewSQLFormatter creates a new SQL formatter
func NewSQLFormatter(w io.Writer) *SQLFormatter {
	return &SQLFormatter{writer: w}
}

// Format writes a header comment, then every non-empty section as a
// "-- <kind>" comment followed by one statement per line
func (f *SQLFormatter) Format(d *schema.Dump) error {
	if _, err := fmt.Fprintf(f.writer, "-- ddldump: %s schema %s\n", d.Dialect, d.Schema); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, sec := range d.Sections {
		if len(sec.Statements) == 0 {
			continue
		}
		if err := f.formatSection(f.writer, sec); err != nil {
			return err
		}
	}
	return nil
}

func (f *SQLFormatter) formatSection(w io.Writer, sec schema.Section) error {
	if _, err := fmt.Fprintf(w, "\n-- %s\n", sec.Kind); err != nil {
		return fmt.Errorf("failed to write %s: %w", sec.Kind, err)
	}
	for _, stmt := range sec.Statements {
		if _, err := fmt.Fprintln(w, stmt); err != nil {
			return fmt.Errorf("failed to write %s: %w", sec.Kind, err)
		}
	}
	return nil
}
