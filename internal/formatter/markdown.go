package formatter

import (
	"fmt"
	"io"

	"github.com/tordrt/ddldump/internal/schema"
)

// MarkdownFormatter formats a dump as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the dump in markdown format
func (f *MarkdownFormatter) Format(d *schema.Dump) error {
	_, _ = fmt.Fprintf(f.writer, "# Schema %s\n\n", d.Schema)
	_, _ = fmt.Fprintf(f.writer, "Dialect: %s\n\n", d.Dialect)

	for _, sec := range d.Sections {
		f.FormatSection(f.writer, sec)
	}

	if len(d.Skipped) > 0 {
		_, _ = fmt.Fprintln(f.writer, "## Not supported")
		_, _ = fmt.Fprintln(f.writer)
		for _, k := range d.Skipped {
			_, _ = fmt.Fprintf(f.writer, "- %s\n", k.Title())
		}
		_, _ = fmt.Fprintln(f.writer)
	}
	return nil
}

// FormatSection writes one section (exported for use by multifile formatter)
func (f *MarkdownFormatter) FormatSection(w io.Writer, sec schema.Section) {
	_, _ = fmt.Fprintf(w, "## %s (%d)\n\n", sec.Kind.Title(), len(sec.Statements))

	if len(sec.Statements) == 0 {
		_, _ = fmt.Fprintln(w, "_none_")
		_, _ = fmt.Fprintln(w)
		return
	}

	_, _ = fmt.Fprintln(w, "```sql")
	for _, stmt := range sec.Statements {
		_, _ = fmt.Fprintln(w, stmt)
	}
	_, _ = fmt.Fprintln(w, "```")
	_, _ = fmt.Fprintln(w)
}
