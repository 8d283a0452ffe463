package formatter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tordrt/ddldump/internal/schema"
)

// MultiFileFormatter writes a dump to a directory, one file per kind
type MultiFileFormatter struct {
	OutputDir    string
	OutputFormat string // "sql" or "markdown"
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir, format string) *MultiFileFormatter {
	return &MultiFileFormatter{
		OutputDir:    outputDir,
		OutputFormat: format,
	}
}

// Format writes _overview.<ext> and NN_<kind>.<ext> for every non-empty
// section, NN being the kind's canonical position
func (f *MultiFileFormatter) Format(d *schema.Dump) error {
	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := f.writeOverview(d); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for _, sec := range d.Sections {
		if len(sec.Statements) == 0 {
			continue
		}
		if err := f.writeSectionFile(d, sec); err != nil {
			return fmt.Errorf("failed to write file for %s: %w", sec.Kind, err)
		}
	}

	return nil
}

// SectionFileName returns the file name a section is written to
func (f *MultiFileFormatter) SectionFileName(kind schema.Kind) string {
	return fmt.Sprintf("%02d_%s%s", kind.Order()+1, kind, Extension(f.OutputFormat))
}

func (f *MultiFileFormatter) writeOverview(d *schema.Dump) error {
	filename := filepath.Join(f.OutputDir, "_overview"+Extension(f.OutputFormat))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	if f.OutputFormat == FormatMarkdown {
		_, _ = fmt.Fprintf(file, "# Schema %s\n\n", d.Schema)
		_, _ = fmt.Fprintf(file, "Dialect: %s\n\n", d.Dialect)
		_, _ = fmt.Fprintln(file, "| Kind | Statements | File |")
		_, _ = fmt.Fprintln(file, "|---|---|---|")
		for _, sec := range d.Sections {
			name := "-"
			if len(sec.Statements) > 0 {
				name = "`" + f.SectionFileName(sec.Kind) + "`"
			}
			_, _ = fmt.Fprintf(file, "| %s | %d | %s |\n", sec.Kind.Title(), len(sec.Statements), name)
		}
		return nil
	}

	_, _ = fmt.Fprintf(file, "-- ddldump: %s schema %s\n", d.Dialect, d.Schema)
	for _, sec := range d.Sections {
		_, _ = fmt.Fprintf(file, "-- %s: %d\n", sec.Kind, len(sec.Statements))
	}
	return nil
}

func (f *MultiFileFormatter) writeSectionFile(d *schema.Dump, sec schema.Section) error {
	filename := filepath.Join(f.OutputDir, f.SectionFileName(sec.Kind))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	if f.OutputFormat == FormatMarkdown {
		_, _ = fmt.Fprintf(file, "# %s.%s\n\n", d.Schema, sec.Kind)
		NewMarkdownFormatter(file).FormatSection(file, sec)
		return nil
	}

	return NewSQLFormatter(file).formatSection(file, sec)
}
