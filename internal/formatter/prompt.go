// Package formatter renders schema documents as compact, token-efficient
// text for embedding in model prompts.
package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/askdb/internal/schema"
)

// PromptFormatter writes a schema document in compact text form.
type PromptFormatter struct {
	writer io.Writer
}

// NewPromptFormatter creates a new prompt formatter
func NewPromptFormatter(w io.Writer) *PromptFormatter {
	return &PromptFormatter{writer: w}
}

// Document renders a schema document as a string.
func Document(doc *schema.Document) string {
	var sb strings.Builder
	_ = NewPromptFormatter(&sb).Format(doc)
	return sb.String()
}

// Format writes the schema in compact text format
func (f *PromptFormatter) Format(doc *schema.Document) error {
	for i, table := range doc.Tables {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between tables
		}

		if err := f.formatTable(table); err != nil {
			return err
		}
	}
	return nil
}

func (f *PromptFormatter) formatTable(table schema.Table) error {
	// Table header with primary key and inferred purpose
	pkStr := ""
	if len(table.PrimaryKey) > 0 {
		pkStr = fmt.Sprintf(" (PK: %s)", strings.Join(table.PrimaryKey, ", "))
	}
	purposeStr := ""
	if table.Purpose != "" {
		purposeStr = fmt.Sprintf(" [%s]", table.Purpose)
	}
	_, _ = fmt.Fprintf(f.writer, "TABLE %s%s%s\n", table.Name, pkStr, purposeStr)

	// Columns
	for _, col := range table.Columns {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", f.formatColumn(col))
	}

	// Relationships
	if len(table.Relationships) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  RELATIONSHIPS:")
		for _, rel := range table.Relationships {
			_, _ = fmt.Fprintf(f.writer, "    %s %s via %s -> %s\n", rel.Kind, rel.Table, rel.ForeignKey, rel.TargetKey)
		}
	}

	// Sample rows
	if len(table.SampleRows) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		_, _ = fmt.Fprintln(f.writer, "  SAMPLE ROWS:")
		for _, row := range table.SampleRows {
			_, _ = fmt.Fprintf(f.writer, "    %s\n", f.formatRow(table.Columns, row))
		}
	}

	return nil
}

func (f *PromptFormatter) formatColumn(col schema.Column) string {
	parts := []string{col.Name + ":", col.Type}

	if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}

	var tags []string
	if col.Meaning != "" {
		tags = append(tags, col.Meaning)
	}
	if col.Temporal {
		tags = append(tags, "temporal")
	}
	if col.Metric {
		tags = append(tags, "metric")
	}
	if len(tags) > 0 {
		parts = append(parts, fmt.Sprintf("-- %s", strings.Join(tags, ", ")))
	}

	return strings.Join(parts, " ")
}

// formatRow renders a sample row in column order so repeated reads produce
// identical prompts.
func (f *PromptFormatter) formatRow(columns []schema.Column, row map[string]any) string {
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		val, ok := row[col.Name]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v", col.Name, val))
	}
	return strings.Join(parts, ", ")
}
