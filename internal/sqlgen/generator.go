// Package sqlgen turns a natural-language question and an annotated schema
// document into a single SQL statement via the model.
package sqlgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/tordrt/askdb/internal/formatter"
	"github.com/tordrt/askdb/internal/llm"
	"github.com/tordrt/askdb/internal/schema"
)

// GenerationError wraps a model transport failure during SQL generation.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("SQL generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Generator builds the SQL-generation prompt and sanitizes the response.
type Generator struct {
	model   llm.TextGenerator
	dialect string
}

// New creates a generator targeting the given SQL dialect ("postgresql" or
// "sqlite").
func New(model llm.TextGenerator, dialect string) *Generator {
	return &Generator{model: model, dialect: dialect}
}

// Generate returns a bare SQL statement answering the question against the
// schema. The model's answer is used verbatim after fence stripping; no
// further validation is applied.
func (g *Generator) Generate(ctx context.Context, question string, doc *schema.Document) (string, error) {
	raw, err := g.model.Generate(ctx, g.buildPrompt(question, doc))
	if err != nil {
		return "", &GenerationError{Err: err}
	}

	return StripFences(raw), nil
}

func (g *Generator) buildPrompt(question string, doc *schema.Document) string {
	var sb strings.Builder

	sb.WriteString("You are an expert SQL analyst. Given the database schema below, write a single SQL query that answers the question.\n\n")
	sb.WriteString("DATABASE SCHEMA:\n")
	sb.WriteString(formatter.Document(doc))
	sb.WriteString("\n\nQUESTION: ")
	sb.WriteString(question)
	sb.WriteString("\n\nRULES:\n")

	switch g.dialect {
	case "sqlite":
		sb.WriteString("- Use SQLite syntax only.\n")
	default:
		sb.WriteString("- Use PostgreSQL syntax only.\n")
	}
	sb.WriteString("- Respond with the SQL query and nothing else: no prose, no explanations, no error messages, no refusals.\n")
	sb.WriteString("- If the question cannot be answered exactly from this schema, still write the most plausible query you can.\n")
	sb.WriteString("- When comparing date or timestamp values stored in text columns, cast them explicitly before comparing.\n")
	sb.WriteString("- Only reference tables and columns that appear in the schema above.\n")

	return sb.String()
}

// StripFences removes surrounding markdown code-fence markers from the
// model's raw text and trims whitespace.
func StripFences(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		// Drop the opening fence line, including any language tag.
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[i+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
	}

	return strings.TrimSpace(text)
}
