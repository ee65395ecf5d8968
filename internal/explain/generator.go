// Package explain asks the model for a prose explanation of a query result.
package explain

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tordrt/askdb/internal/llm"
	"github.com/tordrt/askdb/internal/schema"
	"github.com/tordrt/askdb/internal/viz"
)

// Fallback is returned whenever explanation generation fails for any reason.
const Fallback = "I couldn't generate an explanation for these results. Please review the data directly."

// Generator builds the explanation prompt.
type Generator struct {
	model llm.TextGenerator
	log   zerolog.Logger
}

// New creates an explanation generator
func New(model llm.TextGenerator, log zerolog.Logger) *Generator {
	return &Generator{model: model, log: log}
}

// Generate returns a business-tone explanation of the results. It never
// fails to the caller: any error yields the fixed fallback string.
func (g *Generator) Generate(ctx context.Context, question string, result *schema.QueryResult, sqlQuery string, specs []viz.Spec) string {
	text, err := g.model.Generate(ctx, g.buildPrompt(question, result, sqlQuery, specs))
	if err != nil {
		g.log.Warn().Err(err).Msg("explanation generation failed, using fallback")
		return Fallback
	}
	if trimmed := strings.TrimSpace(text); trimmed != "" {
		return trimmed
	}
	return Fallback
}

func (g *Generator) buildPrompt(question string, result *schema.QueryResult, sqlQuery string, specs []viz.Spec) string {
	data, err := json.Marshal(result)
	if err != nil {
		data = []byte("{}")
	}
	charts, err := json.Marshal(specs)
	if err != nil {
		charts = []byte("[]")
	}

	var sb strings.Builder
	sb.WriteString("Explain the following query results to a business audience.\n\n")
	sb.WriteString("QUESTION: ")
	sb.WriteString(question)
	sb.WriteString("\n\nSQL:\n")
	sb.WriteString(sqlQuery)
	sb.WriteString("\n\nRESULT:\n")
	sb.Write(data)
	sb.WriteString("\n\nVISUALIZATIONS:\n")
	sb.Write(charts)
	sb.WriteString("\n\nRULES:\n")
	sb.WriteString("- Use a clear business tone, 3 to 5 paragraphs.\n")
	sb.WriteString("- Cite concrete numbers from the results.\n")
	sb.WriteString("- Do not mention SQL, queries, or databases.\n")

	return sb.String()
}
