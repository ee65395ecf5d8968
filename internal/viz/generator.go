// Package viz asks the model to propose chart specifications for a query
// result and leniently parses them out of free-form text.
package viz

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tordrt/askdb/internal/llm"
	"github.com/tordrt/askdb/internal/schema"
)

// Spec is a declarative chart description consumed by the frontend. Beyond
// type, title and data, the fields are chart-type specific and pass through
// untouched.
type Spec map[string]any

// Generator builds the visualization prompt and parses the response.
type Generator struct {
	model llm.TextGenerator
	log   zerolog.Logger
}

// New creates a visualization generator
func New(model llm.TextGenerator, log zerolog.Logger) *Generator {
	return &Generator{model: model, log: log}
}

// Generate proposes chart specs for the result. It never fails to the
// caller: any transport or parse error yields an empty list.
func (g *Generator) Generate(ctx context.Context, question string, result *schema.QueryResult, sqlQuery string) []Spec {
	raw, err := g.model.Generate(ctx, g.buildPrompt(question, result, sqlQuery))
	if err != nil {
		g.log.Warn().Err(err).Msg("visualization generation failed, returning none")
		return []Spec{}
	}

	specs, err := Parse(raw)
	if err != nil {
		g.log.Warn().Err(err).Msg("visualization response unparseable, returning none")
		return []Spec{}
	}
	return specs
}

func (g *Generator) buildPrompt(question string, result *schema.QueryResult, sqlQuery string) string {
	data, err := json.Marshal(result)
	if err != nil {
		data = []byte("{}")
	}

	var sb strings.Builder
	sb.WriteString("Propose visualizations for the following query result.\n\n")
	sb.WriteString("QUESTION: ")
	sb.WriteString(question)
	sb.WriteString("\n\nSQL:\n")
	sb.WriteString(sqlQuery)
	sb.WriteString("\n\nRESULT:\n")
	sb.Write(data)
	sb.WriteString("\n\nRULES:\n")
	sb.WriteString("- Respond with a JSON array of visualization specs.\n")
	sb.WriteString("- Each spec has \"type\" (one of bar, line, pie, table), \"title\", \"data\", plus any fields that chart type needs.\n")
	sb.WriteString("- Use at most 7 segments for pie charts.\n")
	sb.WriteString("- Propose at most 2 visualizations unless clearly more are needed.\n")

	return sb.String()
}

// Parse extracts a JSON array of specs from free-form model text. Extraction
// strategies are tried in order, each only when the previous one failed to
// parse: a fenced code block, a single bare object wrapped in brackets, the
// first bracketed substring, and finally the raw trimmed text wrapped in
// brackets. The bare-object wrap runs before bracket extraction because an
// object's own "data":[] would otherwise match as an empty array.
func Parse(text string) ([]Spec, error) {
	for _, extract := range []func(string) (string, bool){
		extractFencedBlock,
		wrapObject,
		extractBracketed,
		wrapRaw,
	} {
		candidate, ok := extract(text)
		if !ok {
			continue
		}
		var specs []Spec
		if err := json.Unmarshal([]byte(candidate), &specs); err == nil {
			return specs, nil
		}
	}
	return nil, fmt.Errorf("no parseable visualization array in response")
}

// extractFencedBlock returns the contents of the first fenced code block.
func extractFencedBlock(text string) (string, bool) {
	start := strings.Index(text, "```")
	if start == -1 {
		return "", false
	}

	rest := text[start+3:]
	// Skip the language tag line if present.
	if i := strings.IndexByte(rest, '\n'); i >= 0 && !strings.HasPrefix(strings.TrimSpace(rest[:i]), "[") {
		rest = rest[i+1:]
	}

	end := strings.Index(rest, "```")
	if end == -1 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// wrapObject brackets a response that is a single bare JSON object.
func wrapObject(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		return "[" + trimmed + "]", true
	}
	return "", false
}

// extractBracketed returns the first [...] substring.
func extractBracketed(text string) (string, bool) {
	start := strings.IndexByte(text, '[')
	end := strings.LastIndexByte(text, ']')
	if start == -1 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// wrapRaw brackets the trimmed text, for responses that are a bare object or
// comma-separated objects.
func wrapRaw(text string) (string, bool) {
	return "[" + strings.TrimSpace(text) + "]", true
}
