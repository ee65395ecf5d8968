package sqlgen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tordrt/askdb/internal/schema"
)

type fakeModel struct {
	response string
	err      error
	prompt   string
}

func (f *fakeModel) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func salesSchema() *schema.Document {
	return &schema.Document{Tables: []schema.Table{
		{
			Name: "orders",
			Columns: []schema.Column{
				{Name: "id", Type: "integer"},
				{Name: "amount", Type: "numeric", Numeric: true, Metric: true},
				{Name: "created_at", Type: "timestamptz", Temporal: true},
			},
			PrimaryKey: []string{"id"},
		},
	}}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "sql fence",
			input: "```sql\nSELECT 1\n```",
			want:  "SELECT 1",
		},
		{
			name:  "bare fence",
			input: "```\nSELECT 1\n```",
			want:  "SELECT 1",
		},
		{
			name:  "no fence",
			input: "  SELECT 1  ",
			want:  "SELECT 1",
		},
		{
			name:  "unterminated fence",
			input: "```sql\nSELECT 1",
			want:  "SELECT 1",
		},
		{
			name:  "multiline query",
			input: "```sql\nSELECT id,\n  amount\nFROM orders\n```",
			want:  "SELECT id,\n  amount\nFROM orders",
		},
		{
			name:  "backticks inside unfenced text survive",
			input: "SELECT '```' AS marker",
			want:  "SELECT '```' AS marker",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFences(tt.input); got != tt.want {
				t.Errorf("StripFences(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	model := &fakeModel{response: "```sql\nSELECT SUM(amount) FROM orders\n```"}
	gen := New(model, "postgresql")

	sql, err := gen.Generate(context.Background(), "total sales last quarter", salesSchema())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if sql != "SELECT SUM(amount) FROM orders" {
		t.Errorf("sql = %q", sql)
	}
}

func TestGeneratePromptContents(t *testing.T) {
	model := &fakeModel{response: "SELECT 1"}
	gen := New(model, "postgresql")

	if _, err := gen.Generate(context.Background(), "total sales last quarter", salesSchema()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	wantFragments := []string{
		"TABLE orders",
		"amount: numeric",
		"total sales last quarter",
		"PostgreSQL syntax only",
		"no prose",
		"cast them explicitly",
	}
	for _, fragment := range wantFragments {
		if !strings.Contains(model.prompt, fragment) {
			t.Errorf("prompt missing %q", fragment)
		}
	}
}

func TestGenerateSQLiteDialect(t *testing.T) {
	model := &fakeModel{response: "SELECT 1"}
	gen := New(model, "sqlite")

	if _, err := gen.Generate(context.Background(), "anything", salesSchema()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(model.prompt, "SQLite syntax only") {
		t.Error("prompt missing SQLite dialect rule")
	}
}

func TestGenerateTransportFailure(t *testing.T) {
	model := &fakeModel{err: errors.New("connection refused")}
	gen := New(model, "postgresql")

	_, err := gen.Generate(context.Background(), "anything", salesSchema())

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("err = %v, want *GenerationError", err)
	}
	if !strings.Contains(genErr.Error(), "connection refused") {
		t.Errorf("error message %q does not carry the cause", genErr.Error())
	}
}
