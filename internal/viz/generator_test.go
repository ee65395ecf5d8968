package viz

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"

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

func TestParse(t *testing.T) {
	barSpec := []Spec{{"type": "bar", "title": "Sales by month", "data": []any{}}}

	tests := []struct {
		name    string
		input   string
		want    []Spec
		wantErr bool
	}{
		{
			name:  "fenced json block",
			input: "Here you go:\n```json\n[{\"type\":\"bar\",\"title\":\"Sales by month\",\"data\":[]}]\n```\nEnjoy!",
			want:  barSpec,
		},
		{
			name:  "fenced block without language tag",
			input: "```\n[{\"type\":\"bar\",\"title\":\"Sales by month\",\"data\":[]}]\n```",
			want:  barSpec,
		},
		{
			name:  "raw array",
			input: "[{\"type\":\"bar\",\"title\":\"Sales by month\",\"data\":[]}]",
			want:  barSpec,
		},
		{
			name:  "array buried in prose",
			input: "I suggest: [{\"type\":\"bar\",\"title\":\"Sales by month\",\"data\":[]}] -- hope that helps",
			want:  barSpec,
		},
		{
			name:  "bare object gets wrapped",
			input: "{\"type\":\"bar\",\"title\":\"Sales by month\",\"data\":[]}",
			want:  barSpec,
		},
		{
			name:    "garbage",
			input:   "I am sorry, I cannot help with that.",
			wantErr: true,
		},
		{
			name:    "broken json in all shapes",
			input:   "```json\n[{\"type\":\n```",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Parse(%q) succeeded with %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// Type-specific fields must pass through untouched.
func TestParsePreservesExtraFields(t *testing.T) {
	got, err := Parse(`[{"type":"pie","title":"Share","data":[],"segments":7,"legend":true}]`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got[0]["segments"] != float64(7) || got[0]["legend"] != true {
		t.Errorf("extra fields lost: %+v", got[0])
	}
}

func TestGenerateNeverFails(t *testing.T) {
	result := &schema.QueryResult{Columns: []string{"month", "total"}, Rows: []map[string]any{{"month": "Jan", "total": 10}}}

	tests := []struct {
		name  string
		model *fakeModel
		want  int
	}{
		{"transport failure", &fakeModel{err: errors.New("connection reset")}, 0},
		{"unparseable response", &fakeModel{response: "no charts today"}, 0},
		{"valid response", &fakeModel{response: `[{"type":"table","title":"Raw","data":[]}]`}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := New(tt.model, zerolog.Nop())
			specs := gen.Generate(context.Background(), "monthly totals", result, "SELECT 1")
			if specs == nil {
				t.Fatal("Generate returned nil, want a non-nil slice")
			}
			if len(specs) != tt.want {
				t.Errorf("len(specs) = %d, want %d", len(specs), tt.want)
			}
		})
	}
}

func TestGeneratePromptContents(t *testing.T) {
	model := &fakeModel{response: "[]"}
	gen := New(model, zerolog.Nop())

	result := &schema.QueryResult{Columns: []string{"total"}, Rows: []map[string]any{{"total": 42}}}
	gen.Generate(context.Background(), "total sales", result, "SELECT SUM(amount) FROM orders")

	for _, fragment := range []string{
		"total sales",
		"SELECT SUM(amount) FROM orders",
		"bar, line, pie, table",
		"at most 7 segments",
		"at most 2 visualizations",
	} {
		if !strings.Contains(model.prompt, fragment) {
			t.Errorf("prompt missing %q", fragment)
		}
	}
}
