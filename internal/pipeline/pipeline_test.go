package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/tordrt/askdb/internal/schema"
	"github.com/tordrt/askdb/internal/viz"
)

type fakeSchemas struct {
	doc *schema.Document
	err error
}

func (f *fakeSchemas) Get(ctx context.Context) (*schema.Document, error) {
	return f.doc, f.err
}

type fakeSQLGen struct {
	sql string
	err error
}

func (f *fakeSQLGen) Generate(ctx context.Context, question string, doc *schema.Document) (string, error) {
	return f.sql, f.err
}

type fakeExecutor struct {
	result *schema.QueryResult
	err    error
	gotSQL string
}

func (f *fakeExecutor) Execute(ctx context.Context, query string) (*schema.QueryResult, error) {
	f.gotSQL = query
	return f.result, f.err
}

type fakeViz struct {
	specs []viz.Spec
}

func (f *fakeViz) Generate(ctx context.Context, question string, result *schema.QueryResult, sqlQuery string) []viz.Spec {
	return f.specs
}

type fakeExplainer struct {
	text string
}

func (f *fakeExplainer) Generate(ctx context.Context, question string, result *schema.QueryResult, sqlQuery string, specs []viz.Spec) string {
	return f.text
}

func ordersSchema() *schema.Document {
	return &schema.Document{Tables: []schema.Table{
		{
			Name: "orders",
			Columns: []schema.Column{
				{Name: "amount", Type: "numeric", Numeric: true, Metric: true},
				{Name: "created_at", Type: "timestamptz", Temporal: true},
			},
		},
	}}
}

func newTestPipeline(schemas SchemaSource, gen SQLGenerator, exec Executor, vizGen VizGenerator, explainer Explainer) *Pipeline {
	return New(schemas, gen, exec, vizGen, explainer, NewMetrics(prometheus.NewRegistry()), zerolog.Nop())
}

func TestRunSuccess(t *testing.T) {
	result := &schema.QueryResult{
		Columns: []string{"total"},
		Rows:    []map[string]any{{"total": 112000}},
	}
	executor := &fakeExecutor{result: result}

	p := newTestPipeline(
		&fakeSchemas{doc: ordersSchema()},
		&fakeSQLGen{sql: "SELECT SUM(amount) AS total FROM orders"},
		executor,
		&fakeViz{specs: []viz.Spec{{"type": "bar", "title": "Total"}}},
		&fakeExplainer{text: "Total sales were 112,000."},
	)

	answer, err := p.Run(context.Background(), "total sales last quarter")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if answer.SQLQuery != "SELECT SUM(amount) AS total FROM orders" {
		t.Errorf("SQLQuery = %q", answer.SQLQuery)
	}
	if executor.gotSQL != answer.SQLQuery {
		t.Errorf("executor received %q", executor.gotSQL)
	}
	if answer.TableData != result {
		t.Error("TableData is not the executor's result")
	}
	if len(answer.Visualizations) != 1 {
		t.Errorf("Visualizations = %+v", answer.Visualizations)
	}
	if answer.Text != "Total sales were 112,000." {
		t.Errorf("Text = %q", answer.Text)
	}
}

func TestRunSchemaFailureAborts(t *testing.T) {
	p := newTestPipeline(
		&fakeSchemas{err: errors.New("connection dropped")},
		&fakeSQLGen{sql: "SELECT 1"},
		&fakeExecutor{},
		&fakeViz{},
		&fakeExplainer{text: "unused"},
	)

	answer, err := p.Run(context.Background(), "total sales")
	if err == nil {
		t.Fatal("expected error, got none")
	}
	if answer != nil {
		t.Errorf("answer = %+v, want nil", answer)
	}
	if !strings.Contains(err.Error(), "connection dropped") {
		t.Errorf("error %q does not carry the cause", err)
	}
}

func TestRunGenerationFailureAborts(t *testing.T) {
	executor := &fakeExecutor{}
	p := newTestPipeline(
		&fakeSchemas{doc: ordersSchema()},
		&fakeSQLGen{err: errors.New("model unavailable")},
		executor,
		&fakeViz{},
		&fakeExplainer{text: "unused"},
	)

	if _, err := p.Run(context.Background(), "total sales"); err == nil {
		t.Fatal("expected error, got none")
	}
	if executor.gotSQL != "" {
		t.Error("executor ran despite generation failure")
	}
}

func TestRunExecutionFailureAborts(t *testing.T) {
	p := newTestPipeline(
		&fakeSchemas{doc: ordersSchema()},
		&fakeSQLGen{sql: "SELECT broken"},
		&fakeExecutor{err: errors.New(`column "broken" does not exist`)},
		&fakeViz{},
		&fakeExplainer{text: "unused"},
	)

	_, err := p.Run(context.Background(), "total sales")
	if err == nil {
		t.Fatal("expected error, got none")
	}
	if !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("error %q does not pass the driver message through", err)
	}
}

// Empty visualizations never block the answer.
func TestRunDegradedVisualizations(t *testing.T) {
	p := newTestPipeline(
		&fakeSchemas{doc: ordersSchema()},
		&fakeSQLGen{sql: "SELECT 1"},
		&fakeExecutor{result: &schema.QueryResult{Columns: []string{}, Rows: []map[string]any{}}},
		&fakeViz{specs: []viz.Spec{}},
		&fakeExplainer{text: "Nothing matched."},
	)

	answer, err := p.Run(context.Background(), "sales on mars")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(answer.Visualizations) != 0 {
		t.Errorf("Visualizations = %+v, want none", answer.Visualizations)
	}
	if answer.Text != "Nothing matched." {
		t.Errorf("Text = %q", answer.Text)
	}
}
