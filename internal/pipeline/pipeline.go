// Package pipeline chains the stages that turn a question into an answer:
// schema read, SQL generation, execution, visualization, explanation.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tordrt/askdb/internal/schema"
	"github.com/tordrt/askdb/internal/viz"
)

// SchemaSource yields the current (cached) annotated schema document.
type SchemaSource interface {
	Get(ctx context.Context) (*schema.Document, error)
}

// SQLGenerator turns a question and schema into a SQL statement.
type SQLGenerator interface {
	Generate(ctx context.Context, question string, doc *schema.Document) (string, error)
}

// Executor runs a SQL statement and normalizes the result.
type Executor interface {
	Execute(ctx context.Context, query string) (*schema.QueryResult, error)
}

// VizGenerator proposes chart specs; it never fails.
type VizGenerator interface {
	Generate(ctx context.Context, question string, result *schema.QueryResult, sqlQuery string) []viz.Spec
}

// Explainer produces prose for the results; it never fails.
type Explainer interface {
	Generate(ctx context.Context, question string, result *schema.QueryResult, sqlQuery string, specs []viz.Spec) string
}

// Answer is the full payload returned to the caller.
type Answer struct {
	Text           string              `json:"text"`
	SQLQuery       string              `json:"sqlQuery"`
	TableData      *schema.QueryResult `json:"tableData"`
	Visualizations []viz.Spec          `json:"visualizations"`
}

// Pipeline orchestrates one question through the five stages. The first
// three stages are fatal: their errors abort the request. Visualization and
// explanation degrade instead of failing.
type Pipeline struct {
	schemas  SchemaSource
	sqlgen   SQLGenerator
	executor Executor
	viz      VizGenerator
	explain  Explainer
	metrics  *Metrics
	log      zerolog.Logger
}

// New assembles a pipeline
func New(schemas SchemaSource, sqlgen SQLGenerator, executor Executor, vizGen VizGenerator, explainer Explainer, metrics *Metrics, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		schemas:  schemas,
		sqlgen:   sqlgen,
		executor: executor,
		viz:      vizGen,
		explain:  explainer,
		metrics:  metrics,
		log:      log,
	}
}

// Run answers one question. The returned error carries the failing stage's
// message; on success every Answer field is populated (possibly with empty
// visualizations and the explanation fallback).
func (p *Pipeline) Run(ctx context.Context, question string) (*Answer, error) {
	start := time.Now()
	p.metrics.Requests.Inc()
	defer func() {
		p.metrics.Duration.Observe(time.Since(start).Seconds())
	}()

	doc, err := p.schemas.Get(ctx)
	if err != nil {
		p.metrics.StageFailures.WithLabelValues(StageSchema).Inc()
		return nil, err
	}

	sqlQuery, err := p.sqlgen.Generate(ctx, question, doc)
	if err != nil {
		p.metrics.StageFailures.WithLabelValues(StageGenerate).Inc()
		return nil, err
	}
	p.log.Debug().Str("sql", sqlQuery).Msg("generated query")

	result, err := p.executor.Execute(ctx, sqlQuery)
	if err != nil {
		p.metrics.StageFailures.WithLabelValues(StageExecute).Inc()
		return nil, err
	}
	p.log.Debug().Int("rows", len(result.Rows)).Msg("executed query")

	specs := p.viz.Generate(ctx, question, result, sqlQuery)
	text := p.explain.Generate(ctx, question, result, sqlQuery, specs)

	return &Answer{
		Text:           text,
		SQLQuery:       sqlQuery,
		TableData:      result,
		Visualizations: specs,
	}, nil
}
