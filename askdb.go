// Package askdb assembles the question-answering service: a database
// backend, a cached schema document, Gemini-backed generators, and the
// HTTP surface that ties them together.
package askdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/tordrt/askdb/internal/api"
	"github.com/tordrt/askdb/internal/cache"
	"github.com/tordrt/askdb/internal/config"
	"github.com/tordrt/askdb/internal/db"
	"github.com/tordrt/askdb/internal/explain"
	"github.com/tordrt/askdb/internal/llm"
	"github.com/tordrt/askdb/internal/pipeline"
	"github.com/tordrt/askdb/internal/schema"
	"github.com/tordrt/askdb/internal/sqlgen"
	"github.com/tordrt/askdb/internal/viz"
)

const shutdownGrace = 10 * time.Second

// Server owns the HTTP listener and the database connection behind it.
type Server struct {
	httpServer *http.Server
	database   db.Database
	log        zerolog.Logger
}

// NewServer connects to the database, builds the pipeline and prepares the
// HTTP server. It does not start listening; call Run for that.
func NewServer(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Server, error) {
	database, err := db.Open(ctx, db.Config{
		URL:            cfg.DatabaseURL,
		SchemaName:     cfg.SchemaName,
		QueryTimeout:   cfg.QueryTimeout,
		SampleRowLimit: cfg.SampleRowLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	model, err := llm.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		_ = database.Close(ctx)
		return nil, err
	}

	schemaCache := cache.New(func(ctx context.Context) (*schema.Document, error) {
		doc, err := database.Introspect(ctx)
		if err != nil {
			return nil, err
		}
		return schema.Annotate(doc), nil
	}, cfg.SchemaCacheTTL)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	p := pipeline.New(
		schemaCache,
		sqlgen.New(model, database.Dialect()),
		database,
		viz.New(model, log.With().Str("subsystem", "viz").Logger()),
		explain.New(model, log.With().Str("subsystem", "explain").Logger()),
		pipeline.NewMetrics(promReg),
		log.With().Str("subsystem", "pipeline").Logger(),
	)

	apiLog := log.With().Str("subsystem", "api").Logger()
	router := api.NewRouter(api.NewHandler(p, apiLog), promReg, cfg.StaticDir, apiLog)

	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		database: database,
		log:      log,
	}, nil
}

// Run serves requests until the context is cancelled, then drains in-flight
// requests and closes the database connection.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.httpServer.Addr).Msg("listening")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		_ = s.database.Close(context.Background())
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	if closeErr := s.database.Close(shutdownCtx); closeErr != nil {
		s.log.Warn().Err(closeErr).Msg("failed to close database connection")
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
