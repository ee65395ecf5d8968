package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tordrt/askdb"
	"github.com/tordrt/askdb/internal/config"
)

var (
	dbURL      string
	port       string
	staticDir  string
	schemaName string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "askdb",
	Short: "Answer natural-language questions against a SQL database",
	Long: `askdb serves an HTTP API that turns plain-language questions into SQL,
runs the query against PostgreSQL or SQLite, and returns the results with
chart suggestions and a written explanation.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&dbURL, "db-url", "", "Database connection string (overrides DATABASE_URL)")
	rootCmd.Flags().StringVarP(&port, "port", "p", "", "HTTP listen port (overrides PORT)")
	rootCmd.Flags().StringVar(&staticDir, "static-dir", "", "Directory with the web frontend (overrides STATIC_DIR)")
	rootCmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Database schema name (overrides DB_SCHEMA)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error (overrides LOG_LEVEL)")
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	// Flags win over the environment.
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if port != "" {
		cfg.Port = port
	}
	if staticDir != "" {
		cfg.StaticDir = staticDir
	}
	if schemaName != "" {
		cfg.SchemaName = schemaName
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, err := askdb.NewServer(ctx, cfg, log)
	if err != nil {
		return err
	}

	return server.Run(ctx)
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger(), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
