package db

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tordrt/askdb/internal/schema"
)

// Defaults applied by Open when the corresponding Config field is zero.
const (
	DefaultQueryTimeout   = 30 * time.Second
	DefaultSampleRowLimit = 5
	defaultSchemaName     = "public"
)

// Database is a relational backend the pipeline can introspect and query.
type Database interface {
	// Introspect reads the catalog and assembles a structural schema
	// document: tables alphabetically, columns in ordinal position, with
	// primary keys, foreign keys, sample rows and derived relationships.
	// Fails with *CatalogError.
	Introspect(ctx context.Context) (*schema.Document, error)

	// Execute runs a SQL statement under the configured wall-clock budget
	// and normalizes the result. The deadline cancels the in-flight query.
	// Fails with *TimeoutError or *ExecutionError.
	Execute(ctx context.Context, query string) (*schema.QueryResult, error)

	// Dialect names the SQL dialect the backend speaks, e.g. "postgresql".
	Dialect() string

	Close(ctx context.Context) error
}

// Config configures a backend connection.
type Config struct {
	// URL selects the backend by scheme: postgres:// or postgresql:// for
	// PostgreSQL, sqlite:// for a local SQLite file.
	URL string

	// SchemaName is the namespace to introspect (PostgreSQL only).
	// Defaults to "public".
	SchemaName string

	// QueryTimeout bounds Execute. Defaults to 30 seconds.
	QueryTimeout time.Duration

	// SampleRowLimit caps the sample rows read per table. Defaults to 5.
	SampleRowLimit int
}

func (c *Config) applyDefaults() {
	if c.SchemaName == "" {
		c.SchemaName = defaultSchemaName
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = DefaultQueryTimeout
	}
	if c.SampleRowLimit <= 0 {
		c.SampleRowLimit = DefaultSampleRowLimit
	}
}

// Open connects to the backend named by the config URL scheme.
func Open(ctx context.Context, cfg Config) (Database, error) {
	cfg.applyDefaults()

	switch {
	case cfg.URL == "":
		return nil, fmt.Errorf("database URL is required")
	case strings.HasPrefix(cfg.URL, "postgres://"), strings.HasPrefix(cfg.URL, "postgresql://"):
		return OpenPostgres(ctx, cfg)
	case strings.HasPrefix(cfg.URL, "sqlite://"):
		return OpenSQLite(ctx, strings.TrimPrefix(cfg.URL, "sqlite://"), cfg)
	default:
		return nil, fmt.Errorf("invalid database URL scheme (must start with postgres://, postgresql://, or sqlite://)")
	}
}

// identPattern matches the table names we are willing to interpolate into a
// sample-data query. Catalog lookups are parameterized, but SELECT * FROM
// cannot bind an identifier, so anything outside this shape is skipped.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// quoteIdent double-quotes an identifier, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// normalizeValue converts driver values into JSON-friendly shapes; raw byte
// slices would otherwise marshal as base64.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
