package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tordrt/askdb/internal/schema"
)

// SQLite is the secondary backend for local development and tests.
type SQLite struct {
	db             *sql.DB
	queryTimeout   time.Duration
	sampleRowLimit int
}

// OpenSQLite opens the database file and verifies the connection.
func OpenSQLite(ctx context.Context, path string, cfg Config) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLite{
		db:             db,
		queryTimeout:   cfg.QueryTimeout,
		sampleRowLimit: cfg.SampleRowLimit,
	}, nil
}

func (s *SQLite) Dialect() string { return "sqlite" }

func (s *SQLite) Close(ctx context.Context) error {
	return s.db.Close()
}

// Introspect assembles the schema document from sqlite_master and the
// table_info / foreign_key_list pragmas.
func (s *SQLite) Introspect(ctx context.Context) (*schema.Document, error) {
	tableNames, err := s.tableNames(ctx)
	if err != nil {
		return nil, &CatalogError{Err: fmt.Errorf("failed to list tables: %w", err)}
	}

	doc := &schema.Document{}
	for _, tableName := range tableNames {
		table, err := s.introspectTable(ctx, tableName)
		if err != nil {
			return nil, &CatalogError{Err: fmt.Errorf("failed to introspect table %s: %w", tableName, err)}
		}
		doc.Tables = append(doc.Tables, *table)
	}

	schema.DeriveRelationships(doc)
	return doc, nil
}

func (s *SQLite) tableNames(ctx context.Context) ([]string, error) {
	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
			AND name NOT LIKE 'sqlite_%'
			AND name NOT LIKE 'sql_%'
		ORDER BY name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}

	return tables, rows.Err()
}

func (s *SQLite) introspectTable(ctx context.Context, tableName string) (*schema.Table, error) {
	table := &schema.Table{Name: tableName}

	columns, pk, err := s.introspectColumns(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	table.Columns = columns
	table.PrimaryKey = pk

	fks, err := s.introspectForeignKeys(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to read foreign keys: %w", err)
	}
	table.ForeignKeys = fks

	samples, err := s.sampleRows(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sample rows: %w", err)
	}
	table.SampleRows = samples

	return table, nil
}

// introspectColumns reads columns and primary key in one pragma pass;
// table_info reports both.
func (s *SQLite) introspectColumns(ctx context.Context, tableName string) ([]schema.Column, []string, error) {
	if !identPattern.MatchString(tableName) {
		return nil, nil, fmt.Errorf("unsupported table name %q", tableName)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	var pk []string
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pkOrder int
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pkOrder); err != nil {
			return nil, nil, err
		}

		columns = append(columns, schema.Column{
			Name:     name,
			Type:     colType,
			Nullable: notNull == 0,
		})
		if pkOrder > 0 {
			pk = append(pk, name)
		}
	}

	return columns, pk, rows.Err()
}

func (s *SQLite) introspectForeignKeys(ctx context.Context, tableName string) ([]schema.ForeignKey, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []schema.ForeignKey
	for rows.Next() {
		var id, seq int
		var refTable, from string
		var to sql.NullString
		var onUpdate, onDelete, match string

		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}

		fk := schema.ForeignKey{Column: from, RefTable: refTable, RefColumn: "id"}
		if to.Valid {
			fk.RefColumn = to.String
		}
		fks = append(fks, fk)
	}

	return fks, rows.Err()
}

func (s *SQLite) sampleRows(ctx context.Context, tableName string) ([]map[string]any, error) {
	if !identPattern.MatchString(tableName) {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdent(tableName), s.sampleRowLimit)
	samples, _, err := s.collectRows(ctx, query)
	return samples, err
}

// Execute runs the statement under the query timeout; the context deadline
// interrupts the statement inside SQLite.
func (s *SQLite) Execute(ctx context.Context, query string) (*schema.QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, cols, err := s.collectRows(ctx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Timeout: s.queryTimeout}
		}
		return nil, &ExecutionError{Err: err}
	}

	result := &schema.QueryResult{Columns: []string{}, Rows: []map[string]any{}}
	if len(rows) > 0 {
		result.Columns = cols
		result.Rows = rows
	}
	return result, nil
}

func (s *SQLite) collectRows(ctx context.Context, query string) ([]map[string]any, []string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var collected []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(values[i])
		}
		collected = append(collected, row)
	}

	return collected, cols, rows.Err()
}
