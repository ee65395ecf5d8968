package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tordrt/askdb/internal/schema"
)

const varcharType = "varchar"

// Postgres is the PostgreSQL backend. A connection pool is used because the
// server handles concurrent requests over the same backend.
type Postgres struct {
	pool           *pgxpool.Pool
	schemaName     string
	queryTimeout   time.Duration
	sampleRowLimit int
}

// OpenPostgres connects to PostgreSQL and verifies the connection.
func OpenPostgres(ctx context.Context, cfg Config) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{
		pool:           pool,
		schemaName:     cfg.SchemaName,
		queryTimeout:   cfg.QueryTimeout,
		sampleRowLimit: cfg.SampleRowLimit,
	}, nil
}

func (p *Postgres) Dialect() string { return "postgresql" }

func (p *Postgres) Close(ctx context.Context) error {
	p.pool.Close()
	return nil
}

// Introspect assembles the schema document from the information_schema
// catalog views.
func (p *Postgres) Introspect(ctx context.Context) (*schema.Document, error) {
	tableNames, err := p.tableNames(ctx)
	if err != nil {
		return nil, &CatalogError{Err: fmt.Errorf("failed to list tables: %w", err)}
	}

	doc := &schema.Document{}
	for _, tableName := range tableNames {
		table, err := p.introspectTable(ctx, tableName)
		if err != nil {
			return nil, &CatalogError{Err: fmt.Errorf("failed to introspect table %s: %w", tableName, err)}
		}
		doc.Tables = append(doc.Tables, *table)
	}

	schema.DeriveRelationships(doc)
	return doc, nil
}

// tableNames lists base tables in the configured namespace, alphabetically,
// excluding system-prefixed names.
func (p *Postgres) tableNames(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
			AND table_type = 'BASE TABLE'
			AND table_name NOT LIKE 'pg\_%'
			AND table_name NOT LIKE 'sql\_%'
		ORDER BY table_name
	`

	rows, err := p.pool.Query(ctx, query, p.schemaName)
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

// introspectTable gathers all catalog information for a single table.
func (p *Postgres) introspectTable(ctx context.Context, tableName string) (*schema.Table, error) {
	table := &schema.Table{Name: tableName}

	columns, err := p.introspectColumns(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	table.Columns = columns

	pk, err := p.introspectPrimaryKey(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to read primary key: %w", err)
	}
	table.PrimaryKey = pk

	fks, err := p.introspectForeignKeys(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to read foreign keys: %w", err)
	}
	table.ForeignKeys = fks

	samples, err := p.sampleRows(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sample rows: %w", err)
	}
	table.SampleRows = samples

	return table, nil
}

// normalizePostgresType maps verbose SQL type names to commonly-used
// PostgreSQL equivalents.
func normalizePostgresType(dataType, udtName string, charMaxLength *int) string {
	switch dataType {
	case "timestamp with time zone":
		return "timestamptz"
	case "timestamp without time zone":
		return "timestamp"
	case "time with time zone":
		return "timetz"
	case "time without time zone":
		return "time"
	case "character varying":
		if charMaxLength != nil {
			return fmt.Sprintf("varchar(%d)", *charMaxLength)
		}
		return varcharType
	case "character":
		if charMaxLength != nil {
			return fmt.Sprintf("char(%d)", *charMaxLength)
		}
		return "char"
	case "ARRAY":
		// udt_name has an underscore prefix for arrays (e.g. "_text")
		if len(udtName) > 0 && udtName[0] == '_' {
			return fmt.Sprintf("%s[]", normalizeUdtName(udtName[1:]))
		}
		return "array"
	case "USER-DEFINED":
		return udtName
	default:
		return dataType
	}
}

// normalizeUdtName converts PostgreSQL internal type names to readable forms
func normalizeUdtName(udtName string) string {
	switch udtName {
	case "int4":
		return "integer"
	case "int8":
		return "bigint"
	case "int2":
		return "smallint"
	case "float4":
		return "real"
	case "float8":
		return "double precision"
	case "bool":
		return "boolean"
	default:
		return udtName
	}
}

func (p *Postgres) introspectColumns(ctx context.Context, tableName string) ([]schema.Column, error) {
	query := `
		SELECT column_name, data_type, is_nullable, udt_name, character_maximum_length
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	rows, err := p.pool.Query(ctx, query, p.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var col schema.Column
		var nullable, dataType, udtName string
		var charMaxLength *int

		if err := rows.Scan(&col.Name, &dataType, &nullable, &udtName, &charMaxLength); err != nil {
			return nil, err
		}

		col.Nullable = nullable == "YES"
		col.Type = normalizePostgresType(dataType, udtName, charMaxLength)
		columns = append(columns, col)
	}

	return columns, rows.Err()
}

func (p *Postgres) introspectPrimaryKey(ctx context.Context, tableName string) ([]string, error) {
	query := `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = $1
			AND table_name = $2
			AND constraint_name IN (
				SELECT constraint_name
				FROM information_schema.table_constraints
				WHERE table_schema = $1
					AND table_name = $2
					AND constraint_type = 'PRIMARY KEY'
			)
		ORDER BY ordinal_position
	`

	rows, err := p.pool.Query(ctx, query, p.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pk []string
	for rows.Next() {
		var colName string
		if err := rows.Scan(&colName); err != nil {
			return nil, err
		}
		pk = append(pk, colName)
	}

	return pk, rows.Err()
}

func (p *Postgres) introspectForeignKeys(ctx context.Context, tableName string) ([]schema.ForeignKey, error) {
	query := `
		SELECT
			kcu.column_name,
			ccu.table_name AS foreign_table_name,
			ccu.column_name AS foreign_column_name
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY kcu.ordinal_position
	`

	rows, err := p.pool.Query(ctx, query, p.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []schema.ForeignKey
	for rows.Next() {
		var fk schema.ForeignKey
		if err := rows.Scan(&fk.Column, &fk.RefTable, &fk.RefColumn); err != nil {
			return nil, err
		}
		fks = append(fks, fk)
	}

	return fks, rows.Err()
}

// sampleRows reads up to the configured number of rows. The table identifier
// cannot be bound as a parameter, so it is validated against the shape of a
// plain identifier and quoted; the name itself came from the catalog.
func (p *Postgres) sampleRows(ctx context.Context, tableName string) ([]map[string]any, error) {
	if !identPattern.MatchString(tableName) {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdent(tableName), p.sampleRowLimit)

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}

		fields := rows.FieldDescriptions()
		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			row[fd.Name] = normalizeValue(values[i])
		}
		samples = append(samples, row)
	}

	return samples, rows.Err()
}

// Execute runs the statement under the query timeout. Cancelling the context
// aborts the query server-side, so a timed-out statement does not keep
// consuming database resources.
func (p *Postgres) Execute(ctx context.Context, query string) (*schema.QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.queryTimeout)
	defer cancel()

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, p.executeErr(ctx, err)
	}
	defer rows.Close()

	result := &schema.QueryResult{Columns: []string{}, Rows: []map[string]any{}}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, p.executeErr(ctx, err)
		}

		fields := rows.FieldDescriptions()
		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			row[fd.Name] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, p.executeErr(ctx, err)
	}

	// Columns mirror the result only when there are rows: an empty result
	// normalizes to empty columns as well.
	if len(result.Rows) > 0 {
		for _, fd := range rows.FieldDescriptions() {
			result.Columns = append(result.Columns, fd.Name)
		}
	}

	return result, nil
}

func (p *Postgres) executeErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Timeout: p.queryTimeout}
	}
	return &ExecutionError{Err: err}
}
