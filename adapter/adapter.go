// Package adapter maps engine operations onto DuckDB-dialect SQL executed
// against a GizmoSQL server connection.
package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/apache/arrow-adbc/go/adbc"
	"github.com/apache/arrow-go/v18/arrow/array"
	"go.uber.org/zap"

	"github.com/gizmodata/gizmosql-go/logger"
	"github.com/gizmodata/gizmosql-go/metrics"
)

// Conn is the connection surface the adapter needs. *client.Conn satisfies
// it; tests substitute a fake.
type Conn interface {
	Exec(ctx context.Context, sql string) (int64, error)
	Query(ctx context.Context, sql string) (array.RecordReader, adbc.Statement, int64, error)
}

// Adapter executes engine operations over a single connection.
type Adapter struct {
	conn      Conn
	log       *zap.Logger
	collector *metrics.Collector
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithMetrics attaches a statement metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(a *Adapter) {
		a.collector = c
	}
}

// New creates an adapter over an open connection.
func New(conn Conn, opts ...Option) *Adapter {
	a := &Adapter{
		conn: conn,
		log:  logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) record(kind metrics.StatementKind, sql string, start time.Time, affected int64, err error) {
	if a.collector == nil {
		return
	}
	rec := metrics.StatementRecord{
		Kind:         kind,
		SQL:          sql,
		StartTime:    start,
		Duration:     time.Since(start),
		RowsAffected: affected,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	a.collector.Record(rec)
}

// Execute runs a statement that doesn't produce a result set.
func (a *Adapter) Execute(ctx context.Context, sql string) error {
	start := time.Now()
	affected, err := a.conn.Exec(ctx, sql)
	a.record(metrics.Exec, sql, start, affected, err)
	if err != nil {
		return fmt.Errorf("failed to execute statement: %w", err)
	}
	a.log.Debug("executed statement", zap.String("sql", sql), zap.Int64("rows_affected", affected))
	return nil
}

// Fetchall runs a query and materializes every result row.
func (a *Adapter) Fetchall(ctx context.Context, sql string) ([]Row, error) {
	start := time.Now()
	rr, stmt, affected, err := a.conn.Query(ctx, sql)
	a.record(metrics.Query, sql, start, affected, err)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer stmt.Close()
	defer rr.Release()

	return readAll(rr)
}

// Fetchone runs a query and returns the first row, or nil if the result is
// empty.
func (a *Adapter) Fetchone(ctx context.Context, sql string) (Row, error) {
	rows, err := a.Fetchall(ctx, sql)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// --- Catalog operations ---

// CurrentCatalog returns the connection's current catalog.
func (a *Adapter) CurrentCatalog(ctx context.Context) (string, error) {
	row, err := a.Fetchone(ctx, currentCatalogSQL)
	if err != nil {
		return "", err
	}
	if row == nil {
		return "", fmt.Errorf("current catalog query returned no rows")
	}
	name, ok := row[0].(string)
	if !ok {
		return "", fmt.Errorf("unexpected current catalog value %v", row[0])
	}
	return name, nil
}

// SetCurrentCatalog switches the connection to another catalog.
func (a *Adapter) SetCurrentCatalog(ctx context.Context, name string) error {
	return a.Execute(ctx, useSQL(name))
}

// ListCatalogs returns the attached catalog names.
func (a *Adapter) ListCatalogs(ctx context.Context) ([]string, error) {
	sql, err := listCatalogsSQL()
	if err != nil {
		return nil, err
	}
	rows, err := a.Fetchall(ctx, sql)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if name, ok := row[0].(string); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// AttachCatalog attaches a database file as a catalog. An empty path
// attaches an in-memory catalog.
func (a *Adapter) AttachCatalog(ctx context.Context, name, path string) error {
	return a.Execute(ctx, attachSQL(name, path))
}

// DetachCatalog detaches a catalog.
func (a *Adapter) DetachCatalog(ctx context.Context, name string) error {
	return a.Execute(ctx, detachSQL(name))
}

// EnsureDetached detaches a catalog, ignoring errors for catalogs that are
// not attached.
func (a *Adapter) EnsureDetached(ctx context.Context, name string) {
	if err := a.DetachCatalog(ctx, name); err != nil {
		a.log.Debug("detach skipped", zap.String("catalog", name), zap.Error(err))
	}
}

// --- Schema operations ---

// SchemaExists reports whether a schema exists, scoped to its catalog when
// one is named.
func (a *Adapter) SchemaExists(ctx context.Context, schema SchemaName) (bool, error) {
	sql, err := schemaExistsSQL(schema)
	if err != nil {
		return false, err
	}
	row, err := a.Fetchone(ctx, sql)
	if err != nil {
		return false, err
	}
	return row != nil, nil
}

// CreateSchema creates a schema, optionally qualified by catalog.
func (a *Adapter) CreateSchema(ctx context.Context, schema SchemaName) error {
	return a.Execute(ctx, createSchemaSQL(schema, true))
}

// DropSchema drops a schema and, when cascade is set, everything in it.
func (a *Adapter) DropSchema(ctx context.Context, schema SchemaName, cascade bool) error {
	return a.Execute(ctx, dropSchemaSQL(schema, true, cascade))
}

// ensureSchema creates the table's schema in the table's catalog when the
// name carries one. DuckDB requires the schema to exist in that catalog
// before the table can be created there.
func (a *Adapter) ensureSchema(ctx context.Context, t TableName) error {
	if t.Schema == "" {
		return nil
	}
	if err := a.CreateSchema(ctx, t.SchemaName()); err != nil {
		return fmt.Errorf("failed to ensure schema %s: %w", t.SchemaName(), err)
	}
	return nil
}

// --- Table operations ---

// TableExists reports whether the named table exists.
func (a *Adapter) TableExists(ctx context.Context, name string) (bool, error) {
	t, err := ParseTableName(name)
	if err != nil {
		return false, err
	}
	sql, err := tableExistsSQL(t)
	if err != nil {
		return false, err
	}
	row, err := a.Fetchone(ctx, sql)
	if err != nil {
		return false, err
	}
	return row != nil, nil
}

// CreateTable creates a table, auto-creating its schema in the target
// catalog first.
func (a *Adapter) CreateTable(ctx context.Context, name string, columns []Column) error {
	if len(columns) == 0 {
		return fmt.Errorf("cannot create table %s without columns", name)
	}
	t, err := ParseTableName(name)
	if err != nil {
		return err
	}
	if err := a.ensureSchema(ctx, t); err != nil {
		return err
	}
	return a.Execute(ctx, createTableSQL(t, columns, true))
}

// CTAS creates a table from a query, auto-creating its schema in the target
// catalog first. When columns are given, the query output is cast to them.
func (a *Adapter) CTAS(ctx context.Context, name, query string, columns []Column) error {
	t, err := ParseTableName(name)
	if err != nil {
		return err
	}
	if err := a.ensureSchema(ctx, t); err != nil {
		return err
	}
	return a.Execute(ctx, ctasSQL(t, query, columns, true))
}

// DropTable drops a table if it exists.
func (a *Adapter) DropTable(ctx context.Context, name string) error {
	t, err := ParseTableName(name)
	if err != nil {
		return err
	}
	return a.Execute(ctx, "DROP TABLE IF EXISTS "+t.String())
}
