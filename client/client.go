// Package client manages GizmoSQL server connections over Arrow Flight SQL
// using the native Go ADBC driver.
package client

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/apache/arrow-adbc/go/adbc"
	"github.com/apache/arrow-adbc/go/adbc/driver/flightsql"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/gizmodata/gizmosql-go/config"
	"github.com/gizmodata/gizmosql-go/logger"
)

// Options define optional knobs for opening a GizmoSQL database handle.
type Options struct {
	// Context for new database/connection usage
	Context context.Context

	// Alloc is the Arrow allocator used by the driver ("" => default)
	Alloc memory.Allocator
}

// Option is a functional config approach
type Option func(*Options)

// WithContext sets a custom Context for DB usage.
func WithContext(ctx context.Context) Option {
	return func(o *Options) {
		o.Context = ctx
	}
}

// WithAllocator sets the Arrow memory allocator used by the driver.
func WithAllocator(alloc memory.Allocator) Option {
	return func(o *Options) {
		o.Alloc = alloc
	}
}

// DatabaseOptions builds the ADBC option map for the Flight SQL driver from
// a connection config. TLS skip-verify is only passed when encryption is on.
func DatabaseOptions(cfg config.ConnectionConfig) map[string]string {
	opts := map[string]string{
		adbc.OptionKeyURI:      cfg.URI(),
		adbc.OptionKeyUsername: cfg.Username,
		adbc.OptionKeyPassword: cfg.Password,
	}
	if cfg.UseEncryption && cfg.DisableCertificateVerification {
		opts[flightsql.OptionSSLSkipVerify] = adbc.OptionValueEnabled
	}
	return opts
}

// DB is the primary struct managing a GizmoSQL server handle via ADBC.
// Use New(...) to construct.
type DB struct {
	mu     sync.Mutex
	db     adbc.Database
	driver adbc.Driver
	cfg    config.ConnectionConfig
	opts   Options

	conns []*Conn // track open connections
}

// Conn is a wrapper holding an open connection.
type Conn struct {
	parent *DB
	adbc.Connection
}

// New opens a GizmoSQL database handle for the given connection config.
// No network traffic happens until OpenConnection. Example usage:
//
//	cfg := config.NewConnectionConfig()
//	cfg.Username, cfg.Password = "user", "pass"
//	db, err := client.New(cfg)
//	if err != nil { ... }
func New(cfg config.ConnectionConfig, options ...Option) (*DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid connection config: %w", err)
	}

	var opts Options
	for _, opt := range options {
		opt(&opts)
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Alloc == nil {
		opts.Alloc = memory.DefaultAllocator
	}

	driver := flightsql.NewDriver(opts.Alloc)
	db, err := driver.NewDatabase(DatabaseOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("error creating new GizmoSQL database: %w", err)
	}

	return &DB{
		db:     db,
		driver: driver,
		cfg:    cfg,
		opts:   opts,
	}, nil
}

// Config returns the connection config the handle was built from.
func (d *DB) Config() config.ConnectionConfig {
	return d.cfg
}

// OpenConnection opens a new connection to the GizmoSQL server, verifies the
// backend is DuckDB and switches to the configured default catalog, if any.
// When PrePing is set the connection is pinged before being handed out.
// The returned connection should be closed by calling its Close method, or
// you can rely on DB.Close() to automatically close all open connections.
func (d *DB) OpenConnection() (*Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	conn, err := d.db.Open(d.opts.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	c := &Conn{parent: d, Connection: conn}

	if !d.cfg.SkipBackendCheck {
		if err := c.verifyBackend(d.opts.Context); err != nil {
			conn.Close()
			return nil, err
		}
	}
	if d.cfg.Database != "" {
		if _, err := c.Exec(d.opts.Context, "USE "+QuoteIdent(d.cfg.Database)); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to switch to catalog %q: %w", d.cfg.Database, err)
		}
	}
	if d.cfg.PrePing {
		if err := c.Ping(d.opts.Context); err != nil {
			conn.Close()
			return nil, err
		}
	}

	d.conns = append(d.conns, c)
	return c, nil
}

// Close closes the database handle and all open connections. Calling it
// more than once is a no-op.
func (d *DB) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, c := range d.conns {
		c.Connection.Close()
	}
	d.conns = nil

	if d.db != nil {
		d.db.Close()
		d.db = nil
	}
}

// ConnCount returns the current number of open connections.
func (d *DB) ConnCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

// Exec runs a statement that doesn't produce a result set, returning
// the number of rows affected if known, else -1.
func (c *Conn) Exec(ctx context.Context, sql string) (int64, error) {
	stmt, err := c.NewStatement()
	if err != nil {
		return -1, fmt.Errorf("failed to create statement: %w", err)
	}
	defer stmt.Close()

	if err := stmt.SetSqlQuery(sql); err != nil {
		return -1, fmt.Errorf("failed to set SQL query: %w", err)
	}
	affected, err := stmt.ExecuteUpdate(ctx)
	return affected, err
}

// Query runs a SQL query returning (RecordReader, adbc.Statement, rowCount).
// rowCount will be -1 if not known. Caller is responsible for closing the
// returned statement and releasing the RecordReader.
func (c *Conn) Query(ctx context.Context, sql string) (array.RecordReader, adbc.Statement, int64, error) {
	stmt, err := c.NewStatement()
	if err != nil {
		return nil, nil, -1, fmt.Errorf("failed to create statement: %w", err)
	}
	if err := stmt.SetSqlQuery(sql); err != nil {
		stmt.Close()
		return nil, nil, -1, fmt.Errorf("failed to set SQL query: %w", err)
	}

	rr, rowsAffected, err := stmt.ExecuteQuery(ctx)
	if err != nil {
		stmt.Close()
		return nil, nil, -1, err
	}
	return rr, stmt, rowsAffected, nil
}

// Ping verifies the connection is usable by running a trivial query.
func (c *Conn) Ping(ctx context.Context) error {
	rr, stmt, _, err := c.Query(ctx, "SELECT 1")
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	rr.Release()
	return stmt.Close()
}

// VendorVersion reads the server's vendor version string via ADBC GetInfo.
// For GizmoSQL with the DuckDB backend this looks like "duckdb v1.2.0 ...".
func (c *Conn) VendorVersion(ctx context.Context) (string, error) {
	rr, err := c.GetInfo(ctx, []adbc.InfoCode{adbc.InfoVendorVersion})
	if err != nil {
		return "", fmt.Errorf("failed to get server info: %w", err)
	}
	defer rr.Release()

	for rr.Next() {
		rec := rr.Record()
		names, ok := rec.Column(0).(*array.Uint32)
		if !ok {
			continue
		}
		values, ok := rec.Column(1).(*array.DenseUnion)
		if !ok {
			continue
		}
		for i := 0; i < int(rec.NumRows()); i++ {
			if adbc.InfoCode(names.Value(i)) != adbc.InfoVendorVersion {
				continue
			}
			child := values.Field(values.ChildID(i))
			str, ok := child.(*array.String)
			if !ok {
				continue
			}
			return str.Value(int(values.ValueOffset(i))), nil
		}
	}
	if err := rr.Err(); err != nil {
		return "", fmt.Errorf("failed to read server info: %w", err)
	}
	return "", nil
}

// supportedBackend reports whether a vendor version string identifies a
// DuckDB engine, e.g. "duckdb v1.2.0".
func supportedBackend(vendor string) bool {
	return vendor == "duckdb" || strings.HasPrefix(vendor, "duckdb ")
}

// verifyBackend rejects servers that are not running the DuckDB engine.
// The adapter's dialect and catalog handling are DuckDB-specific.
func (c *Conn) verifyBackend(ctx context.Context) error {
	vendor, err := c.VendorVersion(ctx)
	if err != nil {
		return err
	}
	if !supportedBackend(vendor) {
		return fmt.Errorf("unsupported GizmoSQL server backend %q: only the DuckDB backend is supported", vendor)
	}
	logger.GetLogger().Debug("verified GizmoSQL backend", zap.String("vendor_version", vendor))
	return nil
}

// Close closes the connection, removing it from the parent DB's tracking.
func (c *Conn) Close() {
	if c.parent == nil {
		c.Connection.Close()
		return
	}
	c.parent.mu.Lock()
	defer c.parent.mu.Unlock()

	for i, conn := range c.parent.conns {
		if conn == c {
			c.parent.conns[i] = c.parent.conns[len(c.parent.conns)-1]
			c.parent.conns = c.parent.conns[:len(c.parent.conns)-1]
			break
		}
	}
	c.Connection.Close()
	c.parent = nil
}

// QuoteIdent quotes a single identifier in DuckDB dialect.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
