// Package db is a thin, SQL-first layer over database/sql: pooled
// connections, hook dispatch, unified error mapping and transactions. It does
// not generate SQL; repositories own their statements and use the query
// package for dynamic fragments.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Skryldev/jobboard/query"
)

// ─────────────────────────────────────────────────────────────────────────────
// Config
// ─────────────────────────────────────────────────────────────────────────────

// Config holds all options for opening and managing the connection pool.
type Config struct {
	// DSN is the driver-specific data-source name.
	DSN string

	// DriverName is "postgres", "pgx", "mysql" or "sqlite3".
	DriverName string

	// Dialect overrides the dialect of the registered driver. Optional.
	Dialect query.Dialect

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// DefaultTimeout applies to statements whose context has no deadline.
	// Zero disables it.
	DefaultTimeout time.Duration

	// Hooks run around every statement; nil entries are skipped.
	Hooks []Hook
}

// ─────────────────────────────────────────────────────────────────────────────
// DB
// ─────────────────────────────────────────────────────────────────────────────

// DB wraps *sql.DB. It is safe for concurrent use.
type DB struct {
	sqldb   *sql.DB
	cfg     Config
	dialect query.Dialect
	hooks   hookChain
	errMap  ErrorMapper
}

// Open opens the database described by cfg and verifies connectivity with
// Ping. A failed ping is mapped, so IsConnectionFailed can be used on the
// result.
func Open(cfg Config) (*DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("jobboard/db: DSN must not be empty")
	}
	if cfg.DriverName == "" {
		return nil, fmt.Errorf("jobboard/db: DriverName must not be empty")
	}

	errMap := DefaultErrorMapper()
	dialect := cfg.Dialect
	if drv, err := LookupDriver(cfg.DriverName); err == nil {
		drv.Register()
		errMap = ChainMapper(drv.ErrorMapper(), errMap)
		if dialect == nil {
			dialect = drv.Dialect()
		}
	}
	if dialect == nil {
		dialect = query.Postgres
	}

	sqldb, err := sql.Open(cfg.DriverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("jobboard/db: open: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqldb.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	d := &DB{
		sqldb:   sqldb,
		cfg:     cfg,
		dialect: dialect,
		hooks:   newHookChain(cfg.Hooks),
		errMap:  errMap,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("jobboard/db: ping: %w", d.mapErr(err))
	}

	return d, nil
}

// Raw returns the underlying *sql.DB.
func (d *DB) Raw() *sql.DB { return d.sqldb }

// Dialect is the SQL dialect statements must be written in.
func (d *DB) Dialect() query.Dialect { return d.dialect }

// SetErrorMapper replaces the error mapper.
func (d *DB) SetErrorMapper(m ErrorMapper) { d.errMap = m }

// Close closes all pooled connections.
func (d *DB) Close() error { return d.sqldb.Close() }

// Ping verifies that the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()
	return d.mapErr(d.sqldb.PingContext(ctx))
}

// Stats returns pool statistics.
func (d *DB) Stats() sql.DBStats { return d.sqldb.Stats() }

// ─────────────────────────────────────────────────────────────────────────────
// Statement execution
// ─────────────────────────────────────────────────────────────────────────────

// Exec runs a statement that returns no rows.
func (d *DB) Exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()
	start := time.Now()
	d.hooks.Before(ctx, q, args)
	res, err := d.sqldb.ExecContext(ctx, q, args...)
	err = d.mapErr(err)
	d.hooks.After(ctx, q, args, time.Since(start), err)
	return res, err
}

// Query runs a statement returning rows. The caller MUST close the Rows; the
// default timeout, if any, is released on Close.
func (d *DB) Query(ctx context.Context, q string, args ...any) (*Rows, error) {
	ctx, cancel := d.withTimeout(ctx)
	start := time.Now()
	d.hooks.Before(ctx, q, args)
	rows, err := d.sqldb.QueryContext(ctx, q, args...)
	err = d.mapErr(err)
	d.hooks.After(ctx, q, args, time.Since(start), err)
	if err != nil {
		cancel()
		return nil, err
	}
	return &Rows{Rows: rows, cancel: cancel}, nil
}

// QueryRow runs a statement expected to return at most one row. Hooks see
// the outcome when Scan is called; ErrNotFound is returned from Scan when no
// row matched.
func (d *DB) QueryRow(ctx context.Context, q string, args ...any) *Row {
	ctx, cancel := d.withTimeout(ctx)
	start := time.Now()
	d.hooks.Before(ctx, q, args)
	return &Row{
		raw:    d.sqldb.QueryRowContext(ctx, q, args...),
		ctx:    ctx,
		query:  q,
		args:   args,
		start:  start,
		hooks:  d.hooks,
		errMap: d.errMap,
		cancel: cancel,
	}
}

// Prepare creates a prepared statement. The caller must Close it.
func (d *DB) Prepare(ctx context.Context, q string) (*Stmt, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()
	s, err := d.sqldb.PrepareContext(ctx, q)
	if err != nil {
		return nil, d.mapErr(err)
	}
	return &Stmt{stmt: s, query: q, hooks: d.hooks, errMap: d.errMap}, nil
}

func (d *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.cfg.DefaultTimeout == 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.cfg.DefaultTimeout)
}

func (d *DB) mapErr(err error) error {
	if err == nil {
		return nil
	}
	return d.errMap.Map(err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Rows / Row
// ─────────────────────────────────────────────────────────────────────────────

// Rows is *sql.Rows whose Close also releases the statement timeout.
type Rows struct {
	*sql.Rows
	cancel context.CancelFunc
}

// Close closes the result set.
func (r *Rows) Close() error {
	err := r.Rows.Close()
	r.cancel()
	return err
}

// Row wraps *sql.Row, mapping errors and reporting to hooks on Scan.
type Row struct {
	raw    *sql.Row
	ctx    context.Context
	query  string
	args   []any
	start  time.Time
	hooks  hookChain
	errMap ErrorMapper
	cancel context.CancelFunc
}

// Scan copies the matched row into dest. ErrNotFound when nothing matched.
func (r *Row) Scan(dest ...any) error {
	defer r.cancel()
	err := r.errMap.Map(r.raw.Scan(dest...))
	r.hooks.After(r.ctx, r.query, r.args, time.Since(r.start), err)
	return err
}

// ─────────────────────────────────────────────────────────────────────────────
// Stmt
// ─────────────────────────────────────────────────────────────────────────────

// Stmt wraps a prepared *sql.Stmt with hook dispatch and error mapping.
type Stmt struct {
	stmt   *sql.Stmt
	query  string
	hooks  hookChain
	errMap ErrorMapper
}

// Exec executes the prepared statement.
func (s *Stmt) Exec(ctx context.Context, args ...any) (sql.Result, error) {
	start := time.Now()
	s.hooks.Before(ctx, s.query, args)
	res, err := s.stmt.ExecContext(ctx, args...)
	err = s.errMap.Map(err)
	s.hooks.After(ctx, s.query, args, time.Since(start), err)
	return res, err
}

// QueryRow executes the prepared statement expecting one row.
func (s *Stmt) QueryRow(ctx context.Context, args ...any) *Row {
	s.hooks.Before(ctx, s.query, args)
	return &Row{
		raw:    s.stmt.QueryRowContext(ctx, args...),
		ctx:    ctx,
		query:  s.query,
		args:   args,
		start:  time.Now(),
		hooks:  s.hooks,
		errMap: s.errMap,
		cancel: func() {},
	}
}

// Close releases the prepared statement.
func (s *Stmt) Close() error { return s.stmt.Close() }
