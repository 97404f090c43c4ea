package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Skryldev/jobboard/query"
)

// ─────────────────────────────────────────────────────────────────────────────
// Tx
// ─────────────────────────────────────────────────────────────────────────────

// Tx mirrors the DB statement API on top of *sql.Tx so repositories built on
// Querier run unchanged inside a transaction.
type Tx struct {
	sqltx   *sql.Tx
	dialect query.Dialect
	hooks   hookChain
	errMap  ErrorMapper
}

// Raw returns the underlying *sql.Tx.
func (t *Tx) Raw() *sql.Tx { return t.sqltx }

// Dialect is the dialect of the owning DB.
func (t *Tx) Dialect() query.Dialect { return t.dialect }

// Exec executes a statement that does not return rows.
func (t *Tx) Exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	start := time.Now()
	t.hooks.Before(ctx, q, args)
	res, err := t.sqltx.ExecContext(ctx, q, args...)
	err = t.mapErr(err)
	t.hooks.After(ctx, q, args, time.Since(start), err)
	return res, err
}

// Query executes a statement returning rows. The caller MUST close them.
func (t *Tx) Query(ctx context.Context, q string, args ...any) (*Rows, error) {
	start := time.Now()
	t.hooks.Before(ctx, q, args)
	rows, err := t.sqltx.QueryContext(ctx, q, args...)
	err = t.mapErr(err)
	t.hooks.After(ctx, q, args, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return &Rows{Rows: rows, cancel: func() {}}, nil
}

// QueryRow executes a statement expected to return at most one row.
func (t *Tx) QueryRow(ctx context.Context, q string, args ...any) *Row {
	t.hooks.Before(ctx, q, args)
	return &Row{
		raw:    t.sqltx.QueryRowContext(ctx, q, args...),
		ctx:    ctx,
		query:  q,
		args:   args,
		start:  time.Now(),
		hooks:  t.hooks,
		errMap: t.errMap,
		cancel: func() {},
	}
}

// Prepare creates a prepared statement bound to the transaction.
func (t *Tx) Prepare(ctx context.Context, q string) (*Stmt, error) {
	s, err := t.sqltx.PrepareContext(ctx, q)
	if err != nil {
		return nil, t.mapErr(err)
	}
	return &Stmt{stmt: s, query: q, hooks: t.hooks, errMap: t.errMap}, nil
}

func (t *Tx) mapErr(err error) error {
	if err == nil {
		return nil
	}
	return t.errMap.Map(err)
}

// ─────────────────────────────────────────────────────────────────────────────
// ExecTx
// ─────────────────────────────────────────────────────────────────────────────

// TxOptions configures isolation level and read-only mode.
type TxOptions struct {
	Isolation sql.IsolationLevel
	ReadOnly  bool
}

// ExecTx runs fn in a transaction, committing when fn returns nil and rolling
// back on error or panic. Panics are re-raised after the rollback. fn
// receives the transaction's context, which carries DefaultTimeout; its
// statements should use it.
//
//	err := d.ExecTx(ctx, func(ctx context.Context, tx *db.Tx) error {
//	    _, err := repo.NewCompanyRepo(tx).Create(ctx, c)
//	    return err
//	})
func (d *DB) ExecTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error, opts ...TxOptions) (err error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	var sqlOpts *sql.TxOptions
	if len(opts) > 0 {
		sqlOpts = &sql.TxOptions{Isolation: opts[0].Isolation, ReadOnly: opts[0].ReadOnly}
	}

	sqltx, err := d.sqldb.BeginTx(ctx, sqlOpts)
	if err != nil {
		return d.mapErr(err)
	}

	tx := &Tx{sqltx: sqltx, dialect: d.dialect, hooks: d.hooks, errMap: d.errMap}

	defer func() {
		if p := recover(); p != nil {
			_ = sqltx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := sqltx.Rollback(); rbErr != nil {
				err = fmt.Errorf("jobboard/db: rollback failed (%v) after: %w", rbErr, err)
			}
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return d.mapErr(err)
	}
	if err = sqltx.Commit(); err != nil {
		return d.mapErr(err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Querier
// ─────────────────────────────────────────────────────────────────────────────

// Querier is the statement API shared by *DB and *Tx. Repositories accept a
// Querier so they work both standalone and inside ExecTx.
type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	Query(ctx context.Context, query string, args ...any) (*Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) *Row
	Prepare(ctx context.Context, query string) (*Stmt, error)
	Dialect() query.Dialect
}

var (
	_ Querier = (*DB)(nil)
	_ Querier = (*Tx)(nil)
)
