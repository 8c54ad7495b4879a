// Package connection provides the managed-connection capability shared by the
// journal and the executor.
//
// Work is always performed inside a WithConnection scope, which pins a single
// database session for the duration of the callback and releases it
// afterwards. Oracle session state (NLS settings, advisory locks, ALTER
// SESSION statements issued by a script) therefore survives across statements
// of the same scope.
package connection

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

type (
	// Conn is a single database session. It is satisfied by *sql.Conn.
	Conn interface {
		ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
		QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	}

	// Manager hands out managed connections.
	Manager interface {
		WithConnection(ctx context.Context, fn func(context.Context, Conn) error) error
	}

	// TxManager is a Manager that can also scope work to a transaction.
	TxManager interface {
		Manager

		// WithTx runs fn inside a transaction, committing when fn succeeds and
		// rolling back otherwise.
		WithTx(ctx context.Context, fn func(context.Context, Conn) error) error
	}

	// Pool implements Manager on top of a *sql.DB.
	Pool struct {
		db     *sql.DB
		filter func(string) string
	}

	// Option configures a Pool.
	Option func(*Pool)

	filteredConn struct {
		conn   Conn
		filter func(string) string
	}
)

// WithStatementFilter rewrites every SQL text before it is sent to the driver.
func WithStatementFilter(filter func(string) string) Option {
	return func(p *Pool) {
		p.filter = filter
	}
}

// New creates a Pool for db.
func New(db *sql.DB, opts ...Option) *Pool {
	p := &Pool{db: db}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// DB returns the underlying database handle.
func (p *Pool) DB() *sql.DB {
	return p.db
}

// WithConnection acquires a session, runs fn with it and returns it to the
// pool, regardless of fn's outcome.
func (p *Pool) WithConnection(ctx context.Context, fn func(context.Context, Conn) error) error {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to acquire connection")
	}
	defer func() { _ = conn.Close() }()

	return fn(ctx, p.wrap(conn))
}

// WithTx runs fn in a transaction on a single session. The transaction is
// rolled back when fn returns an error and committed otherwise.
//
// Oracle commits implicitly around DDL, so fn should only issue DML.
func (p *Pool) WithTx(ctx context.Context, fn func(context.Context, Conn) error) error {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to acquire connection")
	}
	defer func() { _ = conn.Close() }()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	if err := fn(ctx, p.wrap(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	return errors.Wrap(tx.Commit(), "failed to commit transaction")
}

func (p *Pool) wrap(conn Conn) Conn {
	if p.filter == nil {
		return conn
	}

	return &filteredConn{conn: conn, filter: p.filter}
}

// Close closes the underlying database handle.
func (p *Pool) Close() error {
	return p.db.Close()
}

func (c *filteredConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.conn.ExecContext(ctx, c.filter(query), args...)
}

func (c *filteredConn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.conn.QueryContext(ctx, c.filter(query), args...)
}
