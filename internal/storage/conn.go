package storage

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Conn is a connection leased exclusively from a Handle's pool.
// It must be released exactly once; extra Release calls are no-ops.
type Conn struct {
	id         string
	conn       *sql.Conn
	acquiredAt time.Time
	logger     *zap.Logger

	once sync.Once
	err  error
}

// ID identifies this lease in logs.
func (c *Conn) ID() string {
	return c.id
}

// ExecContext executes a statement on the leased connection.
func (c *Conn) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return c.conn.ExecContext(ctx, query, args...)
}

// QueryContext runs a query on the leased connection.
func (c *Conn) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return c.conn.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query on the leased connection.
func (c *Conn) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return c.conn.QueryRowContext(ctx, query, args...)
}

// BeginTx starts a transaction bound to the leased connection.
func (c *Conn) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return c.conn.BeginTx(ctx, opts)
}

// Release returns the connection to the pool.
func (c *Conn) Release() error {
	c.once.Do(func() {
		c.err = c.conn.Close()
		c.logger.Debug("connection released",
			zap.String("lease", c.id),
			zap.Duration("held", time.Since(c.acquiredAt)))
	})
	return c.err
}
