package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errIntegrity = errors.New("integrity check failed")

// Handle owns one open SQLite database and its bounded connection pool.
// It is the only sanctioned way to obtain a connection to the store.
type Handle struct {
	path   string
	opts   Options
	db     *sql.DB
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
}

// Stats is a snapshot of the pool bookkeeping.
type Stats struct {
	Path         string
	MaxPoolSize  int
	Open         int
	InUse        int
	Idle         int
	WaitCount    int64
	WaitDuration time.Duration
	Closed       bool
}

// Open opens the database at path, creating the file if it is missing.
// The parent directory must already exist and be writable.
func Open(ctx context.Context, path string, opts Options) (*Handle, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store options: %w", err)
	}
	if path == "" {
		return nil, newError(KindUnreachable, path, errors.New("empty path"))
	}

	key, err := canonicalPath(path)
	if err != nil {
		return nil, newError(KindUnreachable, path, err)
	}
	if err := checkParent(key); err != nil {
		return nil, newError(KindUnreachable, key, err)
	}

	exists, empty, err := inspectFile(key)
	if err != nil {
		return nil, newError(KindUnreachable, key, err)
	}
	existing := exists && !empty
	if existing {
		if err := checkHeader(key); err != nil {
			return nil, newError(KindCorruptFile, key, err)
		}
	}

	if !claimPath(key) {
		return nil, newError(KindUnreachable, key, ErrAlreadyOpen)
	}

	db, err := sql.Open(DriverName, dataSourceName(key, opts))
	if err != nil {
		releasePath(key)
		return nil, newError(KindUnreachable, key, err)
	}

	db.SetMaxOpenConns(opts.MaxPoolSize)
	db.SetMaxIdleConns(opts.MaxPoolSize)
	db.SetConnMaxIdleTime(opts.IdleTimeout)
	db.SetConnMaxLifetime(0)

	h := &Handle{
		path:   key,
		opts:   opts,
		db:     db,
		logger: opts.Logger.Named("storage").With(zap.String("path", key)),
	}

	if err := h.probe(ctx, existing); err != nil {
		_ = db.Close()
		releasePath(key)
		return nil, err
	}

	h.logger.Info("store opened",
		zap.Bool("created", !existing),
		zap.Int("max_pool_size", opts.MaxPoolSize),
		zap.String("journal_mode", string(opts.JournalMode)),
		zap.String("auto_vacuum", string(opts.AutoVacuum)),
		zap.Duration("busy_timeout", opts.BusyTimeout))
	return h, nil
}

// probe verifies the store is usable. A database locked by another process
// is retried with exponential backoff; every other failure is final.
func (h *Handle) probe(ctx context.Context, existing bool) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := h.probeOnce(ctx, existing)
		if err == nil {
			return struct{}{}, nil
		}
		if isBusy(err) {
			h.logger.Debug("store locked during open, retrying", zap.Error(err))
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	}, backoff.WithBackOff(b), backoff.WithMaxElapsedTime(h.opts.BusyTimeout+time.Second))
	if err == nil {
		return nil
	}

	if isCorrupt(err) || errors.Is(err, errIntegrity) {
		return newError(KindCorruptFile, h.path, err)
	}
	return newError(KindUnreachable, h.path, err)
}

func (h *Handle) probeOnce(ctx context.Context, existing bool) error {
	if err := h.db.PingContext(ctx); err != nil {
		return err
	}
	if existing {
		if err := quickCheck(ctx, h.db); err != nil {
			if isBusy(err) || isCorrupt(err) {
				return err
			}
			return fmt.Errorf("%w: %w", errIntegrity, err)
		}
	}
	return verifyJournalMode(ctx, h.db, h.opts.JournalMode)
}

// Path returns the canonical database file path.
func (h *Handle) Path() string {
	return h.path
}

// Options returns the effective options, defaults included.
func (h *Handle) Options() Options {
	return h.opts
}

// Acquire leases a connection, waiting up to AcquireTimeout for one to free
// up. If ctx ends first its error is returned; other waiters are unaffected.
func (h *Handle) Acquire(ctx context.Context) (*Conn, error) {
	if h.isClosed() {
		return nil, ErrClosed
	}

	waitCtx, cancel := context.WithTimeout(ctx, h.opts.AcquireTimeout)
	defer cancel()

	start := time.Now()
	sc, err := h.db.Conn(waitCtx)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case errors.Is(err, context.DeadlineExceeded):
			h.logger.Warn("connection pool exhausted",
				zap.Duration("waited", time.Since(start)),
				zap.Int("max_pool_size", h.opts.MaxPoolSize))
			return nil, newError(KindPoolExhausted, h.path, err)
		case h.isClosed():
			return nil, ErrClosed
		default:
			return nil, fmt.Errorf("failed to acquire connection: %w", err)
		}
	}

	c := &Conn{
		id:         uuid.NewString(),
		conn:       sc,
		acquiredAt: time.Now(),
		logger:     h.logger,
	}
	h.logger.Debug("connection acquired",
		zap.String("lease", c.id),
		zap.Duration("waited", c.acquiredAt.Sub(start)))
	return c, nil
}

// WithConn runs fn with a leased connection and releases it on every exit
// path, including a panic in fn.
func (h *Handle) WithConn(ctx context.Context, fn func(*Conn) error) (err error) {
	c, err := h.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := c.Release(); rerr != nil && err == nil {
			err = fmt.Errorf("failed to release connection: %w", rerr)
		}
	}()
	return fn(c)
}

// Stats returns a snapshot of the pool.
func (h *Handle) Stats() Stats {
	s := h.db.Stats()
	return Stats{
		Path:         h.path,
		MaxPoolSize:  s.MaxOpenConnections,
		Open:         s.OpenConnections,
		InUse:        s.InUse,
		Idle:         s.Idle,
		WaitCount:    s.WaitCount,
		WaitDuration: s.WaitDuration,
		Closed:       h.isClosed(),
	}
}

// Close releases every pooled connection and frees the path for a later
// Open. Calling it again has no effect.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	err := h.db.Close()
	releasePath(h.path)
	if err != nil {
		h.logger.Warn("store closed with error", zap.Error(err))
		return fmt.Errorf("failed to close store: %w", err)
	}
	h.logger.Info("store closed")
	return nil
}

func (h *Handle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
