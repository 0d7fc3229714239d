package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/dshills/questlog/internal/storage"
)

var (
	// ErrNothingToRollback is returned by Rollback on a store at version 0
	ErrNothingToRollback = errors.New("no migrations to roll back")
	// ErrIrreversible is returned by Rollback when the newest migration has no Down script
	ErrIrreversible = errors.New("migration has no down script")
)

// State is the lifecycle state of one store as seen by a Manager.
type State int

const (
	StateUninitialized State = iota
	StateMigrating
	StateReady
)

func (s State) String() string {
	switch s {
	case StateMigrating:
		return "migrating"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// Status reports a store's state. Version is the migration in flight while
// Migrating, otherwise the last committed schema version.
type Status struct {
	State   State
	Version int
}

// querier is the subset of *storage.Conn and *sql.Tx the manager needs
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Manager applies first-run initialization and schema evolution to stores.
// One Manager may serve many stores; work on the same store is serialized.
type Manager struct {
	migrations []Migration
	build      *semver.Version
	buildRaw   string
	logger     *zap.Logger

	mu     sync.Mutex
	stores map[string]*storeState
}

type storeState struct {
	run    sync.Mutex // held for the duration of EnsureReady or Rollback
	status Status
}

// Option configures a Manager.
type Option func(*Manager)

// WithMigrations replaces the tracker schema with a custom migration list.
func WithMigrations(migrations []Migration) Option {
	return func(m *Manager) {
		m.migrations = migrations
	}
}

// WithBuildVersion sets the running build version used by the
// compatibility guard. Non-semver values such as "dev" disable the guard.
func WithBuildVersion(version string) Option {
	return func(m *Manager) {
		m.buildRaw = version
		if v, err := semver.NewVersion(version); err == nil {
			m.build = v
		} else {
			m.build = nil
		}
	}
}

// WithLogger sets the manager's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// New creates a Manager. It fails if the migration list is not strictly
// increasing or contains an empty Up script.
func New(opts ...Option) (*Manager, error) {
	m := &Manager{
		migrations: TrackerMigrations,
		logger:     zap.NewNop(),
		stores:     make(map[string]*storeState),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.Named("migrate")

	if err := validate(m.migrations); err != nil {
		return nil, err
	}
	return m, nil
}

func validate(migrations []Migration) error {
	prev := 0
	for _, mig := range migrations {
		if mig.Version <= prev {
			return fmt.Errorf("migration %d is out of order (previous %d)", mig.Version, prev)
		}
		if mig.Up == "" {
			return fmt.Errorf("migration %d has no up script", mig.Version)
		}
		prev = mig.Version
	}
	return nil
}

// Latest returns the newest migration version the manager knows.
func (m *Manager) Latest() int {
	if len(m.migrations) == 0 {
		return 0
	}
	return m.migrations[len(m.migrations)-1].Version
}

// Status returns the lifecycle state of the store behind h. A store the
// manager has not seen, or has forgotten, is Uninitialized.
func (m *Manager) Status(h *storage.Handle) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stores[h.Path()]
	if !ok {
		return Status{}
	}
	return st.status
}

// Forget drops the state kept for the store behind h. Call it when the
// handle is closed.
func (m *Manager) Forget(h *storage.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, h.Path())
}

func (m *Manager) storeFor(path string) *storeState {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stores[path]
	if !ok {
		st = &storeState{}
		m.stores[path] = st
	}
	return st
}

func (m *Manager) setStatus(st *storeState, state State, version int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st.status = Status{State: state, Version: version}
}

// EnsureReady brings the store up to the newest migration. Each pending
// migration commits in its own transaction together with its version row.
// On the first failure it returns a storage.Error of kind MigrationFailed
// carrying that version; the store stays at the previous version.
// Calling it again on a ready store applies nothing.
func (m *Manager) EnsureReady(ctx context.Context, h *storage.Handle) error {
	st := m.storeFor(h.Path())
	st.run.Lock()
	defer st.run.Unlock()

	logger := m.logger.With(zap.String("path", h.Path()))

	return h.WithConn(ctx, func(c *storage.Conn) error {
		if _, err := c.ExecContext(ctx, schemaVersionTable); err != nil {
			return fmt.Errorf("failed to create schema_version table: %w", err)
		}

		current, err := currentVersion(ctx, c)
		if err != nil {
			return err
		}

		if current > m.Latest() {
			m.setStatus(st, StateUninitialized, current)
			return &storage.Error{
				Kind: storage.KindIncompatible,
				Path: h.Path(),
				Err:  fmt.Errorf("schema version %d is newer than latest known migration %d", current, m.Latest()),
			}
		}

		if err := m.checkBuild(ctx, c, h.Path()); err != nil {
			m.setStatus(st, StateUninitialized, current)
			return err
		}

		applied := 0
		for _, mig := range m.migrations {
			if mig.Version <= current {
				continue
			}

			m.setStatus(st, StateMigrating, mig.Version)
			logger.Info("applying migration",
				zap.Int("version", mig.Version),
				zap.String("name", mig.Name))

			if err := applyMigration(ctx, c, mig); err != nil {
				m.setStatus(st, StateUninitialized, current)
				logger.Error("migration failed",
					zap.Int("version", mig.Version),
					zap.Int("schema_version", current),
					zap.Error(err))
				return &storage.Error{
					Kind:    storage.KindMigrationFailed,
					Path:    h.Path(),
					Version: mig.Version,
					Err:     err,
				}
			}
			current = mig.Version
			applied++
		}

		if err := m.recordBuild(ctx, c); err != nil {
			m.setStatus(st, StateUninitialized, current)
			return err
		}

		m.setStatus(st, StateReady, current)
		if applied > 0 {
			logger.Info("store ready", zap.Int("schema_version", current), zap.Int("applied", applied))
		} else {
			logger.Debug("store already up to date", zap.Int("schema_version", current))
		}
		return nil
	})
}

// applyMigration runs one migration and records it atomically. A migration
// recorded by someone else since the version was read is skipped.
func applyMigration(ctx context.Context, c *storage.Conn, mig Migration) (err error) {
	tx, err := c.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var recorded int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_version WHERE version = ?", mig.Version).Scan(&recorded)
	if err != nil {
		return fmt.Errorf("failed to read schema_version: %w", err)
	}
	if recorded > 0 {
		return tx.Commit()
	}

	if _, err = tx.ExecContext(ctx, mig.Up); err != nil {
		return fmt.Errorf("failed to apply migration %d: %w", mig.Version, err)
	}
	if _, err = tx.ExecContext(ctx, "INSERT INTO schema_version (version, name) VALUES (?, ?)", mig.Version, mig.Name); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", mig.Version, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", mig.Version, err)
	}
	return nil
}

// SchemaVersion returns the store's current schema version, 0 if it has
// never been migrated.
func (m *Manager) SchemaVersion(ctx context.Context, h *storage.Handle) (int, error) {
	var version int
	err := h.WithConn(ctx, func(c *storage.Conn) error {
		ok, err := tableExists(ctx, c, "schema_version")
		if err != nil || !ok {
			return err
		}
		version, err = currentVersion(ctx, c)
		return err
	})
	return version, err
}

// Rollback reverts the newest applied migration with its Down script and
// returns the resulting schema version. The store is left Uninitialized.
func (m *Manager) Rollback(ctx context.Context, h *storage.Handle) (int, error) {
	st := m.storeFor(h.Path())
	st.run.Lock()
	defer st.run.Unlock()

	var version int
	err := h.WithConn(ctx, func(c *storage.Conn) error {
		ok, err := tableExists(ctx, c, "schema_version")
		if err != nil {
			return err
		}
		if !ok {
			return ErrNothingToRollback
		}

		current, err := currentVersion(ctx, c)
		if err != nil {
			return err
		}
		if current == 0 {
			return ErrNothingToRollback
		}

		mig, found := m.find(current)
		if !found {
			return fmt.Errorf("migration %d not found", current)
		}
		if mig.Down == "" {
			return fmt.Errorf("migration %d: %w", current, ErrIrreversible)
		}

		if err := revertMigration(ctx, c, mig); err != nil {
			return err
		}

		version, err = currentVersion(ctx, c)
		if err != nil {
			return err
		}
		m.setStatus(st, StateUninitialized, version)
		m.logger.Info("migration rolled back",
			zap.String("path", h.Path()),
			zap.Int("version", mig.Version),
			zap.Int("schema_version", version))
		return nil
	})
	return version, err
}

func revertMigration(ctx context.Context, c *storage.Conn, mig Migration) (err error) {
	tx, err := c.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, mig.Down); err != nil {
		return fmt.Errorf("failed to rollback migration %d: %w", mig.Version, err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM schema_version WHERE version = ?", mig.Version); err != nil {
		return fmt.Errorf("failed to remove migration record %d: %w", mig.Version, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rollback of %d: %w", mig.Version, err)
	}
	return nil
}

func (m *Manager) find(version int) (Migration, bool) {
	for _, mig := range m.migrations {
		if mig.Version == version {
			return mig, true
		}
	}
	return Migration{}, false
}

func currentVersion(ctx context.Context, q querier) (int, error) {
	var version int
	err := q.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema_version: %w", err)
	}
	return version, nil
}

func tableExists(ctx context.Context, q querier, name string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check %s table: %w", name, err)
	}
	return count > 0, nil
}
