package migrate

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/dshills/questlog/internal/storage"
)

var threeSteps = []Migration{
	{Version: 1, Name: "a", Up: "CREATE TABLE a (x INTEGER);", Down: "DROP TABLE a;"},
	{Version: 2, Name: "b", Up: "CREATE TABLE b (x INTEGER);", Down: "DROP TABLE b;"},
	{Version: 3, Name: "c", Up: "CREATE TABLE c (x INTEGER);", Down: "DROP TABLE c;"},
}

// LifecycleTestSuite exercises EnsureReady against real store files
type LifecycleTestSuite struct {
	suite.Suite
	ctx  context.Context
	path string
	h    *storage.Handle
}

func (s *LifecycleTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.path = filepath.Join(s.T().TempDir(), "game.db")
	s.h = s.open()
}

func (s *LifecycleTestSuite) TearDownTest() {
	if s.h != nil {
		_ = s.h.Close()
	}
}

func (s *LifecycleTestSuite) open() *storage.Handle {
	h, err := storage.Open(s.ctx, s.path, storage.Options{})
	s.Require().NoError(err)
	return h
}

func (s *LifecycleTestSuite) reopen() {
	s.Require().NoError(s.h.Close())
	s.h = s.open()
}

func (s *LifecycleTestSuite) manager(opts ...Option) *Manager {
	m, err := New(opts...)
	s.Require().NoError(err)
	return m
}

func (s *LifecycleTestSuite) tableExists(name string) bool {
	var ok bool
	err := s.h.WithConn(s.ctx, func(c *storage.Conn) error {
		var err error
		ok, err = tableExists(s.ctx, c, name)
		return err
	})
	s.Require().NoError(err)
	return ok
}

func (s *LifecycleTestSuite) TestFreshStoreReachesLatest() {
	m := s.manager(WithMigrations(threeSteps))

	s.Equal(Status{State: StateUninitialized}, m.Status(s.h))
	s.Require().NoError(m.EnsureReady(s.ctx, s.h))

	v, err := m.SchemaVersion(s.ctx, s.h)
	s.Require().NoError(err)
	s.Equal(3, v)
	s.Equal(Status{State: StateReady, Version: 3}, m.Status(s.h))
	s.True(s.tableExists("a"))
	s.True(s.tableExists("c"))
}

func (s *LifecycleTestSuite) TestIdempotent() {
	m := s.manager(WithMigrations(threeSteps))
	s.Require().NoError(m.EnsureReady(s.ctx, s.h))

	var applied []string
	err := s.h.WithConn(s.ctx, func(c *storage.Conn) error {
		rows, err := c.QueryContext(s.ctx, "SELECT applied_at FROM schema_version ORDER BY version")
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var at string
			if err := rows.Scan(&at); err != nil {
				return err
			}
			applied = append(applied, at)
		}
		return rows.Err()
	})
	s.Require().NoError(err)

	s.Require().NoError(m.EnsureReady(s.ctx, s.h))
	s.Require().NoError(m.EnsureReady(s.ctx, s.h))

	var count int
	err = s.h.WithConn(s.ctx, func(c *storage.Conn) error {
		return c.QueryRowContext(s.ctx, "SELECT COUNT(*) FROM schema_version").Scan(&count)
	})
	s.Require().NoError(err)
	s.Equal(3, count)
	s.Len(applied, 3)
}

func (s *LifecycleTestSuite) TestReopenKeepsVersion() {
	s.Require().NoError(s.manager(WithMigrations(threeSteps)).EnsureReady(s.ctx, s.h))
	s.reopen()

	// a new process sees the persisted version before doing any work
	m := s.manager(WithMigrations(threeSteps))
	v, err := m.SchemaVersion(s.ctx, s.h)
	s.Require().NoError(err)
	s.Equal(3, v)

	s.Require().NoError(m.EnsureReady(s.ctx, s.h))
	s.Equal(Status{State: StateReady, Version: 3}, m.Status(s.h))
}

func (s *LifecycleTestSuite) TestFailureStopsAtFailingVersion() {
	broken := []Migration{
		threeSteps[0],
		{Version: 2, Name: "broken", Up: "CREATE TABLE half (x INTEGER); CREATE TABLE oops (", Down: "DROP TABLE half;"},
		threeSteps[2],
	}
	m := s.manager(WithMigrations(broken))

	err := m.EnsureReady(s.ctx, s.h)
	s.Require().Error(err)
	s.ErrorIs(err, storage.ErrMigrationFailed)

	v, ok := storage.MigrationVersion(err)
	s.True(ok)
	s.Equal(2, v)

	version, err := m.SchemaVersion(s.ctx, s.h)
	s.Require().NoError(err)
	s.Equal(1, version)
	s.Equal(Status{State: StateUninitialized, Version: 1}, m.Status(s.h))

	s.True(s.tableExists("a"))
	s.False(s.tableExists("half"), "a failed migration must leave no partial effects")
	s.False(s.tableExists("c"), "later migrations must not run after a failure")
}

func (s *LifecycleTestSuite) TestResumesAfterFix() {
	broken := []Migration{
		threeSteps[0],
		{Version: 2, Name: "b", Up: "CREATE TABLE b (", Down: "DROP TABLE b;"},
		threeSteps[2],
	}
	s.Require().Error(s.manager(WithMigrations(broken)).EnsureReady(s.ctx, s.h))

	m := s.manager(WithMigrations(threeSteps))
	s.Require().NoError(m.EnsureReady(s.ctx, s.h))
	v, err := m.SchemaVersion(s.ctx, s.h)
	s.Require().NoError(err)
	s.Equal(3, v)
}

func (s *LifecycleTestSuite) TestExtendedMigrationList() {
	s.Require().NoError(s.manager(WithMigrations(threeSteps[:2])).EnsureReady(s.ctx, s.h))
	s.False(s.tableExists("c"))

	m := s.manager(WithMigrations(threeSteps))
	s.Require().NoError(m.EnsureReady(s.ctx, s.h))
	s.True(s.tableExists("c"))
}

func (s *LifecycleTestSuite) TestNewerSchemaIsIncompatible() {
	s.Require().NoError(s.manager(WithMigrations(threeSteps)).EnsureReady(s.ctx, s.h))

	older := s.manager(WithMigrations(threeSteps[:2]))
	err := older.EnsureReady(s.ctx, s.h)
	s.Require().Error(err)
	s.ErrorIs(err, storage.ErrIncompatible)
	s.Equal(StateUninitialized, older.Status(s.h).State)
}

func (s *LifecycleTestSuite) TestRollback() {
	m := s.manager(WithMigrations(threeSteps))
	s.Require().NoError(m.EnsureReady(s.ctx, s.h))

	v, err := m.Rollback(s.ctx, s.h)
	s.Require().NoError(err)
	s.Equal(2, v)
	s.False(s.tableExists("c"))
	s.Equal(Status{State: StateUninitialized, Version: 2}, m.Status(s.h))

	s.Require().NoError(m.EnsureReady(s.ctx, s.h))
	s.True(s.tableExists("c"))
}

func (s *LifecycleTestSuite) TestRollbackEmptyStore() {
	m := s.manager(WithMigrations(threeSteps))
	_, err := m.Rollback(s.ctx, s.h)
	s.ErrorIs(err, ErrNothingToRollback)
}

func (s *LifecycleTestSuite) TestRollbackIrreversible() {
	m := s.manager(WithMigrations([]Migration{{Version: 1, Name: "a", Up: "CREATE TABLE a (x INTEGER);"}}))
	s.Require().NoError(m.EnsureReady(s.ctx, s.h))

	_, err := m.Rollback(s.ctx, s.h)
	s.ErrorIs(err, ErrIrreversible)
	s.True(s.tableExists("a"))
}

func (s *LifecycleTestSuite) TestTrackerSchema() {
	m := s.manager(WithBuildVersion("1.2.0"))
	s.Require().NoError(m.EnsureReady(s.ctx, s.h))

	for _, table := range []string{"daily", "weekly", "periodic", "event", "other", "currency_history", "store_meta"} {
		s.True(s.tableExists(table), table)
	}

	var build string
	err := s.h.WithConn(s.ctx, func(c *storage.Conn) error {
		return c.QueryRowContext(s.ctx, "SELECT value FROM store_meta WHERE key = ?", buildVersionKey).Scan(&build)
	})
	s.Require().NoError(err)
	s.Equal("1.2.0", build)
}

func (s *LifecycleTestSuite) TestNewerMajorBuildIsIncompatible() {
	s.Require().NoError(s.manager(WithBuildVersion("2.0.0")).EnsureReady(s.ctx, s.h))

	err := s.manager(WithBuildVersion("1.9.0")).EnsureReady(s.ctx, s.h)
	s.Require().Error(err)
	s.ErrorIs(err, storage.ErrIncompatible)

	// an older build of the same major may still write, without downgrading the record
	s.Require().NoError(s.manager(WithBuildVersion("2.0.0-rc.1")).EnsureReady(s.ctx, s.h))
	s.Require().NoError(s.manager(WithBuildVersion("dev")).EnsureReady(s.ctx, s.h))

	recorded, err := s.recordedBuild()
	s.Require().NoError(err)
	s.Equal("2.0.0", recorded)
}

func (s *LifecycleTestSuite) recordedBuild() (string, error) {
	var raw string
	err := s.h.WithConn(s.ctx, func(c *storage.Conn) error {
		v, err := recordedBuild(s.ctx, c)
		if v != nil {
			raw = v.String()
		}
		return err
	})
	return raw, err
}

func (s *LifecycleTestSuite) TestConcurrentEnsureReady() {
	m := s.manager(WithMigrations(threeSteps))

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- m.EnsureReady(s.ctx, s.h)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		s.NoError(err)
	}

	var count int
	err := s.h.WithConn(s.ctx, func(c *storage.Conn) error {
		return c.QueryRowContext(s.ctx, "SELECT COUNT(*) FROM schema_version").Scan(&count)
	})
	s.Require().NoError(err)
	s.Equal(3, count)
}

func (s *LifecycleTestSuite) TestForgetDropsState() {
	m := s.manager(WithMigrations(threeSteps))
	s.Require().NoError(m.EnsureReady(s.ctx, s.h))
	s.Len(m.stores, 1)

	m.Forget(s.h)
	s.Empty(m.stores)
	s.Equal(Status{State: StateUninitialized}, m.Status(s.h))
	s.Empty(m.stores, "Status must not start tracking a store")

	// The schema is untouched; the next EnsureReady learns it again.
	s.Require().NoError(m.EnsureReady(s.ctx, s.h))
	s.Equal(Status{State: StateReady, Version: 3}, m.Status(s.h))
}

func TestLifecycleTestSuite(t *testing.T) {
	suite.Run(t, new(LifecycleTestSuite))
}

func TestNew_ValidatesMigrations(t *testing.T) {
	tests := []struct {
		name       string
		migrations []Migration
		wantErr    bool
	}{
		{"tracker schema", TrackerMigrations, false},
		{"empty", nil, false},
		{"zero version", []Migration{{Version: 0, Up: "SELECT 1"}}, true},
		{"duplicate", []Migration{{Version: 1, Up: "SELECT 1"}, {Version: 1, Up: "SELECT 1"}}, true},
		{"descending", []Migration{{Version: 2, Up: "SELECT 1"}, {Version: 1, Up: "SELECT 1"}}, true},
		{"missing up", []Migration{{Version: 1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(WithMigrations(tt.migrations))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestManager_Latest(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	assert.Equal(t, TrackerMigrations[len(TrackerMigrations)-1].Version, m.Latest())

	empty, err := New(WithMigrations(nil))
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Latest())
}

func TestEnsureReady_ClosedHandle(t *testing.T) {
	ctx := context.Background()
	h, err := storage.Open(ctx, filepath.Join(t.TempDir(), "game.db"), storage.Options{})
	require.NoError(t, err)
	require.NoError(t, h.Close())

	m, err := New()
	require.NoError(t, err)

	err = m.EnsureReady(ctx, h)
	assert.True(t, errors.Is(err, storage.ErrClosed))
	assert.Equal(t, StateUninitialized, m.Status(h).State)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "migrating", StateMigrating.String())
	assert.Equal(t, "ready", StateReady.String())
}
