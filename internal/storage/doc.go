// Package storage owns the embedded SQLite stores used by questlog.
//
// A Handle wraps one database file and its bounded connection pool. It is
// the only way the rest of the application reaches a connection.
//
// # Opening
//
//	h, err := storage.Open(ctx, "/home/me/.config/questlog/db/genshin.db", storage.Options{
//	    MaxPoolSize: 4,
//	    BusyTimeout: 5 * time.Second,
//	    JournalMode: storage.JournalModeWAL,
//	    AutoVacuum:  storage.AutoVacuumIncremental,
//	})
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//
// Open creates the file if it is missing but never creates directories.
// It fails with ErrUnreachable when the parent directory is absent or not
// writable. It fails with ErrCorruptFile when an existing file lacks the
// SQLite header or fails PRAGMA quick_check.
// A file locked by another process is retried with exponential backoff
// until the busy timeout elapses.
//
// Only one Handle may be open per file in a process. A second Open on the
// same path fails with ErrUnreachable wrapping ErrAlreadyOpen until the
// first handle is closed.
//
// # Scoped Acquisition
//
// Connections are leased for one logical operation:
//
//	err := h.WithConn(ctx, func(c *storage.Conn) error {
//	    _, err := c.ExecContext(ctx, "INSERT INTO daily (...) VALUES (...)")
//	    return err
//	})
//
// WithConn releases the lease on every exit path. Acquire/Release is
// available for callers that need a lease across several calls.
// Acquire waits up to Options.AcquireTimeout and then fails with
// ErrPoolExhausted. Cancelling the caller's context abandons the wait
// without affecting other waiters.
//
// # Errors
//
// Failures carry a *Error with a Kind (unreachable, corrupt_file,
// pool_exhausted, migration_failed, incompatible). errors.Is matches the
// matching sentinel:
//
//	if errors.Is(err, storage.ErrCorruptFile) {
//	    // offer to move the file aside
//	}
//
// # Build Tags
//
// Pure Go Build (default):
//
//   - Uses modernc.org/sqlite driver
//
//   - No C compiler needed
//
//     CGO_ENABLED=0 go build ./...
//
// CGO Build (sqlite_cgo tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//   - Requires C compiler
//
//     CGO_ENABLED=1 go build -tags "sqlite_cgo" ./...
package storage
