package storage

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// JournalMode specifies the SQLite journaling mode.
type JournalMode string

const (
	JournalModeWAL      JournalMode = "WAL"
	JournalModeDelete   JournalMode = "DELETE"
	JournalModeTruncate JournalMode = "TRUNCATE"
	JournalModePersist  JournalMode = "PERSIST"
	JournalModeMemory   JournalMode = "MEMORY"
	JournalModeOff      JournalMode = "OFF"
)

// AutoVacuum specifies the SQLite auto-vacuum mode. It only takes effect
// on a database that has no tables yet.
type AutoVacuum string

const (
	AutoVacuumNone        AutoVacuum = "NONE"
	AutoVacuumFull        AutoVacuum = "FULL"
	AutoVacuumIncremental AutoVacuum = "INCREMENTAL"
)

// Defaults used when an Options field is left zero.
const (
	DefaultMaxPoolSize    = 4
	DefaultBusyTimeout    = 5 * time.Second
	DefaultIdleTimeout    = 5 * time.Minute
	DefaultAcquireTimeout = 10 * time.Second
)

// Options configures a Handle.
type Options struct {
	MaxPoolSize    int           // Upper bound on open connections (>= 1)
	BusyTimeout    time.Duration // How long SQLite waits on a locked database
	IdleTimeout    time.Duration // Idle connections older than this are closed
	AcquireTimeout time.Duration // How long Acquire waits for a free connection
	JournalMode    JournalMode
	AutoVacuum     AutoVacuum
	Logger         *zap.Logger
}

// DefaultOptions returns the options used for tracker stores.
func DefaultOptions() Options {
	return Options{
		MaxPoolSize:    DefaultMaxPoolSize,
		BusyTimeout:    DefaultBusyTimeout,
		IdleTimeout:    DefaultIdleTimeout,
		AcquireTimeout: DefaultAcquireTimeout,
		JournalMode:    JournalModeWAL,
		AutoVacuum:     AutoVacuumIncremental,
	}
}

// ParseJournalMode parses a journal mode name, case-insensitively.
func ParseJournalMode(s string) (JournalMode, error) {
	m := JournalMode(strings.ToUpper(strings.TrimSpace(s)))
	switch m {
	case JournalModeWAL, JournalModeDelete, JournalModeTruncate,
		JournalModePersist, JournalModeMemory, JournalModeOff:
		return m, nil
	}
	return "", fmt.Errorf("invalid journal mode %q", s)
}

// ParseAutoVacuum parses an auto-vacuum mode name, case-insensitively.
func ParseAutoVacuum(s string) (AutoVacuum, error) {
	v := AutoVacuum(strings.ToUpper(strings.TrimSpace(s)))
	switch v {
	case AutoVacuumNone, AutoVacuumFull, AutoVacuumIncremental:
		return v, nil
	}
	return "", fmt.Errorf("invalid auto_vacuum mode %q", s)
}

// withDefaults fills zero fields. Explicit invalid values are left alone so
// Validate can report them.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxPoolSize == 0 {
		o.MaxPoolSize = d.MaxPoolSize
	}
	if o.BusyTimeout == 0 {
		o.BusyTimeout = d.BusyTimeout
	}
	if o.IdleTimeout == 0 {
		o.IdleTimeout = d.IdleTimeout
	}
	if o.AcquireTimeout == 0 {
		o.AcquireTimeout = d.AcquireTimeout
	}
	if o.JournalMode == "" {
		o.JournalMode = d.JournalMode
	}
	if o.AutoVacuum == "" {
		o.AutoVacuum = d.AutoVacuum
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Validate reports the first invalid option.
func (o Options) Validate() error {
	if o.MaxPoolSize < 1 {
		return fmt.Errorf("max pool size must be >= 1, got %d", o.MaxPoolSize)
	}
	if o.BusyTimeout < 0 {
		return fmt.Errorf("busy timeout must not be negative, got %s", o.BusyTimeout)
	}
	if o.IdleTimeout < 0 {
		return fmt.Errorf("idle timeout must not be negative, got %s", o.IdleTimeout)
	}
	if o.AcquireTimeout <= 0 {
		return fmt.Errorf("acquire timeout must be positive, got %s", o.AcquireTimeout)
	}
	if _, err := ParseJournalMode(string(o.JournalMode)); err != nil {
		return err
	}
	if _, err := ParseAutoVacuum(string(o.AutoVacuum)); err != nil {
		return err
	}
	return nil
}

type pragma struct {
	name  string
	value string
}

// pragmas lists the per-connection settings in application order.
// auto_vacuum goes first because it must be set before any table exists.
func (o Options) pragmas() []pragma {
	return []pragma{
		{"auto_vacuum", string(o.AutoVacuum)},
		{"journal_mode", string(o.JournalMode)},
		{"busy_timeout", strconv.FormatInt(o.BusyTimeout.Milliseconds(), 10)},
		{"foreign_keys", "1"},
	}
}

// fileURI builds a SQLite URI filename for path. The path is percent-encoded
// so characters such as '?' and '#' stay part of the file name instead of
// starting the query.
func fileURI(path string, query url.Values) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		// Windows volume paths become file:///C:/...
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p, RawQuery: query.Encode()}
	return u.String()
}
