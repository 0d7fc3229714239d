package storage

import (
	"errors"
	"fmt"
)

// Kind classifies store failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnreachable
	KindCorruptFile
	KindPoolExhausted
	KindMigrationFailed
	KindIncompatible
)

var (
	// ErrUnreachable is returned when the store path or its directory cannot be used
	ErrUnreachable = errors.New("store unreachable")
	// ErrCorruptFile is returned when an existing file fails the integrity probe
	ErrCorruptFile = errors.New("store file is corrupt")
	// ErrPoolExhausted is returned when no connection frees up before the acquire timeout
	ErrPoolExhausted = errors.New("connection pool exhausted")
	// ErrMigrationFailed is returned when a schema migration aborts
	ErrMigrationFailed = errors.New("migration failed")
	// ErrIncompatible is returned when the store was written by a newer build
	ErrIncompatible = errors.New("store written by an incompatible build")
	// ErrClosed is returned when a closed handle is used
	ErrClosed = errors.New("store is closed")
	// ErrAlreadyOpen is wrapped by ErrUnreachable when the path already has a handle
	ErrAlreadyOpen = errors.New("store already open in this process")
)

func (k Kind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindCorruptFile:
		return "corrupt_file"
	case KindPoolExhausted:
		return "pool_exhausted"
	case KindMigrationFailed:
		return "migration_failed"
	case KindIncompatible:
		return "incompatible"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindUnreachable:
		return ErrUnreachable
	case KindCorruptFile:
		return ErrCorruptFile
	case KindPoolExhausted:
		return ErrPoolExhausted
	case KindMigrationFailed:
		return ErrMigrationFailed
	case KindIncompatible:
		return ErrIncompatible
	default:
		return nil
	}
}

// Error is the typed failure returned by store and migration operations.
// errors.Is matches it against the sentinel for its Kind.
type Error struct {
	Kind    Kind
	Path    string
	Version int // Set for KindMigrationFailed
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.sentinel()
	if msg == nil {
		msg = errors.New("store error")
	}
	if e.Kind == KindMigrationFailed {
		return fmt.Sprintf("%s: %v at version %d: %v", e.Path, msg, e.Version, e.Err)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Path, msg)
	}
	return fmt.Sprintf("%s: %v: %v", e.Path, msg, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// MigrationVersion returns the version carried by a migration failure.
func MigrationVersion(err error) (int, bool) {
	var se *Error
	if errors.As(err, &se) && se.Kind == KindMigrationFailed {
		return se.Version, true
	}
	return 0, false
}

func newError(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}
