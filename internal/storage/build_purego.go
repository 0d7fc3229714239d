//go:build purego || !sqlite_cgo
// +build purego !sqlite_cgo

package storage

// This file is compiled when building without CGO or with the purego tag.
// It uses a pure Go SQLite implementation.
//
// Build command:
//   CGO_ENABLED=0 go build -tags "purego" ./...
//
// The pure Go implementation provides:
//   - No C compiler required
//   - Cross-platform compilation
//   - Pragmas applied per connection through repeated _pragma parameters
//
// Driver used: modernc.org/sqlite

import (
	"errors"
	"fmt"
	"net/url"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)

// dataSourceName encodes the connection pragmas so every pooled connection
// is configured the same way, not just the first one.
func dataSourceName(path string, opts Options) string {
	q := url.Values{}
	for _, p := range opts.pragmas() {
		q.Add("_pragma", fmt.Sprintf("%s(%s)", p.name, p.value))
	}
	return fileURI(path, q)
}

func resultCode(err error) (int, bool) {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return 0, false
	}
	// Code carries the extended result code; the low byte is the primary one.
	return se.Code() & 0xff, true
}

func isBusy(err error) bool {
	code, ok := resultCode(err)
	return ok && (code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED)
}

func isCorrupt(err error) bool {
	code, ok := resultCode(err)
	return ok && (code == sqlite3.SQLITE_CORRUPT || code == sqlite3.SQLITE_NOTADB)
}
