//go:build sqlite_cgo && !purego
// +build sqlite_cgo,!purego

package storage

// This file is compiled when building with CGO and the sqlite_cgo tag.
//
// Build command:
//   CGO_ENABLED=1 go build -tags "sqlite_cgo" ./...
//
// The CGO build provides:
//   - The reference C SQLite implementation
//   - Faster page cache and checkpointing under write-heavy load
//
// Driver used: github.com/mattn/go-sqlite3

import (
	"errors"
	"net/url"
	"strings"

	"github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite3"

	// BuildMode describes the current build configuration
	BuildMode = "cgo"
)

// dataSourceName maps the pragmas onto go-sqlite3's underscore DSN keys,
// which the driver applies to each new connection.
func dataSourceName(path string, opts Options) string {
	q := url.Values{}
	for _, p := range opts.pragmas() {
		q.Set("_"+p.name, strings.ToLower(p.value))
	}
	return fileURI(path, q)
}

func isBusy(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
}

func isCorrupt(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == sqlite3.ErrCorrupt || se.Code == sqlite3.ErrNotADB
}
