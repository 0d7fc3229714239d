package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// sqliteHeader is the magic string at offset 0 of every SQLite database file.
var sqliteHeader = []byte("SQLite format 3\x00")

var errNotDatabase = errors.New("file is not a SQLite database")

// checkParent verifies the parent directory exists and accepts new files.
// The directory is never created here; that belongs to the path resolver.
func checkParent(path string) error {
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("parent directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("parent %s is not a directory", dir)
	}

	f, err := os.CreateTemp(dir, ".questlog-write-*")
	if err != nil {
		return fmt.Errorf("parent directory is not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return nil
}

// inspectFile reports whether a database file already exists at path and
// whether it has content. A directory at path is unreachable.
func inspectFile(path string) (exists bool, empty bool, err error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, true, nil
	}
	if err != nil {
		return false, false, err
	}
	if info.IsDir() {
		return false, false, fmt.Errorf("%s is a directory", path)
	}
	return true, info.Size() == 0, nil
}

// checkHeader rejects non-empty files that do not start with the SQLite magic.
func checkHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, len(sqliteHeader))
	if _, err := io.ReadFull(f, buf); err != nil {
		return errNotDatabase
	}
	if !bytes.Equal(buf, sqliteHeader) {
		return errNotDatabase
	}
	return nil
}

// maxIntegrityProblems caps how many quick_check lines reach the error.
const maxIntegrityProblems = 5

// quickCheck runs PRAGMA quick_check and fails unless SQLite reports "ok".
// At most maxIntegrityProblems problems are reported.
func quickCheck(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA quick_check(%d)", maxIntegrityProblems))
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	var problems []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return err
		}
		if line != "ok" && len(problems) < maxIntegrityProblems {
			problems = append(problems, line)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(problems) > 0 {
		return fmt.Errorf("quick_check: %s", strings.Join(problems, "; "))
	}
	return nil
}

// verifyJournalMode confirms SQLite accepted the requested journal mode.
func verifyJournalMode(ctx context.Context, db *sql.DB, want JournalMode) error {
	var got string
	if err := db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&got); err != nil {
		return fmt.Errorf("failed to query journal mode: %w", err)
	}
	if !strings.EqualFold(got, string(want)) {
		return fmt.Errorf("failed to set journal mode to %s: got %s", want, got)
	}
	return nil
}
