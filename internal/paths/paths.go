package paths

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
)

const (
	// AppName is the directory created under the platform config directory
	AppName = "questlog"
	// EnvDataDir overrides the resolved data directory
	EnvDataDir = "QUESTLOG_DATA_DIR"
	// ConfigFileName is the config file looked up in the data directory
	ConfigFileName = "config.toml"

	dbDirName = "db"
	dbExt     = ".db"
)

var (
	ErrNoDataDir     = errors.New("cannot determine data directory")
	ErrInvalidGameID = errors.New("invalid game id")
	ErrNotDirectory  = errors.New("path exists and is not a directory")
)

var gameIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// FS is the filesystem capability the resolver needs
type FS interface {
	Stat(name string) (fs.FileInfo, error)
	MkdirAll(path string, perm fs.FileMode) error
}

// OSFS implements FS on the host filesystem
type OSFS struct{}

func (OSFS) Stat(name string) (fs.FileInfo, error)        { return os.Stat(name) }
func (OSFS) MkdirAll(path string, perm fs.FileMode) error { return os.MkdirAll(path, perm) }

// Resolver maps games to store files under the application data directory:
//
//	<config dir>/questlog/
//	    config.toml
//	    db/<game>.db
type Resolver struct {
	fs        FS
	configDir func() (string, error)
	dataDir   string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFS replaces the host filesystem.
func WithFS(fsys FS) Option {
	return func(r *Resolver) { r.fs = fsys }
}

// WithConfigDir replaces os.UserConfigDir.
func WithConfigDir(fn func() (string, error)) Option {
	return func(r *Resolver) { r.configDir = fn }
}

// WithDataDir uses dir as the data directory instead of the platform default.
// An empty dir is ignored.
func WithDataDir(dir string) Option {
	return func(r *Resolver) { r.dataDir = dir }
}

// NewResolver creates a Resolver over the host filesystem.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		fs:        OSFS{},
		configDir: os.UserConfigDir,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DataDir returns the application data directory without creating it.
func (r *Resolver) DataDir() (string, error) {
	if r.dataDir != "" {
		dir, err := filepath.Abs(r.dataDir)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrNoDataDir, err)
		}
		return dir, nil
	}

	base, err := r.configDir()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoDataDir, err)
	}
	if base == "" {
		return "", ErrNoDataDir
	}
	return filepath.Join(base, AppName), nil
}

// ConfigFile returns the default config file path.
func (r *Resolver) ConfigFile() (string, error) {
	dir, err := r.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// DBDir returns the store directory, creating it if missing.
func (r *Resolver) DBDir() (string, error) {
	dir, err := r.DataDir()
	if err != nil {
		return "", err
	}
	dir = filepath.Join(dir, dbDirName)

	info, err := r.fs.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return "", fmt.Errorf("%w: %s", ErrNotDirectory, dir)
		}
		return dir, nil
	case errors.Is(err, fs.ErrNotExist):
		if err := r.fs.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create database directory: %w", err)
		}
		return dir, nil
	default:
		return "", fmt.Errorf("failed to stat database directory: %w", err)
	}
}

// StorePath returns <data>/db/<gameID>.db, creating the db directory.
func (r *Resolver) StorePath(gameID string) (string, error) {
	if err := ValidateGameID(gameID); err != nil {
		return "", err
	}
	dir, err := r.DBDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, gameID+dbExt), nil
}

// ValidateGameID rejects ids that are not a single safe file name.
func ValidateGameID(id string) error {
	if !gameIDPattern.MatchString(id) || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidGameID, id)
	}
	return nil
}
