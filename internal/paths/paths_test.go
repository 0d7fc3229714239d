package paths

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingFS struct {
	OSFS
	mkdirs []string
}

func (f *recordingFS) MkdirAll(path string, perm fs.FileMode) error {
	f.mkdirs = append(f.mkdirs, path)
	return f.OSFS.MkdirAll(path, perm)
}

func fixedDir(dir string) func() (string, error) {
	return func() (string, error) { return dir, nil }
}

func TestResolver_StorePath(t *testing.T) {
	base := t.TempDir()
	rfs := &recordingFS{}
	r := NewResolver(WithFS(rfs), WithConfigDir(fixedDir(base)))

	p, err := r.StorePath("genshin")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, AppName, "db", "genshin.db"), p)

	info, err := os.Stat(filepath.Dir(p))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Len(t, rfs.mkdirs, 1)

	// second call finds the directory
	_, err = r.StorePath("starrail")
	require.NoError(t, err)
	assert.Len(t, rfs.mkdirs, 1)
}

func TestResolver_DataDirOverride(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(WithDataDir(dir), WithConfigDir(func() (string, error) {
		return "", errors.New("should not be called")
	}))

	got, err := r.DataDir()
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	cfg, err := r.ConfigFile()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ConfigFileName), cfg)
}

func TestResolver_NoConfigDir(t *testing.T) {
	r := NewResolver(WithConfigDir(func() (string, error) {
		return "", errors.New("$HOME is not defined")
	}))

	_, err := r.DataDir()
	assert.ErrorIs(t, err, ErrNoDataDir)

	_, err = r.StorePath("genshin")
	assert.ErrorIs(t, err, ErrNoDataDir)
}

func TestResolver_DBDirIsFile(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, AppName), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, AppName, "db"), []byte("x"), 0o644))

	r := NewResolver(WithConfigDir(fixedDir(base)))
	_, err := r.DBDir()
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestValidateGameID(t *testing.T) {
	valid := []string{"genshin", "star-rail", "zzz_2", "Wuwa.global"}
	for _, id := range valid {
		assert.NoError(t, ValidateGameID(id), id)
	}

	invalid := []string{"", ".", "..", "../etc", "a/b", `a\b`, ".hidden", "-flag", "with space"}
	for _, id := range invalid {
		assert.ErrorIs(t, ValidateGameID(id), ErrInvalidGameID, id)
	}
}
