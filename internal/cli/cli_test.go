package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/questlog/internal/migrate"
	"github.com/dshills/questlog/internal/opener"
)

// execute runs the root command with fresh flag values and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	configPath, dataDir, gameData, logLevel, logFormat = "", "", "", "", ""
	openDataDir, writeConfig = false, false

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// writeGame creates <dir>/gamedata/<id>/data.json.
func writeGame(t *testing.T, dir, id string) {
	t.Helper()
	gameDir := filepath.Join(dir, "gamedata", id)
	require.NoError(t, os.MkdirAll(gameDir, 0o755))
	data := fmt.Sprintf(`{"id": %q, "regions": [{"id": "eu", "reset_time": "04:00:00"}]}`, id)
	require.NoError(t, os.WriteFile(filepath.Join(gameDir, "data.json"), []byte(data), 0o644))
}

func TestGreetCmd(t *testing.T) {
	out, err := execute(t, "greet", "Traveler")
	require.NoError(t, err)
	assert.Equal(t, "Hello, Traveler! You've been greeted from questlog!\n", out)

	_, err = execute(t, "greet")
	assert.Error(t, err)
}

func TestDatadirCmd(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "datadir", "--data-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, dir+"\n", out)
}

func TestDatadirCmd_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("QUESTLOG_DATA_DIR", dir)

	out, err := execute(t, "datadir")
	require.NoError(t, err)
	assert.Equal(t, dir+"\n", out)
}

type fakeOpener struct {
	opened []string
	err    error
}

func (f *fakeOpener) Open(target string) error {
	f.opened = append(f.opened, target)
	return f.err
}

func TestDatadirCmd_Open(t *testing.T) {
	dir := t.TempDir()
	fake := &fakeOpener{}
	original := newOpener
	newOpener = func(*runtime) opener.Opener { return fake }
	defer func() { newOpener = original }()

	_, err := execute(t, "datadir", "--data-dir", dir, "--open")
	require.NoError(t, err)
	assert.Equal(t, []string{dir}, fake.opened)

	fake.err = opener.ErrNoDisplay
	_, err = execute(t, "datadir", "--data-dir", dir, "--open")
	assert.NoError(t, err)
}

func TestMigrateStatusRollback(t *testing.T) {
	dir := t.TempDir()
	writeGame(t, dir, "genshin")
	writeGame(t, dir, "starrail")
	latest := len(migrate.TrackerMigrations)

	out, err := execute(t, "migrate", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("genshin: schema version %d", latest))
	assert.Contains(t, out, fmt.Sprintf("starrail: schema version %d", latest))

	_, err = os.Stat(filepath.Join(dir, "db", "genshin.db"))
	require.NoError(t, err)

	out, err = execute(t, "rollback", "genshin", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("genshin: schema version %d", latest-1))

	out, err = execute(t, "status", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "GAME")
	assert.Regexp(t, fmt.Sprintf(`genshin\s+%d\s+%d`, latest-1, latest), out)
	assert.Regexp(t, fmt.Sprintf(`starrail\s+%d\s+%d`, latest, latest), out)

	// migrating again brings the rolled back store forward
	out, err = execute(t, "migrate", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("genshin: schema version %d", latest))
}

func TestRollbackCmd_EmptyStore(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "rollback", "genshin", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to roll back")
}

func TestRollbackCmd_InvalidGame(t *testing.T) {
	_, err := execute(t, "rollback", "../escape", "--data-dir", t.TempDir())
	assert.Error(t, err)
}

func TestMigrateCmd_MissingGameData(t *testing.T) {
	out, err := execute(t, "migrate", "--data-dir", t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestConfigCmd_Write(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "config", "--data-dir", dir, "--write")
	require.NoError(t, err)
	assert.Contains(t, out, "parallelism")
	_, err = os.Stat(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)

	_, err = execute(t, "config", "--data-dir", dir, "--write")
	assert.Error(t, err)
}

func TestConfigCmd_RejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("bogus = 1\n"), 0o600))

	_, err := execute(t, "config", "--data-dir", dir)
	assert.Error(t, err)
}
