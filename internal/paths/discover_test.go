package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/wsedit/pkg/types"
)

// fakePlatform points platform detection at dir for the duration of the test.
func fakePlatform(t *testing.T, dir string) {
	t.Helper()
	saved := platformDir
	t.Cleanup(func() { platformDir = saved })

	platformDir.homeDir = func() (string, error) { return filepath.Join(dir, "home"), nil }
	platformDir.userConfigDir = func() (string, error) { return filepath.Join(dir, "config"), nil }
	platformDir.dataHome = func() string { return filepath.Join(dir, "data") }
	platformDir.procVersion = filepath.Join(dir, "proc-version")
	platformDir.wslUsersDir = filepath.Join(dir, "mnt", "c", "Users")
}

func mkdirs(t *testing.T, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(d, 0o755))
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	fakePlatform(t, dir)

	codeRoot := filepath.Join(dir, "config", "Code")
	cursorRoot := filepath.Join(dir, "config", "Cursor")
	extraRoot := filepath.Join(dir, "portable", "data")
	mkdirs(t, codeRoot, cursorRoot, extraRoot)

	zed := types.Profile{Name: types.ZedProfileName, Editor: types.EditorZed}
	got := Discover(DefaultCandidates["linux"], []string{extraRoot, codeRoot, filepath.Join(dir, "missing")}, []types.Profile{zed})

	require.Len(t, got, 4)
	assert.Equal(t, types.Profile{Name: "Code", Editor: types.EditorVSCode, Root: codeRoot}, got[0])
	assert.Equal(t, types.Profile{Name: "Cursor", Editor: types.EditorCursor, Root: cursorRoot}, got[1])
	assert.Equal(t, extraRoot, got[2].Root)
	assert.Equal(t, "data", got[2].Name)
	assert.Equal(t, types.ZedProfileName, got[3].Name)
	assert.True(t, got[3].Pseudo)
}

func TestDiscover_NothingInstalled(t *testing.T) {
	dir := t.TempDir()
	fakePlatform(t, dir)

	zed := types.Profile{Name: types.ZedProfileName, Editor: types.EditorZed}
	got := Discover(DefaultCandidates["linux"], nil, []types.Profile{zed})

	require.Len(t, got, 1)
	assert.True(t, got[0].Pseudo)
}

func TestDiscover_HomeCandidates(t *testing.T) {
	dir := t.TempDir()
	fakePlatform(t, dir)

	flatpak := filepath.Join(dir, "home", ".var", "app", "com.visualstudio.code", "config", "Code")
	mkdirs(t, flatpak)

	got := Discover(DefaultCandidates["linux"], nil, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "Code (flatpak)", got[0].Name)
	assert.Equal(t, flatpak, got[0].Root)
}

func TestIsWSL(t *testing.T) {
	dir := t.TempDir()
	fakePlatform(t, dir)

	assert.False(t, IsWSL(), "missing /proc/version")

	require.NoError(t, os.WriteFile(platformDir.procVersion, []byte("Linux version 6.1.0 (gcc) #1 SMP"), 0o644))
	assert.False(t, IsWSL())

	require.NoError(t, os.WriteFile(platformDir.procVersion, []byte("Linux version 5.15.90.1-microsoft-standard-WSL2"), 0o644))
	assert.True(t, IsWSL())
}

func TestWSLCandidates(t *testing.T) {
	dir := t.TempDir()
	fakePlatform(t, dir)

	alice := filepath.Join(platformDir.wslUsersDir, "alice")
	mkdirs(t, alice, filepath.Join(alice, "AppData", "Roaming", "Code"))
	require.NoError(t, os.WriteFile(filepath.Join(platformDir.wslUsersDir, "desktop.ini"), nil, 0o644))

	cands := WSLCandidates()
	require.Len(t, cands, len(wslProfileDirs))
	assert.Equal(t, "Code (windows:alice)", cands[0].Name)
	assert.Equal(t, BaseAbsolute, cands[0].Base)

	got := Discover(cands, nil, nil)
	require.Len(t, got, 1)
	assert.Equal(t, filepath.Join(alice, "AppData", "Roaming", "Code"), got[0].Root)
}

func TestZedDBDir(t *testing.T) {
	dir := t.TempDir()
	fakePlatform(t, dir)

	name := "zed"
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		name = "Zed"
	}
	assert.Equal(t, filepath.Join(dir, "data", name, "db"), ZedDBDir())
}
