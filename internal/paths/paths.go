// Package paths resolves the tool's own configuration directory and
// discovers the profile roots where editors keep their workspace state.
package paths

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
	"github.com/mitchellh/go-homedir"
)

// AppName names the tool's configuration directory.
const AppName = "wsedit"

// EnvConfigDir overrides the configuration directory.
const EnvConfigDir = "WSEDIT_CONFIG_DIR"

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	dataHome      func() string
	procVersion   string
	wslUsersDir   string
}{
	homeDir:       homedir.Dir,
	userConfigDir: os.UserConfigDir,
	dataHome:      func() string { return xdg.DataHome },
	procVersion:   "/proc/version",
	wslUsersDir:   "/mnt/c/Users",
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/wsedit (fallback ~/.config/wsedit)
// macOS:   ~/Library/Application Support/wsedit
// Windows: %APPDATA%/wsedit
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			return filepath.Join(x, AppName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", AppName), nil
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > WSEDIT_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(p string) (string, error) {
	return homedir.Expand(p)
}
