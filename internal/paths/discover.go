package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mesh-intelligence/wsedit/pkg/types"
)

// Base selects the directory a Candidate's Rel is resolved against.
type Base int

const (
	// BaseConfig is the OS user config dir: ~/.config on Linux,
	// ~/Library/Application Support on macOS, %APPDATA% on Windows.
	BaseConfig Base = iota
	// BaseHome is the user's home directory.
	BaseHome
	// BaseAbsolute means Rel is already absolute.
	BaseAbsolute
)

// Candidate is a conventional profile root for one editor variant.
type Candidate struct {
	Name   string
	Editor string
	Base   Base
	Rel    string
}

// DefaultCandidates lists conventional profile roots per GOOS in priority
// order. Callers may extend it; discovery never hard-codes locations.
var DefaultCandidates = map[string][]Candidate{
	"linux": {
		{Name: "Code", Editor: types.EditorVSCode, Base: BaseConfig, Rel: "Code"},
		{Name: "Code - Insiders", Editor: types.EditorVSCodeInsiders, Base: BaseConfig, Rel: "Code - Insiders"},
		{Name: "VSCodium", Editor: types.EditorVSCodium, Base: BaseConfig, Rel: "VSCodium"},
		{Name: "Code - OSS", Editor: types.EditorCodeOSS, Base: BaseConfig, Rel: "Code - OSS"},
		{Name: "Cursor", Editor: types.EditorCursor, Base: BaseConfig, Rel: "Cursor"},
		{Name: "Code (flatpak)", Editor: types.EditorVSCode, Base: BaseHome, Rel: ".var/app/com.visualstudio.code/config/Code"},
		{Name: "VSCodium (flatpak)", Editor: types.EditorVSCodium, Base: BaseHome, Rel: ".var/app/com.vscodium.codium/config/VSCodium"},
		{Name: "Code (snap)", Editor: types.EditorVSCode, Base: BaseHome, Rel: "snap/code/current/.config/Code"},
	},
	"darwin": {
		{Name: "Code", Editor: types.EditorVSCode, Base: BaseConfig, Rel: "Code"},
		{Name: "Code - Insiders", Editor: types.EditorVSCodeInsiders, Base: BaseConfig, Rel: "Code - Insiders"},
		{Name: "VSCodium", Editor: types.EditorVSCodium, Base: BaseConfig, Rel: "VSCodium"},
		{Name: "Code - OSS", Editor: types.EditorCodeOSS, Base: BaseConfig, Rel: "Code - OSS"},
		{Name: "Cursor", Editor: types.EditorCursor, Base: BaseConfig, Rel: "Cursor"},
	},
	"windows": {
		{Name: "Code", Editor: types.EditorVSCode, Base: BaseConfig, Rel: "Code"},
		{Name: "Code - Insiders", Editor: types.EditorVSCodeInsiders, Base: BaseConfig, Rel: "Code - Insiders"},
		{Name: "VSCodium", Editor: types.EditorVSCodium, Base: BaseConfig, Rel: "VSCodium"},
		{Name: "Cursor", Editor: types.EditorCursor, Base: BaseConfig, Rel: "Cursor"},
	},
}

// wslProfileDirs are the Windows-side roots searched for each user under
// /mnt/c/Users when running inside WSL.
var wslProfileDirs = []Candidate{
	{Name: "Code", Editor: types.EditorVSCode, Rel: "AppData/Roaming/Code"},
	{Name: "Code - Insiders", Editor: types.EditorVSCodeInsiders, Rel: "AppData/Roaming/Code - Insiders"},
	{Name: "Cursor", Editor: types.EditorCursor, Rel: "AppData/Roaming/Cursor"},
}

// CandidatesFor returns the default candidates for goos, plus the Windows
// profiles reachable through /mnt/c when running under WSL.
func CandidatesFor(goos string) []Candidate {
	out := append([]Candidate(nil), DefaultCandidates[goos]...)
	if goos == "linux" && IsWSL() {
		out = append(out, WSLCandidates()...)
	}
	return out
}

// Discover resolves candidates and extra roots, keeps those that exist as
// directories, and appends pseudo without any existence check. Order is
// candidates, then extra roots, then pseudo-profiles. Unresolvable
// candidates are skipped; discovery never fails.
func Discover(candidates []Candidate, extraRoots []string, pseudo []types.Profile) []types.Profile {
	var profiles []types.Profile
	seen := make(map[string]bool)

	add := func(name, editor, root string) {
		root = filepath.Clean(root)
		if seen[root] || !isDir(root) {
			return
		}
		seen[root] = true
		profiles = append(profiles, types.Profile{Name: name, Editor: editor, Root: root})
	}

	for _, c := range candidates {
		root, ok := c.resolve()
		if !ok {
			continue
		}
		add(c.Name, c.Editor, root)
	}
	for _, r := range extraRoots {
		expanded, err := ExpandHome(r)
		if err != nil {
			continue
		}
		abs, err := filepath.Abs(expanded)
		if err != nil {
			continue
		}
		add(filepath.Base(abs), types.EditorVSCode, abs)
	}

	for _, p := range pseudo {
		p.Pseudo = true
		profiles = append(profiles, p)
	}
	return profiles
}

func (c Candidate) resolve() (string, bool) {
	switch c.Base {
	case BaseAbsolute:
		return c.Rel, c.Rel != ""
	case BaseHome:
		home, err := platformDir.homeDir()
		if err != nil || home == "" {
			return "", false
		}
		return filepath.Join(home, filepath.FromSlash(c.Rel)), true
	default:
		dir, err := platformDir.userConfigDir()
		if err != nil || dir == "" {
			return "", false
		}
		return filepath.Join(dir, filepath.FromSlash(c.Rel)), true
	}
}

// IsWSL reports whether the process runs inside Windows Subsystem for Linux.
func IsWSL() bool {
	b, err := os.ReadFile(platformDir.procVersion)
	if err != nil {
		return false
	}
	v := strings.ToLower(string(b))
	return strings.Contains(v, "microsoft") || strings.Contains(v, "wsl")
}

// WSLCandidates lists absolute candidates for every Windows user directory
// visible under /mnt/c/Users.
func WSLCandidates() []Candidate {
	entries, err := os.ReadDir(platformDir.wslUsersDir)
	if err != nil {
		return nil
	}
	var out []Candidate
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		user := e.Name()
		for _, c := range wslProfileDirs {
			out = append(out, Candidate{
				Name:   c.Name + " (windows:" + user + ")",
				Editor: c.Editor,
				Base:   BaseAbsolute,
				Rel:    filepath.Join(platformDir.wslUsersDir, user, filepath.FromSlash(c.Rel)),
			})
		}
	}
	return out
}

// ZedDBDir returns the directory holding Zed's per-channel databases:
// $XDG_DATA_HOME/zed/db on Linux, ~/Library/Application Support/Zed/db on
// macOS and %LOCALAPPDATA%\Zed\db on Windows.
func ZedDBDir() string {
	name := "zed"
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		name = "Zed"
	}
	return filepath.Join(platformDir.dataHome(), name, "db")
}

func isDir(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}
