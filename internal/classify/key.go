package classify

import (
	"runtime"
	"strings"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/wsedit/pkg/types"
)

// recordNamespace seeds record ids so that the same key always maps to the
// same id across processes and machines.
var recordNamespace = uuid.MustParse("6f1c3a52-8d4e-5b7a-9c21-3e0f4d6a7b18")

// DefaultFoldCase reports whether local paths compare case-insensitively on
// the running platform.
func DefaultFoldCase() bool {
	return runtime.GOOS == "windows" || runtime.GOOS == "darwin"
}

// Key returns the grouping key for info. Entries with equal keys describe
// the same workspace. When fold is set, local paths are lower-cased and
// Windows separators normalized.
func Key(info types.WorkspacePathInfo, fold bool) string {
	k := info.Canonical
	if k == "" {
		k = trimTrailingSeparator(info.Path)
	}
	if !fold || info.IsRemote() {
		return k
	}
	if looksWindows(k) {
		k = strings.ReplaceAll(k, `\`, "/")
	}
	return strings.ToLower(k)
}

// ID derives the stable record id for a grouping key.
func ID(key string) string {
	return uuid.NewSHA1(recordNamespace, []byte(key)).String()
}

func looksWindows(p string) bool {
	if strings.HasPrefix(p, `\\`) {
		return true
	}
	return len(p) >= 2 && p[1] == ':' && ((p[0] >= 'a' && p[0] <= 'z') || (p[0] >= 'A' && p[0] <= 'Z'))
}
