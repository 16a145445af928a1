// Package classify turns raw workspace paths and URIs, as stored by the
// editors, into structured descriptors. Everything here is pure: no
// filesystem or network access.
package classify

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/mesh-intelligence/wsedit/pkg/types"
)

// WorkspaceFileExt marks a multi-root workspace definition file.
const WorkspaceFileExt = ".code-workspace"

// Tags attached during classification.
const (
	TagRemote       = "remote"
	TagSSH          = "ssh"
	TagDevContainer = "devcontainer"
	TagWSL          = "wsl"
	TagWorkspace    = "workspace"
)

var (
	schemeRe    = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*$`)
	drivePathRe = regexp.MustCompile(`^/[A-Za-z]:`)
	driveRootRe = regexp.MustCompile(`^[A-Za-z]:[\\/]?$`)
)

// Classify parses raw into a WorkspacePathInfo. An empty or blank path is
// the only input rejected; malformed remote forms are demoted to local paths
// with a warning instead.
func Classify(raw string) (types.WorkspacePathInfo, error) {
	if strings.TrimSpace(raw) == "" {
		return types.WorkspacePathInfo{}, fmt.Errorf("%w: empty path", types.ErrInvalidPath)
	}

	info := types.WorkspacePathInfo{
		OriginalPath: raw,
		Path:         raw,
		Tags:         []string{},
	}

	scheme, rest, isURI := splitScheme(raw)
	switch {
	case !isURI:
		classifyLocal(&info, raw)
	case scheme == "file":
		classifyFileURI(&info, rest)
	case scheme == "vscode-remote":
		classifyVSCodeRemote(&info, rest)
	default:
		classifyGenericRemote(&info, raw)
	}

	info.Type = workspaceType(leafPath(info))
	if info.Type == types.TypeWorkspace {
		info.Tags = appendTag(info.Tags, TagWorkspace)
	}
	info.Label = lastSegment(leafPath(info))
	if info.Canonical == "" {
		info.Canonical = trimTrailingSeparator(info.Path)
	}
	return info, nil
}

// ClassifyEntry classifies e.RawPath and applies the entry's explicit label.
func ClassifyEntry(e types.RawEntry) (types.WorkspacePathInfo, error) {
	info, err := Classify(e.RawPath)
	if err != nil {
		return info, err
	}
	if e.Label != "" {
		info.Label = e.Label
	}
	return info, nil
}

// splitScheme separates "scheme://rest". Windows drive paths and plain
// filesystem paths report isURI false.
func splitScheme(raw string) (scheme, rest string, isURI bool) {
	before, after, found := strings.Cut(raw, "://")
	if !found || !schemeRe.MatchString(before) {
		return "", "", false
	}
	return strings.ToLower(before), after, true
}

func classifyLocal(info *types.WorkspacePathInfo, p string) {
	lower := strings.ToLower(p)
	if strings.HasPrefix(lower, `\\wsl$\`) || strings.HasPrefix(lower, `\\wsl.localhost\`) {
		info.Tags = appendTag(info.Tags, TagWSL)
	}
	info.Path = p
}

func classifyFileURI(info *types.WorkspacePathInfo, rest string) {
	u, err := url.Parse("file://" + rest)
	if err != nil {
		decoded, derr := url.PathUnescape(rest)
		if derr != nil {
			decoded = rest
		}
		info.Path = decoded
		info.Warnings = append(info.Warnings, fmt.Sprintf("unparseable file URI: %v", err))
		return
	}

	p := u.Path
	if u.Host != "" && u.Host != "localhost" {
		// UNC share: file://server/share/x
		p = "//" + u.Host + p
	}
	if drivePathRe.MatchString(p) {
		p = p[1:]
	}
	if p == "" {
		p = "/"
	}
	info.Path = p
}

// leafPath is the path whose last segment names the workspace: the container
// path when one exists, otherwise the host-visible path.
func leafPath(info types.WorkspacePathInfo) string {
	if info.ContainerPath != "" {
		return info.ContainerPath
	}
	return info.Path
}

func workspaceType(p string) types.WorkspaceType {
	base := lastSegment(p)
	if base == "" {
		return types.TypeFolder
	}
	if strings.HasSuffix(strings.ToLower(base), WorkspaceFileExt) {
		return types.TypeWorkspace
	}
	ext := path.Ext(base)
	if ext != "" && ext != base && len(ext) > 1 {
		return types.TypeFile
	}
	return types.TypeFolder
}

// lastSegment returns the percent-decoded final path segment, ignoring
// trailing separators. Roots yield "".
func lastSegment(p string) string {
	p = strings.TrimRight(p, `/\`)
	if p == "" || driveRootRe.MatchString(p) {
		return ""
	}
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		p = p[i+1:]
	}
	if decoded, err := url.PathUnescape(p); err == nil {
		return decoded
	}
	return p
}

func trimTrailingSeparator(p string) string {
	if len(p) <= 1 || driveRootRe.MatchString(p) {
		return p
	}
	trimmed := strings.TrimRight(p, `/\`)
	if trimmed == "" {
		return p[:1]
	}
	return trimmed
}

func appendTag(tags []string, tag string) []string {
	if tag == "" {
		return tags
	}
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	return append(tags, tag)
}
