package classify

import (
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/mesh-intelligence/wsedit/pkg/types"
)

// Remote authority kinds used by the VS Code remote extensions.
const (
	kindSSH               = "ssh-remote"
	kindDevContainer      = "dev-container"
	kindAttachedContainer = "attached-container"
	kindWSL               = "wsl"
)

// remoteConfig is the subset of a hex or JSON encoded authority config that
// the classifier understands.
type remoteConfig struct {
	host     string
	hostPath string
	scheme   string
	user     string
	port     int
}

// classifyVSCodeRemote handles vscode-remote://<kind>+<target>/<path>.
func classifyVSCodeRemote(info *types.WorkspacePathInfo, rest string) {
	rawAuthority, rawPath, _ := strings.Cut(rest, "/")
	authority := unescape(rawAuthority)
	p := "/" + unescape(rawPath)

	info.Authority = authority
	info.Path = p
	info.Tags = appendTag(info.Tags, TagRemote)

	kind, target, _ := strings.Cut(authority, "+")
	switch kind {
	case kindSSH:
		info.Scheme = "ssh"
		info.Tags = appendTag(info.Tags, TagSSH)
		decoded := decodeHexIfNeeded(target)
		if cfg, ok := parseRemoteConfig(decoded); ok {
			info.Host = cfg.host
			info.User = cfg.user
			info.Port = cfg.port
			if cfg.hostPath != "" {
				info.ContainerPath = info.Path
				info.Path = cfg.hostPath
			}
			info.Tags = appendTag(info.Tags, cfg.scheme)
		} else {
			parseSSHTarget(decoded, info)
			if p != "/" {
				info.Path = p
			}
		}
	case kindDevContainer, kindAttachedContainer:
		info.Scheme = kind
		info.Tags = appendTag(info.Tags, TagDevContainer)
		configPart, host := target, ""
		if at := strings.LastIndex(target, "@"); at >= 0 {
			configPart, host = target[:at], target[at+1:]
		}
		info.ContainerPath = info.Path
		if cfg, ok := parseRemoteConfig(decodeHexIfNeeded(configPart)); ok {
			info.Host = cfg.host
			info.User = cfg.user
			info.Port = cfg.port
			if cfg.hostPath != "" {
				info.Path = cfg.hostPath
			}
			info.Tags = appendTag(info.Tags, cfg.scheme)
		}
		if info.Host == "" && host != "" {
			if strings.Contains(host, "@") {
				parseSSHTarget(host, info)
			} else {
				info.Host = host
			}
		}
	case kindWSL:
		info.Scheme = kindWSL
		info.Tags = appendTag(info.Tags, TagWSL)
		info.Host = target
	default:
		info.Scheme = kind
		info.Tags = appendTag(info.Tags, kind)
		info.Host = target
	}

	// Containers may omit the host: the authority alone identifies them.
	if info.Host == "" && info.ContainerPath == "" {
		demote(info, p)
		return
	}
	info.Canonical = "vscode-remote://" + authority + trimTrailingSeparator(rawRemotePath(info, p))
}

// rawRemotePath is the URI path as the editor addresses it, before any
// container indirection is applied.
func rawRemotePath(info *types.WorkspacePathInfo, uriPath string) string {
	if info.ContainerPath != "" {
		return info.ContainerPath
	}
	return uriPath
}

// classifyGenericRemote handles scheme://[user@]host[:port]/path.
func classifyGenericRemote(info *types.WorkspacePathInfo, raw string) {
	u, err := url.Parse(raw)
	if err != nil {
		info.Warnings = append(info.Warnings, "unparseable remote URI treated as local: "+err.Error())
		return
	}

	p := u.Path
	if p == "" {
		p = "/"
	}
	if u.Hostname() == "" {
		demote(info, p)
		return
	}

	info.Scheme = strings.ToLower(u.Scheme)
	info.Authority = u.Host
	info.Host = u.Hostname()
	if u.User != nil {
		info.User = u.User.Username()
	}
	if port, err := strconv.ParseUint(u.Port(), 10, 16); err == nil {
		info.Port = int(port)
	}
	info.Path = p
	info.Tags = appendTag(info.Tags, TagRemote)
	info.Tags = appendTag(info.Tags, info.Scheme)

	authority := u.Host
	if info.User != "" {
		authority = info.User + "@" + authority
	}
	info.Canonical = info.Scheme + "://" + authority + trimTrailingSeparator(p)
}

// demote resets a remote parse that lacked a host to a plain local path.
// A URI with neither host nor path keeps its raw form, so it never
// collapses onto the filesystem root.
func demote(info *types.WorkspacePathInfo, p string) {
	info.Scheme = ""
	info.Authority = ""
	info.Host = ""
	info.User = ""
	info.Port = 0
	info.ContainerPath = ""
	info.Tags = []string{}
	info.Path = p
	info.Canonical = ""
	if p == "/" {
		info.Path = info.OriginalPath
		info.Canonical = info.OriginalPath
	}
	info.Warnings = append(info.Warnings, "remote path without host treated as local")
}

// parseSSHTarget fills user, host, port and path from the forms
// user@host, user@host:port, user@host:/path, user@host:port:/path,
// host:port and host:/path.
func parseSSHTarget(target string, info *types.WorkspacePathInfo) {
	hostPart := target
	if user, rest, ok := strings.Cut(target, "@"); ok {
		info.User = user
		hostPart = rest
	}

	host, after, hasColon := strings.Cut(hostPart, ":")
	info.Host = host
	if !hasColon {
		return
	}

	if portStr, p, ok := strings.Cut(after, ":"); ok {
		if port, err := strconv.ParseUint(portStr, 10, 16); err == nil {
			info.Port = int(port)
		}
		if p != "" {
			info.Path = p
		}
		return
	}
	if port, err := strconv.ParseUint(after, 10, 16); err == nil {
		info.Port = int(port)
		return
	}
	if after != "" {
		info.Path = after
	}
}

// decodeHexIfNeeded returns the JSON document hidden in a hex encoded
// authority, or the input unchanged when it is not one.
func decodeHexIfNeeded(s string) string {
	if strings.HasPrefix(s, "{") || len(s) == 0 || len(s)%2 != 0 {
		return s
	}
	b, err := hex.DecodeString(s)
	if err != nil || len(b) == 0 || b[0] != '{' {
		return s
	}
	return string(b)
}

func parseRemoteConfig(doc string) (remoteConfig, bool) {
	if !strings.HasPrefix(doc, "{") || !gjson.Valid(doc) {
		return remoteConfig{}, false
	}
	first := func(paths ...string) gjson.Result {
		for _, p := range paths {
			if r := gjson.Get(doc, p); r.Exists() {
				return r
			}
		}
		return gjson.Result{}
	}
	cfg := remoteConfig{
		host:     first("settings.host", "hostName").String(),
		hostPath: gjson.Get(doc, "hostPath").String(),
		scheme:   gjson.Get(doc, "scheme").String(),
		user:     first("settings.user", "user").String(),
	}
	if port := first("settings.port", "port"); port.Exists() {
		if v := port.Uint(); v > 0 && v <= 65535 {
			cfg.port = int(v)
		}
	}
	return cfg, true
}

func unescape(s string) string {
	if decoded, err := url.PathUnescape(s); err == nil {
		return decoded
	}
	return s
}
