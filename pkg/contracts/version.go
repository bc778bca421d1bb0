package contracts

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// APIVersion is the version of the /api/data query contract. It changes only
// when a request or response shape changes incompatibly.
const APIVersion = "v1"

// Set with -ldflags "-X regpulse/pkg/contracts.Version=...". GitCommit and
// BuildTime fall back to the VCS stamp in the binary when left unset.
var (
	Version   = "0.1.0"
	GitCommit = ""
	BuildTime = ""
)

// VersionInfo is reported by /api/version and regctl --version.
type VersionInfo struct {
	Version    string `json:"version"`
	APIVersion string `json:"api_version"`
	GitCommit  string `json:"git_commit,omitempty"`
	BuildTime  string `json:"build_time,omitempty"`
	Modified   bool   `json:"modified,omitempty"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// GetVersionInfo combines the ldflags values with the build settings the Go
// toolchain embeds (vcs.revision, vcs.time, vcs.modified).
func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:    Version,
		APIVersion: APIVersion,
		GitCommit:  GitCommit,
		BuildTime:  BuildTime,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// ShortCommit returns the first 12 characters of the commit, or "unknown".
func (v VersionInfo) ShortCommit() string {
	switch {
	case v.GitCommit == "":
		return "unknown"
	case len(v.GitCommit) > 12:
		return v.GitCommit[:12]
	}
	return v.GitCommit
}

// GetFullVersionString renders the version for CLI output, e.g.
// "0.1.0 (api v1, commit 1a2b3c4d5e6f, go1.24.3 linux/amd64)".
func GetFullVersionString() string {
	info := GetVersionInfo()
	var b strings.Builder
	fmt.Fprintf(&b, "%s (api %s, commit %s", info.Version, info.APIVersion, info.ShortCommit())
	if info.Modified {
		b.WriteString("-dirty")
	}
	fmt.Fprintf(&b, ", %s %s)", info.GoVersion, info.Platform)
	return b.String()
}
