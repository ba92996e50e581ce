// Package version reports build information for the jsxlive binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string    `json:"version" yaml:"version"`
	GitCommit string    `json:"git_commit" yaml:"git_commit"`
	BuildTime time.Time `json:"build_time" yaml:"build_time"`
	GoVersion string    `json:"go_version" yaml:"go_version"`
	Platform  string    `json:"platform" yaml:"platform"`
	Modified  bool      `json:"modified,omitempty" yaml:"modified,omitempty"`
}

// These variables are set at build time using -ldflags, e.g.
//
//	-X github.com/conneroisu/jsxlive/internal/version.Version=v0.3.0
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// readSettings is swapped in tests.
var readSettings = func() map[string]string {
	out := map[string]string{}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		out["main.version"] = info.Main.Version
	}
	for _, s := range info.Settings {
		out[s.Key] = s.Value
	}

	return out
}

// GetBuildInfo returns comprehensive build information
func GetBuildInfo() *BuildInfo {
	settings := readSettings()

	return &BuildInfo{
		Version:   resolveVersion(settings),
		GitCommit: resolveCommit(settings),
		BuildTime: resolveBuildTime(settings),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Modified:  settings["vcs.modified"] == "true",
	}
}

// GetVersion returns the application version
func GetVersion() string {
	return resolveVersion(readSettings())
}

// GetShortVersion returns a short version string suitable for display
func GetShortVersion() string {
	info := GetBuildInfo()
	if len(info.GitCommit) < 7 {
		return info.Version
	}
	short := info.GitCommit[:7]
	if strings.HasPrefix(info.Version, "dev") {
		return "dev-" + short
	}

	return fmt.Sprintf("%s (%s)", info.Version, short)
}

// String renders the build information for `jsxlive version`.
func (b *BuildInfo) String() string {
	lines := []string{"Version: " + b.Version}
	if b.GitCommit != "unknown" {
		commit := b.GitCommit
		if b.Modified {
			commit += " (modified)"
		}
		lines = append(lines, "Commit: "+commit)
	}
	if !b.BuildTime.IsZero() {
		lines = append(lines, "Built: "+b.BuildTime.Format(time.RFC3339))
	}
	lines = append(lines, "Go: "+b.GoVersion, "Platform: "+b.Platform)

	return strings.Join(lines, "\n")
}

func resolveVersion(settings map[string]string) string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if v := settings["main.version"]; v != "" {
		return v
	}
	if rev := settings["vcs.revision"]; len(rev) >= 7 {
		return "dev-" + rev[:7]
	}

	return "dev"
}

func resolveCommit(settings map[string]string) string {
	if GitCommit != "" && GitCommit != "unknown" {
		return GitCommit
	}
	if rev := settings["vcs.revision"]; rev != "" {
		return rev
	}

	return "unknown"
}

func resolveBuildTime(settings map[string]string) time.Time {
	if t := parseTime(BuildTime); !t.IsZero() {
		return t
	}

	return parseTime(settings["vcs.time"])
}

// parseTime accepts RFC 3339 and a few common variants; anything else is the
// zero time.
func parseTime(s string) time.Time {
	if s == "" || s == "unknown" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}

	return time.Time{}
}
