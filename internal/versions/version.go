// Package versions provides build version information for feed-mirror.
package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

const (
	unknownStr = "unknown"
)

// Version information set by build using -ldflags
var (
	// Version is the current version of feed-mirror
	Version = "dev"
	// Commit is the git commit hash of the build
	//nolint:goconst // This is a placeholder for the commit hash
	Commit = unknownStr
	// BuildDate is the date when the binary was built
	//nolint:goconst // This is a placeholder for the build date
	BuildDate = unknownStr
)

// VersionInfo represents the version information
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersionInfo returns the version information
func GetVersionInfo() VersionInfo {
	commit, buildDate := Commit, BuildDate
	if strings.HasPrefix(Version, "dev") {
		commit, buildDate = fromBuildInfo(commit, buildDate)
	}
	return newVersionInfo(Version, commit, buildDate)
}

// fromBuildInfo fills unknown values from the VCS stamp of the binary
func fromBuildInfo(commit, buildDate string) (string, string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return commit, buildDate
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if commit == unknownStr {
				commit = setting.Value
			}
		case "vcs.time":
			if buildDate == unknownStr {
				buildDate = setting.Value
			}
		}
	}
	return commit, buildDate
}

// newVersionInfo formats the raw build values
func newVersionInfo(version, commit, buildDate string) VersionInfo {
	if buildDate != unknownStr {
		if t, err := time.Parse(time.RFC3339, buildDate); err == nil {
			buildDate = t.UTC().Format("2006-01-02 15:04:05 MST")
		}
	}

	// A bare "dev" version is replaced with one derived from the commit
	if version == "dev" {
		version = fmt.Sprintf("build-%.*s", 8, commit)
	}

	return VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
