package docshift

import (
	"fmt"
	"runtime"
)

// Version information
const (
	Version      = "0.3.0"
	MinGoVersion = "1.24"
)

// BuildInfo contains build information
var BuildInfo = struct {
	Version   string
	GitCommit string
	BuildDate string
	GoVersion string
}{
	Version:   Version,
	GoVersion: runtime.Version(),
}

// SetBuildInfo is called by the build process
func SetBuildInfo(commit, date, goVersion string) {
	BuildInfo.GitCommit = commit
	BuildInfo.BuildDate = date
	if goVersion != "" {
		BuildInfo.GoVersion = goVersion
	}
}

// VersionInfo returns a one-line version string
func VersionInfo() string {
	return fmt.Sprintf("docshift %s", BuildInfo.Version)
}

// FullVersionInfo returns detailed version information
func FullVersionInfo() string {
	info := fmt.Sprintf("docshift %s\n", BuildInfo.Version)
	info += fmt.Sprintf("Go Version: %s\n", BuildInfo.GoVersion)

	if BuildInfo.GitCommit != "" {
		info += fmt.Sprintf("Git Commit: %s\n", BuildInfo.GitCommit)
	}

	if BuildInfo.BuildDate != "" {
		info += fmt.Sprintf("Build Date: %s\n", BuildInfo.BuildDate)
	}

	return info
}
