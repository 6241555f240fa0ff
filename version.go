package pointflow

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
)

// Version components of this release.
const (
	versionMajor = 0
	versionMinor = 4
	versionPatch = 0
)

// DefaultPluginInstallPath is reported by PluginInstallPath when
// POINTFLOW_DRIVER_PATH is not set.
const DefaultPluginInstallPath = "/usr/local/lib/pointflow/plugins"

// PluginPathEnv names the environment variable overriding the plugin path.
const PluginPathEnv = "POINTFLOW_DRIVER_PATH"

// Feature is an optional capability compiled into the module.
type Feature string

const (
	// FeatureLZ4 is LZ4 block compression for point files.
	FeatureLZ4 Feature = "lz4"
	// FeatureZstd is zstd block compression for point files.
	FeatureZstd Feature = "zstd"
	// FeatureArrow is the Arrow IPC reader and writer.
	FeatureArrow Feature = "arrow"
	// FeatureSQLite is the SQLite writer.
	FeatureSQLite Feature = "sqlite"
)

var features = []Feature{FeatureLZ4, FeatureZstd, FeatureArrow, FeatureSQLite}

// VersionString returns the release version, e.g. "0.4.0".
func VersionString() string {
	return fmt.Sprintf("%d.%d.%d", versionMajor, versionMinor, versionPatch)
}

// FullVersionString returns the release version followed by the revision
// the binary was built from.
func FullVersionString() string {
	return fmt.Sprintf("%s (git-version: %s)", VersionString(), shortSHA(SHA1()))
}

// VersionMajor returns the major version.
func VersionMajor() int { return versionMajor }

// VersionMinor returns the minor version.
func VersionMinor() int { return versionMinor }

// VersionPatch returns the patch version.
func VersionPatch() int { return versionPatch }

// VersionInteger returns the version as major*10000 + minor*100 + patch.
func VersionInteger() int {
	return versionMajor*10000 + versionMinor*100 + versionPatch
}

// SHA1 returns the VCS revision recorded in the build information, or
// "unknown".
func SHA1() string {
	if v := buildSetting("vcs.revision"); v != "" {
		return v
	}
	return "unknown"
}

// PluginInstallPath returns the directory searched for stage plugins.
func PluginInstallPath() string {
	if p := os.Getenv(PluginPathEnv); p != "" {
		return p
	}
	return DefaultPluginInstallPath
}

// HasFeature reports whether f is available in this build.
func HasFeature(f Feature) bool {
	for _, known := range features {
		if known == f {
			return true
		}
	}
	return false
}

// DebugInformation returns a multi-line report of the version, the Go
// runtime, the available features and the module dependencies.
func DebugInformation() string {
	var b strings.Builder
	fmt.Fprintf(&b, "pointflow %s\n", FullVersionString())
	fmt.Fprintf(&b, "go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	names := make([]string, len(features))
	for i, f := range features {
		names[i] = string(f)
	}
	fmt.Fprintf(&b, "features: %s\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, "plugin path: %s\n", PluginInstallPath())
	if info, ok := debug.ReadBuildInfo(); ok {
		if len(info.Deps) > 0 {
			b.WriteString("dependencies:\n")
		}
		for _, dep := range info.Deps {
			fmt.Fprintf(&b, "  %s %s\n", dep.Path, dep.Version)
		}
	}
	return b.String()
}

// Config is a snapshot of the version and build information.
type Config struct {
	Version    string
	Major      int
	Minor      int
	Patch      int
	SHA1       string
	PluginPath string
}

// NewConfig returns the current version and build information.
func NewConfig() Config {
	return Config{
		Version:    VersionString(),
		Major:      versionMajor,
		Minor:      versionMinor,
		Patch:      versionPatch,
		SHA1:       SHA1(),
		PluginPath: PluginInstallPath(),
	}
}

func buildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

func shortSHA(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}
