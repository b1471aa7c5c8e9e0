// Package utils provides helper functions, including version retrieval.
package utils

import (
	"runtime/debug"
)

const (
	unknownVersion     = "unknown"
	developmentVersion = "(devel)"
)

// Version is set at build time:
// go build -ldflags "-X 'github.com/temirov/llm-fuse/internal/utils.Version=v1.2.3'" ./cmd/llm-fuse
var Version = ""

// GetApplicationVersion reports the version the binary was built as. The value injected
// with -ldflags wins, then the module version recorded by go install; otherwise "unknown".
func GetApplicationVersion() string {
	return resolveVersion(Version, debug.ReadBuildInfo)
}

func resolveVersion(injectedVersion string, readBuildInfo func() (*debug.BuildInfo, bool)) string {
	if injectedVersion != "" {
		return injectedVersion
	}
	buildInfo, buildInfoAvailable := readBuildInfo()
	if buildInfoAvailable && buildInfo.Main.Version != "" && buildInfo.Main.Version != developmentVersion {
		return buildInfo.Main.Version
	}
	return unknownVersion
}
