package source

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

const (
	gitExecutable = "git"

	trackedPathSeparator = "\x00"

	errorListTrackedFormat = "git ls-files in %s: %w"
)

// TrackedFileLister enumerates files under version control.
type TrackedFileLister interface {
	ListTrackedFiles(rootDirectory string) ([]string, error)
}

// GitLister lists tracked files by running git ls-files.
type GitLister struct{}

// NewGitLister returns a GitLister.
func NewGitLister() *GitLister {
	return &GitLister{}
}

// ListTrackedFiles returns the slash separated paths, relative to rootDirectory, that git tracks.
// Paths are read NUL terminated so git does not quote names holding non-ASCII bytes.
func (lister *GitLister) ListTrackedFiles(rootDirectory string) ([]string, error) {
	// #nosec G204
	command := exec.Command(gitExecutable, "ls-files", "-z")
	command.Dir = rootDirectory
	var standardOutput bytes.Buffer
	var standardError bytes.Buffer
	command.Stdout = &standardOutput
	command.Stderr = &standardError
	if runError := command.Run(); runError != nil {
		return nil, fmt.Errorf(errorListTrackedFormat, rootDirectory, commandError(runError, standardError.String()))
	}

	var trackedFiles []string
	for _, trackedPath := range strings.Split(standardOutput.String(), trackedPathSeparator) {
		if trackedPath == "" {
			continue
		}
		trackedFiles = append(trackedFiles, trackedPath)
	}
	return trackedFiles, nil
}

func commandError(runError error, standardError string) error {
	trimmed := strings.TrimSpace(standardError)
	if trimmed == "" {
		return runError
	}
	return fmt.Errorf("%w: %s", runError, trimmed)
}

var _ TrackedFileLister = (*GitLister)(nil)
