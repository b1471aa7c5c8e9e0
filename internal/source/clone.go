package source

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

const (
	scratchDirectoryPattern = "llm-fuse-repo-*"
	gitSuffix               = ".git"
	displayPrefix           = "./"
	disableTerminalPrompt   = "GIT_TERMINAL_PROMPT=0"

	errorCreateScratchFormat = "create scratch directory: %w"
	cloneErrorFormat         = "cloning %s: %v"
	cleanupFailedMessage     = "failed to remove temporary repository directory"
	cleanupDoneMessage       = "Cleaned up temporary repository directory"
)

// CloneError reports a failed clone. The scratch directory has already been removed.
type CloneError struct {
	URL string
	Err error
}

func (cloneError *CloneError) Error() string {
	return fmt.Sprintf(cloneErrorFormat, cloneError.URL, cloneError.Err)
}

func (cloneError *CloneError) Unwrap() error {
	return cloneError.Err
}

// Cloner fetches a shallow copy of a remote repository into a fresh scratch directory.
type Cloner interface {
	CloneRepository(url string, branch string) (string, error)
}

// GitCloner clones repositories with the git executable.
type GitCloner struct {
	// TemporaryRoot is the parent of scratch directories; empty means os.TempDir.
	TemporaryRoot string
}

// NewGitCloner returns a GitCloner that clones below the system temporary directory.
func NewGitCloner() *GitCloner {
	return &GitCloner{}
}

// CloneRepository runs git clone --depth 1 and returns the scratch directory holding the clone.
func (cloner *GitCloner) CloneRepository(url string, branch string) (string, error) {
	scratchDirectory, createError := os.MkdirTemp(cloner.TemporaryRoot, scratchDirectoryPattern)
	if createError != nil {
		return "", &CloneError{URL: url, Err: fmt.Errorf(errorCreateScratchFormat, createError)}
	}

	arguments := []string{"clone", "--depth", "1"}
	if branch != "" {
		arguments = append(arguments, "--branch", branch)
	}
	arguments = append(arguments, "--", url, scratchDirectory)

	// #nosec G204
	command := exec.Command(gitExecutable, arguments...)
	command.Env = append(os.Environ(), disableTerminalPrompt)
	combinedOutput, runError := command.CombinedOutput()
	if runError != nil {
		_ = RemoveDirectoryTree(scratchDirectory)
		return "", &CloneError{URL: url, Err: commandError(runError, string(combinedOutput))}
	}
	return scratchDirectory, nil
}

// RemoveDirectoryTree deletes path and everything below it.
func RemoveDirectoryTree(path string) error {
	return os.RemoveAll(path)
}

// RepositoryName extracts the repository name from a clone URL, dropping a trailing ".git".
func RepositoryName(url string) string {
	trimmed := strings.TrimRight(url, "/")
	if separatorIndex := strings.LastIndexAny(trimmed, "/:"); separatorIndex >= 0 {
		trimmed = trimmed[separatorIndex+1:]
	}
	return strings.TrimSuffix(trimmed, gitSuffix)
}

// DisplayName returns the label shown as the base directory of a cloned repository.
func DisplayName(url string) string {
	return displayPrefix + RepositoryName(url)
}

// Workspace is a cloned repository whose scratch directory must be released with Close.
type Workspace struct {
	Directory   string
	DisplayName string
	logger      *zap.Logger
	released    bool
}

// OpenWorkspace clones url into a scoped workspace.
func OpenWorkspace(cloner Cloner, url string, branch string, logger *zap.Logger) (*Workspace, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	directory, cloneError := cloner.CloneRepository(url, branch)
	if cloneError != nil {
		return nil, cloneError
	}
	return &Workspace{Directory: directory, DisplayName: DisplayName(url), logger: logger}, nil
}

// Close removes the scratch directory. Failures are logged and never returned as fatal;
// the error is returned only for callers that want to inspect it.
func (workspace *Workspace) Close() error {
	if workspace == nil || workspace.released {
		return nil
	}
	workspace.released = true
	if removeError := RemoveDirectoryTree(workspace.Directory); removeError != nil {
		workspace.logger.Warn(cleanupFailedMessage, zap.String("path", workspace.Directory), zap.Error(removeError))
		return removeError
	}
	workspace.logger.Info(cleanupDoneMessage, zap.String("path", workspace.Directory))
	return nil
}
