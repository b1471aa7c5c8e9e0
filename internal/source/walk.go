// Package source enumerates candidate files and provides the git collaborators used to obtain them.
package source

import (
	"fmt"
	"os"
	"path"
	"sort"

	billy "github.com/go-git/go-billy/v5"
	"go.uber.org/zap"

	"github.com/temirov/llm-fuse/internal/utils"
)

// GitDirectoryName is pruned from walks unless explicitly included.
const GitDirectoryName = utils.GitDirectoryName

const (
	errorReadDirectoryFormat     = "reading directory %s: %w"
	unreadableDirectoryWarning   = "skipping unreadable directory"
	unreadableDirectoryPathField = "path"
)

// DefaultSkipDirectories returns the directory names pruned from walks by default.
func DefaultSkipDirectories() []string {
	return []string{GitDirectoryName}
}

// WalkAll lists every regular file below the root of filesystem as slash separated
// relative paths. Entries are visited in lexical order; directories whose name is in
// skipDirectories are not descended into. Only an unreadable root is an error; nested
// directories that cannot be read are logged and skipped.
func WalkAll(filesystem billy.Filesystem, skipDirectories []string, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	skipped := make(map[string]struct{}, len(skipDirectories))
	for _, directoryName := range skipDirectories {
		skipped[directoryName] = struct{}{}
	}
	walk := walker{filesystem: filesystem, skipped: skipped, logger: logger}
	if walkError := walk.directory(""); walkError != nil {
		return nil, walkError
	}
	return walk.files, nil
}

type walker struct {
	filesystem billy.Filesystem
	skipped    map[string]struct{}
	logger     *zap.Logger
	files      []string
}

func (walk *walker) directory(relativeDirectory string) error {
	entries, readError := walk.filesystem.ReadDir(relativeDirectory)
	if readError != nil {
		if relativeDirectory == "" {
			return fmt.Errorf(errorReadDirectoryFormat, displayDirectory(relativeDirectory), readError)
		}
		walk.logger.Warn(unreadableDirectoryWarning, zap.String(unreadableDirectoryPathField, relativeDirectory), zap.Error(readError))
		return nil
	}
	sort.Slice(entries, func(left, right int) bool {
		return entries[left].Name() < entries[right].Name()
	})
	for _, entry := range entries {
		entryPath := path.Join(relativeDirectory, entry.Name())
		if entry.IsDir() {
			if _, isSkipped := walk.skipped[entry.Name()]; isSkipped {
				continue
			}
			if walkError := walk.directory(entryPath); walkError != nil {
				return walkError
			}
			continue
		}
		if !isRegularFile(walk.filesystem, entryPath, entry) {
			continue
		}
		walk.files = append(walk.files, entryPath)
	}
	return nil
}

// isRegularFile accepts regular files and symbolic links that resolve to one.
func isRegularFile(filesystem billy.Filesystem, entryPath string, entry os.FileInfo) bool {
	if entry.Mode()&os.ModeSymlink != 0 {
		target, statError := filesystem.Stat(entryPath)
		return statError == nil && target.Mode().IsRegular()
	}
	return entry.Mode().IsRegular()
}

func displayDirectory(relativeDirectory string) string {
	if relativeDirectory == "" {
		return "."
	}
	return relativeDirectory
}
