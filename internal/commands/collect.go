// Package commands implements the llm-fuse pipeline: collect, filter, load, chunk and write.
package commands

import (
	"errors"
	"fmt"
	"path/filepath"

	billy "github.com/go-git/go-billy/v5"
	"go.uber.org/zap"

	"github.com/temirov/llm-fuse/internal/filter"
	"github.com/temirov/llm-fuse/internal/output"
	"github.com/temirov/llm-fuse/internal/source"
	"github.com/temirov/llm-fuse/internal/types"
)

// ErrNoFiles is returned when no candidate survives filtering.
var ErrNoFiles = errors.New("no files found to process after filtering")

const (
	gitFallbackMessage = "git ls-files failed, falling back to a directory walk"
	gitEmptyMessage    = "git ls-files returned no files, falling back to a directory walk"
	filesFoundMessage  = "Found files after filtering"
	directoryFieldName = "directory"
	countFieldName     = "files"
	pathFieldName      = "path"
	reasonFieldName    = "reason"
	urlFieldName       = "url"
	branchFieldName    = "branch"
	tokensFieldName    = "tokens"
	sectionsFieldName  = "sections"
	errorCollectFormat = "collecting files in %s: %w"
)

// CollectRequest describes where and how candidates are enumerated.
type CollectRequest struct {
	// BaseDirectory is the absolute directory candidates are collected from.
	BaseDirectory string
	// Filesystem is rooted at BaseDirectory and is used for directory walks.
	Filesystem billy.Filesystem
	// UseGit lists tracked files with Lister before falling back to a walk.
	UseGit bool
	// SkipDirectories are directory names pruned from walks.
	SkipDirectories []string
	// Filter selects candidates by absolute path; nil accepts everything.
	Filter *filter.Filter
	// OutputTarget is the absolute primary output path; it and its numbered siblings are never collected.
	OutputTarget string
}

// CollectFiles enumerates candidate files below request.BaseDirectory in discovery order.
func CollectFiles(request CollectRequest, lister source.TrackedFileLister, logger *zap.Logger) ([]types.Candidate, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	relativePaths, listError := listRelativePaths(request, lister, logger)
	if listError != nil {
		return nil, listError
	}

	candidates := make([]types.Candidate, 0, len(relativePaths))
	for _, relativePath := range relativePaths {
		absolutePath := filepath.Join(request.BaseDirectory, filepath.FromSlash(relativePath))
		if request.OutputTarget != "" && output.IsDocumentPath(request.OutputTarget, absolutePath) {
			continue
		}
		if !request.Filter.Matches(absolutePath) {
			continue
		}
		candidates = append(candidates, types.Candidate{AbsolutePath: absolutePath, RelativePath: relativePath})
	}
	logger.Info(filesFoundMessage, zap.Int(countFieldName, len(candidates)))
	if len(candidates) == 0 {
		return nil, ErrNoFiles
	}
	return candidates, nil
}

func listRelativePaths(request CollectRequest, lister source.TrackedFileLister, logger *zap.Logger) ([]string, error) {
	if request.UseGit && lister != nil {
		trackedFiles, listError := lister.ListTrackedFiles(request.BaseDirectory)
		switch {
		case listError != nil:
			logger.Warn(gitFallbackMessage, zap.String(directoryFieldName, request.BaseDirectory), zap.Error(listError))
		case len(trackedFiles) == 0:
			logger.Warn(gitEmptyMessage, zap.String(directoryFieldName, request.BaseDirectory))
		default:
			return trackedFiles, nil
		}
	}
	walkedFiles, walkError := source.WalkAll(request.Filesystem, request.SkipDirectories, logger)
	if walkError != nil {
		return nil, fmt.Errorf(errorCollectFormat, request.BaseDirectory, walkError)
	}
	return walkedFiles, nil
}
