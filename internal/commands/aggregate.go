package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"go.uber.org/zap"

	"github.com/temirov/llm-fuse/internal/chunker"
	"github.com/temirov/llm-fuse/internal/filter"
	"github.com/temirov/llm-fuse/internal/loader"
	"github.com/temirov/llm-fuse/internal/output"
	"github.com/temirov/llm-fuse/internal/services/clipboard"
	"github.com/temirov/llm-fuse/internal/source"
	"github.com/temirov/llm-fuse/internal/types"
)

// ErrDirectoryNotFound is returned when the local target is missing or not a directory.
var ErrDirectoryNotFound = fmt.Errorf("%w: directory not found", types.ErrConfiguration)

const (
	defaultDirectory = "."

	scanningMessage         = "Scanning local directory"
	cloningMessage          = "Cloning repository"
	copiedMessage           = "Copied output to clipboard"
	copyFailedMessage       = "failed to copy output to clipboard"
	errorDirectoryFormat    = "%s: %w"
	errorAbsolutePathFormat = "resolving absolute path for %s: %w"
	errorOutputPathFormat   = "resolving output path %s: %w"
)

// Options configures one aggregation run.
type Options struct {
	// Directory is the local directory to aggregate; ignored when RepositoryURL is set.
	Directory string
	// RepositoryURL, when set, is shallow-cloned and aggregated instead of Directory.
	RepositoryURL string
	// Branch selects the branch to clone.
	Branch         string
	IncludePattern string
	ExcludePattern string
	// UseGit lists candidates with git ls-files.
	UseGit bool
	// OutputPath is the primary output document; numbered siblings are written next to it.
	OutputPath string
	// MaxTokens is the per-section ceiling; it must be positive. Use types.Unbounded to disable splitting.
	MaxTokens int
	// IncludeGit keeps the .git directory in walks.
	IncludeGit bool
	// SkipDirectories overrides the directory names pruned from walks.
	SkipDirectories []string
	// CopyToClipboard copies the primary document to the system clipboard after writing.
	CopyToClipboard bool
}

// Collaborators are the external services an aggregation run depends on.
// Nil members are replaced with the production implementations.
type Collaborators struct {
	Cloner source.Cloner
	Lister source.TrackedFileLister
	Copier clipboard.Copier
	Logger *zap.Logger
}

// Report describes a completed run.
type Report struct {
	Summary      types.RunSummary
	Documents    []output.Document
	SkippedFiles int
}

// Aggregate collects, loads and chunks the files of a local directory or cloned
// repository and writes them into the output documents.
func Aggregate(options Options, collaborators Collaborators) (Report, error) {
	collaborators = collaborators.withDefaults()
	logger := collaborators.Logger

	if ceilingError := chunker.ValidateCeiling(options.MaxTokens); ceilingError != nil {
		return Report{}, ceilingError
	}
	pathFilter, compileError := filter.Compile(options.IncludePattern, options.ExcludePattern)
	if compileError != nil {
		return Report{}, compileError
	}
	outputTarget, targetError := resolveOutputTarget(options.OutputPath)
	if targetError != nil {
		return Report{}, targetError
	}

	var baseDirectory, displayBaseDirectory string
	if options.RepositoryURL != "" {
		logger.Info(cloningMessage, zap.String(urlFieldName, options.RepositoryURL), zap.String(branchFieldName, options.Branch))
		workspace, cloneError := source.OpenWorkspace(collaborators.Cloner, options.RepositoryURL, options.Branch, logger)
		if cloneError != nil {
			return Report{}, cloneError
		}
		defer workspace.Close()
		baseDirectory = workspace.Directory
		displayBaseDirectory = workspace.DisplayName
	} else {
		resolvedDirectory, directoryError := resolveDirectory(options.Directory)
		if directoryError != nil {
			return Report{}, directoryError
		}
		logger.Info(scanningMessage, zap.String(directoryFieldName, resolvedDirectory))
		baseDirectory = resolvedDirectory
		displayBaseDirectory = resolvedDirectory
	}

	baseFilesystem := osfs.New(baseDirectory)
	candidates, collectError := CollectFiles(CollectRequest{
		BaseDirectory:   baseDirectory,
		Filesystem:      baseFilesystem,
		UseGit:          options.UseGit,
		SkipDirectories: skipDirectories(options),
		Filter:          pathFilter,
		OutputTarget:    outputTarget,
	}, collaborators.Lister, logger)
	if collectError != nil {
		return Report{}, collectError
	}

	processed, processError := ProcessFiles(candidates, loader.New(baseFilesystem), options.MaxTokens, logger)
	if processError != nil {
		return Report{}, processError
	}

	summary := types.RunSummary{
		TotalSections:        len(processed.Sections),
		TotalTokens:          processed.TotalTokens,
		BaseDirectory:        baseDirectory,
		DisplayBaseDirectory: displayBaseDirectory,
	}
	writer := output.NewWriter(osfs.New(filepath.Dir(outputTarget)), logger)
	documents, writeError := writer.WriteDocuments(processed.Sections, summary, filepath.Base(outputTarget))
	if writeError != nil {
		return Report{}, writeError
	}

	if options.CopyToClipboard {
		if copyError := collaborators.Copier.Copy(documents[0].Content); copyError != nil {
			logger.Warn(copyFailedMessage, zap.Error(copyError))
		} else {
			logger.Info(copiedMessage)
		}
	}
	return Report{Summary: summary, Documents: documents, SkippedFiles: processed.SkippedFiles}, nil
}

func (collaborators Collaborators) withDefaults() Collaborators {
	if collaborators.Logger == nil {
		collaborators.Logger = zap.NewNop()
	}
	if collaborators.Cloner == nil {
		collaborators.Cloner = source.NewGitCloner()
	}
	if collaborators.Lister == nil {
		collaborators.Lister = source.NewGitLister()
	}
	if collaborators.Copier == nil {
		collaborators.Copier = clipboard.NewService()
	}
	return collaborators
}

func resolveDirectory(directory string) (string, error) {
	if directory == "" {
		directory = defaultDirectory
	}
	absoluteDirectory, absoluteError := filepath.Abs(directory)
	if absoluteError != nil {
		return "", fmt.Errorf(errorAbsolutePathFormat, directory, absoluteError)
	}
	directoryInfo, statError := os.Stat(absoluteDirectory)
	if statError != nil || !directoryInfo.IsDir() {
		return "", fmt.Errorf(errorDirectoryFormat, directory, ErrDirectoryNotFound)
	}
	return filepath.Clean(absoluteDirectory), nil
}

func resolveOutputTarget(outputPath string) (string, error) {
	if outputPath == "" {
		outputPath = types.DefaultOutputFileName
	}
	absoluteTarget, absoluteError := filepath.Abs(outputPath)
	if absoluteError != nil {
		return "", fmt.Errorf(errorOutputPathFormat, outputPath, absoluteError)
	}
	return absoluteTarget, nil
}

func skipDirectories(options Options) []string {
	configured := options.SkipDirectories
	if configured == nil {
		configured = source.DefaultSkipDirectories()
	}
	result := make([]string, 0, len(configured))
	for _, directoryName := range configured {
		if options.IncludeGit && directoryName == source.GitDirectoryName {
			continue
		}
		result = append(result, directoryName)
	}
	return result
}
