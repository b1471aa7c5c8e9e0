package commands_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/llm-fuse/internal/chunker"
	"github.com/temirov/llm-fuse/internal/commands"
	"github.com/temirov/llm-fuse/internal/filter"
	"github.com/temirov/llm-fuse/internal/loader"
	"github.com/temirov/llm-fuse/internal/source"
	"github.com/temirov/llm-fuse/internal/types"
)

const (
	shortFileName    = "a.txt"
	shortFileContent = "abcd"
	longFileName     = "b.txt"
	longFileContent  = "abcdefghij"
)

type stubLister struct {
	files []string
	err   error
	calls int
}

func (lister *stubLister) ListTrackedFiles(string) ([]string, error) {
	lister.calls++
	return lister.files, lister.err
}

type stubCopier struct {
	copied string
	err    error
}

func (copier *stubCopier) Copy(text string) error {
	copier.copied = text
	return copier.err
}

type stubCloner struct {
	directory string
	err       error
}

func (cloner stubCloner) CloneRepository(string, string) (string, error) {
	return cloner.directory, cloner.err
}

func writeFiles(t *testing.T, directory string, files map[string]string) {
	t.Helper()
	for relativePath, content := range files {
		absolutePath := filepath.Join(directory, filepath.FromSlash(relativePath))
		require.NoError(t, os.MkdirAll(filepath.Dir(absolutePath), 0o755))
		require.NoError(t, os.WriteFile(absolutePath, []byte(content), 0o644))
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	content, readError := os.ReadFile(path)
	require.NoError(t, readError)
	return string(content)
}

func TestCollectFilesWalksAndFilters(t *testing.T) {
	baseDirectory := filepath.FromSlash("/base")
	filesystem := memfs.New()
	for _, name := range []string{"main.go", "README.md", "pkg/util.go", "pkg/util_test.go", ".git/HEAD", "output.txt", "output_2.txt"} {
		require.NoError(t, util.WriteFile(filesystem, name, []byte("x"), 0o644))
	}
	pathFilter, compileError := filter.Compile(`\.go$`, `_test\.go$`)
	require.NoError(t, compileError)

	candidates, collectError := commands.CollectFiles(commands.CollectRequest{
		BaseDirectory:   baseDirectory,
		Filesystem:      filesystem,
		SkipDirectories: source.DefaultSkipDirectories(),
		Filter:          pathFilter,
	}, nil, nil)
	require.NoError(t, collectError)
	assert.Equal(t, []types.Candidate{
		{AbsolutePath: filepath.Join(baseDirectory, "main.go"), RelativePath: "main.go"},
		{AbsolutePath: filepath.Join(baseDirectory, "pkg", "util.go"), RelativePath: "pkg/util.go"},
	}, candidates)
}

func TestCollectFilesExcludesOwnOutput(t *testing.T) {
	baseDirectory := filepath.FromSlash("/base")
	filesystem := memfs.New()
	for _, name := range []string{"notes.txt", "output.txt", "output_2.txt", "output_3.txt", "nested/output_2.txt"} {
		require.NoError(t, util.WriteFile(filesystem, name, []byte("x"), 0o644))
	}
	candidates, collectError := commands.CollectFiles(commands.CollectRequest{
		BaseDirectory: baseDirectory,
		Filesystem:    filesystem,
		OutputTarget:  filepath.Join(baseDirectory, "output.txt"),
	}, nil, nil)
	require.NoError(t, collectError)
	var relativePaths []string
	for _, candidate := range candidates {
		relativePaths = append(relativePaths, candidate.RelativePath)
	}
	assert.Equal(t, []string{"nested/output_2.txt", "notes.txt"}, relativePaths)
}

func TestCollectFilesUsesGitListing(t *testing.T) {
	lister := &stubLister{files: []string{"tracked.go", "docs/guide.md"}}
	core, recorded := observer.New(zapcore.InfoLevel)
	candidates, collectError := commands.CollectFiles(commands.CollectRequest{
		BaseDirectory: filepath.FromSlash("/base"),
		Filesystem:    memfs.New(),
		UseGit:        true,
	}, lister, zap.New(core))
	require.NoError(t, collectError)
	require.Len(t, candidates, 2)
	assert.Equal(t, "tracked.go", candidates[0].RelativePath)
	assert.Equal(t, "docs/guide.md", candidates[1].RelativePath)
	assert.Equal(t, 1, lister.calls)
	assert.Equal(t, 0, recorded.FilterLevelExact(zapcore.WarnLevel).Len())
	assert.Equal(t, 1, recorded.FilterMessage("Found files after filtering").Len())
}

func TestCollectFilesFallsBackFromGit(t *testing.T) {
	testCases := []struct {
		name   string
		lister *stubLister
	}{
		{name: "failure", lister: &stubLister{err: errors.New("not a git repository")}},
		{name: "empty", lister: &stubLister{}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			filesystem := memfs.New()
			require.NoError(t, util.WriteFile(filesystem, "walked.txt", []byte("x"), 0o644))
			core, recorded := observer.New(zapcore.InfoLevel)
			candidates, collectError := commands.CollectFiles(commands.CollectRequest{
				BaseDirectory: filepath.FromSlash("/base"),
				Filesystem:    filesystem,
				UseGit:        true,
			}, testCase.lister, zap.New(core))
			require.NoError(t, collectError)
			require.Len(t, candidates, 1)
			assert.Equal(t, "walked.txt", candidates[0].RelativePath)
			assert.Equal(t, 1, recorded.FilterLevelExact(zapcore.WarnLevel).Len())
		})
	}
}

func TestCollectFilesReportsEmptyCollection(t *testing.T) {
	filesystem := memfs.New()
	require.NoError(t, util.WriteFile(filesystem, "notes.md", []byte("x"), 0o644))
	pathFilter, compileError := filter.Compile(`\.go$`, "")
	require.NoError(t, compileError)
	_, collectError := commands.CollectFiles(commands.CollectRequest{
		BaseDirectory: filepath.FromSlash("/base"),
		Filesystem:    filesystem,
		Filter:        pathFilter,
	}, nil, nil)
	assert.ErrorIs(t, collectError, commands.ErrNoFiles)
}

func TestProcessFilesSkipsAndChunks(t *testing.T) {
	baseDirectory := filepath.FromSlash("/base")
	filesystem := memfs.New()
	require.NoError(t, util.WriteFile(filesystem, shortFileName, []byte(shortFileContent), 0o644))
	require.NoError(t, util.WriteFile(filesystem, "image.bin", []byte{0x00, 0x01, 0x02}, 0o644))
	require.NoError(t, util.WriteFile(filesystem, longFileName, []byte(longFileContent), 0o644))
	candidates := []types.Candidate{
		{AbsolutePath: filepath.Join(baseDirectory, shortFileName), RelativePath: shortFileName},
		{AbsolutePath: filepath.Join(baseDirectory, "image.bin"), RelativePath: "image.bin"},
		{AbsolutePath: filepath.Join(baseDirectory, "missing.txt"), RelativePath: "missing.txt"},
		{AbsolutePath: filepath.Join(baseDirectory, longFileName), RelativePath: longFileName},
	}

	core, recorded := observer.New(zapcore.InfoLevel)
	processed, processError := commands.ProcessFiles(candidates, loader.New(filesystem), 1, zap.New(core))
	require.NoError(t, processError)
	assert.Equal(t, 2, processed.SkippedFiles)
	assert.Equal(t, 4, processed.TotalTokens)
	require.Len(t, processed.Sections, 4)
	assert.Equal(t, shortFileContent, processed.Sections[0].Content)
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, []string{
		processed.Sections[1].Content, processed.Sections[2].Content, processed.Sections[3].Content,
	})
	assert.Equal(t, 3, processed.Sections[3].ChunkIndex)
	assert.Equal(t, 3, processed.Sections[3].ChunkCount)

	skipEntries := recorded.FilterMessage("skipping file").All()
	require.Len(t, skipEntries, 2)
	assert.Equal(t, filepath.Join(baseDirectory, "image.bin"), skipEntries[0].ContextMap()["path"])
}

func TestProcessFilesRejectsNegativeCeiling(t *testing.T) {
	_, processError := commands.ProcessFiles(nil, loader.New(memfs.New()), -1, nil)
	assert.ErrorIs(t, processError, chunker.ErrInvalidCeiling)
	assert.ErrorIs(t, processError, types.ErrConfiguration)
}

func TestAggregateEndToEnd(t *testing.T) {
	baseDirectory := t.TempDir()
	outputDirectory := t.TempDir()
	writeFiles(t, baseDirectory, map[string]string{
		shortFileName: shortFileContent,
		longFileName:  longFileContent,
	})
	copier := &stubCopier{}
	report, aggregateError := commands.Aggregate(commands.Options{
		Directory:       baseDirectory,
		OutputPath:      filepath.Join(outputDirectory, types.DefaultOutputFileName),
		MaxTokens:       1,
		CopyToClipboard: true,
	}, commands.Collaborators{Copier: copier})
	require.NoError(t, aggregateError)
	assert.Equal(t, 4, report.Summary.TotalSections)
	assert.Equal(t, 4, report.Summary.TotalTokens)
	require.Len(t, report.Documents, 3)

	primary := readFile(t, filepath.Join(outputDirectory, "output.txt"))
	assert.Contains(t, primary, "Base directory: "+filepath.Clean(baseDirectory)+"\n")
	assert.Contains(t, primary, "Total files (or chunks) processed: 4\n")
	assert.Contains(t, primary, "Total approximate tokens: 4\n")
	assert.Contains(t, primary, "├── a.txt\n└── b.txt\n")
	assert.Contains(t, primary, "File: ./a.txt\nApprox. tokens: 1\n")
	assert.Contains(t, primary, "File: ./b.txt (Chunk 1 of 3)\n")
	assert.Equal(t, primary, copier.copied)

	second := readFile(t, filepath.Join(outputDirectory, "output_2.txt"))
	assert.Contains(t, second, "File: ./b.txt (Chunk 2 of 3)\nApprox. tokens: 1\n")
	assert.Contains(t, second, "efgh\n\n")
	assert.NotContains(t, second, "LLM Fuse Aggregation Output")

	third := readFile(t, filepath.Join(outputDirectory, "output_3.txt"))
	assert.Contains(t, third, "File: ./b.txt (Chunk 3 of 3)\n")
	assert.Contains(t, third, "ij\n\n")
}

func TestAggregateIgnoresPreviousOutputInsideTree(t *testing.T) {
	baseDirectory := t.TempDir()
	writeFiles(t, baseDirectory, map[string]string{shortFileName: shortFileContent})
	options := commands.Options{
		Directory:  baseDirectory,
		OutputPath: filepath.Join(baseDirectory, "context.md"),
		MaxTokens:  types.Unbounded,
	}
	for run := 0; run < 2; run++ {
		report, aggregateError := commands.Aggregate(options, commands.Collaborators{})
		require.NoError(t, aggregateError)
		assert.Equal(t, 1, report.Summary.TotalSections)
	}
	assert.NotContains(t, readFile(t, filepath.Join(baseDirectory, "context.md")), "context.md")
}

func TestAggregateClonedRepository(t *testing.T) {
	cloneDirectory := t.TempDir()
	writeFiles(t, cloneDirectory, map[string]string{"src/lib.go": "package lib\n"})
	outputDirectory := t.TempDir()
	core, recorded := observer.New(zapcore.InfoLevel)

	report, aggregateError := commands.Aggregate(commands.Options{
		RepositoryURL: "https://github.com/example/project.git",
		OutputPath:    filepath.Join(outputDirectory, "out.txt"),
		MaxTokens:     types.Unbounded,
	}, commands.Collaborators{Cloner: stubCloner{directory: cloneDirectory}, Logger: zap.New(core)})
	require.NoError(t, aggregateError)
	assert.Equal(t, "./project", report.Summary.DisplayBaseDirectory)

	primary := readFile(t, filepath.Join(outputDirectory, "out.txt"))
	assert.Contains(t, primary, "Base directory: ./project\n")
	assert.Contains(t, primary, "└── src\n    └── lib.go\n")
	assert.Contains(t, primary, "File: ./src/lib.go\n")

	_, statError := os.Stat(cloneDirectory)
	assert.True(t, os.IsNotExist(statError))
	assert.Equal(t, 1, recorded.FilterMessage("Cloning repository").Len())
	assert.Equal(t, 1, recorded.FilterMessage("Cleaned up temporary repository directory").Len())
}

func TestAggregateConfigurationErrors(t *testing.T) {
	existingDirectory := t.TempDir()
	writeFiles(t, existingDirectory, map[string]string{"plain.txt": "x"})
	testCases := []struct {
		name    string
		options commands.Options
		target  error
	}{
		{
			name:    "missing_directory",
			options: commands.Options{Directory: filepath.Join(existingDirectory, "absent"), MaxTokens: types.Unbounded},
			target:  commands.ErrDirectoryNotFound,
		},
		{
			name:    "file_as_directory",
			options: commands.Options{Directory: filepath.Join(existingDirectory, "plain.txt"), MaxTokens: types.Unbounded},
			target:  commands.ErrDirectoryNotFound,
		},
		{
			name:    "invalid_pattern",
			options: commands.Options{Directory: existingDirectory, IncludePattern: "(", MaxTokens: types.Unbounded},
			target:  types.ErrConfiguration,
		},
		{
			name:    "negative_ceiling",
			options: commands.Options{Directory: existingDirectory, MaxTokens: -5},
			target:  chunker.ErrInvalidCeiling,
		},
		{
			name:    "zero_ceiling",
			options: commands.Options{Directory: existingDirectory},
			target:  chunker.ErrInvalidCeiling,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			testCase.options.OutputPath = filepath.Join(t.TempDir(), "out.txt")
			_, aggregateError := commands.Aggregate(testCase.options, commands.Collaborators{})
			require.Error(t, aggregateError)
			assert.ErrorIs(t, aggregateError, testCase.target)
			assert.ErrorIs(t, aggregateError, types.ErrConfiguration)
		})
	}
}

func TestAggregateNoFilesWritesNothing(t *testing.T) {
	baseDirectory := t.TempDir()
	writeFiles(t, baseDirectory, map[string]string{"notes.md": "x"})
	outputPath := filepath.Join(t.TempDir(), "out.txt")
	_, aggregateError := commands.Aggregate(commands.Options{
		Directory:      baseDirectory,
		IncludePattern: `\.go$`,
		OutputPath:     outputPath,
		MaxTokens:      types.Unbounded,
	}, commands.Collaborators{})
	require.ErrorIs(t, aggregateError, commands.ErrNoFiles)
	_, statError := os.Stat(outputPath)
	assert.True(t, os.IsNotExist(statError))
}

func TestAggregateCloneFailure(t *testing.T) {
	cloneFailure := &source.CloneError{URL: "https://example.invalid/repo.git", Err: errors.New("exit status 128")}
	_, aggregateError := commands.Aggregate(commands.Options{
		RepositoryURL: cloneFailure.URL,
		OutputPath:    filepath.Join(t.TempDir(), "out.txt"),
		MaxTokens:     types.Unbounded,
	}, commands.Collaborators{Cloner: stubCloner{err: cloneFailure}})
	var typedError *source.CloneError
	require.True(t, errors.As(aggregateError, &typedError))
	assert.Equal(t, cloneFailure.URL, typedError.URL)
}

func TestAggregateClipboardFailureIsNotFatal(t *testing.T) {
	baseDirectory := t.TempDir()
	writeFiles(t, baseDirectory, map[string]string{shortFileName: shortFileContent})
	core, recorded := observer.New(zapcore.InfoLevel)
	_, aggregateError := commands.Aggregate(commands.Options{
		Directory:       baseDirectory,
		OutputPath:      filepath.Join(t.TempDir(), "out.txt"),
		CopyToClipboard: true,
		MaxTokens:       types.Unbounded,
	}, commands.Collaborators{Copier: &stubCopier{err: errors.New("no clipboard")}, Logger: zap.New(core)})
	require.NoError(t, aggregateError)
	assert.Equal(t, 1, recorded.FilterMessage("failed to copy output to clipboard").Len())
}

func TestAggregateIncludeGitKeepsRepositoryDirectory(t *testing.T) {
	baseDirectory := t.TempDir()
	writeFiles(t, baseDirectory, map[string]string{
		shortFileName: shortFileContent,
		".git/HEAD":   "ref: refs/heads/main\n",
	})
	for _, includeGit := range []bool{false, true} {
		report, aggregateError := commands.Aggregate(commands.Options{
			Directory:  baseDirectory,
			OutputPath: filepath.Join(t.TempDir(), "out.txt"),
			IncludeGit: includeGit,
			MaxTokens:  types.Unbounded,
		}, commands.Collaborators{})
		require.NoError(t, aggregateError)
		expectedSections := 1
		if includeGit {
			expectedSections = 2
		}
		assert.Equal(t, expectedSections, report.Summary.TotalSections)
	}
}
