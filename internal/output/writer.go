package output

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"go.uber.org/zap"

	"github.com/temirov/llm-fuse/internal/tree"
	"github.com/temirov/llm-fuse/internal/types"
	"github.com/temirov/llm-fuse/internal/utils"
)

const (
	chunkSuffixSeparator = "_"

	writeErrorFormat      = "writing output file '%s': %v"
	diagramErrorFormat    = "building file system diagram: %w"
	outputWrittenMessage  = "Output written to"
	outputTargetFieldName = "path"
)

// WriteError reports an output document that could not be created or written.
type WriteError struct {
	Target string
	Err    error
}

func (writeError *WriteError) Error() string {
	return fmt.Sprintf(writeErrorFormat, writeError.Target, writeError.Err)
}

func (writeError *WriteError) Unwrap() error {
	return writeError.Err
}

// Group holds the sections sharing one chunk index.
type Group struct {
	ChunkIndex int
	Sections   []types.Section
}

// IsPrimary reports whether the group is written to the primary document.
func (group Group) IsPrimary() bool {
	return group.ChunkIndex == types.FirstChunkIndex
}

// Document is one rendered output file.
type Document struct {
	Name       string
	ChunkIndex int
	Content    string
}

// GroupSections partitions sections by chunk index in ascending index order.
// Sections keep their discovery order inside each group.
func GroupSections(sections []types.Section) []Group {
	positions := map[int]int{}
	var groups []Group
	for _, section := range sections {
		chunkIndex := section.Index()
		position, exists := positions[chunkIndex]
		if !exists {
			position = len(groups)
			positions[chunkIndex] = position
			groups = append(groups, Group{ChunkIndex: chunkIndex})
		}
		groups[position].Sections = append(groups[position].Sections, section)
	}
	sort.SliceStable(groups, func(left, right int) bool {
		return groups[left].ChunkIndex < groups[right].ChunkIndex
	})
	return groups
}

// DocumentName returns the file name for the given chunk index. Index 1 keeps target;
// later indexes insert "_<index>" before the extension of the file name.
func DocumentName(target string, chunkIndex int) string {
	if chunkIndex <= types.FirstChunkIndex {
		return target
	}
	directory, fileName := splitDirectory(target)
	stem, extension := splitExtension(fileName)
	return directory + stem + chunkSuffixSeparator + strconv.Itoa(chunkIndex) + extension
}

func splitDirectory(target string) (string, string) {
	separatorIndex := strings.LastIndexAny(target, `/`+string(filepath.Separator))
	return target[:separatorIndex+1], target[separatorIndex+1:]
}

// splitExtension treats leading dots as part of the stem, so ".env" has no extension.
func splitExtension(fileName string) (string, string) {
	nameStart := 0
	for nameStart < len(fileName) && fileName[nameStart] == '.' {
		nameStart++
	}
	dotIndex := strings.LastIndex(fileName[nameStart:], ".")
	if dotIndex < 0 {
		return fileName, ""
	}
	dotIndex += nameStart
	return fileName[:dotIndex], fileName[dotIndex:]
}

// IsDocumentPath reports whether path is the primary document target or one of its numbered siblings.
func IsDocumentPath(target string, path string) bool {
	cleanTarget := filepath.Clean(target)
	cleanPath := filepath.Clean(path)
	if cleanPath == cleanTarget {
		return true
	}
	if filepath.Dir(cleanPath) != filepath.Dir(cleanTarget) {
		return false
	}
	targetName := filepath.Base(cleanTarget)
	stem, extension := splitExtension(targetName)
	prefix := stem + chunkSuffixSeparator
	name := filepath.Base(cleanPath)
	if len(name) <= len(prefix)+len(extension) || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, extension) {
		return false
	}
	chunkIndex, parseError := strconv.Atoi(name[len(prefix) : len(name)-len(extension)])
	if parseError != nil || chunkIndex <= types.FirstChunkIndex {
		return false
	}
	return DocumentName(targetName, chunkIndex) == name
}

// DiagramPaths returns the distinct original paths of sections relative to baseDirectory.
func DiagramPaths(sections []types.Section, baseDirectory string) []string {
	seen := map[string]struct{}{}
	var paths []string
	for _, section := range sections {
		relativePath := utils.RelativePathOrSelf(section.SourcePath, baseDirectory)
		if _, exists := seen[relativePath]; exists {
			continue
		}
		seen[relativePath] = struct{}{}
		paths = append(paths, relativePath)
	}
	return paths
}

// BuildDocuments renders every output document. The primary document is always
// present and is the only one carrying the header and diagram.
func BuildDocuments(sections []types.Section, summary types.RunSummary, target string) ([]Document, error) {
	root, buildError := tree.Build(DiagramPaths(sections, summary.BaseDirectory))
	if buildError != nil {
		return nil, fmt.Errorf(diagramErrorFormat, buildError)
	}
	diagramLines := tree.Render(root)

	groups := GroupSections(sections)
	if len(groups) == 0 || !groups[0].IsPrimary() {
		groups = append([]Group{{ChunkIndex: types.FirstChunkIndex}}, groups...)
	}

	documents := make([]Document, 0, len(groups))
	for _, group := range groups {
		var builder strings.Builder
		if group.IsPrimary() {
			builder.WriteString(RenderHeader(summary, diagramLines))
		}
		for _, section := range group.Sections {
			builder.WriteString(RenderSection(section, summary.BaseDirectory))
		}
		documents = append(documents, Document{
			Name:       DocumentName(target, group.ChunkIndex),
			ChunkIndex: group.ChunkIndex,
			Content:    builder.String(),
		})
	}
	return documents, nil
}

// Writer persists output documents to a filesystem.
type Writer struct {
	filesystem billy.Filesystem
	logger     *zap.Logger
}

// NewWriter returns a Writer creating documents in filesystem.
func NewWriter(filesystem billy.Filesystem, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{filesystem: filesystem, logger: logger}
}

// WriteDocuments renders and writes all documents for sections, stopping at the first
// failure. Documents written before a failure are left in place.
func (writer *Writer) WriteDocuments(sections []types.Section, summary types.RunSummary, target string) ([]Document, error) {
	documents, buildError := BuildDocuments(sections, summary, target)
	if buildError != nil {
		return nil, buildError
	}
	for documentIndex, document := range documents {
		if writeError := writer.writeDocument(document); writeError != nil {
			return documents[:documentIndex], writeError
		}
		writer.logger.Info(outputWrittenMessage, zap.String(outputTargetFieldName, document.Name))
	}
	return documents, nil
}

func (writer *Writer) writeDocument(document Document) (err error) {
	fileHandle, createError := writer.filesystem.Create(document.Name)
	if createError != nil {
		return &WriteError{Target: document.Name, Err: createError}
	}
	defer func() {
		if closeError := fileHandle.Close(); closeError != nil && err == nil {
			err = &WriteError{Target: document.Name, Err: closeError}
		}
	}()
	if _, writeError := fileHandle.Write([]byte(document.Content)); writeError != nil {
		return &WriteError{Target: document.Name, Err: writeError}
	}
	return nil
}
