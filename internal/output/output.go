// Package output renders aggregated sections into the primary and secondary output documents.
package output

import (
	"fmt"
	"strings"

	"github.com/temirov/llm-fuse/internal/types"
	"github.com/temirov/llm-fuse/internal/utils"
)

const (
	headerTitle          = "LLM Fuse Aggregation Output"
	headerUnderline      = "==============================="
	baseDirectoryFormat  = "Base directory: %s\n"
	totalSectionsFormat  = "Total files (or chunks) processed: %d\n"
	totalTokensFormat    = "Total approximate tokens: %d\n"
	diagramTitle         = "File System Diagram:"
	diagramUnderline     = "---------------------"
	sectionSeparatorLine = "--------------------------------------------------"
	sectionFileFormat    = "File: %s%s\n"
	sectionTokensFormat  = "Approx. tokens: %d\n"
	chunkLabelFormat     = " (Chunk %d of %d)"
	relativePathPrefix   = "./"
	lineBreak            = "\n"
)

// RenderHeader returns the summary block and file system diagram of the primary document,
// including the blank line that separates them from the first section.
func RenderHeader(summary types.RunSummary, diagramLines []string) string {
	var builder strings.Builder
	builder.WriteString(headerTitle + lineBreak)
	builder.WriteString(headerUnderline + lineBreak)
	fmt.Fprintf(&builder, baseDirectoryFormat, summary.DisplayBase())
	fmt.Fprintf(&builder, totalSectionsFormat, summary.TotalSections)
	fmt.Fprintf(&builder, totalTokensFormat, summary.TotalTokens)
	builder.WriteString(lineBreak)
	builder.WriteString(diagramTitle + lineBreak)
	builder.WriteString(diagramUnderline + lineBreak)
	for _, line := range diagramLines {
		builder.WriteString(line + lineBreak)
	}
	builder.WriteString(lineBreak)
	return builder.String()
}

// RenderSection returns the banner, raw content and trailing blank line of one section.
func RenderSection(section types.Section, baseDirectory string) string {
	var builder strings.Builder
	chunkLabel := ""
	if section.IsChunked() {
		chunkLabel = fmt.Sprintf(chunkLabelFormat, section.Index(), section.ChunkCount)
	}
	builder.WriteString(sectionSeparatorLine + lineBreak)
	fmt.Fprintf(&builder, sectionFileFormat, DisplayPath(section.SourcePath, baseDirectory), chunkLabel)
	fmt.Fprintf(&builder, sectionTokensFormat, section.Tokens)
	builder.WriteString(sectionSeparatorLine + lineBreak)
	builder.WriteString(section.Content)
	builder.WriteString(lineBreak + lineBreak)
	return builder.String()
}

// DisplayPath renders sourcePath relative to baseDirectory in forward-slash form prefixed with "./".
func DisplayPath(sourcePath string, baseDirectory string) string {
	return relativePathPrefix + utils.RelativePathOrSelf(sourcePath, baseDirectory)
}
