// Package types defines every cross‑package data structure used by the llm-fuse CLI.
package types

import (
	"errors"
	"math"
)

const (
	// FirstChunkIndex is the chunk index of unsplit files and of the primary output document.
	FirstChunkIndex = 1
	// Unbounded is the ceiling used when no max tokens value is configured; no content reaches it.
	Unbounded = math.MaxInt
	// DefaultOutputFileName is the primary output document written when no name is configured.
	DefaultOutputFileName = "output.txt"
)

// ErrConfiguration marks errors caused by invalid user supplied settings.
var ErrConfiguration = errors.New("configuration error")

// Section is one emitted content unit: a whole file or one chunk of a split file.
type Section struct {
	SourcePath string
	Content    string
	Tokens     int
	ChunkIndex int
	ChunkCount int
}

// Index returns the chunk index, treating an unset index as the first chunk.
func (section Section) Index() int {
	if section.ChunkIndex < FirstChunkIndex {
		return FirstChunkIndex
	}
	return section.ChunkIndex
}

// IsChunked reports whether the section is one of several pieces of its source file.
func (section Section) IsChunked() bool {
	return section.ChunkCount > 1
}

// RunSummary aggregates the totals reported in the primary output document.
type RunSummary struct {
	TotalSections        int
	TotalTokens          int
	BaseDirectory        string
	DisplayBaseDirectory string
}

// DisplayBase returns the label printed in the header, falling back to the base directory.
func (summary RunSummary) DisplayBase() string {
	if summary.DisplayBaseDirectory != "" {
		return summary.DisplayBaseDirectory
	}
	return summary.BaseDirectory
}

// Candidate is a file discovered under the base directory that may be aggregated.
type Candidate struct {
	// AbsolutePath is the operating system path the include and exclude patterns are matched against.
	AbsolutePath string
	// RelativePath is the slash separated path relative to the base directory.
	RelativePath string
}
