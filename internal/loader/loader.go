// Package loader reads candidate files as text, reporting unreadable or binary files as skipped.
//
// A file is text when its sniffed prefix and full content are valid UTF-8. A NUL byte in the
// prefix also marks the file as binary even though NUL is valid UTF-8; text files holding NUL
// bytes are therefore skipped.
package loader

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	billy "github.com/go-git/go-billy/v5"

	"github.com/temirov/llm-fuse/internal/types"
	"github.com/temirov/llm-fuse/internal/utils"
)

const (
	reasonBinaryFormat      = "not a UTF-8 text file"
	reasonSniffFailedFormat = "unable to inspect file: %v"
	reasonReadFailedFormat  = "unable to read file: %v"
	reasonInvalidTextFormat = "content is not valid UTF-8"
)

// Outcome distinguishes loaded files from skipped ones.
type Outcome int

const (
	// Included means Content holds the full file text.
	Included Outcome = iota
	// Skipped means the file was left out; Reason explains why.
	Skipped
)

// Result is the outcome of loading one candidate.
type Result struct {
	Candidate types.Candidate
	Outcome   Outcome
	Content   string
	Reason    string
}

// IsIncluded reports whether the candidate was loaded.
func (result Result) IsIncluded() bool {
	return result.Outcome == Included
}

// Loader reads candidates from a filesystem rooted at the base directory.
type Loader struct {
	filesystem billy.Filesystem
}

// New returns a Loader reading relative candidate paths from filesystem.
func New(filesystem billy.Filesystem) *Loader {
	return &Loader{filesystem: filesystem}
}

// Load classifies the candidate and, for text files, returns its entire content.
// It never fails: every problem becomes a Skipped result so aggregation can continue.
func (loader *Loader) Load(candidate types.Candidate) Result {
	isText, sniffError := loader.IsText(candidate.RelativePath)
	if sniffError != nil {
		return skipped(candidate, fmt.Sprintf(reasonSniffFailedFormat, sniffError))
	}
	if !isText {
		return skipped(candidate, reasonBinaryFormat)
	}

	content, readError := loader.readAll(candidate.RelativePath)
	if readError != nil {
		return skipped(candidate, fmt.Sprintf(reasonReadFailedFormat, readError))
	}
	if !utf8.Valid(content) {
		return skipped(candidate, reasonInvalidTextFormat)
	}
	return Result{Candidate: candidate, Outcome: Included, Content: string(content)}
}

// IsText reads up to utils.SniffLength bytes of relativePath and reports whether they decode as text.
func (loader *Loader) IsText(relativePath string) (bool, error) {
	fileHandle, openError := loader.filesystem.Open(relativePath)
	if openError != nil {
		return false, openError
	}
	defer fileHandle.Close()

	buffer := make([]byte, utils.SniffLength)
	bytesRead, readError := io.ReadFull(fileHandle, buffer)
	truncated := true
	if readError != nil {
		if !errors.Is(readError, io.EOF) && !errors.Is(readError, io.ErrUnexpectedEOF) {
			return false, readError
		}
		truncated = false
	}
	return !utils.IsBinary(buffer[:bytesRead], truncated), nil
}

func (loader *Loader) readAll(relativePath string) ([]byte, error) {
	fileHandle, openError := loader.filesystem.Open(relativePath)
	if openError != nil {
		return nil, openError
	}
	defer fileHandle.Close()
	return io.ReadAll(fileHandle)
}

func skipped(candidate types.Candidate, reason string) Result {
	return Result{Candidate: candidate, Outcome: Skipped, Reason: reason}
}
