package commands

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/llm-fuse/internal/chunker"
	"github.com/temirov/llm-fuse/internal/loader"
	"github.com/temirov/llm-fuse/internal/types"
)

const (
	skippingFileMessage  = "skipping file"
	sectionsReadyMessage = "Processed file sections"
	errorChunkFileFormat = "chunking %s: %w"
)

// ContentLoader loads one candidate, reporting problems as a skipped result.
type ContentLoader interface {
	Load(candidate types.Candidate) loader.Result
}

// Processed holds the sections produced from the candidates and their token total.
type Processed struct {
	Sections     []types.Section
	TotalTokens  int
	SkippedFiles int
}

// ProcessFiles loads every candidate in order and splits its content at maxTokens.
// Skipped files are logged at warn level and left out of the result.
func ProcessFiles(candidates []types.Candidate, contentLoader ContentLoader, maxTokens int, logger *zap.Logger) (Processed, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ceilingError := chunker.ValidateCeiling(maxTokens); ceilingError != nil {
		return Processed{}, ceilingError
	}

	var processed Processed
	for _, candidate := range candidates {
		result := contentLoader.Load(candidate)
		if !result.IsIncluded() {
			logger.Warn(skippingFileMessage, zap.String(pathFieldName, candidate.AbsolutePath), zap.String(reasonFieldName, result.Reason))
			processed.SkippedFiles++
			continue
		}
		sections, splitError := chunker.Split(candidate.AbsolutePath, result.Content, maxTokens)
		if splitError != nil {
			return Processed{}, fmt.Errorf(errorChunkFileFormat, candidate.AbsolutePath, splitError)
		}
		for _, section := range sections {
			processed.TotalTokens += section.Tokens
		}
		processed.Sections = append(processed.Sections, sections...)
	}
	logger.Info(sectionsReadyMessage, zap.Int(sectionsFieldName, len(processed.Sections)), zap.Int(tokensFieldName, processed.TotalTokens))
	return processed, nil
}

var _ ContentLoader = (*loader.Loader)(nil)
