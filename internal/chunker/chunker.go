// Package chunker splits file content that exceeds a token ceiling into bounded sections.
package chunker

import (
	"errors"
	"fmt"

	"github.com/temirov/llm-fuse/internal/tokenizer"
	"github.com/temirov/llm-fuse/internal/types"
)

// ErrInvalidCeiling is returned for zero or negative token ceilings.
var ErrInvalidCeiling = fmt.Errorf("%w: token ceiling must be positive", types.ErrConfiguration)

const errorInvalidCeilingFormat = "max tokens %d: %w"

// ValidateCeiling reports whether maxTokens is usable as a ceiling.
// Pass types.Unbounded to disable splitting.
func ValidateCeiling(maxTokens int) error {
	if maxTokens <= 0 {
		return fmt.Errorf(errorInvalidCeilingFormat, maxTokens, ErrInvalidCeiling)
	}
	return nil
}

// Split returns the sections for content read from sourcePath.
// Content within the ceiling yields a single section; larger content is cut into
// consecutive slices of at most maxTokens*4 code points, each estimated on its own.
func Split(sourcePath string, content string, maxTokens int) ([]types.Section, error) {
	if ceilingError := ValidateCeiling(maxTokens); ceilingError != nil {
		return nil, ceilingError
	}
	totalTokens := tokenizer.Estimate(content)
	if totalTokens <= maxTokens {
		return []types.Section{{
			SourcePath: sourcePath,
			Content:    content,
			Tokens:     totalTokens,
			ChunkIndex: types.FirstChunkIndex,
			ChunkCount: 1,
		}}, nil
	}

	pieces := slicePieces(content, tokenizer.CharacterBudget(maxTokens))
	sections := make([]types.Section, 0, len(pieces))
	for pieceIndex, piece := range pieces {
		sections = append(sections, types.Section{
			SourcePath: sourcePath,
			Content:    piece,
			Tokens:     tokenizer.Estimate(piece),
			ChunkIndex: pieceIndex + 1,
			ChunkCount: len(pieces),
		})
	}
	return sections, nil
}

// slicePieces cuts content into runs of at most maxCharacters code points without copying.
func slicePieces(content string, maxCharacters int) []string {
	var pieces []string
	pieceStart := 0
	charactersInPiece := 0
	for byteOffset := range content {
		if charactersInPiece == maxCharacters {
			pieces = append(pieces, content[pieceStart:byteOffset])
			pieceStart = byteOffset
			charactersInPiece = 0
		}
		charactersInPiece++
	}
	if pieceStart < len(content) {
		pieces = append(pieces, content[pieceStart:])
	}
	return pieces
}

// IsInvalidCeiling reports whether err was caused by an unusable token ceiling.
func IsInvalidCeiling(err error) bool {
	return errors.Is(err, ErrInvalidCeiling)
}
