// Package tokenizer approximates the number of language model tokens in text.
package tokenizer

import "unicode/utf8"

// CharactersPerToken is the fixed number of Unicode code points assumed to make up one token.
const CharactersPerToken = 4

// Estimate returns ceil(codePoints/CharactersPerToken) for text.
// Code points are counted rather than bytes so that the estimate and the chunk
// boundaries derived from it never split a multi-byte character.
func Estimate(text string) int {
	return EstimateCharacters(utf8.RuneCountInString(text))
}

// EstimateCharacters converts a code point count into a token estimate.
func EstimateCharacters(characterCount int) int {
	if characterCount <= 0 {
		return 0
	}
	return (characterCount + CharactersPerToken - 1) / CharactersPerToken
}

// CharacterBudget returns the number of code points that fit into maxTokens tokens.
func CharacterBudget(maxTokens int) int {
	return maxTokens * CharactersPerToken
}
