// Package filter selects candidate paths using include and exclude regular expressions.
package filter

import (
	"fmt"
	"regexp"

	"github.com/temirov/llm-fuse/internal/types"
)

const (
	// IncludeKind names the include pattern in errors.
	IncludeKind = "include"
	// ExcludeKind names the exclude pattern in errors.
	ExcludeKind = "exclude"

	patternErrorFormat = "invalid %s pattern %q: %v"
)

// PatternError reports a regular expression that failed to compile.
type PatternError struct {
	Kind    string
	Pattern string
	Err     error
}

func (patternError *PatternError) Error() string {
	return fmt.Sprintf(patternErrorFormat, patternError.Kind, patternError.Pattern, patternError.Err)
}

// Unwrap exposes the configuration sentinel so callers can classify the failure.
func (patternError *PatternError) Unwrap() []error {
	return []error{types.ErrConfiguration, patternError.Err}
}

// Filter holds compiled include and exclude patterns. A nil pattern is absent.
type Filter struct {
	include *regexp.Regexp
	exclude *regexp.Regexp
}

// Compile builds a Filter. Empty pattern strings are treated as absent.
func Compile(includePattern string, excludePattern string) (*Filter, error) {
	includeExpression, includeError := compileOptional(IncludeKind, includePattern)
	if includeError != nil {
		return nil, includeError
	}
	excludeExpression, excludeError := compileOptional(ExcludeKind, excludePattern)
	if excludeError != nil {
		return nil, excludeError
	}
	return &Filter{include: includeExpression, exclude: excludeExpression}, nil
}

func compileOptional(kind string, pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	expression, compileError := regexp.Compile(pattern)
	if compileError != nil {
		return nil, &PatternError{Kind: kind, Pattern: pattern, Err: compileError}
	}
	return expression, nil
}

// Matches reports whether path passes both patterns. Patterns are searched anywhere in the path.
func (pathFilter *Filter) Matches(path string) bool {
	if pathFilter == nil {
		return true
	}
	if pathFilter.include != nil && !pathFilter.include.MatchString(path) {
		return false
	}
	if pathFilter.exclude != nil && pathFilter.exclude.MatchString(path) {
		return false
	}
	return true
}

// Apply returns the paths that pass the filter, preserving input order.
func (pathFilter *Filter) Apply(paths []string) []string {
	filtered := make([]string, 0, len(paths))
	for _, path := range paths {
		if pathFilter.Matches(path) {
			filtered = append(filtered, path)
		}
	}
	return filtered
}
