// Package tree folds relative file paths into a directory hierarchy and renders it as a diagram.
package tree

import (
	"errors"
	"fmt"
	"strings"
)

// Separator is the only path separator understood by Build.
const Separator = "/"

// ErrPathConflict is returned when one name is used both as a file and as a directory.
var ErrPathConflict = errors.New("path is both a file and a directory")

const errorConflictFormat = "%s: %w"

// Node is a directory when Children is non-nil and a file otherwise.
type Node struct {
	Children map[string]*Node
}

// NewDirectory returns an empty directory node.
func NewDirectory() *Node {
	return &Node{Children: map[string]*Node{}}
}

// NewFile returns a file node.
func NewFile() *Node {
	return &Node{}
}

// IsFile reports whether the node is a leaf.
func (node *Node) IsFile() bool {
	return node.Children == nil
}

// Build returns the root directory for the given slash separated paths.
// Shared prefixes share interior nodes and duplicate paths collapse, so the
// result does not depend on input order.
func Build(paths []string) (*Node, error) {
	root := NewDirectory()
	for _, path := range paths {
		if insertError := root.insert(path); insertError != nil {
			return nil, insertError
		}
	}
	return root, nil
}

func (node *Node) insert(path string) error {
	segments := splitSegments(path)
	current := node
	for segmentIndex, segment := range segments {
		child, exists := current.Children[segment]
		isLastSegment := segmentIndex == len(segments)-1
		if isLastSegment {
			if exists && !child.IsFile() {
				return fmt.Errorf(errorConflictFormat, path, ErrPathConflict)
			}
			current.Children[segment] = NewFile()
			return nil
		}
		if !exists {
			child = NewDirectory()
			current.Children[segment] = child
		} else if child.IsFile() {
			return fmt.Errorf(errorConflictFormat, path, ErrPathConflict)
		}
		current = child
	}
	return nil
}

// splitSegments drops empty and "." segments produced by leading "./" or doubled separators.
func splitSegments(path string) []string {
	rawSegments := strings.Split(path, Separator)
	segments := make([]string, 0, len(rawSegments))
	for _, segment := range rawSegments {
		if segment == "" || segment == "." {
			continue
		}
		segments = append(segments, segment)
	}
	return segments
}
