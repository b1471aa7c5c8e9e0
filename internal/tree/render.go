package tree

import (
	"sort"
	"strings"
)

const (
	branchConnector = "├── "
	lastConnector   = "└── "
	branchPadding   = "│   "
	lastPadding     = "    "
)

// Render returns the diagram lines for node's children: directories first, then files,
// each group ordered case-insensitively.
func Render(node *Node) []string {
	var lines []string
	renderChildren(node, "", &lines)
	return lines
}

func renderChildren(node *Node, prefix string, lines *[]string) {
	if node == nil || node.IsFile() {
		return
	}
	names := sortedNames(node)
	for nameIndex, name := range names {
		isLast := nameIndex == len(names)-1
		connector := branchConnector
		childPrefix := prefix + branchPadding
		if isLast {
			connector = lastConnector
			childPrefix = prefix + lastPadding
		}
		*lines = append(*lines, prefix+connector+name)
		child := node.Children[name]
		if !child.IsFile() {
			renderChildren(child, childPrefix, lines)
		}
	}
}

func sortedNames(node *Node) []string {
	names := make([]string, 0, len(node.Children))
	for name := range node.Children {
		names = append(names, name)
	}
	sort.Slice(names, func(left, right int) bool {
		leftIsFile := node.Children[names[left]].IsFile()
		rightIsFile := node.Children[names[right]].IsFile()
		if leftIsFile != rightIsFile {
			return !leftIsFile
		}
		leftFolded := strings.ToLower(names[left])
		rightFolded := strings.ToLower(names[right])
		if leftFolded != rightFolded {
			return leftFolded < rightFolded
		}
		return names[left] < names[right]
	})
	return names
}
