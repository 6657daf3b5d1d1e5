package model

import (
	"sort"
	"strings"
)

// Flatten returns every node of the tree in pre-order: each node comes
// before its descendants and siblings keep their original order.
func Flatten(roots []Node) []Node {
	result := make([]Node, 0, Count(roots))

	var walk func([]Node)
	walk = func(nodes []Node) {
		for _, n := range nodes {
			result = append(result, n)
			if n.Children != nil {
				walk(n.Children)
			}
		}
	}
	walk(roots)

	return result
}

// Count returns the total number of nodes in the tree.
func Count(roots []Node) int {
	total := 0
	for _, n := range roots {
		total += 1 + Count(n.Children)
	}
	return total
}

// Links keeps only link nodes, preserving order.
func Links(nodes []Node) []Node {
	result := []Node{}
	for _, n := range nodes {
		if n.IsLink() {
			result = append(result, n)
		}
	}
	return result
}

// Folders keeps only folder nodes, preserving order.
func Folders(nodes []Node) []Node {
	result := []Node{}
	for _, n := range nodes {
		if n.IsFolder() {
			result = append(result, n)
		}
	}
	return result
}

// Find returns the node with the given id, or nil if it is not in the tree.
// The returned pointer aliases the tree.
func Find(roots []Node, id string) *Node {
	for i := range roots {
		if roots[i].ID == id {
			return &roots[i]
		}
		if found := Find(roots[i].Children, id); found != nil {
			return found
		}
	}
	return nil
}

// SortNodes sorts nodes in place by the given order. dateAdded sorts newest
// first; title and url sort alphabetically, ignoring case. The sort is
// stable so equal keys keep their tree order.
func SortNodes(nodes []Node, order SortOrder) {
	var less func(a, b Node) bool
	switch order {
	case SortByTitle:
		less = func(a, b Node) bool {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	case SortByURL:
		less = func(a, b Node) bool {
			return strings.ToLower(a.URL) < strings.ToLower(b.URL)
		}
	default:
		less = func(a, b Node) bool {
			return a.DateAdded > b.DateAdded
		}
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		return less(nodes[i], nodes[j])
	})
}

// Recent returns up to limit links of tree, newest first. Links added at the
// same time keep their tree order. A limit of zero or less returns them all.
func Recent(tree []Node, limit int) []Node {
	links := Links(Flatten(tree))
	SortNodes(links, SortByDateAdded)
	if limit > 0 && len(links) > limit {
		links = links[:limit]
	}
	return links
}
