package storage

import (
	"net/url"

	"github.com/nikbrunner/linksaver/internal/model"
)

// seedRoots returns the root layout of an empty profile.
func seedRoots(now int64) []model.Node {
	return []model.Node{
		{
			ID:        model.RootID,
			Title:     "",
			DateAdded: now,
			Children: []model.Node{
				{
					ID: model.BookmarksBarID, ParentID: model.RootID, Index: model.IntPtr(0),
					Title: "Bookmarks Bar", DateAdded: now, Children: []model.Node{},
				},
				{
					ID: model.OtherBookmarksID, ParentID: model.RootID, Index: model.IntPtr(1),
					Title: "Other Bookmarks", DateAdded: now, Children: []model.Node{},
				},
			},
		},
	}
}

// clone deep-copies nodes so callers never alias the live tree.
func clone(nodes []model.Node) []model.Node {
	if nodes == nil {
		return nil
	}
	out := make([]model.Node, len(nodes))
	for i, n := range nodes {
		out[i] = cloneNode(n)
	}
	return out
}

func cloneNode(n model.Node) model.Node {
	if n.Index != nil {
		n.Index = model.IntPtr(*n.Index)
	}
	n.Children = clone(n.Children)
	return n
}

// shallow copies a node without its descendants.
func shallow(n model.Node) model.Node {
	return cloneNode(n.Shallow())
}

// findParent returns the folder containing id and the child's position.
func findParent(roots []model.Node, id string) (*model.Node, int) {
	for i := range roots {
		for j := range roots[i].Children {
			if roots[i].Children[j].ID == id {
				return &roots[i], j
			}
		}
		if parent, pos := findParent(roots[i].Children, id); parent != nil {
			return parent, pos
		}
	}
	return nil, -1
}

// isDescendant reports whether id is n itself or anywhere below it.
func isDescendant(n model.Node, id string) bool {
	if n.ID == id {
		return true
	}
	for _, c := range n.Children {
		if isDescendant(c, id) {
			return true
		}
	}
	return false
}

// reindex fixes parent ids and positions of a folder's direct children.
func reindex(parent *model.Node) {
	for i := range parent.Children {
		parent.Children[i].ParentID = parent.ID
		parent.Children[i].Index = model.IntPtr(i)
	}
}

// insertAt places n in parent's children. A nil index appends.
func insertAt(parent *model.Node, n model.Node, index *int) (int, error) {
	pos := len(parent.Children)
	if index != nil {
		if *index < 0 || *index > len(parent.Children) {
			return 0, ErrInvalidIndex
		}
		pos = *index
	}

	parent.Children = append(parent.Children, model.Node{})
	copy(parent.Children[pos+1:], parent.Children[pos:])
	parent.Children[pos] = n
	reindex(parent)

	return pos, nil
}

// removeAt drops the child at pos and returns it.
func removeAt(parent *model.Node, pos int) model.Node {
	removed := parent.Children[pos]
	parent.Children = append(parent.Children[:pos], parent.Children[pos+1:]...)
	reindex(parent)
	return removed
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != ""
}
