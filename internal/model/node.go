package model

import (
	"encoding/json"
	"errors"
	"strings"
)

// Well-known ids of the root layout every bookmark store starts with.
const (
	RootID           = "0"
	BookmarksBarID   = "1"
	OtherBookmarksID = "2"
)

// Node is a single entry of the bookmark tree: a link when URL is set,
// otherwise a folder.
type Node struct {
	ID                string `json:"id"`
	ParentID          string `json:"parentId,omitempty"`
	Index             *int   `json:"index,omitempty"`
	Title             string `json:"title"`
	URL               string `json:"url,omitempty"`
	DateAdded         int64  `json:"dateAdded,omitempty"`         // epoch ms
	DateGroupModified int64  `json:"dateGroupModified,omitempty"` // epoch ms
	Children          []Node `json:"children,omitempty"`
}

// IsLink reports whether the node points somewhere.
func (n Node) IsLink() bool {
	return n.URL != ""
}

// IsFolder reports whether the node is a container. Empty folders are
// still folders.
func (n Node) IsFolder() bool {
	return !n.IsLink()
}

// IsRoot reports whether the node is one of the fixed root containers.
func (n Node) IsRoot() bool {
	return n.ID == RootID || n.ParentID == RootID
}

// MarshalJSON keeps an empty children array distinct from a missing one.
func (n Node) MarshalJSON() ([]byte, error) {
	type plain Node
	out := struct {
		plain
		Children *[]Node `json:"children,omitempty"`
	}{plain: plain(n)}
	if n.Children != nil {
		out.Children = &n.Children
	}
	return json.Marshal(out)
}

// Shallow returns a copy of the node without its descendants.
func (n Node) Shallow() Node {
	n.Children = nil
	return n
}

// IntPtr is a small helper for optional indexes.
func IntPtr(i int) *int {
	return &i
}

// ErrInvalidTree is returned when data is neither a node array nor an
// upload envelope.
var ErrInvalidTree = errors.New("invalid bookmark tree")

// DecodeTree parses a bookmark snapshot. Both a bare array of roots and the
// {"bookmarks": [...]} envelope are accepted.
func DecodeTree(data []byte) ([]Node, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, ErrInvalidTree
	}

	if trimmed[0] == '{' {
		var envelope struct {
			Bookmarks json.RawMessage `json:"bookmarks"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, errors.Join(ErrInvalidTree, err)
		}
		if len(envelope.Bookmarks) == 0 {
			return nil, ErrInvalidTree
		}
		return DecodeTree(envelope.Bookmarks)
	}

	var nodes []Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, errors.Join(ErrInvalidTree, err)
	}
	if nodes == nil {
		nodes = []Node{}
	}
	return nodes, nil
}
