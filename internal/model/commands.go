package model

// CreateDetails describes a new bookmark or folder. An empty URL creates a
// folder.
type CreateDetails struct {
	ParentID string `json:"parentId,omitempty"`
	Index    *int   `json:"index,omitempty"`
	Title    string `json:"title,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Changes holds the editable fields of a node. Nil fields are left alone.
type Changes struct {
	Title *string `json:"title,omitempty"`
	URL   *string `json:"url,omitempty"`
}

// Destination is the target of a move. An empty ParentID keeps the current
// parent; a nil Index appends.
type Destination struct {
	ParentID string `json:"parentId,omitempty"`
	Index    *int   `json:"index,omitempty"`
}
