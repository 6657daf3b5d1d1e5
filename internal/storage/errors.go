package storage

import "errors"

// Errors reported by the bookmark store. The messages match what browsers
// report so callers can show them unchanged.
var (
	ErrNotFound           = errors.New("Can't find bookmark for id.")
	ErrParentNotFound     = errors.New("Can't find parent bookmark for id.")
	ErrModifyRoot         = errors.New("Can't modify the root bookmark folders.")
	ErrNonEmptyFolder     = errors.New("Can't remove non-empty folder (use recursive to force).")
	ErrFolderURL          = errors.New("Can't set URL of a bookmark folder.")
	ErrParentNotFolder    = errors.New("Parameter 'parentId' does not specify a folder.")
	ErrMoveIntoDescendant = errors.New("Can't move a folder to its own descendant.")
	ErrInvalidURL         = errors.New("Invalid URL.")
	ErrInvalidIndex       = errors.New("Index out of bounds.")
)
