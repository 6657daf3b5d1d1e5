// Package bookmarks wraps the native bookmark store with uniform errors and
// the derived views used by the popup, options page and dashboard.
package bookmarks

import (
	"context"
	"errors"
	"time"

	"github.com/nikbrunner/linksaver/internal/exporter"
	"github.com/nikbrunner/linksaver/internal/model"
)

// DefaultRecentLimit is used by GetRecent when no positive limit is given.
const DefaultRecentLimit = 10

// ErrUnavailable is returned when no native store is present in this
// context. No store call is attempted.
var ErrUnavailable = errors.New("bookmarks API not available")

// Error reports a failed native call. Its message is the store's own.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Native is the host bookmark store.
type Native interface {
	GetTree(ctx context.Context) ([]model.Node, error)
	Get(ctx context.Context, id string) (model.Node, error)
	GetChildren(ctx context.Context, id string) ([]model.Node, error)
	Search(ctx context.Context, query string) ([]model.Node, error)
	Create(ctx context.Context, details model.CreateDetails) (model.Node, error)
	Update(ctx context.Context, id string, changes model.Changes) (model.Node, error)
	Remove(ctx context.Context, id string) error
	RemoveTree(ctx context.Context, id string) error
	Move(ctx context.Context, id string, dest model.Destination) (model.Node, error)
	Import(ctx context.Context, parentID string, nodes []model.Node) (int, error)
}

// Service is the bookmark command façade.
type Service struct {
	native Native
	now    func() time.Time
}

// NewService wraps native. A nil native yields a service whose every call
// fails with ErrUnavailable.
func NewService(native Native) *Service {
	return &Service{native: native, now: time.Now}
}

// Available reports whether a native store is present.
func (s *Service) Available() bool {
	return s.native != nil
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// GetAll returns the full tree.
func (s *Service) GetAll(ctx context.Context) ([]model.Node, error) {
	if s.native == nil {
		return nil, ErrUnavailable
	}
	tree, err := s.native.GetTree(ctx)
	return tree, wrap("getTree", err)
}

// Get returns a single node without its descendants.
func (s *Service) Get(ctx context.Context, id string) (model.Node, error) {
	if s.native == nil {
		return model.Node{}, ErrUnavailable
	}
	node, err := s.native.Get(ctx, id)
	return node, wrap("get", err)
}

// GetChildren returns the direct children of a folder.
func (s *Service) GetChildren(ctx context.Context, id string) ([]model.Node, error) {
	if s.native == nil {
		return nil, ErrUnavailable
	}
	children, err := s.native.GetChildren(ctx, id)
	return children, wrap("getChildren", err)
}

// Search finds links matching every word of query.
func (s *Service) Search(ctx context.Context, query string) ([]model.Node, error) {
	if s.native == nil {
		return nil, ErrUnavailable
	}
	results, err := s.native.Search(ctx, query)
	return results, wrap("search", err)
}

// Create adds a bookmark or folder.
func (s *Service) Create(ctx context.Context, details model.CreateDetails) (model.Node, error) {
	if s.native == nil {
		return model.Node{}, ErrUnavailable
	}
	node, err := s.native.Create(ctx, details)
	return node, wrap("create", err)
}

// CreateFolder adds a folder. An empty parentID uses the store's default.
func (s *Service) CreateFolder(ctx context.Context, title, parentID string) (model.Node, error) {
	if s.native == nil {
		return model.Node{}, ErrUnavailable
	}
	node, err := s.native.Create(ctx, model.CreateDetails{Title: title, ParentID: parentID})
	return node, wrap("create", err)
}

// Update changes a node's title and/or URL.
func (s *Service) Update(ctx context.Context, id string, changes model.Changes) (model.Node, error) {
	if s.native == nil {
		return model.Node{}, ErrUnavailable
	}
	node, err := s.native.Update(ctx, id, changes)
	return node, wrap("update", err)
}

// Remove deletes a bookmark or empty folder.
func (s *Service) Remove(ctx context.Context, id string) error {
	if s.native == nil {
		return ErrUnavailable
	}
	return wrap("remove", s.native.Remove(ctx, id))
}

// RemoveTree deletes a folder with all of its contents.
func (s *Service) RemoveTree(ctx context.Context, id string) error {
	if s.native == nil {
		return ErrUnavailable
	}
	return wrap("removeTree", s.native.RemoveTree(ctx, id))
}

// Move relocates a node.
func (s *Service) Move(ctx context.Context, id string, dest model.Destination) (model.Node, error) {
	if s.native == nil {
		return model.Node{}, ErrUnavailable
	}
	node, err := s.native.Move(ctx, id, dest)
	return node, wrap("move", err)
}

// Import adds parsed nodes below parentID, or "Other Bookmarks" when it is
// empty, and returns how many nodes were created.
func (s *Service) Import(ctx context.Context, parentID string, nodes []model.Node) (int, error) {
	if s.native == nil {
		return 0, ErrUnavailable
	}
	added, err := s.native.Import(ctx, parentID, nodes)
	return added, wrap("import", err)
}

// GetRecent returns up to limit links, newest first. Links added at the
// same time keep their tree order.
func (s *Service) GetRecent(ctx context.Context, limit int) ([]model.Node, error) {
	tree, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return model.Recent(tree, limit), nil
}

// GetFolders returns every folder in tree order.
func (s *Service) GetFolders(ctx context.Context) ([]model.Node, error) {
	tree, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return model.Folders(model.Flatten(tree)), nil
}

// GetLinks returns every link in tree order.
func (s *Service) GetLinks(ctx context.Context) ([]model.Node, error) {
	tree, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return model.Links(model.Flatten(tree)), nil
}

// Export renders the current tree for download.
func (s *Service) Export(ctx context.Context, format exporter.Format, opts exporter.HTMLOptions) (exporter.Download, error) {
	tree, err := s.GetAll(ctx)
	if err != nil {
		return exporter.Download{}, err
	}
	return exporter.ForDownload(tree, format, opts, s.now())
}
