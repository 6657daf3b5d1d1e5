package storage

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nikbrunner/linksaver/internal/model"
)

// EventType names a change to the bookmark tree.
type EventType string

const (
	EventCreated EventType = "created"
	EventRemoved EventType = "removed"
	EventChanged EventType = "changed"
	EventMoved   EventType = "moved"
)

// Event is delivered to listeners after a mutation has been saved.
type Event struct {
	Type EventType
	ID   string
	Node model.Node
}

// Bookmarks is the bookmark database: a tree with fixed root folders,
// store-assigned ids and browser-compatible operations. Every mutation is
// persisted through the backend before it returns.
type Bookmarks struct {
	mu        sync.Mutex
	backend   Backend
	tree      []model.Node
	loaded    bool
	listeners []func(Event)

	now   func() time.Time
	newID func() string
}

// NewBookmarks creates a store over the given backend.
func NewBookmarks(backend Backend) *Bookmarks {
	return &Bookmarks{
		backend: backend,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// OnChange registers a listener for saved mutations.
func (b *Bookmarks) OnChange(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

// GetTree returns a snapshot of the whole tree.
func (b *Bookmarks) GetTree(ctx context.Context) ([]model.Node, error) {
	var out []model.Node
	err := b.read(ctx, func(tree []model.Node) error {
		out = clone(tree)
		return nil
	})
	return out, err
}

// Get returns a single node without its descendants.
func (b *Bookmarks) Get(ctx context.Context, id string) (model.Node, error) {
	var out model.Node
	err := b.read(ctx, func(tree []model.Node) error {
		n := model.Find(tree, id)
		if n == nil {
			return ErrNotFound
		}
		out = shallow(*n)
		return nil
	})
	return out, err
}

// GetChildren returns the direct children of a folder, without their
// descendants.
func (b *Bookmarks) GetChildren(ctx context.Context, id string) ([]model.Node, error) {
	var out []model.Node
	err := b.read(ctx, func(tree []model.Node) error {
		n := model.Find(tree, id)
		if n == nil {
			return ErrParentNotFound
		}
		out = make([]model.Node, 0, len(n.Children))
		for _, c := range n.Children {
			out = append(out, shallow(c))
		}
		return nil
	})
	return out, err
}

// Search returns links whose title or URL contains every word of query,
// ignoring case, in tree order.
func (b *Bookmarks) Search(ctx context.Context, query string) ([]model.Node, error) {
	words := strings.Fields(strings.ToLower(query))

	out := []model.Node{}
	err := b.read(ctx, func(tree []model.Node) error {
		if len(words) == 0 {
			return nil
		}
		for _, n := range model.Links(model.Flatten(tree)) {
			haystack := strings.ToLower(n.Title + " " + n.URL)
			match := true
			for _, w := range words {
				if !strings.Contains(haystack, w) {
					match = false
					break
				}
			}
			if match {
				out = append(out, shallow(n))
			}
		}
		return nil
	})
	return out, err
}

// Create adds a bookmark, or a folder when details.URL is empty. The parent
// defaults to Other Bookmarks and the node is appended unless an index is
// given.
func (b *Bookmarks) Create(ctx context.Context, details model.CreateDetails) (model.Node, error) {
	var created model.Node
	err := b.write(ctx, func(tree []model.Node) ([]Event, error) {
		parentID := details.ParentID
		if parentID == "" {
			parentID = model.OtherBookmarksID
		}

		parent := model.Find(tree, parentID)
		if parent == nil {
			return nil, ErrParentNotFound
		}
		if parent.ID == model.RootID {
			return nil, ErrModifyRoot
		}
		if parent.IsLink() {
			return nil, ErrParentNotFolder
		}
		if details.URL != "" && !validURL(details.URL) {
			return nil, ErrInvalidURL
		}

		now := b.nowMillis()
		node := model.Node{
			ID:        b.newID(),
			Title:     details.Title,
			URL:       details.URL,
			DateAdded: now,
		}
		if node.IsFolder() {
			node.Children = []model.Node{}
		}

		pos, err := insertAt(parent, node, details.Index)
		if err != nil {
			return nil, err
		}
		parent.DateGroupModified = now

		created = cloneNode(parent.Children[pos])
		return []Event{{Type: EventCreated, ID: created.ID, Node: created}}, nil
	})
	return created, err
}

// Update changes the title and/or URL of a node.
func (b *Bookmarks) Update(ctx context.Context, id string, changes model.Changes) (model.Node, error) {
	var updated model.Node
	err := b.write(ctx, func(tree []model.Node) ([]Event, error) {
		n := model.Find(tree, id)
		if n == nil {
			return nil, ErrNotFound
		}
		if n.IsRoot() {
			return nil, ErrModifyRoot
		}
		if changes.URL != nil {
			if n.IsFolder() {
				return nil, ErrFolderURL
			}
			if !validURL(*changes.URL) {
				return nil, ErrInvalidURL
			}
			n.URL = *changes.URL
		}
		if changes.Title != nil {
			n.Title = *changes.Title
		}

		updated = shallow(*n)
		return []Event{{Type: EventChanged, ID: id, Node: updated}}, nil
	})
	return updated, err
}

// Remove deletes a bookmark or an empty folder.
func (b *Bookmarks) Remove(ctx context.Context, id string) error {
	return b.remove(ctx, id, false)
}

// RemoveTree deletes a folder and everything below it.
func (b *Bookmarks) RemoveTree(ctx context.Context, id string) error {
	return b.remove(ctx, id, true)
}

func (b *Bookmarks) remove(ctx context.Context, id string, recursive bool) error {
	return b.write(ctx, func(tree []model.Node) ([]Event, error) {
		n := model.Find(tree, id)
		if n == nil {
			return nil, ErrNotFound
		}
		if n.IsRoot() {
			return nil, ErrModifyRoot
		}
		if !recursive && len(n.Children) > 0 {
			return nil, ErrNonEmptyFolder
		}

		parent, pos := findParent(tree, id)
		if parent == nil {
			return nil, ErrNotFound
		}
		removed := removeAt(parent, pos)
		parent.DateGroupModified = b.nowMillis()

		return []Event{{Type: EventRemoved, ID: id, Node: cloneNode(removed)}}, nil
	})
}

// Move relocates a node. Within the same folder the index refers to the
// position before the node is taken out, as browsers do.
func (b *Bookmarks) Move(ctx context.Context, id string, dest model.Destination) (model.Node, error) {
	var moved model.Node
	err := b.write(ctx, func(tree []model.Node) ([]Event, error) {
		n := model.Find(tree, id)
		if n == nil {
			return nil, ErrNotFound
		}
		if n.IsRoot() {
			return nil, ErrModifyRoot
		}

		oldParent, oldPos := findParent(tree, id)
		if oldParent == nil {
			return nil, ErrNotFound
		}

		targetID := dest.ParentID
		if targetID == "" {
			targetID = oldParent.ID
		}
		target := model.Find(tree, targetID)
		if target == nil {
			return nil, ErrParentNotFound
		}
		if target.ID == model.RootID {
			return nil, ErrModifyRoot
		}
		if target.IsLink() {
			return nil, ErrParentNotFolder
		}
		if isDescendant(*n, targetID) {
			return nil, ErrMoveIntoDescendant
		}

		index := dest.Index
		if index != nil {
			if *index < 0 || *index > len(target.Children) {
				return nil, ErrInvalidIndex
			}
			if target.ID == oldParent.ID && *index > oldPos {
				index = model.IntPtr(*index - 1)
			}
		}

		now := b.nowMillis()
		node := removeAt(oldParent, oldPos)
		oldParent.DateGroupModified = now

		// Removing may have shifted the target within its siblings.
		target = model.Find(tree, targetID)
		pos, err := insertAt(target, node, index)
		if err != nil {
			return nil, err
		}
		target.DateGroupModified = now

		moved = shallow(target.Children[pos])
		return []Event{{Type: EventMoved, ID: id, Node: moved}}, nil
	})
	return moved, err
}

// Import appends detached nodes (no ids) below a folder, assigning fresh
// ids. Missing dates become now. Returns the number of nodes added.
func (b *Bookmarks) Import(ctx context.Context, parentID string, nodes []model.Node) (int, error) {
	added := 0
	err := b.write(ctx, func(tree []model.Node) ([]Event, error) {
		if parentID == "" {
			parentID = model.OtherBookmarksID
		}
		parent := model.Find(tree, parentID)
		if parent == nil {
			return nil, ErrParentNotFound
		}
		if parent.ID == model.RootID {
			return nil, ErrModifyRoot
		}
		if parent.IsLink() {
			return nil, ErrParentNotFolder
		}

		now := b.nowMillis()
		var assign func(n model.Node) model.Node
		assign = func(n model.Node) model.Node {
			n.ID = b.newID()
			if n.DateAdded == 0 {
				n.DateAdded = now
			}
			added++
			if n.IsLink() {
				n.Children = nil
				return n
			}
			children := make([]model.Node, 0, len(n.Children))
			for _, c := range n.Children {
				children = append(children, assign(c))
			}
			n.Children = children
			reindex(&n)
			return n
		}

		var events []Event
		for _, n := range nodes {
			imported := assign(n)
			if _, err := insertAt(parent, imported, nil); err != nil {
				return nil, err
			}
			events = append(events, Event{Type: EventCreated, ID: imported.ID, Node: shallow(imported)})
		}
		parent.DateGroupModified = now

		return events, nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

func (b *Bookmarks) nowMillis() int64 {
	return b.now().UnixMilli()
}

// ensureLoaded reads the backend once, seeding the root layout for a new
// profile. Must be called with b.mu held.
func (b *Bookmarks) ensureLoaded() error {
	if b.loaded {
		return nil
	}

	tree, err := b.backend.Load()
	if err != nil {
		return err
	}
	if len(tree) == 0 {
		tree = seedRoots(b.nowMillis())
		if err := b.backend.Save(tree); err != nil {
			return err
		}
	}

	b.tree = tree
	b.loaded = true
	return nil
}

func (b *Bookmarks) read(ctx context.Context, fn func(tree []model.Node) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ensureLoaded(); err != nil {
		return err
	}
	return fn(b.tree)
}

// write applies fn to a copy of the tree, saves it, and only then makes it
// current and notifies listeners.
func (b *Bookmarks) write(ctx context.Context, fn func(tree []model.Node) ([]Event, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	if err := b.ensureLoaded(); err != nil {
		b.mu.Unlock()
		return err
	}

	next := clone(b.tree)
	events, err := fn(next)
	if err != nil {
		b.mu.Unlock()
		return err
	}
	if err := b.backend.Save(next); err != nil {
		b.mu.Unlock()
		return err
	}
	b.tree = next
	listeners := append([]func(Event){}, b.listeners...)
	b.mu.Unlock()

	for _, e := range events {
		for _, fn := range listeners {
			fn(e)
		}
	}
	return nil
}
