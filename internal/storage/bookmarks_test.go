package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/linksaver/internal/model"
)

// memBackend keeps the saved tree in memory.
type memBackend struct {
	tree    []model.Node
	saves   int
	saveErr error
}

func (m *memBackend) Load() ([]model.Node, error) { return clone(m.tree), nil }

func (m *memBackend) Save(roots []model.Node) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.tree = clone(roots)
	return nil
}

func newTestBookmarks(t *testing.T) (*Bookmarks, *memBackend) {
	t.Helper()

	backend := &memBackend{}
	b := NewBookmarks(backend)

	clock := time.UnixMilli(1_700_000_000_000)
	b.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	next := 100
	b.newID = func() string {
		next++
		return fmt.Sprint(next)
	}
	return b, backend
}

func childIDs(t *testing.T, b *Bookmarks, id string) []string {
	t.Helper()
	children, err := b.GetChildren(context.Background(), id)
	assert.NilError(t, err)
	ids := []string{}
	for _, c := range children {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestBookmarks_SeedsRoots(t *testing.T) {
	b, backend := newTestBookmarks(t)

	tree, err := b.GetTree(context.Background())
	assert.NilError(t, err)
	assert.Assert(t, is.Len(tree, 1))
	assert.Equal(t, tree[0].ID, model.RootID)
	assert.DeepEqual(t, childIDs(t, b, model.RootID), []string{model.BookmarksBarID, model.OtherBookmarksID})
	assert.Equal(t, backend.saves, 1)
}

func TestBookmarks_Create(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBookmarks(t)

	link, err := b.Create(ctx, model.CreateDetails{Title: "Go", URL: "https://go.dev"})
	assert.NilError(t, err)
	assert.Equal(t, link.ID, "101")
	assert.Equal(t, link.ParentID, model.OtherBookmarksID)
	assert.Equal(t, *link.Index, 0)
	assert.Assert(t, link.DateAdded > 0)

	folder, err := b.Create(ctx, model.CreateDetails{ParentID: model.BookmarksBarID, Title: "Work"})
	assert.NilError(t, err)
	assert.Assert(t, folder.IsFolder())
	assert.Assert(t, folder.Children != nil)

	first, err := b.Create(ctx, model.CreateDetails{ParentID: model.OtherBookmarksID, Index: model.IntPtr(0), Title: "First", URL: "https://a.example"})
	assert.NilError(t, err)
	assert.DeepEqual(t, childIDs(t, b, model.OtherBookmarksID), []string{first.ID, link.ID})

	other, err := b.Get(ctx, model.OtherBookmarksID)
	assert.NilError(t, err)
	assert.Assert(t, other.DateGroupModified > 0)
}

func TestBookmarks_CreateErrors(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBookmarks(t)

	link, err := b.Create(ctx, model.CreateDetails{Title: "Go", URL: "https://go.dev"})
	assert.NilError(t, err)

	tests := []struct {
		name    string
		details model.CreateDetails
		want    error
	}{
		{"missing parent", model.CreateDetails{ParentID: "nope", Title: "x"}, ErrParentNotFound},
		{"root parent", model.CreateDetails{ParentID: model.RootID, Title: "x"}, ErrModifyRoot},
		{"link parent", model.CreateDetails{ParentID: link.ID, Title: "x"}, ErrParentNotFolder},
		{"bad url", model.CreateDetails{Title: "x", URL: "not a url"}, ErrInvalidURL},
		{"bad index", model.CreateDetails{Title: "x", URL: "https://x.example", Index: model.IntPtr(5)}, ErrInvalidIndex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Create(ctx, tt.details)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBookmarks_Update(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBookmarks(t)

	link, err := b.Create(ctx, model.CreateDetails{Title: "Go", URL: "https://go.dev"})
	assert.NilError(t, err)

	title := "Go Home"
	updated, err := b.Update(ctx, link.ID, model.Changes{Title: &title})
	assert.NilError(t, err)
	assert.Equal(t, updated.Title, "Go Home")
	assert.Equal(t, updated.URL, "https://go.dev")

	url := "https://go.dev/doc"
	updated, err = b.Update(ctx, link.ID, model.Changes{URL: &url})
	assert.NilError(t, err)
	assert.Equal(t, updated.URL, url)
	assert.Equal(t, updated.Title, "Go Home")

	_, err = b.Update(ctx, model.BookmarksBarID, model.Changes{URL: &url})
	assert.ErrorIs(t, err, ErrFolderURL)

	_, err = b.Update(ctx, model.RootID, model.Changes{Title: &title})
	assert.ErrorIs(t, err, ErrModifyRoot)

	_, err = b.Update(ctx, "missing", model.Changes{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookmarks_Remove(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBookmarks(t)

	folder, err := b.Create(ctx, model.CreateDetails{Title: "Work"})
	assert.NilError(t, err)
	_, err = b.Create(ctx, model.CreateDetails{ParentID: folder.ID, Title: "Go", URL: "https://go.dev"})
	assert.NilError(t, err)
	keep, err := b.Create(ctx, model.CreateDetails{Title: "Keep", URL: "https://keep.example"})
	assert.NilError(t, err)

	assert.ErrorIs(t, b.Remove(ctx, folder.ID), ErrNonEmptyFolder)
	assert.ErrorIs(t, b.Remove(ctx, model.BookmarksBarID), ErrModifyRoot)
	assert.ErrorIs(t, b.Remove(ctx, "missing"), ErrNotFound)

	assert.NilError(t, b.RemoveTree(ctx, folder.ID))
	assert.DeepEqual(t, childIDs(t, b, model.OtherBookmarksID), []string{keep.ID})

	kept, err := b.Get(ctx, keep.ID)
	assert.NilError(t, err)
	assert.Equal(t, *kept.Index, 0)

	assert.NilError(t, b.Remove(ctx, keep.ID))
	assert.DeepEqual(t, childIDs(t, b, model.OtherBookmarksID), []string{})
}

func TestBookmarks_Move(t *testing.T) {
	ctx := context.Background()

	create := func(t *testing.T, b *Bookmarks, n int) []string {
		ids := []string{}
		for i := 0; i < n; i++ {
			node, err := b.Create(ctx, model.CreateDetails{Title: fmt.Sprint(i), URL: fmt.Sprintf("https://%d.example", i)})
			assert.NilError(t, err)
			ids = append(ids, node.ID)
		}
		return ids
	}

	t.Run("forward within folder", func(t *testing.T) {
		b, _ := newTestBookmarks(t)
		ids := create(t, b, 3)

		moved, err := b.Move(ctx, ids[0], model.Destination{Index: model.IntPtr(2)})
		assert.NilError(t, err)
		assert.Equal(t, *moved.Index, 1)
		assert.DeepEqual(t, childIDs(t, b, model.OtherBookmarksID), []string{ids[1], ids[0], ids[2]})
	})

	t.Run("backward within folder", func(t *testing.T) {
		b, _ := newTestBookmarks(t)
		ids := create(t, b, 3)

		_, err := b.Move(ctx, ids[2], model.Destination{Index: model.IntPtr(0)})
		assert.NilError(t, err)
		assert.DeepEqual(t, childIDs(t, b, model.OtherBookmarksID), []string{ids[2], ids[0], ids[1]})
	})

	t.Run("to end of folder", func(t *testing.T) {
		b, _ := newTestBookmarks(t)
		ids := create(t, b, 3)

		_, err := b.Move(ctx, ids[0], model.Destination{Index: model.IntPtr(3)})
		assert.NilError(t, err)
		assert.DeepEqual(t, childIDs(t, b, model.OtherBookmarksID), []string{ids[1], ids[2], ids[0]})
	})

	t.Run("to another folder", func(t *testing.T) {
		b, _ := newTestBookmarks(t)
		ids := create(t, b, 2)

		moved, err := b.Move(ctx, ids[1], model.Destination{ParentID: model.BookmarksBarID})
		assert.NilError(t, err)
		assert.Equal(t, moved.ParentID, model.BookmarksBarID)
		assert.DeepEqual(t, childIDs(t, b, model.BookmarksBarID), []string{ids[1]})
		assert.DeepEqual(t, childIDs(t, b, model.OtherBookmarksID), []string{ids[0]})
	})

	t.Run("into own descendant", func(t *testing.T) {
		b, _ := newTestBookmarks(t)
		outer, err := b.Create(ctx, model.CreateDetails{Title: "outer"})
		assert.NilError(t, err)
		inner, err := b.Create(ctx, model.CreateDetails{ParentID: outer.ID, Title: "inner"})
		assert.NilError(t, err)

		_, err = b.Move(ctx, outer.ID, model.Destination{ParentID: inner.ID})
		assert.ErrorIs(t, err, ErrMoveIntoDescendant)
		_, err = b.Move(ctx, outer.ID, model.Destination{ParentID: outer.ID})
		assert.ErrorIs(t, err, ErrMoveIntoDescendant)
	})

	t.Run("invalid targets", func(t *testing.T) {
		b, _ := newTestBookmarks(t)
		ids := create(t, b, 2)

		_, err := b.Move(ctx, ids[0], model.Destination{ParentID: model.RootID})
		assert.ErrorIs(t, err, ErrModifyRoot)
		_, err = b.Move(ctx, ids[0], model.Destination{ParentID: ids[1]})
		assert.ErrorIs(t, err, ErrParentNotFolder)
		_, err = b.Move(ctx, ids[0], model.Destination{Index: model.IntPtr(9)})
		assert.ErrorIs(t, err, ErrInvalidIndex)
		_, err = b.Move(ctx, model.OtherBookmarksID, model.Destination{ParentID: model.BookmarksBarID})
		assert.ErrorIs(t, err, ErrModifyRoot)
	})
}

func TestBookmarks_Search(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBookmarks(t)

	_, err := b.Create(ctx, model.CreateDetails{Title: "Go Docs", URL: "https://go.dev/doc"})
	assert.NilError(t, err)
	_, err = b.Create(ctx, model.CreateDetails{Title: "GitHub", URL: "https://github.com"})
	assert.NilError(t, err)
	_, err = b.Create(ctx, model.CreateDetails{Title: "go folder"})
	assert.NilError(t, err)

	results, err := b.Search(ctx, "GO doc")
	assert.NilError(t, err)
	assert.Assert(t, is.Len(results, 1))
	assert.Equal(t, results[0].Title, "Go Docs")

	results, err = b.Search(ctx, "  ")
	assert.NilError(t, err)
	assert.Assert(t, is.Len(results, 0))
}

func TestBookmarks_Import(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBookmarks(t)

	nodes := []model.Node{
		{Title: "Dev", Children: []model.Node{
			{Title: "Go", URL: "https://go.dev", DateAdded: 42},
		}},
		{Title: "News", URL: "https://news.ycombinator.com"},
	}

	added, err := b.Import(ctx, model.BookmarksBarID, nodes)
	assert.NilError(t, err)
	assert.Equal(t, added, 3)

	tree, err := b.GetTree(ctx)
	assert.NilError(t, err)
	bar := model.Find(tree, model.BookmarksBarID)
	assert.Assert(t, is.Len(bar.Children, 2))

	dev := bar.Children[0]
	assert.Equal(t, dev.ParentID, model.BookmarksBarID)
	assert.Equal(t, dev.Children[0].ParentID, dev.ID)
	assert.Equal(t, dev.Children[0].DateAdded, int64(42))
	assert.Assert(t, bar.Children[1].DateAdded > 0)

	_, err = b.Import(ctx, "nope", nodes)
	assert.ErrorIs(t, err, ErrParentNotFound)
}

func TestBookmarks_Events(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBookmarks(t)

	var events []Event
	b.OnChange(func(e Event) { events = append(events, e) })

	link, err := b.Create(ctx, model.CreateDetails{Title: "Go", URL: "https://go.dev"})
	assert.NilError(t, err)
	title := "Golang"
	_, err = b.Update(ctx, link.ID, model.Changes{Title: &title})
	assert.NilError(t, err)
	_, err = b.Move(ctx, link.ID, model.Destination{ParentID: model.BookmarksBarID})
	assert.NilError(t, err)
	assert.NilError(t, b.Remove(ctx, link.ID))

	// Failed mutations emit nothing.
	assert.ErrorIs(t, b.Remove(ctx, link.ID), ErrNotFound)

	types := []EventType{}
	for _, e := range events {
		types = append(types, e.Type)
		assert.Equal(t, e.ID, link.ID)
	}
	assert.DeepEqual(t, types, []EventType{EventCreated, EventChanged, EventMoved, EventRemoved})
}

func TestBookmarks_SaveFailureKeepsTree(t *testing.T) {
	ctx := context.Background()
	b, backend := newTestBookmarks(t)

	_, err := b.GetTree(ctx)
	assert.NilError(t, err)

	backend.saveErr = errors.New("disk full")
	_, err = b.Create(ctx, model.CreateDetails{Title: "Go", URL: "https://go.dev"})
	assert.ErrorContains(t, err, "disk full")

	assert.DeepEqual(t, childIDs(t, b, model.OtherBookmarksID), []string{})
}

func TestBookmarks_CanceledContext(t *testing.T) {
	b, _ := newTestBookmarks(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.GetTree(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = b.Create(ctx, model.CreateDetails{Title: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBookmarks_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bookmarks.json")

	first := NewBookmarks(NewJSONStorage(path))
	link, err := first.Create(ctx, model.CreateDetails{Title: "Go", URL: "https://go.dev"})
	assert.NilError(t, err)

	second := NewBookmarks(NewJSONStorage(path))
	got, err := second.Get(ctx, link.ID)
	assert.NilError(t, err)
	assert.Equal(t, got.URL, "https://go.dev")
}
