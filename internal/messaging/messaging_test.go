package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/linksaver/internal/bookmarks"
	"github.com/nikbrunner/linksaver/internal/messaging"
	"github.com/nikbrunner/linksaver/internal/model"
	"github.com/nikbrunner/linksaver/internal/settings"
	"github.com/nikbrunner/linksaver/internal/storage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store    *storage.Bookmarks
	settings *settings.Service
	router   *messaging.Router
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()

	store := storage.NewBookmarks(storage.NewJSONStorage(filepath.Join(dir, "bookmarks.json")))
	prefs := settings.NewService(storage.NewFileKV(filepath.Join(dir, "settings.json")), quietLogger())
	router := messaging.NewRouter(bookmarks.NewService(store), prefs, quietLogger())

	return fixture{store: store, settings: prefs, router: router}
}

func send(t *testing.T, r *messaging.Router, typ string, payload any) messaging.Response {
	t.Helper()
	msg, err := messaging.NewMessage(typ, payload)
	assert.NilError(t, err)
	return r.Dispatch(context.Background(), msg)
}

func TestRouter_AddAndGet(t *testing.T) {
	f := newFixture(t)

	resp := send(t, f.router, messaging.TypeAddBookmark, map[string]string{
		"title": "Go", "url": "https://go.dev", "parentId": model.BookmarksBarID,
	})
	assert.Assert(t, resp.Success, resp.Error)
	created := resp.Data.(model.Node)
	assert.Equal(t, created.ParentID, model.BookmarksBarID)

	resp = send(t, f.router, messaging.TypeGetBookmarks, nil)
	assert.Assert(t, resp.Success)
	tree := resp.Data.([]model.Node)
	assert.Assert(t, model.Find(tree, created.ID) != nil)
}

func TestRouter_UpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	node, err := f.store.Create(ctx, model.CreateDetails{Title: "Go", URL: "https://go.dev"})
	assert.NilError(t, err)

	resp := send(t, f.router, messaging.TypeUpdateBookmark, map[string]any{
		"id":      node.ID,
		"updates": map[string]string{"title": "Go Home"},
	})
	assert.Assert(t, resp.Success, resp.Error)
	assert.Equal(t, resp.Data.(model.Node).Title, "Go Home")

	resp = send(t, f.router, messaging.TypeDeleteBookmark, map[string]string{"id": node.ID})
	assert.Assert(t, resp.Success, resp.Error)

	resp = send(t, f.router, messaging.TypeDeleteBookmark, map[string]string{"id": node.ID})
	assert.Assert(t, !resp.Success)
	assert.Equal(t, resp.Error, "Can't find bookmark for id.")
}

func TestRouter_BadPayload(t *testing.T) {
	f := newFixture(t)

	resp := f.router.Dispatch(context.Background(), messaging.Message{Type: messaging.TypeDeleteBookmark})
	assert.Assert(t, !resp.Success)
	assert.ErrorContains(t, errors.New(resp.Error), "missing payload")

	resp = f.router.Dispatch(context.Background(), messaging.Message{
		Type:    messaging.TypeAddBookmark,
		Payload: json.RawMessage(`[1,2]`),
	})
	assert.Assert(t, !resp.Success)
}

func TestRouter_Unknown(t *testing.T) {
	f := newFixture(t)

	for _, msg := range []messaging.Message{
		{Type: "GET_PAGE_INFO"},
		{},
		{Action: "notRegistered"},
	} {
		resp := f.router.Dispatch(context.Background(), msg)
		assert.DeepEqual(t, resp, messaging.Response{Success: false, Error: messaging.ErrUnknownType})
	}
}

func TestRouter_HandleAction(t *testing.T) {
	f := newFixture(t)
	f.router.HandleAction("ping", func(ctx context.Context, msg messaging.Message) messaging.Response {
		return messaging.Response{Success: true, Data: "pong"}
	})

	resp := f.router.Dispatch(context.Background(), messaging.Message{Action: "ping"})
	assert.Assert(t, resp.Success)
	assert.Equal(t, resp.Data, "pong")
}

func TestRouter_AddCurrentPage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp := send(t, f.router, messaging.TypeAddCurrentPage, map[string]string{"url": "https://example.com"})
	assert.Assert(t, resp.Success, resp.Error)
	node := resp.Data.(model.Node)
	assert.Equal(t, node.Title, "Untitled")
	assert.Equal(t, node.ParentID, model.OtherBookmarksID)

	folder := model.BookmarksBarID
	_, err := f.settings.Save(ctx, model.SettingsPatch{DefaultFolder: &folder})
	assert.NilError(t, err)

	node, err = f.router.AddPage(ctx, "Example", "https://example.com/b")
	assert.NilError(t, err)
	assert.Equal(t, node.ParentID, model.BookmarksBarID)
}

func TestRouter_UnavailableStore(t *testing.T) {
	router := messaging.NewRouter(bookmarks.NewService(nil), nil, quietLogger())

	resp := router.Dispatch(context.Background(), messaging.Message{Type: messaging.TypeGetBookmarks})
	assert.Assert(t, !resp.Success)
	assert.Equal(t, resp.Error, bookmarks.ErrUnavailable.Error())
}

func TestHub_SendMessage(t *testing.T) {
	f := newFixture(t)
	hub := messaging.NewHub(quietLogger())

	_, err := hub.SendMessage(context.Background(), "missing", messaging.Message{})
	assert.ErrorIs(t, err, messaging.ErrNoReceiver)

	hub.Register("ext", f.router)
	resp, err := hub.SendMessage(context.Background(), "ext", messaging.Message{Type: messaging.TypeGetBookmarks})
	assert.NilError(t, err)
	assert.Assert(t, resp.Success)

	hub.Unregister("ext")
	_, err = hub.SendMessage(context.Background(), "ext", messaging.Message{})
	assert.ErrorIs(t, err, messaging.ErrNoReceiver)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hub.Register("ext", f.router)
	_, err = hub.SendMessage(ctx, "ext", messaging.Message{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHub_BroadcastsStoreEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hub := messaging.NewHub(quietLogger())
	f.store.OnChange(messaging.Forward(hub))

	var got []string
	hub.Subscribe(func(msg messaging.Message) error {
		return errors.New("popup closed")
	})
	unsubscribe := hub.Subscribe(func(msg messaging.Message) error {
		got = append(got, msg.Type)
		return nil
	})

	node, err := f.store.Create(ctx, model.CreateDetails{Title: "Go", URL: "https://go.dev"})
	assert.NilError(t, err)
	title := "Golang"
	_, err = f.store.Update(ctx, node.ID, model.Changes{Title: &title})
	assert.NilError(t, err)
	_, err = f.store.Move(ctx, node.ID, model.Destination{ParentID: model.BookmarksBarID})
	assert.NilError(t, err)
	assert.NilError(t, f.store.Remove(ctx, node.ID))

	assert.DeepEqual(t, got, []string{
		messaging.TypeBookmarkCreated,
		messaging.TypeBookmarkChanged,
		messaging.TypeBookmarkMoved,
		messaging.TypeBookmarkRemoved,
	})

	unsubscribe()
	_, err = f.store.Create(ctx, model.CreateDetails{Title: "x", URL: "https://x.example"})
	assert.NilError(t, err)
	assert.Assert(t, is.Len(got, 4))
}

func TestEventMessage_Payloads(t *testing.T) {
	msg := messaging.EventMessage(storage.Event{
		Type: storage.EventChanged,
		ID:   "7",
		Node: model.Node{ID: "7", Title: "Go", URL: "https://go.dev"},
	})
	assert.Equal(t, msg.Type, messaging.TypeBookmarkChanged)

	var payload struct {
		ID         string            `json:"id"`
		ChangeInfo map[string]string `json:"changeInfo"`
	}
	assert.NilError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, payload.ID, "7")
	assert.DeepEqual(t, payload.ChangeInfo, map[string]string{"title": "Go", "url": "https://go.dev"})
}
