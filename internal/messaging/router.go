package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nikbrunner/linksaver/internal/bookmarks"
	"github.com/nikbrunner/linksaver/internal/model"
	"github.com/nikbrunner/linksaver/internal/settings"
	"github.com/nikbrunner/linksaver/internal/storage"
)

// HandlerFunc answers one kind of message.
type HandlerFunc func(ctx context.Context, msg Message) Response

// Router is the background context's message handler.
type Router struct {
	bookmarks *bookmarks.Service
	settings  *settings.Service
	log       *slog.Logger

	types   map[string]HandlerFunc
	actions map[string]HandlerFunc
}

// NewRouter creates a router with the bookmark message types registered.
// prefs may be nil; pages are then added to the store's default folder.
func NewRouter(svc *bookmarks.Service, prefs *settings.Service, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	r := &Router{
		bookmarks: svc,
		settings:  prefs,
		log:       log,
		types:     make(map[string]HandlerFunc),
		actions:   make(map[string]HandlerFunc),
	}

	r.Handle(TypeGetBookmarks, r.getBookmarks)
	r.Handle(TypeAddBookmark, r.addBookmark)
	r.Handle(TypeDeleteBookmark, r.deleteBookmark)
	r.Handle(TypeUpdateBookmark, r.updateBookmark)
	r.Handle(TypeAddCurrentPage, r.addCurrentPage)

	return r
}

// Handle registers fn for messages of the given type.
func (r *Router) Handle(typ string, fn HandlerFunc) {
	r.types[typ] = fn
}

// HandleAction registers fn for dashboard messages with the given action.
func (r *Router) HandleAction(action string, fn HandlerFunc) {
	r.actions[action] = fn
}

// Dispatch routes msg to its handler.
func (r *Router) Dispatch(ctx context.Context, msg Message) Response {
	r.log.Debug("received message", "type", msg.Type, "action", msg.Action)

	if msg.Action != "" {
		if fn, ok := r.actions[msg.Action]; ok {
			return fn(ctx, msg)
		}
	}
	if fn, ok := r.types[msg.Type]; ok {
		return fn(ctx, msg)
	}
	return Response{Success: false, Error: ErrUnknownType}
}

func decode(msg Message, v any) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("%s: invalid payload: %w", msg.Type, err)
	}
	return nil
}

func (r *Router) getBookmarks(ctx context.Context, _ Message) Response {
	tree, err := r.bookmarks.GetAll(ctx)
	if err != nil {
		return Fail(err)
	}
	return Response{Success: true, Data: tree}
}

func (r *Router) addBookmark(ctx context.Context, msg Message) Response {
	var p struct {
		Title    string `json:"title"`
		URL      string `json:"url"`
		ParentID string `json:"parentId"`
	}
	if err := decode(msg, &p); err != nil {
		return Fail(err)
	}

	node, err := r.bookmarks.Create(ctx, model.CreateDetails{Title: p.Title, URL: p.URL, ParentID: p.ParentID})
	if err != nil {
		return Fail(err)
	}
	return Response{Success: true, Data: node}
}

func (r *Router) deleteBookmark(ctx context.Context, msg Message) Response {
	var p struct {
		ID string `json:"id"`
	}
	if err := decode(msg, &p); err != nil {
		return Fail(err)
	}

	if err := r.bookmarks.Remove(ctx, p.ID); err != nil {
		return Fail(err)
	}
	return Response{Success: true}
}

func (r *Router) updateBookmark(ctx context.Context, msg Message) Response {
	var p struct {
		ID      string        `json:"id"`
		Updates model.Changes `json:"updates"`
	}
	if err := decode(msg, &p); err != nil {
		return Fail(err)
	}

	node, err := r.bookmarks.Update(ctx, p.ID, p.Updates)
	if err != nil {
		return Fail(err)
	}
	return Response{Success: true, Data: node}
}

func (r *Router) addCurrentPage(ctx context.Context, msg Message) Response {
	var p struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	}
	if err := decode(msg, &p); err != nil {
		return Fail(err)
	}

	node, err := r.AddPage(ctx, p.Title, p.URL)
	if err != nil {
		return Fail(err)
	}
	return Response{Success: true, Data: node}
}

// AddPage bookmarks a page into the user's default folder. Pages without a
// title are saved as "Untitled".
func (r *Router) AddPage(ctx context.Context, title, url string) (model.Node, error) {
	if title == "" {
		title = "Untitled"
	}

	var parentID string
	if r.settings != nil {
		parentID = r.settings.Load(ctx).DefaultFolder
	}

	return r.bookmarks.Create(ctx, model.CreateDetails{Title: title, URL: url, ParentID: parentID})
}

// EventMessage converts a store change into the broadcast sent to open
// popups.
func EventMessage(e storage.Event) Message {
	var (
		typ     string
		payload any
	)

	switch e.Type {
	case storage.EventCreated:
		typ, payload = TypeBookmarkCreated, e.Node
	case storage.EventRemoved:
		typ = TypeBookmarkRemoved
		payload = map[string]any{
			"id": e.ID,
			"removeInfo": map[string]any{
				"parentId": e.Node.ParentID,
				"index":    e.Node.Index,
				"node":     e.Node,
			},
		}
	case storage.EventChanged:
		typ = TypeBookmarkChanged
		changeInfo := map[string]any{"title": e.Node.Title}
		if e.Node.IsLink() {
			changeInfo["url"] = e.Node.URL
		}
		payload = map[string]any{"id": e.ID, "changeInfo": changeInfo}
	case storage.EventMoved:
		typ = TypeBookmarkMoved
		payload = map[string]any{
			"id": e.ID,
			"moveInfo": map[string]any{
				"parentId": e.Node.ParentID,
				"index":    e.Node.Index,
			},
		}
	}

	// Nodes and plain maps always encode.
	msg, _ := NewMessage(typ, payload)
	return msg
}

// Forward returns a store listener that broadcasts every change on h.
func Forward(h *Hub) func(storage.Event) {
	return func(e storage.Event) {
		h.Broadcast(EventMessage(e))
	}
}
