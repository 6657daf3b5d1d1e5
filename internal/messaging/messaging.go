// Package messaging carries request/response messages between the
// extension's contexts: popup, options page, content scripts, the
// background worker and the dashboard.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
)

// Message types understood by the background router.
const (
	TypeGetBookmarks   = "GET_BOOKMARKS"
	TypeAddBookmark    = "ADD_BOOKMARK"
	TypeDeleteBookmark = "DELETE_BOOKMARK"
	TypeUpdateBookmark = "UPDATE_BOOKMARK"
	TypeAddCurrentPage = "ADD_CURRENT_PAGE"

	TypeBookmarkCreated = "BOOKMARK_CREATED"
	TypeBookmarkRemoved = "BOOKMARK_REMOVED"
	TypeBookmarkChanged = "BOOKMARK_CHANGED"
	TypeBookmarkMoved   = "BOOKMARK_MOVED"
)

// ErrUnknownType is the error text for messages nobody handles.
const ErrUnknownType = "Unknown message type"

// ErrNoReceiver is returned when a message is sent to a context that is not
// listening.
var ErrNoReceiver = errors.New("Could not establish connection. Receiving end does not exist.")

// Message is a request between contexts. Extension-internal messages carry
// a Type; dashboard requests carry an Action.
type Message struct {
	Type    string          `json:"type,omitempty"`
	Action  string          `json:"action,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage builds a typed message with a JSON payload.
func NewMessage(typ string, payload any) (Message, error) {
	msg := Message{Type: typ}
	if payload == nil {
		return msg, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	msg.Payload = data
	return msg, nil
}

// Response answers a Message.
type Response struct {
	Success bool            `json:"success"`
	Data    any             `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// Fail builds an unsuccessful response from err.
func Fail(err error) Response {
	return Response{Success: false, Error: err.Error()}
}

// Receiver handles messages sent to one context.
type Receiver interface {
	Dispatch(ctx context.Context, msg Message) Response
}

// Hub connects contexts by id and fans out broadcast events.
type Hub struct {
	log *slog.Logger

	mu        sync.RWMutex
	receivers map[string]Receiver
	listeners map[int]func(Message) error
	nextID    int
}

// NewHub creates an empty hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:       log,
		receivers: make(map[string]Receiver),
		listeners: make(map[int]func(Message) error),
	}
}

// Register makes r reachable under id, replacing any previous receiver.
func (h *Hub) Register(id string, r Receiver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.receivers[id] = r
}

// Unregister removes the receiver for id.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.receivers, id)
}

// SendMessage delivers msg to the receiver registered under id and waits
// for its response.
func (h *Hub) SendMessage(ctx context.Context, id string, msg Message) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	h.mu.RLock()
	r, ok := h.receivers[id]
	h.mu.RUnlock()
	if !ok {
		return Response{}, ErrNoReceiver
	}

	return r.Dispatch(ctx, msg), nil
}

// Subscribe registers fn for broadcast messages and returns a function that
// removes it.
func (h *Hub) Subscribe(fn func(Message) error) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	h.listeners[id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners, id)
	}
}

// Broadcast delivers msg to every subscriber. A subscriber that is gone or
// fails does not stop delivery to the others.
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	listeners := make([]func(Message) error, 0, len(h.listeners))
	for _, fn := range h.listeners {
		listeners = append(listeners, fn)
	}
	h.mu.RUnlock()

	for _, fn := range listeners {
		if err := fn(msg); err != nil {
			h.log.Debug("broadcast not delivered", "type", msg.Type, "error", err)
		}
	}
}
