// Package syncbridge moves a bookmark snapshot from the extension to the
// companion server when the dashboard asks for it.
package syncbridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nikbrunner/linksaver/internal/messaging"
)

const (
	// ExtensionID addresses the extension from the dashboard.
	ExtensionID = "IDepieclpffnjdhdniiemnjbncngdeicab"

	// ActionDownloadBookmarks asks the extension to upload its tree.
	ActionDownloadBookmarks = "downloadBookmarks"

	// DefaultEndpoint is the companion server's upload route.
	DefaultEndpoint = "http://localhost:3000/api/uploadBookmarks"
)

// Errors reported by Bridge.Run. Their text is shown to the user as is.
var (
	ErrExtensionNotDetected = errors.New("Extension not detected. Please install it first")
	ErrCouldNotConnect      = errors.New("Could not connect to the extension. Please make sure it is installed and try again.")
	ErrSyncFailed           = errors.New("Failed to sync bookmarks.")
	ErrAlreadyRun           = errors.New("sync already run")
)

// SuccessMessage is shown after a completed sync.
const SuccessMessage = "Bookmarks synced successfully!"

// State is a step of a sync round trip.
type State int

const (
	Idle State = iota
	AwaitingResponse
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingResponse:
		return "awaiting response"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Sender delivers a message to another context. *messaging.Hub satisfies it.
type Sender interface {
	SendMessage(ctx context.Context, id string, msg messaging.Message) (messaging.Response, error)
}

// Bridge is the dashboard side of one sync. It runs at most once.
type Bridge struct {
	sender      Sender
	extensionID string
	log         *slog.Logger

	mu       sync.Mutex
	state    State
	response messaging.Response
}

// NewBridge creates a bridge that talks to extensionID through sender. A nil
// sender means no extension is installed.
func NewBridge(sender Sender, extensionID string, log *slog.Logger) *Bridge {
	if extensionID == "" {
		extensionID = ExtensionID
	}
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{sender: sender, extensionID: extensionID, log: log}
}

// State returns the current step.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Response returns the extension's answer once the round trip is over.
func (b *Bridge) Response() messaging.Response {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.response
}

// Run asks the extension to upload its bookmarks and waits for the answer.
// There is no timeout beyond ctx and no retry.
func (b *Bridge) Run(ctx context.Context) error {
	b.mu.Lock()
	if b.state != Idle {
		b.mu.Unlock()
		return ErrAlreadyRun
	}
	if b.sender == nil {
		b.state = Failed
		b.mu.Unlock()
		return ErrExtensionNotDetected
	}
	b.state = AwaitingResponse
	b.mu.Unlock()

	resp, err := b.sender.SendMessage(ctx, b.extensionID, messaging.Message{Action: ActionDownloadBookmarks})

	b.mu.Lock()
	defer b.mu.Unlock()
	b.response = resp

	if err != nil {
		b.state = Failed
		b.log.Error("sync message failed", "extension", b.extensionID, "error", err)
		return fmt.Errorf("%w: %w", ErrCouldNotConnect, err)
	}
	if !resp.Success {
		b.state = Failed
		b.log.Warn("sync rejected", "error", resp.Error)
		return ErrSyncFailed
	}

	b.state = Succeeded
	b.log.Info("bookmarks synced", "extension", b.extensionID)
	return nil
}
