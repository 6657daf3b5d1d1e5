package syncbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/nikbrunner/linksaver/internal/bookmarks"
	"github.com/nikbrunner/linksaver/internal/messaging"
	"github.com/nikbrunner/linksaver/internal/model"
)

// Uploader is the extension side of a sync: it posts the full tree to the
// companion server.
type Uploader struct {
	bookmarks *bookmarks.Service
	endpoint  string
	client    *http.Client
	log       *slog.Logger
}

// NewUploader creates an uploader. An empty endpoint uses DefaultEndpoint
// and a nil client uses http.DefaultClient.
func NewUploader(svc *bookmarks.Service, endpoint string, client *http.Client, log *slog.Logger) *Uploader {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = slog.Default()
	}
	return &Uploader{bookmarks: svc, endpoint: endpoint, client: client, log: log}
}

// uploadRequest is the body posted to the server.
type uploadRequest struct {
	Bookmarks []model.Node `json:"bookmarks"`
}

// Handle answers a downloadBookmarks request with the server's response.
func (u *Uploader) Handle(ctx context.Context, _ messaging.Message) messaging.Response {
	result, err := u.Upload(ctx)
	if err != nil {
		u.log.Error("uploading bookmarks", "endpoint", u.endpoint, "error", err)
		return messaging.Fail(err)
	}
	return messaging.Response{Success: true, Result: result}
}

// Upload posts the current tree and returns the server's JSON answer.
func (u *Uploader) Upload(ctx context.Context) (json.RawMessage, error) {
	tree, err := u.bookmarks.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(uploadRequest{Bookmarks: tree})
	if err != nil {
		return nil, fmt.Errorf("encode bookmarks: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post bookmarks: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("server returned %d with a non-JSON body", resp.StatusCode)
	}

	u.log.Info("bookmarks uploaded", "endpoint", u.endpoint, "status", resp.StatusCode, "nodes", model.Count(tree))
	return json.RawMessage(data), nil
}

// Register installs the uploader as the router's downloadBookmarks action.
func Register(r *messaging.Router, u *Uploader) {
	r.HandleAction(ActionDownloadBookmarks, u.Handle)
}
