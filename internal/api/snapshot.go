package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/nikbrunner/linksaver/internal/model"
)

// ErrNoSnapshot is returned when nothing has been uploaded yet.
var ErrNoSnapshot = errors.New("No bookmarks found.")

// SnapshotStore keeps the last uploaded bookmark document in a file.
type SnapshotStore struct {
	path string
	mu   sync.RWMutex
}

// NewSnapshotStore creates a store writing to path.
func NewSnapshotStore(path string) *SnapshotStore {
	return &SnapshotStore{path: path}
}

// Path returns the snapshot file path.
func (s *SnapshotStore) Path() string {
	return s.path
}

// Write stores an uploaded JSON document, indented by two spaces. The
// document is not otherwise checked.
func (s *SnapshotStore) Write(body []byte) error {
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	return os.WriteFile(s.path, out.Bytes(), 0644)
}

// Read returns the stored document verbatim.
func (s *SnapshotStore) Read() (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSnapshot
		}
		return nil, err
	}
	return json.RawMessage(data), nil
}

// Tree decodes the stored document as a bookmark tree.
func (s *SnapshotStore) Tree() ([]model.Node, error) {
	data, err := s.Read()
	if err != nil {
		return nil, err
	}
	return model.DecodeTree(data)
}
