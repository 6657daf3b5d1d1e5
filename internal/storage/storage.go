package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nikbrunner/linksaver/internal/model"
)

// Backend persists the whole bookmark tree.
type Backend interface {
	Load() ([]model.Node, error)
	Save(roots []model.Node) error
}

// JSONStorage implements Backend using a JSON file.
type JSONStorage struct {
	path string
}

// NewJSONStorage creates a new JSONStorage with the given file path.
func NewJSONStorage(path string) *JSONStorage {
	return &JSONStorage{path: path}
}

// Path returns the storage file path.
func (s *JSONStorage) Path() string {
	return s.path
}

// Load reads the tree from the JSON file.
// Returns an empty tree if the file doesn't exist.
func (s *JSONStorage) Load() ([]model.Node, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Node{}, nil
		}
		return nil, err
	}

	return model.DecodeTree(data)
}

// Save writes the tree to the JSON file.
// Creates the directory if it doesn't exist.
func (s *JSONStorage) Save(roots []model.Node) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	if roots == nil {
		roots = []model.Node{}
	}
	data, err := json.MarshalIndent(roots, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// Backend names accepted by Open.
const (
	BackendAuto   = ""
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Options selects and locates the storage backend.
type Options struct {
	Backend      string
	SQLitePath   string
	JSONPath     string
	SettingsPath string // settings file for the JSON backend
}

// Handle bundles an opened bookmark store with its settings namespace.
type Handle struct {
	Bookmarks *Bookmarks
	Settings  KV
	close     func() error
}

// Close releases the underlying database, if any.
func (h *Handle) Close() error {
	if h.close == nil {
		return nil
	}
	return h.close()
}

// Open opens the configured backend. In auto mode SQLite is preferred if
// the database file exists, otherwise JSON is used.
func Open(opts Options) (*Handle, error) {
	backend := opts.Backend
	if backend == BackendAuto {
		backend = BackendJSON
		if _, err := os.Stat(opts.SQLitePath); err == nil {
			backend = BackendSQLite
		}
	}

	switch backend {
	case BackendSQLite:
		db, err := NewSQLiteStorage(opts.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		return &Handle{
			Bookmarks: NewBookmarks(db),
			Settings:  db,
			close:     db.Close,
		}, nil

	case BackendJSON:
		return &Handle{
			Bookmarks: NewBookmarks(NewJSONStorage(opts.JSONPath)),
			Settings:  NewFileKV(opts.SettingsPath),
		}, nil
	}

	return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
}
