package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// KV is a small key-value namespace for synced preferences.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// FileKV implements KV as a single JSON object on disk.
type FileKV struct {
	path string
	mu   sync.RWMutex
}

// NewFileKV creates a FileKV backed by the given file.
func NewFileKV(path string) *FileKV {
	return &FileKV{path: path}
}

// Get reads one key. A missing file is an empty namespace.
func (s *FileKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.read()
	if err != nil {
		return nil, false, err
	}
	value, ok := data[key]
	return value, ok, nil
}

// Set writes one key, keeping the others.
func (s *FileKV) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !json.Valid(value) {
		return fmt.Errorf("value for %q is not valid JSON", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return err
	}
	data[key] = json.RawMessage(value)

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, out, 0644)
}

func (s *FileKV) read() (map[string]json.RawMessage, error) {
	data := make(map[string]json.RawMessage)

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return data, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if data == nil {
		data = make(map[string]json.RawMessage)
	}
	return data, nil
}
