// Package settings loads and saves the user's bookmark preferences.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nikbrunner/linksaver/internal/model"
	"github.com/nikbrunner/linksaver/internal/storage"
)

// Key is the settings document's name in the key-value namespace.
const Key = "bookmarkSettings"

// ErrUnavailable is returned by Save when no settings store is configured.
var ErrUnavailable = errors.New("settings storage is not available")

// Service reads and writes the settings document. Writes are last-write-wins.
type Service struct {
	kv  storage.KV
	log *slog.Logger

	mu        sync.Mutex
	lastKnown model.Settings
}

// NewService creates a settings service. kv may be nil, in which case Load
// returns defaults and Save fails with ErrUnavailable.
func NewService(kv storage.KV, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		kv:        kv,
		log:       log,
		lastKnown: model.DefaultSettings(),
	}
}

// Load returns the stored settings. Missing, unreadable or unavailable
// storage falls back to the defaults; failures are logged, not returned.
func (s *Service) Load(ctx context.Context) model.Settings {
	settings, err := s.load(ctx)
	if err != nil {
		s.log.Warn("using default settings", "error", err)
		settings = model.DefaultSettings()
	}

	s.mu.Lock()
	s.lastKnown = settings
	s.mu.Unlock()

	return settings
}

func (s *Service) load(ctx context.Context) (model.Settings, error) {
	if s.kv == nil {
		return model.Settings{}, ErrUnavailable
	}

	data, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		return model.Settings{}, fmt.Errorf("read settings: %w", err)
	}
	if !ok {
		return model.DefaultSettings(), nil
	}
	return decode(data)
}

// decode reads a stored document. Fields absent from it keep their defaults.
func decode(data []byte) (model.Settings, error) {
	settings := model.DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return model.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return settings, nil
}

// Save merges patch into the stored settings and persists the result. The
// document is re-read first, so saves from other processes are not lost. An
// unreadable document is replaced by the patched defaults.
func (s *Service) Save(ctx context.Context, patch model.SettingsPatch) (model.Settings, error) {
	if s.kv == nil {
		return model.Settings{}, ErrUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		return model.Settings{}, fmt.Errorf("read settings: %w", err)
	}
	if ok {
		stored, err := decode(current)
		if err != nil {
			s.log.Warn("replacing unreadable settings", "error", err)
			stored = model.DefaultSettings()
		}
		s.lastKnown = stored
	}

	merged := s.lastKnown.Apply(patch)
	if err := merged.Validate(); err != nil {
		return model.Settings{}, err
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return model.Settings{}, err
	}
	if err := s.kv.Set(ctx, Key, data); err != nil {
		return model.Settings{}, fmt.Errorf("write settings: %w", err)
	}

	s.lastKnown = merged
	s.log.Debug("settings saved", "sortBy", merged.SortBy, "maxRecentBookmarks", merged.MaxRecentBookmarks)
	return merged, nil
}

// Install writes the defaults if no settings document exists yet.
func (s *Service) Install(ctx context.Context) error {
	if s.kv == nil {
		return ErrUnavailable
	}

	_, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	if ok {
		return nil
	}

	data, err := json.Marshal(model.DefaultSettings())
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, Key, data); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	s.log.Info("installed default settings")
	return nil
}
