package model

import "fmt"

// SortOrder selects how bookmark listings are ordered.
type SortOrder string

const (
	SortByDateAdded SortOrder = "dateAdded"
	SortByTitle     SortOrder = "title"
	SortByURL       SortOrder = "url"
)

// Valid reports whether the order is one of the known values.
func (o SortOrder) Valid() bool {
	switch o {
	case SortByDateAdded, SortByTitle, SortByURL:
		return true
	}
	return false
}

// Settings holds the user's bookmark preferences.
type Settings struct {
	ShowBookmarkBar    bool      `json:"showBookmarkBar"`
	SortBy             SortOrder `json:"sortBy"`
	MaxRecentBookmarks int       `json:"maxRecentBookmarks"`
	DefaultFolder      string    `json:"defaultFolder,omitempty"`
}

// DefaultSettings returns the settings written on first install.
func DefaultSettings() Settings {
	return Settings{
		ShowBookmarkBar:    true,
		SortBy:             SortByDateAdded,
		MaxRecentBookmarks: 10,
	}
}

// SettingsPatch holds a partial settings update. Nil fields are left alone.
type SettingsPatch struct {
	ShowBookmarkBar    *bool      `json:"showBookmarkBar,omitempty"`
	SortBy             *SortOrder `json:"sortBy,omitempty"`
	MaxRecentBookmarks *int       `json:"maxRecentBookmarks,omitempty"`
	DefaultFolder      *string    `json:"defaultFolder,omitempty"`
}

// Apply returns s with every non-nil field of p merged in.
func (s Settings) Apply(p SettingsPatch) Settings {
	if p.ShowBookmarkBar != nil {
		s.ShowBookmarkBar = *p.ShowBookmarkBar
	}
	if p.SortBy != nil {
		s.SortBy = *p.SortBy
	}
	if p.MaxRecentBookmarks != nil {
		s.MaxRecentBookmarks = *p.MaxRecentBookmarks
	}
	if p.DefaultFolder != nil {
		s.DefaultFolder = *p.DefaultFolder
	}
	return s
}

// Validate checks the fields that have a constrained domain.
func (s Settings) Validate() error {
	if !s.SortBy.Valid() {
		return fmt.Errorf("invalid sortBy %q: want dateAdded, title or url", s.SortBy)
	}
	if s.MaxRecentBookmarks < 0 {
		return fmt.Errorf("invalid maxRecentBookmarks %d: must not be negative", s.MaxRecentBookmarks)
	}
	return nil
}
