package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nikbrunner/linksaver/internal/model"
)

// Format is an export file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatHTML:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown export format %q: want json or html", s)
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatHTML {
		return "text/html"
	}
	return "application/json"
}

// Download is a rendered export ready to be written or served.
type Download struct {
	Data        []byte
	Filename    string
	ContentType string
}

// ExportJSON serializes the tree exactly as stored, indented by two spaces.
func ExportJSON(roots []model.Node) ([]byte, error) {
	if roots == nil {
		roots = []model.Node{}
	}
	return json.MarshalIndent(roots, "", "  ")
}

// Filename returns bookmarks-export-YYYY-MM-DD.<ext> for the UTC date of now.
func Filename(format Format, now time.Time) string {
	return fmt.Sprintf("bookmarks-export-%s.%s", now.UTC().Format("2006-01-02"), format)
}

// ForDownload renders the tree in the given format.
func ForDownload(roots []model.Node, format Format, opts HTMLOptions, now time.Time) (Download, error) {
	var data []byte
	switch format {
	case FormatJSON:
		var err error
		data, err = ExportJSON(roots)
		if err != nil {
			return Download{}, fmt.Errorf("encode json export: %w", err)
		}
	case FormatHTML:
		data = []byte(ExportHTML(roots, opts))
	default:
		return Download{}, fmt.Errorf("unknown export format %q", format)
	}

	return Download{
		Data:        data,
		Filename:    Filename(format, now),
		ContentType: format.ContentType(),
	}, nil
}

// DefaultExportPath returns the default export file path.
// Format: ~/Downloads/bookmarks-export-YYYY-MM-DD.<ext>
func DefaultExportPath(format Format, now time.Time) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Downloads", Filename(format, now)), nil
}
