package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nikbrunner/linksaver/internal/exporter"
	"github.com/nikbrunner/linksaver/internal/model"
)

// defaultRecentLimit matches the extension's default maxRecentBookmarks.
const defaultRecentLimit = 10

// handleUpload stores the posted document as the current snapshot.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		jsonError(w, "failed to read body: "+err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	if !json.Valid(body) {
		jsonError(w, "request body must be JSON", http.StatusBadRequest)
		return
	}

	if err := s.snapshots.Write(body); err != nil {
		s.log.Error("writing snapshot", "path", s.snapshots.Path(), "error", err)
		jsonError(w, "failed to save bookmarks: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.log.Info("snapshot saved", "path", s.snapshots.Path(), "bytes", len(body))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Bookmarks saved successfully.",
	})
}

// handleBookmarks returns the stored snapshot as uploaded.
func (s *Server) handleBookmarks(w http.ResponseWriter, r *http.Request) {
	data, err := s.snapshots.Read()
	if errors.Is(err, ErrNoSnapshot) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": ErrNoSnapshot.Error()})
		return
	}
	if err != nil {
		jsonError(w, "failed to read bookmarks: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "bookmarks": data})
}

// tree decodes the snapshot, writing the error response itself on failure.
func (s *Server) tree(w http.ResponseWriter) ([]model.Node, bool) {
	tree, err := s.snapshots.Tree()
	switch {
	case errors.Is(err, ErrNoSnapshot):
		jsonError(w, ErrNoSnapshot.Error(), http.StatusNotFound)
		return nil, false
	case errors.Is(err, model.ErrInvalidTree):
		jsonError(w, "stored bookmarks are not a bookmark tree", http.StatusUnprocessableEntity)
		return nil, false
	case err != nil:
		jsonError(w, "failed to read bookmarks: "+err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return tree, true
}

// handleSites lists links grouped by hostname, optionally filtered by a
// glob on the domain.
func (s *Server) handleSites(w http.ResponseWriter, r *http.Request) {
	tree, ok := s.tree(w)
	if !ok {
		return
	}

	groups := model.GroupByDomain(model.Links(model.Flatten(tree)))
	groups, err := model.FilterGroups(groups, r.URL.Query().Get("match"))
	if err != nil {
		jsonError(w, "invalid match pattern: "+err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "sites": groups})
}

type siteLink struct {
	ID        string        `json:"id"`
	ParentID  string        `json:"parentId,omitempty"`
	Title     string        `json:"title"`
	URL       string        `json:"url"`
	DateAdded int64         `json:"dateAdded,omitempty"`
	Favicon   string        `json:"favicon"`
	Info      model.URLInfo `json:"info"`
}

// handleSite lists the links of a single hostname.
func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	domain := strings.ToLower(chi.URLParam(r, "domain"))

	tree, ok := s.tree(w)
	if !ok {
		return
	}

	links := []siteLink{}
	for _, n := range model.Links(model.Flatten(tree)) {
		host, ok := model.Hostname(n.URL)
		if !ok {
			host = model.UnknownDomain
		}
		if !strings.EqualFold(host, domain) {
			continue
		}
		info, _ := model.ParseURLInfo(n.URL)
		links = append(links, siteLink{
			ID:        n.ID,
			ParentID:  n.ParentID,
			Title:     n.Title,
			URL:       n.URL,
			DateAdded: n.DateAdded,
			Favicon:   model.FaviconURL(n.URL),
			Info:      info,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"domain":  domain,
		"count":   len(links),
		"links":   links,
	})
}

// handleFolders lists every folder of the snapshot in tree order.
func (s *Server) handleFolders(w http.ResponseWriter, r *http.Request) {
	tree, ok := s.tree(w)
	if !ok {
		return
	}

	folders := model.Folders(model.Flatten(tree))
	for i := range folders {
		folders[i] = folders[i].Shallow()
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "folders": folders})
}

// handleRecent lists the newest links.
func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	tree, ok := s.tree(w)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "bookmarks": model.Recent(tree, limit)})
}

// handleExport serves the snapshot as a download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := exporter.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	tree, ok := s.tree(w)
	if !ok {
		return
	}

	dl, err := exporter.ForDownload(tree, format, s.html, s.now())
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", dl.ContentType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.Filename))
	w.Write(dl.Data)
}
