// Package api is the companion server: it receives bookmark uploads from the
// extension and serves the dashboard's views of the last snapshot.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nikbrunner/linksaver/internal/exporter"
)

// maxUploadBytes bounds an uploaded snapshot.
const maxUploadBytes = 32 << 20

// Server is the HTTP API server for linksaver.
type Server struct {
	router    chi.Router
	snapshots *SnapshotStore
	log       *slog.Logger
	html      exporter.HTMLOptions
	now       func() time.Time
}

// NewServer creates and configures the HTTP server.
func NewServer(snapshots *SnapshotStore, log *slog.Logger, html exporter.HTMLOptions) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		snapshots: snapshots,
		log:       log,
		html:      html,
		now:       time.Now,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/uploadBookmarks", s.handleUpload)
		r.Get("/bookmarks", s.handleBookmarks)

		r.Get("/sites", s.handleSites)
		r.Get("/sites/{domain}", s.handleSite)
		r.Get("/folders", s.handleFolders)
		r.Get("/recent", s.handleRecent)
		r.Get("/export/{format}", s.handleExport)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]any{"success": false, "message": msg})
}
