package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/pfcatalog/internal/core"
)

// exportFileName is the attachment name PlayFab's Game Manager uses.
const exportFileName = "StoreCatalog.csv"

// defaultImportListLimit is used when /api/imports has no valid limit.
const defaultImportListLimit = 50

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status         string             `json:"status"`
	CatalogVersion string             `json:"catalogVersion"`
	RemoteEnabled  bool               `json:"remoteEnabled"`
	OpenSessions   int                `json:"openSessions"`
	Operations     core.LimiterStatus `json:"operations"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:         "ok",
		CatalogVersion: s.service.CatalogVersion(),
		RemoteEnabled:  s.service.RemoteEnabled(),
		OpenSessions:   s.service.OpenSessions(),
		Operations:     s.service.Limiter().Status(),
	})
}

// handleListItems lists stored items. kind filters by item, bundle or
// container and q matches item id or display name.
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := s.service.ListItems(r.Context(), q.Get("kind"), q.Get("q"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.service.GetItem(r.Context(), chi.URLParam(r, "itemID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleExport writes the stored catalog version as a Game Manager CSV.
// The body is built first so a failed query still gets a JSON error.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.service.ExportCSV(r.Context(), &buf); err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFileName))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	buf.WriteTo(w)
}

func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	imports, err := s.service.ListImports(r.Context(), parseIntParam(r, "limit", defaultImportListLimit))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, imports)
}

// handleImportSource returns the text of a past import as it was stored.
func (s *Server) handleImportSource(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "importID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid import id")
		return
	}

	src, err := s.service.ImportSource(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(src)
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
