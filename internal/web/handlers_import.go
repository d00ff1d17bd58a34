package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/pfcatalog/internal/core"
)

// multipartOverhead is allowed on top of the file size limit for the form
// boundaries and part headers.
const multipartOverhead = 1 << 20

// maxMemory is how much of a multipart form is held in memory before
// spilling to temporary files.
const maxMemory = 8 << 20

var errNoFile = errors.New("no file provided")

// handleImportCSV stores a Game Manager CSV sent as the multipart field
// "file". Rows that fail are listed in the response; the import itself
// only fails when the file cannot be read or stored.
func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, fmt.Errorf("%w: %v", core.ErrFileTooLarge, err))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errNoFile)
		return
	}
	defer file.Close()

	result, err := s.service.ImportCSV(r.Context(), header.Filename, file, header.Size)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleImportJSON stores a JSON array of records sent as the request body.
// The optional name query parameter is recorded as the file name.
func (s *Server) handleImportJSON(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, fmt.Errorf("%w: %v", core.ErrFileTooLarge, err))
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "import.json"
	}

	result, err := s.service.ImportJSON(r.Context(), name, data)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handlePush replaces the PlayFab catalog version with the stored one.
func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Push(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
