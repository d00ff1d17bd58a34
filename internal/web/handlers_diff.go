package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/pfcatalog/internal/core"
)

// startDiffRequest is the body of POST /api/diff. Each side is a JSON
// object, or a JSON string holding a JSON or YAML document.
type startDiffRequest struct {
	Left  json.RawMessage `json:"left"`
	Right json.RawMessage `json:"right"`
}

// chooseRequest is the body of POST /api/diff/{sessionID}/choice.
type chooseRequest struct {
	Field string `json:"field"`
	Side  string `json:"side"`
}

// applyChoicesResponse is returned after an edited report is applied.
type applyChoicesResponse struct {
	Applied int                   `json:"applied"`
	Session *core.DiffSessionInfo `json:"session"`
}

func (s *Server) handleStartDiff(w http.ResponseWriter, r *http.Request) {
	limit := 2*s.cfg.Diff.MaxInputSize + 1024
	var req startDiffRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, fmt.Errorf("%w: %v", core.ErrFileTooLarge, err))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	left, err := sideDocument(req.Left)
	if err != nil {
		writeError(w, http.StatusBadRequest, "left: "+err.Error())
		return
	}
	right, err := sideDocument(req.Right)
	if err != nil {
		writeError(w, http.StatusBadRequest, "right: "+err.Error())
		return
	}

	info, err := s.service.StartDiff(left, right)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// sideDocument unwraps a JSON string so YAML text can be posted inside the
// JSON body.
func sideDocument(raw json.RawMessage) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, errors.New("missing document")
	}
	if raw[0] != '"' {
		return raw, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil, err
	}
	return []byte(text), nil
}

// handleCompareRemote opens a session with the PlayFab copy of an item on
// the left and the stored copy on the right.
func (s *Server) handleCompareRemote(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.CompareWithRemote(r.Context(), chi.URLParam(r, "itemID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// handleGetDiff returns a session. With differing=true only the rows whose
// values differ are returned.
func (s *Server) handleGetDiff(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	if differing, _ := strconv.ParseBool(r.URL.Query().Get("differing")); differing {
		rows, err := s.service.DiffRows(id, true)
		if err != nil {
			respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rows)
		return
	}

	info, err := s.service.DiffSession(id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleChoose(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	var req chooseRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.service.Choose(id, req.Field, req.Side); err != nil {
		respondError(w, r, err)
		return
	}
	s.writeSession(w, r, id)
}

func (s *Server) handleChooseAll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.service.ChooseAll(id, chi.URLParam(r, "side")); err != nil {
		respondError(w, r, err)
		return
	}
	s.writeSession(w, r, id)
}

// handleApplyChoices applies the choice column of an edited diff report
// sent as a CSV body.
func (s *Server) handleApplyChoices(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	n, err := s.service.ApplyChoices(id, http.MaxBytesReader(w, r.Body, s.cfg.Diff.MaxInputSize))
	if err != nil {
		respondError(w, r, err)
		return
	}
	info, err := s.service.DiffSession(id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, applyChoicesResponse{Applied: n, Session: info})
}

// handleDiffReport downloads the differing rows as CSV.
func (s *Server) handleDiffReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	var buf bytes.Buffer
	if err := s.service.WriteDiffReport(id, &buf); err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "diff-"+id+".csv"))
	buf.WriteTo(w)
}

// handleMerge closes a session and returns the merged fields. With
// apply=true the merged record is also stored.
func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	apply, _ := strconv.ParseBool(r.URL.Query().Get("apply"))

	result, err := s.service.FinishDiff(r.Context(), chi.URLParam(r, "sessionID"), apply)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCancelDiff(w http.ResponseWriter, r *http.Request) {
	if err := s.service.CancelDiff(chi.URLParam(r, "sessionID")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeSession(w http.ResponseWriter, r *http.Request, id string) {
	info, err := s.service.DiffSession(id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
