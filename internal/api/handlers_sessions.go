package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/Knoblauchpilze/ReadDesc-sub000/internal/loader"
	"github.com/Knoblauchpilze/ReadDesc-sub000/internal/reader"
)

// handleOpenSession starts reading a catalogued document at its saved
// completion. Loading happens in the background; the client polls the
// returned session URL until the status is ready.
func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	desc, ok := s.catalogue.Get(name)
	if !ok {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	src := func(ctx context.Context) (io.ReadCloser, error) {
		return os.Open(desc.Source)
	}
	parser, err := reader.NewParser(desc, src, s.log, loader.Options{PageWindow: s.cfg.PDFPageWindow})
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess := reader.NewSession(parser)
	s.sessions.Put(sess)
	parser.StartReading()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"session_id": sess.ID,
		"document":   desc.Name,
		"poll_url":   fmt.Sprintf("/api/sessions/%s", sess.ID),
	})
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if sess == nil {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	sess.Touch()

	snap := sess.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"session_id":            snap.ID,
		"document":              snap.Document,
		"status":                snap.Status,
		"progress":              snap.Progress,
		"completion":            snap.Completion,
		"current_word":          snap.CurrentWord,
		"at_start":              snap.AtStart,
		"at_end":                snap.AtEnd,
		"word_flip_interval_ms": s.cfg.WordFlipIntervalMillis,
	})
}

type motionRequest struct {
	Action string `json:"action"`
	Step   int    `json:"step,omitempty"`
}

func (s *Server) handleMotion(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if sess == nil {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	sess.Touch()

	var req motionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid motion request: "+err.Error(), http.StatusBadRequest)
		return
	}
	step := req.Step
	if step <= 0 {
		step = s.cfg.StepWordCount
	}

	parser := sess.Parser()
	var res loader.Motion
	switch req.Action {
	case "rewind":
		res = parser.Rewind()
	case "next_word":
		res = parser.Advance()
	case "previous_step":
		res = parser.MoveToPrevious(step)
	case "next_step":
		res = parser.MoveToNext(step)
	default:
		jsonError(w, fmt.Sprintf("unknown action: %s", req.Action), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"changed":      res.Changed,
		"loading":      res.NeedsLoading,
		"completion":   parser.Completion(),
		"current_word": parser.CurrentWord(),
	})
}

// handleCloseSession persists the progression and releases the loader.
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess := s.sessions.Get(id)
	if sess == nil {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}

	saved := sess.Parser().SaveProgression(s.catalogue)
	if err := sess.Parser().Close(); err != nil {
		s.log.Warn("session close", "session_id", id, "error", err)
	}
	s.sessions.Delete(id)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"saved": saved})
}
