package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/dgallion1/citeview/internal/citation"
	"github.com/dgallion1/citeview/internal/controller"
	"github.com/go-chi/chi/v5"
)

type pageRequest struct {
	Page int `json:"page"`
}

type resizeRequest struct {
	Width float64 `json:"width"`
}

type scrolledRequest struct {
	Activation uint64 `json:"activation"`
}

func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	s.respondSnapshot(w)
}

func (s *Server) handlePrev(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, s.controller.Prev())
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, s.controller.Next())
}

func (s *Server) handleGoToPage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	s.dispatch(w, s.controller.GoToPage(req.Page))
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Width < 0 || math.IsInf(req.Width, 0) {
		jsonError(w, "width must be a non-negative number", http.StatusBadRequest)
		return
	}
	s.dispatch(w, s.controller.Resize(req.Width))
}

func (s *Server) handleScrolled(w http.ResponseWriter, r *http.Request) {
	var req scrolledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	s.dispatch(w, s.controller.ScrollCompleted(req.Activation))
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		jsonError(w, "citation id must be an integer", http.StatusBadRequest)
		return
	}
	s.dispatch(w, s.controller.ActivateCitation(citation.ID(id)))
}

func (s *Server) handleListCitations(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"citations": snap.Markers,
	})
}

// dispatch answers a posted event with the state after it was applied.
func (s *Server) dispatch(w http.ResponseWriter, err error) {
	if err != nil {
		s.controllerError(w, err)
		return
	}
	s.respondSnapshot(w)
}

func (s *Server) respondSnapshot(w http.ResponseWriter) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}

func (s *Server) snapshot(w http.ResponseWriter) (controller.Snapshot, bool) {
	snap, err := s.controller.Snapshot()
	if err != nil {
		s.controllerError(w, err)
		return controller.Snapshot{}, false
	}
	return snap, true
}

func (s *Server) controllerError(w http.ResponseWriter, err error) {
	if errors.Is(err, controller.ErrStopped) {
		jsonError(w, "viewer is shutting down", http.StatusServiceUnavailable)
		return
	}
	s.log.Error("controller request failed", "error", err)
	jsonError(w, "internal error", http.StatusInternalServerError)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
