package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/citeview/internal/analysis"
	"github.com/dgallion1/citeview/internal/citation"
)

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}

	body, err := analysis.Decorate(s.panel.HTML, snap.IsActive)
	if err != nil {
		s.log.Error("decorate analysis", "error", err)
		jsonError(w, "failed to render analysis", http.StatusInternalServerError)
		return
	}

	unresolved := s.panel.Unresolved(s.controller.Registry())
	if unresolved == nil {
		unresolved = []citation.ID{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"title":      s.panel.Title,
		"html":       body,
		"citations":  snap.Markers,
		"unresolved": unresolved,
	})
}

func (s *Server) handleRenderStats(w http.ResponseWriter, r *http.Request) {
	stats := s.controller.Stats()
	if stats == nil {
		jsonError(w, "render stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"stats": stats.Snapshot(),
	})
}
