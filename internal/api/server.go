package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/citeview/internal/analysis"
	"github.com/dgallion1/citeview/internal/config"
	"github.com/dgallion1/citeview/internal/controller"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server is the HTTP API server for the citation viewer.
type Server struct {
	router     chi.Router
	controller *controller.Controller
	hub        *Hub
	panel      *analysis.Panel
	log        *slog.Logger
	cfg        config.Config
}

// NewServer creates and configures the HTTP server. hub must be the notifier
// the controller publishes to.
func NewServer(ctrl *controller.Controller, hub *Hub, panel *analysis.Panel, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		controller: ctrl,
		hub:        hub,
		panel:      panel,
		log:        log,
		cfg:        cfg,
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
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated when VIEWER_API_KEY is set.
	r.Group(func(r chi.Router) {
		if s.cfg.ViewerAPIKey != "" {
			r.Use(AuthMiddleware(s.cfg.ViewerAPIKey, s.log))
		}

		r.Get("/report.pdf", s.handleDocument)
		r.Get("/ws", s.hub.ServeWS(s.controller))

		r.Get("/api/viewer", s.handleViewer)
		r.Post("/api/viewer/prev", s.handlePrev)
		r.Post("/api/viewer/next", s.handleNext)
		r.Post("/api/viewer/page", s.handleGoToPage)
		r.Post("/api/viewer/resize", s.handleResize)
		r.Post("/api/viewer/scrolled", s.handleScrolled)

		r.Get("/api/citations", s.handleListCitations)
		r.Post("/api/citations/{id}/activate", s.handleActivate)

		r.Get("/api/analysis", s.handleAnalysis)
		r.Get("/api/stats/render", s.handleRenderStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, s.cfg.DocumentPath)
}
