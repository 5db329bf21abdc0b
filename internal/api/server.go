package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Knoblauchpilze/ReadDesc-sub000/internal/catalogue"
	"github.com/Knoblauchpilze/ReadDesc-sub000/internal/config"
	"github.com/Knoblauchpilze/ReadDesc-sub000/internal/reader"
)

// Server is the HTTP surface over the catalogue and reading sessions.
type Server struct {
	router    chi.Router
	catalogue *catalogue.Store
	sessions  *reader.SessionStore
	log       *slog.Logger
	cfg       config.Config
}

func NewServer(cat *catalogue.Store, sessions *reader.SessionStore, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		catalogue: cat,
		sessions:  sessions,
		log:       log,
		cfg:       cfg,
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

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/reads", s.handleCreateRead)
		r.Get("/api/reads", s.handleListReads)
		r.Delete("/api/reads/{name}", s.handleDeleteRead)

		r.Post("/api/reads/{name}/session", s.handleOpenSession)
		r.Get("/api/sessions/{sessionID}", s.handleSessionStatus)
		r.Post("/api/sessions/{sessionID}/motion", s.handleMotion)
		r.Delete("/api/sessions/{sessionID}", s.handleCloseSession)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
