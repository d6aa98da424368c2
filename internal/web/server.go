// Package web wires the HTTP surface: routing, middleware, handlers and
// HTML rendering for the user records application.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/userdesk/userdesk/internal/config"
	"github.com/userdesk/userdesk/internal/importer"
	"github.com/userdesk/userdesk/internal/session"
	"github.com/userdesk/userdesk/internal/users"
	"github.com/userdesk/userdesk/internal/web/view"
)

// Server hosts the HTTP handlers and their dependencies.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	users    *users.Service
	importer *importer.Importer
	sessions *session.Manager
	csrf     *session.CSRFManager
	views    *view.Engine
	imports  *importer.Limiter
	router   chi.Router
}

// NewServer assembles the router with the full middleware stack.
func NewServer(
	cfg *config.Config,
	logger *slog.Logger,
	userService *users.Service,
	imp *importer.Importer,
	sessions *session.Manager,
	csrf *session.CSRFManager,
	views *view.Engine,
) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		users:    userService,
		importer: imp,
		sessions: sessions,
		csrf:     csrf,
		views:    views,
		imports:  importer.NewLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.AcquireTimeout),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	r.Use(secureHeaders(cfg))
	if cfg.Rate.Enabled {
		r.Use(httprate.Limit(
			cfg.Rate.RequestsPerMinute,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		))
	}
	r.Use(s.withSession)

	r.Get("/", s.handleUsersList)
	r.Get("/users/new", s.handleUserNew)
	r.Post("/users", s.handleUserCreate)
	r.Get("/users/{id}/edit", s.handleUserEdit)
	r.Post("/users/{id}", s.handleUserUpdate)
	r.Post("/users/{id}/delete", s.handleUserDelete)

	r.Get("/upload", s.handleUploadForm)
	r.Post("/upload", s.handleUploadSubmit)
	r.Get("/report", s.handleReportDownload)
	r.Get("/template", s.handleTemplateDownload)

	r.Get("/healthz", s.handleHealth)
	r.NotFound(s.handleNotFound)

	s.router = r
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func secureHeaders(cfg *config.Config) func(http.Handler) http.Handler {
	sec := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "same-origin",
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' 'unsafe-inline'",
		IsDevelopment:         !cfg.Session.Secure,
	})
	return sec.Handler
}
