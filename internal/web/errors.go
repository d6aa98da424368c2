package web

import (
	"errors"
	"net/http"

	"github.com/userdesk/userdesk/internal/logging"
	"github.com/userdesk/userdesk/internal/users"
	"github.com/userdesk/userdesk/internal/web/view"
)

type errorData struct {
	Heading string
	Message string
}

// renderError shows the error page without leaking internals.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, heading, message string) {
	data := view.TemplateData{
		Title:       heading,
		CurrentPath: r.URL.Path,
		Data:        errorData{Heading: heading, Message: message},
	}
	if err := s.views.Render(w, status, "error", data); err != nil {
		s.logger.Error("error page render failed", "error", err)
		http.Error(w, http.StatusText(status), status)
	}
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusNotFound, "Page not found",
		"The page you requested does not exist.")
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusNotFound, "User not found",
		"The requested user does not exist. It may have been deleted.")
}

// serverError logs the cause and shows a generic failure page.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, users.ErrNotFound) {
		s.notFound(w, r)
		return
	}
	logging.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	s.renderError(w, r, http.StatusInternalServerError, "Something went wrong",
		"An unexpected error occurred. Please try again.")
}
