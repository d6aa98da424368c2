package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/userdesk/userdesk/internal/session"
	"github.com/userdesk/userdesk/internal/users"
	"github.com/userdesk/userdesk/internal/web/view"
)

const defaultPageSize = 10

type listData struct {
	Users      []users.User
	Page       int
	TotalPages int
	Total      int64
}

type formData struct {
	Heading string
	Action  string
	Input   users.Input
	Errors  map[string]string
}

// render wires session state (flash, CSRF token) into the template data.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	td := view.TemplateData{
		Title:       title,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if sess := session.FromContext(r.Context()); sess != nil {
		td.Flash = sess.PopFlash()
		td.CSRFToken, _ = s.csrf.EnsureToken(sess)
	}
	if err := s.views.Render(w, status, name, td); err != nil {
		s.logger.Error("page render failed", "template", name, "error", err)
	}
}

// redirectWithFlash queues a flash message and redirects with 303.
func (s *Server) redirectWithFlash(w http.ResponseWriter, r *http.Request, url, kind, message string) {
	if sess := session.FromContext(r.Context()); sess != nil {
		sess.AddFlash(kind, message)
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func (s *Server) handleUsersList(w http.ResponseWriter, r *http.Request) {
	page := pageParam(r)

	list, total, err := s.users.List(r.Context(), page, defaultPageSize)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	totalPages := int((total + defaultPageSize - 1) / defaultPageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	if len(list) == 0 && page > totalPages {
		http.Redirect(w, r, fmt.Sprintf("/?page=%d", totalPages), http.StatusSeeOther)
		return
	}

	s.render(w, r, http.StatusOK, "users/list", "Users", listData{
		Users:      list,
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
	})
}

func (s *Server) handleUserNew(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "users/form", "Add User", formData{
		Heading: "Add User",
		Action:  "/users",
	})
}

func (s *Server) handleUserCreate(w http.ResponseWriter, r *http.Request) {
	in := inputFromForm(r)
	in.Normalize()

	_, fieldErrs, err := s.users.Create(r.Context(), in)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if fieldErrs != nil {
		s.render(w, r, http.StatusUnprocessableEntity, "users/form", "Add User", formData{
			Heading: "Add User",
			Action:  "/users",
			Input:   in,
			Errors:  fieldErrs,
		})
		return
	}

	s.redirectWithFlash(w, r, "/", session.FlashSuccess, "User created successfully.")
}

func (s *Server) handleUserEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.notFound(w, r)
		return
	}

	u, err := s.users.Get(r.Context(), id)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "users/form", "Edit User", formData{
		Heading: "Edit User",
		Action:  fmt.Sprintf("/users/%d", u.ID),
		Input: users.Input{
			Name:    u.Name,
			Email:   u.Email,
			Address: u.Address,
			About:   u.About,
			Number:  u.Number,
		},
	})
}

func (s *Server) handleUserUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.notFound(w, r)
		return
	}

	in := inputFromForm(r)
	in.Normalize()

	fieldErrs, err := s.users.Update(r.Context(), id, in)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if fieldErrs != nil {
		s.render(w, r, http.StatusUnprocessableEntity, "users/form", "Edit User", formData{
			Heading: "Edit User",
			Action:  fmt.Sprintf("/users/%d", id),
			Input:   in,
			Errors:  fieldErrs,
		})
		return
	}

	s.redirectWithFlash(w, r, "/", session.FlashSuccess, "User updated successfully.")
}

func (s *Server) handleUserDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.notFound(w, r)
		return
	}

	if err := s.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			s.notFound(w, r)
			return
		}
		s.serverError(w, r, err)
		return
	}

	s.redirectWithFlash(w, r, "/", session.FlashSuccess, "User deleted successfully.")
}

func inputFromForm(r *http.Request) users.Input {
	return users.Input{
		Name:    r.FormValue("name"),
		Email:   r.FormValue("email"),
		Address: r.FormValue("address"),
		About:   r.FormValue("about"),
		Number:  r.FormValue("number"),
	}
}

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
