package web

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/userdesk/userdesk/internal/session"
)

// maxFormMemory bounds the in-memory portion of multipart parsing; the
// rest spills to temporary files.
const maxFormMemory = 32 << 20

// requestLogger logs one line per request with method, path, status and
// duration, carrying the chi request ID.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
			)
		})
	}
}

// withSession loads the session, guards mutating requests with a CSRF
// check and an upload-size cap, and commits the session before the
// response headers are flushed.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.Load(r.Context(), r)
		if err != nil {
			s.logger.Error("session load failed", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if _, err := s.csrf.EnsureToken(sess); err != nil {
			s.logger.Error("csrf token setup failed", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		r = r.WithContext(session.NewContext(r.Context(), sess))

		sw := &sessionWriter{ResponseWriter: w}
		sw.commit = func() {
			if err := s.sessions.Commit(r.Context(), w, sess); err != nil {
				s.logger.Error("session commit failed", "error", err)
			}
		}

		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
		default:
			r.Body = http.MaxBytesReader(sw, r.Body, s.cfg.Upload.MaxFileSize)
			if err := parseBody(r); err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					sess.AddFlash(session.FlashError, "The uploaded file is too large.")
					http.Redirect(sw, r, "/upload", http.StatusSeeOther)
					return
				}
				http.Error(sw, "bad request", http.StatusBadRequest)
				return
			}
			if err := s.csrf.VerifyToken(sess, r.FormValue(session.CSRFFormField)); err != nil {
				s.logger.Warn("csrf rejection", "path", r.URL.Path, "error", err)
				http.Error(sw, "invalid or missing form token", http.StatusForbidden)
				return
			}
		}

		next.ServeHTTP(sw, r)
		sw.finish()
	})
}

// parseBody parses urlencoded or multipart form bodies up front so the
// CSRF field is available regardless of encoding.
func parseBody(r *http.Request) error {
	err := r.ParseMultipartForm(maxFormMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		return nil
	}
	return err
}

// sessionWriter delays the session commit until just before the first
// header write so Set-Cookie always lands on the response.
type sessionWriter struct {
	http.ResponseWriter
	commit      func()
	committed   bool
	wroteHeader bool
}

func (w *sessionWriter) WriteHeader(code int) {
	if !w.committed {
		w.committed = true
		w.commit()
	}
	if !w.wroteHeader {
		w.wroteHeader = true
		w.ResponseWriter.WriteHeader(code)
	}
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// finish commits the session when the handler produced a bodyless
// response without ever touching the writer.
func (w *sessionWriter) finish() {
	if !w.committed {
		w.committed = true
		w.commit()
	}
}
