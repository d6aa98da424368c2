package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/userdesk/userdesk/internal/importer"
	"github.com/userdesk/userdesk/internal/report"
	"github.com/userdesk/userdesk/internal/session"
	"github.com/userdesk/userdesk/internal/users"
)

type uploadData struct {
	Users []users.User
}

func (s *Server) handleUploadForm(w http.ResponseWriter, r *http.Request) {
	list, err := s.users.ListAll(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "upload", "Upload CSV", uploadData{Users: list})
}

func (s *Server) handleUploadSubmit(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		s.redirectWithFlash(w, r, "/upload", session.FlashError, "Please choose a CSV file.")
		return
	}
	defer file.Close()

	if err := s.imports.Acquire(r.Context()); err != nil {
		if errors.Is(err, importer.ErrBusy) {
			s.redirectWithFlash(w, r, "/upload", session.FlashWarning,
				"Too many imports are running right now. Please try again shortly.")
			return
		}
		s.serverError(w, r, err)
		return
	}
	defer s.imports.Release()

	res, err := s.importer.Import(r.Context(), header.Filename, header.Size, file)
	switch {
	case errors.Is(err, importer.ErrNoFile):
		s.redirectWithFlash(w, r, "/upload", session.FlashError, "Please choose a CSV file.")
	case errors.Is(err, importer.ErrNotCSV):
		s.redirectWithFlash(w, r, "/upload", session.FlashError, "Only CSV files are allowed.")
	case errors.Is(err, importer.ErrNoValidRows):
		s.redirectWithFlash(w, r, "/upload", session.FlashWarning, "No valid user rows found in the CSV file.")
	case err != nil:
		s.logger.Error("csv import failed", "file", header.Filename, "error", err)
		s.redirectWithFlash(w, r, "/upload", session.FlashError, "Import failed. Please try again.")
	default:
		msg := fmt.Sprintf("%d user(s) imported successfully.", res.Inserted)
		if res.Skipped > 0 {
			msg = fmt.Sprintf("%d user(s) imported successfully, %d row(s) skipped.", res.Inserted, res.Skipped)
		}
		s.redirectWithFlash(w, r, "/upload", session.FlashSuccess, msg)
	}
}

func (s *Server) handleReportDownload(w http.ResponseWriter, r *http.Request) {
	list, err := s.users.ListAll(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	pdf, err := report.UsersPDF(list)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.PDFFileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.Write(pdf)
}

func (s *Server) handleTemplateDownload(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.TemplateFileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(report.TemplateCSV)))
	w.Write([]byte(report.TemplateCSV))
}
