/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/phuonguno98/secportal/pkg/report"
)

// MaxUploadSize limits raw log uploads (200MB).
const MaxUploadSize = 200 * 1024 * 1024

// Server exposes a Store over the REST API the dashboard consumes.
type Server struct {
	store  *Store
	runner *Runner
	logger *slog.Logger
	router *mux.Router
}

// NewServer wires the archive routes.
func NewServer(store *Store, runner *Runner, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:  store,
		runner: runner,
		logger: logger,
		router: mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(corsMiddleware)
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/reports/{category}/{mode:daily|monthly}", s.handleList).Methods("GET")
	api.HandleFunc("/serve/{category}/{mode:daily|monthly}/{filename}", s.handleServe).Methods("GET")
	api.HandleFunc("/file", s.handleFile).Methods("GET")
	api.HandleFunc("/summary/{category}", s.handleSummary).Methods("GET")
	api.HandleFunc("/upload/{category}", s.handleUpload).Methods("POST")
	api.HandleFunc("/generate/{mode}/{category}", s.handleGenerate).Methods("POST")
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// corsMiddleware lets the dashboard call the archive from another origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Security report archive API",
	})
}

func (s *Server) category(w http.ResponseWriter, r *http.Request) (report.Category, bool) {
	raw := mux.Vars(r)["category"]
	c, err := report.ParseCategory(raw)
	if err != nil {
		s.writeError(w, fmt.Sprintf("Unknown report type: %s", raw), http.StatusNotFound)
		return "", false
	}
	return c, true
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	c, ok := s.category(w, r)
	if !ok {
		return
	}

	var (
		data interface{}
		err  error
	)
	if mux.Vars(r)["mode"] == string(report.Monthly) {
		data, err = s.store.Monthly(c)
	} else {
		data, err = s.store.Daily(c)
	}
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleServe(w http.ResponseWriter, r *http.Request) {
	c, ok := s.category(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	path, err := s.store.Locate(c, report.Mode(vars["mode"]), vars["filename"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.serveHTML(w, r, path)
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("path")
	if raw == "" {
		s.writeError(w, "Missing path parameter", http.StatusBadRequest)
		return
	}
	path, err := s.store.CheckFile(raw)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.serveHTML(w, r, path)
}

func (s *Server) serveHTML(w http.ResponseWriter, r *http.Request, path string) {
	f, err := os.Open(path)
	if err != nil {
		s.writeError(w, ErrNotFound.Error(), http.StatusNotFound)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("Failed to close report file", "path", path, "error", err)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		s.writeError(w, ErrNotFound.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filepath.Base(path)))
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	c, ok := s.category(w, r)
	if !ok {
		return
	}
	sum, err := s.store.Summary(c)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	c, ok := s.category(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeError(w, "File too large or invalid form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, "Failed to get file from form", http.StatusBadRequest)
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			s.logger.Warn("Failed to close uploaded file", "error", err)
		}
	}()

	res, err := s.store.SaveUpload(c, r.FormValue("selectedDate"), header.Filename, file)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	mode, err := report.ParseMode(mux.Vars(r)["mode"])
	if err != nil {
		s.writeError(w, err.Error(), http.StatusNotFound)
		return
	}
	c, ok := s.category(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.writeError(w, "Invalid form", http.StatusBadRequest)
		return
	}
	selected := r.FormValue("selectedDate")
	if err := checkSelectedDate(mode, selected); err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	template, err := s.store.Command(c, mode)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if s.runner == nil {
		s.writeError(w, ErrNotConfigured.Error(), http.StatusNotImplemented)
		return
	}

	if err := s.runner.Start(template, selected, "category", c, "mode", mode); err != nil {
		switch {
		case errors.Is(err, ErrThrottled):
			s.writeError(w, err.Error(), http.StatusTooManyRequests)
		case errors.Is(err, ErrNotConfigured):
			s.writeError(w, fmt.Sprintf("No %s generator configured for %s", mode, c), http.StatusNotImplemented)
		default:
			s.logger.Error("Failed to start generator", "category", c, "mode", mode, "error", err)
			s.writeError(w, "Failed to start report generation", http.StatusInternalServerError)
		}
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"status":       "started",
		"type":         string(c),
		"mode":         string(mode),
		"selectedDate": selected,
	})
}

// checkSelectedDate accepts YYYY_MM_DD for daily and YYYYMM for monthly generation.
func checkSelectedDate(mode report.Mode, value string) error {
	layout := report.UploadDateLayout
	want := "YYYY_MM_DD"
	if mode == report.Monthly {
		layout = report.CompactLayout
		want = "YYYYMM"
	}
	if _, err := time.Parse(layout, value); err != nil || len(value) != len(layout) {
		return fmt.Errorf("selectedDate must be %s", want)
	}
	return nil
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, report.ErrUnknownCategory):
		s.writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		s.writeError(w, "Access denied: File is not in an allowed directory", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		s.writeError(w, "File not found", http.StatusNotFound)
	case errors.Is(err, ErrNotHTML):
		s.writeError(w, "Only HTML files are allowed", http.StatusBadRequest)
	case errors.Is(err, ErrBadUpload):
		s.writeError(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error("Archive request failed", "error", err)
		s.writeError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to write JSON response", "error", err)
	}
}

// writeError uses the {"detail": ...} shape report clients already understand.
func (s *Server) writeError(w http.ResponseWriter, message string, status int) {
	s.writeJSON(w, status, map[string]string{"detail": message})
}
