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

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/phuonguno98/secportal/internal/selection"
	"github.com/phuonguno98/secportal/internal/submit"
	"github.com/phuonguno98/secportal/internal/viewer"
	"github.com/phuonguno98/secportal/pkg/report"
	"github.com/phuonguno98/secportal/pkg/version"
	"github.com/phuonguno98/secportal/web"
	"github.com/shirou/gopsutil/v3/host"
)

const (
	// MaxUploadSize limits raw log uploads relayed to the backend (200MB)
	MaxUploadSize = 200 * 1024 * 1024
)

// Dependency injection point for testing
var hostInfo = host.InfoWithContext

// Catalog lists report artifacts. *catalog.Client implements it.
type Catalog interface {
	selection.Lister
	SummarizeAll(ctx context.Context, categories []report.Category) []report.Summary
}

// Actions submits uploads and generation requests. *submit.Submitter implements it.
type Actions interface {
	Upload(ctx context.Context, req submit.UploadRequest) (*submit.UploadResult, error)
	Generate(ctx context.Context, req submit.GenerateRequest) (*submit.GenerateResult, error)
}

// Options wires the server to its collaborators.
type Options struct {
	Catalog  Catalog
	Viewer   *viewer.Viewer
	Actions  Actions
	APIBase  string
	Location *time.Location   // Location deciding what "today" is
	Now      func() time.Time // Clock, time.Now when nil
}

// Server renders the report portal and relays actions to the backend.
type Server struct {
	opts   Options
	pages  map[string]*template.Template
	logger *slog.Logger
	router *mux.Router
}

// NewServer parses the embedded templates and sets up routes.
func NewServer(opts Options, logger *slog.Logger) (*Server, error) {
	if opts.Catalog == nil || opts.Viewer == nil || opts.Actions == nil {
		return nil, errors.New("catalog, viewer and actions are required")
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		opts:   opts,
		pages:  make(map[string]*template.Template),
		logger: logger,
		router: mux.NewRouter(),
	}

	for _, name := range []string{"dashboard", "browser", "notfound"} {
		t, err := template.ParseFS(web.Assets, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		s.pages[name] = t
	}

	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	// Add CORS middleware
	s.router.Use(corsMiddleware)
	// Add logging middleware
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/", s.handleDashboard).Methods("GET")
	s.router.HandleFunc("/reports/{category}", s.handleBrowser).Methods("GET")
	s.router.HandleFunc("/reports/{category}/download", s.handleDownload).Methods("GET")
	for _, c := range report.AllCategories() {
		s.router.HandleFunc("/"+string(c), s.handleLegacyRedirect(c)).Methods("GET")
	}

	s.router.HandleFunc("/api/version", s.handleGetVersion).Methods("GET")
	s.router.HandleFunc("/api/status", s.handleStatus).Methods("GET")
	s.router.HandleFunc("/api/actions/upload", s.handleUpload).Methods("POST")
	s.router.HandleFunc("/api/actions/generate", s.handleGenerate).Methods("POST")

	// Static files from embedded FS
	staticFS, err := fs.Sub(web.Assets, "static")
	if err != nil {
		s.logger.Error("Failed to get static assets", "error", err)
	}
	s.router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", s.staticFileHandler(staticFS)))

	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware tags each request with an ID and logs it
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("HTTP request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// staticFileHandler serves static files with caching disabled
func (s *Server) staticFileHandler(root fs.FS) http.Handler {
	fileServer := http.FileServer(http.FS(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		fileServer.ServeHTTP(w, r)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

// basePage carries what the shared layout needs.
type basePage struct {
	Active     string
	Categories []report.Metadata
	Demo       bool
}

func (s *Server) base(active string) basePage {
	return basePage{Active: active, Categories: report.Categories(), Demo: s.opts.Viewer.Demo()}
}

type categoryCard struct {
	Meta    report.Metadata
	Summary report.Summary
}

type hostStatus struct {
	Status   string
	Hostname string
	Uptime   string
}

type dashboardPage struct {
	basePage
	Now   string
	Cards []categoryCard
	Host  hostStatus
}

// handleDashboard renders one card per category with its catalog summary.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	categories := report.AllCategories()
	summaries := s.opts.Catalog.SummarizeAll(r.Context(), categories)

	page := dashboardPage{
		basePage: s.base(""),
		Now:      s.now().Format("Monday, January 2, 2006 15:04"),
		Host:     hostStatus{Status: "Active", Hostname: "unknown", Uptime: "n/a"},
	}
	for i, c := range categories {
		page.Cards = append(page.Cards, categoryCard{Meta: c.Meta(), Summary: summaries[i]})
	}
	if info, err := hostInfo(r.Context()); err == nil {
		page.Host.Hostname = info.Hostname
		page.Host.Uptime = formatUptime(info.Uptime)
	} else {
		s.logger.Debug("Host info unavailable", "error", err)
	}

	s.render(w, http.StatusOK, "dashboard", page)
}

type browserPage struct {
	basePage
	Meta            report.Metadata
	Tab             string
	Date            string
	MaxDate         string
	Month           string
	MaxMonth        string
	AvailableDates  []string
	AvailableMonths []string
	Notice          string
	Frame           viewer.Frame
	DailyURL        string
	MonthlyURL      string
	DownloadURL     string
}

// futureDateNotice is the message shown when a query selects a day after today.
const futureDateNotice = "Cannot select a future date"

// load builds the selection for a browsing request and resolves its artifact.
// A future date is never resolved; it falls back to the default date and
// invalid reports the rejection.
func (s *Server) load(r *http.Request, c report.Category) (view *selection.View, art selection.Artifact, invalid bool) {
	now := s.now()
	state := selection.FromQuery(c, r.URL.Query(), now)
	if err := selection.ValidateNotFuture(state.Date, now); err != nil {
		state.Date = selection.Defaults(c, now).Date
		invalid = true
	}

	view = selection.NewView()
	view.Load(r.Context(), s.opts.Catalog, state)
	return view, view.Resolved(), invalid
}

// handleBrowser renders the daily/monthly browser of one category.
func (s *Server) handleBrowser(w http.ResponseWriter, r *http.Request) {
	c, err := report.ParseCategory(mux.Vars(r)["category"])
	if err != nil {
		s.renderNotFound(w, "Report Type Not Found", "The requested report type does not exist.")
		return
	}

	view, art, invalid := s.load(r, c)
	state := view.State()
	today := s.now()

	page := browserPage{
		basePage:    s.base(string(c)),
		Meta:        c.Meta(),
		Tab:         string(state.Tab),
		Date:        state.DateString(),
		MaxDate:     report.FormatDate(today),
		Month:       state.Month,
		MaxMonth:    report.FormatMonth(today),
		DownloadURL: fmt.Sprintf("/reports/%s/download?%s", c, state.Query().Encode()),
	}
	page.AvailableDates = view.AvailableDates()
	for _, m := range view.Monthly() {
		page.AvailableMonths = append(page.AvailableMonths, m.Month)
	}

	daily, monthly := state, state
	daily.Tab, monthly.Tab = report.Daily, report.Monthly
	page.DailyURL = fmt.Sprintf("/reports/%s?%s", c, daily.Query().Encode())
	page.MonthlyURL = fmt.Sprintf("/reports/%s?%s", c, monthly.Query().Encode())

	if art.Found {
		path := art.Path
		page.Frame = s.opts.Viewer.Frame(&path, art.Filename, c)
	} else {
		page.Frame = s.opts.Viewer.Frame(nil, "", c)
		if art.Mode == report.Daily && !state.Date.IsZero() {
			page.Notice = fmt.Sprintf("No report available for %s", state.Date.Format("January 2, 2006"))
		}
	}
	if invalid {
		page.Notice = futureDateNotice
	}

	s.render(w, http.StatusOK, "browser", page)
}

// handleDownload streams the resolved artifact as an attachment.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	c, err := report.ParseCategory(mux.Vars(r)["category"])
	if err != nil {
		s.writeError(w, err.Error(), http.StatusNotFound)
		return
	}

	_, art, invalid := s.load(r, c)
	if invalid {
		s.writeError(w, futureDateNotice, http.StatusBadRequest)
		return
	}
	if !art.Found {
		s.writeError(w, fmt.Sprintf("No %s report available for %s", art.Mode, art.Key), http.StatusNotFound)
		return
	}

	body, contentType, err := s.opts.Viewer.Download(r.Context(), art.Path)
	if err != nil {
		if errors.Is(err, viewer.ErrNoArtifact) {
			s.writeError(w, "Downloads are not available in demo mode", http.StatusNotFound)
			return
		}
		s.logger.Warn("Report download failed", "category", c, "path", art.Path, "error", err)
		s.writeError(w, "Failed to fetch report from backend", http.StatusBadGateway)
		return
	}
	defer func() {
		if err := body.Close(); err != nil {
			s.logger.Warn("Failed to close download body", "error", err)
		}
	}()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", attachment(art.Filename))
	if _, err := io.Copy(w, body); err != nil {
		s.logger.Error("Failed to stream report", "error", err)
	}
}

// handleLegacyRedirect sends the old top-level category paths to the browser.
func (s *Server) handleLegacyRedirect(c report.Category) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := "/reports/" + string(c)
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusMovedPermanently)
	}
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		s.writeError(w, "Not found", http.StatusNotFound)
		return
	}
	s.renderNotFound(w, "Page Not Found", "The page you are looking for does not exist.")
}

type notFoundPage struct {
	basePage
	Heading string
	Message string
}

func (s *Server) renderNotFound(w http.ResponseWriter, heading, message string) {
	s.render(w, http.StatusNotFound, "notfound", notFoundPage{basePage: s.base(""), Heading: heading, Message: message})
}

// handleGetVersion returns version information from the version package.
func (s *Server) handleGetVersion(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, version.Map())
}

// handleStatus reports build, host and backend settings.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "ok",
		"version": version.Version,
		"apiBase": s.opts.APIBase,
		"demo":    s.opts.Viewer.Demo(),
		"time":    s.now().Format(time.RFC3339),
	}
	if info, err := hostInfo(r.Context()); err == nil {
		status["hostname"] = info.Hostname
		status["platform"] = info.Platform
		status["uptime"] = info.Uptime
	}
	s.writeJSON(w, status)
}

// handleUpload relays a raw log upload to the backend.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Limit request body size
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeError(w, "File too large or invalid form", http.StatusBadRequest)
		return
	}

	req := submit.UploadRequest{Category: formCategory(r)}
	date, ok := s.formDate(w, r)
	if !ok {
		return
	}
	req.Date = date

	if file, header, err := r.FormFile("file"); err == nil {
		defer func() {
			if err := file.Close(); err != nil {
				s.logger.Warn("Failed to close uploaded file", "error", err)
			}
		}()
		req.File = file
		req.FileName = header.Filename
	}

	res, err := s.opts.Actions.Upload(r.Context(), req)
	if err != nil {
		s.writeActionError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{
		"message":  fmt.Sprintf("Uploaded %s", res.Filename),
		"filename": res.Filename,
	})
}

// handleGenerate relays a generation trigger to the backend.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.writeError(w, "Invalid form", http.StatusBadRequest)
		return
	}

	req := submit.GenerateRequest{
		Mode:     report.Mode(strings.ToLower(strings.TrimSpace(r.FormValue("mode")))),
		Category: formCategory(r),
		Month:    strings.TrimSpace(r.FormValue("month")),
	}
	date, ok := s.formDate(w, r)
	if !ok {
		return
	}
	req.Date = date

	res, err := s.opts.Actions.Generate(r.Context(), req)
	if err != nil {
		s.writeActionError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{
		"message":      res.Message,
		"selectedDate": res.SelectedDate,
	})
}

func formCategory(r *http.Request) report.Category {
	return report.Category(strings.ToLower(strings.TrimSpace(r.FormValue("category"))))
}

// formDate parses the optional date field; a malformed value is answered with 400.
func (s *Server) formDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := strings.TrimSpace(r.FormValue("date"))
	if raw == "" {
		return time.Time{}, true
	}
	d, err := report.ParseDate(raw, s.opts.Location)
	if err != nil {
		s.writeError(w, err.Error(), http.StatusBadRequest)
		return time.Time{}, false
	}
	return d, true
}

func (s *Server) writeActionError(w http.ResponseWriter, err error) {
	var verr *submit.ValidationError
	var serr *submit.SubmissionError
	switch {
	case errors.As(err, &verr):
		s.writeError(w, verr.Error(), http.StatusBadRequest)
	case errors.As(err, &serr):
		s.writeError(w, serr.Error(), http.StatusBadGateway)
	default:
		s.logger.Error("Action failed", "error", err)
		s.writeError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// render executes a page into a buffer so template errors never leave half a page.
func (s *Server) render(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.Error("Failed to render page", "page", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Error("Failed to write page", "page", name, "error", err)
	}
}

// attachment builds a Content-Disposition value; non-ASCII names use the RFC 2231 form.
func attachment(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}

func formatUptime(seconds uint64) string {
	d := time.Duration(seconds) * time.Second
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to write JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	}); err != nil {
		s.logger.Error("Failed to write error response", "error", err)
	}
}
