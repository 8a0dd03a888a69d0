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
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/phuonguno98/secportal/internal/submit"
	"github.com/phuonguno98/secportal/internal/viewer"
	"github.com/phuonguno98/secportal/pkg/report"
	"github.com/shirou/gopsutil/v3/host"
)

var testNow = time.Date(2024, time.May, 10, 9, 30, 0, 0, time.UTC)

type fakeCatalog struct {
	daily   map[report.Category][]report.DailyReport
	monthly map[report.Category][]report.MonthlyReport
}

func (f *fakeCatalog) Lists(_ context.Context, c report.Category) ([]report.DailyReport, []report.MonthlyReport) {
	return f.daily[c], f.monthly[c]
}

func (f *fakeCatalog) SummarizeAll(_ context.Context, categories []report.Category) []report.Summary {
	out := make([]report.Summary, len(categories))
	for i, c := range categories {
		out[i] = report.Summarize(f.daily[c], f.monthly[c])
		out[i].Category = c
	}
	return out
}

type fakeActions struct {
	uploads   []submit.UploadRequest
	generates []submit.GenerateRequest
	body      string
	err       error
}

func (f *fakeActions) Upload(_ context.Context, req submit.UploadRequest) (*submit.UploadResult, error) {
	if req.File != nil {
		b, _ := io.ReadAll(req.File)
		f.body = string(b)
	}
	f.uploads = append(f.uploads, req)
	if f.err != nil {
		return nil, f.err
	}
	return &submit.UploadResult{Filename: "disk-dns-2024_05_01.log"}, nil
}

func (f *fakeActions) Generate(_ context.Context, req submit.GenerateRequest) (*submit.GenerateResult, error) {
	f.generates = append(f.generates, req)
	if f.err != nil {
		return nil, f.err
	}
	return &submit.GenerateResult{Mode: req.Mode, Category: req.Category, SelectedDate: "202404", Message: "DNS monthly report generation started"}, nil
}

func newTestServer(t *testing.T, backend string, demo bool) (*Server, *fakeActions) {
	t.Helper()

	origHostInfo := hostInfo
	hostInfo = func(context.Context) (*host.InfoStat, error) {
		return &host.InfoStat{Hostname: "fw-reports", Platform: "linux", Uptime: 90061}, nil
	}
	t.Cleanup(func() { hostInfo = origHostInfo })

	if backend == "" {
		backend = "http://127.0.0.1:8000/api"
	}
	v, err := viewer.New(backend, nil, demo)
	if err != nil {
		t.Fatalf("viewer.New() error = %v", err)
	}

	catalog := &fakeCatalog{
		daily: map[report.Category][]report.DailyReport{
			report.DNS: {
				{Date: "2024-05-09", Filename: "DNS_0509.html", Path: "/dns/daily/DNS_0509.html"},
				{Date: "2024-05-01", Filename: "DNS_0501.html", Path: "/dns/daily/DNS_0501.html"},
				{Date: "2024-06-01", Filename: "DNS_0601.html", Path: "/dns/daily/DNS_0601.html"},
			},
		},
		monthly: map[report.Category][]report.MonthlyReport{
			report.DNS: {{Month: "2024-04", Filename: "DNS_202404.html", Path: "/dns/monthly/DNS_202404.html"}},
		},
	}
	actions := &fakeActions{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := NewServer(Options{
		Catalog:  catalog,
		Viewer:   v,
		Actions:  actions,
		APIBase:  backend,
		Location: time.UTC,
		Now:      func() time.Time { return testNow },
	}, logger)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return srv, actions
}

func do(srv *Server, method, target string, body io.Reader, contentType string) *http.Response {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w.Result()
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestNewServer_RequiresCollaborators(t *testing.T) {
	if _, err := NewServer(Options{}, nil); err == nil {
		t.Error("NewServer() with empty options should fail")
	}
}

func TestServer_Dashboard(t *testing.T) {
	srv, _ := newTestServer(t, "", false)

	resp := do(srv, "GET", "/", http.NoBody, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET / status = %v, want %v", resp.StatusCode, http.StatusOK)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	body := readBody(t, resp)
	for _, want := range []string{
		"Application Control",
		"Web Filter",
		"2024-05-09",
		"2024-04",
		"fw-reports",
		"1d 1h 1m",
		"Friday, May 10, 2024 09:30",
		`href="/reports/antivirus"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestServer_BrowserDaily(t *testing.T) {
	srv, _ := newTestServer(t, "", false)

	resp := do(srv, "GET", "/reports/dns?tab=daily&date=2024-05-09", http.NoBody, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %v, want %v", resp.StatusCode, http.StatusOK)
	}
	body := readBody(t, resp)

	if !strings.Contains(body, "DNS_0509.html") {
		t.Error("resolved filename not shown")
	}
	wantSrc := "http://127.0.0.1:8000/api/file?path=%2Fdns%2Fdaily%2FDNS_0509.html"
	if !strings.Contains(body, wantSrc) {
		t.Errorf("iframe source %q not found", wantSrc)
	}
	if !strings.Contains(body, `max="2024-05-10"`) {
		t.Error("date picker should not allow future dates")
	}
	if strings.Contains(body, "No report available") {
		t.Error("notice shown although a report exists")
	}
}

func TestServer_BrowserDefaultsToYesterday(t *testing.T) {
	srv, _ := newTestServer(t, "", false)

	body := readBody(t, do(srv, "GET", "/reports/dns", http.NoBody, ""))
	if !strings.Contains(body, `value="2024-05-09"`) {
		t.Error("default date should be yesterday")
	}
	if !strings.Contains(body, `value="2024-04"`) {
		t.Error("default month should be the previous month")
	}
}

func TestServer_BrowserMissingReport(t *testing.T) {
	srv, _ := newTestServer(t, "", false)

	body := readBody(t, do(srv, "GET", "/reports/dns?date=2024-05-05", http.NoBody, ""))
	if !strings.Contains(body, "No report available for May 5, 2024") {
		t.Error("missing notice for unavailable date")
	}
	if !strings.Contains(body, "The report not generated") {
		t.Error("placeholder not rendered")
	}
	if strings.Contains(body, "<iframe") {
		t.Error("no frame expected without a report")
	}
}

func TestServer_BrowserMonthly(t *testing.T) {
	srv, _ := newTestServer(t, "", false)

	body := readBody(t, do(srv, "GET", "/reports/dns?tab=monthly&month=2024-04", http.NoBody, ""))
	if !strings.Contains(body, "DNS_202404.html") {
		t.Error("monthly report not resolved")
	}

	body = readBody(t, do(srv, "GET", "/reports/dns?tab=monthly&month=2024-03", http.NoBody, ""))
	if !strings.Contains(body, "The report not generated") {
		t.Error("placeholder expected for month without report")
	}
	if strings.Contains(body, "No report available") {
		t.Error("daily notice must not appear on the monthly tab")
	}
}

func TestServer_BrowserDemo(t *testing.T) {
	srv, _ := newTestServer(t, "", true)

	body := readBody(t, do(srv, "GET", "/reports/dns?date=2024-05-09", http.NoBody, ""))
	if !strings.Contains(body, "(Demo Mode)") {
		t.Error("demo label missing")
	}
	if !strings.Contains(body, "srcdoc=") {
		t.Error("demo frame should embed the sample document")
	}
}

func TestServer_UnknownCategory(t *testing.T) {
	srv, _ := newTestServer(t, "", false)

	resp := do(srv, "GET", "/reports/firewall", http.NoBody, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %v, want %v", resp.StatusCode, http.StatusNotFound)
	}
	if body := readBody(t, resp); !strings.Contains(body, "Report Type Not Found") {
		t.Error("not-found page missing heading")
	}

	resp = do(srv, "GET", "/nowhere", http.NoBody, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /nowhere status = %v, want %v", resp.StatusCode, http.StatusNotFound)
	}

	resp = do(srv, "GET", "/api/nowhere", http.NoBody, "")
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("API 404 content type = %q", ct)
	}
}

func TestServer_LegacyRedirect(t *testing.T) {
	srv, _ := newTestServer(t, "", false)

	resp := do(srv, "GET", "/ips?tab=monthly", http.NoBody, "")
	if resp.StatusCode != http.StatusMovedPermanently {
		t.Fatalf("status = %v, want %v", resp.StatusCode, http.StatusMovedPermanently)
	}
	if loc := resp.Header.Get("Location"); loc != "/reports/ips?tab=monthly" {
		t.Errorf("Location = %q", loc)
	}
}

func TestServer_Download(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("path") != "/dns/daily/DNS_0509.html" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html>dns</html>")
	}))
	defer backend.Close()

	srv, _ := newTestServer(t, backend.URL+"/api", false)

	resp := do(srv, "GET", "/reports/dns/download?date=2024-05-09", http.NoBody, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %v, want %v", resp.StatusCode, http.StatusOK)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "attachment; filename=DNS_0509.html" {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if body := readBody(t, resp); body != "<html>dns</html>" {
		t.Errorf("body = %q", body)
	}

	resp = do(srv, "GET", "/reports/dns/download?date=2024-05-05", http.NoBody, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing report status = %v, want %v", resp.StatusCode, http.StatusNotFound)
	}

	resp = do(srv, "GET", "/reports/dns/download?date=2024-06-01", http.NoBody, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("future date status = %v, want %v", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestServer_BrowserRejectsFutureDate(t *testing.T) {
	srv, _ := newTestServer(t, "", false)

	resp := do(srv, "GET", "/reports/dns?date=2024-06-01", http.NoBody, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %v, want %v", resp.StatusCode, http.StatusOK)
	}
	body := readBody(t, resp)

	if strings.Contains(body, "DNS_0601.html") {
		t.Error("future-dated report must not be resolved")
	}
	if !strings.Contains(body, "Cannot select a future date") {
		t.Error("future date notice missing")
	}
	if strings.Contains(body, `name="date" value="2024-06-01"`) {
		t.Error("future date should not be kept in the selection")
	}
	if !strings.Contains(body, `name="date" value="2024-05-09"`) {
		t.Error("date picker should show the default date")
	}
	if !strings.Contains(body, "DNS_0509.html") {
		t.Error("selection should fall back to yesterday")
	}
}

func TestAttachment(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"DNS_0509.html", "attachment; filename=DNS_0509.html"},
		{"DNS Blocked.html", `attachment; filename="DNS Blocked.html"`},
		{"Báo cáo.html", "attachment; filename*=utf-8''B%C3%A1o%20c%C3%A1o.html"},
	}
	for _, tt := range tests {
		if got := attachment(tt.name); got != tt.want {
			t.Errorf("attachment(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func uploadForm(t *testing.T, fields map[string]string, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if fileName != "" {
		part, err := writer.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.Copy(part, strings.NewReader(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	return body, writer.FormDataContentType()
}

func TestServer_UploadAction(t *testing.T) {
	srv, actions := newTestServer(t, "", false)

	body, ct := uploadForm(t, map[string]string{"category": "DNS", "date": "2024-05-01"}, "dns.log", "raw lines")
	resp := do(srv, "POST", "/api/actions/upload", body, ct)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %v, want %v: %s", resp.StatusCode, http.StatusOK, readBody(t, resp))
	}

	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if payload["filename"] != "disk-dns-2024_05_01.log" {
		t.Errorf("filename = %q", payload["filename"])
	}

	if len(actions.uploads) != 1 {
		t.Fatalf("uploads = %d, want 1", len(actions.uploads))
	}
	got := actions.uploads[0]
	if got.Category != report.DNS || got.FileName != "dns.log" || actions.body != "raw lines" {
		t.Errorf("unexpected upload request: %+v", got)
	}
	if !got.Date.Equal(time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", got.Date)
	}
}

func TestServer_UploadActionBadDate(t *testing.T) {
	srv, actions := newTestServer(t, "", false)

	body, ct := uploadForm(t, map[string]string{"category": "dns", "date": "05/01/2024"}, "dns.log", "x")
	resp := do(srv, "POST", "/api/actions/upload", body, ct)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %v, want %v", resp.StatusCode, http.StatusBadRequest)
	}
	if len(actions.uploads) != 0 {
		t.Error("malformed date must not reach the submitter")
	}
}

func TestServer_ActionErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &submit.ValidationError{Field: "date", Reason: "cannot select a future date"}, http.StatusBadRequest},
		{"backend", &submit.SubmissionError{Status: 500, Message: "Generation script failed"}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, actions := newTestServer(t, "", false)
			actions.err = tt.err

			form := url.Values{"mode": {"monthly"}, "category": {"dns"}, "month": {"2024-04"}}
			resp := do(srv, "POST", "/api/actions/generate", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
			if resp.StatusCode != tt.want {
				t.Errorf("status = %v, want %v", resp.StatusCode, tt.want)
			}
			var payload map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				t.Fatal(err)
			}
			if payload["error"] == "" {
				t.Error("error message missing")
			}
		})
	}
}

func TestServer_GenerateAction(t *testing.T) {
	srv, actions := newTestServer(t, "", false)

	form := url.Values{"mode": {"Monthly"}, "category": {"dns"}, "month": {"2024-04"}}
	resp := do(srv, "POST", "/api/actions/generate", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %v, want %v", resp.StatusCode, http.StatusOK)
	}

	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if payload["selectedDate"] != "202404" {
		t.Errorf("selectedDate = %q", payload["selectedDate"])
	}
	if len(actions.generates) != 1 || actions.generates[0].Mode != report.Monthly || actions.generates[0].Month != "2024-04" {
		t.Errorf("unexpected generate requests: %+v", actions.generates)
	}
}

func TestServer_StatusAndVersion(t *testing.T) {
	srv, _ := newTestServer(t, "", true)

	resp := do(srv, "GET", "/api/status", http.NoBody, "")
	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status["hostname"] != "fw-reports" || status["demo"] != true || status["apiBase"] != "http://127.0.0.1:8000/api" {
		t.Errorf("unexpected status: %v", status)
	}

	resp = do(srv, "GET", "/api/version", http.NoBody, "")
	var v map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatal(err)
	}
	if v["version"] == "" {
		t.Error("version missing")
	}
}

func TestServer_StaticAssets(t *testing.T) {
	srv, _ := newTestServer(t, "", false)

	resp := do(srv, "GET", "/static/app.js", http.NoBody, "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /static/app.js status = %v, want %v", resp.StatusCode, http.StatusOK)
	}
	if cc := resp.Header.Get("Cache-Control"); !strings.Contains(cc, "no-cache") {
		t.Errorf("Cache-Control = %q", cc)
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		seconds uint64
		want    string
	}{
		{0, "0h 0m"},
		{3660, "1h 1m"},
		{90061, "1d 1h 1m"},
	}
	for _, tt := range tests {
		if got := formatUptime(tt.seconds); got != tt.want {
			t.Errorf("formatUptime(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
