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

// Package submit sends upload and report-generation requests to the backend.
//
// Every request is validated locally first; a request that fails validation
// never reaches the network. Failed submissions are reported once and are
// not retried.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/phuonguno98/secportal/internal/selection"
	"github.com/phuonguno98/secportal/pkg/report"
)

// MaxResponseSize caps how much of a backend reply is read (1MB).
const MaxResponseSize = 1 << 20

// AllowedExtensions lists the raw log file types accepted for upload.
var AllowedExtensions = []string{".log", ".txt"}

// ValidationError is a request rejected before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// SubmissionError is a request the backend refused or that could not be delivered.
type SubmissionError struct {
	Status  int    // 0 for transport failures
	Message string // Backend message, status line, or transport error
	Err     error
}

func (e *SubmissionError) Error() string {
	return e.Message
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// UploadRequest describes a raw log upload.
type UploadRequest struct {
	Category report.Category `validate:"required"`
	FileName string          `validate:"required"`
	File     io.Reader       `validate:"required"`
	Date     time.Time       `validate:"required"`
}

// UploadResult carries the backend's answer to an upload.
type UploadResult struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size,omitempty"`
}

// GenerateRequest describes a report generation trigger.
// Date is used in daily mode, Month (YYYY-MM) in monthly mode.
type GenerateRequest struct {
	Mode     report.Mode     `validate:"required,oneof=daily monthly"`
	Category report.Category `validate:"required"`
	Date     time.Time
	Month    string
}

// GenerateResult acknowledges that generation has started.
type GenerateResult struct {
	Mode         report.Mode
	Category     report.Category
	SelectedDate string // Value sent to the backend
	Message      string
}

// Submitter posts actions to the backend.
type Submitter struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
	validate   *validator.Validate
}

// New creates a submitter against baseURL. now supplies "today" for the
// future-date check; nil means time.Now.
func New(baseURL string, httpClient *http.Client, logger *slog.Logger, now func() time.Time) *Submitter {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if now == nil {
		now = time.Now
	}
	return &Submitter{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
		now:        now,
		validate:   validator.New(),
	}
}

// CheckFile rejects file names whose extension is not an accepted log type.
// It is meant to run as soon as the user picks a file.
func CheckFile(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "file", Reason: "no file selected"}
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return &ValidationError{Field: "file", Reason: fmt.Sprintf("only %s files are allowed", strings.Join(AllowedExtensions, ", "))}
}

// ValidateUpload checks an upload without sending it.
func (s *Submitter) ValidateUpload(req UploadRequest) error {
	if err := s.checkStruct(req); err != nil {
		return err
	}
	if !req.Category.Valid() {
		return &ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", req.Category)}
	}
	if err := CheckFile(req.FileName); err != nil {
		return err
	}
	return s.checkDate(req.Date)
}

// Upload validates req and posts the file with its date to /upload/{category}.
func (s *Submitter) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if err := s.ValidateUpload(req); err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filepath.Base(req.FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, req.File); err != nil {
		return nil, fmt.Errorf("failed to read upload file: %w", err)
	}
	if err := writer.WriteField("selectedDate", report.FormatUploadDate(req.Date)); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/upload/%s", s.baseURL, url.PathEscape(string(req.Category)))
	raw, err := s.post(ctx, endpoint, writer.FormDataContentType(), body)
	if err != nil {
		return nil, err
	}

	result := &UploadResult{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, result); err != nil {
			s.logger.Warn("Upload response is not JSON", "error", err)
		}
	}
	if result.Filename == "" {
		result.Filename = filepath.Base(req.FileName)
	}

	s.logger.Info("Log uploaded", "category", req.Category, "filename", result.Filename)
	return result, nil
}

// selectedDate validates req and returns the selectedDate field for it.
func (s *Submitter) selectedDate(req GenerateRequest) (string, error) {
	if err := s.checkStruct(req); err != nil {
		return "", err
	}
	if !req.Category.Valid() {
		return "", &ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", req.Category)}
	}

	switch req.Mode {
	case report.Daily:
		if err := s.checkDate(req.Date); err != nil {
			return "", err
		}
		return report.FormatUploadDate(req.Date), nil
	default:
		if req.Month == "" {
			return "", &ValidationError{Field: "month", Reason: "no month selected"}
		}
		compact, err := report.CompactMonth(req.Month)
		if err != nil {
			return "", &ValidationError{Field: "month", Reason: err.Error()}
		}
		return compact, nil
	}
}

// Generate validates req and posts it to /generate/{mode}/{category}.
// Success only means the backend accepted the job; completion is not tracked.
func (s *Submitter) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	value, err := s.selectedDate(req)
	if err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("selectedDate", value); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/generate/%s/%s", s.baseURL, req.Mode, url.PathEscape(string(req.Category)))
	if _, err := s.post(ctx, endpoint, writer.FormDataContentType(), body); err != nil {
		return nil, err
	}

	s.logger.Info("Report generation started", "mode", req.Mode, "category", req.Category, "selected_date", value)
	return &GenerateResult{
		Mode:         req.Mode,
		Category:     req.Category,
		SelectedDate: value,
		Message:      fmt.Sprintf("%s %s report generation started", req.Category.Meta().Label, req.Mode),
	}, nil
}

func (s *Submitter) checkDate(date time.Time) error {
	err := selection.ValidateNotFuture(date, s.now())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, selection.ErrFutureDate):
		return &ValidationError{Field: "date", Reason: "cannot select a future date"}
	default:
		return &ValidationError{Field: "date", Reason: err.Error()}
	}
}

func (s *Submitter) checkStruct(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		reason := "is required"
		if fe.Tag() != "required" {
			reason = fmt.Sprintf("failed %q check", fe.Tag())
		}
		return &ValidationError{Field: strings.ToLower(fe.Field()), Reason: reason}
	}
	return &ValidationError{Field: "request", Reason: err.Error()}
}

func (s *Submitter) post(ctx context.Context, endpoint, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("Submission failed", "endpoint", endpoint, "error", err)
		return nil, &SubmissionError{Message: fmt.Sprintf("request failed: %v", err), Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			s.logger.Debug("Failed to close response body", "error", err)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, &SubmissionError{Status: resp.StatusCode, Message: fmt.Sprintf("failed to read response: %v", err), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := backendMessage(raw)
		if msg == "" {
			msg = resp.Status
		}
		s.logger.Warn("Backend rejected submission", "endpoint", endpoint, "status", resp.StatusCode, "message", msg)
		return nil, &SubmissionError{Status: resp.StatusCode, Message: msg}
	}
	return raw, nil
}

// backendMessage extracts an error text from the common JSON error shapes.
func backendMessage(raw []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"detail", "error", "message"} {
		if s, ok := payload[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
