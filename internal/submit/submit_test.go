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

package submit

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phuonguno98/secportal/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type recorded struct {
	path         string
	selectedDate string
	fileName     string
	fileBody     string
}

func newSubmitter(t *testing.T, status int, reply string) (*Submitter, *recorded, *atomic.Int32) {
	t.Helper()
	rec := &recorded{}
	calls := &atomic.Int32{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		rec.path = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, `{"detail":"bad form"}`, http.StatusBadRequest)
			return
		}
		rec.selectedDate = r.FormValue("selectedDate")
		if f, h, err := r.FormFile("file"); err == nil {
			b, _ := io.ReadAll(f)
			_ = f.Close()
			rec.fileName = h.Filename
			rec.fileBody = string(b)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(ts.Close)
	return New(ts.URL+"/api", ts.Client(), nil, clock), rec, calls
}

func TestCheckFile(t *testing.T) {
	assert.NoError(t, CheckFile("disk-dns-2024_05_01.log"))
	assert.NoError(t, CheckFile("NOTES.TXT"))

	for _, name := range []string{"report.html", "archive.log.gz", "noext", ""} {
		err := CheckFile(name)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, name)
		assert.Equal(t, "file", verr.Field)
	}
}

func TestUpload_Success(t *testing.T) {
	s, rec, calls := newSubmitter(t, http.StatusOK, `{"filename":"disk-dns-2024_05_01.log","size":11}`)

	res, err := s.Upload(context.Background(), UploadRequest{
		Category: report.DNS,
		FileName: "disk-dns.log",
		File:     strings.NewReader("hello world"),
		Date:     time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "/api/upload/dns", rec.path)
	assert.Equal(t, "2024_05_01", rec.selectedDate)
	assert.Equal(t, "disk-dns.log", rec.fileName)
	assert.Equal(t, "hello world", rec.fileBody)
	assert.Equal(t, "disk-dns-2024_05_01.log", res.Filename)
}

func TestUpload_ValidationHappensBeforeNetwork(t *testing.T) {
	s, _, calls := newSubmitter(t, http.StatusOK, `{}`)
	valid := UploadRequest{
		Category: report.DNS,
		FileName: "dns.log",
		File:     strings.NewReader("x"),
		Date:     time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name   string
		mutate func(*UploadRequest)
		field  string
	}{
		{"missing category", func(r *UploadRequest) { r.Category = "" }, "category"},
		{"unknown category", func(r *UploadRequest) { r.Category = "firewall" }, "category"},
		{"missing file", func(r *UploadRequest) { r.File = nil }, "file"},
		{"missing file name", func(r *UploadRequest) { r.FileName = "" }, "filename"},
		{"bad extension", func(r *UploadRequest) { r.FileName = "dns.csv" }, "file"},
		{"missing date", func(r *UploadRequest) { r.Date = time.Time{} }, "date"},
		{"future date", func(r *UploadRequest) { r.Date = fixedNow.AddDate(0, 0, 1) }, "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			_, err := s.Upload(context.Background(), req)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
	assert.Equal(t, int32(0), calls.Load(), "no request may be sent for invalid input")
}

func TestUpload_BackendError(t *testing.T) {
	s, _, _ := newSubmitter(t, http.StatusBadRequest, `{"detail":"Only .log and .txt files are allowed"}`)

	_, err := s.Upload(context.Background(), UploadRequest{
		Category: report.IPS,
		FileName: "ips.txt",
		File:     strings.NewReader("x"),
		Date:     fixedNow,
	})

	var serr *SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusBadRequest, serr.Status)
	assert.Equal(t, "Only .log and .txt files are allowed", serr.Error())
}

func TestUpload_StatusLineWhenNoMessage(t *testing.T) {
	s, _, _ := newSubmitter(t, http.StatusInternalServerError, `oops`)

	_, err := s.Upload(context.Background(), UploadRequest{
		Category: report.IPS,
		FileName: "ips.txt",
		File:     strings.NewReader("x"),
		Date:     fixedNow,
	})

	var serr *SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "500 Internal Server Error", serr.Message)
}

func TestGenerate_Monthly(t *testing.T) {
	s, rec, _ := newSubmitter(t, http.StatusAccepted, `{"status":"started"}`)

	res, err := s.Generate(context.Background(), GenerateRequest{
		Mode:     report.Monthly,
		Category: report.WebFilter,
		Month:    "2024-05",
	})

	require.NoError(t, err)
	assert.Equal(t, "/api/generate/monthly/webfilter", rec.path)
	assert.Equal(t, "202405", rec.selectedDate)
	assert.Equal(t, "202405", res.SelectedDate)
	assert.Contains(t, res.Message, "started")
}

func TestGenerate_Daily(t *testing.T) {
	s, rec, _ := newSubmitter(t, http.StatusOK, `{}`)

	_, err := s.Generate(context.Background(), GenerateRequest{
		Mode:     report.Daily,
		Category: report.Antivirus,
		Date:     time.Date(2024, time.May, 9, 0, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	assert.Equal(t, "/api/generate/daily/antivirus", rec.path)
	assert.Equal(t, "2024_05_09", rec.selectedDate)
}

func TestGenerate_Validation(t *testing.T) {
	s, _, calls := newSubmitter(t, http.StatusOK, `{}`)

	tests := []struct {
		name  string
		req   GenerateRequest
		field string
	}{
		{"missing mode", GenerateRequest{Category: report.DNS, Month: "2024-05"}, "mode"},
		{"bad mode", GenerateRequest{Mode: "weekly", Category: report.DNS}, "mode"},
		{"missing category", GenerateRequest{Mode: report.Monthly, Month: "2024-05"}, "category"},
		{"future daily", GenerateRequest{Mode: report.Daily, Category: report.DNS, Date: fixedNow.AddDate(0, 1, 0)}, "date"},
		{"missing daily date", GenerateRequest{Mode: report.Daily, Category: report.DNS}, "date"},
		{"missing month", GenerateRequest{Mode: report.Monthly, Category: report.DNS}, "month"},
		{"malformed month", GenerateRequest{Mode: report.Monthly, Category: report.DNS, Month: "05/2024"}, "month"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Generate(context.Background(), tt.req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
	assert.Equal(t, int32(0), calls.Load())
}

func TestGenerate_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	base := ts.URL
	ts.Close()

	s := New(base, nil, nil, clock)
	_, err := s.Generate(context.Background(), GenerateRequest{Mode: report.Monthly, Category: report.DNS, Month: "2024-04"})

	var serr *SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.Zero(t, serr.Status)
	assert.NotNil(t, errors.Unwrap(serr))
}
