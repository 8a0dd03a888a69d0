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

// Package export writes catalog summaries to CSV, JSON and PDF files.
package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/phuonguno98/secportal/internal/config"
	"github.com/phuonguno98/secportal/pkg/report"
)

// Format is an export file type.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
	PDF  Format = "pdf"
)

const naString = "N/A"

// ParseFormats parses a comma-separated list such as "csv,pdf".
func ParseFormats(s string) ([]Format, error) {
	var out []Format
	seen := map[Format]bool{}
	for _, part := range config.ParseCommaSeparated(strings.ToLower(s)) {
		f := Format(part)
		switch f {
		case CSV, JSON, PDF:
		default:
			return nil, fmt.Errorf("unsupported export format %q (must be csv, json or pdf)", part)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// Exporter writes summaries next to basePath, adding the format extension.
type Exporter struct {
	basePath string
	location *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

// New creates an exporter. A nil location means Local.
func New(basePath string, loc *time.Location, logger *slog.Logger) *Exporter {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{basePath: basePath, location: loc, logger: logger, now: time.Now}
}

// Export writes every requested format and returns the written paths.
func (e *Exporter) Export(summaries []report.Summary, formats []Format) ([]string, error) {
	if err := os.MkdirAll(filepath.Dir(e.basePath), 0o755); err != nil {
		return nil, fmt.Errorf("error creating output directory: %w", err)
	}

	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		var (
			path string
			err  error
		)
		switch f {
		case CSV:
			path, err = e.WriteCSV(summaries)
		case JSON:
			path, err = e.WriteJSON(summaries)
		case PDF:
			path, err = e.WritePDF(summaries)
		default:
			err = fmt.Errorf("unsupported export format %q", f)
		}
		if err != nil {
			return paths, err
		}
		e.logger.Info("Summary exported", "format", f, "path", path)
		paths = append(paths, path)
	}
	return paths, nil
}

func (e *Exporter) path(f Format) string {
	return e.basePath + "." + string(f)
}

// header lists the summary columns shared by the tabular formats.
var header = []string{"Category", "Label", "Daily Reports", "Monthly Reports", "Latest Daily", "Latest Monthly"}

func row(s report.Summary) []string {
	return []string{
		string(s.Category),
		s.Category.Meta().Label,
		strconv.Itoa(s.DailyCount),
		strconv.Itoa(s.MonthlyCount),
		orNA(s.LatestDailyDate),
		orNA(s.LatestMonthlyDate),
	}
}

func orNA(v *string) string {
	if v == nil || *v == "" {
		return naString
	}
	return *v
}

// WriteCSV writes the summaries as CSV with a header row.
func (e *Exporter) WriteCSV(summaries []report.Summary) (string, error) {
	path := e.path(CSV)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create CSV file: %w", err)
	}

	bufWriter := bufio.NewWriterSize(file, 8192)
	csvWriter := csv.NewWriter(bufWriter)

	records := [][]string{header}
	for _, s := range summaries {
		records = append(records, row(s))
	}
	if err := csvWriter.WriteAll(records); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("CSV writer error: %w", err)
	}
	if err := bufWriter.Flush(); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("buffer writer error: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	return filepath.Abs(path)
}

type jsonDocument struct {
	GeneratedAt string           `json:"generatedAt"`
	Summaries   []report.Summary `json:"summaries"`
}

// WriteJSON writes the summaries with a generation timestamp.
func (e *Exporter) WriteJSON(summaries []report.Summary) (string, error) {
	path := e.path(JSON)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create JSON file: %w", err)
	}

	if summaries == nil {
		summaries = []report.Summary{}
	}
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	doc := jsonDocument{
		GeneratedAt: e.now().In(e.location).Format(time.RFC3339),
		Summaries:   summaries,
	}
	if err := encoder.Encode(doc); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("error encoding JSON data: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	return filepath.Abs(path)
}

// WritePDF renders the summaries as a single-page table.
func (e *Exporter) WritePDF(summaries []report.Summary) (string, error) {
	path := e.path(PDF)

	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFillColor(40, 40, 40)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, tr("  Security Report Catalog"), "", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	pdf.SetFillColor(240, 240, 240)
	pdf.SetTextColor(50, 50, 50)
	generated := e.now().In(e.location).Format("2006-01-02 15:04:05 MST")
	pdf.CellFormat(0, 8, tr("  Generated: "+generated), "", 1, "L", true, 0, "")
	pdf.Ln(6)

	widths := []float64{35, 70, 35, 35, 50, 50}
	pdf.SetFont("Arial", "B", 10)
	pdf.SetDrawColor(200, 200, 200)
	for i, h := range header {
		pdf.CellFormat(widths[i], 8, tr(h), "B", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, s := range summaries {
		for i, cell := range row(s) {
			pdf.CellFormat(widths[i], 7, tr(cell), "B", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("error writing PDF file: %w", err)
	}
	return filepath.Abs(path)
}
