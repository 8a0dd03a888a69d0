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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phuonguno98/secportal/pkg/report"
)

// ServePrefix is the URL prefix of listed report locators.
const ServePrefix = "/api/serve"

// Errors mapped to HTTP statuses by the server.
var (
	ErrForbidden = errors.New("access denied: file is not in an allowed directory")
	ErrNotFound  = errors.New("file not found")
	ErrNotHTML   = errors.New("only HTML files are allowed")
	ErrBadUpload = errors.New("invalid upload")
)

// AllowedUploadExtensions lists the raw log types the archive accepts.
var AllowedUploadExtensions = []string{".log", ".txt"}

type folder struct {
	layout  FolderLayout
	daily   *regexp.Regexp
	monthly *regexp.Regexp
}

// Store answers listing, file and upload requests from the configured folders.
type Store struct {
	folders map[report.Category]folder
	logger  *slog.Logger
}

// UploadResult describes a stored raw log.
type UploadResult struct {
	Filename string          `json:"filename"`
	Size     int64           `json:"size"`
	Category report.Category `json:"category"`
}

// FolderStatus reports whether a configured folder exists.
type FolderStatus struct {
	Category report.Category
	Mode     report.Mode
	Path     string
	Exists   bool
}

// NewStore compiles the layout. Only categories present in the layout are served.
func NewStore(layout *Layout, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	s := &Store{folders: make(map[report.Category]folder, len(layout.Categories)), logger: logger}
	for name, fl := range layout.Categories {
		c, _ := report.ParseCategory(name)
		daily, _ := compilePattern(fl.DailyPattern)
		monthly, _ := compilePattern(fl.MonthlyPattern)
		s.folders[c] = folder{layout: fl, daily: daily, monthly: monthly}
	}
	return s, nil
}

// Categories returns the served categories in display order.
func (s *Store) Categories() []report.Category {
	var out []report.Category
	for _, c := range report.AllCategories() {
		if _, ok := s.folders[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

func (s *Store) folder(c report.Category) (folder, error) {
	f, ok := s.folders[c]
	if !ok {
		return folder{}, fmt.Errorf("%w: %s", report.ErrUnknownCategory, c)
	}
	return f, nil
}

// Daily lists the daily reports of c, newest first. A missing folder yields an empty list.
func (s *Store) Daily(c report.Category) ([]report.DailyReport, error) {
	f, err := s.folder(c)
	if err != nil {
		return nil, err
	}

	out := []report.DailyReport{}
	s.scan(f.layout.DailyDir(), f.daily, 8, func(name, token string) {
		out = append(out, report.DailyReport{
			Date:     token[:4] + "-" + token[4:6] + "-" + token[6:8],
			Filename: name,
			Path:     servePath(c, report.Daily, name),
		})
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

// Monthly lists the monthly reports of c, newest first.
func (s *Store) Monthly(c report.Category) ([]report.MonthlyReport, error) {
	f, err := s.folder(c)
	if err != nil {
		return nil, err
	}

	out := []report.MonthlyReport{}
	s.scan(f.layout.MonthlyDir(), f.monthly, 6, func(name, token string) {
		out = append(out, report.MonthlyReport{
			Month:    token[:4] + "-" + token[4:6],
			Filename: name,
			Path:     servePath(c, report.Monthly, name),
		})
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	return out, nil
}

// scan calls fn for each *.html file in dir whose name matches re with a
// digit token of the given width.
func (s *Store) scan(dir string, re *regexp.Regexp, width int, fn func(name, token string)) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Failed to read report folder", "dir", dir, "error", err)
		}
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".html") {
			continue
		}
		m := re.FindStringSubmatch(e.Name())
		if m == nil || len(m[1]) != width || !isDigits(m[1]) {
			continue
		}
		fn(e.Name(), m[1])
	}
}

// Summary counts the listings of c and reports the newest entries.
func (s *Store) Summary(c report.Category) (report.Summary, error) {
	daily, err := s.Daily(c)
	if err != nil {
		return report.Summary{}, err
	}
	monthly, err := s.Monthly(c)
	if err != nil {
		return report.Summary{}, err
	}
	sum := report.Summarize(daily, monthly)
	sum.Category = c
	return sum, nil
}

// Locate maps a served locator back to its file on disk.
func (s *Store) Locate(c report.Category, mode report.Mode, filename string) (string, error) {
	f, err := s.folder(c)
	if err != nil {
		return "", err
	}
	if filename != filepath.Base(filename) || filename == "." || filename == ".." {
		return "", ErrForbidden
	}
	dir := f.layout.DailyDir()
	if mode == report.Monthly {
		dir = f.layout.MonthlyDir()
	}
	return s.CheckFile(filepath.Join(dir, filename))
}

// CheckFile validates an arbitrary report path: it must sit inside an allowed
// folder, exist, and be an HTML file. The cleaned absolute path is returned.
func (s *Store) CheckFile(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", ErrForbidden
	}
	abs = resolveLinks(abs)
	if !s.allowed(abs) {
		return "", ErrForbidden
	}

	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return "", ErrNotFound
	}
	if !strings.EqualFold(filepath.Ext(abs), ".html") {
		return "", ErrNotHTML
	}
	return abs, nil
}

func (s *Store) allowed(abs string) bool {
	for _, f := range s.folders {
		for _, dir := range []string{f.layout.DailyDir(), f.layout.MonthlyDir()} {
			root, err := filepath.Abs(dir)
			if err != nil {
				continue
			}
			root = resolveLinks(root)
			rel, err := filepath.Rel(root, abs)
			if err != nil {
				continue
			}
			if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "." {
				return true
			}
		}
	}
	return false
}

// SaveUpload stores a raw log as {raw_dir}/{raw_prefix}-{selectedDate}{ext}.
// The file is written under a temporary name first and renamed into place.
func (s *Store) SaveUpload(c report.Category, selectedDate, filename string, r io.Reader) (*UploadResult, error) {
	f, err := s.folder(c)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtension(ext) {
		return nil, fmt.Errorf("%w: only %s files are allowed", ErrBadUpload, strings.Join(AllowedUploadExtensions, " and "))
	}
	if _, err := time.Parse(report.UploadDateLayout, selectedDate); err != nil {
		return nil, fmt.Errorf("%w: selectedDate must be YYYY_MM_DD", ErrBadUpload)
	}

	dir := f.layout.RawPath()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create raw log folder: %w", err)
	}

	prefix := f.layout.RawPrefix
	if prefix == "" {
		prefix = string(c)
	}
	name := fmt.Sprintf("%s-%s%s", prefix, selectedDate, ext)
	dst := filepath.Join(dir, name)
	tmp := filepath.Join(dir, fmt.Sprintf(".upload-%s.tmp", uuid.New().String()[:8]))

	out, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}
	size, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	s.logger.Info("Raw log stored", "category", c, "file", dst, "size", size)
	return &UploadResult{Filename: name, Size: size, Category: c}, nil
}

// Check reports which configured folders exist.
func (s *Store) Check() []FolderStatus {
	var out []FolderStatus
	for _, c := range s.Categories() {
		f := s.folders[c]
		for _, mode := range []report.Mode{report.Daily, report.Monthly} {
			dir := f.layout.DailyDir()
			if mode == report.Monthly {
				dir = f.layout.MonthlyDir()
			}
			info, err := os.Stat(dir)
			out = append(out, FolderStatus{Category: c, Mode: mode, Path: dir, Exists: err == nil && info.IsDir()})
		}
	}
	return out
}

// Command returns the generator argv template of c for mode.
func (s *Store) Command(c report.Category, mode report.Mode) ([]string, error) {
	f, err := s.folder(c)
	if err != nil {
		return nil, err
	}
	return f.layout.Command(mode), nil
}

func servePath(c report.Category, mode report.Mode, name string) string {
	return fmt.Sprintf("%s/%s/%s/%s", ServePrefix, c, mode, name)
}

// resolveLinks follows symlinks in p, or in its parent when p does not exist.
func resolveLinks(p string) string {
	if r, err := filepath.EvalSymlinks(p); err == nil {
		return r
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(p)); err == nil {
		return filepath.Join(dir, filepath.Base(p))
	}
	return p
}

func allowedExtension(ext string) bool {
	for _, a := range AllowedUploadExtensions {
		if ext == a {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
