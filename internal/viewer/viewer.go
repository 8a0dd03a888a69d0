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

// Package viewer turns a resolved report artifact into something a page can
// embed: a fetchable URL, a placeholder, or the built-in sample document.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/phuonguno98/secportal/pkg/report"
)

// Sandbox is the only capability set granted to the embedded report frame.
const Sandbox = "allow-scripts allow-same-origin"

// DefaultServePrefix is used when the API base has no path component.
const DefaultServePrefix = "/api/"

// ErrNoArtifact is returned by download operations when there is nothing to fetch.
var ErrNoArtifact = errors.New("no report artifact to fetch")

// State tells a page which of the three viewer renderings to use.
type State string

const (
	StatePlaceholder State = "placeholder" // Nothing generated for the selection
	StateLive        State = "live"        // Report fetched from the backend
	StateDemo        State = "demo"        // Built-in sample document
)

// Frame is the render contract of the report viewer.
type Frame struct {
	State      State
	URL        string // Frame source and open-externally link (live only)
	Filename   string
	Category   report.Category
	Sandbox    string
	SampleHTML string // Frame srcdoc (demo only)
}

// Viewer builds frames and fetches report files from the backend.
type Viewer struct {
	apiBase     string
	origin      string
	servePrefix string
	httpClient  *http.Client
	demo        bool
}

// New creates a viewer for the API rooted at apiBase (e.g. http://127.0.0.1:8000/api).
// In demo mode no URL is ever resolved and every artifact renders the sample document.
func New(apiBase string, httpClient *http.Client, demo bool) (*Viewer, error) {
	apiBase = strings.TrimRight(apiBase, "/")
	u, err := url.Parse(apiBase)
	if err != nil {
		return nil, fmt.Errorf("invalid API base %q: %w", apiBase, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base %q: scheme and host are required", apiBase)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	prefix := DefaultServePrefix
	if u.Path != "" {
		prefix = u.Path + "/"
	}

	return &Viewer{
		apiBase:     apiBase,
		origin:      u.Scheme + "://" + u.Host,
		servePrefix: prefix,
		httpClient:  httpClient,
		demo:        demo,
	}, nil
}

// Demo reports whether the viewer runs without a live backend.
func (v *Viewer) Demo() bool {
	return v.demo
}

// FileURL maps a backend locator to a fetchable URL. Locators under the API
// serving prefix are made absolute on the API host unchanged; anything else
// goes through the generic file endpoint. An empty path yields "".
func (v *Viewer) FileURL(path string) string {
	if path == "" || v.demo {
		return ""
	}
	if strings.HasPrefix(path, v.servePrefix) {
		return v.origin + path
	}
	return v.apiBase + "/file?path=" + encodeURIComponent(path)
}

// Frame decides how the artifact at path is presented.
// A nil path renders the placeholder without any network activity.
func (v *Viewer) Frame(path *string, filename string, category report.Category) Frame {
	f := Frame{
		Filename: filename,
		Category: category,
		Sandbox:  Sandbox,
	}
	if path == nil || *path == "" {
		f.State = StatePlaceholder
		return f
	}

	f.URL = v.FileURL(*path)
	if f.URL == "" {
		f.State = StateDemo
		f.SampleHTML = SampleHTML
		return f
	}
	f.State = StateLive
	return f
}

// Download fetches the report at path. The caller closes the returned body.
func (v *Viewer) Download(ctx context.Context, path string) (io.ReadCloser, string, error) {
	target := v.FileURL(path)
	if target == "" {
		return nil, "", ErrNoArtifact
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, "", fmt.Errorf("download failed: %s", resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return resp.Body, contentType, nil
}

// Save downloads the report at path into dir under filename and returns the written path.
func (v *Viewer) Save(ctx context.Context, path, filename, dir string) (string, error) {
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "", fmt.Errorf("invalid filename %q", filename)
	}

	body, _, err := v.Download(ctx, path)
	if err != nil {
		return "", err
	}
	defer body.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	dst := filepath.Join(dir, name)
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close report file: %w", err)
	}
	return dst, nil
}

// uriComponentUnescapes undoes url.QueryEscape for the characters
// JavaScript's encodeURIComponent leaves alone.
var uriComponentUnescapes = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeURIComponent escapes s like JavaScript's encodeURIComponent.
func encodeURIComponent(s string) string {
	return uriComponentUnescapes.Replace(url.QueryEscape(s))
}
