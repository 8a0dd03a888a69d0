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

// Package catalog lists the report artifacts the backend holds for each category.
//
// Listing never fails from the caller's point of view: transport errors,
// non-success statuses and undecodable bodies are logged and degrade to an
// empty listing, so browsing keeps working while the backend is unreachable.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/phuonguno98/secportal/pkg/report"
	"golang.org/x/sync/errgroup"
)

// MaxListingSize caps the body read from a listing response (8MB).
const MaxListingSize = 8 * 1024 * 1024

// Client queries the report backend for daily and monthly listings.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a catalog client against baseURL (e.g. http://127.0.0.1:8000/api).
func New(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// ListDaily returns the daily reports of category in backend order.
func (c *Client) ListDaily(ctx context.Context, category report.Category) []report.DailyReport {
	reports := make([]report.DailyReport, 0)
	if err := c.getList(ctx, category, report.Daily, &reports); err != nil {
		c.logger.Warn("Failed to fetch daily reports", "category", category, "error", err)
		return []report.DailyReport{}
	}
	if reports == nil {
		return []report.DailyReport{}
	}
	return reports
}

// ListMonthly returns the monthly reports of category in backend order.
func (c *Client) ListMonthly(ctx context.Context, category report.Category) []report.MonthlyReport {
	reports := make([]report.MonthlyReport, 0)
	if err := c.getList(ctx, category, report.Monthly, &reports); err != nil {
		c.logger.Warn("Failed to fetch monthly reports", "category", category, "error", err)
		return []report.MonthlyReport{}
	}
	if reports == nil {
		return []report.MonthlyReport{}
	}
	return reports
}

// Lists fetches both listings of category concurrently and waits for both.
func (c *Client) Lists(ctx context.Context, category report.Category) ([]report.DailyReport, []report.MonthlyReport) {
	var (
		daily   []report.DailyReport
		monthly []report.MonthlyReport
	)

	// Neither goroutine returns an error: a failed listing is already empty.
	var g errgroup.Group
	g.Go(func() error {
		daily = c.ListDaily(ctx, category)
		return nil
	})
	g.Go(func() error {
		monthly = c.ListMonthly(ctx, category)
		return nil
	})
	_ = g.Wait()

	return daily, monthly
}

// Summarize counts the listings of category and picks the latest entries.
func (c *Client) Summarize(ctx context.Context, category report.Category) report.Summary {
	daily, monthly := c.Lists(ctx, category)
	s := report.Summarize(daily, monthly)
	s.Category = category
	return s
}

// SummarizeAll summarizes every category concurrently, preserving input order.
func (c *Client) SummarizeAll(ctx context.Context, categories []report.Category) []report.Summary {
	summaries := make([]report.Summary, len(categories))

	var g errgroup.Group
	for i, category := range categories {
		i, category := i, category
		g.Go(func() error {
			summaries[i] = c.Summarize(ctx, category)
			return nil
		})
	}
	_ = g.Wait()

	return summaries
}

func (c *Client) getList(ctx context.Context, category report.Category, mode report.Mode, out interface{}) error {
	endpoint := fmt.Sprintf("%s/reports/%s/%s", c.baseURL, url.PathEscape(string(category)), mode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debug("Failed to close listing body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, MaxListingSize)).Decode(out); err != nil {
		return fmt.Errorf("failed to decode listing: %w", err)
	}

	c.logger.Debug("Fetched listing", "category", category, "mode", mode)
	return nil
}
