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

package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phuonguno98/secportal/pkg/report"
)

// Demo listing sizes.
const (
	MockDays   = 30
	MockMonths = 6
)

// Mock serves generated listings so demo mode works without a backend.
// Daily listings cover the last MockDays days including today, monthly
// listings the last MockMonths months including the current one.
type Mock struct {
	now func() time.Time
}

// NewMock creates a mock catalog. now supplies "today"; nil means time.Now.
func NewMock(now func() time.Time) *Mock {
	if now == nil {
		now = time.Now
	}
	return &Mock{now: now}
}

// ListDaily returns one report per day, newest first.
func (m *Mock) ListDaily(_ context.Context, category report.Category) []report.DailyReport {
	today := m.now()
	prefix := strings.ToUpper(string(category))

	reports := make([]report.DailyReport, 0, MockDays)
	for i := 0; i < MockDays; i++ {
		date := report.FormatDate(today.AddDate(0, 0, -i))
		name := fmt.Sprintf("%s_Blocked_%s.html", prefix, strings.ReplaceAll(date, "-", ""))
		reports = append(reports, report.DailyReport{
			Date:     date,
			Filename: name,
			Path:     fmt.Sprintf("/%s/daily_reports/%s", category, name),
		})
	}
	return reports
}

// ListMonthly returns one report per month, newest first.
func (m *Mock) ListMonthly(_ context.Context, category report.Category) []report.MonthlyReport {
	today := m.now()
	prefix := strings.ToUpper(string(category))
	y, mon, _ := today.Date()

	reports := make([]report.MonthlyReport, 0, MockMonths)
	for i := 0; i < MockMonths; i++ {
		month := report.FormatMonth(time.Date(y, mon-time.Month(i), 1, 0, 0, 0, 0, today.Location()))
		name := fmt.Sprintf("%s_Monthly_Report_%s.html", prefix, strings.ReplaceAll(month, "-", ""))
		reports = append(reports, report.MonthlyReport{
			Month:    month,
			Filename: name,
			Path:     fmt.Sprintf("/%s/monthly_reports/%s", category, name),
		})
	}
	return reports
}

// Lists returns both mock listings of category.
func (m *Mock) Lists(ctx context.Context, category report.Category) ([]report.DailyReport, []report.MonthlyReport) {
	return m.ListDaily(ctx, category), m.ListMonthly(ctx, category)
}

// SummarizeAll summarizes the mock listings of every category in input order.
func (m *Mock) SummarizeAll(ctx context.Context, categories []report.Category) []report.Summary {
	summaries := make([]report.Summary, len(categories))
	for i, c := range categories {
		summaries[i] = report.Summarize(m.Lists(ctx, c))
		summaries[i].Category = c
	}
	return summaries
}
