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

// Package report defines the report categories and the artifact records
// exchanged with the report backend.
package report

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCategory is returned when a category identifier is not one of the fixed set.
var ErrUnknownCategory = errors.New("unknown report category")

// Category identifies a family of security reports.
type Category string

// The fixed category set. Identifiers double as backend path segments.
const (
	AppControl Category = "appctrl"
	WebFilter  Category = "webfilter"
	IPS        Category = "ips"
	DNS        Category = "dns"
	Antivirus  Category = "antivirus"
)

// Metadata describes how a category is presented.
type Metadata struct {
	Category    Category `json:"type"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Color       string   `json:"color"`
	Icon        string   `json:"icon"`
}

var categories = []Metadata{
	{AppControl, "Application Control", "Monitor and control application", "appctrl", "shield"},
	{WebFilter, "Web Filter", "Track web browsing and blocked websites", "webfilter", "globe"},
	{IPS, "IPS", "Intrusion Prevention System", "ips", "alert-triangle"},
	{DNS, "DNS", "DNS query logs and filtered domain requests", "dns", "server"},
	{Antivirus, "Antivirus", "Antivirus events and detections", "antivirus", "shield"},
}

// Categories returns the metadata of every category in display order.
func Categories() []Metadata {
	out := make([]Metadata, len(categories))
	copy(out, categories)
	return out
}

// AllCategories returns the category identifiers in display order.
func AllCategories() []Category {
	out := make([]Category, 0, len(categories))
	for _, m := range categories {
		out = append(out, m.Category)
	}
	return out
}

// ParseCategory validates a category identifier.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, m := range categories {
		if m.Category == c {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// Valid reports whether c belongs to the fixed set.
func (c Category) Valid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

// Meta returns the presentation metadata of c. Unknown categories yield a zero Metadata.
func (c Category) Meta() Metadata {
	for _, m := range categories {
		if m.Category == c {
			return m
		}
	}
	return Metadata{}
}

func (c Category) String() string {
	return string(c)
}

// Mode selects between the daily and monthly report families.
type Mode string

const (
	Daily   Mode = "daily"
	Monthly Mode = "monthly"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Daily:
		return Daily, nil
	case Monthly:
		return Monthly, nil
	}
	return "", fmt.Errorf("invalid mode %q (must be daily or monthly)", s)
}

// DailyReport is one generated daily artifact.
type DailyReport struct {
	Date     string `json:"date"`     // YYYY-MM-DD
	Filename string `json:"filename"` // Display name
	Path     string `json:"path"`     // Backend-relative locator
}

// MonthlyReport is one generated monthly artifact.
type MonthlyReport struct {
	Month    string `json:"month"` // YYYY-MM
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// Summary condenses the daily and monthly listings of a category.
type Summary struct {
	Category          Category `json:"type"`
	DailyCount        int      `json:"dailyCount"`
	MonthlyCount      int      `json:"monthlyCount"`
	LatestDailyDate   *string  `json:"latestDailyDate"`
	LatestMonthlyDate *string  `json:"latestMonthlyDate"`
}

// Summarize reduces two listings. Latest entries trust backend ordering: the
// first element of each listing is taken as the most recent.
func Summarize(daily []DailyReport, monthly []MonthlyReport) Summary {
	s := Summary{
		DailyCount:   len(daily),
		MonthlyCount: len(monthly),
	}
	if len(daily) > 0 {
		d := daily[0].Date
		s.LatestDailyDate = &d
	}
	if len(monthly) > 0 {
		m := monthly[0].Month
		s.LatestMonthlyDate = &m
	}
	return s
}
