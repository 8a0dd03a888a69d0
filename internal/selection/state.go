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

package selection

import (
	"net/url"
	"time"

	"github.com/phuonguno98/secportal/pkg/report"
)

// State is what the user currently has selected while browsing a category.
type State struct {
	Category report.Category
	Date     time.Time   // Selected calendar date (daily tab)
	Month    string      // Selected YYYY-MM token (monthly tab)
	Tab      report.Mode // Active tab
}

// Defaults returns the selection used whenever the category changes:
// yesterday, the previous month, and the daily tab.
func Defaults(category report.Category, now time.Time) State {
	today := truncateDay(now)
	y, m, _ := today.Date()
	return State{
		Category: category,
		Date:     today.AddDate(0, 0, -1),
		Month:    report.FormatMonth(time.Date(y, m-1, 1, 0, 0, 0, 0, now.Location())),
		Tab:      report.Daily,
	}
}

// FromQuery layers the tab, date and month query parameters over the defaults.
// Malformed values are ignored.
func FromQuery(category report.Category, q url.Values, now time.Time) State {
	s := Defaults(category, now)

	if tab, err := report.ParseMode(q.Get("tab")); err == nil {
		s.Tab = tab
	}
	if raw := q.Get("date"); raw != "" {
		if d, err := report.ParseDate(raw, now.Location()); err == nil {
			s.Date = d
		}
	}
	if raw := q.Get("month"); raw != "" {
		if _, err := report.ParseMonth(raw, now.Location()); err == nil {
			s.Month = raw
		}
	}
	return s
}

// DateString returns the selected date as YYYY-MM-DD, or "" when unset.
func (s State) DateString() string {
	if s.Date.IsZero() {
		return ""
	}
	return report.FormatDate(s.Date)
}

// Query encodes the selection as query parameters, the inverse of FromQuery.
func (s State) Query() url.Values {
	q := url.Values{}
	if s.Tab != "" {
		q.Set("tab", string(s.Tab))
	}
	if d := s.DateString(); d != "" {
		q.Set("date", d)
	}
	if s.Month != "" {
		q.Set("month", s.Month)
	}
	return q
}
