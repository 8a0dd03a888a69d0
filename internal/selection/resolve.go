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

// Package selection resolves a user's date or month choice against the
// artifacts listed for a category.
package selection

import (
	"errors"
	"time"

	"github.com/phuonguno98/secportal/pkg/report"
)

// ErrFutureDate is returned when a selected date lies after today.
var ErrFutureDate = errors.New("selected date is in the future")

// ErrNoDate is returned when no date has been selected.
var ErrNoDate = errors.New("no date selected")

// ResolveDaily returns the record whose date equals selected formatted as
// YYYY-MM-DD. There is no nearest-date matching; the first exact match wins.
func ResolveDaily(records []report.DailyReport, selected time.Time) (report.DailyReport, bool) {
	key := report.FormatDate(selected)
	for _, r := range records {
		if r.Date == key {
			return r, true
		}
	}
	return report.DailyReport{}, false
}

// ResolveMonthly returns the record whose month token equals month exactly.
func ResolveMonthly(records []report.MonthlyReport, month string) (report.MonthlyReport, bool) {
	if month == "" {
		return report.MonthlyReport{}, false
	}
	for _, r := range records {
		if r.Month == month {
			return r, true
		}
	}
	return report.MonthlyReport{}, false
}

// ValidateNotFuture rejects a date whose calendar day is after today.
// The date's own year/month/day are compared with now's, in now's location.
func ValidateNotFuture(date, now time.Time) error {
	if date.IsZero() {
		return ErrNoDate
	}
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	if day.After(truncateDay(now)) {
		return ErrFutureDate
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
