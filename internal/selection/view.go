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
	"context"
	"sync"

	"github.com/phuonguno98/secportal/pkg/report"
)

// Lister fetches both listings of a category. *catalog.Client implements it.
type Lister interface {
	Lists(ctx context.Context, category report.Category) ([]report.DailyReport, []report.MonthlyReport)
}

// Ticket identifies one listing load. Only the ticket of the latest load is
// accepted; responses carrying an older ticket are dropped.
type Ticket struct {
	gen      uint64
	category report.Category
}

// Artifact is the record resolved for one tab of the current selection.
type Artifact struct {
	Category report.Category
	Mode     report.Mode
	Key      string // Date or month the selection asked for
	Filename string
	Path     string
	Found    bool
}

// View holds the listings and selection of one browsing session.
// The resolved artifact is never stored; it is derived on every call.
type View struct {
	mu      sync.Mutex
	gen     uint64
	state   State
	daily   []report.DailyReport
	monthly []report.MonthlyReport
	loaded  bool
}

// NewView returns an empty view with no category selected.
func NewView() *View {
	return &View{}
}

// Begin switches the view to state.Category with the given selection, clears
// the listings of the previous category and returns the ticket for the load.
func (v *View) Begin(state State) Ticket {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.gen++
	v.state = state
	v.daily = nil
	v.monthly = nil
	v.loaded = false
	return Ticket{gen: v.gen, category: state.Category}
}

// Apply installs listings fetched under t. It reports false, leaving the view
// untouched, when a newer Begin has happened since t was issued.
func (v *View) Apply(t Ticket, daily []report.DailyReport, monthly []report.MonthlyReport) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if t.gen != v.gen || t.category != v.state.Category {
		return false
	}
	v.daily = daily
	v.monthly = monthly
	v.loaded = true
	return true
}

// Load begins a new selection and fetches its listings through l.
// It reports whether the fetched listings were applied.
func (v *View) Load(ctx context.Context, l Lister, state State) bool {
	t := v.Begin(state)
	daily, monthly := l.Lists(ctx, state.Category)
	return v.Apply(t, daily, monthly)
}

// Loaded reports whether listings for the current category are installed.
func (v *View) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}

// State returns the current selection.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Update changes the selection within the current category.
// The category itself can only change through Begin.
func (v *View) Update(fn func(*State)) {
	v.mu.Lock()
	defer v.mu.Unlock()

	category := v.state.Category
	fn(&v.state)
	v.state.Category = category
}

// Daily returns the installed daily listing.
func (v *View) Daily() []report.DailyReport {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]report.DailyReport(nil), v.daily...)
}

// Monthly returns the installed monthly listing.
func (v *View) Monthly() []report.MonthlyReport {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]report.MonthlyReport(nil), v.monthly...)
}

// AvailableDates returns the dates that have a daily artifact.
func (v *View) AvailableDates() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	dates := make([]string, 0, len(v.daily))
	for _, r := range v.daily {
		dates = append(dates, r.Date)
	}
	return dates
}

// Resolved returns the artifact for the active tab.
func (v *View) Resolved() Artifact {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.resolve(v.state.Tab)
}

func (v *View) resolve(mode report.Mode) Artifact {
	a := Artifact{Category: v.state.Category, Mode: mode}

	switch mode {
	case report.Monthly:
		a.Key = v.state.Month
		if r, ok := ResolveMonthly(v.monthly, v.state.Month); ok {
			a.Filename, a.Path, a.Found = r.Filename, r.Path, true
		}
	default:
		a.Mode = report.Daily
		if v.state.Date.IsZero() {
			return a
		}
		a.Key = report.FormatDate(v.state.Date)
		if r, ok := ResolveDaily(v.daily, v.state.Date); ok {
			a.Filename, a.Path, a.Found = r.Filename, r.Path, true
		}
	}
	return a
}
