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

// Package console renders terminal output for the CLI commands.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
)

// Predefined colors for consistent output.
var (
	BrightGreen = color.New(color.FgGreen, color.Bold).SprintFunc()
	BrightRed   = color.New(color.FgRed, color.Bold).SprintFunc()
	BrightCyan  = color.New(color.FgCyan, color.Bold).SprintFunc()
	BrightBlue  = color.New(color.FgBlue, color.Bold).SprintFunc()
	Faint       = color.New(color.Faint).SprintFunc()
)

// Rule is the separator printed around banners.
var Rule = strings.Repeat("=", 60)

// Banner prints a title block followed by optional lines.
func Banner(w io.Writer, title string, lines ...string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, Rule)
	fmt.Fprintln(w, BrightBlue(title))
	fmt.Fprintln(w, Rule)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}

// Mark renders a check mark for true and a cross with a note for false.
func Mark(ok bool) string {
	if ok {
		return BrightGreen("✓")
	}
	return BrightRed("✗ (not found)")
}

// Table renders rows under header as a boxed table.
func Table(header []string, rows [][]string) (string, error) {
	data := pterm.TableData{header}
	data = append(data, rows...)

	return pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(data).
		Srender()
}

// Success prints a success line.
func Success(format string, a ...interface{}) {
	pterm.Success.Printfln(format, a...)
}

// Info prints an informational line.
func Info(format string, a ...interface{}) {
	pterm.Info.Printfln(format, a...)
}

// Warning prints a warning line.
func Warning(format string, a ...interface{}) {
	pterm.Warning.Printfln(format, a...)
}

// Error prints an error line.
func Error(format string, a ...interface{}) {
	pterm.Error.Printfln(format, a...)
}
