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
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Generation errors.
var (
	ErrThrottled     = errors.New("too many generation requests, try again later")
	ErrNotConfigured = errors.New("no generator command configured")
)

// maxOutputLog caps how much generator output is kept for the log.
const maxOutputLog = 4096

// newCommand builds generator processes; tests replace it.
var newCommand = exec.CommandContext

// Runner starts generator commands in the background, throttled by a token bucket.
type Runner struct {
	ctx     context.Context
	limiter *rate.Limiter
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewRunner allows one generation every interval with the given burst.
// Running commands are killed when ctx is cancelled.
func NewRunner(ctx context.Context, interval time.Duration, burst int, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Runner{
		ctx:     ctx,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// Expand substitutes the selected date into an argv template. Templates
// without a placeholder get the date appended as the last argument.
func Expand(template []string, selectedDate string) []string {
	argv := make([]string, 0, len(template)+1)
	replaced := false
	for _, a := range template {
		if strings.Contains(a, DatePlaceholder) {
			replaced = true
			a = strings.ReplaceAll(a, DatePlaceholder, selectedDate)
		}
		argv = append(argv, a)
	}
	if !replaced {
		argv = append(argv, selectedDate)
	}
	return argv
}

// Start launches template with selectedDate and returns once the process has
// started. Completion is only logged.
func (r *Runner) Start(template []string, selectedDate string, attrs ...any) error {
	if len(template) == 0 {
		return ErrNotConfigured
	}
	if !r.limiter.Allow() {
		return ErrThrottled
	}

	argv := Expand(template, selectedDate)
	cmd := newCommand(r.ctx, argv[0], argv[1:]...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start generator: %w", err)
	}

	logger := r.logger.With(attrs...).With("command", argv[0], "selected_date", selectedDate)
	logger.Info("Report generation started", "pid", cmd.Process.Pid)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		start := time.Now()
		err := cmd.Wait()
		if err != nil {
			out := output.String()
			if len(out) > maxOutputLog {
				out = out[len(out)-maxOutputLog:]
			}
			logger.Error("Report generation failed", "error", err, "duration", time.Since(start), "output", out)
			return
		}
		logger.Info("Report generation finished", "duration", time.Since(start))
	}()
	return nil
}

// Wait blocks until every started generator has exited.
func (r *Runner) Wait() {
	r.wg.Wait()
}
