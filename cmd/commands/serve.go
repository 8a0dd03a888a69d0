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

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/phuonguno98/secportal/internal/catalog"
	"github.com/phuonguno98/secportal/internal/config"
	"github.com/phuonguno98/secportal/internal/console"
	"github.com/phuonguno98/secportal/internal/server"
	"github.com/phuonguno98/secportal/internal/submit"
	"github.com/phuonguno98/secportal/internal/viewer"
	"github.com/phuonguno98/secportal/pkg/version"
	"github.com/spf13/cobra"
)

var serveOpenBrowser bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the report dashboard",
	Long: `Start the web dashboard for browsing security reports.

Features:
  • Per-category summary cards with latest report dates
  • Daily and monthly report browser with embedded viewer
  • Raw log upload and report generation through the backend
  • Demo mode with a built-in sample report
  • Fully embedded in the binary

Examples:
  # Start on default port 8080 against a local backend
  secportal serve

  # Point at a remote backend
  secportal serve --api-base https://reports.example.com/api --port 3000`,

	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	config.RegisterServerFlags(serveCmd.Flags(), config.DefaultPort)
	serveCmd.Flags().BoolVar(&serveOpenBrowser, "open-browser", false, "Open browser automatically after server starts")
}

// newBackendClient returns the HTTP client used for every backend call.
func newBackendClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.RequestTimeout}
}

// clock returns "now" in the configured timezone.
func clock(cfg *config.Config) func() time.Time {
	loc := cfg.Location()
	return func() time.Time { return time.Now().In(loc) }
}

// newCatalog returns the live catalog, or generated listings in demo mode.
func newCatalog(cfg *config.Config, client *http.Client, logger *slog.Logger) server.Catalog {
	if cfg.Demo {
		return catalog.NewMock(clock(cfg))
	}
	return catalog.New(cfg.APIBase, client, logger)
}

// createServerInstance encapsulates server creation logic for testing.
func createServerInstance(cfg *config.Config, logger *slog.Logger) (*server.Server, error) {
	client := newBackendClient(cfg)

	v, err := viewer.New(cfg.APIBase, client, cfg.Demo)
	if err != nil {
		return nil, fmt.Errorf("failed to create viewer: %w", err)
	}

	return server.NewServer(server.Options{
		Catalog:  newCatalog(cfg, client, logger),
		Viewer:   v,
		Actions:  submit.New(cfg.APIBase, client, logger, clock(cfg)),
		APIBase:  cfg.APIBase,
		Location: cfg.Location(),
		Now:      clock(cfg),
	}, logger)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	logger.Info("Starting SecPortal Dashboard",
		"version", version.Info(),
		"addr", cfg.Addr(),
		"api_base", cfg.APIBase,
		"demo", cfg.Demo,
	)

	srv, err := createServerInstance(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Uploads up to 200MB pass through this server on their way to the backend.
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	serverURL := listenURL(cfg)
	mode := "live"
	if cfg.Demo {
		mode = "demo (sample report)"
	}
	console.Banner(os.Stdout, "SecPortal Dashboard is running!",
		fmt.Sprintf("URL:     %s", console.BrightCyan(serverURL)),
		fmt.Sprintf("Backend: %s", cfg.APIBase),
		fmt.Sprintf("Mode:    %s", mode),
		"",
	)

	if serveOpenBrowser {
		go openBrowserURL(serverURL)
	}

	return listenAndServe(httpServer, logger, nil)
}

// listenAndServe runs httpServer until SIGINT/SIGTERM, then shuts it down gracefully.
// onStop runs after the listener has closed.
func listenAndServe(httpServer *http.Server, logger *slog.Logger, onStop func()) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("Received signal, initiating shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	err := httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	<-ctx.Done()
	if onStop != nil {
		onStop()
	}
	logger.Info("Server stopped")
	return nil
}

func listenURL(cfg *config.Config) string {
	if cfg.Host == "0.0.0.0" || cfg.Host == "" {
		return fmt.Sprintf("http://localhost:%d", cfg.Port)
	}
	return fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)
}

func openBrowserURL(url string) {
	time.Sleep(500 * time.Millisecond)
	var cmd *exec.Cmd
	switch {
	case fileExists("C:\\Windows\\System32\\rundll32.exe"):
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case fileExists("/usr/bin/xdg-open"):
		cmd = exec.Command("xdg-open", url)
	case fileExists("/usr/bin/open"):
		cmd = exec.Command("open", url)
	default:
		return
	}
	if err := cmd.Start(); err != nil {
		// Browser opening is optional.
		fmt.Fprintf(os.Stderr, "Failed to open browser: %v\n", err)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
