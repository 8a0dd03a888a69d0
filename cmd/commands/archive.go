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
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/phuonguno98/secportal/internal/archive"
	"github.com/phuonguno98/secportal/internal/config"
	"github.com/phuonguno98/secportal/internal/console"
	"github.com/phuonguno98/secportal/pkg/version"
	"github.com/spf13/cobra"
)

var (
	// Archive command specific flags
	archiveRoot     string
	archiveInterval time.Duration
	archiveBurst    int
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Serve report folders as the REST backend",
	Long: `Serve per-category report folders over the REST API the dashboard consumes.
Daily and monthly reports are discovered by filename pattern, uploaded raw logs
are stored in each category's raw log folder, and generation requests start the
configured generator command in the background.

Examples:
  # Serve the default folder layout under the current directory on port 8000
  secportal archive

  # Use a layout file and allow one generation every 30s
  secportal archive --layout layout.yaml --generate-interval 30s`,
	RunE: runArchive,
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	config.RegisterServerFlags(archiveCmd.Flags(), config.DefaultArchivePort)
	archiveCmd.Flags().StringVar(&archiveRoot, "root", ".",
		"Root folder of the default layout (ignored with --layout)")
	archiveCmd.Flags().DurationVar(&archiveInterval, "generate-interval", time.Minute,
		"Minimum interval between generation requests (0 = unlimited)")
	archiveCmd.Flags().IntVar(&archiveBurst, "generate-burst", 3,
		"Generation requests allowed at once before throttling")
}

// loadLayout reads the layout file when one is configured, else the default layout under root.
func loadLayout(cfg *config.Config, root string) (*archive.Layout, error) {
	if cfg.LayoutFile != "" {
		return archive.LoadLayout(cfg.LayoutFile)
	}
	return archive.DefaultLayout(root), nil
}

// printFolderCheck lists every configured folder with a check mark.
func printFolderCheck(store *archive.Store) {
	lines := make([]string, 0, len(store.Check()))
	for _, st := range store.Check() {
		lines = append(lines, fmt.Sprintf("  %-10s %-8s %s %s", st.Category, st.Mode, st.Path, console.Mark(st.Exists)))
	}
	console.Banner(os.Stdout, "Report folders", lines...)
}

func runArchive(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	layout, err := loadLayout(cfg, archiveRoot)
	if err != nil {
		return err
	}
	store, err := archive.NewStore(layout, logger)
	if err != nil {
		return fmt.Errorf("invalid layout: %w", err)
	}

	logger.Info("Starting SecPortal archive backend",
		"version", version.Info(),
		"addr", cfg.Addr(),
		"layout", cfg.LayoutFile,
		"categories", len(store.Categories()),
	)
	printFolderCheck(store)

	// Generators still running at shutdown are killed through this context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner := archive.NewRunner(ctx, archiveInterval, archiveBurst, logger)

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           archive.NewServer(store, runner, logger),
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	console.Banner(os.Stdout, "SecPortal archive is running!",
		fmt.Sprintf("API: %s/api", console.BrightCyan(listenURL(cfg))),
		"",
	)

	return listenAndServe(httpServer, logger, func() {
		waitForGenerators(cancel, runner, logger)
	})
}

// waitForGenerators stops running generator commands and waits for them to exit.
func waitForGenerators(cancel context.CancelFunc, runner *archive.Runner, logger *slog.Logger) {
	logger.Info("Stopping generator commands...")
	cancel()
	runner.Wait()
}
