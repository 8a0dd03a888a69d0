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
	"fmt"
	"os"
	"path/filepath"

	"github.com/phuonguno98/secportal/internal/console"
	"github.com/phuonguno98/secportal/internal/selection"
	"github.com/phuonguno98/secportal/internal/submit"
	"github.com/phuonguno98/secportal/pkg/report"
	"github.com/spf13/cobra"
)

var uploadDate string

var uploadCmd = &cobra.Command{
	Use:   "upload <category> <file>",
	Short: "Upload a raw log file to the backend",
	Long: `Upload a raw FortiGate log (.log or .txt) for one category and date.
The date defaults to yesterday and may not be in the future.

Examples:
  # Upload yesterday's DNS log
  secportal upload dns ./disk-dns.log

  # Upload the IPS log of a given day
  secportal upload ips ./ips.txt --date 2024-05-01`,
	Args: cobra.ExactArgs(2),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVar(&uploadDate, "date", "", "Log date (YYYY-MM-DD, default: yesterday)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	category, err := report.ParseCategory(args[0])
	if err != nil {
		return err
	}
	// Reject the file type before touching the file.
	if err := submit.CheckFile(args[1]); err != nil {
		return err
	}

	now := clock(cfg)
	date := selection.Defaults(category, now()).Date
	if uploadDate != "" {
		if date, err = report.ParseDate(uploadDate, cfg.Location()); err != nil {
			return err
		}
	}

	f, err := os.Open(args[1])
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Failed to close log file", "error", err)
		}
	}()

	ctx, cancel := requestContext(cfg, 1)
	defer cancel()

	res, err := submit.New(cfg.APIBase, newBackendClient(cfg), logger, now).Upload(ctx, submit.UploadRequest{
		Category: category,
		FileName: filepath.Base(args[1]),
		File:     f,
		Date:     date,
	})
	if err != nil {
		console.Error("Upload failed: %v", err)
		return err
	}

	console.Success("Uploaded %s as %s", args[1], res.Filename)
	return nil
}
