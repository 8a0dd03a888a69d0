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
	"strconv"

	"github.com/phuonguno98/secportal/internal/config"
	"github.com/phuonguno98/secportal/internal/console"
	"github.com/phuonguno98/secportal/internal/export"
	"github.com/phuonguno98/secportal/pkg/report"
	"github.com/spf13/cobra"
)

var (
	summaryExport string
	summaryBase   string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the report summary of every category",
	Long: `Fetch the daily and monthly listings of every category from the backend
and print report counts with the latest dates. Categories whose listing
cannot be fetched show zero reports.

Examples:
  # Print the summary table
  secportal summary

  # Also write CSV and PDF files next to the binary
  secportal summary --export csv,pdf

  # Write JSON to a chosen base path (extension is added)
  secportal summary --export json --output /tmp/reports`,
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringVar(&summaryExport, "export", "",
		"Comma-separated export formats (csv, json, pdf)")
	summaryCmd.Flags().StringVarP(&summaryBase, "output", "o", "",
		"Export file base path without extension (default: <hostname>_reports_<timestamp>)")
}

func runSummary(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	formats, err := export.ParseFormats(summaryExport)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(cfg, 2)
	defer cancel()

	summaries := newCatalog(cfg, newBackendClient(cfg), logger).SummarizeAll(ctx, report.AllCategories())

	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Category.Meta().Label,
			strconv.Itoa(s.DailyCount),
			strconv.Itoa(s.MonthlyCount),
			latest(s.LatestDailyDate),
			latest(s.LatestMonthlyDate),
		})
	}
	table, err := console.Table([]string{"Category", "Daily", "Monthly", "Latest Daily", "Latest Monthly"}, rows)
	if err != nil {
		return err
	}
	console.Banner(os.Stdout, "SecPortal - Report Summary", fmt.Sprintf("Backend: %s", cfg.APIBase))
	fmt.Println(table)

	if len(formats) == 0 {
		return nil
	}

	base := summaryBase
	if base == "" {
		base = config.GetDefaultExportBase()
	}
	paths, err := export.New(base, cfg.Location(), logger).Export(summaries, formats)
	for _, p := range paths {
		console.Success("Exported %s", p)
	}
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	return nil
}

func latest(v *string) string {
	if v == nil {
		return "None"
	}
	return *v
}
