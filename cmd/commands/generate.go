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
	"github.com/phuonguno98/secportal/internal/console"
	"github.com/phuonguno98/secportal/internal/selection"
	"github.com/phuonguno98/secportal/internal/submit"
	"github.com/phuonguno98/secportal/pkg/report"
	"github.com/spf13/cobra"
)

var (
	generateDate  string
	generateMonth string
)

var generateCmd = &cobra.Command{
	Use:   "generate <daily|monthly> <category>",
	Short: "Ask the backend to generate a report",
	Long: `Start report generation on the backend. The request returns as soon as
the backend accepts it; the report appears in listings once generated.

Daily mode uses --date (default: yesterday), monthly mode uses --month
(default: previous month).

Examples:
  # Generate yesterday's Web Filter report
  secportal generate daily webfilter

  # Generate the April 2024 Antivirus report
  secportal generate monthly antivirus --month 2024-04`,
	Args: cobra.ExactArgs(2),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVar(&generateDate, "date", "", "Report date for daily mode (YYYY-MM-DD)")
	generateCmd.Flags().StringVar(&generateMonth, "month", "", "Report month for monthly mode (YYYY-MM)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	mode, err := report.ParseMode(args[0])
	if err != nil {
		return err
	}
	category, err := report.ParseCategory(args[1])
	if err != nil {
		return err
	}

	now := clock(cfg)
	defaults := selection.Defaults(category, now())
	req := submit.GenerateRequest{
		Mode:     mode,
		Category: category,
		Date:     defaults.Date,
		Month:    defaults.Month,
	}
	if generateDate != "" {
		if req.Date, err = report.ParseDate(generateDate, cfg.Location()); err != nil {
			return err
		}
	}
	if generateMonth != "" {
		req.Month = generateMonth
	}

	ctx, cancel := requestContext(cfg, 1)
	defer cancel()

	res, err := submit.New(cfg.APIBase, newBackendClient(cfg), logger, now).Generate(ctx, req)
	if err != nil {
		console.Error("Generation request failed: %v", err)
		return err
	}

	console.Success("%s (%s)", res.Message, res.SelectedDate)
	return nil
}
