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

	"github.com/phuonguno98/secportal/internal/archive"
	"github.com/phuonguno98/secportal/internal/console"
	"github.com/phuonguno98/secportal/pkg/report"
	"github.com/spf13/cobra"
)

var (
	categoriesCheck bool
	categoriesRoot  string
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List report categories",
	Long: `List the report categories the portal knows about.
With --check, also verify the archive folders of each category exist.

Examples:
  # List categories
  secportal categories

  # Check the folders of a layout file
  secportal categories --check --layout layout.yaml`,
	RunE: runCategories,
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
	categoriesCmd.Flags().BoolVar(&categoriesCheck, "check", false, "Check archive folders of each category")
	categoriesCmd.Flags().StringVar(&categoriesRoot, "root", ".", "Root folder of the default layout (ignored with --layout)")
}

func runCategories(cmd *cobra.Command, _ []string) error {
	rows := make([][]string, 0, len(report.Categories()))
	for _, m := range report.Categories() {
		rows = append(rows, []string{string(m.Category), m.Label, m.Description})
	}
	table, err := console.Table([]string{"Category", "Label", "Description"}, rows)
	if err != nil {
		return err
	}
	console.Banner(os.Stdout, "SecPortal - Report Categories")
	fmt.Println(table)

	if !categoriesCheck {
		return nil
	}

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	layout, err := loadLayout(cfg, categoriesRoot)
	if err != nil {
		return err
	}
	store, err := archive.NewStore(layout, logger)
	if err != nil {
		return fmt.Errorf("invalid layout: %w", err)
	}
	printFolderCheck(store)

	missing := 0
	for _, st := range store.Check() {
		if !st.Exists {
			missing++
		}
	}
	if missing > 0 {
		console.Warning("%d folder(s) not found", missing)
	} else {
		console.Success("All report folders found")
	}
	fmt.Println()
	return nil
}
