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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/phuonguno98/secportal/pkg/report"
	"gopkg.in/yaml.v3"
)

// Placeholder replaced by the selected date in generator argv templates.
const DatePlaceholder = "{date}"

// FolderLayout describes where one category keeps its reports and raw logs.
type FolderLayout struct {
	Base            string   `yaml:"base" toml:"base" json:"base"`
	Daily           string   `yaml:"daily" toml:"daily" json:"daily"`
	Monthly         string   `yaml:"monthly" toml:"monthly" json:"monthly"`
	DailyPattern    string   `yaml:"daily_pattern" toml:"daily_pattern" json:"daily_pattern"`
	MonthlyPattern  string   `yaml:"monthly_pattern" toml:"monthly_pattern" json:"monthly_pattern"`
	RawDir          string   `yaml:"raw_dir" toml:"raw_dir" json:"raw_dir"`
	RawPrefix       string   `yaml:"raw_prefix" toml:"raw_prefix" json:"raw_prefix"`
	GenerateDaily   []string `yaml:"generate_daily" toml:"generate_daily" json:"generate_daily"`
	GenerateMonthly []string `yaml:"generate_monthly" toml:"generate_monthly" json:"generate_monthly"`
}

// Layout maps category identifiers to folder layouts.
type Layout struct {
	Categories map[string]FolderLayout `yaml:"categories" toml:"categories" json:"categories"`
}

// DailyDir returns the daily report folder.
func (f FolderLayout) DailyDir() string {
	return filepath.Join(f.Base, f.Daily)
}

// MonthlyDir returns the monthly report folder.
func (f FolderLayout) MonthlyDir() string {
	return filepath.Join(f.Base, f.Monthly)
}

// RawPath returns the folder uploaded raw logs are written to.
func (f FolderLayout) RawPath() string {
	if filepath.IsAbs(f.RawDir) {
		return f.RawDir
	}
	return filepath.Join(f.Base, f.RawDir)
}

// Command returns the generator argv for mode, or nil when none is configured.
func (f FolderLayout) Command(mode report.Mode) []string {
	if mode == report.Monthly {
		return f.GenerateMonthly
	}
	return f.GenerateDaily
}

// filePrefixes names report files the way the FortiGate report scripts do.
var filePrefixes = map[report.Category][2]string{
	report.AppControl: {"AppControl", "AppCtrl"},
	report.WebFilter:  {"WebFilter", "WebFilter"},
	report.IPS:        {"IPS", "IPS"},
	report.DNS:        {"DNS", "DNS"},
	report.Antivirus:  {"Antivirus", "Antivirus"},
}

// DefaultLayout lays every category out under root using the stock folder names.
func DefaultLayout(root string) *Layout {
	l := &Layout{Categories: make(map[string]FolderLayout, len(filePrefixes))}
	for _, c := range report.AllCategories() {
		names := filePrefixes[c]
		l.Categories[string(c)] = FolderLayout{
			Base:           filepath.Join(root, names[0]),
			Daily:          "daily_reports",
			Monthly:        "monthly_reports",
			DailyPattern:   names[1] + `_Blocked_(\d{8})\.html`,
			MonthlyPattern: names[1] + `_Monthly_Report_(\d{6})\.html`,
			RawDir:         "raw_logs",
			RawPrefix:      "disk-" + string(c),
		}
	}
	return l
}

// LoadLayout reads a TOML, YAML or JSON layout file chosen by extension.
func LoadLayout(filePath string) (*Layout, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("error accessing layout file: %w", err)
	}
	if fileInfo.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file", filePath)
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading layout file: %w", err)
	}

	var layout Layout
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".toml":
		if err := toml.Unmarshal(fileData, &layout); err != nil {
			return nil, fmt.Errorf("error parsing TOML file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(fileData, &layout); err != nil {
			return nil, fmt.Errorf("error parsing YAML file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(fileData, &layout); err != nil {
			return nil, fmt.Errorf("error parsing JSON file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported layout file format: %s", ext)
	}

	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &layout, nil
}

// Validate checks category names, folders and filename patterns.
func (l *Layout) Validate() error {
	if len(l.Categories) == 0 {
		return fmt.Errorf("layout defines no categories")
	}
	for name, f := range l.Categories {
		if _, err := report.ParseCategory(name); err != nil {
			return fmt.Errorf("layout: %w", err)
		}
		if f.Base == "" {
			return fmt.Errorf("layout %s: base folder is required", name)
		}
		if f.Daily == "" || f.Monthly == "" {
			return fmt.Errorf("layout %s: daily and monthly folders are required", name)
		}
		if _, err := compilePattern(f.DailyPattern); err != nil {
			return fmt.Errorf("layout %s: daily_pattern: %w", name, err)
		}
		if _, err := compilePattern(f.MonthlyPattern); err != nil {
			return fmt.Errorf("layout %s: monthly_pattern: %w", name, err)
		}
	}
	return nil
}

// compilePattern anchors p at the start of the file name and requires one capture group.
func compilePattern(p string) (*regexp.Regexp, error) {
	if p == "" {
		return nil, fmt.Errorf("pattern is empty")
	}
	re, err := regexp.Compile("^(?:" + p + ")")
	if err != nil {
		return nil, err
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("pattern %q has no capture group", p)
	}
	return re, nil
}
