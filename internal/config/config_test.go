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

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseCommaSeparated(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "Single value",
			input:    "dns",
			expected: []string{"dns"},
		},
		{
			name:     "Multiple values",
			input:    "dns,ips",
			expected: []string{"dns", "ips"},
		},
		{
			name:     "Whitespace handling",
			input:    " dns , ips ",
			expected: []string{"dns", "ips"},
		},
		{
			name:     "Empty parts",
			input:    "dns,,ips",
			expected: []string{"dns", "ips"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCommaSeparated(tt.input)
			if len(got) != len(tt.expected) {
				t.Errorf("ParseCommaSeparated() length = %v, want %v", len(got), len(tt.expected))
				return
			}
			for i, v := range got {
				if v != tt.expected[i] {
					t.Errorf("ParseCommaSeparated()[%d] = %v, want %v", i, v, tt.expected[i])
				}
			}
		})
	}
}

func validConfig() Config {
	return Config{
		APIBase:        DefaultAPIBase,
		Host:           DefaultHost,
		Port:           DefaultPort,
		RequestTimeout: DefaultRequestTimeout,
		LogLevel:       "info",
	}
}

func TestConfig_Validate(t *testing.T) {
	tempDir := t.TempDir()
	layoutPath := filepath.Join(tempDir, "layout.yaml")
	if err := os.WriteFile(layoutPath, []byte("categories: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "Valid Config", mutate: func(*Config) {}},
		{name: "Missing API Base", mutate: func(c *Config) { c.APIBase = "" }, wantErr: true},
		{name: "API Base Without Scheme", mutate: func(c *Config) { c.APIBase = "127.0.0.1:8000/api" }, wantErr: true},
		{name: "API Base With FTP Scheme", mutate: func(c *Config) { c.APIBase = "ftp://host/api" }, wantErr: true},
		{name: "Port Too Large", mutate: func(c *Config) { c.Port = 70000 }, wantErr: true},
		{name: "Port Zero", mutate: func(c *Config) { c.Port = 0 }, wantErr: true},
		{name: "Empty Host", mutate: func(c *Config) { c.Host = "" }, wantErr: true},
		{name: "Negative Timeout", mutate: func(c *Config) { c.RequestTimeout = -time.Second }, wantErr: true},
		{name: "Invalid Log Level", mutate: func(c *Config) { c.LogLevel = "invalid" }, wantErr: true},
		{name: "Valid Timezone", mutate: func(c *Config) { c.Timezone = "UTC" }},
		{name: "Invalid Timezone", mutate: func(c *Config) { c.Timezone = "Invalid/Timezone" }, wantErr: true},
		{name: "Existing Layout File", mutate: func(c *Config) { c.LayoutFile = layoutPath }},
		{name: "Missing Layout File", mutate: func(c *Config) { c.LayoutFile = filepath.Join(tempDir, "nope.yaml") }, wantErr: true},
		{name: "Layout Is Directory", mutate: func(c *Config) { c.LayoutFile = tempDir }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Location(t *testing.T) {
	cfg := validConfig()
	if cfg.Location() != time.Local {
		t.Error("empty timezone should map to time.Local")
	}

	cfg.Timezone = "UTC"
	if cfg.Location().String() != "UTC" {
		t.Errorf("Location() = %v, want UTC", cfg.Location())
	}

	cfg.Timezone = "Not/AZone"
	if cfg.Location() != time.Local {
		t.Error("unknown timezone should fall back to time.Local")
	}
}

func TestGetDefaultExportBase(t *testing.T) {
	base := GetDefaultExportBase()
	if base == "" {
		t.Error("GetDefaultExportBase() returned empty string")
	}
	if !strings.Contains(filepath.Base(base), "_reports_") {
		t.Errorf("GetDefaultExportBase() = %v, expected _reports_ marker", base)
	}
	if filepath.Ext(base) != "" {
		t.Errorf("GetDefaultExportBase() = %v, expected no extension", base)
	}
}

func TestLoadFromArgs(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expected    *Config
		expectError bool
	}{
		{
			name: "Defaults",
			args: []string{},
			expected: &Config{
				APIBase:        DefaultAPIBase,
				Port:           DefaultPort,
				RequestTimeout: DefaultRequestTimeout,
				LogLevel:       DefaultLogLevel,
			},
		},
		{
			name: "Custom Values",
			args: []string{
				"--api-base", "https://reports.example.com/api/",
				"--port", "9090",
				"--timeout", "5s",
				"--log-level", "debug",
				"--demo",
			},
			expected: &Config{
				APIBase:        "https://reports.example.com/api",
				Port:           9090,
				RequestTimeout: 5 * time.Second,
				LogLevel:       "debug",
				Demo:           true,
			},
		},
		{
			name:        "Unknown Flag",
			args:        []string{"--unknown-flag"},
			expectError: true,
		},
		{
			name:        "Invalid Config (Validation Failure)",
			args:        []string{"--port", "0"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFromArgs(tt.args)
			if tt.expectError {
				if err == nil {
					t.Error("LoadFromArgs() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("LoadFromArgs() unexpected error: %v", err)
				return
			}

			if cfg.APIBase != tt.expected.APIBase {
				t.Errorf("APIBase = %v, want %v", cfg.APIBase, tt.expected.APIBase)
			}
			if cfg.Port != tt.expected.Port {
				t.Errorf("Port = %v, want %v", cfg.Port, tt.expected.Port)
			}
			if cfg.RequestTimeout != tt.expected.RequestTimeout {
				t.Errorf("RequestTimeout = %v, want %v", cfg.RequestTimeout, tt.expected.RequestTimeout)
			}
			if cfg.LogLevel != tt.expected.LogLevel {
				t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, tt.expected.LogLevel)
			}
			if cfg.Demo != tt.expected.Demo {
				t.Errorf("Demo = %v, want %v", cfg.Demo, tt.expected.Demo)
			}
		})
	}
}

func TestLoadFromArgs_EnvironmentOverride(t *testing.T) {
	t.Setenv("SECPORTAL_API_BASE", "http://10.0.0.5:8000/api")
	t.Setenv("SECPORTAL_LOG_LEVEL", "warn")

	cfg, err := LoadFromArgs([]string{"--log-level", "error"})
	if err != nil {
		t.Fatalf("LoadFromArgs() unexpected error: %v", err)
	}
	if cfg.APIBase != "http://10.0.0.5:8000/api" {
		t.Errorf("APIBase = %v, want value from environment", cfg.APIBase)
	}
	// Explicit flags win over the environment.
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %v, want error", cfg.LogLevel)
	}
}

func TestLoadFromArgs_ConfigFile(t *testing.T) {
	tempDir := t.TempDir()
	cfgPath := filepath.Join(tempDir, "secportal.yaml")
	content := "api-base: http://192.168.1.20:8000/api\nport: 8181\ntimezone: UTC\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromArgs([]string{"--config", cfgPath})
	if err != nil {
		t.Fatalf("LoadFromArgs() unexpected error: %v", err)
	}
	if cfg.APIBase != "http://192.168.1.20:8000/api" {
		t.Errorf("APIBase = %v", cfg.APIBase)
	}
	if cfg.Port != 8181 {
		t.Errorf("Port = %v, want 8181", cfg.Port)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Timezone = %v, want UTC", cfg.Timezone)
	}

	if _, err := LoadFromArgs([]string{"--config", filepath.Join(tempDir, "missing.yaml")}); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := LoadDotEnv(""); err != nil {
		t.Errorf("LoadDotEnv(\"\") = %v, want nil", err)
	}
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}

	envPath := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envPath, []byte("SECPORTAL_DOTENV_PROBE=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("SECPORTAL_DOTENV_PROBE") })

	if err := LoadDotEnv(envPath); err != nil {
		t.Fatalf("LoadDotEnv() unexpected error: %v", err)
	}
	if got := os.Getenv("SECPORTAL_DOTENV_PROBE"); got != "from-file" {
		t.Errorf("SECPORTAL_DOTENV_PROBE = %q, want from-file", got)
	}
}
