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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config represents application configuration shared by all commands.
type Config struct {
	// Backend
	APIBase        string        `mapstructure:"api-base" validate:"required,url"` // REST backend root, e.g. http://127.0.0.1:8000/api
	Demo           bool          `mapstructure:"demo"`                             // Render sample documents instead of live reports
	RequestTimeout time.Duration `mapstructure:"timeout"`                          // Per-request timeout for backend calls

	// Listener
	Host string `mapstructure:"host" validate:"required"`
	Port int    `mapstructure:"port" validate:"min=1,max=65535"`

	// Archive backend
	LayoutFile string `mapstructure:"layout"` // Report folder layout (YAML, TOML or JSON)

	// Logging
	LogLevel string `mapstructure:"log-level"` // debug, info, warn, error
	LogFile  string `mapstructure:"log-file"`  // Log file path (empty = stdout)

	// Timezone
	Timezone string `mapstructure:"timezone"` // Location used for "today" (e.g. "Asia/Ho_Chi_Minh", "Local")
}

// Default configuration values.
const (
	DefaultAPIBase        = "http://127.0.0.1:8000/api"
	DefaultHost           = "0.0.0.0"
	DefaultPort           = 8080
	DefaultArchivePort    = 8000
	DefaultRequestTimeout = 30 * time.Second
	DefaultLogLevel       = "info"
	DefaultTimezone       = "Local"

	// EnvPrefix prefixes every environment override (SECPORTAL_API_BASE, ...).
	EnvPrefix = "SECPORTAL"
)

// NewViper returns a viper instance with defaults and environment overrides wired.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("api-base", DefaultAPIBase)
	v.SetDefault("demo", false)
	v.SetDefault("timeout", DefaultRequestTimeout)
	v.SetDefault("host", DefaultHost)
	v.SetDefault("port", DefaultPort)
	v.SetDefault("layout", "")
	v.SetDefault("log-level", DefaultLogLevel)
	v.SetDefault("log-file", "")
	v.SetDefault("timezone", DefaultTimezone)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment when the file exists.
// Variables already present in the environment win.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// BindFlags makes every flag of fs a source for the viper key of the same name.
// A flag's own default replaces the package default so commands can differ (e.g. port).
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil {
			return
		}
		if err := v.BindPFlag(f.Name, f); err != nil {
			bindErr = fmt.Errorf("failed to bind flag %s: %w", f.Name, err)
			return
		}
		v.SetDefault(f.Name, f.DefValue)
	})
	return bindErr
}

// Load reads the optional config file, merges flags and environment, and validates.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFromArgs loads configuration from command-line style arguments.
func LoadFromArgs(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("secportal", pflag.ContinueOnError)
	RegisterGlobalFlags(fs)
	RegisterServerFlags(fs, DefaultPort)
	configFile := fs.String("config", "", "Config file (YAML, TOML or JSON)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := NewViper()
	if err := BindFlags(v, fs); err != nil {
		return nil, err
	}
	return Load(v, *configFile)
}

// RegisterGlobalFlags declares the flags shared by every command.
func RegisterGlobalFlags(fs *pflag.FlagSet) {
	fs.String("api-base", DefaultAPIBase, "Report backend API base URL")
	fs.Bool("demo", false, "Show the built-in sample report instead of live reports")
	fs.Duration("timeout", DefaultRequestTimeout, "Timeout for backend requests")
	fs.String("layout", "", "Report folder layout file (YAML, TOML or JSON)")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warn, error)")
	fs.String("log-file", "", "Log file path (empty = stdout)")
	fs.String("timezone", DefaultTimezone, "Timezone used to decide what 'today' is")
}

// RegisterServerFlags declares the listener flags of a server command.
func RegisterServerFlags(fs *pflag.FlagSet, defaultPort int) {
	fs.String("host", DefaultHost, "HTTP server listen address")
	fs.IntP("port", "p", defaultPort, "HTTP server port")
}

// ParseCommaSeparated parses a comma-separated string into a slice of trimmed strings.
func ParseCommaSeparated(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("invalid %s: %q does not satisfy %q", fe.Field(), fmt.Sprint(fe.Value()), fe.Tag())
		}
		return err
	}

	if !strings.HasPrefix(c.APIBase, "http://") && !strings.HasPrefix(c.APIBase, "https://") {
		return fmt.Errorf("api base must be an http(s) URL: %s", c.APIBase)
	}

	if c.RequestTimeout < 0 {
		return errors.New("request timeout must not be negative")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	// Validate Timezone
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("invalid timezone: %s (%w)", c.Timezone, err)
		}
	}

	if c.LayoutFile != "" {
		if err := ensureFile(c.LayoutFile); err != nil {
			return fmt.Errorf("layout file check failed: %w", err)
		}
	}

	return nil
}

// Location returns the configured timezone, falling back to Local.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetDefaultExportBase generates the default export file base: <hostname>_reports_<timestamp>
// in the executable's directory.
func GetDefaultExportBase() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	// Clean hostname (remove invalid filename characters)
	hostname = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' || r == '"' || r == '<' || r == '>' || r == '|' {
			return '_'
		}
		return r
	}, hostname)

	name := fmt.Sprintf("%s_reports_%s", hostname, time.Now().Format("20060102150405"))

	exePath, err := os.Executable()
	if err != nil {
		return name
	}
	return filepath.Join(filepath.Dir(exePath), name)
}

// ensureFile checks that path exists and is a regular file.
func ensureFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", path)
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	return nil
}

// String returns a human-readable representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("Config{APIBase=%s, Demo=%t, Addr=%s, Timeout=%v, Layout=%s}, Timezone=%s",
		c.APIBase, c.Demo, c.Addr(), c.RequestTimeout, c.LayoutFile, c.Timezone)
}
