// Package config provides application configuration with support for
// command-line flags, environment variables, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Store     StoreConfig
	Calendar  CalendarConfig
	Server    ServerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig

	dayLocation *time.Location
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `env:"ENV"       envDefault:"development"`
	DataPath    string `env:"DATA_PATH" envDefault:"~/ReadTrack/data"`
}

// LoggerConfig holds logging configuration. File enables a rotating JSON
// log next to stdout.
type LoggerConfig struct {
	Level      string `env:"LOG_LEVEL"        envDefault:"info"`
	File       string `env:"LOG_FILE"`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB"  envDefault:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS"  envDefault:"3"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"28"`
	Compress   bool   `env:"LOG_COMPRESS"     envDefault:"false"`
}

// StoreConfig selects the embedded store.
type StoreConfig struct {
	Backend string `env:"STORE_BACKEND" envDefault:"sqlite"`
}

// CalendarConfig holds the zone whose midnight separates reading days.
type CalendarConfig struct {
	Timezone string `env:"DAY_TIMEZONE" envDefault:"UTC"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port               string        `env:"SERVER_PORT"          envDefault:"8080"`
	ReadTimeout        time.Duration `env:"SERVER_READ_TIMEOUT"  envDefault:"15s"`
	WriteTimeout       time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout        time.Duration `env:"SERVER_IDLE_TIMEOUT"  envDefault:"60s"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// AuthConfig holds access token configuration. The key itself lives in the
// data directory, see auth.LoadOrGenerateKey.
type AuthConfig struct {
	AccessTokenDuration time.Duration `env:"ACCESS_TOKEN_DURATION" envDefault:"720h"`
}

// RateLimitConfig holds per-client request limits. RPS <= 0 disables them.
type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS"   envDefault:"10"`
	Burst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`
}

// flagKeys maps each command-line flag onto the variable it overrides.
var flagKeys = []struct {
	name, key, usage string
}{
	{"env", "ENV", "Environment (development, staging, production)"},
	{"log-level", "LOG_LEVEL", "Log level (debug, info, warn, error)"},
	{"log-file", "LOG_FILE", "Rotating JSON log file (default: none)"},
	{"data-path", "DATA_PATH", "Directory for the database and auth key"},
	{"store-backend", "STORE_BACKEND", "Store backend (sqlite, badger)"},
	{"day-timezone", "DAY_TIMEZONE", "IANA zone used to split reading days (default: UTC)"},
	{"port", "SERVER_PORT", "Server port (default: 8080)"},
	{"read-timeout", "SERVER_READ_TIMEOUT", "HTTP read timeout (default: 15s)"},
	{"write-timeout", "SERVER_WRITE_TIMEOUT", "HTTP write timeout (default: 15s)"},
	{"idle-timeout", "SERVER_IDLE_TIMEOUT", "HTTP idle timeout (default: 60s)"},
	{"cors-allowed-origins", "CORS_ALLOWED_ORIGINS", "Comma-separated CORS origins (default: *)"},
	{"access-token-duration", "ACCESS_TOKEN_DURATION", "Access token lifetime (default: 720h)"},
	{"rate-limit-rps", "RATE_LIMIT_RPS", "Requests per second per client (default: 10)"},
	{"rate-limit-burst", "RATE_LIMIT_BURST", "Request burst per client (default: 20)"},
}

// LoadConfig loads configuration from the process arguments and environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], os.Environ())
}

// Load builds the configuration with precedence:
// 1. Command-line flags in args (highest priority).
// 2. Variables in environ.
// 3. The .env file named by --env-file.
// 4. Default values (lowest priority).
func Load(args, environ []string) (*Config, error) {
	fs := flag.NewFlagSet("readtrack", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	flagValues := make(map[string]*string, len(flagKeys))
	for _, f := range flagKeys {
		flagValues[f.key] = fs.String(f.name, "", f.usage)
	}
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	vars := env.ToMap(environ)

	// A missing .env file is fine; a malformed one is not.
	fileVars, err := loadEnvFile(*envFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", *envFile, err)
	}
	for k, v := range fileVars {
		if vars[k] == "" {
			vars[k] = v
		}
	}

	for key, v := range flagValues {
		if *v != "" {
			vars[key] = *v
		}
	}
	for key, v := range vars {
		if v == "" {
			delete(vars, key)
		}
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.App.DataPath, err = expandPath(cfg.App.DataPath); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}
	if cfg.Logger.File != "" {
		if cfg.Logger.File, err = expandPath(cfg.Logger.File); err != nil {
			return nil, fmt.Errorf("invalid log file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all config values are present and valid, and
// resolves the day timezone.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %q (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.App.DataPath == "" {
		return errors.New("data path cannot be empty")
	}

	switch c.Store.Backend {
	case BackendSQLite, BackendBadger:
	default:
		return fmt.Errorf("invalid store backend: %q (must be sqlite or badger)", c.Store.Backend)
	}

	loc, err := time.LoadLocation(c.Calendar.Timezone)
	if err != nil {
		return fmt.Errorf("invalid day timezone %q: %w", c.Calendar.Timezone, err)
	}
	c.dayLocation = loc

	if c.Auth.AccessTokenDuration <= 0 {
		return fmt.Errorf("access token duration must be positive, got %s", c.Auth.AccessTokenDuration)
	}

	if c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate limit burst must be at least 1, got %d", c.RateLimit.Burst)
	}

	return nil
}

// DayLocation is the resolved day timezone. It is UTC until Validate runs.
func (c *Config) DayLocation() *time.Location {
	if c.dayLocation == nil {
		return time.UTC
	}
	return c.dayLocation
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// DatabasePath is the store location inside the data directory.
func (c *Config) DatabasePath() string {
	if c.Store.Backend == BackendBadger {
		return filepath.Join(c.App.DataPath, "badger")
	}
	return filepath.Join(c.App.DataPath, "readtrack.db")
}

// expandPath expands ~ and makes the path absolute.
func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, strings.TrimPrefix(path[1:], "/"))
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// loadEnvFile reads KEY=value lines from a .env file. Blank lines and
// lines starting with # are skipped; surrounding quotes are removed.
func loadEnvFile(path string) (map[string]string, error) {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return nil, err
	}
	defer file.Close()

	vars := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		vars[key] = value
	}

	return vars, scanner.Err()
}
