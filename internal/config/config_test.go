package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noEnvFile keeps tests from picking up a .env in the package directory.
func noEnvFile(t *testing.T) string {
	return "--env-file=" + filepath.Join(t.TempDir(), "missing.env")
}

func validConfig() *Config {
	return &Config{
		App:      AppConfig{Environment: "development", DataPath: "/some/path"},
		Logger:   LoggerConfig{Level: "info"},
		Store:    StoreConfig{Backend: BackendSQLite},
		Calendar: CalendarConfig{Timezone: "UTC"},
		Auth:     AuthConfig{AccessTokenDuration: time.Hour},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load([]string{noEnvFile(t)}, nil)
	require.NoError(t, err)

	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, filepath.Join(homeDir, "ReadTrack", "data"), cfg.App.DataPath)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Empty(t, cfg.Logger.File)
	assert.Equal(t, 100, cfg.Logger.MaxSizeMB)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, time.UTC, cfg.DayLocation())
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, 720*time.Hour, cfg.Auth.AccessTokenDuration)
	assert.InDelta(t, 10.0, cfg.RateLimit.RPS, 0.001)
	assert.Equal(t, 20, cfg.RateLimit.Burst)
	assert.Equal(t, filepath.Join(cfg.App.DataPath, "readtrack.db"), cfg.DatabasePath())
}

func TestLoad_Precedence(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := `# Test env file
LOG_LEVEL=debug
SERVER_PORT=7000
DAY_TIMEZONE="Asia/Tokyo"
STORE_BACKEND='badger'
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	environ := []string{
		"SERVER_PORT=7100",
		"RATE_LIMIT_BURST=5",
		"LOG_LEVEL=",
		"CORS_ALLOWED_ORIGINS=https://a.example.com,https://b.example.com",
	}
	args := []string{"--env-file", envFile, "--port", "7200", "--data-path", "/srv/readtrack"}

	cfg, err := Load(args, environ)
	require.NoError(t, err)

	assert.Equal(t, "7200", cfg.Server.Port, "flag beats env and file")
	assert.Equal(t, 5, cfg.RateLimit.Burst, "env beats default")
	assert.Equal(t, "debug", cfg.Logger.Level, "empty env falls through to file")
	assert.Equal(t, BackendBadger, cfg.Store.Backend)
	assert.Equal(t, "Asia/Tokyo", cfg.DayLocation().String())
	assert.Equal(t, "/srv/readtrack", cfg.App.DataPath)
	assert.Equal(t, filepath.Join("/srv/readtrack", "badger"), cfg.DatabasePath())
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSAllowedOrigins)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		environ []string
		errMsg  string
	}{
		{"unknown flag", []string{"--nope"}, nil, "parse flags"},
		{"bad duration", nil, []string{"ACCESS_TOKEN_DURATION=soon"}, "parse config"},
		{"bad environment", []string{"--env", "test"}, nil, "invalid environment"},
		{"bad backend", []string{"--store-backend", "postgres"}, nil, "invalid store backend"},
		{"bad timezone", []string{"--day-timezone", "Mars/Olympus"}, nil, "invalid day timezone"},
		{"zero token duration", nil, []string{"ACCESS_TOKEN_DURATION=0s"}, "access token duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(append([]string{noEnvFile(t)}, tt.args...), tt.environ)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad_MalformedEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("VALID=1\nINVALID LINE WITHOUT EQUALS\n"), 0o644))

	_, err := Load([]string{"--env-file", envFile}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format at line 2")
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"DEBUG", true}, // case insensitive
		{"trace", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_ResolvesDayLocation(t *testing.T) {
	cfg := validConfig()
	cfg.Calendar.Timezone = "America/New_York"
	assert.Equal(t, time.UTC, cfg.DayLocation())

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "America/New_York", cfg.DayLocation().String())
}

func TestValidate_RateLimitBurst(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit = RateLimitConfig{RPS: 5, Burst: 0}
	assert.Error(t, cfg.Validate())

	cfg.RateLimit = RateLimitConfig{RPS: 0, Burst: 0}
	assert.NoError(t, cfg.Validate(), "disabled limiter needs no burst")
}

func TestValidate_EmptyDataPath(t *testing.T) {
	cfg := validConfig()
	cfg.App.DataPath = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data path cannot be empty")
}

func TestExpandPath(t *testing.T) {
	homeDir, _ := os.UserHomeDir() //nolint:errcheck // Test setup

	got, err := expandPath("~/my-data")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(homeDir, "my-data"), got)

	got, err = expandPath("/absolute/path/../data")
	require.NoError(t, err)
	assert.Equal(t, "/absolute/data", got)

	got, err = expandPath("relative/path")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Contains(t, got, "relative/path")
}

func TestLoadEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := `
# Comment
KEY1=value1

  KEY_WITH_SPACES  =  value with spaces  
QUOTED_VALUE="some value"
SINGLE_QUOTED='another value'
WITH_EQUALS=a=b
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	vars, err := loadEnvFile(envFile)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"KEY1":            "value1",
		"KEY_WITH_SPACES": "value with spaces",
		"QUOTED_VALUE":    "some value",
		"SINGLE_QUOTED":   "another value",
		"WITH_EQUALS":     "a=b",
	}, vars)
}

func TestLoadEnvFile_NonExistentFile(t *testing.T) {
	_, err := loadEnvFile("/nonexistent/file/.env")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
