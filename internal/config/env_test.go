package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "", cfg.DataDir)
	assert.Equal(t, "", cfg.DBURL)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "pretty", cfg.LogFormat)
	assert.Equal(t, "", cfg.APIKeys)
	assert.Equal(t, 4, cfg.WorkerCount)

	assert.True(t, cfg.PeriodicSync.Enabled)
	assert.Equal(t, 1800.0, cfg.PeriodicSync.IntervalSeconds)
	assert.Equal(t, 10.0, cfg.PeriodicSync.CheckIntervalSeconds)
	assert.Equal(t, 3, cfg.PeriodicSync.RetryAttempts)
	assert.Equal(t, "", cfg.GitHub.Token)
}

func TestEnvDefaults_MatchConfigDefaults(t *testing.T) {
	// Struct tag defaults must be literals; keep them in step with the constants.
	clearEnvVars(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultWorkerCount, cfg.WorkerCount)
	assert.Equal(t, DefaultPeriodicSyncInterval, cfg.PeriodicSync.IntervalSeconds)
	assert.Equal(t, DefaultPeriodicSyncCheckInterval, cfg.PeriodicSync.CheckIntervalSeconds)
	assert.Equal(t, DefaultPeriodicSyncRetries, cfg.PeriodicSync.RetryAttempts)
}

func TestLoadFromEnv_OverrideValues(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("SCMTRACK_HOST", "127.0.0.1")
	t.Setenv("SCMTRACK_PORT", "9090")
	t.Setenv("SCMTRACK_DB_URL", "postgres://u:p@db:5432/scm")
	t.Setenv("SCMTRACK_LOG_FORMAT", "json")
	t.Setenv("SCMTRACK_WORKER_COUNT", "8")
	t.Setenv("SCMTRACK_PERIODIC_SYNC_ENABLED", "false")
	t.Setenv("SCMTRACK_PERIODIC_SYNC_INTERVAL_SECONDS", "60")
	t.Setenv("SCMTRACK_GITHUB_TOKEN", "ghp_x")
	t.Setenv("SCMTRACK_GITHUB_BASE_URL", "https://ghe.example.com/api/v3/")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "postgres://u:p@db:5432/scm", cfg.DBURL)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.False(t, cfg.PeriodicSync.Enabled)
	assert.Equal(t, 60.0, cfg.PeriodicSync.IntervalSeconds)
	assert.Equal(t, "ghp_x", cfg.GitHub.Token)
	assert.Equal(t, "https://ghe.example.com/api/v3/", cfg.GitHub.BaseURL)
}

func TestLoadFromEnv_InvalidPort(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("SCMTRACK_PORT", "not-a-port")

	_, err := LoadFromEnv()
	assert.Error(t, err)
}

func TestEnvConfig_ToAppConfig(t *testing.T) {
	env := EnvConfig{
		Host:         " 10.0.0.1 ",
		Port:         7000,
		DataDir:      "/srv/scm",
		LogLevel:     "debug",
		LogFormat:    "JSON",
		APIKeys:      "a, b,,c",
		WorkerCount:  2,
		PeriodicSync: PeriodicSyncEnv{Enabled: true, IntervalSeconds: 120, CheckIntervalSeconds: 5, RetryAttempts: 1},
		GitHub:       GitHubEnv{Token: " tok "},
	}

	cfg := env.Normalize().ToAppConfig()

	assert.Equal(t, "10.0.0.1", cfg.Host())
	assert.Equal(t, "10.0.0.1:7000", cfg.Addr())
	assert.Equal(t, "/srv/scm", cfg.DataDir())
	assert.Equal(t, "sqlite:///"+filepath.Join("/srv/scm", DefaultDBFile), cfg.DBURL())
	assert.Equal(t, filepath.Join("/srv/scm", DefaultSettingsFile), cfg.SettingsFile())
	assert.Equal(t, "DEBUG", cfg.LogLevel())
	assert.Equal(t, LogFormatJSON, cfg.LogFormat())
	assert.Equal(t, []string{"a", "b", "c"}, cfg.APIKeys())
	assert.Equal(t, 2, cfg.WorkerCount())
	assert.Equal(t, 2*time.Minute, cfg.PeriodicSync().Interval())
	assert.Equal(t, 5*time.Second, cfg.PeriodicSync().CheckInterval())
	assert.Equal(t, "tok", cfg.GitHub().Token())
}

func TestEnvConfig_ExplicitDBURLWinsOverDataDir(t *testing.T) {
	env := EnvConfig{DataDir: "/srv/scm", DBURL: "postgres://x@y/z"}

	cfg := env.ToAppConfig()

	assert.Equal(t, "postgres://x@y/z", cfg.DBURL())
}

func TestParseLogFormat(t *testing.T) {
	tests := []struct {
		input string
		want  LogFormat
	}{
		{"json", LogFormatJSON},
		{"JSON", LogFormatJSON},
		{"pretty", LogFormatPretty},
		{"", LogFormatPretty},
		{"other", LogFormatPretty},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogFormat(tt.input))
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := `SCMTRACK_DATA_DIR=/from/dotenv
SCMTRACK_LOG_LEVEL=DEBUG
SCMTRACK_API_KEYS=key1,key2
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	clearEnvVars(t)

	require.NoError(t, LoadDotEnv(envFile))

	assert.Equal(t, "/from/dotenv", os.Getenv("SCMTRACK_DATA_DIR"))
	assert.Equal(t, "DEBUG", os.Getenv("SCMTRACK_LOG_LEVEL"))
	assert.Equal(t, "key1,key2", os.Getenv("SCMTRACK_API_KEYS"))
}

func TestLoadDotEnv_NonExistent(t *testing.T) {
	clearEnvVars(t)

	assert.NoError(t, LoadDotEnv("/nonexistent/.env"))
}

func TestLoadConfig(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := `SCMTRACK_DATA_DIR=/config/data
SCMTRACK_LOG_LEVEL=warn
SCMTRACK_GITHUB_TOKEN=from-file
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	clearEnvVars(t)
	t.Setenv("SCMTRACK_GITHUB_TOKEN", "from-env")

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)

	assert.Equal(t, "/config/data", cfg.DataDir())
	assert.Equal(t, "WARN", cfg.LogLevel())
	assert.Equal(t, "from-env", cfg.GitHub().Token())
}

func TestDotEnvFromFiles_Precedence(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.env")
	second := filepath.Join(dir, "second.env")
	require.NoError(t, os.WriteFile(first, []byte("SCMTRACK_HOST=first\n"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("SCMTRACK_HOST=second\n"), 0o644))

	clearEnvVars(t)
	require.NoError(t, LoadDotEnvFromFiles(first, filepath.Join(dir, "missing.env"), second))
	assert.Equal(t, "first", os.Getenv("SCMTRACK_HOST"))

	clearEnvVars(t)
	require.NoError(t, OverloadDotEnvFromFiles(first, second))
	assert.Equal(t, "second", os.Getenv("SCMTRACK_HOST"))
}

func clearEnvVars(t *testing.T) {
	t.Helper()

	vars := []string{
		"HOST",
		"PORT",
		"DATA_DIR",
		"DB_URL",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"SETTINGS_FILE",
		"API_KEYS",
		"WORKER_COUNT",
		"PERIODIC_SYNC_ENABLED",
		"PERIODIC_SYNC_INTERVAL_SECONDS",
		"PERIODIC_SYNC_CHECK_INTERVAL_SECONDS",
		"PERIODIC_SYNC_RETRY_ATTEMPTS",
		"GITHUB_TOKEN",
		"GITHUB_BASE_URL",
	}

	for _, v := range vars {
		key := EnvPrefix + "_" + v
		if old, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { _ = os.Setenv(key, old) })
		}
		_ = os.Unsetenv(key)
	}
}
