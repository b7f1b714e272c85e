package config

import (
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the environment variable prefix, e.g. SCMTRACK_DB_URL.
const EnvPrefix = "SCMTRACK"

// EnvConfig holds all environment-based configuration.
// Nested structs use underscore delimiter (e.g. PERIODIC_SYNC_ENABLED).
type EnvConfig struct {
	// Host is the server host to bind to.
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir holds the default SQLite database and settings file.
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL (sqlite:/// or postgres://).
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is one of DEBUG, INFO, WARN, ERROR.
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is pretty or json.
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// SettingsFile is the YAML file with SCM and issue-reference settings.
	SettingsFile string `envconfig:"SETTINGS_FILE"`

	// APIKeys is a comma-separated list of keys accepted by the HTTP API.
	APIKeys string `envconfig:"API_KEYS"`

	// WorkerCount bounds how many repositories are fetched in parallel.
	WorkerCount int `envconfig:"WORKER_COUNT" default:"4"`

	PeriodicSync PeriodicSyncEnv `envconfig:"PERIODIC_SYNC"`

	GitHub GitHubEnv `envconfig:"GITHUB"`
}

// PeriodicSyncEnv holds scheduler settings.
type PeriodicSyncEnv struct {
	Enabled bool `envconfig:"ENABLED" default:"true"`

	IntervalSeconds float64 `envconfig:"INTERVAL_SECONDS" default:"1800"`

	CheckIntervalSeconds float64 `envconfig:"CHECK_INTERVAL_SECONDS" default:"10"`

	RetryAttempts int `envconfig:"RETRY_ATTEMPTS" default:"3"`
}

// GitHubEnv holds GitHub adapter settings.
type GitHubEnv struct {
	Token string `envconfig:"TOKEN"`

	BaseURL string `envconfig:"BASE_URL"`
}

// LoadFromEnv loads configuration from SCMTRACK_-prefixed environment variables.
func LoadFromEnv() (EnvConfig, error) {
	return LoadFromEnvWithPrefix(EnvPrefix)
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// Normalize trims whitespace and upper-cases the log level.
func (e EnvConfig) Normalize() EnvConfig {
	e.Host = strings.TrimSpace(e.Host)
	e.DataDir = strings.TrimSpace(e.DataDir)
	e.DBURL = strings.TrimSpace(e.DBURL)
	e.LogLevel = strings.ToUpper(strings.TrimSpace(e.LogLevel))
	e.LogFormat = strings.ToLower(strings.TrimSpace(e.LogFormat))
	e.SettingsFile = strings.TrimSpace(e.SettingsFile)
	return e
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.Host != "" {
		cfg = applyOption(cfg, WithHost(e.Host))
	}
	if e.Port != 0 {
		cfg = applyOption(cfg, WithPort(e.Port))
	}
	if e.DataDir != "" {
		cfg = applyOption(cfg, WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		cfg = applyOption(cfg, WithDBURL(e.DBURL))
	}
	if e.LogLevel != "" {
		cfg = applyOption(cfg, WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = applyOption(cfg, WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	if e.SettingsFile != "" {
		cfg = applyOption(cfg, WithSettingsFile(e.SettingsFile))
	}
	if e.APIKeys != "" {
		cfg = applyOption(cfg, WithAPIKeys(ParseAPIKeys(e.APIKeys)))
	}
	if e.WorkerCount > 0 {
		cfg = applyOption(cfg, WithWorkerCount(e.WorkerCount))
	}

	cfg = applyOption(cfg, WithPeriodicSyncConfig(e.PeriodicSync.ToPeriodicSyncConfig()))
	cfg = applyOption(cfg, WithGitHubConfig(NewGitHubConfig(e.GitHub.Token, e.GitHub.BaseURL)))

	return cfg
}

func applyOption(cfg AppConfig, opt AppConfigOption) AppConfig {
	opt(&cfg)
	return cfg
}

// ToPeriodicSyncConfig converts PeriodicSyncEnv to PeriodicSyncConfig.
func (p PeriodicSyncEnv) ToPeriodicSyncConfig() PeriodicSyncConfig {
	return NewPeriodicSyncConfig().
		WithEnabled(p.Enabled).
		WithIntervalSeconds(p.IntervalSeconds).
		WithCheckIntervalSeconds(p.CheckIntervalSeconds).
		WithRetryAttempts(p.RetryAttempts)
}

func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
