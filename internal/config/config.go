// Package config loads qldash settings from defaults, a TOML file and the environment
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/qualitylink/qldash/internal/constants"
	"github.com/qualitylink/qldash/internal/dashboard"
	"github.com/qualitylink/qldash/internal/db"
	"github.com/qualitylink/qldash/internal/logger"
	"github.com/qualitylink/qldash/internal/notify"
	"github.com/qualitylink/qldash/internal/search"
	"github.com/qualitylink/qldash/internal/web"
	"github.com/qualitylink/qldash/pkg/api/v1/client"
	"github.com/qualitylink/qldash/pkg/api/v1/routes"
)

// Config is the complete qldash configuration
type Config struct {
	API      APIConfig      `toml:"api"`
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	UI       UIConfig       `toml:"ui"`
	Log      LogConfig      `toml:"log"`
}

// APIConfig describes how to reach the aggregator
type APIConfig struct {
	URL     string            `toml:"url"`
	Timeout time.Duration     `toml:"timeout"`
	Headers map[string]string `toml:"headers,omitempty"`
}

// ServerConfig holds web dashboard settings
type ServerConfig struct {
	Listen string `toml:"listen"`
	// SessionIdle is how long a browser session lives without requests
	SessionIdle time.Duration `toml:"session_idle"`
	// SweepInterval is how often idle sessions are reaped
	SweepInterval time.Duration `toml:"sweep_interval"`
}

// DatabaseConfig selects the preference store.
// Driver is "sqlite" (default) or "postgres"; DSN is a file path for sqlite.
type DatabaseConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn,omitempty"`
}

// UIConfig holds the interaction timings
type UIConfig struct {
	Debounce         time.Duration `toml:"debounce"`
	MinChars         int           `toml:"min_chars"`
	PageSize         int           `toml:"page_size"`
	ToastDuration    time.Duration `toml:"toast_duration"`
	ProgressInterval time.Duration `toml:"progress_interval"`
	Cooldown         time.Duration `toml:"cooldown"`
	Grace            time.Duration `toml:"grace"`
}

// LogConfig configures the logger
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		API: APIConfig{
			URL:     routes.DefaultBaseURL,
			Timeout: client.DefaultTimeout,
		},
		Server: ServerConfig{
			Listen:        constants.DefaultListenAddr,
			SessionIdle:   30 * time.Minute,
			SweepInterval: time.Minute,
		},
		Database: DatabaseConfig{Driver: db.DriverSQLite},
		UI: UIConfig{
			Debounce:         search.DefaultDebounce,
			MinChars:         search.DefaultMinChars,
			PageSize:         search.DefaultPageSize,
			ToastDuration:    notify.DefaultDuration,
			ProgressInterval: notify.DefaultProgressInterval,
			Cooldown:         dashboard.DefaultCooldown,
			Grace:            dashboard.DefaultGrace,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load builds the configuration: defaults, then the TOML file, then the
// environment. A .env file in the working directory is loaded first.
// An empty path means $QLDASH_CONFIG, then $HOME/.qldash/config.toml if it exists.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warnf("Error loading .env file: %v", err)
	}

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(constants.EnvConfigFile)
		explicit = path != ""
	}
	if !explicit {
		path = defaultPath()
	}

	if path != "" {
		err := cfg.mergeFile(path)
		switch {
		case err == nil:
			logger.Debugf("Loaded config from %s", path)
		case !explicit && errors.Is(err, fs.ErrNotExist):
		default:
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read decodes a TOML document over the current values
func (c *Config) Read(r io.Reader) error {
	if _, err := toml.NewDecoder(r).Decode(c); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}

// Write encodes the configuration as TOML
func (c *Config) Write(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

func (c *Config) mergeFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := c.Read(f); err != nil {
		return fmt.Errorf("reading config from %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.API.URL = getEnv(constants.EnvAPIURL, c.API.URL)
	c.Server.Listen = getEnv(constants.EnvListenAddr, c.Server.Listen)
	c.Database.Driver = getEnv(constants.EnvDBDriver, c.Database.Driver)
	c.Database.DSN = getEnv(constants.EnvDBDSN, c.Database.DSN)
	c.Log.Level = getEnv(constants.EnvLogLevel, c.Log.Level)
	c.Log.Format = getEnv(constants.EnvLogFormat, c.Log.Format)

	if v, ok := os.LookupEnv(constants.EnvTimeout); ok && v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", constants.EnvTimeout, err)
		}
		c.API.Timeout = timeout
	}
	return nil
}

// ClientOptions returns the API client options
func (c *Config) ClientOptions() *client.Options {
	return &client.Options{
		BaseURL: c.API.URL,
		Timeout: c.API.Timeout,
		Headers: c.API.Headers,
	}
}

// SearchOptions returns the provider search timings
func (c *Config) SearchOptions() search.Options {
	return search.Options{
		Debounce: c.UI.Debounce,
		MinChars: c.UI.MinChars,
		PageSize: c.UI.PageSize,
	}
}

// NotifyOptions returns the toast manager options; the event bus is left to the caller
func (c *Config) NotifyOptions() notify.Options {
	return notify.Options{
		Duration:         c.UI.ToastDuration,
		ProgressInterval: c.UI.ProgressInterval,
	}
}

// DashboardOptions returns the workflow timings
func (c *Config) DashboardOptions() dashboard.Options {
	return dashboard.Options{
		Cooldown: c.UI.Cooldown,
		Grace:    c.UI.Grace,
	}
}

// WebOptions returns the dashboard server options
func (c *Config) WebOptions() web.Options {
	return web.Options{
		Search:        c.SearchOptions(),
		Notify:        c.NotifyOptions(),
		Dashboard:     c.DashboardOptions(),
		SessionIdle:   c.Server.SessionIdle,
		SweepInterval: c.Server.SweepInterval,
	}
}

// DBOptions returns the preference store options
func (c *Config) DBOptions() db.Options {
	return db.Options{
		Driver: c.Database.Driver,
		DSN:    c.Database.DSN,
	}
}

// LoggerOptions returns the logger options
func (c *Config) LoggerOptions() logger.Options {
	return logger.Options{
		Level:  c.Log.Level,
		Format: c.Log.Format,
	}
}

// getEnv retrieves the value of an environment variable with a fallback value if not set
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func defaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".qldash", constants.DefaultConfigFile)
}
