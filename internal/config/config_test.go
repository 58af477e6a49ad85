package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qualitylink/qldash/internal/constants"
	"github.com/qualitylink/qldash/pkg/api/v1/routes"
)

// isolate keeps Load away from the developer's real config and environment
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		constants.EnvAPIURL, constants.EnvTimeout, constants.EnvConfigFile,
		constants.EnvListenAddr, constants.EnvDBDriver, constants.EnvDBDSN,
		constants.EnvLogLevel, constants.EnvLogFormat,
	} {
		t.Setenv(key, "")
	}
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

const sampleConfig = `
[api]
url = "http://aggregator.test"
timeout = "5s"

[api.headers]
X-Client = "qldash"

[server]
listen = "127.0.0.1:9000"

[database]
driver = "postgres"
dsn = "host=db"

[ui]
debounce = "100ms"
page_size = 50
cooldown = "1m"
`

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, routes.DefaultBaseURL, cfg.API.URL)
	assert.Equal(t, 20*time.Second, cfg.UI.Cooldown)
	assert.Equal(t, 300*time.Millisecond, cfg.UI.Debounce)
}

func TestLoad_File(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ".qldash", constants.DefaultConfigFile), sampleConfig)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://aggregator.test", cfg.API.URL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, map[string]string{"X-Client": "qldash"}, cfg.API.Headers)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Listen)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 100*time.Millisecond, cfg.UI.Debounce)
	assert.Equal(t, 50, cfg.UI.PageSize)
	assert.Equal(t, time.Minute, cfg.UI.Cooldown)
	// untouched keys keep their defaults
	assert.Equal(t, 2, cfg.UI.MinChars)
	assert.Equal(t, 500*time.Millisecond, cfg.UI.Grace)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "custom.toml")
	writeFile(t, path, sampleConfig)
	t.Setenv(constants.EnvConfigFile, path)
	t.Setenv(constants.EnvAPIURL, "http://env.test")
	t.Setenv(constants.EnvTimeout, "12s")
	t.Setenv(constants.EnvDBDriver, "sqlite")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://env.test", cfg.API.URL)
	assert.Equal(t, 12*time.Second, cfg.API.Timeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Listen)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("explicit file missing", func(t *testing.T) {
		home := isolate(t)
		_, err := Load(filepath.Join(home, "missing.toml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open config file")
	})

	t.Run("malformed file", func(t *testing.T) {
		home := isolate(t)
		path := filepath.Join(home, "bad.toml")
		writeFile(t, path, "[api\nurl=")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode config")
	})

	t.Run("bad timeout", func(t *testing.T) {
		isolate(t)
		t.Setenv(constants.EnvTimeout, "soon")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), constants.EnvTimeout)
	})
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Default().Write(&buf))

	out := buf.String()
	assert.True(t, strings.Contains(out, "[api]"))
	assert.Contains(t, out, routes.DefaultBaseURL)
	assert.Contains(t, out, `driver = "sqlite"`)
}

func TestDerivedOptions(t *testing.T) {
	cfg := Default()
	cfg.API.Headers = map[string]string{"X-Client": "qldash"}

	opts := cfg.ClientOptions()
	assert.Equal(t, cfg.API.URL, opts.BaseURL)
	assert.Equal(t, cfg.API.Headers, opts.Headers)

	assert.Equal(t, 20, cfg.SearchOptions().PageSize)
	assert.Equal(t, cfg.UI.Cooldown, cfg.DashboardOptions().Cooldown)
	assert.Equal(t, cfg.UI.ToastDuration, cfg.NotifyOptions().Duration)
	assert.Equal(t, "sqlite", cfg.DBOptions().Driver)
	assert.Equal(t, "json", cfg.LoggerOptions().Format)

	web := cfg.WebOptions()
	assert.Equal(t, cfg.Server.SessionIdle, web.SessionIdle)
	assert.Equal(t, cfg.UI.Debounce, web.Search.Debounce)
}
