// Package constants provides centralized definitions of constants used throughout the application
package constants

// Environment variable names
const (
	// EnvAPIURL is the base URL of the aggregator API
	EnvAPIURL = "QLDASH_API_URL"

	// EnvTimeout is the per-request timeout, as a Go duration ("30s")
	EnvTimeout = "QLDASH_TIMEOUT"

	// EnvConfigFile points at a TOML config file
	EnvConfigFile = "QLDASH_CONFIG"

	// EnvListenAddr is the address the web dashboard listens on
	EnvListenAddr = "QLDASH_LISTEN_ADDR"

	// EnvDBDriver selects the preference store driver ("sqlite" or "postgres")
	EnvDBDriver = "QLDASH_DB_DRIVER"

	// EnvDBDSN is the preference store connection string
	EnvDBDSN = "QLDASH_DB_DSN"

	// EnvLogLevel is the logrus level name
	EnvLogLevel = "LOG_LEVEL"

	// EnvLogFormat is "json" or "text"
	EnvLogFormat = "QLDASH_LOG_FORMAT"
)

// DefaultConfigFile is the config file looked up under $HOME/.qldash when none is given
const DefaultConfigFile = "config.toml"

// DefaultListenAddr is where the web dashboard listens by default
const DefaultListenAddr = ":8080"
