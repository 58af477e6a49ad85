package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/qualitylink/qldash/internal/config"
	"github.com/qualitylink/qldash/internal/constants"
	"github.com/qualitylink/qldash/internal/logger"
	"github.com/qualitylink/qldash/pkg/api/v1/client"
)

// flag names
const (
	flagServerAddress = "server-address"
	flagConfig        = "config"
	flagTimeout       = "timeout"
	flagLogLevel      = "log-level"
	flagProvider      = "provider"
	flagSource        = "source"
	flagVersion       = "version"
	flagDate          = "date"
	flagPage          = "page"
	flagPageSize      = "page-size"
	flagPath          = "path"
	flagName          = "name"
	flagOutput        = "output"
	flagListen        = "listen"
	flagAllSources    = "all-sources"
)

var (
	// apiClient is the shared API client instance
	apiClient client.Client
	// cfg is the effective configuration, resolved in PersistentPreRunE
	cfg = config.Default()
	// newClient builds the API client; tests replace it
	newClient = client.NewClient

	configPath    string
	serverAddress string
	timeout       time.Duration
	logLevel      string
)

// initClient initializes the API client
func initClient() error {
	var err error
	apiClient, err = newClient(cfg.ClientOptions())
	return err
}

// NewRootCmd builds the qldash command tree
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "qldash",
		Short: "qldash - harvest dashboard for the QualityLink aggregator",
		Long: `qldash looks up higher-education providers on the QualityLink aggregator,
shows how their manifest was discovered and what data was harvested from
their sources, and triggers new discovery and harvest runs.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	root.PersistentFlags().StringVarP(&serverAddress, flagServerAddress, "s", "", fmt.Sprintf("Address of the aggregator API (env: %s)", constants.EnvAPIURL))
	root.PersistentFlags().StringVar(&configPath, flagConfig, "", fmt.Sprintf("Path to a TOML config file (env: %s)", constants.EnvConfigFile))
	root.PersistentFlags().DurationVar(&timeout, flagTimeout, 0, fmt.Sprintf("Request timeout (env: %s)", constants.EnvTimeout))
	root.PersistentFlags().StringVar(&logLevel, flagLogLevel, "", fmt.Sprintf("Log level (env: %s)", constants.EnvLogLevel))

	root.AddCommand(GetProvidersCmd())
	root.AddCommand(GetSourcesCmd())
	root.AddCommand(GetManifestCmd())
	root.AddCommand(GetFilesCmd())
	root.AddCommand(GetThemeCmd())
	root.AddCommand(GetPickCmd())
	root.AddCommand(GetServeCmd())
	return root
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = NewRootCmd()

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}

// setup resolves the configuration with the precedence flag > env > file > default
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed(flagServerAddress) {
		loaded.API.URL = serverAddress
	}
	if flags.Changed(flagTimeout) {
		loaded.API.Timeout = timeout
	}
	if flags.Changed(flagLogLevel) {
		loaded.Log.Level = logLevel
	}
	if loaded.API.URL == "" {
		return fmt.Errorf("server address cannot be empty")
	}

	logOpts := loaded.LoggerOptions()
	logOpts.Output = cmd.ErrOrStderr()
	logger.Configure(logOpts)
	logger.Debugf("Aggregator address: %s", loaded.API.URL)

	cfg = loaded
	return initClient()
}

// printJSON pretty prints v on the command's output
func printJSON(cmd *cobra.Command, v interface{}) error {
	prettyJSON, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error formatting response: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(prettyJSON))
	return nil
}

// requiredString reads a flag that must be set
func requiredString(cmd *cobra.Command, name string) (string, error) {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("error getting %s flag: %w", name, err)
	}
	if value == "" {
		return "", fmt.Errorf("required flag(s) \"%s\" not set", name)
	}
	return value, nil
}
