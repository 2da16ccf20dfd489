package cmd

import (
	"errors"
	"fmt"
	"os"

	"dcrclient/internal/app"
	"dcrclient/internal/authstate"
	"dcrclient/internal/config"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error.
	ExitCodeError = 1
	// ExitCodeConfigInvalid indicates config.yaml could not be read or failed validation.
	ExitCodeConfigInvalid = 2
	// ExitCodeStateCorrupt indicates the persisted registration could not be decoded.
	ExitCodeStateCorrupt = 3
)

// Persistent flag values.
var (
	configPath string
)

// overrides layers DCRCLIENT_* environment variables and bound flags over
// config.yaml.
var overrides = config.NewViper()

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "dcrclient",
	Short: "OAuth client that registers itself with Dynamic Client Registration",
	Long: `dcrclient is an OpenID Connect client for identity providers that
support Dynamic Client Registration.

On first use it logs in with a pre-provisioned registration client, uses
the resulting access token to register its own client, and from then on
logs the user in with that client. Tokens live in memory only; the client
registration is kept in the configured storage backend.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// newAppConfig collects the persistent flags and the build version for
// the app package.
func newAppConfig() *app.Config {
	cfg := app.NewConfig(configPath, overrides)
	cfg.Version = GetVersion()
	return cfg
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "dcrclient version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		if errors.Is(err, authstate.ErrCorruptRegistration) {
			fmt.Fprintln(os.Stderr, "Run 'dcrclient reset --force' to start over.")
		}
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	var configErr *config.ConfigurationError
	if errors.As(err, &configErr) {
		return ExitCodeConfigInvalid
	}

	var validationErrs config.ValidationErrors
	if errors.As(err, &validationErrs) {
		return ExitCodeConfigInvalid
	}

	if errors.Is(err, authstate.ErrCorruptRegistration) {
		return ExitCodeStateCorrupt
	}

	return ExitCodeError
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config-path", config.DefaultConfigDir(), "Configuration directory")
	flags.String("log-level", "", "Log level: debug, info, warn, error (env: DCRCLIENT_LOGLEVEL)")
	flags.String("issuer", "", "Issuer URL of the identity provider (env: DCRCLIENT_ISSUER)")
	flags.String("storage-backend", "", "Storage backend: file, redis, memory (env: DCRCLIENT_STORAGE_BACKEND)")
	flags.String("metrics-addr", "", "Serve /metrics on this address while the shell runs (env: DCRCLIENT_METRICSADDR)")

	_ = overrides.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = overrides.BindPFlag(config.KeyIssuer, flags.Lookup("issuer"))
	_ = overrides.BindPFlag(config.KeyStorageBackend, flags.Lookup("storage-backend"))
	_ = overrides.BindPFlag(config.KeyMetricsAddr, flags.Lookup("metrics-addr"))

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newShellCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newResetCmd())
}
