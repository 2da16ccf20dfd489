package cmd

import (
	"dcrclient/internal/app"

	"github.com/spf13/cobra"
)

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell",
		Long: `Start an interactive shell for registering, logging in, refreshing
tokens and logging out.

Browser steps open the system browser and wait for the provider to
redirect back to the loopback redirect URI.

Examples:
  dcrclient shell
  dcrclient shell --issuer https://idsvr.example.com --log-level debug
  DCRCLIENT_STORAGE_BACKEND=memory dcrclient shell`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.NewApplication(cmd.Context(), newAppConfig())
			if err != nil {
				return err
			}
			defer application.Close()
			return application.Run(cmd.Context())
		},
	}
}
