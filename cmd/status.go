package cmd

import (
	"fmt"

	"dcrclient/internal/app"
	"dcrclient/internal/shell"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the persisted client registration",
		Long: `Show the client registration kept in the configured storage
backend. Tokens are never persisted, so only the registration is shown.`,
		Args: cobra.NoArgs,
		RunE: runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	settings, err := app.LoadSettings(newAppConfig())
	if err != nil {
		return err
	}

	services, err := app.InitializeServices(cmd.Context(), settings)
	if err != nil {
		return err
	}
	defer services.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Issuer:   %s\n", settings.Issuer)
	fmt.Fprintf(out, "Storage:  %s\n", settings.Storage.Backend)
	if services.State.Registration() == nil {
		fmt.Fprintln(out, text.FgYellow.Sprint("Not registered. Run 'dcrclient shell' and then 'register'."))
		return nil
	}
	shell.RenderRegistration(out, services.State.Registration())
	return nil
}
