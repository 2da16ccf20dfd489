// Package app bootstraps dcrclient.
//
// Bootstrap happens in two phases:
//
//  1. LoadSettings reads config.yaml from the config directory, layers
//     DCRCLIENT_* environment variables and bound flags on top, configures
//     logging and validates the result.
//  2. InitializeServices opens the configured storage backend, loads the
//     persisted client registration and builds the provider client, the
//     ID token reader and the metrics registry.
//
// Application ties the two together for the shell command. Commands that
// only inspect or reset persisted state use LoadSettings and
// InitializeServices or ResetRegistration directly.
//
// # Usage
//
//	cfg := app.NewConfig(configPath, overrides)
//	application, err := app.NewApplication(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer application.Close()
//	return application.Run(ctx)
package app
