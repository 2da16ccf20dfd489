// Package logging provides the subsystem-tagged logger used across dcrclient.
//
// It is a thin layer over log/slog: InitForCLI installs a text handler as
// the slog default, and Debug/Info/Warn/Error emit records carrying a
// "subsystem" attribute so output can be filtered per component.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Flow", "Registration started for issuer %s", issuer)
//	logging.Error("Storage", err, "Failed to persist registration")
//
// # Subsystems
//
//   - Config: configuration loading and validation
//   - Storage: durable key-value backends
//   - AuthState: authentication state store
//   - OAuth: provider communication
//   - Flow: flow orchestrator and state machine
//   - IDToken: ID token claims reading
//   - Shell: interactive host
//
// Secret values (tokens, client secrets) must never be passed to these
// functions.
package logging
