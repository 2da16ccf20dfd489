// Package config loads the dcrclient configuration.
//
// Configuration is read from config.yaml in a single directory. The default
// directory is $XDG_CONFIG_HOME/dcrclient; commands accept --config-path to
// use another one. A missing file is not an error and yields the defaults.
//
// # Example
//
//	issuer: https://idsvr.example.com/oauth/v2/oauth-anonymous
//	registrationClientID: mobile-dcr-client
//	redirectURI: http://127.0.0.1:3000/callback
//	postLogoutRedirectURI: http://127.0.0.1:3000/logout
//	scope: openid profile
//	storage:
//	  backend: file
//
// # Overrides
//
// Every key can be overridden by a DCRCLIENT_* environment variable (dots
// become underscores, so storage.backend is DCRCLIENT_STORAGE_BACKEND) or a
// CLI flag bound to the same viper key. See ApplyOverrides.
//
// Validate reports every invalid field at once as ValidationErrors.
package config
