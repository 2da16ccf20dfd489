// Package authstate holds the authentication state shared by the login,
// registration and session flows: provider metadata, the client
// registration, the current token set, the cached ID token and the
// first-run flag.
//
// Merge rules:
//   - SaveTokens and ClearTokens never touch metadata or registration.
//   - SaveRegistration never touches tokens.
//   - SaveTokens with an empty ID token keeps the cached one.
package authstate
