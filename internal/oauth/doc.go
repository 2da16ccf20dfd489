// Package oauth implements the provider side of dcrclient: OpenID Connect
// discovery, the authorization code grant with PKCE, dynamic client
// registration with a bearer DCR token, refresh and RP-initiated logout.
//
// Network calls live on Client. Building redirects and validating their
// results are pure functions so the flow can run them anywhere.
//
// # Errors
//
// Every failure is a *ServerError whose Kind is one of ErrDiscovery,
// ErrConfiguration, ErrAuthorization, ErrTokenExchange, ErrRegistration,
// ErrTokenRefresh or ErrEndSession, so callers can use errors.Is. A refresh
// rejected with invalid_grant returns ErrRefreshExpired instead, which is a
// signal to log out rather than a failure to display.
//
// # Browser step
//
// BrowserRedirector starts a one-shot CallbackServer on the loopback
// redirect URI, opens the system browser and waits for the redirect.
package oauth
