// Package flow drives the client through registration, login, token
// refresh and logout.
//
// A Session owns the state machine:
//
//	Unregistered -> Registering -> Registered -> LoggingIn -> Authenticated
//	                                   ^                          |
//	                                   +------- LoggingOut <------+
//
// Three flows share it. RegistrationFlow bootstraps a client with Dynamic
// Client Registration, UnauthenticatedFlow logs the user in with that
// client and AuthenticatedFlow refreshes tokens and logs out.
//
// Browser redirects are the UI's job. A flow emits EventLoginRedirect or
// EventLogoutRedirect with the request to open, and the UI returns the
// outcome to the matching End method together with the request it was
// given. All state changes happen on the session's Dispatcher goroutine.
package flow
