// Package shell is the interactive host for a flow.Session.
//
// The shell reads commands with readline and turns them into flow calls.
// A separate goroutine pumps session events: it prints outcomes and, for
// redirect events, runs the browser step and hands the result back to the
// flow that asked for it. Only one redirect runs at a time.
//
// Commands:
//
//	register   bootstrap a client with Dynamic Client Registration
//	login      log in with the registered client
//	tokens     show the current tokens and ID token subject
//	refresh    refresh the access token
//	logout     end the provider session and drop the tokens
//	status     show the session state and registration
//	help       list commands
//	exit       leave the shell
package shell
