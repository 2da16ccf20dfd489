package flow

// State is the authentication state of a Session.
type State int

const (
	// StateUnregistered means no client registration exists yet.
	StateUnregistered State = iota

	// StateRegistering means the DCR bootstrap login is in progress.
	StateRegistering

	// StateRegistered means a client is registered but the user is not
	// logged in. This is also the logged-out state.
	StateRegistered

	// StateLoggingIn means the main login redirect is in progress.
	StateLoggingIn

	// StateAuthenticated means tokens are held.
	StateAuthenticated

	// StateRefreshingToken means a refresh request is in flight.
	StateRefreshingToken

	// StateLoggingOut means the end-session redirect is in progress.
	StateLoggingOut
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnregistered:
		return "unregistered"
	case StateRegistering:
		return "registering"
	case StateRegistered:
		return "registered"
	case StateLoggingIn:
		return "logging_in"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshingToken:
		return "refreshing_token"
	case StateLoggingOut:
		return "logging_out"
	default:
		return "unknown"
	}
}

// Busy reports whether a redirect or network operation is in progress.
func (s State) Busy() bool {
	switch s {
	case StateRegistering, StateLoggingIn, StateRefreshingToken, StateLoggingOut:
		return true
	default:
		return false
	}
}
