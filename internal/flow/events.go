package flow

import (
	"time"

	"dcrclient/internal/oauth"

	"github.com/google/uuid"
)

// EventKind identifies what happened.
type EventKind string

const (
	// EventLoginRedirect asks the UI to run an authorization redirect and
	// hand the result to the EndLogin of the flow named in Event.Flow.
	EventLoginRedirect EventKind = "login_redirect"

	// EventLogoutRedirect asks the UI to run an end-session redirect and
	// hand the result to AuthenticatedFlow.EndLogout.
	EventLogoutRedirect EventKind = "logout_redirect"

	EventRegistered      EventKind = "registered"
	EventLoggedIn        EventKind = "logged_in"
	EventTokensRefreshed EventKind = "tokens_refreshed"
	EventLoggedOut       EventKind = "logged_out"
	EventError           EventKind = "error"
)

// Event is a notification from the session to the UI.
type Event struct {
	ID   string
	Kind EventKind
	Flow Name
	// State is the session state after the event.
	State State
	Time  time.Time

	Authorization *oauth.AuthorizationRequest // EventLoginRedirect
	EndSession    *oauth.EndSessionRequest    // EventLogoutRedirect
	ClientID      string                      // EventRegistered
	Error         *ErrorDetails               // EventError
}

func newEvent(kind EventKind, flow Name, state State) Event {
	return Event{
		ID:    uuid.NewString(),
		Kind:  kind,
		Flow:  flow,
		State: state,
		Time:  time.Now(),
	}
}
