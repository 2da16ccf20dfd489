package flow

import (
	"errors"
	"sync"

	"dcrclient/internal/authstate"
	"dcrclient/internal/idtoken"
	"dcrclient/internal/oauth"
)

var (
	// ErrInvalidState is returned when an operation is not allowed in the
	// session's current state.
	ErrInvalidState = errors.New("operation not allowed in the current state")

	// ErrSessionClosed is returned after the session has been closed.
	ErrSessionClosed = errors.New("session is closed")
)

// Titles for errors that do not come from the provider.
const (
	TitleInvalidIDToken = "Invalid ID Token"
	TitleApplication    = "Application Error"
)

// ErrorDetails is the displayable form of a flow failure.
type ErrorDetails struct {
	Title       string
	Description string
}

// ErrorReporter is implemented by every flow. The last failure stays
// available until the next operation of the same flow starts.
type ErrorReporter interface {
	LastError() (ErrorDetails, bool)
	ClearError()
}

// errorHolder is the per-flow ErrorReporter implementation.
type errorHolder struct {
	mu      sync.RWMutex
	current *ErrorDetails
}

func (h *errorHolder) LastError() (ErrorDetails, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.current == nil {
		return ErrorDetails{}, false
	}
	return *h.current, true
}

func (h *errorHolder) ClearError() {
	h.mu.Lock()
	h.current = nil
	h.mu.Unlock()
}

func (h *errorHolder) set(details ErrorDetails) {
	h.mu.Lock()
	h.current = &details
	h.mu.Unlock()
}

// detailsFromError converts any flow failure into ErrorDetails.
func detailsFromError(err error) ErrorDetails {
	var se *oauth.ServerError
	if errors.As(err, &se) {
		return ErrorDetails{Title: se.Title, Description: se.Details()}
	}

	var invalid *idtoken.InvalidTokenError
	if errors.As(err, &invalid) {
		return ErrorDetails{Title: TitleInvalidIDToken, Description: invalid.Error()}
	}

	if errors.Is(err, authstate.ErrNotRegistered) {
		return ErrorDetails{Title: TitleApplication, Description: "The client is not registered"}
	}

	return ErrorDetails{Title: TitleApplication, Description: err.Error()}
}
