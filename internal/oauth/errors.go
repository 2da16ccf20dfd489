package oauth

import (
	"errors"
	"fmt"
	"strings"

	dcrstrings "dcrclient/pkg/strings"
)

// Error kinds. A *ServerError matches its kind with errors.Is.
var (
	ErrDiscovery     = errors.New("metadata download failed")
	ErrConfiguration = errors.New("provider configuration is unusable")
	ErrAuthorization = errors.New("authorization redirect failed")
	ErrTokenExchange = errors.New("authorization code exchange failed")
	ErrRegistration  = errors.New("dynamic client registration failed")
	ErrTokenRefresh  = errors.New("token refresh failed")
	ErrEndSession    = errors.New("end session redirect failed")
)

// ErrRefreshExpired is returned by RefreshTokens when the provider answers
// invalid_grant. It is a control signal, not a failure: callers should
// clear tokens and treat the user as logged out.
var ErrRefreshExpired = errors.New("refresh token expired")

// Titles shown to the user for each error kind.
const (
	TitleDiscovery     = "Metadata Download Error"
	TitleConfiguration = "Invalid Configuration Error"
	TitleAuthorization = "Authorization Request Error"
	TitleTokenExchange = "Authorization Response Error"
	TitleRegistration  = "Registration Error"
	TitleTokenRefresh  = "Token Refresh Error"
	TitleEndSession    = "End Session Request Error"
)

// GenericErrorDescription is used when the provider gave no description.
const GenericErrorDescription = "Problem encountered"

// Error types recorded in ServerError.Type.
const (
	ErrorTypeNetwork  = "network"
	ErrorTypeHTTP     = "http"
	ErrorTypeOAuth    = "oauth"
	ErrorTypeResponse = "response"
	ErrorTypeBrowser  = "browser"
)

// ServerError is the single error shape for provider communication.
type ServerError struct {
	// Kind is one of the Err* sentinels above.
	Kind error

	// Title is a short heading for display.
	Title string

	// Type and Code classify where the failure happened, e.g. "http" and
	// the response status.
	Type string
	Code int

	// ErrorCode and Description are the provider's error and
	// error_description values, when it sent them.
	ErrorCode   string
	Description string

	Err error
}

// Details renders "(type / code) : error : description", omitting parts
// that are not known. The description falls back to a generic message.
func (e *ServerError) Details() string {
	var parts []string
	if e.Type != "" {
		parts = append(parts, fmt.Sprintf("(%s / %d)", e.Type, e.Code))
	}
	if e.ErrorCode != "" {
		parts = append(parts, e.ErrorCode)
	}
	description := e.Description
	if description == "" && e.Err != nil {
		description = e.Err.Error()
	}
	if description == "" {
		description = GenericErrorDescription
	}
	parts = append(parts, description)
	return strings.Join(parts, " : ")
}

func (e *ServerError) Error() string {
	return e.Title + ": " + e.Details()
}

func (e *ServerError) Unwrap() error {
	return e.Err
}

// Is reports whether target is this error's kind.
func (e *ServerError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// maxBodyDescription caps how much of an unstructured error body is shown.
const maxBodyDescription = 200

func bodyDescription(body []byte) string {
	return dcrstrings.Truncate(string(body), maxBodyDescription)
}
