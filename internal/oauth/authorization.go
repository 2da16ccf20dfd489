package oauth

import (
	"fmt"
	"net/url"
	"strings"

	pkgoauth "dcrclient/pkg/oauth"

	"golang.org/x/oauth2"
)

// AuthorizationRequest describes one authorization redirect. The caller
// keeps it until the redirect result arrives and hands both back to
// CompleteAuthorization. It is discarded after the code exchange.
type AuthorizationRequest struct {
	// URL is the full authorization URL to open in the browser.
	URL string

	State        string
	CodeVerifier string
	RedirectURI  string
	ClientID     string
	Scope        string
	ForceLogin   bool
}

// AuthorizationExchange is what the token endpoint needs to redeem a code.
type AuthorizationExchange struct {
	Code         string
	State        string
	CodeVerifier string
	RedirectURI  string
}

// RedirectResult is the outcome of a browser redirect delivered by the UI.
type RedirectResult struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string

	// Cancelled is set when the user abandoned the browser step or it
	// timed out.
	Cancelled bool
}

// EndSessionRequest describes an RP-initiated logout redirect.
type EndSessionRequest struct {
	URL                   string
	State                 string
	PostLogoutRedirectURI string
}

// NewAuthorizationRequest builds an authorization code request with a fresh
// state and an S256 PKCE challenge. forceLogin adds prompt=login so an
// existing provider session is not silently reused.
func NewAuthorizationRequest(md *pkgoauth.Metadata, clientID, redirectURI, scope string, forceLogin bool) (*AuthorizationRequest, error) {
	if md == nil || md.AuthorizationEndpoint == "" {
		return nil, missingEndpointError("authorization_endpoint")
	}

	state, err := pkgoauth.GenerateState()
	if err != nil {
		return nil, &ServerError{
			Kind:  ErrAuthorization,
			Title: TitleAuthorization,
			Err:   fmt.Errorf("failed to generate state: %w", err),
		}
	}
	pkce := pkgoauth.GeneratePKCE()

	cfg := oauth2Config(md, clientID, "", redirectURI)
	cfg.Scopes = strings.Fields(scope)

	opts := []oauth2.AuthCodeOption{oauth2.S256ChallengeOption(pkce.CodeVerifier)}
	if forceLogin {
		opts = append(opts, oauth2.SetAuthURLParam("prompt", pkgoauth.PromptLogin))
	}

	return &AuthorizationRequest{
		URL:          cfg.AuthCodeURL(state, opts...),
		State:        state,
		CodeVerifier: pkce.CodeVerifier,
		RedirectURI:  redirectURI,
		ClientID:     clientID,
		Scope:        scope,
		ForceLogin:   forceLogin,
	}, nil
}

// CompleteAuthorization validates a redirect result against the request
// that produced it. Cancellation, a provider error, a state mismatch or a
// missing code all fail with ErrAuthorization.
func CompleteAuthorization(req *AuthorizationRequest, result RedirectResult) (*AuthorizationExchange, error) {
	if req == nil {
		return nil, &ServerError{
			Kind:        ErrAuthorization,
			Title:       TitleAuthorization,
			Description: "No authorization request is in progress",
		}
	}

	switch {
	case result.Cancelled:
		return nil, &ServerError{
			Kind:        ErrAuthorization,
			Title:       TitleAuthorization,
			Type:        ErrorTypeBrowser,
			Description: "The login was cancelled",
		}
	case result.Error != "":
		return nil, &ServerError{
			Kind:        ErrAuthorization,
			Title:       TitleAuthorization,
			Type:        ErrorTypeOAuth,
			ErrorCode:   result.Error,
			Description: result.ErrorDescription,
		}
	case result.State != req.State:
		return nil, &ServerError{
			Kind:        ErrAuthorization,
			Title:       TitleAuthorization,
			Description: "The response state does not match the request",
		}
	case result.Code == "":
		return nil, &ServerError{
			Kind:        ErrAuthorization,
			Title:       TitleAuthorization,
			Description: "No authorization code was received",
		}
	}

	return &AuthorizationExchange{
		Code:         result.Code,
		State:        result.State,
		CodeVerifier: req.CodeVerifier,
		RedirectURI:  req.RedirectURI,
	}, nil
}

// EndSession builds the RP-initiated logout redirect. It makes no network
// call. idTokenHint is omitted when empty.
func (c *Client) EndSession(md *pkgoauth.Metadata, idTokenHint, postLogoutRedirectURI string) (*EndSessionRequest, error) {
	return NewEndSessionRequest(md, idTokenHint, postLogoutRedirectURI)
}

// NewEndSessionRequest is EndSession without a Client.
func NewEndSessionRequest(md *pkgoauth.Metadata, idTokenHint, postLogoutRedirectURI string) (*EndSessionRequest, error) {
	if md == nil || md.EndSessionEndpoint == "" {
		return nil, missingEndpointError("end_session_endpoint")
	}

	endpoint, err := url.Parse(md.EndSessionEndpoint)
	if err != nil {
		return nil, &ServerError{
			Kind:  ErrConfiguration,
			Title: TitleConfiguration,
			Err:   fmt.Errorf("invalid end_session_endpoint: %w", err),
		}
	}

	state, err := pkgoauth.GenerateState()
	if err != nil {
		return nil, &ServerError{
			Kind:  ErrEndSession,
			Title: TitleEndSession,
			Err:   fmt.Errorf("failed to generate state: %w", err),
		}
	}

	query := endpoint.Query()
	if idTokenHint != "" {
		query.Set("id_token_hint", idTokenHint)
	}
	if postLogoutRedirectURI != "" {
		query.Set("post_logout_redirect_uri", postLogoutRedirectURI)
	}
	query.Set("state", state)
	endpoint.RawQuery = query.Encode()

	return &EndSessionRequest{
		URL:                   endpoint.String(),
		State:                 state,
		PostLogoutRedirectURI: postLogoutRedirectURI,
	}, nil
}

// CompleteEndSession validates the end-session redirect result. Closing the
// logout page counts as an error. Providers are not required to echo state,
// so a missing state is accepted and only a different one is rejected.
func CompleteEndSession(req *EndSessionRequest, result RedirectResult) error {
	switch {
	case result.Cancelled:
		return &ServerError{
			Kind:        ErrEndSession,
			Title:       TitleEndSession,
			Type:        ErrorTypeBrowser,
			Description: "The logout page was closed before it completed",
		}
	case result.Error != "":
		return &ServerError{
			Kind:        ErrEndSession,
			Title:       TitleEndSession,
			Type:        ErrorTypeOAuth,
			ErrorCode:   result.Error,
			Description: result.ErrorDescription,
		}
	case req != nil && result.State != "" && result.State != req.State:
		return &ServerError{
			Kind:        ErrEndSession,
			Title:       TitleEndSession,
			Description: "The response state does not match the request",
		}
	}
	return nil
}
