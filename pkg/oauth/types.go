package oauth

import (
	"time"

	"golang.org/x/oauth2"
)

// DefaultExpiryMargin is the default margin when checking token expiry.
// This accounts for clock skew and network latency.
const DefaultExpiryMargin = 30 * time.Second

// Grant, response and prompt values used by the flows.
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeRefreshToken      = "refresh_token"
	ResponseTypeCode           = "code"
	PKCEMethodS256             = "S256"

	// PromptLogin forces the provider to show its login page even when a
	// browser session already exists.
	PromptLogin = "login"

	// ErrorCodeInvalidGrant is the token endpoint error returned when a
	// refresh token has expired or been revoked.
	ErrorCodeInvalidGrant = "invalid_grant"
)

// Metadata represents the OpenID Provider metadata discovered from
// /.well-known/openid-configuration. Once fetched it is treated as immutable.
type Metadata struct {
	// Issuer is the provider's issuer identifier.
	Issuer string `json:"issuer"`

	// AuthorizationEndpoint is the URL of the authorization endpoint.
	AuthorizationEndpoint string `json:"authorization_endpoint"`

	// TokenEndpoint is the URL of the token endpoint.
	TokenEndpoint string `json:"token_endpoint"`

	// RegistrationEndpoint is the URL for dynamic client registration.
	RegistrationEndpoint string `json:"registration_endpoint,omitempty"`

	// EndSessionEndpoint is the URL for RP-initiated logout.
	EndSessionEndpoint string `json:"end_session_endpoint,omitempty"`

	// UserinfoEndpoint is the URL of the userinfo endpoint.
	UserinfoEndpoint string `json:"userinfo_endpoint,omitempty"`

	// JwksURI is the URL of the JSON Web Key Set.
	JwksURI string `json:"jwks_uri,omitempty"`

	// ScopesSupported lists the OAuth 2.0 scope values supported.
	ScopesSupported []string `json:"scopes_supported,omitempty"`

	// GrantTypesSupported lists the grant types supported.
	GrantTypesSupported []string `json:"grant_types_supported,omitempty"`

	// CodeChallengeMethodsSupported lists the PKCE code challenge methods.
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported,omitempty"`
}

// SupportsPKCE returns true if the server supports S256 PKCE.
func (m *Metadata) SupportsPKCE() bool {
	for _, method := range m.CodeChallengeMethodsSupported {
		if method == PKCEMethodS256 {
			return true
		}
	}
	// If not specified, assume S256 is supported
	return len(m.CodeChallengeMethodsSupported) == 0
}

// SupportsRegistration returns true when the provider advertises a
// dynamic client registration endpoint.
func (m *Metadata) SupportsRegistration() bool {
	return m != nil && m.RegistrationEndpoint != ""
}

// Token is the token set returned by the token endpoint.
type Token struct {
	// AccessToken is the bearer token used for authorization.
	AccessToken string `json:"access_token"`

	// TokenType is typically "Bearer".
	TokenType string `json:"token_type,omitempty"`

	// RefreshToken is used to obtain new access tokens (optional).
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresAt is the calculated expiration timestamp.
	ExpiresAt time.Time `json:"expires_at,omitempty"`

	// Scope is the granted scope(s), space-separated.
	Scope string `json:"scope,omitempty"`

	// IDToken is the OIDC ID token. Refresh responses usually omit it.
	IDToken string `json:"id_token,omitempty"`
}

// IsExpired checks if the token has expired.
// Returns true if the token is expired or will expire within the default margin.
func (t *Token) IsExpired() bool {
	return t.IsExpiredWithMargin(DefaultExpiryMargin)
}

// IsExpiredWithMargin checks if the token has expired or will expire within the margin.
func (t *Token) IsExpiredWithMargin(margin time.Duration) bool {
	if t.ExpiresAt.IsZero() {
		return false // Tokens without expiration don't expire
	}
	return time.Now().Add(margin).After(t.ExpiresAt)
}

// TokenFromOAuth2 converts an oauth2.Token into a Token, lifting the
// id_token and scope values out of the raw token response.
func TokenFromOAuth2(tok *oauth2.Token) *Token {
	if tok == nil {
		return nil
	}

	token := &Token{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}

	if idToken, ok := tok.Extra("id_token").(string); ok {
		token.IDToken = idToken
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		token.Scope = scope
	}

	return token
}

// RegistrationRequest is the client metadata sent to the registration
// endpoint (RFC 7591 section 2). RequiresConsent is a provider extension
// that lets the registered client skip the consent screen.
type RegistrationRequest struct {
	RedirectURIs           []string `json:"redirect_uris"`
	PostLogoutRedirectURIs []string `json:"post_logout_redirect_uris,omitempty"`
	GrantTypes             []string `json:"grant_types,omitempty"`
	ResponseTypes          []string `json:"response_types,omitempty"`
	Scope                  string   `json:"scope,omitempty"`
	RequiresConsent        bool     `json:"requires_consent"`
	ClientName             string   `json:"client_name,omitempty"`
	SoftwareID             string   `json:"software_id,omitempty"`
	SoftwareVersion        string   `json:"software_version,omitempty"`
}

// ClientRegistration is the result of dynamic client registration
// (RFC 7591 section 3.2.1), together with the provider context it was
// obtained from. It is the only record dcrclient persists durably.
type ClientRegistration struct {
	ClientID                string   `json:"client_id"`
	ClientSecret            string   `json:"client_secret,omitempty"`
	ClientIDIssuedAt        int64    `json:"client_id_issued_at,omitempty"`
	ClientSecretExpiresAt   int64    `json:"client_secret_expires_at,omitempty"`
	RedirectURIs            []string `json:"redirect_uris,omitempty"`
	PostLogoutRedirectURIs  []string `json:"post_logout_redirect_uris,omitempty"`
	GrantTypes              []string `json:"grant_types,omitempty"`
	Scope                   string   `json:"scope,omitempty"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method,omitempty"`

	// Issuer and RegistrationEndpoint are not part of the provider's
	// response; they record which provider issued the registration.
	Issuer               string `json:"issuer,omitempty"`
	RegistrationEndpoint string `json:"registration_endpoint,omitempty"`
}

// HasSecret reports whether the registration carries a client secret.
func (r *ClientRegistration) HasSecret() bool {
	return r != nil && r.ClientSecret != ""
}

// SecretExpiresAt returns the client secret expiry, or the zero time when
// the secret does not expire.
func (r *ClientRegistration) SecretExpiresAt() time.Time {
	if r == nil || r.ClientSecretExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(r.ClientSecretExpiresAt, 0)
}

// PKCEChallenge represents a PKCE (Proof Key for Code Exchange) challenge.
type PKCEChallenge struct {
	// CodeVerifier is the cryptographically random string, base64url-encoded.
	// This is kept secret and never transmitted to the browser.
	CodeVerifier string

	// CodeChallenge is the SHA256 hash of the verifier (base64url-encoded).
	// This is sent in the authorization request.
	CodeChallenge string

	// CodeChallengeMethod is always "S256".
	CodeChallengeMethod string
}
