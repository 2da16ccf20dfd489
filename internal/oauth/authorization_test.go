package oauth

import (
	"net/url"
	"testing"

	pkgoauth "dcrclient/pkg/oauth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

var testMetadata = &pkgoauth.Metadata{
	Issuer:                "https://idsvr.example.com",
	AuthorizationEndpoint: "https://idsvr.example.com/authorize",
	TokenEndpoint:         "https://idsvr.example.com/token",
	RegistrationEndpoint:  "https://idsvr.example.com/register",
	EndSessionEndpoint:    "https://idsvr.example.com/logout?tenant=a",
}

func TestNewAuthorizationRequest(t *testing.T) {
	req, err := NewAuthorizationRequest(testMetadata, "client-1", "http://127.0.0.1:3000/callback", "openid profile", false)
	require.NoError(t, err)

	u, err := url.Parse(req.URL)
	require.NoError(t, err)
	assert.Equal(t, "idsvr.example.com", u.Host)
	assert.Equal(t, "/authorize", u.Path)

	q := u.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "client-1", q.Get("client_id"))
	assert.Equal(t, "http://127.0.0.1:3000/callback", q.Get("redirect_uri"))
	assert.Equal(t, "openid profile", q.Get("scope"))
	assert.Equal(t, req.State, q.Get("state"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, oauth2.S256ChallengeFromVerifier(req.CodeVerifier), q.Get("code_challenge"))
	assert.False(t, q.Has("prompt"))
	assert.False(t, q.Has("code_verifier"))

	assert.NotEmpty(t, req.State)
	assert.Equal(t, "client-1", req.ClientID)
	assert.False(t, req.ForceLogin)
}

func TestNewAuthorizationRequest_ForceLogin(t *testing.T) {
	req, err := NewAuthorizationRequest(testMetadata, "client-1", "http://127.0.0.1:3000/callback", "dcr", true)
	require.NoError(t, err)

	u, err := url.Parse(req.URL)
	require.NoError(t, err)
	assert.Equal(t, "login", u.Query().Get("prompt"))
	assert.True(t, req.ForceLogin)
}

func TestNewAuthorizationRequest_UniqueState(t *testing.T) {
	a, err := NewAuthorizationRequest(testMetadata, "c", "http://127.0.0.1:3000/callback", "openid", false)
	require.NoError(t, err)
	b, err := NewAuthorizationRequest(testMetadata, "c", "http://127.0.0.1:3000/callback", "openid", false)
	require.NoError(t, err)

	assert.NotEqual(t, a.State, b.State)
	assert.NotEqual(t, a.CodeVerifier, b.CodeVerifier)
}

func TestNewAuthorizationRequest_NoEndpoint(t *testing.T) {
	_, err := NewAuthorizationRequest(&pkgoauth.Metadata{}, "c", "http://127.0.0.1:3000/callback", "openid", false)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestCompleteAuthorization(t *testing.T) {
	req := &AuthorizationRequest{State: "st", CodeVerifier: "ver", RedirectURI: "http://127.0.0.1:3000/callback"}

	exchange, err := CompleteAuthorization(req, RedirectResult{Code: "code", State: "st"})
	require.NoError(t, err)
	assert.Equal(t, &AuthorizationExchange{
		Code:         "code",
		State:        "st",
		CodeVerifier: "ver",
		RedirectURI:  "http://127.0.0.1:3000/callback",
	}, exchange)
}

func TestCompleteAuthorization_Failures(t *testing.T) {
	req := &AuthorizationRequest{State: "st", CodeVerifier: "ver"}

	tests := []struct {
		name    string
		req     *AuthorizationRequest
		result  RedirectResult
		details string
	}{
		{"cancelled", req, RedirectResult{Cancelled: true}, "(browser / 0) : The login was cancelled"},
		{"provider error", req, RedirectResult{Error: "access_denied", State: "st"}, "(oauth / 0) : access_denied : Problem encountered"},
		{"state mismatch", req, RedirectResult{Code: "code", State: "other"}, "The response state does not match the request"},
		{"missing code", req, RedirectResult{State: "st"}, "No authorization code was received"},
		{"no request", nil, RedirectResult{Code: "code", State: "st"}, "No authorization request is in progress"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompleteAuthorization(tt.req, tt.result)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAuthorization)

			se, ok := err.(*ServerError)
			require.True(t, ok)
			assert.Equal(t, TitleAuthorization, se.Title)
			assert.Equal(t, tt.details, se.Details())
		})
	}
}

func TestEndSession(t *testing.T) {
	req, err := NewClient().EndSession(testMetadata, "id.token.hint", "http://127.0.0.1:3000/logout")
	require.NoError(t, err)

	u, err := url.Parse(req.URL)
	require.NoError(t, err)
	assert.Equal(t, "/logout", u.Path)

	q := u.Query()
	assert.Equal(t, "a", q.Get("tenant"))
	assert.Equal(t, "id.token.hint", q.Get("id_token_hint"))
	assert.Equal(t, "http://127.0.0.1:3000/logout", q.Get("post_logout_redirect_uri"))
	assert.Equal(t, req.State, q.Get("state"))
	assert.Equal(t, "http://127.0.0.1:3000/logout", req.PostLogoutRedirectURI)
}

func TestEndSession_WithoutHint(t *testing.T) {
	req, err := NewEndSessionRequest(testMetadata, "", "http://127.0.0.1:3000/logout")
	require.NoError(t, err)

	u, err := url.Parse(req.URL)
	require.NoError(t, err)
	assert.False(t, u.Query().Has("id_token_hint"))
}

func TestEndSession_NoEndpoint(t *testing.T) {
	_, err := NewEndSessionRequest(&pkgoauth.Metadata{}, "hint", "http://127.0.0.1:3000/logout")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestCompleteEndSession(t *testing.T) {
	req := &EndSessionRequest{State: "st"}

	assert.NoError(t, CompleteEndSession(req, RedirectResult{State: "st"}))
	assert.NoError(t, CompleteEndSession(req, RedirectResult{}))

	assert.ErrorIs(t, CompleteEndSession(req, RedirectResult{Cancelled: true}), ErrEndSession)
	assert.ErrorIs(t, CompleteEndSession(req, RedirectResult{Error: "server_error"}), ErrEndSession)
	assert.ErrorIs(t, CompleteEndSession(req, RedirectResult{State: "other"}), ErrEndSession)
}
