package flow

//go:generate mockgen -source=transport.go -destination=mocks/mock_transport.go -package=mocks

import (
	"context"

	"dcrclient/internal/oauth"
	pkgoauth "dcrclient/pkg/oauth"

	"github.com/golang-jwt/jwt/v5"
)

// Transport is the provider communication used by the flows.
// *oauth.Client implements it.
type Transport interface {
	FetchProviderMetadata(ctx context.Context, issuer string) (*pkgoauth.Metadata, error)
	ExchangeCodeForTokens(ctx context.Context, md *pkgoauth.Metadata, clientID, clientSecret string, exchange *oauth.AuthorizationExchange) (*pkgoauth.Token, error)
	RefreshTokens(ctx context.Context, md *pkgoauth.Metadata, clientID, clientSecret, refreshToken string) (*pkgoauth.Token, error)
	RegisterClient(ctx context.Context, md *pkgoauth.Metadata, params oauth.RegistrationParams, dcrAccessToken string) (*pkgoauth.ClientRegistration, error)
	EndSession(md *pkgoauth.Metadata, idTokenHint, postLogoutRedirectURI string) (*oauth.EndSessionRequest, error)
}

// ClaimsReader reads the subject from an ID token.
// *idtoken.Reader implements it.
type ClaimsReader interface {
	ExtractSubject(idToken, expectedIssuer, expectedAudience string) (string, jwt.MapClaims, error)
}
