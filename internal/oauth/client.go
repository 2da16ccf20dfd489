package oauth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"dcrclient/internal/metrics"
	pkgoauth "dcrclient/pkg/oauth"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultHTTPTimeout is the default timeout for provider requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultRegistrationTimeout bounds the dynamic client registration call.
	DefaultRegistrationTimeout = 10 * time.Second

	// DefaultMetadataCacheTTL is the default TTL for cached provider metadata.
	DefaultMetadataCacheTTL = 30 * time.Minute
)

// Operation labels used for metrics and logs.
const (
	opDiscovery    = "discovery"
	opCodeExchange = "code_exchange"
	opRefresh      = "refresh"
	opRegistration = "register_client"
)

// metadataCacheEntry holds cached provider metadata with its timestamp.
type metadataCacheEntry struct {
	metadata  *pkgoauth.Metadata
	fetchedAt time.Time
}

// Client talks to the OpenID Provider: discovery, code exchange, refresh
// and dynamic client registration. It is safe for concurrent use.
type Client struct {
	httpClient          *http.Client
	logger              *slog.Logger
	registrationTimeout time.Duration
	metrics             *metrics.Metrics

	// Metadata cache with mutex for thread safety
	metadataMu    sync.RWMutex
	metadataCache map[string]*metadataCacheEntry
	metadataTTL   time.Duration

	// singleflight group to deduplicate concurrent metadata fetches
	metadataGroup singleflight.Group
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMetadataCacheTTL sets the metadata cache TTL.
func WithMetadataCacheTTL(ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.metadataTTL = ttl
	}
}

// WithRegistrationTimeout overrides the registration request timeout.
func WithRegistrationTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.registrationTimeout = timeout
	}
}

// WithMetrics records request durations on m.
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a new provider client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:          &http.Client{Timeout: DefaultHTTPTimeout},
		logger:              slog.Default(),
		registrationTimeout: DefaultRegistrationTimeout,
		metadataCache:       make(map[string]*metadataCacheEntry),
		metadataTTL:         DefaultMetadataCacheTTL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ExchangeCodeForTokens redeems an authorization code with the PKCE
// verifier it was issued for. clientSecret is sent only when non-empty.
func (c *Client) ExchangeCodeForTokens(ctx context.Context, md *pkgoauth.Metadata, clientID, clientSecret string, exchange *AuthorizationExchange) (*pkgoauth.Token, error) {
	start := time.Now()
	if md == nil || md.TokenEndpoint == "" {
		return nil, missingEndpointError("token_endpoint")
	}
	if exchange == nil || exchange.Code == "" {
		return nil, &ServerError{
			Kind:        ErrTokenExchange,
			Title:       TitleTokenExchange,
			Description: "No authorization code was received",
		}
	}

	cfg := oauth2Config(md, clientID, clientSecret, exchange.RedirectURI)
	tok, err := cfg.Exchange(c.clientContext(ctx), exchange.Code, oauth2.VerifierOption(exchange.CodeVerifier))
	if err != nil {
		c.metrics.ObserveProviderRequest(opCodeExchange, start, metrics.OutcomeFailure)
		c.logger.Debug("Authorization code exchange failed",
			"token_endpoint", md.TokenEndpoint,
			"error", err)
		return nil, tokenEndpointError(ErrTokenExchange, TitleTokenExchange, err)
	}

	c.metrics.ObserveProviderRequest(opCodeExchange, start, metrics.OutcomeSuccess)
	token := pkgoauth.TokenFromOAuth2(tok)
	c.logger.Debug("Authorization code redeemed",
		"token_endpoint", md.TokenEndpoint,
		"has_refresh_token", token.RefreshToken != "",
		"has_id_token", token.IDToken != "")
	return token, nil
}

// RefreshTokens runs the refresh_token grant. It returns ErrRefreshExpired
// when the provider answers invalid_grant and a ServerError of kind
// ErrTokenRefresh for anything else. When the response carries no new
// refresh token the one sent is kept.
func (c *Client) RefreshTokens(ctx context.Context, md *pkgoauth.Metadata, clientID, clientSecret, refreshToken string) (*pkgoauth.Token, error) {
	start := time.Now()
	if md == nil || md.TokenEndpoint == "" {
		return nil, missingEndpointError("token_endpoint")
	}
	if refreshToken == "" {
		return nil, &ServerError{
			Kind:        ErrTokenRefresh,
			Title:       TitleTokenRefresh,
			Description: "No refresh token is available",
		}
	}

	cfg := oauth2Config(md, clientID, clientSecret, "")
	tok, err := cfg.TokenSource(c.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && rErr.ErrorCode == pkgoauth.ErrorCodeInvalidGrant {
			c.metrics.ObserveProviderRequest(opRefresh, start, metrics.OutcomeExpired)
			c.logger.Info("Refresh token rejected as expired or revoked",
				"token_endpoint", md.TokenEndpoint)
			return nil, ErrRefreshExpired
		}
		c.metrics.ObserveProviderRequest(opRefresh, start, metrics.OutcomeFailure)
		return nil, tokenEndpointError(ErrTokenRefresh, TitleTokenRefresh, err)
	}

	c.metrics.ObserveProviderRequest(opRefresh, start, metrics.OutcomeSuccess)
	token := pkgoauth.TokenFromOAuth2(tok)
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	return token, nil
}

// clientContext makes x/oauth2 and go-oidc use the configured HTTP client.
func (c *Client) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func oauth2Config(md *pkgoauth.Metadata, clientID, clientSecret, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:  md.AuthorizationEndpoint,
			TokenURL: md.TokenEndpoint,
			// Credentials go in the form body, and client_secret is
			// omitted when empty.
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// tokenEndpointError converts an x/oauth2 failure into a ServerError.
func tokenEndpointError(kind error, title string, err error) *ServerError {
	se := &ServerError{Kind: kind, Title: title, Err: err}

	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		se.Type = ErrorTypeHTTP
		if rErr.ErrorCode != "" {
			se.Type = ErrorTypeOAuth
		}
		if rErr.Response != nil {
			se.Code = rErr.Response.StatusCode
		}
		se.ErrorCode = rErr.ErrorCode
		se.Description = rErr.ErrorDescription
		if se.ErrorCode == "" && se.Description == "" {
			se.Description = bodyDescription(rErr.Body)
		}
		return se
	}

	if strings.Contains(err.Error(), "server response missing access_token") {
		se.Type = ErrorTypeResponse
	} else {
		se.Type = ErrorTypeNetwork
	}
	return se
}

func missingEndpointError(name string) *ServerError {
	return &ServerError{
		Kind:        ErrConfiguration,
		Title:       TitleConfiguration,
		Description: "The provider metadata has no " + name,
	}
}
