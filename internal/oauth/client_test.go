package oauth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"dcrclient/internal/metrics"
	pkgoauth "dcrclient/pkg/oauth"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchProviderMetadata(t *testing.T) {
	p := newFakeProvider(t)
	c := NewClient()

	md, err := c.FetchProviderMetadata(context.Background(), p.issuer())
	require.NoError(t, err)

	assert.Equal(t, p.issuer(), md.Issuer)
	assert.Equal(t, p.issuer()+"/authorize", md.AuthorizationEndpoint)
	assert.Equal(t, p.issuer()+"/token", md.TokenEndpoint)
	assert.Equal(t, p.issuer()+"/register", md.RegistrationEndpoint)
	assert.Equal(t, p.issuer()+"/logout", md.EndSessionEndpoint)
	assert.True(t, md.SupportsPKCE())
}

func TestFetchProviderMetadata_Cached(t *testing.T) {
	p := newFakeProvider(t)
	c := NewClient()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.FetchProviderMetadata(context.Background(), p.issuer())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	_, err := c.FetchProviderMetadata(context.Background(), p.issuer()+"/")
	require.NoError(t, err)
	assert.Equal(t, int32(1), p.discoveryHits.Load())
}

func TestFetchProviderMetadata_CacheExpires(t *testing.T) {
	p := newFakeProvider(t)
	c := NewClient(WithMetadataCacheTTL(time.Nanosecond))

	_, err := c.FetchProviderMetadata(context.Background(), p.issuer())
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = c.FetchProviderMetadata(context.Background(), p.issuer())
	require.NoError(t, err)
	assert.Equal(t, int32(2), p.discoveryHits.Load())
}

func TestFetchProviderMetadata_NoRegistrationEndpoint(t *testing.T) {
	p := newFakeProvider(t)
	p.omitRegistration = true

	_, err := NewClient().FetchProviderMetadata(context.Background(), p.issuer())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.NotErrorIs(t, err, ErrDiscovery)

	var se *ServerError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, TitleConfiguration, se.Title)
	assert.Equal(t, NoRegistrationEndpointDescription, se.Details())
}

func TestFetchProviderMetadata_IssuerMismatch(t *testing.T) {
	p := newFakeProvider(t)
	p.issuerOverride = "https://elsewhere.example.com"

	_, err := NewClient().FetchProviderMetadata(context.Background(), p.issuer())
	assert.ErrorIs(t, err, ErrDiscovery)
}

func TestFetchProviderMetadata_Unreachable(t *testing.T) {
	p := newFakeProvider(t)
	issuer := p.issuer()
	p.server.Close()

	_, err := NewClient().FetchProviderMetadata(context.Background(), issuer)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDiscovery)

	var se *ServerError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, TitleDiscovery, se.Title)
}

func TestExchangeCodeForTokens(t *testing.T) {
	tests := []struct {
		name         string
		clientSecret string
	}{
		{"public client", ""},
		{"confidential client", "s3cret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakeProvider(t)
			p.tokenHandler = func(w http.ResponseWriter, r *http.Request) {
				assert.NoError(t, r.ParseForm())
				assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
				assert.Equal(t, "the-code", r.PostForm.Get("code"))
				assert.Equal(t, "the-verifier", r.PostForm.Get("code_verifier"))
				assert.Equal(t, "http://127.0.0.1:3000/callback", r.PostForm.Get("redirect_uri"))
				assert.Equal(t, "client-1", r.PostForm.Get("client_id"))
				_, hasSecret := r.PostForm["client_secret"]
				assert.Equal(t, tt.clientSecret != "", hasSecret)
				assert.Equal(t, tt.clientSecret, r.PostForm.Get("client_secret"))

				writeJSON(w, http.StatusOK, map[string]interface{}{
					"access_token":  "at",
					"token_type":    "Bearer",
					"expires_in":    300,
					"refresh_token": "rt",
					"id_token":      "header.payload.sig",
					"scope":         "openid profile",
				})
			}

			c := NewClient()
			md, err := c.FetchProviderMetadata(context.Background(), p.issuer())
			require.NoError(t, err)

			tok, err := c.ExchangeCodeForTokens(context.Background(), md, "client-1", tt.clientSecret, &AuthorizationExchange{
				Code:         "the-code",
				CodeVerifier: "the-verifier",
				RedirectURI:  "http://127.0.0.1:3000/callback",
			})
			require.NoError(t, err)
			assert.Equal(t, "at", tok.AccessToken)
			assert.Equal(t, "rt", tok.RefreshToken)
			assert.Equal(t, "header.payload.sig", tok.IDToken)
			assert.Equal(t, "openid profile", tok.Scope)
			assert.WithinDuration(t, time.Now().Add(300*time.Second), tok.ExpiresAt, 5*time.Second)
		})
	}
}

func TestExchangeCodeForTokens_Rejected(t *testing.T) {
	p := newFakeProvider(t)
	p.tokenHandler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "invalid_grant",
			"error_description": "The authorization code has expired",
		})
	}

	c := NewClient()
	md, err := c.FetchProviderMetadata(context.Background(), p.issuer())
	require.NoError(t, err)

	_, err = c.ExchangeCodeForTokens(context.Background(), md, "client-1", "", &AuthorizationExchange{Code: "c"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenExchange)

	var se *ServerError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, TitleTokenExchange, se.Title)
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, "invalid_grant", se.ErrorCode)
	assert.Equal(t, "(oauth / 400) : invalid_grant : The authorization code has expired", se.Details())
}

func TestExchangeCodeForTokens_MissingCode(t *testing.T) {
	_, err := NewClient().ExchangeCodeForTokens(context.Background(), &pkgoauth.Metadata{TokenEndpoint: "http://127.0.0.1:1/token"}, "c", "", &AuthorizationExchange{})
	assert.ErrorIs(t, err, ErrTokenExchange)
}

func TestRefreshTokens(t *testing.T) {
	p := newFakeProvider(t)
	p.tokenHandler = func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "rt-old", r.PostForm.Get("refresh_token"))
		assert.Equal(t, "s3cret", r.PostForm.Get("client_secret"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"access_token": "at-new",
			"token_type":   "Bearer",
			"expires_in":   300,
		})
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	c := NewClient(WithMetrics(m))
	md, err := c.FetchProviderMetadata(context.Background(), p.issuer())
	require.NoError(t, err)

	tok, err := c.RefreshTokens(context.Background(), md, "client-1", "s3cret", "rt-old")
	require.NoError(t, err)
	assert.Equal(t, "at-new", tok.AccessToken)
	assert.Equal(t, "rt-old", tok.RefreshToken, "refresh token is kept when the response omits it")
	assert.Empty(t, tok.IDToken)

	assert.Equal(t, 2, testutil.CollectAndCount(m.ProviderRequestDuration))
}

func TestRefreshTokens_InvalidGrantIsExpiry(t *testing.T) {
	p := newFakeProvider(t)
	p.tokenHandler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
	}

	c := NewClient()
	md, err := c.FetchProviderMetadata(context.Background(), p.issuer())
	require.NoError(t, err)

	_, err = c.RefreshTokens(context.Background(), md, "client-1", "s3cret", "rt")
	assert.ErrorIs(t, err, ErrRefreshExpired)
	assert.NotErrorIs(t, err, ErrTokenRefresh)
}

func TestRefreshTokens_OtherFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"invalid client", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakeProvider(t)
			p.tokenHandler = tt.handler

			c := NewClient()
			md, err := c.FetchProviderMetadata(context.Background(), p.issuer())
			require.NoError(t, err)

			_, err = c.RefreshTokens(context.Background(), md, "client-1", "s3cret", "rt")
			assert.ErrorIs(t, err, ErrTokenRefresh)
			assert.NotErrorIs(t, err, ErrRefreshExpired)
		})
	}
}

func TestRefreshTokens_NoRefreshToken(t *testing.T) {
	_, err := NewClient().RefreshTokens(context.Background(), &pkgoauth.Metadata{TokenEndpoint: "http://127.0.0.1:1/token"}, "c", "", "")
	assert.ErrorIs(t, err, ErrTokenRefresh)
}
