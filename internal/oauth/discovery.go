package oauth

import (
	"context"
	"strings"
	"time"

	"dcrclient/internal/metrics"
	pkgoauth "dcrclient/pkg/oauth"

	"github.com/coreos/go-oidc"
)

// NoRegistrationEndpointDescription is reported when discovery succeeds but
// the provider does not offer dynamic client registration.
const NoRegistrationEndpointDescription = "No registration endpoint is configured in the Identity Server"

// FetchProviderMetadata downloads the OpenID Connect discovery document for
// issuer. The document's issuer must match. Results are cached with a TTL
// and concurrent fetches for the same issuer share one request.
//
// A provider without a registration_endpoint fails with ErrConfiguration,
// since this client cannot work without dynamic registration.
func (c *Client) FetchProviderMetadata(ctx context.Context, issuer string) (*pkgoauth.Metadata, error) {
	// Check cache first with read lock
	if md := c.cachedMetadata(issuer); md != nil {
		return md, nil
	}

	result, err, _ := c.metadataGroup.Do(issuer, func() (interface{}, error) {
		// Double-check cache after acquiring singleflight lock
		if md := c.cachedMetadata(issuer); md != nil {
			return md, nil
		}
		return c.doFetchMetadata(ctx, issuer)
	})
	if err != nil {
		return nil, err
	}

	return result.(*pkgoauth.Metadata), nil
}

func (c *Client) doFetchMetadata(ctx context.Context, issuer string) (*pkgoauth.Metadata, error) {
	start := time.Now()

	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, c.httpClient), issuer)
	if err != nil {
		c.metrics.ObserveProviderRequest(opDiscovery, start, metrics.OutcomeFailure)
		c.logger.Debug("OpenID Connect discovery failed",
			"issuer", issuer,
			"error", err)
		return nil, &ServerError{
			Kind:  ErrDiscovery,
			Title: TitleDiscovery,
			Type:  ErrorTypeNetwork,
			Err:   err,
		}
	}

	var md pkgoauth.Metadata
	if err := provider.Claims(&md); err != nil {
		c.metrics.ObserveProviderRequest(opDiscovery, start, metrics.OutcomeFailure)
		return nil, &ServerError{
			Kind:  ErrDiscovery,
			Title: TitleDiscovery,
			Type:  ErrorTypeResponse,
			Err:   err,
		}
	}
	c.metrics.ObserveProviderRequest(opDiscovery, start, metrics.OutcomeSuccess)

	if md.AuthorizationEndpoint == "" || md.TokenEndpoint == "" {
		return nil, &ServerError{
			Kind:        ErrDiscovery,
			Title:       TitleDiscovery,
			Type:        ErrorTypeResponse,
			Description: "The discovery document has no authorization or token endpoint",
		}
	}
	if !md.SupportsRegistration() {
		return nil, &ServerError{
			Kind:        ErrConfiguration,
			Title:       TitleConfiguration,
			Description: NoRegistrationEndpointDescription,
		}
	}
	if !md.SupportsPKCE() {
		c.logger.Warn("Provider does not advertise S256 PKCE, sending it anyway",
			"issuer", md.Issuer,
			"methods", md.CodeChallengeMethodsSupported)
	}

	c.cacheMetadata(issuer, &md)
	return &md, nil
}

func (c *Client) cachedMetadata(issuer string) *pkgoauth.Metadata {
	c.metadataMu.RLock()
	defer c.metadataMu.RUnlock()
	if entry, ok := c.metadataCache[cacheKey(issuer)]; ok {
		if time.Since(entry.fetchedAt) < c.metadataTTL {
			return entry.metadata
		}
	}
	return nil
}

// cacheMetadata stores metadata in the cache.
func (c *Client) cacheMetadata(issuer string, metadata *pkgoauth.Metadata) {
	c.metadataMu.Lock()
	c.metadataCache[cacheKey(issuer)] = &metadataCacheEntry{
		metadata:  metadata,
		fetchedAt: time.Now(),
	}
	c.metadataMu.Unlock()

	c.logger.Debug("Cached provider metadata",
		"issuer", issuer,
		"authorization_endpoint", metadata.AuthorizationEndpoint,
		"token_endpoint", metadata.TokenEndpoint,
		"registration_endpoint", metadata.RegistrationEndpoint)
}

func cacheKey(issuer string) string {
	return strings.TrimSuffix(issuer, "/")
}
