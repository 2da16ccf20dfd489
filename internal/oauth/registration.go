package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"dcrclient/internal/metrics"
	pkgoauth "dcrclient/pkg/oauth"
)

// maxRegistrationResponseSize caps the registration response body.
const maxRegistrationResponseSize = 1 << 20

// RegistrationParams are the client settings sent with a registration.
type RegistrationParams struct {
	RedirectURI           string
	PostLogoutRedirectURI string
	Scope                 string
	ClientName            string

	// SoftwareID and SoftwareVersion identify the client software
	// (RFC 7591 section 2). Empty values are omitted.
	SoftwareID      string
	SoftwareVersion string
}

// registrationErrorResponse is the RFC 7591 section 3.2.2 error body.
type registrationErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// RegisterClient registers a new client at the provider's registration
// endpoint. dcrAccessToken is sent as a bearer token, which the generic
// RFC 7591 flow does not do, so the request is built here directly. The
// call is bounded by the registration timeout.
func (c *Client) RegisterClient(ctx context.Context, md *pkgoauth.Metadata, params RegistrationParams, dcrAccessToken string) (*pkgoauth.ClientRegistration, error) {
	start := time.Now()
	if !md.SupportsRegistration() {
		return nil, &ServerError{
			Kind:        ErrConfiguration,
			Title:       TitleConfiguration,
			Description: NoRegistrationEndpointDescription,
		}
	}

	reg, err := c.doRegister(ctx, md, params, dcrAccessToken)
	c.metrics.ObserveProviderRequest(opRegistration, start, metrics.Outcome(err))
	if err != nil {
		c.logger.Warn("Dynamic client registration failed",
			"registration_endpoint", md.RegistrationEndpoint,
			"error", err)
		return nil, err
	}

	c.logger.Info("Dynamic client registered",
		"registration_endpoint", md.RegistrationEndpoint,
		"client_id", reg.ClientID,
		"has_client_secret", reg.HasSecret())
	return reg, nil
}

func (c *Client) doRegister(ctx context.Context, md *pkgoauth.Metadata, params RegistrationParams, dcrAccessToken string) (*pkgoauth.ClientRegistration, error) {
	body := pkgoauth.RegistrationRequest{
		RedirectURIs:    []string{params.RedirectURI},
		GrantTypes:      []string{pkgoauth.GrantTypeAuthorizationCode},
		ResponseTypes:   []string{pkgoauth.ResponseTypeCode},
		Scope:           params.Scope,
		RequiresConsent: false,
		ClientName:      params.ClientName,
		SoftwareID:      params.SoftwareID,
		SoftwareVersion: params.SoftwareVersion,
	}
	if params.PostLogoutRedirectURI != "" {
		body.PostLogoutRedirectURIs = []string{params.PostLogoutRedirectURI}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, registrationError(ErrorTypeResponse, 0, fmt.Errorf("failed to encode registration request: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, c.registrationTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, md.RegistrationEndpoint, bytes.NewReader(data))
	if err != nil {
		return nil, registrationError(ErrorTypeNetwork, 0, fmt.Errorf("failed to create registration request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+dcrAccessToken)

	// The registration deadline alone bounds this call, whatever the
	// shared client timeout is.
	httpClient := *c.httpClient
	httpClient.Timeout = 0

	resp, err := httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("registration request timed out after %s: %w", c.registrationTimeout, err)
		}
		return nil, registrationError(ErrorTypeNetwork, 0, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxRegistrationResponseSize))
	if err != nil {
		return nil, registrationError(ErrorTypeNetwork, resp.StatusCode, fmt.Errorf("failed to read registration response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := registrationError(ErrorTypeHTTP, resp.StatusCode, nil)
		var errResp registrationErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			se.Type = ErrorTypeOAuth
			se.ErrorCode = errResp.Error
			se.Description = errResp.ErrorDescription
		} else {
			se.Description = bodyDescription(respBody)
		}
		return nil, se
	}

	var reg pkgoauth.ClientRegistration
	if err := json.Unmarshal(respBody, &reg); err != nil {
		return nil, registrationError(ErrorTypeResponse, resp.StatusCode, fmt.Errorf("failed to parse registration response: %w", err))
	}
	if reg.ClientID == "" {
		return nil, registrationError(ErrorTypeResponse, resp.StatusCode, errors.New("registration response has no client_id"))
	}

	// The record is the only thing persisted, so it carries the values the
	// provider did not echo back along with its provider context.
	if len(reg.RedirectURIs) == 0 {
		reg.RedirectURIs = body.RedirectURIs
	}
	if len(reg.PostLogoutRedirectURIs) == 0 {
		reg.PostLogoutRedirectURIs = body.PostLogoutRedirectURIs
	}
	if len(reg.GrantTypes) == 0 {
		reg.GrantTypes = body.GrantTypes
	}
	if reg.Scope == "" {
		reg.Scope = body.Scope
	}
	reg.Issuer = md.Issuer
	reg.RegistrationEndpoint = md.RegistrationEndpoint

	return &reg, nil
}

func registrationError(errType string, code int, err error) *ServerError {
	return &ServerError{
		Kind:  ErrRegistration,
		Title: TitleRegistration,
		Type:  errType,
		Code:  code,
		Err:   err,
	}
}
