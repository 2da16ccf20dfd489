package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// Validate checks the configuration and returns ValidationErrors listing
// every invalid field, or nil.
func (c Config) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(c.Issuer) == "" {
		errs.Add("issuer", "is required")
	} else if err := validateIssuer(c.Issuer); err != nil {
		errs.Add("issuer", err.Error(), c.Issuer)
	}

	if strings.TrimSpace(c.RegistrationClientID) == "" {
		errs.Add("registrationClientID", "is required")
	}

	if err := validateLoopbackURI(c.RedirectURI); err != nil {
		errs.Add("redirectURI", err.Error(), c.RedirectURI)
	}
	if err := validateLoopbackURI(c.PostLogoutRedirectURI); err != nil {
		errs.Add("postLogoutRedirectURI", err.Error(), c.PostLogoutRedirectURI)
	}
	if redirect, logout := parsedHost(c.RedirectURI), parsedHost(c.PostLogoutRedirectURI); redirect != "" && redirect != logout {
		errs.Add("postLogoutRedirectURI", "must use the same host and port as redirectURI", c.PostLogoutRedirectURI)
	}

	if strings.TrimSpace(c.Scope) == "" {
		errs.Add("scope", "is required")
	}
	if strings.TrimSpace(c.DCRScope) == "" {
		errs.Add("dcrScope", "is required")
	}

	switch c.Storage.Backend {
	case StorageBackendFile:
		if c.Storage.Dir == "" {
			errs.Add("storage.dir", "is required for the file backend")
		}
	case StorageBackendRedis:
		if c.Storage.RedisURL == "" {
			errs.Add("storage.redisURL", "is required for the redis backend")
		}
	case StorageBackendMemory:
	default:
		errs.Add("storage.backend", "must be one of file, redis, memory", string(c.Storage.Backend))
	}

	if c.HTTP.Timeout <= 0 {
		errs.Add("http.timeout", "must be positive", c.HTTP.Timeout)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateIssuer(issuer string) error {
	u, err := url.Parse(issuer)
	if err != nil {
		return fmt.Errorf("is not a valid URL: %v", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("must be an absolute URL")
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("must use https (or http for local development)")
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("must not contain a query or fragment")
	}
	return nil
}

// validateLoopbackURI requires an http URL on a loopback address with a
// path, since the shell receives redirects on a local listener.
func validateLoopbackURI(raw string) error {
	if raw == "" {
		return fmt.Errorf("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("is not a valid URL: %v", err)
	}
	if u.Scheme != "http" {
		return fmt.Errorf("must use the http scheme")
	}
	host := u.Hostname()
	if host != "localhost" {
		ip := net.ParseIP(host)
		if ip == nil || !ip.IsLoopback() {
			return fmt.Errorf("must point to a loopback address")
		}
	}
	if u.Port() == "" {
		return fmt.Errorf("must include a port")
	}
	if u.Path == "" || u.Path == "/" {
		return fmt.Errorf("must include a callback path")
	}
	return nil
}

func parsedHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}
