package authstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"dcrclient/internal/storage"
	pkgoauth "dcrclient/pkg/oauth"
)

// RegistrationKey is the durable key holding the serialized client registration.
const RegistrationKey = "registration"

var (
	// ErrNotRegistered is returned by SaveTokens when metadata or a client
	// registration is missing. Tokens never exist without both.
	ErrNotRegistered = errors.New("authstate: tokens require provider metadata and a client registration")

	// ErrCorruptRegistration is returned by Load when the persisted record
	// cannot be decoded.
	ErrCorruptRegistration = errors.New("authstate: persisted registration is corrupt")
)

// AuthenticationState is a point-in-time copy of the store's contents.
type AuthenticationState struct {
	Metadata     *pkgoauth.Metadata
	Registration *pkgoauth.ClientRegistration
	Tokens       *pkgoauth.Token
	IDToken      string
	IsFirstRun   bool
}

// Store owns the authentication state shared by all flows.
//
// Only the client registration is persisted. Metadata and tokens live in
// memory and must be re-obtained after a restart.
//
// The mutex makes individual calls safe to use from any goroutine. A read
// followed by a write is not atomic; flows are expected to run one at a time.
type Store struct {
	mu sync.RWMutex
	kv storage.KeyValueStore

	metadata     *pkgoauth.Metadata
	registration *pkgoauth.ClientRegistration
	tokens       *pkgoauth.Token
	idToken      string
	firstRun     bool
}

// Load builds a Store from durable storage. Metadata and tokens start
// absent, and the store is on its first run iff no registration was found.
func Load(ctx context.Context, kv storage.KeyValueStore) (*Store, error) {
	s := &Store{kv: kv}

	raw, found, err := kv.GetString(ctx, RegistrationKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read persisted registration: %w", err)
	}
	if !found || raw == "" {
		s.firstRun = true
		slog.Debug("No persisted client registration found", "subsystem", "AuthState")
		return s, nil
	}

	var reg pkgoauth.ClientRegistration
	if err := json.Unmarshal([]byte(raw), &reg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRegistration, err)
	}
	if reg.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", ErrCorruptRegistration)
	}

	s.registration = &reg
	slog.Debug("Loaded persisted client registration",
		"subsystem", "AuthState",
		"issuer", reg.Issuer,
		"client_id", reg.ClientID,
	)
	return s, nil
}

// Metadata returns the cached provider metadata, or nil.
func (s *Store) Metadata() *pkgoauth.Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMetadata(s.metadata)
}

// SetMetadata replaces the cached provider metadata. The registration is kept.
func (s *Store) SetMetadata(md *pkgoauth.Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata = copyMetadata(md)
}

// Registration returns the client registration, or nil.
func (s *Store) Registration() *pkgoauth.ClientRegistration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyRegistration(s.registration)
}

// SaveRegistration persists reg and then makes it the current registration.
// On a write failure the in-memory registration is left unchanged. Tokens
// are never touched.
func (s *Store) SaveRegistration(ctx context.Context, reg *pkgoauth.ClientRegistration) error {
	if reg == nil || reg.ClientID == "" {
		return errors.New("authstate: registration must have a client_id")
	}

	data, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("failed to encode registration: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.PutString(ctx, RegistrationKey, string(data)); err != nil {
		slog.Warn("SECURITY_AUDIT: client registration storage failed",
			"event", "registration_store_failed",
			"issuer", reg.Issuer,
			"error", err.Error(),
		)
		return fmt.Errorf("failed to persist registration: %w", err)
	}

	s.registration = copyRegistration(reg)
	slog.Info("SECURITY_AUDIT: client registration stored",
		"event", "registration_stored",
		"issuer", reg.Issuer,
		"client_id", reg.ClientID,
		"has_client_secret", reg.HasSecret(),
	)
	return nil
}

// Tokens returns the current token set, or nil. Its IDToken is the cached
// ID token, which may come from an earlier response than the access token.
func (s *Store) Tokens() *pkgoauth.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tokens == nil {
		return nil
	}
	tok := *s.tokens
	tok.IDToken = s.idToken
	return &tok
}

// SaveTokens merges tok into the state. An empty IDToken keeps the cached
// ID token, because refresh responses usually omit it. Metadata and
// registration are never touched.
func (s *Store) SaveTokens(tok *pkgoauth.Token) error {
	if tok == nil {
		return errors.New("authstate: token set cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.metadata == nil || s.registration == nil {
		return ErrNotRegistered
	}

	stored := *tok
	if stored.IDToken != "" {
		s.idToken = stored.IDToken
	}
	stored.IDToken = ""
	s.tokens = &stored

	slog.Info("SECURITY_AUDIT: OAuth tokens stored",
		"event", "tokens_stored",
		"issuer", s.metadata.Issuer,
		"expiry", formatExpiry(stored.ExpiresAt),
		"has_refresh_token", stored.RefreshToken != "",
		"has_id_token", s.idToken != "",
	)
	return nil
}

// IDToken returns the cached ID token, or "".
func (s *Store) IDToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idToken
}

// ClearTokens drops the token set and the cached ID token. Metadata and
// registration survive.
func (s *Store) ClearTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()

	hadTokens := s.tokens != nil || s.idToken != ""
	s.tokens = nil
	s.idToken = ""

	if hadTokens {
		slog.Info("SECURITY_AUDIT: OAuth tokens cleared",
			"event", "tokens_cleared",
		)
	}
}

// IsFirstRun reports whether this store started without a persisted
// registration and no login has completed since.
func (s *Store) IsFirstRun() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.firstRun
}

// CompleteFirstRun clears the first-run flag. It returns true only for the
// call that actually flipped it.
func (s *Store) CompleteFirstRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.firstRun {
		return false
	}
	s.firstRun = false
	return true
}

// DeleteRegistration removes the persisted registration and clears all
// in-memory state. This is a developer reset; the next start behaves like
// a fresh install.
func (s *Store) DeleteRegistration(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Remove(ctx, RegistrationKey); err != nil {
		return fmt.Errorf("failed to delete persisted registration: %w", err)
	}

	s.registration = nil
	s.metadata = nil
	s.tokens = nil
	s.idToken = ""
	s.firstRun = true

	slog.Info("SECURITY_AUDIT: client registration deleted",
		"event", "registration_deleted",
	)
	return nil
}

// Snapshot returns a copy of the whole state.
func (s *Store) Snapshot() AuthenticationState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := AuthenticationState{
		Metadata:     copyMetadata(s.metadata),
		Registration: copyRegistration(s.registration),
		IDToken:      s.idToken,
		IsFirstRun:   s.firstRun,
	}
	if s.tokens != nil {
		tok := *s.tokens
		tok.IDToken = s.idToken
		state.Tokens = &tok
	}
	return state
}

func formatExpiry(t time.Time) string {
	if t.IsZero() {
		return "none"
	}
	return t.Format(time.RFC3339)
}

func copyMetadata(md *pkgoauth.Metadata) *pkgoauth.Metadata {
	if md == nil {
		return nil
	}
	c := *md
	c.ScopesSupported = append([]string(nil), md.ScopesSupported...)
	c.GrantTypesSupported = append([]string(nil), md.GrantTypesSupported...)
	c.CodeChallengeMethodsSupported = append([]string(nil), md.CodeChallengeMethodsSupported...)
	return &c
}

func copyRegistration(reg *pkgoauth.ClientRegistration) *pkgoauth.ClientRegistration {
	if reg == nil {
		return nil
	}
	c := *reg
	c.RedirectURIs = append([]string(nil), reg.RedirectURIs...)
	c.PostLogoutRedirectURIs = append([]string(nil), reg.PostLogoutRedirectURIs...)
	c.GrantTypes = append([]string(nil), reg.GrantTypes...)
	return &c
}
