package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"dcrclient/internal/authstate"
	"dcrclient/internal/config"
	"dcrclient/internal/flow"
	"dcrclient/internal/idtoken"
	"dcrclient/internal/metrics"
	"dcrclient/internal/oauth"
	"dcrclient/internal/storage"
	"dcrclient/pkg/logging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Services holds everything a session needs, built from validated
// settings.
type Services struct {
	// Storage is the durable key-value store behind State.
	Storage storage.KeyValueStore

	// State is the authentication state loaded from Storage.
	State *authstate.Store

	// Client talks to the identity provider.
	Client *oauth.Client

	// Claims reads ID token claims.
	Claims *idtoken.Reader

	// Registry collects dcrclient metrics and Go runtime metrics.
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
}

// InitializeServices opens storage, loads the persisted state and builds
// the provider client. Storage is closed again if a later step fails.
func InitializeServices(ctx context.Context, cfg config.Config) (*Services, error) {
	kv, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}

	state, err := authstate.Load(ctx, kv)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	client := oauth.NewClient(
		oauth.WithHTTPClient(&http.Client{Timeout: cfg.HTTP.Timeout}),
		oauth.WithLogger(logging.Logger()),
		oauth.WithMetrics(m),
	)

	logging.Debug("Bootstrap", "Services initialized (registered: %t)", state.Registration() != nil)
	return &Services{
		Storage:  kv,
		State:    state,
		Client:   client,
		Claims:   idtoken.NewReader(),
		Registry: registry,
		Metrics:  m,
	}, nil
}

// NewSession builds a flow session over the services.
func (s *Services) NewSession(cfg config.Config, opts ...flow.SessionOption) *flow.Session {
	opts = append([]flow.SessionOption{flow.WithMetrics(s.Metrics)}, opts...)
	return flow.NewSession(cfg, s.State, s.Client, s.Claims, opts...)
}

// Close releases storage.
func (s *Services) Close() error {
	if s == nil || s.Storage == nil {
		return nil
	}
	return s.Storage.Close()
}

// ResetRegistration deletes the persisted registration. A record too
// corrupt for authstate.Load is removed directly from kv.
func ResetRegistration(ctx context.Context, kv storage.KeyValueStore) error {
	state, err := authstate.Load(ctx, kv)
	if errors.Is(err, authstate.ErrCorruptRegistration) {
		logging.Warn("Bootstrap", "Removing corrupt registration record")
		if err := kv.Remove(ctx, authstate.RegistrationKey); err != nil {
			return fmt.Errorf("failed to delete persisted registration: %w", err)
		}
		return nil
	}
	if err != nil {
		return err
	}
	return state.DeleteRegistration(ctx)
}
