package shell

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"dcrclient/pkg/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsShutdownTimeout = 5 * time.Second

// MetricsServer exposes a prometheus registry on /metrics.
type MetricsServer struct {
	server   *http.Server
	listener net.Listener
	done     chan struct{}
	stopOnce sync.Once
}

// StartMetricsServer listens on addr and serves gatherer until ctx is done
// or Stop is called.
func StartMetricsServer(ctx context.Context, addr string, gatherer prometheus.Gatherer) (*MetricsServer, error) {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	m := &MetricsServer{
		server: &http.Server{
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		listener: listener,
		done:     make(chan struct{}),
	}

	go func() {
		defer close(m.done)
		if err := m.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Metrics", err, "Metrics server stopped")
		}
	}()
	go func() {
		select {
		case <-ctx.Done():
			m.Stop()
		case <-m.done:
		}
	}()

	logging.Info("Metrics", "Serving metrics on http://%s/metrics", listener.Addr())
	return m, nil
}

// Addr returns the address the server listens on.
func (m *MetricsServer) Addr() string {
	return m.listener.Addr().String()
}

// Stop shuts the server down and waits for it to exit.
func (m *MetricsServer) Stop() {
	m.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := m.server.Shutdown(ctx); err != nil {
			logging.Warn("Metrics", "Metrics server shutdown: %v", err)
		}
	})
	<-m.done
}
