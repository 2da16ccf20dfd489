package oauth

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// CallbackTimeout is how long to wait for a browser redirect.
const CallbackTimeout = 10 * time.Minute

//go:embed templates/callback_success.html
var callbackSuccessHTML string

//go:embed templates/callback_error.html
var callbackErrorHTML string

var (
	callbackSuccessTemplate = template.Must(template.New("success").Parse(callbackSuccessHTML))
	callbackErrorTemplate   = template.Must(template.New("error").Parse(callbackErrorHTML))
)

// CallbackServer is a temporary loopback HTTP server receiving one browser
// redirect on the path of its redirect URI. It starts, waits for a single
// callback, then shuts down.
type CallbackServer struct {
	redirectURI *url.URL

	server   *http.Server
	listener net.Listener
	resultCh chan RedirectResult
	errorCh  chan error
	once     sync.Once
	stopOnce sync.Once
}

// NewCallbackServer prepares a server for redirectURI, which must be an
// http URL with a host, port and path. Port 0 picks a free port; read the
// actual URI from RedirectURI after Start.
func NewCallbackServer(redirectURI string) (*CallbackServer, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URI %q: %w", redirectURI, err)
	}
	if u.Scheme != "http" || u.Host == "" {
		return nil, fmt.Errorf("redirect URI %q must be an http loopback URL", redirectURI)
	}
	if u.Path == "" {
		u.Path = "/"
	}

	return &CallbackServer{
		redirectURI: u,
		resultCh:    make(chan RedirectResult, 1),
		errorCh:     make(chan error, 1),
	}, nil
}

// Start begins listening. The server stops when ctx is cancelled.
func (s *CallbackServer) Start(ctx context.Context) error {
	addr := s.redirectURI.Host
	if s.redirectURI.Port() == "" {
		addr = net.JoinHostPort(s.redirectURI.Hostname(), "80")
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start callback server on %s: %w", addr, err)
	}
	s.listener = listener

	port := listener.Addr().(*net.TCPAddr).Port
	s.redirectURI.Host = net.JoinHostPort(s.redirectURI.Hostname(), fmt.Sprint(port))

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Get(s.redirectURI.Path, s.handleCallback)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	s.server = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case s.errorCh <- err:
			default:
			}
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RedirectURI returns the URI the server is listening on.
func (s *CallbackServer) RedirectURI() string {
	return s.redirectURI.String()
}

// WaitForCallback waits for the redirect or ctx cancellation.
func (s *CallbackServer) WaitForCallback(ctx context.Context) (RedirectResult, error) {
	select {
	case result := <-s.resultCh:
		return result, nil
	case err := <-s.errorCh:
		return RedirectResult{}, err
	case <-ctx.Done():
		return RedirectResult{}, ctx.Err()
	}
}

// handleCallback handles the redirect request exactly once.
func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	var handled bool
	s.once.Do(func() {
		handled = true
		s.processCallback(w, r)
	})

	if !handled {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
	}
}

func (s *CallbackServer) processCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	result := RedirectResult{
		Code:             query.Get("code"),
		State:            query.Get("state"),
		Error:            query.Get("error"),
		ErrorDescription: query.Get("error_description"),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	var err error
	if result.Error != "" {
		err = callbackErrorTemplate.Execute(w, map[string]string{
			"Error":       result.Error,
			"Description": result.ErrorDescription,
		})
	} else {
		err = callbackSuccessTemplate.Execute(w, nil)
	}
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}

	select {
	case s.resultCh <- result:
	default:
	}
}

// Stop gracefully shuts down the callback server. It is safe to call more
// than once.
func (s *CallbackServer) Stop() {
	s.stopOnce.Do(func() {
		if s.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.server.Shutdown(ctx)
		}
		if s.listener != nil {
			_ = s.listener.Close()
		}
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'unsafe-inline'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
