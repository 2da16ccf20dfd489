package oauth

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// BrowserRedirector runs the browser step of a redirect flow: it listens on
// the redirect URI, opens the browser and waits for the provider to send
// the user back.
type BrowserRedirector struct {
	// Open launches the browser. Defaults to OpenBrowser.
	Open func(url string) error

	// Timeout bounds the wait. Defaults to CallbackTimeout.
	Timeout time.Duration

	Logger *slog.Logger
}

// Redirect opens url and waits for the redirect to redirectURI. Timeouts,
// cancellation and listener failures are reported as a cancelled result
// so callers only need to validate one shape.
func (b *BrowserRedirector) Redirect(ctx context.Context, url, redirectURI string) RedirectResult {
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := b.Timeout
	if timeout <= 0 {
		timeout = CallbackTimeout
	}
	open := b.Open
	if open == nil {
		open = OpenBrowser
	}

	server, err := NewCallbackServer(redirectURI)
	if err != nil {
		logger.Error("Invalid redirect URI", "redirect_uri", redirectURI, "error", err)
		return RedirectResult{Cancelled: true, ErrorDescription: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := server.Start(ctx); err != nil {
		logger.Error("Failed to start callback server", "redirect_uri", redirectURI, "error", err)
		return RedirectResult{Cancelled: true, ErrorDescription: err.Error()}
	}
	defer server.Stop()

	if err := open(url); err != nil {
		// The URL is still shown to the user, who can open it by hand.
		logger.Warn("Failed to open browser", "error", err)
	}

	result, err := server.WaitForCallback(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("Timed out waiting for browser redirect", "timeout", timeout)
		}
		return RedirectResult{Cancelled: true, ErrorDescription: err.Error()}
	}
	return result
}
