package flow

import (
	"context"
	"errors"
	"time"

	"dcrclient/internal/metrics"
	"dcrclient/internal/oauth"
	"dcrclient/pkg/logging"
	pkgoauth "dcrclient/pkg/oauth"

	"github.com/golang-jwt/jwt/v5"
)

// TokenView is what the UI shows about the current tokens. Token values
// themselves are not included.
type TokenView struct {
	HasAccessToken  bool
	HasRefreshToken bool
	HasIDToken      bool
	ExpiresAt       time.Time
	Expired         bool
	Scope           string

	// Subject and Claims come from the ID token. Subject is empty when the
	// ID token is missing or failed validation.
	Subject string
	Claims  jwt.MapClaims
}

// AuthenticatedFlow manages a logged-in session: token inspection,
// refresh and logout.
type AuthenticatedFlow struct {
	errorHolder
	session *Session
}

func (f *AuthenticatedFlow) Name() Name { return NameAuthenticated }

// ProcessTokens summarizes the current tokens and reads the subject from
// the ID token, checking issuer against the provider metadata and
// audience against the registered client. A claims failure is recorded in
// the error holder, not returned.
func (f *AuthenticatedFlow) ProcessTokens() (TokenView, error) {
	s := f.session
	var view TokenView
	err := s.call(func() error {
		if err := s.require(StateAuthenticated, StateRefreshingToken, StateLoggingOut); err != nil {
			return err
		}
		f.ClearError()

		tokens := s.store.Tokens()
		if tokens == nil {
			return ErrInvalidState
		}
		view = TokenView{
			HasAccessToken:  tokens.AccessToken != "",
			HasRefreshToken: tokens.RefreshToken != "",
			HasIDToken:      tokens.IDToken != "",
			ExpiresAt:       tokens.ExpiresAt,
			Expired:         tokens.IsExpired(),
			Scope:           tokens.Scope,
		}

		md := s.store.Metadata()
		reg := s.store.Registration()
		if md == nil || reg == nil {
			return ErrInvalidState
		}
		if tokens.IDToken == "" {
			return nil
		}
		subject, claims, err := s.claims.ExtractSubject(tokens.IDToken, md.Issuer, reg.ClientID)
		if err != nil {
			details := detailsFromError(err)
			f.set(details)
			logging.Warn("Flow", "ID token rejected: %s", details.Description)
			return nil
		}
		view.Subject = subject
		view.Claims = claims
		return nil
	})
	return view, err
}

// RefreshAccessToken runs the refresh grant. On success the new tokens are
// saved and EventTokensRefreshed is emitted. When the refresh token has
// expired the tokens are cleared and EventLoggedOut is emitted. Any other
// failure is reported and the session stays authenticated with its
// current tokens.
func (f *AuthenticatedFlow) RefreshAccessToken(ctx context.Context) error {
	s := f.session
	return s.call(func() error {
		if err := s.require(StateAuthenticated); err != nil {
			return err
		}
		f.ClearError()

		md := s.store.Metadata()
		reg := s.store.Registration()
		tokens := s.store.Tokens()
		if md == nil || reg == nil || tokens == nil {
			return ErrInvalidState
		}
		s.setState(StateRefreshingToken)

		runAsync(s, ctx, func(ctx context.Context) (*pkgoauth.Token, error) {
			return s.transport.RefreshTokens(ctx, md, reg.ClientID, reg.ClientSecret, tokens.RefreshToken)
		}, func(refreshed *pkgoauth.Token, err error) {
			if errors.Is(err, oauth.ErrRefreshExpired) {
				logging.Info("Flow", "Refresh token expired, logging out")
				s.store.ClearTokens()
				s.setState(StateRegistered)
				s.metrics.IncFlowOperation(string(NameAuthenticated), "refresh", metrics.OutcomeExpired)
				s.emit(newEvent(EventLoggedOut, NameAuthenticated, StateRegistered))
				return
			}
			if err == nil {
				err = s.store.SaveTokens(refreshed)
			}
			if err != nil {
				s.fail(&f.errorHolder, NameAuthenticated, "refresh", err, StateAuthenticated)
				return
			}

			s.setState(StateAuthenticated)
			s.succeed(NameAuthenticated, "refresh")
			s.emit(newEvent(EventTokensRefreshed, NameAuthenticated, StateAuthenticated))
		})
		return nil
	})
}

// StartLogout emits an EventLogoutRedirect carrying the cached ID token as
// a hint. If the end-session request cannot be built the error is
// reported and the user is logged out locally.
func (f *AuthenticatedFlow) StartLogout() error {
	s := f.session
	return s.call(func() error {
		if err := s.require(StateAuthenticated); err != nil {
			return err
		}
		f.ClearError()

		req, err := s.transport.EndSession(s.store.Metadata(), s.store.IDToken(), s.cfg.PostLogoutRedirectURI)
		if err != nil {
			s.fail(&f.errorHolder, NameAuthenticated, "start_logout", err, StateAuthenticated)
			f.logoutLocally()
			return nil
		}

		s.setState(StateLoggingOut)
		s.succeed(NameAuthenticated, "start_logout")
		ev := newEvent(EventLogoutRedirect, NameAuthenticated, StateLoggingOut)
		ev.EndSession = req
		s.emit(ev)
		return nil
	})
}

// EndLogout finishes logout. Tokens are cleared even when the provider
// reported an error: local logout is never blocked by a remote failure.
// The error is still reported.
func (f *AuthenticatedFlow) EndLogout(req *oauth.EndSessionRequest, result oauth.RedirectResult) error {
	s := f.session
	return s.call(func() error {
		if err := s.require(StateLoggingOut); err != nil {
			return err
		}

		if err := oauth.CompleteEndSession(req, result); err != nil {
			s.fail(&f.errorHolder, NameAuthenticated, "end_logout", err, StateLoggingOut)
		} else {
			s.succeed(NameAuthenticated, "end_logout")
		}
		f.logoutLocally()
		return nil
	})
}

func (f *AuthenticatedFlow) logoutLocally() {
	s := f.session
	s.store.ClearTokens()
	s.setState(StateRegistered)
	s.emit(newEvent(EventLoggedOut, NameAuthenticated, StateRegistered))
}
