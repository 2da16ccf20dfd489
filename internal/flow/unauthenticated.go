package flow

import (
	"context"

	"dcrclient/internal/oauth"
	"dcrclient/pkg/logging"
	pkgoauth "dcrclient/pkg/oauth"
)

// UnauthenticatedFlow logs the user in with the registered client.
type UnauthenticatedFlow struct {
	errorHolder
	session *Session
}

func (f *UnauthenticatedFlow) Name() Name { return NameUnauthenticated }

// StartLogin emits an EventLoginRedirect for the main scope.
//
// The login prompt is forced only when this is not the first run and no ID
// token is cached: the user looks logged out, but a leftover provider
// session would otherwise sign them straight back in. The first login
// after registration is never forced.
func (f *UnauthenticatedFlow) StartLogin(ctx context.Context) error {
	s := f.session
	return s.call(func() error {
		if err := s.require(StateRegistered); err != nil {
			return err
		}
		reg := s.store.Registration()
		if reg == nil {
			return ErrInvalidState
		}
		f.ClearError()
		s.setState(StateLoggingIn)

		forceLogin := !s.store.IsFirstRun() && s.store.IDToken() == ""
		cached := s.store.Metadata()

		runAsync(s, ctx, func(ctx context.Context) (redirectStart, error) {
			return prepareLogin(ctx, s, cached, reg.ClientID, s.cfg.Scope, forceLogin)
		}, func(start redirectStart, err error) {
			start.cacheMetadata(s)
			if err != nil {
				s.fail(&f.errorHolder, NameUnauthenticated, "start_login", err, StateRegistered)
				return
			}
			s.succeed(NameUnauthenticated, "start_login")
			ev := newEvent(EventLoginRedirect, NameUnauthenticated, StateLoggingIn)
			ev.Authorization = start.request
			s.emit(ev)
		})
		return nil
	})
}

// EndLogin redeems the authorization code with the registered client's
// credentials, saves the tokens and ends the first run.
func (f *UnauthenticatedFlow) EndLogin(ctx context.Context, req *oauth.AuthorizationRequest, result oauth.RedirectResult) error {
	s := f.session
	return s.call(func() error {
		if err := s.require(StateLoggingIn); err != nil {
			return err
		}

		exchange, err := oauth.CompleteAuthorization(req, result)
		if err != nil {
			s.fail(&f.errorHolder, NameUnauthenticated, "end_login", err, StateRegistered)
			return nil
		}

		md := s.store.Metadata()
		reg := s.store.Registration()

		runAsync(s, ctx, func(ctx context.Context) (*pkgoauth.Token, error) {
			return s.transport.ExchangeCodeForTokens(ctx, md, reg.ClientID, reg.ClientSecret, exchange)
		}, func(tokens *pkgoauth.Token, err error) {
			if err == nil {
				err = s.store.SaveTokens(tokens)
			}
			if err != nil {
				s.fail(&f.errorHolder, NameUnauthenticated, "end_login", err, StateRegistered)
				return
			}
			if s.store.CompleteFirstRun() {
				logging.Debug("Flow", "First run completed")
			}

			s.setState(StateAuthenticated)
			s.succeed(NameUnauthenticated, "end_login")
			s.emit(newEvent(EventLoggedIn, NameUnauthenticated, StateAuthenticated))
		})
		return nil
	})
}
