package flow

import (
	"context"

	"dcrclient/internal/oauth"
	"dcrclient/pkg/logging"
	pkgoauth "dcrclient/pkg/oauth"
)

// SoftwareID is sent as client_name and software_id when registering.
const SoftwareID = "dcrclient"

// RegistrationFlow bootstraps the client: a login with the pre-provisioned
// registration client yields a DCR access token, which is then used to
// register this installation's own client.
type RegistrationFlow struct {
	errorHolder
	session *Session
}

func (f *RegistrationFlow) Name() Name { return NameRegistration }

// StartLogin fetches provider metadata if needed and emits an
// EventLoginRedirect for the DCR scope. The login is always forced so a
// stale browser session cannot be reused.
func (f *RegistrationFlow) StartLogin(ctx context.Context) error {
	s := f.session
	return s.call(func() error {
		if err := s.require(StateUnregistered); err != nil {
			return err
		}
		f.ClearError()
		s.setState(StateRegistering)

		cached := s.store.Metadata()
		runAsync(s, ctx, func(ctx context.Context) (redirectStart, error) {
			return prepareLogin(ctx, s, cached, s.cfg.RegistrationClientID, s.cfg.DCRScope, true)
		}, func(start redirectStart, err error) {
			start.cacheMetadata(s)
			if err != nil {
				s.fail(&f.errorHolder, NameRegistration, "start_login", err, StateUnregistered)
				return
			}
			s.succeed(NameRegistration, "start_login")
			ev := newEvent(EventLoginRedirect, NameRegistration, StateRegistering)
			ev.Authorization = start.request
			s.emit(ev)
		})
		return nil
	})
}

// EndLogin completes the bootstrap login: it redeems the code without a
// client secret, registers a client with the resulting access token and
// persists the registration. Nothing is persisted unless every step
// succeeds.
func (f *RegistrationFlow) EndLogin(ctx context.Context, req *oauth.AuthorizationRequest, result oauth.RedirectResult) error {
	s := f.session
	return s.call(func() error {
		if err := s.require(StateRegistering); err != nil {
			return err
		}

		exchange, err := oauth.CompleteAuthorization(req, result)
		if err != nil {
			s.fail(&f.errorHolder, NameRegistration, "end_login", err, StateUnregistered)
			return nil
		}

		md := s.store.Metadata()
		params := oauth.RegistrationParams{
			RedirectURI:           s.cfg.RedirectURI,
			PostLogoutRedirectURI: s.cfg.PostLogoutRedirectURI,
			Scope:                 s.cfg.Scope,
			ClientName:            SoftwareID,
			SoftwareID:            SoftwareID,
			SoftwareVersion:       s.softwareVersion,
		}

		runAsync(s, ctx, func(ctx context.Context) (*pkgoauth.ClientRegistration, error) {
			tokens, err := s.transport.ExchangeCodeForTokens(ctx, md, s.cfg.RegistrationClientID, "", exchange)
			if err != nil {
				return nil, err
			}
			return s.transport.RegisterClient(ctx, md, params, tokens.AccessToken)
		}, func(reg *pkgoauth.ClientRegistration, err error) {
			if err != nil {
				s.fail(&f.errorHolder, NameRegistration, "end_login", err, StateUnregistered)
				return
			}
			if err := s.store.SaveRegistration(ctx, reg); err != nil {
				s.fail(&f.errorHolder, NameRegistration, "end_login", err, StateUnregistered)
				return
			}

			logging.Info("Flow", "Registered client %s", reg.ClientID)
			s.setState(StateRegistered)
			s.succeed(NameRegistration, "end_login")
			ev := newEvent(EventRegistered, NameRegistration, StateRegistered)
			ev.ClientID = reg.ClientID
			s.emit(ev)
		})
		return nil
	})
}

// redirectStart is the background result of a StartLogin.
type redirectStart struct {
	// fetched is set when metadata was downloaded rather than cached.
	fetched *pkgoauth.Metadata
	request *oauth.AuthorizationRequest
}

func (r redirectStart) cacheMetadata(s *Session) {
	if r.fetched != nil {
		s.store.SetMetadata(r.fetched)
	}
}

// prepareLogin downloads metadata unless cached and builds the
// authorization request. Runs in the background.
func prepareLogin(ctx context.Context, s *Session, cached *pkgoauth.Metadata, clientID, scope string, forceLogin bool) (redirectStart, error) {
	var start redirectStart
	md := cached
	if md == nil {
		fetched, err := s.transport.FetchProviderMetadata(ctx, s.cfg.Issuer)
		if err != nil {
			return start, err
		}
		start.fetched = fetched
		md = fetched
	}

	req, err := oauth.NewAuthorizationRequest(md, clientID, s.cfg.RedirectURI, scope, forceLogin)
	if err != nil {
		return start, err
	}
	start.request = req
	return start, nil
}
