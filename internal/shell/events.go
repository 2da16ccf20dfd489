package shell

import (
	"context"
	"fmt"

	"dcrclient/internal/flow"
	"dcrclient/pkg/logging"

	"github.com/jedib0t/go-pretty/v6/text"
)

// pumpEvents handles session events until ctx is done or the session's
// event channel is drained after close.
func (s *Shell) pumpEvents(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.session.Events():
			if !ok {
				return
			}
			s.handleEvent(ctx, ev)
		}
	}
}

// handleEvent prints ev and, for redirect events, runs the redirect and
// completes the flow that asked for it.
func (s *Shell) handleEvent(ctx context.Context, ev flow.Event) {
	logging.Debug("Shell", "Event %s from %s flow (id=%s, state=%s)", ev.Kind, ev.Flow, ev.ID, ev.State)

	s.beginOutput()
	defer s.endOutput()

	switch ev.Kind {
	case flow.EventLoginRedirect:
		s.completeLogin(ctx, ev)
	case flow.EventLogoutRedirect:
		s.completeLogout(ctx, ev)
	case flow.EventRegistered:
		fmt.Fprintf(s.out, "%s client %s\n", text.FgGreen.Sprint("Registered"), ev.ClientID)
	case flow.EventLoggedIn:
		fmt.Fprintln(s.out, text.FgGreen.Sprint("Logged in"))
	case flow.EventTokensRefreshed:
		fmt.Fprintln(s.out, text.FgGreen.Sprint("Tokens refreshed"))
	case flow.EventLoggedOut:
		fmt.Fprintln(s.out, text.FgYellow.Sprint("Logged out"))
	case flow.EventError:
		if ev.Error != nil {
			printError(s.out, *ev.Error)
		}
	}
}

func (s *Shell) completeLogin(ctx context.Context, ev flow.Event) {
	req := ev.Authorization
	if req == nil {
		logging.Warn("Shell", "Login redirect event %s has no request", ev.ID)
		return
	}

	fmt.Fprintf(s.out, "Opening the browser to log in (%s flow)\n", ev.Flow)
	fmt.Fprintf(s.out, "If it does not open, visit:\n  %s\n", req.URL)
	result := s.redirector.Redirect(ctx, req.URL, req.RedirectURI)

	var err error
	switch ev.Flow {
	case flow.NameRegistration:
		err = s.session.Registration().EndLogin(ctx, req, result)
	case flow.NameUnauthenticated:
		err = s.session.Unauthenticated().EndLogin(ctx, req, result)
	default:
		err = fmt.Errorf("unexpected login redirect from %s flow", ev.Flow)
	}
	if err != nil {
		logging.Error("Shell", err, "Failed to complete login")
	}
}

func (s *Shell) completeLogout(ctx context.Context, ev flow.Event) {
	req := ev.EndSession
	if req == nil {
		logging.Warn("Shell", "Logout redirect event %s has no request", ev.ID)
		return
	}

	fmt.Fprintln(s.out, "Opening the browser to log out")
	result := s.redirector.Redirect(ctx, req.URL, req.PostLogoutRedirectURI)

	if err := s.session.Authenticated().EndLogout(req, result); err != nil {
		logging.Error("Shell", err, "Failed to complete logout")
	}
}
