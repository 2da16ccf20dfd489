package shell

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"dcrclient/internal/authstate"
	"dcrclient/internal/config"
	"dcrclient/internal/flow"
	"dcrclient/internal/flow/mocks"
	"dcrclient/internal/oauth"
	"dcrclient/internal/storage"
	pkgoauth "dcrclient/pkg/oauth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// syncBuffer is a bytes.Buffer safe for the pump goroutine and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// echoRedirector answers every redirect as if the user approved it.
type echoRedirector struct {
	mu           sync.Mutex
	redirectURIs []string
}

func (r *echoRedirector) Redirect(_ context.Context, rawURL, redirectURI string) oauth.RedirectResult {
	r.mu.Lock()
	r.redirectURIs = append(r.redirectURIs, redirectURI)
	r.mu.Unlock()

	u, err := url.Parse(rawURL)
	if err != nil {
		return oauth.RedirectResult{Cancelled: true}
	}
	return oauth.RedirectResult{Code: "auth-code", State: u.Query().Get("state")}
}

func testMetadata() *pkgoauth.Metadata {
	return &pkgoauth.Metadata{
		Issuer:                "https://idsvr.example.com",
		AuthorizationEndpoint: "https://idsvr.example.com/authorize",
		TokenEndpoint:         "https://idsvr.example.com/token",
		RegistrationEndpoint:  "https://idsvr.example.com/register",
		EndSessionEndpoint:    "https://idsvr.example.com/logout",
	}
}

type shellHarness struct {
	shell      *Shell
	session    *flow.Session
	transport  *mocks.MockTransport
	redirector *echoRedirector
	out        *syncBuffer
}

func newShellHarness(t *testing.T) *shellHarness {
	t.Helper()
	ctrl := gomock.NewController(t)

	cfg := config.GetDefaultConfig()
	cfg.Issuer = "https://idsvr.example.com"
	cfg.RegistrationClientID = "registration-client"

	store, err := authstate.Load(context.Background(), storage.NewMemoryStore())
	require.NoError(t, err)

	transport := mocks.NewMockTransport(ctrl)
	session := flow.NewSession(cfg, store, transport, mocks.NewMockClaimsReader(ctrl))

	h := &shellHarness{
		session:    session,
		transport:  transport,
		redirector: &echoRedirector{},
		out:        &syncBuffer{},
	}
	h.shell = New(session, WithRedirector(h.redirector), WithOutput(h.out))

	ctx, cancel := context.WithCancel(context.Background())
	go session.Run(ctx)
	h.shell.wg.Add(1)
	go h.shell.pumpEvents(ctx)

	t.Cleanup(func() {
		cancel()
		h.shell.wg.Wait()
		session.Wait()
	})
	return h
}

func TestShell_Help(t *testing.T) {
	h := newShellHarness(t)

	require.NoError(t, h.shell.executeCommand(context.Background(), "help"))
	out := h.out.String()
	for _, name := range []string{"register", "login", "tokens", "refresh", "logout", "status", "help", "exit"} {
		assert.Contains(t, out, name)
	}
}

func TestShell_UnknownCommand(t *testing.T) {
	h := newShellHarness(t)

	err := h.shell.executeCommand(context.Background(), "frobnicate now")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command: frobnicate")
}

func TestShell_ExitAndAliases(t *testing.T) {
	h := newShellHarness(t)
	ctx := context.Background()

	assert.ErrorIs(t, h.shell.executeCommand(ctx, "exit"), errExit)
	assert.ErrorIs(t, h.shell.executeCommand(ctx, "QUIT"), errExit)
	assert.NoError(t, h.shell.executeCommand(ctx, "?"))
	assert.NoError(t, h.shell.executeCommand(ctx, "   "))
}

func TestShell_StatusOnFreshInstall(t *testing.T) {
	h := newShellHarness(t)

	require.NoError(t, h.shell.executeCommand(context.Background(), "status"))
	out := h.out.String()
	assert.Contains(t, out, "State: unregistered")
	assert.Contains(t, out, "No client is registered")
}

func TestShell_CommandsRejectedInWrongState(t *testing.T) {
	h := newShellHarness(t)
	ctx := context.Background()

	err := h.shell.executeCommand(ctx, "login")
	require.Error(t, err)
	assert.Equal(t, "cannot login while unregistered", err.Error())

	err = h.shell.executeCommand(ctx, "logout")
	require.Error(t, err)
	assert.Equal(t, "cannot logout while unregistered", err.Error())

	err = h.shell.executeCommand(ctx, "tokens")
	require.Error(t, err)
	assert.Equal(t, "no tokens while unregistered", err.Error())
}

func TestShell_RegisterRunsRedirectAndCompletesFlow(t *testing.T) {
	h := newShellHarness(t)

	h.transport.EXPECT().FetchProviderMetadata(gomock.Any(), "https://idsvr.example.com").Return(testMetadata(), nil)
	h.transport.EXPECT().
		ExchangeCodeForTokens(gomock.Any(), gomock.Any(), "registration-client", "", gomock.Any()).
		Return(&pkgoauth.Token{AccessToken: "dcr-access-token"}, nil)
	h.transport.EXPECT().
		RegisterClient(gomock.Any(), gomock.Any(), gomock.Any(), "dcr-access-token").
		Return(&pkgoauth.ClientRegistration{ClientID: "dyn-client-1", ClientSecret: "s3cret"}, nil)

	require.NoError(t, h.shell.executeCommand(context.Background(), "register"))

	assert.Eventually(t, func() bool {
		return h.session.State() == flow.StateRegistered
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return strings.Contains(h.out.String(), "client dyn-client-1")
	}, 2*time.Second, 10*time.Millisecond)

	h.redirector.mu.Lock()
	defer h.redirector.mu.Unlock()
	assert.Equal(t, []string{config.DefaultRedirectURI}, h.redirector.redirectURIs)
}

func TestShell_LogoutRunsEndSessionRedirect(t *testing.T) {
	h := newShellHarness(t)
	ctx := context.Background()

	h.transport.EXPECT().FetchProviderMetadata(gomock.Any(), gomock.Any()).Return(testMetadata(), nil)
	h.transport.EXPECT().ExchangeCodeForTokens(gomock.Any(), gomock.Any(), "registration-client", "", gomock.Any()).
		Return(&pkgoauth.Token{AccessToken: "dcr-access-token"}, nil)
	h.transport.EXPECT().RegisterClient(gomock.Any(), gomock.Any(), gomock.Any(), "dcr-access-token").
		Return(&pkgoauth.ClientRegistration{ClientID: "dyn-client-1", ClientSecret: "s3cret"}, nil)
	h.transport.EXPECT().ExchangeCodeForTokens(gomock.Any(), gomock.Any(), "dyn-client-1", "s3cret", gomock.Any()).
		Return(&pkgoauth.Token{AccessToken: "at", IDToken: "id-token"}, nil)
	h.transport.EXPECT().EndSession(gomock.Any(), "id-token", config.DefaultPostLogoutRedirectURI).
		DoAndReturn(oauth.NewEndSessionRequest)

	require.NoError(t, h.shell.executeCommand(ctx, "register"))
	require.Eventually(t, func() bool {
		return h.session.State() == flow.StateRegistered
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, h.shell.executeCommand(ctx, "login"))
	require.Eventually(t, func() bool {
		return h.session.State() == flow.StateAuthenticated
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, h.shell.executeCommand(ctx, "logout"))
	assert.Eventually(t, func() bool {
		return strings.Contains(h.out.String(), "Logged out")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, flow.StateRegistered, h.session.State())

	_, hasError := h.session.Authenticated().LastError()
	assert.False(t, hasError)

	h.redirector.mu.Lock()
	defer h.redirector.mu.Unlock()
	assert.Equal(t, []string{
		config.DefaultRedirectURI,
		config.DefaultRedirectURI,
		config.DefaultPostLogoutRedirectURI,
	}, h.redirector.redirectURIs)
}

func TestShell_RegisterFailureIsPrinted(t *testing.T) {
	h := newShellHarness(t)

	h.transport.EXPECT().FetchProviderMetadata(gomock.Any(), gomock.Any()).
		Return(nil, &oauth.ServerError{Kind: oauth.ErrDiscovery, Title: oauth.TitleDiscovery, Description: "connection refused"})

	require.NoError(t, h.shell.executeCommand(context.Background(), "register"))

	assert.Eventually(t, func() bool {
		out := h.out.String()
		return strings.Contains(out, oauth.TitleDiscovery) && strings.Contains(out, "connection refused")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, flow.StateUnregistered, h.session.State())
}

func TestBuildPrompt(t *testing.T) {
	h := newShellHarness(t)
	assert.Equal(t, "dcrclient [unregistered] » ", h.shell.buildPrompt())
}
