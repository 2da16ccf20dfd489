package authstate

import (
	"context"
	"errors"
	"testing"
	"time"

	"dcrclient/internal/storage"
	pkgoauth "dcrclient/pkg/oauth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingKV struct {
	storage.KeyValueStore
	putErr error
}

func (f *failingKV) PutString(context.Context, string, string) error { return f.putErr }

func testMetadata() *pkgoauth.Metadata {
	return &pkgoauth.Metadata{
		Issuer:                "https://idsvr.example.com",
		AuthorizationEndpoint: "https://idsvr.example.com/authorize",
		TokenEndpoint:         "https://idsvr.example.com/token",
		RegistrationEndpoint:  "https://idsvr.example.com/register",
		EndSessionEndpoint:    "https://idsvr.example.com/logout",
	}
}

func testRegistration() *pkgoauth.ClientRegistration {
	return &pkgoauth.ClientRegistration{
		ClientID:     "dyn-client-1",
		ClientSecret: "s3cret",
		RedirectURIs: []string{"http://127.0.0.1:3000/callback"},
		Scope:        "openid profile",
		Issuer:       "https://idsvr.example.com",
	}
}

func registeredStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := Load(ctx, storage.NewMemoryStore())
	require.NoError(t, err)
	s.SetMetadata(testMetadata())
	require.NoError(t, s.SaveRegistration(ctx, testRegistration()))
	return s
}

func TestLoad_FreshInstall(t *testing.T) {
	s, err := Load(context.Background(), storage.NewMemoryStore())
	require.NoError(t, err)

	assert.True(t, s.IsFirstRun())
	assert.Nil(t, s.Registration())
	assert.Nil(t, s.Metadata())
	assert.Nil(t, s.Tokens())
}

func TestLoad_PersistedRegistration(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()

	first, err := Load(ctx, kv)
	require.NoError(t, err)
	require.NoError(t, first.SaveRegistration(ctx, testRegistration()))
	assert.True(t, first.IsFirstRun(), "saving a registration does not end the first run")

	second, err := Load(ctx, kv)
	require.NoError(t, err)
	assert.False(t, second.IsFirstRun())
	assert.Equal(t, testRegistration(), second.Registration())
	assert.Nil(t, second.Metadata(), "metadata is not persisted")
	assert.Nil(t, second.Tokens(), "tokens are not persisted")
}

func TestLoad_CorruptRegistration(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	require.NoError(t, kv.PutString(ctx, RegistrationKey, "{not json"))

	_, err := Load(ctx, kv)
	assert.ErrorIs(t, err, ErrCorruptRegistration)
}

func TestSaveTokens_KeepsCachedIDToken(t *testing.T) {
	s := registeredStore(t)

	require.NoError(t, s.SaveTokens(&pkgoauth.Token{AccessToken: "at1", RefreshToken: "rt1", IDToken: "X"}))
	require.NoError(t, s.SaveTokens(&pkgoauth.Token{AccessToken: "at2", RefreshToken: "rt2"}))

	assert.Equal(t, "X", s.IDToken())
	tok := s.Tokens()
	require.NotNil(t, tok)
	assert.Equal(t, "at2", tok.AccessToken)
	assert.Equal(t, "rt2", tok.RefreshToken)
	assert.Equal(t, "X", tok.IDToken)

	require.NoError(t, s.SaveTokens(&pkgoauth.Token{AccessToken: "at3", IDToken: "Y"}))
	assert.Equal(t, "Y", s.IDToken())
}

func TestSaveTokens_RequiresRegistrationAndMetadata(t *testing.T) {
	ctx := context.Background()
	s, err := Load(ctx, storage.NewMemoryStore())
	require.NoError(t, err)

	assert.ErrorIs(t, s.SaveTokens(&pkgoauth.Token{AccessToken: "at"}), ErrNotRegistered)

	s.SetMetadata(testMetadata())
	assert.ErrorIs(t, s.SaveTokens(&pkgoauth.Token{AccessToken: "at"}), ErrNotRegistered)

	require.NoError(t, s.SaveRegistration(ctx, testRegistration()))
	assert.NoError(t, s.SaveTokens(&pkgoauth.Token{AccessToken: "at"}))
}

func TestClearTokens_KeepsRegistrationAndMetadata(t *testing.T) {
	s := registeredStore(t)
	require.NoError(t, s.SaveTokens(&pkgoauth.Token{AccessToken: "at", IDToken: "X"}))

	s.ClearTokens()

	assert.Nil(t, s.Tokens())
	assert.Empty(t, s.IDToken())
	assert.Equal(t, testMetadata(), s.Metadata())
	assert.Equal(t, testRegistration(), s.Registration())
}

func TestSaveRegistration_KeepsTokens(t *testing.T) {
	ctx := context.Background()
	s := registeredStore(t)
	tok := &pkgoauth.Token{AccessToken: "at", RefreshToken: "rt", IDToken: "X", ExpiresAt: time.Now().Add(time.Hour).Round(0)}
	require.NoError(t, s.SaveTokens(tok))

	replacement := testRegistration()
	replacement.ClientID = "dyn-client-2"
	require.NoError(t, s.SaveRegistration(ctx, replacement))

	assert.Equal(t, tok, s.Tokens())
	assert.Equal(t, "dyn-client-2", s.Registration().ClientID)
}

func TestSaveRegistration_WriteFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{KeyValueStore: storage.NewMemoryStore(), putErr: errors.New("disk full")}

	s, err := Load(ctx, kv)
	require.NoError(t, err)

	err = s.SaveRegistration(ctx, testRegistration())
	require.Error(t, err)
	assert.Nil(t, s.Registration())
	assert.True(t, s.IsFirstRun())
}

func TestSaveRegistration_RequiresClientID(t *testing.T) {
	s, err := Load(context.Background(), storage.NewMemoryStore())
	require.NoError(t, err)
	assert.Error(t, s.SaveRegistration(context.Background(), &pkgoauth.ClientRegistration{}))
}

func TestCompleteFirstRun_FlipsOnce(t *testing.T) {
	s, err := Load(context.Background(), storage.NewMemoryStore())
	require.NoError(t, err)

	assert.True(t, s.CompleteFirstRun())
	assert.False(t, s.IsFirstRun())
	assert.False(t, s.CompleteFirstRun())
	assert.False(t, s.IsFirstRun())
}

func TestSetMetadata_ReturnsCopies(t *testing.T) {
	s := registeredStore(t)

	md := s.Metadata()
	md.TokenEndpoint = "https://evil.example.com/token"
	assert.Equal(t, testMetadata().TokenEndpoint, s.Metadata().TokenEndpoint)

	reg := s.Registration()
	reg.RedirectURIs[0] = "http://127.0.0.1:9999/other"
	assert.Equal(t, testRegistration().RedirectURIs, s.Registration().RedirectURIs)
}

func TestDeleteRegistration(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()

	s, err := Load(ctx, kv)
	require.NoError(t, err)
	s.SetMetadata(testMetadata())
	require.NoError(t, s.SaveRegistration(ctx, testRegistration()))
	s.CompleteFirstRun()
	require.NoError(t, s.SaveTokens(&pkgoauth.Token{AccessToken: "at", IDToken: "X"}))

	require.NoError(t, s.DeleteRegistration(ctx))

	snap := s.Snapshot()
	assert.Nil(t, snap.Registration)
	assert.Nil(t, snap.Metadata)
	assert.Nil(t, snap.Tokens)
	assert.Empty(t, snap.IDToken)
	assert.True(t, snap.IsFirstRun)

	_, found, err := kv.GetString(ctx, RegistrationKey)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSnapshot(t *testing.T) {
	s := registeredStore(t)
	require.NoError(t, s.SaveTokens(&pkgoauth.Token{AccessToken: "at", IDToken: "X"}))

	snap := s.Snapshot()
	assert.Equal(t, testMetadata(), snap.Metadata)
	assert.Equal(t, testRegistration(), snap.Registration)
	require.NotNil(t, snap.Tokens)
	assert.Equal(t, "at", snap.Tokens.AccessToken)
	assert.Equal(t, "X", snap.Tokens.IDToken)
	assert.Equal(t, "X", snap.IDToken)
	assert.True(t, snap.IsFirstRun)
}
