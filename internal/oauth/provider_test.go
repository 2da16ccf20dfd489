package oauth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// fakeProvider is an httptest OpenID Provider. Handlers left nil answer 404.
type fakeProvider struct {
	server *httptest.Server

	discoveryHits atomic.Int32

	// omitRegistration drops registration_endpoint from discovery.
	omitRegistration bool
	// issuerOverride replaces the advertised issuer.
	issuerOverride string

	tokenHandler    http.HandlerFunc
	registerHandler http.HandlerFunc
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	p := &fakeProvider{}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", p.handleDiscovery)
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if p.tokenHandler == nil {
			http.NotFound(w, r)
			return
		}
		p.tokenHandler(w, r)
	})
	mux.HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
		if p.registerHandler == nil {
			http.NotFound(w, r)
			return
		}
		p.registerHandler(w, r)
	})

	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakeProvider) issuer() string {
	return p.server.URL
}

func (p *fakeProvider) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	p.discoveryHits.Add(1)

	issuer := p.issuer()
	if p.issuerOverride != "" {
		issuer = p.issuerOverride
	}
	doc := map[string]interface{}{
		"issuer":                           issuer,
		"authorization_endpoint":           p.issuer() + "/authorize",
		"token_endpoint":                   p.issuer() + "/token",
		"end_session_endpoint":             p.issuer() + "/logout",
		"jwks_uri":                         p.issuer() + "/jwks",
		"scopes_supported":                 []string{"openid", "profile", "dcr"},
		"code_challenge_methods_supported": []string{"S256"},
	}
	if !p.omitRegistration {
		doc["registration_endpoint"] = p.issuer() + "/register"
	}
	writeJSON(w, http.StatusOK, doc)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
