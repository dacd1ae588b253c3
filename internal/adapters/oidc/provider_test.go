package oidc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/onboard-ui/internal/ports"
)

// newIdP serves discovery, token and userinfo endpoints.
func newIdP(t *testing.T, userinfo map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                 srv.URL,
			"authorization_endpoint": srv.URL + "/auth",
			"token_endpoint":         srv.URL + "/token",
			"userinfo_endpoint":      srv.URL + "/userinfo",
			"jwks_uri":               srv.URL + "/jwks",
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-123",
			"token_type":   "Bearer",
			"expires_in":   1800,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(userinfo)
	})
	return srv
}

func testConfig(discovery, scope string) ProviderConfig {
	return ProviderConfig{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		RedirectURL:  "http://localhost:8080/auth/sso/callback",
		Scope:        scope,
		DiscoveryURL: discovery,
	}
}

func TestNewProvider_Success(t *testing.T) {
	srv := newIdP(t, nil)

	p, err := NewProvider(context.Background(), testConfig(srv.URL+"/.well-known/openid-configuration", ""))
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/auth", p.config.Endpoint.AuthURL)
	assert.Equal(t, srv.URL+"/token", p.config.Endpoint.TokenURL)
	assert.Equal(t, []string{"openid", "email", "profile"}, p.config.Scopes)
}

func TestNewProvider_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProviderConfig)
		errMsg string
	}{
		{"missing client ID", func(c *ProviderConfig) { c.ClientID = "" }, "client ID is required"},
		{"missing client secret", func(c *ProviderConfig) { c.ClientSecret = "" }, "client secret is required"},
		{"missing redirect URL", func(c *ProviderConfig) { c.RedirectURL = "" }, "redirect URL is required"},
		{"missing discovery URL", func(c *ProviderConfig) { c.DiscoveryURL = "" }, "discovery URL is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig("http://example.com", "")
			tt.mutate(&cfg)
			_, err := NewProvider(context.Background(), cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestProvider_Begin(t *testing.T) {
	srv := newIdP(t, nil)
	p, err := NewProvider(context.Background(), testConfig(srv.URL, ""))
	require.NoError(t, err)

	authURL, state, nonce, err := p.Begin(context.Background(), ports.BeginInput{RedirectURL: "http://localhost:8080/auth/sso/callback"})
	require.NoError(t, err)
	assert.Len(t, state, 32)
	assert.Len(t, nonce, 32)
	assert.Contains(t, authURL, srv.URL+"/auth")
	assert.Contains(t, authURL, "client_id=test-client")
	assert.Contains(t, authURL, "state="+state)
	assert.Contains(t, authURL, "nonce="+nonce)

	_, _, _, err = p.Begin(context.Background(), ports.BeginInput{})
	require.Error(t, err)
}

func TestProvider_ExchangeViaUserInfo(t *testing.T) {
	srv := newIdP(t, map[string]any{
		"sub":                "subject-1",
		"email":              "Ada@Example.com",
		"preferred_username": "ada",
	})
	// Without the openid scope there is no id_token; identity comes from userinfo.
	p, err := NewProvider(context.Background(), testConfig(srv.URL, "email profile"))
	require.NoError(t, err)

	id, err := p.Exchange(context.Background(), ports.ExchangeInput{Code: "code", State: "s", Nonce: "n"})
	require.NoError(t, err)
	assert.Equal(t, "subject-1", id.UserID)
	assert.Equal(t, "ada@example.com", id.Email)
	assert.Equal(t, "ada", id.Name)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), id.ExpiresAt, time.Minute)
}

func TestProvider_ExchangeMissingSubject(t *testing.T) {
	srv := newIdP(t, map[string]any{"email": "x@example.com"})
	p, err := NewProvider(context.Background(), testConfig(srv.URL, "email"))
	require.NoError(t, err)

	_, err = p.Exchange(context.Background(), ports.ExchangeInput{Code: "code", State: "s", Nonce: "n"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no subject")
}

func TestProvider_ExchangeValidation(t *testing.T) {
	p := &Provider{}
	for _, in := range []ports.ExchangeInput{
		{State: "s", Nonce: "n"},
		{Code: "c", Nonce: "n"},
		{Code: "c", State: "s"},
	} {
		_, err := p.Exchange(context.Background(), in)
		assert.Error(t, err)
	}
}

func TestIssuerFromDiscovery(t *testing.T) {
	assert.Equal(t, "https://idp.example.com", issuerFromDiscovery("https://idp.example.com/.well-known/openid-configuration"))
	assert.Equal(t, "https://idp.example.com", issuerFromDiscovery("https://idp.example.com/"))
	assert.Equal(t, "https://idp.example.com/tenant", issuerFromDiscovery("https://idp.example.com/tenant"))
}

func TestClaimsMerge(t *testing.T) {
	c := claims{Subject: "a"}
	c.merge(claims{Subject: "b", Email: "e@example.com", Name: "N"})
	assert.Equal(t, claims{Subject: "a", Email: "e@example.com", Name: "N"}, c)
}

func TestIDTokenFrom(t *testing.T) {
	_, err := idTokenFrom(nil)
	require.Error(t, err)
}

func TestRandomToken(t *testing.T) {
	for _, n := range []int{1, 7, 24, 32} {
		s, err := randomToken(n)
		require.NoError(t, err)
		assert.Len(t, s, n)
	}
	s, err := randomToken(0)
	require.NoError(t, err)
	assert.Empty(t, s)
}
