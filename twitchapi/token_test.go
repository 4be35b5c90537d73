package twitchapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// rewriteTransport redirects all requests to the test server regardless of
// the original host.
type rewriteTransport struct{ host string }

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	target := t.host + req.URL.Path
	if req.URL.RawQuery != "" {
		target += "?" + req.URL.RawQuery
	}
	newReq, err := http.NewRequestWithContext(req.Context(), req.Method, target, req.Body)
	if err != nil {
		return nil, err
	}
	newReq.Header = req.Header
	return http.DefaultTransport.RoundTrip(newReq)
}

func TestTokenSourceCachesToken(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-abc",
			"expires_in":   3600,
			"token_type":   "bearer",
		})
	}))
	defer server.Close()

	ts := &TokenSource{
		ClientID:     "id",
		ClientSecret: "secret",
		HTTPClient:   &http.Client{Transport: &rewriteTransport{host: server.URL}},
	}

	ctx := context.Background()
	tok, err := ts.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if tok != "tok-abc" {
		t.Errorf("Get() = %q, want tok-abc", tok)
	}
	if _, err := ts.Get(ctx); err != nil {
		t.Fatalf("second Get() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 token request, got %d", calls)
	}
}

func TestTokenSourceMissingCredentials(t *testing.T) {
	ts := &TokenSource{}
	if _, err := ts.Get(context.Background()); err == nil || !strings.Contains(err.Error(), "missing client id/secret") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}
}

func TestTokenSourceErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid client"}`, http.StatusForbidden)
	}))
	defer server.Close()

	ts := &TokenSource{
		ClientID:     "id",
		ClientSecret: "bad",
		HTTPClient:   &http.Client{Transport: &rewriteTransport{host: server.URL}},
	}
	if _, err := ts.Get(context.Background()); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}
