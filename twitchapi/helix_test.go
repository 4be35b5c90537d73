package twitchapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestHelix(t *testing.T, handler http.HandlerFunc) (*HelixClient, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	client := &http.Client{Transport: &rewriteTransport{host: server.URL}}
	hc := &HelixClient{
		AppTokenSource: &TokenSource{ClientID: "id", ClientSecret: "secret", HTTPClient: client},
		ClientID:       "id",
		HTTPClient:     client,
	}
	return hc, server.Close
}

func helixHandler(t *testing.T, routes map[string]any) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth2/token" {
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
			return
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(body)
	}
}

func TestGetUserID(t *testing.T) {
	hc, done := newTestHelix(t, helixHandler(t, map[string]any{
		"/helix/users": map[string]any{"data": []map[string]string{{"id": "12345", "login": "host"}}},
	}))
	defer done()

	id, err := hc.GetUserID(context.Background(), "host")
	if err != nil {
		t.Fatalf("GetUserID() error = %v", err)
	}
	if id != "12345" {
		t.Errorf("GetUserID() = %q, want 12345", id)
	}
}

func TestGetUserIDNotFound(t *testing.T) {
	hc, done := newTestHelix(t, helixHandler(t, map[string]any{
		"/helix/users": map[string]any{"data": []map[string]string{}},
	}))
	defer done()

	if _, err := hc.GetUserID(context.Background(), "ghost"); err == nil {
		t.Fatal("expected error for unknown user")
	}
}

func TestGetStreamsLive(t *testing.T) {
	started := time.Date(2026, 2, 3, 20, 0, 0, 0, time.UTC)
	hc, done := newTestHelix(t, helixHandler(t, map[string]any{
		"/helix/streams": map[string]any{"data": []map[string]string{
			{"id": "999", "title": "episode 12", "started_at": started.Format(time.RFC3339)},
		}},
	}))
	defer done()

	streams, err := hc.GetStreams(context.Background(), "host")
	if err != nil {
		t.Fatalf("GetStreams() error = %v", err)
	}
	if len(streams) != 1 {
		t.Fatalf("expected 1 stream, got %d", len(streams))
	}
	if streams[0].Title != "episode 12" || !streams[0].StartedAt.Equal(started) {
		t.Errorf("unexpected stream meta: %+v", streams[0])
	}
}

func TestGetStreamsOffline(t *testing.T) {
	hc, done := newTestHelix(t, helixHandler(t, map[string]any{
		"/helix/streams": map[string]any{"data": []map[string]string{}},
	}))
	defer done()

	streams, err := hc.GetStreams(context.Background(), "host")
	if err != nil {
		t.Fatalf("GetStreams() error = %v", err)
	}
	if len(streams) != 0 {
		t.Errorf("expected offline (0 streams), got %d", len(streams))
	}
}
