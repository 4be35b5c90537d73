// Package twitchapi contains minimal helpers for the Twitch Helix API: user id
// resolution and live stream status, using an app access (client credentials)
// token. The chat mirror uses these to decide when the channel is on the air.
package twitchapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// HelixClient provides the few Helix calls the mirror needs.
type HelixClient struct {
	AppTokenSource *TokenSource
	ClientID       string
	HTTPClient     *http.Client
}

func (hc *HelixClient) http() *http.Client {
	if hc.HTTPClient != nil {
		return hc.HTTPClient
	}
	return http.DefaultClient
}

func (hc *HelixClient) do(ctx context.Context, url string, query map[string]string, out any) error {
	tok, err := hc.AppTokenSource.Get(ctx)
	if err != nil {
		return err
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	q := req.URL.Query()
	for k, v := range query {
		q.Set(k, v)
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Client-Id", hc.ClientID)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := hc.http().Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("helix request failed: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetUserID resolves a login name to its user ID.
func (hc *HelixClient) GetUserID(ctx context.Context, login string) (string, error) {
	if login == "" {
		return "", fmt.Errorf("login empty")
	}
	var body struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := hc.do(ctx, "https://api.twitch.tv/helix/users", map[string]string{"login": login}, &body); err != nil {
		return "", err
	}
	if len(body.Data) == 0 {
		return "", fmt.Errorf("user not found")
	}
	return body.Data[0].ID, nil
}

// StreamMeta describes a currently live stream.
type StreamMeta struct {
	StartedAt time.Time
	ID        string
	Title     string
}

// GetStreams returns the live streams for a login. An empty slice means the
// channel is offline.
func (hc *HelixClient) GetStreams(ctx context.Context, login string) ([]StreamMeta, error) {
	if login == "" {
		return nil, fmt.Errorf("login empty")
	}
	var body struct {
		Data []struct {
			ID        string `json:"id"`
			Title     string `json:"title"`
			StartedAt string `json:"started_at"`
		} `json:"data"`
	}
	if err := hc.do(ctx, "https://api.twitch.tv/helix/streams", map[string]string{"user_login": login}, &body); err != nil {
		return nil, err
	}
	out := make([]StreamMeta, 0, len(body.Data))
	for _, s := range body.Data {
		started, _ := time.Parse(time.RFC3339, s.StartedAt)
		out = append(out, StreamMeta{ID: s.ID, Title: s.Title, StartedAt: started})
	}
	return out, nil
}
