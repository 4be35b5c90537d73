// Package youtubeapi wraps Google OAuth2 client config and the YouTube Data
// API for reading the recorded-show playlist. Tokens are persisted via the
// provided TokenStore interface so the catalog sync job can refresh and reuse
// them across restarts.
package youtubeapi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	yt "google.golang.org/api/youtube/v3"
	"google.golang.org/api/option"

	"github.com/onnwee/standup/backend/config"
)

const provider = "youtube"

// TokenStore persists OAuth tokens between runs.
type TokenStore interface {
	UpsertOAuthToken(ctx context.Context, provider string, accessToken string, refreshToken string, expiry time.Time, scope string) error
	GetOAuthToken(ctx context.Context, provider string) (accessToken string, refreshToken string, expiry time.Time, scope string, err error)
}

// Service holds the OAuth config and token store for YouTube API access.
type Service struct {
	cfg   *config.Config
	store TokenStore
	oauth *oauth2.Config
}

func New(cfg *config.Config, ts TokenStore) *Service {
	scopes := []string{"https://www.googleapis.com/auth/youtube.readonly"}
	if cfg.YTScopes != "" {
		// allow comma or space separated
		s := strings.ReplaceAll(cfg.YTScopes, ",", " ")
		if fields := strings.Fields(s); len(fields) > 0 {
			scopes = fields
		}
	}
	oauth := &oauth2.Config{
		ClientID:     cfg.YTClientID,
		ClientSecret: cfg.YTClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.YTRedirectURI,
		Scopes:       scopes,
	}
	return &Service{cfg: cfg, store: ts, oauth: oauth}
}

// AuthCodeURL builds the consent URL for the one-time operator auth flow.
func (s *Service) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange swaps an auth code for tokens and persists them.
func (s *Service) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	scope := strings.Join(s.oauth.Scopes, " ")
	if err := s.store.UpsertOAuthToken(ctx, provider, tok.AccessToken, tok.RefreshToken, tok.Expiry, scope); err != nil {
		return nil, fmt.Errorf("persist youtube token: %w", err)
	}
	return tok, nil
}

func (s *Service) refreshIfNeeded(ctx context.Context) (*oauth2.Token, error) {
	access, refresh, expiry, scope, err := s.store.GetOAuthToken(ctx, provider)
	if err != nil {
		return nil, err
	}
	if access == "" && refresh == "" {
		return nil, errors.New("no youtube token stored")
	}
	tok := &oauth2.Token{AccessToken: access, RefreshToken: refresh, Expiry: expiry}
	if tok.AccessToken != "" && time.Until(tok.Expiry) > 2*time.Minute {
		return tok, nil
	}
	newTok, err := s.oauth.TokenSource(ctx, tok).Token()
	if err != nil {
		return tok, err
	}
	if newTok.AccessToken != tok.AccessToken {
		_ = s.store.UpsertOAuthToken(ctx, provider, newTok.AccessToken, newTok.RefreshToken, newTok.Expiry, scope)
	}
	return newTok, nil
}

// Client returns an authenticated YouTube Data API service.
func (s *Service) Client(ctx context.Context) (*yt.Service, error) {
	tok, err := s.refreshIfNeeded(ctx)
	if err != nil {
		return nil, err
	}
	httpClient := s.oauth.Client(ctx, tok)
	return yt.NewService(ctx, option.WithHTTPClient(httpClient))
}

// PlaylistVideo is one recorded show as listed in the source playlist.
type PlaylistVideo struct {
	PublishedAt time.Time
	VideoID     string
	Title       string
	Description string
}

// ListPlaylistVideos pages through a playlist and returns its videos,
// newest-first as the API yields them. A nil service is an error, an empty
// playlist id returns nothing.
func ListPlaylistVideos(ctx context.Context, svc *yt.Service, playlistID string) ([]PlaylistVideo, error) {
	if svc == nil {
		return nil, fmt.Errorf("nil youtube service")
	}
	if playlistID == "" {
		return nil, nil
	}
	var out []PlaylistVideo
	pageToken := ""
	for {
		call := svc.PlaylistItems.List([]string{"snippet", "contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(50).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("youtube playlist list: %w", err)
		}
		for _, item := range resp.Items {
			if item.Snippet == nil || item.ContentDetails == nil {
				continue
			}
			published, _ := time.Parse(time.RFC3339, item.ContentDetails.VideoPublishedAt)
			out = append(out, PlaylistVideo{
				VideoID:     item.ContentDetails.VideoId,
				Title:       item.Snippet.Title,
				Description: item.Snippet.Description,
				PublishedAt: published,
			})
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	return out, nil
}

// WatchURL is the public URL for a playlist video.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
