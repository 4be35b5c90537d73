package chat

import (
	"context"
	"log/slog"
	"time"

	twitch "github.com/gempir/go-twitch-irc/v4"

	"github.com/onnwee/standup/backend/config"
	"github.com/onnwee/standup/backend/onair"
	"github.com/onnwee/standup/backend/telemetry"
	"github.com/onnwee/standup/backend/twitchapi"
)

// mirrorIdentity is the identity mirrored messages carry into the sanitizer.
// Twitch chatters are signed in on their side, so their lines render with the
// same emphasis as site-authenticated users.
var mirrorIdentity = onair.Identity{Authenticated: true}

// StartMirror connects to the channel's IRC chat and copies every message
// into the on-air board until ctx is cancelled. Blocks for the lifetime of
// the connection.
func StartMirror(ctx context.Context, cfg *config.Config, store *onair.Store, hub *onair.Hub) {
	if err := cfg.ValidateMirrorReady(); err != nil {
		slog.Info("chat mirror disabled", slog.Any("reason", err))
		return
	}
	client := twitch.NewClient(cfg.TwitchBotUsername, cfg.TwitchOAuthToken)

	client.OnPrivateMessage(func(msg twitch.PrivateMessage) {
		name := msg.User.DisplayName
		if name == "" {
			name = msg.User.Name
		}
		author, text := onair.Sanitize(mirrorIdentity, name, msg.Message)
		if m, ok := store.AddMessage(author, text); ok {
			telemetry.IncMessages()
			if hub != nil {
				hub.NotifyMessage(m)
			}
		}
	})

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		client.Disconnect()
		close(done)
	}()

	client.Join(cfg.TwitchChannel)
	slog.Info("chat mirror connecting", slog.String("channel", cfg.TwitchChannel))
	if err := client.Connect(); err != nil && ctx.Err() == nil {
		slog.Error("chat mirror connect error", slog.Any("err", err))
	}
	<-done
}

// StartAutoMirror polls Twitch stream status and runs the mirror only while
// the channel is live. Poll interval defaults to 30s; override with
// cfg-independent env knob CHAT_AUTO_POLL_INTERVAL upstream if needed.
func StartAutoMirror(ctx context.Context, cfg *config.Config, store *onair.Store, hub *onair.Hub, pollEvery time.Duration) {
	if cfg.TwitchChannel == "" {
		slog.Info("auto mirror disabled (TWITCH_CHANNEL empty)")
		return
	}
	if cfg.TwitchClientID == "" || cfg.TwitchClientSecret == "" {
		slog.Info("auto mirror disabled (missing twitch client id/secret)")
		return
	}
	if pollEvery <= 0 {
		pollEvery = 30 * time.Second
	}

	helix := &twitchapi.HelixClient{
		AppTokenSource: &twitchapi.TokenSource{ClientID: cfg.TwitchClientID, ClientSecret: cfg.TwitchClientSecret},
		ClientID:       cfg.TwitchClientID,
	}

	var mirrorCancel context.CancelFunc
	running := false

	ticker := time.NewTicker(pollEvery)
	defer ticker.Stop()
	slog.Info("auto mirror poller started", slog.Duration("interval", pollEvery), slog.String("channel", cfg.TwitchChannel))
	for {
		streams, err := helix.GetStreams(ctx, cfg.TwitchChannel)
		switch {
		case err != nil:
			slog.Debug("auto mirror live check failed", slog.Any("err", err))
		case len(streams) == 0 && running:
			slog.Info("auto mirror: stream ended; stopping mirror")
			mirrorCancel()
			mirrorCancel = nil
			running = false
		case len(streams) > 0 && !running:
			slog.Info("auto mirror: stream live; starting mirror",
				slog.String("title", streams[0].Title),
				slog.Time("started_at", streams[0].StartedAt))
			mirrorCtx, cancel := context.WithCancel(ctx)
			mirrorCancel = cancel
			running = true
			go func() {
				StartMirror(mirrorCtx, cfg, store, hub)
				slog.Info("auto mirror: mirror goroutine exited")
			}()
		}
		select {
		case <-ctx.Done():
			if mirrorCancel != nil {
				mirrorCancel()
			}
			return
		case <-ticker.C:
		}
	}
}
