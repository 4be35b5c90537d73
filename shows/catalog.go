// Package shows keeps the recorded-show catalog in Postgres in sync with the
// configured YouTube playlist. The sync is an upsert: rows are keyed by
// provider video id, so re-running is always safe.
package shows

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/onnwee/standup/backend/config"
	"github.com/onnwee/standup/backend/telemetry"
	"github.com/onnwee/standup/backend/youtubeapi"
)

// SyncOnce lists the playlist and upserts every video into the shows table.
func SyncOnce(ctx context.Context, db *sql.DB, svc *youtubeapi.Service, playlistID string) error {
	if playlistID == "" {
		return fmt.Errorf("no playlist configured")
	}
	client, err := svc.Client(ctx)
	if err != nil {
		return fmt.Errorf("youtube client: %w", err)
	}
	videos, err := youtubeapi.ListPlaylistVideos(ctx, client, playlistID)
	if err != nil {
		return err
	}
	upserted := 0
	for _, v := range videos {
		var published any
		if !v.PublishedAt.IsZero() {
			published = v.PublishedAt
		}
		_, err := db.ExecContext(ctx, `
			INSERT INTO shows (provider_video_id, title, description, url, published_at, created_at)
			VALUES ($1,$2,$3,$4,$5,NOW())
			ON CONFLICT (provider_video_id) DO UPDATE SET
				title=EXCLUDED.title,
				description=EXCLUDED.description,
				url=EXCLUDED.url,
				published_at=EXCLUDED.published_at,
				updated_at=NOW()`,
			v.VideoID, v.Title, v.Description, youtubeapi.WatchURL(v.VideoID), published)
		if err != nil {
			return fmt.Errorf("upsert show %s: %w", v.VideoID, err)
		}
		upserted++
	}
	slog.Info("show catalog synced", slog.Int("videos", upserted), slog.String("component", "shows"))
	return nil
}

// StartCatalogSyncJob periodically syncs the playlist into the catalog until
// ctx is cancelled. The first sync runs shortly after startup so a fresh
// deployment doesn't wait a full interval for content.
func StartCatalogSyncJob(ctx context.Context, db *sql.DB, cfg *config.Config, svc *youtubeapi.Service) {
	if cfg.YTPlaylistID == "" {
		slog.Info("catalog sync disabled (YT_PLAYLIST_ID empty)", slog.String("component", "shows"))
		return
	}
	interval := cfg.CatalogSyncInterval
	if interval <= 0 {
		interval = time.Hour
	}
	slog.Info("catalog sync job starting", slog.Duration("interval", interval), slog.String("playlist", cfg.YTPlaylistID))

	run := func() {
		telemetry.IncCatalogSyncRuns()
		syncCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		if err := SyncOnce(syncCtx, db, svc, cfg.YTPlaylistID); err != nil {
			telemetry.IncCatalogSyncErrors()
			slog.Warn("catalog sync failed", slog.Any("err", err), slog.String("component", "shows"))
		}
	}

	select {
	case <-ctx.Done():
		return
	case <-time.After(10 * time.Second):
		run()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
