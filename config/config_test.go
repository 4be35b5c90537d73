package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SHOW_NAME", "")
	t.Setenv("DB_DSN", "")
	t.Setenv("CATALOG_SYNC_INTERVAL", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ShowName == "" {
		t.Errorf("expected default show name, got empty")
	}
	if cfg.DBDsn == "" {
		t.Errorf("expected default dsn, got empty")
	}
	if cfg.CatalogSyncInterval != time.Hour {
		t.Errorf("CatalogSyncInterval = %v, want 1h", cfg.CatalogSyncInterval)
	}
}

func TestLoadNextShowTime(t *testing.T) {
	t.Setenv("NEXT_SHOW_TIME", "2026-02-04T17:00:00Z")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := time.Date(2026, 2, 4, 17, 0, 0, 0, time.UTC)
	if !cfg.NextShowTime.Equal(want) {
		t.Errorf("NextShowTime = %v, want %v", cfg.NextShowTime, want)
	}

	t.Setenv("NEXT_SHOW_TIME", "tomorrow-ish")
	if _, err := Load(); err == nil {
		t.Errorf("expected error for malformed NEXT_SHOW_TIME")
	}
}

func TestLoadBadSyncInterval(t *testing.T) {
	t.Setenv("CATALOG_SYNC_INTERVAL", "not-a-duration")
	if _, err := Load(); err == nil {
		t.Errorf("expected error for malformed CATALOG_SYNC_INTERVAL")
	}
}

func TestValidateMirrorReady(t *testing.T) {
	t.Setenv("TWITCH_CHANNEL", "chan")
	t.Setenv("TWITCH_BOT_USERNAME", "bot")
	t.Setenv("TWITCH_OAUTH_TOKEN", "oauth:token")
	cfg, _ := Load()
	if err := cfg.ValidateMirrorReady(); err != nil {
		t.Errorf("expected valid mirror config, got %v", err)
	}
	if err := os.Unsetenv("TWITCH_CHANNEL"); err != nil {
		t.Fatalf("failed to unset TWITCH_CHANNEL: %v", err)
	}
	cfg, _ = Load()
	if err := cfg.ValidateMirrorReady(); err == nil {
		t.Errorf("expected error when missing twitch envs")
	}
}
