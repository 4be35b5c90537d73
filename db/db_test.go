package db

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set; skipping postgres test")
	}
	database, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := Migrate(context.Background(), database); err != nil {
		database.Close()
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestMigrateIdempotent(t *testing.T) {
	database := setupTestDB(t)
	// Running migrations twice must not fail.
	if err := Migrate(context.Background(), database); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestLiveDetailsRoundTrip(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	want := LiveDetails{
		NextShowTime: time.Date(2026, 3, 5, 17, 30, 0, 0, time.UTC),
		EmbedURL:     "https://www.youtube.com/embed/live_stream?channel=demo",
	}
	if err := SetLiveDetails(ctx, database, want); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := GetLiveDetails(ctx, database)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.NextShowTime.Equal(want.NextShowTime) || got.EmbedURL != want.EmbedURL {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestLiveDetailsMissingKeys(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	if _, err := database.ExecContext(ctx, `DELETE FROM kv WHERE key LIKE 'live:%'`); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	got, err := GetLiveDetails(ctx, database)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.NextShowTime.IsZero() || got.EmbedURL != "" {
		t.Errorf("expected zero details, got %+v", got)
	}
}

func TestOAuthTokenRoundTrip(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	if err := UpsertOAuthToken(ctx, database, "youtube-test", "access-1", "refresh-1", expiry, "scope-a"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	access, refresh, gotExpiry, scope, err := GetOAuthToken(ctx, database, "youtube-test")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if access != "access-1" || refresh != "refresh-1" || scope != "scope-a" {
		t.Errorf("token fields = %q %q %q", access, refresh, scope)
	}
	if !gotExpiry.Equal(expiry) {
		t.Errorf("expiry = %v, want %v", gotExpiry, expiry)
	}
}

func TestGetOAuthTokenMissing(t *testing.T) {
	database := setupTestDB(t)
	access, refresh, expiry, scope, err := GetOAuthToken(context.Background(), database, "nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if access != "" || refresh != "" || scope != "" || !expiry.IsZero() {
		t.Errorf("expected zero values for missing provider")
	}
}
