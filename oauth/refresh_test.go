package oauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/onnwee/standup/backend/db"
	"github.com/onnwee/standup/backend/testutil"
)

func TestRefreshOnceOutsideWindow(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	if err := db.UpsertOAuthToken(ctx, database, "test-fresh", "access123", "refresh456", time.Now().Add(time.Hour), "scope1"); err != nil {
		t.Fatalf("failed to insert test token: %v", err)
	}

	called := false
	refreshOnce(ctx, database, "test-fresh", 30*time.Minute, func(ctx context.Context, rt string) (string, string, time.Time, string, error) {
		called = true
		return "new-access", "new-refresh", time.Now().Add(2 * time.Hour), "scope1", nil
	})
	if called {
		t.Error("refresh should not run for a token expiring in 1h with a 30m window")
	}
}

func TestRefreshOnceWithinWindow(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	if err := db.UpsertOAuthToken(ctx, database, "test-soon", "old-access", "old-refresh", time.Now().Add(5*time.Minute), "scope1"); err != nil {
		t.Fatalf("failed to insert test token: %v", err)
	}

	newExpiry := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	refreshOnce(ctx, database, "test-soon", 15*time.Minute, func(ctx context.Context, rt string) (string, string, time.Time, string, error) {
		if rt != "old-refresh" {
			t.Errorf("refresh func got token %q, want old-refresh", rt)
		}
		return "new-access", "new-refresh", newExpiry, "scope1", nil
	})

	access, refresh, _, _, err := db.GetOAuthToken(ctx, database, "test-soon")
	if err != nil {
		t.Fatalf("read back token: %v", err)
	}
	if access != "new-access" || refresh != "new-refresh" {
		t.Errorf("token not persisted: access=%q refresh=%q", access, refresh)
	}
}

func TestRefreshOnceKeepsOldOnFailure(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	if err := db.UpsertOAuthToken(ctx, database, "test-fail", "old-access", "old-refresh", time.Now().Add(time.Minute), "scope1"); err != nil {
		t.Fatalf("failed to insert test token: %v", err)
	}

	refreshOnce(ctx, database, "test-fail", 15*time.Minute, func(ctx context.Context, rt string) (string, string, time.Time, string, error) {
		return "", "", time.Time{}, "", errors.New("provider down")
	})

	access, refresh, _, _, err := db.GetOAuthToken(ctx, database, "test-fail")
	if err != nil {
		t.Fatalf("read back token: %v", err)
	}
	if access != "old-access" || refresh != "old-refresh" {
		t.Errorf("failed refresh must leave the row untouched: access=%q refresh=%q", access, refresh)
	}
}

func TestRefreshOnceNoRefreshToken(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	if err := db.UpsertOAuthToken(ctx, database, "test-norefresh", "access-only", "", time.Now().Add(time.Minute), ""); err != nil {
		t.Fatalf("failed to insert test token: %v", err)
	}

	refreshOnce(ctx, database, "test-norefresh", 15*time.Minute, func(ctx context.Context, rt string) (string, string, time.Time, string, error) {
		t.Error("refresh func must not be called without a refresh token")
		return "", "", time.Time{}, "", nil
	})
}
