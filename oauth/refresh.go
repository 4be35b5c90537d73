// Package oauth provides token refresh scheduling for providers whose tokens
// are persisted in the oauth_tokens table. It performs jittered checks and
// refreshes when expiry falls within a configured window. Reads and writes go
// through the db helpers so encrypted-at-rest tokens round-trip correctly.
package oauth

import (
	"context"
	"database/sql"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/onnwee/standup/backend/db"
)

// RefreshFunc performs provider-specific refresh and returns (access, refresh, expiry, scope).
type RefreshFunc func(ctx context.Context, refreshToken string) (string, string, time.Time, string, error)

// StartRefresher launches a goroutine that periodically checks a provider's
// token row and refreshes it when its remaining lifetime drops inside window.
func StartRefresher(ctx context.Context, dbx *sql.DB, provider string, interval, window time.Duration, fn RefreshFunc) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	// Randomize initial delay to spread load across instances.
	//nolint:gosec // G404: math/rand is sufficient for scheduling jitter
	initialJitter := time.Duration(rand.Int63n(int64(interval / 2)))
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(initialJitter):
		}
		for {
			// Per-iteration jitter keeps replicas from checking in lockstep.
			jitterRange := int64(interval / 5)
			//nolint:gosec // G404: math/rand is sufficient for scheduling jitter
			jitter := time.Duration(rand.Int63n(jitterRange*2) - jitterRange)
			nextSleep := interval + jitter
			if nextSleep < interval/2 {
				nextSleep = interval / 2
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(nextSleep):
			}
			refreshOnce(ctx, dbx, provider, window, fn)
		}
	}()
}

func refreshOnce(ctx context.Context, dbx *sql.DB, provider string, window time.Duration, fn RefreshFunc) {
	_, rt, exp, scope, err := db.GetOAuthToken(ctx, dbx, provider)
	if err != nil {
		slog.Warn("token read failed", slog.String("provider", provider), slog.Any("err", err))
		return
	}
	if rt == "" {
		return
	}
	if time.Until(exp) > window {
		return
	}
	// Small pre-refresh jitter to avoid stampedes when replicas see the same expiry.
	//nolint:gosec // G404: math/rand is sufficient for jitter
	pre := time.Duration(rand.Int63n(int64(5 * time.Second)))
	select {
	case <-ctx.Done():
		return
	case <-time.After(pre):
	}
	refreshCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	newAT, newRT, newExp, newScope, err := fn(refreshCtx, rt)
	cancel()
	if err != nil {
		slog.Warn("token refresh failed", slog.String("provider", provider), slog.Any("err", err))
		return
	}
	if newRT == "" {
		newRT = rt
	}
	if newScope == "" {
		newScope = scope
	}
	if err := db.UpsertOAuthToken(ctx, dbx, provider, newAT, newRT, newExp, strings.TrimSpace(newScope)); err != nil {
		slog.Warn("token persist failed", slog.String("provider", provider), slog.Any("err", err))
		return
	}
	slog.Info("token refreshed", slog.String("provider", provider))
}
