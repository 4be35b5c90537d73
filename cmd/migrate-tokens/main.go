// Command migrate-tokens encrypts OAuth token rows that were stored before
// ENCRYPTION_KEY was configured. Rows with encryption_version=0 (plaintext)
// are rewritten as version=1 (AES-256-GCM).
//
// Usage:
//
//	migrate-tokens [--dry-run]
//
// Environment:
//
//	DB_DSN          Database connection string (required)
//	ENCRYPTION_KEY  Base64-encoded 32-byte key (required)
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/onnwee/standup/backend/crypto"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "show what would be migrated without making changes")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		slog.Error("DB_DSN environment variable is required")
		os.Exit(1)
	}
	key := os.Getenv("ENCRYPTION_KEY")
	if key == "" {
		slog.Error("ENCRYPTION_KEY environment variable is required for migration")
		os.Exit(1)
	}
	enc, err := crypto.NewAESEncryptor(key)
	if err != nil {
		slog.Error("failed to initialize encryptor", slog.Any("error", err))
		os.Exit(1)
	}

	database, err := sql.Open("pgx", dsn)
	if err != nil {
		slog.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer database.Close()

	ctx := context.Background()
	if err := database.PingContext(ctx); err != nil {
		slog.Error("failed to ping database", slog.Any("error", err))
		os.Exit(1)
	}

	if err := migrateTokens(ctx, database, enc, *dryRun); err != nil {
		slog.Error("migration failed", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("migration completed successfully")
}

// migrateTokens encrypts every plaintext row in oauth_tokens.
func migrateTokens(ctx context.Context, database *sql.DB, enc crypto.Encryptor, dryRun bool) error {
	rows, err := database.QueryContext(ctx, `
		SELECT provider, COALESCE(access_token,''), COALESCE(refresh_token,'')
		FROM oauth_tokens
		WHERE COALESCE(encryption_version, 0) = 0
		ORDER BY provider`)
	if err != nil {
		return fmt.Errorf("query plaintext tokens: %w", err)
	}
	defer rows.Close()

	type row struct{ provider, access, refresh string }
	var pending []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.provider, &r.access, &r.refresh); err != nil {
			return fmt.Errorf("scan token row: %w", err)
		}
		pending = append(pending, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate token rows: %w", err)
	}
	if len(pending) == 0 {
		slog.Info("no plaintext tokens found to migrate")
		return nil
	}
	slog.Info("found plaintext tokens to migrate", slog.Int("count", len(pending)), slog.Bool("dry_run", dryRun))

	errorCount := 0
	for _, r := range pending {
		logger := slog.With(slog.String("provider", r.provider))
		if dryRun {
			logger.Info("would migrate token (dry-run)")
			continue
		}
		encAccess, encRefresh := r.access, r.refresh
		if r.access != "" {
			if encAccess, err = crypto.EncryptString(enc, r.access); err != nil {
				logger.Error("encrypt access token", slog.Any("error", err))
				errorCount++
				continue
			}
		}
		if r.refresh != "" {
			if encRefresh, err = crypto.EncryptString(enc, r.refresh); err != nil {
				logger.Error("encrypt refresh token", slog.Any("error", err))
				errorCount++
				continue
			}
		}
		_, err := database.ExecContext(ctx, `
			UPDATE oauth_tokens
			SET access_token=$1, refresh_token=$2, encryption_version=1, encryption_key_id='default', updated_at=NOW()
			WHERE provider=$3 AND COALESCE(encryption_version, 0) = 0`,
			encAccess, encRefresh, r.provider)
		if err != nil {
			logger.Error("persist encrypted token", slog.Any("error", err))
			errorCount++
			continue
		}
		logger.Info("migrated token")
	}
	if errorCount > 0 {
		return fmt.Errorf("migration completed with %d errors", errorCount)
	}
	return nil
}
