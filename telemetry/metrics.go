// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	MessagesTotal     prometheus.Counter
	QuestionsTotal    prometheus.Counter
	VotesTotal        prometheus.Counter
	ModerationUpdates prometheus.Counter
	CatalogSyncRuns   prometheus.Counter
	CatalogSyncErrors prometheus.Counter

	// Histograms (seconds)
	PollDuration prometheus.Observer

	// Gauges
	ConnectedClientsGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		MessagesTotal = promauto.NewCounter(prometheus.CounterOpts{Name: "onair_messages_total", Help: "Chat messages accepted into the on-air board"})
		QuestionsTotal = promauto.NewCounter(prometheus.CounterOpts{Name: "onair_questions_total", Help: "Questions accepted into the on-air board"})
		VotesTotal = promauto.NewCounter(prometheus.CounterOpts{Name: "onair_votes_total", Help: "Question votes accepted"})
		ModerationUpdates = promauto.NewCounter(prometheus.CounterOpts{Name: "onair_moderation_updates_total", Help: "Question state transitions applied by moderators"})
		CatalogSyncRuns = promauto.NewCounter(prometheus.CounterOpts{Name: "shows_catalog_sync_runs_total", Help: "Show catalog sync cycles"})
		CatalogSyncErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "shows_catalog_sync_errors_total", Help: "Show catalog sync cycles that failed"})
		PollDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "onair_poll_duration_seconds", Help: "getdata poll handling duration seconds", Buckets: prometheus.DefBuckets})
		ConnectedClientsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "onair_connected_clients", Help: "Currently connected push-channel clients"})
	})
}

// IncMessages bumps the accepted-message counter if metrics are initialized.
func IncMessages() {
	if MessagesTotal != nil {
		MessagesTotal.Inc()
	}
}

// IncQuestions bumps the accepted-question counter if metrics are initialized.
func IncQuestions() {
	if QuestionsTotal != nil {
		QuestionsTotal.Inc()
	}
}

// IncVotes bumps the vote counter if metrics are initialized.
func IncVotes() {
	if VotesTotal != nil {
		VotesTotal.Inc()
	}
}

// IncModerationUpdates bumps the transition counter if metrics are initialized.
func IncModerationUpdates() {
	if ModerationUpdates != nil {
		ModerationUpdates.Inc()
	}
}

// IncCatalogSyncRuns bumps the sync-cycle counter if metrics are initialized.
func IncCatalogSyncRuns() {
	if CatalogSyncRuns != nil {
		CatalogSyncRuns.Inc()
	}
}

// IncCatalogSyncErrors bumps the failed-sync counter if metrics are initialized.
func IncCatalogSyncErrors() {
	if CatalogSyncErrors != nil {
		CatalogSyncErrors.Inc()
	}
}

// SetConnectedClients records the current push-channel connection count.
func SetConnectedClients(n int) {
	if ConnectedClientsGauge != nil {
		ConnectedClientsGauge.Set(float64(n))
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
