// Package server exposes the HTTP API: the on-air chat/Q&A endpoints, the
// recorded-show catalog, live show details and feeds, plus health and
// metrics. It includes permissive CORS for development and injects
// correlation IDs into request contexts for consistent logging.
package server

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onnwee/standup/backend/telemetry"
)

// NewMux returns the HTTP handler with all routes.
// The provided context is used for the rate limiter cleanup goroutine lifecycle.
func NewMux(ctx context.Context, deps Deps) http.Handler {
	authCfg := loadAuthConfig()
	rateLimiter := newIPRateLimiter(ctx, loadRateLimiterConfig())
	corsCfg := loadCORSConfig()
	identCfg := loadIdentityConfig(deps.Cfg)

	handlers := NewHandlers(ctx, deps, identCfg)

	mux := http.NewServeMux()

	// Metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Health and readiness endpoints
	mux.HandleFunc("/healthz", handlers.HandleHealthz)
	mux.HandleFunc("/readyz", handlers.HandleReadyz)

	// On-air board: polling, submissions, moderation, push channel
	mux.HandleFunc("/onair/getdata", handlers.HandleGetData)
	mux.HandleFunc("/onair/getdata/", handlers.HandleGetData)
	mux.HandleFunc("/onair/chat", handlers.HandlePostChat)
	mux.HandleFunc("/onair/askquestion", handlers.HandleAskQuestion)
	mux.HandleFunc("/onair/plusone/", handlers.HandlePlusOne)
	mux.HandleFunc("/onair/answer/", handlers.HandleAnswer)
	mux.HandleFunc("/onair/answered/", handlers.HandleAnswered)
	mux.HandleFunc("/onair/ws", handlers.HandleWS)

	// Recorded show catalog and live show details
	mux.HandleFunc("/shows", handlers.HandleShowsList)
	mux.HandleFunc("/shows/", handlers.HandleShowDetail)
	mux.HandleFunc("/shows.atom", handlers.HandleShowsAtom)
	mux.HandleFunc("/live", handlers.HandleLive)
	mux.HandleFunc("/live.ics", handlers.HandleLiveICS)

	// Admin endpoints
	mux.HandleFunc("/admin/live", handlers.HandleAdminLive)
	mux.HandleFunc("/admin/onair/reset", handlers.HandleAdminReset)
	mux.HandleFunc("/admin/shows/sync", handlers.HandleAdminShowsSync)

	// Admin endpoints get auth plus rate limiting; everything else is open.
	selectiveHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/admin/") {
			adminAuth(rateLimitMiddleware(mux, rateLimiter), authCfg).ServeHTTP(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	})

	// Wrap with correlation ID injector and tracing middleware
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Reuse corr header if provided else generate
		corr := r.Header.Get("X-Correlation-ID")
		if corr == "" {
			corr = uuid.New().String()
		}
		ctx := telemetry.WithCorrelation(r.Context(), corr)
		w.Header().Set("X-Correlation-ID", corr)

		ctx, span := telemetry.StartSpan(ctx, "http-server", r.Method+" "+r.URL.Path,
			telemetry.HTTPMethodAttr(r.Method),
			telemetry.HTTPRouteAttr(r.URL.Path),
			telemetry.HTTPURLAttr(r.URL.String()),
		)
		defer span.End()

		telemetry.LoggerWithCorr(ctx).Debug("request start", slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.String("component", "http"))

		wrappedWriter := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		selectiveHandler.ServeHTTP(wrappedWriter, r.WithContext(ctx))

		telemetry.SetSpanHTTPStatus(span, wrappedWriter.statusCode)
		if wrappedWriter.statusCode >= 400 {
			code, msg := telemetry.ErrorStatus(fmt.Sprintf("HTTP %d", wrappedWriter.statusCode))
			span.SetStatus(code, msg)
		}
	})
	return withCORSConfig(handler, corsCfg)
}

// statusRecorder wraps ResponseWriter to capture status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// Flush implements http.Flusher if the underlying ResponseWriter supports it
func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack passes through to the underlying ResponseWriter so the WebSocket
// upgrade on /onair/ws works behind the tracing wrapper.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

// Start runs the HTTP server and shuts down gracefully on context cancellation.
func Start(ctx context.Context, deps Deps, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      NewMux(ctx, deps),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		// Use WithoutCancel to inherit context values but allow shutdown to complete
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", slog.Any("err", err))
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("http server error", slog.Any("err", err))
		return err
	}
	return nil
}
