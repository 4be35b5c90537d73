package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/onnwee/standup/backend/db"
)

// liveResponse is the public view of the upcoming/current broadcast.
type liveResponse struct {
	NextShowTime *time.Time `json:"nextShowTime,omitempty"`
	EmbedURL     string     `json:"embedUrl,omitempty"`
	OnAir        bool       `json:"onAir"`
}

// liveWindow is how long after the scheduled start the site keeps treating
// the show as on the air.
const liveWindow = 3 * time.Hour

// HandleLive serves GET /live: the configured embed URL, the next show time,
// and whether the show is currently considered live.
func (h *Handlers) HandleLive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	details, err := db.GetLiveDetails(r.Context(), h.db)
	if err != nil {
		slog.Error("failed to load live details", slog.Any("err", err))
		http.Error(w, "failed to load live details", http.StatusInternalServerError)
		return
	}
	resp := liveResponse{EmbedURL: details.EmbedURL}
	if details.NextShowTime.IsZero() && h.cfg != nil {
		details.NextShowTime = h.cfg.NextShowTime
	}
	if resp.EmbedURL == "" && h.cfg != nil {
		resp.EmbedURL = h.cfg.LiveEmbedURL
	}
	if !details.NextShowTime.IsZero() {
		t := details.NextShowTime
		resp.NextShowTime = &t
		now := time.Now().UTC()
		resp.OnAir = now.After(t) && now.Before(t.Add(liveWindow))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// adminLiveBody is the admin wire shape for live show details.
type adminLiveBody struct {
	NextShowTime string `json:"nextShowTime"`
	EmbedURL     string `json:"embedUrl"`
}

// HandleAdminLive serves GET and PUT /admin/live: reading and updating the
// next show time (RFC3339) and the live embed URL.
func (h *Handlers) HandleAdminLive(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		details, err := db.GetLiveDetails(r.Context(), h.db)
		if err != nil {
			http.Error(w, "failed to load live details", http.StatusInternalServerError)
			return
		}
		body := adminLiveBody{EmbedURL: details.EmbedURL}
		if !details.NextShowTime.IsZero() {
			body.NextShowTime = details.NextShowTime.Format(time.RFC3339)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	case http.MethodPut:
		var body adminLiveBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		details := db.LiveDetails{EmbedURL: body.EmbedURL}
		if body.NextShowTime != "" {
			t, err := time.Parse(time.RFC3339, body.NextShowTime)
			if err != nil {
				http.Error(w, "invalid nextShowTime (RFC3339)", http.StatusBadRequest)
				return
			}
			details.NextShowTime = t.UTC()
		}
		if err := db.SetLiveDetails(r.Context(), h.db, details); err != nil {
			slog.Error("failed to update live details", slog.Any("err", err))
			http.Error(w, "failed to update live details", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleAdminReset serves POST /admin/onair/reset: clears the on-air board
// for a fresh broadcast session.
func (h *Handlers) HandleAdminReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.store.Reset()
	slog.Info("onair session reset", slog.String("component", "onair"))
	w.WriteHeader(http.StatusNoContent)
}

// HandleAdminShowsSync serves POST /admin/shows/sync: a manual catalog sync.
func (h *Handlers) HandleAdminShowsSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.syncCatalog == nil {
		http.Error(w, "catalog sync not configured", http.StatusServiceUnavailable)
		return
	}
	if err := h.syncCatalog(r.Context()); err != nil {
		slog.Error("manual catalog sync failed", slog.Any("err", err))
		http.Error(w, "sync failed", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
