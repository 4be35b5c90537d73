package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// show is the catalog row shape served to the frontend.
type show struct {
	PublishedAt time.Time `json:"published_at"`
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
}

// HandleShowsList returns a paginated list of recorded shows, newest first.
func (h *Handlers) HandleShowsList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// Basic pagination: ?limit=50&offset=0
	limit := parseIntQuery(r, "limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := parseIntQuery(r, "offset", 0)
	rows, err := h.db.QueryContext(r.Context(), `
        SELECT provider_video_id,
               COALESCE(title, ''),
               COALESCE(description, ''),
               COALESCE(url, ''),
               COALESCE(published_at, to_timestamp(0))
        FROM shows
        ORDER BY COALESCE(published_at, to_timestamp(0)) DESC
        LIMIT $1 OFFSET $2
    `, limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Warn("failed to close rows", slog.Any("err", err))
		}
	}()
	list := make([]show, 0)
	for rows.Next() {
		var s show
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.URL, &s.PublishedAt); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		list = append(list, s)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// HandleShowDetail returns one recorded show by provider video id.
func (h *Handlers) HandleShowDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/shows/"), "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	row := h.db.QueryRowContext(r.Context(), `
        SELECT provider_video_id,
               COALESCE(title, ''),
               COALESCE(description, ''),
               COALESCE(url, ''),
               COALESCE(published_at, to_timestamp(0))
        FROM shows WHERE provider_video_id=$1
    `, id)
	var s show
	if err := row.Scan(&s.ID, &s.Title, &s.Description, &s.URL, &s.PublishedAt); err != nil {
		if err == sql.ErrNoRows {
			http.NotFound(w, r)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s)
}
