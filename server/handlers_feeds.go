package server

import (
	"log/slog"
	"net/http"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/gorilla/feeds"

	"github.com/onnwee/standup/backend/db"
)

// HandleShowsAtom serves GET /shows.atom: an Atom feed of recorded shows.
func (h *Handlers) HandleShowsAtom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rows, err := h.db.QueryContext(r.Context(), `
        SELECT provider_video_id,
               COALESCE(title, ''),
               COALESCE(description, ''),
               COALESCE(url, ''),
               COALESCE(published_at, to_timestamp(0))
        FROM shows
        ORDER BY COALESCE(published_at, to_timestamp(0)) DESC
        LIMIT 25
    `)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Warn("failed to close rows", slog.Any("err", err))
		}
	}()

	showName := "Live Show"
	if h.cfg != nil && h.cfg.ShowName != "" {
		showName = h.cfg.ShowName
	}
	feed := &feeds.Feed{
		Title:       showName,
		Link:        &feeds.Link{Href: "/shows"},
		Description: "Recorded episodes of " + showName,
		Updated:     time.Now().UTC(),
	}
	for rows.Next() {
		var s show
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.URL, &s.PublishedAt); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          s.ID,
			Title:       s.Title,
			Link:        &feeds.Link{Href: s.URL},
			Description: s.Description,
			Created:     s.PublishedAt,
		})
	}

	atom, err := feed.ToAtom()
	if err != nil {
		http.Error(w, "failed to render feed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/atom+xml; charset=utf-8")
	_, _ = w.Write([]byte(atom))
}

// HandleLiveICS serves GET /live.ics: a one-event iCalendar feed for the next
// scheduled broadcast. With no show scheduled the calendar is empty but
// still valid.
func (h *Handlers) HandleLiveICS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	details, err := db.GetLiveDetails(r.Context(), h.db)
	if err != nil {
		http.Error(w, "failed to load live details", http.StatusInternalServerError)
		return
	}
	if details.NextShowTime.IsZero() && h.cfg != nil {
		details.NextShowTime = h.cfg.NextShowTime
	}

	showName := "Live Show"
	if h.cfg != nil && h.cfg.ShowName != "" {
		showName = h.cfg.ShowName
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	if !details.NextShowTime.IsZero() {
		event := cal.AddEvent("next-show@" + showName)
		event.SetCreatedTime(time.Now().UTC())
		event.SetStartAt(details.NextShowTime)
		event.SetEndAt(details.NextShowTime.Add(time.Hour))
		event.SetSummary(showName + " (live)")
		if details.EmbedURL != "" {
			event.SetURL(details.EmbedURL)
		}
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	_, _ = w.Write([]byte(cal.Serialize()))
}
