package server

import (
	"encoding/json"
	"html"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/onnwee/standup/backend/onair"
	"github.com/onnwee/standup/backend/telemetry"
)

// getDataResponse is the poll protocol payload: everything newer than the
// caller's cursor, plus the cursor to send next time.
type getDataResponse struct {
	Chats     []onair.Message      `json:"chats"`
	Questions []onair.QuestionView `json:"questions"`
	LastTime  string               `json:"lastTime"`
}

// HandleGetData serves GET /onair/getdata/{cursor}. An absent or malformed
// cursor means "no previous state": the client gets an empty delta and a
// fresh cursor rather than an error (the first poll is always empty).
func (h *Handlers) HandleGetData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()
	ident := h.identity.identityFromRequest(r)

	raw := strings.Trim(strings.TrimPrefix(r.URL.Path, "/onair/getdata"), "/")

	var resp getDataResponse
	if cursor, err := onair.ParseCursor(raw); err == nil {
		msgs, qs, now := h.store.Delta(cursor)
		resp = getDataResponse{
			Chats:     msgs,
			Questions: onair.ViewAll(qs, ident.Moderator),
			LastTime:  onair.FormatCursor(now),
		}
	} else {
		if raw != "" {
			telemetry.LoggerWithCorr(r.Context()).Debug("onair poll with bad cursor", slog.String("cursor", raw))
		}
		resp = getDataResponse{
			Chats:     []onair.Message{},
			Questions: []onair.QuestionView{},
			LastTime:  onair.FormatCursor(h.store.Now()),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
	if telemetry.PollDuration != nil {
		telemetry.PollDuration.Observe(time.Since(start).Seconds())
	}
}

// displayName picks the submitting name: the authenticated identity wins,
// otherwise the self-reported form field.
func displayName(ident onair.Identity, formName string) string {
	if ident.Authenticated && ident.Name != "" {
		return ident.Name
	}
	return formName
}

// HandlePostChat serves POST /onair/chat. Missing name or message is a
// silent no-op; the response body is empty either way.
func (h *Handlers) HandlePostChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ident := h.identity.identityFromRequest(r)
	name := displayName(ident, r.FormValue("userName"))
	text := r.FormValue("message")
	if name == "" || text == "" {
		w.WriteHeader(http.StatusOK)
		return
	}
	author, safe := onair.Sanitize(ident, name, text)
	if m, ok := h.store.AddMessage(author, safe); ok {
		telemetry.IncMessages()
		h.hub.NotifyMessage(m)
	}
	w.WriteHeader(http.StatusOK)
}

// HandleAskQuestion serves POST /onair/askquestion.
func (h *Handlers) HandleAskQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ident := h.identity.identityFromRequest(r)
	name := displayName(ident, r.FormValue("userName"))
	text := r.FormValue("question")
	if name == "" || text == "" {
		w.WriteHeader(http.StatusOK)
		return
	}
	author, safe := onair.Sanitize(ident, name, text)
	if q, ok := h.store.AddQuestion(author, safe); ok {
		telemetry.IncQuestions()
		h.hub.NotifyQuestion(q)
	}
	w.WriteHeader(http.StatusOK)
}

// questionID extracts the numeric id from a path like /onair/plusone/3.
func questionID(path, prefix string) (int, bool) {
	raw := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// HandlePlusOne serves GET /onair/plusone/{id}. Votes on unknown ids or
// questions past Pending are silently ignored, never an error page.
func (h *Handlers) HandlePlusOne(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, ok := questionID(r.URL.Path, "/onair/plusone/")
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	q, err := h.store.PlusOne(id)
	if err != nil {
		telemetry.LoggerWithCorr(r.Context()).Debug("plusone on unknown question", slog.Int("id", id))
		w.WriteHeader(http.StatusOK)
		return
	}
	if q.State == onair.Pending {
		telemetry.IncVotes()
		h.hub.NotifyQuestionUpdated(q)
	}
	w.WriteHeader(http.StatusOK)
}

// HandleAnswer serves GET /onair/answer/{id} (moderator only): the question
// moves to Answering.
func (h *Handlers) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "/onair/answer/", h.store.MarkAnswering, onair.Answering)
}

// HandleAnswered serves GET /onair/answered/{id} (moderator only): the
// question moves to its terminal Answered state.
func (h *Handlers) HandleAnswered(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "/onair/answered/", h.store.MarkAnswered, onair.Answered)
}

func (h *Handlers) handleTransition(w http.ResponseWriter, r *http.Request, prefix string, apply func(int) (onair.Question, error), want onair.State) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ident := h.identity.identityFromRequest(r)
	if !ident.Moderator {
		http.Error(w, "moderator required", http.StatusForbidden)
		return
	}
	id, ok := questionID(r.URL.Path, prefix)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	q, err := apply(id)
	if err != nil {
		telemetry.LoggerWithCorr(r.Context()).Debug("moderation on unknown question", slog.Int("id", id), slog.String("path", r.URL.Path))
		w.WriteHeader(http.StatusOK)
		return
	}
	if q.State == want {
		telemetry.IncModerationUpdates()
		h.hub.NotifyQuestionUpdated(q)
	}
	w.WriteHeader(http.StatusOK)
}

// HandleWS upgrades GET /onair/ws to the push channel. Anonymous viewers may
// pick a handle with ?name=; authenticated identities keep theirs.
func (h *Handlers) HandleWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ident := h.identity.identityFromRequest(r)
	if !ident.Authenticated {
		if name := r.URL.Query().Get("name"); name != "" {
			ident.Name = html.EscapeString(name)
		}
	}
	h.hub.ServeWS(w, r, ident)
}
