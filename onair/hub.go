package onair

import (
	"encoding/json"
	"html"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/onnwee/standup/backend/telemetry"
)

const (
	writeWait       = 5 * time.Second
	maxCommandBytes = 4096
	sendBuffer      = 64
)

// Hub is the push-channel delivery path: one WebSocket per browser, fanned
// out to on every store mutation. Fan-out is non-blocking per connection; a
// connection whose send buffer is full simply misses the event (it catches up
// from its next poll), so one slow client never stalls the rest.
type Hub struct {
	store    *Store
	conns    map[string]*wsConn
	upgrader websocket.Upgrader
	mu       sync.Mutex
}

type wsConn struct {
	sock  *websocket.Conn
	send  chan []byte
	id    string
	ident Identity
	mu    sync.Mutex
}

// NewHub returns a hub fanning out mutations of store.
func NewHub(store *Store) *Hub {
	return &Hub{
		store: store,
		conns: make(map[string]*wsConn),
		upgrader: websocket.Upgrader{
			// CORS is handled at the HTTP layer; the hub accepts any origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// event is the server->client wire shape. Exactly one of the payload fields
// is set, selected by Event.
type event struct {
	Message   *Message       `json:"message,omitempty"`
	Question  *QuestionView  `json:"question,omitempty"`
	Questions []QuestionView `json:"questions,omitempty"`
	Name      string         `json:"name,omitempty"`
	Event     string         `json:"event"`
}

// command is the client->server wire shape.
type command struct {
	ID     *int   `json:"id,omitempty"`
	Action string `json:"action"`
	Text   string `json:"text,omitempty"`
	Name   string `json:"name,omitempty"`
	Op     string `json:"op,omitempty"`
}

// ServeWS upgrades the request and runs the connection until the client goes
// away. Moderators receive the full current question list immediately on
// connect; everyone else learns of the arrival via a joined event.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, ident Identity) {
	sock, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("onair ws upgrade failed", slog.Any("err", err))
		return
	}
	if ident.Name == "" {
		ident.Name = "anonymous"
	}
	c := &wsConn{
		id:    uuid.NewString(),
		sock:  sock,
		send:  make(chan []byte, sendBuffer),
		ident: ident,
	}

	h.mu.Lock()
	h.conns[c.id] = c
	n := len(h.conns)
	h.mu.Unlock()
	h.store.RegisterClient(c.id, ident.Name, ident.Moderator)
	telemetry.SetConnectedClients(n)

	go c.writePump()

	if ident.Moderator {
		qs := h.store.Questions()
		SortByPriority(qs)
		c.enqueue(event{Event: "questionList", Questions: ViewAll(qs, true)})
	}
	h.broadcastSame(event{Event: "joined", Name: ident.Name})

	h.readLoop(c)

	name := c.identity().Name
	if removed, ok := h.store.UnregisterClient(c.id); ok {
		name = removed.Name
	}
	h.mu.Lock()
	delete(h.conns, c.id)
	n = len(h.conns)
	h.mu.Unlock()
	close(c.send)
	telemetry.SetConnectedClients(n)
	h.broadcastSame(event{Event: "clientLeft", Name: name})
}

// readLoop handles client commands until the connection errors or closes.
func (h *Hub) readLoop(c *wsConn) {
	c.sock.SetReadLimit(maxCommandBytes)
	for {
		_, data, err := c.sock.ReadMessage()
		if err != nil {
			return
		}
		var cmd command
		if err := json.Unmarshal(data, &cmd); err != nil {
			slog.Debug("onair ws bad command", slog.Any("err", err))
			continue
		}
		h.dispatch(c, cmd)
	}
}

func (h *Hub) dispatch(c *wsConn, cmd command) {
	ident := c.identity()
	switch cmd.Action {
	case "send":
		author, text := Sanitize(ident, ident.Name, cmd.Text)
		if m, ok := h.store.AddMessage(author, text); ok {
			telemetry.IncMessages()
			h.NotifyMessage(m)
		}
	case "askQuestion":
		author, text := Sanitize(ident, ident.Name, cmd.Text)
		if q, ok := h.store.AddQuestion(author, text); ok {
			telemetry.IncQuestions()
			h.NotifyQuestion(q)
		}
	case "updateQuestion":
		if !ident.Moderator || cmd.ID == nil {
			return
		}
		var q Question
		var err error
		switch cmd.Op {
		case "answer":
			q, err = h.store.MarkAnswering(*cmd.ID)
		case "answered":
			q, err = h.store.MarkAnswered(*cmd.ID)
		default:
			return
		}
		if err != nil {
			slog.Debug("onair ws update on unknown question", slog.Int("id", *cmd.ID))
			return
		}
		h.NotifyQuestionUpdated(q)
	case "setHandle":
		if cmd.Name == "" {
			return
		}
		name := html.EscapeString(cmd.Name)
		c.setName(name)
		h.store.SetClientName(c.id, name)
	}
}

// NotifyMessage pushes a new chat message to every connection.
func (h *Hub) NotifyMessage(m Message) {
	h.broadcastSame(event{Event: "newMessage", Message: &m})
}

// NotifyQuestion pushes a new question to every connection, with moderation
// hints computed per recipient (non-moderators always see them cleared).
func (h *Hub) NotifyQuestion(q Question) {
	h.broadcastPerViewer("newQuestion", q)
}

// NotifyQuestionUpdated pushes a vote or state change to every connection.
func (h *Hub) NotifyQuestionUpdated(q Question) {
	h.broadcastPerViewer("questionUpdated", q)
}

func (h *Hub) broadcastPerViewer(name string, q Question) {
	modView := q.View(true)
	plainView := q.View(false)
	h.broadcast(func(moderator bool) event {
		if moderator {
			return event{Event: name, Question: &modView}
		}
		return event{Event: name, Question: &plainView}
	})
}

func (h *Hub) broadcastSame(ev event) {
	h.broadcast(func(bool) event { return ev })
}

// broadcast marshals at most two variants (moderator and not) and enqueues
// the right one on each connection. Delivery failures are isolated per
// connection by construction: enqueue never blocks.
func (h *Hub) broadcast(build func(moderator bool) event) {
	var modPayload, plainPayload []byte
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.conns {
		ident := c.identity()
		if ident.Moderator {
			if modPayload == nil {
				modPayload = marshalEvent(build(true))
			}
			c.enqueueBytes(modPayload)
		} else {
			if plainPayload == nil {
				plainPayload = marshalEvent(build(false))
			}
			c.enqueueBytes(plainPayload)
		}
	}
}

func marshalEvent(ev event) []byte {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("onair event marshal failed", slog.Any("err", err))
		return nil
	}
	return data
}

func (c *wsConn) identity() Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ident
}

func (c *wsConn) setName(name string) {
	c.mu.Lock()
	c.ident.Name = name
	c.mu.Unlock()
}

func (c *wsConn) enqueue(ev event) {
	c.enqueueBytes(marshalEvent(ev))
}

// enqueueBytes drops the event when the buffer is full rather than blocking.
func (c *wsConn) enqueueBytes(data []byte) {
	if data == nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *wsConn) writePump() {
	for data := range c.send {
		_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.sock.WriteMessage(websocket.TextMessage, data); err != nil {
			// Reader will observe the broken connection and unregister.
			_ = c.sock.Close()
			for range c.send {
				// drain until the reader closes the channel
			}
			return
		}
	}
	_ = c.sock.Close()
}
