package onair

import (
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned by moderation operations targeting an unknown
// question id. Callers treat it as a recoverable no-op.
var ErrNotFound = errors.New("question not found")

// Message is a single chat line. Immutable once stored.
type Message struct {
	PostedAt time.Time `json:"postedAt"`
	Author   string    `json:"author"`
	Text     string    `json:"text"`
}

// Question is an audience question moving through the moderation lifecycle.
// PostedAt is re-stamped on every state change so polling clients pick the
// change up as a new item.
type Question struct {
	PostedAt time.Time `json:"postedAt"`
	Author   string    `json:"author"`
	Text     string    `json:"text"`
	ID       int       `json:"id"`
	Votes    int       `json:"voteCount"`
	State    State     `json:"state"`
}

// Client is one registered push-channel connection.
type Client struct {
	ID        string
	Name      string
	Moderator bool
}

// Identity is the tri-state identity signal supplied by the auth layer.
type Identity struct {
	Name          string
	Authenticated bool
	Moderator     bool
}

// Store holds all chat/Q&A state for the current broadcast session. All
// methods are safe for concurrent use; a single mutex covers the message
// list, question list, id counter, and client registry so Reset is serialized
// against every other operation.
type Store struct {
	now       func() time.Time
	clients   map[string]Client
	messages  []Message
	questions []*Question
	nextID    int
	mu        sync.Mutex
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{
		now:     time.Now,
		clients: make(map[string]Client),
	}
}

// stamp returns the current time truncated to centiseconds, matching the
// resolution of the sync cursor. Storing coarser-than-cursor timestamps would
// re-deliver items; storing finer ones would too. Same-centisecond items are
// at-most-once per tick, a documented limitation.
func (s *Store) stamp() time.Time {
	return s.now().UTC().Truncate(10 * time.Millisecond)
}

// AddMessage appends a chat message. Empty author or text is a silent no-op
// returning ok=false. Author and text are expected to be sanitized already.
func (s *Store) AddMessage(author, text string) (Message, bool) {
	if author == "" || text == "" {
		return Message{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m := Message{Author: author, Text: text, PostedAt: s.stamp()}
	s.messages = append(s.messages, m)
	return m, true
}

// AddQuestion appends a question in the Pending state with the next
// sequential id. Ids start at 0, reflect submission order, and are never
// reused within a session. Empty author or text returns ok=false.
func (s *Store) AddQuestion(author, text string) (Question, bool) {
	if author == "" || text == "" {
		return Question{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	q := &Question{
		ID:       s.nextID,
		Author:   author,
		Text:     text,
		State:    Pending,
		PostedAt: s.stamp(),
	}
	s.nextID++
	s.questions = append(s.questions, q)
	return *q, true
}

// Messages returns all chat messages in insertion order.
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Questions returns all questions in insertion order. The returned values
// are copies; mutating them does not affect the store.
func (s *Store) Questions() []Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Question, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, *q)
	}
	return out
}

// Since returns messages and questions stamped strictly after cursor, in
// insertion order. Repeated calls with the same cursor return the same sets
// until new data arrives; the store keeps no per-client state.
func (s *Store) Since(cursor time.Time) ([]Message, []Question) {
	msgs, qs, _ := s.Delta(cursor)
	return msgs, qs
}

// Delta is Since plus a cursor snapshot taken in the same critical section,
// so an item can never fall between the returned sets and the returned
// cursor: polling with the returned cursor never re-delivers and never skips.
func (s *Store) Delta(cursor time.Time) ([]Message, []Question, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := make([]Message, 0)
	for _, m := range s.messages {
		if m.PostedAt.After(cursor) {
			msgs = append(msgs, m)
		}
	}
	qs := make([]Question, 0)
	for _, q := range s.questions {
		if q.PostedAt.After(cursor) {
			qs = append(qs, *q)
		}
	}
	return msgs, qs, s.stamp()
}

// Now returns the store's current cursor position (truncated like stamps),
// for handing back to polling clients as their next cursor.
func (s *Store) Now() time.Time {
	return s.now().UTC().Truncate(10 * time.Millisecond)
}

// Reset clears messages, questions, the id counter, and the client registry,
// starting a fresh broadcast session. Serialized with all other operations.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.questions = nil
	s.nextID = 0
	s.clients = make(map[string]Client)
}

// find returns the question with the given id, or nil. Caller holds mu.
func (s *Store) find(id int) *Question {
	for _, q := range s.questions {
		if q.ID == id {
			return q
		}
	}
	return nil
}

// PlusOne adds a vote to a pending question. Votes on a question that has
// already moved past Pending are silently ignored (the question is returned
// unchanged). Unknown ids return ErrNotFound.
func (s *Store) PlusOne(id int) (Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.find(id)
	if q == nil {
		return Question{}, ErrNotFound
	}
	if q.State != Pending {
		return *q, nil
	}
	q.Votes++
	q.PostedAt = s.stamp()
	return *q, nil
}

// MarkAnswering moves a pending question to Answering. Any other starting
// state is a no-op returning the question unchanged. Privilege is enforced
// by the caller; the store only enforces the state machine.
func (s *Store) MarkAnswering(id int) (Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.find(id)
	if q == nil {
		return Question{}, ErrNotFound
	}
	if q.State != Pending {
		return *q, nil
	}
	q.State = Answering
	q.PostedAt = s.stamp()
	return *q, nil
}

// MarkAnswered moves a question to the terminal Answered state, either from
// Answering or directly from Pending. Already-answered questions are a no-op.
func (s *Store) MarkAnswered(id int) (Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.find(id)
	if q == nil {
		return Question{}, ErrNotFound
	}
	if q.State == Answered {
		return *q, nil
	}
	q.State = Answered
	q.PostedAt = s.stamp()
	return *q, nil
}

// RegisterClient records a push-channel connection. At most one entry per
// connection id; re-registering replaces the previous entry.
func (s *Store) RegisterClient(id, name string, moderator bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[id] = Client{ID: id, Name: name, Moderator: moderator}
}

// UnregisterClient removes a connection from the registry, returning the
// removed entry. Unknown ids return ok=false.
func (s *Store) UnregisterClient(id string) (Client, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if ok {
		delete(s.clients, id)
	}
	return c, ok
}

// FindClient looks up a registered connection by id.
func (s *Store) FindClient(id string) (Client, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	return c, ok
}

// SetClientName updates the display name for a registered connection.
func (s *Store) SetClientName(id, name string) bool {
	if name == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	if !ok {
		return false
	}
	c.Name = name
	s.clients[id] = c
	return true
}

// Clients returns all registered connections.
func (s *Store) Clients() []Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c)
	}
	return out
}
