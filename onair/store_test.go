package onair

import (
	"sync"
	"testing"
	"time"
)

// fakeClock drives the store's stamps deterministically.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 31, 20, 15, 0, 0, time.UTC)}
}

func (f *fakeClock) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newTestStore() (*Store, *fakeClock) {
	s := NewStore()
	c := newFakeClock()
	s.now = c.now
	return s, c
}

func TestAddMessageValidation(t *testing.T) {
	s, _ := newTestStore()
	if _, ok := s.AddMessage("", "hello"); ok {
		t.Error("empty author must be rejected")
	}
	if _, ok := s.AddMessage("alice", ""); ok {
		t.Error("empty text must be rejected")
	}
	if len(s.Messages()) != 0 {
		t.Error("rejected submissions must not be stored")
	}
	m, ok := s.AddMessage("alice", "hello")
	if !ok {
		t.Fatal("valid message rejected")
	}
	if m.Author != "alice" || m.Text != "hello" {
		t.Errorf("unexpected message: %+v", m)
	}
}

func TestQuestionIDsSequential(t *testing.T) {
	s, _ := newTestStore()
	for i := 0; i < 5; i++ {
		q, ok := s.AddQuestion("alice", "why?")
		if !ok {
			t.Fatal("valid question rejected")
		}
		if q.ID != i {
			t.Errorf("question %d got id %d", i, q.ID)
		}
		if q.State != Pending {
			t.Errorf("new question state = %q, want pending", q.State)
		}
		if q.Votes != 0 {
			t.Errorf("new question votes = %d, want 0", q.Votes)
		}
	}
}

func TestQuestionIDsUniqueUnderConcurrency(t *testing.T) {
	s, _ := newTestStore()
	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.AddQuestion("bob", "concurrent?"); !ok {
				t.Error("valid question rejected")
			}
		}()
	}
	wg.Wait()
	seen := make(map[int]bool)
	for _, q := range s.Questions() {
		if seen[q.ID] {
			t.Fatalf("duplicate question id %d", q.ID)
		}
		seen[q.ID] = true
	}
	for i := 0; i < n; i++ {
		if !seen[i] {
			t.Errorf("missing question id %d", i)
		}
	}
}

func TestPlusOne(t *testing.T) {
	s, _ := newTestStore()
	q, _ := s.AddQuestion("alice", "why?")

	got, err := s.PlusOne(q.ID)
	if err != nil {
		t.Fatalf("PlusOne() error = %v", err)
	}
	if got.Votes != 1 {
		t.Errorf("votes = %d, want 1", got.Votes)
	}

	if _, err := s.PlusOne(999); err != ErrNotFound {
		t.Errorf("PlusOne(unknown) error = %v, want ErrNotFound", err)
	}

	// Votes on a question past Pending are silently ignored.
	if _, err := s.MarkAnswering(q.ID); err != nil {
		t.Fatal(err)
	}
	got, err = s.PlusOne(q.ID)
	if err != nil {
		t.Fatalf("PlusOne() on answering error = %v", err)
	}
	if got.Votes != 1 {
		t.Errorf("vote on answering question must be a no-op, votes = %d", got.Votes)
	}
}

func TestStateMachine(t *testing.T) {
	s, _ := newTestStore()
	q, _ := s.AddQuestion("alice", "why?")

	got, err := s.MarkAnswering(q.ID)
	if err != nil || got.State != Answering {
		t.Fatalf("MarkAnswering() = %v, %v", got.State, err)
	}
	// Re-marking is a no-op, not an error.
	got, err = s.MarkAnswering(q.ID)
	if err != nil || got.State != Answering {
		t.Fatalf("second MarkAnswering() = %v, %v", got.State, err)
	}
	got, err = s.MarkAnswered(q.ID)
	if err != nil || got.State != Answered {
		t.Fatalf("MarkAnswered() = %v, %v", got.State, err)
	}
	got, err = s.MarkAnswered(q.ID)
	if err != nil || got.State != Answered {
		t.Fatalf("second MarkAnswered() = %v, %v", got.State, err)
	}

	// Answered directly from Pending is allowed.
	q2, _ := s.AddQuestion("bob", "how?")
	got, err = s.MarkAnswered(q2.ID)
	if err != nil || got.State != Answered {
		t.Fatalf("MarkAnswered(pending) = %v, %v", got.State, err)
	}

	if _, err := s.MarkAnswering(999); err != ErrNotFound {
		t.Errorf("MarkAnswering(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestStampTruncation(t *testing.T) {
	s, c := newTestStore()
	c.t = c.t.Add(7*time.Millisecond + 123*time.Microsecond)
	m, _ := s.AddMessage("alice", "hi")
	if m.PostedAt.Nanosecond()%int(10*time.Millisecond) != 0 {
		t.Errorf("stamp not truncated to centiseconds: %v", m.PostedAt)
	}
}

func TestDeltaNeverRedeliversOrSkips(t *testing.T) {
	s, c := newTestStore()
	s.AddMessage("alice", "first")
	s.AddQuestion("alice", "why?")

	msgs, qs, cursor := s.Delta(time.Time{})
	if len(msgs) != 1 || len(qs) != 1 {
		t.Fatalf("initial delta: %d msgs, %d questions", len(msgs), len(qs))
	}

	// Nothing new: same cursor yields empty sets.
	msgs, qs, cursor2 := s.Delta(cursor)
	if len(msgs) != 0 || len(qs) != 0 {
		t.Errorf("repeat delta must be empty, got %d msgs %d questions", len(msgs), len(qs))
	}
	if !cursor2.Equal(cursor) {
		t.Errorf("cursor moved without new data: %v -> %v", cursor, cursor2)
	}

	c.advance(50 * time.Millisecond)
	s.AddMessage("bob", "second")
	msgs, _, cursor3 := s.Delta(cursor)
	if len(msgs) != 1 || msgs[0].Text != "second" {
		t.Fatalf("delta after advance: %+v", msgs)
	}
	if msgs, _, _ := s.Delta(cursor3); len(msgs) != 0 {
		t.Error("item delivered twice")
	}
}

func TestDeltaPicksUpRestampedQuestions(t *testing.T) {
	s, c := newTestStore()
	q, _ := s.AddQuestion("alice", "why?")
	_, _, cursor := s.Delta(time.Time{})

	c.advance(time.Second)
	if _, err := s.PlusOne(q.ID); err != nil {
		t.Fatal(err)
	}
	_, qs, _ := s.Delta(cursor)
	if len(qs) != 1 || qs[0].Votes != 1 {
		t.Fatalf("vote must re-deliver the question: %+v", qs)
	}
}

func TestReset(t *testing.T) {
	s, _ := newTestStore()
	s.AddMessage("alice", "hi")
	s.AddQuestion("alice", "why?")
	s.RegisterClient("c1", "alice", false)

	s.Reset()

	if len(s.Messages()) != 0 || len(s.Questions()) != 0 || len(s.Clients()) != 0 {
		t.Error("reset must clear messages, questions, and clients")
	}
	q, _ := s.AddQuestion("bob", "again?")
	if q.ID != 0 {
		t.Errorf("id counter not reset, got %d", q.ID)
	}
}

func TestClientRegistry(t *testing.T) {
	s, _ := newTestStore()
	s.RegisterClient("c1", "alice", false)
	s.RegisterClient("c2", "mod", true)

	c, ok := s.FindClient("c1")
	if !ok || c.Name != "alice" || c.Moderator {
		t.Errorf("FindClient(c1) = %+v, %v", c, ok)
	}
	if !s.SetClientName("c1", "alice2") {
		t.Error("SetClientName failed for known client")
	}
	if c, _ := s.FindClient("c1"); c.Name != "alice2" {
		t.Errorf("name not updated: %+v", c)
	}
	if s.SetClientName("c1", "") {
		t.Error("empty name must be rejected")
	}
	if s.SetClientName("ghost", "x") {
		t.Error("unknown client must be rejected")
	}

	removed, ok := s.UnregisterClient("c2")
	if !ok || removed.Name != "mod" {
		t.Errorf("UnregisterClient(c2) = %+v, %v", removed, ok)
	}
	if _, ok := s.UnregisterClient("c2"); ok {
		t.Error("double unregister must report ok=false")
	}
	if len(s.Clients()) != 1 {
		t.Errorf("expected 1 client, got %d", len(s.Clients()))
	}
}
