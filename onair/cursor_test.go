package onair

import (
	"testing"
	"time"
)

func TestFormatCursor(t *testing.T) {
	ts := time.Date(2026, 1, 31, 20, 15, 0, 420*int(time.Millisecond), time.UTC)
	if got := FormatCursor(ts); got != "2026013120150042" {
		t.Errorf("FormatCursor() = %q, want 2026013120150042", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	times := []time.Time{
		time.Date(2026, 1, 31, 20, 15, 0, 0, time.UTC),
		time.Date(2026, 12, 31, 23, 59, 59, 990*int(time.Millisecond), time.UTC),
		time.Date(2000, 1, 1, 0, 0, 0, 10*int(time.Millisecond), time.UTC),
	}
	for _, ts := range times {
		got, err := ParseCursor(FormatCursor(ts))
		if err != nil {
			t.Fatalf("ParseCursor(%q) error = %v", FormatCursor(ts), err)
		}
		if !got.Equal(ts) {
			t.Errorf("round trip %v -> %v", ts, got)
		}
	}
}

func TestParseCursorMalformed(t *testing.T) {
	bad := []string{
		"",
		"2026",
		"20260131201500",     // missing centiseconds
		"2026013120150042x",  // too long
		"2026013199150042",   // invalid hour field
		"20260131201500xx",   // non-numeric centiseconds
		"abcdefghijklmnop",   // garbage
	}
	for _, s := range bad {
		if _, err := ParseCursor(s); err == nil {
			t.Errorf("ParseCursor(%q) succeeded, want error", s)
		}
	}
}

func TestStoreStampMatchesCursorResolution(t *testing.T) {
	s, _ := newTestStore()
	m, _ := s.AddMessage("alice", "hi")
	parsed, err := ParseCursor(FormatCursor(m.PostedAt))
	if err != nil {
		t.Fatal(err)
	}
	if !parsed.Equal(m.PostedAt) {
		t.Errorf("stamp %v does not survive the cursor: %v", m.PostedAt, parsed)
	}
}
