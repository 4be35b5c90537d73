package onair

import (
	"fmt"
	"strconv"
	"time"
)

// The sync cursor is a UTC timestamp in the fixed form yyyyMMddHHmmss plus
// two centisecond digits, e.g. "2026013120150042". Clients treat it as an
// opaque token: remember the lastTime from one poll, send it on the next.

const cursorSecondsLayout = "20060102150405"

// FormatCursor renders t as a sync cursor.
func FormatCursor(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s%02d", t.Format(cursorSecondsLayout), t.Nanosecond()/1e7)
}

// ParseCursor parses a sync cursor. Malformed input returns an error; the
// poll handler maps that to "no previous state" rather than failing the
// request.
func ParseCursor(s string) (time.Time, error) {
	if len(s) != len(cursorSecondsLayout)+2 {
		return time.Time{}, fmt.Errorf("cursor %q: want %d digits", s, len(cursorSecondsLayout)+2)
	}
	base, err := time.ParseInLocation(cursorSecondsLayout, s[:len(cursorSecondsLayout)], time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("cursor %q: %w", s, err)
	}
	cs, err := strconv.Atoi(s[len(cursorSecondsLayout):])
	if err != nil || cs < 0 {
		return time.Time{}, fmt.Errorf("cursor %q: bad centiseconds", s)
	}
	return base.Add(time.Duration(cs) * 10 * time.Millisecond), nil
}
