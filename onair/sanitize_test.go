package onair

import "testing"

func TestSanitizeLinkMarker(t *testing.T) {
	_, text := Sanitize(Identity{}, "alice", "Check this out url:http://example.com out")
	want := `Check this out <a href="http://example.com">http://example.com</a> out`
	if text != want {
		t.Errorf("Sanitize() text = %q, want %q", text, want)
	}
}

func TestSanitizeEscapesMarkup(t *testing.T) {
	author, text := Sanitize(Identity{}, "<script>x</script>", "<b>bold</b>")
	if author != "&lt;script&gt;x&lt;/script&gt;" {
		t.Errorf("author not escaped: %q", author)
	}
	if text != "&lt;b&gt;bold&lt;/b&gt;" {
		t.Errorf("text not escaped: %q", text)
	}
}

func TestSanitizeAuthenticatedEmphasis(t *testing.T) {
	author, text := Sanitize(Identity{Authenticated: true}, "host", "hello")
	if author != "<em>host</em>" {
		t.Errorf("author = %q, want emphasized", author)
	}
	if text != "<em>hello</em>" {
		t.Errorf("text = %q, want emphasized", text)
	}
}

func TestSanitizeMarkerNeedsTrailingSpace(t *testing.T) {
	_, text := Sanitize(Identity{}, "alice", "see url:http://example.com")
	if text != "see url:http://example.com" {
		t.Errorf("marker without trailing space must pass through, got %q", text)
	}
}

func TestSanitizeMultipleMarkers(t *testing.T) {
	_, text := Sanitize(Identity{}, "alice", "url:a url:b end")
	want := `<a href="a">a</a> <a href="b">b</a> end`
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}

func TestSanitizeArbitraryMarkerTarget(t *testing.T) {
	// The marker target is any non-space run, not a validated URL.
	_, text := Sanitize(Identity{}, "alice", "url:not-a-url ok")
	want := `<a href="not-a-url">not-a-url</a> ok`
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}
