package onair

import (
	"html"
	"regexp"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// linkMarker matches the inline "url:<target> " marker: the literal token,
// a run of non-space characters, and a trailing space. The target is not
// validated as a URL; any non-space run is accepted (compatibility with the
// historical site behavior, covered by tests).
var linkMarker = regexp.MustCompile(`url:(\S+) `)

// markupPolicy admits only the markup the sanitizer itself produces: anchors
// with an href, and emphasis. Everything else was already escaped, so the
// policy is a guard, not a transformation.
var markupPolicy = sync.OnceValue(func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("em")
	p.AllowAttrs("href").OnElements("a")
	return p
})

// Sanitize turns a raw submission into safe-to-store markup. The author name
// and body are HTML-escaped independently; authenticated identities get both
// wrapped in emphasis to distinguish staff; then each "url:" marker in the
// body becomes an anchor whose target and label are the captured run, with
// the trailing space preserved. This runs exactly once, at submission time.
func Sanitize(ident Identity, author, text string) (safeAuthor, safeText string) {
	safeAuthor = html.EscapeString(author)
	safeText = html.EscapeString(text)
	if ident.Authenticated {
		safeAuthor = "<em>" + safeAuthor + "</em>"
		safeText = "<em>" + safeText + "</em>"
	}
	safeText = linkMarker.ReplaceAllString(safeText, `<a href="$1">$1</a> `)
	return markupPolicy().Sanitize(safeAuthor), markupPolicy().Sanitize(safeText)
}
