// Package sanitize cleans user-supplied text before it is stored in the
// hosted backend. Review comments and contact messages are plain text;
// product descriptions may carry a small allow-list of formatting tags.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer is safe for concurrent use; bluemonday policies are immutable
// once built.
type Sanitizer struct {
	strict *bluemonday.Policy
	rich   *bluemonday.Policy
}

func New() *Sanitizer {
	rich := bluemonday.NewPolicy()
	rich.AllowElements("p", "br", "ul", "ol", "li", "strong", "em", "b", "i")
	rich.AllowAttrs("href").OnElements("a")
	rich.AllowURLSchemes("https")
	rich.AllowRelativeURLs(false)
	rich.AddTargetBlankToFullyQualifiedLinks(true)
	rich.RequireNoReferrerOnLinks(true)

	return &Sanitizer{
		strict: bluemonday.StrictPolicy(),
		rich:   rich,
	}
}

// Text strips every tag and returns trimmed plain text. Entities are
// decoded so "Tom &amp; Jerry" is stored as "Tom & Jerry"; rendering is
// responsible for escaping.
func (s *Sanitizer) Text(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.strict.Sanitize(raw)))
}

// RichText keeps basic formatting and https links, and drops scripts,
// styles, event handlers and every other element.
func (s *Sanitizer) RichText(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(s.rich.Sanitize(raw))
}
