/*
Package sanitize cleans client supplied text before the relay echoes it to other connections.

Markup is filtered through a fixed bluemonday allow-list: basic formatting, links, lists,
headings, images and styled span/div elements whose style attribute may only carry color,
background-color and font-size declarations. Only absolute http and https URLs survive;
an anchor whose href is dropped keeps its text inside a bare <a>.
*/
package sanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer removes disallowed markup from text. It is safe for concurrent use.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// New builds a Sanitizer with the relay's markup allow-list.
func New() *Sanitizer {
	return &Sanitizer{policy: newPolicy()}
}

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"b", "i", "em", "strong",
		"p", "br",
		"ul", "ol", "li",
		"span", "div", "marquee",
		"h1", "h2", "h3", "h4", "h5", "h6",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowNoAttrs().OnElements("a")
	p.AllowAttrs("src", "height", "width").OnElements("img")
	p.AllowStyles("color", "background-color", "font-size").OnElements("span", "div")

	p.AllowURLSchemes("http", "https")
	p.RequireParseableURLs(true)

	return p
}

// Markup returns text with every element, attribute and style outside the allow-list removed.
// Applying Markup to its own output returns the output unchanged.
func (s *Sanitizer) Markup(text string) string {
	return s.policy.Sanitize(text)
}
