package report

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// hookClass matches the only class values allowed through: the styling
// hooks and badges this package adds itself.
var hookClass = regexp.MustCompile(`^(severity-(high|medium|low)|report-(table|thead|tbody|row|th|td))$`)

var policy = newPolicy()

// newPolicy is the allow-list applied to every backend report. Anything not
// listed here, including scripts, styles, event handlers and inline CSS, is
// dropped.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"table", "thead", "tbody", "tfoot", "tr", "th", "td", "caption",
		"p", "br", "hr", "div", "span", "blockquote",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"strong", "b", "em", "i", "u", "code", "pre",
		"ul", "ol", "li",
	)
	p.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("td", "th")
	p.AllowAttrs("class").Matching(hookClass).OnElements("table", "thead", "tbody", "tr", "th", "td", "span")

	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)

	return p
}

// Sanitize reduces untrusted markup to the report allow-list.
func Sanitize(markup string) string {
	return policy.Sanitize(markup)
}
