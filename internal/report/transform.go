// Package report turns backend analysis reports into safe, styled markup.
//
// Every report goes through the same pipeline: fenced-code markers are
// stripped, the text is reduced to an allow-list by the sanitizer, parsed
// into a node tree, decorated with table styling hooks and severity badges,
// and serialised again. Backend text is never inserted as raw markup.
package report

import (
	"html/template"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// NoResultsPlaceholder is shown when a completed job carries no report string.
const NoResultsPlaceholder = "No results found"

var severityPattern = regexp.MustCompile(`\b(High|Medium|Low)\b`)

// Table parts outside a <table> are dropped by the fragment parser, so
// reports made only of rows get a wrapper first.
var (
	tablePartTag = regexp.MustCompile(`(?i)<(thead|tbody|tfoot|tr|th|td)[\s>/]`)
	tableTag     = regexp.MustCompile(`(?i)<table[\s>/]`)
)

var severityClasses = map[string]string{
	"High":   "severity-high",
	"Medium": "severity-medium",
	"Low":    "severity-low",
}

var tableHooks = map[atom.Atom]string{
	atom.Table: "report-table",
	atom.Thead: "report-thead",
	atom.Tbody: "report-tbody",
	atom.Tr:    "report-row",
	atom.Th:    "report-th",
	atom.Td:    "report-td",
}

type decorations struct {
	tables bool
	badges bool
}

// Transform runs the full pipeline on a report string.
func Transform(report string) template.HTML {
	clean := Sanitize(StripFences(report))
	return template.HTML(decorate(clean, decorations{tables: true, badges: true}))
}

// StripFences removes a leading ```lang marker line and, when one was
// found, the trailing ``` marker line that closes it. A closing marker
// without an opening one belongs to the report and is kept.
func StripFences(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if !strings.HasPrefix(strings.TrimSpace(lines[0]), "```") {
		return strings.TrimSpace(s)
	}
	lines = lines[1:]
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "```" {
		lines = lines[:n-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// StyleTables adds the report-* class hooks to table elements.
func StyleTables(markup string) string {
	return decorate(markup, decorations{tables: true})
}

// WrapSeverity wraps standalone High, Medium and Low tokens in badges.
// Tokens already inside a badge are left alone, so applying it twice is
// the same as applying it once.
func WrapSeverity(markup string) string {
	return decorate(markup, decorations{badges: true})
}

func decorate(markup string, d decorations) string {
	if tablePartTag.MatchString(markup) && !tableTag.MatchString(markup) {
		markup = "<table>" + markup + "</table>"
	}

	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(markup), root)
	if err != nil {
		return html.EscapeString(markup)
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	walk(root, d, false)

	var b strings.Builder
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return html.EscapeString(markup)
		}
	}
	return b.String()
}

func walk(n *html.Node, d decorations, inBadge bool) {
	if n.Type == html.ElementNode {
		if hook, ok := tableHooks[n.DataAtom]; ok && d.tables {
			setClass(n, hook)
		}
		if n.DataAtom == atom.Span && isBadge(n) {
			inBadge = true
		}
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.TextNode {
			if d.badges && !inBadge {
				wrapText(c)
			}
		} else {
			walk(c, d, inBadge)
		}
		c = next
	}
}

// wrapText replaces text node t with text and badge nodes.
func wrapText(t *html.Node) {
	matches := severityPattern.FindAllStringSubmatchIndex(t.Data, -1)
	if len(matches) == 0 {
		return
	}

	parent := t.Parent
	pos := 0
	for _, m := range matches {
		if m[0] > pos {
			parent.InsertBefore(&html.Node{Type: html.TextNode, Data: t.Data[pos:m[0]]}, t)
		}
		parent.InsertBefore(badge(t.Data[m[2]:m[3]]), t)
		pos = m[1]
	}
	if pos < len(t.Data) {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: t.Data[pos:]}, t)
	}
	parent.RemoveChild(t)
}

func badge(level string) *html.Node {
	span := &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr:     []html.Attribute{{Key: "class", Val: severityClasses[level]}},
	}
	span.AppendChild(&html.Node{Type: html.TextNode, Data: level})
	return span
}

func isBadge(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key == "class" && strings.HasPrefix(a.Val, "severity-") {
			return true
		}
	}
	return false
}

func setClass(n *html.Node, class string) {
	for i, a := range n.Attr {
		if a.Key == "class" {
			n.Attr[i].Val = class
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
}
