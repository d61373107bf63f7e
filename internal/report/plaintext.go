package report

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var blankLines = regexp.MustCompile(`\n\s*\n`)

// PlainText renders report markup as terminal friendly text: table rows
// become lines, cells are separated by " | " and headings get markdown
// style prefixes. All other tags are dropped.
func PlainText(markup string) string {
	var output strings.Builder

	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or malformed input, either way we are done
			return tidy(output.String())

		case html.TextToken:
			text := string(z.Text())
			// indentation between tags
			if strings.TrimSpace(text) == "" && strings.Contains(text, "\n") {
				continue
			}
			output.WriteString(text)

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Br, atom.Table:
				output.WriteString("\n")
			case atom.H1:
				output.WriteString("\n# ")
			case atom.H2:
				output.WriteString("\n## ")
			case atom.H3:
				output.WriteString("\n### ")
			case atom.Td, atom.Th:
				output.WriteString(" | ")
			case atom.Li:
				output.WriteString("\n- ")
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.P, atom.Tr, atom.Table, atom.H1, atom.H2, atom.H3:
				output.WriteString("\n")
			}
		}
	}
}

func tidy(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Summary returns the first n non-blank lines of the plain text rendition.
func Summary(markup string, n int) string {
	var summary strings.Builder
	count := 0
	for _, line := range strings.Split(PlainText(markup), "\n") {
		if count >= n {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		summary.WriteString(line)
		summary.WriteString("\n")
		count++
	}
	return summary.String()
}
