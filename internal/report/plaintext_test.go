package report

import "testing"

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "table",
			in: `<table>
  <tr><th>Severity</th><th>Issue</th></tr>
  <tr><td><span class="severity-high">High</span></td><td>SQL injection</td></tr>
</table>`,
			want: "| Severity | Issue\n| High | SQL injection",
		},
		{
			name: "headings and paragraphs",
			in:   "<h2>Summary</h2><p>Two issues</p><p>See below</p>",
			want: "## Summary\nTwo issues\nSee below",
		},
		{
			name: "entities",
			in:   "<p>a &lt; b &amp; c</p>",
			want: "a < b & c",
		},
		{
			name: "line breaks and lists",
			in:   "one<br>two<ul><li>three</li></ul>",
			want: "one\ntwo\n- three",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlainText(tt.in); got != tt.want {
				t.Errorf("PlainText()\n got: %q\nwant: %q", got, tt.want)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	in := "<h1>Report</h1><p>first</p><p>second</p><p>third</p>"
	want := "# Report\nfirst\n"
	if got := Summary(in, 2); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}
