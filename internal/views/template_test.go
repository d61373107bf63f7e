package views

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rahul4469/code-scanner/internal/report"
)

type uploadData struct {
	FormID   string
	Accept   string
	Formats  string
	MaxBytes int64
}

type resultsData struct {
	View         report.View
	ArtifactName string
	StreamURL    string
}

func TestUploadPage(t *testing.T) {
	tmpl, err := ParseFS("pages/upload.gohtml")
	if err != nil {
		t.Fatalf("ParseFS: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	tmpl.ExecuteHTTP(rec, req, &TemplateData{
		Title:     "Upload",
		CSRFField: template.HTML(`<input type="hidden" name="gorilla.csrf.Token" value="tok">`),
		Theme:     ThemeGradient,
		Data: uploadData{
			FormID:   "form-1",
			Accept:   ".go,.py",
			Formats:  "Go, Python",
			MaxBytes: 10 << 20,
		},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`class="theme-gradient"`,
		`name="gorilla.csrf.Token" value="tok"`,
		`name="form_id" value="form-1"`,
		`accept=".go,.py"`,
		`enctype="multipart/form-data"`,
		"10.0 MB",
		`class="severity-high"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("upload page missing %s", want)
		}
	}
}

func TestResultsPageDefaultsTheme(t *testing.T) {
	tmpl := MustParseFS("pages/results.gohtml")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/results/job-1", nil)
	tmpl.ExecuteHTTPWithStatus(rec, req, http.StatusAccepted, &TemplateData{
		Data: resultsData{
			View:      report.View{Kind: report.ViewLoading, JobID: "job-1"},
			StreamURL: "/results/job-1/ws",
		},
	})

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`class="theme-dark"`, "Results ID: job-1", `data-stream="/results/job-1/ws"`, `data-kind="loading"`} {
		if !strings.Contains(body, want) {
			t.Errorf("results page missing %s", want)
		}
	}
}

func TestResultViewFragment(t *testing.T) {
	tmpl := MustParseFS("pages/results.gohtml")

	tests := []struct {
		name    string
		view    report.View
		want    []string
		notWant []string
	}{
		{
			name: "processing",
			view: report.View{Kind: report.ViewProcessing, Message: report.MsgProcessing},
			want: []string{"panel-pending", report.MsgProcessing},
		},
		{
			name: "report is not escaped",
			view: report.View{Kind: report.ViewReport, Report: `<span class="severity-high">High</span>`},
			want: []string{"panel-report", `<span class="severity-high">High</span>`, "window.print()"},
		},
		{
			name:    "error message is escaped",
			view:    report.View{Kind: report.ViewAnalysisError, Message: "<b>boom</b>"},
			want:    []string{"panel-error", "Error: &lt;b&gt;boom&lt;/b&gt;"},
			notWant: []string{"<b>boom</b>"},
		},
		{
			name: "transport error",
			view: report.View{Kind: report.ViewTransportError, Message: report.MsgFetchFailed},
			want: []string{"panel-error", report.MsgFetchFailed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tmpl.ExecuteFragment("result-view", tt.view)
			if err != nil {
				t.Fatalf("ExecuteFragment: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("fragment missing %q:\n%s", want, out)
				}
			}
			for _, bad := range tt.notWant {
				if strings.Contains(out, bad) {
					t.Errorf("fragment contains %q", bad)
				}
			}
		})
	}
}

func TestThemeFor(t *testing.T) {
	if got := ThemeFor("gradient", ThemeDark); got != ThemeGradient {
		t.Errorf("ThemeFor(gradient) = %q", got)
	}
	if got := ThemeFor("neon", ThemeGradient); got != ThemeGradient {
		t.Errorf("ThemeFor(neon) = %q, want fallback", got)
	}
	if _, err := ParseTheme(""); err == nil {
		t.Error("empty theme should not parse")
	}
}
