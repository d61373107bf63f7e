package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/rahul4469/code-scanner/context"
	"github.com/rahul4469/code-scanner/internal/report"
)

//go:embed templates
var embedded embed.FS

// TemplateFS is the filesystem templates are parsed from.
var TemplateFS fs.FS = embedded

// Template wraps a parsed template with helper methods for rendering.
type Template struct {
	tmpl *template.Template
}

// TemplateData is the standard data structure passed to all page templates.
type TemplateData struct {
	// CSRF hidden input for forms
	CSRFField template.HTML

	// Flash messages
	Error string
	Info  string

	// Page-specific data
	Data interface{}

	Title string
	Theme Theme

	// Request info
	CurrentPath string
	RequestID   string
}

// DefaultFuncMap returns the template functions available in all templates.
func DefaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"truncate":    truncate,
		"formatBytes": formatBytes,

		// Status/severity styling
		"statusClass":   statusClass,
		"severityClass": severityClass,
		"themeClass":    themeClass,

		"default": defaultValue,
	}
}

// ParseFS parses the requested page templates together with the base
// layout and every partial.
//
// Usage:
//
//	tmpl, err := views.ParseFS("pages/upload.gohtml")
//	// This will parse:
//	// - templates/layouts/base.gohtml
//	// - templates/partials/*.gohtml
//	// - templates/pages/upload.gohtml
func ParseFS(patterns ...string) (*Template, error) {
	tmpl := template.New("").Funcs(DefaultFuncMap())

	basePath := "templates/layouts/base.gohtml"
	baseContent, err := fs.ReadFile(TemplateFS, basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read base template: %w", err)
	}

	tmpl, err = tmpl.Parse(string(baseContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base template: %w", err)
	}

	// Partials define their own names with {{define "name"}}
	partialMatches, err := fs.Glob(TemplateFS, "templates/partials/*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("failed to glob partials: %w", err)
	}

	for _, match := range partialMatches {
		content, err := fs.ReadFile(TemplateFS, match)
		if err != nil {
			return nil, fmt.Errorf("failed to read partial %s: %w", match, err)
		}
		tmpl, err = tmpl.Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("failed to parse partial %s: %w", match, err)
		}
	}

	// Pages define {{define "content"}} and are rendered through "base"
	for _, pattern := range patterns {
		content, err := fs.ReadFile(TemplateFS, "templates/"+pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", pattern, err)
		}
		tmpl, err = tmpl.Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", pattern, err)
		}
	}

	return &Template{tmpl: tmpl}, nil
}

// MustParseFS is like ParseFS but panics on error.
// Use this during initialization when templates must be valid.
func MustParseFS(patterns ...string) *Template {
	tmpl, err := ParseFS(patterns...)
	if err != nil {
		panic(fmt.Sprintf("failed to parse templates: %v", err))
	}
	return tmpl
}

// Execute renders the full page to w.
func (t *Template) Execute(w io.Writer, data *TemplateData) error {
	return t.tmpl.ExecuteTemplate(w, "base", data)
}

// ExecuteFragment renders a single named block, such as a partial pushed
// to the browser after the page has loaded.
func (t *Template) ExecuteFragment(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

// ExecuteHTTP renders the template as a 200 response.
func (t *Template) ExecuteHTTP(w http.ResponseWriter, r *http.Request, data *TemplateData) {
	t.ExecuteHTTPWithStatus(w, r, http.StatusOK, data)
}

// ExecuteHTTPWithStatus renders the template with a custom HTTP status code.
// The page is rendered to a buffer first so a template error never leaves
// a half written response.
func (t *Template) ExecuteHTTPWithStatus(w http.ResponseWriter, r *http.Request, status int, data *TemplateData) {
	if data != nil {
		data.CurrentPath = r.URL.Path
		data.RequestID = context.ContextGetRequestID(r.Context())
		if data.Theme == "" {
			data.Theme = ThemeDark
		}
	}

	buf := &bytes.Buffer{}
	if err := t.Execute(buf, data); err != nil {
		context.ContextGetLogger(r.Context()).Error(err, "template execution failed", "path", r.URL.Path)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// Template function implementations

func truncate(s string, length int) string {
	if len(s) <= length || length < 4 {
		return s
	}
	return s[:length-3] + "..."
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// statusClass maps a results view kind to the panel modifier class.
func statusClass(kind report.ViewKind) string {
	switch kind {
	case report.ViewLoading, report.ViewProcessing:
		return "panel-pending"
	case report.ViewReport:
		return "panel-report"
	case report.ViewAnalysisError, report.ViewTransportError:
		return "panel-error"
	default:
		return "panel-neutral"
	}
}

func severityClass(severity string) string {
	switch strings.ToUpper(severity) {
	case "HIGH":
		return "severity-high"
	case "MEDIUM":
		return "severity-medium"
	case "LOW":
		return "severity-low"
	default:
		return ""
	}
}

func defaultValue(value, defaultVal interface{}) interface{} {
	if value == nil || value == "" || value == 0 {
		return defaultVal
	}
	return value
}
