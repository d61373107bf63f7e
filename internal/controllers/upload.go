package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"sync"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/gorilla/csrf"

	"github.com/rahul4469/code-scanner/internal/middleware"
	"github.com/rahul4469/code-scanner/internal/models"
	"github.com/rahul4469/code-scanner/internal/report"
	"github.com/rahul4469/code-scanner/internal/services"
	"github.com/rahul4469/code-scanner/internal/views"
)

// UploadController serves the submission form and forwards uploads to the
// backend. Every rendered form carries its own id and gets its own
// Submitter, so a double submit of one form is rejected while other forms
// stay independent.
type UploadController struct {
	uploader  services.Uploader
	templates UploadTemplates
	maxBytes  int64
	theme     views.Theme
	logger    logr.Logger

	// form id -> *services.Submitter
	forms sync.Map
}

// UploadTemplates holds the templates for the upload page.
type UploadTemplates struct {
	Form *views.Template
}

// NewUploadController creates a new UploadController.
func NewUploadController(uploader services.Uploader, templates UploadTemplates, maxBytes int64, theme views.Theme, logger logr.Logger) *UploadController {
	return &UploadController{
		uploader:  uploader,
		templates: templates,
		maxBytes:  maxBytes,
		theme:     theme,
		logger:    logger.WithName("upload"),
	}
}

// UploadFormData holds data for the upload form template.
type UploadFormData struct {
	FormID   string
	Accept   string
	Formats  string
	MaxBytes int64
}

// GetUpload renders the upload form.
func (c *UploadController) GetUpload(w http.ResponseWriter, r *http.Request) {
	c.renderForm(w, r, http.StatusOK, uuid.NewString(), "")
}

// PostUpload handles the upload form submission.
func (c *UploadController) PostUpload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > c.maxBytes {
		c.renderForm(w, r, http.StatusRequestEntityTooLarge, uuid.NewString(), "The selected file is too large.")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, c.maxBytes)

	formID := r.FormValue("form_id")
	if _, err := uuid.Parse(formID); err != nil {
		formID = uuid.NewString()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			c.renderForm(w, r, http.StatusRequestEntityTooLarge, formID, "The selected file is too large.")
		case errors.Is(err, http.ErrMissingFile):
			c.renderForm(w, r, http.StatusBadRequest, formID, "Please select a file to analyze.")
		default:
			c.renderForm(w, r, http.StatusBadRequest, formID, "Invalid form data")
		}
		return
	}
	defer file.Close()

	job, err := c.submitter(formID).Submit(r.Context(), models.Artifact{
		Name: header.Filename,
		Body: file,
	})
	if err != nil {
		if errors.Is(err, models.ErrSubmissionInFlight) {
			c.renderForm(w, r, http.StatusConflict, formID, report.MsgSubmissionInFlight)
			return
		}
		// the form may retry, but with a fresh submitter
		c.forms.Delete(formID)
		middleware.Logger(r).Error(err, "upload failed", "artifact", header.Filename)
		c.renderForm(w, r, http.StatusBadGateway, formID, report.MsgSubmissionFailed)
		return
	}

	c.forms.Delete(formID)

	target := "/results/" + url.PathEscape(job.ID)
	if name := header.Filename; name != "" {
		target += "?" + url.Values{"name": {name}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// CSRFFailure renders the form again when gorilla/csrf rejects a request.
func (c *UploadController) CSRFFailure(w http.ResponseWriter, r *http.Request) {
	c.logger.Info("csrf check failed", "reason", csrf.FailureReason(r), "path", r.URL.Path)
	if r.ContentLength > c.maxBytes {
		c.renderForm(w, r, http.StatusRequestEntityTooLarge, uuid.NewString(), "The selected file is too large.")
		return
	}
	c.renderForm(w, r, http.StatusForbidden, uuid.NewString(), "Your session has expired. Please try again.")
}

func (c *UploadController) submitter(formID string) *services.Submitter {
	if s, ok := c.forms.Load(formID); ok {
		return s.(*services.Submitter)
	}
	s, _ := c.forms.LoadOrStore(formID, services.NewSubmitter(c.uploader, c.logger))
	return s.(*services.Submitter)
}

// renderForm renders the form with an optional error message.
func (c *UploadController) renderForm(w http.ResponseWriter, r *http.Request, status int, formID, errMsg string) {
	data := &views.TemplateData{
		Title:     "Code Analysis",
		CSRFField: csrf.TemplateField(r),
		Theme:     views.ThemeFor(r.URL.Query().Get("theme"), c.theme),
		Error:     errMsg,
		Data: UploadFormData{
			FormID:   formID,
			Accept:   models.SupportedExtensions,
			Formats:  models.SupportedFormats,
			MaxBytes: c.maxBytes,
		},
	}
	c.templates.Form.ExecuteHTTPWithStatus(w, r, status, data)
}
