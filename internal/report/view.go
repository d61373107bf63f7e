package report

import (
	"errors"
	"html/template"

	"github.com/rahul4469/code-scanner/internal/models"
	"github.com/rahul4469/code-scanner/internal/poller"
)

// ViewKind selects which results panel is shown.
type ViewKind string

const (
	ViewLoading        ViewKind = "loading"
	ViewProcessing     ViewKind = "processing"
	ViewReport         ViewKind = "report"
	ViewAnalysisError  ViewKind = "analysis_error"
	ViewTransportError ViewKind = "transport_error"
)

// User facing messages.
const (
	MsgProcessing         = "Analyzing your code..."
	MsgSlow               = "Still processing, this is taking longer than expected."
	MsgAnalysisFailed     = "An error occurred during analysis"
	MsgFetchFailed        = "Failed to fetch results"
	MsgPollLimitReached   = "Analysis timed out. Reload the page to check again."
	MsgSubmissionFailed   = "Failed to upload file. Please try again."
	MsgSubmissionInFlight = "A submission is already in progress."
)

// View is everything the results page needs to draw one snapshot.
type View struct {
	Kind    ViewKind
	JobID   string
	Message string
	Report  template.HTML
	Slow    bool
}

// Terminal reports whether the view will not change again.
func (v View) Terminal() bool {
	switch v.Kind {
	case ViewReport, ViewAnalysisError, ViewTransportError:
		return true
	}
	return false
}

// RenderView derives the view for a snapshot. It depends on nothing but the
// snapshot and never fails: unexpected payload shapes fall back to the
// placeholder or generic messages.
func RenderView(snap poller.Snapshot) View {
	v := View{JobID: snap.JobID}

	if snap.State == poller.StateErrored {
		v.Kind = ViewTransportError
		v.Message = MsgFetchFailed
		if errors.Is(snap.Err, models.ErrPollLimitReached) {
			v.Message = MsgPollLimitReached
		}
		return v
	}

	if snap.Result == nil {
		v.Kind = ViewLoading
		return v
	}

	switch snap.Result.Status {
	case models.StatusCompleted:
		v.Kind = ViewReport
		if text, ok := snap.Result.Report(); ok {
			v.Report = Transform(text)
		} else {
			v.Report = template.HTML(NoResultsPlaceholder)
		}
	case models.StatusError:
		v.Kind = ViewAnalysisError
		v.Message = MsgAnalysisFailed
		if msg, ok := snap.Result.ErrorMessage(); ok {
			v.Message = msg
		}
	default:
		v.Kind = ViewProcessing
		v.Message = MsgProcessing
		v.Slow = snap.Slow
		if snap.Slow {
			v.Message = MsgSlow
		}
	}
	return v
}
