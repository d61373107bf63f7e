package report

import (
	"encoding/json"
	"errors"
	"html/template"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rahul4469/code-scanner/internal/models"
	"github.com/rahul4469/code-scanner/internal/poller"
)

func snapshot(state poller.State, status models.AnalysisStatus, data string) poller.Snapshot {
	s := poller.Snapshot{JobID: "job-1", State: state}
	if status != "" {
		s.Result = &models.AnalysisResult{ID: "job-1", Status: status}
		if data != "" {
			s.Result.Data = json.RawMessage(data)
		}
	}
	return s
}

func TestRenderView(t *testing.T) {
	tests := []struct {
		name string
		snap poller.Snapshot
		want View
	}{
		{
			name: "unstarted",
			snap: snapshot(poller.StateUnstarted, "", ""),
			want: View{Kind: ViewLoading, JobID: "job-1"},
		},
		{
			name: "first poll in flight",
			snap: snapshot(poller.StateLoading, "", ""),
			want: View{Kind: ViewLoading, JobID: "job-1"},
		},
		{
			name: "processing",
			snap: snapshot(poller.StateProcessing, models.StatusProcessing, ""),
			want: View{Kind: ViewProcessing, JobID: "job-1", Message: MsgProcessing},
		},
		{
			name: "re-polling keeps the processing view",
			snap: snapshot(poller.StateLoading, models.StatusProcessing, ""),
			want: View{Kind: ViewProcessing, JobID: "job-1", Message: MsgProcessing},
		},
		{
			name: "completed string report",
			snap: snapshot(poller.StateCompleted, models.StatusCompleted, `"Severity: High risk found"`),
			want: View{
				Kind:   ViewReport,
				JobID:  "job-1",
				Report: template.HTML(`Severity: <span class="severity-high">High</span> risk found`),
			},
		},
		{
			name: "completed object payload",
			snap: snapshot(poller.StateCompleted, models.StatusCompleted, `{"foo":"bar"}`),
			want: View{Kind: ViewReport, JobID: "job-1", Report: NoResultsPlaceholder},
		},
		{
			name: "completed without payload",
			snap: snapshot(poller.StateCompleted, models.StatusCompleted, ""),
			want: View{Kind: ViewReport, JobID: "job-1", Report: NoResultsPlaceholder},
		},
		{
			name: "completed null payload",
			snap: snapshot(poller.StateCompleted, models.StatusCompleted, "null"),
			want: View{Kind: ViewReport, JobID: "job-1", Report: NoResultsPlaceholder},
		},
		{
			name: "backend error with message",
			snap: snapshot(poller.StateCompleted, models.StatusError, `{"error":"parse failure"}`),
			want: View{Kind: ViewAnalysisError, JobID: "job-1", Message: "parse failure"},
		},
		{
			name: "backend error empty object",
			snap: snapshot(poller.StateCompleted, models.StatusError, `{}`),
			want: View{Kind: ViewAnalysisError, JobID: "job-1", Message: MsgAnalysisFailed},
		},
		{
			name: "backend error non-string message",
			snap: snapshot(poller.StateCompleted, models.StatusError, `{"error":{"code":3}}`),
			want: View{Kind: ViewAnalysisError, JobID: "job-1", Message: MsgAnalysisFailed},
		},
		{
			name: "backend error string payload",
			snap: snapshot(poller.StateCompleted, models.StatusError, `"boom"`),
			want: View{Kind: ViewAnalysisError, JobID: "job-1", Message: MsgAnalysisFailed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderView(tt.snap)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("RenderView mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderViewTransportErrors(t *testing.T) {
	snap := poller.Snapshot{JobID: "job-1", State: poller.StateErrored, Err: errors.New("connection refused")}
	v := RenderView(snap)
	if v.Kind != ViewTransportError || v.Message != MsgFetchFailed {
		t.Errorf("RenderView = %+v, want transport error", v)
	}
	if !v.Terminal() {
		t.Error("transport error view should be terminal")
	}

	snap.Err = models.ErrPollLimitReached
	snap.Result = &models.AnalysisResult{ID: "job-1", Status: models.StatusProcessing}
	if v := RenderView(snap); v.Kind != ViewTransportError || v.Message != MsgPollLimitReached {
		t.Errorf("RenderView = %+v, want poll limit message", v)
	}
}

func TestRenderViewSlow(t *testing.T) {
	snap := snapshot(poller.StateProcessing, models.StatusProcessing, "")
	snap.Slow = true

	v := RenderView(snap)
	if !v.Slow || v.Message != MsgSlow {
		t.Errorf("RenderView = %+v, want slow processing view", v)
	}
	if v.Terminal() {
		t.Error("processing view should not be terminal")
	}
}
