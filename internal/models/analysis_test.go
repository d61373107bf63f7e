package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestAnalysisResultDecode(t *testing.T) {
	var r AnalysisResult
	body := `{"id":"abc","status":"completed","data":"<table></table>"}`
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if r.ID != "abc" || r.Status != StatusCompleted {
		t.Fatalf("decoded %+v", r)
	}
	if report, ok := r.Report(); !ok || report != "<table></table>" {
		t.Errorf("Report() = %q, %v", report, ok)
	}
}

func TestAnalysisResultReport(t *testing.T) {
	tests := []struct {
		data   string
		want   string
		wantOK bool
	}{
		{`"High"`, "High", true},
		{`""`, "", true},
		{`{"foo":"bar"}`, "", false},
		{`null`, "", false},
		{``, "", false},
		{`42`, "", false},
		{`["High"]`, "", false},
	}
	for _, tt := range tests {
		r := &AnalysisResult{Status: StatusCompleted, Data: json.RawMessage(tt.data)}
		got, ok := r.Report()
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Report(%s) = %q, %v, want %q, %v", tt.data, got, ok, tt.want, tt.wantOK)
		}
	}

	var nilResult *AnalysisResult
	if _, ok := nilResult.Report(); ok {
		t.Error("nil result should have no report")
	}
}

func TestAnalysisResultErrorMessage(t *testing.T) {
	tests := []struct {
		data   string
		want   string
		wantOK bool
	}{
		{`{"error":"parse failure"}`, "parse failure", true},
		{`{}`, "", false},
		{`{"error":""}`, "", false},
		{`{"error":17}`, "", false},
		{`"Failed to analyze code"`, "", false},
		{`null`, "", false},
		{``, "", false},
	}
	for _, tt := range tests {
		r := &AnalysisResult{Status: StatusError, Data: json.RawMessage(tt.data)}
		got, ok := r.ErrorMessage()
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ErrorMessage(%s) = %q, %v, want %q, %v", tt.data, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestAnalysisStatus(t *testing.T) {
	if !StatusCompleted.Terminal() || !StatusError.Terminal() || StatusProcessing.Terminal() {
		t.Error("unexpected Terminal() results")
	}
	if AnalysisStatus("queued").Valid() {
		t.Error("queued should not be a valid status")
	}
}

func TestAnalysisResultClone(t *testing.T) {
	r := &AnalysisResult{ID: "a", Status: StatusCompleted, Data: json.RawMessage(`"x"`)}
	c := r.Clone()
	c.Data[1] = 'y'
	if string(r.Data) != `"x"` {
		t.Errorf("clone shares payload buffer: %s", r.Data)
	}
}

func TestValidateArtifactName(t *testing.T) {
	for _, name := range []string{"main.go", "app.TSX", "bundle.zip", "dir/script.py"} {
		if err := ValidateArtifactName(name); err != nil {
			t.Errorf("ValidateArtifactName(%q) = %v", name, err)
		}
	}
	for _, name := range []string{"notes.txt", "Makefile", "archive.tar.gz"} {
		err := ValidateArtifactName(name)
		if !errors.Is(err, ErrUnsupportedArtifact) {
			t.Errorf("ValidateArtifactName(%q) = %v, want ErrUnsupportedArtifact", name, err)
		}
		var fe FileError
		if !errors.As(err, &fe) || fe.Name != name {
			t.Errorf("ValidateArtifactName(%q) error is not a FileError: %v", name, err)
		}
	}
}
