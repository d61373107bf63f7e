package models

import (
	"bytes"
	"encoding/json"
)

type AnalysisStatus string

const (
	StatusProcessing AnalysisStatus = "processing"
	StatusCompleted  AnalysisStatus = "completed"
	StatusError      AnalysisStatus = "error"
)

// Valid reports whether s is one of the statuses the backend may return.
func (s AnalysisStatus) Valid() bool {
	switch s {
	case StatusProcessing, StatusCompleted, StatusError:
		return true
	}
	return false
}

// Terminal reports whether no further polling is needed once s is observed.
func (s AnalysisStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// AnalysisResult is one observation of a job as returned by GET /results/{id}.
// Data is kept raw: under "completed" it is either a report string or a
// free-form object, under "error" it may be an object with an "error" field.
type AnalysisResult struct {
	ID     string          `json:"id"`
	Status AnalysisStatus  `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Report returns the payload when it is a JSON string.
func (r *AnalysisResult) Report() (string, bool) {
	if r == nil {
		return "", false
	}
	raw := bytes.TrimSpace(r.Data)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// ErrorMessage returns payload.error when the payload is an object carrying a
// non-empty string message. Any other shape yields false.
func (r *AnalysisResult) ErrorMessage() (string, bool) {
	if r == nil {
		return "", false
	}
	raw := bytes.TrimSpace(r.Data)
	if len(raw) == 0 || raw[0] != '{' {
		return "", false
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", false
	}
	msg, ok := payload["error"].(string)
	if !ok || msg == "" {
		return "", false
	}
	return msg, true
}

// Clone returns a deep copy so observers never share the payload buffer.
func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}
	out := *r
	if r.Data != nil {
		out.Data = append(json.RawMessage(nil), r.Data...)
	}
	return &out
}
