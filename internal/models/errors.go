package models

import (
	"errors"
	"fmt"
)

// Submission related errors
var (
	ErrSubmissionInFlight  = errors.New("a submission is already in flight")
	ErrUnsupportedArtifact = errors.New("unsupported artifact type")
	ErrEmptyArtifact       = errors.New("no artifact selected")
	ErrMissingJobID        = errors.New("backend response did not include a job id")
)

// Result acquisition errors
var (
	ErrUnknownStatus    = errors.New("backend reported an unknown status")
	ErrWatcherStarted   = errors.New("watcher already started")
	ErrWatcherClosed    = errors.New("watcher closed")
	ErrPollLimitReached = errors.New("poll limit reached before the analysis finished")
)

// BackendError is returned when the analysis backend answers with a non-2xx status.
type BackendError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *BackendError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend %s failed (status %d)", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("backend %s failed (status %d): %s", e.Op, e.StatusCode, e.Body)
}

type FileError struct {
	Name  string
	Issue string
}

func (fe FileError) Error() string {
	return fmt.Sprintf("invalid file %q: %v", fe.Name, fe.Issue)
}

func (fe FileError) Unwrap() error {
	return ErrUnsupportedArtifact
}
