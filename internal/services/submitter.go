package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/go-logr/logr"

	"github.com/rahul4469/code-scanner/internal/models"
)

// Uploader hands an artifact to the backend and returns the issued job id.
type Uploader interface {
	Upload(ctx context.Context, artifact models.Artifact) (string, error)
}

// Submitter serialises submissions for a single form instance. While one
// submission is in flight any further Submit fails with
// models.ErrSubmissionInFlight; nothing is queued or retried.
type Submitter struct {
	uploader Uploader
	logger   logr.Logger
	busy     atomic.Bool
}

// NewSubmitter creates a Submitter backed by uploader.
func NewSubmitter(uploader Uploader, logger logr.Logger) *Submitter {
	return &Submitter{
		uploader: uploader,
		logger:   logger.WithName("submitter"),
	}
}

// Busy reports whether a submission is currently in flight.
func (s *Submitter) Busy() bool {
	return s.busy.Load()
}

// Submit uploads artifact and returns the job the backend created for it.
func (s *Submitter) Submit(ctx context.Context, artifact models.Artifact) (models.Job, error) {
	if artifact.Body == nil || artifact.Name == "" {
		return models.Job{}, models.ErrEmptyArtifact
	}
	if !s.busy.CompareAndSwap(false, true) {
		return models.Job{}, models.ErrSubmissionInFlight
	}
	defer s.busy.Store(false)

	id, err := s.uploader.Upload(ctx, artifact)
	if err != nil {
		s.logger.Error(err, "submission failed", "artifact", artifact.Name)
		return models.Job{}, fmt.Errorf("submit %s: %w", artifact.Name, err)
	}

	s.logger.Info("submission accepted", "artifact", artifact.Name, "job", id)
	return models.Job{ID: id, ArtifactName: artifact.Name}, nil
}
