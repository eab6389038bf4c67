package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/pet-portal/internal/domains/listings/application/form"
)

var (
	// ErrInvalidInput signals a submission that cannot be processed as given.
	ErrInvalidInput = errors.New("invalid listing input")
	// ErrSubmissionFailed is matched by every SubmissionError.
	ErrSubmissionFailed = errors.New("listing submission failed")

	ErrDuplicateFilename   = errors.New("image filenames must be unique")
	ErrOverwritesKeptImage = errors.New("image filename matches an image the listing keeps")
	ErrMissingUploadTarget = errors.New("upload target missing for file")
	ErrMissingListingID    = errors.New("listing id is required when editing")
)

// Stage names the step of a submission that failed.
type Stage string

const (
	StageUploadTargets Stage = "upload_targets"
	StageTransfer      Stage = "transfer"
	StageFinalize      Stage = "finalize"
)

// SubmissionError is the single failure reported for an aborted submission.
// Its message stays generic; the cause is kept for logs and traces.
type SubmissionError struct {
	Stage     Stage
	ListingID string
	Err       error
}

func (e *SubmissionError) Error() string { return ErrSubmissionFailed.Error() }

func (e *SubmissionError) Unwrap() []error { return []error{ErrSubmissionFailed, e.Err} }

// Cause returns the underlying failure for diagnostics.
func (e *SubmissionError) Cause() error { return e.Err }

func submissionFailed(stage Stage, listingID string, err error) error {
	return &SubmissionError{Stage: stage, ListingID: listingID, Err: err}
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, form.ErrValidation) ||
		errors.Is(err, ErrDuplicateFilename) ||
		errors.Is(err, ErrOverwritesKeptImage) ||
		errors.Is(err, ErrMissingListingID) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
