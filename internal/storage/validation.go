package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/disputekit/disputekit/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrInvalidStatus  = errors.New("invalid dispute status")
	ErrInvalidDispute = errors.New("invalid dispute record")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateDispute enforces the record shape the pipeline guarantees: the
// prediction fields are populated together or not at all. A record with a
// category but empty annotation text is a partial pipeline result and must
// never be persisted.
func validateDispute(record *model.DisputeRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if strings.TrimSpace(record.DisputeID) == "" {
		return fmt.Errorf("%w: missing dispute_id", ErrInvalidDispute)
	}
	if strings.TrimSpace(record.Description) == "" {
		return fmt.Errorf("%w: missing description", ErrInvalidDispute)
	}
	if !record.PredictedCategory.Valid() {
		return fmt.Errorf("%w: category %q", ErrInvalidDispute, record.PredictedCategory)
	}
	if record.Confidence < 0 || record.Confidence > 1 {
		return fmt.Errorf("%w: confidence %f out of range", ErrInvalidDispute, record.Confidence)
	}
	if record.Explanation == "" || record.SuggestedAction == "" || record.Justification == "" {
		return fmt.Errorf("%w: prediction fields partially populated", ErrInvalidDispute)
	}
	if !record.Status.Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalidStatus, record.Status)
	}
	if record.CreatedAt.IsZero() {
		return fmt.Errorf("%w: missing created_at", ErrInvalidDispute)
	}
	return nil
}
