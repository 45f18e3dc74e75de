package entity

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed caller input. It is never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for field.
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ClassificationReason categorizes classifier failures.
type ClassificationReason string

const (
	ReasonTimeout             ClassificationReason = "timeout"
	ReasonMalformedInput      ClassificationReason = "malformed_input"
	ReasonMalformedOutput     ClassificationReason = "malformed_output"
	ReasonUpstreamUnavailable ClassificationReason = "upstream_unavailable"
)

// ClassificationError reports a failed classifier call for one request.
type ClassificationError struct {
	Request ScoringRequest
	Reason  ClassificationReason
	Err     error
}

func (e *ClassificationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("classification failed (%s)", e.Reason)
	}
	return fmt.Sprintf("classification failed (%s): %v", e.Reason, e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// NewClassificationError wraps err with a reason.
func NewClassificationError(reason ClassificationReason, err error) *ClassificationError {
	return &ClassificationError{Reason: reason, Err: err}
}

// DeliveryError reports a failed webhook attempt.
type DeliveryError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("delivery to %s failed: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("delivery to %s failed with status %d", e.Endpoint, e.StatusCode)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
