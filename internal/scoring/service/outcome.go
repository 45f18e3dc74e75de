package service

import (
	"context"
	"errors"

	"golang-headline-signal/internal/entity"
)

// BatchOutcome is the result of one batch item. Exactly one of Result and
// Err is set.
type BatchOutcome struct {
	Index   int
	Request entity.ScoringRequest
	Result  *entity.Result
	Err     error
}

func (o BatchOutcome) OK() bool {
	return o.Err == nil && o.Result != nil
}

// asClassificationError attaches req to err, converting context and unknown
// errors into a ClassificationError.
func asClassificationError(req entity.ScoringRequest, err error) error {
	if err == nil || entity.IsValidationError(err) {
		return err
	}

	var ce *entity.ClassificationError
	if errors.As(err, &ce) {
		out := *ce
		out.Request = req
		return &out
	}

	reason := entity.ReasonUpstreamUnavailable
	if errors.Is(err, context.DeadlineExceeded) {
		reason = entity.ReasonTimeout
	}
	return &entity.ClassificationError{Request: req, Reason: reason, Err: err}
}
