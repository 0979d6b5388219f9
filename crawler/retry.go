package crawler

import (
	"context"
	"errors"
	"time"

	"github.com/tnpds-watch/shopcrawl/models"
	"github.com/tnpds-watch/shopcrawl/session"
)

// stage identifies which step function an attempt failed in. The failed
// stage, not the error type alone, determines the recorded failure kind.
type stage int

const (
	stageNavigate stage = iota
	stageClassify
	stageExtract
)

// Cause labels for ErrorInfo.Cause and the failure metrics.
const (
	causeElementNotFound = "ElementNotFound"
	causeTimeout         = "TimeoutFailure"
	causeSessionLost     = "SessionLost"
	causeUnknown         = "UnknownFailure"
)

func causeLabel(err error) string {
	if err == nil {
		return causeUnknown
	}
	if session.IsSessionLost(err) {
		return causeSessionLost
	}
	var notFound session.ErrElementNotFound
	if errors.As(err, &notFound) {
		return causeElementNotFound
	}
	var timeout session.ErrWaitTimeout
	if errors.As(err, &timeout) {
		return causeTimeout
	}
	return causeUnknown
}

// classifyFailure maps a failed stage and its error to the kind recorded on
// the shop's record. Session loss outranks the stage: it is the one
// condition that triggers session replacement.
func classifyFailure(st stage, err error) (models.FailureKind, string) {
	cause := causeLabel(err)
	if cause == causeSessionLost {
		return models.FailureSessionLost, cause
	}
	switch st {
	case stageNavigate:
		return models.FailureNavigation, cause
	case stageClassify:
		return models.FailureClassification, cause
	case stageExtract:
		return models.FailureExtraction, cause
	}
	return models.FailureUnknown, cause
}

// pause sleeps for the fixed retry pause, returning early if ctx is done.
// The portal emits no rate-limit signal, so there is nothing to back off
// from; a short fixed pause is all retries get.
func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
