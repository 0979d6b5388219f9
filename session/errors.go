package session

import (
	"errors"
	"fmt"
	"time"
)

// ErrElementNotFound indicates a selector matched nothing on the current
// page: either the portal structure changed or the render stalled.
type ErrElementNotFound struct {
	Selector string
}

func (e ErrElementNotFound) Error() string {
	return fmt.Sprintf("element not found: %s", e.Selector)
}

// ErrWaitTimeout indicates a wait predicate never became true within its
// timeout. Dependent dropdowns and the transaction dialog are the usual
// suspects.
type ErrWaitTimeout struct {
	What    string
	Timeout time.Duration
}

func (e ErrWaitTimeout) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %s", e.Timeout, e.What)
}

// ErrSessionLost indicates the browser session is unusable and must be
// replaced before retrying.
type ErrSessionLost struct {
	Err error
}

func (e ErrSessionLost) Error() string {
	return fmt.Errorf("session lost: %w", e.Err).Error()
}

func (e ErrSessionLost) Unwrap() error {
	return e.Err
}

// IsSessionLost reports whether err means the session must be replaced.
func IsSessionLost(err error) bool {
	var lost ErrSessionLost
	return errors.As(err, &lost)
}
