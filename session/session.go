// Package session wraps a single browser-automation session behind a small
// capability interface: navigate, find, click, read, select, wait. Any
// engine offering these primitives with configurable timeouts can back it;
// the shipped implementation drives Chromium through playwright.
package session

import (
	"context"
	"errors"
	"time"
)

// Element is a handle to a located DOM element.
type Element interface {
	Text() (string, error)
	Click() error
	Find(selector string) (Element, error)
	FindAll(selector string) ([]Element, error)
}

// Session is one live browser session. All operations are synchronous; the
// underlying browser is single-threaded per run and the session is owned
// exclusively by the currently running pipeline invocation.
type Session interface {
	NavigateTo(url string) error
	Find(selector string) (Element, error)
	FindAll(selector string) ([]Element, error)
	Click(selector string) error
	ReadText(selector string) (string, error)
	// Select picks a dropdown option by its visible label.
	Select(selector, label string) error

	Screenshot() ([]byte, error)
	PageSource() (string, error)

	// Alive reports whether the session can still serve requests. A dead
	// session must be replaced through the factory, never reused.
	Alive() bool
	Close() error
}

// Factory creates sessions. The resilience layer uses it to replace a lost
// session mid-batch.
type Factory interface {
	New(ctx context.Context) (Session, error)
}

// Predicate probes the session for a ready condition. Returning a nil error
// means the condition holds; the returned element may be nil for absence
// checks. ErrElementNotFound and ErrWaitTimeout keep the poll going, any
// other error aborts it.
type Predicate func(s Session) (Element, error)

// Await polls pred until it succeeds or timeout elapses. This is the only
// suspension point in the session contract: asynchronous UI updates are
// always waited for with an explicit bounded predicate, never a fixed sleep.
func Await(ctx context.Context, s Session, what string, pred Predicate, timeout, interval time.Duration) (Element, error) {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	deadline := time.Now().Add(timeout)

	for {
		el, err := pred(s)
		if err == nil {
			return el, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, ErrWaitTimeout{What: what, Timeout: timeout}
		}
		select {
		case <-ctx.Done():
			return nil, ErrWaitTimeout{What: what, Timeout: timeout}
		case <-time.After(interval):
		}
	}
}

func isRetryable(err error) bool {
	var notFound ErrElementNotFound
	if errors.As(err, &notFound) {
		return true
	}
	var timeout ErrWaitTimeout
	return errors.As(err, &timeout)
}
