package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tnpds-watch/shopcrawl/session"
	"github.com/tnpds-watch/shopcrawl/session/sessiontest"
)

func TestAwaitResolvesOnceElementAppears(t *testing.T) {
	fake := sessiontest.New()
	fake.SetAfter("#marker", 5*time.Millisecond, &sessiontest.FakeElement{TextValue: "ready"})

	el, err := session.Await(context.Background(), fake, "marker", func(s session.Session) (session.Element, error) {
		return s.Find("#marker")
	}, 500*time.Millisecond, time.Millisecond)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	text, err := el.Text()
	if err != nil || text != "ready" {
		t.Fatalf("got %q (%v), want ready", text, err)
	}
}

func TestAwaitTimesOut(t *testing.T) {
	fake := sessiontest.New()

	_, err := session.Await(context.Background(), fake, "marker", func(s session.Session) (session.Element, error) {
		return s.Find("#never")
	}, 10*time.Millisecond, time.Millisecond)

	var timeout session.ErrWaitTimeout
	if !errors.As(err, &timeout) {
		t.Fatalf("want ErrWaitTimeout, got %v", err)
	}
	if timeout.What != "marker" {
		t.Fatalf("timeout names %q, want marker", timeout.What)
	}
}

func TestAwaitAbortsOnNonRetryableError(t *testing.T) {
	fake := sessiontest.New()
	lost := session.ErrSessionLost{Err: errors.New("browser exited")}
	fake.Errs["#marker"] = lost

	_, err := session.Await(context.Background(), fake, "marker", func(s session.Session) (session.Element, error) {
		return s.Find("#marker")
	}, time.Second, time.Millisecond)

	if !session.IsSessionLost(err) {
		t.Fatalf("want session-lost to abort the poll, got %v", err)
	}
}

func TestAwaitHonorsContextCancellation(t *testing.T) {
	fake := sessiontest.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := session.Await(ctx, fake, "marker", func(s session.Session) (session.Element, error) {
		return s.Find("#never")
	}, time.Minute, time.Millisecond)
	if err == nil {
		t.Fatalf("expected error after cancellation")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("cancelled await took %v", elapsed)
	}
}

func TestAwaitAllowsAbsencePredicates(t *testing.T) {
	fake := sessiontest.New()

	el, err := session.Await(context.Background(), fake, "dialog closed", func(s session.Session) (session.Element, error) {
		if _, err := s.Find("#dialog"); err == nil {
			return nil, session.ErrElementNotFound{Selector: "#dialog still present"}
		}
		return nil, nil
	}, 50*time.Millisecond, time.Millisecond)
	if err != nil {
		t.Fatalf("absence predicate should satisfy with nil element: %v", err)
	}
	if el != nil {
		t.Fatalf("expected nil element for absence predicate")
	}
}

func TestIsSessionLost(t *testing.T) {
	wrapped := session.ErrSessionLost{Err: errors.New("gone")}
	if !session.IsSessionLost(wrapped) {
		t.Fatalf("direct ErrSessionLost not detected")
	}
	if session.IsSessionLost(session.ErrElementNotFound{Selector: "x"}) {
		t.Fatalf("ErrElementNotFound misdetected as session loss")
	}
}
