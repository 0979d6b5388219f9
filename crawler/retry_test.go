package crawler

import (
	"errors"
	"testing"
	"time"

	"github.com/tnpds-watch/shopcrawl/models"
	"github.com/tnpds-watch/shopcrawl/session"
)

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		name      string
		stage     stage
		err       error
		wantKind  models.FailureKind
		wantCause string
	}{
		{
			name:      "navigation timeout",
			stage:     stageNavigate,
			err:       session.ErrWaitTimeout{What: "shop detail page", Timeout: time.Second},
			wantKind:  models.FailureNavigation,
			wantCause: "TimeoutFailure",
		},
		{
			name:      "navigation element missing",
			stage:     stageNavigate,
			err:       session.ErrElementNotFound{Selector: "#search"},
			wantKind:  models.FailureNavigation,
			wantCause: "ElementNotFound",
		},
		{
			name:      "classification error",
			stage:     stageClassify,
			err:       errors.New("read failed"),
			wantKind:  models.FailureClassification,
			wantCause: "UnknownFailure",
		},
		{
			name:      "extraction timeout",
			stage:     stageExtract,
			err:       session.ErrWaitTimeout{What: "transaction dialog content", Timeout: time.Second},
			wantKind:  models.FailureExtraction,
			wantCause: "TimeoutFailure",
		},
		{
			name:      "session loss outranks stage",
			stage:     stageExtract,
			err:       session.ErrSessionLost{Err: errors.New("browser crashed")},
			wantKind:  models.FailureSessionLost,
			wantCause: "SessionLost",
		},
		{
			name:      "wrapped session loss",
			stage:     stageNavigate,
			err:       session.ErrSessionLost{Err: session.ErrElementNotFound{Selector: "#x"}},
			wantKind:  models.FailureSessionLost,
			wantCause: "SessionLost",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, cause := classifyFailure(tt.stage, tt.err)
			if kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", kind, tt.wantKind)
			}
			if cause != tt.wantCause {
				t.Errorf("cause = %q, want %q", cause, tt.wantCause)
			}
		})
	}
}

func TestSanitizeID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"SG-042", "SG-042"},
		{"shop/42", "shop_42"},
		{"a b:c", "a_b_c"},
	}
	for _, tt := range tests {
		if got := sanitizeID(tt.in); got != tt.want {
			t.Errorf("sanitizeID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
