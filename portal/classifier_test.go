package portal

import (
	"errors"
	"testing"

	"github.com/tnpds-watch/shopcrawl/config"
	"github.com/tnpds-watch/shopcrawl/models"
	"github.com/tnpds-watch/shopcrawl/session"
	"github.com/tnpds-watch/shopcrawl/session/sessiontest"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.Status
	}{
		{name: "online", text: "Online", want: models.StatusOnline},
		{name: "offline with whitespace", text: "  OFFLINE  ", want: models.StatusOffline},
		{name: "unrecognized token", text: "Active", want: models.StatusUnknown},
		{name: "empty indicator", text: "", want: models.StatusUnknown},
	}

	classifier := NewClassifier(config.DefaultVocabulary())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := sessiontest.New()
			fake.SetText(selStatus, tt.text)

			got, err := classifier.Classify(fake)
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyMissingIndicatorIsUnknown(t *testing.T) {
	classifier := NewClassifier(config.DefaultVocabulary())
	fake := sessiontest.New()

	got, err := classifier.Classify(fake)
	if err != nil {
		t.Fatalf("Classify() error = %v, want nil for missing indicator", err)
	}
	if got != models.StatusUnknown {
		t.Errorf("Classify() = %q, want %q", got, models.StatusUnknown)
	}
}

func TestClassifyPropagatesSessionLoss(t *testing.T) {
	classifier := NewClassifier(config.DefaultVocabulary())
	fake := sessiontest.New()
	fake.Errs[selStatus] = session.ErrSessionLost{Err: errors.New("browser gone")}

	got, err := classifier.Classify(fake)
	if !session.IsSessionLost(err) {
		t.Fatalf("Classify() error = %v, want session lost", err)
	}
	if got != models.StatusUnknown {
		t.Errorf("Classify() = %q, want %q", got, models.StatusUnknown)
	}
}

func TestClassifyCustomVocabulary(t *testing.T) {
	classifier := NewClassifier(map[string]models.Status{
		"  Functioning ": models.StatusOnline,
		"CLOSED":         models.StatusOffline,
	})
	fake := sessiontest.New()
	fake.SetText(selStatus, "functioning")

	got, err := classifier.Classify(fake)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got != models.StatusOnline {
		t.Errorf("Classify() = %q, want %q", got, models.StatusOnline)
	}
}

func TestReadDetails(t *testing.T) {
	classifier := NewClassifier(config.DefaultVocabulary())
	fake := sessiontest.New()
	fake.Set(selDetailRow,
		sessiontest.DetailRow("Shop Code:", "SG-042"),
		sessiontest.DetailRow("Incharge", "K. Murugan"),
		sessiontest.DetailRow("Phone:", ""),
		&sessiontest.FakeElement{}, // row without label/value children
	)

	got := classifier.ReadDetails(fake)
	want := map[string]string{
		"Shop Code": "SG-042",
		"Incharge":  "K. Murugan",
	}
	if len(got) != len(want) {
		t.Fatalf("ReadDetails() = %v, want %v", got, want)
	}
	for key, value := range want {
		if got[key] != value {
			t.Errorf("ReadDetails()[%q] = %q, want %q", key, got[key], value)
		}
	}
}

func TestReadDetailsEmptyPageIsNil(t *testing.T) {
	classifier := NewClassifier(config.DefaultVocabulary())
	fake := sessiontest.New()

	if got := classifier.ReadDetails(fake); got != nil {
		t.Errorf("ReadDetails() = %v, want nil", got)
	}
}
