package portal

import (
	"errors"
	"strings"

	"github.com/tnpds-watch/shopcrawl/models"
	"github.com/tnpds-watch/shopcrawl/session"
)

// Classifier maps the detail page's status indicator to a Status. The match
// vocabulary is configuration, not code: the portal's indicator wording is
// not stable across deployments.
type Classifier struct {
	vocab map[string]models.Status
}

// NewClassifier builds a classifier over a token-to-status vocabulary.
// Tokens are compared lowercased and trimmed.
func NewClassifier(vocab map[string]models.Status) *Classifier {
	normalized := make(map[string]models.Status, len(vocab))
	for token, status := range vocab {
		normalized[strings.ToLower(strings.TrimSpace(token))] = status
	}
	return &Classifier{vocab: normalized}
}

// Classify reads the status indicator. A missing indicator or unrecognized
// text is unknown, never an error; classification ambiguity must not abort
// the shop's record. Only session-level failures propagate.
func (c *Classifier) Classify(s session.Session) (models.Status, error) {
	text, err := s.ReadText(selStatus)
	if err != nil {
		var notFound session.ErrElementNotFound
		if errors.As(err, &notFound) {
			return models.StatusUnknown, nil
		}
		return models.StatusUnknown, err
	}

	if status, ok := c.vocab[strings.ToLower(strings.TrimSpace(text))]; ok {
		return status, nil
	}
	return models.StatusUnknown, nil
}

// ReadDetails captures the detail page's label/value pairs. Best effort:
// rows that fail to read are skipped, and a page without the detail
// container yields nil.
func (c *Classifier) ReadDetails(s session.Session) map[string]string {
	rows, err := s.FindAll(selDetailRow)
	if err != nil || len(rows) == 0 {
		return nil
	}

	details := make(map[string]string)
	for _, row := range rows {
		labelEl, err := row.Find("label")
		if err != nil {
			continue
		}
		label, err := labelEl.Text()
		if err != nil {
			continue
		}
		key := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(label), ":"))
		if key == "" {
			continue
		}

		value := ""
		if valueEl, err := row.Find("span"); err == nil {
			if text, err := valueEl.Text(); err == nil {
				value = strings.TrimSpace(text)
			}
		}
		if value != "" {
			details[key] = value
		}
	}
	if len(details) == 0 {
		return nil
	}
	return details
}
