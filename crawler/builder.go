package crawler

import (
	"time"

	"github.com/tnpds-watch/shopcrawl/models"
)

// recordBuilder accumulates a shop's record progressively so that a failure
// late in the pipeline still emits whatever was captured earlier. Every shop
// yields exactly one record, built exactly once.
type recordBuilder struct {
	rec models.ShopRecord
}

func newRecordBuilder(q models.ShopQuery) *recordBuilder {
	return &recordBuilder{
		rec: models.ShopRecord{
			Query:     q,
			Status:    models.StatusUnknown,
			BillItems: []models.BillItem{},
		},
	}
}

func (b *recordBuilder) SetStatus(status models.Status) {
	b.rec.Status = status
}

func (b *recordBuilder) SetDetails(details map[string]string) {
	if len(details) == 0 {
		return
	}
	b.rec.ShopDetails = details
}

func (b *recordBuilder) SetTransaction(summary *models.TransactionSummary, items []models.BillItem) {
	b.rec.LastTransaction = summary
	if items == nil {
		items = []models.BillItem{}
	}
	b.rec.BillItems = items
}

func (b *recordBuilder) Fail(kind models.FailureKind, cause, message string) {
	b.rec.Error = &models.ErrorInfo{Kind: kind, Cause: cause, Message: message}
}

// Build stamps the capture time and returns the finished record.
func (b *recordBuilder) Build() *models.ShopRecord {
	rec := b.rec
	rec.CapturedAt = time.Now().UTC()
	return &rec
}

// notAttemptedRecord is the record for a shop never reached before the run
// deadline expired.
func notAttemptedRecord(q models.ShopQuery) *models.ShopRecord {
	b := newRecordBuilder(q)
	b.Fail(models.FailureNotAttempted, "", "run deadline exhausted before this shop was attempted")
	return b.Build()
}
