package crawler_test

import (
	"context"
	"testing"
	"time"

	"github.com/tnpds-watch/shopcrawl/config"
	"github.com/tnpds-watch/shopcrawl/crawler"
	"github.com/tnpds-watch/shopcrawl/models"
	"github.com/tnpds-watch/shopcrawl/portal"
	"github.com/tnpds-watch/shopcrawl/session"
	"github.com/tnpds-watch/shopcrawl/session/sessiontest"
)

// Portal markup used by the scripted end-to-end session. These mirror the
// live report page so the real step functions run unchanged against the fake.
const (
	e2eDistrict    = `#fpsReportForm\:district`
	e2eTaluk       = `#fpsReportForm\:taluk`
	e2eShop        = `#fpsReportForm\:fps`
	e2eSearch      = `#fpsReportForm\:searchButton`
	e2eDetailRoot  = ".fps-detail-container"
	e2eDetailRow   = ".fps-detail-container .detail-row"
	e2eStatus      = `.shop-status, .status-indicator, span[class*="status"]`
	e2eTxnRow      = ".fps-detail-container table.transaction-history tbody tr"
	e2eViewLink    = "a.link-view"
	e2eDialog      = ".ui-dialog"
	e2eDialogRow   = ".ui-dialog form#billForm table tbody tr"
	e2eDialogClose = ".ui-dialog .ui-dialog-titlebar-close"
)

type scriptedFactory struct {
	build func() *sessiontest.Fake
}

func (f *scriptedFactory) New(ctx context.Context) (session.Session, error) {
	return f.build(), nil
}

// sivagangaiPortal scripts the full portal flow for one online Sivagangai
// shop: cascading dropdowns, a detail page with an Online indicator, and a
// transaction dialog carrying one rice line.
func sivagangaiPortal() *sessiontest.Fake {
	fake := sessiontest.New()
	fake.SetOptions(e2eDistrict, "-- Select District --", "Sivagangai", "Madurai")
	fake.Set(e2eTaluk, &sessiontest.FakeElement{})
	fake.Set(e2eShop, &sessiontest.FakeElement{})
	fake.Set(e2eSearch, &sessiontest.FakeElement{})

	fake.OnSelect = func(selector, label string) {
		switch selector {
		case e2eDistrict:
			fake.SetOptionsAfter(e2eTaluk, 15*time.Millisecond, "-- Select Taluk --", "Devakottai")
		case e2eTaluk:
			fake.SetOptionsAfter(e2eShop, 15*time.Millisecond, "-- Select Shop --", "SG-042 Keelur Main Street")
		}
	}
	fake.OnClick = func(selector string) {
		switch selector {
		case e2eSearch:
			fake.SetAfter(e2eDetailRoot, 15*time.Millisecond, &sessiontest.FakeElement{})
			fake.SetText(e2eStatus, "Online")
			fake.Set(e2eDetailRow,
				sessiontest.DetailRow("Shop Code:", "SG-042"),
				sessiontest.DetailRow("Incharge:", "K. Murugan"),
			)
			fake.Set(e2eTxnRow, sessiontest.Row("B-90331", "T-4471", "2026-08-20 10:31", "15.00"))
			fake.Set(e2eViewLink, &sessiontest.FakeElement{})
			fake.Set(e2eDialogClose, &sessiontest.FakeElement{})
		case e2eViewLink:
			fake.Set(e2eDialog, &sessiontest.FakeElement{})
			fake.SetAfter(e2eDialogRow, 15*time.Millisecond,
				sessiontest.Row("1", "Rice", "5", "3.00", "15.00", "Kg"),
			)
		case e2eDialogClose:
			fake.Remove(e2eDialog)
			fake.Remove(e2eDialogRow)
		}
	}
	return fake
}

func TestRunAgainstScriptedPortal(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.NavigationTimeout = 500 * time.Millisecond
	cfg.DialogTimeout = 500 * time.Millisecond
	cfg.PollInterval = 10 * time.Millisecond
	cfg.RetryPause = time.Millisecond
	cfg.ArtifactsDir = ""

	factory := &scriptedFactory{build: sivagangaiPortal}
	r, err := crawler.NewRunner(cfg,
		factory,
		portal.NewNavigator(cfg),
		portal.NewClassifier(cfg.StatusVocabulary),
		portal.NewExtractor(cfg),
	)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	shops := []models.ShopQuery{{ID: "SG-042", District: "Sivagangai", Taluk: "Devakottai"}}
	report, err := r.Run(context.Background(), shops)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(report.Shops) != 1 {
		t.Fatalf("records = %d, want 1", len(report.Shops))
	}
	rec := report.Shops[0]
	if rec.Error != nil {
		t.Fatalf("record error = %+v, want none", rec.Error)
	}
	if rec.Status != models.StatusOnline {
		t.Errorf("status = %q, want %q", rec.Status, models.StatusOnline)
	}
	if rec.ShopDetails["Shop Code"] != "SG-042" || rec.ShopDetails["Incharge"] != "K. Murugan" {
		t.Errorf("shop details = %v, want code and incharge captured", rec.ShopDetails)
	}
	if rec.LastTransaction == nil {
		t.Fatal("last transaction = nil, want summary")
	}
	if rec.LastTransaction.Reference != "B-90331" || rec.LastTransaction.Date != "2026-08-20 10:31" || rec.LastTransaction.Amount != "15.00" {
		t.Errorf("last transaction = %+v, want bill B-90331", rec.LastTransaction)
	}
	if len(rec.BillItems) != 1 {
		t.Fatalf("bill items = %v, want one line", rec.BillItems)
	}
	want := models.BillItem{ItemName: "Rice", Quantity: "5", UnitPrice: "3.00", Total: "15.00"}
	if rec.BillItems[0] != want {
		t.Errorf("bill item = %+v, want %+v", rec.BillItems[0], want)
	}
	if rec.CapturedAt.IsZero() {
		t.Error("captured-at timestamp not set")
	}
	if report.Summary.OnlineShops != 1 || report.Summary.FailedShops != 0 {
		t.Errorf("summary = %+v, want one online shop", report.Summary)
	}
}
