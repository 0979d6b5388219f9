package portal

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/tnpds-watch/shopcrawl/config"
	"github.com/tnpds-watch/shopcrawl/models"
	"github.com/tnpds-watch/shopcrawl/session"
)

// Cell positions in the detail page's last-transaction row.
const (
	txnCellBillNumber = 0
	txnCellDate       = 2
	txnCellAmount     = 3
)

// Cell positions in the dialog's bill table rows.
const (
	billCellItem      = 1
	billCellQuantity  = 2
	billCellUnitPrice = 3
	billCellTotal     = 4
)

// Extractor opens the last-transaction dialog and parses its bill table.
type Extractor struct {
	dialogTimeout time.Duration
	closeTimeout  time.Duration
	interval      time.Duration
}

// NewExtractor builds an extractor from run configuration.
func NewExtractor(cfg *config.Config) *Extractor {
	return &Extractor{
		dialogTimeout: cfg.DialogTimeout,
		closeTimeout:  2 * time.Second,
		interval:      cfg.PollInterval,
	}
}

// Extract reads the transaction summary and bill items for the shop whose
// detail page is currently open. The dialog opens before its data loads, so
// reading is gated on a content-ready wait; if the table never populates the
// wait's timeout propagates and both summary and items stay absent. The
// dialog is closed before returning so the next shop's navigation can reuse
// the session.
func (e *Extractor) Extract(ctx context.Context, s session.Session, q models.ShopQuery) (*models.TransactionSummary, []models.BillItem, error) {
	summary := e.readSummary(s)

	if err := s.Click(selViewLink); err != nil {
		return nil, nil, err
	}

	if _, err := session.Await(ctx, s, "transaction dialog content", dialogPopulated, e.dialogTimeout, e.interval); err != nil {
		e.closeDialog(ctx, s, q)
		return nil, nil, err
	}

	rows, err := s.FindAll(selDialogRow)
	if err != nil {
		e.closeDialog(ctx, s, q)
		return nil, nil, err
	}

	items := make([]models.BillItem, 0, len(rows))
	for _, row := range rows {
		cells, err := row.FindAll("td")
		if err != nil || len(cells) == 0 {
			// Header rows carry th cells only.
			continue
		}
		// A short row keeps its missing fields empty rather than being
		// dropped; partial data beats silent loss.
		items = append(items, models.BillItem{
			ItemName:  cellText(cells, billCellItem),
			Quantity:  cellText(cells, billCellQuantity),
			UnitPrice: cellText(cells, billCellUnitPrice),
			Total:     cellText(cells, billCellTotal),
		})
	}

	e.closeDialog(ctx, s, q)
	return summary, items, nil
}

// readSummary reads the last-transaction row from the detail page. Absent
// cells become empty strings so the summary schema stays flat.
func (e *Extractor) readSummary(s session.Session) *models.TransactionSummary {
	summary := &models.TransactionSummary{}

	row, err := s.Find(selTransactionRow)
	if err != nil {
		return summary
	}
	cells, err := row.FindAll("td")
	if err != nil {
		return summary
	}

	summary.Reference = cellText(cells, txnCellBillNumber)
	summary.Date = cellText(cells, txnCellDate)
	summary.Amount = cellText(cells, txnCellAmount)
	return summary
}

func (e *Extractor) closeDialog(ctx context.Context, s session.Session, q models.ShopQuery) {
	if err := s.Click(selDialogClose); err != nil {
		slog.Debug("dialog close click failed", slog.String("shop", q.ID), slog.Any("error", err))
		return
	}
	_, err := session.Await(ctx, s, "dialog dismissed", func(s session.Session) (session.Element, error) {
		if _, err := s.Find(selDialog); err == nil {
			return nil, session.ErrElementNotFound{Selector: selDialog + " still open"}
		}
		return nil, nil
	}, e.closeTimeout, e.interval)
	if err != nil {
		slog.Debug("dialog did not dismiss", slog.String("shop", q.ID), slog.Any("error", err))
	}
}

func dialogPopulated(s session.Session) (session.Element, error) {
	rows, err := s.FindAll(selDialogRow)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		cells, err := row.FindAll("td")
		if err == nil && len(cells) > 0 {
			return row, nil
		}
	}
	return nil, session.ErrElementNotFound{Selector: selDialogRow}
}

func cellText(cells []session.Element, index int) string {
	if index >= len(cells) {
		return ""
	}
	text, err := cells[index].Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
