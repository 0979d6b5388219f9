// Package models defines the data structures shared across the crawler.
package models

import "time"

// Status is the classified online state of a shop's billing terminal.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
	// StatusUnknown records that the portal did not present a recognizable
	// indicator. It is a first-class outcome, not an error.
	StatusUnknown Status = "unknown"
)

// FailureKind tags the terminal failure recorded for a shop.
type FailureKind string

const (
	FailureNavigation     FailureKind = "NavigationFailure"
	FailureClassification FailureKind = "ClassificationFailure"
	FailureExtraction     FailureKind = "ExtractionTimeout"
	FailureSessionLost    FailureKind = "SessionLost"
	FailureNotAttempted   FailureKind = "NotAttempted"
	FailureUnknown        FailureKind = "UnknownFailure"
)

// ShopQuery identifies one shop in the input registry. The id is a
// government-issued code treated as an opaque string.
type ShopQuery struct {
	ID       string `json:"id"`
	District string `json:"district"`
	Taluk    string `json:"taluk"`
}

// TransactionSummary holds the last-transaction fields as rendered by the
// portal. Absent sub-fields are empty strings, never omitted, so the output
// schema stays flat.
type TransactionSummary struct {
	Date      string `json:"date"`
	Amount    string `json:"amount"`
	Reference string `json:"reference"`
}

// BillItem is one row of the transaction dialog's bill table, in the order
// the dialog rendered it.
type BillItem struct {
	ItemName  string `json:"item_name"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Total     string `json:"total"`
}

// ErrorInfo records why a shop's pipeline gave up. Kind names the failed
// stage; Cause carries the underlying session failure (ElementNotFound,
// TimeoutFailure, SessionLost) when one applies.
type ErrorInfo struct {
	Kind    FailureKind `json:"kind"`
	Cause   string      `json:"cause,omitempty"`
	Message string      `json:"message"`
}

// ShopRecord is one row of the output report. It is created once per shop
// per run and never mutated after the shop's pipeline completes.
type ShopRecord struct {
	Query           ShopQuery           `json:"query"`
	Status          Status              `json:"status"`
	ShopDetails     map[string]string   `json:"shop_details,omitempty"`
	LastTransaction *TransactionSummary `json:"last_transaction,omitempty"`
	BillItems       []BillItem          `json:"bill_items"`
	Error           *ErrorInfo          `json:"error,omitempty"`
	CapturedAt      time.Time           `json:"captured_at"`
}

// CrawlReport is the root output artifact. Shops are in input registry
// order, not completion order, so reports can be diffed by position.
type CrawlReport struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Summary     RunSummary    `json:"summary"`
	Shops       []*ShopRecord `json:"shops"`
}

// RunSummary aggregates per-run counters for the report header and the
// end-of-run log line.
type RunSummary struct {
	TotalShops    int           `json:"total_shops"`
	OnlineShops   int           `json:"online_shops"`
	OfflineShops  int           `json:"offline_shops"`
	UnknownShops  int           `json:"unknown_shops"`
	FailedShops   int           `json:"failed_shops"`
	NotAttempted  int           `json:"not_attempted"`
	RetryCount    int           `json:"retry_count"`
	SessionResets int           `json:"session_resets"`
	Duration      time.Duration `json:"-"`
	DurationSecs  float64       `json:"duration_seconds"`
}
