// Package report persists a crawl report. The report is a single document
// written once at the end of the run (or after a partial run), so writers
// buffer nothing between calls.
package report

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tnpds-watch/shopcrawl/models"
)

// Writer persists one crawl report.
type Writer interface {
	Write(report *models.CrawlReport) error
	Close() error
	Validate() error
}

// New builds the writer for the configured output format. The dual format
// derives its second filename from the first by swapping the extension.
func New(format, filename string) (Writer, error) {
	switch format {
	case "json":
		return NewJSONWriter(filename)
	case "csv":
		return NewCSVWriter(filename)
	case "dual":
		base := strings.TrimSuffix(filename, filepath.Ext(filename))
		return NewDualWriter(base+".json", base+".csv")
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

// JSONWriter writes the report as one indented JSON document.
type JSONWriter struct {
	file   *os.File
	writer *bufio.Writer
}

// NewJSONWriter initialises the JSON writer.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create json file: %w", err)
	}
	return &JSONWriter{
		file:   f,
		writer: bufio.NewWriter(f),
	}, nil
}

// Write encodes the full report.
func (jw *JSONWriter) Write(report *models.CrawlReport) error {
	encoder := json.NewEncoder(jw.writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONWriter) Close() error {
	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures the JSON file has data.
func (jw *JSONWriter) Validate() error {
	info, err := jw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat json file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("json file is empty")
	}
	return nil
}

// CSVWriter writes one flat row per shop.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
}

var csvHeader = []string{
	"shop_id", "district", "taluk", "status",
	"last_txn_reference", "last_txn_date", "last_txn_amount",
	"bill_items", "error_kind", "error_message", "captured_at",
}

// NewCSVWriter initialises a CSV writer and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(csvHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter{
		file:   f,
		writer: writer,
	}, nil
}

// Write appends the report's shops as CSV rows.
func (cw *CSVWriter) Write(report *models.CrawlReport) error {
	for _, rec := range report.Shops {
		if err := cw.writer.Write(shopRow(rec)); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the file has content besides the header.
func (cw *CSVWriter) Validate() error {
	info, err := cw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

func shopRow(rec *models.ShopRecord) []string {
	reference, date, amount := "", "", ""
	if rec.LastTransaction != nil {
		reference = rec.LastTransaction.Reference
		date = rec.LastTransaction.Date
		amount = rec.LastTransaction.Amount
	}

	errKind, errMessage := "", ""
	if rec.Error != nil {
		errKind = string(rec.Error.Kind)
		errMessage = rec.Error.Message
	}

	return []string{
		rec.Query.ID,
		rec.Query.District,
		rec.Query.Taluk,
		string(rec.Status),
		reference,
		date,
		amount,
		joinItems(rec.BillItems),
		errKind,
		errMessage,
		rec.CapturedAt.Format(time.RFC3339),
	}
}

// joinItems flattens bill lines into one CSV cell, semicolon-separated, as
// name:quantity:unit price:total.
func joinItems(items []models.BillItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, strings.Join([]string{item.ItemName, item.Quantity, item.UnitPrice, item.Total}, ":"))
	}
	return strings.Join(parts, ";")
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
