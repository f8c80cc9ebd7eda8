// Package models defines the canonical data structures shared by the
// reconciliation engine: the pre-mapping raw table, the canonical transaction
// record and the dataset wrapper that labels records with their source.
package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Canonical field names every dataset must provide after column mapping.
const (
	FieldTxnID      = "txn_id"
	FieldRevenue    = "revenue"
	FieldSaleAmount = "sale_amount"
	FieldStatus     = "status"
	FieldBrand      = "brand"
	FieldCreated    = "created"
)

// RequiredFields lists the six canonical columns in reporting order.
var RequiredFields = []string{
	FieldTxnID,
	FieldRevenue,
	FieldSaleAmount,
	FieldStatus,
	FieldBrand,
	FieldCreated,
}

// Bounds for the created-date year, matching the repair contract.
const (
	MinYear = 2000
	MaxYear = 2100
)

// DateLayout is the canonical YYYY-MM-DD form of the created date.
const DateLayout = "2006-01-02"

// Record is a transaction row after column mapping and type coercion.
//
// Monetary fields carry a dual representation: Revenue and SaleAmount are
// floored comparison values that drive equality checks and classification,
// while OriginalRevenue and OriginalSaleAmount are 2-decimal rounded values
// that drive all rate arithmetic and monetary totals. Floored equality is a
// deliberate comparison policy: two values such as 100.999 and 100.001 both
// floor to 100 and compare equal even though their rates differ. Do not
// switch comparisons to the original values.
type Record struct {
	TxnID   string    `json:"txn_id"`
	Status  string    `json:"status"`
	Brand   string    `json:"brand"`
	Created time.Time `json:"created"`

	// Floored comparison values.
	Revenue    decimal.Decimal `json:"revenue"`
	SaleAmount decimal.Decimal `json:"sale_amount"`

	// 2-decimal rounded values used for rate math and totals.
	OriginalRevenue    decimal.Decimal `json:"original_revenue"`
	OriginalSaleAmount decimal.Decimal `json:"original_sale_amount"`
}

// Validate performs basic validation on the Record.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.TxnID) == "" {
		return fmt.Errorf("transaction ID cannot be empty")
	}
	if r.Created.IsZero() {
		return fmt.Errorf("created date cannot be zero")
	}
	year := r.Created.Year()
	if year < MinYear || year > MaxYear {
		return fmt.Errorf("created year %d out of range [%d,%d]", year, MinYear, MaxYear)
	}
	return nil
}

// Rate returns the per-transaction rate computed from the original values,
// rounded to 2 decimals. A zero sale amount yields a zero rate, never a
// fault.
func (r *Record) Rate() decimal.Decimal {
	return SafeRate(r.OriginalRevenue, r.OriginalSaleAmount)
}

// ComparisonRate returns the rate computed from the floored comparison
// values, rounded to 2 decimals, with the same zero-denominator policy.
// Classification compares rates in this representation.
func (r *Record) ComparisonRate() decimal.Decimal {
	return SafeRate(r.Revenue, r.SaleAmount)
}

// String returns a string representation of the Record.
func (r *Record) String() string {
	return fmt.Sprintf("Record{ID: %s, Status: %s, Brand: %s, Revenue: %s, Sale: %s, Created: %s}",
		r.TxnID, r.Status, r.Brand, r.Revenue.String(), r.SaleAmount.String(),
		r.Created.Format(DateLayout))
}

// SafeRate divides revenue by saleAmount rounded to 2 decimals, returning
// zero when the denominator is zero.
func SafeRate(revenue, saleAmount decimal.Decimal) decimal.Decimal {
	if saleAmount.IsZero() {
		return decimal.Zero
	}
	return revenue.Div(saleAmount).Round(2)
}

// NormalizeMonetary derives the dual representation for a raw monetary
// value: the 2-decimal rounded original and the floored comparison value.
func NormalizeMonetary(value decimal.Decimal) (original, comparison decimal.Decimal) {
	return value.Round(2), value.Floor()
}

// ParseAmount parses a decimal value from a raw cell, tolerating currency
// symbols and thousand separators.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}
	return d, nil
}

// RepairDate normalizes a raw created-date string to zero-padded YYYY-MM-DD.
//
// The algorithm is a fixed contract: split on "-", require exactly three
// integer parts, and when the month part exceeds 12 swap month and day
// (repairs sources that emit YYYY-DD-MM). After the swap the year must fall
// in [2000,2100], the month in [1,12] and the day in [1,31].
func RepairDate(s string) (string, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid date format: %q", s)
	}

	year, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return "", fmt.Errorf("invalid year in %q: %w", s, err)
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", fmt.Errorf("invalid month in %q: %w", s, err)
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return "", fmt.Errorf("invalid day in %q: %w", s, err)
	}

	if month > 12 {
		month, day = day, month
	}

	if year < MinYear || year > MaxYear {
		return "", fmt.Errorf("year out of range: %d", year)
	}
	if month < 1 || month > 12 {
		return "", fmt.Errorf("month out of range: %d", month)
	}
	if day < 1 || day > 31 {
		return "", fmt.Errorf("day out of range: %d", day)
	}

	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), nil
}

// ParseCreated repairs and parses a raw created-date string into a UTC
// calendar date.
func ParseCreated(s string) (time.Time, error) {
	repaired, err := RepairDate(s)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(DateLayout, repaired, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", repaired, err)
	}
	return t, nil
}

// MonthBucket returns the calendar-month grouping key (YYYY-MM) for a date.
func MonthBucket(t time.Time) string {
	return t.Format("2006-01")
}

// DaysBetween returns the whole-day difference of a minus b between two
// calendar dates.
func DaysBetween(a, b time.Time) int {
	return int(a.Sub(b).Hours() / 24)
}

// RawTable is a source table before column mapping: a header row plus string
// cells, labelled with the source file name. It is the only loosely typed
// structure in the pipeline; the normalizer converts it into canonical
// records.
type RawTable struct {
	Source  string     `json:"source"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// IsEmpty reports whether the table has no data rows.
func (t *RawTable) IsEmpty() bool {
	return t == nil || len(t.Rows) == 0
}

// HeaderIndex returns the index of a header by case-insensitive name, or -1.
func (t *RawTable) HeaderIndex(name string) int {
	for i, h := range t.Headers {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// Cell returns the trimmed cell value at the given row and column, treating
// short rows as having empty trailing cells.
func (t *RawTable) Cell(row, col int) string {
	if col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// Dataset is an ordered collection of canonical records plus the source
// label used to qualify output column names.
type Dataset struct {
	Source  string    `json:"source"`
	Records []*Record `json:"records"`
}

// Len returns the number of records in the dataset.
func (d *Dataset) Len() int {
	return len(d.Records)
}

// Brands returns the sorted set of distinct brands in the dataset.
func (d *Dataset) Brands() []string {
	seen := make(map[string]bool)
	var brands []string
	for _, r := range d.Records {
		if !seen[r.Brand] {
			seen[r.Brand] = true
			brands = append(brands, r.Brand)
		}
	}
	sort.Strings(brands)
	return brands
}
