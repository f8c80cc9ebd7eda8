// Package rates aggregates commission rates per brand and month.
//
// Aggregation runs on the original 2-decimal monetary values, not the
// floored comparison values: rates are reporting output, so the comparison
// policy does not apply here.
package rates

import (
	"sort"

	"github.com/shopspring/decimal"

	"affiliate-reconciliation-service/internal/models"
	"affiliate-reconciliation-service/pkg/logger"
)

// StatusTotals accumulates revenue and count for one status within a group.
type StatusTotals struct {
	Revenue decimal.Decimal `json:"revenue"`
	Count   int             `json:"count"`
}

// SummaryRow is one (brand, rate, month) aggregation group.
type SummaryRow struct {
	Brand            string                   `json:"brand"`
	Rate             decimal.Decimal          `json:"rate"`
	Bucket           string                   `json:"month"`
	DateRangeStart   string                   `json:"date_range_start"`
	DateRangeEnd     string                   `json:"date_range_end"`
	TotalRevenue     decimal.Decimal          `json:"total_revenue"`
	TotalSaleAmount  decimal.Decimal          `json:"total_sale_amount"`
	TransactionCount int                      `json:"transaction_count"`
	StatusBreakdown  map[string]*StatusTotals `json:"status_breakdown"`
}

// StatusSummaryRow is the dataset-wide per-status rollup.
type StatusSummaryRow struct {
	Status           string          `json:"status"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TotalSaleAmount  decimal.Decimal `json:"total_sale_amount"`
	TransactionCount int             `json:"transaction_count"`
	Rate             decimal.Decimal `json:"rate"`
}

// Summary is the rate aggregation of one dataset.
type Summary struct {
	Source        string              `json:"source"`
	Rows          []*SummaryRow       `json:"rows"`
	StatusSummary []*StatusSummaryRow `json:"status_summary"`
}

// RateDiffRow is one rate pairing for a (brand, month) present in both
// datasets. Every row combination per key is emitted.
type RateDiffRow struct {
	Brand          string          `json:"brand"`
	Bucket         string          `json:"month"`
	RateA          decimal.Decimal `json:"rate_a"`
	RateB          decimal.Decimal `json:"rate_b"`
	RateDifference decimal.Decimal `json:"rate_difference"`
}

// RateComparison is the cross-dataset rate join.
type RateComparison struct {
	Rows                 []*RateDiffRow  `json:"rows"`
	MaxAbsRateDifference decimal.Decimal `json:"max_abs_rate_difference"`
}

type groupKey struct {
	brand  string
	rate   string
	bucket string
}

// Aggregate groups a dataset's records by brand, per-record rate and month.
// Rows are ordered brand ascending, then month descending, then rate
// descending. Aggregating the same dataset twice yields the same summary.
func Aggregate(dataset *models.Dataset) *Summary {
	groups := make(map[groupKey]*SummaryRow)
	statusGroups := make(map[string]*StatusSummaryRow)

	for _, r := range dataset.Records {
		rate := r.Rate()
		date := r.Created.Format(models.DateLayout)
		key := groupKey{brand: r.Brand, rate: rate.String(), bucket: models.MonthBucket(r.Created)}

		row, ok := groups[key]
		if !ok {
			row = &SummaryRow{
				Brand:           r.Brand,
				Rate:            rate,
				Bucket:          key.bucket,
				DateRangeStart:  date,
				DateRangeEnd:    date,
				StatusBreakdown: make(map[string]*StatusTotals),
			}
			groups[key] = row
		}
		row.TotalRevenue = row.TotalRevenue.Add(r.OriginalRevenue)
		row.TotalSaleAmount = row.TotalSaleAmount.Add(r.OriginalSaleAmount)
		row.TransactionCount++
		if date < row.DateRangeStart {
			row.DateRangeStart = date
		}
		if date > row.DateRangeEnd {
			row.DateRangeEnd = date
		}
		st, ok := row.StatusBreakdown[r.Status]
		if !ok {
			st = &StatusTotals{}
			row.StatusBreakdown[r.Status] = st
		}
		st.Revenue = st.Revenue.Add(r.OriginalRevenue)
		st.Count++

		ss, ok := statusGroups[r.Status]
		if !ok {
			ss = &StatusSummaryRow{Status: r.Status}
			statusGroups[r.Status] = ss
		}
		ss.TotalRevenue = ss.TotalRevenue.Add(r.OriginalRevenue)
		ss.TotalSaleAmount = ss.TotalSaleAmount.Add(r.OriginalSaleAmount)
		ss.TransactionCount++
	}

	summary := &Summary{Source: dataset.Source}
	for _, row := range groups {
		summary.Rows = append(summary.Rows, row)
	}
	sort.Slice(summary.Rows, func(i, j int) bool {
		a, b := summary.Rows[i], summary.Rows[j]
		if a.Brand != b.Brand {
			return a.Brand < b.Brand
		}
		if a.Bucket != b.Bucket {
			return a.Bucket > b.Bucket
		}
		return a.Rate.GreaterThan(b.Rate)
	})

	for _, ss := range statusGroups {
		ss.Rate = models.SafeRate(ss.TotalRevenue, ss.TotalSaleAmount)
		summary.StatusSummary = append(summary.StatusSummary, ss)
	}
	sort.Slice(summary.StatusSummary, func(i, j int) bool {
		return summary.StatusSummary[i].Status < summary.StatusSummary[j].Status
	})

	logger.GetGlobalLogger().WithComponent("rates").WithFields(logger.Fields{
		"source": dataset.Source,
		"groups": len(summary.Rows),
	}).Info("Rate summary aggregated")

	return summary
}

// CompareRates inner-joins two summaries on (brand, month) and emits every
// row combination per key with the rate delta rounded to 2 decimals. Rows
// follow the same brand/month/rate ordering as the summaries.
func CompareRates(a, b *Summary) *RateComparison {
	type joinKey struct {
		brand  string
		bucket string
	}
	byKeyB := make(map[joinKey][]*SummaryRow)
	for _, row := range b.Rows {
		k := joinKey{brand: row.Brand, bucket: row.Bucket}
		byKeyB[k] = append(byKeyB[k], row)
	}

	result := &RateComparison{MaxAbsRateDifference: decimal.Zero}
	for _, rowA := range a.Rows {
		for _, rowB := range byKeyB[joinKey{brand: rowA.Brand, bucket: rowA.Bucket}] {
			diff := rowA.Rate.Sub(rowB.Rate).Round(2)
			result.Rows = append(result.Rows, &RateDiffRow{
				Brand:          rowA.Brand,
				Bucket:         rowA.Bucket,
				RateA:          rowA.Rate,
				RateB:          rowB.Rate,
				RateDifference: diff,
			})
			if abs := diff.Abs(); abs.GreaterThan(result.MaxAbsRateDifference) {
				result.MaxAbsRateDifference = abs
			}
		}
	}
	return result
}
