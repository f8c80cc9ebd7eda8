// Package classifier labels matched record pairs.
//
// Equality checks run on the floored monetary values. Each pair receives
// exactly one outcome from a fixed decision order: a pair is valid when
// status, revenue, sale amount and rate all match; with matching status any
// other difference is a revenue mismatch; with differing status it is a
// status mismatch when the revenues agree and a combined mismatch otherwise.
// Revenue mismatches are attributed to differing sale amounts when the
// rates agree and to differing rates when they do not.
package classifier

import (
	"sort"

	"github.com/shopspring/decimal"

	"affiliate-reconciliation-service/internal/matcher"
	"affiliate-reconciliation-service/internal/models"
	"affiliate-reconciliation-service/pkg/logger"
)

// Outcome is the classification bucket of a matched pair.
type Outcome string

const (
	OutcomeValid           Outcome = "valid"
	OutcomeRevenueMismatch Outcome = "revenue_mismatch"
	OutcomeStatusMismatch  Outcome = "status_mismatch"
	OutcomeBothMismatch    Outcome = "both_mismatch"
)

// Human-readable labels attached to classified pairs.
const (
	LabelValid                   = "Valid"
	LabelRevenueSaleAmounts      = "Revenue mismatch due to different sale amounts"
	LabelRevenueRates            = "Revenue mismatch due to different rates"
	LabelStatusNeedsUpdate       = "Status needs update"
	LabelBothMismatchSaleAmounts = "Status mismatch and revenue mismatch due to different sale amounts"
	LabelBothMismatchRates       = "Status mismatch and revenue mismatch due to different rates"
)

// ClassifiedPair is a matched pair with its outcome and the side-by-side
// fields the report renders. Rates here are computed from the floored
// values, matching the equality policy.
type ClassifiedPair struct {
	TxnID          string          `json:"txn_id"`
	Outcome        Outcome         `json:"outcome"`
	Label          string          `json:"label"`
	StatusA        string          `json:"status_a"`
	StatusB        string          `json:"status_b"`
	BrandA         string          `json:"brand_a"`
	BrandB         string          `json:"brand_b"`
	RevenueA       decimal.Decimal `json:"revenue_a"`
	RevenueB       decimal.Decimal `json:"revenue_b"`
	SaleAmountA    decimal.Decimal `json:"sale_amount_a"`
	SaleAmountB    decimal.Decimal `json:"sale_amount_b"`
	RateA          decimal.Decimal `json:"rate_a"`
	RateB          decimal.Decimal `json:"rate_b"`
	DateA          string          `json:"date_a"`
	DateB          string          `json:"date_b"`
	DateDifference int             `json:"date_difference"`
}

// RevenueDiffRow is the derived status-match revenue-mismatch view.
type RevenueDiffRow struct {
	*ClassifiedPair
	RevenueDifference decimal.Decimal `json:"revenue_difference"`
	RateDifference    decimal.Decimal `json:"rate_difference"`
}

// Classification partitions classified pairs into the report tables.
type Classification struct {
	Valid             []*ClassifiedPair
	RevenueMismatches []*ClassifiedPair
	StatusMismatches  []*ClassifiedPair
	BothMismatches    []*ClassifiedPair

	// StatusMatchRevenueMismatches re-exposes RevenueMismatches with the
	// monetary deltas, ordered by absolute revenue difference descending.
	StatusMatchRevenueMismatches []*RevenueDiffRow
}

// Classify labels every matched pair. Valid pairs keep their txn_id order;
// the mismatch tables are ordered by date difference descending and the
// derived revenue view by absolute revenue difference descending, with
// txn_id breaking ties.
func Classify(pairs []*matcher.MatchedPair) *Classification {
	result := &Classification{}

	for _, pair := range pairs {
		cp := classifyPair(pair)
		switch cp.Outcome {
		case OutcomeValid:
			result.Valid = append(result.Valid, cp)
		case OutcomeRevenueMismatch:
			result.RevenueMismatches = append(result.RevenueMismatches, cp)
		case OutcomeStatusMismatch:
			result.StatusMismatches = append(result.StatusMismatches, cp)
		case OutcomeBothMismatch:
			result.BothMismatches = append(result.BothMismatches, cp)
		}
	}

	sortByDateDifference(result.RevenueMismatches)
	sortByDateDifference(result.StatusMismatches)
	sortByDateDifference(result.BothMismatches)
	result.StatusMatchRevenueMismatches = buildRevenueDiffView(result.RevenueMismatches)

	logger.GetGlobalLogger().WithComponent("classifier").WithFields(logger.Fields{
		"valid":            len(result.Valid),
		"revenue_mismatch": len(result.RevenueMismatches),
		"status_mismatch":  len(result.StatusMismatches),
		"both_mismatch":    len(result.BothMismatches),
	}).Info("Matched pairs classified")

	return result
}

func classifyPair(pair *matcher.MatchedPair) *ClassifiedPair {
	a, b := pair.A, pair.B
	cp := &ClassifiedPair{
		TxnID:          pair.TxnID,
		StatusA:        a.Status,
		StatusB:        b.Status,
		BrandA:         a.Brand,
		BrandB:         b.Brand,
		RevenueA:       a.Revenue,
		RevenueB:       b.Revenue,
		SaleAmountA:    a.SaleAmount,
		SaleAmountB:    b.SaleAmount,
		RateA:          a.ComparisonRate(),
		RateB:          b.ComparisonRate(),
		DateA:          a.Created.Format(models.DateLayout),
		DateB:          b.Created.Format(models.DateLayout),
		DateDifference: models.DaysBetween(a.Created, b.Created),
	}

	statusMatch := a.Status == b.Status
	revenueMatch := a.Revenue.Equal(b.Revenue)
	saleMatch := a.SaleAmount.Equal(b.SaleAmount)
	ratesMatch := cp.RateA.Equal(cp.RateB)

	// Equal rates mean the revenue gap came from the sale amounts;
	// unequal rates are the cause otherwise.
	switch {
	case statusMatch && revenueMatch && saleMatch && ratesMatch:
		cp.Outcome = OutcomeValid
		cp.Label = LabelValid
	case statusMatch:
		cp.Outcome = OutcomeRevenueMismatch
		if ratesMatch {
			cp.Label = LabelRevenueSaleAmounts
		} else {
			cp.Label = LabelRevenueRates
		}
	case revenueMatch:
		cp.Outcome = OutcomeStatusMismatch
		cp.Label = LabelStatusNeedsUpdate
	default:
		cp.Outcome = OutcomeBothMismatch
		if ratesMatch {
			cp.Label = LabelBothMismatchSaleAmounts
		} else {
			cp.Label = LabelBothMismatchRates
		}
	}
	return cp
}

func buildRevenueDiffView(pairs []*ClassifiedPair) []*RevenueDiffRow {
	rows := make([]*RevenueDiffRow, 0, len(pairs))
	for _, cp := range pairs {
		rows = append(rows, &RevenueDiffRow{
			ClassifiedPair:    cp,
			RevenueDifference: cp.RevenueA.Sub(cp.RevenueB),
			RateDifference:    cp.RateA.Sub(cp.RateB).Round(2),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		di, dj := rows[i].RevenueDifference.Abs(), rows[j].RevenueDifference.Abs()
		if !di.Equal(dj) {
			return di.GreaterThan(dj)
		}
		return rows[i].TxnID < rows[j].TxnID
	})
	return rows
}

func sortByDateDifference(pairs []*ClassifiedPair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].DateDifference != pairs[j].DateDifference {
			return pairs[i].DateDifference > pairs[j].DateDifference
		}
		return pairs[i].TxnID < pairs[j].TxnID
	})
}
