package classifier

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"affiliate-reconciliation-service/internal/matcher"
	"affiliate-reconciliation-service/internal/models"
)

func createTestRecord(id, status string, revenue, saleAmount float64, day int) *models.Record {
	origRev := decimal.NewFromFloat(revenue).Round(2)
	origSale := decimal.NewFromFloat(saleAmount).Round(2)
	return &models.Record{
		TxnID:              id,
		Status:             status,
		Brand:              "acme",
		Created:            time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
		Revenue:            decimal.NewFromFloat(revenue).Floor(),
		SaleAmount:         decimal.NewFromFloat(saleAmount).Floor(),
		OriginalRevenue:    origRev,
		OriginalSaleAmount: origSale,
	}
}

func createTestPair(id string, a, b *models.Record) *matcher.MatchedPair {
	return &matcher.MatchedPair{TxnID: id, A: a, B: b}
}

func TestClassifyValid(t *testing.T) {
	result := Classify([]*matcher.MatchedPair{
		createTestPair("T1",
			createTestRecord("T1", "approved", 20, 100, 15),
			createTestRecord("T1", "approved", 20, 100, 15)),
	})
	if len(result.Valid) != 1 {
		t.Fatalf("Expected 1 valid pair, got %d", len(result.Valid))
	}
	cp := result.Valid[0]
	if cp.Label != LabelValid || cp.Outcome != OutcomeValid {
		t.Errorf("Unexpected outcome %s / label %q", cp.Outcome, cp.Label)
	}
	if cp.DateDifference != 0 {
		t.Errorf("Expected date difference 0, got %d", cp.DateDifference)
	}
}

func TestClassifyFlooredEquality(t *testing.T) {
	// 100.999 and 100.001 both floor to 100, so the revenues compare equal.
	result := Classify([]*matcher.MatchedPair{
		createTestPair("T1",
			createTestRecord("T1", "approved", 100.999, 500, 15),
			createTestRecord("T1", "approved", 100.001, 500, 15)),
	})
	if len(result.Valid) != 1 {
		t.Errorf("Expected floored revenues to compare equal, got %d valid pairs", len(result.Valid))
	}
}

func TestClassifyRevenueMismatchRates(t *testing.T) {
	result := Classify([]*matcher.MatchedPair{
		createTestPair("T1",
			createTestRecord("T1", "approved", 20, 100, 15),
			createTestRecord("T1", "approved", 24, 100, 15)),
	})
	if len(result.RevenueMismatches) != 1 {
		t.Fatalf("Expected 1 revenue mismatch, got %d", len(result.RevenueMismatches))
	}
	cp := result.RevenueMismatches[0]
	if cp.Label != LabelRevenueRates {
		t.Errorf("Expected rate attribution, got %q", cp.Label)
	}
	if cp.RateA.String() != "0.2" || cp.RateB.String() != "0.24" {
		t.Errorf("Unexpected rates %s / %s", cp.RateA, cp.RateB)
	}
}

func TestClassifyRevenueMismatchSaleAmounts(t *testing.T) {
	result := Classify([]*matcher.MatchedPair{
		createTestPair("T1",
			createTestRecord("T1", "approved", 20, 100, 15),
			createTestRecord("T1", "approved", 24, 120, 15)),
	})
	if len(result.RevenueMismatches) != 1 {
		t.Fatalf("Expected 1 revenue mismatch, got %d", len(result.RevenueMismatches))
	}
	if got := result.RevenueMismatches[0].Label; got != LabelRevenueSaleAmounts {
		t.Errorf("Expected sale amount attribution, got %q", got)
	}
}

func TestClassifyEqualRevenueDifferentSaleAmounts(t *testing.T) {
	// Revenues agree but the sale amounts (and hence rates) do not, so the
	// pair is not valid.
	result := Classify([]*matcher.MatchedPair{
		createTestPair("T1",
			createTestRecord("T1", "approved", 20, 100, 15),
			createTestRecord("T1", "approved", 20, 120, 15)),
	})
	if len(result.Valid) != 0 {
		t.Fatal("Expected no valid pairs")
	}
	if len(result.RevenueMismatches) != 1 {
		t.Fatalf("Expected 1 revenue mismatch, got %d", len(result.RevenueMismatches))
	}
	if got := result.RevenueMismatches[0].Label; got != LabelRevenueRates {
		t.Errorf("Expected rate attribution, got %q", got)
	}
}

func TestClassifyStatusNeedsUpdate(t *testing.T) {
	result := Classify([]*matcher.MatchedPair{
		createTestPair("T1",
			createTestRecord("T1", "approved", 20, 100, 15),
			createTestRecord("T1", "pending", 20, 100, 15)),
	})
	if len(result.StatusMismatches) != 1 {
		t.Fatalf("Expected 1 status mismatch, got %d", len(result.StatusMismatches))
	}
	if got := result.StatusMismatches[0].Label; got != LabelStatusNeedsUpdate {
		t.Errorf("Expected %q, got %q", LabelStatusNeedsUpdate, got)
	}
}

func TestClassifyBothMismatch(t *testing.T) {
	tests := []struct {
		name  string
		b     *models.Record
		label string
	}{
		{
			name:  "different sale amounts",
			b:     createTestRecord("T1", "pending", 30, 150, 15),
			label: LabelBothMismatchSaleAmounts,
		},
		{
			name:  "different rates",
			b:     createTestRecord("T1", "pending", 30, 100, 15),
			label: LabelBothMismatchRates,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Classify([]*matcher.MatchedPair{
				createTestPair("T1", createTestRecord("T1", "approved", 20, 100, 15), tt.b),
			})
			if len(result.BothMismatches) != 1 {
				t.Fatalf("Expected 1 both-mismatch pair, got %d", len(result.BothMismatches))
			}
			if got := result.BothMismatches[0].Label; got != tt.label {
				t.Errorf("Expected %q, got %q", tt.label, got)
			}
		})
	}
}

func TestClassifyExclusivePartition(t *testing.T) {
	pairs := []*matcher.MatchedPair{
		createTestPair("T1", createTestRecord("T1", "approved", 20, 100, 15), createTestRecord("T1", "approved", 20, 100, 15)),
		createTestPair("T2", createTestRecord("T2", "approved", 20, 100, 15), createTestRecord("T2", "approved", 25, 100, 15)),
		createTestPair("T3", createTestRecord("T3", "approved", 20, 100, 15), createTestRecord("T3", "pending", 20, 100, 15)),
		createTestPair("T4", createTestRecord("T4", "approved", 20, 100, 15), createTestRecord("T4", "pending", 25, 100, 15)),
	}
	result := Classify(pairs)
	total := len(result.Valid) + len(result.RevenueMismatches) +
		len(result.StatusMismatches) + len(result.BothMismatches)
	if total != len(pairs) {
		t.Errorf("Classification does not partition the input: %d of %d", total, len(pairs))
	}
}

func TestClassifyDateDifferenceOrdering(t *testing.T) {
	result := Classify([]*matcher.MatchedPair{
		createTestPair("T1", createTestRecord("T1", "approved", 20, 100, 15), createTestRecord("T1", "pending", 20, 100, 14)),
		createTestPair("T2", createTestRecord("T2", "approved", 20, 100, 20), createTestRecord("T2", "pending", 20, 100, 10)),
	})
	if len(result.StatusMismatches) != 2 {
		t.Fatalf("Expected 2 status mismatches, got %d", len(result.StatusMismatches))
	}
	if result.StatusMismatches[0].TxnID != "T2" {
		t.Errorf("Expected largest date difference first, got %s", result.StatusMismatches[0].TxnID)
	}
	if result.StatusMismatches[0].DateDifference != 10 {
		t.Errorf("Expected date difference 10, got %d", result.StatusMismatches[0].DateDifference)
	}
}

func TestStatusMatchRevenueMismatchView(t *testing.T) {
	result := Classify([]*matcher.MatchedPair{
		createTestPair("T1", createTestRecord("T1", "approved", 20, 100, 15), createTestRecord("T1", "approved", 22, 100, 15)),
		createTestPair("T2", createTestRecord("T2", "approved", 20, 100, 15), createTestRecord("T2", "approved", 30, 100, 15)),
	})
	rows := result.StatusMatchRevenueMismatches
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0].TxnID != "T2" {
		t.Errorf("Expected largest absolute revenue difference first, got %s", rows[0].TxnID)
	}
	if rows[0].RevenueDifference.String() != "-10" {
		t.Errorf("Expected revenue difference -10, got %s", rows[0].RevenueDifference)
	}
	if rows[0].RateDifference.String() != "-0.1" {
		t.Errorf("Expected rate difference -0.1, got %s", rows[0].RateDifference)
	}
}
