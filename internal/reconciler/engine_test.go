package reconciler

import (
	"context"
	"testing"

	"affiliate-reconciliation-service/internal/classifier"
	"affiliate-reconciliation-service/internal/models"
	"affiliate-reconciliation-service/internal/normalizer"
	"affiliate-reconciliation-service/pkg/errors"
)

var testHeaders = []string{"txn_id", "revenue", "sale_amount", "status", "brand", "created"}

func createTestTables() (*models.RawTable, *models.RawTable) {
	a := &models.RawTable{
		Source:  "partner.csv",
		Headers: testHeaders,
		Rows: [][]string{
			{"T1", "100.00", "500.00", "Approved", "acme", "2024-01-05"},
			{"T2", "50.00", "200.00", "Pending", "acme", "2024-01-10"},
		},
	}
	b := &models.RawTable{
		Source:  "internal.csv",
		Headers: testHeaders,
		Rows: [][]string{
			{"T1", "120.00", "500.00", "Approved", "acme", "2024-01-05"},
			{"T3", "10.00", "50.00", "Approved", "zeta", "2024-01-06"},
		},
	}
	return a, b
}

func TestReconcileEndToEnd(t *testing.T) {
	engine := NewEngine(Options{})
	a, b := createTestTables()

	bundle, err := engine.Reconcile(context.Background(), a, b, nil, nil)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	s := bundle.Summary
	if s.TotalRecordsA != 2 || s.TotalRecordsB != 2 {
		t.Errorf("Unexpected totals: %d / %d", s.TotalRecordsA, s.TotalRecordsB)
	}
	if s.Matched != 1 || s.Valid != 0 || s.RevenueMismatches != 1 {
		t.Errorf("Unexpected classification counts: %+v", s)
	}
	if s.OnlyInA != 1 || s.OnlyInB != 1 {
		t.Errorf("Expected one unmatched record per side, got %d / %d", s.OnlyInA, s.OnlyInB)
	}

	// T1 revenues differ on equal sale amounts, so the rates must be blamed.
	cp := bundle.Classification.RevenueMismatches[0]
	if cp.TxnID != "T1" {
		t.Fatalf("Expected T1 mismatch, got %s", cp.TxnID)
	}
	if cp.Label != classifier.LabelRevenueRates {
		t.Errorf("Expected %q, got %q", classifier.LabelRevenueRates, cp.Label)
	}
	if cp.RateA.String() != "0.2" || cp.RateB.String() != "0.24" {
		t.Errorf("Unexpected rates %s / %s", cp.RateA, cp.RateB)
	}
	if cp.DateDifference != 0 {
		t.Errorf("Expected date difference 0, got %d", cp.DateDifference)
	}

	if bundle.OnlyInA[0].TxnID != "T2" {
		t.Errorf("Expected T2 only in partner.csv, got %s", bundle.OnlyInA[0].TxnID)
	}
	if bundle.OnlyInB[0].TxnID != "T3" {
		t.Errorf("Expected T3 only in internal.csv, got %s", bundle.OnlyInB[0].TxnID)
	}

	if len(bundle.Brands) != 2 || bundle.Brands[0] != "acme" || bundle.Brands[1] != "zeta" {
		t.Errorf("Unexpected brand union: %v", bundle.Brands)
	}
	if s.MaxAbsRateDifference.String() != "0.04" {
		t.Errorf("Expected max rate difference 0.04, got %s", s.MaxAbsRateDifference)
	}
}

func TestReconcileDuplicates(t *testing.T) {
	a := &models.RawTable{
		Source:  "partner.csv",
		Headers: testHeaders,
		Rows: [][]string{
			{"T1", "20", "100", "approved", "acme", "2024-03-15"},
			{"T1", "20", "100", "approved", "acme", "2024-03-15"},
			{"T2", "10", "50", "approved", "acme", "2024-03-15"},
		},
	}
	b := &models.RawTable{
		Source:  "internal.csv",
		Headers: testHeaders,
		Rows: [][]string{
			{"T1", "20", "100", "approved", "acme", "2024-03-15"},
			{"T2", "10", "50", "approved", "acme", "2024-03-15"},
		},
	}

	bundle, err := NewEngine(Options{}).Reconcile(context.Background(), a, b, nil, nil)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if bundle.Summary.DuplicatesA != 2 {
		t.Errorf("Expected both T1 occurrences isolated, got %d", bundle.Summary.DuplicatesA)
	}
	if bundle.Summary.CleanRecordsA != 1 {
		t.Errorf("Expected 1 clean record in A, got %d", bundle.Summary.CleanRecordsA)
	}
	// T1 was removed from A, so only T2 can match.
	if bundle.Summary.Matched != 1 || bundle.Summary.OnlyInB != 1 {
		t.Errorf("Unexpected matching after duplicate isolation: %+v", bundle.Summary)
	}

	// Duplicate isolation excludes records from matching only. Rate
	// analytics cover the full normalized dataset, both T1 occurrences
	// included.
	if len(bundle.RatesA.Rows) != 1 {
		t.Fatalf("Expected one rate row for A, got %d", len(bundle.RatesA.Rows))
	}
	row := bundle.RatesA.Rows[0]
	if row.TransactionCount != 3 {
		t.Errorf("Expected rate row to cover 3 transactions, got %d", row.TransactionCount)
	}
	if row.TotalRevenue.String() != "50" || row.TotalSaleAmount.String() != "250" {
		t.Errorf("Unexpected rate totals %s / %s", row.TotalRevenue, row.TotalSaleAmount)
	}
}

func TestReconcileProgress(t *testing.T) {
	var phases []Phase
	engine := NewEngine(Options{
		OnProgress: func(p Progress) { phases = append(phases, p.Phase) },
	})
	a, b := createTestTables()
	if _, err := engine.Reconcile(context.Background(), a, b, nil, nil); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	expected := []Phase{
		PhaseNormalizeA, PhaseNormalizeB, PhaseDuplicates, PhaseMatching,
		PhaseClassification, PhaseRates, PhaseSummary, PhaseComplete,
	}
	if len(phases) != len(expected) {
		t.Fatalf("Expected %d progress events, got %d: %v", len(expected), len(phases), phases)
	}
	for i, phase := range expected {
		if phases[i] != phase {
			t.Errorf("Event %d: expected %s, got %s", i, phase, phases[i])
		}
	}
}

func TestReconcileCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a, b := createTestTables()
	_, err := NewEngine(Options{}).Reconcile(ctx, a, b, nil, nil)
	if !errors.HasCode(err, errors.CodeProcessingError) {
		t.Errorf("Expected processing_error on cancelled context, got %v", err)
	}
}

func TestReconcileWithMapping(t *testing.T) {
	a := &models.RawTable{
		Source:  "partner.csv",
		Headers: []string{"Order ID", "Payout", "Order Sum", "State", "Merchant", "Action Time"},
		Rows:    [][]string{{"T1", "20", "100", "approved", "acme", "2024-03-15"}},
	}
	_, b := createTestTables()
	mapping := normalizer.ColumnMapping{
		models.FieldTxnID:      "Order ID",
		models.FieldRevenue:    "Payout",
		models.FieldSaleAmount: "Order Sum",
		models.FieldStatus:     "State",
		models.FieldBrand:      "Merchant",
		models.FieldCreated:    "Action Time",
	}
	bundle, err := NewEngine(Options{}).Reconcile(context.Background(), a, b, mapping, nil)
	if err != nil {
		t.Fatalf("Reconcile with mapping failed: %v", err)
	}
	if bundle.Summary.Matched != 1 {
		t.Errorf("Expected T1 matched across mapped headers, got %d", bundle.Summary.Matched)
	}
}

func TestReconcileNormalizationFailure(t *testing.T) {
	a := &models.RawTable{
		Source:  "partner.csv",
		Headers: []string{"txn_id", "revenue"},
		Rows:    [][]string{{"T1", "20"}},
	}
	_, b := createTestTables()
	_, err := NewEngine(Options{}).Reconcile(context.Background(), a, b, nil, nil)
	if !errors.HasCode(err, errors.CodeMissingColumn) {
		t.Errorf("Expected missing_column error, got %v", err)
	}
}
