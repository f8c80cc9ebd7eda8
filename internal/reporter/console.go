package reporter

import (
	"fmt"

	"affiliate-reconciliation-service/internal/reconciler"
	"affiliate-reconciliation-service/pkg/errors"
)

// writeConsole prints a human-readable summary to the configured writer.
func (r *Reporter) writeConsole(bundle *reconciler.ResultBundle) error {
	s := bundle.Summary
	lines := []string{
		"Reconciliation Summary",
		"======================",
		fmt.Sprintf("Sources:                %s vs %s", bundle.SourceA, bundle.SourceB),
		fmt.Sprintf("Records:                %d / %d", s.TotalRecordsA, s.TotalRecordsB),
		fmt.Sprintf("Clean records:          %d / %d", s.CleanRecordsA, s.CleanRecordsB),
		fmt.Sprintf("Duplicates isolated:    %d / %d", s.DuplicatesA, s.DuplicatesB),
		"",
		fmt.Sprintf("Matched transactions:   %d", s.Matched),
		fmt.Sprintf("  Valid:                %d", s.Valid),
		fmt.Sprintf("  Revenue mismatches:   %d", s.RevenueMismatches),
		fmt.Sprintf("  Status mismatches:    %d", s.StatusMismatches),
		fmt.Sprintf("  Both mismatched:      %d", s.BothMismatches),
		fmt.Sprintf("Only in %s: %d", bundle.SourceA, s.OnlyInA),
		fmt.Sprintf("Only in %s: %d", bundle.SourceB, s.OnlyInB),
		"",
		fmt.Sprintf("Brands:                 %d / %d", s.BrandsA, s.BrandsB),
		fmt.Sprintf("Max rate difference:    %s", s.MaxAbsRateDifference.StringFixed(2)),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(r.config.Output, line); err != nil {
			return errors.ReconciliationError("report", err)
		}
	}
	return nil
}
