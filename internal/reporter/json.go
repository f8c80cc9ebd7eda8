package reporter

import (
	"encoding/json"

	"affiliate-reconciliation-service/internal/classifier"
	"affiliate-reconciliation-service/internal/models"
	"affiliate-reconciliation-service/internal/rates"
	"affiliate-reconciliation-service/internal/reconciler"
	"affiliate-reconciliation-service/pkg/errors"
)

type jsonReport struct {
	SourceA string `json:"source_a"`
	SourceB string `json:"source_b"`

	Summary reconciler.SummaryCounts `json:"summary"`
	Brands  []string                 `json:"brands"`

	Valid                        []*classifier.ClassifiedPair `json:"valid"`
	RevenueMismatches            []*classifier.ClassifiedPair `json:"revenue_mismatches"`
	StatusMismatches             []*classifier.ClassifiedPair `json:"status_mismatches"`
	BothMismatches               []*classifier.ClassifiedPair `json:"both_mismatches"`
	StatusMatchRevenueMismatches []*classifier.RevenueDiffRow `json:"status_match_revenue_mismatches"`

	OnlyInA []*models.Record `json:"only_in_a"`
	OnlyInB []*models.Record `json:"only_in_b"`

	DuplicatesA []*models.Record `json:"duplicates_a"`
	DuplicatesB []*models.Record `json:"duplicates_b"`

	RatesA          *rates.Summary        `json:"rates_a"`
	RatesB          *rates.Summary        `json:"rates_b"`
	RateDifferences *rates.RateComparison `json:"rate_differences"`
}

// writeJSON streams the full bundle as indented JSON.
func (r *Reporter) writeJSON(bundle *reconciler.ResultBundle) error {
	report := jsonReport{
		SourceA:                      bundle.SourceA,
		SourceB:                      bundle.SourceB,
		Summary:                      bundle.Summary,
		Brands:                       bundle.Brands,
		Valid:                        bundle.Classification.Valid,
		RevenueMismatches:            bundle.Classification.RevenueMismatches,
		StatusMismatches:             bundle.Classification.StatusMismatches,
		BothMismatches:               bundle.Classification.BothMismatches,
		StatusMatchRevenueMismatches: bundle.Classification.StatusMatchRevenueMismatches,
		OnlyInA:                      bundle.OnlyInA,
		OnlyInB:                      bundle.OnlyInB,
		DuplicatesA:                  bundle.DuplicatesA,
		DuplicatesB:                  bundle.DuplicatesB,
		RatesA:                       bundle.RatesA,
		RatesB:                       bundle.RatesB,
		RateDifferences:              bundle.RateComparison,
	}

	enc := json.NewEncoder(r.config.Output)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return errors.ReconciliationError("report", err)
	}
	return nil
}
