// Package reconciler orchestrates the full validation pipeline: normalize
// both sources, isolate duplicates, match by txn_id, classify the pairs and
// aggregate rates.
package reconciler

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"affiliate-reconciliation-service/internal/classifier"
	"affiliate-reconciliation-service/internal/matcher"
	"affiliate-reconciliation-service/internal/models"
	"affiliate-reconciliation-service/internal/normalizer"
	"affiliate-reconciliation-service/internal/rates"
	"affiliate-reconciliation-service/pkg/errors"
	"affiliate-reconciliation-service/pkg/logger"
)

// Phase identifies a pipeline stage for progress reporting.
type Phase string

const (
	PhaseNormalizeA     Phase = "normalize_a"
	PhaseNormalizeB     Phase = "normalize_b"
	PhaseDuplicates     Phase = "duplicates"
	PhaseMatching       Phase = "matching"
	PhaseClassification Phase = "classification"
	PhaseRates          Phase = "rates"
	PhaseSummary        Phase = "summary"
	PhaseComplete       Phase = "complete"
)

// Progress is one progress notification. Percent is 0-100 across the whole
// run.
type Progress struct {
	Phase   Phase
	Percent int
	Message string
}

// Options configures an Engine. OnProgress, when set, is called synchronously
// from Reconcile as each phase completes; it must not block for long.
type Options struct {
	OnProgress func(Progress)
	Logger     logger.Logger
}

// Engine runs reconciliations. A single Engine is safe for concurrent use:
// all per-run state lives in the call.
type Engine struct {
	onProgress func(Progress)
	log        logger.Logger
}

// NewEngine creates an engine with the given options.
func NewEngine(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Engine{
		onProgress: opts.OnProgress,
		log:        log.WithComponent("reconciler"),
	}
}

// SummaryCounts are the headline numbers of one reconciliation run.
type SummaryCounts struct {
	TotalRecordsA        int             `json:"total_records_a"`
	TotalRecordsB        int             `json:"total_records_b"`
	CleanRecordsA        int             `json:"clean_records_a"`
	CleanRecordsB        int             `json:"clean_records_b"`
	DuplicatesA          int             `json:"duplicates_a"`
	DuplicatesB          int             `json:"duplicates_b"`
	Matched              int             `json:"matched"`
	Valid                int             `json:"valid"`
	RevenueMismatches    int             `json:"revenue_mismatches"`
	StatusMismatches     int             `json:"status_mismatches"`
	BothMismatches       int             `json:"both_mismatches"`
	TotalMismatches      int             `json:"total_mismatches"`
	OnlyInA              int             `json:"only_in_a"`
	OnlyInB              int             `json:"only_in_b"`
	BrandsA              int             `json:"brands_a"`
	BrandsB              int             `json:"brands_b"`
	MaxAbsRateDifference decimal.Decimal `json:"max_abs_rate_difference"`
}

// ResultBundle carries everything a report needs from one run.
type ResultBundle struct {
	SourceA string
	SourceB string

	Summary        SummaryCounts
	Classification *classifier.Classification

	OnlyInA []*models.Record
	OnlyInB []*models.Record

	DuplicatesA []*models.Record
	DuplicatesB []*models.Record

	RatesA         *rates.Summary
	RatesB         *rates.Summary
	RateComparison *rates.RateComparison

	// Brands is the sorted union of brands from both normalized datasets.
	Brands []string
}

// Reconcile runs the pipeline over two raw tables. The context is checked
// between phases; a cancelled run returns ctx.Err() wrapped as a
// reconciliation error with no partial bundle.
func (e *Engine) Reconcile(ctx context.Context, tableA, tableB *models.RawTable, mapA, mapB normalizer.ColumnMapping) (*ResultBundle, error) {
	op := logger.NewOperationLogger("reconcile", e.log).
		WithField("source_a", tableA.Source).
		WithField("source_b", tableB.Source)

	e.emit(op, PhaseNormalizeA, 5, "normalizing "+tableA.Source)
	datasetA, err := normalizer.Normalize(tableA, mapA)
	if err != nil {
		op.Error(err, "reconciliation aborted")
		return nil, err
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	e.emit(op, PhaseNormalizeB, 20, "normalizing "+tableB.Source)
	datasetB, err := normalizer.Normalize(tableB, mapB)
	if err != nil {
		op.Error(err, "reconciliation aborted")
		return nil, err
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	e.emit(op, PhaseDuplicates, 35, "isolating duplicated transaction ids")
	dupA := matcher.IsolateDuplicates(datasetA)
	dupB := matcher.IsolateDuplicates(datasetB)
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	e.emit(op, PhaseMatching, 50, "matching records by txn_id")
	matched := matcher.Match(dupA.Clean, dupB.Clean)
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	e.emit(op, PhaseClassification, 65, "classifying matched pairs")
	classification := classifier.Classify(matched.Pairs)
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	// Rate analytics run on the full normalized datasets. Duplicated
	// txn_ids are excluded from matching only, not from revenue totals.
	e.emit(op, PhaseRates, 80, "aggregating rates per brand and month")
	ratesA := rates.Aggregate(datasetA)
	ratesB := rates.Aggregate(datasetB)
	comparison := rates.CompareRates(ratesA, ratesB)
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	e.emit(op, PhaseSummary, 95, "composing summary")
	totalMismatches := len(classification.RevenueMismatches) +
		len(classification.StatusMismatches) +
		len(classification.BothMismatches)

	bundle := &ResultBundle{
		SourceA: tableA.Source,
		SourceB: tableB.Source,
		Summary: SummaryCounts{
			TotalRecordsA:        datasetA.Len(),
			TotalRecordsB:        datasetB.Len(),
			CleanRecordsA:        dupA.Clean.Len(),
			CleanRecordsB:        dupB.Clean.Len(),
			DuplicatesA:          len(dupA.Duplicates),
			DuplicatesB:          len(dupB.Duplicates),
			Matched:              len(matched.Pairs),
			Valid:                len(classification.Valid),
			RevenueMismatches:    len(classification.RevenueMismatches),
			StatusMismatches:     len(classification.StatusMismatches),
			BothMismatches:       len(classification.BothMismatches),
			TotalMismatches:      totalMismatches,
			OnlyInA:              len(matched.OnlyInA),
			OnlyInB:              len(matched.OnlyInB),
			BrandsA:              len(datasetA.Brands()),
			BrandsB:              len(datasetB.Brands()),
			MaxAbsRateDifference: comparison.MaxAbsRateDifference,
		},
		Classification: classification,
		OnlyInA:        matched.OnlyInA,
		OnlyInB:        matched.OnlyInB,
		DuplicatesA:    dupA.Duplicates,
		DuplicatesB:    dupB.Duplicates,
		RatesA:         ratesA,
		RatesB:         ratesB,
		RateComparison: comparison,
		Brands:         mergeBrands(datasetA, datasetB),
	}

	e.emit(op, PhaseComplete, 100, "reconciliation complete")
	op.WithField("matched", bundle.Summary.Matched).
		WithField("valid", bundle.Summary.Valid).
		WithField("mismatches", bundle.Summary.TotalMismatches).
		Success("reconciliation complete")

	return bundle, nil
}

func (e *Engine) emit(op *logger.OperationLogger, phase Phase, percent int, message string) {
	op.Step(string(phase))
	e.log.WithFields(logger.Fields{
		"phase":   string(phase),
		"percent": percent,
	}).Debug(message)
	if e.onProgress != nil {
		e.onProgress(Progress{Phase: phase, Percent: percent, Message: message})
	}
}

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.ReconciliationError("reconcile", err)
	}
	return nil
}

func mergeBrands(a, b *models.Dataset) []string {
	seen := make(map[string]bool)
	var brands []string
	for _, d := range []*models.Dataset{a, b} {
		for _, brand := range d.Brands() {
			if !seen[brand] {
				seen[brand] = true
				brands = append(brands, brand)
			}
		}
	}
	sort.Strings(brands)
	return brands
}
