// Package matcher pairs records across two datasets by transaction id.
package matcher

import (
	"sort"

	"affiliate-reconciliation-service/internal/models"
	"affiliate-reconciliation-service/pkg/logger"
)

// DuplicateResult partitions a dataset into records with a unique txn_id and
// records whose txn_id occurs more than once. Every occurrence of a repeated
// id lands in Duplicates, so Clean carries at most one record per id.
type DuplicateResult struct {
	Clean      *models.Dataset
	Duplicates []*models.Record
}

// MatchedPair couples the two records sharing one txn_id.
type MatchedPair struct {
	TxnID string
	A     *models.Record
	B     *models.Record
}

// MatchResult holds the outcome of matching two duplicate-free datasets.
type MatchResult struct {
	Pairs   []*MatchedPair
	OnlyInA []*models.Record
	OnlyInB []*models.Record
}

// IsolateDuplicates splits a dataset into clean and duplicated records. The
// input order is preserved in both partitions and the input is not mutated.
func IsolateDuplicates(dataset *models.Dataset) *DuplicateResult {
	counts := make(map[string]int, dataset.Len())
	for _, r := range dataset.Records {
		counts[r.TxnID]++
	}

	result := &DuplicateResult{
		Clean: &models.Dataset{Source: dataset.Source},
	}
	for _, r := range dataset.Records {
		if counts[r.TxnID] > 1 {
			result.Duplicates = append(result.Duplicates, r)
		} else {
			result.Clean.Records = append(result.Clean.Records, r)
		}
	}

	if len(result.Duplicates) > 0 {
		logger.GetGlobalLogger().WithComponent("matcher").WithFields(logger.Fields{
			"source":     dataset.Source,
			"duplicates": len(result.Duplicates),
		}).Warn("Duplicated transaction ids isolated")
	}

	return result
}

// Match pairs records of two duplicate-free datasets by txn_id. All three
// output slices are sorted by txn_id ascending.
func Match(a, b *models.Dataset) *MatchResult {
	byIDB := make(map[string]*models.Record, b.Len())
	for _, r := range b.Records {
		byIDB[r.TxnID] = r
	}

	result := &MatchResult{}
	seenInA := make(map[string]bool, a.Len())
	for _, r := range a.Records {
		seenInA[r.TxnID] = true
		if other, ok := byIDB[r.TxnID]; ok {
			result.Pairs = append(result.Pairs, &MatchedPair{TxnID: r.TxnID, A: r, B: other})
		} else {
			result.OnlyInA = append(result.OnlyInA, r)
		}
	}
	for _, r := range b.Records {
		if !seenInA[r.TxnID] {
			result.OnlyInB = append(result.OnlyInB, r)
		}
	}

	sort.Slice(result.Pairs, func(i, j int) bool { return result.Pairs[i].TxnID < result.Pairs[j].TxnID })
	sort.Slice(result.OnlyInA, func(i, j int) bool { return result.OnlyInA[i].TxnID < result.OnlyInA[j].TxnID })
	sort.Slice(result.OnlyInB, func(i, j int) bool { return result.OnlyInB[i].TxnID < result.OnlyInB[j].TxnID })

	logger.GetGlobalLogger().WithComponent("matcher").WithFields(logger.Fields{
		"matched":   len(result.Pairs),
		"only_in_a": len(result.OnlyInA),
		"only_in_b": len(result.OnlyInB),
	}).Info("Datasets matched")

	return result
}
