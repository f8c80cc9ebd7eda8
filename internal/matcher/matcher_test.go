package matcher

import (
	"testing"

	"affiliate-reconciliation-service/internal/models"
)

func createTestDataset(source string, ids ...string) *models.Dataset {
	d := &models.Dataset{Source: source}
	for _, id := range ids {
		d.Records = append(d.Records, &models.Record{TxnID: id, Status: "approved", Brand: "acme"})
	}
	return d
}

func TestIsolateDuplicates(t *testing.T) {
	result := IsolateDuplicates(createTestDataset("a.csv", "T1", "T2", "T1", "T3"))
	if got := recordIDs(result.Clean.Records); len(got) != 2 || got[0] != "T2" || got[1] != "T3" {
		t.Errorf("Expected clean [T2 T3], got %v", got)
	}
	if got := recordIDs(result.Duplicates); len(got) != 2 || got[0] != "T1" || got[1] != "T1" {
		t.Errorf("Expected both T1 occurrences isolated, got %v", got)
	}
	if result.Clean.Source != "a.csv" {
		t.Errorf("Expected source preserved, got %s", result.Clean.Source)
	}
}

func TestIsolateDuplicatesTriple(t *testing.T) {
	result := IsolateDuplicates(createTestDataset("a.csv", "T1", "T1", "T1"))
	if len(result.Clean.Records) != 0 {
		t.Errorf("Expected no clean records, got %d", len(result.Clean.Records))
	}
	if len(result.Duplicates) != 3 {
		t.Errorf("Expected all 3 occurrences isolated, got %d", len(result.Duplicates))
	}
}

func TestIsolateDuplicatesNoDuplicates(t *testing.T) {
	dataset := createTestDataset("a.csv", "T1", "T2")
	result := IsolateDuplicates(dataset)
	if len(result.Clean.Records) != 2 || len(result.Duplicates) != 0 {
		t.Errorf("Expected untouched dataset, got clean=%d duplicates=%d",
			len(result.Clean.Records), len(result.Duplicates))
	}
	if len(dataset.Records) != 2 {
		t.Error("Input dataset was mutated")
	}
}

func TestMatch(t *testing.T) {
	a := createTestDataset("a.csv", "T3", "T1", "T2")
	b := createTestDataset("b.csv", "T2", "T4", "T1")
	result := Match(a, b)

	if got := pairIDs(result.Pairs); len(got) != 2 || got[0] != "T1" || got[1] != "T2" {
		t.Errorf("Expected pairs [T1 T2], got %v", got)
	}
	if got := recordIDs(result.OnlyInA); len(got) != 1 || got[0] != "T3" {
		t.Errorf("Expected only-in-a [T3], got %v", got)
	}
	if got := recordIDs(result.OnlyInB); len(got) != 1 || got[0] != "T4" {
		t.Errorf("Expected only-in-b [T4], got %v", got)
	}
}

func TestMatchPartition(t *testing.T) {
	a := createTestDataset("a.csv", "T1", "T2", "T3", "T5")
	b := createTestDataset("b.csv", "T2", "T3", "T4")
	result := Match(a, b)

	if len(result.Pairs)+len(result.OnlyInA) != a.Len() {
		t.Errorf("Pairs and only-in-a do not partition dataset A: %d+%d != %d",
			len(result.Pairs), len(result.OnlyInA), a.Len())
	}
	if len(result.Pairs)+len(result.OnlyInB) != b.Len() {
		t.Errorf("Pairs and only-in-b do not partition dataset B: %d+%d != %d",
			len(result.Pairs), len(result.OnlyInB), b.Len())
	}
	for _, p := range result.Pairs {
		if p.A.TxnID != p.TxnID || p.B.TxnID != p.TxnID {
			t.Errorf("Pair %s carries mismatched records", p.TxnID)
		}
	}
}

func TestMatchEmptySides(t *testing.T) {
	result := Match(createTestDataset("a.csv"), createTestDataset("b.csv", "T1"))
	if len(result.Pairs) != 0 || len(result.OnlyInA) != 0 || len(result.OnlyInB) != 1 {
		t.Errorf("Unexpected result for empty side: %+v", result)
	}
}

func recordIDs(records []*models.Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.TxnID
	}
	return ids
}

func pairIDs(pairs []*MatchedPair) []string {
	ids := make([]string, len(pairs))
	for i, p := range pairs {
		ids[i] = p.TxnID
	}
	return ids
}
