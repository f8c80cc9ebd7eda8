package reporter

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"affiliate-reconciliation-service/internal/classifier"
	"affiliate-reconciliation-service/internal/models"
	"affiliate-reconciliation-service/internal/rates"
	"affiliate-reconciliation-service/internal/reconciler"
	"affiliate-reconciliation-service/pkg/errors"
)

// writeExcel renders the bundle as a multi-sheet workbook. Sheets with no
// rows still appear with their header so the reader sees the check ran;
// only the duplicate sheets are omitted when empty.
func (r *Reporter) writeExcel(bundle *reconciler.ResultBundle, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	labelA := sourceLabel(bundle.SourceA)
	labelB := sourceLabel(bundle.SourceB)

	if err := writeSummarySheet(f, bundle, labelA, labelB); err != nil {
		return errors.ReconciliationError("report", err)
	}

	c := bundle.Classification
	pairSheets := []struct {
		name  string
		pairs []*classifier.ClassifiedPair
	}{
		{"Valid Records", c.Valid},
		{"Revenue Mismatches", c.RevenueMismatches},
		{"Status Mismatches", c.StatusMismatches},
		{"Both Mismatches", c.BothMismatches},
	}
	for _, s := range pairSheets {
		if err := writePairSheet(f, s.name, labelA, labelB, s.pairs); err != nil {
			return errors.ReconciliationError("report", err)
		}
	}
	if err := writeRevenueDiffSheet(f, labelA, labelB, c.StatusMatchRevenueMismatches); err != nil {
		return errors.ReconciliationError("report", err)
	}

	recordSheets := []struct {
		name    string
		records []*models.Record
		always  bool
	}{
		{"Only in " + labelA, bundle.OnlyInA, true},
		{"Only in " + labelB, bundle.OnlyInB, true},
		{"Duplicates in " + labelA, bundle.DuplicatesA, false},
		{"Duplicates in " + labelB, bundle.DuplicatesB, false},
	}
	for _, s := range recordSheets {
		if !s.always && len(s.records) == 0 {
			continue
		}
		if err := writeRecordSheet(f, s.name, s.records); err != nil {
			return errors.ReconciliationError("report", err)
		}
	}

	if err := writeRatesSheet(f, "Rates "+labelA, bundle.RatesA); err != nil {
		return errors.ReconciliationError("report", err)
	}
	if err := writeRatesSheet(f, "Rates "+labelB, bundle.RatesB); err != nil {
		return errors.ReconciliationError("report", err)
	}
	if err := writeRateDiffSheet(f, labelA, labelB, bundle.RateComparison); err != nil {
		return errors.ReconciliationError("report", err)
	}

	if err := f.SaveAs(path); err != nil {
		return errors.FileError(errors.CodeFilePermission, path, err)
	}
	return nil
}

// sourceLabel turns a source file name into a short column and sheet
// qualifier.
func sourceLabel(source string) string {
	base := strings.TrimSuffix(source, filepath.Ext(source))
	if base == "" {
		return source
	}
	return base
}

// sheetName clamps a sheet name to the 31-character workbook limit.
func sheetName(name string) string {
	if len(name) > 31 {
		return name[:31]
	}
	return name
}

func newSheet(f *excelize.File, name string) (string, error) {
	name = sheetName(name)
	if _, err := f.NewSheet(name); err != nil {
		return "", err
	}
	return name, nil
}

func writeRows(f *excelize.File, sheet string, startRow int, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, startRow+i)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, bundle *reconciler.ResultBundle, labelA, labelB string) error {
	// The default sheet becomes the summary.
	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return err
	}
	s := bundle.Summary
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Records in " + labelA, s.TotalRecordsA},
		{"Records in " + labelB, s.TotalRecordsB},
		{"Clean records in " + labelA, s.CleanRecordsA},
		{"Clean records in " + labelB, s.CleanRecordsB},
		{"Duplicates in " + labelA, s.DuplicatesA},
		{"Duplicates in " + labelB, s.DuplicatesB},
		{"Matched transactions", s.Matched},
		{"Valid", s.Valid},
		{"Revenue mismatches", s.RevenueMismatches},
		{"Status mismatches", s.StatusMismatches},
		{"Status and revenue mismatches", s.BothMismatches},
		{"Total mismatches", s.TotalMismatches},
		{"Only in " + labelA, s.OnlyInA},
		{"Only in " + labelB, s.OnlyInB},
		{"Brands in " + labelA, s.BrandsA},
		{"Brands in " + labelB, s.BrandsB},
		{"Max rate difference", s.MaxAbsRateDifference.InexactFloat64()},
		{"Brands", strings.Join(bundle.Brands, ", ")},
	}
	return writeRows(f, "Summary", 1, rows)
}

func writePairSheet(f *excelize.File, name, labelA, labelB string, pairs []*classifier.ClassifiedPair) error {
	sheet, err := newSheet(f, name)
	if err != nil {
		return err
	}
	rows := [][]interface{}{pairHeader(labelA, labelB)}
	for _, cp := range pairs {
		rows = append(rows, pairRow(cp))
	}
	return writeRows(f, sheet, 1, rows)
}

func pairHeader(labelA, labelB string) []interface{} {
	return []interface{}{
		"txn_id", "classification",
		"status_" + labelA, "status_" + labelB,
		"revenue_" + labelA, "revenue_" + labelB,
		"sale_amount_" + labelA, "sale_amount_" + labelB,
		"rate_" + labelA, "rate_" + labelB,
		"brand",
		"created_" + labelA, "created_" + labelB,
		"date_difference",
	}
}

func pairRow(cp *classifier.ClassifiedPair) []interface{} {
	return []interface{}{
		cp.TxnID, cp.Label,
		cp.StatusA, cp.StatusB,
		cp.RevenueA.InexactFloat64(), cp.RevenueB.InexactFloat64(),
		cp.SaleAmountA.InexactFloat64(), cp.SaleAmountB.InexactFloat64(),
		cp.RateA.InexactFloat64(), cp.RateB.InexactFloat64(),
		cp.BrandA,
		cp.DateA, cp.DateB,
		cp.DateDifference,
	}
}

func writeRevenueDiffSheet(f *excelize.File, labelA, labelB string, view []*classifier.RevenueDiffRow) error {
	sheet, err := newSheet(f, "Status Match Revenue Mismatch")
	if err != nil {
		return err
	}
	rows := [][]interface{}{{
		"txn_id", "brand", "status",
		"revenue_" + labelA, "revenue_" + labelB, "revenue_difference",
		"rate_" + labelA, "rate_" + labelB, "rate_difference",
	}}
	for _, row := range view {
		rows = append(rows, []interface{}{
			row.TxnID, row.BrandA, row.StatusA,
			row.RevenueA.InexactFloat64(), row.RevenueB.InexactFloat64(),
			row.RevenueDifference.InexactFloat64(),
			row.RateA.InexactFloat64(), row.RateB.InexactFloat64(),
			row.RateDifference.InexactFloat64(),
		})
	}
	return writeRows(f, sheet, 1, rows)
}

func writeRecordSheet(f *excelize.File, name string, records []*models.Record) error {
	sheet, err := newSheet(f, name)
	if err != nil {
		return err
	}
	rows := [][]interface{}{{
		"txn_id", "revenue", "sale_amount", "status", "brand", "created", "rate",
	}}
	for _, r := range records {
		rows = append(rows, []interface{}{
			r.TxnID,
			r.OriginalRevenue.InexactFloat64(),
			r.OriginalSaleAmount.InexactFloat64(),
			r.Status,
			r.Brand,
			r.Created.Format(models.DateLayout),
			r.Rate().InexactFloat64(),
		})
	}
	return writeRows(f, sheet, 1, rows)
}

func writeRatesSheet(f *excelize.File, name string, summary *rates.Summary) error {
	sheet, err := newSheet(f, name)
	if err != nil {
		return err
	}
	rows := [][]interface{}{{
		"brand", "month", "rate", "total_revenue", "total_sale_amount",
		"transaction_count", "date_range_start", "date_range_end", "status_breakdown",
	}}
	for _, row := range summary.Rows {
		rows = append(rows, []interface{}{
			row.Brand, row.Bucket, row.Rate.InexactFloat64(),
			row.TotalRevenue.InexactFloat64(), row.TotalSaleAmount.InexactFloat64(),
			row.TransactionCount, row.DateRangeStart, row.DateRangeEnd,
			formatStatusBreakdown(row.StatusBreakdown),
		})
	}

	rows = append(rows, []interface{}{})
	rows = append(rows, []interface{}{"status", "total_revenue", "total_sale_amount", "transaction_count", "rate"})
	for _, ss := range summary.StatusSummary {
		rows = append(rows, []interface{}{
			ss.Status, ss.TotalRevenue.InexactFloat64(), ss.TotalSaleAmount.InexactFloat64(),
			ss.TransactionCount, ss.Rate.InexactFloat64(),
		})
	}
	return writeRows(f, sheet, 1, rows)
}

func formatStatusBreakdown(breakdown map[string]*rates.StatusTotals) string {
	statuses := make([]string, 0, len(breakdown))
	for status := range breakdown {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)

	parts := make([]string, 0, len(statuses))
	for _, status := range statuses {
		st := breakdown[status]
		parts = append(parts, fmt.Sprintf("%s: %s (%d)", status, st.Revenue.StringFixed(2), st.Count))
	}
	return strings.Join(parts, "; ")
}

func writeRateDiffSheet(f *excelize.File, labelA, labelB string, cmp *rates.RateComparison) error {
	sheet, err := newSheet(f, "Rate Differences")
	if err != nil {
		return err
	}
	rows := [][]interface{}{{
		"brand", "month", "rate_" + labelA, "rate_" + labelB, "rate_difference",
	}}
	for _, row := range cmp.Rows {
		rows = append(rows, []interface{}{
			row.Brand, row.Bucket,
			row.RateA.InexactFloat64(), row.RateB.InexactFloat64(),
			row.RateDifference.InexactFloat64(),
		})
	}
	return writeRows(f, sheet, 1, rows)
}
