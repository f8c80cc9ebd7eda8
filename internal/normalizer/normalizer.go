// Package normalizer converts raw source tables into canonical datasets.
//
// Normalization applies a caller-supplied column mapping, validates the
// presence of the six required fields, coerces monetary values into the dual
// floored/rounded representation and repairs the created date. Any failure
// aborts the whole load: there is no per-row recovery.
package normalizer

import (
	"affiliate-reconciliation-service/internal/models"
	"affiliate-reconciliation-service/pkg/errors"
	"affiliate-reconciliation-service/pkg/logger"
)

// ColumnMapping maps canonical field names to source header names. Absent
// entries mean the source header is already correctly named.
type ColumnMapping map[string]string

// sourceHeader resolves the source header for a canonical field.
func (m ColumnMapping) sourceHeader(field string) string {
	if m == nil {
		return field
	}
	if header, ok := m[field]; ok && header != "" {
		return header
	}
	return field
}

// Normalize converts a raw table into a canonical dataset using the given
// column mapping. It fails when the table is empty, when any required field
// is missing after mapping, when a monetary or date value cannot be coerced
// or when a row yields an invalid record. The input table is not mutated.
func Normalize(table *models.RawTable, mapping ColumnMapping) (*models.Dataset, error) {
	log := logger.GetGlobalLogger().WithComponent("normalizer")

	if table.IsEmpty() {
		return nil, errors.EmptyInputError(tableSource(table))
	}

	columns := make(map[string]int, len(models.RequiredFields))
	var missing []string
	for _, field := range models.RequiredFields {
		idx := table.HeaderIndex(mapping.sourceHeader(field))
		if idx == -1 {
			missing = append(missing, field)
			continue
		}
		columns[field] = idx
	}
	if len(missing) > 0 {
		log.WithFields(logger.Fields{
			"source":          table.Source,
			"missing_columns": missing,
		}).Error("Required columns are missing")
		return nil, errors.SchemaError(table.Source, missing)
	}

	records := make([]*models.Record, 0, len(table.Rows))
	for i := range table.Rows {
		record, err := normalizeRow(table, columns, i)
		if err == nil {
			if verr := record.Validate(); verr != nil {
				err = errors.RecordError(table.Source, i+1, verr)
			}
		}
		if err != nil {
			log.WithError(err).WithFields(logger.Fields{
				"source": table.Source,
				"row":    i + 1,
			}).Error("Row normalization failed, aborting load")
			return nil, err
		}
		records = append(records, record)
	}

	log.WithFields(logger.Fields{
		"source":  table.Source,
		"records": len(records),
	}).Info("Dataset normalized")

	return &models.Dataset{Source: table.Source, Records: records}, nil
}

func normalizeRow(table *models.RawTable, columns map[string]int, row int) (*models.Record, error) {
	revenueRaw := table.Cell(row, columns[models.FieldRevenue])
	revenue, err := models.ParseAmount(revenueRaw)
	if err != nil {
		return nil, errors.AmountError(table.Source, models.FieldRevenue, revenueRaw, err)
	}

	saleRaw := table.Cell(row, columns[models.FieldSaleAmount])
	saleAmount, err := models.ParseAmount(saleRaw)
	if err != nil {
		return nil, errors.AmountError(table.Source, models.FieldSaleAmount, saleRaw, err)
	}

	createdRaw := table.Cell(row, columns[models.FieldCreated])
	created, err := models.ParseCreated(createdRaw)
	if err != nil {
		return nil, errors.DateFormatError(table.Source, createdRaw, err)
	}

	originalRevenue, comparisonRevenue := models.NormalizeMonetary(revenue)
	originalSale, comparisonSale := models.NormalizeMonetary(saleAmount)

	return &models.Record{
		TxnID:              table.Cell(row, columns[models.FieldTxnID]),
		Status:             table.Cell(row, columns[models.FieldStatus]),
		Brand:              table.Cell(row, columns[models.FieldBrand]),
		Created:            created,
		Revenue:            comparisonRevenue,
		SaleAmount:         comparisonSale,
		OriginalRevenue:    originalRevenue,
		OriginalSaleAmount: originalSale,
	}, nil
}

func tableSource(table *models.RawTable) string {
	if table == nil {
		return "<nil>"
	}
	return table.Source
}
