// Package parsers loads raw tables from xlsx and csv files.
//
// The parsers do no field interpretation: every cell comes back as a string
// and normalization happens downstream. The first row of the first sheet (or
// of the csv stream) is the header row.
package parsers

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"affiliate-reconciliation-service/internal/models"
	"affiliate-reconciliation-service/pkg/errors"
	"affiliate-reconciliation-service/pkg/logger"
)

// LoadTable reads the file at path into a raw table. The format is chosen by
// extension: .xlsx and .xlsm via excelize, .csv via encoding/csv. Anything
// else is an unsupported format error.
func LoadTable(path string) (*models.RawTable, error) {
	log := logger.GetGlobalLogger().WithComponent("parsers")

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, errors.FileError(errors.CodeFileNotFound, path, err)
	}

	var (
		table *models.RawTable
		err   error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		table, err = loadExcel(path)
	case ".csv":
		table, err = loadCSV(path)
	default:
		return nil, errors.FileError(errors.CodeUnsupportedFormat, path, nil)
	}
	if err != nil {
		return nil, err
	}

	log.WithFields(logger.Fields{
		"file":    path,
		"columns": len(table.Headers),
		"rows":    len(table.Rows),
	}).Info("Table loaded")

	return table, nil
}

// LoadHeaders reads only the header row of the file at path.
func LoadHeaders(path string) ([]string, error) {
	table, err := LoadTable(path)
	if err != nil {
		return nil, err
	}
	return table.Headers, nil
}

func loadExcel(path string) (*models.RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, path, 0, "failed to open workbook", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.ParseError(errors.CodeInvalidData, path, 0, "workbook has no sheets", nil)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, path, 0, "failed to read sheet "+sheet, err)
	}

	return buildTable(path, rows), nil
}

func loadCSV(path string) (*models.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.FileError(errors.CodeFileNotFound, path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.ParseError(errors.CodeInvalidFormat, path, line, "malformed csv row", err)
		}
		rows = append(rows, record)
	}

	return buildTable(path, rows), nil
}

// buildTable splits raw rows into header and data, dropping rows that are
// entirely blank.
func buildTable(path string, rows [][]string) *models.RawTable {
	table := &models.RawTable{Source: filepath.Base(path)}
	if len(rows) == 0 {
		return table
	}

	table.Headers = make([]string, len(rows[0]))
	for i, h := range rows[0] {
		table.Headers[i] = strings.TrimSpace(h)
	}

	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
