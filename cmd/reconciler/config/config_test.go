package config

import (
	"testing"

	"affiliate-reconciliation-service/internal/models"
	"affiliate-reconciliation-service/internal/reporter"
	"affiliate-reconciliation-service/pkg/logger"
)

func TestParseMapping(t *testing.T) {
	mapping, err := ParseMapping(map[string]string{
		"txn_id":  "Order ID",
		"revenue": "Payout",
	})
	if err != nil {
		t.Fatalf("ParseMapping failed: %v", err)
	}
	if mapping[models.FieldTxnID] != "Order ID" {
		t.Errorf("expected 'Order ID', got %q", mapping[models.FieldTxnID])
	}
	if mapping[models.FieldRevenue] != "Payout" {
		t.Errorf("expected 'Payout', got %q", mapping[models.FieldRevenue])
	}
}

func TestParseMappingNormalizesKeys(t *testing.T) {
	mapping, err := ParseMapping(map[string]string{" TXN_ID ": " Order ID "})
	if err != nil {
		t.Fatalf("ParseMapping failed: %v", err)
	}
	if mapping[models.FieldTxnID] != "Order ID" {
		t.Errorf("expected trimmed mapping, got %q", mapping[models.FieldTxnID])
	}
}

func TestParseMappingUnknownKey(t *testing.T) {
	if _, err := ParseMapping(map[string]string{"bogus": "x"}); err == nil {
		t.Error("expected error for unknown mapping key")
	}
}

func TestParseMappingEmptyHeader(t *testing.T) {
	if _, err := ParseMapping(map[string]string{"txn_id": "  "}); err == nil {
		t.Error("expected error for empty header name")
	}
}

func TestParseMappingEmpty(t *testing.T) {
	mapping, err := ParseMapping(nil)
	if err != nil {
		t.Fatalf("ParseMapping failed: %v", err)
	}
	if mapping != nil {
		t.Errorf("expected nil mapping, got %v", mapping)
	}
}

func TestCreateReporterConfig(t *testing.T) {
	config := CreateReporterConfig("json", "out.json")
	if config.Format != reporter.FormatJSON {
		t.Errorf("expected json format, got %s", config.Format)
	}
	if config.OutputPath != "out.json" {
		t.Errorf("expected out.json, got %s", config.OutputPath)
	}
}

func TestCreateLoggerConfig(t *testing.T) {
	config := CreateLoggerConfig("warn", "json", false)
	if config.Level != logger.WarnLevel {
		t.Errorf("expected warn level, got %s", config.Level)
	}
	if config.Format != logger.JSONFormat {
		t.Errorf("expected json format, got %s", config.Format)
	}

	verbose := CreateLoggerConfig("warn", "", true)
	if verbose.Level != logger.DebugLevel {
		t.Error("expected verbose to force debug level")
	}
	if verbose.Format != logger.TextFormat {
		t.Errorf("expected default text format, got %s", verbose.Format)
	}
}
