package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestSchemaError(t *testing.T) {
	err := SchemaError("network.xlsx", []string{"brand", "created"})

	if err.Category != CategoryValidation {
		t.Errorf("Expected validation category, got %s", err.Category)
	}
	if err.Code != CodeMissingColumn {
		t.Errorf("Expected missing_column code, got %s", err.Code)
	}
	if !strings.Contains(err.Error(), "brand, created") {
		t.Errorf("Expected missing columns in message, got %q", err.Error())
	}
	if err.Context["source"] != "network.xlsx" {
		t.Errorf("Expected source context, got %v", err.Context["source"])
	}
}

func TestDateFormatError(t *testing.T) {
	cause := fmt.Errorf("year out of range")
	err := DateFormatError("advertiser.csv", "1999-05-10", cause)

	if err.Code != CodeInvalidDate {
		t.Errorf("Expected invalid_date code, got %s", err.Code)
	}
	if err.Unwrap() != cause {
		t.Error("Expected cause to be preserved")
	}
	if !strings.Contains(err.Error(), "1999-05-10") {
		t.Errorf("Expected offending value in message, got %q", err.Error())
	}
}

func TestEmptyInputError(t *testing.T) {
	err := EmptyInputError("empty.xlsx")

	if err.Code != CodeEmptyInput {
		t.Errorf("Expected empty_input code, got %s", err.Code)
	}
	if !strings.Contains(err.Error(), "empty.xlsx") {
		t.Errorf("Expected source in message, got %q", err.Error())
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      *ReconcilerError
		expected int
	}{
		{"file error", FileError(CodeFileNotFound, "missing.csv", nil), 2},
		{"validation error", EmptyInputError("a.csv"), 3},
		{"parse error", ParseError(CodeInvalidFormat, "a.csv", 3, "bad row", nil), 3},
		{"configuration error", ConfigurationError(CodeInvalidConfig, "output-format", "yaml"), 4},
		{"reconciliation error", ReconciliationError("classification", nil), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := tt.err.GetExitCode(); code != tt.expected {
				t.Errorf("Expected exit code %d, got %d", tt.expected, code)
			}
		})
	}
}

func TestAsReconcilerError(t *testing.T) {
	original := EmptyInputError("a.csv")
	wrapped := fmt.Errorf("loading failed: %w", original)

	extracted, ok := AsReconcilerError(wrapped)
	if !ok {
		t.Fatal("Expected to extract ReconcilerError from wrapped chain")
	}
	if extracted.Code != CodeEmptyInput {
		t.Errorf("Expected empty_input code, got %s", extracted.Code)
	}

	if _, ok := AsReconcilerError(fmt.Errorf("plain error")); ok {
		t.Error("Expected plain error not to be a ReconcilerError")
	}
}

func TestHasCode(t *testing.T) {
	err := DateFormatError("a.csv", "2024-99-99", nil)

	if !HasCode(err, CodeInvalidDate) {
		t.Error("Expected HasCode to match invalid_date")
	}
	if HasCode(err, CodeEmptyInput) {
		t.Error("Expected HasCode not to match empty_input")
	}
	if HasCode(nil, CodeInvalidDate) {
		t.Error("Expected HasCode to be false for nil error")
	}
}

func TestWithContextAndSuggestion(t *testing.T) {
	err := New(CategoryInternal, CodeUnexpectedError, "boom").
		WithContext("phase", "matching").
		WithSuggestion("retry the run")

	if err.Context["phase"] != "matching" {
		t.Errorf("Expected phase context, got %v", err.Context["phase"])
	}
	if !strings.Contains(err.Error(), "suggestion: retry the run") {
		t.Errorf("Expected suggestion in message, got %q", err.Error())
	}
}
