// Package config builds component configurations from CLI input.
package config

import (
	"fmt"
	"strings"

	"affiliate-reconciliation-service/internal/models"
	"affiliate-reconciliation-service/internal/normalizer"
	"affiliate-reconciliation-service/internal/reporter"
	"affiliate-reconciliation-service/pkg/logger"
)

// ParseMapping converts a flag value of the form canonical=header pairs into
// a column mapping. Keys must be canonical field names.
func ParseMapping(pairs map[string]string) (normalizer.ColumnMapping, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	valid := make(map[string]bool, len(models.RequiredFields))
	for _, field := range models.RequiredFields {
		valid[field] = true
	}

	mapping := make(normalizer.ColumnMapping, len(pairs))
	for key, header := range pairs {
		field := strings.ToLower(strings.TrimSpace(key))
		if !valid[field] {
			return nil, fmt.Errorf("unknown mapping key %q, valid keys: %s",
				key, strings.Join(models.RequiredFields, ", "))
		}
		if strings.TrimSpace(header) == "" {
			return nil, fmt.Errorf("mapping for %q has an empty header name", key)
		}
		mapping[field] = strings.TrimSpace(header)
	}
	return mapping, nil
}

// CreateReporterConfig builds the reporter configuration for the chosen
// output format and file.
func CreateReporterConfig(format, outputFile string) reporter.Config {
	return reporter.Config{
		Format:     reporter.Format(format),
		OutputPath: outputFile,
	}
}

// CreateLoggerConfig builds the logging configuration. Verbose forces debug
// level regardless of the configured level.
func CreateLoggerConfig(level, format string, verbose bool) *logger.Config {
	config := logger.DefaultConfig()
	if level != "" {
		config.Level = logger.Level(level)
	}
	if format != "" {
		config.Format = logger.Format(format)
	}
	if verbose {
		config.Level = logger.DebugLevel
	}
	return config
}
