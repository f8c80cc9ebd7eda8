// Package reporter renders a reconciliation result bundle as an xlsx
// workbook, a console summary or JSON.
package reporter

import (
	"io"
	"os"

	"affiliate-reconciliation-service/internal/reconciler"
	"affiliate-reconciliation-service/pkg/errors"
	"affiliate-reconciliation-service/pkg/logger"
)

// Format selects the report output format.
type Format string

const (
	FormatXLSX    Format = "xlsx"
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// Config controls report generation. OutputPath applies to the xlsx format;
// when empty, a name is derived from the brands and the current date. Output
// receives console and json reports and defaults to stdout.
type Config struct {
	Format     Format
	OutputPath string
	Output     io.Writer
}

// Reporter writes result bundles in a configured format.
type Reporter struct {
	config Config
	log    logger.Logger
}

// New creates a reporter.
func New(config Config) *Reporter {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &Reporter{
		config: config,
		log:    logger.GetGlobalLogger().WithComponent("reporter"),
	}
}

// Write renders the bundle. For the xlsx format it returns the path of the
// written workbook; for console and json the returned path is empty.
func (r *Reporter) Write(bundle *reconciler.ResultBundle) (string, error) {
	switch r.config.Format {
	case FormatXLSX:
		path := r.config.OutputPath
		if path == "" {
			path = DefaultFilename(bundle.Brands)
		}
		if err := r.writeExcel(bundle, path); err != nil {
			return "", err
		}
		r.log.WithField("file", path).Info("Workbook written")
		return path, nil
	case FormatConsole:
		return "", r.writeConsole(bundle)
	case FormatJSON:
		return "", r.writeJSON(bundle)
	default:
		return "", errors.ConfigurationError(errors.CodeInvalidConfig, "output-format", string(r.config.Format))
	}
}
