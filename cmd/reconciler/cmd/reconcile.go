package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"affiliate-reconciliation-service/cmd/reconciler/config"
	"affiliate-reconciliation-service/internal/models"
	"affiliate-reconciliation-service/internal/normalizer"
	"affiliate-reconciliation-service/internal/parsers"
	"affiliate-reconciliation-service/internal/reconciler"
	"affiliate-reconciliation-service/internal/reporter"
)

// Flags for the reconcile command
var (
	file1        string
	file2        string
	mapping1     map[string]string
	mapping2     map[string]string
	outputFormat string
	outputFile   string
	autoMap      bool
	showProgress bool
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Cross-validate two affiliate transaction exports",
	Long: `Reconcile compares two transaction exports record by record. Both files
need the canonical columns txn_id, revenue, sale_amount, status, brand and
created; differently named columns are handled with --mapping1/--mapping2
or discovered with --auto-map.

Examples:
  # Both files already use canonical column names
  reconciler reconcile --file1 partner.csv --file2 internal.csv

  # Map partner columns onto the canonical names
  reconciler reconcile --file1 partner.xlsx --file2 internal.csv \
    --mapping1 "txn_id=Order ID,revenue=Payout,sale_amount=Order Sum,status=State,brand=Merchant,created=Action Time"

  # Let the tool guess the mappings from known header spellings
  reconciler reconcile --file1 partner.xlsx --file2 internal.csv --auto-map

  # Machine-readable output
  reconciler reconcile --file1 a.csv --file2 b.csv --output-format json --output-file report.json`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	// Required flags
	reconcileCmd.Flags().StringVar(&file1, "file1", "", "path to the first transaction file, xlsx or csv (required)")
	reconcileCmd.Flags().StringVar(&file2, "file2", "", "path to the second transaction file, xlsx or csv (required)")

	// Column mapping flags
	reconcileCmd.Flags().StringToStringVar(&mapping1, "mapping1", nil, "canonical=header pairs for the first file")
	reconcileCmd.Flags().StringToStringVar(&mapping2, "mapping2", nil, "canonical=header pairs for the second file")
	reconcileCmd.Flags().BoolVar(&autoMap, "auto-map", false, "derive missing mappings from known header spellings")

	// Output flags
	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "xlsx", "output format: xlsx, console, json")
	reconcileCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (xlsx default: derived from brands)")

	// UI flags
	reconcileCmd.Flags().BoolVar(&showProgress, "progress", false, "show progress indicators")

	reconcileCmd.MarkFlagRequired("file1")
	reconcileCmd.MarkFlagRequired("file2")

	viper.BindPFlag("file1", reconcileCmd.Flags().Lookup("file1"))
	viper.BindPFlag("file2", reconcileCmd.Flags().Lookup("file2"))
	viper.BindPFlag("output-format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reconcileCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("auto-map", reconcileCmd.Flags().Lookup("auto-map"))
	viper.BindPFlag("progress", reconcileCmd.Flags().Lookup("progress"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	file1 = viper.GetString("file1")
	file2 = viper.GetString("file2")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	autoMap = viper.GetBool("auto-map")
	showProgress = viper.GetBool("progress")

	if file1 == "" {
		return fmt.Errorf("file1 is required")
	}
	if file2 == "" {
		return fmt.Errorf("file2 is required")
	}

	if err := validateFileExists(file1, "first transaction file"); err != nil {
		return err
	}
	if err := validateFileExists(file2, "second transaction file"); err != nil {
		return err
	}

	validFormats := map[string]bool{"xlsx": true, "console": true, "json": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: xlsx, console, json", outputFormat)
	}

	// Validate output file directory exists if specified
	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	// Check if file is readable
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting reconciliation...\n")
		fmt.Fprintf(os.Stderr, "File 1: %s\n", file1)
		fmt.Fprintf(os.Stderr, "File 2: %s\n", file2)
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
	}

	tableA, err := parsers.LoadTable(file1)
	if err != nil {
		return err
	}
	tableB, err := parsers.LoadTable(file2)
	if err != nil {
		return err
	}

	mapA, err := resolveMapping(mapping1, tableA.Headers)
	if err != nil {
		return fmt.Errorf("invalid --mapping1: %w", err)
	}
	mapB, err := resolveMapping(mapping2, tableB.Headers)
	if err != nil {
		return fmt.Errorf("invalid --mapping2: %w", err)
	}

	if viper.GetBool("verbose") {
		if len(mapA) > 0 {
			fmt.Fprintf(os.Stderr, "Mapping for %s: %s\n", tableA.Source, formatMapping(mapA))
		}
		if len(mapB) > 0 {
			fmt.Fprintf(os.Stderr, "Mapping for %s: %s\n", tableB.Source, formatMapping(mapB))
		}
	}

	options := reconciler.Options{}
	if showProgress {
		options.OnProgress = func(p reconciler.Progress) {
			fmt.Fprintf(os.Stderr, "\r[%3d%%] %s", p.Percent, p.Message)
			if p.Phase == reconciler.PhaseComplete {
				fmt.Fprintln(os.Stderr)
			}
		}
	}

	bundle, err := reconciler.NewEngine(options).Reconcile(ctx, tableA, tableB, mapA, mapB)
	if err != nil {
		return err
	}

	rep := reporter.New(config.CreateReporterConfig(outputFormat, outputFile))
	path, err := rep.Write(bundle)
	if err != nil {
		return err
	}

	if path != "" {
		fmt.Fprintf(os.Stderr, "Report written to %s\n", path)
	}
	if viper.GetBool("verbose") {
		s := bundle.Summary
		fmt.Fprintf(os.Stderr, "\nReconciliation completed successfully.\n")
		fmt.Fprintf(os.Stderr, "Matched %d transactions: %d valid, %d mismatched.\n",
			s.Matched, s.Valid, s.TotalMismatches)
		fmt.Fprintf(os.Stderr, "Unmatched: %d in %s, %d in %s.\n",
			s.OnlyInA, bundle.SourceA, s.OnlyInB, bundle.SourceB)
	}

	return nil
}

// resolveMapping parses the explicit mapping flag and, when auto-map is set,
// fills the remaining fields from header suggestions.
func resolveMapping(pairs map[string]string, headers []string) (normalizer.ColumnMapping, error) {
	mapping, err := config.ParseMapping(pairs)
	if err != nil {
		return nil, err
	}
	if !autoMap {
		return mapping, nil
	}

	suggested := normalizer.SuggestMapping(headers)
	if mapping == nil {
		return suggested, nil
	}
	for field, header := range suggested {
		if _, ok := mapping[field]; !ok {
			mapping[field] = header
		}
	}
	return mapping, nil
}

// formatMapping renders a mapping for verbose output in field order.
func formatMapping(mapping normalizer.ColumnMapping) string {
	parts := make([]string, 0, len(mapping))
	for _, field := range models.RequiredFields {
		if header, ok := mapping[field]; ok {
			parts = append(parts, field+"="+header)
		}
	}
	return strings.Join(parts, ", ")
}
