package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"affiliate-reconciliation-service/internal/models"
	"affiliate-reconciliation-service/internal/normalizer"
	"affiliate-reconciliation-service/internal/parsers"
)

var headersFile string

// headersCmd represents the headers command
var headersCmd = &cobra.Command{
	Use:   "headers",
	Short: "Inspect a file's columns and suggest a mapping",
	Long: `Headers lists the column names of a transaction file and suggests how
they map onto the canonical fields. Use the printed pairs as a starting
point for the reconcile command's --mapping1/--mapping2 flags.

Example:
  reconciler headers --file partner.xlsx`,
	RunE: runHeaders,
}

func init() {
	rootCmd.AddCommand(headersCmd)

	headersCmd.Flags().StringVar(&headersFile, "file", "", "path to the transaction file, xlsx or csv (required)")
	headersCmd.MarkFlagRequired("file")
}

func runHeaders(cmd *cobra.Command, args []string) error {
	if err := validateFileExists(headersFile, "transaction file"); err != nil {
		return err
	}

	headers, err := parsers.LoadHeaders(headersFile)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Columns in %s:\n", headersFile)
	for _, h := range headers {
		fmt.Fprintf(os.Stdout, "  %s\n", h)
	}

	suggested := normalizer.SuggestMapping(headers)
	if len(suggested) == 0 {
		fmt.Fprintln(os.Stdout, "\nNo mapping suggestions for these columns.")
		return nil
	}

	fmt.Fprintln(os.Stdout, "\nSuggested mapping:")
	for _, field := range models.RequiredFields {
		if header, ok := suggested[field]; ok {
			fmt.Fprintf(os.Stdout, "  %s=%s\n", field, header)
		} else {
			fmt.Fprintf(os.Stdout, "  %s=<no match>\n", field)
		}
	}
	fmt.Fprintf(os.Stdout, "\nFlag form:\n  --mapping1 \"%s\"\n", formatMapping(suggested))

	return nil
}
