package reporter

import (
	"strings"
	"time"
)

// DefaultFilename derives the workbook name from the reconciled brands: up
// to three brands joined by dashes, more than three collapse to
// "<first>-and-others". The name is lowercased and restricted to
// alphanumerics, dash, underscore and dot.
func DefaultFilename(brands []string) string {
	var stem string
	switch {
	case len(brands) == 0:
		stem = "reconciliation"
	case len(brands) <= 3:
		stem = strings.Join(brands, "-")
	default:
		stem = brands[0] + "-and-others"
	}
	return cleanFilename(stem) + "-validation-results-" + time.Now().Format("2006-01-02") + ".xlsx"
}

func cleanFilename(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
