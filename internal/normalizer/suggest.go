package normalizer

import (
	"strings"

	"affiliate-reconciliation-service/internal/models"
)

// fieldSynonyms lists known header spellings per canonical field, most
// specific first. Matching is case-insensitive.
var fieldSynonyms = map[string][]string{
	models.FieldTxnID:      {"txn_id", "transaction_id", "txn", "transaction", "id", "order id", "orderid"},
	models.FieldRevenue:    {"revenue", "rev", "earning", "commission", "payment", "payout"},
	models.FieldSaleAmount: {"sale_amount", "sale", "amount", "price", "value", "order sum", "ordersum", "order_amount"},
	models.FieldStatus:     {"status", "state", "condition", "order_status", "orderstatus"},
	models.FieldBrand:      {"brand", "brand_name", "advertiser", "merchant", "campaign_app_name", "app_name", "campaign"},
	models.FieldCreated:    {"created", "date", "created_at", "created_date", "transaction_date", "action time", "datetime"},
}

// SuggestMapping proposes a column mapping for the given source headers.
// Each field is resolved independently, exact matches winning over
// substring matches, so one ambiguous header may serve several fields.
// Fields with no plausible header are omitted; the suggestion is advisory
// and never fails.
func SuggestMapping(headers []string) ColumnMapping {
	lowered := make([]string, len(headers))
	for i, h := range headers {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}

	suggestion := make(ColumnMapping)
	for _, field := range models.RequiredFields {
		idx := findExact(lowered, fieldSynonyms[field])
		if idx == -1 {
			idx = findPartial(lowered, fieldSynonyms[field])
		}
		if idx != -1 {
			suggestion[field] = headers[idx]
		}
	}
	return suggestion
}

func findExact(headers []string, synonyms []string) int {
	for _, syn := range synonyms {
		for i, h := range headers {
			if h == syn {
				return i
			}
		}
	}
	return -1
}

func findPartial(headers []string, synonyms []string) int {
	for _, syn := range synonyms {
		for i, h := range headers {
			if h == "" {
				continue
			}
			if strings.Contains(h, syn) || strings.Contains(syn, h) {
				return i
			}
		}
	}
	return -1
}
