// Package importer turns raw bank-export CSV rows into candidate
// transactions. Column headers vary by bank, so fields are resolved through
// alias lists; rows that cannot yield a usable description or amount are
// rejected and silently dropped by the pipeline.
package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vkuzmin/budget-categorizer/internal/domain"
)

// Header aliases, checked in order. First non-empty cell wins.
var (
	dateAliases        = []string{"Date", "Transaction Date", "Posting Date"}
	descriptionAliases = []string{"Description", "Payee", "Transaction Details"}
)

// Source date layouts accepted by normalization. Whatever the bank exports,
// the stored form is always YYYY-MM-DD.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// NormalizeRow maps one raw record to a candidate transaction with category
// and owner unset. An error means the row is rejected: empty description
// after trimming, an amount that is not a valid number, or a malformed date.
func NormalizeRow(record map[string]string) (*domain.Transaction, error) {
	desc := strings.TrimSpace(firstField(record, descriptionAliases))
	if desc == "" {
		return nil, fmt.Errorf("NormalizeRow: empty description")
	}

	amount, err := resolveAmount(record)
	if err != nil {
		return nil, fmt.Errorf("NormalizeRow: %w", err)
	}

	date := firstField(record, dateAliases)
	if date != "" {
		date, err = canonicalDate(date)
		if err != nil {
			return nil, fmt.Errorf("NormalizeRow: %w", err)
		}
	}

	return &domain.Transaction{
		Date:        date,
		Description: desc,
		Amount:      amount,
	}, nil
}

// resolveAmount picks the signed amount for a row. A cleanly numeric Debit
// column is negated; a cleanly numeric Credit column is taken as-is. Anything
// else falls back to the Amount column (or the raw Debit/Credit text),
// stripped of every character except digits, '.' and '-'. A row with no
// amount-bearing cell at all is worth 0; a non-empty cell that still does not
// parse rejects the row.
func resolveAmount(record map[string]string) (float64, error) {
	if v := strings.TrimSpace(record["Debit"]); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return -f, nil
		}
	}
	if v := strings.TrimSpace(record["Credit"]); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, nil
		}
	}

	raw := strings.TrimSpace(record["Amount"])
	if raw == "" {
		raw = strings.TrimSpace(record["Debit"])
	}
	if raw == "" {
		raw = strings.TrimSpace(record["Credit"])
	}
	if raw == "" {
		return 0, nil
	}

	cleaned := stripNonNumeric(raw)
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not a number", raw)
	}
	return f, nil
}

// stripNonNumeric removes currency symbols, thousands separators and any
// other decoration, keeping digits, '.' and '-'.
func stripNonNumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// canonicalDate reformats a source date to YYYY-MM-DD.
func canonicalDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("unparseable date %q", s)
}

func firstField(record map[string]string, aliases []string) string {
	for _, key := range aliases {
		if v, ok := record[key]; ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
