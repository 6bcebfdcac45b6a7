package bigquery

import (
	"testing"

	"github.com/vkuzmin/budget-categorizer/internal/domain"
	"github.com/vkuzmin/budget-categorizer/internal/importer"
)

func TestToTransactionRow_DatelessRowMapsToNullDate(t *testing.T) {
	// A row whose date column isn't recognized normalizes to an empty date
	// and must still be storable.
	tx, err := importer.NormalizeRow(map[string]string{
		"Description": "No date row",
		"Amount":      "5",
	})
	if err != nil {
		t.Fatalf("NormalizeRow: %v", err)
	}
	if tx.Date != "" {
		t.Fatalf("normalized date = %q, want empty", tx.Date)
	}

	row, err := toTransactionRow(tx)
	if err != nil {
		t.Fatalf("toTransactionRow: %v", err)
	}
	if row.TransactionDate.Valid {
		t.Error("dateless row should map to a NULL transaction_date")
	}

	back := fromTransactionRow(row)
	if back.Date != "" {
		t.Errorf("round-tripped date = %q, want empty", back.Date)
	}
	if back.Identity() != tx.Identity() {
		t.Errorf("identity changed across mapping: %q vs %q", back.Identity(), tx.Identity())
	}
}

func TestToTransactionRow_ParsesCanonicalDate(t *testing.T) {
	row, err := toTransactionRow(&domain.Transaction{
		TransactionID: "t1",
		Owner:         "alice",
		Date:          "2024-01-15",
		Description:   "Coffee",
		Amount:        -4.5,
		Category:      "Dining",
	})
	if err != nil {
		t.Fatalf("toTransactionRow: %v", err)
	}
	if !row.TransactionDate.Valid || row.TransactionDate.Date.String() != "2024-01-15" {
		t.Errorf("transaction_date = %+v, want valid 2024-01-15", row.TransactionDate)
	}

	back := fromTransactionRow(row)
	if back.Date != "2024-01-15" {
		t.Errorf("round-tripped date = %q", back.Date)
	}
}

func TestToTransactionRow_RejectsMalformedDate(t *testing.T) {
	_, err := toTransactionRow(&domain.Transaction{
		Date:        "15/01/2024",
		Description: "Coffee",
		Amount:      -4.5,
	})
	if err == nil {
		t.Fatal("expected error for a non-empty unparseable date")
	}
}
