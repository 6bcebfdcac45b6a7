package notionsync

import (
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/vkuzmin/budget-categorizer/internal/domain"
)

func TestTransactionToNotionProperties(t *testing.T) {
	tx := &domain.Transaction{
		TransactionID: "t1",
		Date:          "2024-01-15",
		Description:   "Whole Foods Market",
		Amount:        -54.23,
		Category:      "Groceries",
		StatementID:   "s1",
	}

	props := TransactionToNotionProperties(tx)

	title := props["Description"].(notionapi.TitleProperty)
	if title.Title[0].Text.Content != "Whole Foods Market" {
		t.Errorf("description = %q", title.Title[0].Text.Content)
	}

	amount := props["Amount"].(notionapi.NumberProperty)
	if amount.Number != -54.23 {
		t.Errorf("amount = %v", amount.Number)
	}

	txType := props["Type"].(notionapi.SelectProperty)
	if txType.Select.Name != "Debit" {
		t.Errorf("type = %q, want Debit", txType.Select.Name)
	}

	category := props["Category"].(notionapi.SelectProperty)
	if category.Select.Name != "Groceries" {
		t.Errorf("category = %q", category.Select.Name)
	}

	date := props["Date"].(notionapi.DateProperty)
	if time.Time(*date.Date.Start).Format("2006-01-02") != "2024-01-15" {
		t.Errorf("date = %v", date.Date.Start)
	}
}

func TestTransactionToNotionProperties_OmitsOptionalFields(t *testing.T) {
	tx := &domain.Transaction{
		TransactionID: "t1",
		Date:          "not-a-date",
		Description:   "Refund",
		Amount:        12,
	}

	props := TransactionToNotionProperties(tx)

	if _, ok := props["Date"]; ok {
		t.Error("unparseable date should be omitted")
	}
	if _, ok := props["Category"]; ok {
		t.Error("empty category should be omitted")
	}
	if _, ok := props["Statement ID"]; ok {
		t.Error("empty statement ID should be omitted")
	}
	if props["Type"].(notionapi.SelectProperty).Select.Name != "Credit" {
		t.Error("positive amount should map to Credit")
	}
}

func TestTransactionType_ZeroIsDebit(t *testing.T) {
	if got := transactionType(0); got != "Debit" {
		t.Errorf("transactionType(0) = %q, want Debit", got)
	}
	if got := transactionType(0.01); got != "Credit" {
		t.Errorf("transactionType(0.01) = %q, want Credit", got)
	}
}

func TestExtractTransactionID(t *testing.T) {
	page := pageWithTransactionID("page-1", "t42")
	if got := extractTransactionID(page); got != "t42" {
		t.Errorf("extractTransactionID = %q, want t42", got)
	}

	empty := notionapi.Page{Properties: notionapi.Properties{}}
	if got := extractTransactionID(empty); got != "" {
		t.Errorf("extractTransactionID = %q, want empty", got)
	}
}
