package categorize

import (
	"testing"

	"github.com/vkuzmin/budget-categorizer/internal/domain"
)

func TestCategorize_FirstMatchWins(t *testing.T) {
	// Construction order is the match order, so the broader "coffee" rule
	// shadows the more specific "starbucks coffee" rule here.
	table := NewRuleTable([]domain.Rule{
		{Keyword: "coffee", Category: "Dining"},
		{Keyword: "starbucks coffee", Category: "Coffee Shops"},
	})

	if got := table.Categorize("Starbucks Coffee Purchase"); got != "Dining" {
		t.Errorf("Categorize() = %q, want %q (first keyword in table order)", got, "Dining")
	}

	// Reversed construction order flips the outcome.
	reversed := NewRuleTable([]domain.Rule{
		{Keyword: "starbucks coffee", Category: "Coffee Shops"},
		{Keyword: "coffee", Category: "Dining"},
	})
	if got := reversed.Categorize("Starbucks Coffee Purchase"); got != "Coffee Shops" {
		t.Errorf("Categorize() = %q, want %q", got, "Coffee Shops")
	}
}

func TestCategorize_SubstringNotWordBoundary(t *testing.T) {
	table := NewRuleTable([]domain.Rule{
		{Keyword: "gas", Category: "Auto"},
	})

	if got := table.Categorize("Las Vegas Hotel"); got != "Auto" {
		t.Errorf("Categorize() = %q, want %q (substring match, not tokenized)", got, "Auto")
	}
}

func TestCategorize_CaseInsensitive(t *testing.T) {
	table := NewRuleTable([]domain.Rule{
		{Keyword: "WHOLE FOODS", Category: "Groceries"},
	})

	if got := table.Categorize("whole foods market #123"); got != "Groceries" {
		t.Errorf("Categorize() = %q, want %q", got, "Groceries")
	}
}

func TestCategorize_NoMatch(t *testing.T) {
	table := NewRuleTable([]domain.Rule{
		{Keyword: "netflix", Category: "Entertainment"},
	})

	if got := table.Categorize("Shell Gas Station"); got != domain.Uncategorized {
		t.Errorf("Categorize() = %q, want %q", got, domain.Uncategorized)
	}
}

func TestCategorize_EmptyTable(t *testing.T) {
	table := NewRuleTable(nil)

	if got := table.Categorize("anything"); got != domain.Uncategorized {
		t.Errorf("Categorize() = %q, want %q", got, domain.Uncategorized)
	}
	if table.Len() != 0 {
		t.Errorf("Len() = %d, want 0", table.Len())
	}
}

func TestCategorize_EmptyKeywordSkipped(t *testing.T) {
	// An empty keyword would match every description; it must be ignored.
	table := NewRuleTable([]domain.Rule{
		{Keyword: "", Category: "Broken"},
		{Keyword: "rent", Category: "Housing"},
	})

	if got := table.Categorize("Monthly Rent"); got != "Housing" {
		t.Errorf("Categorize() = %q, want %q", got, "Housing")
	}
}
