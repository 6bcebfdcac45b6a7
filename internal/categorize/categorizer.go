// Package categorize assigns spending categories to transactions from a
// keyword rule table and maintains that table as users correct
// categorizations.
package categorize

import (
	"context"
	"fmt"
	"strings"

	"github.com/vkuzmin/budget-categorizer/internal/domain"
)

// RuleTable is an immutable, ordered snapshot of one owner's keyword →
// category rules. Match order is the snapshot's insertion order, not
// alphabetical and not most-specific-first; an import run takes one snapshot
// at pipeline start and uses it for every row, so rules learned mid-import
// never apply retroactively within the same run.
type RuleTable struct {
	rules []domain.Rule
}

// NewRuleTable builds a snapshot from rules in their stored order. Keywords
// are lowercased defensively; the learner already stores them lowercased.
func NewRuleTable(rules []domain.Rule) *RuleTable {
	snapshot := make([]domain.Rule, 0, len(rules))
	for _, r := range rules {
		r.Keyword = strings.ToLower(r.Keyword)
		snapshot = append(snapshot, r)
	}
	return &RuleTable{rules: snapshot}
}

// Categorize returns the category of the first rule whose keyword is a
// substring of the lowercased description, or Uncategorized when none
// matches. Matching is plain substring search: "gas" matches "vegas".
func (t *RuleTable) Categorize(description string) string {
	desc := strings.ToLower(description)
	for _, r := range t.rules {
		if r.Keyword == "" {
			continue
		}
		if strings.Contains(desc, r.Keyword) {
			return r.Category
		}
	}
	return domain.Uncategorized
}

// Len reports the number of rules in the snapshot.
func (t *RuleTable) Len() int {
	return len(t.rules)
}

// RuleSource lists one owner's rules in insertion order.
type RuleSource interface {
	ListRules(ctx context.Context, owner string) ([]domain.Rule, error)
}

// LoadRuleTable takes a fresh snapshot of an owner's rule table.
func LoadRuleTable(ctx context.Context, src RuleSource, owner string) (*RuleTable, error) {
	rules, err := src.ListRules(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("LoadRuleTable: %w", err)
	}
	return NewRuleTable(rules), nil
}
