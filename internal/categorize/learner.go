package categorize

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vkuzmin/budget-categorizer/internal/domain"
)

// RuleStore is the persistence surface the learner needs.
type RuleStore interface {
	// FindRuleByKeyword returns the owner's rule for a keyword, or nil when
	// no rule exists.
	FindRuleByKeyword(ctx context.Context, owner, keyword string) (*domain.Rule, error)
	InsertRule(ctx context.Context, rule *domain.Rule) error
	UpdateRuleCategory(ctx context.Context, owner, ruleID, category string) error
}

// Keyword derives the rule keyword for a description: the first two
// whitespace-separated tokens of the lowercased text joined by a single
// space. Coarse on purpose — no stemming, no stop words; a later transaction
// sharing the same first two words is categorized identically.
func Keyword(description string) string {
	fields := strings.Fields(strings.ToLower(description))
	if len(fields) > 2 {
		fields = fields[:2]
	}
	return strings.Join(fields, " ")
}

// Learner turns manual recategorizations into keyword rules.
type Learner struct {
	store RuleStore
	log   zerolog.Logger
}

// NewLearner creates a learner over the given rule store.
func NewLearner(store RuleStore, log zerolog.Logger) *Learner {
	return &Learner{store: store, log: log}
}

// Learn upserts a rule from a manual category correction. Reassignments to
// Uncategorized or to an empty category teach nothing. At most one rule
// exists per (owner, keyword): an existing rule with a different category is
// updated in place, never duplicated.
func (l *Learner) Learn(ctx context.Context, owner, description, category string) error {
	if category == "" || category == domain.Uncategorized {
		return nil
	}

	keyword := Keyword(description)
	if keyword == "" {
		return nil
	}

	existing, err := l.store.FindRuleByKeyword(ctx, owner, keyword)
	if err != nil {
		return fmt.Errorf("Learn: find rule %q: %w", keyword, err)
	}

	if existing == nil {
		rule := &domain.Rule{
			RuleID:   uuid.NewString(),
			Owner:    owner,
			Keyword:  keyword,
			Category: category,
		}
		if err := l.store.InsertRule(ctx, rule); err != nil {
			return fmt.Errorf("Learn: insert rule %q: %w", keyword, err)
		}
		l.log.Info().Str("keyword", keyword).Str("category", category).Msg("Learned new rule")
		return nil
	}

	if existing.Category == category {
		return nil
	}

	if err := l.store.UpdateRuleCategory(ctx, owner, existing.RuleID, category); err != nil {
		return fmt.Errorf("Learn: update rule %q: %w", keyword, err)
	}
	l.log.Info().
		Str("keyword", keyword).
		Str("from", existing.Category).
		Str("to", category).
		Msg("Retrained rule")
	return nil
}
