package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/vkuzmin/budget-categorizer/internal/domain"
	"google.golang.org/api/iterator"
)

// ListRules returns the owner's rules oldest first. The categorizer matches
// in this order, so insertion order is match order.
func ListRules(ctx context.Context, owner string) ([]domain.Rule, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("ListRules: bigquery client: %w", err)
	}
	defer client.Close()

	return ListRulesWithClient(ctx, client, owner)
}

// ListRulesWithClient returns the owner's rules oldest first using the
// provided BigQuery client.
func ListRulesWithClient(ctx context.Context, client *bigquery.Client, owner string) ([]domain.Rule, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			rule_id,
			owner,
			keyword,
			category,
			created_ts,
			updated_ts
		FROM %s.%s
		WHERE owner = @owner
		ORDER BY created_ts
	`, datasetID, rulesTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner", Value: owner},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRules: query read: %w", err)
	}

	var rules []domain.Rule
	for {
		var r RuleRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListRules: iter next: %w", err)
		}
		rules = append(rules, fromRuleRow(&r))
	}

	return rules, nil
}

// FindRuleByKeywordWithClient returns the owner's rule for a keyword, or nil
// when no rule exists.
func FindRuleByKeywordWithClient(ctx context.Context, client *bigquery.Client, owner, keyword string) (*domain.Rule, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			rule_id,
			owner,
			keyword,
			category,
			created_ts,
			updated_ts
		FROM %s.%s
		WHERE owner = @owner
		  AND keyword = @keyword
		LIMIT 1
	`, datasetID, rulesTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner", Value: owner},
		{Name: "keyword", Value: keyword},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("FindRuleByKeyword: query read: %w", err)
	}

	var r RuleRow
	err = it.Next(&r)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindRuleByKeyword: iter next: %w", err)
	}
	rule := fromRuleRow(&r)
	return &rule, nil
}

// InsertRuleWithClient inserts one rule. DML so the learner's find-then-update
// sees the row immediately.
func InsertRuleWithClient(ctx context.Context, client *bigquery.Client, rule *domain.Rule) error {
	q := client.Query(fmt.Sprintf(`
		INSERT %s.%s (rule_id, owner, keyword, category, created_ts)
		VALUES (@rule_id, @owner, @keyword, @category, @created_ts)
	`, datasetID, rulesTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "rule_id", Value: rule.RuleID},
		{Name: "owner", Value: rule.Owner},
		{Name: "keyword", Value: rule.Keyword},
		{Name: "category", Value: rule.Category},
		{Name: "created_ts", Value: time.Now().UTC()},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("InsertRule: running insert query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("InsertRule: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("InsertRule: job error: %w", err)
	}

	return nil
}

// UpdateRuleCategoryWithClient retargets an existing rule at a new category.
// created_ts stays put, so the rule keeps its place in match order.
func UpdateRuleCategoryWithClient(ctx context.Context, client *bigquery.Client, owner, ruleID, category string) error {
	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET category = @category,
		    updated_ts = @updated_ts
		WHERE owner = @owner
		  AND rule_id = @rule_id
	`, datasetID, rulesTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "category", Value: category},
		{Name: "updated_ts", Value: time.Now().UTC()},
		{Name: "owner", Value: owner},
		{Name: "rule_id", Value: ruleID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("UpdateRuleCategory: running update query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("UpdateRuleCategory: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("UpdateRuleCategory: job error: %w", err)
	}

	return nil
}
