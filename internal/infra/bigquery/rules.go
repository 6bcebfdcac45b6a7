package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/vkuzmin/budget-categorizer/internal/domain"
)

type RuleRow struct {
	RuleID   string `bigquery:"rule_id"`  // REQUIRED
	Owner    string `bigquery:"owner"`    // REQUIRED
	Keyword  string `bigquery:"keyword"`  // REQUIRED, lowercased
	Category string `bigquery:"category"` // REQUIRED

	CreatedTS time.Time              `bigquery:"created_ts"` // REQUIRED
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"` // NULLABLE
}

func fromRuleRow(row *RuleRow) domain.Rule {
	return domain.Rule{
		RuleID:   row.RuleID,
		Owner:    row.Owner,
		Keyword:  row.Keyword,
		Category: row.Category,
	}
}
