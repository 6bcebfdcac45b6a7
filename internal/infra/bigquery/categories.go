package bigquery

import (
	"time"

	"github.com/vkuzmin/budget-categorizer/internal/domain"
)

type CategoryRow struct {
	CategoryID string    `bigquery:"category_id"` // REQUIRED
	Owner      string    `bigquery:"owner"`       // REQUIRED
	Name       string    `bigquery:"name"`        // REQUIRED
	CreatedTS  time.Time `bigquery:"created_ts"`  // REQUIRED
}

func fromCategoryRow(row *CategoryRow) domain.Category {
	return domain.Category{
		CategoryID: row.CategoryID,
		Owner:      row.Owner,
		Name:       row.Name,
	}
}
