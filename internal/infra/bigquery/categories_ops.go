package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/vkuzmin/budget-categorizer/internal/domain"
	"google.golang.org/api/iterator"
)

// ListCategories returns the owner's categories ordered by name.
func ListCategories(ctx context.Context, owner string) ([]domain.Category, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: bigquery client: %w", err)
	}
	defer client.Close()

	return ListCategoriesWithClient(ctx, client, owner)
}

// ListCategoriesWithClient returns the owner's categories ordered by name
// using the provided BigQuery client.
func ListCategoriesWithClient(ctx context.Context, client *bigquery.Client, owner string) ([]domain.Category, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			category_id,
			owner,
			name,
			created_ts
		FROM %s.%s
		WHERE owner = @owner
		ORDER BY name
	`, datasetID, categoriesTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner", Value: owner},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: query read: %w", err)
	}

	var categories []domain.Category
	for {
		var r CategoryRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListCategories: iter next: %w", err)
		}
		categories = append(categories, fromCategoryRow(&r))
	}

	return categories, nil
}

// InsertCategoryWithClient inserts one category. DML keeps the row visible
// to the duplicate check on the very next AddCategory call.
func InsertCategoryWithClient(ctx context.Context, client *bigquery.Client, category *domain.Category) error {
	q := client.Query(fmt.Sprintf(`
		INSERT %s.%s (category_id, owner, name, created_ts)
		VALUES (@category_id, @owner, @name, @created_ts)
	`, datasetID, categoriesTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "category_id", Value: category.CategoryID},
		{Name: "owner", Value: category.Owner},
		{Name: "name", Value: category.Name},
		{Name: "created_ts", Value: time.Now().UTC()},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("InsertCategory: running insert query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("InsertCategory: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("InsertCategory: job error: %w", err)
	}

	return nil
}

// DeleteCategoryByNameWithClient removes the owner's category matching the
// name case-insensitively. Transactions tagged with the name are untouched.
func DeleteCategoryByNameWithClient(ctx context.Context, client *bigquery.Client, owner, name string) error {
	q := client.Query(fmt.Sprintf(`
		DELETE FROM %s.%s
		WHERE owner = @owner
		  AND LOWER(name) = LOWER(@name)
	`, datasetID, categoriesTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner", Value: owner},
		{Name: "name", Value: name},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("DeleteCategoryByName: running delete query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("DeleteCategoryByName: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("DeleteCategoryByName: job error: %w", err)
	}

	return nil
}
