package bigquery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/vkuzmin/budget-categorizer/internal/domain"
	"google.golang.org/api/iterator"
)

// InsertTransactions inserts a batch of transactions.
func InsertTransactions(ctx context.Context, txs []*domain.Transaction) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("InsertTransactions: bigquery client: %w", err)
	}
	defer client.Close()

	return InsertTransactionsWithClient(ctx, client, txs)
}

// InsertTransactionsWithClient inserts a batch of transactions using the
// provided BigQuery client.
func InsertTransactionsWithClient(ctx context.Context, client *bigquery.Client, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	rows := make([]*TransactionRow, 0, len(txs))
	for _, tx := range txs {
		row, err := toTransactionRow(tx)
		if err != nil {
			return fmt.Errorf("InsertTransactions: %w", err)
		}
		rows = append(rows, row)
	}

	table := client.DatasetInProject(projectID, datasetID).Table(transactionsTable)
	inserter := table.Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertTransactions: inserting rows: %w", err)
	}

	return nil
}

// QueryTransactionsByDateRange returns the owner's transactions within the
// date range, oldest first.
func QueryTransactionsByDateRange(ctx context.Context, owner string, startDate, endDate time.Time) ([]*domain.Transaction, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactionsByDateRange: bigquery client: %w", err)
	}
	defer client.Close()

	return QueryTransactionsByDateRangeWithClient(ctx, client, owner, startDate, endDate)
}

// QueryTransactionsByDateRangeWithClient returns the owner's transactions
// within the date range using the provided BigQuery client.
func QueryTransactionsByDateRangeWithClient(ctx context.Context, client *bigquery.Client, owner string, startDate, endDate time.Time) ([]*domain.Transaction, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			owner,
			statement_id,
			import_run_id,
			transaction_date,
			description,
			amount,
			category,
			created_ts
		FROM %s.%s
		WHERE owner = @owner
		  AND transaction_date >= @start_date
		  AND transaction_date <= @end_date
		ORDER BY transaction_date, created_ts
	`, datasetID, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner", Value: owner},
		{Name: "start_date", Value: startDate.Format(dateFormat)},
		{Name: "end_date", Value: endDate.Format(dateFormat)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactionsByDateRange: query read: %w", err)
	}

	var txs []*domain.Transaction
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryTransactionsByDateRange: iter next: %w", err)
		}
		txs = append(txs, fromTransactionRow(&r))
	}

	return txs, nil
}

// ExistingIdentitiesWithClient returns the identity strings of the owner's
// stored transactions on the given dates. The import pipeline uses this to
// skip rows that were already written by a previous run. An empty string in
// dates stands for the dateless rows, stored with a NULL transaction_date.
func ExistingIdentitiesWithClient(ctx context.Context, client *bigquery.Client, owner string, dates []string) (map[string]struct{}, error) {
	identities := make(map[string]struct{})
	if len(dates) == 0 {
		return identities, nil
	}

	var includeDateless bool
	dateParams := make([]civil.Date, 0, len(dates))
	for _, d := range dates {
		if d == "" {
			includeDateless = true
			continue
		}
		parsed, err := civil.ParseDate(d)
		if err != nil {
			return nil, fmt.Errorf("ExistingIdentities: parse date %q: %w", d, err)
		}
		dateParams = append(dateParams, parsed)
	}

	conds := make([]string, 0, 2)
	params := []bigquery.QueryParameter{{Name: "owner", Value: owner}}
	if len(dateParams) > 0 {
		conds = append(conds, "transaction_date IN UNNEST(@dates)")
		params = append(params, bigquery.QueryParameter{Name: "dates", Value: dateParams})
	}
	if includeDateless {
		conds = append(conds, "transaction_date IS NULL")
	}

	q := client.Query(fmt.Sprintf(`
		SELECT
			transaction_date,
			description,
			amount
		FROM %s.%s
		WHERE owner = @owner
		  AND (%s)
	`, datasetID, transactionsTable, strings.Join(conds, " OR ")))
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ExistingIdentities: query read: %w", err)
	}

	for {
		var r struct {
			TransactionDate bigquery.NullDate `bigquery:"transaction_date"`
			Description     string            `bigquery:"description"`
			Amount          float64           `bigquery:"amount"`
		}
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ExistingIdentities: iter next: %w", err)
		}
		tx := domain.Transaction{
			Description: r.Description,
			Amount:      r.Amount,
		}
		if r.TransactionDate.Valid {
			tx.Date = r.TransactionDate.Date.String()
		}
		identities[tx.Identity()] = struct{}{}
	}

	return identities, nil
}

// GetTransactionWithClient returns one transaction by id, or nil when the
// owner has no such transaction.
func GetTransactionWithClient(ctx context.Context, client *bigquery.Client, owner, transactionID string) (*domain.Transaction, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			owner,
			statement_id,
			import_run_id,
			transaction_date,
			description,
			amount,
			category,
			created_ts
		FROM %s.%s
		WHERE owner = @owner
		  AND transaction_id = @transaction_id
		LIMIT 1
	`, datasetID, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner", Value: owner},
		{Name: "transaction_id", Value: transactionID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: query read: %w", err)
	}

	var r TransactionRow
	err = it.Next(&r)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: iter next: %w", err)
	}
	return fromTransactionRow(&r), nil
}

// UpdateTransactionCategoryWithClient sets one transaction's category.
func UpdateTransactionCategoryWithClient(ctx context.Context, client *bigquery.Client, owner, transactionID, category string) error {
	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET category = @category
		WHERE owner = @owner
		  AND transaction_id = @transaction_id
	`, datasetID, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "category", Value: category},
		{Name: "owner", Value: owner},
		{Name: "transaction_id", Value: transactionID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("UpdateTransactionCategory: running update query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("UpdateTransactionCategory: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("UpdateTransactionCategory: job error: %w", err)
	}

	return nil
}
