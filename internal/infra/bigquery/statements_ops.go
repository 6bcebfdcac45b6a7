package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/vkuzmin/budget-categorizer/internal/domain"
	"google.golang.org/api/iterator"
)

// InsertStatement records an uploaded statement file. DML rather than a
// streaming insert: the import pipeline updates the row's status later, and
// rows in the streaming buffer cannot be updated.
func InsertStatement(ctx context.Context, statement *domain.Statement) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("InsertStatement: bigquery client: %w", err)
	}
	defer client.Close()

	return InsertStatementWithClient(ctx, client, statement)
}

// InsertStatementWithClient records an uploaded statement file using the
// provided BigQuery client.
func InsertStatementWithClient(ctx context.Context, client *bigquery.Client, statement *domain.Statement) error {
	q := client.Query(fmt.Sprintf(`
		INSERT %s.%s (
			statement_id,
			owner,
			storage_uri,
			original_filename,
			import_status,
			uploaded_ts
		)
		VALUES (
			@statement_id,
			@owner,
			@storage_uri,
			@original_filename,
			@import_status,
			@uploaded_ts
		)
	`, datasetID, statementsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "statement_id", Value: statement.StatementID},
		{Name: "owner", Value: statement.Owner},
		{Name: "storage_uri", Value: statement.StorageURI},
		{Name: "original_filename", Value: statement.OriginalFilename},
		{Name: "import_status", Value: statement.ImportStatus},
		{Name: "uploaded_ts", Value: statement.UploadedAt},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("InsertStatement: running insert query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("InsertStatement: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("InsertStatement: job error: %w", err)
	}

	return nil
}

// UpdateStatementStatusWithClient flips a statement's import status.
func UpdateStatementStatusWithClient(ctx context.Context, client *bigquery.Client, statementID, importStatus string) error {
	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET import_status = @import_status
		WHERE statement_id = @statement_id
	`, datasetID, statementsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "import_status", Value: importStatus},
		{Name: "statement_id", Value: statementID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("UpdateStatementStatus: running update query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("UpdateStatementStatus: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("UpdateStatementStatus: job error: %w", err)
	}

	return nil
}

// ListStatementsByStatusWithClient returns statements with the given import
// status, oldest upload first. The worker polls PENDING through this.
func ListStatementsByStatusWithClient(ctx context.Context, client *bigquery.Client, importStatus string) ([]*domain.Statement, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			statement_id,
			owner,
			storage_uri,
			original_filename,
			import_status,
			uploaded_ts
		FROM %s.%s
		WHERE import_status = @import_status
		ORDER BY uploaded_ts
	`, datasetID, statementsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "import_status", Value: importStatus},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListStatementsByStatus: query read: %w", err)
	}

	var statements []*domain.Statement
	for {
		var r StatementRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListStatementsByStatus: iter next: %w", err)
		}
		statements = append(statements, fromStatementRow(&r))
	}

	return statements, nil
}

// ListStatementsWithClient returns all of the owner's statements, newest
// upload first.
func ListStatementsWithClient(ctx context.Context, client *bigquery.Client, owner string) ([]*domain.Statement, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			statement_id,
			owner,
			storage_uri,
			original_filename,
			import_status,
			uploaded_ts
		FROM %s.%s
		WHERE owner = @owner
		ORDER BY uploaded_ts DESC
	`, datasetID, statementsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "owner", Value: owner},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListStatements: query read: %w", err)
	}

	var statements []*domain.Statement
	for {
		var r StatementRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListStatements: iter next: %w", err)
		}
		statements = append(statements, fromStatementRow(&r))
	}

	return statements, nil
}
