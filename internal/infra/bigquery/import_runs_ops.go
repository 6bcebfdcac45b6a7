package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"github.com/vkuzmin/budget-categorizer/internal/domain"
	"github.com/vkuzmin/budget-categorizer/internal/logger"
	"github.com/vkuzmin/budget-categorizer/internal/pipeline"
	"google.golang.org/api/iterator"
)

// StartImportRun inserts a new import run with status=RUNNING and returns
// the generated import_run_id.
func StartImportRun(ctx context.Context, statementID string) (string, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("StartImportRun: bigquery client: %w", err)
	}
	defer client.Close()

	return StartImportRunWithClient(ctx, client, statementID)
}

// StartImportRunWithClient inserts a new import run with status=RUNNING
// using the provided BigQuery client.
func StartImportRunWithClient(ctx context.Context, client *bigquery.Client, statementID string) (string, error) {
	importRunID := uuid.NewString()
	started := time.Now().UTC()

	q := client.Query(fmt.Sprintf(`
		INSERT %s.%s (
			import_run_id,
			statement_id,
			started_ts,
			status
		)
		VALUES (
			@import_run_id,
			@statement_id,
			@started_ts,
			@status
		)
	`, datasetID, importRunsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "import_run_id", Value: importRunID},
		{Name: "statement_id", Value: statementID},
		{Name: "started_ts", Value: started},
		{Name: "status", Value: domain.RunRunning},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return "", fmt.Errorf("StartImportRun: running insert query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return "", fmt.Errorf("StartImportRun: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return "", fmt.Errorf("StartImportRun: job error: %w", err)
	}

	return importRunID, nil
}

// MarkImportRunFailedWithClient flips an import run to FAILED. Best-effort:
// the import error is what the caller reports, so failures here only log.
func MarkImportRunFailedWithClient(ctx context.Context, client *bigquery.Client, importRunID string, runErr error) {
	log := logger.FromContext(ctx)

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
		const maxLen = 2000
		if len(errMsg) > maxLen {
			errMsg = errMsg[:maxLen]
		}
	}

	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message
		WHERE import_run_id = @import_run_id
	`, datasetID, importRunsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: domain.RunFailed},
		{Name: "finished_ts", Value: time.Now().UTC()},
		{Name: "error_message", Value: errMsg},
		{Name: "import_run_id", Value: importRunID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		log.Error().Err(err).Str("import_run_id", importRunID).Msg("MarkImportRunFailed: running update query")
		return
	}

	status, err := job.Wait(ctx)
	if err != nil {
		log.Error().Err(err).Str("import_run_id", importRunID).Msg("MarkImportRunFailed: waiting for job")
		return
	}
	if err := status.Err(); err != nil {
		log.Error().Err(err).Str("import_run_id", importRunID).Msg("MarkImportRunFailed: job error")
	}
}

// MarkImportRunSucceededWithClient flips an import run to SUCCESS and
// records the row counts.
func MarkImportRunSucceededWithClient(ctx context.Context, client *bigquery.Client, importRunID string, result pipeline.Result) error {
	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = "",
		    rows_total = @rows_total,
		    rows_rejected = @rows_rejected,
		    rows_duplicate = @rows_duplicate,
		    rows_written = @rows_written
		WHERE import_run_id = @import_run_id
	`, datasetID, importRunsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: domain.RunSuccess},
		{Name: "finished_ts", Value: time.Now().UTC()},
		{Name: "rows_total", Value: int64(result.RowsTotal)},
		{Name: "rows_rejected", Value: int64(result.RowsRejected)},
		{Name: "rows_duplicate", Value: int64(result.RowsDuplicate)},
		{Name: "rows_written", Value: int64(result.RowsWritten)},
		{Name: "import_run_id", Value: importRunID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("MarkImportRunSucceeded: running update query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("MarkImportRunSucceeded: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("MarkImportRunSucceeded: job error: %w", err)
	}

	return nil
}

// GetImportRunWithClient returns one import run by id, or nil when it does
// not exist.
func GetImportRunWithClient(ctx context.Context, client *bigquery.Client, importRunID string) (*domain.ImportRun, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			import_run_id,
			statement_id,
			started_ts,
			finished_ts,
			status,
			error_message,
			rows_total,
			rows_rejected,
			rows_duplicate,
			rows_written
		FROM %s.%s
		WHERE import_run_id = @import_run_id
		LIMIT 1
	`, datasetID, importRunsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "import_run_id", Value: importRunID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetImportRun: query read: %w", err)
	}

	var r ImportRunRow
	err = it.Next(&r)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetImportRun: iter next: %w", err)
	}
	return fromImportRunRow(&r), nil
}
