// Package bigquery persists transactions, categories, rules, statements and
// import runs in BigQuery.
package bigquery

import "os"

const (
	transactionsTable = "transactions"
	categoriesTable   = "categories"
	rulesTable        = "rules"
	statementsTable   = "statements"
	importRunsTable   = "import_runs"

	dateFormat = "2006-01-02"
)

var (
	projectID = envOr("BQ_PROJECT_ID", "budget-categorizer")
	datasetID = envOr("BQ_DATASET_ID", "budget")
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
