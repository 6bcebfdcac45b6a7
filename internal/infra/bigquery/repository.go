package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/vkuzmin/budget-categorizer/internal/domain"
	"github.com/vkuzmin/budget-categorizer/internal/pipeline"
)

// Repository holds a shared BigQuery client and exposes every table's
// operations. It satisfies pipeline.Repository and categorize.Store.
type Repository struct {
	client *bigquery.Client
}

// NewRepository creates a repository with a shared BigQuery client.
func NewRepository(ctx context.Context) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return &Repository{client: client}, nil
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *Repository) InsertTransactions(ctx context.Context, txs []*domain.Transaction) error {
	return InsertTransactionsWithClient(ctx, r.client, txs)
}

func (r *Repository) QueryTransactionsByDateRange(ctx context.Context, owner string, startDate, endDate time.Time) ([]*domain.Transaction, error) {
	return QueryTransactionsByDateRangeWithClient(ctx, r.client, owner, startDate, endDate)
}

func (r *Repository) ExistingIdentities(ctx context.Context, owner string, dates []string) (map[string]struct{}, error) {
	return ExistingIdentitiesWithClient(ctx, r.client, owner, dates)
}

func (r *Repository) GetTransaction(ctx context.Context, owner, transactionID string) (*domain.Transaction, error) {
	return GetTransactionWithClient(ctx, r.client, owner, transactionID)
}

func (r *Repository) UpdateTransactionCategory(ctx context.Context, owner, transactionID, category string) error {
	return UpdateTransactionCategoryWithClient(ctx, r.client, owner, transactionID, category)
}

func (r *Repository) ListCategories(ctx context.Context, owner string) ([]domain.Category, error) {
	return ListCategoriesWithClient(ctx, r.client, owner)
}

func (r *Repository) InsertCategory(ctx context.Context, category *domain.Category) error {
	return InsertCategoryWithClient(ctx, r.client, category)
}

func (r *Repository) DeleteCategoryByName(ctx context.Context, owner, name string) error {
	return DeleteCategoryByNameWithClient(ctx, r.client, owner, name)
}

func (r *Repository) ListRules(ctx context.Context, owner string) ([]domain.Rule, error) {
	return ListRulesWithClient(ctx, r.client, owner)
}

func (r *Repository) FindRuleByKeyword(ctx context.Context, owner, keyword string) (*domain.Rule, error) {
	return FindRuleByKeywordWithClient(ctx, r.client, owner, keyword)
}

func (r *Repository) InsertRule(ctx context.Context, rule *domain.Rule) error {
	return InsertRuleWithClient(ctx, r.client, rule)
}

func (r *Repository) UpdateRuleCategory(ctx context.Context, owner, ruleID, category string) error {
	return UpdateRuleCategoryWithClient(ctx, r.client, owner, ruleID, category)
}

func (r *Repository) InsertStatement(ctx context.Context, statement *domain.Statement) error {
	return InsertStatementWithClient(ctx, r.client, statement)
}

func (r *Repository) UpdateStatementStatus(ctx context.Context, statementID, importStatus string) error {
	return UpdateStatementStatusWithClient(ctx, r.client, statementID, importStatus)
}

func (r *Repository) ListStatements(ctx context.Context, owner string) ([]*domain.Statement, error) {
	return ListStatementsWithClient(ctx, r.client, owner)
}

func (r *Repository) ListStatementsByStatus(ctx context.Context, importStatus string) ([]*domain.Statement, error) {
	return ListStatementsByStatusWithClient(ctx, r.client, importStatus)
}

func (r *Repository) StartImportRun(ctx context.Context, statementID string) (string, error) {
	return StartImportRunWithClient(ctx, r.client, statementID)
}

func (r *Repository) MarkImportRunFailed(ctx context.Context, importRunID string, runErr error) {
	MarkImportRunFailedWithClient(ctx, r.client, importRunID, runErr)
}

func (r *Repository) MarkImportRunSucceeded(ctx context.Context, importRunID string, result pipeline.Result) error {
	return MarkImportRunSucceededWithClient(ctx, r.client, importRunID, result)
}

func (r *Repository) GetImportRun(ctx context.Context, importRunID string) (*domain.ImportRun, error) {
	return GetImportRunWithClient(ctx, r.client, importRunID)
}
