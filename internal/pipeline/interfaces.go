package pipeline

import (
	"context"

	"github.com/vkuzmin/budget-categorizer/internal/domain"
)

// Repository is the persistence surface the import pipeline needs.
type Repository interface {
	InsertStatement(ctx context.Context, statement *domain.Statement) error
	UpdateStatementStatus(ctx context.Context, statementID, status string) error

	StartImportRun(ctx context.Context, statementID string) (string, error)
	MarkImportRunFailed(ctx context.Context, importRunID string, runErr error)
	MarkImportRunSucceeded(ctx context.Context, importRunID string, result Result) error

	ListRules(ctx context.Context, owner string) ([]domain.Rule, error)

	// ExistingIdentities returns the identity strings of the owner's stored
	// transactions whose dates fall in the given set. An empty string in the
	// set selects the dateless rows.
	ExistingIdentities(ctx context.Context, owner string, dates []string) (map[string]struct{}, error)
	InsertTransactions(ctx context.Context, txs []*domain.Transaction) error
}

// StorageService fetches uploaded statement files from object storage.
type StorageService interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
	ExtractFilenameFromURI(uri string) string
}
