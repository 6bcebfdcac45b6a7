package categorize

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vkuzmin/budget-categorizer/internal/domain"
)

// Store is the persistence surface the category service needs on top of the
// learner's RuleStore.
type Store interface {
	RuleStore

	ListCategories(ctx context.Context, owner string) ([]domain.Category, error)
	InsertCategory(ctx context.Context, category *domain.Category) error
	DeleteCategoryByName(ctx context.Context, owner, name string) error

	GetTransaction(ctx context.Context, owner, transactionID string) (*domain.Transaction, error)
	UpdateTransactionCategory(ctx context.Context, owner, transactionID, category string) error
}

// Service manages categories and manual recategorizations. Validation
// failures are rejected before any persistence call.
type Service struct {
	store   Store
	learner *Learner
	log     zerolog.Logger
}

// NewService creates a category service; the learner runs synchronously on
// every recategorization.
func NewService(store Store, log zerolog.Logger) *Service {
	return &Service{
		store:   store,
		learner: NewLearner(store, log),
		log:     log,
	}
}

// AddCategory creates a category for the owner. Blank names and names that
// differ from an existing one only in letter case are rejected.
func (s *Service) AddCategory(ctx context.Context, owner, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("AddCategory: category name is required")
	}

	existing, err := s.store.ListCategories(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("AddCategory: list categories: %w", err)
	}
	for _, c := range existing {
		if strings.EqualFold(c.Name, name) {
			return nil, fmt.Errorf("AddCategory: category %q already exists", c.Name)
		}
	}

	category := &domain.Category{
		CategoryID: uuid.NewString(),
		Owner:      owner,
		Name:       name,
	}
	if err := s.store.InsertCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("AddCategory: insert: %w", err)
	}
	return category, nil
}

// DeleteCategory removes a category by name. Transactions tagged with the
// name keep it; there is no cascade.
func (s *Service) DeleteCategory(ctx context.Context, owner, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("DeleteCategory: category name is required")
	}
	if err := s.store.DeleteCategoryByName(ctx, owner, name); err != nil {
		return fmt.Errorf("DeleteCategory: %w", err)
	}
	return nil
}

// ListCategories returns the owner's categories.
func (s *Service) ListCategories(ctx context.Context, owner string) ([]domain.Category, error) {
	categories, err := s.store.ListCategories(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: %w", err)
	}
	return categories, nil
}

// Choices returns the fixed list a transaction's category may be changed to:
// Uncategorized plus every current category name.
func (s *Service) Choices(ctx context.Context, owner string) ([]string, error) {
	categories, err := s.store.ListCategories(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("Choices: %w", err)
	}
	choices := make([]string, 0, len(categories)+1)
	choices = append(choices, domain.Uncategorized)
	for _, c := range categories {
		choices = append(choices, c.Name)
	}
	return choices, nil
}

// Recategorize changes a transaction's category and retrains the rule table.
// The category change is persisted unconditionally; learning only happens for
// real categories (not Uncategorized, not empty).
func (s *Service) Recategorize(ctx context.Context, owner, transactionID, category string) error {
	choices, err := s.Choices(ctx, owner)
	if err != nil {
		return fmt.Errorf("Recategorize: %w", err)
	}
	valid := false
	for _, c := range choices {
		if c == category {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("Recategorize: %q is not an available category", category)
	}

	tx, err := s.store.GetTransaction(ctx, owner, transactionID)
	if err != nil {
		return fmt.Errorf("Recategorize: load transaction: %w", err)
	}
	if tx == nil {
		return fmt.Errorf("Recategorize: transaction %s not found", transactionID)
	}

	if err := s.store.UpdateTransactionCategory(ctx, owner, transactionID, category); err != nil {
		return fmt.Errorf("Recategorize: update transaction: %w", err)
	}

	if err := s.learner.Learn(ctx, owner, tx.Description, category); err != nil {
		return fmt.Errorf("Recategorize: %w", err)
	}
	return nil
}
