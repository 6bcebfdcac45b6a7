package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/vkuzmin/budget-categorizer/internal/api/middleware"
	"github.com/vkuzmin/budget-categorizer/internal/categorize"
	"github.com/vkuzmin/budget-categorizer/internal/domain"
	"github.com/vkuzmin/budget-categorizer/internal/export"
	"github.com/vkuzmin/budget-categorizer/internal/session"
	"github.com/vkuzmin/budget-categorizer/internal/summary"
)

// TransactionRepository is the persistence surface the transactions handler
// needs.
type TransactionRepository interface {
	QueryTransactionsByDateRange(ctx context.Context, owner string, startDate, endDate time.Time) ([]*domain.Transaction, error)
}

// TransactionsHandler handles transaction-related endpoints.
type TransactionsHandler struct {
	repo    TransactionRepository
	service *categorize.Service
	log     zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(repo TransactionRepository, service *categorize.Service, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		repo:    repo,
		service: service,
		log:     log,
	}
}

// parseDateRange reads start_date/end_date query parameters, defaulting to
// the trailing year.
func parseDateRange(r *http.Request) (start, end time.Time, err error) {
	query := r.URL.Query()

	start = time.Now().AddDate(-1, 0, 0)
	end = time.Now()

	if s := query.Get("start_date"); s != "" {
		start, err = time.Parse("2006-01-02", s)
		if err != nil {
			return start, end, err
		}
	}
	if s := query.Get("end_date"); s != "" {
		end, err = time.Parse("2006-01-02", s)
		if err != nil {
			return start, end, err
		}
	}
	return start, end, nil
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := session.FromContext(ctx).Owner

	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid date format, want YYYY-MM-DD")
		return
	}

	transactions, err := h.repo.QueryTransactionsByDateRange(ctx, owner, startDate, endDate)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	// Return array directly for frontend compatibility
	if transactions == nil {
		transactions = []*domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, transactions)
}

// RecategorizeTransaction handles PUT /api/transactions/{id}/category
// Changing a category retrains the keyword rule table.
func (h *TransactionsHandler) RecategorizeTransaction(w http.ResponseWriter, r *http.Request, transactionID string) {
	ctx := r.Context()
	owner := session.FromContext(ctx).Owner

	var req struct {
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.Recategorize(ctx, owner, transactionID, req.Category); err != nil {
		h.log.Error().Err(err).Str("transaction_id", transactionID).Msg("Failed to recategorize transaction")
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"transaction_id": transactionID,
		"category":       req.Category,
	})
}

// Summary handles GET /api/transactions/summary
func (h *TransactionsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := session.FromContext(ctx).Owner

	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid date format, want YYYY-MM-DD")
		return
	}

	transactions, err := h.repo.QueryTransactionsByDateRange(ctx, owner, startDate, endDate)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"months":     summary.Monthly(transactions),
		"categories": summary.ByCategory(transactions),
	})
}

// ExportTransactions handles GET /api/transactions/export
// Streams the date range back as a categorized CSV.
func (h *TransactionsHandler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := session.FromContext(ctx).Owner

	startDate, endDate, err := parseDateRange(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid date format, want YYYY-MM-DD")
		return
	}

	transactions, err := h.repo.QueryTransactionsByDateRange(ctx, owner, startDate, endDate)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	if err := export.WriteCSV(w, transactions); err != nil {
		h.log.Error().Err(err).Msg("Failed to write CSV export")
	}
}
