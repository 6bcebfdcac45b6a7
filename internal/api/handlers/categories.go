package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/vkuzmin/budget-categorizer/internal/api/middleware"
	"github.com/vkuzmin/budget-categorizer/internal/categorize"
	"github.com/vkuzmin/budget-categorizer/internal/domain"
	"github.com/vkuzmin/budget-categorizer/internal/session"
)

// CategoriesHandler handles category and rule endpoints.
type CategoriesHandler struct {
	service *categorize.Service
	rules   RuleRepository
	log     zerolog.Logger
}

// RuleRepository lists an owner's learned rules.
type RuleRepository interface {
	ListRules(ctx context.Context, owner string) ([]domain.Rule, error)
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(service *categorize.Service, rules RuleRepository, log zerolog.Logger) *CategoriesHandler {
	return &CategoriesHandler{
		service: service,
		rules:   rules,
		log:     log,
	}
}

// ListCategories handles GET /api/categories
func (h *CategoriesHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := session.FromContext(ctx).Owner

	categories, err := h.service.ListCategories(ctx, owner)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list categories")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list categories")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}

// AddCategory handles POST /api/categories
func (h *CategoriesHandler) AddCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := session.FromContext(ctx).Owner

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	category, err := h.service.AddCategory(ctx, owner, req.Name)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, category)
}

// DeleteCategory handles DELETE /api/categories/{name}
// Transactions tagged with the name keep it.
func (h *CategoriesHandler) DeleteCategory(w http.ResponseWriter, r *http.Request, name string) {
	ctx := r.Context()
	owner := session.FromContext(ctx).Owner

	if err := h.service.DeleteCategory(ctx, owner, name); err != nil {
		h.log.Error().Err(err).Str("category", name).Msg("Failed to delete category")
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"deleted": name})
}

// ListRules handles GET /api/rules
func (h *CategoriesHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := session.FromContext(ctx).Owner

	rules, err := h.rules.ListRules(ctx, owner)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list rules")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list rules")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"rules": rules,
		"count": len(rules),
	})
}
