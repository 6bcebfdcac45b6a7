package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/vkuzmin/budget-categorizer/internal/api/middleware"
	"github.com/vkuzmin/budget-categorizer/internal/categorize"
	"github.com/vkuzmin/budget-categorizer/internal/session"
	"github.com/vkuzmin/budget-categorizer/internal/suggest"
)

// SuggestionsHandler asks the model for categories on descriptions the rule
// table could not match. Suggestions are advisory; accepting one goes
// through the recategorize endpoint, which trains a rule.
type SuggestionsHandler struct {
	service   *categorize.Service
	suggester suggest.Suggester
	log       zerolog.Logger
}

// NewSuggestionsHandler creates a new suggestions handler.
func NewSuggestionsHandler(service *categorize.Service, suggester suggest.Suggester, log zerolog.Logger) *SuggestionsHandler {
	return &SuggestionsHandler{
		service:   service,
		suggester: suggester,
		log:       log,
	}
}

// SuggestCategories handles POST /api/suggestions
func (h *SuggestionsHandler) SuggestCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := session.FromContext(ctx).Owner

	var req struct {
		Descriptions []string `json:"descriptions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Descriptions) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "descriptions are required")
		return
	}

	categories, err := h.service.ListCategories(ctx, owner)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list categories")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list categories")
		return
	}
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}

	suggestions, err := h.suggester.Suggest(ctx, names, req.Descriptions)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get category suggestions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get suggestions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}
