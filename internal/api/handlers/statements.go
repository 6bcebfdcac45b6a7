// Package handlers implements the HTTP endpoints of the API server.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vkuzmin/budget-categorizer/internal/api/middleware"
	"github.com/vkuzmin/budget-categorizer/internal/domain"
	"github.com/vkuzmin/budget-categorizer/internal/gcs"
	"github.com/vkuzmin/budget-categorizer/internal/jobs"
	"github.com/vkuzmin/budget-categorizer/internal/session"
)

// StatementRepository is the persistence surface the statements handler needs.
type StatementRepository interface {
	InsertStatement(ctx context.Context, statement *domain.Statement) error
	ListStatements(ctx context.Context, owner string) ([]*domain.Statement, error)
}

// StatementsHandler handles statement upload and import endpoints.
type StatementsHandler struct {
	repo      StatementRepository
	storage   gcs.StorageService
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewStatementsHandler creates a new statements handler.
func NewStatementsHandler(repo StatementRepository, storage gcs.StorageService, publisher jobs.Publisher, log zerolog.Logger) *StatementsHandler {
	return &StatementsHandler{
		repo:      repo,
		storage:   storage,
		publisher: publisher,
		log:       log,
	}
}

// ListStatements handles GET /api/statements
func (h *StatementsHandler) ListStatements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := session.FromContext(ctx).Owner

	statements, err := h.repo.ListStatements(ctx, owner)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list statements")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list statements")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"statements": statements,
		"count":      len(statements),
	})
}

// UploadStatement handles POST /api/statements/upload?filename=export.csv
// The request body is the raw CSV. The file lands in cloud storage, a
// PENDING statement record is created, and an import job is enqueued.
func (h *StatementsHandler) UploadStatement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := session.FromContext(ctx).Owner

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		middleware.WriteError(w, http.StatusBadRequest, "filename is required")
		return
	}
	// Clean filename - remove any path or query parameters
	if idx := strings.Index(filename, "?"); idx > 0 {
		filename = filename[:idx]
	}
	filename = filepath.Base(filename)

	statementID := uuid.NewString()
	objectName := fmt.Sprintf("statements/%s/%s/%s-%s", owner, time.Now().Format("2006/01/02"), statementID, filename)

	storageURI, err := h.storage.Upload(ctx, objectName, r.Body)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to upload statement file")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	statement := &domain.Statement{
		StatementID:      statementID,
		Owner:            owner,
		StorageURI:       storageURI,
		OriginalFilename: filename,
		ImportStatus:     domain.StatementPending,
		UploadedAt:       time.Now().UTC(),
	}
	if err := h.repo.InsertStatement(ctx, statement); err != nil {
		h.log.Error().Err(err).Msg("Failed to insert statement record")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save statement")
		return
	}

	job := &jobs.ImportStatementJob{
		Owner:       owner,
		StatementID: statementID,
		StorageURI:  storageURI,
	}
	if err := h.publisher.PublishImportStatement(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue import job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue import job")
		return
	}

	h.log.Info().
		Str("statement_id", statementID).
		Str("storage_uri", storageURI).
		Str("job_id", job.JobID).
		Msg("Statement uploaded and import enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"statement_id": statementID,
		"storage_uri":  storageURI,
		"job_id":       job.JobID,
		"status":       string(job.Status),
	})
}

// EnqueueImport handles POST /api/statements/import
// Re-enqueues the import for an already uploaded statement. Safe to repeat:
// previously written rows are skipped as duplicates.
func (h *StatementsHandler) EnqueueImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := session.FromContext(ctx).Owner

	var req struct {
		StatementID string `json:"statement_id"`
		StorageURI  string `json:"storage_uri"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.StatementID == "" || req.StorageURI == "" {
		middleware.WriteError(w, http.StatusBadRequest, "statement_id and storage_uri are required")
		return
	}

	job := &jobs.ImportStatementJob{
		Owner:       owner,
		StatementID: req.StatementID,
		StorageURI:  req.StorageURI,
	}
	if err := h.publisher.PublishImportStatement(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue import job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue import job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("statement_id", req.StatementID).Msg("Import job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":       job.JobID,
		"statement_id": req.StatementID,
		"status":       string(job.Status),
	})
}
