// Package pipeline imports uploaded bank-statement CSVs: parse, normalize,
// categorize, and write transactions in idempotent batches.
package pipeline

import (
	"context"
	"fmt"

	"github.com/vkuzmin/budget-categorizer/internal/domain"
	"github.com/vkuzmin/budget-categorizer/internal/logger"
)

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// NewStatementImportPipeline creates the standard 8-step pipeline for
// importing a statement CSV.
func NewStatementImportPipeline(repo Repository, storage StorageService) *Pipeline {
	return NewPipeline(
		&CreateStatementStep{Repo: repo, Storage: storage},
		&StartImportRunStep{Repo: repo},
		&FetchStatementStep{Repo: repo, Storage: storage},
		&ParseRowsStep{Repo: repo},
		&LoadRulesStep{Repo: repo},
		&NormalizeStep{},
		&WriteBatchesStep{Repo: repo},
		&MarkSuccessStep{Repo: repo},
	)
}

// ImportStatement runs the full import for one uploaded statement and
// returns the row counts. On failure the statement is flipped to FAILED;
// rows already written by earlier batches stay written, and re-running the
// import skips them as duplicates.
func ImportStatement(ctx context.Context, repo Repository, storage StorageService, state *PipelineState) (Result, error) {
	log := logger.FromContext(ctx)

	if err := NewStatementImportPipeline(repo, storage).Execute(ctx, state); err != nil {
		if state.StatementID != "" {
			if statusErr := repo.UpdateStatementStatus(ctx, state.StatementID, domain.StatementFailed); statusErr != nil {
				log.Error().Err(statusErr).Str("statement_id", state.StatementID).Msg("Failed to mark statement FAILED")
			}
		}
		return state.Result, fmt.Errorf("ImportStatement: %w", err)
	}

	log.Info().
		Str("statement_id", state.StatementID).
		Str("import_run_id", state.ImportRunID).
		Int("rows_total", state.Result.RowsTotal).
		Int("rows_rejected", state.Result.RowsRejected).
		Int("rows_duplicate", state.Result.RowsDuplicate).
		Int("rows_written", state.Result.RowsWritten).
		Msg("Statement import finished")
	return state.Result, nil
}
