package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/vkuzmin/budget-categorizer/internal/domain"
	"github.com/vkuzmin/budget-categorizer/internal/gcs"
	infraBQ "github.com/vkuzmin/budget-categorizer/internal/infra/bigquery"
	"github.com/vkuzmin/budget-categorizer/internal/logger"
	"github.com/vkuzmin/budget-categorizer/internal/pipeline"
)

// The worker polls for PENDING statements and runs the import pipeline on
// each. It picks up uploads that the API server's in-process queue lost to a
// restart: re-running a half-imported statement only skips duplicates.
func main() {
	var (
		interval = flag.Duration("interval", 30*time.Second, "Polling interval for pending statements")
		bucket   = flag.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket name (or set GCS_BUCKET env)")
	)
	flag.Parse()

	log := logger.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo, err := infraBQ.NewRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create repository")
	}
	defer repo.Close()

	storage := gcs.NewGCSStorageService(*bucket)

	log.Info().Dur("interval", *interval).Msg("Starting statement import worker")

	go func() {
		ticker := time.NewTicker(*interval)
		defer ticker.Stop()

		for {
			processPending(ctx, repo, storage, log)

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker...")
	cancel()
	log.Info().Msg("Worker exited")
}

func processPending(ctx context.Context, repo *infraBQ.Repository, storage gcs.StorageService, log zerolog.Logger) {
	pending, err := repo.ListStatementsByStatus(ctx, domain.StatementPending)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list pending statements")
		return
	}
	if len(pending) == 0 {
		return
	}

	log.Info().Int("count", len(pending)).Msg("Importing pending statements")

	for _, statement := range pending {
		if ctx.Err() != nil {
			return
		}

		state := &pipeline.PipelineState{
			Owner:       statement.Owner,
			StorageURI:  statement.StorageURI,
			StatementID: statement.StatementID,
		}
		result, err := pipeline.ImportStatement(ctx, repo, storage, state)
		if err != nil {
			log.Error().
				Err(err).
				Str("statement_id", statement.StatementID).
				Msg("Import failed")
			continue
		}

		log.Info().
			Str("statement_id", statement.StatementID).
			Int("rows_written", result.RowsWritten).
			Int("rows_duplicate", result.RowsDuplicate).
			Msg("Import completed")
	}
}
