package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vkuzmin/budget-categorizer/internal/gcs"
	infraBQ "github.com/vkuzmin/budget-categorizer/internal/infra/bigquery"
	"github.com/vkuzmin/budget-categorizer/internal/logger"
	"github.com/vkuzmin/budget-categorizer/internal/pipeline"
)

// One-shot import of a statement CSV that is already in cloud storage.
func main() {
	log := logger.New()

	var (
		storageURI = flag.String("storage-uri", "", "GCS URI of the statement CSV (e.g. gs://bucket/file.csv)")
		owner      = flag.String("owner", os.Getenv("BUDGET_OWNER"), "Owner the transactions belong to (or set BUDGET_OWNER env)")
	)
	flag.Parse()

	if *storageURI == "" {
		log.Fatal().Msg("Error: --storage-uri is required")
	}
	if *owner == "" {
		log.Fatal().Msg("Error: --owner is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, logger.WithOwner(log, *owner))

	repo, err := infraBQ.NewRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create repository")
	}
	defer repo.Close()

	log.Info().Str("storage_uri", *storageURI).Msg("Starting import")

	state := &pipeline.PipelineState{
		Owner:      *owner,
		StorageURI: *storageURI,
	}
	result, err := pipeline.ImportStatement(ctx, repo, gcs.NewGCSStorageService(""), state)
	if err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}

	fmt.Printf("Import completed: %d rows, %d written, %d duplicates, %d rejected.\n",
		result.RowsTotal, result.RowsWritten, result.RowsDuplicate, result.RowsRejected)
}
