package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vkuzmin/budget-categorizer/internal/categorize"
	"github.com/vkuzmin/budget-categorizer/internal/domain"
	"github.com/vkuzmin/budget-categorizer/internal/export"
	"github.com/vkuzmin/budget-categorizer/internal/gcs"
	infraBQ "github.com/vkuzmin/budget-categorizer/internal/infra/bigquery"
	"github.com/vkuzmin/budget-categorizer/internal/logger"
	"github.com/vkuzmin/budget-categorizer/internal/pipeline"
	"github.com/vkuzmin/budget-categorizer/internal/suggest"
	"github.com/vkuzmin/budget-categorizer/internal/summary"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "upload":
		runUpload(log)
	case "import":
		runImport(log)
	case "categories":
		runCategories(log)
	case "recategorize":
		runRecategorize(log)
	case "summary":
		runSummary(log)
	case "export":
		runExport(log)
	case "suggest":
		runSuggest(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Budget Categorizer CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  upload        Upload a statement CSV to GCS and register it for import")
	fmt.Println("  import        Import a statement CSV that is already in GCS")
	fmt.Println("  categories    List, add, or delete categories")
	fmt.Println("  recategorize  Change a transaction's category (and learn a rule)")
	fmt.Println("  summary       Print monthly and per-category totals")
	fmt.Println("  export        Export transactions to a CSV file")
	fmt.Println("  suggest       Ask the model for category suggestions")
	fmt.Println("  help          Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// resolveOwner returns the owner flag value or the BUDGET_OWNER env fallback.
func resolveOwner(flagValue string, log zerolog.Logger) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("BUDGET_OWNER"); env != "" {
		return env
	}
	log.Fatal().Msg("Error: --owner is required (or set BUDGET_OWNER)")
	return ""
}

func newRepository(ctx context.Context, log zerolog.Logger) *infraBQ.Repository {
	repo, err := infraBQ.NewRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create repository")
	}
	return repo
}

func runUpload(log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	bucketName := fs.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket name")
	filePath := fs.String("file", "", "Path to local statement CSV")
	owner := fs.String("owner", "", "Owner the statement belongs to")
	fs.Parse(os.Args[2:])

	if *bucketName == "" || *filePath == "" {
		log.Fatal().Msg("Usage: cli upload -bucket NAME -file PATH -owner OWNER")
	}
	ownerID := resolveOwner(*owner, log)

	ctx := context.Background()
	ctx = logger.WithContext(ctx, logger.WithOwner(log, ownerID))

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open file")
	}
	defer f.Close()

	repo := newRepository(ctx, log)
	defer repo.Close()

	filename := filepath.Base(*filePath)
	statementID := uuid.NewString()
	objectName := fmt.Sprintf("statements/%s/%s/%s-%s", ownerID, time.Now().Format("2006/01/02"), statementID, filename)

	storage := gcs.NewGCSStorageService(*bucketName)
	storageURI, err := storage.Upload(ctx, objectName, f)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	statement := &domain.Statement{
		StatementID:      statementID,
		Owner:            ownerID,
		StorageURI:       storageURI,
		OriginalFilename: filename,
		ImportStatus:     domain.StatementPending,
		UploadedAt:       time.Now().UTC(),
	}
	if err := repo.InsertStatement(ctx, statement); err != nil {
		log.Fatal().Err(err).Msg("Failed to register statement")
	}

	fmt.Printf("Uploaded %s to %s\n", *filePath, storageURI)
	fmt.Printf("Statement %s registered as PENDING; run 'cli import -storage-uri %s -owner %s' or let the worker pick it up.\n",
		statementID, storageURI, ownerID)
}

func runImport(log zerolog.Logger) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	storageURI := fs.String("storage-uri", "", "GCS URI of the statement CSV")
	owner := fs.String("owner", "", "Owner the transactions belong to")
	fs.Parse(os.Args[2:])

	if *storageURI == "" {
		log.Fatal().Msg("Error: --storage-uri is required")
	}
	ownerID := resolveOwner(*owner, log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, logger.WithOwner(log, ownerID))

	repo := newRepository(ctx, log)
	defer repo.Close()

	log.Info().Str("storage_uri", *storageURI).Msg("Starting import")

	state := &pipeline.PipelineState{
		Owner:      ownerID,
		StorageURI: *storageURI,
	}
	result, err := pipeline.ImportStatement(ctx, repo, gcs.NewGCSStorageService(""), state)
	if err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}

	fmt.Printf("Import completed: %d rows, %d written, %d duplicates, %d rejected.\n",
		result.RowsTotal, result.RowsWritten, result.RowsDuplicate, result.RowsRejected)
}

func runCategories(log zerolog.Logger) {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	owner := fs.String("owner", "", "Owner of the category list")
	add := fs.String("add", "", "Category name to add")
	del := fs.String("delete", "", "Category name to delete")
	fs.Parse(os.Args[2:])

	ownerID := resolveOwner(*owner, log)

	ctx := context.Background()
	ctx = logger.WithContext(ctx, logger.WithOwner(log, ownerID))

	repo := newRepository(ctx, log)
	defer repo.Close()

	service := categorize.NewService(repo, log)

	switch {
	case *add != "":
		category, err := service.AddCategory(ctx, ownerID, *add)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to add category")
		}
		fmt.Printf("Added category %q (%s)\n", category.Name, category.CategoryID)
	case *del != "":
		if err := service.DeleteCategory(ctx, ownerID, *del); err != nil {
			log.Fatal().Err(err).Msg("Failed to delete category")
		}
		fmt.Printf("Deleted category %q. Existing transactions keep their label.\n", *del)
	default:
		choices, err := service.Choices(ctx, ownerID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list categories")
		}
		fmt.Printf("Categories (%d):\n", len(choices))
		for _, name := range choices {
			fmt.Printf("  %s\n", name)
		}
	}
}

func runRecategorize(log zerolog.Logger) {
	fs := flag.NewFlagSet("recategorize", flag.ExitOnError)
	owner := fs.String("owner", "", "Owner of the transaction")
	transactionID := fs.String("transaction-id", "", "Transaction ID to recategorize")
	category := fs.String("category", "", "New category name")
	fs.Parse(os.Args[2:])

	if *transactionID == "" || *category == "" {
		log.Fatal().Msg("Usage: cli recategorize -transaction-id ID -category NAME -owner OWNER")
	}
	ownerID := resolveOwner(*owner, log)

	ctx := context.Background()
	ctx = logger.WithContext(ctx, logger.WithOwner(log, ownerID))

	repo := newRepository(ctx, log)
	defer repo.Close()

	service := categorize.NewService(repo, log)
	if err := service.Recategorize(ctx, ownerID, *transactionID, *category); err != nil {
		log.Fatal().Err(err).Msg("Recategorize failed")
	}

	fmt.Printf("Transaction %s moved to %q.\n", *transactionID, *category)
}

// parseRange parses -start/-end flags, defaulting to the trailing year.
func parseRange(start, end string) (time.Time, time.Time, error) {
	endDate := time.Now().UTC()
	startDate := endDate.AddDate(-1, 0, 0)

	var err error
	if start != "" {
		if startDate, err = time.Parse("2006-01-02", start); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q: %w", start, err)
		}
	}
	if end != "" {
		if endDate, err = time.Parse("2006-01-02", end); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q: %w", end, err)
		}
	}
	return startDate, endDate, nil
}

func runSummary(log zerolog.Logger) {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	owner := fs.String("owner", "", "Owner of the transactions")
	start := fs.String("start", "", "Start date (YYYY-MM-DD, default one year ago)")
	end := fs.String("end", "", "End date (YYYY-MM-DD, default today)")
	fs.Parse(os.Args[2:])

	ownerID := resolveOwner(*owner, log)

	startDate, endDate, err := parseRange(*start, *end)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid date range")
	}

	ctx := context.Background()
	ctx = logger.WithContext(ctx, logger.WithOwner(log, ownerID))

	repo := newRepository(ctx, log)
	defer repo.Close()

	txs, err := repo.QueryTransactionsByDateRange(ctx, ownerID, startDate, endDate)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to query transactions")
	}

	fmt.Printf("\n=== Monthly totals (%d transactions) ===\n", len(txs))
	for _, m := range summary.Monthly(txs) {
		fmt.Printf("%s  credit %10.2f  debit %10.2f  net %10.2f\n", m.Month, m.Credit, m.Debit, m.Net)
	}

	fmt.Println("\n=== Spending by category ===")
	for _, c := range summary.ByCategory(txs) {
		fmt.Printf("%-24s %10.2f\n", c.Category, c.Spent)
	}
	fmt.Println()
}

func runExport(log zerolog.Logger) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	owner := fs.String("owner", "", "Owner of the transactions")
	start := fs.String("start", "", "Start date (YYYY-MM-DD, default one year ago)")
	end := fs.String("end", "", "End date (YYYY-MM-DD, default today)")
	out := fs.String("out", "transactions.csv", "Output CSV path")
	fs.Parse(os.Args[2:])

	ownerID := resolveOwner(*owner, log)

	startDate, endDate, err := parseRange(*start, *end)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid date range")
	}

	ctx := context.Background()
	ctx = logger.WithContext(ctx, logger.WithOwner(log, ownerID))

	repo := newRepository(ctx, log)
	defer repo.Close()

	txs, err := repo.QueryTransactionsByDateRange(ctx, ownerID, startDate, endDate)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to query transactions")
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create output file")
	}
	defer f.Close()

	if err := export.WriteCSV(f, txs); err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}

	fmt.Printf("Exported %d transactions to %s\n", len(txs), *out)
}

func runSuggest(log zerolog.Logger) {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	owner := fs.String("owner", "", "Owner whose categories to suggest from")
	model := fs.String("model", "", "Gemini model name (empty = default)")
	fs.Parse(os.Args[2:])

	descriptions := fs.Args()
	if len(descriptions) == 0 {
		log.Fatal().Msg("Usage: cli suggest -owner OWNER \"description one\" \"description two\"")
	}
	ownerID := resolveOwner(*owner, log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, logger.WithOwner(log, ownerID))

	repo := newRepository(ctx, log)
	defer repo.Close()

	service := categorize.NewService(repo, log)
	choices, err := service.Choices(ctx, ownerID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list categories")
	}

	suggester := suggest.NewGeminiSuggester(*model)
	suggestions, err := suggester.Suggest(ctx, choices, descriptions)
	if err != nil {
		log.Fatal().Err(err).Msg("Suggestion request failed")
	}

	for _, description := range descriptions {
		category, ok := suggestions[description]
		if !ok {
			category = "(no suggestion)"
		}
		fmt.Printf("%-48s -> %s\n", strings.TrimSpace(description), category)
	}
}
