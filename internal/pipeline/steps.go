package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vkuzmin/budget-categorizer/internal/categorize"
	"github.com/vkuzmin/budget-categorizer/internal/domain"
	"github.com/vkuzmin/budget-categorizer/internal/importer"
	"github.com/vkuzmin/budget-categorizer/internal/logger"
)

// PipelineStep represents a single step in the import pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	Owner            string
	StorageURI       string
	OriginalFilename string

	// StatementID may be pre-filled when the upload handler already created
	// the statement record; the pipeline creates one otherwise.
	StatementID string
	ImportRunID string

	CSVBytes     []byte
	Records      []map[string]string
	Rules        *categorize.RuleTable
	Transactions []*domain.Transaction

	Result Result
}

// Result counts what happened to the statement's rows.
type Result struct {
	RowsTotal     int
	RowsRejected  int
	RowsDuplicate int
	RowsWritten   int
}

// Step 1: CreateStatementStep records the uploaded file, unless the caller
// already did.
type CreateStatementStep struct {
	Repo    Repository
	Storage StorageService
}

func (s *CreateStatementStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.StatementID != "" {
		return nil
	}

	statement := &domain.Statement{
		StatementID:      uuid.NewString(),
		Owner:            state.Owner,
		StorageURI:       state.StorageURI,
		OriginalFilename: state.OriginalFilename,
		ImportStatus:     domain.StatementPending,
		UploadedAt:       time.Now().UTC(),
	}
	if statement.OriginalFilename == "" {
		statement.OriginalFilename = s.Storage.ExtractFilenameFromURI(state.StorageURI)
	}
	if err := s.Repo.InsertStatement(ctx, statement); err != nil {
		return err
	}
	state.StatementID = statement.StatementID
	return nil
}

// Step 2: StartImportRunStep starts an import run (status=RUNNING).
type StartImportRunStep struct {
	Repo Repository
}

func (s *StartImportRunStep) Execute(ctx context.Context, state *PipelineState) error {
	importRunID, err := s.Repo.StartImportRun(ctx, state.StatementID)
	if err != nil {
		return err
	}
	state.ImportRunID = importRunID
	return nil
}

// Step 3: FetchStatementStep fetches the CSV bytes from object storage.
type FetchStatementStep struct {
	Repo    Repository
	Storage StorageService
}

func (s *FetchStatementStep) Execute(ctx context.Context, state *PipelineState) error {
	csvBytes, err := s.Storage.Fetch(ctx, state.StorageURI)
	if err != nil {
		s.Repo.MarkImportRunFailed(ctx, state.ImportRunID, err)
		return err
	}
	state.CSVBytes = csvBytes
	return nil
}

// Step 4: ParseRowsStep parses the CSV into header-keyed records.
type ParseRowsStep struct {
	Repo Repository
}

func (s *ParseRowsStep) Execute(ctx context.Context, state *PipelineState) error {
	records, err := importer.ParseStatement(bytes.NewReader(state.CSVBytes))
	if err != nil {
		s.Repo.MarkImportRunFailed(ctx, state.ImportRunID, err)
		return err
	}
	state.Records = records
	state.Result.RowsTotal = len(records)
	return nil
}

// Step 5: LoadRulesStep snapshots the owner's rule table. The snapshot is
// fixed for the rest of the run: rules learned while the import is in flight
// do not apply to it.
type LoadRulesStep struct {
	Repo Repository
}

func (s *LoadRulesStep) Execute(ctx context.Context, state *PipelineState) error {
	rules, err := s.Repo.ListRules(ctx, state.Owner)
	if err != nil {
		s.Repo.MarkImportRunFailed(ctx, state.ImportRunID, err)
		return err
	}
	state.Rules = categorize.NewRuleTable(rules)
	return nil
}

// Step 6: NormalizeStep turns raw records into categorized transactions.
// Rows that fail normalization are dropped and counted, never fatal.
type NormalizeStep struct{}

func (s *NormalizeStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	txs := make([]*domain.Transaction, 0, len(state.Records))
	for i, record := range state.Records {
		tx, err := importer.NormalizeRow(record)
		if err != nil {
			state.Result.RowsRejected++
			log.Debug().Int("row", i).Err(err).Msg("Rejected statement row")
			continue
		}
		tx.TransactionID = uuid.NewString()
		tx.Owner = state.Owner
		tx.Category = state.Rules.Categorize(tx.Description)
		tx.StatementID = state.StatementID
		tx.ImportRunID = state.ImportRunID
		txs = append(txs, tx)
	}
	state.Transactions = txs
	return nil
}

// Step 7: WriteBatchesStep writes transactions in sequential batches,
// skipping rows whose identity already exists in the store or appeared
// earlier in this run.
type WriteBatchesStep struct {
	Repo Repository
}

func (s *WriteBatchesStep) Execute(ctx context.Context, state *PipelineState) error {
	seen, err := s.loadExistingIdentities(ctx, state)
	if err != nil {
		s.Repo.MarkImportRunFailed(ctx, state.ImportRunID, err)
		return err
	}

	for start := 0; start < len(state.Transactions); start += BatchSize {
		end := start + BatchSize
		if end > len(state.Transactions) {
			end = len(state.Transactions)
		}

		batch := make([]*domain.Transaction, 0, end-start)
		for _, tx := range state.Transactions[start:end] {
			identity := tx.Identity()
			if _, dup := seen[identity]; dup {
				state.Result.RowsDuplicate++
				continue
			}
			seen[identity] = struct{}{}
			batch = append(batch, tx)
		}
		if len(batch) == 0 {
			continue
		}

		if err := s.Repo.InsertTransactions(ctx, batch); err != nil {
			s.Repo.MarkImportRunFailed(ctx, state.ImportRunID, err)
			return fmt.Errorf("WriteBatchesStep: batch starting at row %d: %w", start, err)
		}
		state.Result.RowsWritten += len(batch)
	}
	return nil
}

// loadExistingIdentities seeds the duplicate set with identities already
// stored for the dates this statement touches. Identities written during the
// run are added to the same set, so re-importing a file is a no-op even
// before the store makes fresh writes visible to queries.
func (s *WriteBatchesStep) loadExistingIdentities(ctx context.Context, state *PipelineState) (map[string]struct{}, error) {
	dateSet := make(map[string]struct{})
	dates := make([]string, 0)
	for _, tx := range state.Transactions {
		if _, ok := dateSet[tx.Date]; ok {
			continue
		}
		dateSet[tx.Date] = struct{}{}
		dates = append(dates, tx.Date)
	}
	if len(dates) == 0 {
		return make(map[string]struct{}), nil
	}
	return s.Repo.ExistingIdentities(ctx, state.Owner, dates)
}

// Step 8: MarkSuccessStep records the run counts and flips the statement to
// IMPORTED.
type MarkSuccessStep struct {
	Repo Repository
}

func (s *MarkSuccessStep) Execute(ctx context.Context, state *PipelineState) error {
	if err := s.Repo.MarkImportRunSucceeded(ctx, state.ImportRunID, state.Result); err != nil {
		return err
	}
	return s.Repo.UpdateStatementStatus(ctx, state.StatementID, domain.StatementImported)
}
