package notionsync

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"
	"github.com/vkuzmin/budget-categorizer/internal/domain"
	"github.com/vkuzmin/budget-categorizer/internal/logger"
)

// TransactionSource is the read side of the transaction store the sync
// pulls from.
type TransactionSource interface {
	QueryTransactionsByDateRange(ctx context.Context, owner string, startDate, endDate time.Time) ([]*domain.Transaction, error)
}

// Stats summarizes one sync run.
type Stats struct {
	Created int
	Skipped int
	Deleted int
}

// SyncTransactions mirrors one owner's transactions in a date range into a
// Notion database. Pages are keyed by the "Transaction ID" property: pages
// whose ID is not in the current transaction set are archived, transactions
// without a page get one created, and everything else is left untouched.
// With dryRun set, it only logs what it would do.
func SyncTransactions(ctx context.Context, source TransactionSource, notionClient NotionService, notionDBID, owner string, startDate, endDate time.Time, dryRun bool) (Stats, error) {
	log := logger.FromContext(ctx)

	log.Info().
		Time("start_date", startDate).
		Time("end_date", endDate).
		Bool("dry_run", dryRun).
		Msg("Starting transaction sync to Notion")

	transactions, err := source.QueryTransactionsByDateRange(ctx, owner, startDate, endDate)
	if err != nil {
		return Stats{}, fmt.Errorf("SyncTransactions: query transactions: %w", err)
	}
	log.Info().Int("transaction_count", len(transactions)).Msg("Retrieved transactions")

	validIDs := make(map[string]bool, len(transactions))
	for _, tx := range transactions {
		validIDs[tx.TransactionID] = true
	}

	notionPages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return Stats{}, fmt.Errorf("SyncTransactions: query Notion pages: %w", err)
	}
	log.Info().Int("notion_page_count", len(notionPages)).Msg("Retrieved existing Notion pages")

	var stats Stats
	existingIDs := make(map[string]bool, len(notionPages))

	for _, page := range notionPages {
		txID := extractTransactionID(page)
		if txID != "" && validIDs[txID] {
			existingIDs[txID] = true
			continue
		}

		// Page has no transaction ID or its transaction fell out of the
		// range query (deleted upstream, or re-imported under a new ID).
		if dryRun {
			log.Info().
				Str("transaction_id", txID).
				Str("page_id", string(page.ID)).
				Msg("[DRY RUN] Would archive stale Notion page")
			stats.Deleted++
			continue
		}
		if err := notionClient.DeletePage(ctx, string(page.ID)); err != nil {
			log.Warn().
				Err(err).
				Str("page_id", string(page.ID)).
				Msg("Failed to archive stale Notion page")
			continue
		}
		stats.Deleted++
	}

	for _, tx := range transactions {
		if existingIDs[tx.TransactionID] {
			stats.Skipped++
			continue
		}

		if dryRun {
			log.Info().
				Str("transaction_id", tx.TransactionID).
				Msg("[DRY RUN] Would create Notion page")
			stats.Created++
			continue
		}

		props := TransactionToNotionProperties(tx)
		page, err := notionClient.CreatePage(ctx, notionDBID, props)
		if err != nil {
			log.Warn().
				Err(err).
				Str("transaction_id", tx.TransactionID).
				Msg("Failed to create Notion page")
			continue
		}
		log.Debug().
			Str("transaction_id", tx.TransactionID).
			Str("page_id", string(page.ID)).
			Msg("Created Notion page")
		stats.Created++
	}

	log.Info().
		Int("created", stats.Created).
		Int("skipped", stats.Skipped).
		Int("deleted", stats.Deleted).
		Int("total", len(transactions)).
		Msg("Transaction sync completed")

	return stats, nil
}

// queryAllNotionPages pages through the database 100 results at a time.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}
