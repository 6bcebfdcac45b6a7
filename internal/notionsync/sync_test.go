package notionsync

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/vkuzmin/budget-categorizer/internal/domain"
	"github.com/vkuzmin/budget-categorizer/internal/logger"
)

type fakeSource struct {
	transactions []*domain.Transaction
}

func (f *fakeSource) QueryTransactionsByDateRange(ctx context.Context, owner string, startDate, endDate time.Time) ([]*domain.Transaction, error) {
	return f.transactions, nil
}

type fakeNotion struct {
	pages    []notionapi.Page
	created  []notionapi.Properties
	archived []string
}

func (f *fakeNotion) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	f.created = append(f.created, properties)
	return &notionapi.Page{ID: notionapi.ObjectID("page-new")}, nil
}

func (f *fakeNotion) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	return &notionapi.Page{ID: notionapi.ObjectID(pageID)}, nil
}

func (f *fakeNotion) QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return &notionapi.DatabaseQueryResponse{Results: f.pages, HasMore: false}, nil
}

func (f *fakeNotion) DeletePage(ctx context.Context, pageID string) error {
	f.archived = append(f.archived, pageID)
	return nil
}

func pageWithTransactionID(pageID, txID string) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID(pageID),
		Properties: notionapi.Properties{
			"Transaction ID": &notionapi.RichTextProperty{
				RichText: []notionapi.RichText{{PlainText: txID}},
			},
		},
	}
}

func testContext() context.Context {
	return logger.WithContext(context.Background(), logger.NewWithWriter(&strings.Builder{}))
}

func TestSyncTransactions_CreatesMissingPages(t *testing.T) {
	source := &fakeSource{transactions: []*domain.Transaction{
		{TransactionID: "t1", Date: "2024-01-15", Description: "Coffee", Amount: -4.5, Category: "Dining"},
		{TransactionID: "t2", Date: "2024-01-16", Description: "Salary", Amount: 1000, Category: "Income"},
	}}
	notion := &fakeNotion{pages: []notionapi.Page{pageWithTransactionID("page-1", "t1")}}

	stats, err := SyncTransactions(testContext(), source, notion, "db-1", "alice",
		time.Now().AddDate(0, -1, 0), time.Now(), false)
	if err != nil {
		t.Fatalf("SyncTransactions: %v", err)
	}

	if stats.Created != 1 || stats.Skipped != 1 || stats.Deleted != 0 {
		t.Errorf("stats = %+v, want 1 created, 1 skipped, 0 deleted", stats)
	}
	if len(notion.created) != 1 {
		t.Fatalf("created pages = %d, want 1", len(notion.created))
	}
	title := notion.created[0]["Description"].(notionapi.TitleProperty)
	if title.Title[0].Text.Content != "Salary" {
		t.Errorf("created page for %q, want Salary", title.Title[0].Text.Content)
	}
}

func TestSyncTransactions_ArchivesStalePages(t *testing.T) {
	source := &fakeSource{transactions: []*domain.Transaction{
		{TransactionID: "t1", Date: "2024-01-15", Description: "Coffee", Amount: -4.5},
	}}
	notion := &fakeNotion{pages: []notionapi.Page{
		pageWithTransactionID("page-1", "t1"),
		pageWithTransactionID("page-2", "gone"),
		{ID: notionapi.ObjectID("page-3")}, // no Transaction ID property
	}}

	stats, err := SyncTransactions(testContext(), source, notion, "db-1", "alice",
		time.Now().AddDate(0, -1, 0), time.Now(), false)
	if err != nil {
		t.Fatalf("SyncTransactions: %v", err)
	}

	if stats.Deleted != 2 {
		t.Errorf("deleted = %d, want 2", stats.Deleted)
	}
	if len(notion.archived) != 2 {
		t.Fatalf("archived = %v, want page-2 and page-3", notion.archived)
	}
}

func TestSyncTransactions_DryRunTouchesNothing(t *testing.T) {
	source := &fakeSource{transactions: []*domain.Transaction{
		{TransactionID: "t1", Date: "2024-01-15", Description: "Coffee", Amount: -4.5},
	}}
	notion := &fakeNotion{pages: []notionapi.Page{pageWithTransactionID("page-1", "stale")}}

	stats, err := SyncTransactions(testContext(), source, notion, "db-1", "alice",
		time.Now().AddDate(0, -1, 0), time.Now(), true)
	if err != nil {
		t.Fatalf("SyncTransactions: %v", err)
	}

	if stats.Created != 1 || stats.Deleted != 1 {
		t.Errorf("stats = %+v, want 1 created, 1 deleted", stats)
	}
	if len(notion.created) != 0 || len(notion.archived) != 0 {
		t.Error("dry run must not call the Notion API mutations")
	}
}
