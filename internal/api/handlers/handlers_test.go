package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vkuzmin/budget-categorizer/internal/categorize"
	"github.com/vkuzmin/budget-categorizer/internal/domain"
	"github.com/vkuzmin/budget-categorizer/internal/jobs"
	"github.com/vkuzmin/budget-categorizer/internal/logger"
	"github.com/vkuzmin/budget-categorizer/internal/session"
)

// fakeStore implements categorize.Store plus the handler repositories.
type fakeStore struct {
	categories   []domain.Category
	rules        []domain.Rule
	transactions map[string]*domain.Transaction
	statements   []*domain.Statement
}

func (f *fakeStore) ListCategories(ctx context.Context, owner string) ([]domain.Category, error) {
	return f.categories, nil
}

func (f *fakeStore) InsertCategory(ctx context.Context, category *domain.Category) error {
	f.categories = append(f.categories, *category)
	return nil
}

func (f *fakeStore) DeleteCategoryByName(ctx context.Context, owner, name string) error {
	kept := f.categories[:0]
	for _, c := range f.categories {
		if !strings.EqualFold(c.Name, name) {
			kept = append(kept, c)
		}
	}
	f.categories = kept
	return nil
}

func (f *fakeStore) FindRuleByKeyword(ctx context.Context, owner, keyword string) (*domain.Rule, error) {
	for i := range f.rules {
		if f.rules[i].Keyword == keyword {
			return &f.rules[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) InsertRule(ctx context.Context, rule *domain.Rule) error {
	f.rules = append(f.rules, *rule)
	return nil
}

func (f *fakeStore) UpdateRuleCategory(ctx context.Context, owner, ruleID, category string) error {
	for i := range f.rules {
		if f.rules[i].RuleID == ruleID {
			f.rules[i].Category = category
		}
	}
	return nil
}

func (f *fakeStore) ListRules(ctx context.Context, owner string) ([]domain.Rule, error) {
	return f.rules, nil
}

func (f *fakeStore) GetTransaction(ctx context.Context, owner, transactionID string) (*domain.Transaction, error) {
	return f.transactions[transactionID], nil
}

func (f *fakeStore) UpdateTransactionCategory(ctx context.Context, owner, transactionID, category string) error {
	if tx, ok := f.transactions[transactionID]; ok {
		tx.Category = category
	}
	return nil
}

func (f *fakeStore) QueryTransactionsByDateRange(ctx context.Context, owner string, startDate, endDate time.Time) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	for _, tx := range f.transactions {
		out = append(out, tx)
	}
	return out, nil
}

func (f *fakeStore) InsertStatement(ctx context.Context, statement *domain.Statement) error {
	f.statements = append(f.statements, statement)
	return nil
}

func (f *fakeStore) ListStatements(ctx context.Context, owner string) ([]*domain.Statement, error) {
	return f.statements, nil
}

// fakeUploader implements gcs.StorageService without touching the network.
type fakeUploader struct {
	objects map[string][]byte
}

func (f *fakeUploader) Upload(ctx context.Context, objectName string, content io.Reader) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[objectName] = data
	return "gs://test-bucket/" + objectName, nil
}

func (f *fakeUploader) Fetch(ctx context.Context, uri string) ([]byte, error) {
	name := strings.TrimPrefix(uri, "gs://test-bucket/")
	return f.objects[name], nil
}

func (f *fakeUploader) ExtractFilenameFromURI(uri string) string {
	parts := strings.Split(uri, "/")
	return parts[len(parts)-1]
}

// fakePublisher records published jobs.
type fakePublisher struct {
	published []*jobs.ImportStatementJob
}

func (f *fakePublisher) PublishImportStatement(ctx context.Context, job *jobs.ImportStatementJob) error {
	if job.JobID == "" {
		job.JobID = "job-1"
	}
	job.Status = jobs.JobStatusPending
	f.published = append(f.published, job)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func authed(req *http.Request, owner string) *http.Request {
	sess := &session.Session{Owner: owner, State: session.Authenticated}
	return req.WithContext(session.WithContext(req.Context(), sess))
}

func TestUploadStatement(t *testing.T) {
	store := &fakeStore{}
	uploader := &fakeUploader{}
	publisher := &fakePublisher{}
	h := NewStatementsHandler(store, uploader, publisher, logger.NewWithWriter(&strings.Builder{}))

	body := strings.NewReader("Date,Description,Amount\n2024-01-15,Coffee,-4.50\n")
	req := authed(httptest.NewRequest(http.MethodPost, "/api/statements/upload?filename=export.csv", body), "alice")
	rec := httptest.NewRecorder()
	h.UploadStatement(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, http.StatusAccepted, rec.Body.String())
	}
	if len(store.statements) != 1 {
		t.Fatalf("statements = %d, want 1", len(store.statements))
	}
	s := store.statements[0]
	if s.Owner != "alice" || s.ImportStatus != domain.StatementPending || s.OriginalFilename != "export.csv" {
		t.Errorf("statement = %+v", s)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("published jobs = %d, want 1", len(publisher.published))
	}
	if publisher.published[0].StatementID != s.StatementID {
		t.Error("job references wrong statement")
	}
}

func TestUploadStatement_RequiresFilename(t *testing.T) {
	h := NewStatementsHandler(&fakeStore{}, &fakeUploader{}, &fakePublisher{}, logger.NewWithWriter(&strings.Builder{}))

	req := authed(httptest.NewRequest(http.MethodPost, "/api/statements/upload", strings.NewReader("x")), "alice")
	rec := httptest.NewRecorder()
	h.UploadStatement(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestAddAndDeleteCategory(t *testing.T) {
	store := &fakeStore{}
	log := logger.NewWithWriter(&strings.Builder{})
	service := categorize.NewService(store, log)
	h := NewCategoriesHandler(service, store, log)

	req := authed(httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader(`{"name":"Groceries"}`)), "alice")
	rec := httptest.NewRecorder()
	h.AddCategory(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("AddCategory status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Case-insensitive duplicate is rejected.
	req = authed(httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader(`{"name":"GROCERIES"}`)), "alice")
	rec = httptest.NewRecorder()
	h.AddCategory(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate AddCategory status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	req = authed(httptest.NewRequest(http.MethodDelete, "/api/categories/Groceries", nil), "alice")
	rec = httptest.NewRecorder()
	h.DeleteCategory(rec, req, "Groceries")
	if rec.Code != http.StatusOK {
		t.Errorf("DeleteCategory status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(store.categories) != 0 {
		t.Errorf("categories = %d, want 0", len(store.categories))
	}
}

func TestRecategorizeTransaction(t *testing.T) {
	store := &fakeStore{
		categories: []domain.Category{{CategoryID: "c1", Owner: "alice", Name: "Auto"}},
		transactions: map[string]*domain.Transaction{
			"t1": {TransactionID: "t1", Owner: "alice", Description: "Shell Gas Station", Category: domain.Uncategorized},
		},
	}
	log := logger.NewWithWriter(&strings.Builder{})
	service := categorize.NewService(store, log)
	h := NewTransactionsHandler(store, service, log)

	req := authed(httptest.NewRequest(http.MethodPut, "/api/transactions/t1/category", strings.NewReader(`{"category":"Auto"}`)), "alice")
	rec := httptest.NewRecorder()
	h.RecategorizeTransaction(rec, req, "t1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if store.transactions["t1"].Category != "Auto" {
		t.Error("transaction category not updated")
	}
	if len(store.rules) != 1 || store.rules[0].Keyword != "shell gas" {
		t.Errorf("rules = %+v, want learned rule for shell gas", store.rules)
	}
}

func TestListTransactions_BadDate(t *testing.T) {
	log := logger.NewWithWriter(&strings.Builder{})
	h := NewTransactionsHandler(&fakeStore{}, categorize.NewService(&fakeStore{}, log), log)

	req := authed(httptest.NewRequest(http.MethodGet, "/api/transactions?start_date=15-01-2024", nil), "alice")
	rec := httptest.NewRecorder()
	h.ListTransactions(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestExportTransactions(t *testing.T) {
	store := &fakeStore{transactions: map[string]*domain.Transaction{
		"t1": {TransactionID: "t1", Owner: "alice", Date: "2024-01-15", Description: "Coffee", Amount: -4.5, Category: "Dining"},
	}}
	log := logger.NewWithWriter(&strings.Builder{})
	h := NewTransactionsHandler(store, categorize.NewService(store, log), log)

	req := authed(httptest.NewRequest(http.MethodGet, "/api/transactions/export", nil), "alice")
	rec := httptest.NewRecorder()
	h.ExportTransactions(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/csv" {
		t.Errorf("content type = %q, want text/csv", got)
	}
	if !strings.Contains(rec.Body.String(), "2024-01-15,Coffee,-4.5,Debit,Dining") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestSummaryEndpoint(t *testing.T) {
	store := &fakeStore{transactions: map[string]*domain.Transaction{
		"t1": {TransactionID: "t1", Owner: "alice", Date: "2024-01-15", Amount: -40, Category: "Auto"},
		"t2": {TransactionID: "t2", Owner: "alice", Date: "2024-01-20", Amount: 100, Category: "Income"},
	}}
	log := logger.NewWithWriter(&strings.Builder{})
	h := NewTransactionsHandler(store, categorize.NewService(store, log), log)

	req := authed(httptest.NewRequest(http.MethodGet, "/api/transactions/summary", nil), "alice")
	rec := httptest.NewRecorder()
	h.Summary(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Months []struct {
			Month  string  `json:"month"`
			Credit float64 `json:"credit"`
			Debit  float64 `json:"debit"`
		} `json:"months"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Months) != 1 || resp.Months[0].Credit != 100 || resp.Months[0].Debit != 40 {
		t.Errorf("months = %+v", resp.Months)
	}
}
