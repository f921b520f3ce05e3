package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/chanvekse/finance-ai-analyzer/internal/domain"
	infraBQ "github.com/chanvekse/finance-ai-analyzer/internal/infra/bigquery"
	"github.com/chanvekse/finance-ai-analyzer/internal/jobs"
	"github.com/chanvekse/finance-ai-analyzer/internal/recurrence"
)

type fakeLedgerRepo struct {
	txs        []domain.Transaction
	statements []infraBQ.StatementRow
	queryErr   error

	createdStatements []string
	inserted          map[string][]domain.Transaction
}

func (f *fakeLedgerRepo) InsertTransactions(ctx context.Context, statementID string, txs []domain.Transaction) error {
	if f.inserted == nil {
		f.inserted = make(map[string][]domain.Transaction)
	}
	f.inserted[statementID] = append(f.inserted[statementID], txs...)
	return nil
}

func (f *fakeLedgerRepo) QueryTransactions(ctx context.Context, from, to time.Time) ([]domain.Transaction, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.txs, nil
}

func (f *fakeLedgerRepo) CreateStatement(ctx context.Context, statementID, gcsURI, originalFilename string) error {
	f.createdStatements = append(f.createdStatements, statementID)
	return nil
}

func (f *fakeLedgerRepo) MarkStatementProcessed(ctx context.Context, statementID string, txCount int) error {
	return nil
}

func (f *fakeLedgerRepo) MarkStatementFailed(ctx context.Context, statementID string, errMsg string) error {
	return nil
}

func (f *fakeLedgerRepo) ListStatements(ctx context.Context) ([]infraBQ.StatementRow, error) {
	return f.statements, nil
}

type fakeSubscriptionRepo struct {
	subs      []recurrence.Subscription
	upserted  []recurrence.Subscription
	nextDues  map[string]time.Time
	deactived []string
}

func (f *fakeSubscriptionRepo) UpsertSubscription(ctx context.Context, s recurrence.Subscription) error {
	f.upserted = append(f.upserted, s)
	return nil
}

func (f *fakeSubscriptionRepo) ListSubscriptions(ctx context.Context, activeOnly bool) ([]recurrence.Subscription, error) {
	if !activeOnly {
		return f.subs, nil
	}
	var active []recurrence.Subscription
	for _, s := range f.subs {
		if s.Active {
			active = append(active, s)
		}
	}
	return active, nil
}

func (f *fakeSubscriptionRepo) UpdateNextDue(ctx context.Context, subscriptionID string, nextDue time.Time) error {
	if f.nextDues == nil {
		f.nextDues = make(map[string]time.Time)
	}
	f.nextDues[subscriptionID] = nextDue
	return nil
}

func (f *fakeSubscriptionRepo) Deactivate(ctx context.Context, subscriptionID string) error {
	f.deactived = append(f.deactived, subscriptionID)
	return nil
}

type fakeUploader struct {
	err      error
	uploaded []string
}

func (f *fakeUploader) UploadStatement(ctx context.Context, statementID, filename string, body io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploaded = append(f.uploaded, statementID)
	return fmt.Sprintf("gs://test-bucket/statements/%s/%s", statementID, filename), nil
}

type fakePublisher struct {
	err       error
	published []*jobs.AnalyzeStatementJob
}

func (f *fakePublisher) PublishAnalyzeStatement(ctx context.Context, job *jobs.AnalyzeStatementJob) error {
	if f.err != nil {
		return f.err
	}
	job.JobID = "job-test"
	job.Status = jobs.JobStatusPending
	f.published = append(f.published, job)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
	return body
}

func TestStatementsUpload(t *testing.T) {
	repo := &fakeLedgerRepo{}
	uploader := &fakeUploader{}
	publisher := &fakePublisher{}
	h := NewStatementsHandler(repo, uploader, publisher, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/statements?filename=jan.csv", strings.NewReader("Date,Description,Amount\n"))
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d, body: %s", rec.Code, http.StatusAccepted, rec.Body.String())
	}

	body := decodeBody(t, rec)
	statementID, _ := body["statement_id"].(string)
	if statementID == "" {
		t.Fatal("response missing statement_id")
	}
	if body["job_id"] != "job-test" {
		t.Errorf("job_id = %v, want job-test", body["job_id"])
	}

	if len(repo.createdStatements) != 1 || repo.createdStatements[0] != statementID {
		t.Errorf("statement record not created for %s: %v", statementID, repo.createdStatements)
	}
	if len(publisher.published) != 1 || publisher.published[0].StatementID != statementID {
		t.Errorf("job not published for %s: %+v", statementID, publisher.published)
	}
}

func TestStatementsUpload_StorageFailure(t *testing.T) {
	repo := &fakeLedgerRepo{}
	uploader := &fakeUploader{err: errors.New("bucket unavailable")}
	h := NewStatementsHandler(repo, uploader, &fakePublisher{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/statements", strings.NewReader("data"))
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if len(repo.createdStatements) != 0 {
		t.Error("statement record created despite storage failure")
	}
}

func TestTransactionsList(t *testing.T) {
	repo := &fakeLedgerRepo{
		txs: []domain.Transaction{
			{Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Description: "Netflix", Amount: -15.49, Category: "Entertainment"},
		},
	}
	h := NewTransactionsHandler(repo, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/transactions?start_date=2024-01-01&end_date=2024-12-31", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := decodeBody(t, rec)
	if body["count"] != float64(1) {
		t.Errorf("count = %v, want 1", body["count"])
	}
}

func TestTransactionsList_BadDate(t *testing.T) {
	h := NewTransactionsHandler(&fakeLedgerRepo{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/transactions?start_date=01-15-2024", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestAnalysisSummary(t *testing.T) {
	repo := &fakeLedgerRepo{
		txs: []domain.Transaction{
			{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Description: "Salary", Amount: 5000, Category: "Income"},
			{Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Description: "Rent", Amount: -2000, Category: "Bills"},
		},
	}
	h := NewAnalysisHandler(repo, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	rec := httptest.NewRecorder()
	h.Summary(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := decodeBody(t, rec)
	metrics, ok := body["metrics"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing metrics in response: %v", body)
	}
	if metrics["total_income"] != float64(5000) {
		t.Errorf("total_income = %v, want 5000", metrics["total_income"])
	}
	if metrics["net_savings"] != float64(3000) {
		t.Errorf("net_savings = %v, want 3000", metrics["net_savings"])
	}
}

func TestAnalysisRecurring(t *testing.T) {
	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeLedgerRepo{
		txs: []domain.Transaction{
			{Date: base, Description: "Netflix", Amount: -15.49, Category: "Entertainment"},
			{Date: base.AddDate(0, 1, 0), Description: "Netflix", Amount: -15.49, Category: "Entertainment"},
			{Date: base.AddDate(0, 2, 0), Description: "Netflix", Amount: -15.49, Category: "Entertainment"},
		},
	}
	h := NewAnalysisHandler(repo, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/recurring", nil)
	rec := httptest.NewRecorder()
	h.Recurring(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := decodeBody(t, rec)
	if body["count"] != float64(1) {
		t.Fatalf("count = %v, want 1, body: %v", body["count"], body)
	}
	profiles := body["profiles"].([]interface{})
	profile := profiles[0].(map[string]interface{})
	if profile["pattern"] != "Monthly" {
		t.Errorf("pattern = %v, want Monthly", profile["pattern"])
	}
	merchants := body["recurring_merchants"].(map[string]interface{})
	if merchants["Netflix"] != true {
		t.Errorf("recurring_merchants[Netflix] = %v, want true", merchants["Netflix"])
	}
}

func TestSubscriptionsCreate_Validation(t *testing.T) {
	h := NewSubscriptionsHandler(&fakeSubscriptionRepo{}, testLogger())

	tests := []struct {
		name string
		body string
	}{
		{"missing service name", `{"monthly_amount": 9.99, "due_day": 5}`},
		{"due day zero", `{"service_name": "Netflix", "monthly_amount": 9.99, "due_day": 0}`},
		{"due day too large", `{"service_name": "Netflix", "monthly_amount": 9.99, "due_day": 32}`},
		{"malformed json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/subscriptions", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Create(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestSubscriptionsCreate(t *testing.T) {
	repo := &fakeSubscriptionRepo{}
	h := NewSubscriptionsHandler(repo, testLogger())
	h.now = func() time.Time { return time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC) }

	body := `{"service_name": "Netflix", "monthly_amount": 15.49, "due_day": 31, "category": "Entertainment"}`
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if len(repo.upserted) != 1 {
		t.Fatalf("upserted %d subscriptions, want 1", len(repo.upserted))
	}
	sub := repo.upserted[0]
	if !sub.Active {
		t.Error("new subscription should be active")
	}
	// Day 31 clamps to Feb 29 in the 2024 leap year.
	want := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	if !sub.NextDue.Equal(want) {
		t.Errorf("NextDue = %v, want %v", sub.NextDue, want)
	}
}

func TestSubscriptionsRefresh(t *testing.T) {
	today := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeSubscriptionRepo{
		subs: []recurrence.Subscription{
			{ID: "stale", ServiceName: "Netflix", DueDay: 5, Active: true, NextDue: time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)},
			{ID: "current", ServiceName: "Spotify", DueDay: 15, Active: true, NextDue: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		},
	}
	h := NewSubscriptionsHandler(repo, testLogger())
	h.now = func() time.Time { return today }

	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions/refresh", nil)
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := decodeBody(t, rec)
	if body["updated"] != float64(1) {
		t.Errorf("updated = %v, want 1", body["updated"])
	}
	want := time.Date(2024, 4, 5, 0, 0, 0, 0, time.UTC)
	if got := repo.nextDues["stale"]; !got.Equal(want) {
		t.Errorf("stale NextDue = %v, want %v", got, want)
	}
	if _, touched := repo.nextDues["current"]; touched {
		t.Error("subscription with a future due date should not be updated")
	}
}

func TestJobsGetAndList(t *testing.T) {
	store := &fakeJobStore{
		jobs: map[string]*jobs.AnalyzeStatementJob{
			"job-1": {JobID: "job-1", StatementID: "stmt-1", Status: jobs.JobStatusCompleted},
		},
	}
	h := NewJobsHandler(store, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/job-1", nil)
	rec := httptest.NewRecorder()
	h.Get(rec, req, "job-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("Get status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/missing", nil), "missing")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Get missing status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/jobs?status=completed", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("List status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := decodeBody(t, rec)
	if body["count"] != float64(1) {
		t.Errorf("count = %v, want 1", body["count"])
	}
}

type fakeJobStore struct {
	jobs map[string]*jobs.AnalyzeStatementJob
}

func (f *fakeJobStore) SaveJob(ctx context.Context, job *jobs.AnalyzeStatementJob) error {
	f.jobs[job.JobID] = job
	return nil
}

func (f *fakeJobStore) GetJob(ctx context.Context, jobID string) (*jobs.AnalyzeStatementJob, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, errors.New("job not found")
	}
	return job, nil
}

func (f *fakeJobStore) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.AnalyzeStatementJob, error) {
	var out []*jobs.AnalyzeStatementJob
	for _, job := range f.jobs {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		out = append(out, job)
	}
	return out, nil
}

func (f *fakeJobStore) UpdateJobStatus(ctx context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	return nil
}
