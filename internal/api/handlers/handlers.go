// Package handlers implements the REST API endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chanvekse/finance-ai-analyzer/internal/analysis"
	"github.com/chanvekse/finance-ai-analyzer/internal/api/middleware"
	"github.com/chanvekse/finance-ai-analyzer/internal/categorize"
	infraBQ "github.com/chanvekse/finance-ai-analyzer/internal/infra/bigquery"
	"github.com/chanvekse/finance-ai-analyzer/internal/jobs"
	"github.com/chanvekse/finance-ai-analyzer/internal/recurrence"
)

// StatementUploader stores raw statement files. Satisfied by gcs.Store.
type StatementUploader interface {
	UploadStatement(ctx context.Context, statementID, filename string, body io.Reader) (string, error)
}

// StatementsHandler handles statement upload and listing.
type StatementsHandler struct {
	repo      infraBQ.LedgerRepository
	uploader  StatementUploader
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewStatementsHandler creates a statements handler.
func NewStatementsHandler(repo infraBQ.LedgerRepository, uploader StatementUploader, publisher jobs.Publisher, log zerolog.Logger) *StatementsHandler {
	return &StatementsHandler{
		repo:      repo,
		uploader:  uploader,
		publisher: publisher,
		log:       log,
	}
}

// Upload handles POST /api/statements. The request body is the raw CSV;
// the original filename comes from the `filename` query parameter. The
// statement is stored, recorded as PENDING, and an analysis job is queued.
func (h *StatementsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = "statement.csv"
	}

	statementID := uuid.NewString()

	gcsURI, err := h.uploader.UploadStatement(ctx, statementID, filename, r.Body)
	if err != nil {
		h.log.Error().Err(err).Str("statement_id", statementID).Msg("Failed to store statement")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store statement")
		return
	}

	if err := h.repo.CreateStatement(ctx, statementID, gcsURI, filename); err != nil {
		h.log.Error().Err(err).Str("statement_id", statementID).Msg("Failed to record statement")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to record statement")
		return
	}

	job := &jobs.AnalyzeStatementJob{
		StatementID: statementID,
		GCSURI:      gcsURI,
	}
	if err := h.publisher.PublishAnalyzeStatement(ctx, job); err != nil {
		h.log.Error().Err(err).Str("statement_id", statementID).Msg("Failed to enqueue analysis job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue analysis job")
		return
	}

	h.log.Info().
		Str("statement_id", statementID).
		Str("job_id", job.JobID).
		Str("gcs_uri", gcsURI).
		Msg("Statement uploaded and queued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"statement_id": statementID,
		"job_id":       job.JobID,
		"gcs_uri":      gcsURI,
		"status":       string(job.Status),
	})
}

// List handles GET /api/statements.
func (h *StatementsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	statements, err := h.repo.ListStatements(ctx)
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

// TransactionsHandler serves the categorized ledger.
type TransactionsHandler struct {
	repo infraBQ.LedgerRepository
	log  zerolog.Logger
}

// NewTransactionsHandler creates a transactions handler.
func NewTransactionsHandler(repo infraBQ.LedgerRepository, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{repo: repo, log: log}
}

// List handles GET /api/transactions with optional start_date and end_date
// query parameters (YYYY-MM-DD). Defaults to the trailing year.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	from, to, ok := dateRange(w, r)
	if !ok {
		return
	}

	transactions, err := h.repo.QueryTransactions(ctx, from, to)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// AnalysisHandler serves derived metrics over the ledger.
type AnalysisHandler struct {
	repo infraBQ.LedgerRepository
	log  zerolog.Logger
}

// NewAnalysisHandler creates an analysis handler.
func NewAnalysisHandler(repo infraBQ.LedgerRepository, log zerolog.Logger) *AnalysisHandler {
	return &AnalysisHandler{repo: repo, log: log}
}

// Summary handles GET /api/summary: income/expense totals, savings rate,
// per-category totals, and monthly breakdown for the requested range.
func (h *AnalysisHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	from, to, ok := dateRange(w, r)
	if !ok {
		return
	}

	txs, err := h.repo.QueryTransactions(ctx, from, to)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"metrics":         analysis.Calculate(txs),
		"category_totals": analysis.CategoryTotals(txs),
		"monthly_summary": analysis.MonthlySummary(txs),
	})
}

// Insights handles GET /api/insights.
func (h *AnalysisHandler) Insights(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	from, to, ok := dateRange(w, r)
	if !ok {
		return
	}

	txs, err := h.repo.QueryTransactions(ctx, from, to)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"insights": analysis.Insights(txs),
	})
}

// Recurring handles GET /api/recurring: merchant payment profiles with
// cadence classification and next expected dates.
func (h *AnalysisHandler) Recurring(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	from, to, ok := dateRange(w, r)
	if !ok {
		return
	}

	txs, err := h.repo.QueryTransactions(ctx, from, to)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	eligible := categorize.DefaultRecurringCategories()
	profiles, err := recurrence.BuildMerchantProfiles(txs, eligible)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build merchant profiles")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build merchant profiles")
		return
	}

	minOccurrences := 0
	if s := r.URL.Query().Get("min_occurrences"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			minOccurrences = n
		}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"profiles":            profiles,
		"count":               len(profiles),
		"recurring_merchants": recurrence.IdentifyRecurringMerchants(txs, eligible, minOccurrences),
	})
}

// SubscriptionsHandler manages manually tracked subscriptions.
type SubscriptionsHandler struct {
	repo infraBQ.SubscriptionRepository
	log  zerolog.Logger

	// now is swappable in tests.
	now func() time.Time
}

// NewSubscriptionsHandler creates a subscriptions handler.
func NewSubscriptionsHandler(repo infraBQ.SubscriptionRepository, log zerolog.Logger) *SubscriptionsHandler {
	return &SubscriptionsHandler{repo: repo, log: log, now: time.Now}
}

// Create handles POST /api/subscriptions.
func (h *SubscriptionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		ServiceName   string  `json:"service_name"`
		MonthlyAmount float64 `json:"monthly_amount"`
		DueDay        int     `json:"due_day"`
		Category      string  `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ServiceName == "" {
		middleware.WriteError(w, http.StatusBadRequest, "service_name is required")
		return
	}
	if req.DueDay < 1 || req.DueDay > 31 {
		middleware.WriteError(w, http.StatusBadRequest, "due_day must be between 1 and 31")
		return
	}

	sub := recurrence.Subscription{
		ID:            uuid.NewString(),
		ServiceName:   req.ServiceName,
		MonthlyAmount: req.MonthlyAmount,
		DueDay:        req.DueDay,
		Category:      req.Category,
		Active:        true,
	}
	sub.Refresh(h.now())

	if err := h.repo.UpsertSubscription(ctx, sub); err != nil {
		h.log.Error().Err(err).Str("service", req.ServiceName).Msg("Failed to create subscription")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create subscription")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, sub)
}

// List handles GET /api/subscriptions. Pass active=true to filter.
func (h *SubscriptionsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	activeOnly := r.URL.Query().Get("active") == "true"

	subs, err := h.repo.ListSubscriptions(ctx, activeOnly)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list subscriptions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list subscriptions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"subscriptions": subs,
		"count":         len(subs),
	})
}

// Refresh handles POST /api/subscriptions/refresh. It advances every active
// subscription's next due date past today and persists the ones that moved.
func (h *SubscriptionsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subs, err := h.repo.ListSubscriptions(ctx, true)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list subscriptions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list subscriptions")
		return
	}

	today := h.now()
	updated := 0
	for i := range subs {
		if !subs[i].Refresh(today) {
			continue
		}
		if err := h.repo.UpdateNextDue(ctx, subs[i].ID, subs[i].NextDue); err != nil {
			h.log.Error().Err(err).Str("subscription_id", subs[i].ID).Msg("Failed to update next due date")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to update next due date")
			return
		}
		updated++
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"subscriptions": subs,
		"updated":       updated,
	})
}

// Deactivate handles DELETE /api/subscriptions/{id}.
func (h *SubscriptionsHandler) Deactivate(w http.ResponseWriter, r *http.Request, subscriptionID string) {
	ctx := r.Context()

	if err := h.repo.Deactivate(ctx, subscriptionID); err != nil {
		h.log.Error().Err(err).Str("subscription_id", subscriptionID).Msg("Failed to deactivate subscription")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to deactivate subscription")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"subscription_id": subscriptionID,
		"status":          "inactive",
	})
}

// JobsHandler exposes job progress.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// Get handles GET /api/jobs/{id}.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// List handles GET /api/jobs.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		StatementID: query.Get("statement_id"),
		Status:      jobs.JobStatus(query.Get("status")),
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

// dateRange parses start_date/end_date query parameters, writing a 400 and
// returning ok=false when malformed. Defaults to the trailing year.
func dateRange(w http.ResponseWriter, r *http.Request) (from, to time.Time, ok bool) {
	query := r.URL.Query()

	from = time.Now().AddDate(-1, 0, 0)
	to = time.Now()

	if s := query.Get("start_date"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format")
			return time.Time{}, time.Time{}, false
		}
		from = parsed
	}
	if s := query.Get("end_date"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format")
			return time.Time{}, time.Time{}, false
		}
		to = parsed
	}

	return from, to, true
}
