package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chanvekse/finance-ai-analyzer/internal/api/handlers"
	"github.com/chanvekse/finance-ai-analyzer/internal/api/middleware"
	"github.com/chanvekse/finance-ai-analyzer/internal/config"
	"github.com/chanvekse/finance-ai-analyzer/internal/gcs"
	infraBQ "github.com/chanvekse/finance-ai-analyzer/internal/infra/bigquery"
	"github.com/chanvekse/finance-ai-analyzer/internal/jobs"
	"github.com/chanvekse/finance-ai-analyzer/internal/jobs/inmemory"
	"github.com/chanvekse/finance-ai-analyzer/internal/logger"
	"github.com/chanvekse/finance-ai-analyzer/internal/pipeline"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.RequireProject(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.Bucket == "" {
		log.Warn().Msg("No GCS bucket configured - statement uploads will fail")
	}

	ctx := context.Background()
	ctx = logger.WithContext(ctx, log)

	repo, err := infraBQ.NewRepository(ctx, cfg.GCPProject, cfg.Dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	store, err := gcs.NewStore(ctx, cfg.Bucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create GCS store")
	}
	defer store.Close()

	// Job infrastructure with an in-process worker.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, 5, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	analyzer := pipeline.NewAnalyzer(store, repo, nil)
	jobHandler := func(ctx context.Context, job jobs.Job) error {
		analyzeJob, ok := job.(*jobs.AnalyzeStatementJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", analyzeJob.JobID).
			Str("statement_id", analyzeJob.StatementID).
			Str("gcs_uri", analyzeJob.GCSURI).
			Msg("Processing analysis job")

		if err := analyzer.AnalyzeStatement(ctx, analyzeJob.StatementID, analyzeJob.GCSURI); err != nil {
			log.Error().
				Err(err).
				Str("job_id", analyzeJob.JobID).
				Str("statement_id", analyzeJob.StatementID).
				Msg("Statement analysis failed")
			return err
		}
		return nil
	}

	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	statementsHandler := handlers.NewStatementsHandler(repo, store, jobQueue, log)
	transactionsHandler := handlers.NewTransactionsHandler(repo, log)
	analysisHandler := handlers.NewAnalysisHandler(repo, log)
	subscriptionsHandler := handlers.NewSubscriptionsHandler(repo, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/statements", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			statementsHandler.Upload(w, r)
		case http.MethodGet:
			statementsHandler.List(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			transactionsHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/summary", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			analysisHandler.Summary(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/insights", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			analysisHandler.Insights(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/recurring", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			analysisHandler.Recurring(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/subscriptions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			subscriptionsHandler.Create(w, r)
		case http.MethodGet:
			subscriptionsHandler.List(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/subscriptions/refresh", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			subscriptionsHandler.Refresh(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/subscriptions/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			subscriptionID := strings.TrimPrefix(r.URL.Path, "/api/subscriptions/")
			if subscriptionID == "" || subscriptionID == "refresh" {
				middleware.WriteError(w, http.StatusBadRequest, "Subscription ID is required")
				return
			}
			subscriptionsHandler.Deactivate(w, r, subscriptionID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.Get(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.RequestID(
			middleware.Logger(log)(
				middleware.CORS(
					middleware.Auth(mux),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
