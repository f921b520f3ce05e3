package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
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

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, 5, jobStore)

	log.Info().Msg("Starting worker service")

	analyzer := pipeline.NewAnalyzer(store, repo, nil)
	handler := func(ctx context.Context, job jobs.Job) error {
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

	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Worker exited")
}
