package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chanvekse/finance-ai-analyzer/internal/categorize"
	"github.com/chanvekse/finance-ai-analyzer/internal/config"
	infraBQ "github.com/chanvekse/finance-ai-analyzer/internal/infra/bigquery"
	"github.com/chanvekse/finance-ai-analyzer/internal/logger"
	"github.com/chanvekse/finance-ai-analyzer/internal/notify"
	"github.com/chanvekse/finance-ai-analyzer/internal/recurrence"
)

// ledgerProfiles derives merchant profiles from the full ledger on demand.
type ledgerProfiles struct {
	repo infraBQ.LedgerRepository
}

func (l *ledgerProfiles) Profiles(ctx context.Context) ([]recurrence.MerchantProfile, error) {
	txs, err := l.repo.QueryTransactions(ctx, time.Now().AddDate(-1, 0, 0), time.Time{})
	if err != nil {
		return nil, fmt.Errorf("Profiles: querying transactions: %w", err)
	}
	return recurrence.BuildMerchantProfiles(txs, categorize.DefaultRecurringCategories())
}

func main() {
	var (
		horizonDays = flag.Int("horizon", 7, "Days ahead to look for upcoming payments")
		interval    = flag.Duration("interval", 24*time.Hour, "How often to check (0 = check once and exit)")
	)
	flag.Parse()

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

	scheduler := notify.NewScheduler(
		repo,
		&ledgerProfiles{repo: repo},
		notify.NewLogNotifier(log),
		*horizonDays,
		log,
	)

	if *interval <= 0 {
		reminders, err := scheduler.CheckOnce(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Reminder check failed")
		}
		fmt.Printf("%d upcoming payment(s)\n", len(reminders))
		return
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("Shutting down notifier...")
		cancel()
	}()

	log.Info().
		Int("horizon_days", *horizonDays).
		Dur("interval", *interval).
		Msg("Starting payment notifier")

	if err := scheduler.Run(ctx, *interval); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("Notifier stopped with error")
	}
}
