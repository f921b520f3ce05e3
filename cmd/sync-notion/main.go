package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/chanvekse/finance-ai-analyzer/internal/categorize"
	"github.com/chanvekse/finance-ai-analyzer/internal/config"
	infraBQ "github.com/chanvekse/finance-ai-analyzer/internal/infra/bigquery"
	"github.com/chanvekse/finance-ai-analyzer/internal/logger"
	"github.com/chanvekse/finance-ai-analyzer/internal/notionsync"
	"github.com/chanvekse/finance-ai-analyzer/internal/recurrence"
)

func main() {
	var (
		dryRun    = flag.Bool("dry-run", false, "Log what would change without writing to Notion")
		startDate = flag.String("start-date", "", "Start of the transaction range (YYYY-MM-DD, default 1 year ago)")
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
	if cfg.NotionToken == "" || cfg.NotionRecurringDB == "" {
		log.Fatal().Msg("FINANCE_NOTION_TOKEN and FINANCE_NOTION_RECURRING_DB must be set")
	}

	from := time.Now().AddDate(-1, 0, 0)
	if *startDate != "" {
		parsed, err := time.Parse("2006-01-02", *startDate)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid -start-date")
		}
		from = parsed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo, err := infraBQ.NewRepository(ctx, cfg.GCPProject, cfg.Dataset)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery repository")
	}
	defer repo.Close()

	txs, err := repo.QueryTransactions(ctx, from, time.Time{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to query transactions")
	}

	profiles, err := recurrence.BuildMerchantProfiles(txs, categorize.DefaultRecurringCategories())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build merchant profiles")
	}

	notion := notionsync.NewNotionClient(cfg.NotionToken)

	result, err := notionsync.SyncRecurringProfiles(ctx, notion, cfg.NotionRecurringDB, profiles, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Recurring profile sync failed")
	}
	fmt.Printf("Recurring profiles: %d created, %d updated, %d archived\n", result.Created, result.Updated, result.Deleted)

	if cfg.NotionSubscriptionsDB != "" {
		subs, err := repo.ListSubscriptions(ctx, false)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list subscriptions")
		}
		result, err = notionsync.SyncSubscriptions(ctx, notion, cfg.NotionSubscriptionsDB, subs, *dryRun)
		if err != nil {
			log.Fatal().Err(err).Msg("Subscription sync failed")
		}
		fmt.Printf("Subscriptions: %d created, %d updated, %d archived\n", result.Created, result.Updated, result.Deleted)
	}
}
