// Package config loads service configuration from environment variables.
package config

import (
	"fmt"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds the application configuration. Each field maps to one
// environment variable.
type Config struct {
	// GCPProject is the Google Cloud project for BigQuery.
	// Environment variable: FINANCE_GCP_PROJECT
	GCPProject string `koanf:"FINANCE_GCP_PROJECT"`

	// Dataset is the BigQuery dataset holding the ledger tables.
	// Environment variable: FINANCE_BQ_DATASET
	Dataset string `koanf:"FINANCE_BQ_DATASET"`

	// Bucket is the GCS bucket for uploaded statement CSVs.
	// Environment variable: FINANCE_GCS_BUCKET
	Bucket string `koanf:"FINANCE_GCS_BUCKET"`

	// Port is the HTTP listen port for the API server.
	// Environment variable: FINANCE_PORT
	Port string `koanf:"FINANCE_PORT"`

	// NotionToken authorizes the Notion export.
	// Environment variable: FINANCE_NOTION_TOKEN
	NotionToken string `koanf:"FINANCE_NOTION_TOKEN"`

	// NotionRecurringDB is the Notion database ID for recurring merchants.
	// Environment variable: FINANCE_NOTION_RECURRING_DB
	NotionRecurringDB string `koanf:"FINANCE_NOTION_RECURRING_DB"`

	// NotionSubscriptionsDB is the Notion database ID for tracked
	// subscriptions. Optional; the subscription sync is skipped when empty.
	// Environment variable: FINANCE_NOTION_SUBSCRIPTIONS_DB
	NotionSubscriptionsDB string `koanf:"FINANCE_NOTION_SUBSCRIPTIONS_DB"`
}

// Load reads configuration from the environment and applies defaults.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return nil, fmt.Errorf("config.Load: loading environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return nil, fmt.Errorf("config.Load: unmarshaling: %w", err)
	}

	if cfg.Dataset == "" {
		cfg.Dataset = "finance"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	return &cfg, nil
}

// RequireProject returns an error when no GCP project is configured. Storage
// commands call this up front so the failure is immediate and named.
func (c *Config) RequireProject() error {
	if c.GCPProject == "" {
		return fmt.Errorf("FINANCE_GCP_PROJECT environment variable is required")
	}
	return nil
}
