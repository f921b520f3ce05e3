package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dataset != "finance" {
		t.Errorf("Dataset = %q, want default %q", cfg.Dataset, "finance")
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want default %q", cfg.Port, "8080")
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("FINANCE_GCP_PROJECT", "test-project")
	t.Setenv("FINANCE_BQ_DATASET", "ledger")
	t.Setenv("FINANCE_GCS_BUCKET", "statements-bucket")
	t.Setenv("FINANCE_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GCPProject != "test-project" {
		t.Errorf("GCPProject = %q, want test-project", cfg.GCPProject)
	}
	if cfg.Dataset != "ledger" {
		t.Errorf("Dataset = %q, want ledger", cfg.Dataset)
	}
	if cfg.Bucket != "statements-bucket" {
		t.Errorf("Bucket = %q, want statements-bucket", cfg.Bucket)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}

	if err := cfg.RequireProject(); err != nil {
		t.Errorf("RequireProject with project set: %v", err)
	}
}

func TestRequireProject_Missing(t *testing.T) {
	cfg := &Config{}
	if err := cfg.RequireProject(); err == nil {
		t.Fatal("expected error when project is unset")
	}
}
