package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/chanvekse/finance-ai-analyzer/internal/analysis"
	"github.com/chanvekse/finance-ai-analyzer/internal/categorize"
	"github.com/chanvekse/finance-ai-analyzer/internal/config"
	"github.com/chanvekse/finance-ai-analyzer/internal/gcs"
	"github.com/chanvekse/finance-ai-analyzer/internal/ingest"
	"github.com/chanvekse/finance-ai-analyzer/internal/logger"
	"github.com/chanvekse/finance-ai-analyzer/internal/recurrence"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "analyze":
		runAnalyze(log)
	case "receipt":
		runReceipt(log)
	case "upload":
		runUpload(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Analyzer CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  analyze   Run the full analysis over a local statement CSV")
	fmt.Println("  receipt   Extract a transaction from a receipt image")
	fmt.Println("  upload    Upload a statement CSV to GCS")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// runAnalyze parses a local CSV, categorizes it, and prints the complete
// report: totals, category breakdown, monthly summary, recurring merchants,
// and insights.
func runAnalyze(log zerolog.Logger) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to local statement CSV")
	fs.Parse(os.Args[2:])

	if *filePath == "" {
		log.Fatal().Msg("Error: -file is required")
	}

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePath).Msg("Failed to open statement")
	}
	defer f.Close()

	txs, err := ingest.ParseStatementCSV(f)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse statement")
	}

	categorize.New(nil).Apply(txs)

	metrics := analysis.Calculate(txs)
	fmt.Printf("Transactions: %d\n\n", len(txs))
	fmt.Println("=== Financial Summary ===")
	fmt.Printf("Total Income:   $%.2f\n", metrics.TotalIncome)
	fmt.Printf("Total Expenses: $%.2f\n", metrics.TotalExpenses)
	fmt.Printf("Net Savings:    $%.2f\n", metrics.NetSavings)
	fmt.Printf("Savings Rate:   %.1f%%\n", metrics.SavingsRate)

	fmt.Println("\n=== Spending by Category ===")
	for _, ct := range analysis.CategoryTotals(txs) {
		fmt.Printf("%-25s $%.2f\n", ct.Category, ct.Total)
	}

	fmt.Println("\n=== Monthly Summary ===")
	for _, ms := range analysis.MonthlySummary(txs) {
		fmt.Printf("%s  income $%.2f  expenses $%.2f  savings $%.2f\n",
			ms.Period, ms.Income, ms.Expenses, ms.Savings)
	}

	profiles, err := recurrence.BuildMerchantProfiles(txs, categorize.DefaultRecurringCategories())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build merchant profiles")
	}

	recurring := recurrence.IdentifyRecurringMerchants(txs, categorize.DefaultRecurringCategories(), 0)

	fmt.Println("\n=== Recurring Merchants ===")
	for _, p := range profiles {
		marker := " "
		if recurring[p.Description] {
			marker = "*"
		}
		line := fmt.Sprintf("%s %-30s %-17s x%d  avg $%.2f", marker, p.Description, p.Pattern, p.OccurrenceCount, p.AverageAmount)
		if !p.NextExpectedDate.IsZero() {
			line += fmt.Sprintf("  next %s", p.NextExpectedDate.Format("2006-01-02"))
		}
		fmt.Println(line)
	}

	fmt.Println("\n=== Insights ===")
	for _, insight := range analysis.Insights(txs) {
		fmt.Println("- " + insight)
	}
}

// runReceipt sends a receipt image through the Gemini parser and prints the
// extracted transaction.
func runReceipt(log zerolog.Logger) {
	fs := flag.NewFlagSet("receipt", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to receipt image (JPEG or PNG)")
	model := fs.String("model", ingest.DefaultReceiptModel, "Gemini model to use")
	fs.Parse(os.Args[2:])

	if *filePath == "" {
		log.Fatal().Msg("Error: -file is required")
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePath).Msg("Failed to read receipt")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	parser := ingest.NewGeminiReceiptParser(*model)

	tx, err := parser.ParseReceipt(ctx, data, mimeTypeFor(*filePath))
	if err != nil {
		log.Fatal().Err(err).Msg("Receipt parsing failed")
	}

	category := categorize.New(nil).Categorize(tx.Description)
	fmt.Printf("Date:        %s\n", tx.Date.Format("2006-01-02"))
	fmt.Printf("Description: %s\n", tx.Description)
	fmt.Printf("Amount:      $%.2f\n", tx.Amount)
	fmt.Printf("Category:    %s\n", category)
}

func mimeTypeFor(path string) string {
	switch filepath.Ext(path) {
	case ".png":
		return "image/png"
	default:
		return "image/jpeg"
	}
}

// runUpload pushes a local statement CSV to the configured bucket so the
// API or worker can pick it up.
func runUpload(log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to local statement CSV")
	statementID := fs.String("statement-id", "", "Statement ID (defaults to a new UUID on the server side)")
	fs.Parse(os.Args[2:])

	if *filePath == "" {
		log.Fatal().Msg("Usage: cli upload -file PATH [-statement-id ID]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.Bucket == "" {
		log.Fatal().Msg("FINANCE_GCS_BUCKET must be set for uploads")
	}

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePath).Msg("Failed to open statement")
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store, err := gcs.NewStore(ctx, cfg.Bucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create GCS store")
	}
	defer store.Close()

	id := *statementID
	if id == "" {
		id = time.Now().UTC().Format("20060102-150405")
	}

	uri, err := store.UploadStatement(ctx, id, filepath.Base(*filePath), f)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded to %s\n", uri)
}
