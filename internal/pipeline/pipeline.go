// Package pipeline runs the statement analysis flow executed by workers:
// fetch the uploaded CSV, parse and categorize its transactions, persist
// them to the ledger, and record the outcome on the statement.
package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/chanvekse/finance-ai-analyzer/internal/categorize"
	"github.com/chanvekse/finance-ai-analyzer/internal/domain"
	"github.com/chanvekse/finance-ai-analyzer/internal/gcs"
	"github.com/chanvekse/finance-ai-analyzer/internal/ingest"
	"github.com/chanvekse/finance-ai-analyzer/internal/logger"
)

// Fetcher downloads statement bytes by GCS URI. Satisfied by gcs.Store.
type Fetcher interface {
	Fetch(ctx context.Context, gcsURI string) ([]byte, error)
}

// Ledger is the slice of the BigQuery repository the pipeline needs.
type Ledger interface {
	InsertTransactions(ctx context.Context, statementID string, txs []domain.Transaction) error
	MarkStatementProcessed(ctx context.Context, statementID string, txCount int) error
	MarkStatementFailed(ctx context.Context, statementID string, errMsg string) error
}

// Analyzer wires fetch, parse, categorize, and persist into one flow.
type Analyzer struct {
	fetcher     Fetcher
	ledger      Ledger
	categorizer *categorize.Categorizer
}

// NewAnalyzer creates an Analyzer. A nil categorizer gets the default
// keyword table.
func NewAnalyzer(fetcher Fetcher, ledger Ledger, categorizer *categorize.Categorizer) *Analyzer {
	if categorizer == nil {
		categorizer = categorize.New(nil)
	}
	return &Analyzer{fetcher: fetcher, ledger: ledger, categorizer: categorizer}
}

// AnalyzeStatement processes one uploaded statement end to end. Failures are
// recorded on the statement row before the error is returned, so the caller
// can retry the job without losing the failure trail.
func (a *Analyzer) AnalyzeStatement(ctx context.Context, statementID, gcsURI string) error {
	log := logger.FromContext(ctx)

	// 1. Fetch the CSV bytes from GCS.
	raw, err := a.fetcher.Fetch(ctx, gcsURI)
	if err != nil {
		err = fmt.Errorf("AnalyzeStatement: fetching %s: %w", gcsURI, err)
		a.recordFailure(ctx, statementID, err)
		return err
	}

	// 2. Parse the statement rows.
	txs, err := ingest.ParseStatementCSV(bytes.NewReader(raw))
	if err != nil {
		err = fmt.Errorf("AnalyzeStatement: parsing statement %s: %w", statementID, err)
		a.recordFailure(ctx, statementID, err)
		return err
	}

	// 3. Categorize in place.
	a.categorizer.Apply(txs)

	// 4. Persist to the ledger.
	if err := a.ledger.InsertTransactions(ctx, statementID, txs); err != nil {
		err = fmt.Errorf("AnalyzeStatement: inserting transactions for %s: %w", statementID, err)
		a.recordFailure(ctx, statementID, err)
		return err
	}

	// 5. Mark the statement processed.
	if err := a.ledger.MarkStatementProcessed(ctx, statementID, len(txs)); err != nil {
		return fmt.Errorf("AnalyzeStatement: marking statement %s processed: %w", statementID, err)
	}

	log.Info().
		Str("statement_id", statementID).
		Str("filename", gcs.FilenameFromURI(gcsURI)).
		Int("transactions", len(txs)).
		Msg("Statement analyzed")

	return nil
}

// recordFailure best-effort flags the statement FAILED; the original error
// is what propagates.
func (a *Analyzer) recordFailure(ctx context.Context, statementID string, cause error) {
	if err := a.ledger.MarkStatementFailed(ctx, statementID, cause.Error()); err != nil {
		log := logger.FromContext(ctx)
		log.Error().
			Err(err).
			Str("statement_id", statementID).
			Msg("Failed to record statement failure")
	}
}
