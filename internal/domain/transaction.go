package domain

import (
	"fmt"
	"math"
	"time"
)

// Transaction represents one validated ledger entry. The ingest layer owns
// parsing and validation; by the time a Transaction reaches the analysis
// packages its date and amount are assumed well-formed.
type Transaction struct {
	Date        time.Time `json:"date"`        // calendar date, no time component
	Description string    `json:"description"` // free-text merchant/memo string
	Amount      float64   `json:"amount"`      // signed: positive = income, negative = expense
	Category    string    `json:"category"`    // assigned by categorize; "Uncategorized" fallback
}

// Transaction type labels derived from the amount sign.
const (
	TypeIncome  = "Income"
	TypeExpense = "Expense"
)

// Type returns Income for positive amounts and Expense otherwise.
func (t Transaction) Type() string {
	if t.Amount > 0 {
		return TypeIncome
	}
	return TypeExpense
}

// Period returns the year-month bucket of the transaction date, e.g. "2024-03".
func (t Transaction) Period() string {
	return t.Date.Format("2006-01")
}

// Validate reports a contract violation for values that should have been
// rejected at the ingestion boundary. Analysis code fails fast on these
// rather than silently miscomputing.
func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return fmt.Errorf("invalid transaction %q: zero date", t.Description)
	}
	if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
		return fmt.Errorf("invalid transaction %q: non-finite amount", t.Description)
	}
	return nil
}
