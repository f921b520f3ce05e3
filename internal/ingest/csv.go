// Package ingest is the validation boundary between raw statement data and
// the analysis core. Everything it emits is a well-formed domain.Transaction;
// the core never sees an unparsed date or amount.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chanvekse/finance-ai-analyzer/internal/domain"
)

// Statement CSVs must carry these columns, in any order. Extra columns are
// ignored.
var requiredColumns = []string{"date", "description", "amount"}

var dateFormats = []string{"2006-01-02", "01/02/2006", "2006/01/02"}

// ParseStatementCSV reads a bank statement CSV into validated transactions.
// The first row is the header. Rows with unparseable dates or amounts are
// rejected with the row number in the error; nothing partial is returned.
// Categories are not assigned here.
func ParseStatementCSV(r io.Reader) ([]domain.Transaction, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("ParseStatementCSV: reading header: %w", err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, fmt.Errorf("ParseStatementCSV: %w", err)
	}

	var txs []domain.Transaction
	rowNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ParseStatementCSV: row %d: %w", rowNum+1, err)
		}
		rowNum++

		date, err := parseDate(record[cols["date"]])
		if err != nil {
			return nil, fmt.Errorf("ParseStatementCSV: row %d: %w", rowNum, err)
		}

		amount, err := parseAmount(record[cols["amount"]])
		if err != nil {
			return nil, fmt.Errorf("ParseStatementCSV: row %d: %w", rowNum, err)
		}

		txs = append(txs, domain.Transaction{
			Date:        date,
			Description: strings.TrimSpace(record[cols["description"]]),
			Amount:      amount,
		})
	}

	return txs, nil
}

func mapColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range requiredColumns {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing required column %q (have %v)", required, header)
		}
	}
	return cols, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// parseAmount accepts plain decimals plus the currency noise real statement
// exports carry: "$1,234.56", "(12.00)" for a debit.
func parseAmount(s string) (float64, error) {
	cleaned := strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if negative {
		amount = -amount
	}
	return amount, nil
}
