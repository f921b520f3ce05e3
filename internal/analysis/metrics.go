// Package analysis derives aggregate financial metrics from a categorized
// transaction set. Everything here is a pure function of its inputs.
package analysis

import (
	"math"
	"sort"

	"github.com/chanvekse/finance-ai-analyzer/internal/domain"
)

// Metrics summarizes a transaction set.
type Metrics struct {
	TotalIncome   float64 `json:"total_income"`
	TotalExpenses float64 `json:"total_expenses"` // absolute value
	NetSavings    float64 `json:"net_savings"`
	SavingsRate   float64 `json:"savings_rate"` // percent of income; 0 when no income
}

// Calculate computes the headline metrics.
func Calculate(txs []domain.Transaction) Metrics {
	var m Metrics
	for _, tx := range txs {
		if tx.Amount > 0 {
			m.TotalIncome += tx.Amount
		} else {
			m.TotalExpenses += math.Abs(tx.Amount)
		}
	}
	m.NetSavings = m.TotalIncome - m.TotalExpenses
	if m.TotalIncome > 0 {
		m.SavingsRate = m.NetSavings / m.TotalIncome * 100
	}
	return m
}

// CategoryTotal is one category's total expense spend.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// CategoryTotals sums expense amounts per category, descending by total.
// Ties break alphabetically so the order is stable.
func CategoryTotals(txs []domain.Transaction) []CategoryTotal {
	sums := make(map[string]float64)
	for _, tx := range txs {
		if tx.Amount >= 0 {
			continue
		}
		sums[tx.Category] += math.Abs(tx.Amount)
	}

	totals := make([]CategoryTotal, 0, len(sums))
	for cat, sum := range sums {
		totals = append(totals, CategoryTotal{Category: cat, Total: sum})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Total != totals[j].Total {
			return totals[i].Total > totals[j].Total
		}
		return totals[i].Category < totals[j].Category
	})
	return totals
}

// PeriodSummary is one year-month's income vs expenses.
type PeriodSummary struct {
	Period   string  `json:"period"` // "2006-01"
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"` // absolute value
	Savings  float64 `json:"savings"`
}

// MonthlySummary buckets transactions by year-month, ascending by period.
func MonthlySummary(txs []domain.Transaction) []PeriodSummary {
	byPeriod := make(map[string]*PeriodSummary)
	for _, tx := range txs {
		period := tx.Period()
		s, ok := byPeriod[period]
		if !ok {
			s = &PeriodSummary{Period: period}
			byPeriod[period] = s
		}
		if tx.Amount > 0 {
			s.Income += tx.Amount
		} else {
			s.Expenses += math.Abs(tx.Amount)
		}
	}

	summaries := make([]PeriodSummary, 0, len(byPeriod))
	for _, s := range byPeriod {
		s.Savings = s.Income - s.Expenses
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Period < summaries[j].Period
	})
	return summaries
}
