package analysis

import (
	"fmt"

	"github.com/chanvekse/finance-ai-analyzer/internal/categorize"
	"github.com/chanvekse/finance-ai-analyzer/internal/domain"
)

// Insights produces plain-text observations about spending behavior. The
// presentation layer owns any formatting beyond these sentences.
func Insights(txs []domain.Transaction) []string {
	m := Calculate(txs)
	totals := CategoryTotals(txs)

	var out []string

	top := totals
	if len(top) > 3 {
		top = top[:3]
	}
	for i, ct := range top {
		pct := 0.0
		if m.TotalIncome > 0 {
			pct = ct.Total / m.TotalIncome * 100
		}
		out = append(out, fmt.Sprintf("Top expense #%d: %s at $%.2f (%.1f%% of income)", i+1, ct.Category, ct.Total, pct))
	}

	switch {
	case m.SavingsRate >= 20:
		out = append(out, "Excellent: saving 20%+ of income")
	case m.SavingsRate >= 10:
		out = append(out, "Good: saving 10%+ of income")
	case m.SavingsRate >= 0:
		out = append(out, "Fair: saving money, but there is room to improve")
	default:
		out = append(out, "Alert: spending exceeds income")
	}

	if len(totals) > 0 && m.TotalIncome > 0 {
		topPct := totals[0].Total / m.TotalIncome * 100
		if topPct > 50 {
			out = append(out, fmt.Sprintf("High spending concentration in %s (%.1f%% of income)", totals[0].Category, topPct))
		} else {
			out = append(out, "Balanced spending distribution across categories")
		}
	}

	for _, ct := range top {
		if ct.Category == categorize.Uncategorized {
			out = append(out, "Track and categorize unknown expenses")
			break
		}
	}

	return out
}
