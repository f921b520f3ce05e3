// Package recurrence infers recurring-payment patterns from transaction
// history and maintains due dates for manually declared subscriptions.
package recurrence

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/chanvekse/finance-ai-analyzer/internal/domain"
)

// Pattern is the inferred payment cadence of a merchant.
type Pattern string

const (
	PatternMonthly          Pattern = "Monthly"
	PatternQuarterly        Pattern = "Quarterly"
	PatternAnnual           Pattern = "Annual"
	PatternWeeklyOrFrequent Pattern = "WeeklyOrFrequent"
	PatternIrregular        Pattern = "Irregular"
	PatternOneTimeOrNew     Pattern = "OneTimeOrNew"
)

// MerchantProfile aggregates the payment history of one merchant, where a
// merchant is the exact (description, category) pair. Profiles are derived
// values: recompute them from the transaction set rather than storing them.
type MerchantProfile struct {
	Description string `json:"description"`
	Category    string `json:"category"`

	OccurrenceCount int     `json:"occurrence_count"`
	TotalAmount     float64 `json:"total_amount"`
	AverageAmount   float64 `json:"average_amount"`
	AmountStdDev    float64 `json:"amount_std_dev"` // sample standard deviation; 0 for a single occurrence

	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`

	// MeanIntervalDays is days(LastSeen-FirstSeen)/(count-1), or 0 for a
	// single occurrence.
	MeanIntervalDays float64 `json:"mean_interval_days"`

	Pattern Pattern `json:"pattern"`

	// NextExpectedDate is LastSeen plus MeanIntervalDays rounded to whole
	// days. Rounding before re-adding can drift the projection by up to a
	// day per cycle; kept for fidelity with the historical behavior.
	NextExpectedDate time.Time `json:"next_expected_date,omitempty"`
}

// BuildMerchantProfiles derives one profile per (description, category) pair
// from the expense transactions whose category is in eligibleCategories.
// Amounts are taken as absolute values. The input set is the source of
// truth; profiles are recomputed in full on every call.
//
// It returns an error only for transactions that violate the ingestion
// contract (zero date, non-finite amount).
func BuildMerchantProfiles(txs []domain.Transaction, eligibleCategories map[string]bool) ([]MerchantProfile, error) {
	type merchantKey struct {
		description string
		category    string
	}

	groups := make(map[merchantKey][]domain.Transaction)
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("BuildMerchantProfiles: %w", err)
		}
		if tx.Amount >= 0 || !eligibleCategories[tx.Category] {
			continue
		}
		key := merchantKey{description: tx.Description, category: tx.Category}
		groups[key] = append(groups[key], tx)
	}

	profiles := make([]MerchantProfile, 0, len(groups))
	for key, group := range groups {
		p := MerchantProfile{
			Description:     key.description,
			Category:        key.category,
			OccurrenceCount: len(group),
			FirstSeen:       group[0].Date,
			LastSeen:        group[0].Date,
		}

		amounts := make([]float64, 0, len(group))
		for _, tx := range group {
			amount := math.Abs(tx.Amount)
			amounts = append(amounts, amount)
			p.TotalAmount += amount
			if tx.Date.Before(p.FirstSeen) {
				p.FirstSeen = tx.Date
			}
			if tx.Date.After(p.LastSeen) {
				p.LastSeen = tx.Date
			}
		}
		p.AverageAmount = p.TotalAmount / float64(len(amounts))
		p.AmountStdDev = sampleStdDev(amounts, p.AverageAmount)

		if p.OccurrenceCount == 1 {
			p.Pattern = PatternOneTimeOrNew
			profiles = append(profiles, p)
			continue
		}

		spanDays := p.LastSeen.Sub(p.FirstSeen).Hours() / 24
		p.MeanIntervalDays = spanDays / float64(p.OccurrenceCount-1)
		p.Pattern = classifyCadence(p.MeanIntervalDays, p.OccurrenceCount)
		p.NextExpectedDate = p.LastSeen.AddDate(0, 0, int(math.Round(p.MeanIntervalDays)))

		profiles = append(profiles, p)
	}

	// Map iteration order is random; fix the output order.
	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].Description != profiles[j].Description {
			return profiles[i].Description < profiles[j].Description
		}
		return profiles[i].Category < profiles[j].Category
	})

	return profiles, nil
}

// classifyCadence maps a mean interval to a cadence band. The bands are
// closed and non-overlapping; the gaps between them (36-84 days, 96-359
// days) collapse to Irregular on purpose. Two occurrences are never enough
// evidence for a banded cadence.
func classifyCadence(meanIntervalDays float64, count int) Pattern {
	if count < 3 {
		return PatternIrregular
	}

	switch {
	case meanIntervalDays < 10:
		return PatternWeeklyOrFrequent
	case meanIntervalDays >= 25 && meanIntervalDays <= 35:
		return PatternMonthly
	case meanIntervalDays >= 85 && meanIntervalDays <= 95:
		return PatternQuarterly
	case meanIntervalDays >= 360 && meanIntervalDays <= 370:
		return PatternAnnual
	default:
		return PatternIrregular
	}
}

// IdentifyRecurringMerchants returns the descriptions, grouped by exact
// string match, that appear at least minOccurrences times among eligible
// expense transactions. minOccurrences values below 1 default to 2.
// Single purchases are noise for recurrence purposes.
func IdentifyRecurringMerchants(txs []domain.Transaction, eligibleCategories map[string]bool, minOccurrences int) map[string]bool {
	if minOccurrences < 1 {
		minOccurrences = 2
	}

	counts := make(map[string]int)
	for _, tx := range txs {
		if tx.Amount >= 0 || !eligibleCategories[tx.Category] {
			continue
		}
		counts[tx.Description]++
	}

	recurring := make(map[string]bool)
	for desc, n := range counts {
		if n >= minOccurrences {
			recurring[desc] = true
		}
	}
	return recurring
}

func sampleStdDev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}
