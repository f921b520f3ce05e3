// Package categorize assigns spending categories to transaction descriptions
// using an ordered keyword rule table.
package categorize

import (
	"strings"

	"github.com/chanvekse/finance-ai-analyzer/internal/domain"
)

// Categorizer classifies descriptions against a fixed, ordered rule table.
// It holds no mutable state and is safe for concurrent use.
type Categorizer struct {
	rules []Rule
}

// New creates a Categorizer from an ordered rule table. A nil table selects
// DefaultRules.
func New(rules []Rule) *Categorizer {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Categorizer{rules: rules}
}

// Categorize returns the label of the first rule, in table order, containing
// a keyword that is a substring of the lowercased description. Matching is
// deliberately substring rather than whole-word: "gas" matches "Gaslamp
// Cafe". When nothing matches, including the empty description, it returns
// Uncategorized. Total over all inputs; never errors.
func (c *Categorizer) Categorize(description string) string {
	lower := strings.ToLower(description)

	for _, rule := range c.rules {
		if rule.Label == Uncategorized {
			continue
		}
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Label
			}
		}
	}

	return Uncategorized
}

// Apply assigns a category to every transaction in place and returns the
// slice for chaining. Each assignment depends only on the description and
// the rule table.
func (c *Categorizer) Apply(txs []domain.Transaction) []domain.Transaction {
	for i := range txs {
		txs[i].Category = c.Categorize(txs[i].Description)
	}
	return txs
}

// Labels returns the category labels of the rule table in table order,
// including the Uncategorized sentinel.
func (c *Categorizer) Labels() []string {
	labels := make([]string, 0, len(c.rules))
	for _, r := range c.rules {
		labels = append(labels, r.Label)
	}
	return labels
}
