package categorize

// Uncategorized is the sentinel label assigned when no rule matches. It is
// never matched by keyword and always sits last in a rule table.
const Uncategorized = "Uncategorized"

// Rule maps one category label to its list of lowercase keywords. Keyword
// order inside a rule and rule order inside a table are both significant:
// the first keyword hit in the first matching rule wins.
type Rule struct {
	Label    string
	Keywords []string
}

// DefaultRules is the built-in rule table. Callers that need a custom
// taxonomy pass their own ordered table to New.
func DefaultRules() []Rule {
	return []Rule{
		{Label: "Groceries", Keywords: []string{"walmart", "kroger", "trader joe", "target"}},
		{Label: "Entertainment", Keywords: []string{"netflix", "youtube", "apple music"}},
		{Label: "Dining", Keywords: []string{"starbucks", "chick-fil-a"}},
		{Label: "Transportation", Keywords: []string{"uber", "lyft", "shell", "gas"}},
		{Label: "Credit Card / Transfers", Keywords: []string{"chase", "zelle"}},
		{Label: "Bills", Keywords: []string{"rent", "insurance", "electricity", "internet"}},
		{Label: "Income", Keywords: []string{"salary", "deposit"}},
		{Label: Uncategorized, Keywords: nil},
	}
}

// DefaultRecurringCategories is the default scope for recurrence analysis:
// labels whose merchants plausibly charge on a schedule. One-off categories
// like Dining and Groceries stay out.
func DefaultRecurringCategories() map[string]bool {
	return map[string]bool{
		"Bills":         true,
		"Entertainment": true,
	}
}
