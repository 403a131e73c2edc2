package extraction

import (
	"golang-alert-ingestion-service/internal/models"
)

// Shared pattern fragments. Amounts accept western (1,234,567.89) and Indian
// (1,23,456.50) grouping.
const (
	NumberPattern   = `\d{1,3}(?:,\d{2,3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?`
	CurrencyPattern = `\b(?:INR|Rs\.?|USD|EUR|GBP|AED|SGD)|US\$|\$|\x{20B9}|\x{20AC}|\x{00A3}`
	MonthPattern    = `Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec`
)

// Rule ids that the engine itself reports.
const (
	RuleCurrencyToken         = "currency.token"
	RuleCurrencySenderDefault = "currency.sender_default"
	RuleCurrencyDefault       = "currency.default"
	RuleDateReceivedAt        = "date.received_at"
	RuleDirectionVote         = "direction.keyword_vote"
	RuleDirectionTie          = "direction.tie_default"
	RuleDirectionSender       = "direction.sender_override"
)

// DefaultAmountRules returns the built-in amount table in priority order.
func DefaultAmountRules() []models.RuleSpec {
	return []models.RuleSpec{
		{
			ID:         "amount.labeled",
			Pattern:    `(?i)\b(?:(?:transaction|txn)\s+)?(?:amount|amt)\s*(?:[:\-]|is|of)\s*(?:(?P<currency>` + CurrencyPattern + `)\s*)?(?P<value>` + NumberPattern + `)`,
			Confidence: 98,
		},
		{
			ID:         "amount.debited_credited_with",
			Pattern:    `(?i)\b(?:debited|credited)\s+(?:with|by|for)\s+(?:(?P<currency>` + CurrencyPattern + `)\s*)?(?P<value>` + NumberPattern + `)`,
			Confidence: 95,
		},
		{
			ID:         "amount.currency_prefixed",
			Pattern:    `(?i)(?P<currency>` + CurrencyPattern + `)\s*(?P<value>` + NumberPattern + `)`,
			Confidence: 90,
		},
		{
			ID:         "amount.generic",
			Pattern:    `(?:^|[^\d.,])(?P<value>\d{1,3}(?:,\d{2,3})+(?:\.\d{1,2})?|\d+\.\d{2})(?:[^\d.,]|\.(?:\s|$)|,\s|$)`,
			Confidence: 70,
		},
	}
}

// DefaultDescriptionRules returns the built-in description table in
// priority order.
func DefaultDescriptionRules() []models.RuleSpec {
	return []models.RuleSpec{
		{
			ID:         "description.merchant_label",
			Pattern:    `(?i)\bmerchant(?:\s+name)?\s*[:\-]\s*(?P<value>.+)`,
			Confidence: 95,
		},
		{
			ID:         "description.info_label",
			Pattern:    `(?i)\b(?:info|remarks|narration|description)\s*[:\-]\s*(?P<value>.+)`,
			Confidence: 90,
		},
		{
			ID:         "description.at_on",
			Pattern:    `(?i)\bat\s+(?P<value>\S.*?)\s+on\s`,
			Confidence: 88,
		},
		{
			ID:         "description.payment_ref",
			Pattern:    `(?i)(?:\bVPA\s+(?P<value>[\w.\-]+@[\w.\-]+)|\b(?P<value>(?:UPI|IMPS|NEFT|RTGS)/[\w@.\-/]+))`,
			Confidence: 82,
		},
		{
			ID:         "description.by",
			Pattern:    `(?i)\bby\s+(?P<value>[\w&'\-/][\w&'.\-/ ]*?)(?:\s+(?:at|on|via|for|from|to|ref|towards)\b|[.,;](?:\s|$)|$)`,
			Confidence: 78,
			Exclude:    []string{"you"},
		},
		{
			ID:         "description.at",
			Pattern:    `(?i)\bat\s+(?P<value>\S.*?)(?:\s+(?:for|via|ref|using|with)\b|[.;](?:\s|$)|$)`,
			Confidence: 75,
		},
	}
}

// DefaultAccountRules returns the built-in account identifier table.
func DefaultAccountRules() []models.RuleSpec {
	return []models.RuleSpec{
		{
			ID:         "account.full_number",
			Pattern:    `(?i)\b(?:a/c|acct|account)(?:\s*(?:no|number|num))?\.?\s*[:\-]?\s*(?P<value>\d{9,18})\b`,
			Confidence: 95,
		},
		{
			ID:         "account.masked_suffix",
			Pattern:    `(?i)[x*]{2,}[\s\-]?(?P<value>\d{3,6})\b`,
			Confidence: 90,
		},
		{
			ID:         "account.ending_suffix",
			Pattern:    `(?i)\bending(?:\s+(?:in|with))?\s*[:\-]?\s*(?P<value>\d{3,6})\b`,
			Confidence: 85,
		},
		{
			ID:         "account.card_suffix",
			Pattern:    `(?i)\bcard(?:\s+(?:no|number))?\.?\s*[:\-]?\s*(?P<value>\d{4})\b`,
			Confidence: 80,
		},
	}
}

// DefaultDateRules returns the built-in occurred-at table.
func DefaultDateRules() []models.RuleSpec {
	return []models.RuleSpec{
		{
			ID:         "date.iso",
			Pattern:    `\b(?P<value>\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}(?::\d{2})?)?)\b`,
			Confidence: 92,
		},
		{
			ID:         "date.day_month_name",
			Pattern:    `(?i)\b(?P<value>\d{1,2}[\s\-](?:` + MonthPattern + `)[a-z]*[\s\-,]+\d{2,4})\b`,
			Confidence: 90,
		},
		{
			ID:         "date.numeric_dmy",
			Pattern:    `\b(?P<value>\d{1,2}[/\-.]\d{1,2}[/\-.](?:\d{4}|\d{2}))\b`,
			Confidence: 85,
		},
	}
}

// DefaultRuleSpecs returns every built-in table keyed by field.
func DefaultRuleSpecs() map[models.FieldName][]models.RuleSpec {
	return map[models.FieldName][]models.RuleSpec{
		models.FieldAmount:      DefaultAmountRules(),
		models.FieldDescription: DefaultDescriptionRules(),
		models.FieldAccount:     DefaultAccountRules(),
		models.FieldDate:        DefaultDateRules(),
	}
}

var defaultTables = compileDefaultTables()

func compileDefaultTables() map[models.FieldName]RuleSet {
	tables := make(map[models.FieldName]RuleSet)
	for field, specs := range DefaultRuleSpecs() {
		tables[field] = MustCompileRules(specs)
	}
	return tables
}
