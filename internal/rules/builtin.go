package rules

import (
	"golang-alert-ingestion-service/internal/extraction"
	"golang-alert-ingestion-service/internal/models"
)

const amountValue = `(?P<value>` + extraction.NumberPattern + `)`

// BuiltinRules returns the sender rules shipped with the service, most
// specific first. Each one is data: addresses, subjects and override tables.
func BuiltinRules() []models.SenderRule {
	debit := models.DirectionDebit
	credit := models.DirectionCredit

	return []models.SenderRule{
		{
			Name:            "hdfc-upi-debit",
			SenderAddress:   "alerts@hdfcbank.net",
			SubjectPatterns: []string{`UPI txn`, `You have done a UPI`},
			FixedDirection:  &debit,
			DefaultCurrency: "INR",
			ExtractionOverrides: map[models.FieldName][]models.RuleSpec{
				models.FieldAmount: {{
					ID:         "hdfc_upi.amount",
					Pattern:    `(?i)(?P<currency>Rs\.?|INR)\s*` + amountValue + `\s+has\s+been\s+debited`,
					Confidence: 97,
				}},
				models.FieldDescription: {{
					ID:         "hdfc_upi.vpa",
					Pattern:    `(?i)\bto\s+VPA\s+(?P<value>[\w.\-]+@[\w.\-]+(?:\s+[A-Z][A-Z0-9 .&]*?)?)(?:\s+on\s|\.\s|$)`,
					Confidence: 96,
				}},
			},
		},
		{
			Name:            "hdfc-card",
			SenderAddress:   "alerts@hdfcbank.net",
			SubjectPatterns: []string{`debit card`, `credit card`, `card transaction`},
			FixedDirection:  &debit,
			DefaultCurrency: "INR",
			ExtractionOverrides: map[models.FieldName][]models.RuleSpec{
				models.FieldAccount: {{
					ID:         "hdfc_card.suffix",
					Pattern:    `(?i)\bcard\s+(?:ending\s+)?[x*]*(?P<value>\d{4})\b`,
					Confidence: 93,
				}},
			},
		},
		{
			Name:            "icici-credit-card",
			SenderAddress:   "@icicibank.com",
			SubjectPatterns: []string{`credit card`},
			FixedDirection:  &debit,
			DefaultCurrency: "INR",
			ExtractionOverrides: map[models.FieldName][]models.RuleSpec{
				models.FieldDescription: {{
					ID:         "icici_cc.merchant",
					Pattern:    `(?i)\bon\s+\d{1,2}-[a-z]{3}-\d{2,4}\s+(?:on|at)\s+(?P<value>.+?)(?:\.\s|\.$|$)`,
					Confidence: 94,
				}},
			},
		},
		{
			Name:            "axis-credit-card",
			SenderAddress:   "@axisbank.com",
			SubjectPatterns: []string{`credit card`, `transaction alert`},
			FixedDirection:  &debit,
			DefaultCurrency: "INR",
			ExtractionOverrides: map[models.FieldName][]models.RuleSpec{
				models.FieldDescription: {{
					ID:         "axis_cc.at_time",
					Pattern:    `(?i)\bat\s+(?P<value>.+?)\s+(?:on|at)\s+\d`,
					Confidence: 93,
				}},
			},
		},
		{
			Name:            "sbi-atm-withdrawal",
			SenderAddress:   "@sbi.co.in",
			SubjectPatterns: []string{`ATM`, `withdrawal`},
			FixedDirection:  &debit,
			DefaultCurrency: "INR",
			ExtractionOverrides: map[models.FieldName][]models.RuleSpec{
				models.FieldDescription: {{
					ID:         "sbi_atm.terminal",
					Pattern:    `(?i)\b(?:at|from)\s+(?P<value>ATM[\w\-/]*)`,
					Confidence: 93,
				}},
			},
		},
		{
			Name:            "kotak-credit",
			SenderAddress:   "@kotak.com",
			SubjectPatterns: []string{`credited`, `credit alert`},
			FixedDirection:  &credit,
			DefaultCurrency: "INR",
			ExtractionOverrides: map[models.FieldName][]models.RuleSpec{
				models.FieldDescription: {{
					ID:         "kotak.remitter",
					Pattern:    `(?i)\bfrom\s+(?P<value>[a-z][\w .&'\-]*?)(?:\s+on\b|\s+via\b|\.\s|\.$|$)`,
					Confidence: 90,
				}},
			},
		},
		// Never matched; select it with --sender for unlabelled INR alerts
		{
			Name:            "generic-inr",
			DefaultCurrency: "INR",
		},
	}
}

// DefaultRegistry returns a registry of the built-in rules.
func DefaultRegistry() *Registry {
	registry, err := NewRegistry(BuiltinRules()...)
	if err != nil {
		panic(err)
	}
	return registry
}
