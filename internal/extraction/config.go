package extraction

import (
	"fmt"
	"strings"
)

// Config holds the keyword lists and thresholds used by the extractor.
// Nothing in this package reads global state; every table comes from here.
type Config struct {
	// CreditKeywords and DebitKeywords are matched as whole words,
	// case-insensitively, by the direction classifier.
	CreditKeywords []string `json:"credit_keywords" mapstructure:"credit_keywords"`
	DebitKeywords  []string `json:"debit_keywords" mapstructure:"debit_keywords"`

	// FooterMarkers truncate a captured description at their first
	// occurrence. StopLabels truncate it at the next field label.
	FooterMarkers []string `json:"footer_markers" mapstructure:"footer_markers"`
	StopLabels    []string `json:"stop_labels" mapstructure:"stop_labels"`

	// BalanceMarkers disqualify an amount hit when they appear earlier in
	// the same clause, so "Avl Bal Rs 10,000" is never the transaction.
	BalanceMarkers []string `json:"balance_markers" mapstructure:"balance_markers"`

	MaxDescriptionLength int `json:"max_description_length" mapstructure:"max_description_length"`

	// HighConfidence is the threshold for Field.IsHighConfidence in reports.
	HighConfidence int `json:"high_confidence" mapstructure:"high_confidence"`

	DefaultCurrency           string `json:"default_currency" mapstructure:"default_currency"`
	DefaultCurrencyConfidence int    `json:"default_currency_confidence" mapstructure:"default_currency_confidence"`
	SenderCurrencyConfidence  int    `json:"sender_currency_confidence" mapstructure:"sender_currency_confidence"`

	// CurrencyAliases maps an upper-cased currency token (dots removed) to
	// its ISO code.
	CurrencyAliases map[string]string `json:"currency_aliases" mapstructure:"currency_aliases"`

	DirectionVoteConfidence int `json:"direction_vote_confidence" mapstructure:"direction_vote_confidence"`
	DirectionTieConfidence  int `json:"direction_tie_confidence" mapstructure:"direction_tie_confidence"`
}

// DefaultConfig returns the configuration used for Indian bank alerts
func DefaultConfig() *Config {
	return &Config{
		CreditKeywords: []string{
			"credited", "received", "deposited", "refund", "refunded",
			"cashback", "reversal", "reversed",
		},
		DebitKeywords: []string{
			"debited", "spent", "withdrawn", "withdrawal", "paid",
			"purchase", "charged", "sent",
		},
		FooterMarkers: []string{
			"Regards", "Customer Service", "Customer Care", "***",
			"Thank you", "Thanks for", "Not you?", "If you have not",
			"This is a system", "This is an automatically",
			"Avl Bal", "Available Balance", "Avl Limit", "Available Limit",
			"Call us",
		},
		StopLabels: []string{
			"Date:", "Date :", "Txn Date", "Time:", "Card No", "Card Number",
			"Amount:", "Transaction Amount", "Ref No", "Reference No",
			"Account No", "A/c No", "Balance:",
		},
		BalanceMarkers: []string{
			"Avl Bal", "Avbl Bal", "Available Balance", "Balance:", "Bal:",
			"Avl Limit", "Available Limit", "Available Credit Limit",
		},
		MaxDescriptionLength:      80,
		HighConfidence:            80,
		DefaultCurrency:           "INR",
		DefaultCurrencyConfidence: 40,
		SenderCurrencyConfidence:  60,
		CurrencyAliases: map[string]string{
			"INR":    "INR",
			"RS":     "INR",
			"\u20b9": "INR",
			"USD":    "USD",
			"US$":    "USD",
			"$":      "USD",
			"EUR":    "EUR",
			"\u20ac": "EUR",
			"GBP":    "GBP",
			"\u00a3": "GBP",
			"AED":    "AED",
			"SGD":    "SGD",
		},
		DirectionVoteConfidence: 85,
		DirectionTieConfidence:  40,
	}
}

// Validate checks if the extraction configuration is valid
func (c *Config) Validate() error {
	if len(c.CreditKeywords) == 0 {
		return fmt.Errorf("credit keywords cannot be empty")
	}
	if len(c.DebitKeywords) == 0 {
		return fmt.Errorf("debit keywords cannot be empty")
	}

	if c.MaxDescriptionLength <= 0 {
		return fmt.Errorf("max description length must be positive: %d", c.MaxDescriptionLength)
	}

	for name, value := range map[string]int{
		"high confidence":             c.HighConfidence,
		"default currency confidence": c.DefaultCurrencyConfidence,
		"sender currency confidence":  c.SenderCurrencyConfidence,
		"direction vote confidence":   c.DirectionVoteConfidence,
		"direction tie confidence":    c.DirectionTieConfidence,
	} {
		if value < 1 || value > 100 {
			return fmt.Errorf("%s must be between 1 and 100: %d", name, value)
		}
	}

	if len(strings.TrimSpace(c.DefaultCurrency)) != 3 {
		return fmt.Errorf("default currency must be a 3-letter code: %q", c.DefaultCurrency)
	}

	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	clone := *c
	clone.CreditKeywords = append([]string(nil), c.CreditKeywords...)
	clone.DebitKeywords = append([]string(nil), c.DebitKeywords...)
	clone.FooterMarkers = append([]string(nil), c.FooterMarkers...)
	clone.StopLabels = append([]string(nil), c.StopLabels...)
	clone.BalanceMarkers = append([]string(nil), c.BalanceMarkers...)
	clone.CurrencyAliases = make(map[string]string, len(c.CurrencyAliases))
	for k, v := range c.CurrencyAliases {
		clone.CurrencyAliases[k] = v
	}
	return &clone
}

// String returns a short summary of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("ExtractionConfig{Credit: %d keywords, Debit: %d keywords, Footers: %d, MaxDesc: %d, Currency: %s}",
		len(c.CreditKeywords), len(c.DebitKeywords), len(c.FooterMarkers), c.MaxDescriptionLength, c.DefaultCurrency)
}

// currencyCode maps a captured token to an ISO code.
func (c *Config) currencyCode(token string) (string, bool) {
	key := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(token), ".", ""))
	if key == "" {
		return "", false
	}
	if code, ok := c.CurrencyAliases[key]; ok {
		return code, true
	}
	if len(key) == 3 && isUpperASCII(key) {
		return key, true
	}
	return "", false
}

func isUpperASCII(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
