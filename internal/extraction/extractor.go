// Package extraction implements the confidence-scored pattern engine that
// pulls amount, currency, description, account identifier, date and
// direction out of normalized alert text.
//
// Every field is driven by an ordered rule table. Rules are tried in order
// and the first one that matches and survives validation wins; its static
// confidence becomes the field's confidence. Sender rules can prepend their
// own overrides to any table.
//
// Example usage:
//
//	ex, err := extraction.NewExtractor(extraction.DefaultConfig())
//	senderEx, err := ex.ForSender(rule)
//	basics := senderEx.Extract(text, msg.ReceivedAt)
package extraction

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"golang-alert-ingestion-service/internal/models"
	"golang-alert-ingestion-service/pkg/errors"
)

// Extractor runs the rule tables over normalized text. It is safe for
// concurrent use.
type Extractor struct {
	config        *Config
	base          map[models.FieldName]RuleSet
	tables        map[models.FieldName]RuleSet
	classifier    *DirectionClassifier
	sender        *models.SenderRule
	footerMarkers []string
	stopLabels    []string

	parent  *Extractor
	mu      sync.Mutex
	senders map[*models.SenderRule]*Extractor
}

// NewExtractor creates an extractor with the built-in rule tables.
func NewExtractor(config *Config) (*Extractor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "extraction", config.String(), err)
	}

	config = config.Clone()
	return &Extractor{
		config:        config,
		base:          defaultTables,
		tables:        defaultTables,
		classifier:    NewDirectionClassifier(config),
		footerMarkers: nonEmpty(config.FooterMarkers),
		stopLabels:    nonEmpty(config.StopLabels),
		senders:       make(map[*models.SenderRule]*Extractor),
	}, nil
}

// Config returns a copy of the extractor configuration.
func (e *Extractor) Config() *Config {
	return e.config.Clone()
}

// Sender returns the sender rule this extractor was specialized for, or nil.
func (e *Extractor) Sender() *models.SenderRule {
	return e.sender
}

// Rules returns the rule table used for a field, overrides first.
func (e *Extractor) Rules(field models.FieldName) RuleSet {
	return e.tables[field]
}

// ForSender returns an extractor whose tables start with the sender's
// overrides. The result is cached per rule.
func (e *Extractor) ForSender(rule *models.SenderRule) (*Extractor, error) {
	if rule == nil {
		return e, nil
	}

	root := e.root()
	root.mu.Lock()
	defer root.mu.Unlock()
	if cached, ok := root.senders[rule]; ok {
		return cached, nil
	}

	if err := rule.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "sender_rules."+rule.Name, rule.Name, err)
	}

	tables := make(map[models.FieldName]RuleSet, len(root.base)+1)
	for field, rules := range root.base {
		tables[field] = rules
	}
	for field, specs := range rule.ExtractionOverrides {
		overrides, err := CompileRules(specs)
		if err != nil {
			return nil, errors.WrapIfNeeded(err, errors.CategoryExtraction, errors.CodeInvalidRule,
				fmt.Sprintf("sender rule %s", rule.Name)).WithContext("sender_rule", rule.Name)
		}
		combined := make(RuleSet, 0, len(overrides)+len(root.base[field]))
		combined = append(combined, overrides...)
		combined = append(combined, root.base[field]...)
		tables[field] = combined
	}

	derived := &Extractor{
		config:        root.config,
		base:          root.base,
		tables:        tables,
		classifier:    root.classifier,
		sender:        rule,
		footerMarkers: root.footerMarkers,
		stopLabels:    root.stopLabels,
		parent:        root,
	}
	root.senders[rule] = derived
	return derived, nil
}

// ExtractAmount returns the first positive amount matched by the amount
// table, ignoring balance and limit figures.
func (e *Extractor) ExtractAmount(text string) Field[decimal.Decimal] {
	amount, _ := e.extractAmount(text)
	return amount
}

func (e *Extractor) extractAmount(text string) (Field[decimal.Decimal], string) {
	var token string
	amount := firstMatch(e.tables[models.FieldAmount], text, func(_ Rule, m match) (decimal.Decimal, bool) {
		if e.isBalance(text, m.Start) {
			return decimal.Zero, false
		}
		value, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(m.Value), ",", ""))
		if err != nil || !value.IsPositive() {
			return decimal.Zero, false
		}
		token = m.Currency
		return value, true
	})
	return amount, token
}

// clauseBreaks end the clause a balance marker can apply to
var clauseBreaks = []string{". ", "; ", ", ", "! ", "? "}

// isBalance reports whether a balance marker precedes start in its clause
func (e *Extractor) isBalance(text string, start int) bool {
	clause := text[:start]
	for _, sep := range clauseBreaks {
		if i := strings.LastIndex(clause, sep); i >= 0 {
			clause = clause[i+len(sep):]
		}
	}
	clause = strings.ToLower(clause)
	for _, marker := range e.config.BalanceMarkers {
		if marker = strings.ToLower(strings.TrimSpace(marker)); marker != "" && strings.Contains(clause, marker) {
			return true
		}
	}
	return false
}

// ExtractCurrency returns the ISO code of the amount's currency token,
// falling back to the sender default and then the configured default.
func (e *Extractor) ExtractCurrency(text string) Field[string] {
	if currency := firstMatch(e.tables[models.FieldCurrency], text, func(_ Rule, m match) (string, bool) {
		return e.config.currencyCode(m.Value)
	}); currency.Present {
		return currency
	}

	amount, token := e.extractAmount(text)
	if code, ok := e.config.currencyCode(token); ok && amount.Present {
		return Found(code, amount.Confidence, RuleCurrencyToken)
	}

	if e.sender != nil && e.sender.DefaultCurrency != "" {
		return Found(strings.ToUpper(e.sender.DefaultCurrency), e.config.SenderCurrencyConfidence, RuleCurrencySenderDefault)
	}

	return Found(strings.ToUpper(e.config.DefaultCurrency), e.config.DefaultCurrencyConfidence, RuleCurrencyDefault)
}

// ExtractDescription returns the cleaned merchant or counterparty text.
func (e *Extractor) ExtractDescription(text string) Field[string] {
	return firstMatch(e.tables[models.FieldDescription], text, func(rule Rule, m match) (string, bool) {
		cleaned := e.cleanDescription(m.Value)
		if cleaned == "" || rule.Excludes(cleaned) {
			return "", false
		}
		return cleaned, true
	})
}

// ExtractAccountIdentifier returns the account number or suffix digits.
func (e *Extractor) ExtractAccountIdentifier(text string) Field[string] {
	return firstMatch(e.tables[models.FieldAccount], text, func(_ Rule, m match) (string, bool) {
		digits := models.OnlyDigits(m.Value)
		return digits, digits != ""
	})
}

// ExtractDate returns the transaction date found in the text, or fallback
// with a low confidence. A zero fallback yields an absent field.
func (e *Extractor) ExtractDate(text string, fallback time.Time) Field[time.Time] {
	loc := time.UTC
	if !fallback.IsZero() {
		loc = fallback.Location()
	}

	if date := firstMatch(e.tables[models.FieldDate], text, func(_ Rule, m match) (time.Time, bool) {
		return parseDate(m.Value, loc)
	}); date.Present {
		return date
	}

	if fallback.IsZero() {
		return Absent[time.Time]()
	}
	return Found(fallback, receivedAtConfidence, RuleDateReceivedAt)
}

// ClassifyDirection applies the sender's fixed direction when set, and the
// keyword vote otherwise.
func (e *Extractor) ClassifyDirection(text string) Field[models.Direction] {
	if e.sender != nil && e.sender.FixedDirection != nil {
		return Found(*e.sender.FixedDirection, 100, RuleDirectionSender)
	}
	return e.classifier.Classify(text)
}

// Votes exposes the keyword counts behind ClassifyDirection.
func (e *Extractor) Votes(text string) Votes {
	return e.classifier.Votes(text)
}

// Extract runs every table over the text.
func (e *Extractor) Extract(text string, receivedAt time.Time) Basics {
	return Basics{
		Amount:      e.ExtractAmount(text),
		Currency:    e.ExtractCurrency(text),
		Description: e.ExtractDescription(text),
		Account:     e.ExtractAccountIdentifier(text),
		OccurredAt:  e.ExtractDate(text, receivedAt),
		Direction:   e.ClassifyDirection(text),
	}
}

func (e *Extractor) root() *Extractor {
	if e.parent != nil {
		return e.parent
	}
	return e
}

const receivedAtConfidence = 50

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
