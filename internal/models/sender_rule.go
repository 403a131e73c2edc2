package models

import (
	"fmt"
	"regexp"
	"strings"
)

// RuleSpec is the declarative form of one extraction rule. Pattern must
// contain a named group "value" (or at least one capture group).
type RuleSpec struct {
	ID         string   `json:"id" mapstructure:"id"`
	Pattern    string   `json:"pattern" mapstructure:"pattern"`
	Confidence int      `json:"confidence" mapstructure:"confidence"`
	Exclude    []string `json:"exclude,omitempty" mapstructure:"exclude"`
}

// SenderRule configures extraction for one sender. Overrides are tried ahead
// of the default rule tables for the same field.
type SenderRule struct {
	Name                string                   `json:"name"`
	SenderAddress       string                   `json:"sender_address,omitempty"`
	SubjectPatterns     []string                 `json:"subject_patterns,omitempty"`
	FixedDirection      *Direction               `json:"fixed_direction,omitempty"`
	ExtractionOverrides map[FieldName][]RuleSpec `json:"extraction_overrides,omitempty"`
	DefaultCurrency     string                   `json:"default_currency,omitempty"`
}

// Validate checks that the rule is usable
func (r *SenderRule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("sender rule name cannot be empty")
	}

	if r.FixedDirection != nil && !r.FixedDirection.IsValid() {
		return fmt.Errorf("sender rule %s: invalid fixed direction %q", r.Name, *r.FixedDirection)
	}

	for _, pattern := range r.SubjectPatterns {
		if _, err := regexp.Compile("(?i)" + pattern); err != nil {
			return fmt.Errorf("sender rule %s: invalid subject pattern %q: %w", r.Name, pattern, err)
		}
	}

	for field, specs := range r.ExtractionOverrides {
		if !field.IsValid() || field == FieldDirection {
			return fmt.Errorf("sender rule %s: cannot override field %q", r.Name, field)
		}
		for _, spec := range specs {
			if strings.TrimSpace(spec.ID) == "" {
				return fmt.Errorf("sender rule %s: override for %s has no id", r.Name, field)
			}
		}
	}

	if r.DefaultCurrency != "" && len(r.DefaultCurrency) != 3 {
		return fmt.Errorf("sender rule %s: default currency must be a 3-letter code", r.Name)
	}

	return nil
}

// Matches reports whether a message from the given sender with the given
// subject is covered by this rule. An address starting with "@" matches the
// whole domain. An empty address or empty subject patterns match anything,
// but a catch-all rule with neither never matches: it applies only when
// selected by name.
func (r *SenderRule) Matches(from, subject string) bool {
	if r.IsCatchAll() {
		return false
	}
	if r.SenderAddress != "" {
		address := strings.ToLower(strings.TrimSpace(r.SenderAddress))
		sender := strings.ToLower(extractAddress(from))
		if strings.HasPrefix(address, "@") {
			if !strings.HasSuffix(sender, address) {
				return false
			}
		} else if sender != address {
			return false
		}
	}

	if len(r.SubjectPatterns) == 0 {
		return true
	}
	for _, pattern := range r.SubjectPatterns {
		if ok, err := regexp.MatchString("(?i)"+pattern, subject); err == nil && ok {
			return true
		}
	}
	return false
}

// IsCatchAll reports whether the rule names no sender and no subject
func (r *SenderRule) IsCatchAll() bool {
	return strings.TrimSpace(r.SenderAddress) == "" && len(r.SubjectPatterns) == 0
}

// Overrides returns the override specs for a field
func (r *SenderRule) Overrides(field FieldName) []RuleSpec {
	if r == nil || r.ExtractionOverrides == nil {
		return nil
	}
	return r.ExtractionOverrides[field]
}

// extractAddress pulls the address out of `Name <addr@host>` forms.
func extractAddress(from string) string {
	from = strings.TrimSpace(from)
	if start := strings.LastIndex(from, "<"); start >= 0 {
		if end := strings.LastIndex(from, ">"); end > start {
			return strings.TrimSpace(from[start+1 : end])
		}
	}
	return from
}
