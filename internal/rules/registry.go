// Package rules holds the per-sender extraction configuration: which sender
// addresses and subjects a rule covers, its fixed direction, its default
// currency and the rule overrides it prepends to the default tables.
package rules

import (
	"fmt"
	"sort"
	"strings"

	"golang-alert-ingestion-service/internal/models"
	"golang-alert-ingestion-service/pkg/errors"
)

// Registry is an ordered set of sender rules. Match walks the rules in
// order and skips catch-all rules, which are only reachable through Get.
type Registry struct {
	ordered []*models.SenderRule
	byName  map[string]*models.SenderRule
}

// NewRegistry validates the rules and builds a registry in the given order.
func NewRegistry(rules ...models.SenderRule) (*Registry, error) {
	r := &Registry{
		ordered: make([]*models.SenderRule, 0, len(rules)),
		byName:  make(map[string]*models.SenderRule, len(rules)),
	}

	for i := range rules {
		rule := rules[i]
		if err := rule.Validate(); err != nil {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "sender_rules", rule.Name, err)
		}
		key := strings.ToLower(rule.Name)
		if _, exists := r.byName[key]; exists {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "sender_rules", rule.Name,
				fmt.Errorf("duplicate sender rule name %q", rule.Name))
		}
		r.byName[key] = &rule
		r.ordered = append(r.ordered, &rule)
	}

	return r, nil
}

// Match returns the first rule covering the sender and subject.
func (r *Registry) Match(from, subject string) (*models.SenderRule, bool) {
	if r == nil {
		return nil, false
	}
	for _, rule := range r.ordered {
		if rule.Matches(from, subject) {
			return rule, true
		}
	}
	return nil, false
}

// Get returns a rule by name, case-insensitively.
func (r *Registry) Get(name string) (*models.SenderRule, bool) {
	if r == nil {
		return nil, false
	}
	rule, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return rule, ok
}

// All returns the rules in match order.
func (r *Registry) All() []*models.SenderRule {
	if r == nil {
		return nil
	}
	return append([]*models.SenderRule(nil), r.ordered...)
}

// Names returns the rule names sorted alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ordered))
	for _, rule := range r.ordered {
		names = append(names, rule.Name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of rules.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.ordered)
}

// Merge returns a registry where the given rules come first and replace any
// existing rule with the same name. The receiver is not modified.
func (r *Registry) Merge(rules ...models.SenderRule) (*Registry, error) {
	replaced := make(map[string]bool, len(rules))
	merged := make([]models.SenderRule, 0, len(rules)+r.Len())
	for _, rule := range rules {
		replaced[strings.ToLower(rule.Name)] = true
		merged = append(merged, rule)
	}
	for _, existing := range r.All() {
		if !replaced[strings.ToLower(existing.Name)] {
			merged = append(merged, *existing)
		}
	}
	return NewRegistry(merged...)
}
