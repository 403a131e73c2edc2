package extraction

import (
	"fmt"
	"regexp"
	"strings"

	"golang-alert-ingestion-service/internal/models"
	"golang-alert-ingestion-service/pkg/errors"
)

const (
	valueGroup    = "value"
	currencyGroup = "currency"
)

// Rule is a compiled extraction rule. Its confidence is a static weight: the
// first rule that matches wins and reports that weight.
type Rule struct {
	ID         string
	Pattern    *regexp.Regexp
	Confidence int
	Exclude    []string

	valueIdx    []int
	currencyIdx []int
}

// RuleSet is an ordered rule table; earlier rules are tried first.
type RuleSet []Rule

// match holds the captured groups of one rule hit.
type match struct {
	Value    string
	Currency string
	Start    int
}

// IDs returns the rule ids in evaluation order.
func (rs RuleSet) IDs() []string {
	ids := make([]string, len(rs))
	for i, r := range rs {
		ids[i] = r.ID
	}
	return ids
}

// CompileRules compiles declarative rule specs into a RuleSet. Every pattern
// needs a "value" group or at least one capture group.
func CompileRules(specs []models.RuleSpec) (RuleSet, error) {
	rules := make(RuleSet, 0, len(specs))
	seen := make(map[string]bool, len(specs))

	for _, spec := range specs {
		id := strings.TrimSpace(spec.ID)
		if id == "" {
			return nil, errors.ExtractionError(errors.CodeInvalidRule, spec.Pattern,
				fmt.Errorf("rule id cannot be empty"))
		}
		if seen[id] {
			return nil, errors.ExtractionError(errors.CodeInvalidRule, id,
				fmt.Errorf("duplicate rule id"))
		}
		seen[id] = true

		if spec.Confidence < 1 || spec.Confidence > 100 {
			return nil, errors.ExtractionError(errors.CodeInvalidRule, id,
				fmt.Errorf("confidence must be between 1 and 100: %d", spec.Confidence))
		}

		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, errors.ExtractionError(errors.CodeInvalidRule, id, err)
		}

		rule := Rule{
			ID:          id,
			Pattern:     re,
			Confidence:  spec.Confidence,
			Exclude:     normalizeWords(spec.Exclude),
			valueIdx:    groupIndexes(re, valueGroup),
			currencyIdx: groupIndexes(re, currencyGroup),
		}
		if len(rule.valueIdx) == 0 {
			if re.NumSubexp() == 0 {
				return nil, errors.ExtractionError(errors.CodeInvalidRule, id,
					fmt.Errorf("pattern has no capture group"))
			}
			rule.valueIdx = []int{1}
		}

		rules = append(rules, rule)
	}

	return rules, nil
}

// MustCompileRules is like CompileRules but panics on error. Used for the
// built-in tables.
func MustCompileRules(specs []models.RuleSpec) RuleSet {
	rules, err := CompileRules(specs)
	if err != nil {
		panic(err)
	}
	return rules
}

// find returns the first hit of the rule in text.
func (r Rule) find(text string) (match, bool) {
	hits := r.findAll(text)
	if len(hits) == 0 {
		return match{}, false
	}
	return hits[0], true
}

// findAll returns every non-empty hit of the rule in text order.
func (r Rule) findAll(text string) []match {
	var hits []match
	for _, loc := range r.Pattern.FindAllStringSubmatchIndex(text, -1) {
		groups := make([]string, len(loc)/2)
		for i := range groups {
			if loc[2*i] >= 0 {
				groups[i] = text[loc[2*i]:loc[2*i+1]]
			}
		}

		m := match{
			Value:    firstGroup(groups, r.valueIdx),
			Currency: firstGroup(groups, r.currencyIdx),
			Start:    loc[0],
		}
		if strings.TrimSpace(m.Value) != "" {
			hits = append(hits, m)
		}
	}
	return hits
}

// Excludes reports whether value equals one of the rule's excluded words.
func (r Rule) Excludes(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, word := range r.Exclude {
		if v == word {
			return true
		}
	}
	return false
}

// firstMatch evaluates rules in order and returns the first hit that
// survives parse. Later hits of a rule are tried before the next rule.
func firstMatch[T any](rules RuleSet, text string, parse func(Rule, match) (T, bool)) Field[T] {
	for _, rule := range rules {
		for _, m := range rule.findAll(text) {
			if rule.Excludes(m.Value) {
				continue
			}
			if value, ok := parse(rule, m); ok {
				return Found(value, rule.Confidence, rule.ID)
			}
		}
	}
	return Absent[T]()
}

func groupIndexes(re *regexp.Regexp, name string) []int {
	var idx []int
	for i, n := range re.SubexpNames() {
		if n == name {
			idx = append(idx, i)
		}
	}
	return idx
}

func firstGroup(groups []string, idx []int) string {
	for _, i := range idx {
		if i < len(groups) && groups[i] != "" {
			return groups[i]
		}
	}
	return ""
}

func normalizeWords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}
