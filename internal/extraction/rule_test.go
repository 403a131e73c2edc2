package extraction

import (
	"testing"

	"golang-alert-ingestion-service/internal/models"
)

func TestCompileRules(t *testing.T) {
	tests := []struct {
		name      string
		specs     []models.RuleSpec
		wantError bool
	}{
		{"valid named group", []models.RuleSpec{{ID: "a", Pattern: `(?P<value>\d+)`, Confidence: 50}}, false},
		{"valid positional group", []models.RuleSpec{{ID: "a", Pattern: `amt (\d+)`, Confidence: 50}}, false},
		{"empty id", []models.RuleSpec{{Pattern: `(\d+)`, Confidence: 50}}, true},
		{"duplicate id", []models.RuleSpec{{ID: "a", Pattern: `(\d+)`, Confidence: 50}, {ID: "a", Pattern: `(\w+)`, Confidence: 40}}, true},
		{"confidence too low", []models.RuleSpec{{ID: "a", Pattern: `(\d+)`, Confidence: 0}}, true},
		{"confidence too high", []models.RuleSpec{{ID: "a", Pattern: `(\d+)`, Confidence: 101}}, true},
		{"bad regex", []models.RuleSpec{{ID: "a", Pattern: `(\d+`, Confidence: 50}}, true},
		{"no capture group", []models.RuleSpec{{ID: "a", Pattern: `\d+`, Confidence: 50}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileRules(tt.specs)
			if (err != nil) != tt.wantError {
				t.Errorf("CompileRules() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestRule_FindAndExclude(t *testing.T) {
	rules := MustCompileRules([]models.RuleSpec{
		{ID: "by", Pattern: `by (\w+)`, Confidence: 60, Exclude: []string{" You "}},
	})

	m, ok := rules[0].find("paid by you")
	if !ok || m.Value != "you" {
		t.Fatalf("find() = %+v, %v", m, ok)
	}
	if !rules[0].Excludes("YOU") {
		t.Error("expected exclusion to be case-insensitive")
	}

	got := firstMatch(rules, "paid by you", func(_ Rule, m match) (string, bool) { return m.Value, true })
	if got.Present {
		t.Errorf("expected excluded value to make the rule fail, got %q", got.Value)
	}
}

func TestDefaultTablesCompile(t *testing.T) {
	for field, specs := range DefaultRuleSpecs() {
		rules, err := CompileRules(specs)
		if err != nil {
			t.Errorf("%s table: %v", field, err)
		}
		for i := 1; i < len(rules); i++ {
			if rules[i].Confidence > rules[i-1].Confidence {
				t.Errorf("%s table is not in priority order at %s", field, rules[i].ID)
			}
		}
	}
}

func TestField(t *testing.T) {
	absent := Absent[string]()
	if absent.OrElse("x") != "x" {
		t.Errorf("OrElse() = %v, want x", absent.OrElse("x"))
	}
	if absent.IsHighConfidence(1) {
		t.Error("absent field cannot be high confidence")
	}

	found := Found("AMAZON", 90, "description.at")
	if found.OrElse("x") != "AMAZON" {
		t.Errorf("OrElse() = %v, want AMAZON", found.OrElse("x"))
	}
	if !found.IsHighConfidence(80) || found.IsHighConfidence(95) {
		t.Error("unexpected IsHighConfidence result")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantError bool
	}{
		{"default", func(c *Config) {}, false},
		{"no credit keywords", func(c *Config) { c.CreditKeywords = nil }, true},
		{"no debit keywords", func(c *Config) { c.DebitKeywords = nil }, true},
		{"zero description length", func(c *Config) { c.MaxDescriptionLength = 0 }, true},
		{"tie confidence out of range", func(c *Config) { c.DirectionTieConfidence = 0 }, true},
		{"bad currency", func(c *Config) { c.DefaultCurrency = "RUPEES" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestConfig_Clone(t *testing.T) {
	original := DefaultConfig()
	clone := original.Clone()

	clone.CreditKeywords[0] = "changed"
	clone.CurrencyAliases["XYZ"] = "XYZ"

	if original.CreditKeywords[0] == "changed" {
		t.Error("clone shares keyword slice with original")
	}
	if _, ok := original.CurrencyAliases["XYZ"]; ok {
		t.Error("clone shares currency map with original")
	}
	if (*Config)(nil).Clone() != nil {
		t.Error("expected nil clone of nil config")
	}
}
