package rules

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"golang-alert-ingestion-service/internal/extraction"
	"golang-alert-ingestion-service/internal/models"
)

func TestDefaultRegistry_Match(t *testing.T) {
	registry := DefaultRegistry()
	tests := []struct {
		from     string
		subject  string
		expected string
	}{
		{"HDFC Bank InstaAlerts <alerts@hdfcbank.net>", "You have done a UPI txn. Check details!", "hdfc-upi-debit"},
		{"alerts@hdfcbank.net", "Alert : Update on your HDFC Bank Credit Card", "hdfc-card"},
		{"credit_cards@icicibank.com", "Transaction alert for your ICICI Bank Credit Card", "icici-credit-card"},
		{"alerts@axisbank.com", "Transaction alert on Axis Bank Credit Card no. XX1234", "axis-credit-card"},
		{"donotreply@sbi.co.in", "ATM withdrawal alert", "sbi-atm-withdrawal"},
		{"BankAlerts@kotak.com", "Your account has been credited", "kotak-credit"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			rule, ok := registry.Match(tt.from, tt.subject)
			if !ok {
				t.Fatalf("expected a rule for %q / %q", tt.from, tt.subject)
			}
			if rule.Name != tt.expected {
				t.Errorf("got %v, want %v", rule.Name, tt.expected)
			}
		})
	}
}

func TestDefaultRegistry_UnknownSenderHasNoRule(t *testing.T) {
	registry := DefaultRegistry()

	for _, tt := range []struct{ from, subject string }{
		{"promo@randomshop.com", "Weekend sale"},
		{"noreply@unknownbank.com", "Transaction update"},
		{"", ""},
	} {
		if rule, ok := registry.Match(tt.from, tt.subject); ok {
			t.Errorf("Match(%q, %q) = %s, want no rule", tt.from, tt.subject, rule.Name)
		}
	}

	rule, ok := registry.Get("generic-inr")
	if !ok || !rule.IsCatchAll() {
		t.Error("expected generic-inr to stay available by name")
	}
}

func TestRegistry_NoCatchAll(t *testing.T) {
	registry, err := NewRegistry(models.SenderRule{Name: "only", SenderAddress: "a@bank.com"})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if _, ok := registry.Match("b@bank.com", ""); ok {
		t.Error("expected no rule for an unknown sender")
	}
	if _, ok := registry.Get("ONLY"); !ok {
		t.Error("expected case-insensitive Get")
	}
}

func TestNewRegistry_Errors(t *testing.T) {
	if _, err := NewRegistry(models.SenderRule{Name: "a"}, models.SenderRule{Name: "A"}); err == nil {
		t.Error("expected duplicate name error")
	}
	if _, err := NewRegistry(models.SenderRule{}); err == nil {
		t.Error("expected validation error for unnamed rule")
	}
}

func TestRegistry_Merge(t *testing.T) {
	base := DefaultRegistry()
	custom := models.SenderRule{Name: "generic-inr", DefaultCurrency: "USD"}
	extra := models.SenderRule{Name: "my-bank", SenderAddress: "@mybank.com"}

	merged, err := base.Merge(custom, extra)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	if merged.Len() != base.Len()+1 {
		t.Errorf("merged length = %d, want %d", merged.Len(), base.Len()+1)
	}
	all := merged.All()
	if all[0].Name != "generic-inr" || all[1].Name != "my-bank" {
		t.Errorf("loaded rules should come first, got %s, %s", all[0].Name, all[1].Name)
	}
	if rule, _ := merged.Get("generic-inr"); rule.DefaultCurrency != "USD" {
		t.Errorf("expected replaced rule, got currency %s", rule.DefaultCurrency)
	}
	if rule, _ := base.Get("generic-inr"); rule.DefaultCurrency != "INR" {
		t.Error("Merge modified the receiver")
	}
}

func TestBuiltinRules_CompileWithExtractor(t *testing.T) {
	ex, err := extraction.NewExtractor(extraction.DefaultConfig())
	if err != nil {
		t.Fatalf("NewExtractor() error = %v", err)
	}
	for _, rule := range DefaultRegistry().All() {
		if _, err := ex.ForSender(rule); err != nil {
			t.Errorf("rule %s: %v", rule.Name, err)
		}
	}
}

func TestBuiltinRules_Extraction(t *testing.T) {
	ex, err := extraction.NewExtractor(extraction.DefaultConfig())
	if err != nil {
		t.Fatalf("NewExtractor() error = %v", err)
	}
	registry := DefaultRegistry()
	received := time.Date(2024, 3, 12, 20, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		rule        string
		text        string
		amount      string
		description string
		account     string
		direction   models.Direction
	}{
		{
			name:        "hdfc upi",
			rule:        "hdfc-upi-debit",
			text:        "Dear Customer, Rs.250.00 has been debited from account **1234 to VPA swiggy@icici SWIGGY on 12-03-24. Your UPI transaction reference number is 412345678901. Warm Regards, HDFC Bank",
			amount:      "250",
			description: "swiggy@icici SWIGGY",
			account:     "1234",
			direction:   models.DirectionDebit,
		},
		{
			name:        "sbi atm",
			rule:        "sbi-atm-withdrawal",
			text:        "Dear Customer, Rs.2,000 withdrawn at ATM-SBIN0001234 from A/c XX5678 on 12Mar24. Avl Bal Rs.10,000. -SBI",
			amount:      "2000",
			description: "ATM-SBIN0001234",
			account:     "5678",
			direction:   models.DirectionDebit,
		},
		{
			name:        "kotak credit overrides keyword vote",
			rule:        "kotak-credit",
			text:        "Rs.1,500.00 is credited to your Kotak Bank a/c XX4321 from RAVI KUMAR on 12-03-2024. The amount was sent via IMPS",
			amount:      "1500",
			description: "RAVI KUMAR",
			account:     "4321",
			direction:   models.DirectionCredit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := registry.Get(tt.rule)
			if !ok {
				t.Fatalf("rule %s not found", tt.rule)
			}
			senderEx, err := ex.ForSender(rule)
			if err != nil {
				t.Fatalf("ForSender() error = %v", err)
			}

			basics := senderEx.Extract(tt.text, received)
			if !basics.Amount.Value.Equal(decimal.RequireFromString(tt.amount)) {
				t.Errorf("amount = %v, want %v", basics.Amount.Value, tt.amount)
			}
			if basics.Description.Value != tt.description {
				t.Errorf("description = %q, want %q", basics.Description.Value, tt.description)
			}
			if basics.Account.Value != tt.account {
				t.Errorf("account = %q, want %q", basics.Account.Value, tt.account)
			}
			if basics.Direction.Value != tt.direction {
				t.Errorf("direction = %v, want %v", basics.Direction.Value, tt.direction)
			}
			if basics.Currency.Value != "INR" {
				t.Errorf("currency = %v, want INR", basics.Currency.Value)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := `sender_rules:
  - name: my-bank
    sender_address: "@mybank.com"
    subject_patterns:
      - "debit alert"
    fixed_direction: DR
    default_currency: usd
    extraction_overrides:
      amount:
        - id: mybank.amount
          pattern: '(?i)Debit of USD (?P<value>[\d,.]+)'
          confidence: 97
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(loaded))
	}

	rule := loaded[0]
	if rule.Name != "my-bank" || rule.SenderAddress != "@mybank.com" {
		t.Errorf("unexpected rule %+v", rule)
	}
	if rule.FixedDirection == nil || *rule.FixedDirection != models.DirectionDebit {
		t.Errorf("fixed direction = %v, want DEBIT", rule.FixedDirection)
	}
	if rule.DefaultCurrency != "USD" {
		t.Errorf("default currency = %v, want USD", rule.DefaultCurrency)
	}
	specs := rule.Overrides(models.FieldAmount)
	if len(specs) != 1 || specs[0].ID != "mybank.amount" || specs[0].Confidence != 97 {
		t.Errorf("unexpected overrides %+v", specs)
	}

	registry, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry() error = %v", err)
	}
	matched, ok := registry.Match("alerts@mybank.com", "Debit alert")
	if !ok || matched.Name != "my-bank" {
		t.Errorf("expected my-bank to match, got %v", matched)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	content := "sender_rules:\n  - name: broken\n    fixed_direction: sideways\n"
	if err := os.WriteFile(bad, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write rules file: %v", err)
	}
	if _, err := LoadFile(bad); err == nil {
		t.Error("expected error for invalid direction")
	}

	registry, err := LoadRegistry("")
	if err != nil {
		t.Fatalf("LoadRegistry(\"\") error = %v", err)
	}
	if registry.Len() != len(BuiltinRules()) {
		t.Errorf("expected built-in rules only, got %d", registry.Len())
	}
}
