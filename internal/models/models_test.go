package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDirection_IsValid(t *testing.T) {
	tests := []struct {
		direction Direction
		valid     bool
	}{
		{DirectionDebit, true},
		{DirectionCredit, true},
		{"INVALID", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.direction), func(t *testing.T) {
			if got := tt.direction.IsValid(); got != tt.valid {
				t.Errorf("Direction.IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		input     string
		expected  Direction
		wantError bool
	}{
		{"DEBIT", DirectionDebit, false},
		{"dr", DirectionDebit, false},
		{" D ", DirectionDebit, false},
		{"credit", DirectionCredit, false},
		{"CR", DirectionCredit, false},
		{"c", DirectionCredit, false},
		{"refund", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDirection(tt.input)
			if (err != nil) != tt.wantError {
				t.Fatalf("ParseDirection() error = %v, wantError %v", err, tt.wantError)
			}
			if got != tt.expected {
				t.Errorf("ParseDirection() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input     string
		expected  string
		wantError bool
	}{
		{"3,480", "3480", false},
		{"Rs.1,23,456.50", "123456.5", false},
		{"₹ 99.00", "99", false},
		{"INR 12", "12", false},
		{"", "", true},
		{"abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if (err != nil) != tt.wantError {
				t.Fatalf("ParseAmount() error = %v, wantError %v", err, tt.wantError)
			}
			if !tt.wantError && !got.Equal(decimal.RequireFromString(tt.expected)) {
				t.Errorf("ParseAmount() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAccountRosterEntry_Suffix(t *testing.T) {
	entry := AccountRosterEntry{ID: "a1", Name: "HDFC Savings", Number: "5010-0012-3456"}

	if got := entry.Digits(); got != "501000123456" {
		t.Errorf("Digits() = %v, want %v", got, "501000123456")
	}
	if got := entry.Suffix(4); got != "3456" {
		t.Errorf("Suffix(4) = %v, want %v", got, "3456")
	}

	short := AccountRosterEntry{ID: "a2", Name: "Cash", Number: "12"}
	if got := short.Suffix(4); got != "" {
		t.Errorf("Suffix(4) on short number = %v, want empty", got)
	}

	if err := (&AccountRosterEntry{ID: "x"}).Validate(); err == nil {
		t.Error("expected validation error for missing name")
	}
}

func TestCandidate_TracksAreDisjoint(t *testing.T) {
	msg := &RawMessage{SourceID: "m-1", ThreadID: "t-1"}
	det := DeterministicFields{
		Amount:    decimal.NewNullDecimal(decimal.NewFromInt(250)),
		Direction: DirectionDebit,
		Currency:  "INR",
	}
	c := NewCandidate(msg, "raw", det)

	enriched := c.WithEnrichment(EnrichmentFields{
		Amount:      decimal.NewNullDecimal(decimal.NewFromInt(999)),
		Description: "Coffee Shop",
		Direction:   DirectionCredit,
		AccountRef:  "acc-9",
	})

	got := enriched.Deterministic()
	if !got.Amount.Decimal.Equal(decimal.NewFromInt(250)) {
		t.Errorf("deterministic amount changed to %v", got.Amount.Decimal)
	}
	if got.Direction != DirectionDebit {
		t.Errorf("deterministic direction changed to %v", got.Direction)
	}
	if got.Description != "" || got.AccountRef != "" {
		t.Errorf("deterministic fields picked up enrichment values: %+v", got)
	}
	if !enriched.HasEnrichment() || c.HasEnrichment() {
		t.Error("WithEnrichment should return a new value and leave the receiver untouched")
	}

	withAccount := enriched.WithAccount("acc-1")
	if withAccount.Enrichment().AccountRef != "acc-9" {
		t.Errorf("enrichment account changed to %v", withAccount.Enrichment().AccountRef)
	}
	if withAccount.Deterministic().AccountRef != "acc-1" {
		t.Errorf("got %v, want %v", withAccount.Deterministic().AccountRef, "acc-1")
	}
}

func TestCandidate_DescriptionPlaceholder(t *testing.T) {
	empty := NewCandidate(nil, "", DeterministicFields{})
	if got := empty.WithDescriptionPlaceholder("Unknown").Deterministic().Description; got != "Unknown" {
		t.Errorf("got %v, want %v", got, "Unknown")
	}

	filled := NewCandidate(nil, "", DeterministicFields{Description: "AMAZON"})
	if got := filled.WithDescriptionPlaceholder("Unknown").Deterministic().Description; got != "AMAZON" {
		t.Errorf("got %v, want %v", got, "AMAZON")
	}
}

func TestCandidate_DedupKey(t *testing.T) {
	if got := NewCandidate(&RawMessage{SourceID: "s", ThreadID: "t"}, "", DeterministicFields{}).DedupKey(); got != "t" {
		t.Errorf("got %v, want %v", got, "t")
	}
	if got := NewCandidate(&RawMessage{SourceID: "s"}, "", DeterministicFields{}).DedupKey(); got != "s" {
		t.Errorf("got %v, want %v", got, "s")
	}
}

func TestCandidate_MarshalJSON(t *testing.T) {
	c := NewCandidate(&RawMessage{SourceID: "m-1", ThreadID: "t-1"}, "raw", DeterministicFields{
		Amount:      decimal.NewNullDecimal(decimal.RequireFromString("3480")),
		Description: "MADHULOKA L",
		Direction:   DirectionDebit,
		OccurredAt:  time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
	}).WithEnrichment(EnrichmentFields{Category: "Groceries"})

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if out["amount"] != "3480" {
		t.Errorf("amount = %v, want %v", out["amount"], "3480")
	}
	if out["description"] != "MADHULOKA L" {
		t.Errorf("description = %v, want %v", out["description"], "MADHULOKA L")
	}
	if out["enriched_category"] != "Groceries" {
		t.Errorf("enriched_category = %v, want %v", out["enriched_category"], "Groceries")
	}
	if out["enriched_amount"] != nil {
		t.Errorf("enriched_amount = %v, want null", out["enriched_amount"])
	}
	if out["occurred_at"] != "2024-03-12T00:00:00Z" {
		t.Errorf("occurred_at = %v", out["occurred_at"])
	}
}

func TestSenderRule_Matches(t *testing.T) {
	debit := DirectionDebit
	tests := []struct {
		name    string
		rule    SenderRule
		from    string
		subject string
		want    bool
	}{
		{
			name:    "exact address and subject",
			rule:    SenderRule{Name: "hdfc", SenderAddress: "alerts@hdfcbank.net", SubjectPatterns: []string{`UPI txn`}},
			from:    "HDFC Bank <Alerts@HDFCBank.net>",
			subject: "You have done a UPI txn",
			want:    true,
		},
		{
			name:    "domain suffix",
			rule:    SenderRule{Name: "icici", SenderAddress: "@icicibank.com"},
			from:    "credit_cards@icicibank.com",
			want:    true,
		},
		{
			name:    "wrong sender",
			rule:    SenderRule{Name: "hdfc", SenderAddress: "alerts@hdfcbank.net"},
			from:    "news@shop.com",
			want:    false,
		},
		{
			name:    "subject mismatch",
			rule:    SenderRule{Name: "axis", SubjectPatterns: []string{`credit card`}, FixedDirection: &debit},
			subject: "Your statement is ready",
			want:    false,
		},
		{
			name: "catch-all is never matched",
			rule: SenderRule{Name: "generic"},
			from: "anyone@example.com",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.Matches(tt.from, tt.subject); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSenderRule_Validate(t *testing.T) {
	bad := Direction("SIDEWAYS")
	tests := []struct {
		name      string
		rule      SenderRule
		wantError bool
	}{
		{"valid", SenderRule{Name: "ok", DefaultCurrency: "INR"}, false},
		{"no name", SenderRule{}, true},
		{"bad direction", SenderRule{Name: "x", FixedDirection: &bad}, true},
		{"bad subject regex", SenderRule{Name: "x", SubjectPatterns: []string{"("}}, true},
		{"unknown override field", SenderRule{Name: "x", ExtractionOverrides: map[FieldName][]RuleSpec{"colour": {{ID: "a"}}}}, true},
		{"override without id", SenderRule{Name: "x", ExtractionOverrides: map[FieldName][]RuleSpec{FieldAmount: {{Pattern: "x"}}}}, true},
		{"bad currency", SenderRule{Name: "x", DefaultCurrency: "RUPEE"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}
