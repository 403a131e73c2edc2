package matcher

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"golang-alert-ingestion-service/internal/models"
)

func createTestRoster() []models.AccountRosterEntry {
	return []models.AccountRosterEntry{
		{ID: "a1", Name: "HDFC Savings", Number: "5010-0012-3456"},
		{ID: "a2", Name: "ICICI Amazon Pay Card", Number: "4111111111119876", Keywords: []string{"amazon"}},
		{ID: "a3", Name: "Joint Account", Aliases: []string{"Family Wallet"}},
	}
}

func TestResolver_Resolve(t *testing.T) {
	resolver := NewResolver(nil)
	roster := createTestRoster()

	tests := []struct {
		name          string
		text          string
		supplementary []string
		wantAccount   string
		wantScore     float64
		wantValid     bool
	}{
		{
			name:        "full account number",
			text:        "Rs.500 debited from a/c 501000123456 on 12-03-24",
			wantAccount: "a1",
			wantScore:   60,
			wantValid:   true,
		},
		{
			name:        "hyphenated number in text",
			text:        "Account 5010-0012-3456 was debited",
			wantAccount: "a1",
			wantScore:   60,
			wantValid:   true,
		},
		{
			name:        "masked suffix with keyword and partial name",
			text:        "Card XX9876 used at Amazon",
			wantAccount: "a2",
			wantScore:   72.5,
			wantValid:   true,
		},
		{
			name:        "exact name phrase",
			text:        "Payment from HDFC Savings account",
			wantAccount: "a1",
			wantScore:   40,
			wantValid:   true,
		},
		{
			name:          "suffix from supplementary identifier",
			text:          "Debited at a local shop",
			supplementary: []string{"3456"},
			wantAccount:   "a1",
			wantScore:     45,
			wantValid:     true,
		},
		{
			name:        "low score is not valid",
			text:        "payment to savngs club",
			wantAccount: "a1",
			wantScore:   12.5,
			wantValid:   false,
		},
		{
			name:        "alias alone is below the default threshold",
			text:        "Sent from family wallet",
			wantAccount: "a3",
			wantScore:   35,
			wantValid:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := resolver.Resolve(roster, tt.text, tt.supplementary...)

			if result.Account == nil {
				t.Fatalf("Expected account %s, got nil (%v)", tt.wantAccount, result.Reasons)
			}
			if result.Account.ID != tt.wantAccount {
				t.Errorf("Expected account %s, got %s", tt.wantAccount, result.Account.ID)
			}
			if math.Abs(result.Score-tt.wantScore) > 0.001 {
				t.Errorf("Expected score %.2f, got %.2f (%v)", tt.wantScore, result.Score, result.Reasons)
			}
			if result.Valid != tt.wantValid {
				t.Errorf("Expected valid %t, got %t", tt.wantValid, result.Valid)
			}
		})
	}
}

func TestResolver_BareNumbersAreNotAccountEvidence(t *testing.T) {
	roster := []models.AccountRosterEntry{
		{ID: "a1", Name: "Salary Account", Number: "50100012341234"},
		{ID: "a2", Name: "Travel Card", Number: "4111111111112025"},
	}
	resolver := NewResolver(nil)

	tests := []struct {
		name        string
		text        string
		wantAccount string
	}{
		{"amount equals a suffix", "Rs 1234 spent on your card at Amazon on 2024-03-12", ""},
		{"year equals a suffix", "Rs 999 spent on 12/03/2025 at Amazon", ""},
		{"masked suffix", "Rs 1234 spent on card XX2025 at Amazon", "a2"},
		{"labelled suffix", "Rs 999 debited from account ending in 1234", "a1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := resolver.Resolve(roster, tt.text)

			if tt.wantAccount == "" {
				if result.Valid {
					t.Errorf("Expected no valid match, got %v (%v)", result, result.Reasons)
				}
				for _, reason := range result.Reasons {
					if strings.HasPrefix(reason, "Account suffix") {
						t.Errorf("Unexpected suffix evidence: %v", result.Reasons)
					}
				}
				return
			}
			if !result.Valid || result.Account == nil || result.Account.ID != tt.wantAccount {
				t.Errorf("Expected valid match on %s, got %v (%v)", tt.wantAccount, result, result.Reasons)
			}
		})
	}
}

func TestResolver_SkipsDegenerateEntries(t *testing.T) {
	roster := []models.AccountRosterEntry{
		{ID: "", Name: "HDFC Savings"},
		{ID: "blank", Name: "   "},
		{ID: "a1", Name: "HDFC Savings"},
	}

	if n := NewRosterIndex(roster, 4).Len(); n != 1 {
		t.Errorf("Expected 1 indexed entry, got %d", n)
	}

	result := NewResolver(nil).Resolve(roster, "Payment from HDFC Savings")
	if !result.Valid || result.Account == nil || result.Account.ID != "a1" {
		t.Errorf("Expected valid match on a1, got %v (%v)", result, result.Reasons)
	}
}

func TestResolver_TieIsNoMatch(t *testing.T) {
	config := DefaultResolverConfig()
	config.AcceptanceThreshold = 10
	resolver := NewResolver(config)

	roster := []models.AccountRosterEntry{
		{ID: "b1", Name: "Wallet One", Keywords: []string{"amazon"}},
		{ID: "b2", Name: "Wallet Two", Keywords: []string{"amazon"}},
	}

	result := resolver.Resolve(roster, "amazon order")

	if result.Valid {
		t.Error("Expected tie to be invalid")
	}
	if result.Account != nil {
		t.Errorf("Expected nil account on tie, got %s", result.Account.ID)
	}
	if result.Score != 15 || result.RunnerUp != 15 {
		t.Errorf("Expected score and runner-up 15, got %.1f and %.1f", result.Score, result.RunnerUp)
	}
}

func TestResolver_EmptyRoster(t *testing.T) {
	result := NewResolver(nil).Resolve(nil, "anything at all")

	if result.Valid || result.Account != nil {
		t.Errorf("Expected no match for empty roster, got %v", result)
	}
}

func TestResolver_RelaxedAcceptsAlias(t *testing.T) {
	result := NewResolver(RelaxedResolverConfig()).Resolve(createTestRoster(), "Sent from family wallet")

	if !result.Valid || result.Account == nil || result.Account.ID != "a3" {
		t.Errorf("Expected valid match on a3, got %v", result)
	}
}

func TestResolver_KeywordCap(t *testing.T) {
	roster := []models.AccountRosterEntry{
		{ID: "k1", Name: "Food Card", Keywords: []string{"swiggy", "zomato", "dunzo"}},
		{ID: "k2", Name: "Other"},
	}

	scores := NewResolver(nil).ScoreAll(NewRosterIndex(roster, 4), "swiggy zomato dunzo")

	if scores[0].Entry.ID != "k1" {
		t.Fatalf("Expected k1 first, got %s", scores[0].Entry.ID)
	}
	if scores[0].Score != 30 {
		t.Errorf("Expected keyword score capped at 30, got %.1f", scores[0].Score)
	}
}

func TestResolver_DoesNotMutateRoster(t *testing.T) {
	roster := createTestRoster()
	before := make([]models.AccountRosterEntry, len(roster))
	for i, entry := range roster {
		before[i] = entry
		before[i].Keywords = append([]string(nil), entry.Keywords...)
		before[i].Aliases = append([]string(nil), entry.Aliases...)
	}

	NewResolver(nil).Resolve(roster, "Card XX9876 used at Amazon")

	for i := range roster {
		if roster[i].ID != before[i].ID || roster[i].Name != before[i].Name || roster[i].Number != before[i].Number {
			t.Errorf("roster entry %d changed: %+v", i, roster[i])
		}
	}
}

func TestFoldAndTokenize(t *testing.T) {
	if got := Fold("Café ÉLAN"); got != "cafe elan" {
		t.Errorf("Fold() = %q, want %q", got, "cafe elan")
	}

	got := Tokenize("XX1234, Amazon.in!")
	want := []string{"xx1234", "amazon", "in"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize() = %v, want %v", got, want)
	}

	roster := []models.AccountRosterEntry{{ID: "c1", Name: "Café Coffee Day"}}
	result := NewResolver(nil).Resolve(roster, "CAFE COFFEE DAY Bangalore")
	if !result.Valid {
		t.Errorf("Expected accent-insensitive match, got %v", result)
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"savings", "savings", 1.0},
		{"savings", "savngs", 1.0 - 1.0/7.0},
		{"abc", "xyz", 0.0},
		{"", "", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			if got := Similarity(tt.a, tt.b); math.Abs(got-tt.want) > 0.0001 {
				t.Errorf("Similarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolverConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*ResolverConfig)
		wantError bool
	}{
		{"default", func(*ResolverConfig) {}, false},
		{"threshold too high", func(c *ResolverConfig) { c.AcceptanceThreshold = 101 }, true},
		{"zero fuzzy threshold", func(c *ResolverConfig) { c.FuzzyTokenThreshold = 0 }, true},
		{"zero min token length", func(c *ResolverConfig) { c.MinTokenLength = 0 }, true},
		{"suffix too long", func(c *ResolverConfig) { c.SuffixLength = 12 }, true},
		{"negative weight", func(c *ResolverConfig) { c.Weights.KeywordHit = -1 }, true},
		{"fuzzy above exact", func(c *ResolverConfig) { c.Weights.NameFuzzy = 50 }, true},
		{"cap below hit", func(c *ResolverConfig) { c.Weights.KeywordCap = 5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultResolverConfig()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}

	for _, config := range []*ResolverConfig{StrictResolverConfig(), RelaxedResolverConfig()} {
		if err := config.Validate(); err != nil {
			t.Errorf("factory config invalid: %v", err)
		}
	}
}

func TestResolverConfig_Clone(t *testing.T) {
	original := DefaultResolverConfig()
	clone := original.Clone()
	clone.AcceptanceThreshold = 99
	clone.Weights.NameExact = 1

	if original.AcceptanceThreshold == 99 || original.Weights.NameExact == 1 {
		t.Error("Clone shares state with the original")
	}

	var nilConfig *ResolverConfig
	if nilConfig.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}

	if !strings.Contains(original.String(), "Threshold: 40.0") {
		t.Errorf("String() = %s", original.String())
	}
}
