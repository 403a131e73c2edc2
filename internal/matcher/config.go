// Package matcher resolves free text from an alert to one entry of the
// user's account roster.
//
// Every roster entry is scored independently against the combined text:
//   - account number: full number, or its last digits when they come from
//     the extracted identifier or a masked or labelled run (XX1234, a/c 1234)
//   - name: exact phrase, or fuzzy token overlap
//   - keywords: each phrase hit, capped
//   - aliases: exact phrase, or fuzzy token overlap
//
// The highest score wins. A result is valid only when it clears the
// acceptance threshold and is strictly ahead of the runner-up.
//
// Example usage:
//
//	config := matcher.DefaultResolverConfig()
//	config.AcceptanceThreshold = 50
//
//	resolver := matcher.NewResolver(config)
//	result := resolver.Resolve(roster, text, accountSuffix)
//	if result.Valid {
//		ref := result.Account.ID
//	}
package matcher

import (
	"fmt"
)

// ResolverConfig holds the scoring weights and thresholds of the resolver.
//
// Use the provided factory functions for common scenarios:
//   - DefaultResolverConfig(): balanced approach for most rosters
//   - StrictResolverConfig(): fewer fuzzy hits, higher acceptance bar
//   - RelaxedResolverConfig(): accepts weaker evidence
type ResolverConfig struct {
	// AcceptanceThreshold is the minimum score (0-100) for a valid match
	AcceptanceThreshold float64 `json:"acceptance_threshold" mapstructure:"acceptance_threshold"`

	// FuzzyTokenThreshold is the minimum token similarity (0-1) for a fuzzy hit
	FuzzyTokenThreshold float64 `json:"fuzzy_token_threshold" mapstructure:"fuzzy_token_threshold"`

	// MinTokenLength ignores shorter tokens during fuzzy comparison
	MinTokenLength int `json:"min_token_length" mapstructure:"min_token_length"`

	// SuffixLength is the number of trailing account digits alerts usually show
	SuffixLength int `json:"suffix_length" mapstructure:"suffix_length"`

	Weights ResolverWeights `json:"weights" mapstructure:"weights"`
}

// ResolverWeights are the points each kind of evidence contributes.
// Fuzzy weights are scaled by the fraction of tokens that matched.
type ResolverWeights struct {
	NumberExact  float64 `json:"number_exact" mapstructure:"number_exact"`
	NumberSuffix float64 `json:"number_suffix" mapstructure:"number_suffix"`
	NameExact    float64 `json:"name_exact" mapstructure:"name_exact"`
	NameFuzzy    float64 `json:"name_fuzzy" mapstructure:"name_fuzzy"`
	KeywordHit   float64 `json:"keyword_hit" mapstructure:"keyword_hit"`
	KeywordCap   float64 `json:"keyword_cap" mapstructure:"keyword_cap"`
	AliasExact   float64 `json:"alias_exact" mapstructure:"alias_exact"`
	AliasFuzzy   float64 `json:"alias_fuzzy" mapstructure:"alias_fuzzy"`
}

func defaultWeights() ResolverWeights {
	return ResolverWeights{
		NumberExact:  60,
		NumberSuffix: 45,
		NameExact:    40,
		NameFuzzy:    25,
		KeywordHit:   15,
		KeywordCap:   30,
		AliasExact:   35,
		AliasFuzzy:   20,
	}
}

// DefaultResolverConfig returns a configuration with sensible defaults
func DefaultResolverConfig() *ResolverConfig {
	return &ResolverConfig{
		AcceptanceThreshold: 40,
		FuzzyTokenThreshold: 0.8,
		MinTokenLength:      3,
		SuffixLength:        4,
		Weights:             defaultWeights(),
	}
}

// StrictResolverConfig returns a configuration for strict resolution
func StrictResolverConfig() *ResolverConfig {
	weights := defaultWeights()
	weights.NameFuzzy = 15
	weights.AliasFuzzy = 10

	return &ResolverConfig{
		AcceptanceThreshold: 60,
		FuzzyTokenThreshold: 0.9,
		MinTokenLength:      4,
		SuffixLength:        4,
		Weights:             weights,
	}
}

// RelaxedResolverConfig returns a configuration for relaxed resolution
func RelaxedResolverConfig() *ResolverConfig {
	return &ResolverConfig{
		AcceptanceThreshold: 25,
		FuzzyTokenThreshold: 0.7,
		MinTokenLength:      3,
		SuffixLength:        4,
		Weights:             defaultWeights(),
	}
}

// Validate checks if the resolver configuration is valid
func (rc *ResolverConfig) Validate() error {
	if rc.AcceptanceThreshold < 0.0 || rc.AcceptanceThreshold > 100.0 {
		return fmt.Errorf("acceptance threshold must be between 0 and 100: %f", rc.AcceptanceThreshold)
	}

	if rc.FuzzyTokenThreshold <= 0.0 || rc.FuzzyTokenThreshold > 1.0 {
		return fmt.Errorf("fuzzy token threshold must be in (0.0, 1.0]: %f", rc.FuzzyTokenThreshold)
	}

	if rc.MinTokenLength < 1 {
		return fmt.Errorf("min token length must be positive: %d", rc.MinTokenLength)
	}

	if rc.SuffixLength < 2 || rc.SuffixLength > 8 {
		return fmt.Errorf("suffix length must be between 2 and 8: %d", rc.SuffixLength)
	}

	if err := rc.Weights.Validate(); err != nil {
		return fmt.Errorf("invalid weights: %w", err)
	}

	return nil
}

// Validate checks if the resolver weights are valid
func (rw *ResolverWeights) Validate() error {
	for name, value := range map[string]float64{
		"number exact":  rw.NumberExact,
		"number suffix": rw.NumberSuffix,
		"name exact":    rw.NameExact,
		"name fuzzy":    rw.NameFuzzy,
		"keyword hit":   rw.KeywordHit,
		"keyword cap":   rw.KeywordCap,
		"alias exact":   rw.AliasExact,
		"alias fuzzy":   rw.AliasFuzzy,
	} {
		if value < 0.0 || value > 100.0 {
			return fmt.Errorf("%s weight must be between 0 and 100: %f", name, value)
		}
	}

	// Exact evidence must never score below its fuzzy counterpart
	if rw.NumberExact < rw.NumberSuffix {
		return fmt.Errorf("number exact weight %f is below number suffix weight %f", rw.NumberExact, rw.NumberSuffix)
	}
	if rw.NameExact < rw.NameFuzzy {
		return fmt.Errorf("name exact weight %f is below name fuzzy weight %f", rw.NameExact, rw.NameFuzzy)
	}
	if rw.AliasExact < rw.AliasFuzzy {
		return fmt.Errorf("alias exact weight %f is below alias fuzzy weight %f", rw.AliasExact, rw.AliasFuzzy)
	}
	if rw.KeywordCap < rw.KeywordHit {
		return fmt.Errorf("keyword cap %f is below a single keyword hit %f", rw.KeywordCap, rw.KeywordHit)
	}

	return nil
}

// Clone creates a copy of the resolver configuration
func (rc *ResolverConfig) Clone() *ResolverConfig {
	if rc == nil {
		return nil
	}

	clone := *rc
	return &clone
}

// String returns a human-readable description of the configuration
func (rc *ResolverConfig) String() string {
	return fmt.Sprintf("ResolverConfig{Threshold: %.1f, FuzzyToken: %.2f, MinToken: %d, Suffix: %d}",
		rc.AcceptanceThreshold, rc.FuzzyTokenThreshold, rc.MinTokenLength, rc.SuffixLength)
}
