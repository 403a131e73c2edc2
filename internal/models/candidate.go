package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DeterministicFields are produced by the rule engine only.
type DeterministicFields struct {
	Amount      decimal.NullDecimal
	Description string
	Direction   Direction
	OccurredAt  time.Time
	AccountRef  string
	Currency    string
}

// EnrichmentFields are produced by the enrichment oracle only. An empty
// string or invalid NullDecimal means the oracle did not provide the value.
type EnrichmentFields struct {
	Amount      decimal.NullDecimal
	Description string
	Direction   Direction
	AccountRef  string
	Currency    string
	Category    string
}

// IsEmpty reports whether the oracle provided nothing usable.
func (e EnrichmentFields) IsEmpty() bool {
	return !e.Amount.Valid && e.Description == "" && e.Direction == "" &&
		e.AccountRef == "" && e.Currency == "" && e.Category == ""
}

// CandidateTransaction is the structured result of one alert. The
// deterministic and enrichment tracks are unexported and can only be written
// through methods that touch exactly one of them.
type CandidateTransaction struct {
	SourceID       string
	SourceThreadID string
	RawText        string

	deterministic DeterministicFields
	enrichment    EnrichmentFields
	enriched      bool
}

// NewCandidate builds a candidate from a message and its deterministic fields
func NewCandidate(msg *RawMessage, rawText string, det DeterministicFields) CandidateTransaction {
	c := CandidateTransaction{
		RawText:       rawText,
		deterministic: det,
	}
	if msg != nil {
		c.SourceID = msg.SourceID
		c.SourceThreadID = msg.ThreadID
	}
	return c
}

// Deterministic returns a copy of the deterministic track
func (c CandidateTransaction) Deterministic() DeterministicFields {
	return c.deterministic
}

// Enrichment returns a copy of the enrichment track
func (c CandidateTransaction) Enrichment() EnrichmentFields {
	return c.enrichment
}

// HasEnrichment reports whether WithEnrichment was applied
func (c CandidateTransaction) HasEnrichment() bool {
	return c.enriched
}

// DedupKey is the thread id, or the source id when the thread id is empty
func (c CandidateTransaction) DedupKey() string {
	if strings.TrimSpace(c.SourceThreadID) != "" {
		return c.SourceThreadID
	}
	return c.SourceID
}

// WithAccount sets the resolved account on the deterministic track
func (c CandidateTransaction) WithAccount(ref string) CandidateTransaction {
	c.deterministic.AccountRef = ref
	return c
}

// WithDescriptionPlaceholder fills the deterministic description only when
// the rule engine produced none
func (c CandidateTransaction) WithDescriptionPlaceholder(placeholder string) CandidateTransaction {
	if strings.TrimSpace(c.deterministic.Description) == "" {
		c.deterministic.Description = placeholder
	}
	return c
}

// WithEnrichment replaces the enrichment track
func (c CandidateTransaction) WithEnrichment(e EnrichmentFields) CandidateTransaction {
	c.enrichment = e
	c.enriched = true
	return c
}

// String returns a string representation of the candidate
func (c CandidateTransaction) String() string {
	det := c.deterministic
	amount := "<none>"
	if det.Amount.Valid {
		amount = det.Amount.Decimal.String()
	}
	return fmt.Sprintf("Candidate{ID: %s, Amount: %s %s, Direction: %s, Account: %s, Description: %q}",
		c.SourceID, det.Currency, amount, det.Direction, det.AccountRef, det.Description)
}

// MarshalJSON exposes both tracks; enrichment fields carry an enriched_ prefix
func (c CandidateTransaction) MarshalJSON() ([]byte, error) {
	det, enr := c.deterministic, c.enrichment
	var occurredAt string
	if !det.OccurredAt.IsZero() {
		occurredAt = det.OccurredAt.Format(time.RFC3339)
	}

	return json.Marshal(&struct {
		SourceID            string              `json:"source_id"`
		SourceThreadID      string              `json:"source_thread_id"`
		Amount              decimal.NullDecimal `json:"amount"`
		Currency            string              `json:"currency,omitempty"`
		Description         string              `json:"description"`
		Direction           Direction           `json:"direction"`
		OccurredAt          string              `json:"occurred_at,omitempty"`
		AccountRef          string              `json:"account_ref,omitempty"`
		EnrichedAmount      decimal.NullDecimal `json:"enriched_amount"`
		EnrichedDescription string              `json:"enriched_description,omitempty"`
		EnrichedDirection   Direction           `json:"enriched_direction,omitempty"`
		EnrichedAccountRef  string              `json:"enriched_account_ref,omitempty"`
		EnrichedCurrency    string              `json:"enriched_currency,omitempty"`
		EnrichedCategory    string              `json:"enriched_category,omitempty"`
	}{
		SourceID:            c.SourceID,
		SourceThreadID:      c.SourceThreadID,
		Amount:              det.Amount,
		Currency:            det.Currency,
		Description:         det.Description,
		Direction:           det.Direction,
		OccurredAt:          occurredAt,
		AccountRef:          det.AccountRef,
		EnrichedAmount:      enr.Amount,
		EnrichedDescription: enr.Description,
		EnrichedDirection:   enr.Direction,
		EnrichedAccountRef:  enr.AccountRef,
		EnrichedCurrency:    enr.Currency,
		EnrichedCategory:    enr.Category,
	})
}
