package ingest

import (
	"fmt"
	"time"

	"golang-alert-ingestion-service/internal/extraction"
	"golang-alert-ingestion-service/internal/matcher"
	"golang-alert-ingestion-service/internal/models"
	"golang-alert-ingestion-service/pkg/errors"
)

// State is the last pipeline stage a message reached
type State string

const (
	StateReceived        State = "received"
	StateNormalized      State = "normalized"
	StateBasicsExtracted State = "basics_extracted"
	StateDedupChecked    State = "dedup_checked"
	StateMerged          State = "merged"
	StateAccountResolved State = "account_resolved"
	StateEnriched        State = "enriched"
	StateHandedOff       State = "handed_off"
)

// Status is the terminal result of one message
type Status string

const (
	StatusPersisted Status = "persisted"
	StatusMerged    Status = "merged"
	StatusSkipped   Status = "skipped"
	StatusRejected  Status = "rejected"
	StatusFailed    Status = "failed"
)

// Reasons recorded on non-persisted outcomes
const (
	ReasonInvalidMessage    = "invalid_message"
	ReasonNoContent         = "no_content"
	ReasonNoSenderRule      = "no_sender_rule"
	ReasonInvalidSenderRule = "invalid_sender_rule"
	ReasonNoAmount          = "no_amount"
	ReasonDuplicate         = "duplicate"
	ReasonDedupFailed       = "dedup_failed"
	ReasonAccountUnresolved = "account_unresolved"
	ReasonSaveFailed        = "save_failed"
	ReasonPanic             = "panic"
)

// Outcome records what happened to one message
type Outcome struct {
	SourceID   string
	ThreadID   string
	SenderRule string

	State  State
	Status Status
	Reason string

	Fields    []extraction.FieldDiagnostic
	Match     *matcher.MatchResult
	Candidate *models.CandidateTransaction

	StoredID   string
	Backfilled bool

	Enriched        bool
	EnrichmentError error

	Err      error
	Duration time.Duration
}

func (o *Outcome) finish(status Status, reason string, err error) {
	o.Status = status
	o.Reason = reason
	o.Err = err
}

// String returns a string representation of the outcome
func (o *Outcome) String() string {
	return fmt.Sprintf("Outcome{ID: %s, Status: %s, State: %s, Reason: %s}", o.SourceID, o.Status, o.State, o.Reason)
}

// Summary provides aggregate statistics about a run
type Summary struct {
	Total              int           `json:"total"`
	Persisted          int           `json:"persisted"`
	Merged             int           `json:"merged"`
	Skipped            int           `json:"skipped"`
	Rejected           int           `json:"rejected"`
	Failed             int           `json:"failed"`
	Enriched           int           `json:"enriched"`
	EnrichmentFailures int           `json:"enrichment_failures"`
	Duration           time.Duration `json:"duration"`
}

func (s *Summary) add(o *Outcome) {
	s.Total++

	switch o.Status {
	case StatusPersisted:
		s.Persisted++
	case StatusMerged:
		s.Merged++
	case StatusSkipped:
		s.Skipped++
	case StatusRejected:
		s.Rejected++
	case StatusFailed:
		s.Failed++
	}

	if o.Enriched {
		s.Enriched++
	}
	if o.EnrichmentError != nil {
		s.EnrichmentFailures++
	}
}

// RunResult is the result of one pipeline run
type RunResult struct {
	RunID     string
	StartedAt time.Time
	Outcomes  []*Outcome
	Summary   Summary
}

// Errors collects every categorized error recorded on the outcomes,
// enrichment errors included
func (r *RunResult) Errors() []*errors.IngestError {
	var result []*errors.IngestError
	for _, outcome := range r.Outcomes {
		for _, err := range []error{outcome.Err, outcome.EnrichmentError} {
			if err == nil {
				continue
			}
			result = append(result, errors.WrapIfNeeded(err, errors.CategoryInternal, errors.CodeUnexpectedError,
				fmt.Sprintf("message %s", outcome.SourceID)))
		}
	}
	return result
}

// ErrorSummary aggregates Errors by category and code
func (r *RunResult) ErrorSummary() *errors.ErrorSummary {
	return errors.NewErrorSummary(r.Errors())
}

// ByStatus returns the outcomes with the given status
func (r *RunResult) ByStatus(status Status) []*Outcome {
	var result []*Outcome
	for _, outcome := range r.Outcomes {
		if outcome.Status == status {
			result = append(result, outcome)
		}
	}
	return result
}
