// Package dedup decides whether a candidate re-delivers an alert that was
// already persisted.
package dedup

import (
	"context"
	"strings"

	"golang-alert-ingestion-service/internal/models"
	"golang-alert-ingestion-service/internal/store"
	"golang-alert-ingestion-service/pkg/errors"
	"golang-alert-ingestion-service/pkg/logger"
)

// Decision is the result of a dedup check
type Decision struct {
	Duplicate  bool
	ExistingID string
	Backfilled bool
	Key        string
}

// Gate looks up candidates by their dedup key
type Gate struct {
	store  store.TransactionStore
	logger logger.Logger
}

// NewGate creates a gate over the given store
func NewGate(s store.TransactionStore, log logger.Logger) *Gate {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Gate{
		store:  s,
		logger: log.WithComponent("dedup"),
	}
}

// Check looks up the candidate's thread id (or source id when the thread id
// is empty). For a duplicate, missing raw text on the existing record is
// back-filled from the candidate.
func (g *Gate) Check(ctx context.Context, candidate models.CandidateTransaction) (Decision, error) {
	key := candidate.DedupKey()
	decision := Decision{Key: key}

	if strings.TrimSpace(key) == "" {
		return decision, errors.DedupError(errors.CodeLookupFailed, key, nil).
			WithSuggestion("messages need a thread id or a source id")
	}

	existing, err := g.store.FindByThreadID(ctx, key)
	if err != nil {
		return decision, errors.DedupError(errors.CodeLookupFailed, key, err)
	}
	if existing == nil {
		return decision, nil
	}

	decision.Duplicate = true
	decision.ExistingID = existing.ID

	if strings.TrimSpace(existing.RawText) == "" && strings.TrimSpace(candidate.RawText) != "" {
		changed, err := g.store.BackfillRawText(ctx, existing.ID, candidate.RawText)
		if err != nil {
			return decision, errors.StorageError(errors.CodeBackfillFailed, "dedup", err).
				WithContext("transaction_id", existing.ID)
		}
		decision.Backfilled = changed
	}

	g.logger.WithFields(logger.Fields{
		"key":         key,
		"existing_id": existing.ID,
		"backfilled":  decision.Backfilled,
	}).Debug("Duplicate alert found")

	return decision, nil
}
