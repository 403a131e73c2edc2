// Package store is the persistence boundary of the ingestion pipeline.
package store

import (
	"context"

	"golang-alert-ingestion-service/internal/models"

	pkgerrors "github.com/pkg/errors"
)

//go:generate mockgen -source=store.go -destination=store_mock.go -package=store

// ErrDuplicateThread is returned by Save when a record already exists for
// the candidate's dedup key.
var ErrDuplicateThread = pkgerrors.New("transaction already stored for thread")

// TransactionStore defines the operations the pipeline needs from storage
type TransactionStore interface {
	// FindByThreadID returns the record stored under a dedup key, or nil
	// and no error when there is none.
	FindByThreadID(ctx context.Context, key string) (*models.StoredTransaction, error)

	// BackfillRawText sets the raw text of a record whose raw text is empty.
	// It reports whether the record was changed.
	BackfillRawText(ctx context.Context, id, rawText string) (bool, error)

	Save(ctx context.Context, candidate models.CandidateTransaction) (*models.StoredTransaction, error)
	List(ctx context.Context) ([]*models.StoredTransaction, error)
}
