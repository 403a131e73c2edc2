package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang-alert-ingestion-service/internal/models"
	"golang-alert-ingestion-service/pkg/errors"

	"github.com/google/uuid"
)

// MemoryStore implements TransactionStore with in-memory storage
type MemoryStore struct {
	mu sync.RWMutex

	records map[string]*models.StoredTransaction
	byKey   map[string]string
	order   []string

	now func() time.Time
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*models.StoredTransaction),
		byKey:   make(map[string]string),
		now:     time.Now,
	}
}

// FindByThreadID implements TransactionStore
func (s *MemoryStore) FindByThreadID(ctx context.Context, key string) (*models.StoredTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byKey[key]
	if !ok {
		return nil, nil
	}
	record := *s.records[id]
	return &record, nil
}

// BackfillRawText implements TransactionStore
func (s *MemoryStore) BackfillRawText(ctx context.Context, id, rawText string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return false, errors.StorageError(errors.CodeBackfillFailed, "backfill",
			fmt.Errorf("transaction %s not found", id))
	}
	if strings.TrimSpace(record.RawText) != "" || strings.TrimSpace(rawText) == "" {
		return false, nil
	}

	record.RawText = rawText
	return true, nil
}

// Save implements TransactionStore
func (s *MemoryStore) Save(ctx context.Context, candidate models.CandidateTransaction) (*models.StoredTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := candidate.DedupKey()
	if strings.TrimSpace(key) == "" {
		return nil, errors.ValidationError(errors.CodeMissingField, "source_thread_id", key, nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byKey[key]; exists {
		return nil, errors.StorageError(errors.CodeDuplicateRecord, "save", ErrDuplicateThread).
			WithContext("key", key)
	}

	record := &models.StoredTransaction{
		ID:             uuid.New().String(),
		SourceThreadID: key,
		SourceID:       candidate.SourceID,
		RawText:        candidate.RawText,
		Candidate:      candidate,
		PersistedAt:    s.now().UTC(),
	}

	s.records[record.ID] = record
	s.byKey[key] = record.ID
	s.order = append(s.order, record.ID)

	saved := *record
	return &saved, nil
}

// List implements TransactionStore; records are returned in save order
func (s *MemoryStore) List(ctx context.Context) ([]*models.StoredTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.StoredTransaction, 0, len(s.order))
	for _, id := range s.order {
		record := *s.records[id]
		result = append(result, &record)
	}
	return result, nil
}

// Len returns the number of stored records
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
