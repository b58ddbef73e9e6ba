package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"agegate/internal/verification/models"
	"agegate/pkg/platform/sentinel"
)

// idBytes sized so ids are 32 hex characters; collisions are not a practical
// concern but Put still refuses to overwrite.
const idBytes = 16

// InMemoryStore keeps verification records in a mutex-guarded map. It is the
// canonical implementation: records do not survive a restart, and
// re-verification after one is acceptable.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.Record
}

// NewInMemory constructs an empty in-memory verification store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]models.Record)}
}

func (s *InMemoryStore) Put(_ context.Context, record models.Record) (string, error) {
	if !record.HasCorrelation() {
		return "", fmt.Errorf("record requires a customer id or checkout token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		id, err := newID()
		if err != nil {
			return "", err
		}
		if _, exists := s.records[id]; exists {
			continue
		}
		s.records[id] = record
		return id, nil
	}
}

func (s *InMemoryStore) Get(_ context.Context, id string, now time.Time) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return models.Record{}, fmt.Errorf("verification %q: %w", id, sentinel.ErrNotFound)
	}
	if record.Expired(now) {
		delete(s.records, id)
		return models.Record{}, fmt.Errorf("verification %q expired: %w", id, sentinel.ErrNotFound)
	}
	return record, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

// Len reports the number of live entries, expired or not. Test helper.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// newID draws from crypto/rand; ids must not be guessable.
func newID() (string, error) {
	buf := make([]byte, idBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate verification id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
