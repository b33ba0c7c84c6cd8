package sink

import (
	"context"
	"sync"

	"github.com/lumenpay-systems/fraudpipe/internal/models"
)

// MemorySink is an in-memory Sink used by tests and local one-shot runs.
// It mirrors the keyed-store semantics: last write wins per event id.
type MemorySink struct {
	mu      sync.RWMutex
	records map[string]*models.ScoredRecord
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{records: make(map[string]*models.ScoredRecord)}
}

// Persist stores rec keyed by its event id.
func (s *MemorySink) Persist(_ context.Context, rec *models.ScoredRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.records[rec.EventID] = &cp
	return nil
}

// Get returns the record stored for eventID, if any.
func (s *MemorySink) Get(eventID string) (*models.ScoredRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[eventID]
	return rec, ok
}

// Len returns the number of distinct logical records.
func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
