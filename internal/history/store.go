package history

import (
	"sync"

	"cabwatch/pkg/models"
)

// DefaultCapacity bounds the number of samples retained per cab.
const DefaultCapacity = 20

// Store keeps a bounded FIFO ring of recent position samples per cab. It
// is the shared substrate every analytic reads; it stores and evicts, and
// nothing else.
type Store struct {
	mu       sync.RWMutex
	capacity int
	byCab    map[string][]models.PositionSample
}

// NewStore creates a store with the given per-cab capacity. Non-positive
// capacities fall back to DefaultCapacity.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		byCab:    make(map[string][]models.PositionSample),
	}
}

// Append inserts a sample, evicting the oldest one if the cab's ring is
// full. Samples are assumed to arrive in non-decreasing timestamp order
// for a given cab; the coordinator serializes per-cab updates.
func (s *Store) Append(cabID string, sample models.PositionSample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ring := s.byCab[cabID]
	ring = append(ring, sample)
	if len(ring) > s.capacity {
		ring = ring[len(ring)-s.capacity:]
	}
	s.byCab[cabID] = ring
}

// Get returns the cab's samples oldest-first. Unknown cabs yield an empty
// slice, not an error. The returned slice is a copy.
func (s *Store) Get(cabID string) []models.PositionSample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ring := s.byCab[cabID]
	out := make([]models.PositionSample, len(ring))
	copy(out, ring)
	return out
}

// Remove drops a cab's history entirely. Used by the explicit idle
// eviction policy; the steady-state engine never calls it.
func (s *Store) Remove(cabID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byCab, cabID)
}
