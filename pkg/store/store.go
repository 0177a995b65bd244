// Package store persists pipeline.LoopResults beyond the lifetime of the
// in-process results map spec.md §3 describes as "readable until the
// process ends". Store is the seam: an InMemoryStore reproduces that
// default behavior, and PostgresStore (see postgres.go) is the optional
// durable implementation spec.md §6 explicitly allows implementers to
// wrap the results map with.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/loopgate/loopgate/pkg/pipeline"
)

// Store is the persistence seam for finished LoopResults. Implementations
// must be safe for concurrent use.
type Store interface {
	// Put records result, stamped with the current time for retention
	// purposes. Overwrites any prior result with the same ExecutionID.
	Put(ctx context.Context, result *pipeline.LoopResult) error

	// Get returns the result for executionID, or ok=false if absent.
	Get(ctx context.Context, executionID string) (result *pipeline.LoopResult, ok bool, err error)

	// Delete removes executionID's result, if present. Deleting an
	// absent executionID is not an error.
	Delete(ctx context.Context, executionID string) error

	// PurgeOlderThan deletes every result stored before cutoff and
	// returns the number of rows removed.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

type record struct {
	result   *pipeline.LoopResult
	storedAt time.Time
}

// InMemoryStore is the default Store: a mutex-guarded map, matching the
// teacher's own results-map lock shape (pkg/orchestrator's RWMutex).
// Data does not survive process restart.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]record
}

// NewInMemoryStore constructs an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]record)}
}

func (s *InMemoryStore) Put(_ context.Context, result *pipeline.LoopResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[result.ExecutionID] = record{result: result, storedAt: time.Now()}
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, executionID string) (*pipeline.LoopResult, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[executionID]
	if !ok {
		return nil, false, nil
	}
	return rec.result, true, nil
}

func (s *InMemoryStore) Delete(_ context.Context, executionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, executionID)
	return nil
}

func (s *InMemoryStore) PurgeOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for id, rec := range s.records {
		if rec.storedAt.Before(cutoff) {
			delete(s.records, id)
			purged++
		}
	}
	return purged, nil
}
