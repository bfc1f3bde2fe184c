package testutil

import (
	"context"
	"sync"

	"github.com/billhive/subsync/internal/domain/subscription"
	ierr "github.com/billhive/subsync/internal/errors"
)

// InMemorySubscriptionStore implements subscription.Repository in memory
type InMemorySubscriptionStore struct {
	mu   sync.RWMutex
	subs map[string]*subscription.Subscription
	// UpdateErr, when set, makes every counter update fail
	UpdateErr error
	// Updates records every counter update applied, in order
	Updates []CounterUpdate
}

// CounterUpdate captures one persisted counter change
type CounterUpdate struct {
	ID                   string
	MonthsBilled         int
	RemainingOccurrences int
}

// NewInMemorySubscriptionStore creates a new in-memory subscription store
func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		subs: make(map[string]*subscription.Subscription),
	}
}

// Create adds a subscription record
func (s *InMemorySubscriptionStore) Create(sub *subscription.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cloned := *sub
	s.subs[sub.ID] = &cloned
}

// Get returns one record by id
func (s *InMemorySubscriptionStore) Get(id string) (*subscription.Subscription, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[id]
	if !ok {
		return nil, false
	}
	cloned := *sub
	return &cloned, true
}

// ListEligible applies the billing prefilter the external store would apply:
// remaining occurrences > 0 and a start date present.
func (s *InMemorySubscriptionStore) ListEligible(_ context.Context) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*subscription.Subscription
	for _, sub := range s.subs {
		if sub.RemainingOccurrences > 0 && !sub.StartDate.IsZero() {
			cloned := *sub
			result = append(result, &cloned)
		}
	}
	return result, nil
}

// UpdateCounters persists new counters for one record
func (s *InMemorySubscriptionStore) UpdateCounters(_ context.Context, id string, monthsBilled, remainingOccurrences int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.UpdateErr != nil {
		return s.UpdateErr
	}

	sub, ok := s.subs[id]
	if !ok {
		return ierr.NewError("subscription not found").
			WithHintf("No record with id %s", id).
			Mark(ierr.ErrNotFound)
	}

	sub.MonthsBilled = monthsBilled
	sub.RemainingOccurrences = remainingOccurrences
	s.Updates = append(s.Updates, CounterUpdate{
		ID:                   id,
		MonthsBilled:         monthsBilled,
		RemainingOccurrences: remainingOccurrences,
	})
	return nil
}

// Clear removes all records and recorded updates
func (s *InMemorySubscriptionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = make(map[string]*subscription.Subscription)
	s.Updates = nil
	s.UpdateErr = nil
}
