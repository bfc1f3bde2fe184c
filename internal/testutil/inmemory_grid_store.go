package testutil

import (
	"context"
	"sync"

	"github.com/billhive/subsync/internal/domain/discountgrid"
	ierr "github.com/billhive/subsync/internal/errors"
)

// InMemoryGridStore implements discountgrid.Repository in memory
type InMemoryGridStore struct {
	mu    sync.RWMutex
	grids []*discountgrid.Grid
	// ListErr, when set, makes List fail
	ListErr error
}

// NewInMemoryGridStore creates a new in-memory grid store
func NewInMemoryGridStore() *InMemoryGridStore {
	return &InMemoryGridStore{}
}

// Create adds a grid, preserving insertion order for List
func (s *InMemoryGridStore) Create(grid *discountgrid.Grid) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cloned := *grid
	s.grids = append(s.grids, &cloned)
}

// Get returns one grid by id
func (s *InMemoryGridStore) Get(_ context.Context, id string) (*discountgrid.Grid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, g := range s.grids {
		if g.ID == id {
			cloned := *g
			return &cloned, nil
		}
	}
	return nil, ierr.NewError("discount grid not found").
		WithHintf("No grid with id %s", id).
		Mark(ierr.ErrNotFound)
}

// List returns all grids in insertion order
func (s *InMemoryGridStore) List(_ context.Context) ([]*discountgrid.Grid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ListErr != nil {
		return nil, s.ListErr
	}

	result := make([]*discountgrid.Grid, 0, len(s.grids))
	for _, g := range s.grids {
		cloned := *g
		result = append(result, &cloned)
	}
	return result, nil
}

// Clear removes all grids
func (s *InMemoryGridStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grids = nil
	s.ListErr = nil
}
