package testutil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrCreateFailed is returned by MockOperations.Create when FailCreate is set.
var ErrCreateFailed = errors.New("simulated create failure")

// MockResource is a pooled resource that records its own lifecycle.
type MockResource struct {
	ID        int64
	Quality   int
	invalid   atomic.Bool
	destroyed atomic.Int32
}

// Invalidate makes IsValid report false for this resource.
func (r *MockResource) Invalidate() { r.invalid.Store(true) }

// DestroyCount returns how many times the resource was destroyed.
func (r *MockResource) DestroyCount() int32 { return r.destroyed.Load() }

// MockOperations creates and destroys MockResources and counts both.
// It satisfies pool.ElementOperations[*MockResource].
type MockOperations struct {
	nextID     atomic.Int64
	created    atomic.Int64
	destroyed  atomic.Int64
	FailCreate atomic.Bool

	mu  sync.Mutex
	all []*MockResource
}

// Create returns a fresh resource, or ErrCreateFailed.
func (m *MockOperations) Create(ctx context.Context) (*MockResource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.FailCreate.Load() {
		return nil, ErrCreateFailed
	}
	r := &MockResource{ID: m.nextID.Add(1)}
	m.created.Add(1)

	m.mu.Lock()
	m.all = append(m.all, r)
	m.mu.Unlock()
	return r, nil
}

// IsValid reports whether r was not invalidated.
func (m *MockOperations) IsValid(r *MockResource) bool {
	return !r.invalid.Load()
}

// Destroy records the destruction of r.
func (m *MockOperations) Destroy(r *MockResource) {
	r.destroyed.Add(1)
	m.destroyed.Add(1)
}

// Created returns the number of successful Create calls.
func (m *MockOperations) Created() int64 { return m.created.Load() }

// Destroyed returns the number of Destroy calls.
func (m *MockOperations) Destroyed() int64 { return m.destroyed.Load() }

// Resources returns every resource created so far.
func (m *MockOperations) Resources() []*MockResource {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*MockResource(nil), m.all...)
}
