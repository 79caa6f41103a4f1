package store

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/seatwatch/internal/domain"
)

// Memory keeps the state in process memory only.
// Dry runs use it so that nothing durable is touched.
type Memory struct {
	mu    sync.RWMutex
	state domain.State
	saves int
}

// NewMemory creates an empty (cold start) store for route.
func NewMemory(route string) *Memory {
	return &Memory{state: domain.NewState(route)}
}

// NewMemoryFrom seeds the store with an existing state.
func NewMemoryFrom(state domain.State) *Memory {
	return &Memory{state: state.Clone()}
}

func (m *Memory) Load(_ context.Context) (domain.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state.Clone(), nil
}

func (m *Memory) Save(_ context.Context, state domain.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = state.Clone()
	m.saves++
	return nil
}

// Saves returns how many times Save was called.
func (m *Memory) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.saves
}
