// Package store keeps the last observed snapshot of every checked date between cycles.
package store

import (
	"context"

	"github.com/MrSnakeDoc/seatwatch/internal/domain"
)

// Store is the durable state slot of one route.
//
// Load returns a cold-start state when nothing was saved yet. An existing but
// unreadable state is an error matching domain.ErrStateIO.
type Store interface {
	Load(ctx context.Context) (domain.State, error)
	Save(ctx context.Context, state domain.State) error
}

// usable reports whether a decoded state may serve as a baseline for route.
func usable(state domain.State, route string) (bool, string) {
	switch {
	case state.Version != domain.StateVersion:
		return false, "unsupported state version"
	case state.Route != "" && state.Route != route:
		return false, "state belongs to another route"
	default:
		return true, ""
	}
}
