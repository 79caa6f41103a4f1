package domain

import (
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
)

var (
	// ErrConfiguration marks invalid or missing settings. Fatal before any fetch.
	ErrConfiguration = errors.New("configuration error")
	// ErrFetch marks a failed provider call for one date.
	ErrFetch = errors.New("fetch error")
	// ErrMalformedResponse marks a provider response without the expected structure.
	ErrMalformedResponse = errors.New("malformed provider response")
	// ErrAuth marks a credential acquisition failure.
	ErrAuth = errors.New("auth error")
	// ErrNotify marks a failed notification send.
	ErrNotify = errors.New("notify error")
	// ErrStateIO marks an unreadable or unwritable persisted state.
	ErrStateIO = errors.New("state i/o error")
)

// FetchError is a per-date failure. It matches ErrFetch and unwraps to its cause.
type FetchError struct {
	Date civil.Date
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Date, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }
