package monitor

import (
	"sync"
	"time"

	"cloud.google.com/go/civil"

	"github.com/MrSnakeDoc/seatwatch/internal/domain"
)

// Outcome classifies how a cycle ended.
type Outcome string

const (
	// OutcomeGated means the check window was closed. Nothing was fetched.
	OutcomeGated Outcome = "gated"
	// OutcomeLocked means another instance was running a cycle for the route.
	OutcomeLocked Outcome = "locked"
	// OutcomeNoChange means every date was checked and nothing new appeared.
	OutcomeNoChange Outcome = "no_change"
	// OutcomeNotified means at least one alert was sent.
	OutcomeNotified Outcome = "notified"
	// OutcomeFailed means the cycle ended with an error.
	OutcomeFailed Outcome = "failed"
)

// DateResult is what happened to one checked date.
type DateResult struct {
	Date           civil.Date     `json:"date"`
	Seats          int            `json:"seats"`
	NewlyAvailable []domain.Coach `json:"newlyAvailable,omitempty"`
	Notified       bool           `json:"notified"`
	Error          string         `json:"error,omitempty"`
}

// Result summarizes one cycle.
type Result struct {
	ID         string       `json:"id"`
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
	Outcome    Outcome      `json:"outcome"`
	Dates      []DateResult `json:"dates,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// Duration is the wall time of the cycle.
func (r Result) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// NewlyAvailable counts the newly available coaches over every date.
func (r Result) NewlyAvailable() int {
	n := 0
	for _, d := range r.Dates {
		n += len(d.NewlyAvailable)
	}
	return n
}

// Status remembers the latest cycle results for the HTTP surface.
type Status struct {
	mu          sync.RWMutex
	last        *Result
	runs        int
	lastSuccess time.Time
}

func NewStatus() *Status {
	return &Status{}
}

// Record stores r as the latest result.
func (s *Status) Record(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = &r
	s.runs++
	if r.Outcome != OutcomeFailed {
		s.lastSuccess = r.FinishedAt
	}
}

// Last returns the latest result, if any cycle ran.
func (s *Status) Last() (Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.last == nil {
		return Result{}, false
	}
	return *s.last, true
}

// Runs returns how many cycles were recorded.
func (s *Status) Runs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.runs
}

// LastSuccess returns when the latest non-failed cycle finished.
func (s *Status) LastSuccess() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastSuccess
}

// Ready reports whether at least one cycle has completed.
func (s *Status) Ready() bool {
	return s.Runs() > 0
}
