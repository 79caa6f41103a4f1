package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

// CabinSeats is the seat count of one cabin class inside a coach.
type CabinSeats struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Seats int    `json:"seats"`
}

// Coach is a single car with positive availability in allow-listed cabins.
// TotalSeats always equals the sum of Cabins[i].Seats.
type Coach struct {
	Name          string       `json:"coachName"`
	TrainID       string       `json:"trainId"`
	DepartureTime TimeOfDay    `json:"departureTime"`
	TotalSeats    int          `json:"totalSeats"`
	Cabins        []CabinSeats `json:"cabinBreakdown,omitempty"`
}

// Departure groups the coaches of one train leaving at one time.
// (TrainID, DepartureTime) is its identity.
type Departure struct {
	TrainID       string    `json:"trainId"`
	TrainName     string    `json:"trainName,omitempty"`
	DepartureTime TimeOfDay `json:"departureTime"`
	Coaches       []Coach   `json:"coaches"`
}

// Snapshot is the normalized availability of one date at one point in time.
// It is never mutated once built.
type Snapshot struct {
	Date       civil.Date  `json:"date"`
	Departures []Departure `json:"departures"`
}

// Coaches flattens the snapshot in departure order.
func (s Snapshot) Coaches() []Coach {
	var out []Coach
	for _, d := range s.Departures {
		out = append(out, d.Coaches...)
	}
	return out
}

// TotalSeats sums the seats over every coach.
func (s Snapshot) TotalSeats() int {
	total := 0
	for _, d := range s.Departures {
		for _, c := range d.Coaches {
			total += c.TotalSeats
		}
	}
	return total
}

// StateVersion is the current schema version of State.
const StateVersion = 2

// State is the durable memory between cycles: the last snapshot per checked date.
type State struct {
	Version       int                     `json:"version"`
	Route         string                  `json:"route,omitempty"`
	LastCheckedAt time.Time               `json:"lastCheckedAt"`
	Snapshots     map[civil.Date]Snapshot `json:"snapshots"`
}

// NewState returns an empty (cold start) state for route.
func NewState(route string) State {
	return State{
		Version:   StateVersion,
		Route:     route,
		Snapshots: make(map[civil.Date]Snapshot),
	}
}

// Snapshot returns the stored snapshot for date, or nil when there is none.
func (s State) Snapshot(date civil.Date) *Snapshot {
	snap, ok := s.Snapshots[date]
	if !ok {
		return nil
	}
	return &snap
}

// Empty reports a cold start.
func (s State) Empty() bool { return len(s.Snapshots) == 0 }

// Prune drops the snapshots of dates before today and returns how many were removed.
func (s *State) Prune(today civil.Date) int {
	removed := 0
	for date := range s.Snapshots {
		if date.Before(today) {
			delete(s.Snapshots, date)
			removed++
		}
	}
	return removed
}

// Clone returns a copy whose snapshot map can be modified independently.
func (s State) Clone() State {
	out := s
	out.Snapshots = make(map[civil.Date]Snapshot, len(s.Snapshots))
	for k, v := range s.Snapshots {
		out.Snapshots[k] = v
	}
	return out
}
