package domain

import "fmt"

// MatchMode selects how a current coach is paired with a previous one.
type MatchMode int

const (
	// MatchByName pairs coaches by name only, across all departures of the date.
	MatchByName MatchMode = iota
	// MatchByDeparture pairs coaches by (train, departure time, name).
	MatchByDeparture
)

// ParseMatchMode accepts "name" and "composite".
func ParseMatchMode(s string) (MatchMode, error) {
	switch s {
	case "", "name":
		return MatchByName, nil
	case "composite":
		return MatchByDeparture, nil
	default:
		return MatchByName, fmt.Errorf("unknown match mode %q (want name|composite)", s)
	}
}

func (m MatchMode) String() string {
	if m == MatchByDeparture {
		return "composite"
	}
	return "name"
}

func (m MatchMode) key(c Coach) string {
	if m == MatchByDeparture {
		return c.TrainID + "|" + c.DepartureTime.String() + "|" + c.Name
	}
	return c.Name
}

// Diff returns the coaches of current that became available since previous.
//
// A nil previous is a cold start and every coach with seats is returned. Otherwise a
// coach is new when no previous coach matched it or every match had zero seats.
// Coaches losing availability are not reported. Output keeps current's order.
func Diff(current Snapshot, previous *Snapshot, mode MatchMode) []Coach {
	var prevSeats map[string]int
	if previous != nil {
		prevSeats = make(map[string]int)
		for _, c := range previous.Coaches() {
			k := mode.key(c)
			prevSeats[k] = max(prevSeats[k], c.TotalSeats)
		}
	}

	var fresh []Coach
	for _, c := range current.Coaches() {
		if c.TotalSeats <= 0 {
			continue
		}
		if prevSeats != nil {
			if seats, ok := prevSeats[mode.key(c)]; ok && seats > 0 {
				continue
			}
		}
		fresh = append(fresh, c)
	}
	return fresh
}
