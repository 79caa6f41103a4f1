package domain

import (
	"fmt"

	"cloud.google.com/go/civil"
)

// DateMode selects how a DatePolicy produces dates.
type DateMode int

const (
	// DateModeSingle checks exactly one configured date.
	DateModeSingle DateMode = iota
	// DateModeRange checks an inclusive span of dates.
	DateModeRange
)

func (m DateMode) String() string {
	if m == DateModeRange {
		return "range"
	}
	return "single"
}

// DatePolicy describes which calendar dates a cycle checks.
//
// In range mode a zero RangeStart means "today" and a zero RangeEnd means
// start + MaxDaysAhead.
type DatePolicy struct {
	Mode         DateMode
	Date         civil.Date
	RangeStart   civil.Date
	RangeEnd     civil.Date
	MaxDaysAhead int
}

// SingleDate builds a single-date policy.
func SingleDate(d civil.Date) DatePolicy {
	return DatePolicy{Mode: DateModeSingle, Date: d}
}

// DaysAhead builds a range policy covering today through today+n.
func DaysAhead(n int) DatePolicy {
	return DatePolicy{Mode: DateModeRange, MaxDaysAhead: n}
}

// Between builds a range policy with explicit bounds.
func Between(start, end civil.Date) DatePolicy {
	return DatePolicy{Mode: DateModeRange, RangeStart: start, RangeEnd: end}
}

// Multi reports whether the policy checks dates independently (range mode).
func (p DatePolicy) Multi() bool { return p.Mode == DateModeRange }

// Validate checks the policy without expanding it.
func (p DatePolicy) Validate() error {
	switch p.Mode {
	case DateModeSingle:
		if !p.Date.IsValid() {
			return fmt.Errorf("%w: single-date mode needs a valid date", ErrConfiguration)
		}
	case DateModeRange:
		if p.MaxDaysAhead < 0 {
			return fmt.Errorf("%w: max days ahead must be >= 0, got %d", ErrConfiguration, p.MaxDaysAhead)
		}
		if !p.RangeStart.IsZero() && !p.RangeEnd.IsZero() && p.RangeEnd.Before(p.RangeStart) {
			return fmt.Errorf("%w: range end %s is before range start %s", ErrConfiguration, p.RangeEnd, p.RangeStart)
		}
	default:
		return fmt.Errorf("%w: unknown date mode %d", ErrConfiguration, p.Mode)
	}
	return nil
}

// Expand returns the dates to check, ascending and without duplicates.
func (p DatePolicy) Expand(today civil.Date) ([]civil.Date, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if p.Mode == DateModeSingle {
		return []civil.Date{p.Date}, nil
	}

	start := p.RangeStart
	if start.IsZero() {
		start = today
	}
	end := p.RangeEnd
	if end.IsZero() {
		end = start.AddDays(p.MaxDaysAhead)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: range end %s is before range start %s", ErrConfiguration, end, start)
	}

	dates := make([]civil.Date, 0, end.DaysSince(start)+1)
	for d := start; !d.After(end); d = d.AddDays(1) {
		dates = append(dates, d)
	}
	return dates, nil
}
