package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

// Alert is one notification: the coaches of a date that became available.
type Alert struct {
	Route     Route
	Date      civil.Date
	Coaches   []Coach
	CheckedAt time.Time
}

// TotalSeats sums the seats of every coach in the alert.
func (a Alert) TotalSeats() int {
	total := 0
	for _, c := range a.Coaches {
		total += c.TotalSeats
	}
	return total
}
