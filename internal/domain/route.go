package domain

import (
	"fmt"
	"slices"
)

// Route identifies the monitored origin/destination pair.
type Route struct {
	DepartureID   int    `json:"departureId" yaml:"departure_id"`
	DepartureName string `json:"departureName" yaml:"departure_name"`
	ArrivalID     int    `json:"arrivalId" yaml:"arrival_id"`
	ArrivalName   string `json:"arrivalName" yaml:"arrival_name"`
}

// Key is a stable identifier used to namespace persisted state.
func (r Route) Key() string {
	return fmt.Sprintf("%d-%d", r.DepartureID, r.ArrivalID)
}

func (r Route) String() string {
	return r.DepartureName + " - " + r.ArrivalName
}

// DefaultCabinClasses are the economy, business and lodge classes.
var DefaultCabinClasses = []string{"C", "L", "Y1"}

// CabinAllowList holds the cabin-class codes that are monitored.
type CabinAllowList []string

func (a CabinAllowList) Allows(code string) bool {
	return code != "" && slices.Contains(a, code)
}
