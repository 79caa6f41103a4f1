package tcdd

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/MrSnakeDoc/seatwatch/internal/domain"
)

// FallbackDepartureTime is used when a train carries no readable segment timestamp.
var FallbackDepartureTime = domain.MustTimeOfDay("21:00")

// CoachPrefix is prepended to the provider car name to form the coach name.
const CoachPrefix = "Vagon "

// Mapper converts an availability response into a domain snapshot.
type Mapper struct {
	allow domain.CabinAllowList
	loc   *time.Location
}

// NewMapper creates a mapper keeping only the given cabin classes. Times are
// interpreted in loc.
func NewMapper(allow []string, loc *time.Location) *Mapper {
	if len(allow) == 0 {
		allow = domain.DefaultCabinClasses
	}
	if loc == nil {
		loc = time.Local
	}
	return &Mapper{allow: domain.CabinAllowList(allow), loc: loc}
}

type departureKey struct {
	train string
	at    domain.TimeOfDay
}

// Normalize builds the snapshot of target from resp.
//
// Departures already gone (same calendar day as now, earlier time) are dropped.
// Coaches without positive allow-listed seats are dropped, as are departures
// left without coaches. Trains sharing number and departure time are merged.
func (m *Mapper) Normalize(resp *AvailabilityResponse, target civil.Date, now time.Time) (domain.Snapshot, error) {
	snap := domain.Snapshot{Date: target, Departures: []domain.Departure{}}
	if resp == nil || resp.TrainLegs == nil {
		return snap, fmt.Errorf("%w: trainLegs is missing", domain.ErrMalformedResponse)
	}

	now = now.In(m.loc)
	today := civil.DateOf(now)
	nowTime := domain.TimeOfDayOf(now)

	index := make(map[departureKey]int)
	for _, leg := range *resp.TrainLegs {
		for _, avail := range leg.TrainAvailabilities {
			for _, train := range avail.Trains {
				at, date := m.departureOf(train, target)
				if date == today && at < nowTime {
					continue
				}

				coaches := m.coachesOf(train, at)
				if len(coaches) == 0 {
					continue
				}

				key := departureKey{train: train.Number, at: at}
				if i, ok := index[key]; ok {
					snap.Departures[i].Coaches = append(snap.Departures[i].Coaches, coaches...)
					continue
				}
				index[key] = len(snap.Departures)
				snap.Departures = append(snap.Departures, domain.Departure{
					TrainID:       train.Number,
					TrainName:     train.Name,
					DepartureTime: at,
					Coaches:       coaches,
				})
			}
		}
	}

	return snap, nil
}

func (m *Mapper) departureOf(train Train, target civil.Date) (domain.TimeOfDay, civil.Date) {
	if len(train.Segments) > 0 {
		if ts, ok := train.Segments[0].DepartureTime.In(m.loc); ok {
			return domain.TimeOfDayOf(ts), civil.DateOf(ts)
		}
	}
	return FallbackDepartureTime, target
}

func (m *Mapper) coachesOf(train Train, at domain.TimeOfDay) []domain.Coach {
	var coaches []domain.Coach
	for _, car := range train.Cars {
		var cabins []domain.CabinSeats
		total := 0
		for _, a := range car.Availabilities {
			if a.CabinClass == nil || !m.allow.Allows(a.CabinClass.Code) || a.Availability <= 0 {
				continue
			}
			cabins = append(cabins, domain.CabinSeats{
				Code:  a.CabinClass.Code,
				Name:  a.CabinClass.Name,
				Seats: a.Availability,
			})
			total += a.Availability
		}
		if total == 0 {
			continue
		}
		coaches = append(coaches, domain.Coach{
			Name:          CoachPrefix + car.Name,
			TrainID:       train.Number,
			DepartureTime: at,
			TotalSeats:    total,
			Cabins:        cabins,
		})
	}
	return coaches
}
