package tcdd

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// AvailabilityResponse is the subset of the train-availability answer we read.
// TrainLegs is a pointer so a missing key can be told apart from an empty list.
type AvailabilityResponse struct {
	TrainLegs *[]TrainLeg `json:"trainLegs"`
}

type TrainLeg struct {
	TrainAvailabilities []TrainAvailability `json:"trainAvailabilities"`
}

type TrainAvailability struct {
	Trains []Train `json:"trains"`
}

type Train struct {
	ID             int64     `json:"id"`
	Number         string    `json:"number"`
	Name           string    `json:"name"`
	CommercialName string    `json:"commercialName"`
	Type           string    `json:"type"`
	Segments       []Segment `json:"segments"`
	Cars           []Car     `json:"cars"`
}

type Segment struct {
	DepartureTime Timestamp `json:"departureTime"`
}

type Car struct {
	ID             int64             `json:"id"`
	Name           string            `json:"name"`
	TrainID        int64             `json:"trainId"`
	Capacity       int               `json:"capacity"`
	Availabilities []CarAvailability `json:"availabilities"`
}

type CarAvailability struct {
	TrainCarID   int64       `json:"trainCarId"`
	TrainCarName *string     `json:"trainCarName"`
	CabinClass   *CabinClass `json:"cabinClass"`
	Availability int         `json:"availability"`
}

type CabinClass struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// SearchRequest is the body posted to the availability endpoint.
type SearchRequest struct {
	SearchRoutes        []SearchRoute        `json:"searchRoutes"`
	PassengerTypeCounts []PassengerTypeCount `json:"passengerTypeCounts"`
	SearchReservation   bool                 `json:"searchReservation"`
	BlTrainTypes        []string             `json:"blTrainTypes"`
}

type SearchRoute struct {
	DepartureStationID   int    `json:"departureStationId"`
	DepartureStationName string `json:"departureStationName"`
	ArrivalStationID     int    `json:"arrivalStationId"`
	ArrivalStationName   string `json:"arrivalStationName"`
	DepartureDate        string `json:"departureDate"`
}

type PassengerTypeCount struct {
	ID    int `json:"id"`
	Count int `json:"count"`
}

// Timestamp is a departure instant sent either as epoch milliseconds or as a
// date-time string. Values that cannot be read are kept as absent.
type Timestamp struct {
	millis *int64
	text   string
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02-01-2006 15:04:05",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	*t = Timestamp{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			t.millis = &ms
			return nil
		}
		t.text = s
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return nil
	}
	ms := int64(f)
	t.millis = &ms
	return nil
}

// IsZero reports an absent timestamp.
func (t Timestamp) IsZero() bool {
	return t.millis == nil && t.text == ""
}

// In resolves the instant in loc. Strings without a zone are read as wall
// clock time in loc.
func (t Timestamp) In(loc *time.Location) (time.Time, bool) {
	if t.millis != nil {
		return time.UnixMilli(*t.millis).In(loc), true
	}
	if t.text == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if v, err := time.ParseInLocation(layout, t.text, loc); err == nil {
			return v.In(loc), true
		}
	}
	return time.Time{}, false
}

// TimestampFromTime builds an epoch-milliseconds timestamp. Used by fixtures.
func TimestampFromTime(v time.Time) Timestamp {
	ms := v.UnixMilli()
	return Timestamp{millis: &ms}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	switch {
	case t.millis != nil:
		return []byte(strconv.FormatInt(*t.millis, 10)), nil
	case t.text != "":
		return json.Marshal(t.text)
	default:
		return []byte("null"), nil
	}
}
