package tcdd

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/MrSnakeDoc/seatwatch/internal/domain"
)

var trt = time.FixedZone("TRT", 3*60*60)

func at(date civil.Date, hhmm string) Timestamp {
	tod := domain.MustTimeOfDay(hhmm)
	return TimestampFromTime(time.Date(date.Year, date.Month, date.Day, tod.Hour(), tod.Minute(), 0, 0, trt))
}

func car(name string, seats map[string]int) Car {
	c := Car{Name: name}
	for code, n := range seats {
		c.Availabilities = append(c.Availabilities, CarAvailability{
			CabinClass:   &CabinClass{Code: code, Name: code + " class"},
			Availability: n,
		})
	}
	return c
}

func train(number string, ts Timestamp, cars ...Car) Train {
	t := Train{Number: number, Name: "Doğu Ekspresi", Cars: cars}
	if !ts.IsZero() {
		t.Segments = []Segment{{DepartureTime: ts}}
	}
	return t
}

func responseOf(trains ...Train) *AvailabilityResponse {
	legs := []TrainLeg{{TrainAvailabilities: []TrainAvailability{{Trains: trains}}}}
	return &AvailabilityResponse{TrainLegs: &legs}
}

func TestNormalize(t *testing.T) {
	target := civil.Date{Year: 2024, Month: time.December, Day: 10}
	earlier := time.Date(2024, time.December, 1, 8, 0, 0, 0, trt)
	m := NewMapper(nil, trt)

	tests := []struct {
		name       string
		resp       *AvailabilityResponse
		now        time.Time
		departures int
		coaches    []string
		seats      int
	}{
		{
			name:       "single coach with economy seats",
			resp:       responseOf(train("81001", at(target, "09:30"), car("3", map[string]int{"Y1": 4}))),
			now:        earlier,
			departures: 1,
			coaches:    []string{"Vagon 3"},
			seats:      4,
		},
		{
			name: "non allow-listed cabin is ignored",
			resp: responseOf(train("81001", at(target, "09:30"),
				car("1", map[string]int{"Y1": 2, "DISABLED": 5}),
				car("2", map[string]int{"DISABLED": 5}),
			)),
			now:        earlier,
			departures: 1,
			coaches:    []string{"Vagon 1"},
			seats:      2,
		},
		{
			name:       "departure without coaches is dropped",
			resp:       responseOf(train("81001", at(target, "09:30"), car("1", map[string]int{"Y1": 0}))),
			now:        earlier,
			departures: 0,
		},
		{
			name: "trains sharing number and time are merged",
			resp: responseOf(
				train("81001", at(target, "09:30"), car("1", map[string]int{"C": 1})),
				train("81001", at(target, "09:30"), car("2", map[string]int{"L": 2})),
				train("81001", at(target, "18:00"), car("3", map[string]int{"Y1": 3})),
			),
			now:        earlier,
			departures: 2,
			coaches:    []string{"Vagon 1", "Vagon 2", "Vagon 3"},
			seats:      6,
		},
		{
			name: "departures earlier today are stale",
			resp: responseOf(
				train("81001", at(target, "09:30"), car("1", map[string]int{"Y1": 1})),
				train("81003", at(target, "14:00"), car("2", map[string]int{"Y1": 1})),
			),
			now:        time.Date(2024, time.December, 10, 12, 0, 0, 0, trt),
			departures: 1,
			coaches:    []string{"Vagon 2"},
			seats:      1,
		},
		{
			name:       "next day departure earlier in the day than now is kept",
			resp:       responseOf(train("81005", at(target.AddDays(1), "07:00"), car("4", map[string]int{"Y1": 2}))),
			now:        time.Date(2024, time.December, 10, 12, 0, 0, 0, trt),
			departures: 1,
			coaches:    []string{"Vagon 4"},
			seats:      2,
		},
		{
			name:       "missing timestamp falls back to 21:00 on the target date",
			resp:       responseOf(train("81001", Timestamp{}, car("1", map[string]int{"Y1": 1}))),
			now:        time.Date(2024, time.December, 10, 20, 0, 0, 0, trt),
			departures: 1,
			coaches:    []string{"Vagon 1"},
			seats:      1,
		},
		{
			name:       "empty leg list",
			resp:       responseOf(),
			now:        earlier,
			departures: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := m.Normalize(tt.resp, target, tt.now)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if snap.Date != target {
				t.Errorf("Date = %v, want %v", snap.Date, target)
			}
			if len(snap.Departures) != tt.departures {
				t.Fatalf("departures = %d, want %d", len(snap.Departures), tt.departures)
			}

			var names []string
			for _, c := range snap.Coaches() {
				names = append(names, c.Name)
				sum := 0
				for _, cabin := range c.Cabins {
					sum += cabin.Seats
				}
				if sum != c.TotalSeats {
					t.Errorf("coach %s: TotalSeats = %d, cabins sum to %d", c.Name, c.TotalSeats, sum)
				}
			}
			if len(names) != len(tt.coaches) {
				t.Fatalf("coaches = %v, want %v", names, tt.coaches)
			}
			for i := range names {
				if names[i] != tt.coaches[i] {
					t.Errorf("coach[%d] = %s, want %s", i, names[i], tt.coaches[i])
				}
			}
			if got := snap.TotalSeats(); got != tt.seats {
				t.Errorf("TotalSeats() = %d, want %d", got, tt.seats)
			}
		})
	}
}

func TestNormalizeFallbackTime(t *testing.T) {
	target := civil.Date{Year: 2024, Month: time.December, Day: 10}
	snap, err := NewMapper(nil, trt).Normalize(
		responseOf(train("81001", Timestamp{}, car("1", map[string]int{"Y1": 1}))),
		target,
		time.Date(2024, time.December, 9, 8, 0, 0, 0, trt),
	)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got := snap.Departures[0].DepartureTime; got != FallbackDepartureTime {
		t.Errorf("DepartureTime = %s, want %s", got, FallbackDepartureTime)
	}
}

func TestNormalizeMissingLegs(t *testing.T) {
	target := civil.Date{Year: 2024, Month: time.December, Day: 10}

	var resp AvailabilityResponse
	if err := json.Unmarshal([]byte(`{"foo": []}`), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	_, err := NewMapper(nil, trt).Normalize(&resp, target, time.Now())
	if !errors.Is(err, domain.ErrMalformedResponse) {
		t.Errorf("Normalize() error = %v, want ErrMalformedResponse", err)
	}
}

func TestTimestampUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		zero     bool
	}{
		{name: "epoch millis", raw: `1733812200000`, expected: "09:30"},
		{name: "millis as string", raw: `"1733812200000"`, expected: "09:30"},
		{name: "rfc3339", raw: `"2024-12-10T06:30:00Z"`, expected: "09:30"},
		{name: "local wall clock", raw: `"2024-12-10T09:30:00"`, expected: "09:30"},
		{name: "null", raw: `null`, zero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			if err := json.Unmarshal([]byte(tt.raw), &ts); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if ts.IsZero() != tt.zero {
				t.Fatalf("IsZero() = %v, want %v", ts.IsZero(), tt.zero)
			}
			if tt.zero {
				return
			}
			v, ok := ts.In(trt)
			if !ok {
				t.Fatal("In() ok = false")
			}
			if got := domain.TimeOfDayOf(v).String(); got != tt.expected {
				t.Errorf("time of day = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestTimestampGarbageIsAbsent(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte(`"soon"`), &ts); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if _, ok := ts.In(trt); ok {
		t.Error("In() ok = true for an unreadable timestamp")
	}
}
