package domain

import (
	"errors"
	"testing"
)

func coach(train, at, name string, cabins ...CabinSeats) Coach {
	total := 0
	for _, c := range cabins {
		total += c.Seats
	}
	return Coach{
		Name:          name,
		TrainID:       train,
		DepartureTime: MustTimeOfDay(at),
		TotalSeats:    total,
		Cabins:        cabins,
	}
}

func economy(n int) CabinSeats { return CabinSeats{Code: "Y1", Name: "EKONOMI", Seats: n} }

func snapshotOf(coaches ...Coach) Snapshot {
	snap := Snapshot{Date: date("2024-01-01")}
	index := make(map[string]int)
	for _, c := range coaches {
		key := c.TrainID + c.DepartureTime.String()
		i, ok := index[key]
		if !ok {
			snap.Departures = append(snap.Departures, Departure{TrainID: c.TrainID, DepartureTime: c.DepartureTime})
			i = len(snap.Departures) - 1
			index[key] = i
		}
		snap.Departures[i].Coaches = append(snap.Departures[i].Coaches, c)
	}
	return snap
}

func names(coaches []Coach) []string {
	out := make([]string, 0, len(coaches))
	for _, c := range coaches {
		out = append(out, c.Name)
	}
	return out
}

func TestDiffSelfComparisonIsEmpty(t *testing.T) {
	snap := snapshotOf(
		coach("81001", "09:30", "Vagon 1", economy(3)),
		coach("81001", "09:30", "Vagon 2", economy(1)),
		coach("81003", "14:00", "Vagon 4", economy(12)),
	)

	for _, mode := range []MatchMode{MatchByName, MatchByDeparture} {
		if got := Diff(snap, &snap, mode); len(got) != 0 {
			t.Errorf("Diff(S, S) with mode %s = %v, want empty", mode, names(got))
		}
	}
}

func TestDiffColdStartReturnsEverythingInOrder(t *testing.T) {
	snap := snapshotOf(
		coach("81001", "09:30", "Vagon 3", economy(2)),
		coach("81001", "09:30", "Vagon 1", economy(5)),
		coach("81003", "14:00", "Vagon 2", economy(7)),
	)

	got := Diff(snap, nil, MatchByName)
	want := []string{"Vagon 3", "Vagon 1", "Vagon 2"}
	if len(got) != len(want) {
		t.Fatalf("Diff(S, nil) returned %d coaches, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Name != want[i] {
			t.Errorf("Diff(S, nil)[%d] = %s, want %s", i, got[i].Name, want[i])
		}
	}
}

func TestDiffZeroToPositiveAppearsOnce(t *testing.T) {
	previous := snapshotOf(coach("81001", "09:30", "Vagon 1"))
	current := snapshotOf(coach("81001", "09:30", "Vagon 1", economy(4)))

	got := Diff(current, &previous, MatchByName)
	if len(got) != 1 {
		t.Fatalf("Diff() returned %d coaches, want 1", len(got))
	}
	if got[0].TotalSeats != 4 {
		t.Errorf("Diff()[0].TotalSeats = %d, want 4", got[0].TotalSeats)
	}
}

func TestDiffIgnoresAlreadyReportedAndLostAvailability(t *testing.T) {
	previous := snapshotOf(
		coach("81001", "09:30", "Vagon 1", economy(4)),
		coach("81001", "09:30", "Vagon 2", economy(2)),
	)
	// Vagon 2 sold out and was filtered at normalization; Vagon 1 changed count only.
	current := snapshotOf(
		coach("81001", "09:30", "Vagon 1", economy(1)),
		coach("81001", "09:30", "Vagon 5", economy(6)),
	)

	got := Diff(current, &previous, MatchByName)
	if len(got) != 1 || got[0].Name != "Vagon 5" {
		t.Errorf("Diff() = %v, want [Vagon 5]", names(got))
	}
}

func TestDiffMatchModes(t *testing.T) {
	// Same coach label on two different departures.
	previous := snapshotOf(coach("81001", "09:30", "Vagon 5", economy(3)))
	current := snapshotOf(
		coach("81001", "09:30", "Vagon 5", economy(3)),
		coach("81007", "18:45", "Vagon 5", economy(2)),
	)

	byName := Diff(current, &previous, MatchByName)
	if len(byName) != 0 {
		t.Errorf("name matching: Diff() = %v, want empty", names(byName))
	}

	composite := Diff(current, &previous, MatchByDeparture)
	if len(composite) != 1 || composite[0].TrainID != "81007" {
		t.Errorf("composite matching: Diff() = %v, want the 81007 coach only", composite)
	}
}

func TestParseMatchMode(t *testing.T) {
	tests := []struct {
		input    string
		expected MatchMode
		wantErr  bool
	}{
		{input: "", expected: MatchByName},
		{input: "name", expected: MatchByName},
		{input: "composite", expected: MatchByDeparture},
		{input: "fuzzy", wantErr: true},
	}

	for _, tt := range tests {
		result, err := ParseMatchMode(tt.input)
		if tt.wantErr != (err != nil) {
			t.Errorf("ParseMatchMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if result != tt.expected {
			t.Errorf("ParseMatchMode(%q) = %v, want %v", tt.input, result, tt.expected)
		}
	}
}

func TestFetchErrorClassification(t *testing.T) {
	err := &FetchError{Date: date("2024-01-01"), Err: ErrAuth}

	if !errors.Is(err, ErrFetch) {
		t.Error("FetchError should match ErrFetch")
	}
	if !errors.Is(err, ErrAuth) {
		t.Error("FetchError should unwrap to its cause")
	}
	if errors.Is(err, ErrNotify) {
		t.Error("FetchError should not match ErrNotify")
	}
}
