package domain

// CheckWindow is the daily span during which polling may run.
// Both bounds are inclusive. A window whose start is after its end never opens;
// spans across midnight are not supported.
type CheckWindow struct {
	Start TimeOfDay `json:"start" yaml:"start"`
	End   TimeOfDay `json:"end" yaml:"end"`
}

// FullDay is open from 00:00 to 23:59.
var FullDay = CheckWindow{Start: 0, End: minutesPerDay - 1}

// IsOpen reports whether now falls inside the window.
func (w CheckWindow) IsOpen(now TimeOfDay) bool {
	return w.Start <= now && now <= w.End
}

func (w CheckWindow) String() string {
	return w.Start.String() + "-" + w.End.String()
}
