package models

import "fmt"

// Window is a fetch range of calendar days. Start is always inclusive;
// End is inclusive unless EndExclusive is set.
type Window struct {
	Start        Date
	End          Date
	EndExclusive bool
}

// LastDay returns the last day the window includes
func (w Window) LastDay() Date {
	if w.EndExclusive {
		return w.End.AddDays(-1)
	}
	return w.End
}

// Empty reports whether the window covers no day at all
func (w Window) Empty() bool {
	if w.Start.IsZero() || w.End.IsZero() {
		return false
	}
	return w.LastDay() < w.Start
}

func (w Window) String() string {
	closing := "]"
	if w.EndExclusive {
		closing = ")"
	}
	return fmt.Sprintf("[%s, %s%s", w.Start, w.End, closing)
}
