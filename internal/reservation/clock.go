package reservation

import "time"

// Clock supplies "now" to everything time dependent: fee tiers, completion
// gating and past-date validation.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)
