package utils

import "time"

// Clock abstracts "now" so the reservation state machine can be tested
// deterministically. Production code uses RealClock.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the same instant. Test helper.
type FixedClock struct {
	Time time.Time
}

func (f FixedClock) Now() time.Time {
	return f.Time
}
