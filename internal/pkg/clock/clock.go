package clock

import "time"

// Clock provides the current time. Services take a Clock instead of calling
// time.Now directly so that time-dependent rules (grace windows, expiry,
// cancellation cutoffs) can be tested with a fixed clock.
type Clock interface {
	Now() time.Time
}

// System is the wall-clock implementation used in production.
type System struct{}

// Now returns the current UTC time.
func (System) Now() time.Time {
	return time.Now().UTC()
}
