// Package biztime centralises how the service reads the wall clock.
// All storage and transport use UTC.
package biztime

import "time"

// Clock returns the current time. Components take a Clock so tests can pin it.
type Clock func() time.Time

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// FixedClock returns a Clock that always reports t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// UnixMilli converts milliseconds since the epoch to a UTC time.
func UnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
