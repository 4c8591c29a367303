package engine

import "time"

// Clock supplies the wall time used to stamp tags and to age ephemeral ones.
//
// Production uses SystemClock; tests inject a manual clock so the ephemeral
// TTL boundary can be checked without sleeping.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the system wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
