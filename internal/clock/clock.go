// Package clock abstracts time so stored records can be tested
// deterministically.
package clock

import "time"

// Clock provides time functionality.
type Clock interface {
	Now() time.Time
}

// Real implements Clock using actual system time.
type Real struct{}

// Now returns the current time.
func (Real) Now() time.Time {
	return time.Now()
}

// New returns a new real clock.
func New() Clock {
	return Real{}
}

// Fixed always reports the same instant.
type Fixed time.Time

// Now returns the fixed instant.
func (f Fixed) Now() time.Time {
	return time.Time(f)
}
