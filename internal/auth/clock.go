package auth

import "time"

// Clock supplies the current time and the time arithmetic used by lockout.
type Clock interface {
	Now() time.Time
	AddMinutes(n int) time.Time
	IsPast(t time.Time) bool
}

// SystemClock is the wall clock in UTC
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

func (c SystemClock) AddMinutes(n int) time.Time {
	return c.Now().Add(time.Duration(n) * time.Minute)
}

// IsPast reports whether t is at or before now
func (c SystemClock) IsPast(t time.Time) bool {
	return !c.Now().Before(t)
}
