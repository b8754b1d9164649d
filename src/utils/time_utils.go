package utils

import (
	"time"
)

// AlignToWindow floors t to the start of its scheduling window. Used to
// group upkeep runs that belong to the same tick cadence.
// A non-positive period returns t unchanged.
func AlignToWindow(t time.Time, period time.Duration) time.Time {
	if period <= 0 {
		return t
	}
	return t.Truncate(period)
}
