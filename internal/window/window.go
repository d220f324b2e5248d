// Package window defines the snapshot window and the membership rules that
// decide which records a community snapshot contains.
package window

import (
	"time"
)

// DefaultDays is the length of the snapshot window.
const DefaultDays = 90

const day = 24 * time.Hour

// Window is the half-open date range [End−Days, End). Comparisons are made on
// UTC calendar dates, so End is truncated to midnight.
type Window struct {
	End  time.Time
	Days int
}

// New returns a window of days ending at end's calendar date.
func New(end time.Time, days int) Window {
	return Window{End: Date(end), Days: days}
}

// Today returns a window ending at today's UTC midnight.
func Today(days int) Window {
	return New(time.Now(), days)
}

// Date truncates t to its UTC calendar date.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole days from a's date to b's date.
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)) / day)
}

// Start returns the first date inside the window.
func (w Window) Start() time.Time {
	return w.End.AddDate(0, 0, -w.Days)
}

// Contains reports whether t's date lies in [Start, End).
func (w Window) Contains(t time.Time) bool {
	return w.Within(t, w.Days)
}

// Within reports whether t's date lies in the trailing days before End.
func (w Window) Within(t time.Time, days int) bool {
	date := Date(t)
	return !date.Before(w.End.AddDate(0, 0, -days)) && date.Before(w.End)
}

// Bucket splits the trailing buckets·bucketDays days into buckets and returns
// the index of t's bucket, the most recent being buckets−1. It returns −1
// when t falls outside that range.
func (w Window) Bucket(t time.Time, bucketDays, buckets int) int {
	if bucketDays <= 0 || buckets <= 0 {
		return -1
	}
	before := DaysBetween(t, w.End)
	if before < 1 {
		return -1
	}
	k := (before - 1) / bucketDays
	if k >= buckets {
		return -1
	}
	return buckets - 1 - k
}

func (w Window) String() string {
	return w.Start().Format(time.DateOnly) + " .. " + w.End.Format(time.DateOnly)
}
