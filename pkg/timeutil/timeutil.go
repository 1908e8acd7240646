// Package timeutil provides UTC window calculations used by leaderboards
// and achievement conditions. All boundaries are computed in UTC so every
// instance of the service agrees on them.
package timeutil

import "time"

// StartOfDay returns midnight UTC of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// StartOfMonth returns midnight UTC of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// RollingWeek returns the instant exactly seven days before t. Week
// windows are rolling rather than calendar-aligned.
func RollingWeek(t time.Time) time.Time {
	return t.UTC().Add(-7 * 24 * time.Hour)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
