package timeutil

import (
	"time"
)

// CETToUTC converts a wall-clock time displayed in Central European Time to
// UTC, applying the EU DST rule: summer time (CEST, UTC+2) runs from the
// last Sunday of March to the last Sunday of October; otherwise CET (UTC+1).
// Sites that render kickoff times in CET/CEST without a zone need this.
func CETToUTC(year int, month time.Month, day, hour, minute int) time.Time {
	local := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)

	offset := 1 * time.Hour
	if isCEST(local) {
		offset = 2 * time.Hour
	}
	return local.Add(-offset)
}

// isCEST reports whether the given wall-clock instant falls in EU summer
// time. The switch happens at 02:00 local on the last Sunday of March and
// 03:00 local on the last Sunday of October.
func isCEST(local time.Time) bool {
	year := local.Year()
	start := lastSunday(year, time.March).Add(2 * time.Hour)
	end := lastSunday(year, time.October).Add(3 * time.Hour)
	return !local.Before(start) && local.Before(end)
}

// lastSunday returns midnight of the last Sunday of the month.
func lastSunday(year int, month time.Month) time.Time {
	// Walk back from the last day of the month.
	d := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	for d.Weekday() != time.Sunday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
