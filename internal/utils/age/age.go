// Package age derives ages from dates of birth using calendar years.
package age

import "time"

// Date truncates t to midnight UTC of its calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Years returns the age in whole calendar years on the given day:
// the year difference, minus one if this year's birthday has not happened yet.
func Years(dob, today time.Time) int {
	dob, today = Date(dob), Date(today)
	years := today.Year() - dob.Year()
	if dob.AddDate(years, 0, 0).After(today) {
		years--
	}
	return years
}

// BirthBounds returns the inclusive range of birth dates whose age on today
// lies within [minAge, maxAge].
func BirthBounds(minAge, maxAge int, today time.Time) (earliest, latest time.Time) {
	today = Date(today)
	latest = latestBornAtAge(minAge, today)
	earliest = latestBornAtAge(maxAge+1, today).AddDate(0, 0, 1)
	return earliest, latest
}

// latestBornAtAge is the last birth date that is at least n years old today.
// Feb 29 clamps back to Feb 28 instead of rolling into March.
func latestBornAtAge(n int, today time.Time) time.Time {
	y, m, d := today.Date()
	y -= n
	if last := daysIn(y, m); d > last {
		d = last
	}
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
