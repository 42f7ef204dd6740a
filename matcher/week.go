package matcher

import "time"

// weekday converts time.Weekday (Sunday=0) to the Mo=0 ... So=6 ordinals
func weekday(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// WeekParity is the A/B rotation of date: (day of year / 7) % 2, 0 for A.
// School holidays do not reset it.
func WeekParity(date time.Time) int {
	return (date.YearDay() / 7) % 2
}
