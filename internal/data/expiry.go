package data

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// Listed equity options stop trading at the close in New York.
const (
	expiryTimeOfDay = "16:00"
	expiryTimeZone  = "America/New_York"
)

// CombineDateTime combines a date, time-of-day (HH:MM),
// and timezone into a time.Time
func CombineDateTime(day time.Time, timeOfDay string, timeZone string) (time.Time, error) {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone: %w", err)
	}

	parsed, err := time.Parse("15:04", timeOfDay)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timeOfDay format (HH:MM): %w", err)
	}

	return time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, loc), nil
}

// thirdFriday returns the standard monthly expiration date of year/month.
func thirdFriday(year int, month time.Month) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Friday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+14)
}

// NextMonthlyExpiry returns the first standard monthly expiration
// (third Friday, 16:00 New York) strictly after asOf.
func NextMonthlyExpiry(asOf time.Time) (time.Time, error) {
	year, month := asOf.Year(), asOf.Month()
	for i := 0; i < 2; i++ {
		exp, err := CombineDateTime(thirdFriday(year, month), expiryTimeOfDay, expiryTimeZone)
		if err != nil {
			return time.Time{}, err
		}
		if exp.After(asOf) {
			return exp, nil
		}
		year, month = nextMonth(year, month)
	}
	return time.Time{}, fmt.Errorf("no monthly expiry after %s", asOf.Format(time.RFC3339))
}

func nextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}
