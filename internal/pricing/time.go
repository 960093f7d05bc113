package pricing

import "time"

// SecondsPerYear is the length of a Gregorian year (365.2425 days) in seconds.
const SecondsPerYear = 31556952

// TauToYears converts a time to expiry expressed in seconds into years.
func TauToYears(tau float64) float64 {
	return tau / SecondsPerYear
}

// TauFromDuration returns d in seconds, the unit every pricing function expects for tau.
func TauFromDuration(d time.Duration) float64 {
	return d.Seconds()
}
