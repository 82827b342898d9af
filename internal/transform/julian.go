package transform

import (
	"fmt"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// DecimalYear converts a calendar date to a decimal year, using Julian day
// numbers so leap years are handled: the fraction is the elapsed part of
// the year at 00:00 UTC on the given day.
func DecimalYear(year, month, day int) (float64, error) {
	if year < 1 {
		return 0, fmt.Errorf("invalid year %d", year)
	}
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("invalid month %d", month)
	}
	if day < 1 || day > DaysIn(year, time.Month(month)) {
		return 0, fmt.Errorf("invalid day %d for %04d-%02d", day, year, month)
	}

	start := satellite.JDay(year, 1, 1, 0, 0, 0)
	end := satellite.JDay(year+1, 1, 1, 0, 0, 0)
	jd := satellite.JDay(year, month, day, 0, 0, 0)

	return float64(year) + (jd-start)/(end-start), nil
}

// DaysIn returns the number of days in month m of year.
func DaysIn(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
