// Package calendar computes the (year, month) windows the ingestion
// protocol and chart reports operate on. All window math happens in the
// organization's home timezone so month boundaries line up with billing.
package calendar

import (
	"fmt"
	"time"
)

// Timezone is the fixed organizational timezone for month boundaries.
const Timezone = "Australia/Adelaide"

var location = mustLoad(Timezone)

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("calendar: load %s: %v", name, err))
	}
	return loc
}

// YearMonth identifies one ingestion window.
type YearMonth struct {
	Year  int
	Month int
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%d-%d", ym.Year, ym.Month)
}

// StartOfMonth is midnight on the first of the month in the home zone.
func StartOfMonth(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, location)
}

// WindowMillis returns the inclusive epoch-millisecond bounds of the
// month: first instant through the last millisecond before the next
// month begins.
func WindowMillis(year, month int) (startMS, endMS int64) {
	start := StartOfMonth(year, month)
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)
	return start.UnixMilli(), end.UnixMilli()
}

// MonthsToProcess lists the current month and the monthsBack-1 preceding
// ones, oldest first. monthsBack=1 yields just the current month.
// Rollover across year boundaries uses time.Date normalization, not
// modular arithmetic.
func MonthsToProcess(monthsBack int, now time.Time) []YearMonth {
	now = now.In(location)
	result := make([]YearMonth, 0, monthsBack)
	for i := monthsBack - 1; i >= 0; i-- {
		t := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, location)
		result = append(result, YearMonth{Year: t.Year(), Month: int(t.Month())})
	}
	return result
}

// CutoffMonthsAgo returns the (year, month) that chart queries use as an
// exclusive lower bound: rows strictly after it fall inside the window.
func CutoffMonthsAgo(monthsAgo int, now time.Time) YearMonth {
	now = now.In(location)
	t := time.Date(now.Year(), now.Month()-time.Month(monthsAgo), 1, 0, 0, 0, 0, location)
	return YearMonth{Year: t.Year(), Month: int(t.Month())}
}
