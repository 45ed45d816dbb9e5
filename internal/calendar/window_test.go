package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 30, 0, 0, location)
}

func TestMonthsToProcess(t *testing.T) {
	assert.Equal(t,
		[]YearMonth{{2018, 1}, {2018, 2}, {2018, 3}},
		MonthsToProcess(3, date(2018, time.March, 4)))

	assert.Equal(t,
		[]YearMonth{{2017, 11}, {2017, 12}, {2018, 1}},
		MonthsToProcess(3, date(2018, time.January, 4)))

	assert.Equal(t,
		[]YearMonth{{2018, 4}},
		MonthsToProcess(1, date(2018, time.April, 30)))
}

func TestCutoffMonthsAgo(t *testing.T) {
	assert.Equal(t, YearMonth{2017, 3}, CutoffMonthsAgo(12, date(2018, time.March, 4)))
	assert.Equal(t, YearMonth{2017, 12}, CutoffMonthsAgo(1, date(2018, time.January, 31)))
}

func TestWindowMillis(t *testing.T) {
	startMS, endMS := WindowMillis(2018, 2)

	start := time.UnixMilli(startMS).In(location)
	assert.Equal(t, 2018, start.Year())
	assert.Equal(t, time.February, start.Month())
	assert.Equal(t, 1, start.Day())
	assert.Equal(t, 0, start.Hour())

	end := time.UnixMilli(endMS).In(location)
	assert.Equal(t, time.February, end.Month())
	assert.Equal(t, 28, end.Day())
	assert.Equal(t, 23, end.Hour())

	// inclusive bound: one more millisecond lands in March
	assert.Equal(t, time.March, time.UnixMilli(endMS+1).In(location).Month())
}

func TestYearMonthString(t *testing.T) {
	assert.Equal(t, "2018-3", YearMonth{2018, 3}.String())
}
