package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Boundary validation for report paths and querystrings. Years outside
// 2010-2100 are assumed to be typos rather than valid windows.
const (
	minYear  = 2010
	maxYear  = 2100
	minMonth = 1
	maxMonth = 12

	defaultMonthWindow = 12
	maxMonthWindow     = 24

	defaultMonthsBack = 2
	maxMonthsBack     = 100
)

func parseYearMonth(c *gin.Context) (year, month int, err error) {
	year, err = strconv.Atoi(c.Param("year"))
	if err != nil || year < minYear || year > maxYear {
		return 0, 0, newValidationError("year", "invalid_year", "year must be between 2010 and 2100")
	}
	month, err = strconv.Atoi(c.Param("month"))
	if err != nil || month < minMonth || month > maxMonth {
		return 0, 0, newValidationError("month", "invalid_month", "month must be between 1 and 12")
	}
	return year, month, nil
}

func parseMonthWindow(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.Query("month_window"))
	if raw == "" {
		return defaultMonthWindow, nil
	}
	window, err := strconv.Atoi(raw)
	if err != nil || window < 1 || window > maxMonthWindow {
		return 0, newValidationError("month_window", "invalid_month_window", "month_window must be between 1 and 24")
	}
	return window, nil
}

func parseMonthsBack(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.Query("months_back"))
	if raw == "" {
		return defaultMonthsBack, nil
	}
	monthsBack, err := strconv.Atoi(raw)
	if err != nil || monthsBack < 1 || monthsBack > maxMonthsBack {
		return 0, newValidationError("months_back", "invalid_months_back", "months_back must be between 1 and 100")
	}
	return monthsBack, nil
}
