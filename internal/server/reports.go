package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// windowReport wraps a single-month report: validate the (year, month)
// path, run the query, emit JSON.
func (s *Server) windowReport(report func(ctx context.Context, year, month int) (any, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		year, month, err := parseYearMonth(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		result, err := report(c.Request.Context(), year, month)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// chartReport wraps a rolling-window report with the optional org
// filter and month_window querystring.
func (s *Server) chartReport(report func(ctx context.Context, org string, monthWindow int) (any, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		monthWindow, err := parseMonthWindow(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		result, err := report(c.Request.Context(), c.Query("org"), monthWindow)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func (s *Server) reportHpcSimple(ctx context.Context, year, month int) (any, error) {
	return s.reports.HpcSummarySimple(ctx, year, month)
}

func (s *Server) reportHpcRollup(ctx context.Context, year, month int) (any, error) {
	return s.reports.HpcSummaryRollup(ctx, year, month)
}

func (s *Server) reportHpcDetailed(ctx context.Context, year, month int) (any, error) {
	return s.reports.HpcSummaryDetailed(ctx, year, month)
}

func (s *Server) reportHpcChart(ctx context.Context, org string, monthWindow int) (any, error) {
	return s.reports.HpcSummaryChart(ctx, org, monthWindow)
}

func (s *Server) reportAllocationSimple(ctx context.Context, year, month int) (any, error) {
	return s.reports.AllocationSummarySimple(ctx, year, month)
}

func (s *Server) reportAllocationChart(ctx context.Context, org string, monthWindow int) (any, error) {
	return s.reports.AllocationSummaryChart(ctx, org, monthWindow)
}

func (s *Server) reportHpcStorageSimple(ctx context.Context, year, month int) (any, error) {
	return s.reports.HpcStorageSimple(ctx, year, month)
}

func (s *Server) reportHpcStorageChart(ctx context.Context, org string, monthWindow int) (any, error) {
	return s.reports.HpcStorageChart(ctx, org, monthWindow)
}

func (s *Server) reportNectarSimple(ctx context.Context, year, month int) (any, error) {
	return s.reports.NectarSimple(ctx, year, month)
}

func (s *Server) reportNectarChart(ctx context.Context, org string, monthWindow int) (any, error) {
	return s.reports.NectarChart(ctx, org, monthWindow)
}

func (s *Server) reportTangoSimple(ctx context.Context, year, month int) (any, error) {
	return s.reports.TangoSimple(ctx, year, month)
}

func (s *Server) reportTangoChart(ctx context.Context, org string, monthWindow int) (any, error) {
	return s.reports.TangoChart(ctx, org, monthWindow)
}

// handleProcess triggers a synchronous ingestion run. The response body
// reports failed runs; only infrastructure errors become HTTP errors.
func (s *Server) handleProcess(c *gin.Context) {
	monthsBack, err := parseMonthsBack(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	result, err := s.runner.Run(c.Request.Context(), monthsBack)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
