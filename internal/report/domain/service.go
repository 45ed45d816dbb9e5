package domain

import "context"

// Service aggregates stored usage into billing reports. Simple, rollup
// and detailed variants cover one exact (year, month); chart variants
// cover every month strictly after a rolling cutoff, optionally
// filtered to one billing organization.
type Service interface {
	HpcSummarySimple(ctx context.Context, year, month int) ([]HpcSimpleRow, error)
	HpcSummaryRollup(ctx context.Context, year, month int) ([]HpcRollupRow, error)
	HpcSummaryDetailed(ctx context.Context, year, month int) ([]HpcDetailedRow, error)
	HpcSummaryChart(ctx context.Context, org string, monthWindow int) ([]HpcChartRow, error)

	AllocationSummarySimple(ctx context.Context, year, month int) ([]AllocationRow, error)
	AllocationSummaryChart(ctx context.Context, org string, monthWindow int) ([]AllocationChartRow, error)

	HpcStorageSimple(ctx context.Context, year, month int) ([]HpcStorageRow, error)
	HpcStorageChart(ctx context.Context, org string, monthWindow int) ([]HpcStorageChartRow, error)

	NectarSimple(ctx context.Context, year, month int) ([]NectarRow, error)
	NectarChart(ctx context.Context, org string, monthWindow int) ([]NectarChartRow, error)

	TangoSimple(ctx context.Context, year, month int) ([]TangoRow, error)
	TangoChart(ctx context.Context, org string, monthWindow int) ([]TangoChartRow, error)
}
