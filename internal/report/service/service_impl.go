package service

import (
	"context"

	"github.com/smallbiznis/chargeview/internal/billing"
	"github.com/smallbiznis/chargeview/internal/calendar"
	"github.com/smallbiznis/chargeview/internal/clock"
	"github.com/smallbiznis/chargeview/internal/config"
	reportdomain "github.com/smallbiznis/chargeview/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Pricing *config.PricingHolder
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	pricing *config.PricingHolder
}

func NewService(p ServiceParam) reportdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("report.service"),
		clock:   p.Clock,
		pricing: p.Pricing,
	}
}

// hpcAggRow is the shared scan target for the HPC summary variants.
// Columns a variant does not select stay nil.
type hpcAggRow struct {
	Biller          *string          `gorm:"column:biller"`
	ManagerUnit     *string          `gorm:"column:managerunit"`
	ManagerUsername *string          `gorm:"column:managerusername"`
	Manager         *string          `gorm:"column:manager"`
	ManagerEmail    *string          `gorm:"column:manageremail"`
	UnitPrice       *billing.Decimal `gorm:"column:unit_price"`
	Queue           *string          `gorm:"column:queue"`
	Year            int              `gorm:"column:year"`
	Month           int              `gorm:"column:month"`
	Cores           *int64           `gorm:"column:cores"`
	CPUSeconds      *int64           `gorm:"column:cpu_seconds"`
	JobCount        *int64           `gorm:"column:job_count"`
}

const hpcSimpleQuery = `
SELECT accounts.biller, account_contacts.managerunit, contracts.unit_price,
       SUM(u.cores) AS cores, SUM(u.cpu_seconds) AS cpu_seconds, SUM(u.job_count) AS job_count
FROM hpc_summary_usage u
JOIN account_contacts ON account_contacts.managerusername = u.owner
JOIN accounts ON accounts.id = account_contacts.account_id
JOIN contracts ON contracts.account_id = accounts.id AND contracts.contract_type = 'ersa_account'
WHERE u.year = ? AND u.month = ?
GROUP BY accounts.biller, account_contacts.managerunit, contracts.unit_price`

func (s *Service) HpcSummarySimple(ctx context.Context, year, month int) ([]reportdomain.HpcSimpleRow, error) {
	var rows []hpcAggRow
	if err := s.db.WithContext(ctx).Raw(hpcSimpleQuery, year, month).Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]reportdomain.HpcSimpleRow, 0, len(rows))
	for _, row := range rows {
		hours, fee := hpcDerived(row)
		result = append(result, reportdomain.HpcSimpleRow{
			Biller:      row.Biller,
			ManagerUnit: row.ManagerUnit,
			UnitPrice:   decimalFloat(row.UnitPrice),
			Cores:       i64(row.Cores),
			CPUSeconds:  i64(row.CPUSeconds),
			JobCount:    i64(row.JobCount),
			CPUHours:    hours,
			FeeDollars:  fee,
		})
	}
	return result, nil
}

const hpcRollupQuery = `
SELECT accounts.biller, account_contacts.managerunit, account_contacts.managerusername,
       account_contacts.manager, account_contacts.manageremail, contracts.unit_price,
       SUM(u.cores) AS cores, SUM(u.cpu_seconds) AS cpu_seconds, SUM(u.job_count) AS job_count
FROM hpc_summary_usage u
JOIN account_contacts ON account_contacts.managerusername = u.owner
JOIN accounts ON accounts.id = account_contacts.account_id
JOIN contracts ON contracts.account_id = accounts.id AND contracts.contract_type = 'ersa_account'
WHERE u.year = ? AND u.month = ?
GROUP BY accounts.biller, account_contacts.managerunit, account_contacts.managerusername,
         account_contacts.manager, account_contacts.manageremail, contracts.unit_price`

func (s *Service) HpcSummaryRollup(ctx context.Context, year, month int) ([]reportdomain.HpcRollupRow, error) {
	var rows []hpcAggRow
	if err := s.db.WithContext(ctx).Raw(hpcRollupQuery, year, month).Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]reportdomain.HpcRollupRow, 0, len(rows))
	for _, row := range rows {
		hours, fee := hpcDerived(row)
		result = append(result, reportdomain.HpcRollupRow{
			Biller:          row.Biller,
			ManagerUnit:     row.ManagerUnit,
			ManagerUsername: row.ManagerUsername,
			Manager:         row.Manager,
			ManagerEmail:    row.ManagerEmail,
			UnitPrice:       decimalFloat(row.UnitPrice),
			Cores:           i64(row.Cores),
			CPUSeconds:      i64(row.CPUSeconds),
			JobCount:        i64(row.JobCount),
			CPUHours:        hours,
			FeeDollars:      fee,
		})
	}
	return result, nil
}

const hpcDetailedQuery = `
SELECT accounts.biller, account_contacts.managerunit, account_contacts.managerusername,
       account_contacts.manager, account_contacts.manageremail, contracts.unit_price, u.queue,
       SUM(u.cores) AS cores, SUM(u.cpu_seconds) AS cpu_seconds, SUM(u.job_count) AS job_count
FROM hpc_summary_usage u
JOIN account_contacts ON account_contacts.managerusername = u.owner
JOIN accounts ON accounts.id = account_contacts.account_id
JOIN contracts ON contracts.account_id = accounts.id AND contracts.contract_type = 'ersa_account'
WHERE u.year = ? AND u.month = ?
GROUP BY accounts.biller, account_contacts.managerunit, account_contacts.managerusername,
         account_contacts.manager, account_contacts.manageremail, contracts.unit_price, u.queue`

func (s *Service) HpcSummaryDetailed(ctx context.Context, year, month int) ([]reportdomain.HpcDetailedRow, error) {
	var rows []hpcAggRow
	if err := s.db.WithContext(ctx).Raw(hpcDetailedQuery, year, month).Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]reportdomain.HpcDetailedRow, 0, len(rows))
	for _, row := range rows {
		hours, cost := hpcDerived(row)
		result = append(result, reportdomain.HpcDetailedRow{
			Biller:          row.Biller,
			ManagerUnit:     row.ManagerUnit,
			ManagerUsername: row.ManagerUsername,
			Manager:         row.Manager,
			ManagerEmail:    row.ManagerEmail,
			UnitPrice:       decimalFloat(row.UnitPrice),
			Queue:           row.Queue,
			Cores:           i64(row.Cores),
			CPUSeconds:      i64(row.CPUSeconds),
			JobCount:        i64(row.JobCount),
			CPUHours:        hours,
			Cost:            cost,
		})
	}
	return result, nil
}

const hpcChartQuery = `
SELECT accounts.biller, account_contacts.managerunit, contracts.unit_price, u.year, u.month,
       SUM(u.cores) AS cores, SUM(u.cpu_seconds) AS cpu_seconds, SUM(u.job_count) AS job_count
FROM hpc_summary_usage u
JOIN account_contacts ON account_contacts.managerusername = u.owner
JOIN accounts ON accounts.id = account_contacts.account_id
JOIN contracts ON contracts.account_id = accounts.id AND contracts.contract_type = 'ersa_account'
WHERE (u.year > ? OR (u.year = ? AND u.month > ?))`

const hpcChartGroup = `
GROUP BY accounts.biller, account_contacts.managerunit, contracts.unit_price, u.year, u.month`

func (s *Service) HpcSummaryChart(ctx context.Context, org string, monthWindow int) ([]reportdomain.HpcChartRow, error) {
	query, args := chartQuery(hpcChartQuery, hpcChartGroup, org, s.cutoff(monthWindow))

	var rows []hpcAggRow
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]reportdomain.HpcChartRow, 0, len(rows))
	for _, row := range rows {
		hours, cost := hpcDerived(row)
		result = append(result, reportdomain.HpcChartRow{
			Biller:      row.Biller,
			ManagerUnit: row.ManagerUnit,
			UnitPrice:   decimalFloat(row.UnitPrice),
			Year:        row.Year,
			Month:       row.Month,
			Cores:       i64(row.Cores),
			CPUSeconds:  i64(row.CPUSeconds),
			JobCount:    i64(row.JobCount),
			CPUHours:    hours,
			Cost:        cost,
		})
	}
	return result, nil
}

// hpcDerived computes cpu hours and the fee from one aggregate row.
func hpcDerived(row hpcAggRow) (hours, fee float64) {
	h := billing.SecondsToHours(i64(row.CPUSeconds))
	return h.Float64(), billing.Cost(h, decOrZero(row.UnitPrice)).Float64()
}

func (s *Service) cutoff(monthWindow int) calendar.YearMonth {
	return calendar.CutoffMonthsAgo(monthWindow, s.clock.Now())
}

// chartQuery finishes a chart SQL statement: the rolling cutoff binds
// three times, and a non-empty org narrows to one biller.
func chartQuery(base, group, org string, cutoff calendar.YearMonth) (string, []any) {
	args := []any{cutoff.Year, cutoff.Year, cutoff.Month}
	if org != "" {
		base += " AND accounts.biller = ?"
		args = append(args, org)
	}
	return base + group, args
}

func i64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func decOrZero(d *billing.Decimal) billing.Decimal {
	if d == nil {
		return billing.Decimal{}
	}
	return *d
}

func decimalFloat(d *billing.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.Float64()
	return &f
}
