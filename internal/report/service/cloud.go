package service

import (
	"context"

	"github.com/smallbiznis/chargeview/internal/billing"
	reportdomain "github.com/smallbiznis/chargeview/internal/report/domain"
)

type cloudAggRow struct {
	Biller      *string          `gorm:"column:biller"`
	ManagerUnit *string          `gorm:"column:managerunit"`
	UnitPrice   *billing.Decimal `gorm:"column:unit_price"`
	Year        int              `gorm:"column:year"`
	Month       int              `gorm:"column:month"`
	Cores       *int64           `gorm:"column:cores"`
}

// NECTAR instances carry a flavor name; core counts come from the
// flavor reference table, and the tenant links to the contract.
const nectarSimpleQuery = `
SELECT accounts.biller, account_contacts.managerunit, SUM(nova_flavors.vcpus) AS cores
FROM nectar_usage u
JOIN nova_flavors ON nova_flavors.openstack_id = u.flavor
JOIN contracts ON contracts.openstack_project_id = u.tenant AND contracts.contract_type = 'nectar_contract'
JOIN accounts ON accounts.id = contracts.account_id
JOIN account_contacts ON account_contacts.account_id = accounts.id
WHERE u.year = ? AND u.month = ?
GROUP BY accounts.biller, account_contacts.managerunit`

func (s *Service) NectarSimple(ctx context.Context, year, month int) ([]reportdomain.NectarRow, error) {
	var rows []cloudAggRow
	if err := s.db.WithContext(ctx).Raw(nectarSimpleQuery, year, month).Scan(&rows).Error; err != nil {
		return nil, err
	}

	vcpuPrice, err := s.vcpuPrice()
	if err != nil {
		return nil, err
	}

	result := make([]reportdomain.NectarRow, 0, len(rows))
	for _, row := range rows {
		cores := i64(row.Cores)
		result = append(result, reportdomain.NectarRow{
			Biller:      row.Biller,
			ManagerUnit: row.ManagerUnit,
			Core:        cores,
			Cost:        billing.Cost(billing.NewDecimalFromInt64(cores), vcpuPrice).Float64(),
		})
	}
	return result, nil
}

const nectarChartBase = `
SELECT accounts.biller, account_contacts.managerunit, u.year, u.month, SUM(nova_flavors.vcpus) AS cores
FROM nectar_usage u
JOIN nova_flavors ON nova_flavors.openstack_id = u.flavor
JOIN contracts ON contracts.openstack_project_id = u.tenant AND contracts.contract_type = 'nectar_contract'
JOIN accounts ON accounts.id = contracts.account_id
JOIN account_contacts ON account_contacts.account_id = accounts.id
WHERE (u.year > ? OR (u.year = ? AND u.month > ?))`

const nectarChartGroup = `
GROUP BY accounts.biller, account_contacts.managerunit, u.year, u.month`

func (s *Service) NectarChart(ctx context.Context, org string, monthWindow int) ([]reportdomain.NectarChartRow, error) {
	query, args := chartQuery(nectarChartBase, nectarChartGroup, org, s.cutoff(monthWindow))

	var rows []cloudAggRow
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	vcpuPrice, err := s.vcpuPrice()
	if err != nil {
		return nil, err
	}

	result := make([]reportdomain.NectarChartRow, 0, len(rows))
	for _, row := range rows {
		cores := i64(row.Cores)
		result = append(result, reportdomain.NectarChartRow{
			Biller:      row.Biller,
			ManagerUnit: row.ManagerUnit,
			Year:        row.Year,
			Month:       row.Month,
			Core:        cores,
			Cost:        billing.Cost(billing.NewDecimalFromInt64(cores), vcpuPrice).Float64(),
		})
	}
	return result, nil
}

func (s *Service) vcpuPrice() (billing.Decimal, error) {
	return billing.NewDecimal(s.pricing.Get().NectarNovaVCPUPrice)
}

// Tango VMs link to contracts by vm id; the contract's own unit price
// applies.
const tangoSimpleQuery = `
SELECT accounts.biller, account_contacts.managerunit, contracts.unit_price, SUM(u.core) AS cores
FROM tango_usage u
JOIN contracts ON contracts.openstack_project_id = u.vm_id AND contracts.contract_type = 'tango_contract'
JOIN accounts ON accounts.id = contracts.account_id
JOIN account_contacts ON account_contacts.account_id = accounts.id
WHERE u.year = ? AND u.month = ?
GROUP BY accounts.biller, account_contacts.managerunit, contracts.unit_price`

func (s *Service) TangoSimple(ctx context.Context, year, month int) ([]reportdomain.TangoRow, error) {
	var rows []cloudAggRow
	if err := s.db.WithContext(ctx).Raw(tangoSimpleQuery, year, month).Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]reportdomain.TangoRow, 0, len(rows))
	for _, row := range rows {
		cores := i64(row.Cores)
		result = append(result, reportdomain.TangoRow{
			Biller:      row.Biller,
			ManagerUnit: row.ManagerUnit,
			UnitPrice:   decimalFloat(row.UnitPrice),
			Core:        cores,
			Cost:        billing.Cost(billing.NewDecimalFromInt64(cores), decOrZero(row.UnitPrice)).Float64(),
		})
	}
	return result, nil
}

const tangoChartBase = `
SELECT accounts.biller, account_contacts.managerunit, contracts.unit_price, u.year, u.month,
       SUM(u.core) AS cores
FROM tango_usage u
JOIN contracts ON contracts.openstack_project_id = u.vm_id AND contracts.contract_type = 'tango_contract'
JOIN accounts ON accounts.id = contracts.account_id
JOIN account_contacts ON account_contacts.account_id = accounts.id
WHERE (u.year > ? OR (u.year = ? AND u.month > ?))`

const tangoChartGroup = `
GROUP BY accounts.biller, account_contacts.managerunit, contracts.unit_price, u.year, u.month`

func (s *Service) TangoChart(ctx context.Context, org string, monthWindow int) ([]reportdomain.TangoChartRow, error) {
	query, args := chartQuery(tangoChartBase, tangoChartGroup, org, s.cutoff(monthWindow))

	var rows []cloudAggRow
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]reportdomain.TangoChartRow, 0, len(rows))
	for _, row := range rows {
		cores := i64(row.Cores)
		result = append(result, reportdomain.TangoChartRow{
			Biller:      row.Biller,
			ManagerUnit: row.ManagerUnit,
			UnitPrice:   decimalFloat(row.UnitPrice),
			Year:        row.Year,
			Month:       row.Month,
			Core:        cores,
			Cost:        billing.Cost(billing.NewDecimalFromInt64(cores), decOrZero(row.UnitPrice)).Float64(),
		})
	}
	return result, nil
}
