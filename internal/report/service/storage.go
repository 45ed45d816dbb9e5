package service

import (
	"context"
	"fmt"

	"github.com/smallbiznis/chargeview/internal/billing"
	reportdomain "github.com/smallbiznis/chargeview/internal/report/domain"
)

// storageFeed describes how one storage feed joins to contracts and how
// its raw units scale to GB.
type storageFeed struct {
	table    string
	usageCol string
	joinCol  string // matched against contracts.file_system_name
	mul      int64
	div      int64
}

var storageFeeds = []storageFeed{
	{table: "hnas_vv_usage", usageCol: "usage", joinCol: "virtual_volume", mul: 1, div: billing.MBPerGB},
	{table: "hnas_fs_usage", usageCol: "live_usage", joinCol: "filesystem", mul: 1, div: billing.MBPerGB},
	{table: "hcp_usage", usageCol: "ingested_bytes", joinCol: "namespace", mul: 1, div: billing.BytesPerGB},
	{table: "xfs_usage", usageCol: "usage", joinCol: "filesystem", mul: 1000, div: billing.BytesPerGB},
}

// toGB scales a raw summed quantity into decimal GB.
func (f storageFeed) toGB(units int64) billing.Decimal {
	scaled := billing.NewDecimalFromInt64(units)
	if f.mul != 1 {
		scaled = scaled.Mul(billing.NewDecimalFromInt64(f.mul))
	}
	return billing.ToGB(scaled, f.div)
}

type storageAggRow struct {
	Biller      *string          `gorm:"column:biller"`
	ManagerUnit *string          `gorm:"column:managerunit"`
	UnitPrice   *billing.Decimal `gorm:"column:unit_price"`
	Year        int              `gorm:"column:year"`
	Month       int              `gorm:"column:month"`
	Units       *int64           `gorm:"column:units"`
}

func (f storageFeed) simpleQuery() string {
	return fmt.Sprintf(`
SELECT accounts.biller, account_contacts.managerunit, contracts.unit_price,
       SUM(u.%s) AS units
FROM %s u
JOIN contracts ON contracts.file_system_name = u.%s
     AND contracts.contract_type IN ('attached_storage', 'attached_storage_backup')
JOIN accounts ON accounts.id = contracts.account_id
JOIN account_contacts ON account_contacts.account_id = accounts.id
WHERE u.year = ? AND u.month = ?
GROUP BY accounts.biller, account_contacts.managerunit, contracts.unit_price`,
		f.usageCol, f.table, f.joinCol)
}

func (f storageFeed) chartQuery() (base, group string) {
	base = fmt.Sprintf(`
SELECT accounts.biller, account_contacts.managerunit, contracts.unit_price, u.year, u.month,
       SUM(u.%s) AS units
FROM %s u
JOIN contracts ON contracts.file_system_name = u.%s
     AND contracts.contract_type IN ('attached_storage', 'attached_storage_backup')
JOIN accounts ON accounts.id = contracts.account_id
JOIN account_contacts ON account_contacts.account_id = accounts.id
WHERE (u.year > ? OR (u.year = ? AND u.month > ?))`,
		f.usageCol, f.table, f.joinCol)
	group = `
GROUP BY accounts.biller, account_contacts.managerunit, contracts.unit_price, u.year, u.month`
	return base, group
}

// allocationGroup accumulates the merged totals for one output row.
type allocationGroup struct {
	biller      *string
	managerUnit *string
	year, month int
	usage       billing.Decimal
	blocks      int64
	cost        billing.Decimal
}

type allocationKey struct {
	billerNull  bool
	billerV     string
	unitNull    bool
	unitV       string
	year, month int
}

func allocationKeyOf(row storageAggRow, withWindow bool) allocationKey {
	key := allocationKey{billerNull: row.Biller == nil, unitNull: row.ManagerUnit == nil}
	if row.Biller != nil {
		key.billerV = *row.Biller
	}
	if row.ManagerUnit != nil {
		key.unitV = *row.ManagerUnit
	}
	if withWindow {
		key.year, key.month = row.Year, row.Month
	}
	return key
}

// AllocationSummarySimple merges the four storage feeds for one month
// into block-billed totals per (biller, unit).
func (s *Service) AllocationSummarySimple(ctx context.Context, year, month int) ([]reportdomain.AllocationRow, error) {
	groups, order, err := s.mergeAllocation(ctx, func(f storageFeed) (string, []any) {
		return f.simpleQuery(), []any{year, month}
	}, false)
	if err != nil {
		return nil, err
	}

	result := make([]reportdomain.AllocationRow, 0, len(order))
	for _, key := range order {
		g := groups[key]
		result = append(result, reportdomain.AllocationRow{
			Biller:      g.biller,
			ManagerUnit: g.managerUnit,
			Usage:       g.usage.Float64(),
			Blocks:      g.blocks,
			Cost:        g.cost.Float64(),
		})
	}
	return result, nil
}

// AllocationSummaryChart is the rolling-window variant; each month stays
// its own output row rather than collapsing into the latest one.
func (s *Service) AllocationSummaryChart(ctx context.Context, org string, monthWindow int) ([]reportdomain.AllocationChartRow, error) {
	cutoff := s.cutoff(monthWindow)
	groups, order, err := s.mergeAllocation(ctx, func(f storageFeed) (string, []any) {
		base, group := f.chartQuery()
		return chartQuery(base, group, org, cutoff)
	}, true)
	if err != nil {
		return nil, err
	}

	result := make([]reportdomain.AllocationChartRow, 0, len(order))
	for _, key := range order {
		g := groups[key]
		result = append(result, reportdomain.AllocationChartRow{
			Biller:      g.biller,
			ManagerUnit: g.managerUnit,
			Year:        g.year,
			Month:       g.month,
			Usage:       g.usage.Float64(),
			Blocks:      g.blocks,
			Cost:        g.cost.Float64(),
		})
	}
	return result, nil
}

// mergeAllocation runs one query per storage feed and folds the rows
// into block-billed groups. Blocks quantize per feed before merging, so
// two half-full feeds still bill a block each.
func (s *Service) mergeAllocation(ctx context.Context, build func(storageFeed) (string, []any), withWindow bool) (map[allocationKey]*allocationGroup, []allocationKey, error) {
	blockSize := s.pricing.Get().StorageBlockSizeGB

	groups := make(map[allocationKey]*allocationGroup)
	var order []allocationKey
	for _, feedDef := range storageFeeds {
		query, args := build(feedDef)
		var rows []storageAggRow
		if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
			return nil, nil, err
		}
		for _, row := range rows {
			usageGB := feedDef.toGB(i64(row.Units))
			blocks := billing.BlocksFor(usageGB, blockSize)
			cost := billing.Cost(billing.NewDecimalFromInt64(blocks), decOrZero(row.UnitPrice))

			key := allocationKeyOf(row, withWindow)
			g, ok := groups[key]
			if !ok {
				g = &allocationGroup{biller: row.Biller, managerUnit: row.ManagerUnit, year: row.Year, month: row.Month}
				groups[key] = g
				order = append(order, key)
			}
			g.usage = g.usage.Add(usageGB)
			g.blocks += blocks
			g.cost = g.cost.Add(cost)
		}
	}
	return groups, order, nil
}

const hpcStorageSimpleQuery = `
SELECT accounts.biller, account_contacts.managerunit, SUM(u.usage) AS units
FROM hpc_home_usage u
JOIN account_contacts ON account_contacts.managerusername = u.owner
JOIN accounts ON accounts.id = account_contacts.account_id
JOIN contracts ON contracts.account_id = accounts.id AND contracts.contract_type = 'ersa_account'
WHERE u.year = ? AND u.month = ?
GROUP BY accounts.biller, account_contacts.managerunit`

// HpcStorageSimple bills HPC home-directory storage in blocks at the
// flat home block price.
func (s *Service) HpcStorageSimple(ctx context.Context, year, month int) ([]reportdomain.HpcStorageRow, error) {
	var rows []storageAggRow
	if err := s.db.WithContext(ctx).Raw(hpcStorageSimpleQuery, year, month).Scan(&rows).Error; err != nil {
		return nil, err
	}

	blockPrice, blockSize, err := s.homePricing()
	if err != nil {
		return nil, err
	}

	result := make([]reportdomain.HpcStorageRow, 0, len(rows))
	for _, row := range rows {
		usageGB, blocks, cost := homeDerived(i64(row.Units), blockSize, blockPrice)
		result = append(result, reportdomain.HpcStorageRow{
			Biller:      row.Biller,
			ManagerUnit: row.ManagerUnit,
			Usage:       usageGB.Float64(),
			Blocks:      blocks,
			Cost:        cost.Float64(),
		})
	}
	return result, nil
}

const hpcStorageChartBase = `
SELECT accounts.biller, account_contacts.managerunit, u.year, u.month, SUM(u.usage) AS units
FROM hpc_home_usage u
JOIN account_contacts ON account_contacts.managerusername = u.owner
JOIN accounts ON accounts.id = account_contacts.account_id
JOIN contracts ON contracts.account_id = accounts.id AND contracts.contract_type = 'ersa_account'
WHERE (u.year > ? OR (u.year = ? AND u.month > ?))`

const hpcStorageChartGroup = `
GROUP BY accounts.biller, account_contacts.managerunit, u.year, u.month`

func (s *Service) HpcStorageChart(ctx context.Context, org string, monthWindow int) ([]reportdomain.HpcStorageChartRow, error) {
	query, args := chartQuery(hpcStorageChartBase, hpcStorageChartGroup, org, s.cutoff(monthWindow))

	var rows []storageAggRow
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	blockPrice, blockSize, err := s.homePricing()
	if err != nil {
		return nil, err
	}

	result := make([]reportdomain.HpcStorageChartRow, 0, len(rows))
	for _, row := range rows {
		usageGB, blocks, cost := homeDerived(i64(row.Units), blockSize, blockPrice)
		result = append(result, reportdomain.HpcStorageChartRow{
			Biller:      row.Biller,
			ManagerUnit: row.ManagerUnit,
			Year:        row.Year,
			Month:       row.Month,
			Usage:       usageGB.Float64(),
			Blocks:      blocks,
			Cost:        cost.Float64(),
		})
	}
	return result, nil
}

func (s *Service) homePricing() (billing.Decimal, int64, error) {
	p := s.pricing.Get()
	price, err := billing.NewDecimal(p.HPCHomeBlockPrice)
	if err != nil {
		return billing.Decimal{}, 0, err
	}
	return price, p.StorageBlockSizeGB, nil
}

// homeDerived converts raw home usage (KB) into GB, blocks and cost.
func homeDerived(units, blockSize int64, blockPrice billing.Decimal) (billing.Decimal, int64, billing.Decimal) {
	usageGB := billing.ToGB(
		billing.NewDecimalFromInt64(units).Mul(billing.NewDecimalFromInt64(1024)),
		billing.BytesPerGB,
	)
	blocks := billing.BlocksFor(usageGB, blockSize)
	cost := billing.Cost(billing.NewDecimalFromInt64(blocks), blockPrice)
	return usageGB, blocks, cost
}
