// Package domain contains the persisted monthly usage snapshots. Each
// row is immutable: it is created by ingestion and only ever removed
// when the same (feed, year, month) window is reprocessed. Measures are
// pointers because upstream omits fields; absence is NULL, never zero.
package domain

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chargeview/internal/billing"
)

// HpcSummaryUsage is one owner/queue HPC scheduler summary line.
type HpcSummaryUsage struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	Year       int          `gorm:"not null;index:idx_hpc_summary_window"`
	Month      int          `gorm:"not null;index:idx_hpc_summary_window"`
	Cores      *int64       `json:"cores"`
	CPUSeconds *int64       `gorm:"column:cpu_seconds" json:"cpu_seconds"`
	JobCount   *int64       `json:"job_count"`
	Owner      *string      `gorm:"type:varchar(64)" json:"owner"`
	Queue      *string      `gorm:"type:varchar(64)" json:"queue"`
}

func (HpcSummaryUsage) TableName() string { return "hpc_summary_usage" }

// HnasVVUsage is HNAS virtual-volume usage, reported in MB.
type HnasVVUsage struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	Year          int          `gorm:"not null;index:idx_hnas_vv_window"`
	Month         int          `gorm:"not null;index:idx_hnas_vv_window"`
	Filesystem    *string      `gorm:"type:varchar(256)" json:"filesystem"`
	Owner         *string      `gorm:"type:varchar(64)" json:"owner"`
	Usage         *int64       `json:"usage"`
	Files         *int64       `json:"files"`
	VirtualVolume *string      `gorm:"type:varchar(64)" json:"virtual_volume"`
	Quota         *int64       `json:"quota"`
}

func (HnasVVUsage) TableName() string { return "hnas_vv_usage" }

// HnasFSUsage is HNAS filesystem usage, reported in MB.
type HnasFSUsage struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	Year          int          `gorm:"not null;index:idx_hnas_fs_window"`
	Month         int          `gorm:"not null;index:idx_hnas_fs_window"`
	LiveUsage     *int64       `json:"live_usage"`
	Filesystem    *string      `gorm:"type:varchar(256)" json:"filesystem"`
	Capacity      *int64       `json:"capacity"`
	SnapshotUsage *int64       `json:"snapshot_usage"`
	Free          *int64       `json:"free"`
}

func (HnasFSUsage) TableName() string { return "hnas_fs_usage" }

// HcpUsage is object store usage, reported in bytes.
type HcpUsage struct {
	ID                  snowflake.ID `gorm:"primaryKey"`
	Year                int          `gorm:"not null;index:idx_hcp_window"`
	Month               int          `gorm:"not null;index:idx_hcp_window"`
	IngestedBytes       *int64       `json:"ingested_bytes"`
	BytesIn             *int64       `json:"bytes_in"`
	Namespace           *string      `gorm:"type:varchar(256)" json:"namespace"`
	Reads               *int64       `json:"reads"`
	Writes              *int64       `json:"writes"`
	RawBytes            *int64       `json:"raw_bytes"`
	MetadataOnlyBytes   *int64       `json:"metadata_only_bytes"`
	MetadataOnlyObjects *int64       `json:"metadata_only_objects"`
	Deletes             *int64       `json:"deletes"`
	TieredObjects       *int64       `json:"tiered_objects"`
	BytesOut            *int64       `json:"bytes_out"`
	Objects             *int64       `json:"objects"`
	TieredBytes         *int64       `json:"tiered_bytes"`
}

func (HcpUsage) TableName() string { return "hcp_usage" }

// XfsUsage is XFS quota usage; the usage column is KB.
type XfsUsage struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	Year       int          `gorm:"not null;index:idx_xfs_window"`
	Month      int          `gorm:"not null;index:idx_xfs_window"`
	Hard       *int64       `json:"hard"`
	Usage      *int64       `json:"usage"`
	Soft       *int64       `json:"soft"`
	Filesystem *string      `gorm:"type:varchar(256)" json:"filesystem"`
	Host       *string      `gorm:"type:varchar(256)" json:"host"`
}

func (XfsUsage) TableName() string { return "xfs_usage" }

// HpcHomeUsage is home-directory storage for HPC accounts; usage is KB.
type HpcHomeUsage struct {
	ID    snowflake.ID `gorm:"primaryKey"`
	Year  int          `gorm:"not null;index:idx_hpc_home_window"`
	Month int          `gorm:"not null;index:idx_hpc_home_window"`
	Hard  *int64       `json:"hard"`
	Usage *int64       `json:"usage"`
	Soft  *int64       `json:"soft"`
	Owner *string      `gorm:"type:varchar(128)" json:"owner"`
}

func (HpcHomeUsage) TableName() string { return "hpc_home_usage" }

// NectarUsage is one NECTAR cloud instance for the month.
type NectarUsage struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	Year        int          `gorm:"not null;index:idx_nectar_window"`
	Month       int          `gorm:"not null;index:idx_nectar_window"`
	Flavor      *string      `gorm:"type:varchar(128)" json:"flavor"`
	InstanceID  *string      `gorm:"type:varchar(128)" json:"instance_id"`
	Biller      *string      `gorm:"type:varchar(128)" json:"-"`
	ManagerUnit *string      `gorm:"column:managerunit;type:varchar(128)" json:"-"`
	Server      *string      `gorm:"type:varchar(128)" json:"server"`
	ServerID    *string      `gorm:"type:varchar(128)" json:"server_id"`
	AZ          *string      `gorm:"column:az;type:varchar(128)" json:"az"`
	Tenant      *string      `gorm:"type:varchar(128)" json:"tenant"`
	Account     *string      `gorm:"type:varchar(128)" json:"account"`
	Image       *string      `gorm:"type:varchar(128)" json:"image"`
	Span        *int64       `json:"span"`
	Hypervisor  *string      `gorm:"type:varchar(128)" json:"hypervisor"`
}

func (NectarUsage) TableName() string { return "nectar_usage" }

// TangoUsage is one Tango cloud VM for the month.
type TangoUsage struct {
	ID           snowflake.ID     `gorm:"primaryKey"`
	Year         int              `gorm:"not null;index:idx_tango_window"`
	Month        int              `gorm:"not null;index:idx_tango_window"`
	BusinessUnit *string          `gorm:"type:varchar(64)" json:"businessUnit"`
	Core         *int64           `json:"core"`
	VMID         *string          `gorm:"column:vm_id;type:varchar(64)" json:"id"`
	OS           *string          `gorm:"column:os;type:varchar(64)" json:"os"`
	RAM          *int64           `json:"ram"`
	Server       *string          `gorm:"type:varchar(64)" json:"server"`
	Storage      *billing.Decimal `gorm:"type:numeric" json:"storage"`
	Span         *int64           `json:"span"`
}

func (TangoUsage) TableName() string { return "tango_usage" }

// SetWindow assigns the row id and (year, month) window. Ingestion
// stamps every decoded row before it is stored.
func (u *HpcSummaryUsage) SetWindow(id snowflake.ID, year, month int) {
	u.ID, u.Year, u.Month = id, year, month
}

func (u *HnasVVUsage) SetWindow(id snowflake.ID, year, month int) {
	u.ID, u.Year, u.Month = id, year, month
}

func (u *HnasFSUsage) SetWindow(id snowflake.ID, year, month int) {
	u.ID, u.Year, u.Month = id, year, month
}

func (u *HcpUsage) SetWindow(id snowflake.ID, year, month int) {
	u.ID, u.Year, u.Month = id, year, month
}

func (u *XfsUsage) SetWindow(id snowflake.ID, year, month int) {
	u.ID, u.Year, u.Month = id, year, month
}

func (u *HpcHomeUsage) SetWindow(id snowflake.ID, year, month int) {
	u.ID, u.Year, u.Month = id, year, month
}

func (u *NectarUsage) SetWindow(id snowflake.ID, year, month int) {
	u.ID, u.Year, u.Month = id, year, month
}

func (u *TangoUsage) SetWindow(id snowflake.ID, year, month int) {
	u.ID, u.Year, u.Month = id, year, month
}
