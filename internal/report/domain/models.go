// Package domain defines the aggregated report rows served over HTTP.
// Numeric derivations are computed in exact decimal and only become
// float64 here, at the serialization boundary.
package domain

// HpcSimpleRow is HPC compute cost per biller and org unit.
type HpcSimpleRow struct {
	Biller      *string  `json:"biller"`
	ManagerUnit *string  `json:"managerunit"`
	UnitPrice   *float64 `json:"unit_price"`
	Cores       int64    `json:"cores"`
	CPUSeconds  int64    `json:"cpu_seconds"`
	JobCount    int64    `json:"job_count"`
	CPUHours    float64  `json:"cpu_hours"`
	FeeDollars  float64  `json:"fee_dollars"`
}

// HpcRollupRow adds the manager identity to the simple rollup.
type HpcRollupRow struct {
	Biller          *string  `json:"biller"`
	ManagerUnit     *string  `json:"managerunit"`
	ManagerUsername *string  `json:"managerusername"`
	Manager         *string  `json:"manager"`
	ManagerEmail    *string  `json:"manageremail"`
	UnitPrice       *float64 `json:"unit_price"`
	Cores           int64    `json:"cores"`
	CPUSeconds      int64    `json:"cpu_seconds"`
	JobCount        int64    `json:"job_count"`
	CPUHours        float64  `json:"cpu_hours"`
	FeeDollars      float64  `json:"fee_dollars"`
}

// HpcDetailedRow further splits the rollup by scheduler queue.
type HpcDetailedRow struct {
	Biller          *string  `json:"biller"`
	ManagerUnit     *string  `json:"managerunit"`
	ManagerUsername *string  `json:"managerusername"`
	Manager         *string  `json:"manager"`
	ManagerEmail    *string  `json:"manageremail"`
	UnitPrice       *float64 `json:"unit_price"`
	Queue           *string  `json:"queue"`
	Cores           int64    `json:"cores"`
	CPUSeconds      int64    `json:"cpu_seconds"`
	JobCount        int64    `json:"job_count"`
	CPUHours        float64  `json:"cpu_hours"`
	Cost            float64  `json:"cost"`
}

// HpcChartRow is one (biller, unit, month) point on the HPC trend chart.
type HpcChartRow struct {
	Biller      *string  `json:"biller"`
	ManagerUnit *string  `json:"managerunit"`
	UnitPrice   *float64 `json:"unit_price"`
	Year        int      `json:"year"`
	Month       int      `json:"month"`
	Cores       int64    `json:"cores"`
	CPUSeconds  int64    `json:"cpu_seconds"`
	JobCount    int64    `json:"job_count"`
	CPUHours    float64  `json:"cpu_hours"`
	Cost        float64  `json:"cost"`
}

// AllocationRow is attached-storage usage merged across the four
// storage feeds, billed in blocks.
type AllocationRow struct {
	Biller      *string `json:"biller"`
	ManagerUnit *string `json:"managerunit"`
	Usage       float64 `json:"usage"`
	Blocks      int64   `json:"blocks"`
	Cost        float64 `json:"cost"`
}

// AllocationChartRow is the per-month variant of AllocationRow.
type AllocationChartRow struct {
	Biller      *string `json:"biller"`
	ManagerUnit *string `json:"managerunit"`
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	Usage       float64 `json:"usage"`
	Blocks      int64   `json:"blocks"`
	Cost        float64 `json:"cost"`
}

// HpcStorageRow is HPC home-directory storage, billed in blocks at the
// fixed home block price.
type HpcStorageRow struct {
	Biller      *string `json:"biller"`
	ManagerUnit *string `json:"managerunit"`
	Usage       float64 `json:"usage"`
	Blocks      int64   `json:"blocks"`
	Cost        float64 `json:"cost"`
}

type HpcStorageChartRow struct {
	Biller      *string `json:"biller"`
	ManagerUnit *string `json:"managerunit"`
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	Usage       float64 `json:"usage"`
	Blocks      int64   `json:"blocks"`
	Cost        float64 `json:"cost"`
}

// NectarRow is NECTAR vCPU consumption priced at the flat vCPU rate.
type NectarRow struct {
	Biller      *string `json:"biller"`
	ManagerUnit *string `json:"managerunit"`
	Core        int64   `json:"core"`
	Cost        float64 `json:"cost"`
}

type NectarChartRow struct {
	Biller      *string `json:"biller"`
	ManagerUnit *string `json:"managerunit"`
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	Core        int64   `json:"core"`
	Cost        float64 `json:"cost"`
}

// TangoRow is Tango VM core consumption priced at the contract rate.
type TangoRow struct {
	Biller      *string  `json:"biller"`
	ManagerUnit *string  `json:"managerunit"`
	UnitPrice   *float64 `json:"unit_price"`
	Core        int64    `json:"core"`
	Cost        float64  `json:"cost"`
}

type TangoChartRow struct {
	Biller      *string  `json:"biller"`
	ManagerUnit *string  `json:"managerunit"`
	UnitPrice   *float64 `json:"unit_price"`
	Year        int      `json:"year"`
	Month       int      `json:"month"`
	Core        int64    `json:"core"`
	Cost        float64  `json:"cost"`
}
