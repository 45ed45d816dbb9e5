// Package domain contains the account, contact and contract models plus
// the nova flavor reference table.
package domain

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chargeview/internal/billing"
)

// ContractType enumerates the contract families the CRM serves.
const (
	ContractTypeErsaAccount   = "ersa_account"
	ContractTypeTango         = "tango_contract"
	ContractTypeNectar        = "nectar_contract"
	ContractTypeStorage       = "attached_storage"
	ContractTypeStorageBackup = "attached_storage_backup"
)

// Account is the billing entity. It exclusively owns one AccountContact
// and one Contract; reconciliation deletes all three together.
type Account struct {
	ID      snowflake.ID `gorm:"primaryKey"`
	OrderID *string      `gorm:"type:varchar(64)"`
	Name    *string      `gorm:"type:varchar(512)"`
	Biller  *string      `gorm:"type:varchar(256)"`
}

func (Account) TableName() string { return "accounts" }

// AccountContact is the manager identity attached to an account.
type AccountContact struct {
	ID              snowflake.ID `gorm:"primaryKey"`
	AccountID       snowflake.ID `gorm:"not null;index"`
	ManagerUsername *string      `gorm:"column:managerusername;type:varchar(64)"`
	ManagerEmail    *string      `gorm:"column:manageremail;type:varchar(64)"`
	ManagerTitle    *string      `gorm:"column:managertitle;type:varchar(256)"`
	ManagerUnit     *string      `gorm:"column:managerunit;type:varchar(256)"`
	Manager         *string      `gorm:"type:varchar(128)"`
}

func (AccountContact) TableName() string { return "account_contacts" }

// Contract carries the commercial terms for an account.
type Contract struct {
	ID                 snowflake.ID     `gorm:"primaryKey"`
	AccountID          snowflake.ID     `gorm:"not null;index"`
	ContractType       string           `gorm:"type:varchar(32);index"`
	Allocated          *int64           ``
	UnitPrice          *billing.Decimal `gorm:"type:numeric"`
	FileSystemName     *string          `gorm:"type:varchar(512)"` // attached storage contracts only
	OpenstackProjectID *string          `gorm:"type:varchar(128)"` // tango and nectar contracts only
}

func (Contract) TableName() string { return "contracts" }

// NovaFlavor is NECTAR flavor reference data, fully replaced per
// flavor_id on each refresh. Not month-scoped.
type NovaFlavor struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	FlavorID    *string      `gorm:"type:varchar(128);index"`
	VCPUs       *int64       `gorm:"column:vcpus"`
	Ephemeral   *int64       ``
	Name        *string      `gorm:"type:varchar(128)"`
	RAM         *int64       ``
	Disk        *int64       ``
	IsPublic    *bool        ``
	OpenstackID *string      `gorm:"type:varchar(128)"`
}

func (NovaFlavor) TableName() string { return "nova_flavors" }
