package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chargeview/internal/billing"
	contractdomain "github.com/smallbiznis/chargeview/internal/contract/domain"
	"github.com/smallbiznis/chargeview/internal/feed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Client *feed.Client
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	client *feed.Client
}

func NewService(p ServiceParam) contractdomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("contract.service"),
		genID:  p.GenID,
		client: p.Client,
	}
}

// contractRecord is the CRM wire shape shared by every contract feed.
// Fields the CRM omits decode to nil and persist as NULL.
type contractRecord struct {
	OrderID            *string          `json:"orderID"`
	Name               *string          `json:"name"`
	Biller             *string          `json:"biller"`
	Allocated          *int64           `json:"allocated"`
	OpenstackProjectID *string          `json:"OpenstackProjectID"`
	FileSystemName     *string          `json:"FileSystemName"`
	UnitPrice          *billing.Decimal `json:"unitPrice"`
	ManagerUsername    *string          `json:"managerusername"`
	ManagerEmail       *string          `json:"manageremail"`
	ManagerTitle       *string          `json:"managertitle"`
	ManagerUnit        *string          `json:"managerunit"`
	Manager            *string          `json:"manager"`
}

func (s *Service) RefreshErsaAccounts(ctx context.Context) error {
	return s.refreshContracts(ctx, "/api/v2/contract/ersaaccount/", contractdomain.ContractTypeErsaAccount)
}

func (s *Service) RefreshAttachedStorage(ctx context.Context) error {
	return s.refreshContracts(ctx, "/api/v2/contract/attachedstorage/", contractdomain.ContractTypeStorage)
}

func (s *Service) RefreshAttachedStorageBackup(ctx context.Context) error {
	return s.refreshContracts(ctx, "/api/v2/contract/attachedbackupstorage/", contractdomain.ContractTypeStorageBackup)
}

func (s *Service) RefreshNectarContracts(ctx context.Context) error {
	return s.refreshContracts(ctx, "/api/v2/contract/nectarcloudvm/", contractdomain.ContractTypeNectar)
}

func (s *Service) RefreshTangoContracts(ctx context.Context) error {
	return s.refreshContracts(ctx, "/api/v2/contract/tangocloudvm/", contractdomain.ContractTypeTango)
}

// refreshContracts pulls one CRM contract feed and reconciles it into
// the account tables: for each deduplicated record, every existing
// triple matching the business key is deleted and one fresh triple is
// inserted. The whole feed commits as a single transaction.
func (s *Service) refreshContracts(ctx context.Context, path, contractType string) error {
	var records []contractRecord
	if err := s.client.GetJSON(ctx, s.client.CRMURL("%s", path), &records); err != nil {
		if err == feed.ErrNoData {
			return nil
		}
		return err
	}

	deduped := dedupeContracts(records)
	s.log.Debug("retrieved contract records",
		zap.String("contract_type", contractType),
		zap.Int("count", len(records)),
		zap.Int("duplicates", len(records)-len(deduped)),
	)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, record := range deduped {
			if err := s.replaceTriple(tx, contractType, record); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) replaceTriple(tx *gorm.DB, contractType string, record contractRecord) error {
	// If more columns join the models, keep this match specific
	// enough to only find the record's own triples.
	q := tx.Model(&contractdomain.Account{}).
		Joins("JOIN contracts ON contracts.account_id = accounts.id").
		Where("contracts.contract_type = ?", contractType)
	q = matchNullable(q, "accounts.order_id", record.OrderID)
	q = matchNullable(q, "accounts.name", record.Name)
	q = matchNullable(q, "accounts.biller", record.Biller)
	q = matchNullable(q, "contracts.openstack_project_id", record.OpenstackProjectID)
	q = matchNullable(q, "contracts.file_system_name", record.FileSystemName)
	q = matchNullable(q, "contracts.allocated", record.Allocated)

	var accountIDs []snowflake.ID
	if err := q.Pluck("accounts.id", &accountIDs).Error; err != nil {
		return err
	}

	if len(accountIDs) > 0 {
		// Contact and contract go first; the account owns them.
		if err := tx.Where("account_id IN ?", accountIDs).Delete(&contractdomain.AccountContact{}).Error; err != nil {
			return err
		}
		if err := tx.Where("account_id IN ?", accountIDs).Delete(&contractdomain.Contract{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", accountIDs).Delete(&contractdomain.Account{}).Error; err != nil {
			return err
		}
	}

	account := contractdomain.Account{
		ID:      s.genID.Generate(),
		OrderID: record.OrderID,
		Name:    record.Name,
		Biller:  record.Biller,
	}
	if err := tx.Create(&account).Error; err != nil {
		return err
	}
	contact := contractdomain.AccountContact{
		ID:              s.genID.Generate(),
		AccountID:       account.ID,
		ManagerUsername: record.ManagerUsername,
		ManagerEmail:    record.ManagerEmail,
		ManagerTitle:    record.ManagerTitle,
		ManagerUnit:     record.ManagerUnit,
		Manager:         record.Manager,
	}
	if err := tx.Create(&contact).Error; err != nil {
		return err
	}
	contract := contractdomain.Contract{
		ID:                 s.genID.Generate(),
		AccountID:          account.ID,
		ContractType:       contractType,
		Allocated:          record.Allocated,
		UnitPrice:          record.UnitPrice,
		FileSystemName:     record.FileSystemName,
		OpenstackProjectID: record.OpenstackProjectID,
	}
	return tx.Create(&contract).Error
}

// novaFlavorRecord is the upstream flavor reference shape.
type novaFlavorRecord struct {
	FlavorID    *string `json:"id"`
	VCPUs       *int64  `json:"vcpus"`
	Ephemeral   *int64  `json:"ephemeral"`
	Name        *string `json:"name"`
	RAM         *int64  `json:"ram"`
	Disk        *int64  `json:"disk"`
	IsPublic    *bool   `json:"public"`
	OpenstackID *string `json:"openstack_id"`
}

// RefreshNovaFlavors replaces flavor reference rows per flavor id, with
// no grouping or business-key matching.
func (s *Service) RefreshNovaFlavors(ctx context.Context) error {
	var records []novaFlavorRecord
	if err := s.client.GetJSON(ctx, s.client.UsageURL("/nova/flavor"), &records); err != nil {
		if err == feed.ErrNoData {
			return nil
		}
		return err
	}
	s.log.Debug("retrieved nova flavor records", zap.Int("count", len(records)))

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, record := range records {
			del := matchNullable(tx, "flavor_id", record.FlavorID)
			if err := del.Delete(&contractdomain.NovaFlavor{}).Error; err != nil {
				return err
			}
			row := contractdomain.NovaFlavor{
				ID:          s.genID.Generate(),
				FlavorID:    record.FlavorID,
				VCPUs:       record.VCPUs,
				Ephemeral:   record.Ephemeral,
				Name:        record.Name,
				RAM:         record.RAM,
				Disk:        record.Disk,
				IsPublic:    record.IsPublic,
				OpenstackID: record.OpenstackID,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// matchNullable matches NULL when the value is absent, because the
// business key treats two absent fields as equal.
func matchNullable[T any](q *gorm.DB, column string, value *T) *gorm.DB {
	if value == nil {
		return q.Where(column + " IS NULL")
	}
	return q.Where(column+" = ?", *value)
}
