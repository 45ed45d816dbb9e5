package migration

import (
	"github.com/smallbiznis/chargeview/internal/config"
	contractdomain "github.com/smallbiznis/chargeview/internal/contract/domain"
	"github.com/smallbiznis/chargeview/internal/ingest"
	usagedomain "github.com/smallbiznis/chargeview/internal/usage/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		return conn.AutoMigrate(
			&contractdomain.Account{},
			&contractdomain.AccountContact{},
			&contractdomain.Contract{},
			&contractdomain.NovaFlavor{},
			&usagedomain.HpcSummaryUsage{},
			&usagedomain.HnasVVUsage{},
			&usagedomain.HnasFSUsage{},
			&usagedomain.HcpUsage{},
			&usagedomain.XfsUsage{},
			&usagedomain.HpcHomeUsage{},
			&usagedomain.NectarUsage{},
			&usagedomain.TangoUsage{},
			&ingest.IngestionRun{},
		)
	}),
)
