package migration

import (
	"github.com/smallbiznis/tenantd/internal/config"
	tenantdomain "github.com/smallbiznis/tenantd/internal/tenant/domain"
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

		// sqlite and mysql are development targets; AutoMigrate keeps them
		// in sync without dialect-specific migration files.
		return conn.AutoMigrate(&tenantdomain.Tenant{})
	}),
)
