package db_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"arcanum/internal/infra"
	"arcanum/pkg/config"
)

var Module = fx.Provide(
	provideDB,
)

func provideDB(cfg *config.Config) (*gorm.DB, error) {
	return infra.InitPostgresql(cfg.PostgresURL)
}
