package infra

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"arcanum/internal/models/db_models"
)

// InitPostgresql opens the connection pool and migrates the schema.
func InitPostgresql(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&db_models.Account{},
		&db_models.Subscription{},
		&db_models.Invoice{},
		&db_models.Reading{},
	); err != nil {
		return nil, err
	}
	return db, nil
}

func ClosePostgresql(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
