package postgres

import (
	"log"

	"github.com/LavaJover/shvark-escrow-service/internal/config"
	"github.com/LavaJover/shvark-escrow-service/internal/infrastructure/postgres/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func MustInitDB(cfg *config.OrderConfig) *gorm.DB {
	dsn := cfg.OrderDB.Dsn
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	// SQL миграции из migrations_path имеют приоритет над AutoMigrate
	if cfg.OrderDB.MigrationsPath == "" {
		if err := AutoMigrate(db); err != nil {
			log.Fatalf("failed to automigrate db: %v\n", err.Error())
		}
	}

	return db
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.OrderModel{},
		&models.OrderItemModel{},
		&models.BankApprovalModel{},
		&models.DocumentModel{},
		&models.ReleaseModel{},
		&models.DisputeModel{},
		&models.EscrowEventLogModel{},
	)
}
