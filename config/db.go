package config

import (
	"fmt"
	"log/slog"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/vnkhanh/gforms-server/models"
)

var DB *gorm.DB

// ConnectDB opens PostgreSQL, migrates every model and stores the handle in DB.
func ConnectDB(cfg DatabaseConfig) error {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return err
	}

	DB = db
	slog.Info("connected to PostgreSQL and migrated", slog.String("host", cfg.Host), slog.String("db", cfg.Name))
	return nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
