package infra

import (
	"fmt"

	"github.com/YarKhan02/Workshop-sub000/internal/model"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported DB_DRIVER values.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// NewDatabase opens a GORM connection for driver. On postgres it runs
// AutoMigrate and the idempotent patches below; on mysql the schema is
// expected to be managed by external migrations.
func NewDatabase(driver, dsn string, maxOpenConns int) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres, "":
		dialector = postgres.Open(dsn)
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if maxOpenConns <= 0 {
		maxOpenConns = 25
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(5)

	if driver == DriverMySQL {
		log.Warn().Msg("database: mysql driver, AutoMigrate skipped; apply migrations externally")
		return db, nil
	}

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates all tables and applies schema patches.
// Integration tests call it against a throwaway postgres container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.DailyAvailability{},
		&model.Booking{},
		&model.Product{},
		&model.ProductVariant{},
		&model.StockMovement{},
		&model.Invoice{},
		&model.InvoiceItem{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches adds the CHECK constraints GORM tags cannot express.
// Each statement is guarded so re-running on a patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"daily_availabilities slot bounds", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_daily_availabilities_slots') THEN
    ALTER TABLE daily_availabilities
      ADD CONSTRAINT chk_daily_availabilities_slots
      CHECK (total_slots >= 1 AND available_slots >= 0 AND available_slots <= total_slots);
  END IF;
END $$`},
		{"product_variants non-negative quantity", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_product_variants_quantity') THEN
    ALTER TABLE product_variants
      ADD CONSTRAINT chk_product_variants_quantity CHECK (quantity >= 0);
  END IF;
END $$`},
		{"stock_movements snapshot consistency", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_stock_movements_after') THEN
    ALTER TABLE stock_movements
      ADD CONSTRAINT chk_stock_movements_after
      CHECK (quantity_after >= 0 AND quantity_after = quantity_before + change_amount);
  END IF;
END $$`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
