package infra

import (
	"fmt"

	"pharmazine/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL pieces GORM
// cannot express (sequences, check constraints on existing DBs).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := db.AutoMigrate(
		&model.Product{},
		&model.Batch{},
		&model.Sale{},
		&model.SaleItem{},
		&model.StockMovement{},
	); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	if err := applySchemaPatches(db); err != nil {
		return nil, fmt.Errorf("schema patches: %w", err)
	}

	return db, nil
}

// applySchemaPatches runs the DDL AutoMigrate does not cover. Every statement
// is idempotent so restarts are no-ops.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"invoice number sequence",
			`CREATE SEQUENCE IF NOT EXISTS sales_invoice_number_seq START 1`},
		{"non-negative remaining guard", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_batches_remaining_nonneg') THEN
    ALTER TABLE batches ADD CONSTRAINT chk_batches_remaining_nonneg CHECK (quantity_remaining >= 0);
  END IF;
END $$`},
		{"ledger identity guard", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_batches_received_covers_sold') THEN
    ALTER TABLE batches ADD CONSTRAINT chk_batches_received_covers_sold
      CHECK (quantity_received >= quantity_remaining + quantity_sold);
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("%s: %w", p.descr, err)
		}
	}
	return nil
}
