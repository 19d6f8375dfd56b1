package database

import (
	"fmt"

	"invoicing-backend/models"

	"gorm.io/gorm"
)

// Migrate applies (idempotent) schema migrations:
// - AutoMigrate (tables/columns)
// - Money column types (NUMERIC(10,2))
// - Indexes (line_items.invoice_id, invoices.date, idempotency key)
// - Foreign key: line_items.invoice_id → invoices.id ON DELETE CASCADE
func Migrate(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		// --- AutoMigrate tables/columns/index tags (non-destructive) ---
		if err := tx.AutoMigrate(
			&models.Invoice{},
			&models.LineItem{},
			&models.IdempotencyKey{},
		); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		// --- Enforce money columns as NUMERIC(10,2) (idempotent ALTERs) ---
		alters := []string{
			`ALTER TABLE invoices   ALTER COLUMN total_amount TYPE numeric(10,2)`,
			`ALTER TABLE line_items ALTER COLUMN price        TYPE numeric(10,2)`,
		}
		for _, stmt := range alters {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("money type migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Helpful indexes (idempotent) ---
		indexes := []string{
			`CREATE INDEX IF NOT EXISTS idx_line_items_invoice ON line_items (invoice_id)`,
			`CREATE INDEX IF NOT EXISTS idx_invoices_date ON invoices (date)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_idempotency_keys_key ON idempotency_keys (key)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Foreign key: line_items.invoice_id -> invoices.id (CASCADE) ---
		fk := `
DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1
		FROM pg_constraint
		WHERE conrelid = 'line_items'::regclass
		  AND conname  = 'fk_line_items_invoice'
	) THEN
		ALTER TABLE line_items
		ADD CONSTRAINT fk_line_items_invoice
		FOREIGN KEY (invoice_id)
		REFERENCES invoices(id)
		ON DELETE CASCADE;
	END IF;
END $$;`
		if err := tx.Exec(fk).Error; err != nil {
			return fmt.Errorf("foreign key migration failed: %w", err)
		}

		return nil
	})
}
