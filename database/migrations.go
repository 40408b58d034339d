package database

import (
	"errors"
	"fmt"

	"github.com/depixswap/swapd/database/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// MigrateDatabase creates the enum types and the swap_offers table.
func (d *Database) MigrateDatabase() error {
	for _, ddl := range []string{
		models.CreateSwapStatusEnumSQL(),
		models.CreateAssetEnumSQL(),
	} {
		if err := d.orm.Exec(ddl).Error; err != nil && !isDuplicateType(err) {
			return fmt.Errorf("failed to create enum type: %w", err)
		}
	}

	if err := d.orm.AutoMigrate(&models.SwapOffer{}); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	return nil
}

// Rollback drops the swap_offers table and its enum types.
func (d *Database) Rollback() error {
	if err := d.orm.Migrator().DropTable(&models.SwapOffer{}); err != nil {
		return fmt.Errorf("failed to drop table: %w", err)
	}
	for _, ddl := range []string{
		models.DropSwapStatusEnumSQL(),
		models.DropAssetEnumSQL(),
	} {
		if err := d.orm.Exec(ddl).Error; err != nil {
			return fmt.Errorf("failed to drop enum type: %w", err)
		}
	}

	return nil
}

// Reset rolls the schema back and migrates again.
func (d *Database) Reset() error {
	if err := d.Rollback(); err != nil {
		return err
	}

	return d.MigrateDatabase()
}

func isDuplicateType(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.DuplicateObject
	}

	return false
}
