package datastore

import (
	"fmt"

	"gorm.io/gorm"
)

// performAutoMigration creates or updates the schema for every persisted
// entity. Migration order follows foreign key dependencies.
func performAutoMigration(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Source{},
		&Venue{},
		&VenueAlias{},
		&DisciplineAlias{},
		&Competition{},
		&Scan{},
		&VenueMatchReview{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate database schema: %w", err)
	}
	return nil
}
