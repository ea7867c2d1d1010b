package db

import (
	"fanboxviewer/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Creator{},
		&models.Post{},
		&models.CreatorTag{},
		&models.PostTag{},
		&models.SyncState{},
		&models.SyncRun{},
	)
}
