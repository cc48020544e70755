package migration

import (
	"nutrition-catalog/entities"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entities.Document{}); err != nil {
		log.Errorf("Error migrating document database: %v", err)
		return err
	}
	// status filters and createdAt/approvedAt ordering read these keys
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_documents_status ON documents (collection, (data->>'status'))`,
		`CREATE INDEX IF NOT EXISTS idx_documents_user ON documents (collection, (data->>'userId'))`,
	}
	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			log.Errorf("Error creating index: %v", err)
			return err
		}
	}

	log.Info("Database migration complete")
	return nil
}
