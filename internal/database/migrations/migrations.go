package migrations

import (
	"log"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/douanenc/backend/internal/models"
	"github.com/douanenc/backend/internal/queue"
)

// migrationsList holds all migrations in order
var migrationsList = []*gormigrate.Migration{
	initialSchema(),
}

// Run applies all pending database migrations
func Run(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, migrationsList)

	if err := m.Migrate(); err != nil {
		log.Printf("Could not migrate: %v", err)
		return err
	}
	log.Printf("Migrations ran successfully")
	return nil
}

// initialSchema creates every workflow table from the gorm models so
// the schema stays aligned with the struct tags.
func initialSchema() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_initial_schema",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&models.User{},
				&models.DocumentType{},
				&models.Template{},
				&models.Document{},
				&models.Declaration{},
				&models.Control{},
				&models.Regulation{},
				&models.CustomsFine{},
				&models.AuditLog{},
				&queue.Job{},
			)
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(
				&queue.Job{},
				&models.AuditLog{},
				&models.CustomsFine{},
				&models.Regulation{},
				&models.Control{},
				&models.Declaration{},
				&models.Document{},
				&models.Template{},
				&models.DocumentType{},
				&models.User{},
			)
		},
	}
}
