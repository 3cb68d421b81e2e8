package database

import (
	"github.com/book2game/backend/internal/models"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates the schema for every application model.
// Order matters: join tables reference users, books and games.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Book{},
		&models.Game{},
		&models.Recommendation{},
		&models.UserBook{},
		&models.UserGame{},
	)
}
