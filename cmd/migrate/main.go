package main

import (
	"flag"
	"log"

	"github.com/book2game/backend/config"
	"github.com/book2game/backend/internal/database"
	"github.com/book2game/backend/internal/models"
)

func main() {
	drop := flag.Bool("drop", false, "Drop all application tables before migrating")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := database.NewGorm(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if *drop {
		// Reverse dependency order so foreign keys do not block the drop.
		if err := db.Migrator().DropTable(
			&models.UserGame{},
			&models.UserBook{},
			&models.Recommendation{},
			&models.Game{},
			&models.Book{},
			&models.User{},
		); err != nil {
			log.Fatalf("failed to drop tables: %v", err)
		}
		log.Println("dropped all application tables")
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}
	log.Println("schema migrated")
}
