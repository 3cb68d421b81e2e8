package main

import (
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"

	"github.com/book2game/backend/config"
	"github.com/book2game/backend/internal/database"
	"github.com/book2game/backend/internal/models"
)

// Seeds a handful of test accounts for local development. All accounts share
// the same password.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := database.NewGorm(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	password := "testpassword123"
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	testUsers := []models.User{
		{Email: "john.doe@example.com", Username: "johndoe", FullName: "John Doe"},
		{Email: "jane.smith@example.com", Username: "janesmith", FullName: "Jane Smith"},
		{Email: "reader@example.com", Username: "bookworm", FullName: "Avid Reader"},
	}

	for _, user := range testUsers {
		user.PasswordHash = string(hash)
		user.IsActive = true

		var existing models.User
		if err := db.Where("email = ?", user.Email).First(&existing).Error; err == nil {
			fmt.Printf("skipping %s (already exists)\n", user.Email)
			continue
		}

		if err := db.Create(&user).Error; err != nil {
			log.Fatalf("failed to create user %s: %v", user.Email, err)
		}
		fmt.Printf("created %s (password: %s)\n", user.Email, password)
	}
}
