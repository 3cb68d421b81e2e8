package database

import (
	"testing"

	"github.com/book2game/backend/internal/models"
	"github.com/book2game/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseMigrationAndWrites(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	require.NotNil(t, db)

	user := models.User{
		Email:        "reader@example.com",
		Username:     "reader",
		PasswordHash: "hashedpassword",
	}
	require.NoError(t, db.Create(&user).Error)
	assert.NotZero(t, user.ID)

	book := models.Book{
		GoogleBooksID: "zyTCAlFPjgYC",
		Title:         "The Hobbit",
		Categories:    "Fantasy",
	}
	require.NoError(t, db.Create(&book).Error)

	game := models.Game{
		DerivedID: 123456,
		Name:      "The Witcher 3",
		Rating:    4.8,
	}
	require.NoError(t, db.Create(&game).Error)

	// derived_id carries the unique constraint, not the name
	dup := models.Game{DerivedID: 123456, Name: "The Witcher 3: Wild Hunt"}
	assert.Error(t, db.Create(&dup).Error)
}
