package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/book2game/backend/internal/models"
	"github.com/book2game/backend/internal/service"
)

func setupUsersRouter(t *testing.T) (*gin.Engine, string, *models.User, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)
	router, v1, validator, user := newAuthedRouter(t, db)
	users := service.NewUserService(db, hobbitCatalog(), testLogger())
	NewUsersHandler(users, &stubRecommender{}, validator, testLogger()).RegisterRoutes(v1)
	return router, validator.token, user, db
}

func seedLibraryBook(t *testing.T, db *gorm.DB, title string) *models.Book {
	t.Helper()

	book := &models.Book{
		GoogleBooksID: "gb-" + title,
		Title:         title,
		Categories:    "Fiction / Fantasy",
	}
	require.NoError(t, db.Create(book).Error)
	return book
}

func seedLibraryGame(t *testing.T, db *gorm.DB, name string, derivedID int32) *models.Game {
	t.Helper()

	game := &models.Game{
		DerivedID: derivedID,
		Name:      name,
		Rating:    4.5,
		Genres:    "RPG",
	}
	require.NoError(t, db.Create(game).Error)
	return game
}

func TestUsersHandler_GetProfile(t *testing.T) {
	router, token, user, _ := setupUsersRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp UserResponse
	decodeJSON(t, w, &resp)
	assert.Equal(t, user.ID.String(), resp.ID)
	assert.Equal(t, user.Email, resp.Email)
}

func TestUsersHandler_GetProfileRequiresAuth(t *testing.T) {
	router, _, _, _ := setupUsersRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUsersHandler_UpdateProfile(t *testing.T) {
	router, token, _, _ := setupUsersRouter(t)

	newName := "Renamed Reader"
	w := doJSON(t, router, http.MethodPut, "/api/v1/users/me", token, UpdateProfileRequest{FullName: &newName})
	require.Equal(t, http.StatusOK, w.Code)

	var resp UserResponse
	decodeJSON(t, w, &resp)
	assert.Equal(t, "Renamed Reader", resp.FullName)
}

func TestUsersHandler_UpdateProfileEmailTaken(t *testing.T) {
	router, token, _, db := setupUsersRouter(t)
	other := createTestUser(t, db)

	w := doJSON(t, router, http.MethodPut, "/api/v1/users/me", token, UpdateProfileRequest{Email: &other.Email})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUsersHandler_BookLibraryLifecycle(t *testing.T) {
	router, token, _, db := setupUsersRouter(t)
	book := seedLibraryBook(t, db, "The Hobbit")

	w := doJSON(t, router, http.MethodPost, "/api/v1/users/me/books", token, AddLibraryBookRequest{BookID: book.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	var entry models.UserBook
	decodeJSON(t, w, &entry)
	assert.Equal(t, models.ReadingStatusToRead, entry.ReadingStatus)

	w = doJSON(t, router, http.MethodGet, "/api/v1/users/me/books", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var entries []models.UserBook
	decodeJSON(t, w, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "The Hobbit", entries[0].Book.Title)

	status := models.ReadingStatusFinished
	favorite := true
	w = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/v1/users/me/books/%d", book.ID), token, LibraryBookUpdateRequest{
		ReadingStatus: &status,
		IsFavorite:    &favorite,
	})
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &entry)
	assert.Equal(t, models.ReadingStatusFinished, entry.ReadingStatus)
	assert.True(t, entry.IsFavorite)

	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/users/me/books/%d", book.ID), token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/users/me/books", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries = nil
	decodeJSON(t, w, &entries)
	assert.Empty(t, entries)
}

func TestUsersHandler_AddBookUnknown(t *testing.T) {
	router, token, _, _ := setupUsersRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/users/me/books", token, AddLibraryBookRequest{BookID: 999})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUsersHandler_AddBookFromGoogle(t *testing.T) {
	router, token, _, db := setupUsersRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/users/me/books/from-google/hobbit-id", token, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var entry models.UserBook
	decodeJSON(t, w, &entry)
	assert.NotZero(t, entry.BookID)

	var book models.Book
	require.NoError(t, db.First(&book, entry.BookID).Error)
	assert.Equal(t, "The Hobbit", book.Title)
}

func TestUsersHandler_AddBookFromGoogleUnknownVolume(t *testing.T) {
	router, token, _, _ := setupUsersRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/users/me/books/from-google/missing-id", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUsersHandler_ListBooksFilters(t *testing.T) {
	router, token, _, db := setupUsersRouter(t)
	first := seedLibraryBook(t, db, "First")
	second := seedLibraryBook(t, db, "Second")

	w := doJSON(t, router, http.MethodPost, "/api/v1/users/me/books", token, AddLibraryBookRequest{BookID: first.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, router, http.MethodPost, "/api/v1/users/me/books", token, AddLibraryBookRequest{BookID: second.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	status := models.ReadingStatusReading
	w = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/v1/users/me/books/%d", second.ID), token, LibraryBookUpdateRequest{ReadingStatus: &status})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/users/me/books?reading_status=reading", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var entries []models.UserBook
	decodeJSON(t, w, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, second.ID, entries[0].BookID)
}

func TestUsersHandler_UpdateBookNotInLibrary(t *testing.T) {
	router, token, _, db := setupUsersRouter(t)
	book := seedLibraryBook(t, db, "Unadded")

	status := models.ReadingStatusReading
	w := doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/v1/users/me/books/%d", book.ID), token, LibraryBookUpdateRequest{ReadingStatus: &status})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUsersHandler_GameLibraryLifecycle(t *testing.T) {
	router, token, _, db := setupUsersRouter(t)
	game := seedLibraryGame(t, db, "The Witcher 3", 12345)

	w := doJSON(t, router, http.MethodPost, "/api/v1/users/me/games", token, AddLibraryGameRequest{GameID: game.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	var entry models.UserGame
	decodeJSON(t, w, &entry)
	assert.Equal(t, models.PlayStatusToPlay, entry.PlayStatus)

	status := models.PlayStatusPlaying
	hours := 40
	w = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/v1/users/me/games/%d", game.ID), token, LibraryGameUpdateRequest{
		PlayStatus:  &status,
		HoursPlayed: &hours,
	})
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &entry)
	assert.Equal(t, models.PlayStatusPlaying, entry.PlayStatus)
	require.NotNil(t, entry.HoursPlayed)
	assert.Equal(t, 40, *entry.HoursPlayed)

	w = doJSON(t, router, http.MethodGet, "/api/v1/users/me/games", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var entries []models.UserGame
	decodeJSON(t, w, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "The Witcher 3", entries[0].Game.Name)

	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/users/me/games/%d", game.ID), token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestUsersHandler_AddGameUnknown(t *testing.T) {
	router, token, _, _ := setupUsersRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/users/me/games", token, AddLibraryGameRequest{GameID: 999})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUsersHandler_RemoveGameNotInLibrary(t *testing.T) {
	router, token, _, db := setupUsersRouter(t)
	game := seedLibraryGame(t, db, "Unadded", 54321)

	w := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/users/me/games/%d", game.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUsersHandler_ListRecommendationsEmpty(t *testing.T) {
	router, token, _, _ := setupUsersRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/users/me/recommendations", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp []models.Recommendation
	decodeJSON(t, w, &resp)
	assert.Empty(t, resp)
}
