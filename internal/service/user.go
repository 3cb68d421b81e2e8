package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/book2game/backend/internal/models"
)

var (
	ErrBookNotInLibrary = errors.New("book not in library")
	ErrGameNotInLibrary = errors.New("game not in library")
	ErrGameNotFound     = errors.New("game not found")
	ErrUserNotFound     = errors.New("user not found")
)

// LibraryEntryUpdate carries the mutable fields of a library entry. Nil
// means leave unchanged. HoursPlayed only applies to games.
type LibraryEntryUpdate struct {
	IsFavorite     *bool   `json:"is_favorite"`
	Status         *string `json:"status"`
	PersonalRating *int    `json:"personal_rating"`
	Notes          *string `json:"notes"`
	HoursPlayed    *int    `json:"hours_played"`
}

// LibraryFilter narrows library listings.
type LibraryFilter struct {
	Status       string
	FavoriteOnly bool
	Limit        int
	Offset       int
}

// ProfileUpdate carries the mutable fields of a user profile. Nil means
// leave unchanged.
type ProfileUpdate struct {
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	Password *string `json:"password"`
}

// UserService handles profiles and the per-user book and game libraries.
type UserService struct {
	db     *gorm.DB
	books  BookMetadataProvider
	logger *zap.Logger
}

// NewUserService creates a new UserService instance
func NewUserService(db *gorm.DB, books BookMetadataProvider, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{db: db, books: books, logger: logger}
}

// GetUser loads a user by id.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateUser applies a profile update. Changing the email keeps the
// uniqueness guarantee; a new password is re-hashed.
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*update.Email))
		var other models.User
		err := s.db.WithContext(ctx).Where("email = ? AND id <> ?", email, id).First(&other).Error
		if err == nil {
			return nil, ErrUserExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user.Email = email
	}
	if update.FullName != nil {
		user.FullName = *update.FullName
	}
	if update.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*update.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hashed)
	}

	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// EnsureBook returns the stored book for a Google Books id, fetching it from
// the catalog and creating the row when it is not stored yet.
func (s *UserService) EnsureBook(ctx context.Context, googleBooksID string) (*models.Book, error) {
	var book models.Book
	err := s.db.WithContext(ctx).Where("google_books_id = ?", googleBooksID).First(&book).Error
	if err == nil {
		return &book, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	volume, err := s.books.GetDetails(ctx, googleBooksID)
	if err != nil {
		return nil, err
	}
	summary := s.books.ParseBookData(volume)
	if summary.Title == "" {
		return nil, fmt.Errorf("%w: volume %q has no title", ErrBookNotFound, googleBooksID)
	}

	book = models.Book{
		GoogleBooksID: summary.GoogleBooksID,
		Title:         summary.Title,
		Authors:       summary.Authors,
		Publisher:     summary.Publisher,
		PublishedDate: summary.PublishedDate,
		Description:   summary.Description,
		ISBN10:        summary.ISBN10,
		ISBN13:        summary.ISBN13,
		PageCount:     summary.PageCount,
		Categories:    summary.Categories,
		Language:      summary.Language,
		ImageURL:      summary.ImageURL,
		PreviewLink:   summary.PreviewLink,
	}
	if err := s.db.WithContext(ctx).
		Where(&models.Book{GoogleBooksID: summary.GoogleBooksID}).
		FirstOrCreate(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// AddBookFromGoogle adds a book to the user's library, creating the global
// book row from the catalog when it is not stored yet.
func (s *UserService) AddBookFromGoogle(ctx context.Context, userID uuid.UUID, googleBooksID string) (*models.UserBook, error) {
	book, err := s.EnsureBook(ctx, googleBooksID)
	if err != nil {
		return nil, err
	}
	return s.AddBook(ctx, userID, book.ID)
}

// AddBook adds a stored book to the user's library; re-adding returns the
// existing entry.
func (s *UserService) AddBook(ctx context.Context, userID uuid.UUID, bookID uint) (*models.UserBook, error) {
	var book models.Book
	if err := s.db.WithContext(ctx).First(&book, bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: book id %d", ErrBookNotFound, bookID)
		}
		return nil, err
	}

	entry := models.UserBook{
		UserID:        userID,
		BookID:        bookID,
		ReadingStatus: models.ReadingStatusToRead,
	}
	err := s.db.WithContext(ctx).
		Where(&models.UserBook{UserID: userID, BookID: bookID}).
		FirstOrCreate(&entry).Error
	if err != nil {
		return nil, err
	}

	return s.loadUserBook(ctx, userID, bookID)
}

// ListBooks returns the user's library with the book rows preloaded.
func (s *UserService) ListBooks(ctx context.Context, userID uuid.UUID, filter LibraryFilter) ([]models.UserBook, error) {
	q := s.db.WithContext(ctx).Preload("Book").Where("user_id = ?", userID)
	if filter.Status != "" {
		q = q.Where("reading_status = ?", filter.Status)
	}
	if filter.FavoriteOnly {
		q = q.Where("is_favorite = ?", true)
	}

	var entries []models.UserBook
	err := q.Order("created_at DESC").
		Limit(normalizeLimit(filter.Limit)).
		Offset(filter.Offset).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// UpdateBook applies a partial update to a library entry.
func (s *UserService) UpdateBook(ctx context.Context, userID uuid.UUID, bookID uint, update LibraryEntryUpdate) (*models.UserBook, error) {
	entry, err := s.loadUserBook(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}

	if update.IsFavorite != nil {
		entry.IsFavorite = *update.IsFavorite
	}
	if update.Status != nil {
		entry.ReadingStatus = *update.Status
	}
	if update.PersonalRating != nil {
		entry.PersonalRating = update.PersonalRating
	}
	if update.Notes != nil {
		entry.Notes = *update.Notes
	}

	if err := s.db.WithContext(ctx).Save(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// RemoveBook drops a book from the user's library. The global book row is
// untouched.
func (s *UserService) RemoveBook(ctx context.Context, userID uuid.UUID, bookID uint) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&models.UserBook{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrBookNotInLibrary
	}
	return nil
}

// AddGame adds a stored game to the user's library; re-adding returns the
// existing entry.
func (s *UserService) AddGame(ctx context.Context, userID uuid.UUID, gameID uint) (*models.UserGame, error) {
	var game models.Game
	if err := s.db.WithContext(ctx).First(&game, gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: game id %d", ErrGameNotFound, gameID)
		}
		return nil, err
	}

	entry := models.UserGame{
		UserID:     userID,
		GameID:     gameID,
		PlayStatus: models.PlayStatusToPlay,
	}
	err := s.db.WithContext(ctx).
		Where(&models.UserGame{UserID: userID, GameID: gameID}).
		FirstOrCreate(&entry).Error
	if err != nil {
		return nil, err
	}

	return s.loadUserGame(ctx, userID, gameID)
}

// ListGames returns the user's game library with the game rows preloaded.
func (s *UserService) ListGames(ctx context.Context, userID uuid.UUID, filter LibraryFilter) ([]models.UserGame, error) {
	q := s.db.WithContext(ctx).Preload("Game").Where("user_id = ?", userID)
	if filter.Status != "" {
		q = q.Where("play_status = ?", filter.Status)
	}
	if filter.FavoriteOnly {
		q = q.Where("is_favorite = ?", true)
	}

	var entries []models.UserGame
	err := q.Order("created_at DESC").
		Limit(normalizeLimit(filter.Limit)).
		Offset(filter.Offset).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// UpdateGame applies a partial update to a game library entry.
func (s *UserService) UpdateGame(ctx context.Context, userID uuid.UUID, gameID uint, update LibraryEntryUpdate) (*models.UserGame, error) {
	entry, err := s.loadUserGame(ctx, userID, gameID)
	if err != nil {
		return nil, err
	}

	if update.IsFavorite != nil {
		entry.IsFavorite = *update.IsFavorite
	}
	if update.Status != nil {
		entry.PlayStatus = *update.Status
	}
	if update.PersonalRating != nil {
		entry.PersonalRating = update.PersonalRating
	}
	if update.Notes != nil {
		entry.Notes = *update.Notes
	}
	if update.HoursPlayed != nil {
		entry.HoursPlayed = update.HoursPlayed
	}

	if err := s.db.WithContext(ctx).Save(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// RemoveGame drops a game from the user's library.
func (s *UserService) RemoveGame(ctx context.Context, userID uuid.UUID, gameID uint) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND game_id = ?", userID, gameID).
		Delete(&models.UserGame{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrGameNotInLibrary
	}
	return nil
}

func (s *UserService) loadUserBook(ctx context.Context, userID uuid.UUID, bookID uint) (*models.UserBook, error) {
	var entry models.UserBook
	err := s.db.WithContext(ctx).Preload("Book").
		Where("user_id = ? AND book_id = ?", userID, bookID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotInLibrary
		}
		return nil, err
	}
	return &entry, nil
}

func (s *UserService) loadUserGame(ctx context.Context, userID uuid.UUID, gameID uint) (*models.UserGame, error) {
	var entry models.UserGame
	err := s.db.WithContext(ctx).Preload("Game").
		Where("user_id = ? AND game_id = ?", userID, gameID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGameNotInLibrary
		}
		return nil, err
	}
	return &entry, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 50
	}
	return limit
}
