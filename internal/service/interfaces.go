package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/book2game/backend/internal/models"
	"github.com/book2game/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, email, username, fullName, password string) (*models.User, *TokenPair, error)
	Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	ValidateToken(tokenString string) (*types.TokenClaims, error)
}

// IRecommendationService defines the interface for the recommendation
// pipeline and its stored history.
type IRecommendationService interface {
	GenerateRecommendation(ctx context.Context, userID uuid.UUID, bookID uint) (*RecommendationResult, error)
	GetRecommendation(ctx context.Context, userID uuid.UUID, id uint) (*models.Recommendation, error)
	ListRecommendations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Recommendation, error)
}

// IBookCatalog defines the interface for the external book catalog.
type IBookCatalog interface {
	Search(ctx context.Context, query string, maxResults, startIndex int) (*SearchResult, error)
	GetDetails(ctx context.Context, bookID string) (*Volume, error)
	ParseBookData(volume *Volume) *BookSummary
}

// IUserService defines the interface for profile and library operations
type IUserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*models.User, error)

	EnsureBook(ctx context.Context, googleBooksID string) (*models.Book, error)
	AddBookFromGoogle(ctx context.Context, userID uuid.UUID, googleBooksID string) (*models.UserBook, error)
	AddBook(ctx context.Context, userID uuid.UUID, bookID uint) (*models.UserBook, error)
	ListBooks(ctx context.Context, userID uuid.UUID, filter LibraryFilter) ([]models.UserBook, error)
	UpdateBook(ctx context.Context, userID uuid.UUID, bookID uint, update LibraryEntryUpdate) (*models.UserBook, error)
	RemoveBook(ctx context.Context, userID uuid.UUID, bookID uint) error

	AddGame(ctx context.Context, userID uuid.UUID, gameID uint) (*models.UserGame, error)
	ListGames(ctx context.Context, userID uuid.UUID, filter LibraryFilter) ([]models.UserGame, error)
	UpdateGame(ctx context.Context, userID uuid.UUID, gameID uint, update LibraryEntryUpdate) (*models.UserGame, error)
	RemoveGame(ctx context.Context, userID uuid.UUID, gameID uint) error
}

// ICacheInspector exposes cache health for the health endpoint.
type ICacheInspector interface {
	Stats() CacheStats
}
