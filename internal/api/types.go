package api

import (
	"time"

	"github.com/book2game/backend/internal/models"
	"github.com/book2game/backend/internal/service"
)

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=50"`
	FullName string `json:"full_name" binding:"max=100"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is the body of POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthResponse carries the issued tokens and the user they belong to.
type AuthResponse struct {
	User   UserResponse       `json:"user"`
	Tokens *service.TokenPair `json:"tokens"`
}

// UserResponse is the public shape of a user.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		Username:  user.Username,
		FullName:  user.FullName,
		CreatedAt: user.CreatedAt,
	}
}

// UpdateProfileRequest is the body of PUT /users/me.
type UpdateProfileRequest struct {
	Email    *string `json:"email" binding:"omitempty,email"`
	FullName *string `json:"full_name" binding:"omitempty,max=100"`
	Password *string `json:"password" binding:"omitempty,min=8"`
}

// GenerateRecommendationRequest is the body of POST /recommendations.
type GenerateRecommendationRequest struct {
	BookID uint `json:"book_id" binding:"required"`
}

// LibraryBookUpdateRequest is the body of PUT /users/me/books/:book_id.
type LibraryBookUpdateRequest struct {
	IsFavorite     *bool   `json:"is_favorite"`
	ReadingStatus  *string `json:"reading_status" binding:"omitempty,oneof=to_read reading finished"`
	PersonalRating *int    `json:"personal_rating" binding:"omitempty,min=1,max=5"`
	Notes          *string `json:"notes"`
}

// LibraryGameUpdateRequest is the body of PUT /users/me/games/:game_id.
type LibraryGameUpdateRequest struct {
	IsFavorite     *bool   `json:"is_favorite"`
	PlayStatus     *string `json:"play_status" binding:"omitempty,oneof=to_play playing completed"`
	PersonalRating *int    `json:"personal_rating" binding:"omitempty,min=1,max=5"`
	Notes          *string `json:"notes"`
	HoursPlayed    *int    `json:"hours_played" binding:"omitempty,min=0"`
}

// SearchBooksResponse is the envelope of GET /books/search.
type SearchBooksResponse struct {
	TotalItems int                    `json:"total_items"`
	Items      []*service.BookSummary `json:"items"`
	Query      string                 `json:"query"`
	MaxResults int                    `json:"max_results"`
	StartIndex int                    `json:"start_index"`
}
