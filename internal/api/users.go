package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/book2game/backend/internal/middleware"
	"github.com/book2game/backend/internal/service"
)

// UsersHandler serves the authenticated user's profile and library.
type UsersHandler struct {
	users           service.IUserService
	recommendations service.IRecommendationService
	validator       middleware.TokenValidator
	logger          *zap.Logger
}

// NewUsersHandler creates a new UsersHandler instance
func NewUsersHandler(users service.IUserService, recommendations service.IRecommendationService, validator middleware.TokenValidator, logger *zap.Logger) *UsersHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsersHandler{
		users:           users,
		recommendations: recommendations,
		validator:       validator,
		logger:          logger,
	}
}

// RegisterRoutes registers the profile and library routes. All require auth.
func (h *UsersHandler) RegisterRoutes(router *gin.RouterGroup) {
	me := router.Group("/users/me")
	me.Use(middleware.AuthMiddleware(h.validator))
	{
		me.GET("", h.GetProfile)
		me.PUT("", h.UpdateProfile)
		me.GET("/recommendations", h.ListRecommendations)

		me.GET("/books", h.ListBooks)
		me.POST("/books", h.AddBook)
		me.POST("/books/from-google/:google_books_id", h.AddBookFromGoogle)
		me.PUT("/books/:book_id", h.UpdateBook)
		me.DELETE("/books/:book_id", h.RemoveBook)

		me.GET("/games", h.ListGames)
		me.POST("/games", h.AddGame)
		me.PUT("/games/:game_id", h.UpdateGame)
		me.DELETE("/games/:game_id", h.RemoveGame)
	}
}

// AddLibraryBookRequest is the body of POST /users/me/books.
type AddLibraryBookRequest struct {
	BookID uint `json:"book_id" binding:"required"`
}

// AddLibraryGameRequest is the body of POST /users/me/games.
type AddLibraryGameRequest struct {
	GameID uint `json:"game_id" binding:"required"`
}

func (h *UsersHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("profile fetch failed", zap.String("user_id", userID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch profile"})
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *UsersHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.UpdateUser(c.Request.Context(), userID, service.ProfileUpdate{
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrUserExists):
			c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
		default:
			h.logger.Error("profile update failed", zap.String("user_id", userID.String()), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		}
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *UsersHandler) ListRecommendations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	limit, offset := paginationParams(c)
	recs, err := h.recommendations.ListRecommendations(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("recommendation list failed", zap.String("user_id", userID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list recommendations"})
		return
	}

	c.JSON(http.StatusOK, recs)
}

func (h *UsersHandler) ListBooks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	entries, err := h.users.ListBooks(c.Request.Context(), userID, libraryFilter(c, "reading_status"))
	if err != nil {
		h.logger.Error("library book list failed", zap.String("user_id", userID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list library books"})
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *UsersHandler) AddBook(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req AddLibraryBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.users.AddBook(c.Request.Context(), userID, req.BookID)
	if err != nil {
		if errors.Is(err, service.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
			return
		}
		h.logger.Error("library book add failed", zap.String("user_id", userID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add book"})
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *UsersHandler) AddBookFromGoogle(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	googleBooksID := c.Param("google_books_id")
	entry, err := h.users.AddBookFromGoogle(c.Request.Context(), userID, googleBooksID)
	if err != nil {
		if errors.Is(err, service.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
			return
		}
		h.logger.Error("library book add failed",
			zap.String("user_id", userID.String()),
			zap.String("google_books_id", googleBooksID),
			zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "book catalog unavailable"})
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *UsersHandler) UpdateBook(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	bookID, err := parseIDParam(c, "book_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid book id"})
		return
	}

	var req LibraryBookUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.users.UpdateBook(c.Request.Context(), userID, bookID, service.LibraryEntryUpdate{
		IsFavorite:     req.IsFavorite,
		Status:         req.ReadingStatus,
		PersonalRating: req.PersonalRating,
		Notes:          req.Notes,
	})
	if err != nil {
		if errors.Is(err, service.ErrBookNotInLibrary) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book not in library"})
			return
		}
		h.logger.Error("library book update failed", zap.String("user_id", userID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update book"})
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *UsersHandler) RemoveBook(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	bookID, err := parseIDParam(c, "book_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid book id"})
		return
	}

	if err := h.users.RemoveBook(c.Request.Context(), userID, bookID); err != nil {
		if errors.Is(err, service.ErrBookNotInLibrary) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book not in library"})
			return
		}
		h.logger.Error("library book remove failed", zap.String("user_id", userID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove book"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *UsersHandler) ListGames(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	entries, err := h.users.ListGames(c.Request.Context(), userID, libraryFilter(c, "play_status"))
	if err != nil {
		h.logger.Error("library game list failed", zap.String("user_id", userID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list library games"})
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *UsersHandler) AddGame(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req AddLibraryGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.users.AddGame(c.Request.Context(), userID, req.GameID)
	if err != nil {
		if errors.Is(err, service.ErrGameNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
			return
		}
		h.logger.Error("library game add failed", zap.String("user_id", userID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add game"})
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *UsersHandler) UpdateGame(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	gameID, err := parseIDParam(c, "game_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid game id"})
		return
	}

	var req LibraryGameUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.users.UpdateGame(c.Request.Context(), userID, gameID, service.LibraryEntryUpdate{
		IsFavorite:     req.IsFavorite,
		Status:         req.PlayStatus,
		PersonalRating: req.PersonalRating,
		Notes:          req.Notes,
		HoursPlayed:    req.HoursPlayed,
	})
	if err != nil {
		if errors.Is(err, service.ErrGameNotInLibrary) {
			c.JSON(http.StatusNotFound, gin.H{"error": "game not in library"})
			return
		}
		h.logger.Error("library game update failed", zap.String("user_id", userID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update game"})
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *UsersHandler) RemoveGame(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	gameID, err := parseIDParam(c, "game_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid game id"})
		return
	}

	if err := h.users.RemoveGame(c.Request.Context(), userID, gameID); err != nil {
		if errors.Is(err, service.ErrGameNotInLibrary) {
			c.JSON(http.StatusNotFound, gin.H{"error": "game not in library"})
			return
		}
		h.logger.Error("library game remove failed", zap.String("user_id", userID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove game"})
		return
	}

	c.Status(http.StatusNoContent)
}

// libraryFilter reads the shared library listing query parameters. The
// status key differs between books (reading_status) and games (play_status).
func libraryFilter(c *gin.Context, statusKey string) service.LibraryFilter {
	limit, offset := paginationParams(c)
	return service.LibraryFilter{
		Status:       c.Query(statusKey),
		FavoriteOnly: c.Query("favorite_only") == "true",
		Limit:        limit,
		Offset:       offset,
	}
}

func parseIDParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
