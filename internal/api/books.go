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

// BooksHandler proxies the external book catalog and stores selected books
// locally.
type BooksHandler struct {
	catalog   service.IBookCatalog
	users     service.IUserService
	validator middleware.TokenValidator
	logger    *zap.Logger
}

// NewBooksHandler creates a new BooksHandler instance
func NewBooksHandler(catalog service.IBookCatalog, users service.IUserService, validator middleware.TokenValidator, logger *zap.Logger) *BooksHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BooksHandler{catalog: catalog, users: users, validator: validator, logger: logger}
}

// RegisterRoutes registers the book catalog routes. All require auth.
func (h *BooksHandler) RegisterRoutes(router *gin.RouterGroup) {
	books := router.Group("/books")
	books.Use(middleware.AuthMiddleware(h.validator))
	{
		books.GET("/search", h.Search)
		books.GET("/:book_id", h.GetDetails)
		books.POST("/from-google/:google_books_id", h.CreateFromGoogle)
	}
}

func (h *BooksHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}

	maxResults, err := strconv.Atoi(c.DefaultQuery("max_results", "10"))
	if err != nil || maxResults < 1 || maxResults > 40 {
		maxResults = 10
	}
	startIndex, err := strconv.Atoi(c.DefaultQuery("start_index", "0"))
	if err != nil || startIndex < 0 {
		startIndex = 0
	}

	result, err := h.catalog.Search(c.Request.Context(), query, maxResults, startIndex)
	if err != nil {
		h.logger.Error("book search failed", zap.String("query", query), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "book catalog unavailable"})
		return
	}

	items := make([]*service.BookSummary, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, h.catalog.ParseBookData(&result.Items[i]))
	}

	c.JSON(http.StatusOK, SearchBooksResponse{
		TotalItems: result.TotalItems,
		Items:      items,
		Query:      query,
		MaxResults: maxResults,
		StartIndex: startIndex,
	})
}

func (h *BooksHandler) GetDetails(c *gin.Context) {
	bookID := c.Param("book_id")

	volume, err := h.catalog.GetDetails(c.Request.Context(), bookID)
	if err != nil {
		if errors.Is(err, service.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
			return
		}
		h.logger.Error("book details failed", zap.String("book_id", bookID), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "book catalog unavailable"})
		return
	}

	c.JSON(http.StatusOK, h.catalog.ParseBookData(volume))
}

func (h *BooksHandler) CreateFromGoogle(c *gin.Context) {
	googleBooksID := c.Param("google_books_id")

	book, err := h.users.EnsureBook(c.Request.Context(), googleBooksID)
	if err != nil {
		if errors.Is(err, service.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
			return
		}
		h.logger.Error("book creation failed", zap.String("google_books_id", googleBooksID), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "book catalog unavailable"})
		return
	}

	c.JSON(http.StatusCreated, book)
}
