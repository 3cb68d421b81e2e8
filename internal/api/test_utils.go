package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/book2game/backend/internal/models"
	"github.com/book2game/backend/internal/types"
)

// stubTokenValidator accepts exactly one token and maps it to a fixed user.
type stubTokenValidator struct {
	token    string
	userID   uuid.UUID
	username string
}

func (v *stubTokenValidator) ValidateToken(token string) (*types.TokenClaims, error) {
	if token != v.token {
		return nil, errors.New("token mismatch")
	}
	return &types.TokenClaims{UserID: v.userID, Username: v.username}, nil
}

// setupTestDB opens a throwaway in-memory database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Book{},
		&models.Game{},
		&models.Recommendation{},
		&models.UserBook{},
		&models.UserGame{},
	))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := &models.User{
		Email:        uuid.NewString() + "@example.com",
		Username:     "u" + uuid.NewString()[:8],
		FullName:     "Test User",
		PasswordHash: "$2a$10$unusedunusedunusedunusedunusedunusedunusedunusedunus",
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// newAuthedRouter returns a gin engine plus a validator primed for one user.
func newAuthedRouter(t *testing.T, db *gorm.DB) (*gin.Engine, *gin.RouterGroup, *stubTokenValidator, *models.User) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	user := createTestUser(t, db)
	validator := &stubTokenValidator{
		token:    "test-token-" + uuid.NewString(),
		userID:   user.ID,
		username: user.Username,
	}
	router := gin.New()
	v1 := router.Group("/api/v1")
	return router, v1, validator, user
}

// doJSON performs a request with an optional body and bearer token.
func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest))
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
