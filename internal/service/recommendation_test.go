package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/book2game/backend/internal/models"
)

// memoryRedis is an in-process RedisClient for cache tests.
type memoryRedis struct {
	data map[string]string
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{data: make(map[string]string)}
}

func (m *memoryRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if v, ok := m.data[key]; ok {
		cmd.SetVal(v)
	} else {
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (m *memoryRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	cmd.SetVal("OK")
	return cmd
}

func (m *memoryRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	var n int64
	for _, key := range keys {
		if _, ok := m.data[key]; ok {
			delete(m.data, key)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func (m *memoryRedis) Expire(ctx context.Context, key string, _ time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	_, ok := m.data[key]
	cmd.SetVal(ok)
	return cmd
}

type stubBookProvider struct {
	volume *Volume
	calls  int
}

func (s *stubBookProvider) GetDetails(ctx context.Context, bookID string) (*Volume, error) {
	s.calls++
	return s.volume, nil
}

func (s *stubBookProvider) ParseBookData(volume *Volume) *BookSummary {
	return &BookSummary{
		GoogleBooksID: volume.ID,
		Title:         volume.VolumeInfo.Title,
	}
}

type stubCandidateGenerator struct {
	games []GameCandidate
	err   error
	calls int
}

func (s *stubCandidateGenerator) GenerateGames(ctx context.Context, tags []string, count int) ([]GameCandidate, error) {
	s.calls++
	return s.games, s.err
}

func setupRecommendationDB(t *testing.T) *gorm.DB {
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
	))
	return db
}

func fantasyVolume() *Volume {
	return &Volume{
		ID: "gb-123",
		VolumeInfo: VolumeInfo{
			Title:       "The Name of the Wind",
			Description: "A young man grows into a legendary wizard.",
			Categories:  []string{"Fiction / Fantasy"},
		},
	}
}

func fantasyCandidates() []GameCandidate {
	mc := 90
	tags := "fantasy, magic, dragons, medieval"
	names := []string{"The Witcher 3", "Skyrim", "Elden Ring", "Dragon Age", "Dark Souls III"}
	ratings := []float64{4.8, 4.7, 4.9, 4.3, 4.5}
	games := make([]GameCandidate, len(names))
	for i, name := range names {
		games[i] = GameCandidate{
			ID:          DeriveGameID(name),
			Name:        name,
			Slug:        slugify(name),
			Description: name + " description",
			Released:    "2015-01-01",
			Rating:      ratings[i],
			Metacritic:  &mc,
			Genres:      "RPG",
			Tags:        tags,
		}
	}
	return games
}

func newTestRecommendationService(t *testing.T, db *gorm.DB, gen CandidateGenerator, cache *CacheService) (*RecommendationService, *stubBookProvider) {
	t.Helper()
	books := &stubBookProvider{volume: fantasyVolume()}
	svc := NewRecommendationService(db, books, NewTagMapper(nil), gen, NewSimilarityScorer(), cache, nil)
	return svc, books
}

func createTestUserAndBook(t *testing.T, db *gorm.DB) (uuid.UUID, uint) {
	t.Helper()
	user := models.User{
		Email:        "reader@example.com",
		Username:     "reader",
		FullName:     "Test Reader",
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(&user).Error)

	book := models.Book{
		GoogleBooksID: "gb-123",
		Title:         "The Name of the Wind",
	}
	require.NoError(t, db.Create(&book).Error)
	return user.ID, book.ID
}

func TestGenerateRecommendationFreshPipeline(t *testing.T) {
	db := setupRecommendationDB(t)
	userID, bookID := createTestUserAndBook(t, db)

	gen := &stubCandidateGenerator{games: fantasyCandidates()}
	cache := NewCacheService(newMemoryRedis(), time.Hour, nil)
	svc, _ := newTestRecommendationService(t, db, gen, cache)

	result, err := svc.GenerateRecommendation(context.Background(), userID, bookID)
	require.NoError(t, err)

	require.Len(t, result.Games, 5)
	// Witcher and Elden Ring both round to 0.97; the stable sort keeps
	// generation order for the tie.
	assert.Equal(t, "The Witcher 3", result.Games[0].Name)
	for i := 1; i < len(result.Games); i++ {
		assert.GreaterOrEqual(t, result.Games[i-1].Score, result.Games[i].Score)
	}

	require.NotNil(t, result.Recommendation)
	assert.True(t, result.Recommendation.AIGenerated)
	assert.Equal(t, userID, result.Recommendation.UserID)
	assert.Equal(t, bookID, result.Recommendation.BookID)
	assert.Greater(t, result.Recommendation.SimilarityScore, 0.5)

	var entries []struct {
		GameID int32   `json:"game_id"`
		Score  float64 `json:"score"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Recommendation.Games), &entries))
	assert.Len(t, entries, 5)
	assert.Equal(t, result.Games[0].GameID, entries[0].GameID)

	var gameCount int64
	require.NoError(t, db.Model(&models.Game{}).Count(&gameCount).Error)
	assert.EqualValues(t, 5, gameCount)

	assert.Equal(t, "The Name of the Wind", result.BookData.Title)
}

func TestGenerateRecommendationSucceedsWithErroringCache(t *testing.T) {
	db := setupRecommendationDB(t)
	userID, bookID := createTestUserAndBook(t, db)

	gen := &stubCandidateGenerator{games: fantasyCandidates()}
	cache := NewCacheService(&erroringRedis{}, time.Hour, nil)
	svc, _ := newTestRecommendationService(t, db, gen, cache)

	result, err := svc.GenerateRecommendation(context.Background(), userID, bookID)
	require.NoError(t, err, "a down cache backend must not fail the pipeline")
	require.Len(t, result.Games, 5)
	require.NotNil(t, result.Recommendation)

	// Every read misses, so a second run re-invokes the generator but
	// still lands a second history row.
	_, err = svc.GenerateRecommendation(context.Background(), userID, bookID)
	require.NoError(t, err)
	assert.Equal(t, 2, gen.calls)

	var recCount int64
	require.NoError(t, db.Model(&models.Recommendation{}).Where("user_id = ?", userID).Count(&recCount).Error)
	assert.EqualValues(t, 2, recCount)
}

func TestGenerateRecommendationCacheHitSkipsGeneration(t *testing.T) {
	db := setupRecommendationDB(t)
	userID, bookID := createTestUserAndBook(t, db)

	gen := &stubCandidateGenerator{games: fantasyCandidates()}
	cache := NewCacheService(newMemoryRedis(), time.Hour, nil)
	svc, books := newTestRecommendationService(t, db, gen, cache)

	first, err := svc.GenerateRecommendation(context.Background(), userID, bookID)
	require.NoError(t, err)
	require.Equal(t, 1, gen.calls)

	second, err := svc.GenerateRecommendation(context.Background(), userID, bookID)
	require.NoError(t, err)

	assert.Equal(t, 1, gen.calls, "cache hit must not invoke the generator")
	assert.GreaterOrEqual(t, books.calls, 2, "book metadata is refetched on a hit")
	assert.Equal(t, first.Games, second.Games)
	assert.Equal(t, first.Recommendation.Games, second.Recommendation.Games)

	// both requests land in the user's history
	var recCount int64
	require.NoError(t, db.Model(&models.Recommendation{}).Where("user_id = ?", userID).Count(&recCount).Error)
	assert.EqualValues(t, 2, recCount)
}

func TestGenerateRecommendationNoSuitableGames(t *testing.T) {
	db := setupRecommendationDB(t)
	userID, bookID := createTestUserAndBook(t, db)

	// candidates with no rating, no metacritic and unrelated tags score 0
	weak := []GameCandidate{
		{ID: 1, Name: "Farm Sim", Tags: "farming"},
		{ID: 2, Name: "Chess Master", Tags: "board-games"},
	}
	gen := &stubCandidateGenerator{games: weak}
	cache := NewCacheService(nil, time.Hour, nil)
	svc, _ := newTestRecommendationService(t, db, gen, cache)

	_, err := svc.GenerateRecommendation(context.Background(), userID, bookID)
	assert.ErrorIs(t, err, ErrNoSuitableGames)

	var recCount int64
	require.NoError(t, db.Model(&models.Recommendation{}).Count(&recCount).Error)
	assert.Zero(t, recCount)
}

func TestGenerateRecommendationBookNotFound(t *testing.T) {
	db := setupRecommendationDB(t)
	userID, _ := createTestUserAndBook(t, db)

	gen := &stubCandidateGenerator{games: fantasyCandidates()}
	svc, _ := newTestRecommendationService(t, db, gen, NewCacheService(nil, time.Hour, nil))

	_, err := svc.GenerateRecommendation(context.Background(), userID, 9999)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestGenerateRecommendationGeneratorError(t *testing.T) {
	db := setupRecommendationDB(t)
	userID, bookID := createTestUserAndBook(t, db)

	gen := &stubCandidateGenerator{err: ErrUpstreamUnavailable}
	svc, _ := newTestRecommendationService(t, db, gen, NewCacheService(nil, time.Hour, nil))

	_, err := svc.GenerateRecommendation(context.Background(), userID, bookID)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestGenerateRecommendationPersistedGamesAreReused(t *testing.T) {
	db := setupRecommendationDB(t)
	userID, bookID := createTestUserAndBook(t, db)

	gen := &stubCandidateGenerator{games: fantasyCandidates()}
	svc, _ := newTestRecommendationService(t, db, gen, NewCacheService(nil, time.Hour, nil))

	_, err := svc.GenerateRecommendation(context.Background(), userID, bookID)
	require.NoError(t, err)
	_, err = svc.GenerateRecommendation(context.Background(), userID, bookID)
	require.NoError(t, err)

	// get-or-create keeps one row per derived id across runs
	var gameCount int64
	require.NoError(t, db.Model(&models.Game{}).Count(&gameCount).Error)
	assert.EqualValues(t, 5, gameCount)
}

func TestGetRecommendationOwnership(t *testing.T) {
	db := setupRecommendationDB(t)
	userID, bookID := createTestUserAndBook(t, db)

	rec := models.Recommendation{
		UserID:          userID,
		BookID:          bookID,
		Games:           `[{"game_id":1,"score":0.9}]`,
		AIGenerated:     true,
		SimilarityScore: 0.9,
	}
	require.NoError(t, db.Create(&rec).Error)

	svc, _ := newTestRecommendationService(t, db, &stubCandidateGenerator{}, NewCacheService(nil, time.Hour, nil))

	got, err := svc.GetRecommendation(context.Background(), userID, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Games, got.Games)

	_, err = svc.GetRecommendation(context.Background(), uuid.New(), rec.ID)
	assert.ErrorIs(t, err, ErrRecommendationNotFound)
}

func TestListRecommendationsNewestFirst(t *testing.T) {
	db := setupRecommendationDB(t)
	userID, bookID := createTestUserAndBook(t, db)

	for i := 0; i < 3; i++ {
		rec := models.Recommendation{
			UserID:          userID,
			BookID:          bookID,
			Games:           `[]`,
			AIGenerated:     true,
			SimilarityScore: 0.7,
		}
		require.NoError(t, db.Create(&rec).Error)
	}

	svc, _ := newTestRecommendationService(t, db, &stubCandidateGenerator{}, NewCacheService(nil, time.Hour, nil))

	recs, err := svc.ListRecommendations(context.Background(), userID, 2, 0)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	recs, err = svc.ListRecommendations(context.Background(), uuid.New(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
