package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/book2game/backend/internal/models"
)

// candidatesPerRequest is how many games the model is asked for.
const candidatesPerRequest = 5

// similarityThreshold is the minimum score a candidate needs to be
// recommended.
const similarityThreshold = 0.5

// maxRecommendedGames caps the final ranked list.
const maxRecommendedGames = 5

// BookMetadataProvider supplies book details from an external catalog.
// Satisfied by GoogleBooksService.
type BookMetadataProvider interface {
	GetDetails(ctx context.Context, bookID string) (*Volume, error)
	ParseBookData(volume *Volume) *BookSummary
}

// CandidateGenerator synthesizes game candidates for a tag set. Satisfied
// by GameGenerator.
type CandidateGenerator interface {
	GenerateGames(ctx context.Context, tags []string, count int) ([]GameCandidate, error)
}

// GameRecommendation is one ranked entry of a recommendation.
type GameRecommendation struct {
	GameID int32   `json:"game_id"`
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Rating float64 `json:"rating"`
	Image  *string `json:"image"`
}

// RecommendationResult bundles the persisted row with the data the caller
// renders.
type RecommendationResult struct {
	Recommendation *models.Recommendation `json:"recommendation"`
	BookData       *BookSummary           `json:"book_data"`
	Games          []GameRecommendation   `json:"games"`
}

// cachedRecommendation is the payload stored under recommendation:book:{id}.
// games_json is kept pre-serialized so cache hits persist exactly the same
// row the original generation did.
type cachedRecommendation struct {
	Games            []GameRecommendation `json:"games"`
	GamesJSON        string               `json:"games_json"`
	AIGenerated      bool                 `json:"ai_generated"`
	SimilarityScore  float64              `json:"similarity_score"`
	ProcessingTimeMs int                  `json:"processing_time_ms"`
	TagsUsed         []string             `json:"tags_used"`
}

// RecommendationService runs the book to games pipeline: fetch metadata,
// map categories to tags, generate candidates, score, rank and persist.
type RecommendationService struct {
	db        *gorm.DB
	books     BookMetadataProvider
	mapper    *TagMapper
	generator CandidateGenerator
	scorer    *SimilarityScorer
	cache     *CacheService
	logger    *zap.Logger
}

// NewRecommendationService creates a new RecommendationService instance
func NewRecommendationService(
	db *gorm.DB,
	books BookMetadataProvider,
	mapper *TagMapper,
	generator CandidateGenerator,
	scorer *SimilarityScorer,
	cache *CacheService,
	logger *zap.Logger,
) *RecommendationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecommendationService{
		db:        db,
		books:     books,
		mapper:    mapper,
		generator: generator,
		scorer:    scorer,
		cache:     cache,
		logger:    logger,
	}
}

func recommendationCacheKey(bookID uint) string {
	return fmt.Sprintf("recommendation:book:%d", bookID)
}

// GenerateRecommendation produces game recommendations for a stored book.
// Results are cached per book; a cache hit still records a fresh
// Recommendation row in the user's history and refetches the book metadata
// so the response stays current.
func (s *RecommendationService) GenerateRecommendation(ctx context.Context, userID uuid.UUID, bookID uint) (*RecommendationResult, error) {
	start := time.Now()
	cacheKey := recommendationCacheKey(bookID)

	var cached cachedRecommendation
	if s.cache.Get(ctx, cacheKey, &cached) {
		s.logger.Info("recommendation cache hit", zap.Uint("book_id", bookID))
		return s.resultFromCache(ctx, userID, bookID, cached)
	}
	s.logger.Info("recommendation cache miss", zap.Uint("book_id", bookID))

	var book models.Book
	if err := s.db.WithContext(ctx).First(&book, bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: book id %d", ErrBookNotFound, bookID)
		}
		return nil, fmt.Errorf("loading book %d: %w", bookID, err)
	}

	volume, err := s.books.GetDetails(ctx, book.GoogleBooksID)
	if err != nil {
		return nil, err
	}
	parsedBook := s.books.ParseBookData(volume)

	features := ExtractBookFeatures(volume)
	tags := s.mapper.MapTags(features)

	candidates, err := s.generator.GenerateGames(ctx, tags, candidatesPerRequest)
	if err != nil {
		return nil, err
	}

	ranked := s.rankCandidates(candidates, tags)
	if len(ranked) == 0 {
		s.logger.Warn("no candidates passed the similarity threshold",
			zap.Uint("book_id", bookID),
			zap.Strings("tags", tags),
		)
		return nil, ErrNoSuitableGames
	}

	var total float64
	for _, g := range ranked {
		total += g.Score
	}
	avgScore := round2(total / float64(len(ranked)))

	s.persistCandidates(ctx, ranked, candidates)

	gamesJSON, err := marshalGamesJSON(ranked)
	if err != nil {
		return nil, fmt.Errorf("serializing recommendation games: %w", err)
	}
	processingMs := int(time.Since(start).Milliseconds())

	rec := &models.Recommendation{
		UserID:           userID,
		BookID:           bookID,
		Games:            gamesJSON,
		AIGenerated:      true,
		SimilarityScore:  avgScore,
		ProcessingTimeMs: processingMs,
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("saving recommendation: %w", err)
	}

	s.logger.Info("recommendation generated",
		zap.Uint("book_id", bookID),
		zap.Int("games", len(ranked)),
		zap.Float64("score", avgScore),
		zap.Int("processing_ms", processingMs),
	)

	s.cache.Set(ctx, cacheKey, cachedRecommendation{
		Games:            ranked,
		GamesJSON:        gamesJSON,
		AIGenerated:      true,
		SimilarityScore:  avgScore,
		ProcessingTimeMs: processingMs,
		TagsUsed:         tags,
	}, 0)

	return &RecommendationResult{
		Recommendation: rec,
		BookData:       parsedBook,
		Games:          ranked,
	}, nil
}

// resultFromCache records the hit in the user's history and rebuilds the
// response from the cached payload.
func (s *RecommendationService) resultFromCache(ctx context.Context, userID uuid.UUID, bookID uint, cached cachedRecommendation) (*RecommendationResult, error) {
	rec := &models.Recommendation{
		UserID:           userID,
		BookID:           bookID,
		Games:            cached.GamesJSON,
		AIGenerated:      cached.AIGenerated,
		SimilarityScore:  cached.SimilarityScore,
		ProcessingTimeMs: cached.ProcessingTimeMs,
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("saving recommendation: %w", err)
	}

	var book models.Book
	if err := s.db.WithContext(ctx).First(&book, bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: book id %d", ErrBookNotFound, bookID)
		}
		return nil, fmt.Errorf("loading book %d: %w", bookID, err)
	}

	volume, err := s.books.GetDetails(ctx, book.GoogleBooksID)
	if err != nil {
		return nil, err
	}

	return &RecommendationResult{
		Recommendation: rec,
		BookData:       s.books.ParseBookData(volume),
		Games:          cached.Games,
	}, nil
}

// rankCandidates scores at most 10 candidates, drops those below the
// threshold, sorts the rest by score descending and keeps the top 5. The
// sort is stable so equally scored candidates keep generation order.
func (s *RecommendationService) rankCandidates(candidates []GameCandidate, tags []string) []GameRecommendation {
	pool := candidates
	if len(pool) > 10 {
		pool = pool[:10]
	}

	var ranked []GameRecommendation
	for _, candidate := range pool {
		score := s.scorer.Score(candidate, tags)
		if score < similarityThreshold {
			continue
		}
		ranked = append(ranked, GameRecommendation{
			GameID: candidate.ID,
			Name:   candidate.Name,
			Score:  score,
			Rating: candidate.Rating,
			Image:  candidate.ImageURL,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > maxRecommendedGames {
		ranked = ranked[:maxRecommendedGames]
	}
	return ranked
}

// persistCandidates stores the selected games with get-or-create semantics.
// A failed insert is logged and skipped; the recommendation row may then
// reference a game id that was never stored. That gap is accepted so one
// bad candidate cannot sink the whole recommendation.
func (s *RecommendationService) persistCandidates(ctx context.Context, ranked []GameRecommendation, candidates []GameCandidate) {
	byID := make(map[int32]GameCandidate, len(candidates))
	for _, candidate := range candidates {
		byID[candidate.ID] = candidate
	}

	for _, rec := range ranked {
		candidate, ok := byID[rec.GameID]
		if !ok {
			s.logger.Warn("ranked game missing from candidate set", zap.Int32("game_id", rec.GameID))
			continue
		}

		game := models.Game{
			DerivedID:    candidate.ID,
			Name:         candidate.Name,
			Slug:         candidate.Slug,
			Description:  candidate.Description,
			Released:     candidate.Released,
			Rating:       candidate.Rating,
			RatingsCount: candidate.RatingsCount,
			Metacritic:   candidate.Metacritic,
			Playtime:     candidate.Playtime,
			Genres:       candidate.Genres,
			Tags:         candidate.Tags,
			ImageURL:     candidate.ImageURL,
		}
		err := s.db.WithContext(ctx).
			Where(&models.Game{DerivedID: candidate.ID}).
			FirstOrCreate(&game).Error
		if err != nil {
			s.logger.Error("failed to save game",
				zap.String("name", candidate.Name),
				zap.Int32("game_id", candidate.ID),
				zap.Error(err),
			)
			continue
		}
		s.logger.Debug("game saved", zap.String("name", candidate.Name), zap.Int32("game_id", candidate.ID))
	}
}

func marshalGamesJSON(ranked []GameRecommendation) (string, error) {
	entries := make([]struct {
		GameID int32   `json:"game_id"`
		Score  float64 `json:"score"`
	}, len(ranked))
	for i, g := range ranked {
		entries[i].GameID = g.GameID
		entries[i].Score = g.Score
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GetRecommendation loads a stored recommendation owned by the user.
func (s *RecommendationService) GetRecommendation(ctx context.Context, userID uuid.UUID, id uint) (*models.Recommendation, error) {
	var rec models.Recommendation
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecommendationNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// ListRecommendations returns the user's recommendation history, newest
// first.
func (s *RecommendationService) ListRecommendations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Recommendation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var recs []models.Recommendation
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}
