package models

import (
	"time"

	"github.com/google/uuid"
)

// Recommendation is one generation run for one user and one book. Games is
// the JSON-serialized ranked list of {game_id, score} pairs; it is the source
// of truth for this recommendation's history even if an individual game row
// later failed to persist. Rows are append-only: a cache hit still writes a
// fresh row so the user's history reflects every request.
type Recommendation struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	UserID           uuid.UUID `gorm:"type:varchar(36);not null;index" json:"user_id"`
	BookID           uint      `gorm:"not null;index" json:"book_id"`
	Games            string    `gorm:"type:text;not null" json:"games"`
	AIGenerated      bool      `gorm:"not null;default:true" json:"ai_generated"`
	SimilarityScore  float64   `json:"similarity_score"`
	ProcessingTimeMs int       `json:"processing_time_ms"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
