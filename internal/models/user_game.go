package models

import (
	"time"

	"github.com/google/uuid"
)

// Play statuses for a game in a user's library.
const (
	PlayStatusToPlay    = "to_play"
	PlayStatusPlaying   = "playing"
	PlayStatusCompleted = "completed"
)

// UserGame is a user's personal library entry for a game.
type UserGame struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	UserID         uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_game" json:"user_id"`
	GameID         uint      `gorm:"not null;uniqueIndex:idx_user_game" json:"game_id"`
	IsFavorite     bool      `gorm:"not null;default:false" json:"is_favorite"`
	PlayStatus     string    `gorm:"size:20;not null;default:'to_play'" json:"play_status"`
	PersonalRating *int      `json:"personal_rating"`
	Notes          string    `gorm:"type:text" json:"notes"`
	HoursPlayed    *int      `json:"hours_played"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Game Game `gorm:"foreignKey:GameID" json:"game"`
}
