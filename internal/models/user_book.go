package models

import (
	"time"

	"github.com/google/uuid"
)

// Reading statuses for a book in a user's library.
const (
	ReadingStatusToRead   = "to_read"
	ReadingStatusReading  = "reading"
	ReadingStatusFinished = "finished"
)

// UserBook is a user's personal library entry for a book.
type UserBook struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	UserID         uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_book" json:"user_id"`
	BookID         uint      `gorm:"not null;uniqueIndex:idx_user_book" json:"book_id"`
	IsFavorite     bool      `gorm:"not null;default:false" json:"is_favorite"`
	ReadingStatus  string    `gorm:"size:20;not null;default:'to_read'" json:"reading_status"`
	PersonalRating *int      `json:"personal_rating"`
	Notes          string    `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Book Book `gorm:"foreignKey:BookID" json:"book"`
}
