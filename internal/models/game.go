package models

import (
	"time"
)

// Game holds an AI-generated game record. DerivedID is the stable 31-bit
// integer hashed from the game name; it is the natural key for upserts so
// that the same game generated twice lands on the same row.
type Game struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	DerivedID    int32     `gorm:"column:derived_id;uniqueIndex;not null" json:"derived_id"`
	Name         string    `gorm:"not null" json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `gorm:"type:text" json:"description"`
	Released     string    `json:"released"`
	Rating       float64   `json:"rating"`
	RatingsCount int       `json:"ratings_count"`
	Metacritic   *int      `json:"metacritic"`
	Playtime     *int      `json:"playtime"`
	Genres       string    `json:"genres"`
	Tags         string    `json:"tags"`
	Platforms    *string   `json:"platforms"`
	Developers   *string   `json:"developers"`
	Publishers   *string   `json:"publishers"`
	ImageURL     *string   `json:"image_url"`
	Website      *string   `json:"website"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
