package models

import (
	"time"
)

// Book mirrors the metadata returned by the Google Books API for a volume
// the application has seen at least once. Authors and categories are stored
// comma-joined, exactly as the provider hands them over after flattening.
type Book struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	GoogleBooksID string    `gorm:"uniqueIndex;not null" json:"google_books_id"`
	Title         string    `gorm:"not null" json:"title"`
	Authors       string    `json:"authors"`
	Publisher     string    `json:"publisher"`
	PublishedDate string    `json:"published_date"`
	Description   string    `gorm:"type:text" json:"description"`
	ISBN10        string    `json:"isbn_10"`
	ISBN13        string    `json:"isbn_13"`
	PageCount     int       `json:"page_count"`
	Categories    string    `json:"categories"`
	Language      string    `json:"language"`
	ImageURL      string    `json:"image_url"`
	PreviewLink   string    `json:"preview_link"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
