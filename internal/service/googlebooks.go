package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/book2game/backend/config"
	"go.uber.org/zap"
)

// Volume is a Google Books API volume.
type Volume struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}

// VolumeInfo carries the fields of a volume the application reads.
type VolumeInfo struct {
	Title               string               `json:"title"`
	Authors             []string             `json:"authors"`
	Publisher           string               `json:"publisher"`
	PublishedDate       string               `json:"publishedDate"`
	Description         string               `json:"description"`
	Categories          []string             `json:"categories"`
	PageCount           int                  `json:"pageCount"`
	Language            string               `json:"language"`
	PreviewLink         string               `json:"previewLink"`
	ImageLinks          ImageLinks           `json:"imageLinks"`
	IndustryIdentifiers []IndustryIdentifier `json:"industryIdentifiers"`
}

type ImageLinks struct {
	Thumbnail string `json:"thumbnail"`
}

type IndustryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

// SearchResult is a page of volumes for a query.
type SearchResult struct {
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

// BookSummary is the flattened book shape served by the API and stored in
// the books table: authors and categories comma-joined, ISBNs pulled out of
// the industry identifiers.
type BookSummary struct {
	GoogleBooksID string `json:"google_books_id"`
	Title         string `json:"title"`
	Authors       string `json:"authors"`
	Publisher     string `json:"publisher"`
	PublishedDate string `json:"published_date"`
	Description   string `json:"description"`
	ISBN10        string `json:"isbn_10"`
	ISBN13        string `json:"isbn_13"`
	PageCount     int    `json:"page_count"`
	Categories    string `json:"categories"`
	Language      string `json:"language"`
	ImageURL      string `json:"image_url"`
	PreviewLink   string `json:"preview_link"`
}

// GoogleBooksService is the Google Books API client. Searches are cached for
// the default TTL, volume details for 7 days (books rarely change).
type GoogleBooksService struct {
	baseURL string
	apiKey  string
	client  *http.Client
	cache   *CacheService
	logger  *zap.Logger
}

const detailsCacheTTL = 7 * 24 * time.Hour

// NewGoogleBooksService creates a new GoogleBooksService instance
func NewGoogleBooksService(cfg *config.Config, cache *CacheService, logger *zap.Logger) *GoogleBooksService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoogleBooksService{
		baseURL: cfg.GoogleBooksBaseURL,
		apiKey:  cfg.GoogleBooksAPIKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
		logger:  logger,
	}
}

// Search queries volumes by free text with pagination.
func (s *GoogleBooksService) Search(ctx context.Context, query string, maxResults, startIndex int) (*SearchResult, error) {
	cacheKey := fmt.Sprintf("google_books:search:%s:%d:%d", query, maxResults, startIndex)
	if s.cache != nil {
		var cached SearchResult
		if s.cache.Get(ctx, cacheKey, &cached) {
			s.logger.Info("google books search cache HIT", zap.String("query", query))
			return &cached, nil
		}
	}
	s.logger.Info("google books search cache MISS", zap.String("query", query))

	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("startIndex", strconv.Itoa(startIndex))
	if s.apiKey != "" {
		params.Set("key", s.apiKey)
	}

	var result SearchResult
	if err := s.get(ctx, s.baseURL+"/volumes?"+params.Encode(), &result); err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, cacheKey, &result, 0)
	}
	return &result, nil
}

// GetDetails fetches one volume by its Google Books ID. A provider 404 maps
// to ErrBookNotFound.
func (s *GoogleBooksService) GetDetails(ctx context.Context, bookID string) (*Volume, error) {
	cacheKey := "google_books:details:" + bookID
	if s.cache != nil {
		var cached Volume
		if s.cache.Get(ctx, cacheKey, &cached) {
			s.logger.Info("google books details cache HIT", zap.String("book_id", bookID))
			return &cached, nil
		}
	}
	s.logger.Info("google books details cache MISS", zap.String("book_id", bookID))

	u := s.baseURL + "/volumes/" + url.PathEscape(bookID)
	if s.apiKey != "" {
		u += "?key=" + url.QueryEscape(s.apiKey)
	}

	var volume Volume
	if err := s.get(ctx, u, &volume); err != nil {
		var statusErr *httpStatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			s.logger.Info("book not found in google books", zap.String("book_id", bookID))
			return nil, fmt.Errorf("%w: google books id %q", ErrBookNotFound, bookID)
		}
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, cacheKey, &volume, detailsCacheTTL)
	}
	return &volume, nil
}

func (s *GoogleBooksService) get(ctx context.Context, u string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ParseBookData flattens a volume into the shape served to clients and
// persisted in the books table.
func (s *GoogleBooksService) ParseBookData(volume *Volume) *BookSummary {
	info := volume.VolumeInfo

	var isbn10, isbn13 string
	for _, ident := range info.IndustryIdentifiers {
		switch ident.Type {
		case "ISBN_10":
			isbn10 = ident.Identifier
		case "ISBN_13":
			isbn13 = ident.Identifier
		}
	}

	return &BookSummary{
		GoogleBooksID: volume.ID,
		Title:         info.Title,
		Authors:       strings.Join(info.Authors, ", "),
		Publisher:     info.Publisher,
		PublishedDate: info.PublishedDate,
		Description:   info.Description,
		ISBN10:        isbn10,
		ISBN13:        isbn13,
		PageCount:     info.PageCount,
		Categories:    strings.Join(info.Categories, ", "),
		Language:      info.Language,
		ImageURL:      info.ImageLinks.Thumbnail,
		PreviewLink:   info.PreviewLink,
	}
}
