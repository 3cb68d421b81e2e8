package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractBookFeatures(t *testing.T) {
	volume := &Volume{
		ID: "abc",
		VolumeInfo: VolumeInfo{
			Title:         "Dune",
			Authors:       []string{"Frank Herbert"},
			Description:   "A desert planet and its spice.",
			Categories:    []string{"Fiction / Science Fiction"},
			PublishedDate: "1965-08-01",
			Language:      "en",
			PageCount:     412,
		},
	}

	features := ExtractBookFeatures(volume)
	assert.Equal(t, "Dune", features.Title)
	assert.Equal(t, []string{"Frank Herbert"}, features.Authors)
	assert.Equal(t, "1965", features.PublishedYear)
	assert.Equal(t, "en", features.Language)
	assert.Equal(t, 412, features.PageCount)
}

func TestExtractBookFeaturesDefaults(t *testing.T) {
	features := ExtractBookFeatures(&Volume{})
	assert.Empty(t, features.Title)
	assert.Empty(t, features.PublishedYear)
	assert.Equal(t, "en", features.Language)
}
