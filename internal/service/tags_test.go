package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapTagsFromCategories(t *testing.T) {
	mapper := NewTagMapper(nil)

	tags := mapper.MapTags(BookFeatures{
		Title:      "The Name of the Wind",
		Categories: []string{"Fiction / Fantasy / Epic"},
	})

	assert.Equal(t, []string{"fantasy", "magic", "dragons", "medieval"}, tags)
}

func TestMapTagsFirstGenrePerCategoryWins(t *testing.T) {
	mapper := NewTagMapper(nil)

	// "fantasy" appears before "epic" in the mapping, so only the fantasy
	// tags are taken for this category even though both genres match.
	tags := mapper.MapTags(BookFeatures{
		Title:      "Some Book",
		Categories: []string{"Epic Fantasy"},
	})

	assert.Equal(t, []string{"fantasy", "magic", "dragons", "medieval"}, tags)
}

func TestMapTagsMultipleCategoriesDeduped(t *testing.T) {
	mapper := NewTagMapper(nil)

	tags := mapper.MapTags(BookFeatures{
		Title:      "Grim Tales",
		Categories: []string{"Fantasy", "Dark Fantasy", "Horror"},
	})

	// "Dark Fantasy" resolves to the fantasy genre again, so its tags are
	// duplicates and only fantasy + horror survive the dedupe.
	assert.Equal(t, []string{
		"fantasy", "magic", "dragons", "medieval",
		"horror", "survival-horror", "dark", "gore",
	}, tags)
}

func TestMapTagsFromTitleAndDescription(t *testing.T) {
	mapper := NewTagMapper(nil)

	tags := mapper.MapTags(BookFeatures{
		Title:       "A Mystery in the Fog",
		Description: "A detective story full of suspense.",
		Categories:  []string{"General"},
	})

	// No category matched, so tier two takes the first two tags of each
	// genre found in title+description.
	assert.Contains(t, tags, "mystery")
	assert.Contains(t, tags, "detective")
	assert.NotContains(t, tags, "crime")
}

func TestMapTagsFromKeywords(t *testing.T) {
	mapper := NewTagMapper(nil)

	tags := mapper.MapTags(BookFeatures{
		Title:       "The Innovators",
		Description: "How a group of inventors created the technology revolution.",
	})

	assert.Equal(t, []string{"sci-fi", "cyberpunk"}, tags)
}

func TestMapTagsGenericFallback(t *testing.T) {
	mapper := NewTagMapper(nil)

	tags := mapper.MapTags(BookFeatures{
		Title:       "Untitled",
		Description: "An unremarkable text.",
	})

	assert.Equal(t, []string{"story-rich", "adventure", "singleplayer"}, tags)
}

func TestMapTagsNeverEmpty(t *testing.T) {
	mapper := NewTagMapper(nil)

	tags := mapper.MapTags(BookFeatures{})
	assert.NotEmpty(t, tags)
	assert.LessOrEqual(t, len(tags), 10)
}
