package service

import (
	"strings"

	"go.uber.org/zap"
)

// genreTags is one literary-genre entry of the mapping table. The table is a
// slice, not a map: matching walks it in a fixed order and the first genre
// found in a category wins, so iteration order is part of the contract.
type genreTags struct {
	genre string
	tags  []string
}

// genreTagMapping maps literary genres to gameplay tags.
var genreTagMapping = []genreTags{
	{"fantasy", []string{"fantasy", "magic", "dragons", "medieval"}},
	{"science fiction", []string{"sci-fi", "space", "futuristic", "cyberpunk"}},
	{"adventure", []string{"adventure", "exploration", "open-world"}},
	{"mystery", []string{"mystery", "detective", "crime", "investigation"}},
	{"thriller", []string{"thriller", "suspense", "psychological"}},
	{"horror", []string{"horror", "survival-horror", "dark", "gore"}},
	{"romance", []string{"romance", "dating-sim", "story-rich"}},
	{"historical", []string{"historical", "realistic", "war"}},
	{"action", []string{"action", "combat", "fast-paced"}},
	{"drama", []string{"drama", "story-rich", "emotional"}},
	{"comedy", []string{"comedy", "funny", "casual"}},
	{"dystopian", []string{"post-apocalyptic", "dystopian", "survival"}},
	{"post-apocalyptic", []string{"post-apocalyptic", "survival", "zombies"}},
	{"superhero", []string{"superhero", "super-powers", "comic-book"}},
	{"crime", []string{"crime", "mafia", "heist"}},
	{"war", []string{"war", "military", "tactical"}},
	{"magic", []string{"magic", "spells", "wizards"}},
	{"dark", []string{"dark", "dark-fantasy", "mature"}},
	{"epic", []string{"epic", "grand-strategy", "story-rich"}},
}

// keywordTagMapping is the last-resort keyword table consulted when neither
// the categories nor the title/description matched a literary genre.
var keywordTagMapping = []genreTags{
	{"technology", []string{"sci-fi", "cyberpunk", "simulation"}},
	{"business", []string{"strategy", "management", "simulation"}},
	{"war", []string{"war", "strategy", "military"}},
	{"history", []string{"historical", "strategy"}},
	{"space", []string{"space", "sci-fi", "exploration"}},
	{"crime", []string{"crime", "action", "thriller"}},
	{"spy", []string{"stealth", "action", "thriller"}},
	{"detective", []string{"mystery", "detective", "investigation"}},
}

// genericTags is the fallback when nothing at all matched.
var genericTags = []string{"story-rich", "adventure", "singleplayer"}

const maxTags = 10

// TagMapper converts a book's literary categories into gameplay tags.
type TagMapper struct {
	logger *zap.Logger
}

// NewTagMapper creates a new TagMapper instance
func NewTagMapper(logger *zap.Logger) *TagMapper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TagMapper{logger: logger}
}

// MapTags derives 1 to 10 deduplicated gameplay tags from the book's
// features. Tiers are consulted in order and a tier only runs when every
// tier before it produced nothing: categories, then title+description genre
// matching, then keyword matching, then the generic fallback.
func (m *TagMapper) MapTags(features BookFeatures) []string {
	var tags []string

	// Tier 1: one genre match per category string.
	for _, category := range features.Categories {
		categoryLower := strings.ToLower(category)
		for _, entry := range genreTagMapping {
			if strings.Contains(categoryLower, entry.genre) {
				tags = append(tags, entry.tags...)
				break
			}
		}
	}
	tags = dedupeTags(tags)

	// Tier 2: genre matching against title+description, 2 tags per genre.
	if len(tags) == 0 {
		combined := strings.ToLower(features.Title) + " " + strings.ToLower(features.Description)
		for _, entry := range genreTagMapping {
			if strings.Contains(combined, entry.genre) {
				tags = append(tags, entry.tags[:min(2, len(entry.tags))]...)
				if len(tags) >= maxTags {
					break
				}
			}
		}
		tags = dedupeTags(tags)
	}

	// Tier 3: keyword table, 2 tags per keyword.
	if len(tags) == 0 {
		combined := strings.ToLower(features.Title) + " " + strings.ToLower(features.Description)
		for _, entry := range keywordTagMapping {
			if strings.Contains(combined, entry.genre) {
				tags = append(tags, entry.tags[:min(2, len(entry.tags))]...)
			}
		}
		tags = dedupeTags(tags)
	}

	// Tier 4: generic fallback.
	if len(tags) == 0 {
		tags = append(tags, genericTags...)
		m.logger.Warn("no specific tags found, using generic tags",
			zap.String("title", features.Title),
			zap.Strings("tags", tags),
		)
	}

	if len(tags) > maxTags {
		tags = tags[:maxTags]
	}

	m.logger.Info("mapped book categories to game tags",
		zap.String("title", features.Title),
		zap.Strings("tags", tags),
	)
	return tags
}

// dedupeTags removes duplicates preserving first-seen order.
func dedupeTags(tags []string) []string {
	if len(tags) == 0 {
		return tags
	}
	seen := make(map[string]struct{}, len(tags))
	out := tags[:0]
	for _, tag := range tags {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
