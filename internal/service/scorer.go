package service

import (
	"math"
	"strings"
)

// Similarity weights. Rating and metacritic components only contribute when
// the candidate actually has a value for them.
const (
	ratingWeight     = 0.3
	tagOverlapWeight = 0.5
	metacriticWeight = 0.2
)

// SimilarityScorer rates how well a game candidate fits a book's tags.
type SimilarityScorer struct{}

// NewSimilarityScorer creates a new SimilarityScorer instance
func NewSimilarityScorer() *SimilarityScorer {
	return &SimilarityScorer{}
}

// Score computes a weighted similarity in [0, 1] from the candidate's
// rating, the overlap between its tags and the book's tags, and its
// metacritic score. The result is rounded to two decimals.
func (s *SimilarityScorer) Score(game GameCandidate, bookTags []string) float64 {
	var score float64

	if game.Rating > 0 {
		score += game.Rating / 5.0 * ratingWeight
	}

	if len(bookTags) > 0 {
		overlap := tagOverlap(game, bookTags)
		score += math.Min(float64(overlap)/float64(len(bookTags)), 1.0) * tagOverlapWeight
	}

	if game.Metacritic != nil && *game.Metacritic > 0 {
		score += math.Min(float64(*game.Metacritic)/100.0, 1.0) * metacriticWeight
	}

	return round2(math.Min(score, 1.0))
}

// tagOverlap counts how many of the book's tags appear in the candidate's
// tag string.
func tagOverlap(game GameCandidate, bookTags []string) int {
	gameTags := make(map[string]struct{})
	for _, tag := range strings.Split(game.Tags, ",") {
		tag = strings.TrimSpace(strings.ToLower(tag))
		if tag != "" {
			gameTags[tag] = struct{}{}
		}
	}

	overlap := 0
	for _, tag := range bookTags {
		if _, ok := gameTags[strings.ToLower(tag)]; ok {
			overlap++
		}
	}
	return overlap
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
