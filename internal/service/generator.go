package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// GameCandidate is a synthesized game record. The model supplies name, year,
// rating, genre and description; everything else is derived locally.
type GameCandidate struct {
	ID           int32   `json:"id"`
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	Description  string  `json:"description"`
	Released     string  `json:"released"`
	Rating       float64 `json:"rating"`
	RatingsCount int     `json:"ratings_count"`
	Metacritic   *int    `json:"metacritic"`
	Playtime     *int    `json:"playtime"`
	Genres       string  `json:"genres"`
	Tags         string  `json:"tags"`
	ImageURL     *string `json:"image_url"`
}

// TextGenerator produces free text from a prompt. Satisfied by
// HuggingFaceService.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error)
}

var (
	// structuredLinePattern matches "1. Name (2015) - Rating: 4.5/5 - Genre: RPG - Description".
	structuredLinePattern = regexp.MustCompile(`(?i)^\d+\.\s*(.+?)\s*\((\d{4})\)\s*-\s*Rating:\s*([\d.]+).*?-\s*Genre:\s*([^-]+)\s*-\s*(.+)$`)

	// introLinePatterns match conversational preambles the model sometimes
	// emits before the numbered list.
	introLinePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^here are \d+ (popular|real|video games)`),
		regexp.MustCompile(`^i (recommend|suggest|present)`),
		regexp.MustCompile(`^below (is|are) (some|the)`),
		regexp.MustCompile(`^based on your`),
	}

	boldPattern        = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicPattern      = regexp.MustCompile(`\*(.+?)\*`)
	underBoldPattern   = regexp.MustCompile(`__(.+?)__`)
	underItalicPattern = regexp.MustCompile(`_(.+?)_`)

	namePrefixPattern = regexp.MustCompile(`^([^(]+)`)
)

// tagGenreMapping maps gameplay tags to game genres for fallback candidates.
var tagGenreMapping = map[string][]string{
	"fantasy":    {"RPG", "Action RPG", "Adventure"},
	"sci-fi":     {"Shooter", "Action", "RPG"},
	"action":     {"Action", "Shooter", "Fighting"},
	"horror":     {"Horror", "Survival", "Action"},
	"adventure":  {"Adventure", "Action-Adventure", "Platformer"},
	"open-world": {"Open World", "RPG", "Action"},
	"story-rich": {"Narrative", "Adventure", "RPG"},
	"magic":      {"RPG", "Fantasy", "Action RPG"},
	"shooter":    {"Shooter", "FPS", "Action"},
	"strategy":   {"Strategy", "Simulation", "Management"},
}

// primaryCategoryPriority orders which tag becomes the fallback candidate's
// primary genre source.
var primaryCategoryPriority = []string{"fantasy", "sci-fi", "horror", "action", "adventure"}

// DeriveGameID hashes a game name into a stable positive id that fits a
// PostgreSQL INTEGER. The first 7 hex digits of the md5 give 28 bits, and
// the modulus keeps the value below 2^31-1. The same name always produces
// the same id.
func DeriveGameID(name string) int32 {
	sum := md5.Sum([]byte(strings.ToLower(name)))
	digest := hex.EncodeToString(sum[:])
	n, _ := strconv.ParseInt(digest[:7], 16, 64)
	return int32(n % 2147483647)
}

// cleanMarkdown strips bold and italic markers the model sometimes wraps
// names and descriptions in. Double markers are removed before single ones
// so "**x**" does not degrade to "*x*".
func cleanMarkdown(text string) string {
	text = boldPattern.ReplaceAllString(text, "$1")
	text = italicPattern.ReplaceAllString(text, "$1")
	text = underBoldPattern.ReplaceAllString(text, "$1")
	text = underItalicPattern.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}

// slugify matches the slug rules used for persisted games: spaces become
// hyphens and a few punctuation characters are dropped.
func slugify(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, ":", "")
	slug = strings.ReplaceAll(slug, "'", "")
	slug = strings.ReplaceAll(slug, ",", "")
	return slug
}

// GameGenerator turns book tags into synthesized game candidates by
// prompting a text model and parsing its response.
type GameGenerator struct {
	llm    TextGenerator
	rng    *rand.Rand
	logger *zap.Logger
}

// NewGameGenerator creates a new GameGenerator. rng feeds the fallback
// candidate constructor; pass a seeded source in tests for reproducible
// ratings and years.
func NewGameGenerator(llm TextGenerator, rng *rand.Rand, logger *zap.Logger) *GameGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GameGenerator{llm: llm, rng: rng, logger: logger}
}

// GenerateGames prompts the model for count real games matching the tags and
// parses the structured response. It fails rather than padding with invented
// data when the model returns fewer than count usable candidates.
func (g *GameGenerator) GenerateGames(ctx context.Context, tags []string, count int) ([]GameCandidate, error) {
	g.logger.Info("generating game candidates",
		zap.Strings("tags", tags),
		zap.Int("count", count),
	)

	tagsStr := strings.Join(tags[:min(3, len(tags))], ", ")
	prompt := fmt.Sprintf(`List %d real popular video games about %s.

For each game provide:
- Name
- Release year
- Rating (0-5)
- Genre
- Brief description (1 sentence)

Format:
1. [Name] ([Year]) - Rating: [X.X]/5 - Genre: [Genre] - [Description]`, count, tagsStr)

	response, err := g.llm.GenerateText(ctx, prompt, 800)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if strings.TrimSpace(response) == "" {
		return nil, ErrEmptyResponse
	}

	games := g.ParseResponse(response, tags)
	if len(games) == 0 {
		g.logger.Error("no games parsed from model response",
			zap.String("response", truncate(response, 200)),
		)
		return nil, ErrParseFailure
	}
	if len(games) < count {
		g.logger.Warn("model returned fewer games than requested",
			zap.Int("parsed", len(games)),
			zap.Int("requested", count),
		)
		return nil, fmt.Errorf("%w: got %d of %d games", ErrGenerationFailed, len(games), count)
	}

	games = games[:count]
	for i, game := range games {
		g.logger.Debug("parsed game candidate",
			zap.Int("index", i+1),
			zap.String("name", game.Name),
			zap.Int32("id", game.ID),
			zap.Float64("rating", game.Rating),
		)
	}
	return games, nil
}

// ParseResponse walks the model output line by line. Lines matching the
// structured format yield full candidates; lines that look like a bare game
// name yield fallback candidates; introductions and noise are skipped.
func (g *GameGenerator) ParseResponse(response string, tags []string) []GameCandidate {
	var games []GameCandidate

	for _, raw := range strings.Split(strings.TrimSpace(response), "\n") {
		line := strings.TrimSpace(raw)
		if len(line) < 10 {
			continue
		}

		if isIntroLine(line) {
			g.logger.Debug("skipping intro line", zap.String("line", truncate(line, 50)))
			continue
		}

		if m := structuredLinePattern.FindStringSubmatch(line); m != nil {
			rating, err := strconv.ParseFloat(m[3], 64)
			if err != nil {
				continue
			}
			games = append(games, g.candidateFromModelData(
				cleanMarkdown(m[1]),
				m[2],
				math.Min(rating, 5.0),
				cleanMarkdown(strings.TrimSpace(m[4])),
				cleanMarkdown(m[5]),
				tags,
			))
			continue
		}

		// Fallback: salvage a bare game name from an unstructured line.
		cleaned := strings.TrimLeft(line, "0123456789.-• ")
		cleaned = strings.TrimSpace(cleaned)
		if len(cleaned) < 3 || strings.Contains(cleaned, ":") {
			continue
		}
		nameMatch := namePrefixPattern.FindStringSubmatch(cleaned)
		if nameMatch == nil {
			continue
		}
		name := cleanMarkdown(strings.TrimSpace(nameMatch[1]))
		if len(name) <= 3 || hasIntroPrefix(name) {
			continue
		}
		games = append(games, g.candidateFromName(name, tags))
	}

	return games
}

func isIntroLine(line string) bool {
	lower := strings.ToLower(line)
	for _, pattern := range introLinePatterns {
		if pattern.MatchString(lower) {
			return true
		}
	}
	return false
}

func hasIntroPrefix(name string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range []string{"here", "below", "i recommend"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// candidateFromModelData builds a candidate from a fully parsed line.
// Metacritic and ratings count are scaled from the rating since the model
// does not supply them.
func (g *GameGenerator) candidateFromModelData(name, year string, rating float64, genre, description string, tags []string) GameCandidate {
	normalized := math.Min(math.Max(rating, 0.0), 5.0)

	var metacritic *int
	ratingsCount := 10000
	if normalized > 0 {
		mc := int(normalized * 20)
		metacritic = &mc
		ratingsCount = int(normalized * 50000)
	}

	return GameCandidate{
		ID:           DeriveGameID(name),
		Name:         name,
		Slug:         slugify(name),
		Description:  description,
		Released:     year + "-01-01",
		Rating:       round2(normalized),
		RatingsCount: ratingsCount,
		Metacritic:   metacritic,
		Genres:       genre,
		Tags:         strings.Join(tags[:min(5, len(tags))], ", "),
	}
}

// candidateFromName builds a candidate from a bare name when the structured
// parse missed. Rating and year are drawn from the injected random source.
func (g *GameGenerator) candidateFromName(name string, tags []string) GameCandidate {
	primary := selectPrimaryCategory(tags)
	genres := deriveGenres(tags, primary)

	rating := round2(3.8 + g.rng.Float64()*(4.9-3.8))
	year := 2015 + g.rng.Intn(10)

	description := fmt.Sprintf("%s is a critically acclaimed %s game that combines %s themes.",
		name,
		strings.Join(genres, ", "),
		strings.Join(tags[:min(3, len(tags))], ", "),
	)

	metacritic := int(rating * 20)
	return GameCandidate{
		ID:           DeriveGameID(name),
		Name:         name,
		Slug:         slugify(name),
		Description:  description,
		Released:     fmt.Sprintf("%d-01-01", year),
		Rating:       rating,
		RatingsCount: int(rating * 40000),
		Metacritic:   &metacritic,
		Genres:       strings.Join(genres, ", "),
		Tags:         strings.Join(tags[:min(5, len(tags))], ", "),
	}
}

// selectPrimaryCategory picks the highest-priority tag present, defaulting
// to adventure.
func selectPrimaryCategory(tags []string) string {
	for _, category := range primaryCategoryPriority {
		for _, tag := range tags {
			if tag == category {
				return category
			}
		}
	}
	return "adventure"
}

// deriveGenres maps up to 3 tags to game genres. The primary category
// contributes its first two genres, then each of the first three tags adds
// its leading genre. Order is deterministic (insertion order after dedupe).
func deriveGenres(tags []string, primary string) []string {
	var genres []string
	seen := make(map[string]struct{})
	add := func(genre string) {
		if _, ok := seen[genre]; ok {
			return
		}
		seen[genre] = struct{}{}
		genres = append(genres, genre)
	}

	if mapped, ok := tagGenreMapping[primary]; ok {
		for _, genre := range mapped[:min(2, len(mapped))] {
			add(genre)
		}
	}
	for _, tag := range tags[:min(3, len(tags))] {
		if mapped, ok := tagGenreMapping[tag]; ok {
			add(mapped[0])
		}
	}

	if len(genres) > 3 {
		genres = genres[:3]
	}
	return genres
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
