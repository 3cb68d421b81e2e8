package service

import "errors"

// Failure kinds surfaced by the recommendation pipeline. Handlers map these
// to HTTP statuses; everything else bubbles up as a 500.
var (
	// ErrUpstreamUnavailable means an external provider (Google Books or the
	// LLM) kept failing after all retries. Retryable by the caller later.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")

	// ErrBookNotFound means the book is absent locally or unknown to the
	// external provider. Terminal.
	ErrBookNotFound = errors.New("book not found")

	// ErrRecommendationNotFound means the requested recommendation row does
	// not exist.
	ErrRecommendationNotFound = errors.New("recommendation not found")

	// ErrEmptyResponse means the LLM answered with no usable text.
	ErrEmptyResponse = errors.New("empty upstream response")

	// ErrParseFailure means the LLM answered but no game records could be
	// extracted from the text.
	ErrParseFailure = errors.New("failed to parse games from model response")

	// ErrGenerationFailed means the generator produced fewer candidates than
	// the request demanded.
	ErrGenerationFailed = errors.New("game generation failed")

	// ErrNoSuitableGames means every generated candidate scored below the
	// recommendation threshold.
	ErrNoSuitableGames = errors.New("could not find suitable games for this book; try a book with a more defined genre (fantasy, sci-fi, adventure, etc.)")

	// ErrInvalidCredentials is returned on bad email/password pairs.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserExists is returned when registering an email or username that
	// is already taken.
	ErrUserExists = errors.New("user already exists")
)
