package service

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/book2game/backend/config"
	"go.uber.org/zap"
)

// Message represents a message in the chat
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the request body for the Hugging Face chat completions API.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`
}

// chatResponse is the subset of the chat completions response we read.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// httpStatusError marks a non-2xx upstream reply so the retry policy can
// tell it apart from a decoding problem.
type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

// HuggingFaceService calls the Llama text-generation model through the
// Hugging Face router's chat completions endpoint. Responses are cached per
// prompt because the same prompt keeps producing the same usable list.
type HuggingFaceService struct {
	apiKey string
	apiURL string
	model  string
	client *http.Client
	cache  *CacheService
	retry  *RetryPolicy
	logger *zap.Logger
}

// NewHuggingFaceService creates a new HuggingFaceService instance
func NewHuggingFaceService(cfg *config.Config, cache *CacheService, logger *zap.Logger) *HuggingFaceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	retry := NewRetryPolicy(cfg.AIRetryMaxAttempts, cfg.AIRetryBackoff, logger)
	retry.Retryable = func(err error) bool {
		// Timeouts, transport failures and upstream 5xx/429s are all worth
		// another attempt; anything else (bad request, auth) is not.
		var statusErr *httpStatusError
		if errors.As(err, &statusErr) {
			return statusErr.StatusCode >= 500 || statusErr.StatusCode == http.StatusTooManyRequests
		}
		return true
	}

	return &HuggingFaceService{
		apiKey: cfg.HuggingFaceAPIKey,
		apiURL: cfg.HuggingFaceChatURL,
		model:  cfg.TextGenerationModel,
		client: &http.Client{Timeout: cfg.AIRequestTimeout},
		cache:  cache,
		retry:  retry,
		logger: logger,
	}
}

func promptCacheKey(prompt string, maxTokens int) string {
	sum := sha1.Sum([]byte(prompt))
	return fmt.Sprintf("llama:generate:%x:%d", sum[:8], maxTokens)
}

// GenerateText sends prompt as a single user message and returns the model's
// text. The empty string with a nil error means the model replied with
// nothing usable; callers treat that as a generation failure.
func (s *HuggingFaceService) GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error) {
	cacheKey := promptCacheKey(prompt, maxTokens)
	if s.cache != nil {
		var cached string
		if s.cache.Get(ctx, cacheKey, &cached) {
			s.logger.Info("llama text generation cache HIT")
			return cached, nil
		}
	}
	s.logger.Info("llama text generation cache MISS, calling API")

	reqBody := chatRequest{
		Model:       s.model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: 0.7,
		TopP:        0.9,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var generated string
	err = s.retry.Do(ctx, "llama.generate", func(ctx context.Context) error {
		text, callErr := s.call(ctx, payload)
		if callErr != nil {
			return callErr
		}
		generated = text
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	if s.cache != nil && generated != "" {
		s.cache.Set(ctx, cacheKey, generated, 0)
	}
	return generated, nil
}

func (s *HuggingFaceService) call(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	var content string
	if len(result.Choices) > 0 {
		content = result.Choices[0].Message.Content
	}

	s.logger.Info("llama API call succeeded",
		zap.Int("response_chars", len(content)),
		zap.Duration("latency", time.Since(start)),
	)
	return content, nil
}
