package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book2game/backend/config"
)

func hfConfig(url string) *config.Config {
	return &config.Config{
		HuggingFaceAPIKey:   "test-key",
		HuggingFaceChatURL:  url,
		TextGenerationModel: "meta-llama/Llama-3.1-8B-Instruct",
		AIRequestTimeout:    5 * time.Second,
		AIRetryMaxAttempts:  3,
		AIRetryBackoff:      2,
	}
}

func chatReply(content string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(body)
}

func newHFService(t *testing.T, handler http.HandlerFunc, cache *CacheService) *HuggingFaceService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	svc := NewHuggingFaceService(hfConfig(srv.URL), cache, nil)
	svc.retry.Sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return svc
}

func TestGenerateTextSuccess(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	svc := newHFService(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(chatReply("1. Skyrim (2011) - Rating: 4.7/5 - Genre: RPG - Dragons.")))
	}, nil)

	text, err := svc.GenerateText(context.Background(), "list games", 800)
	require.NoError(t, err)
	assert.Contains(t, text, "Skyrim")

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "meta-llama/Llama-3.1-8B-Instruct", gotReq.Model)
	assert.Equal(t, 800, gotReq.MaxTokens)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
	assert.Equal(t, "list games", gotReq.Messages[0].Content)
}

func TestGenerateTextRetriesServerErrors(t *testing.T) {
	var calls int
	svc := newHFService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(chatReply("recovered")))
	}, nil)

	text, err := svc.GenerateText(context.Background(), "p", 100)
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.Equal(t, 3, calls)
}

func TestGenerateTextDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	svc := newHFService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}, nil)

	_, err := svc.GenerateText(context.Background(), "p", 100)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Equal(t, 1, calls)
}

func TestGenerateTextExhaustsRetries(t *testing.T) {
	var calls int
	svc := newHFService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}, nil)

	_, err := svc.GenerateText(context.Background(), "p", 100)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Equal(t, 3, calls)
}

func TestGenerateTextCachesResponses(t *testing.T) {
	var calls int
	cache := NewCacheService(newMemoryRedis(), time.Hour, nil)
	svc := newHFService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(chatReply("cached content")))
	}, cache)

	first, err := svc.GenerateText(context.Background(), "same prompt", 100)
	require.NoError(t, err)
	second, err := svc.GenerateText(context.Background(), "same prompt", 100)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "second call must come from cache")
}

func TestGenerateTextEmptyChoices(t *testing.T) {
	svc := newHFService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}, nil)

	text, err := svc.GenerateText(context.Background(), "p", 100)
	require.NoError(t, err)
	assert.Empty(t, text)
}
