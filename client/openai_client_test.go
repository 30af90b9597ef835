package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lekhapal/shg-digitizer/config"
	"github.com/lekhapal/shg-digitizer/dto"
	"github.com/lekhapal/shg-digitizer/service"
	"github.com/openai/openai-go/v2/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAIClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewOpenAIClient("test-key", "gpt-4o-mini",
		option.WithBaseURL(srv.URL+"/"),
		option.WithMaxRetries(0),
	)
	require.NoError(t, err)
	return c
}

func TestOpenAIClientExtractTablesSendsImagePart(t *testing.T) {
	var body map[string]any
	c := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "{\"tables\":[]}"}}]
		}`))
	})

	out, err := c.ExtractTables(context.Background(), service.ExtractionRequest{
		Prompt:   "extract",
		Data:     []byte{0x89, 0x50, 0x4e, 0x47},
		MIMEType: "image/png",
		Filename: "page.png",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"tables":[]}`, out)

	assert.Equal(t, "gpt-4o-mini", body["model"])
	messages := body["messages"].([]any)
	content := messages[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)
	assert.Equal(t, "text", content[0].(map[string]any)["type"])
	assert.Equal(t, "image_url", content[1].(map[string]any)["type"])
}

func TestOpenAIClientRateLimit(t *testing.T) {
	c := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	})

	_, err := c.ExtractTables(context.Background(), service.ExtractionRequest{
		Prompt:   "extract",
		Data:     []byte("%PDF-1.4"),
		MIMEType: "application/pdf",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, dto.ErrUpstreamAPIFailure))
	assert.True(t, errors.Is(err, dto.ErrRateLimited))
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAIClient("", "gpt-4o-mini")
	assert.True(t, errors.Is(err, dto.ErrExtractorNotConfigured))
}

func TestUpstreamErrorWrapsCause(t *testing.T) {
	cause := errors.New("boom")

	err := upstreamError("gemini", http.StatusBadGateway, cause)

	assert.True(t, errors.Is(err, dto.ErrUpstreamAPIFailure))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, dto.ErrRateLimited))
	assert.Contains(t, err.Error(), "HTTP 502")

	timeout := upstreamError("gemini", 0, context.DeadlineExceeded)
	assert.True(t, errors.Is(timeout, context.DeadlineExceeded))
}

func TestNewProvider(t *testing.T) {
	t.Run("openai", func(t *testing.T) {
		p, err := NewProvider(context.Background(), &config.Config{
			ExtractionProvider: "openai",
			OpenAIAPIKey:       "test-key",
			OpenAIModel:        "gpt-4o-mini",
		})
		require.NoError(t, err)
		assert.IsType(t, &OpenAIClient{}, p)
		assert.NoError(t, p.Close())
	})

	t.Run("missing key", func(t *testing.T) {
		p, err := NewProvider(context.Background(), &config.Config{ExtractionProvider: "gemini"})
		assert.ErrorIs(t, err, dto.ErrExtractorNotConfigured)
		assert.Nil(t, p)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewProvider(context.Background(), &config.Config{ExtractionProvider: "bard"})
		assert.ErrorContains(t, err, "unknown extraction provider")
	})
}
