package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/haven-intake/internal/adapters/llm"
	"github.com/PabloGalante/haven-intake/internal/config"
	"github.com/PabloGalante/haven-intake/internal/domain"
)

func TestMockLLM(t *testing.T) {
	ctx := context.Background()
	m := llm.NewMockLLM()

	reply, err := m.Complete(ctx, "User: hi", domain.GenerationParams{})
	require.NoError(t, err)
	assert.NotEmpty(t, reply)

	summary, err := m.Complete(ctx, "summarize", domain.GenerationParams{JSON: true})
	require.NoError(t, err)
	assert.Empty(t, summary)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = m.Complete(cancelled, "User: hi", domain.GenerationParams{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateLimited(t *testing.T) {
	calls := 0
	inner := llm.CompleterFunc(func(ctx context.Context, prompt string, params domain.GenerationParams) (string, error) {
		calls++
		return "ok", nil
	})
	// one token, effectively never refilled during the test
	limited := llm.NewRateLimited(inner, 0.0001, 1)

	out, err := limited.Complete(context.Background(), "p", domain.GenerationParams{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	_, err = limited.Complete(context.Background(), "p", domain.GenerationParams{})
	assert.ErrorIs(t, err, llm.ErrRateLimited)
	assert.Equal(t, 1, calls)
}

func TestOpenAIClientAgainstCompatibleServer(t *testing.T) {
	var got struct {
		Model          string `json:"model"`
		ResponseFormat *struct {
			Type string `json:"type"`
		} `json:"response_format"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"title\":\"t\"}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	client, err := llm.NewOpenAIClient(llm.OpenAIConfig{BaseURL: srv.URL + "/v1", Model: "local-model"})
	require.NoError(t, err)

	temp := float32(0.2)
	out, err := client.Complete(context.Background(), "summarize this", domain.GenerationParams{Temperature: &temp, JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"title":"t"}`, out)

	assert.Equal(t, "local-model", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "summarize this", got.Messages[0].Content)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestOpenAIClientRequiresKeyOrBaseURL(t *testing.T) {
	_, err := llm.NewOpenAIClient(llm.OpenAIConfig{})
	assert.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	cfg.LLMProvider = config.ProviderNone
	c, err := llm.NewFromConfig(ctx, cfg)
	require.NoError(t, err)
	assert.Nil(t, c)

	cfg.LLMProvider = config.ProviderMock
	c, err = llm.NewFromConfig(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &llm.MockLLM{}, c)

	cfg.RateLimit = 5
	c, err = llm.NewFromConfig(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &llm.RateLimited{}, c)

	cfg.LLMProvider = "telepathy"
	_, err = llm.NewFromConfig(ctx, cfg)
	assert.Error(t, err)
}
