package generator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "gemini-2.0-flash:generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"[{\"model\":\"Renault Clio\",\"why\":\"ekonomik\",\"segment\":\"B-Hatchback\"}]"}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	g, err := NewGeminiClient(context.Background(), GeminiConfig{
		APIKey:      "test-key",
		Temperature: 0.2,
		BaseURL:     srv.URL + "/",
	})
	require.NoError(t, err)
	assert.Equal(t, "gemini", g.Name())

	text, err := g.Generate(context.Background(), "öner")
	assert.NoError(t, err)
	assert.Contains(t, text, "Renault Clio")
}

func TestNew_ProviderSelection(t *testing.T) {
	ctx := context.Background()

	t.Run("openai requires key", func(t *testing.T) {
		_, err := New(ctx, configFor("openai", "", ""))
		assert.Error(t, err)
	})

	t.Run("openai", func(t *testing.T) {
		g, err := New(ctx, configFor("openai", "sk-test", ""))
		require.NoError(t, err)
		assert.Equal(t, "openai", g.Name())
	})

	t.Run("gemini requires key", func(t *testing.T) {
		_, err := New(ctx, configFor("gemini", "", ""))
		assert.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := New(ctx, configFor("llama", "", ""))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "llama")
	})
}
