package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"solvelab_backend/internal/config"
	"solvelab_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSolution(t *testing.T) {
	t.Run("structured json", func(t *testing.T) {
		raw := `{"solution":"4","explanation":"2+2=4","subject":"math","topic":"addition","difficulty":"Easy","tags":["arithmetic"]}`
		sol := parseSolution(raw)
		assert.Equal(t, "4", sol.Solution)
		assert.Equal(t, "2+2=4", sol.Explanation)
		assert.Equal(t, "math", sol.Subject)
		assert.Equal(t, "addition", sol.Topic)
		assert.Equal(t, "easy", sol.Difficulty)
		assert.Equal(t, []string{"arithmetic"}, sol.Tags)
		assert.False(t, sol.RawFallback)
	})

	t.Run("json inside markdown fence", func(t *testing.T) {
		raw := "```json\n{\"solution\":\"4\",\"subject\":\"math\"}\n```"
		sol := parseSolution(raw)
		assert.Equal(t, "4", sol.Solution)
		assert.Equal(t, "math", sol.Subject)
		assert.False(t, sol.RawFallback)
	})

	t.Run("bare fence without language", func(t *testing.T) {
		raw := "```\n{\"solution\":\"42\"}\n```"
		sol := parseSolution(raw)
		assert.Equal(t, "42", sol.Solution)
		assert.False(t, sol.RawFallback)
	})

	t.Run("free text falls back to raw solution", func(t *testing.T) {
		raw := "答案是 4，因为 2+2=4。"
		sol := parseSolution(raw)
		assert.Equal(t, raw, sol.Solution)
		assert.True(t, sol.RawFallback)
		assert.Empty(t, sol.Tags)
	})

	t.Run("json missing solution field falls back", func(t *testing.T) {
		raw := `{"subject":"math"}`
		sol := parseSolution(raw)
		assert.True(t, sol.RawFallback)
		assert.Equal(t, raw, sol.Solution)
	})

	t.Run("unknown difficulty dropped", func(t *testing.T) {
		raw := `{"solution":"4","difficulty":"impossible"}`
		sol := parseSolution(raw)
		assert.Empty(t, sol.Difficulty)
	})
}

func TestNormalizeDifficulty(t *testing.T) {
	assert.Equal(t, "easy", normalizeDifficulty(" Easy "))
	assert.Equal(t, "medium", normalizeDifficulty("MEDIUM"))
	assert.Equal(t, "hard", normalizeDifficulty("hard"))
	assert.Empty(t, normalizeDifficulty("expert"))
	assert.Empty(t, normalizeDifficulty(""))
}

func TestAIServiceConfigured(t *testing.T) {
	assert.False(t, NewAIService(config.AIConfig{}).Configured())
	assert.True(t, NewAIService(config.AIConfig{APIKey: "sk-test"}).Configured())
}

func TestAIServiceSolve(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		var gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			require.Equal(t, "/chat/completions", r.URL.Path)

			content := `{"solution":"4","explanation":"2+2=4","subject":"math","difficulty":"easy","tags":["arithmetic"]}`
			resp := ChatCompletionResponse{}
			resp.Choices = append(resp.Choices, struct {
				Message AIChatMessage `json:"message"`
			}{Message: AIChatMessage{Role: "assistant", Content: content}})
			_ = json.NewEncoder(w).Encode(resp)
		}))
		defer server.Close()

		svc := NewAIService(config.AIConfig{
			BaseURL:        server.URL,
			APIKey:         "sk-test",
			Model:          "test-model",
			RequestTimeout: 5 * time.Second,
		})

		sol, err := svc.Solve(context.Background(), model.InputText, "Q1", "2+2?")
		require.NoError(t, err)
		assert.Equal(t, "Bearer sk-test", gotAuth)
		assert.Equal(t, "4", sol.Solution)
		assert.Equal(t, "math", sol.Subject)
		assert.Equal(t, "test-model", sol.Model)
	})

	t.Run("not configured", func(t *testing.T) {
		svc := NewAIService(config.AIConfig{RequestTimeout: time.Second})
		_, err := svc.Solve(context.Background(), model.InputText, "Q1", "2+2?")
		require.Error(t, err)
	})

	t.Run("upstream http error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		svc := NewAIService(config.AIConfig{BaseURL: server.URL, APIKey: "sk-test", RequestTimeout: time.Second})
		_, err := svc.Solve(context.Background(), model.InputText, "Q1", "2+2?")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("no choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(ChatCompletionResponse{})
		}))
		defer server.Close()

		svc := NewAIService(config.AIConfig{BaseURL: server.URL, APIKey: "sk-test", RequestTimeout: time.Second})
		_, err := svc.Solve(context.Background(), model.InputText, "Q1", "2+2?")
		require.Error(t, err)
	})
}
