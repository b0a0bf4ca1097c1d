package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "123e4567-e89b-42d3-a456-426614174000"

func newTestClient(baseURL string) *Client {
	return New(Config{
		BaseURL:          baseURL,
		PollInitialDelay: 10 * time.Millisecond,
		PollInterval:     10 * time.Millisecond,
		PollMaxAttempts:  5,
	})
}

func completedEnvelope(problemID string) submitEnvelope {
	return submitEnvelope{
		Success:    true,
		ProblemID:  problemID,
		SessionID:  "223e4567-e89b-42d3-a456-426614174000",
		Status:     "completed",
		Solution:   "4",
		Subject:    "math",
		Difficulty: "easy",
		Tags:       []string{"arithmetic"},
	}
}

func TestSubmitValidation(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	auth := AuthContext{Guest: true}

	tests := []struct {
		name string
		data SubmitData
	}{
		{"empty title", SubmitData{Title: "", TextContent: "2+2?"}},
		{"whitespace title", SubmitData{Title: "   \t ", TextContent: "2+2?"}},
		{"no content", SubmitData{Title: "Q1"}},
		{"whitespace content", SubmitData{Title: "Q1", TextContent: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := c.Submit(context.Background(), auth, tt.data)
			require.Error(t, err)
			assert.Equal(t, ErrValidation, CategoryOf(err))
		})
	}

	// 校验失败不发网络请求
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestSubmitIdentityResolution(t *testing.T) {
	type captured struct {
		authHeader string
		body       map[string]interface{}
	}

	var last captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		last = captured{authHeader: r.Header.Get("Authorization")}
		_ = json.Unmarshal(raw, &last.body)
		_ = json.NewEncoder(w).Encode(completedEnvelope("323e4567-e89b-42d3-a456-426614174000"))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	data := SubmitData{Title: "Q1", InputType: "text", TextContent: "2+2?"}

	t.Run("session token sets bearer and user_id", func(t *testing.T) {
		_, _, err := c.Submit(context.Background(), AuthContext{AccessToken: "tok-abc", UserID: testUserID}, data)
		require.NoError(t, err)
		assert.Equal(t, "Bearer tok-abc", last.authHeader)
		assert.Equal(t, testUserID, last.body["user_id"])
	})

	t.Run("authenticated flag sends user_id without bearer", func(t *testing.T) {
		_, _, err := c.Submit(context.Background(), AuthContext{Authenticated: true, UserID: testUserID}, data)
		require.NoError(t, err)
		assert.Empty(t, last.authHeader)
		assert.Equal(t, testUserID, last.body["user_id"])
	})

	t.Run("guest omits user_id entirely", func(t *testing.T) {
		_, _, err := c.Submit(context.Background(), AuthContext{Guest: true}, data)
		require.NoError(t, err)
		_, present := last.body["user_id"]
		assert.False(t, present)
	})

	t.Run("token with invalid identity fails before network", func(t *testing.T) {
		_, _, err := c.Submit(context.Background(), AuthContext{AccessToken: "tok", UserID: "not-a-uuid"}, data)
		require.Error(t, err)
		assert.Equal(t, ErrAuthentication, CategoryOf(err))
	})

	t.Run("no identity at all fails", func(t *testing.T) {
		_, _, err := c.Submit(context.Background(), AuthContext{}, data)
		require.Error(t, err)
		assert.Equal(t, ErrAuthentication, CategoryOf(err))
	})
}

func TestSubmitSingleCallWithTrimmedTitle(t *testing.T) {
	var calls int32
	var gotTitle string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		var body map[string]interface{}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		gotTitle, _ = body["title"].(string)
		_ = json.NewEncoder(w).Encode(completedEnvelope("323e4567-e89b-42d3-a456-426614174000"))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, _, err := c.Submit(context.Background(), AuthContext{Guest: true}, SubmitData{
		Title:       "  Q1  ",
		InputType:   "text",
		TextContent: "2+2?",
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "Q1", gotTitle)
}

func TestSubmitCompletedSkipsPolling(t *testing.T) {
	var statusCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			atomic.AddInt32(&statusCalls, 1)
			return
		}
		_ = json.NewEncoder(w).Encode(completedEnvelope("323e4567-e89b-42d3-a456-426614174000"))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	result, handle, err := c.Submit(context.Background(), AuthContext{Guest: true}, SubmitData{
		Title:       "Q1",
		InputType:   "text",
		TextContent: "2+2?",
	})
	require.NoError(t, err)
	assert.Nil(t, handle)
	assert.Equal(t, "completed", result.Status)
	assert.Equal(t, "4", result.Solution)

	// 留出足够时间确认没有轮询请求发出
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&statusCalls))
}

func TestSubmitProcessingStartsPolling(t *testing.T) {
	problemID := "323e4567-e89b-42d3-a456-426614174000"
	var statusCalls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			atomic.AddInt32(&statusCalls, 1)
			_ = json.NewEncoder(w).Encode(statusEnvelope{
				Success: true,
				Problem: &statusRecord{ID: problemID, Status: "completed", Solution: "4"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(submitEnvelope{
			Success:   true,
			ProblemID: problemID,
			Status:    "processing",
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, handle, err := c.Submit(context.Background(), AuthContext{Guest: true}, SubmitData{
		Title:       "Q1",
		InputType:   "text",
		TextContent: "2+2?",
	})
	require.NoError(t, err)
	require.NotNil(t, handle)

	result, err := handle.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "completed", result.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&statusCalls))
}

func TestSubmitErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     interface{}
		category ErrorCategory
	}{
		{"unauthorized", http.StatusUnauthorized, submitEnvelope{Error: "unauthorized"}, ErrAuthentication},
		{"forbidden", http.StatusForbidden, submitEnvelope{Error: "forbidden"}, ErrForbidden},
		{"server error", http.StatusInternalServerError, submitEnvelope{Error: "boom"}, ErrUnavailable},
		{"ai not configured", http.StatusServiceUnavailable, submitEnvelope{Error: "ai service not configured"}, ErrUnavailable},
		{"expired jwt marker", http.StatusUnauthorized, submitEnvelope{Error: "invalid JWT signature"}, ErrTokenExpired},
		{"expired token text", http.StatusUnauthorized, submitEnvelope{Error: "token has expired"}, ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(tt.body)
			}))
			defer server.Close()

			c := newTestClient(server.URL)
			_, _, err := c.Submit(context.Background(), AuthContext{Guest: true}, SubmitData{
				Title:       "Q1",
				InputType:   "text",
				TextContent: "2+2?",
			})
			require.Error(t, err)
			assert.Equal(t, tt.category, CategoryOf(err))
		})
	}
}

func TestSubmitMalformedProblemID(t *testing.T) {
	tests := []struct {
		name      string
		problemID string
	}{
		{"missing", ""},
		{"not a uuid", "abc-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(submitEnvelope{Success: true, ProblemID: tt.problemID, Status: "processing"})
			}))
			defer server.Close()

			c := newTestClient(server.URL)
			_, _, err := c.Submit(context.Background(), AuthContext{Guest: true}, SubmitData{
				Title:       "Q1",
				InputType:   "text",
				TextContent: "2+2?",
			})
			require.Error(t, err)
			assert.Equal(t, ErrFormat, CategoryOf(err))
		})
	}
}

func TestSubmitServerRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(submitEnvelope{Success: false, Error: "validation failed", Details: "title is required"})
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, _, err := c.Submit(context.Background(), AuthContext{Guest: true}, SubmitData{
		Title:       "Q1",
		InputType:   "text",
		TextContent: "2+2?",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title is required")
}
