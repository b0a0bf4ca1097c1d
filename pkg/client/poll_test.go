package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProblemID = "323e4567-e89b-42d3-a456-426614174000"

func pollOnly(c *Client, auth AuthContext) *PollHandle {
	return c.startPolling(auth, testProblemID, &Result{ProblemID: testProblemID, Status: "processing"})
}

func TestPollStopsOnErrorRow(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_ = json.NewEncoder(w).Encode(statusEnvelope{
			Success: true,
			Problem: &statusRecord{
				ID:           testProblemID,
				Status:       "error",
				ErrorMessage: "AI request failed",
			},
		})
	}))
	defer server.Close()

	handle := pollOnly(newTestClient(server.URL), AuthContext{Guest: true})
	result, err := handle.Wait(context.Background())

	require.Error(t, err)
	assert.Equal(t, ErrProcessingError, CategoryOf(err))
	assert.Contains(t, err.Error(), "AI request failed")
	assert.Equal(t, "error", result.Status)
	// 到达终态后不再发查询
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPollTimeoutNeverExceedsMaxAttempts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_ = json.NewEncoder(w).Encode(statusEnvelope{
			Success: true,
			Problem: &statusRecord{ID: testProblemID, Status: "processing"},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL) // PollMaxAttempts = 5
	handle := pollOnly(c, AuthContext{Guest: true})
	_, err := handle.Wait(context.Background())

	require.Error(t, err)
	assert.Equal(t, ErrTimeout, CategoryOf(err))

	// 超时后等一段时间，确认不会多发第 6 次查询
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}

func TestPollStop(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_ = json.NewEncoder(w).Encode(statusEnvelope{
			Success: true,
			Problem: &statusRecord{ID: testProblemID, Status: "processing"},
		})
	}))
	defer server.Close()

	c := New(Config{
		BaseURL:          server.URL,
		PollInitialDelay: 10 * time.Millisecond,
		PollInterval:     time.Hour, // 取消应该在下一次调度前生效
		PollMaxAttempts:  60,
	})
	handle := pollOnly(c, AuthContext{Guest: true})

	// 等第一次查询完成后取消
	time.Sleep(100 * time.Millisecond)
	handle.Stop()

	select {
	case <-handle.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poll handle did not finish after Stop")
	}

	_, err := handle.Result()
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestPollQueryFailureTerminates(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     statusEnvelope
		category ErrorCategory
	}{
		{"machine code invalid_id", http.StatusBadRequest, statusEnvelope{Error: "invalid_id"}, ErrFormat},
		{"machine code not_found", http.StatusNotFound, statusEnvelope{Error: "not_found"}, ErrNotFound},
		{"machine code token_expired", http.StatusUnauthorized, statusEnvelope{Error: "token_expired"}, ErrTokenExpired},
		{"bare 401", http.StatusUnauthorized, statusEnvelope{}, ErrAuthentication},
		{"bare 403", http.StatusForbidden, statusEnvelope{}, ErrForbidden},
		{"server error", http.StatusInternalServerError, statusEnvelope{Error: "internal"}, ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(tt.body)
			}))
			defer server.Close()

			handle := pollOnly(newTestClient(server.URL), AuthContext{Guest: true})
			_, err := handle.Wait(context.Background())

			require.Error(t, err)
			assert.Equal(t, tt.category, CategoryOf(err))
			// 查询失败即终止，不重试
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		})
	}
}

func TestPollSendsBearerWhenTokenPresent(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(statusEnvelope{
			Success: true,
			Problem: &statusRecord{ID: testProblemID, Status: "completed", Solution: "4"},
		})
	}))
	defer server.Close()

	handle := pollOnly(newTestClient(server.URL), AuthContext{AccessToken: "tok-abc", UserID: testUserID})
	_, err := handle.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-abc", gotAuth)
}

func TestNormalizeRecord(t *testing.T) {
	tests := []struct {
		name string
		rec  statusRecord
		want Result
	}{
		{
			name: "explanation falls back to solution",
			rec:  statusRecord{ID: testProblemID, Status: "completed", Solution: "4"},
			want: Result{ProblemID: testProblemID, Status: "completed", Solution: "4", Explanation: "4"},
		},
		{
			name: "explicit explanation preferred",
			rec:  statusRecord{ID: testProblemID, Status: "completed", Solution: "4", Explanation: "2+2 adds to 4"},
			want: Result{ProblemID: testProblemID, Status: "completed", Solution: "4", Explanation: "2+2 adds to 4"},
		},
		{
			name: "topic preferred over subject",
			rec:  statusRecord{ID: testProblemID, Status: "completed", Solution: "4", Topic: "addition", Subject: "math"},
			want: Result{ProblemID: testProblemID, Status: "completed", Solution: "4", Explanation: "4", Subject: "addition"},
		},
		{
			name: "subject fallback when no topic",
			rec:  statusRecord{ID: testProblemID, Status: "completed", Solution: "4", Subject: "math"},
			want: Result{ProblemID: testProblemID, Status: "completed", Solution: "4", Explanation: "4", Subject: "math"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeRecord(&tt.rec)
			assert.Equal(t, &tt.want, got)
		})
	}

	t.Run("suggested tags preferred over top-level tags", func(t *testing.T) {
		rec := statusRecord{ID: testProblemID, Status: "completed", Solution: "4", Tags: []string{"a"}}
		rec.AIResponse.SuggestedTags = []string{"b", "c"}
		got := normalizeRecord(&rec)
		assert.Equal(t, []string{"b", "c"}, got.Tags)
	})

	t.Run("top-level tags fallback", func(t *testing.T) {
		rec := statusRecord{ID: testProblemID, Status: "completed", Solution: "4", Tags: []string{"a"}}
		got := normalizeRecord(&rec)
		assert.Equal(t, []string{"a"}, got.Tags)
	})
}

func TestPollMalformedIDFailsWithoutQuery(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	handle := c.startPolling(AuthContext{Guest: true}, "not-a-uuid", nil)
	_, err := handle.Wait(context.Background())

	require.Error(t, err)
	assert.Equal(t, ErrFormat, CategoryOf(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}
