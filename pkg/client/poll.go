package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"solvelab_backend/internal/util"
)

// PollHandle 一个在后台运行的轮询任务。调用方不被轮询阻塞，
// 可以随时 Stop 放弃结果，避免任务结束后的孤儿更新。
type PollHandle struct {
	done   chan struct{}
	cancel context.CancelFunc

	mu     sync.Mutex
	result *Result
	err    error
}

// Done 轮询结束（终态、出错、超时或被取消）时关闭
func (h *PollHandle) Done() <-chan struct{} {
	return h.done
}

// Stop 取消轮询。已结束的句柄上调用无副作用。
func (h *PollHandle) Stop() {
	h.cancel()
}

// Result 返回最终结果。轮询未结束时返回到目前为止的最新快照。
func (h *PollHandle) Result() (*Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result, h.err
}

// Wait 阻塞到轮询结束或 ctx 取消
func (h *PollHandle) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-h.done:
		return h.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *PollHandle) update(r *Result) {
	h.mu.Lock()
	h.result = r
	h.mu.Unlock()
}

func (h *PollHandle) finish(r *Result, err error) {
	h.mu.Lock()
	if r != nil {
		h.result = r
	}
	h.err = err
	h.mu.Unlock()
	close(h.done)
}

// statusRecord 轮询接口返回的提交记录
type statusRecord struct {
	ID           string   `json:"id"`
	SessionID    string   `json:"sessionId"`
	Status       string   `json:"status"`
	Solution     string   `json:"solution"`
	Explanation  string   `json:"explanation"`
	Subject      string   `json:"subject"`
	Topic        string   `json:"topic"`
	Difficulty   string   `json:"difficulty"`
	Tags         []string `json:"tags"`
	ErrorMessage string   `json:"errorMessage"`
	AIResponse   struct {
		SuggestedTags []string `json:"suggested_tags"`
	} `json:"aiResponse"`
}

type statusEnvelope struct {
	Success bool          `json:"success"`
	Problem *statusRecord `json:"problem"`
	Error   string        `json:"error"`
	Details string        `json:"details"`
}

// startPolling 启动后台轮询：先等 pollInitialDelay，随后每次查询间隔
// pollInterval，严格串行（下一次只在上一次完成后调度），最多
// pollMaxAttempts 次，到次数仍非终态按超时结束，绝不发起多余的一次查询。
func (c *Client) startPolling(auth AuthContext, problemID string, initial *Result) *PollHandle {
	ctx, cancel := context.WithCancel(context.Background())
	handle := &PollHandle{
		done:   make(chan struct{}),
		cancel: cancel,
		result: initial,
	}

	go c.pollLoop(ctx, handle, auth, problemID)
	return handle
}

func (c *Client) pollLoop(ctx context.Context, handle *PollHandle, auth AuthContext, problemID string) {
	if !sleepCtx(ctx, c.pollInitialDelay) {
		handle.finish(nil, ctx.Err())
		return
	}

	for attempt := 1; attempt <= c.pollMaxAttempts; attempt++ {
		// 防御性重校验，标识符在循环中不会改变
		if !util.IsValidUUID(problemID) {
			handle.finish(nil, newError(ErrFormat, "problem id is malformed", problemID))
			return
		}

		result, err := c.fetchStatus(ctx, auth, problemID)
		if err != nil {
			// 查询失败即终止，不重试瞬时错误
			handle.finish(nil, err)
			return
		}

		handle.update(result)

		if result.Terminal() {
			if result.Status == "error" {
				handle.finish(result, newError(ErrProcessingError, "problem processing failed", result.ErrorMessage))
				return
			}
			handle.finish(result, nil)
			return
		}

		if attempt == c.pollMaxAttempts {
			handle.finish(result, newError(ErrTimeout, "timed out waiting for solution", ""))
			return
		}

		if !sleepCtx(ctx, c.pollInterval) {
			handle.finish(nil, ctx.Err())
			return
		}
	}
}

func (c *Client) fetchStatus(ctx context.Context, auth AuthContext, problemID string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/problems/"+problemID, nil)
	if err != nil {
		return nil, newError(ErrUnavailable, "failed to build status request", err.Error())
	}
	// 带凭证时服务端按行级归属过滤，只能看到自己的记录
	if auth.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+auth.AccessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, newError(ErrUnavailable, "status check failed", err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(ErrUnavailable, "status check failed", err.Error())
	}

	var env statusEnvelope
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, mapStatusError(resp.StatusCode, &env)
	}
	if !env.Success || env.Problem == nil {
		return nil, newError(ErrNotFound, "problem not found", env.Details)
	}

	return normalizeRecord(env.Problem), nil
}

// mapStatusError 把轮询接口的机器错误码映射为分类错误
func mapStatusError(status int, env *statusEnvelope) *Error {
	switch env.Error {
	case "invalid_id":
		return newError(ErrFormat, "problem id is malformed", env.Details)
	case "not_found":
		return newError(ErrNotFound, "problem not found or access denied", env.Details)
	case "token_expired":
		return newError(ErrTokenExpired, "session expired, please sign in again", env.Details)
	}

	switch status {
	case http.StatusUnauthorized:
		return newError(ErrAuthentication, "not signed in", env.Details)
	case http.StatusForbidden:
		return newError(ErrForbidden, "access denied", env.Details)
	case http.StatusNotFound:
		return newError(ErrNotFound, "problem not found", env.Details)
	default:
		return newError(ErrUnavailable, fmt.Sprintf("status check failed (HTTP %d)", status), env.Details)
	}
}

// normalizeRecord 把原始记录归一化：explanation 缺失回退到 solution，
// subject 优先取 topic，tags 优先取 aiResponse.suggested_tags
func normalizeRecord(rec *statusRecord) *Result {
	explanation := rec.Explanation
	if explanation == "" {
		explanation = rec.Solution
	}

	subject := rec.Topic
	if subject == "" {
		subject = rec.Subject
	}

	tags := rec.AIResponse.SuggestedTags
	if len(tags) == 0 {
		tags = rec.Tags
	}

	return &Result{
		ProblemID:    rec.ID,
		SessionID:    rec.SessionID,
		Status:       rec.Status,
		Solution:     rec.Solution,
		Explanation:  explanation,
		Subject:      subject,
		Difficulty:   rec.Difficulty,
		Tags:         tags,
		ErrorMessage: rec.ErrorMessage,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
