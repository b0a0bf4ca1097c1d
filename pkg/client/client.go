// Package client 是解题提交接口的 Go SDK：负责本地校验、身份解析、
// 发起提交请求，并在未到终态时启动可取消的轮询。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"solvelab_backend/internal/util"
)

// 轮询默认参数：首次查询前等 1 秒，之后每 2 秒一次，最多 60 次（约 120 秒封顶）
const (
	DefaultPollInterval     = 2000 * time.Millisecond
	DefaultPollInitialDelay = 1000 * time.Millisecond
	DefaultPollMaxAttempts  = 60
)

type Config struct {
	BaseURL          string
	HTTPClient       *http.Client
	PollInterval     time.Duration
	PollInitialDelay time.Duration
	PollMaxAttempts  int
}

type Client struct {
	baseURL          string
	http             *http.Client
	pollInterval     time.Duration
	pollInitialDelay time.Duration
	pollMaxAttempts  int
}

func New(cfg Config) *Client {
	c := &Client{
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		http:             cfg.HTTPClient,
		pollInterval:     cfg.PollInterval,
		pollInitialDelay: cfg.PollInitialDelay,
		pollMaxAttempts:  cfg.PollMaxAttempts,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	if c.pollInitialDelay <= 0 {
		c.pollInitialDelay = DefaultPollInitialDelay
	}
	if c.pollMaxAttempts <= 0 {
		c.pollMaxAttempts = DefaultPollMaxAttempts
	}
	return c
}

// AuthContext 显式传入的身份与凭证，代替环境里的全局登录态。
// 身份解析顺序：AccessToken > Authenticated+UserID > Guest。
type AuthContext struct {
	AccessToken   string // 有值则作为 Bearer 凭证，UserID 必须是合法 UUID
	UserID        string
	Authenticated bool // 无凭证但有已验证身份时置真
	Guest         bool // 游客提交：请求体省略 user_id，由服务端铸造身份
}

// SubmitData 一次提交的输入。Title 必填，三个内容字段至少一个非空。
type SubmitData struct {
	Title       string
	Description string
	InputType   string // text | image | voice
	TextContent string
	ImageData   string
	VoiceURL    string
	SessionID   string // 可选，复用已有学习会话
}

// Result 归一化后的提交结果
type Result struct {
	ProblemID    string
	SessionID    string
	Status       string
	Solution     string
	Explanation  string
	Subject      string
	Difficulty   string
	Tags         []string
	ErrorMessage string
}

// Terminal 是否已到终态
func (r *Result) Terminal() bool {
	return r.Status == "completed" || r.Status == "error"
}

type submitBody struct {
	InputType   string `json:"input_type"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	TextContent string `json:"text_content,omitempty"`
	ImageData   string `json:"image_data,omitempty"`
	VoiceURL    string `json:"voice_url,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
}

type submitEnvelope struct {
	Success    bool     `json:"success"`
	ProblemID  string   `json:"problemId"`
	SessionID  string   `json:"sessionId"`
	Status     string   `json:"status"`
	Solution   string   `json:"solution"`
	Subject    string   `json:"subject"`
	Difficulty string   `json:"difficulty"`
	Tags       []string `json:"tags"`
	Error      string   `json:"error"`
	Details    string   `json:"details"`
}

// Submit 发起一次提交。服务端已完成解题时直接返回终态结果，handle 为 nil；
// 否则返回初始结果和一个已启动的轮询句柄，调用方可等待或取消。
// 每次调用只发一次提交请求，并发调用互不去重。
func (c *Client) Submit(ctx context.Context, auth AuthContext, data SubmitData) (*Result, *PollHandle, error) {
	title := strings.TrimSpace(data.Title)
	if title == "" {
		return nil, nil, newError(ErrValidation, "title is required", "")
	}
	if strings.TrimSpace(data.TextContent) == "" &&
		strings.TrimSpace(data.ImageData) == "" &&
		strings.TrimSpace(data.VoiceURL) == "" {
		return nil, nil, newError(ErrValidation, "problem content is required", "")
	}

	body := submitBody{
		InputType:   data.InputType,
		Title:       title,
		Description: data.Description,
		TextContent: data.TextContent,
		ImageData:   data.ImageData,
		VoiceURL:    data.VoiceURL,
		SessionID:   data.SessionID,
	}

	// 身份解析
	bearer := ""
	switch {
	case auth.AccessToken != "":
		if !util.IsValidUUID(auth.UserID) {
			return nil, nil, newError(ErrAuthentication, "session identity is not a valid UUID", "")
		}
		bearer = auth.AccessToken
		body.UserID = auth.UserID
	case auth.Authenticated:
		if !util.IsValidUUID(auth.UserID) {
			return nil, nil, newError(ErrAuthentication, "authenticated identity is not a valid UUID", "")
		}
		body.UserID = auth.UserID
	case auth.Guest:
		// 省略 user_id，服务端铸造游客身份
	default:
		return nil, nil, newError(ErrAuthentication, "must sign in to submit", "")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, nil, newError(ErrValidation, "failed to encode request", err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/problems/submit", bytes.NewReader(payload))
	if err != nil {
		return nil, nil, newError(ErrUnavailable, "failed to build request", err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, newError(ErrUnavailable, "submission request failed", err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, newError(ErrUnavailable, "failed to read response", err.Error())
	}

	var env submitEnvelope
	if len(raw) > 0 {
		// 错误响应体解不开也要按状态码分类，忽略解码失败
		_ = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, c.mapHTTPError(resp.StatusCode, &env)
	}

	if !env.Success {
		return nil, nil, newError(ErrUnavailable, "submission rejected", env.Details)
	}
	if !util.IsValidUUID(env.ProblemID) {
		return nil, nil, newError(ErrFormat, "response problemId is missing or malformed", env.ProblemID)
	}

	result := &Result{
		ProblemID:   env.ProblemID,
		SessionID:   env.SessionID,
		Status:      env.Status,
		Solution:    env.Solution,
		Explanation: env.Solution,
		Subject:     env.Subject,
		Difficulty:  env.Difficulty,
		Tags:        env.Tags,
	}

	// 缓存命中等同步完成的场景：不启动轮询
	if result.Terminal() {
		return result, nil, nil
	}

	handle := c.startPolling(auth, env.ProblemID, result)
	return result, handle, nil
}

func (c *Client) mapHTTPError(status int, env *submitEnvelope) *Error {
	detail := env.Details
	if detail == "" {
		detail = env.Error
	}

	// 凭证过期的错误文本优先于状态码分类
	lower := strings.ToLower(env.Error + " " + env.Details)
	if strings.Contains(lower, "jwt") || (strings.Contains(lower, "token") && strings.Contains(lower, "expire")) {
		return newError(ErrTokenExpired, "session expired, please sign in again", detail)
	}

	switch status {
	case http.StatusUnauthorized:
		return newError(ErrAuthentication, "not signed in", detail)
	case http.StatusForbidden:
		return newError(ErrForbidden, "access denied", detail)
	default:
		return newError(ErrUnavailable, fmt.Sprintf("submission service unavailable (HTTP %d)", status), detail)
	}
}
