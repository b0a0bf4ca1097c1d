package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"solvelab_backend/internal/config"
	"solvelab_backend/internal/model"
	"solvelab_backend/internal/util"
)

type AIService struct {
	config config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{
		config: cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// Configured API Key 未配置时提交接口返回 503，而不是崩溃
func (s *AIService) Configured() bool {
	return s.config.APIKey != ""
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model    string          `json:"model"`
	Messages []AIChatMessage `json:"messages"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Solution 模型返回的结构化解答。模型未按约定输出 JSON 时，
// 整段文本回退为 Solution，RawFallback 置真。
type Solution struct {
	Solution    string   `json:"solution"`
	Explanation string   `json:"explanation"`
	Subject     string   `json:"subject"`
	Topic       string   `json:"topic"`
	Difficulty  string   `json:"difficulty"`
	Tags        []string `json:"tags"`
	Model       string   `json:"-"`
	RawFallback bool     `json:"-"`
}

// 要求模型输出固定字段的 JSON，取代按关键词猜学科/难度的做法
const solvePromptTemplate = `你是一个中小学学习辅导助教。请解答下面的题目，并且只输出一个 JSON 对象，不要输出任何其他文字，字段如下：
{
  "solution": "完整解答过程（可含 Markdown）",
  "explanation": "面向学生的思路讲解",
  "subject": "学科（如 math、physics、chemistry、english）",
  "topic": "更具体的知识点",
  "difficulty": "easy、medium 或 hard",
  "tags": ["相关标签"]
}

题目标题：%s
题目类型：%s
题目内容：
%s`

// Solve 调用大模型解题。输入在进入这里之前已经清洗过，
// 返回的 Solution 字段在落库之前还会再清洗一次。
func (s *AIService) Solve(ctx context.Context, inputType model.InputType, title, content string) (*Solution, error) {
	if !s.Configured() {
		return nil, util.ErrAINotConfigured
	}

	prompt := fmt.Sprintf(solvePromptTemplate, title, inputType, content)

	reqBody := ChatCompletionRequest{
		Model: s.config.Model,
		Messages: []AIChatMessage{
			{Role: "system", Content: "你是一个严谨的解题助教，永远按照用户要求的 JSON 格式输出。"},
			{Role: "user", Content: prompt},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, fmt.Errorf("AI API error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("AI returned no choices")
	}

	solution := parseSolution(result.Choices[0].Message.Content)
	solution.Model = s.config.Model
	return solution, nil
}

// parseSolution 解析模型输出。允许 JSON 外面包一层 Markdown 代码块；
// 完全不是 JSON 时整段文本作为解答回退。
func parseSolution(raw string) *Solution {
	text := strings.TrimSpace(raw)

	jsonText := text
	if strings.HasPrefix(jsonText, "```") {
		jsonText = strings.TrimPrefix(jsonText, "```json")
		jsonText = strings.TrimPrefix(jsonText, "```")
		if idx := strings.LastIndex(jsonText, "```"); idx >= 0 {
			jsonText = jsonText[:idx]
		}
		jsonText = strings.TrimSpace(jsonText)
	}

	var sol Solution
	if err := json.Unmarshal([]byte(jsonText), &sol); err == nil && sol.Solution != "" {
		sol.Difficulty = normalizeDifficulty(sol.Difficulty)
		return &sol
	}

	return &Solution{
		Solution:    text,
		RawFallback: true,
		Tags:        []string{},
	}
}

func normalizeDifficulty(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "easy", "medium", "hard":
		return strings.ToLower(strings.TrimSpace(d))
	}
	return ""
}
