package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

type SubmissionStatus string

const (
	SubmissionPending    SubmissionStatus = "pending"
	SubmissionProcessing SubmissionStatus = "processing"
	SubmissionCompleted  SubmissionStatus = "completed"
	SubmissionError      SubmissionStatus = "error"
)

// Terminal 终态之后不允许任何状态迁移
func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionCompleted || s == SubmissionError
}

// CanTransitionTo 状态只能单向前进：pending → processing → {completed | error}
func (s SubmissionStatus) CanTransitionTo(next SubmissionStatus) bool {
	if s.Terminal() {
		return false
	}
	switch s {
	case SubmissionPending:
		return next == SubmissionProcessing || next == SubmissionCompleted || next == SubmissionError
	case SubmissionProcessing:
		return next == SubmissionCompleted || next == SubmissionError
	}
	return false
}

type InputType string

const (
	InputText  InputType = "text"
	InputImage InputType = "image"
	InputVoice InputType = "voice"
)

// StringList 以 JSON 数组形式存储的字符串列表（tags 等）
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return errors.New("unsupported type for StringList")
}

// AIResponseMeta 模型返回的结构化附加信息，原样存档一份，
// 便于前端在顶层 tags 缺失时回退到 suggested_tags
type AIResponseMeta struct {
	SuggestedTags []string `json:"suggested_tags,omitempty"`
	Model         string   `json:"model,omitempty"`
	RawFallback   bool     `json:"raw_fallback,omitempty"` // 模型未按 JSON 约定返回时置真
}

func (m AIResponseMeta) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *AIResponseMeta) Scan(value interface{}) error {
	if value == nil {
		*m = AIResponseMeta{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	}
	return errors.New("unsupported type for AIResponseMeta")
}

// ProblemSubmission 一次解题提交。创建后 id、contentHash 不再变化；
// solution/subject/difficulty/tags/errorMessage 仅在终态写入。
// swagger:model ProblemSubmission
type ProblemSubmission struct {
	UUIDBase
	UserID    string `gorm:"index;type:varchar(36);not null" json:"userId"`
	SessionID string `gorm:"index;type:varchar(36)" json:"sessionId"`

	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	InputType   InputType `gorm:"size:10;not null" json:"inputType"`

	// 三选一，由 InputType 决定哪个字段有值
	TextContent string `gorm:"type:text" json:"textContent,omitempty"`
	ImageData   string `gorm:"type:longtext" json:"imageData,omitempty"`
	VoiceURL    string `gorm:"size:512" json:"voiceUrl,omitempty"`

	Status SubmissionStatus `gorm:"size:20;index;default:'pending'" json:"status"`

	Solution     string         `gorm:"type:text" json:"solution,omitempty"`
	Explanation  string         `gorm:"type:text" json:"explanation,omitempty"`
	Subject      string         `gorm:"size:100" json:"subject,omitempty"`
	Topic        string         `gorm:"size:100" json:"topic,omitempty"`
	Difficulty   string         `gorm:"size:20" json:"difficulty,omitempty"`
	Tags         StringList     `gorm:"type:text" json:"tags,omitempty"`
	AIResponse   AIResponseMeta `gorm:"type:text" json:"aiResponse,omitempty"`
	ErrorMessage string         `gorm:"type:text" json:"errorMessage,omitempty"`

	// 提交内容的 SHA-256 指纹，创建时计算一次，仅用于审计
	ContentHash string `gorm:"size:64;index" json:"contentHash"`
}

func (ProblemSubmission) TableName() string {
	return "problem_submissions"
}

// LearningSession 将同一次学习中的多条提交分到一组
type LearningSession struct {
	UUIDBase
	UserID  string `gorm:"index;type:varchar(36);not null" json:"userId"`
	IsGuest bool   `gorm:"default:false" json:"isGuest"`
}

func (LearningSession) TableName() string {
	return "learning_sessions"
}
