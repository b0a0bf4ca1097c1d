package model

type AuditAction string

const (
	AuditSubmissionCreated   AuditAction = "submission_created"
	AuditSubmissionCompleted AuditAction = "submission_completed"
	AuditSubmissionFailed    AuditAction = "submission_failed"
)

// AuditLog 提交生命周期审计记录，带内容指纹
// swagger:model AuditLog
type AuditLog struct {
	BaseModel
	Action       AuditAction `gorm:"size:40;index" json:"action"`
	SubmissionID string      `gorm:"index;type:varchar(36)" json:"submissionId"`
	UserID       string      `gorm:"index;type:varchar(36)" json:"userId"`
	ContentHash  string      `gorm:"size:64" json:"contentHash"`
	Detail       string      `gorm:"type:text" json:"detail,omitempty"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
