package model

import "time"

// SubjectProgress 按学科统计的解题进度，提交到达终态时更新
// swagger:model SubjectProgress
type SubjectProgress struct {
	BaseModel
	UserID    string `gorm:"index:idx_user_subject,unique;type:varchar(36);not null" json:"userId"`
	Subject   string `gorm:"index:idx_user_subject,unique;size:100;not null" json:"subject"`
	Attempted int    `gorm:"default:0" json:"attempted"`
	Solved    int    `gorm:"default:0" json:"solved"`
}

func (SubjectProgress) TableName() string {
	return "subject_progress"
}

// DailyStreak 连续学习天数记录
type DailyStreak struct {
	BaseModel
	UserID     string    `gorm:"uniqueIndex;type:varchar(36);not null" json:"userId"`
	Current    int       `gorm:"default:0" json:"current"`
	Longest    int       `gorm:"default:0" json:"longest"`
	LastActive time.Time `json:"lastActive"`
}

func (DailyStreak) TableName() string {
	return "daily_streaks"
}
