package model

import "time"

// swagger:model Achievement
type Achievement struct {
	BaseModel
	UserID      string    `gorm:"index;type:varchar(36);not null" json:"userId"`
	Code        string    `gorm:"size:50;index" json:"code"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	Icon        string    `gorm:"size:50" json:"icon"`
	XPReward    int       `gorm:"default:0" json:"xpReward"`
	EarnedAt    time.Time `json:"earnedAt"`
}

func (Achievement) TableName() string {
	return "achievements"
}

// AchievementRule 可获得的徽章定义（种子数据）
type AchievementRule struct {
	Code        string
	Name        string
	Description string
	Icon        string
	XPReward    int
	// Threshold 解题数门槛
	Threshold int
}
