package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	UUIDBase
	Name     string   `gorm:"size:100;not null" json:"name"`
	// 游客行的 email 为空串，不能加唯一索引；注册时在服务层查重
	Email    string   `gorm:"size:100;index" json:"email"`
	Password string   `gorm:"size:100" json:"-"`
	Role     UserRole `gorm:"size:20;default:'student'" json:"role"`
	// IsGuest 标记服务端自动创建的游客身份：无邮箱无密码，仅用于归属提交记录
	IsGuest   bool      `gorm:"default:false;index" json:"isGuest"`
	XP        int       `gorm:"default:0" json:"xp"` // 总经验/等级积分
	Language  string    `gorm:"size:10;default:'en'" json:"language"`
	Avatar    string    `gorm:"size:255" json:"avatar"`
	Disabled  bool      `gorm:"default:false" json:"disabled"`
	LastLogin time.Time `json:"lastLogin"`
	LastSeen  time.Time `json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}
