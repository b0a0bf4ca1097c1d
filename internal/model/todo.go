package model

import "time"

type TodoStatus string

const (
	TodoPending   TodoStatus = "pending"
	TodoCompleted TodoStatus = "completed"
)

// swagger:model Todo
type Todo struct {
	BaseModel
	UserID      string     `gorm:"index;type:varchar(36);not null" json:"userId"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	Status      TodoStatus `gorm:"size:20;default:'pending'" json:"status"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Order       int        `gorm:"default:0" json:"order"`
}

func (Todo) TableName() string {
	return "todos"
}
