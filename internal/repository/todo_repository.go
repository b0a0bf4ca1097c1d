package repository

import (
	"time"

	"solvelab_backend/internal/model"

	"gorm.io/gorm"
)

type TodoRepository struct {
	DB *gorm.DB
}

func NewTodoRepository(db *gorm.DB) *TodoRepository {
	return &TodoRepository{DB: db}
}

func (r *TodoRepository) Create(todo *model.Todo) error {
	return r.DB.Create(todo).Error
}

func (r *TodoRepository) FindByID(id uint) (*model.Todo, error) {
	var todo model.Todo
	err := r.DB.First(&todo, id).Error
	return &todo, err
}

func (r *TodoRepository) FindByUserID(userID string) ([]*model.Todo, error) {
	var todos []*model.Todo
	err := r.DB.Where("user_id = ?", userID).Order("`order` ASC, created_at ASC").Find(&todos).Error
	return todos, err
}

func (r *TodoRepository) FindDueToday(userID string) ([]*model.Todo, error) {
	var todos []*model.Todo
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)
	err := r.DB.Where("user_id = ? AND due_date >= ? AND due_date < ?", userID, start, end).
		Find(&todos).Error
	return todos, err
}

func (r *TodoRepository) Update(todo *model.Todo) error {
	return r.DB.Save(todo).Error
}

func (r *TodoRepository) UpdateStatus(id uint, status model.TodoStatus) error {
	return r.DB.Model(&model.Todo{}).
		Where("id = ?", id).
		Update("status", status).
		Error
}

func (r *TodoRepository) Delete(id uint, userID string) error {
	result := r.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Todo{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
