package service

import (
	"errors"
	"time"

	"solvelab_backend/internal/model"
	"solvelab_backend/internal/repository"
	"solvelab_backend/internal/util"

	"gorm.io/gorm"
)

type TodoService struct {
	Repo *repository.TodoRepository
}

func NewTodoService(repo *repository.TodoRepository) *TodoService {
	return &TodoService{Repo: repo}
}

type TodoRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Order       int        `json:"order"`
}

func (s *TodoService) Create(userID string, req *TodoRequest) (*model.Todo, error) {
	title := util.SanitizeInput(req.Title)
	if title == "" {
		return nil, util.ErrTitleRequired
	}

	todo := &model.Todo{
		UserID:      userID,
		Title:       title,
		Description: util.SanitizeInput(req.Description),
		Status:      model.TodoPending,
		DueDate:     req.DueDate,
		Order:       req.Order,
	}
	if err := s.Repo.Create(todo); err != nil {
		return nil, err
	}
	return todo, nil
}

func (s *TodoService) List(userID string) ([]*model.Todo, error) {
	return s.Repo.FindByUserID(userID)
}

func (s *TodoService) Update(userID string, id uint, req *TodoRequest) (*model.Todo, error) {
	todo, err := s.findOwned(userID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		todo.Title = util.SanitizeInput(req.Title)
	}
	todo.Description = util.SanitizeInput(req.Description)
	todo.DueDate = req.DueDate
	todo.Order = req.Order

	if err := s.Repo.Update(todo); err != nil {
		return nil, err
	}
	return todo, nil
}

// Toggle 在 pending/completed 之间切换
func (s *TodoService) Toggle(userID string, id uint) (*model.Todo, error) {
	todo, err := s.findOwned(userID, id)
	if err != nil {
		return nil, err
	}

	next := model.TodoCompleted
	if todo.Status == model.TodoCompleted {
		next = model.TodoPending
	}
	if err := s.Repo.UpdateStatus(id, next); err != nil {
		return nil, err
	}
	todo.Status = next
	return todo, nil
}

func (s *TodoService) Delete(userID string, id uint) error {
	err := s.Repo.Delete(id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrTodoNotFound
	}
	return err
}

func (s *TodoService) findOwned(userID string, id uint) (*model.Todo, error) {
	todo, err := s.Repo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrTodoNotFound
	}
	if err != nil {
		return nil, err
	}
	if todo.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	return todo, nil
}
