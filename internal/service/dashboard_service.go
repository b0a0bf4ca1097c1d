package service

import (
	"solvelab_backend/internal/model"
	"solvelab_backend/internal/repository"
)

type DashboardService struct {
	UserRepo    *repository.UserRepository
	TodoRepo    *repository.TodoRepository
	ProblemRepo *repository.ProblemRepository
	Progress    *ProgressService
}

func NewDashboardService(
	userRepo *repository.UserRepository,
	todoRepo *repository.TodoRepository,
	problemRepo *repository.ProblemRepository,
	progress *ProgressService,
) *DashboardService {
	return &DashboardService{
		UserRepo:    userRepo,
		TodoRepo:    todoRepo,
		ProblemRepo: problemRepo,
		Progress:    progress,
	}
}

type Dashboard struct {
	User              *model.User                `json:"user"`
	TodayTodos        []*model.Todo              `json:"todayTodos"`
	RecentSubmissions []*model.ProblemSubmission `json:"recentSubmissions"`
	Progress          *UserProgress              `json:"progress"`
}

func (s *DashboardService) GetDashboard(userID string) (*Dashboard, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	todos, err := s.TodoRepo.FindDueToday(userID)
	if err != nil {
		return nil, err
	}

	recent, _, err := s.ProblemRepo.ListByUser(userID, 1, 5)
	if err != nil {
		return nil, err
	}

	progress, err := s.Progress.GetUserProgress(userID)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		User:              user,
		TodayTodos:        todos,
		RecentSubmissions: recent,
		Progress:          progress,
	}, nil
}
