package service

import (
	"time"

	"solvelab_backend/internal/model"
	"solvelab_backend/internal/repository"
)

type ProgressService struct {
	ProgressRepo *repository.ProgressRepository
}

func NewProgressService(progressRepo *repository.ProgressRepository) *ProgressService {
	return &ProgressService{ProgressRepo: progressRepo}
}

type UserProgress struct {
	Subjects      []model.SubjectProgress `json:"subjects"`
	TotalSolved   int64                   `json:"totalSolved"`
	CurrentStreak int                     `json:"currentStreak"`
	LongestStreak int                     `json:"longestStreak"`
}

// RecordOutcome 一次提交到达终态后更新学科计数和连续学习天数
func (s *ProgressService) RecordOutcome(userID, subject string, solved bool) error {
	if err := s.ProgressRepo.IncrementSubject(userID, subject, solved); err != nil {
		return err
	}
	_, err := s.ProgressRepo.TouchStreak(userID, time.Now())
	return err
}

func (s *ProgressService) GetUserProgress(userID string) (*UserProgress, error) {
	subjects, err := s.ProgressRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}

	total, err := s.ProgressRepo.TotalSolved(userID)
	if err != nil {
		return nil, err
	}

	progress := &UserProgress{
		Subjects:    subjects,
		TotalSolved: total,
	}

	if streak, err := s.ProgressRepo.FindStreak(userID); err == nil {
		progress.CurrentStreak = streak.Current
		progress.LongestStreak = streak.Longest
	}

	return progress, nil
}
