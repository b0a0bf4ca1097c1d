package service

import (
	"time"

	"solvelab_backend/internal/model"
	"solvelab_backend/internal/repository"
)

type AchievementService struct {
	AchievementRepo *repository.AchievementRepository
	UserRepo        *repository.UserRepository
	ProgressRepo    *repository.ProgressRepository
}

func NewAchievementService(
	achievementRepo *repository.AchievementRepository,
	userRepo *repository.UserRepository,
	progressRepo *repository.ProgressRepository,
) *AchievementService {
	return &AchievementService{
		AchievementRepo: achievementRepo,
		UserRepo:        userRepo,
		ProgressRepo:    progressRepo,
	}
}

// badgeRules 按解题数解锁的徽章
var badgeRules = []model.AchievementRule{
	{Code: "first_solve", Name: "初次解题", Description: "完成第一道题", Icon: "star", XPReward: 10, Threshold: 1},
	{Code: "solver_10", Name: "小有所成", Description: "累计解出 10 道题", Icon: "medal", XPReward: 50, Threshold: 10},
	{Code: "solver_50", Name: "渐入佳境", Description: "累计解出 50 道题", Icon: "trophy", XPReward: 200, Threshold: 50},
	{Code: "solver_200", Name: "解题达人", Description: "累计解出 200 道题", Icon: "crown", XPReward: 500, Threshold: 200},
}

type UserAchievements struct {
	TotalXP      int                 `json:"totalXp"`
	CurrentLevel int                 `json:"currentLevel"`
	NextLevelXP  int                 `json:"nextLevelXp"`
	Badges       []model.Achievement `json:"badges"`
	Leaderboard  []LeaderboardEntry  `json:"leaderboard"`
	TotalSolved  int64               `json:"totalSolved"`
}

type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	User   string `json:"user"`
	XP     int    `json:"xp"`
	Avatar string `json:"avatar,omitempty"`
}

// OnProblemSolved 一道题完成后检查是否达到新徽章门槛
func (s *AchievementService) OnProblemSolved(userID string) error {
	total, err := s.ProgressRepo.TotalSolved(userID)
	if err != nil {
		return err
	}

	for _, rule := range badgeRules {
		if total < int64(rule.Threshold) {
			continue
		}
		has, err := s.AchievementRepo.HasBadge(userID, rule.Code)
		if err != nil {
			return err
		}
		if has {
			continue
		}

		badge := &model.Achievement{
			UserID:      userID,
			Code:        rule.Code,
			Name:        rule.Name,
			Description: rule.Description,
			Icon:        rule.Icon,
			XPReward:    rule.XPReward,
			EarnedAt:    time.Now(),
		}
		if err := s.AchievementRepo.Create(badge); err != nil {
			return err
		}
		if err := s.UserRepo.AddXP(userID, rule.XPReward); err != nil {
			return err
		}
	}

	// 每解出一题的基础经验
	return s.UserRepo.AddXP(userID, 5)
}

func (s *AchievementService) GetUserAchievements(userID string) (*UserAchievements, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	badges, err := s.AchievementRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}

	leaderboard, err := s.GetLeaderboard(10)
	if err != nil {
		return nil, err
	}

	total, err := s.ProgressRepo.TotalSolved(userID)
	if err != nil {
		return nil, err
	}

	level, nextLevelXP := calculateLevel(user.XP)

	return &UserAchievements{
		TotalXP:      user.XP,
		CurrentLevel: level,
		NextLevelXP:  nextLevelXP,
		Badges:       badges,
		Leaderboard:  leaderboard,
		TotalSolved:  total,
	}, nil
}

func (s *AchievementService) GetLeaderboard(limit int) ([]LeaderboardEntry, error) {
	users, err := s.UserRepo.Leaderboard(limit)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, LeaderboardEntry{
			Rank:   i + 1,
			User:   u.Name,
			XP:     u.XP,
			Avatar: u.Avatar,
		})
	}
	return entries, nil
}

// calculateLevel 每级所需经验线性递增：升到第 n 级需要 n*100 经验
func calculateLevel(xp int) (level int, nextLevelXP int) {
	level = 1
	required := 100
	remaining := xp
	for remaining >= required {
		remaining -= required
		level++
		required = level * 100
	}
	return level, required - remaining
}
