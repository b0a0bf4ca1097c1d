package service

import (
	"testing"
	"time"

	"solvelab_backend/internal/model"
	"solvelab_backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOutcome(t *testing.T) {
	db := newTestDB(t)
	svc := NewProgressService(repository.NewProgressRepository(db))
	userID := model.GenerateUUID()

	require.NoError(t, svc.RecordOutcome(userID, "math", true))
	require.NoError(t, svc.RecordOutcome(userID, "math", true))
	require.NoError(t, svc.RecordOutcome(userID, "math", false))
	require.NoError(t, svc.RecordOutcome(userID, "physics", true))

	progress, err := svc.GetUserProgress(userID)
	require.NoError(t, err)

	require.Len(t, progress.Subjects, 2)
	// 按学科字母序
	assert.Equal(t, "math", progress.Subjects[0].Subject)
	assert.Equal(t, 3, progress.Subjects[0].Attempted)
	assert.Equal(t, 2, progress.Subjects[0].Solved)
	assert.Equal(t, "physics", progress.Subjects[1].Subject)
	assert.Equal(t, int64(3), progress.TotalSolved)

	// 同一天多次活跃连续天数不变
	assert.Equal(t, 1, progress.CurrentStreak)
	assert.Equal(t, 1, progress.LongestStreak)
}

func TestTouchStreak(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewProgressRepository(db)
	userID := model.GenerateUUID()

	day1 := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	streak, err := repo.TouchStreak(userID, day1)
	require.NoError(t, err)
	assert.Equal(t, 1, streak.Current)

	t.Run("same day is idempotent", func(t *testing.T) {
		streak, err := repo.TouchStreak(userID, day1.Add(5*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, streak.Current)
	})

	t.Run("next day extends", func(t *testing.T) {
		streak, err := repo.TouchStreak(userID, day1.AddDate(0, 0, 1))
		require.NoError(t, err)
		assert.Equal(t, 2, streak.Current)
		assert.Equal(t, 2, streak.Longest)
	})

	t.Run("gap resets current but keeps longest", func(t *testing.T) {
		streak, err := repo.TouchStreak(userID, day1.AddDate(0, 0, 10))
		require.NoError(t, err)
		assert.Equal(t, 1, streak.Current)
		assert.Equal(t, 2, streak.Longest)
	})
}

func TestAchievementThresholds(t *testing.T) {
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	svc := NewAchievementService(repository.NewAchievementRepository(db), userRepo, progressRepo)

	user := &model.User{Name: "Alice", Email: "a@example.com"}
	require.NoError(t, userRepo.Create(user))

	solve := func(n int) {
		for i := 0; i < n; i++ {
			require.NoError(t, progressRepo.IncrementSubject(user.ID, "math", true))
			require.NoError(t, svc.OnProblemSolved(user.ID))
		}
	}

	solve(1)
	has, err := repository.NewAchievementRepository(db).HasBadge(user.ID, "first_solve")
	require.NoError(t, err)
	assert.True(t, has)

	// 同一个徽章不会重复发放
	var count int64
	db.Model(&model.Achievement{}).Where("user_id = ? AND code = ?", user.ID, "first_solve").Count(&count)
	assert.Equal(t, int64(1), count)

	solve(9)
	has, err = repository.NewAchievementRepository(db).HasBadge(user.ID, "solver_10")
	require.NoError(t, err)
	assert.True(t, has)

	// 首徽章 10 XP + 10 题徽章 50 XP + 每题 5 XP
	fresh, err := userRepo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 10+50+10*5, fresh.XP)
}

func TestCalculateLevel(t *testing.T) {
	tests := []struct {
		xp        int
		level     int
		nextLevel int
	}{
		{0, 1, 100},
		{99, 1, 1},
		{100, 2, 200},
		{250, 2, 50},
		{300, 3, 300},
	}

	for _, tt := range tests {
		level, next := calculateLevel(tt.xp)
		assert.Equal(t, tt.level, level, "xp=%d", tt.xp)
		assert.Equal(t, tt.nextLevel, next, "xp=%d", tt.xp)
	}
}
