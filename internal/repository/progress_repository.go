package repository

import (
	"time"

	"solvelab_backend/internal/model"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// IncrementSubject 累加某学科的尝试/解出计数，没有记录时先建行
func (r *ProgressRepository) IncrementSubject(userID, subject string, solved bool) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var progress model.SubjectProgress
		err := tx.Where("user_id = ? AND subject = ?", userID, subject).First(&progress).Error
		if err == gorm.ErrRecordNotFound {
			progress = model.SubjectProgress{UserID: userID, Subject: subject}
			if err := tx.Create(&progress).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"attempted": gorm.Expr("attempted + 1"),
		}
		if solved {
			updates["solved"] = gorm.Expr("solved + 1")
		}
		return tx.Model(&model.SubjectProgress{}).
			Where("id = ?", progress.ID).
			Updates(updates).Error
	})
}

func (r *ProgressRepository) FindByUserID(userID string) ([]model.SubjectProgress, error) {
	var progress []model.SubjectProgress
	err := r.DB.Where("user_id = ?", userID).Order("subject ASC").Find(&progress).Error
	return progress, err
}

func (r *ProgressRepository) TotalSolved(userID string) (int64, error) {
	var total int64
	err := r.DB.Model(&model.SubjectProgress{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(solved), 0)").
		Scan(&total).Error
	return total, err
}

// TouchStreak 记录一次当日活跃，跨天时延长或重置连续天数
func (r *ProgressRepository) TouchStreak(userID string, now time.Time) (*model.DailyStreak, error) {
	var streak model.DailyStreak
	err := r.DB.Where("user_id = ?", userID).First(&streak).Error
	if err == gorm.ErrRecordNotFound {
		streak = model.DailyStreak{UserID: userID, Current: 1, Longest: 1, LastActive: now}
		if err := r.DB.Create(&streak).Error; err != nil {
			return nil, err
		}
		return &streak, nil
	} else if err != nil {
		return nil, err
	}

	today := now.Truncate(24 * time.Hour)
	last := streak.LastActive.Truncate(24 * time.Hour)

	switch {
	case last.Equal(today):
		// 同一天重复活跃不变
	case last.Equal(today.AddDate(0, 0, -1)):
		streak.Current++
	default:
		streak.Current = 1
	}
	if streak.Current > streak.Longest {
		streak.Longest = streak.Current
	}
	streak.LastActive = now

	if err := r.DB.Save(&streak).Error; err != nil {
		return nil, err
	}
	return &streak, nil
}

func (r *ProgressRepository) FindStreak(userID string) (*model.DailyStreak, error) {
	var streak model.DailyStreak
	err := r.DB.Where("user_id = ?", userID).First(&streak).Error
	return &streak, err
}
