package repository

import (
	"time"

	"solvelab_backend/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id string) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, "id = ?", id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	return &user, err
}

func (r *UserRepository) Update(user *model.User) error {
	return r.DB.Save(user).Error
}

func (r *UserRepository) AddXP(userID string, amount int) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("xp", gorm.Expr("xp + ?", amount)).
		Error
}

func (r *UserRepository) UpdateLastSeen(userID string) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_seen", time.Now()).
		Error
}

// CreateGuest 铸造一个游客身份。游客没有邮箱和密码，
// 只用于归属未登录状态下创建的提交记录。
func (r *UserRepository) CreateGuest() (*model.User, error) {
	guest := &model.User{
		Name:    "Guest",
		Role:    model.Student,
		IsGuest: true,
	}
	if err := r.DB.Create(guest).Error; err != nil {
		return nil, err
	}
	return guest, nil
}

// Leaderboard 按 XP 取前 N 名（不含游客）
func (r *UserRepository) Leaderboard(limit int) ([]*model.User, error) {
	var users []*model.User
	err := r.DB.Where("is_guest = ?", false).
		Order("xp DESC").
		Limit(limit).
		Find(&users).Error
	return users, err
}
