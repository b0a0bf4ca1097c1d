package repository

import (
	"solvelab_backend/internal/model"

	"gorm.io/gorm"
)

type AuditRepository struct {
	DB *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{DB: db}
}

func (r *AuditRepository) Create(entry *model.AuditLog) error {
	return r.DB.Create(entry).Error
}

func (r *AuditRepository) ListBySubmission(submissionID string) ([]*model.AuditLog, error) {
	var entries []*model.AuditLog
	err := r.DB.Where("submission_id = ?", submissionID).Order("created_at ASC").Find(&entries).Error
	return entries, err
}

func (r *AuditRepository) List(page, limit int) ([]*model.AuditLog, int64, error) {
	var entries []*model.AuditLog
	var total int64

	if err := r.DB.Model(&model.AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := r.DB.Order("created_at DESC").Offset(offset).Limit(limit).Find(&entries).Error
	return entries, total, err
}
