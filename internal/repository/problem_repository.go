package repository

import (
	"solvelab_backend/internal/model"
	"solvelab_backend/internal/util"

	"gorm.io/gorm"
)

type ProblemRepository struct {
	DB *gorm.DB
}

func NewProblemRepository(db *gorm.DB) *ProblemRepository {
	return &ProblemRepository{DB: db}
}

func (r *ProblemRepository) Create(sub *model.ProblemSubmission) error {
	return r.DB.Create(sub).Error
}

func (r *ProblemRepository) FindByID(id string) (*model.ProblemSubmission, error) {
	var sub model.ProblemSubmission
	err := r.DB.First(&sub, "id = ?", id).Error
	return &sub, err
}

// FindByIDForUser 行级约束查询：只返回属于该用户的记录，
// 已登录调用方看不到其他人的提交。
func (r *ProblemRepository) FindByIDForUser(id, userID string) (*model.ProblemSubmission, error) {
	var sub model.ProblemSubmission
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&sub).Error
	return &sub, err
}

func (r *ProblemRepository) ListByUser(userID string, page, limit int) ([]*model.ProblemSubmission, int64, error) {
	var subs []*model.ProblemSubmission
	var total int64

	query := r.DB.Model(&model.ProblemSubmission{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&subs).Error
	return subs, total, err
}

func (r *ProblemRepository) ListBySession(sessionID string) ([]*model.ProblemSubmission, error) {
	var subs []*model.ProblemSubmission
	err := r.DB.Where("session_id = ?", sessionID).Order("created_at ASC").Find(&subs).Error
	return subs, err
}

// transition 在事务里校验状态单向前进后更新。终态不可再迁移。
func (r *ProblemRepository) transition(id string, next model.SubmissionStatus, updates map[string]interface{}) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var sub model.ProblemSubmission
		if err := tx.First(&sub, "id = ?", id).Error; err != nil {
			return err
		}

		if !sub.Status.CanTransitionTo(next) {
			return util.ErrIllegalTransition
		}

		updates["status"] = next
		return tx.Model(&model.ProblemSubmission{}).Where("id = ?", id).Updates(updates).Error
	})
}

func (r *ProblemRepository) MarkProcessing(id string) error {
	return r.transition(id, model.SubmissionProcessing, map[string]interface{}{})
}

// MarkCompleted 写入终态结果。completed 当且仅当 solution 非空且无 errorMessage。
func (r *ProblemRepository) MarkCompleted(id string, result *model.ProblemSubmission) error {
	return r.transition(id, model.SubmissionCompleted, map[string]interface{}{
		"solution":      result.Solution,
		"explanation":   result.Explanation,
		"subject":       result.Subject,
		"topic":         result.Topic,
		"difficulty":    result.Difficulty,
		"tags":          result.Tags,
		"ai_response":   result.AIResponse,
		"error_message": "",
	})
}

func (r *ProblemRepository) MarkError(id string, message string) error {
	return r.transition(id, model.SubmissionError, map[string]interface{}{
		"error_message": message,
		"solution":      "",
	})
}

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) Create(session *model.LearningSession) error {
	return r.DB.Create(session).Error
}

func (r *SessionRepository) FindByID(id string) (*model.LearningSession, error) {
	var session model.LearningSession
	err := r.DB.First(&session, "id = ?", id).Error
	return &session, err
}

// FindLatestByUser 复用用户最近的会话，不存在时返回 gorm.ErrRecordNotFound
func (r *SessionRepository) FindLatestByUser(userID string) (*model.LearningSession, error) {
	var session model.LearningSession
	err := r.DB.Where("user_id = ?", userID).Order("created_at DESC").First(&session).Error
	return &session, err
}
