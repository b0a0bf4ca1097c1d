package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"solvelab_backend/internal/model"
	"solvelab_backend/internal/repository"
	"solvelab_backend/internal/util"
	"solvelab_backend/pkg/logger"
	"solvelab_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// solutionCacheTTL 相同内容指纹的解答缓存时长
const solutionCacheTTL = 24 * time.Hour

type ProblemService struct {
	Repo        *repository.ProblemRepository
	SessionRepo *repository.SessionRepository
	UserRepo    *repository.UserRepository
	AuditRepo   *repository.AuditRepository
	AI          *AIService
	Progress    *ProgressService
	Achievement *AchievementService
	rdb         *redis.Client
}

func NewProblemService(
	repo *repository.ProblemRepository,
	sessionRepo *repository.SessionRepository,
	userRepo *repository.UserRepository,
	auditRepo *repository.AuditRepository,
	ai *AIService,
	progress *ProgressService,
	achievement *AchievementService,
	rdb *redis.Client,
) *ProblemService {
	return &ProblemService{
		Repo:        repo,
		SessionRepo: sessionRepo,
		UserRepo:    userRepo,
		AuditRepo:   auditRepo,
		AI:          ai,
		Progress:    progress,
		Achievement: achievement,
		rdb:         rdb,
	}
}

// SubmitRequest 提交接口请求体（对外契约，字段名为 snake_case）
type SubmitRequest struct {
	InputType   string `json:"input_type" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	TextContent string `json:"text_content"`
	ImageData   string `json:"image_data"`
	VoiceURL    string `json:"voice_url"`
	UserID      string `json:"user_id"`
	SessionID   string `json:"session_id"`
}

// SubmitEnvelope 提交接口响应（对外契约）
type SubmitEnvelope struct {
	Success    bool     `json:"success"`
	ProblemID  string   `json:"problemId,omitempty"`
	SessionID  string   `json:"sessionId,omitempty"`
	Status     string   `json:"status,omitempty"`
	Solution   string   `json:"solution,omitempty"`
	Subject    string   `json:"subject,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Error      string   `json:"error,omitempty"`
	Details    string   `json:"details,omitempty"`
}

// Submit 创建一条解题提交。已登录时 claims 优先；
// 请求体带 user_id 时必须是合法 UUID；两者都没有就铸造游客身份。
func (s *ProblemService) Submit(ctx context.Context, claims *util.Claims, req *SubmitRequest) (*SubmitEnvelope, error) {
	inputType := model.InputType(req.InputType)
	if inputType != model.InputText && inputType != model.InputImage && inputType != model.InputVoice {
		return nil, util.ErrInvalidInputType
	}

	title := util.SanitizeInput(req.Title)
	if title == "" {
		return nil, util.ErrTitleRequired
	}

	description := util.SanitizeInput(req.Description)
	textContent := util.SanitizeInput(req.TextContent)
	imageData := strings.TrimSpace(req.ImageData)
	voiceURL := strings.TrimSpace(req.VoiceURL)

	var payload string
	switch inputType {
	case model.InputText:
		payload = textContent
	case model.InputImage:
		payload = imageData
	case model.InputVoice:
		payload = voiceURL
	}
	if payload == "" {
		return nil, util.ErrContentRequired
	}

	userID, err := s.resolveIdentity(claims, req.UserID)
	if err != nil {
		return nil, err
	}

	sessionID, err := s.resolveSession(userID, req.SessionID, claims == nil)
	if err != nil {
		return nil, err
	}

	sub := &model.ProblemSubmission{
		UserID:      userID,
		SessionID:   sessionID,
		Title:       title,
		Description: description,
		InputType:   inputType,
		Status:      model.SubmissionProcessing,
		ContentHash: util.GenerateContentHash(payload),
	}
	switch inputType {
	case model.InputText:
		sub.TextContent = textContent
	case model.InputImage:
		sub.ImageData = imageData
	case model.InputVoice:
		sub.VoiceURL = voiceURL
	}

	if err := s.Repo.Create(sub); err != nil {
		return nil, err
	}

	s.audit(model.AuditSubmissionCreated, sub, "")

	// API Key 缺失：记录标记为 error 并返回 503 对应的信封，不崩溃
	if !s.AI.Configured() {
		if err := s.Repo.MarkError(sub.ID, "AI service is not configured"); err != nil {
			logger.Log.Error("mark error failed", zap.String("submission", sub.ID), zap.Error(err))
		}
		s.audit(model.AuditSubmissionFailed, sub, "AI service is not configured")
		return &SubmitEnvelope{
			Success:   false,
			ProblemID: sub.ID,
			SessionID: sessionID,
			Status:    string(model.SubmissionError),
			Error:     "AI service unavailable",
			Details:   "missing API key",
		}, util.ErrAINotConfigured
	}

	// 缓存快路径：同指纹题目直接完成，客户端无需轮询
	if cached := s.cachedSolution(ctx, sub.ContentHash); cached != nil {
		if err := s.complete(sub, cached); err == nil {
			return &SubmitEnvelope{
				Success:    true,
				ProblemID:  sub.ID,
				SessionID:  sessionID,
				Status:     string(model.SubmissionCompleted),
				Solution:   cached.Solution,
				Subject:    cached.Subject,
				Difficulty: cached.Difficulty,
				Tags:       cached.Tags,
			}, nil
		}
	}

	// 异步解题，客户端通过轮询拿终态
	go s.process(sub.ID, inputType, title, payload)

	return &SubmitEnvelope{
		Success:   true,
		ProblemID: sub.ID,
		SessionID: sessionID,
		Status:    string(model.SubmissionProcessing),
	}, nil
}

// resolveIdentity 已登录用 claims；显式 user_id 必须是合法 UUID；
// 否则服务端铸造游客身份（客户端永远不自己编 user_id）。
func (s *ProblemService) resolveIdentity(claims *util.Claims, requestUserID string) (string, error) {
	if claims != nil {
		if !util.IsValidUUID(claims.UserID) {
			return "", util.ErrInvalidUserID
		}
		return claims.UserID, nil
	}

	if requestUserID != "" {
		if !util.IsValidUUID(requestUserID) {
			return "", util.ErrInvalidUserID
		}
		if _, err := s.UserRepo.FindByID(requestUserID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", util.ErrInvalidUserID
			}
			return "", err
		}
		return requestUserID, nil
	}

	guest, err := s.UserRepo.CreateGuest()
	if err != nil {
		return "", err
	}
	return guest.ID, nil
}

func (s *ProblemService) resolveSession(userID, requestSessionID string, isGuest bool) (string, error) {
	if requestSessionID != "" {
		if !util.IsValidUUID(requestSessionID) {
			return "", util.ErrInvalidSubmissionID
		}
		session, err := s.SessionRepo.FindByID(requestSessionID)
		if err == nil && session.UserID == userID {
			return session.ID, nil
		}
		// 不是自己的会话或不存在时静默新建，不泄露他人会话存在性
	}

	session := &model.LearningSession{UserID: userID, IsGuest: isGuest}
	if err := s.SessionRepo.Create(session); err != nil {
		return "", err
	}
	return session.ID, nil
}

// process 后台解题。终态更新、审计、进度、成就都在这里收口。
func (s *ProblemService) process(submissionID string, inputType model.InputType, title, payload string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.AI.config.RequestTimeout)
	defer cancel()

	start := time.Now()
	solution, err := s.AI.Solve(ctx, inputType, title, payload)
	monitoring.AISolveDuration.Observe(time.Since(start).Seconds())

	sub, findErr := s.Repo.FindByID(submissionID)
	if findErr != nil {
		logger.Log.Error("submission vanished during processing",
			zap.String("submission", submissionID), zap.Error(findErr))
		return
	}

	if err != nil {
		logger.Log.Warn("AI solve failed",
			zap.String("submission", submissionID), zap.Error(err))
		if err := s.Repo.MarkError(submissionID, err.Error()); err != nil {
			logger.Log.Error("mark error failed", zap.String("submission", submissionID), zap.Error(err))
		}
		s.audit(model.AuditSubmissionFailed, sub, err.Error())
		monitoring.SubmissionCounter.WithLabelValues(string(inputType), string(model.SubmissionError)).Inc()
		s.recordOutcome(sub.UserID, "unknown", false)
		return
	}

	if err := s.complete(sub, solution); err != nil {
		logger.Log.Error("mark completed failed", zap.String("submission", submissionID), zap.Error(err))
		return
	}

	s.cacheSolution(context.Background(), sub.ContentHash, solution)
	monitoring.SubmissionCounter.WithLabelValues(string(inputType), string(model.SubmissionCompleted)).Inc()
}

// complete 清洗模型输出后写终态，并驱动进度/成就
func (s *ProblemService) complete(sub *model.ProblemSubmission, solution *Solution) error {
	subject := util.SanitizeInput(solution.Subject)
	if subject == "" {
		subject = "general"
	}

	tags := make(model.StringList, 0, len(solution.Tags))
	for _, t := range solution.Tags {
		if clean := util.SanitizeInput(t); clean != "" {
			tags = append(tags, clean)
		}
	}

	result := &model.ProblemSubmission{
		Solution:    util.SanitizeInput(solution.Solution),
		Explanation: util.SanitizeInput(solution.Explanation),
		Subject:     subject,
		Topic:       util.SanitizeInput(solution.Topic),
		Difficulty:  solution.Difficulty,
		Tags:        tags,
		AIResponse: model.AIResponseMeta{
			SuggestedTags: tags,
			Model:         solution.Model,
			RawFallback:   solution.RawFallback,
		},
	}

	if err := s.Repo.MarkCompleted(sub.ID, result); err != nil {
		return err
	}

	s.audit(model.AuditSubmissionCompleted, sub, "")
	s.recordOutcome(sub.UserID, subject, true)
	return nil
}

func (s *ProblemService) recordOutcome(userID, subject string, solved bool) {
	if s.Progress != nil {
		if err := s.Progress.RecordOutcome(userID, subject, solved); err != nil {
			logger.Log.Warn("record progress failed", zap.String("user", userID), zap.Error(err))
		}
	}
	if solved && s.Achievement != nil {
		if err := s.Achievement.OnProblemSolved(userID); err != nil {
			logger.Log.Warn("achievement check failed", zap.String("user", userID), zap.Error(err))
		}
	}
}

func (s *ProblemService) audit(action model.AuditAction, sub *model.ProblemSubmission, detail string) {
	entry := &model.AuditLog{
		Action:       action,
		SubmissionID: sub.ID,
		UserID:       sub.UserID,
		ContentHash:  sub.ContentHash,
		Detail:       detail,
	}
	if err := s.AuditRepo.Create(entry); err != nil {
		logger.Log.Warn("audit write failed",
			zap.String("submission", sub.ID), zap.String("action", string(action)), zap.Error(err))
	}
}

func (s *ProblemService) cachedSolution(ctx context.Context, contentHash string) *Solution {
	if s.rdb == nil {
		return nil
	}
	data, err := s.rdb.Get(ctx, solutionCacheKey(contentHash)).Result()
	if err != nil {
		return nil
	}
	var solution Solution
	if err := json.Unmarshal([]byte(data), &solution); err != nil {
		return nil
	}
	return &solution
}

func (s *ProblemService) cacheSolution(ctx context.Context, contentHash string, solution *Solution) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(solution)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, solutionCacheKey(contentHash), data, solutionCacheTTL).Err(); err != nil {
		logger.Log.Warn("solution cache write failed", zap.Error(err))
	}
}

func solutionCacheKey(contentHash string) string {
	return fmt.Sprintf("solution:%s", contentHash)
}

// GetStatus 查询提交状态。已登录调用方只能看到自己的行。
func (s *ProblemService) GetStatus(claims *util.Claims, id string) (*model.ProblemSubmission, error) {
	if !util.IsValidUUID(id) {
		return nil, util.ErrInvalidSubmissionID
	}

	if claims != nil {
		sub, err := s.Repo.FindByIDForUser(id, claims.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSubmissionNotFound
		}
		return sub, err
	}

	sub, err := s.Repo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSubmissionNotFound
	}
	return sub, err
}

func (s *ProblemService) History(claims *util.Claims, page, limit int) ([]*model.ProblemSubmission, int64, error) {
	return s.Repo.ListByUser(claims.UserID, page, limit)
}
