package controller

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"solvelab_backend/internal/model"
	"solvelab_backend/internal/service"
	"solvelab_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// 语音文件限制
const (
	maxVoiceSize     = 20 << 20 // 20MB
	maxVoiceDuration = 300.0    // 5分钟
)

type ProblemController struct {
	ProblemService *service.ProblemService
	Storage        *service.StorageService
}

func NewProblemController(problemService *service.ProblemService, storage *service.StorageService) *ProblemController {
	return &ProblemController{
		ProblemService: problemService,
		Storage:        storage,
	}
}

// statusError GET 状态接口的错误信封，error 字段是稳定的机器码，
// 客户端据此映射用户提示
type statusError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Submit godoc
// @Summary 提交题目
// @Description 接收文字/图片/语音题目，创建提交记录并异步调用 AI 解题
// @Tags 解题
// @Accept json
// @Produce json
// @Param request body service.SubmitRequest true "题目内容"
// @Success 200 {object} service.SubmitEnvelope
// @Failure 400 {object} service.SubmitEnvelope "参数错误"
// @Failure 503 {object} service.SubmitEnvelope "AI 服务未配置"
// @Router /api/problems/submit [post]
func (c *ProblemController) Submit(ctx *gin.Context) {
	var req service.SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, service.SubmitEnvelope{
			Success: false,
			Error:   "invalid request",
			Details: err.Error(),
		})
		return
	}

	claims := util.GetUserFromContext(ctx)
	envelope, err := c.ProblemService.Submit(ctx.Request.Context(), claims, &req)

	if err != nil {
		switch {
		case errors.Is(err, util.ErrAINotConfigured):
			// 记录已标记为 error，信封带着 problemId 返回
			ctx.JSON(http.StatusServiceUnavailable, envelope)
		case errors.Is(err, util.ErrTitleRequired),
			errors.Is(err, util.ErrContentRequired),
			errors.Is(err, util.ErrInvalidInputType),
			errors.Is(err, util.ErrInvalidUserID),
			errors.Is(err, util.ErrInvalidSubmissionID):
			ctx.JSON(http.StatusBadRequest, service.SubmitEnvelope{
				Success: false,
				Error:   "validation failed",
				Details: err.Error(),
			})
		default:
			ctx.JSON(http.StatusInternalServerError, service.SubmitEnvelope{
				Success: false,
				Error:   "internal error",
			})
		}
		return
	}

	ctx.JSON(http.StatusOK, envelope)
}

// GetStatus godoc
// @Summary 查询提交状态
// @Description 轮询接口：返回提交记录当前状态，已登录用户只能看到自己的记录
// @Tags 解题
// @Produce json
// @Param id path string true "提交ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} statusError "ID 格式错误"
// @Failure 404 {object} statusError "记录不存在"
// @Router /api/problems/{id} [get]
func (c *ProblemController) GetStatus(ctx *gin.Context) {
	id := ctx.Param("id")
	claims := util.GetUserFromContext(ctx)

	sub, err := c.ProblemService.GetStatus(claims, id)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidSubmissionID):
			ctx.JSON(http.StatusBadRequest, statusError{Error: "invalid_id", Details: "submission id must be a UUID"})
		case errors.Is(err, util.ErrSubmissionNotFound):
			ctx.JSON(http.StatusNotFound, statusError{Error: "not_found", Details: "submission not found or not accessible"})
		default:
			ctx.JSON(http.StatusInternalServerError, statusError{Error: "internal", Details: "status check failed"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"problem": sub,
	})
}

// History godoc
// @Summary 提交历史
// @Tags 解题
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/problems [get]
func (c *ProblemController) History(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	subs, total, err := c.ProblemService.History(claims, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  subs,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// UploadVoice godoc
// @Summary 上传语音题目文件
// @Description 校验音频流和时长后存储，返回 voice_url 供提交接口使用
// @Tags 解题
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "语音文件"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /api/problems/voice [post]
func (c *ProblemController) UploadVoice(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	if file.Size > maxVoiceSize {
		util.BadRequest(ctx, "voice file too large")
		return
	}

	// 先落到临时文件，ffprobe 需要路径
	tmpPath := filepath.Join(os.TempDir(), fmt.Sprintf("voice_%s%s", model.GenerateUUID(), filepath.Ext(file.Filename)))
	if err := ctx.SaveUploadedFile(file, tmpPath); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer os.Remove(tmpPath)

	info, err := util.GetAudioInfo(tmpPath)
	if err != nil {
		util.BadRequest(ctx, "not a valid audio file")
		return
	}
	if info.Duration > maxVoiceDuration {
		util.BadRequest(ctx, "voice recording too long")
		return
	}

	src, err := os.Open(tmpPath)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer src.Close()

	filename := fmt.Sprintf("voice/%s%s", model.GenerateUUID(), filepath.Ext(file.Filename))
	url, err := c.Storage.Upload(ctx.Request.Context(), filename, src, info.Size, "audio/"+info.Codec)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"voiceUrl": url,
		"duration": info.Duration,
	})
}
