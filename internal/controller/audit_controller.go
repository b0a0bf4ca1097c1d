package controller

import (
	"strconv"

	"solvelab_backend/internal/repository"
	"solvelab_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuditController struct {
	AuditRepo *repository.AuditRepository
}

func NewAuditController(auditRepo *repository.AuditRepository) *AuditController {
	return &AuditController{AuditRepo: auditRepo}
}

// List godoc
// @Summary 审计日志
// @Description 管理端：提交生命周期审计记录（含内容指纹）
// @Tags 管理
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/audit-logs [get]
func (c *AuditController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	entries, total, err := c.AuditRepo.List(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  entries,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}
