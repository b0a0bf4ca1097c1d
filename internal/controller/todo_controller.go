package controller

import (
	"errors"
	"net/http"
	"strconv"

	"solvelab_backend/internal/service"
	"solvelab_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TodoController struct {
	TodoService *service.TodoService
}

func NewTodoController(todoService *service.TodoService) *TodoController {
	return &TodoController{TodoService: todoService}
}

// List godoc
// @Summary 待办列表
// @Tags 待办
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/todos [get]
func (c *TodoController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	todos, err := c.TodoService.List(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, todos)
}

// Create godoc
// @Summary 创建待办
// @Tags 待办
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.TodoRequest true "待办内容"
// @Success 201 {object} util.Response
// @Router /api/todos [post]
func (c *TodoController) Create(ctx *gin.Context) {
	var req service.TodoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	todo, err := c.TodoService.Create(claims.UserID, &req)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, todo)
}

// Update godoc
// @Summary 更新待办
// @Tags 待办
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "待办ID"
// @Param request body service.TodoRequest true "待办内容"
// @Success 200 {object} util.Response
// @Router /api/todos/{id} [put]
func (c *TodoController) Update(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid todo id")
		return
	}

	var req service.TodoRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	todo, err := c.TodoService.Update(claims.UserID, uint(id), &req)
	if err != nil {
		c.writeTodoError(ctx, err)
		return
	}
	util.Success(ctx, todo)
}

// Toggle godoc
// @Summary 切换待办完成状态
// @Tags 待办
// @Produce json
// @Security BearerAuth
// @Param id path int true "待办ID"
// @Success 200 {object} util.Response
// @Router /api/todos/{id}/toggle [patch]
func (c *TodoController) Toggle(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid todo id")
		return
	}

	claims := util.GetUserFromContext(ctx)
	todo, err := c.TodoService.Toggle(claims.UserID, uint(id))
	if err != nil {
		c.writeTodoError(ctx, err)
		return
	}
	util.Success(ctx, todo)
}

// Delete godoc
// @Summary 删除待办
// @Tags 待办
// @Produce json
// @Security BearerAuth
// @Param id path int true "待办ID"
// @Success 200 {object} util.Response
// @Router /api/todos/{id} [delete]
func (c *TodoController) Delete(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid todo id")
		return
	}

	claims := util.GetUserFromContext(ctx)
	if err := c.TodoService.Delete(claims.UserID, uint(id)); err != nil {
		c.writeTodoError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}

func (c *TodoController) writeTodoError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrTodoNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrTitleRequired):
		util.BadRequest(ctx, err.Error())
	default:
		util.Error(ctx, http.StatusInternalServerError, "Internal server error")
	}
}
