package util

import "errors"

var (
	ErrUserNotFound        = errors.New("用户不存在")
	ErrEmailRegistered     = errors.New("该邮箱已被注册")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrInvalidSubmissionID = errors.New("invalid submission id")
	ErrInvalidUserID       = errors.New("invalid user id")
	ErrTitleRequired       = errors.New("title is required")
	ErrContentRequired     = errors.New("problem content is required")
	ErrInvalidInputType    = errors.New("invalid input type")
	ErrIllegalTransition   = errors.New("illegal status transition")
	ErrAINotConfigured     = errors.New("AI service is not configured")
	ErrTodoNotFound        = errors.New("todo not found")
)
