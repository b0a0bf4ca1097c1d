package client

import "fmt"

// ErrorCategory 客户端错误分类，UI 层据此选择提示文案
type ErrorCategory string

const (
	ErrValidation      ErrorCategory = "validation"       // 本地校验失败，未发起网络请求
	ErrAuthentication  ErrorCategory = "unauthenticated"  // 未登录或身份无效
	ErrTokenExpired    ErrorCategory = "token_expired"    // 凭证过期，需要重新登录
	ErrForbidden       ErrorCategory = "forbidden"        // 无权访问该记录
	ErrNotFound        ErrorCategory = "not_found"        // 记录不存在
	ErrUnavailable     ErrorCategory = "unavailable"      // 服务不可用或网络失败
	ErrFormat          ErrorCategory = "format"           // 响应格式不符合约定
	ErrTimeout         ErrorCategory = "timeout"          // 轮询超过最大次数仍未到终态
	ErrProcessingError ErrorCategory = "processing_error" // 服务端处理以 error 终态结束
)

// Error 带分类的客户端错误
type Error struct {
	Category ErrorCategory
	Message  string
	Detail   string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

func newError(category ErrorCategory, message, detail string) *Error {
	return &Error{Category: category, Message: message, Detail: detail}
}

// CategoryOf 取出错误分类，非 *Error 一律归为 unavailable
func CategoryOf(err error) ErrorCategory {
	if e, ok := err.(*Error); ok {
		return e.Category
	}
	return ErrUnavailable
}
