package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/solidrange/solidrange-form-flow-sub000/pkg/types"
)

// APIError API 错误
type APIError struct {
	Code    int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	return e.Message
}

// ErrorHandlerMiddleware 错误处理中间件
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()

			var apiErr *APIError
			if errors.As(err, &apiErr) {
				Error(c, apiErr.Code, apiErr.Message, apiErr.Detail)
			} else {
				Error(c, http.StatusInternalServerError, "internal server error", err.Error())
			}
		}
	}
}

// WrapError 包装错误
func WrapError(err error, code int, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Detail:  err.Error(),
	}
}

// ServiceError 将服务层错误映射为 HTTP 错误响应
// 根据核心错误类型选择状态码:
//   - NotFoundError      -> 404
//   - TransitionError    -> 409 (状态机拒绝转换)
//   - ConfigurationError -> 400 (表单/请求配置非法)
//   - NotificationError  -> 502 (下游通知渠道失败)
//   - 其他               -> 500
func ServiceError(c *gin.Context, err error, operation string) {
	var notFound *types.NotFoundError
	if errors.As(err, &notFound) {
		Error(c, http.StatusNotFound, notFound.Resource+" not found", err.Error())
		return
	}

	var transition *types.TransitionError
	if errors.As(err, &transition) {
		Error(c, http.StatusConflict, "transition not allowed", err.Error())
		return
	}

	var configuration *types.ConfigurationError
	if errors.As(err, &configuration) {
		Error(c, http.StatusBadRequest, "invalid configuration", err.Error())
		return
	}

	var notification *types.NotificationError
	if errors.As(err, &notification) {
		Error(c, http.StatusBadGateway, "notification delivery failed", err.Error())
		return
	}

	Error(c, http.StatusInternalServerError, "failed to "+operation, err.Error())
}
