package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse 定义错误响应结构
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Error   string    `json:"error,omitempty"`
}

// SuccessResponse 定义成功响应结构
type SuccessResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// 错误码与HTTP状态码映射
var errorStatusMap = map[ErrorCode]int{
	// 系统错误 (1000-1999)
	ErrInternal: http.StatusInternalServerError,
	ErrDatabase: http.StatusInternalServerError,
	ErrTimeout:  http.StatusRequestTimeout,

	// 认证错误 (2000-2999)
	ErrUnauthorized:       http.StatusUnauthorized,
	ErrForbidden:          http.StatusForbidden,
	ErrInvalidToken:       http.StatusUnauthorized,
	ErrInvalidCredentials: http.StatusUnauthorized,

	// 请求错误 (3000-3999)
	ErrBadRequest:       http.StatusBadRequest,
	ErrValidation:       http.StatusBadRequest,
	ErrResourceNotFound: http.StatusNotFound,
	ErrResourceExists:   http.StatusConflict,
	ErrInvalidState:     http.StatusConflict,
	ErrDuplicate:        http.StatusConflict,
}

// StatusOf 返回错误码对应的HTTP状态码
func StatusOf(code ErrorCode) int {
	if status, ok := errorStatusMap[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// HandleError 统一处理错误响应，并把错误挂到 gin 上下文供监控中间件统计
func HandleError(c *gin.Context, err error) {
	_ = c.Error(err)

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		resp := ErrorResponse{
			Code:    appErr.Code,
			Message: appErr.Message,
		}
		// 内部错误不向客户端暴露底层细节
		if appErr.Err != nil && StatusOf(appErr.Code) < http.StatusInternalServerError {
			resp.Error = appErr.Err.Error()
		}

		c.JSON(StatusOf(appErr.Code), resp)
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Code:    ErrInternal,
		Message: "Internal Server Error",
	})
}

// HandleSuccess 统一处理成功响应
func HandleSuccess(c *gin.Context, status int, data interface{}, message string) {
	resp := SuccessResponse{
		Code:    status,
		Message: message,
		Data:    data,
	}
	c.JSON(status, resp)
}
