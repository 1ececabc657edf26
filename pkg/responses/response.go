package responses

import (
	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Detail  string      `json:"detail,omitempty"` // 详细错误信息（可选）
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
// 业务错误码映射为HTTP状态码（400/401等），message保持可读
func Error(c *gin.Context, err error) {
	if appErr, ok := err.(*AppError); ok {
		c.JSON(httpStatus(appErr.Code), Response{
			Code:    appErr.Code,
			Message: appErr.Message,
		})
		return
	}

	c.JSON(500, Response{
		Code:    CodeInternalError,
		Message: err.Error(),
	})
}

// ErrorWithCode 自定义错误响应
func ErrorWithCode(c *gin.Context, code int, message string) {
	c.JSON(httpStatus(code), Response{
		Code:    code,
		Message: message,
	})
}

// ErrorWithDetail 带详细信息的错误响应
func ErrorWithDetail(c *gin.Context, code int, message, detail string) {
	c.JSON(httpStatus(code), Response{
		Code:    code,
		Message: message,
		Detail:  detail,
	})
}

// httpStatus 业务错误码 → HTTP状态码
// 认证类错误（CodeAuthError）对外表现为400，与登录接口的约定一致
func httpStatus(code int) int {
	switch {
	case code >= 100 && code < 600:
		// 直接传入HTTP状态码的场景
		return code
	case code == CodeSuccess:
		return 200
	case code == CodeUnauthorized || code/10000 == 401:
		return 401
	case code == CodeAuthError || code == CodeValidationError:
		return 400
	case code/10000 == 400 || code/10000 == 409:
		return 400
	case code/10000 == 403:
		return 403
	case code/10000 == 404:
		return 404
	default:
		return 500
	}
}
