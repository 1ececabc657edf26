package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"devfolio/internal/dto"
	"devfolio/internal/pkg/jwt"
	"devfolio/pkg/constants"
	"devfolio/pkg/responses"
)

// AuthMiddleware JWT认证中间件
// Token优先取Authorization Header，其次取Cookie（OAuth回调后的浏览器会话）
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c)
		if token == "" {
			responses.ErrorWithCode(c, 401, "未登录")
			c.Abort()
			return
		}

		// 验证Token
		claims, err := jwt.ValidateToken(token)
		if err != nil {
			responses.Error(c, err)
			c.Abort()
			return
		}

		// 检查Token类型(必须是AccessToken)
		if claims.Type != constants.JWTTypeAccess {
			responses.ErrorWithCode(c, 401, "无效的Token类型")
			c.Abort()
			return
		}

		// 将用户信息存入context
		userInfo := &dto.UserInfo{
			UserID:      claims.UserID,
			Username:    claims.Username,
			Email:       claims.Email,
			DisplayName: claims.DisplayName,
			Provider:    claims.Provider,
		}
		c.Set("user", userInfo)
		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)

		c.Next()
	}
}

// ExtractToken 从请求中提取AccessToken
func ExtractToken(c *gin.Context) string {
	authHeader := c.GetHeader(constants.HeaderAuthorization)
	if strings.HasPrefix(authHeader, constants.HeaderBearerPrefix) {
		return strings.TrimPrefix(authHeader, constants.HeaderBearerPrefix)
	}

	if cookie, err := c.Cookie(constants.CookieAccessToken); err == nil {
		return cookie
	}

	return ""
}

// CurrentUserID 从context取当前用户ID
func CurrentUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
