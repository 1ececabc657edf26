package handler

import (
	"github.com/gin-gonic/gin"

	"devfolio/internal/dto"
	"devfolio/internal/service"
	"devfolio/pkg/constants"
	"devfolio/pkg/responses"
	"devfolio/pkg/utils"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Signup 本地注册
// @Summary 用户注册
// @Description 创建本地账号并签发Token
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body dto.SignupRequest true "注册请求"
// @Success 200 {object} dto.LoginResponse
// @Router /api/v1/auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.authService.Signup(&req)
	if err != nil {
		responses.Error(c, err)
		return
	}

	setTokenCookie(c, resp.AccessToken, resp.ExpiresIn)
	responses.Success(c, resp)
}

// Signin 登录
// @Summary 用户登录
// @Description 支持LDAP和本地用户登录
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "登录请求"
// @Success 200 {object} dto.LoginResponse
// @Router /api/v1/auth/signin [post]
func (h *AuthHandler) Signin(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.authService.Signin(&req)
	if err != nil {
		responses.Error(c, err)
		return
	}

	setTokenCookie(c, resp.AccessToken, resp.ExpiresIn)
	responses.Success(c, resp)
}

// Signout 退出登录
// @Summary 退出登录
// @Description 清除会话Cookie
// @Tags 认证
// @Produce json
// @Success 200 {object} responses.Response
// @Router /api/v1/auth/signout [post]
func (h *AuthHandler) Signout(c *gin.Context) {
	c.SetCookie(constants.CookieAccessToken, "", -1, "/", "", false, true)
	responses.Success(c, nil)
}

// Refresh 刷新Token
// @Summary 刷新访问Token
// @Description 使用RefreshToken获取新的AccessToken
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "刷新Token请求"
// @Success 200 {object} dto.LoginResponse
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.authService.RefreshToken(req.RefreshToken)
	if err != nil {
		responses.Error(c, err)
		return
	}

	setTokenCookie(c, resp.AccessToken, resp.ExpiresIn)
	responses.Success(c, resp)
}

// GetMe 获取当前用户信息
// @Summary 获取当前用户信息
// @Description 从JWT Token中获取当前登录用户信息
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserInfo
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	// 从context中获取用户信息(由认证中间件设置)
	userInfo, exists := c.Get("user")
	if !exists {
		responses.ErrorWithCode(c, 401, "未登录")
		return
	}

	responses.Success(c, userInfo)
}

// Verify 验证Token
// @Summary 验证Token有效性
// @Description 验证Token是否有效(内部API)
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserInfo
// @Router /api/v1/auth/verify [get]
func (h *AuthHandler) Verify(c *gin.Context) {
	userInfo, exists := c.Get("user")
	if !exists {
		responses.ErrorWithCode(c, 401, "未登录")
		return
	}

	responses.Success(c, userInfo)
}

// setTokenCookie 浏览器会话Cookie，供OAuth跳转后的页面复用
func setTokenCookie(c *gin.Context, token string, maxAge int) {
	c.SetCookie(constants.CookieAccessToken, token, maxAge, "/", "", false, true)
}
