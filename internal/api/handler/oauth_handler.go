package handler

import (
	"fmt"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"devfolio/internal/api/middleware"
	"devfolio/internal/model"
	"devfolio/internal/pkg/crypto"
	"devfolio/internal/pkg/jwt"
	"devfolio/internal/pkg/oauth"
	"devfolio/internal/repository"
	"devfolio/internal/service"
	"devfolio/pkg/constants"
	"devfolio/pkg/responses"
)

// 不允许作为登录后跳转目标的地址
var noReturnURLs = []string{
	constants.RedirectSignin,
	constants.RedirectSignup,
}

type OAuthHandler struct {
	registry        oauth.Registry
	identityService service.IdentityService
	authService     service.AuthService
	userRepo        repository.UserRepository
	logger          *zap.Logger
}

func NewOAuthHandler(
	registry oauth.Registry,
	identityService service.IdentityService,
	authService service.AuthService,
	userRepo repository.UserRepository,
	logger *zap.Logger,
) *OAuthHandler {
	return &OAuthHandler{
		registry:        registry,
		identityService: identityService,
		authService:     authService,
		userRepo:        userRepo,
		logger:          logger,
	}
}

// Initiate 发起OAuth授权
// @Summary 发起OAuth授权
// @Description 生成state并跳转到提供方授权页
// @Tags 认证
// @Param provider path string true "提供方名称" Enums(github, google)
// @Param redirect_to query string false "登录后跳转地址"
// @Success 302
// @Router /api/v1/auth/oauth/{provider} [get]
func (h *OAuthHandler) Initiate(c *gin.Context) {
	provider, ok := h.registry.Get(c.Param("provider"))
	if !ok {
		responses.Error(c, responses.ErrUnknownProvider)
		return
	}

	state, err := crypto.RandomToken(16)
	if err != nil {
		responses.Error(c, responses.ErrInternalError)
		return
	}
	c.SetCookie(constants.CookieOAuthState, state, 600, "/", "", false, true)

	// 记录回调后的跳转地址（登录/注册页除外）
	if redirectTo := c.Query("redirect_to"); redirectTo != "" && allowedReturnURL(redirectTo) {
		c.SetCookie(constants.CookieRedirectTo, redirectTo, 600, "/", "", false, true)
	}

	c.Redirect(302, provider.AuthCodeURL(state))
}

// Callback OAuth回调
// @Summary OAuth回调
// @Description 授权码换取档案并解析身份；失败时跳转到登录页并携带错误信息
// @Tags 认证
// @Param provider path string true "提供方名称" Enums(github, google)
// @Success 302
// @Router /api/v1/auth/oauth/{provider}/callback [get]
func (h *OAuthHandler) Callback(c *gin.Context) {
	provider, ok := h.registry.Get(c.Param("provider"))
	if !ok {
		h.redirectSigninError(c, "不支持的认证提供方")
		return
	}

	// state校验
	stateCookie, err := c.Cookie(constants.CookieOAuthState)
	if err != nil || stateCookie == "" || stateCookie != c.Query("state") {
		h.redirectSigninError(c, "state校验失败")
		return
	}
	c.SetCookie(constants.CookieOAuthState, "", -1, "/", "", false, true)

	if errMsg := c.Query("error"); errMsg != "" {
		h.redirectSigninError(c, errMsg)
		return
	}

	profile, err := provider.FetchProfile(c.Request.Context(), c.Query("code"))
	if err != nil {
		h.logger.Warn("OAuth档案获取失败", zap.String("provider", provider.Name()), zap.Error(err))
		h.redirectSigninError(c, "获取外部身份失败")
		return
	}

	// 已登录的用户走绑定流程
	sessionUser := h.sessionUser(c)

	user, redirectHint, err := h.identityService.ResolveOrLink(sessionUser, profile)
	if err != nil {
		if appErr, ok := err.(*responses.AppError); ok {
			h.redirectSigninError(c, appErr.Message)
		} else {
			h.redirectSigninError(c, "身份解析失败")
		}
		return
	}

	resp, err := h.authService.IssueTokens(user)
	if err != nil {
		h.redirectSigninError(c, "登录失败")
		return
	}
	c.SetCookie(constants.CookieAccessToken, resp.AccessToken, resp.ExpiresIn, "/", "", false, true)

	c.Redirect(302, h.popRedirectTarget(c, redirectHint))
}

// sessionUser 从请求Token解析当前登录用户，不存在或无效返回nil
func (h *OAuthHandler) sessionUser(c *gin.Context) *model.User {
	token := middleware.ExtractToken(c)
	if token == "" {
		return nil
	}

	claims, err := jwt.ValidateToken(token)
	if err != nil || claims.Type != constants.JWTTypeAccess {
		return nil
	}

	user, err := h.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil
	}
	return user
}

// popRedirectTarget 回调成功后的跳转地址
// 优先级: 绑定提示 > redirect_to Cookie > 首页
func (h *OAuthHandler) popRedirectTarget(c *gin.Context, redirectHint string) string {
	target := constants.RedirectHome

	if cookie, err := c.Cookie(constants.CookieRedirectTo); err == nil && cookie != "" {
		target = cookie
		c.SetCookie(constants.CookieRedirectTo, "", -1, "/", "", false, true)
	}

	if redirectHint != "" {
		target = redirectHint
	}

	return target
}

func (h *OAuthHandler) redirectSigninError(c *gin.Context, message string) {
	c.Redirect(302, fmt.Sprintf("%s?err=%s", constants.RedirectSignin, url.QueryEscape(message)))
}

func allowedReturnURL(target string) bool {
	for _, blocked := range noReturnURLs {
		if target == blocked {
			return false
		}
	}
	return true
}
