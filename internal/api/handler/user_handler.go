package handler

import (
	"github.com/gin-gonic/gin"

	"devfolio/internal/api/middleware"
	"devfolio/internal/service"
	"devfolio/pkg/responses"
)

type UserHandler struct {
	identityService service.IdentityService
}

func NewUserHandler(identityService service.IdentityService) *UserHandler {
	return &UserHandler{
		identityService: identityService,
	}
}

// RemoveProvider 解绑附加认证提供方
// @Summary 解绑附加认证提供方
// @Description 从当前账号移除一个已绑定的附加提供方
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Param provider query string true "提供方名称"
// @Success 200 {object} responses.Response
// @Router /api/v1/users/providers [delete]
func (h *UserHandler) RemoveProvider(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		responses.ErrorWithCode(c, 401, "未登录")
		return
	}

	provider := c.Query("provider")
	if provider == "" {
		responses.ErrorWithCode(c, 400, "缺少provider参数")
		return
	}

	user, err := h.identityService.RemoveProvider(userID, provider)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, user)
}
