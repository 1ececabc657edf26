package handler

import (
	"github.com/gin-gonic/gin"

	"devfolio/internal/api/middleware"
	"devfolio/internal/dto"
	"devfolio/internal/service"
	"devfolio/pkg/responses"
	"devfolio/pkg/utils"
)

type RepositoryHandler struct {
	repositoryService service.RepositoryService
	mirror            service.MirrorEnqueuer
}

func NewRepositoryHandler(repositoryService service.RepositoryService, mirror service.MirrorEnqueuer) *RepositoryHandler {
	return &RepositoryHandler{
		repositoryService: repositoryService,
		mirror:            mirror,
	}
}

// List 查询当前用户的代码库镜像
// @Summary 代码库镜像列表
// @Description 分页查询当前用户已同步的代码库
// @Tags 代码库
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param keyword query string false "名称模糊匹配"
// @Success 200 {object} dto.PageResponse
// @Router /api/v1/repositories [get]
func (h *RepositoryHandler) List(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		responses.ErrorWithCode(c, 401, "未登录")
		return
	}

	var query dto.RepositoryListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		responses.ErrorWithDetail(c, 400, "请求参数错误", utils.FormatValidationError(err))
		return
	}

	resp, err := h.repositoryService.ListByUser(userID, &query)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, resp)
}

// SyncNow 手动触发同步
// @Summary 手动触发代码库同步
// @Description 为当前用户投递一次镜像同步任务（异步执行）
// @Tags 代码库
// @Produce json
// @Security BearerAuth
// @Success 200 {object} responses.Response
// @Router /api/v1/repositories/sync [post]
func (h *RepositoryHandler) SyncNow(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		responses.ErrorWithCode(c, 401, "未登录")
		return
	}

	h.mirror.Enqueue(userID)
	responses.Success(c, nil)
}
