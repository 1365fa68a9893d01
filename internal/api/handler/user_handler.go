package handler

import (
	"errors"

	"friendhub/internal/api/response"
	"friendhub/internal/service"
	"friendhub/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ListVideos 用户主页视频列表
// @Summary 用户视频列表
// @Tags 用户
// @Produce json
// @Param username path string true "用户名"
// @Success 200 {object} response.Response{data=dto.ProfileData} "获取成功"
// @Failure 404 {object} response.ErrorResponse "用户不存在"
// @Router /users/{username}/videos [get]
func (h *UserHandler) ListVideos(c *gin.Context) {
	data, err := h.userService.ListByUploader(c.Param("username"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		logger.Error("List user videos failed", zap.Error(err))
		response.InternalError(c, "获取用户视频失败")
		return
	}

	response.OK(c, "获取成功", data)
}
