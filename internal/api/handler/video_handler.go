package handler

import (
	"errors"
	"fmt"

	"friendhub/internal/api/dto"
	"friendhub/internal/api/middleware"
	"friendhub/internal/api/response"
	"friendhub/internal/service"
	"friendhub/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type VideoHandler struct {
	videoService *service.VideoService
	maxSize      int64
}

func NewVideoHandler(videoService *service.VideoService, maxSize int64) *VideoHandler {
	return &VideoHandler{videoService: videoService, maxSize: maxSize}
}

// Upload 上传视频
// @Summary 上传视频
// @Description 上传视频文件，服务端尽力截取缩略图
// @Tags 视频
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "标题"
// @Param category formData string false "分类"
// @Param description formData string false "描述"
// @Param file formData file true "视频文件"
// @Success 201 {object} response.Response{data=dto.VideoInfo} "上传成功"
// @Failure 400 {object} response.ErrorResponse "请求参数无效"
// @Failure 401 {object} response.ErrorResponse "未登录"
// @Failure 413 {object} response.ErrorResponse "文件过大"
// @Router /videos [post]
func (h *VideoHandler) Upload(c *gin.Context) {
	var req dto.VideoUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		if middleware.IsBodyTooLarge(err) {
			h.tooLarge(c)
			return
		}
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			h.tooLarge(c)
			return
		}
		response.BadRequest(c, "请选择要上传的视频文件")
		return
	}

	f, err := file.Open()
	if err != nil {
		logger.Error("Open uploaded file failed", zap.Error(err))
		response.InternalError(c, "打开上传文件失败")
		return
	}
	defer f.Close()

	username, _ := middleware.GetCurrentUsername(c)
	info, err := h.videoService.Upload(c.Request.Context(), username, &req, file.Filename, f, file.Size)
	if err != nil {
		if errors.Is(err, service.ErrFileTooLarge) {
			h.tooLarge(c)
			return
		}
		handleVideoError(c, err, "Upload video failed")
		return
	}

	response.Created(c, "视频上传成功", info)
}

func (h *VideoHandler) tooLarge(c *gin.Context) {
	response.TooLarge(c, fmt.Sprintf("文件超过上传大小上限（%d MB）", h.maxSize>>20))
}

// List 视频列表
// @Summary 视频列表
// @Description 按关键词（标题或描述，大小写不敏感）和分类（精确匹配）筛选，最新的在前，不分页
// @Tags 视频
// @Produce json
// @Param q query string false "关键词"
// @Param category query string false "分类"
// @Success 200 {object} response.Response{data=dto.VideoListData} "获取成功"
// @Router /videos [get]
func (h *VideoHandler) List(c *gin.Context) {
	var req dto.VideoListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "请求参数无效: "+err.Error())
		return
	}

	data, err := h.videoService.List(c.Request.Context(), &req)
	if err != nil {
		handleVideoError(c, err, "List videos failed")
		return
	}

	response.OK(c, "获取视频列表成功", data)
}

// GetDetail 视频详情（每次请求播放量 +1）
// @Summary 视频详情
// @Tags 视频
// @Produce json
// @Param id path string true "视频ID"
// @Success 200 {object} response.Response{data=dto.VideoInfo} "获取成功"
// @Failure 404 {object} response.ErrorResponse "视频不存在"
// @Router /videos/{id} [get]
func (h *VideoHandler) GetDetail(c *gin.Context) {
	info, err := h.videoService.GetDetail(c.Param("id"))
	if err != nil {
		handleVideoError(c, err, "Get video detail failed")
		return
	}

	response.OK(c, "获取视频详情成功", info)
}

// Delete 删除视频（仅上传者）
// @Summary 删除视频
// @Tags 视频
// @Produce json
// @Security BearerAuth
// @Param id path string true "视频ID"
// @Success 200 {object} response.Response "删除成功"
// @Failure 401 {object} response.ErrorResponse "未登录"
// @Failure 403 {object} response.ErrorResponse "无权删除"
// @Failure 404 {object} response.ErrorResponse "视频不存在"
// @Router /videos/{id} [delete]
func (h *VideoHandler) Delete(c *gin.Context) {
	username, _ := middleware.GetCurrentUsername(c)

	if err := h.videoService.Delete(c.Request.Context(), c.Param("id"), username); err != nil {
		handleVideoError(c, err, "Delete video failed")
		return
	}

	response.OK(c, "视频已删除", nil)
}

func handleVideoError(c *gin.Context, err error, logMsg string) {
	switch {
	case service.IsValidationError(err):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrUserNotFound):
		response.Unauthorized(c, service.ErrUnauthenticated.Error())
	case errors.Is(err, service.ErrVideoNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrVideoNoPermission):
		response.Forbidden(c, err.Error())
	default:
		logger.Error(logMsg, zap.Error(err))
		response.InternalError(c, "服务器内部错误，请稍后重试")
	}
}
