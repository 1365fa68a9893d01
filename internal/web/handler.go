package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"friendhub/internal/api/dto"
	"friendhub/internal/api/middleware"
	"friendhub/internal/config"
	"friendhub/internal/service"
	"friendhub/internal/storage"
	"friendhub/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 页面路由
type Handler struct {
	auth     *service.AuthService
	videos   *service.VideoService
	users    *service.UserService
	renderer *Renderer
	flashes  *flashStore

	sessionCfg *config.SessionConfig
	uploadCfg  *config.UploadConfig
	webCfg     *config.WebConfig
}

func NewHandler(
	auth *service.AuthService,
	videos *service.VideoService,
	users *service.UserService,
	renderer *Renderer,
	sessionCfg *config.SessionConfig,
	uploadCfg *config.UploadConfig,
	webCfg *config.WebConfig,
) *Handler {
	return &Handler{
		auth:       auth,
		videos:     videos,
		users:      users,
		renderer:   renderer,
		flashes:    newFlashStore(sessionCfg.Secret, sessionCfg.Secure),
		sessionCfg: sessionCfg,
		uploadCfg:  uploadCfg,
		webCfg:     webCfg,
	}
}

func (h *Handler) layout(c *gin.Context, title string) Layout {
	username, _ := middleware.GetCurrentUsername(c)
	return Layout{
		Title:       title,
		CurrentUser: username,
		Flashes:     h.flashes.pop(c),
		Query:       c.Query("q"),
		Category:    c.Query("category"),
		Categories:  h.webCfg.Categories,
	}
}

func (h *Handler) renderError(c *gin.Context, status int, message string) {
	h.renderer.Render(c, status, "error", ErrorPage{
		Layout:  h.layout(c, http.StatusText(status)),
		Status:  status,
		Message: message,
	})
}

// internalError 记录日志后渲染通用错误页
func (h *Handler) internalError(c *gin.Context, logMsg string, err error) {
	logger.Error(logMsg, zap.String("path", c.Request.URL.Path), zap.Error(err))
	h.renderError(c, http.StatusInternalServerError, "服务器内部错误，请稍后重试")
}

// Index GET / 视频列表与搜索
func (h *Handler) Index(c *gin.Context) {
	req := dto.VideoListRequest{Q: c.Query("q"), Category: c.Query("category")}
	data, err := h.videos.List(c.Request.Context(), &req)
	if err != nil {
		h.internalError(c, "List videos failed", err)
		return
	}

	heading := "热门视频"
	if req.Q != "" || req.Category != "" {
		heading = fmt.Sprintf("搜索结果（%d）", data.Total)
	}

	h.renderer.Render(c, http.StatusOK, "home", HomePage{
		Layout:  h.layout(c, "首页"),
		Heading: heading,
		Videos:  newVideoCards(data.Videos, h.webCfg.PlaceholderThumbnail),
	})
}

// Video GET /video/:id 视频页，每次访问播放量 +1
func (h *Handler) Video(c *gin.Context) {
	info, err := h.videos.GetDetail(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrVideoNotFound) {
			h.renderError(c, http.StatusNotFound, err.Error())
			return
		}
		h.internalError(c, "Get video detail failed", err)
		return
	}

	username, _ := middleware.GetCurrentUsername(c)
	h.renderer.Render(c, http.StatusOK, "video", VideoPage{
		Layout: h.layout(c, info.Title),
		Video: VideoDetail{
			VideoCard:   newVideoCard(info, h.webCfg.PlaceholderThumbnail),
			Description: info.Description,
			VideoURL:    info.VideoURL,
			ContentType: storage.ContentTypeByName(info.Filename),
			LikeCount:   info.LikeCount,
		},
		CanDelete: username != "" && username == info.Uploader,
	})
}

func (h *Handler) renderUpload(c *gin.Context, status int, form UploadForm, errMsg string) {
	page := UploadPage{
		Layout:    h.layout(c, "上传视频"),
		Form:      form,
		Accept:    strings.Join(h.uploadCfg.AllowedExts, ","),
		MaxSizeMB: h.uploadCfg.MaxSize >> 20,
	}
	if errMsg != "" {
		page.Flashes = append(page.Flashes, Flash{Kind: "error", Message: errMsg})
	}
	h.renderer.Render(c, status, "upload", page)
}

// UploadForm GET /upload
func (h *Handler) UploadForm(c *gin.Context) {
	h.renderUpload(c, http.StatusOK, UploadForm{}, "")
}

// Upload POST /upload
func (h *Handler) Upload(c *gin.Context) {
	tooLarge := fmt.Sprintf("文件超过上传大小上限（%d MB）", h.uploadCfg.MaxSize>>20)

	// 先触发 multipart 解析，超出 BodyLimit 时 PostForm 会静默返回空值
	if _, err := c.MultipartForm(); err != nil {
		if middleware.IsBodyTooLarge(err) {
			h.renderUpload(c, http.StatusRequestEntityTooLarge, UploadForm{}, tooLarge)
			return
		}
		h.renderUpload(c, http.StatusBadRequest, UploadForm{}, "请选择要上传的视频文件")
		return
	}

	form := UploadForm{
		Title:       c.PostForm("title"),
		Category:    c.PostForm("category"),
		Description: c.PostForm("description"),
	}

	file, err := c.FormFile("file")
	if err != nil {
		h.renderUpload(c, http.StatusBadRequest, form, "请选择要上传的视频文件")
		return
	}
	f, err := file.Open()
	if err != nil {
		h.internalError(c, "Open uploaded file failed", err)
		return
	}
	defer f.Close()

	username, _ := middleware.GetCurrentUsername(c)
	req := &dto.VideoUploadRequest{Title: form.Title, Category: form.Category, Description: form.Description}
	if _, err := h.videos.Upload(c.Request.Context(), username, req, file.Filename, f, file.Size); err != nil {
		switch {
		case service.IsValidationError(err):
			h.renderUpload(c, http.StatusBadRequest, form, err.Error())
		case errors.Is(err, service.ErrFileTooLarge):
			h.renderUpload(c, http.StatusRequestEntityTooLarge, form, tooLarge)
		case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrUserNotFound):
			c.Redirect(http.StatusFound, "/login")
		default:
			h.internalError(c, "Upload video failed", err)
		}
		return
	}

	h.flashes.add(c, "success", "视频上传成功！")
	c.Redirect(http.StatusFound, "/")
}

// Delete POST /delete/:id 仅上传者可删除
func (h *Handler) Delete(c *gin.Context) {
	username, _ := middleware.GetCurrentUsername(c)

	err := h.videos.Delete(c.Request.Context(), c.Param("id"), username)
	switch {
	case err == nil:
		h.flashes.add(c, "success", "视频已删除")
		c.Redirect(http.StatusFound, "/profile/"+username)
	case errors.Is(err, service.ErrVideoNotFound):
		h.renderError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrVideoNoPermission):
		h.renderError(c, http.StatusForbidden, err.Error())
	default:
		h.internalError(c, "Delete video failed", err)
	}
}

// Profile GET /profile/:username
func (h *Handler) Profile(c *gin.Context) {
	data, err := h.users.ListByUploader(c.Param("username"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			h.renderError(c, http.StatusNotFound, err.Error())
			return
		}
		h.internalError(c, "List user videos failed", err)
		return
	}

	h.renderer.Render(c, http.StatusOK, "profile", ProfilePage{
		Layout:   h.layout(c, data.User.Username+" 的主页"),
		Username: data.User.Username,
		Videos:   newVideoCards(data.Videos, h.webCfg.PlaceholderThumbnail),
	})
}

func (h *Handler) renderAuth(c *gin.Context, status int, page AuthPage, errMsg string) {
	page.Layout = h.layout(c, page.Heading)
	if errMsg != "" {
		page.Flashes = append(page.Flashes, Flash{Kind: "error", Message: errMsg})
	}
	h.renderer.Render(c, status, "auth", page)
}

func registerPage(username string) AuthPage {
	return AuthPage{Heading: "注册", Action: "/register", Submit: "创建账号", Username: username}
}

func loginPage(username, next string) AuthPage {
	return AuthPage{Heading: "登录", Action: "/login", Submit: "登录", Username: username, Next: next}
}

// RegisterForm GET /register
func (h *Handler) RegisterForm(c *gin.Context) {
	h.renderAuth(c, http.StatusOK, registerPage(""), "")
}

// Register POST /register
func (h *Handler) Register(c *gin.Context) {
	req := dto.RegisterRequest{Username: c.PostForm("username"), Password: c.PostForm("password")}

	if _, err := h.auth.Register(&req); err != nil {
		switch {
		case service.IsValidationError(err):
			h.renderAuth(c, http.StatusBadRequest, registerPage(req.Username), err.Error())
		case errors.Is(err, service.ErrUsernameExists):
			h.renderAuth(c, http.StatusConflict, registerPage(req.Username), err.Error())
		default:
			h.internalError(c, "Register failed", err)
		}
		return
	}

	h.flashes.add(c, "success", "账号已创建，请登录")
	c.Redirect(http.StatusFound, "/login")
}

// LoginForm GET /login
func (h *Handler) LoginForm(c *gin.Context) {
	next := safeNext(c.Query("next"))
	errMsg := ""
	if next != "" {
		errMsg = "请先登录"
	}
	h.renderAuth(c, http.StatusOK, loginPage("", next), errMsg)
}

// Login POST /login
func (h *Handler) Login(c *gin.Context) {
	req := dto.LoginRequest{Username: c.PostForm("username"), Password: c.PostForm("password")}
	next := safeNext(c.PostForm("next"))

	data, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredential) {
			h.renderAuth(c, http.StatusUnauthorized, loginPage(req.Username, next), err.Error())
			return
		}
		h.internalError(c, "Login failed", err)
		return
	}

	middleware.SetSessionCookie(c, h.sessionCfg.CookieName, data.Token, data.ExpiresAt, h.sessionCfg.Secure)
	h.flashes.add(c, "success", "登录成功")
	if next == "" {
		next = "/"
	}
	c.Redirect(http.StatusFound, next)
}

// Logout GET /logout
func (h *Handler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), middleware.GetSessionID(c)); err != nil {
		logger.Warn("Logout failed", zap.Error(err))
	}
	middleware.ClearSessionCookie(c, h.sessionCfg.CookieName, h.sessionCfg.Secure)
	h.flashes.add(c, "success", "已退出登录")
	c.Redirect(http.StatusFound, "/")
}

// NotFound 未匹配的页面路由
func (h *Handler) NotFound(c *gin.Context) {
	h.renderError(c, http.StatusNotFound, "页面不存在")
}

// safeNext 只允许站内相对路径，防止开放重定向
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return ""
	}
	return next
}
