package router

import (
	"strings"

	"friendhub/internal/api/handler"
	"friendhub/internal/api/middleware"
	"friendhub/internal/api/response"
	"friendhub/internal/storage"
	"friendhub/internal/web"

	"github.com/gin-gonic/gin"
)

// Options 路由所需的会话与上传配置
type Options struct {
	Sessions      middleware.SessionResolver
	CookieName    string
	MaxUploadSize int64
}

// Setup 注册 JSON 接口、文件转发和页面路由
func Setup(
	r *gin.Engine,
	opts Options,
	authHandler *handler.AuthHandler,
	videoHandler *handler.VideoHandler,
	userHandler *handler.UserHandler,
	mediaHandler *handler.MediaHandler,
	pages *web.Handler,
) {
	r.Use(middleware.LoadSession(opts.Sessions, opts.CookieName))

	bodyLimit := middleware.BodyLimit(opts.MaxUploadSize)

	v1 := r.Group("/api/v1")

	// --- 认证模块 ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)

		authRequired := auth.Group("", middleware.AuthRequired())
		{
			authRequired.POST("/logout", authHandler.Logout)
			authRequired.GET("/me", authHandler.Me)
		}
	}

	// --- 视频模块 ---
	videos := v1.Group("/videos")
	{
		videos.GET("", videoHandler.List)
		videos.GET("/:id", videoHandler.GetDetail)

		videosAuth := videos.Group("", middleware.AuthRequired())
		{
			videosAuth.POST("", bodyLimit, videoHandler.Upload)
			videosAuth.DELETE("/:id", videoHandler.Delete)
		}
	}

	// --- 用户模块 ---
	v1.GET("/users/:username/videos", userHandler.ListVideos)

	// --- 文件 ---
	r.GET("/uploads/:file", mediaHandler.Serve(storage.KindVideo))
	r.GET("/thumbnails/:file", mediaHandler.Serve(storage.KindThumbnail))

	// --- 页面 ---
	loginRequired := middleware.LoginRequired("/login")

	r.GET("/", pages.Index)
	r.GET("/video/:id", pages.Video)
	r.GET("/profile/:username", pages.Profile)
	r.GET("/register", pages.RegisterForm)
	r.POST("/register", pages.Register)
	r.GET("/login", pages.LoginForm)
	r.POST("/login", pages.Login)
	r.GET("/logout", pages.Logout)
	r.GET("/upload", loginRequired, pages.UploadForm)
	r.POST("/upload", loginRequired, bodyLimit, pages.Upload)
	r.POST("/delete/:id", loginRequired, pages.Delete)

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			response.NotFound(c, "接口不存在")
			return
		}
		pages.NotFound(c)
	})
}
