package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"friendhub/internal/api/handler"
	"friendhub/internal/api/middleware"
	"friendhub/internal/api/router"
	"friendhub/internal/config"
	"friendhub/internal/infra/database"
	infraES "friendhub/internal/infra/elasticsearch"
	infraKafka "friendhub/internal/infra/kafka"
	infraMinio "friendhub/internal/infra/minio"
	infraRedis "friendhub/internal/infra/redis"
	"friendhub/internal/model"
	"friendhub/internal/repository"
	"friendhub/internal/service"
	"friendhub/internal/session"
	"friendhub/internal/storage"
	"friendhub/internal/thumbnail"
	"friendhub/internal/web"
	"friendhub/pkg/logger"
	"friendhub/pkg/utils"

	_ "friendhub/api/openapi"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title FriendHub API
// @version 1.0
// @description FriendHub 视频分享站点 JSON 接口

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description 输入格式: Bearer {token}

func main() {
	configPath := os.Getenv("FRIENDHUB_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	// 加载配置文件（不存在时使用默认值和环境变量）
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 初始化日志系统
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.FilePath); err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	// 初始化数据库
	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal("Failed to init database", zap.Error(err))
	}
	defer database.Close()

	if err := database.AutoMigrate(database.Get(), &model.User{}, &model.Video{}); err != nil {
		logger.Fatal("Failed to auto migrate", zap.Error(err))
	}
	if n, err := repository.NewVideoRepository(database.Get()).RefoldSearchColumns(); err != nil {
		logger.Fatal("Failed to backfill search columns", zap.Error(err))
	} else if n > 0 {
		logger.Info("Search columns backfilled", zap.Int("videos", n))
	}

	// 会话表
	var sessions session.Store
	switch cfg.Session.Store {
	case "redis":
		if err := infraRedis.Init(&cfg.Redis); err != nil {
			logger.Fatal("Failed to init redis", zap.Error(err))
		}
		defer infraRedis.Close()
		sessions = session.NewRedisStore(infraRedis.Get())
	default:
		sessions = session.NewMemoryStore(10 * time.Minute)
	}

	// 文件存储
	var store storage.Storage
	switch cfg.Storage.Driver {
	case "minio":
		if err := infraMinio.Init(&cfg.MinIO); err != nil {
			logger.Fatal("Failed to init minio", zap.Error(err))
		}
		store = storage.NewMinIOStorage(infraMinio.Get(), cfg.MinIO.VideoBucket, cfg.MinIO.ThumbnailBucket)
	default:
		local, err := storage.NewLocalStorage(cfg.Storage.UploadDir, cfg.Storage.ThumbnailDir)
		if err != nil {
			logger.Fatal("Failed to init local storage", zap.Error(err))
		}
		store = local
	}

	var extractor thumbnail.Extractor = thumbnail.NopExtractor{}
	if cfg.Thumbnail.Enabled {
		extractor = thumbnail.NewFFmpegExtractor(&cfg.Thumbnail)
	}

	// 初始化依赖（Repository -> Service -> Handler）
	db := database.Get()
	userRepo := repository.NewUserRepository(db)
	videoRepo := repository.NewVideoRepository(db)

	tokens := utils.NewTokenManager(cfg.Session.Secret, cfg.App.Name, cfg.Session.TTL())
	authService := service.NewAuthService(userRepo, sessions, tokens)
	videoService := service.NewVideoService(videoRepo, userRepo, store, extractor, &cfg.Upload)
	userService := service.NewUserService(userRepo, videoRepo)

	// Elasticsearch（可选，失败则搜索降级到 DB）
	if cfg.Elasticsearch.Enabled {
		if err := infraES.Init(&cfg.Elasticsearch); err != nil {
			logger.Warn("Elasticsearch init failed, search will fallback to DB", zap.Error(err))
		} else {
			defer infraES.Close()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := infraES.EnsureVideosIndex(ctx, cfg.Elasticsearch.VideosIndex()); err != nil {
				logger.Warn("Elasticsearch index init failed", zap.Error(err))
			}
			cancel()
			videoService.WithSearch(service.NewSearchService(videoRepo, cfg.Elasticsearch.VideosIndex()))
		}
	}

	// Kafka（可选，开启后索引由 worker 维护）
	if cfg.Kafka.Enabled {
		if err := infraKafka.InitProducer(&cfg.Kafka); err != nil {
			logger.Fatal("Failed to init kafka producer", zap.Error(err))
		}
		defer infraKafka.CloseProducer()
		videoService.WithEvents(infraKafka.NewEventPublisher(cfg.Kafka.Topics["video_events"]))
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		logger.Fatal("Failed to parse templates", zap.Error(err))
	}

	authHandler := handler.NewAuthHandler(authService)
	videoHandler := handler.NewVideoHandler(videoService, cfg.Upload.MaxSize)
	userHandler := handler.NewUserHandler(userService)
	mediaHandler := handler.NewMediaHandler(store)
	pages := web.NewHandler(authService, videoService, userService, renderer, &cfg.Session, &cfg.Upload, &cfg.Web)

	gin.SetMode(cfg.App.Mode)
	r := gin.New()
	r.MaxMultipartMemory = 32 << 20

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())

	r.GET("/healthz", healthCheckHandler)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.Setup(r, router.Options{
		Sessions:      authService,
		CookieName:    cfg.Session.CookieName,
		MaxUploadSize: cfg.Upload.MaxSize,
	}, authHandler, videoHandler, userHandler, mediaHandler, pages)

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Starting application",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("mode", cfg.App.Mode),
		zap.String("addr", addr),
		zap.String("database", cfg.Database.Driver),
		zap.String("session_store", cfg.Session.Store),
		zap.String("storage", cfg.Storage.Driver),
		zap.Bool("thumbnail", cfg.Thumbnail.Enabled),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 监听系统信号，优雅退出
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}

// healthCheckHandler 健康检查接口
func healthCheckHandler(c *gin.Context) {
	cfg := config.Get()

	status := "ok"
	code := http.StatusOK
	if sqlDB, err := database.Get().DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   cfg.App.Name,
		"version":   cfg.App.Version,
		"mode":      cfg.App.Mode,
	})
}
